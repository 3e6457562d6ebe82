package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore_checkout/internal/models"
)

// CreateOrder writes the order and its items in one transaction.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := order.Items
		order.Items = nil
		if err := tx.Create(order).Error; err != nil {
			order.Items = items
			return fmt.Errorf("create order: %w", err)
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				order.Items = items
				return fmt.Errorf("create order items: %w", err)
			}
		}
		order.Items = items
		return nil
	})
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// TransitionStatus moves the order from one status to another and applies the
// extra column updates in the same statement. It reports false when the order
// was not in the expected status.
func (r *GormRepo) TransitionStatus(ctx context.Context, id uint, from, to models.OrderStatus, updates map[string]any) (bool, error) {
	if !from.CanTransition(to) {
		return false, fmt.Errorf("transition %s -> %s not allowed", from, to)
	}

	cols := map[string]any{"status": to}
	for k, v := range updates {
		cols[k] = v
	}

	res := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(cols)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) MarkPaid(ctx context.Context, id uint, paymentID string) (bool, error) {
	return r.TransitionStatus(ctx, id, models.OrderStatusPendingPayment, models.OrderStatusProcessing,
		map[string]any{"payment_id": paymentID})
}

type ShipmentDetails struct {
	ShiprocketOrderID string
	ShipmentID        string
	AWBNumber         string
	CourierName       string
	LabelURL          string
}

// ApplyShipment records a booked shipment on a processing order. The order
// moves to shipped only when an airway bill was assigned.
func (r *GormRepo) ApplyShipment(ctx context.Context, id uint, s ShipmentDetails) (models.OrderStatus, error) {
	status := models.OrderStatusProcessing
	cols := map[string]any{
		"shiprocket_order_id": s.ShiprocketOrderID,
		"shipment_id":         s.ShipmentID,
		"awb_number":          s.AWBNumber,
		"courier_name":        s.CourierName,
		"label_url":           s.LabelURL,
	}
	if s.AWBNumber != "" {
		status = models.OrderStatusShipped
		cols["status"] = status
	}

	res := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, models.OrderStatusProcessing).
		Updates(cols)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", fmt.Errorf("order %d is not processing: %w", id, ErrNotFound)
	}
	return status, nil
}

// DeletePending removes an order and its items if the order is still waiting
// for payment. It reports whether anything was deleted.
func (r *GormRepo) DeletePending(ctx context.Context, id uint) (bool, error) {
	deleted := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND status = ?", id, models.OrderStatusPendingPayment).Delete(&models.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}
