package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/bookstore_checkout/internal/models"
	"github.com/Skotchmaster/bookstore_checkout/internal/payu"
	"github.com/Skotchmaster/bookstore_checkout/internal/pricing"
	"github.com/Skotchmaster/bookstore_checkout/internal/repo"
	"github.com/Skotchmaster/bookstore_checkout/internal/session"
	"github.com/Skotchmaster/bookstore_checkout/internal/shipping"
	"github.com/Skotchmaster/bookstore_checkout/internal/transport"
	"github.com/Skotchmaster/bookstore_checkout/pkg/events"
	"github.com/Skotchmaster/bookstore_checkout/pkg/logging"
)

const (
	DefaultDelivery = "Standard (3-6 days)"
	maxFirstName    = 50
	publishTimeout  = 5 * time.Second
)

type OrderRepo interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	MarkPaid(ctx context.Context, id uint, paymentID string) (bool, error)
	ApplyShipment(ctx context.Context, id uint, s repo.ShipmentDetails) (models.OrderStatus, error)
	DeletePending(ctx context.Context, id uint) (bool, error)
}

type Shipper interface {
	Quote(ctx context.Context, req shipping.QuoteRequest) ([]shipping.Courier, error)
	Book(ctx context.Context, order *models.Order) (*shipping.Booking, error)
	PickupPincode() string
}

type Notifier interface {
	OrderConfirmed(ctx context.Context, order *models.Order) error
}

// SessionStore clears a session other than the one bound to the request.
type SessionStore interface {
	ClearCheckout(ctx context.Context, id string) error
}

type CheckoutService struct {
	Orders   OrderRepo
	Gateway  payu.Gateway
	Shipper  Shipper
	Notifier Notifier
	Sessions SessionStore
	Events   events.Publisher
	Topic    string
	BaseURL  string
}

// OrderEvent is published on the order topic at each checkout milestone.
type OrderEvent struct {
	Type    string             `json:"type"`
	OrderID uint               `json:"order_id"`
	TxnID   string             `json:"txn_id"`
	Status  models.OrderStatus `json:"status"`
	Total   pricing.Money      `json:"total"`
	At      time.Time          `json:"at"`
}

func (s *CheckoutService) publish(ctx context.Context, typ string, o *models.Order) {
	if s.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	ev := OrderEvent{Type: typ, OrderID: o.ID, TxnID: o.TxnID, Status: o.Status, Total: o.Total, At: time.Now().UTC()}
	if err := s.Events.PublishEvent(ctx, s.Topic, strconv.FormatUint(uint64(o.ID), 10), ev); err != nil {
		logging.FromContext(ctx).Warn("order_event_publish_error", "type", typ, "order_id", o.ID, "error", err)
	}
}

// NewTxnID returns a PayU transaction id: TXN followed by 20 hex digits.
func NewTxnID() string {
	return "TXN" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}

func normalizeInitiate(req *transport.InitiatePaymentRequest) error {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)
	req.City = strings.TrimSpace(req.City)
	req.State = strings.TrimSpace(req.State)
	req.Pincode = strings.TrimSpace(req.Pincode)
	req.Delivery = strings.TrimSpace(req.Delivery)
	req.PaymentMethod = strings.ToLower(strings.TrimSpace(req.PaymentMethod))

	for _, f := range []string{req.FullName, req.Phone, req.Address, req.City, req.State, req.Pincode} {
		if f == "" {
			return fmt.Errorf("%w: all fields are required", ErrValidation)
		}
	}
	if !shipping.ValidPincode(req.Pincode) {
		return fmt.Errorf("%w: pincode must be 6 digits", ErrValidation)
	}
	if req.Delivery == "" {
		req.Delivery = DefaultDelivery
	}
	switch req.PaymentMethod {
	case "":
		req.PaymentMethod = pricing.MethodPayU
	case pricing.MethodPayU, pricing.MethodCOD:
	default:
		return fmt.Errorf("%w: unknown payment method %q", ErrValidation, req.PaymentMethod)
	}
	return nil
}

func orderItems(sess *session.Session) []models.OrderItem {
	lines := sess.Cart.Lines()
	items := make([]models.OrderItem, 0, len(lines)+len(pricing.AddonKeys()))
	for _, l := range lines {
		items = append(items, models.OrderItem{
			ItemType: string(l.Type),
			ItemID:   l.ID,
			Title:    l.Title,
			Price:    l.Price,
			Quantity: l.Quantity,
			Image:    l.Image,
		})
	}
	for _, key := range sess.Addons.Selected() {
		price, _ := pricing.AddonPrice(key)
		items = append(items, models.OrderItem{
			ItemType: "addon",
			ItemID:   0,
			Title:    pricing.AddonName(key),
			Price:    price,
			Quantity: 1,
		})
	}
	return items
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// InitiatePayment freezes the cart into a pending order and returns the
// signed form the browser posts to PayU.
func (s *CheckoutService) InitiatePayment(ctx context.Context, sess *session.Session, req transport.InitiatePaymentRequest) (*transport.InitiatePaymentResponse, error) {
	if sess.VerifiedEmail == "" {
		return nil, ErrEmailNotVerified
	}
	if sess.Cart.Empty() {
		return nil, ErrEmptyCart
	}
	if err := normalizeInitiate(&req); err != nil {
		return nil, err
	}

	q := pricing.Checkout(pricing.CheckoutInput{
		Subtotal:      sess.Cart.Subtotal(),
		TotalBooks:    sess.Cart.Count(),
		Addons:        sess.Addons,
		PaymentMethod: req.PaymentMethod,
	})
	if q.Total <= 0 {
		return nil, fmt.Errorf("%w: order total must be positive", ErrValidation)
	}

	// A retried checkout replaces the previous unpaid order.
	if sess.OrderID != 0 {
		if _, err := s.Orders.DeletePending(ctx, sess.OrderID); err != nil {
			return nil, fmt.Errorf("drop previous order: %w", err)
		}
	}

	order := &models.Order{
		SessionID:     sess.ID,
		TxnID:         NewTxnID(),
		FullName:      req.FullName,
		Email:         sess.VerifiedEmail,
		Phone:         req.Phone,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
		Pincode:       req.Pincode,
		DeliveryType:  req.Delivery,
		PaymentMethod: req.PaymentMethod,
		Subtotal:      q.Subtotal,
		Shipping:      q.Shipping,
		AddonTotal:    q.AddonTotal,
		Discount:      q.Discount,
		Total:         q.Total,
		TotalBooks:    q.TotalBooks,
		Status:        models.OrderStatusPendingPayment,
		Items:         orderItems(sess),
	}
	if err := s.Orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	params := s.Gateway.Params(payu.PaymentRequest{
		TxnID:       order.TxnID,
		Amount:      order.Total,
		ProductInfo: fmt.Sprintf("Book Order %d", order.ID),
		FirstName:   truncateRunes(order.FullName, maxFirstName),
		Email:       order.Email,
		Phone:       order.Phone,
		SuccessURL:  s.BaseURL + "/payment/success/",
		FailureURL:  s.BaseURL + "/payment/failure/",
		UDF: payu.UDF{
			strconv.FormatUint(uint64(order.ID), 10),
			order.Discount.String(),
			strconv.Itoa(order.TotalBooks),
			order.DeliveryType,
			order.Shipping.String(),
		},
	})

	sess.PayuTxnID = order.TxnID
	sess.OrderID = order.ID
	sess.Touch()

	s.publish(ctx, "order_created", order)

	return &transport.InitiatePaymentResponse{
		Success:    true,
		OrderID:    order.ID,
		PayuURL:    s.Gateway.PaymentURL(),
		PayuParams: params,
	}, nil
}
