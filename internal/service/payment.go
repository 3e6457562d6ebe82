package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Skotchmaster/bookstore_checkout/internal/models"
	"github.com/Skotchmaster/bookstore_checkout/internal/payu"
	"github.com/Skotchmaster/bookstore_checkout/internal/pricing"
	"github.com/Skotchmaster/bookstore_checkout/internal/repo"
	"github.com/Skotchmaster/bookstore_checkout/internal/session"
	"github.com/Skotchmaster/bookstore_checkout/pkg/logging"
)

const (
	ShipmentBooked = "Success"
	ShipmentManual = "Manual processing required"
)

// PaymentOutcome is what the payment result page renders.
type PaymentOutcome struct {
	Success        bool
	Order          *models.Order
	Message        string
	ShipmentStatus string
	Notified       bool
	// Replayed is set when the order had already been paid by an earlier
	// callback.
	Replayed bool
}

// dropSessionOrder deletes the unpaid order this session started, and only
// that one.
func (s *CheckoutService) dropSessionOrder(ctx context.Context, sess *session.Session) {
	if sess == nil || sess.OrderID == 0 {
		return
	}
	l := logging.FromContext(ctx)
	if _, err := s.Orders.DeletePending(ctx, sess.OrderID); err != nil {
		l.Error("drop_session_order_error", "order_id", sess.OrderID, "error", err)
		return
	}
	sess.OrderID = 0
	sess.PayuTxnID = ""
	sess.Touch()
}

func (s *CheckoutService) clearSession(ctx context.Context, sess *session.Session, sessionID string) {
	if sess != nil && sess.ID == sessionID {
		sess.ClearCheckout()
		return
	}
	if s.Sessions == nil || sessionID == "" {
		return
	}
	if err := s.Sessions.ClearCheckout(ctx, sessionID); err != nil {
		logging.FromContext(ctx).Error("clear_session_error", "session_id", sessionID, "error", err)
	}
}

func (s *CheckoutService) loadCallbackOrder(ctx context.Context, resp payu.Response) (*models.Order, error) {
	id, err := strconv.ParseUint(resp.UDF[0], 10, 64)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("%w: order not found", ErrNotFound)
	}
	order, err := s.Orders.GetOrder(ctx, uint(id))
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: order not found", ErrNotFound)
		}
		return nil, err
	}
	return order, nil
}

// CompletePayment handles PayU's success callback. Nothing in the form is
// trusted before the hash checks out, and the order is only advanced from
// pending_payment once.
func (s *CheckoutService) CompletePayment(ctx context.Context, sess *session.Session, form url.Values) (*PaymentOutcome, error) {
	l := logging.FromContext(ctx).With("component", "checkout.complete_payment")
	resp := payu.ParseResponse(form)

	if err := s.Gateway.Verify(resp); err != nil {
		s.dropSessionOrder(ctx, sess)
		return nil, fmt.Errorf("%w: %w", ErrIntegrity, err)
	}

	order, err := s.loadCallbackOrder(ctx, resp)
	if err != nil {
		return nil, err
	}
	if order.TxnID != resp.TxnID {
		return nil, fmt.Errorf("%w: txnid does not match order %d", ErrIntegrity, order.ID)
	}
	if amt, err := pricing.Parse(resp.Amount); err != nil || amt != order.Total {
		return nil, fmt.Errorf("%w: amount %q does not match order %d", ErrIntegrity, resp.Amount, order.ID)
	}

	if !resp.Succeeded() {
		s.cancel(ctx, order)
		forgetOrder(sess, order.ID)
		return &PaymentOutcome{Order: order, Message: "Payment status: " + resp.Status}, nil
	}

	paid, err := s.Orders.MarkPaid(ctx, order.ID, resp.MihpayID)
	if err != nil {
		return nil, fmt.Errorf("mark paid: %w", err)
	}
	if !paid {
		current, err := s.Orders.GetOrder(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("reload order: %w", err)
		}
		l.Info("payment_callback_replayed", "order_id", current.ID, "status", current.Status)
		if current.Status == models.OrderStatusCancelled {
			return &PaymentOutcome{Order: current, Message: "Order was cancelled"}, nil
		}
		return &PaymentOutcome{Success: true, Order: current, Replayed: true, ShipmentStatus: shipmentStatus(current)}, nil
	}
	order.Status = models.OrderStatusProcessing
	order.PaymentID = resp.MihpayID

	out := &PaymentOutcome{Success: true, Order: order, ShipmentStatus: ShipmentManual}
	if s.book(ctx, order) {
		out.ShipmentStatus = ShipmentBooked
	}

	if s.Notifier != nil {
		err := s.Notifier.OrderConfirmed(ctx, order)
		if err != nil {
			l.Warn("order_notification_error", "order_id", order.ID, "error", err)
		}
		out.Notified = err == nil
	}

	s.publish(ctx, "order_paid", order)
	s.clearSession(ctx, sess, order.SessionID)

	l.Info("payment_completed", "order_id", order.ID, "status", order.Status)
	return out, nil
}

// book asks the carrier for a shipment. Failures leave the order in
// processing for manual handling.
func (s *CheckoutService) book(ctx context.Context, order *models.Order) bool {
	if s.Shipper == nil {
		return false
	}
	l := logging.FromContext(ctx).With("order_id", order.ID)

	b, err := s.Shipper.Book(ctx, order)
	if err != nil {
		l.Error("shipment_booking_error", "error", err)
		return false
	}

	status, err := s.Orders.ApplyShipment(ctx, order.ID, repo.ShipmentDetails{
		ShiprocketOrderID: b.OrderID,
		ShipmentID:        b.ShipmentID,
		AWBNumber:         b.AWBCode,
		CourierName:       b.CourierName,
		LabelURL:          b.LabelURL,
	})
	if err != nil {
		l.Error("shipment_record_error", "shipment_id", b.ShipmentID, "error", err)
		return false
	}
	order.ShiprocketOrderID = b.OrderID
	order.ShipmentID = b.ShipmentID
	order.AWBNumber = b.AWBCode
	order.CourierName = b.CourierName
	order.LabelURL = b.LabelURL
	order.Status = status
	if !b.HasAWB() {
		l.Warn("shipment_awb_pending", "shipment_id", b.ShipmentID)
	}
	return true
}

func shipmentStatus(o *models.Order) string {
	if o.ShipmentID != "" {
		return ShipmentBooked
	}
	return ShipmentManual
}

func (s *CheckoutService) cancel(ctx context.Context, order *models.Order) {
	deleted, err := s.Orders.DeletePending(ctx, order.ID)
	if err != nil {
		logging.FromContext(ctx).Error("delete_pending_order_error", "order_id", order.ID, "error", err)
		return
	}
	if deleted {
		order.Status = models.OrderStatusCancelled
		s.publish(ctx, "order_cancelled", order)
	}
}

// FailPayment handles PayU's failure callback. A verified callback removes
// the order it names; an unverified one can only cost the caller their own
// pending order. The cart is kept so the customer can retry.
func (s *CheckoutService) FailPayment(ctx context.Context, sess *session.Session, form url.Values) *PaymentOutcome {
	resp := payu.ParseResponse(form)
	msg := resp.ErrorMessage
	if msg == "" {
		msg = "Payment failed"
	}
	out := &PaymentOutcome{Message: msg}

	if err := s.Gateway.Verify(resp); err != nil {
		logging.FromContext(ctx).Warn("payment_failure_unverified", "error", err)
		s.dropSessionOrder(ctx, sess)
		return out
	}

	order, err := s.loadCallbackOrder(ctx, resp)
	if err != nil {
		return out
	}
	if order.TxnID == resp.TxnID {
		s.cancel(ctx, order)
		out.Order = order
	}
	forgetOrder(sess, order.ID)
	return out
}

// forgetOrder drops the order keys from the session if they still point at
// the given order. The cart stays.
func forgetOrder(sess *session.Session, orderID uint) {
	if sess != nil && sess.OrderID == orderID {
		sess.OrderID = 0
		sess.PayuTxnID = ""
		sess.Touch()
	}
}
