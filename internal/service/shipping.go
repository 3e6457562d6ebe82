package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/bookstore_checkout/internal/pricing"
	"github.com/Skotchmaster/bookstore_checkout/internal/session"
	"github.com/Skotchmaster/bookstore_checkout/internal/shipping"
	"github.com/Skotchmaster/bookstore_checkout/internal/transport"
	"github.com/Skotchmaster/bookstore_checkout/pkg/logging"
)

const (
	maxRates         = 3
	FallbackRateNote = "Using standard rates"
)

func fallbackRates() []transport.ShippingRate {
	return []transport.ShippingRate{
		{CourierName: "Standard Delivery", EstimatedDays: "5-7", Rate: 49, TotalCharge: 49},
		{CourierName: "Express Delivery", EstimatedDays: "2-3", Rate: 99, TotalCharge: 99},
	}
}

// ShippingQuote lists up to three courier options for the cart. When the
// carrier cannot quote, flat standard rates are offered instead.
func (s *CheckoutService) ShippingQuote(ctx context.Context, sess *session.Session, pincode, method string) (*transport.ShippingResponse, error) {
	if !shipping.ValidPincode(pincode) {
		return nil, fmt.Errorf("%w: please enter a valid 6-digit PIN code", ErrValidation)
	}
	if sess.Cart.Empty() {
		return nil, ErrEmptyCart
	}

	out := &transport.ShippingResponse{Success: true}
	if s.Shipper == nil {
		out.Rates = fallbackRates()
		out.Note = FallbackRateNote
		return out, nil
	}
	out.PickupPincode = s.Shipper.PickupPincode()

	couriers, err := s.Shipper.Quote(ctx, shipping.QuoteRequest{
		DeliveryPincode: pincode,
		Package:         shipping.PackageForQuote(sess.Cart.Count()),
		COD:             method == pricing.MethodCOD,
	})
	if err != nil {
		logging.FromContext(ctx).Warn("shipping_quote_error", "pincode", pincode, "error", err)
	}
	if err != nil || len(couriers) == 0 {
		out.Rates = fallbackRates()
		out.Note = FallbackRateNote
		return out, nil
	}

	if len(couriers) > maxRates {
		couriers = couriers[:maxRates]
	}
	out.Rates = make([]transport.ShippingRate, 0, len(couriers))
	for _, c := range couriers {
		r := transport.ShippingRate{
			CourierName:   c.Name,
			EstimatedDays: c.EstimatedDays,
			Rate:          c.FreightCharge,
			TotalCharge:   c.TotalCharge,
		}
		if r.CourierName == "" {
			r.CourierName = "Standard"
		}
		if r.EstimatedDays == "" {
			r.EstimatedDays = "3-5"
		}
		out.Rates = append(out.Rates, r)
	}
	return out, nil
}
