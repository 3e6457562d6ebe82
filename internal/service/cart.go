package service

import (
	"errors"
	"fmt"

	"github.com/Skotchmaster/bookstore_checkout/internal/cart"
	"github.com/Skotchmaster/bookstore_checkout/internal/pricing"
	"github.com/Skotchmaster/bookstore_checkout/internal/session"
	"github.com/Skotchmaster/bookstore_checkout/internal/transport"
)

// CartService edits the cart held in a checkout session.
type CartService struct{}

func mutation(s *session.Session) transport.CartMutationResponse {
	return transport.CartMutationResponse{
		Success:   true,
		CartCount: s.Cart.Count(),
		Total:     s.Cart.Subtotal(),
	}
}

func cartError(err error) error {
	switch {
	case errors.Is(err, cart.ErrLineNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, cart.ErrNoKey), errors.Is(err, cart.ErrInvalidLine):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return err
}

func (cs *CartService) Add(s *session.Session, req transport.AddToCartRequest) (transport.CartMutationResponse, error) {
	_, err := s.Cart.Add(cart.NewLine{
		ID:    req.ID,
		Type:  cart.ItemType(req.Type),
		Title: req.Title,
		Price: req.Price,
		Image: req.Image,
	})
	if err != nil {
		return transport.CartMutationResponse{}, cartError(err)
	}
	s.Touch()
	return mutation(s), nil
}

func (cs *CartService) Remove(s *session.Session, key string) (transport.CartMutationResponse, error) {
	if err := s.Cart.Remove(key); err != nil {
		return transport.CartMutationResponse{}, cartError(err)
	}
	s.Touch()
	return mutation(s), nil
}

// Update sets a line's quantity. A missing quantity means 1.
func (cs *CartService) Update(s *session.Session, key string, qty *int) (transport.CartMutationResponse, error) {
	n := 1
	if qty != nil {
		n = *qty
	}
	if err := s.Cart.SetQuantity(key, n); err != nil {
		return transport.CartMutationResponse{}, cartError(err)
	}
	s.Touch()
	return mutation(s), nil
}

func (cs *CartService) Clear(s *session.Session) transport.CartMutationResponse {
	s.Cart.Clear()
	s.Touch()
	return mutation(s)
}

func (cs *CartService) UpdateAddons(s *session.Session, addons cart.Addons) transport.UpdateAddonsResponse {
	s.SetAddons(addons)
	return transport.UpdateAddonsResponse{Success: true, AddonTotal: s.Addons.Total()}
}

func (cs *CartService) Addons(s *session.Session) transport.AddonsResponse {
	addons := s.Addons
	if addons == nil {
		addons = cart.Addons{}
	}
	return transport.AddonsResponse{Addons: addons, AddonTotal: addons.Total()}
}

// CartView is the sidebar payload priced with the display rules.
func (cs *CartService) CartView(s *session.Session) transport.CartItemsResponse {
	q := displayQuote(s)
	return transport.CartItemsResponse{
		CartCount:  s.Cart.Count(),
		Items:      s.Cart.Lines(),
		AddonTotal: q.AddonTotal,
		Shipping:   q.Shipping,
		Discount:   q.Discount,
		Total:      q.Total,
		TotalBooks: q.TotalBooks,
	}
}

// CheckoutSummary previews the checkout page. The shipping shown is the
// display estimate; the charged amount is fixed at payment initiation.
func (cs *CartService) CheckoutSummary(s *session.Session) (*transport.CheckoutSummary, error) {
	if s.Cart.Empty() {
		return nil, ErrEmptyCart
	}
	q := displayQuote(s)

	lines := s.Cart.Lines()
	items := make([]transport.CheckoutItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, transport.CheckoutItem{
			Title:    l.Title,
			Price:    l.Price,
			Quantity: l.Quantity,
			Image:    l.Image,
			Type:     l.Type,
		})
	}
	return &transport.CheckoutSummary{
		CartItems:     items,
		Subtotal:      q.Subtotal,
		Shipping:      q.Shipping,
		Discount:      q.Discount,
		AddonTotal:    q.AddonTotal,
		Total:         q.Total,
		TotalBooks:    q.TotalBooks,
		VerifiedEmail: s.VerifiedEmail,
	}, nil
}

func displayQuote(s *session.Session) pricing.Quote {
	return pricing.Display(pricing.DisplayInput{
		Subtotal:   s.Cart.Subtotal(),
		TotalBooks: s.Cart.Count(),
		Addons:     s.Addons,
	})
}
