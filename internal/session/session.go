// Package session keeps the anonymous checkout state of a browser: its cart,
// selected add-ons, verified contact details and the pending payment.
package session

import (
	"github.com/google/uuid"

	"github.com/Skotchmaster/bookstore_checkout/internal/cart"
)

type Session struct {
	ID string `json:"-"`

	Cart          *cart.Cart  `json:"cart"`
	Addons        cart.Addons `json:"cart_addons,omitempty"`
	VerifiedEmail string      `json:"verified_email,omitempty"`
	VerifiedPhone string      `json:"verified_phone,omitempty"`
	PayuTxnID     string      `json:"payu_txnid,omitempty"`
	OrderID       uint        `json:"order_id,omitempty"`

	dirty bool
	fresh bool
}

func New() *Session {
	return &Session{
		ID:     uuid.NewString(),
		Cart:   cart.New(),
		Addons: cart.Addons{},
		fresh:  true,
	}
}

// Touch marks the session for saving at the end of the request.
func (s *Session) Touch() { s.dirty = true }

func (s *Session) Dirty() bool { return s.dirty }

// IsNew reports whether the session was created during this request.
func (s *Session) IsNew() bool { return s.fresh }

func (s *Session) SetAddons(a cart.Addons) {
	s.Addons = a.Known()
	s.Touch()
}

// ClearCheckout drops everything tied to a finished checkout.
func (s *Session) ClearCheckout() {
	s.Cart = cart.New()
	s.Addons = cart.Addons{}
	s.PayuTxnID = ""
	s.OrderID = 0
	s.VerifiedEmail = ""
	s.Touch()
}

func (s *Session) normalize() {
	if s.Cart == nil {
		s.Cart = cart.New()
	}
	if s.Addons == nil {
		s.Addons = cart.Addons{}
	}
}
