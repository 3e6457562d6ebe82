package service

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bookstore_checkout/internal/cart"
	"github.com/Skotchmaster/bookstore_checkout/internal/models"
	"github.com/Skotchmaster/bookstore_checkout/internal/payu"
	"github.com/Skotchmaster/bookstore_checkout/internal/pricing"
	"github.com/Skotchmaster/bookstore_checkout/internal/repo"
	"github.com/Skotchmaster/bookstore_checkout/internal/session"
	"github.com/Skotchmaster/bookstore_checkout/internal/shipping"
	"github.com/Skotchmaster/bookstore_checkout/internal/testutil"
	"github.com/Skotchmaster/bookstore_checkout/internal/transport"
)

type fakeShipper struct {
	mu       sync.Mutex
	booked   []uint
	booking  *shipping.Booking
	bookErr  error
	couriers []shipping.Courier
	quoteErr error
	lastReq  shipping.QuoteRequest
}

func (f *fakeShipper) Quote(_ context.Context, req shipping.QuoteRequest) ([]shipping.Courier, error) {
	f.lastReq = req
	return f.couriers, f.quoteErr
}

func (f *fakeShipper) Book(_ context.Context, o *models.Order) (*shipping.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.booked = append(f.booked, o.ID)
	return f.booking, f.bookErr
}

func (f *fakeShipper) PickupPincode() string { return "110001" }

type fakeNotifier struct {
	orders []uint
	err    error
}

func (f *fakeNotifier) OrderConfirmed(_ context.Context, o *models.Order) error {
	f.orders = append(f.orders, o.ID)
	return f.err
}

type fakePublisher struct {
	types []string
}

func (p *fakePublisher) PublishEvent(_ context.Context, _, _ string, event any) error {
	if ev, ok := event.(OrderEvent); ok {
		p.types = append(p.types, ev.Type)
	}
	return nil
}

type fakeSessions struct {
	cleared []string
}

func (f *fakeSessions) ClearCheckout(_ context.Context, id string) error {
	f.cleared = append(f.cleared, id)
	return nil
}

type checkoutFixture struct {
	svc      *CheckoutService
	repo     *repo.GormRepo
	shipper  *fakeShipper
	notifier *fakeNotifier
	events   *fakePublisher
	sessions *fakeSessions
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	f := &checkoutFixture{
		repo:     &repo.GormRepo{DB: testutil.NewDB(t)},
		shipper:  &fakeShipper{booking: &shipping.Booking{OrderID: "SR1", ShipmentID: "SH1", AWBCode: "AWB1", CourierName: "Delhivery"}},
		notifier: &fakeNotifier{},
		events:   &fakePublisher{},
		sessions: &fakeSessions{},
	}
	f.svc = &CheckoutService{
		Orders:   f.repo,
		Gateway:  payu.Gateway{Key: "gtKFFx", Salt: "eCwWELxi", TestMode: true},
		Shipper:  f.shipper,
		Notifier: f.notifier,
		Sessions: f.sessions,
		Events:   f.events,
		Topic:    "order_events",
		BaseURL:  "https://shop.example.com",
	}
	return f
}

func verifiedSession(t *testing.T, qty int) *session.Session {
	t.Helper()
	s := session.New()
	for i := 0; i < qty; i++ {
		_, err := s.Cart.Add(cart.NewLine{ID: 1, Type: cart.TypeBook, Title: "Dune", Price: pricing.Rupees(200)})
		require.NoError(t, err)
	}
	s.VerifiedEmail = "asha@example.com"
	return s
}

func addressRequest() transport.InitiatePaymentRequest {
	return transport.InitiatePaymentRequest{
		FullName: "Asha Rao",
		Phone:    "9876543210",
		Address:  "12 MG Road",
		City:     "Pune",
		State:    "Maharashtra",
		Pincode:  "411001",
	}
}

// callbackForm builds the form PayU would post for the given initiation.
func callbackForm(t *testing.T, g payu.Gateway, params map[string]string, status string) url.Values {
	t.Helper()
	r := payu.Response{
		Status:      status,
		TxnID:       params["txnid"],
		Amount:      params["amount"],
		ProductInfo: params["productinfo"],
		FirstName:   params["firstname"],
		Email:       params["email"],
		MihpayID:    "403993715521",
		UDF:         payu.UDF{params["udf1"], params["udf2"], params["udf3"], params["udf4"], params["udf5"]},
	}
	form := url.Values{}
	form.Set("status", r.Status)
	form.Set("txnid", r.TxnID)
	form.Set("amount", r.Amount)
	form.Set("productinfo", r.ProductInfo)
	form.Set("firstname", r.FirstName)
	form.Set("email", r.Email)
	form.Set("mihpayid", r.MihpayID)
	for i, v := range r.UDF {
		form.Set("udf"+strconv.Itoa(i+1), v)
	}
	form.Set("hash", g.ResponseHash(r))
	return form
}

func TestCheckoutService_InitiatePayment(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	sess := verifiedSession(t, 2)
	sess.SetAddons(cart.Addons{"Bag": true})

	resp, err := f.svc.InitiatePayment(context.Background(), sess, addressRequest())
	require.NoError(t, err)
	assert.Equal(t, payu.TestURL, resp.PayuURL)

	p := resp.PayuParams
	assert.Equal(t, "470.00", p["amount"])
	assert.Equal(t, "Book Order "+p["udf1"], p["productinfo"])
	assert.Equal(t, "https://shop.example.com/payment/success/", p["surl"])
	assert.Equal(t, "https://shop.example.com/payment/failure/", p["furl"])
	assert.Equal(t, "2", p["udf3"])
	assert.Equal(t, DefaultDelivery, p["udf4"])
	assert.Equal(t, "40.00", p["udf5"])
	assert.Len(t, p["txnid"], 23)
	assert.Equal(t, f.svc.Gateway.RequestHash(payu.PaymentRequest{
		TxnID: p["txnid"], Amount: pricing.Rupees(470), ProductInfo: p["productinfo"],
		FirstName: "Asha Rao", Email: "asha@example.com",
		UDF: payu.UDF{p["udf1"], p["udf2"], p["udf3"], p["udf4"], p["udf5"]},
	}), p["hash"])

	order, err := f.repo.GetOrder(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPendingPayment, order.Status)
	assert.Equal(t, sess.ID, order.SessionID)
	assert.Equal(t, pricing.Rupees(400), order.Subtotal)
	assert.Equal(t, pricing.Rupees(40), order.Shipping)
	assert.Equal(t, pricing.Rupees(30), order.AddonTotal)
	assert.Equal(t, order.Subtotal+order.Shipping+order.AddonTotal-order.Discount, order.Total)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "addon", order.Items[1].ItemType)
	assert.Equal(t, "Bag", order.Items[1].Title)

	assert.Equal(t, order.ID, sess.OrderID)
	assert.Equal(t, order.TxnID, sess.PayuTxnID)
	assert.True(t, sess.Dirty())
	assert.Equal(t, []string{"order_created"}, f.events.types)
}

func TestCheckoutService_InitiatePaymentCOD(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	sess := session.New()
	sess.VerifiedEmail = "asha@example.com"
	for i := 0; i < 12; i++ {
		_, err := sess.Cart.Add(cart.NewLine{ID: 5, Type: cart.TypeBook, Title: "Manga", Price: pricing.Rupees(50)})
		require.NoError(t, err)
	}

	req := addressRequest()
	req.PaymentMethod = "COD"
	resp, err := f.svc.InitiatePayment(context.Background(), sess, req)
	require.NoError(t, err)
	assert.Equal(t, "549.00", resp.PayuParams["amount"])
	assert.Equal(t, "100.00", resp.PayuParams["udf2"])
}

func TestCheckoutService_InitiatePaymentRejects(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()

	unverified := verifiedSession(t, 1)
	unverified.VerifiedEmail = ""
	_, err := f.svc.InitiatePayment(ctx, unverified, addressRequest())
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	empty := session.New()
	empty.VerifiedEmail = "asha@example.com"
	_, err = f.svc.InitiatePayment(ctx, empty, addressRequest())
	assert.ErrorIs(t, err, ErrEmptyCart)

	missing := addressRequest()
	missing.City = "  "
	_, err = f.svc.InitiatePayment(ctx, verifiedSession(t, 1), missing)
	assert.ErrorIs(t, err, ErrValidation)

	badMethod := addressRequest()
	badMethod.PaymentMethod = "crypto"
	_, err = f.svc.InitiatePayment(ctx, verifiedSession(t, 1), badMethod)
	assert.ErrorIs(t, err, ErrValidation)

	var n int64
	require.NoError(t, f.repo.DB.Model(&models.Order{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCheckoutService_InitiatePaymentCapsBulkDiscount(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()

	sess := session.New()
	sess.VerifiedEmail = "asha@example.com"
	for i := 0; i < 10; i++ {
		_, err := sess.Cart.Add(cart.NewLine{ID: 5, Type: cart.TypeBook, Title: "Pamphlet", Price: pricing.Rupees(5)})
		require.NoError(t, err)
	}

	resp, err := f.svc.InitiatePayment(ctx, sess, addressRequest())
	require.NoError(t, err)
	assert.Equal(t, "40.00", resp.PayuParams["amount"])
	assert.Equal(t, "50.00", resp.PayuParams["udf2"])

	order, err := f.repo.GetOrder(ctx, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, pricing.Rupees(50), order.Discount)
	assert.Equal(t, pricing.Rupees(40), order.Total)
}

func TestCheckoutService_InitiatePaymentReplacesPendingOrder(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	sess := verifiedSession(t, 1)

	first, err := f.svc.InitiatePayment(ctx, sess, addressRequest())
	require.NoError(t, err)
	second, err := f.svc.InitiatePayment(ctx, sess, addressRequest())
	require.NoError(t, err)

	_, err = f.repo.GetOrder(ctx, first.OrderID)
	assert.True(t, repo.IsNotFound(err))
	_, err = f.repo.GetOrder(ctx, second.OrderID)
	assert.NoError(t, err)
}

func TestCheckoutService_CompletePayment(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	sess := verifiedSession(t, 2)

	init, err := f.svc.InitiatePayment(ctx, sess, addressRequest())
	require.NoError(t, err)

	form := callbackForm(t, f.svc.Gateway, init.PayuParams, payu.StatusSuccess)
	out, err := f.svc.CompletePayment(ctx, sess, form)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, ShipmentBooked, out.ShipmentStatus)
	assert.True(t, out.Notified)
	assert.Equal(t, models.OrderStatusShipped, out.Order.Status)

	stored, err := f.repo.GetOrder(ctx, init.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, stored.Status)
	assert.Equal(t, "403993715521", stored.PaymentID)
	assert.Equal(t, "AWB1", stored.AWBNumber)
	assert.Equal(t, "SH1", stored.ShipmentID)

	assert.True(t, sess.Cart.Empty())
	assert.Empty(t, sess.VerifiedEmail)
	assert.Zero(t, sess.OrderID)
	assert.Equal(t, []string{"order_created", "order_paid"}, f.events.types)

	again, err := f.svc.CompletePayment(ctx, nil, form)
	require.NoError(t, err)
	assert.True(t, again.Success)
	assert.True(t, again.Replayed)
	assert.Len(t, f.shipper.booked, 1, "a replayed callback must not rebook")
	assert.Len(t, f.notifier.orders, 1)
}

func TestCheckoutService_CompletePaymentWithoutCookie(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	sess := verifiedSession(t, 1)

	init, err := f.svc.InitiatePayment(ctx, sess, addressRequest())
	require.NoError(t, err)

	other := session.New()
	_, err = f.svc.CompletePayment(ctx, other, callbackForm(t, f.svc.Gateway, init.PayuParams, payu.StatusSuccess))
	require.NoError(t, err)
	assert.Equal(t, []string{sess.ID}, f.sessions.cleared)
}

func TestCheckoutService_CompletePaymentBookingFailure(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	f.shipper.booking = nil
	f.shipper.bookErr = shipping.ErrBookingRejected
	f.notifier.err = errors.New("sms down")
	ctx := context.Background()
	sess := verifiedSession(t, 1)

	init, err := f.svc.InitiatePayment(ctx, sess, addressRequest())
	require.NoError(t, err)

	out, err := f.svc.CompletePayment(ctx, sess, callbackForm(t, f.svc.Gateway, init.PayuParams, payu.StatusSuccess))
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, ShipmentManual, out.ShipmentStatus)
	assert.False(t, out.Notified)

	stored, err := f.repo.GetOrder(ctx, init.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, stored.Status)
}

func TestCheckoutService_CompletePaymentWithoutAWB(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	f.shipper.booking = &shipping.Booking{OrderID: "SR2", ShipmentID: "SH2"}
	ctx := context.Background()
	sess := verifiedSession(t, 1)

	init, err := f.svc.InitiatePayment(ctx, sess, addressRequest())
	require.NoError(t, err)

	out, err := f.svc.CompletePayment(ctx, sess, callbackForm(t, f.svc.Gateway, init.PayuParams, payu.StatusSuccess))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, out.Order.Status)
	assert.Equal(t, "SH2", out.Order.ShipmentID)
}

func TestCheckoutService_CompletePaymentTampered(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(form url.Values, g payu.Gateway)
		wantErr error
		dropped bool
	}{
		{
			name:    "hash replaced",
			mutate:  func(form url.Values, _ payu.Gateway) { form.Set("hash", "00") },
			wantErr: ErrIntegrity,
			dropped: true,
		},
		{
			name:    "amount edited",
			mutate:  func(form url.Values, _ payu.Gateway) { form.Set("amount", "1.00") },
			wantErr: ErrIntegrity,
			dropped: true,
		},
		{
			name: "signed but wrong amount",
			mutate: func(form url.Values, g payu.Gateway) {
				form.Set("amount", "1.00")
				resp := payu.ParseResponse(form)
				form.Set("hash", g.ResponseHash(resp))
			},
			wantErr: ErrIntegrity,
		},
		{
			name: "signed but unknown order",
			mutate: func(form url.Values, g payu.Gateway) {
				form.Set("udf1", "99999")
				resp := payu.ParseResponse(form)
				form.Set("hash", g.ResponseHash(resp))
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newCheckoutFixture(t)
			ctx := context.Background()
			sess := verifiedSession(t, 1)

			init, err := f.svc.InitiatePayment(ctx, sess, addressRequest())
			require.NoError(t, err)

			form := callbackForm(t, f.svc.Gateway, init.PayuParams, payu.StatusSuccess)
			tt.mutate(form, f.svc.Gateway)

			_, err = f.svc.CompletePayment(ctx, sess, form)
			assert.ErrorIs(t, err, tt.wantErr)

			stored, getErr := f.repo.GetOrder(ctx, init.OrderID)
			if tt.dropped {
				assert.True(t, repo.IsNotFound(getErr))
				assert.Zero(t, sess.OrderID)
			} else {
				require.NoError(t, getErr)
				assert.Equal(t, models.OrderStatusPendingPayment, stored.Status)
			}
			assert.Empty(t, f.shipper.booked)
		})
	}
}

func TestCheckoutService_TamperedCallbackCannotDropOtherOrders(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()

	victim := verifiedSession(t, 1)
	victimInit, err := f.svc.InitiatePayment(ctx, victim, addressRequest())
	require.NoError(t, err)

	attacker := session.New()
	form := callbackForm(t, f.svc.Gateway, victimInit.PayuParams, "failure")
	form.Set("hash", "bogus")

	_, err = f.svc.CompletePayment(ctx, attacker, form)
	assert.ErrorIs(t, err, ErrIntegrity)
	_ = f.svc.FailPayment(ctx, attacker, form)

	_, err = f.repo.GetOrder(ctx, victimInit.OrderID)
	assert.NoError(t, err)
}

func TestCheckoutService_CompletePaymentGatewayFailure(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	sess := verifiedSession(t, 1)

	init, err := f.svc.InitiatePayment(ctx, sess, addressRequest())
	require.NoError(t, err)

	out, err := f.svc.CompletePayment(ctx, sess, callbackForm(t, f.svc.Gateway, init.PayuParams, "failure"))
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "Payment status: failure", out.Message)

	_, err = f.repo.GetOrder(ctx, init.OrderID)
	assert.True(t, repo.IsNotFound(err))
	assert.Equal(t, []string{"order_created", "order_cancelled"}, f.events.types)

	assert.Zero(t, sess.OrderID)
	assert.Empty(t, sess.PayuTxnID)
	assert.Equal(t, 1, sess.Cart.Count())
}

func TestCheckoutService_FailPayment(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	sess := verifiedSession(t, 1)

	init, err := f.svc.InitiatePayment(ctx, sess, addressRequest())
	require.NoError(t, err)

	form := callbackForm(t, f.svc.Gateway, init.PayuParams, "failure")
	form.Set("error_Message", "Bank declined")
	// error_Message is not part of the signed fields.
	out := f.svc.FailPayment(ctx, sess, form)
	assert.Equal(t, "Bank declined", out.Message)

	_, err = f.repo.GetOrder(ctx, init.OrderID)
	assert.True(t, repo.IsNotFound(err))
	assert.Zero(t, sess.OrderID)
	assert.False(t, sess.Cart.Empty(), "cart is kept for a retry")
}

func TestCheckoutService_ShippingQuote(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	f.shipper.couriers = []shipping.Courier{
		{Name: "A", Rating: 5, FreightCharge: 40, TotalCharge: 45, EstimatedDays: "2"},
		{Name: "B", Rating: 4, FreightCharge: 30, TotalCharge: 30},
		{Name: "C", Rating: 3, FreightCharge: 20, TotalCharge: 20, EstimatedDays: "6"},
		{Name: "D", Rating: 2, FreightCharge: 10, TotalCharge: 10},
	}
	ctx := context.Background()
	sess := verifiedSession(t, 3)

	out, err := f.svc.ShippingQuote(ctx, sess, "411001", "cod")
	require.NoError(t, err)
	require.Len(t, out.Rates, 3)
	assert.Equal(t, "110001", out.PickupPincode)
	assert.Empty(t, out.Note)
	assert.Equal(t, "3-5", out.Rates[1].EstimatedDays)
	assert.Equal(t, 45.0, out.Rates[0].TotalCharge)
	assert.True(t, f.shipper.lastReq.COD)
	assert.Equal(t, shipping.PackageForQuote(3), f.shipper.lastReq.Package)

	f.shipper.quoteErr = shipping.ErrUpstream
	out, err = f.svc.ShippingQuote(ctx, sess, "411001", "payu")
	require.NoError(t, err)
	assert.Equal(t, FallbackRateNote, out.Note)
	require.Len(t, out.Rates, 2)
	assert.Equal(t, "Standard Delivery", out.Rates[0].CourierName)
	assert.Equal(t, 99.0, out.Rates[1].Rate)

	_, err = f.svc.ShippingQuote(ctx, sess, "4110", "payu")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.ShippingQuote(ctx, session.New(), "411001", "payu")
	assert.ErrorIs(t, err, ErrEmptyCart)
}
