package transport

import (
	"github.com/Skotchmaster/bookstore_checkout/internal/cart"
	"github.com/Skotchmaster/bookstore_checkout/internal/pricing"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type AddToCartRequest struct {
	ID    int64         `json:"id"`
	Type  string        `json:"type"`
	Title string        `json:"title"`
	Price pricing.Money `json:"price"`
	Image string        `json:"image"`
}

type CartKeyRequest struct {
	Key string `json:"key"`
}

type UpdateQuantityRequest struct {
	Key      string `json:"key"`
	Quantity *int   `json:"quantity"`
}

type CartMutationResponse struct {
	Success   bool          `json:"success"`
	CartCount int           `json:"cart_count"`
	Total     pricing.Money `json:"total"`
}

type CartItemsResponse struct {
	CartCount  int           `json:"cart_count"`
	Items      []cart.Line   `json:"items"`
	AddonTotal pricing.Money `json:"addon_total"`
	Shipping   pricing.Money `json:"shipping"`
	Discount   pricing.Money `json:"discount"`
	Total      pricing.Money `json:"total"`
	TotalBooks int           `json:"total_books"`
}

type UpdateAddonsRequest struct {
	Addons cart.Addons `json:"addons"`
}

type UpdateAddonsResponse struct {
	Success    bool          `json:"success"`
	AddonTotal pricing.Money `json:"addon_total"`
}

type AddonsResponse struct {
	Addons     cart.Addons   `json:"addons"`
	AddonTotal pricing.Money `json:"addon_total"`
}

type CheckoutItem struct {
	Title    string        `json:"title"`
	Price    pricing.Money `json:"price"`
	Quantity int           `json:"quantity"`
	Image    string        `json:"image"`
	Type     cart.ItemType `json:"type"`
}

type CheckoutSummary struct {
	CartItems     []CheckoutItem `json:"cart_items"`
	Subtotal      pricing.Money  `json:"subtotal"`
	Shipping      pricing.Money  `json:"shipping"`
	Discount      pricing.Money  `json:"discount"`
	AddonTotal    pricing.Money  `json:"addon_total"`
	Total         pricing.Money  `json:"total"`
	TotalBooks    int            `json:"total_books"`
	VerifiedEmail string         `json:"verified_email,omitempty"`
}

type SendEmailOTPRequest struct {
	Email string `json:"email"`
}

type VerifyEmailOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type SendPhoneOTPRequest struct {
	Phone   string `json:"phone"`
	Channel string `json:"channel"`
}

type VerifyPhoneOTPRequest struct {
	Phone   string `json:"phone"`
	Channel string `json:"channel"`
	OTP     string `json:"otp"`
}

type InitiatePaymentRequest struct {
	FullName      string `json:"fullname"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Pincode       string `json:"pincode"`
	Delivery      string `json:"delivery"`
	PaymentMethod string `json:"payment_method"`
}

type InitiatePaymentResponse struct {
	Success    bool              `json:"success"`
	OrderID    uint              `json:"order_id"`
	PayuURL    string            `json:"payu_url"`
	PayuParams map[string]string `json:"payu_params"`
}

type ShippingRequest struct {
	Pincode       string `json:"pincode"`
	PaymentMethod string `json:"payment_method"`
}

type ShippingRate struct {
	CourierName   string  `json:"courier_name"`
	EstimatedDays string  `json:"estimated_days"`
	Rate          float64 `json:"rate"`
	TotalCharge   float64 `json:"total_charge"`
}

type ShippingResponse struct {
	Success       bool           `json:"success"`
	Rates         []ShippingRate `json:"rates"`
	Note          string         `json:"note,omitempty"`
	PickupPincode string         `json:"pickup_pincode"`
}
