package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/Skotchmaster/bookstore_checkout/internal/pricing"
)

type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingPayment: {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing:     {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:        {OrderStatusDelivered},
}

func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Order amounts are stored in paise.
type Order struct {
	ID        uint   `gorm:"primaryKey"                 json:"id"`
	SessionID string `gorm:"index;size:64"              json:"-"`
	TxnID     string `gorm:"uniqueIndex;size:32"        json:"txn_id"`

	FullName string `gorm:"size:200;not null"          json:"full_name"`
	Email    string `gorm:"size:254;not null"          json:"email"`
	Phone    string `gorm:"size:20;not null"           json:"phone"`
	Address  string `gorm:"type:text;not null"         json:"address"`
	City     string `gorm:"size:100;not null"          json:"city"`
	State    string `gorm:"size:100;not null"          json:"state"`
	Pincode  string `gorm:"size:6;not null"            json:"pincode"`

	DeliveryType  string `gorm:"size:100;not null"     json:"delivery_type"`
	PaymentMethod string `gorm:"size:20;not null"      json:"payment_method"`

	Subtotal   pricing.Money `gorm:"not null"          json:"subtotal"`
	Shipping   pricing.Money `gorm:"not null"          json:"shipping"`
	AddonTotal pricing.Money `gorm:"not null"          json:"addon_total"`
	Discount   pricing.Money `gorm:"not null;default:0" json:"discount"`
	Total      pricing.Money `gorm:"not null"          json:"total"`
	TotalBooks int           `gorm:"not null"          json:"total_books"`

	Status    OrderStatus `gorm:"size:20;index;not null" json:"status"`
	PaymentID string      `gorm:"size:100"               json:"payment_id,omitempty"`

	ShiprocketOrderID string `gorm:"size:50"  json:"shiprocket_order_id,omitempty"`
	ShipmentID        string `gorm:"size:50"  json:"shipment_id,omitempty"`
	AWBNumber         string `gorm:"size:50"  json:"awb_number,omitempty"`
	CourierName       string `gorm:"size:100" json:"courier_name,omitempty"`
	LabelURL          string `gorm:"size:500" json:"label_url,omitempty"`

	Items []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderItem struct {
	ID       uint          `gorm:"primaryKey"         json:"id"`
	OrderID  uint          `gorm:"index;not null"     json:"order_id"`
	ItemType string        `gorm:"size:20;not null"   json:"item_type"`
	ItemID   int64         `gorm:"not null"           json:"item_id"`
	Title    string        `gorm:"size:200;not null"  json:"title"`
	Price    pricing.Money `gorm:"not null"           json:"price"`
	Quantity int           `gorm:"not null;default:1" json:"quantity"`
	Image    string        `gorm:"size:500"           json:"image,omitempty"`
}

func (i OrderItem) IsAddon() bool { return i.ItemType == "addon" }

type VerificationChannel string

const (
	ChannelEmail    VerificationChannel = "email"
	ChannelSMS      VerificationChannel = "sms"
	ChannelWhatsApp VerificationChannel = "whatsapp"
)

// VerificationCode holds the pending one time code for a subject. Only the
// bcrypt hash of the code is stored.
type VerificationCode struct {
	ID         uint                `gorm:"primaryKey"                                  json:"id"`
	Channel    VerificationChannel `gorm:"size:16;not null;uniqueIndex:idx_code_subject" json:"channel"`
	Subject    string              `gorm:"size:254;not null;uniqueIndex:idx_code_subject" json:"subject"`
	CodeHash   string              `gorm:"size:100;not null"                           json:"-"`
	ExpiresAt  time.Time           `gorm:"not null"                                    json:"expires_at"`
	IsVerified bool                `gorm:"not null;default:false"                      json:"is_verified"`
	Attempts   int                 `gorm:"not null;default:0"                          json:"attempts"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// ShipmentEvent is a raw webhook delivery from the logistics provider.
type ShipmentEvent struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Payload    datatypes.JSON `gorm:"not null"   json:"payload"`
	ReceivedAt time.Time      `gorm:"index"      json:"received_at"`
}

type Product struct {
	ID           uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryCode string        `gorm:"size:8;index;not null"   json:"category_code"`
	Title        string        `gorm:"size:200;not null"       json:"title"`
	Price        pricing.Money `gorm:"not null"                json:"price"`
	OldPrice     pricing.Money `json:"old_price,omitempty"`
	OnSale       bool          `gorm:"default:false"           json:"on_sale"`
	Image        string        `gorm:"size:500"                json:"image,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// All lists every model migrated on startup.
func All() []any {
	return []any{&Order{}, &OrderItem{}, &VerificationCode{}, &ShipmentEvent{}, &Product{}}
}
