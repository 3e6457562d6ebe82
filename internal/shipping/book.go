package shipping

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/Skotchmaster/bookstore_checkout/internal/models"
	"github.com/Skotchmaster/bookstore_checkout/pkg/apiclient"
)

const (
	orderDateLayout = "2006-01-02 15:04"
	hsnBook         = 4901
	hsnAddon        = 9999
	maxItemName     = 100
)

// Booking is the part of a created shipment the order ledger keeps.
type Booking struct {
	OrderID     string
	ShipmentID  string
	AWBCode     string
	CourierName string
	LabelURL    string
}

func (b *Booking) HasAWB() bool { return b != nil && b.AWBCode != "" }

type orderLine struct {
	Name         string  `json:"name"`
	SKU          string  `json:"sku"`
	Units        int     `json:"units"`
	SellingPrice float64 `json:"selling_price"`
	Discount     float64 `json:"discount"`
	Tax          float64 `json:"tax"`
	HSN          int     `json:"hsn"`
}

type adhocOrder struct {
	OrderID           string      `json:"order_id"`
	OrderDate         string      `json:"order_date"`
	PickupLocation    string      `json:"pickup_location"`
	ChannelID         string      `json:"channel_id,omitempty"`
	BillingCustomer   string      `json:"billing_customer_name"`
	BillingLastName   string      `json:"billing_last_name"`
	BillingAddress    string      `json:"billing_address"`
	BillingCity       string      `json:"billing_city"`
	BillingPincode    string      `json:"billing_pincode"`
	BillingState      string      `json:"billing_state"`
	BillingCountry    string      `json:"billing_country"`
	BillingEmail      string      `json:"billing_email"`
	BillingPhone      string      `json:"billing_phone"`
	ShippingIsBilling bool        `json:"shipping_is_billing"`
	OrderItems        []orderLine `json:"order_items"`
	PaymentMethod     string      `json:"payment_method"`
	ShippingCharges   float64     `json:"shipping_charges"`
	TotalDiscount     float64     `json:"total_discount"`
	SubTotal          float64     `json:"sub_total"`
	Length            int         `json:"length"`
	Breadth           int         `json:"breadth"`
	Height            int         `json:"height"`
	Weight            float64     `json:"weight"`
}

type adhocResponse struct {
	OrderID     flexString `json:"order_id"`
	ShipmentID  flexString `json:"shipment_id"`
	Status      string     `json:"status"`
	AWBCode     flexString `json:"awb_code"`
	CourierName string     `json:"courier_name"`
	LabelURL    string     `json:"label_url"`
	Message     string     `json:"message"`
}

// Book creates an ad hoc Shiprocket order for a paid order. The order must
// carry its items.
func (c *Client) Book(ctx context.Context, o *models.Order) (*Booking, error) {
	body := c.adhocOrder(o)

	var out adhocResponse
	err := c.call(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/orders/create/adhoc",
		Body:   body,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.OrderID == "" || out.ShipmentID == "" {
		msg := out.Message
		if msg == "" {
			msg = "missing order or shipment id"
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrBookingRejected, body.OrderID, msg)
	}

	return &Booking{
		OrderID:     string(out.OrderID),
		ShipmentID:  string(out.ShipmentID),
		AWBCode:     string(out.AWBCode),
		CourierName: out.CourierName,
		LabelURL:    out.LabelURL,
	}, nil
}

func (c *Client) adhocOrder(o *models.Order) adhocOrder {
	first, last := splitName(o.FullName)

	lines := make([]orderLine, 0, len(o.Items))
	units := 0
	for _, it := range o.Items {
		lines = append(lines, lineFor(it))
		if !it.IsAddon() {
			units += it.Quantity
		}
	}
	pkg := packageForBooking(units)

	payment := "Prepaid"
	if strings.EqualFold(o.PaymentMethod, "cod") {
		payment = "COD"
	}

	created := o.CreatedAt
	if created.IsZero() {
		created = c.now()
	}

	return adhocOrder{
		OrderID:           "FB" + strconv.FormatUint(uint64(o.ID), 10),
		OrderDate:         created.Format(orderDateLayout),
		PickupLocation:    c.cfg.PickupLocation,
		ChannelID:         c.cfg.ChannelID,
		BillingCustomer:   first,
		BillingLastName:   last,
		BillingAddress:    o.Address,
		BillingCity:       o.City,
		BillingPincode:    o.Pincode,
		BillingState:      o.State,
		BillingCountry:    "India",
		BillingEmail:      o.Email,
		BillingPhone:      o.Phone,
		ShippingIsBilling: true,
		OrderItems:        lines,
		PaymentMethod:     payment,
		ShippingCharges:   o.Shipping.Float(),
		TotalDiscount:     o.Discount.Float(),
		SubTotal:          (o.Subtotal + o.AddonTotal).Float(),
		Length:            pkg.Length,
		Breadth:           pkg.Breadth,
		Height:            pkg.Height,
		Weight:            pkg.Weight,
	}
}

func lineFor(it models.OrderItem) orderLine {
	l := orderLine{
		Name:         truncate(it.Title, maxItemName),
		Units:        it.Quantity,
		SellingPrice: it.Price.Float(),
		HSN:          hsnBook,
	}
	if it.IsAddon() {
		l.SKU = "FB-ADDON-" + it.Title
		l.HSN = hsnAddon
	} else {
		l.SKU = fmt.Sprintf("FB-%s-%d", it.ItemType, it.ItemID)
	}
	return l
}

// packageForBooking sizes the parcel from the number of non add-on units.
func packageForBooking(units int) Package {
	return Package{
		Weight:  math.Round(0.5*float64(units)*100) / 100,
		Length:  20,
		Breadth: 15,
		Height:  max(2, 2*units),
	}
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
