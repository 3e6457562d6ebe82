package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/Skotchmaster/bookstore_checkout/internal/models"
)

const maxListedItems = 3

type Messenger interface {
	Send(ctx context.Context, phone, message string) error
}

type EmailSender interface {
	SendEmail(ctx context.Context, e Email) error
}

// Dispatcher sends the order confirmation to the customer and the order
// summary to the shop admin.
type Dispatcher struct {
	Mail       EmailSender
	Customer   Messenger
	AdminEmail string
	StoreName  string

	policy *bluemonday.Policy
}

func NewDispatcher(mail EmailSender, customer Messenger, adminEmail, storeName string) *Dispatcher {
	return &Dispatcher{
		Mail:       mail,
		Customer:   customer,
		AdminEmail: adminEmail,
		StoreName:  storeName,
		policy:     bluemonday.StrictPolicy(),
	}
}

// OrderConfirmed tries every channel and returns the joined failures.
func (d *Dispatcher) OrderConfirmed(ctx context.Context, order *models.Order) error {
	var errs []error

	if d.AdminEmail != "" && d.Mail != nil {
		mail, err := d.AdminOrderEmail(order)
		if err != nil {
			errs = append(errs, fmt.Errorf("admin email: %w", err))
		} else if err := d.Mail.SendEmail(ctx, mail); err != nil {
			errs = append(errs, fmt.Errorf("admin email: %w", err))
		}
	}

	if d.Customer != nil {
		if err := d.Customer.Send(ctx, order.Phone, CustomerMessage(d.StoreName, order)); err != nil {
			errs = append(errs, fmt.Errorf("customer message: %w", err))
		}
	}

	return errors.Join(errs...)
}

// CustomerMessage is the short confirmation sent by SMS or WhatsApp.
func CustomerMessage(storeName string, order *models.Order) string {
	var names []string
	for _, it := range order.Items {
		if !it.IsAddon() {
			names = append(names, it.Title)
		}
	}

	items := strings.Join(firstN(names, maxListedItems), ", ")
	if extra := len(names) - maxListedItems; extra > 0 {
		items = fmt.Sprintf("%s and %d more", items, extra)
	}

	firstName := strings.Fields(order.FullName)
	greet := "there"
	if len(firstName) > 0 {
		greet = firstName[0]
	}

	return fmt.Sprintf("Hi %s, your %s order #%d is confirmed. Items: %s. Total: Rs.%s. Delivering to %s, %s.",
		greet, storeName, order.ID, items, order.Total, order.City, order.Pincode)
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

var adminTmpl = template.Must(template.New("admin").Parse(`<h2>New order #{{.ID}}</h2>
<p><strong>Customer:</strong> {{.Name}}<br>
<strong>Email:</strong> {{.Email}}<br>
<strong>Phone:</strong> {{.Phone}}</p>
<p><strong>Ship to:</strong> {{.Address}}, {{.City}}, {{.State}} {{.Pincode}}<br>
<strong>Delivery:</strong> {{.Delivery}}<br>
<strong>Payment:</strong> {{.Method}} ({{.PaymentID}})</p>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Item</th><th>Type</th><th>Qty</th><th>Price</th></tr>
{{range .Items}}<tr><td>{{.Title}}</td><td>{{.ItemType}}</td><td>{{.Quantity}}</td><td>{{.Price}}</td></tr>
{{end}}</table>
<p>Subtotal: {{.Subtotal}}<br>Add-ons: {{.AddonTotal}}<br>Shipping: {{.Shipping}}<br>Discount: -{{.Discount}}<br>
<strong>Total: {{.Total}}</strong></p>`))

type adminView struct {
	ID                                               uint
	Name, Email, Phone, Address, City, State, Pincode string
	Delivery, Method, PaymentID                      string
	Items                                            []models.OrderItem
	Subtotal, AddonTotal, Shipping, Discount, Total  string
}

// displayPhone shows a valid number with its country code and leaves
// anything else as entered.
func displayPhone(raw string) string {
	if phone, err := NormalizePhone(raw); err == nil {
		return WithCountryCode(phone)
	}
	return raw
}

// AdminOrderEmail renders the order summary. Customer supplied text is
// stripped of markup first.
func (d *Dispatcher) AdminOrderEmail(order *models.Order) (Email, error) {
	policy := d.policy
	if policy == nil {
		policy = bluemonday.StrictPolicy()
	}
	// the template escapes on output, so undo the policy's entity encoding
	clean := func(s string) string { return html.UnescapeString(policy.Sanitize(s)) }

	items := make([]models.OrderItem, len(order.Items))
	for i, it := range order.Items {
		it.Title = clean(it.Title)
		items[i] = it
	}

	v := adminView{
		ID:         order.ID,
		Name:       clean(order.FullName),
		Email:      clean(order.Email),
		Phone:      displayPhone(clean(order.Phone)),
		Address:    clean(order.Address),
		City:       clean(order.City),
		State:      clean(order.State),
		Pincode:    clean(order.Pincode),
		Delivery:   clean(order.DeliveryType),
		Method:     strings.ToUpper(order.PaymentMethod),
		PaymentID:  clean(order.PaymentID),
		Items:      items,
		Subtotal:   order.Subtotal.String(),
		AddonTotal: order.AddonTotal.String(),
		Shipping:   order.Shipping.String(),
		Discount:   order.Discount.String(),
		Total:      order.Total.String(),
	}

	var buf bytes.Buffer
	if err := adminTmpl.Execute(&buf, v); err != nil {
		return Email{}, err
	}

	return Email{
		To:      []string{d.AdminEmail},
		Subject: fmt.Sprintf("New order #%d - Rs.%s", order.ID, order.Total),
		HTML:    buf.String(),
		Text: fmt.Sprintf("Order #%d from %s (%s), total Rs.%s, ship to %s, %s %s.",
			order.ID, v.Name, v.Phone, v.Total, v.City, v.State, v.Pincode),
	}, nil
}
