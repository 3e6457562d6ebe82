package pricing

const (
	FreeShippingThreshold = Money(499 * 100)
	BulkDiscountBooks     = 10
	BulkDiscount          = Money(100 * 100)

	MethodPayU = "payu"
	MethodCOD  = "cod"
)

var addonPrices = map[string]Money{
	"Bag":      Rupees(30),
	"bookmark": Rupees(20),
	"packing":  Rupees(20),
}

var addonOrder = []string{"Bag", "bookmark", "packing"}

var addonNames = map[string]string{
	"Bag":      "Bag",
	"bookmark": "Bookmark",
	"packing":  "Packing",
}

// AddonKeys lists the add-on keys in display order.
func AddonKeys() []string {
	return append([]string(nil), addonOrder...)
}

// AddonPrice reports the flat price of a known add-on.
func AddonPrice(key string) (Money, bool) {
	p, ok := addonPrices[key]
	return p, ok
}

func AddonName(key string) string {
	if n, ok := addonNames[key]; ok {
		return n
	}
	return key
}

// AddonTotal sums the selected add-ons. Unknown keys are ignored.
func AddonTotal(selected map[string]bool) Money {
	var total Money
	for key, on := range selected {
		if on {
			total += addonPrices[key]
		}
	}
	return total
}

type Quote struct {
	Subtotal   Money `json:"subtotal"`
	Shipping   Money `json:"shipping"`
	AddonTotal Money `json:"addon_total"`
	Discount   Money `json:"discount"`
	Total      Money `json:"total"`
	TotalBooks int   `json:"total_books"`
}

type CheckoutInput struct {
	Subtotal      Money
	TotalBooks    int
	Addons        map[string]bool
	PaymentMethod string
}

// Checkout prices an order at payment initiation. Shipping depends on the
// payment method; cash on delivery always carries a surcharge.
func Checkout(in CheckoutInput) Quote {
	q := Quote{
		Subtotal:   in.Subtotal,
		AddonTotal: AddonTotal(in.Addons),
		Discount:   discount(in.TotalBooks, in.Subtotal),
		TotalBooks: in.TotalBooks,
	}

	cod := in.PaymentMethod == MethodCOD
	switch {
	case in.Subtotal >= FreeShippingThreshold && cod:
		q.Shipping = Rupees(49)
	case in.Subtotal >= FreeShippingThreshold:
		q.Shipping = 0
	case cod:
		q.Shipping = Rupees(89)
	default:
		q.Shipping = Rupees(40)
	}

	q.Total = q.Subtotal + q.Shipping + q.AddonTotal - q.Discount
	return q
}

type DisplayInput struct {
	Subtotal   Money
	TotalBooks int
	Addons     map[string]bool
}

// Display is the cart sidebar preview. It ignores the payment method and is
// not the amount charged.
func Display(in DisplayInput) Quote {
	q := Quote{
		Subtotal:   in.Subtotal,
		AddonTotal: AddonTotal(in.Addons),
		Discount:   discount(in.TotalBooks, in.Subtotal),
		TotalBooks: in.TotalBooks,
	}
	if in.Subtotal < FreeShippingThreshold {
		q.Shipping = Rupees(49)
	}
	q.Total = q.Subtotal + q.Shipping + q.AddonTotal - q.Discount
	return q
}

// discount never exceeds the subtotal it is taken from.
func discount(totalBooks int, subtotal Money) Money {
	if totalBooks < BulkDiscountBooks || subtotal <= 0 {
		return 0
	}
	return min(BulkDiscount, subtotal)
}
