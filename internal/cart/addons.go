package cart

import "github.com/Skotchmaster/bookstore_checkout/internal/pricing"

// Addons maps an add-on key to whether it is selected.
type Addons map[string]bool

// Known drops keys that have no price.
func (a Addons) Known() Addons {
	out := Addons{}
	for k, v := range a {
		if _, ok := pricing.AddonPrice(k); ok {
			out[k] = v
		}
	}
	return out
}

func (a Addons) Total() pricing.Money { return pricing.AddonTotal(a) }

// Selected returns the selected keys in a stable order.
func (a Addons) Selected() []string {
	var out []string
	for _, k := range pricing.AddonKeys() {
		if a[k] {
			out = append(out, k)
		}
	}
	return out
}
