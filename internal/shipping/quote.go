package shipping

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/Skotchmaster/bookstore_checkout/pkg/apiclient"
)

const missingFreight = 9999

var ErrInvalidPincode = errors.New("pincode must be 6 digits")

type Package struct {
	Weight  float64
	Length  int
	Breadth int
	Height  int
}

// PackageForQuote estimates the parcel for a rate quote from the number of
// units in the cart.
func PackageForQuote(units int) Package {
	h := units * 2
	if units == 1 {
		h = 5
	}
	return Package{Weight: 0.5 * float64(units), Length: 20, Breadth: 15, Height: h}
}

type QuoteRequest struct {
	DeliveryPincode string
	Package         Package
	COD             bool
}

type Courier struct {
	Name          string
	Rating        float64
	FreightCharge float64
	TotalCharge   float64
	EstimatedDays string

	sortFreight float64
}

type serviceabilityResponse struct {
	Status int `json:"status"`
	Data   struct {
		AvailableCourierCompanies []struct {
			CourierName           string     `json:"courier_name"`
			Rating                flexFloat  `json:"rating"`
			FreightCharge         flexFloat  `json:"freight_charge"`
			Rate                  flexFloat  `json:"rate"`
			TotalCharge           flexFloat  `json:"total_charge"`
			EstimatedDeliveryDays flexString `json:"estimated_delivery_days"`
		} `json:"available_courier_companies"`
	} `json:"data"`
}

// Quote lists couriers serving the route, best rated first and cheapest
// first among equal ratings. Couriers without a freight charge sort last
// within their rating.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) ([]Courier, error) {
	if !ValidPincode(req.DeliveryPincode) {
		return nil, ErrInvalidPincode
	}

	cod := "0"
	if req.COD {
		cod = "1"
	}
	q := url.Values{
		"pickup_postcode":   {c.cfg.PickupPincode},
		"delivery_postcode": {req.DeliveryPincode},
		"weight":            {strconv.FormatFloat(req.Package.Weight, 'f', -1, 64)},
		"length":            {strconv.Itoa(req.Package.Length)},
		"breadth":           {strconv.Itoa(req.Package.Breadth)},
		"height":            {strconv.Itoa(req.Package.Height)},
		"cod":               {cod},
	}

	var out serviceabilityResponse
	if err := c.call(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/courier/serviceability/",
		Query:  q,
	}, &out); err != nil {
		return nil, err
	}
	if out.Status != 0 && out.Status != http.StatusOK {
		return nil, fmt.Errorf("%w: serviceability status %d", ErrUpstream, out.Status)
	}

	couriers := make([]Courier, 0, len(out.Data.AvailableCourierCompanies))
	for _, cc := range out.Data.AvailableCourierCompanies {
		if cc.CourierName == "" {
			continue
		}
		cr := Courier{
			Name:          cc.CourierName,
			Rating:        cc.Rating.Value,
			EstimatedDays: string(cc.EstimatedDeliveryDays),
			sortFreight:   missingFreight,
		}
		switch {
		case cc.FreightCharge.Set:
			cr.FreightCharge = cc.FreightCharge.Value
			cr.sortFreight = cr.FreightCharge
		case cc.Rate.Set:
			cr.FreightCharge = cc.Rate.Value
			cr.sortFreight = cr.FreightCharge
		}
		cr.TotalCharge = cr.FreightCharge
		if cc.TotalCharge.Set {
			cr.TotalCharge = cc.TotalCharge.Value
		}
		couriers = append(couriers, cr)
	}

	sort.SliceStable(couriers, func(i, j int) bool {
		if couriers[i].Rating != couriers[j].Rating {
			return couriers[i].Rating > couriers[j].Rating
		}
		return couriers[i].sortFreight < couriers[j].sortFreight
	})
	return couriers, nil
}

func ValidPincode(p string) bool {
	if len(p) != 6 {
		return false
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
