// Package catalog describes the storefront categories and how each one
// selects its products.
package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore_checkout/internal/models"
	"github.com/Skotchmaster/bookstore_checkout/internal/repo"
)

var ErrUnknownCategory = errors.New("unknown category")

const (
	TemplateDefault = "default"
	TemplateSale    = "sale"
)

type Query func(ctx context.Context, db *gorm.DB, p Page) ([]models.Product, error)

type Descriptor struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Template string `json:"template"`
	Query    Query  `json:"-"`
}

func byCategory(code string) Query {
	return func(ctx context.Context, db *gorm.DB, p Page) ([]models.Product, error) {
		return (&repo.GormRepo{DB: db}).ProductsByCategory(ctx, code, p.Offset(), p.Size)
	}
}

func onSale(ctx context.Context, db *gorm.DB, p Page) ([]models.Product, error) {
	return (&repo.GormRepo{DB: db}).ProductsOnSale(ctx, p.Offset(), p.Size)
}

func descriptors() []Descriptor {
	plain := func(code, name string) Descriptor {
		return Descriptor{Code: code, Name: name, Template: TemplateDefault, Query: byCategory(code)}
	}
	return []Descriptor{
		plain("NEW", "New Arrival"),
		plain("MNG", "Manga & Comics"),
		plain("MRC", "Most Read Combos"),
		plain("SFI", "Self Improvements"),
		{Code: "ROS", Name: "Romance on Sale", Template: TemplateSale, Query: onSale},
		plain("HIN", "Hindi Books"),
		plain("BSM", "Business & Stock-Market"),
		plain("MGC", "Mega Combo"),
	}
}

// Registry is built once at startup and read only afterwards.
type Registry struct {
	db    *gorm.DB
	list  []Descriptor
	codes map[string]int
}

func NewRegistry(db *gorm.DB) *Registry {
	list := descriptors()
	codes := make(map[string]int, len(list))
	for i, d := range list {
		codes[d.Code] = i
	}
	return &Registry{db: db, list: list, codes: codes}
}

func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, len(r.list))
	copy(out, r.list)
	return out
}

func (r *Registry) Lookup(code string) (Descriptor, error) {
	i, ok := r.codes[code]
	if !ok {
		return Descriptor{}, ErrUnknownCategory
	}
	return r.list[i], nil
}

func (r *Registry) Products(ctx context.Context, code string, p Page) (Descriptor, []models.Product, error) {
	d, err := r.Lookup(code)
	if err != nil {
		return Descriptor{}, nil, err
	}
	items, err := d.Query(ctx, r.db, p)
	if err != nil {
		return d, nil, err
	}
	return d, items, nil
}
