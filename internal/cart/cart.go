// Package cart holds the shopping cart aggregate kept in a checkout session.
package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Skotchmaster/bookstore_checkout/internal/pricing"
)

type ItemType string

const (
	TypeBook    ItemType = "book"
	TypeProduct ItemType = "product"
	TypeAddon   ItemType = "addon"
)

// Limits on a single line. They keep LineTotal well inside int64 paise.
const (
	MaxQuantity = 999
	MaxPrice    = pricing.Money(10_000_000_00)
)

var (
	ErrNoKey        = errors.New("no key provided")
	ErrLineNotFound = errors.New("item not found")
	ErrInvalidLine  = errors.New("invalid cart item")
)

type Line struct {
	Key      string        `json:"key"`
	ID       int64         `json:"id"`
	Type     ItemType      `json:"type"`
	Title    string        `json:"title"`
	Price    pricing.Money `json:"price"`
	Image    string        `json:"image"`
	Quantity int           `json:"quantity"`
}

func (l Line) LineTotal() pricing.Money { return l.Price.Mul(l.Quantity) }

type NewLine struct {
	ID    int64
	Type  ItemType
	Title string
	Price pricing.Money
	Image string
}

func Key(t ItemType, id int64) string { return fmt.Sprintf("%s_%d", t, id) }

type Cart struct {
	lines map[string]Line
}

func New() *Cart { return &Cart{lines: map[string]Line{}} }

// Add puts one more unit of the item into the cart. An item already in the
// cart keeps its original title and price.
func (c *Cart) Add(in NewLine) (Line, error) {
	if in.Type != TypeBook && in.Type != TypeProduct {
		return Line{}, fmt.Errorf("%w: type must be book or product", ErrInvalidLine)
	}
	if in.ID <= 0 {
		return Line{}, fmt.Errorf("%w: id required", ErrInvalidLine)
	}
	if strings.TrimSpace(in.Title) == "" {
		return Line{}, fmt.Errorf("%w: title required", ErrInvalidLine)
	}
	if in.Price < 0 || in.Price > MaxPrice {
		return Line{}, fmt.Errorf("%w: price out of range", ErrInvalidLine)
	}

	c.ensure()
	key := Key(in.Type, in.ID)
	if l, ok := c.lines[key]; ok {
		if l.Quantity >= MaxQuantity {
			return Line{}, fmt.Errorf("%w: quantity above %d", ErrInvalidLine, MaxQuantity)
		}
		l.Quantity++
		c.lines[key] = l
		return l, nil
	}

	l := Line{
		Key:      key,
		ID:       in.ID,
		Type:     in.Type,
		Title:    strings.TrimSpace(in.Title),
		Price:    in.Price,
		Image:    in.Image,
		Quantity: 1,
	}
	c.lines[key] = l
	return l, nil
}

func (c *Cart) Remove(key string) error {
	if key == "" {
		return ErrNoKey
	}
	if _, ok := c.lines[key]; !ok {
		return ErrLineNotFound
	}
	delete(c.lines, key)
	return nil
}

// SetQuantity replaces a line's quantity; zero or less removes the line.
func (c *Cart) SetQuantity(key string, qty int) error {
	if key == "" {
		return ErrNoKey
	}
	l, ok := c.lines[key]
	if !ok {
		return ErrLineNotFound
	}
	if qty <= 0 {
		delete(c.lines, key)
		return nil
	}
	if qty > MaxQuantity {
		return fmt.Errorf("%w: quantity above %d", ErrInvalidLine, MaxQuantity)
	}
	l.Quantity = qty
	c.lines[key] = l
	return nil
}

func (c *Cart) Clear() { c.lines = map[string]Line{} }

func (c *Cart) Get(key string) (Line, bool) {
	l, ok := c.lines[key]
	return l, ok
}

func (c *Cart) Empty() bool { return c == nil || len(c.lines) == 0 }

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Subtotal() pricing.Money {
	if c == nil {
		return 0
	}
	var total pricing.Money
	for _, l := range c.lines {
		total += l.LineTotal()
	}
	return total
}

// Lines returns a copy of the lines ordered by key.
func (c *Cart) Lines() []Line {
	if c == nil {
		return []Line{}
	}
	out := make([]Line, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (c *Cart) ensure() {
	if c.lines == nil {
		c.lines = map[string]Line{}
	}
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	if c.lines == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.lines)
}

func (c *Cart) UnmarshalJSON(b []byte) error {
	lines := map[string]Line{}
	if err := json.Unmarshal(b, &lines); err != nil {
		return err
	}
	for k, l := range lines {
		if l.Key == "" {
			l.Key = k
			lines[k] = l
		}
	}
	c.lines = lines
	return nil
}
