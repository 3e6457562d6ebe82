package cart

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bookstore_checkout/internal/pricing"
)

func book(id int64, price int64) NewLine {
	return NewLine{ID: id, Type: TypeBook, Title: "Book", Price: pricing.Rupees(price)}
}

func TestCart_AddIncrementsExistingLine(t *testing.T) {
	t.Parallel()

	c := New()
	first, err := c.Add(book(1, 200))
	require.NoError(t, err)
	assert.Equal(t, "book_1", first.Key)
	assert.Equal(t, 1, first.Quantity)

	again, err := c.Add(NewLine{ID: 1, Type: TypeBook, Title: "Renamed", Price: pricing.Rupees(1)})
	require.NoError(t, err)
	assert.Equal(t, 2, again.Quantity)
	assert.Equal(t, "Book", again.Title)
	assert.Equal(t, pricing.Rupees(200), again.Price)

	_, err = c.Add(NewLine{ID: 1, Type: TypeProduct, Title: "Poster", Price: pricing.Rupees(50)})
	require.NoError(t, err)

	assert.Equal(t, 3, c.Count())
	assert.Equal(t, pricing.Rupees(450), c.Subtotal())
	assert.Len(t, c.Lines(), 2)
}

func TestCart_AddValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   NewLine
	}{
		{name: "addon type", in: NewLine{ID: 1, Type: TypeAddon, Title: "Bag", Price: 1}},
		{name: "unknown type", in: NewLine{ID: 1, Type: "toy", Title: "x", Price: 1}},
		{name: "missing id", in: NewLine{Type: TypeBook, Title: "x", Price: 1}},
		{name: "blank title", in: NewLine{ID: 1, Type: TypeBook, Title: "  ", Price: 1}},
		{name: "negative price", in: NewLine{ID: 1, Type: TypeBook, Title: "x", Price: -1}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New().Add(tt.in)
			assert.ErrorIs(t, err, ErrInvalidLine)
		})
	}
}

func TestCart_RemoveAndSetQuantity(t *testing.T) {
	t.Parallel()

	c := New()
	_, err := c.Add(book(1, 100))
	require.NoError(t, err)
	_, err = c.Add(book(2, 100))
	require.NoError(t, err)

	assert.ErrorIs(t, c.Remove(""), ErrNoKey)
	assert.ErrorIs(t, c.Remove("book_9"), ErrLineNotFound)
	require.NoError(t, c.Remove("book_2"))
	_, ok := c.Get("book_2")
	assert.False(t, ok)

	require.NoError(t, c.SetQuantity("book_1", 5))
	assert.Equal(t, 5, c.Count())

	assert.ErrorIs(t, c.SetQuantity("book_9", 1), ErrLineNotFound)

	require.NoError(t, c.SetQuantity("book_1", 0))
	assert.True(t, c.Empty())
}

func TestCart_QuantityLimits(t *testing.T) {
	t.Parallel()

	c := New()
	_, err := c.Add(book(1, 100))
	require.NoError(t, err)

	require.NoError(t, c.SetQuantity("book_1", MaxQuantity))
	assert.ErrorIs(t, c.SetQuantity("book_1", MaxQuantity+1), ErrInvalidLine)
	assert.ErrorIs(t, c.SetQuantity("book_1", math.MaxInt), ErrInvalidLine)

	_, err = c.Add(book(1, 100))
	assert.ErrorIs(t, err, ErrInvalidLine)
	l, ok := c.Get("book_1")
	require.True(t, ok)
	assert.Equal(t, MaxQuantity, l.Quantity)
	assert.Positive(t, int64(l.LineTotal()))

	_, err = c.Add(NewLine{ID: 2, Type: TypeBook, Title: "Atlas", Price: MaxPrice + 1})
	assert.ErrorIs(t, err, ErrInvalidLine)
}

func TestCart_JSONRoundTripKeepsKeys(t *testing.T) {
	t.Parallel()

	c := New()
	_, err := c.Add(book(7, 150))
	require.NoError(t, err)

	b, err := json.Marshal(c)
	require.NoError(t, err)

	var got Cart
	require.NoError(t, json.Unmarshal(b, &got))
	l, ok := got.Get("book_7")
	require.True(t, ok)
	assert.Equal(t, pricing.Rupees(150), l.Price)

	var legacy Cart
	require.NoError(t, json.Unmarshal([]byte(`{"product_3":{"id":3,"type":"product","title":"Mug","price":99.5,"quantity":2}}`), &legacy))
	l, ok = legacy.Get("product_3")
	require.True(t, ok)
	assert.Equal(t, "product_3", l.Key)
	assert.Equal(t, pricing.Money(19900), legacy.Subtotal())
}

func TestAddons(t *testing.T) {
	t.Parallel()

	a := Addons{"Bag": true, "bookmark": false, "packing": true, "giftwrap": true}.Known()
	assert.NotContains(t, a, "giftwrap")
	assert.Equal(t, pricing.Rupees(50), a.Total())
	assert.Equal(t, []string{"Bag", "packing"}, a.Selected())
}
