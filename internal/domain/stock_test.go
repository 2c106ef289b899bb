package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewStock_ReadBack(t *testing.T) {
	s := NewStock(5, "Widget", dec("10"), 5, 6)

	assert.Equal(t, 5, s.ProductID())
	assert.Equal(t, "Widget", s.Description())
	assert.Equal(t, "10.00", s.Price().StringFixed(2))
	assert.Equal(t, 6, s.Quantity())
	assert.Equal(t, 5, s.SafeStockAmount())
	assert.True(t, s.TotalFromSales().IsZero())
	assert.Zero(t, s.NumberSold())
}

func TestSetPrice_Rounding(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2.345", "2.35"},
		{"2.335", "2.34"},
		{"2.344", "2.34"},
		{"1.999", "2.00"},
		{"0.005", "0.01"},
		{"0", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s := NewStock(1, "Item", dec(tt.in), 0, 0)
			assert.Equal(t, tt.want, s.Price().StringFixed(2))
		})
	}
}

func TestSetters_IgnoreNegatives(t *testing.T) {
	s := NewStock(1, "Item", dec("3.50"), 4, 7)

	s.SetPrice(dec("-1"))
	s.SetQuantity(-1)
	s.SetSafeStockAmount(-1)

	assert.Equal(t, "3.50", s.Price().StringFixed(2))
	assert.Equal(t, 7, s.Quantity())
	assert.Equal(t, 4, s.SafeStockAmount())

	neg := NewStock(2, "Outro", dec("-5"), -1, -3)
	assert.True(t, neg.Price().IsZero())
	assert.Zero(t, neg.Quantity())
	assert.Zero(t, neg.SafeStockAmount())
}

func TestRecordSale(t *testing.T) {
	s := NewStock(5, "Widget", dec("10"), 5, 6)

	assert.False(t, s.RecordSale(0, dec("10")))
	assert.False(t, s.RecordSale(7, dec("10")))
	assert.False(t, s.RecordSale(1, dec("-1")))
	assert.Equal(t, 6, s.Quantity())

	require.True(t, s.RecordSale(2, dec("10")))
	assert.Equal(t, 4, s.Quantity())
	assert.Equal(t, 2, s.NumberSold())
	assert.True(t, s.TotalFromSales().Equal(dec("20")))
	assert.True(t, s.BelowSafeStock())

	s.Replenish(10)
	assert.Equal(t, 14, s.Quantity())
	s.Replenish(-3)
	assert.Equal(t, 14, s.Quantity())
}

func TestEquals_IdentityOnly(t *testing.T) {
	a := NewStock(5, "Widget", dec("10"), 5, 6)
	b := NewStock(5, "Widget", dec("99"), 0, 100)

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(NewStock(6, "Widget", dec("10"), 5, 6)))
	assert.False(t, a.Equals(NewStock(5, "widget", dec("10"), 5, 6)))
	assert.False(t, a.Equals(nil))

	var none *Stock
	assert.True(t, none.Equals(nil))
}

func TestRender(t *testing.T) {
	s := RestoreStock(5, "Widget", dec("10"), 5, 14, dec("20"), 2)
	assert.Equal(t, "5\nWidget\n14\n2\n20.00\n", s.Render())
}

func TestApply(t *testing.T) {
	s := NewStock(1, "Item", dec("1"), 0, 1)

	require.NoError(t, s.Apply(FieldSet{
		FieldPrice:          dec("2.345"),
		FieldQuantity:       9,
		FieldNumberSold:     3,
		FieldTotalFromSales: dec("7.5"),
	}))
	assert.Equal(t, "2.35", s.Price().StringFixed(2))
	assert.Equal(t, 9, s.Quantity())
	assert.Equal(t, 3, s.NumberSold())
	assert.True(t, s.TotalFromSales().Equal(dec("7.5")))

	tests := []struct {
		name   string
		fields FieldSet
	}{
		{"preço como int", FieldSet{FieldPrice: 10}},
		{"quantidade como decimal", FieldSet{FieldQuantity: dec("1")}},
		{"receita como float", FieldSet{FieldTotalFromSales: 1.5}},
		{"campo desconhecido", FieldSet{Field("description"): "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, s.Apply(tt.fields))
		})
	}
}

func TestStockJSON(t *testing.T) {
	s := RestoreStock(5, "Widget", dec("10.5"), 5, 14, dec("20"), 2)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var back Stock
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equals(s))
	assert.Equal(t, 14, back.Quantity())
	assert.Equal(t, 2, back.NumberSold())
}

func TestStockFilter_Matches(t *testing.T) {
	s := NewStock(12345, "Parafuso Sextavado", dec("1"), 0, 1)

	assert.True(t, StockFilter{}.Matches(s))
	assert.True(t, StockFilter{}.IsZero())
	assert.True(t, ByProductID(12345).Matches(s))
	assert.True(t, StockFilter{ProductIDContains: "234"}.Matches(s))
	assert.True(t, StockFilter{DescriptionContains: "SEXTA"}.Matches(s))
	assert.True(t, ByDescription("Parafuso Sextavado").Matches(s))

	empty := ByDescription("")
	assert.False(t, empty.IsZero())
	assert.False(t, empty.Matches(s))
	assert.True(t, empty.Matches(NewStock(1, "", dec("1"), 0, 1)))
}
