package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Stock representa um item de inventário (a Entidade) e seus contadores de venda.
// productID e description são imutáveis depois da criação; price, quantity e
// safeStockAmount nunca ficam negativos (a regra é aplicada nos setters).
type Stock struct {
	productID       int
	description     string
	price           decimal.Decimal
	quantity        int
	safeStockAmount int
	totalFromSales  decimal.Decimal
	numberSold      int
}

// NewStock cria um novo Stock com os contadores de venda zerados.
func NewStock(productID int, description string, price decimal.Decimal, safeStockAmount, quantity int) *Stock {
	s := &Stock{
		productID:      productID,
		description:    description,
		totalFromSales: decimal.Zero,
	}
	s.SetPrice(price)
	s.SetSafeStockAmount(safeStockAmount)
	s.SetQuantity(quantity)
	return s
}

// RestoreStock reconstrói um Stock a partir de um registro persistido,
// incluindo os contadores de venda.
func RestoreStock(productID int, description string, price decimal.Decimal, safeStockAmount, quantity int, totalFromSales decimal.Decimal, numberSold int) *Stock {
	s := NewStock(productID, description, price, safeStockAmount, quantity)
	if !totalFromSales.IsNegative() {
		s.totalFromSales = totalFromSales
	}
	if numberSold >= 0 {
		s.numberSold = numberSold
	}
	return s
}

func (s *Stock) ProductID() int                  { return s.productID }
func (s *Stock) Description() string             { return s.description }
func (s *Stock) Price() decimal.Decimal          { return s.price }
func (s *Stock) Quantity() int                   { return s.quantity }
func (s *Stock) SafeStockAmount() int            { return s.safeStockAmount }
func (s *Stock) TotalFromSales() decimal.Decimal { return s.totalFromSales }
func (s *Stock) NumberSold() int                 { return s.numberSold }

// SetPrice arredonda o preço para 2 casas decimais. Valores negativos são ignorados.
func (s *Stock) SetPrice(price decimal.Decimal) {
	if price.IsNegative() {
		return
	}
	s.price = price.Round(2)
}

// SetQuantity define a quantidade em estoque. Valores negativos são ignorados.
func (s *Stock) SetQuantity(quantity int) {
	if quantity < 0 {
		return
	}
	s.quantity = quantity
}

// SetSafeStockAmount define o limite de reposição. Valores negativos são ignorados.
func (s *Stock) SetSafeStockAmount(amount int) {
	if amount < 0 {
		return
	}
	s.safeStockAmount = amount
}

// RecordSale baixa quantity unidades e acumula número vendido e receita.
// Retorna false (sem alterar nada) se a venda não couber no estoque atual.
func (s *Stock) RecordSale(quantity int, pricePerStock decimal.Decimal) bool {
	if quantity <= 0 || quantity > s.quantity || pricePerStock.IsNegative() {
		return false
	}
	s.quantity -= quantity
	s.numberSold += quantity
	s.totalFromSales = s.totalFromSales.Add(pricePerStock.Mul(decimal.NewFromInt(int64(quantity))))
	return true
}

// Replenish adiciona ao estoque as unidades de um pedido de reposição.
func (s *Stock) Replenish(order int) {
	if order <= 0 {
		return
	}
	s.quantity += order
}

// BelowSafeStock indica se a quantidade atual está abaixo do limite de reposição.
func (s *Stock) BelowSafeStock() bool {
	return s.quantity < s.safeStockAmount
}

// Equals compara dois Stocks pela identidade (productID e description).
func (s *Stock) Equals(other *Stock) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.productID == other.productID && s.description == other.description
}

// Clone devolve uma cópia independente do registro.
func (s *Stock) Clone() *Stock {
	c := *s
	return &c
}

// Render produz o bloco textual usado no relatório de estoque.
func (s *Stock) Render() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(s.productID))
	b.WriteByte('\n')
	b.WriteString(s.description)
	b.WriteByte('\n')
	b.WriteString(strconv.Itoa(s.quantity))
	b.WriteByte('\n')
	b.WriteString(strconv.Itoa(s.numberSold))
	b.WriteByte('\n')
	b.WriteString(s.totalFromSales.StringFixed(2))
	b.WriteByte('\n')
	return b.String()
}

func (s *Stock) String() string {
	return fmt.Sprintf("Stock{%d %q qty=%d}", s.productID, s.description, s.quantity)
}

// stockJSON é a representação de transporte (API e cache) de um Stock.
type stockJSON struct {
	ProductID       int             `json:"product_id"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity"`
	SafeStockAmount int             `json:"safe_stock_amount"`
	TotalFromSales  decimal.Decimal `json:"total_from_sales"`
	NumberSold      int             `json:"number_sold"`
}

func (s *Stock) MarshalJSON() ([]byte, error) {
	return json.Marshal(stockJSON{
		ProductID:       s.productID,
		Description:     s.description,
		Price:           s.price,
		Quantity:        s.quantity,
		SafeStockAmount: s.safeStockAmount,
		TotalFromSales:  s.totalFromSales,
		NumberSold:      s.numberSold,
	})
}

func (s *Stock) UnmarshalJSON(data []byte) error {
	var raw stockJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = *RestoreStock(raw.ProductID, raw.Description, raw.Price, raw.SafeStockAmount, raw.Quantity, raw.TotalFromSales, raw.NumberSold)
	return nil
}
