package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Field identifica um campo mutável de Stock em uma atualização parcial.
// productID e description não têm Field: são imutáveis.
type Field string

const (
	FieldPrice           Field = "price"
	FieldQuantity        Field = "quantity"
	FieldSafeStockAmount Field = "safe_stock_amount"
	FieldTotalFromSales  Field = "total_from_sales"
	FieldNumberSold      Field = "number_sold"
)

// Valid informa se o campo é conhecido. Os nomes são usados como colunas SQL e chaves BSON.
func (f Field) Valid() bool {
	switch f {
	case FieldPrice, FieldQuantity, FieldSafeStockAmount, FieldTotalFromSales, FieldNumberSold:
		return true
	}
	return false
}

// FieldSet é um conjunto de pares campo/valor para UpdateFields.
// Campos monetários levam decimal.Decimal, os demais int.
type FieldSet map[Field]interface{}

// Apply aplica o FieldSet diretamente ao registro (usado pelos stores).
func (s *Stock) Apply(fields FieldSet) error {
	for field, value := range fields {
		switch field {
		case FieldPrice, FieldTotalFromSales:
			d, ok := value.(decimal.Decimal)
			if !ok {
				return fmt.Errorf("campo %s espera decimal.Decimal, recebeu %T", field, value)
			}
			if field == FieldPrice {
				s.SetPrice(d)
			} else if !d.IsNegative() {
				s.totalFromSales = d
			}
		case FieldQuantity, FieldSafeStockAmount, FieldNumberSold:
			n, ok := value.(int)
			if !ok {
				return fmt.Errorf("campo %s espera int, recebeu %T", field, value)
			}
			switch field {
			case FieldQuantity:
				s.SetQuantity(n)
			case FieldSafeStockAmount:
				s.SetSafeStockAmount(n)
			default:
				if n >= 0 {
					s.numberSold = n
				}
			}
		default:
			return fmt.Errorf("campo desconhecido: %q", field)
		}
	}
	return nil
}

// StockFilter é o predicado de busca entregue aos stores.
// Critérios vazios não restringem; o filtro zero casa com todos os registros.
type StockFilter struct {
	ProductID           *int   // igualdade exata
	ProductIDContains   string // substring da representação decimal do productID
	Description         *string // igualdade exata; ponteiro para que "" também seja critério
	DescriptionContains string // substring, sem diferenciar maiúsculas
}

// ByProductID cria um filtro por chave exata.
func ByProductID(productID int) StockFilter {
	return StockFilter{ProductID: &productID}
}

// ByDescription cria um filtro por descrição exata (inclusive vazia).
func ByDescription(description string) StockFilter {
	return StockFilter{Description: &description}
}

// IsZero informa se o filtro não tem nenhum critério.
func (f StockFilter) IsZero() bool {
	return f.ProductID == nil && f.ProductIDContains == "" && f.Description == nil && f.DescriptionContains == ""
}

// Matches avalia o filtro em memória.
func (f StockFilter) Matches(s *Stock) bool {
	if s == nil {
		return false
	}
	if f.ProductID != nil && s.productID != *f.ProductID {
		return false
	}
	if f.ProductIDContains != "" && !strings.Contains(strconv.Itoa(s.productID), f.ProductIDContains) {
		return false
	}
	if f.Description != nil && s.description != *f.Description {
		return false
	}
	if f.DescriptionContains != "" && !strings.Contains(strings.ToLower(s.description), strings.ToLower(f.DescriptionContains)) {
		return false
	}
	return true
}
