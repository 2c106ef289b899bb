package stockrepo

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"stockmanager/internal/domain"
)

// checkFields valida nomes, tipos e sinais de um FieldSet e devolve os campos em ordem estável.
func checkFields(fields domain.FieldSet) ([]domain.Field, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("nenhum campo para atualizar")
	}

	names := make([]domain.Field, 0, len(fields))
	for field, value := range fields {
		if !field.Valid() {
			return nil, fmt.Errorf("campo desconhecido: %q", field)
		}
		switch v := value.(type) {
		case decimal.Decimal:
			if !isMoney(field) {
				return nil, fmt.Errorf("campo %s espera int", field)
			}
			if v.IsNegative() {
				return nil, fmt.Errorf("campo %s não pode ser negativo", field)
			}
		case int:
			if isMoney(field) {
				return nil, fmt.Errorf("campo %s espera decimal", field)
			}
			if v < 0 {
				return nil, fmt.Errorf("campo %s não pode ser negativo", field)
			}
		default:
			return nil, fmt.Errorf("campo %s com tipo inválido %T", field, value)
		}
		names = append(names, field)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names, nil
}

// normalizeValue arredonda o preço como o setter da entidade faz.
func normalizeValue(field domain.Field, value interface{}) interface{} {
	if field == domain.FieldPrice {
		return value.(decimal.Decimal).Round(2)
	}
	return value
}

func isMoney(f domain.Field) bool {
	return f == domain.FieldPrice || f == domain.FieldTotalFromSales
}
