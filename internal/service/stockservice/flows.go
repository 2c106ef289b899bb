package stockservice

import (
	"context"

	"github.com/shopspring/decimal"

	"stockmanager/internal/domain"
)

var (
	// MinDiscountMultiplier é o maior desconto aceito no balcão (15%).
	MinDiscountMultiplier = decimal.RequireFromString("0.85")
	maxDiscountMultiplier = decimal.NewFromInt(1)
)

// StockForm é o formulário de cadastro de um novo item.
type StockForm struct {
	ProductID       int             `json:"product_id"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity"`
	SafeStockAmount int             `json:"safe_stock_amount"`
}

// EditForm traz os novos valores de uma edição. Campos nil não foram tocados.
type EditForm struct {
	Price           *decimal.Decimal `json:"price,omitempty"`
	Quantity        *int             `json:"quantity,omitempty"`
	SafeStockAmount *int             `json:"safe_stock_amount,omitempty"`
}

// EditReport resume uma edição: o resultado geral e o de cada campo alterado.
type EditReport struct {
	Outcome Outcome
	Fields  map[domain.Field]Outcome
}

// CreateStock só cadastra quando preço, quantidade e limite não são negativos.
func (s *Service) CreateStock(ctx context.Context, form StockForm) (Outcome, error) {
	if form.Price.IsNegative() || form.Quantity < 0 || form.SafeStockAmount < 0 {
		s.logger.Warn("Cadastro rejeitado: valores negativos.", map[string]interface{}{"product_id": form.ProductID})
		return InvalidInput, nil
	}
	return s.AddNewStock(ctx, domain.NewStock(form.ProductID, form.Description, form.Price, form.SafeStockAmount, form.Quantity))
}

// EditStock compara o formulário com o registro atual e só chama as
// operações EditStockX dos campos que mudaram.
func (s *Service) EditStock(ctx context.Context, productID int, form EditForm) (EditReport, error) {
	report := EditReport{Outcome: Applied, Fields: map[domain.Field]Outcome{}}

	current, outcome, err := s.loadForUpdate(ctx, productID)
	if current == nil {
		report.Outcome = outcome
		return report, err
	}

	if form.Price != nil && !form.Price.Round(2).Equal(current.Price()) {
		o, err := s.EditStockPrice(ctx, productID, *form.Price)
		if err != nil {
			return EditReport{Outcome: Failed}, err
		}
		report.record(domain.FieldPrice, o)
	}
	if form.Quantity != nil && *form.Quantity != current.Quantity() {
		o, err := s.EditStockQuantity(ctx, productID, *form.Quantity)
		if err != nil {
			return EditReport{Outcome: Failed}, err
		}
		report.record(domain.FieldQuantity, o)
	}
	if form.SafeStockAmount != nil && *form.SafeStockAmount != current.SafeStockAmount() {
		o, err := s.EditSafeStockAmount(ctx, productID, *form.SafeStockAmount)
		if err != nil {
			return EditReport{Outcome: Failed}, err
		}
		report.record(domain.FieldSafeStockAmount, o)
	}

	return report, nil
}

func (r *EditReport) record(field domain.Field, o Outcome) {
	r.Fields[field] = o
	if o != Applied && r.Outcome == Applied {
		r.Outcome = o
	}
}

// SellWithDiscount vende quantity unidades a price × discountMultiplier.
// Rejeita descontos acima de 15% e quantidades fora de 1..disponível.
func (s *Service) SellWithDiscount(ctx context.Context, productID int, discountMultiplier decimal.Decimal, quantity int) (Outcome, error) {
	current, outcome, err := s.loadForUpdate(ctx, productID)
	if current == nil {
		return outcome, err
	}

	if discountMultiplier.LessThan(MinDiscountMultiplier) || discountMultiplier.GreaterThan(maxDiscountMultiplier) {
		s.logger.Warn("Desconto fora do permitido.", map[string]interface{}{"product_id": productID, "multiplier": discountMultiplier.String()})
		return InvalidInput, nil
	}
	if quantity < 1 || quantity > current.Quantity() {
		return InvalidInput, nil
	}

	return s.SellStock(ctx, productID, current.Price().Mul(discountMultiplier), quantity)
}
