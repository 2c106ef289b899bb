package stockservice

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stockmanager/internal/domain"
	apperror "stockmanager/internal/errors"
	"stockmanager/internal/pkg/keylock"
	"stockmanager/internal/pkg/logger"
)

// NotFoundSentinel é devolvido pelas consultas numéricas quando o productID não existe.
const NotFoundSentinel = -1

// reorderValue é o valor gasto em cada pedido de reposição.
var reorderValue = decimal.NewFromInt(100)

// StockRepository define o contrato que o Serviço de Estoque espera da camada de Persistência.
type StockRepository interface {
	Exists(ctx context.Context, productID int) (bool, error)
	FindByKey(ctx context.Context, productID int) (*domain.Stock, error)
	// FindForUpdate lê o registro direto da fonte de verdade, sem passar por cache.
	// É a leitura usada antes de qualquer escrita.
	FindForUpdate(ctx context.Context, productID int) (*domain.Stock, error)
	FindAll(ctx context.Context, filter domain.StockFilter) ([]*domain.Stock, error)
	Insert(ctx context.Context, stock *domain.Stock) error
	UpdateFields(ctx context.Context, productID int, fields domain.FieldSet) error
	DeleteWhere(ctx context.Context, filter domain.StockFilter) (int64, error)
}

// ReorderSink recebe os pedidos de reposição disparados pelas vendas.
type ReorderSink interface {
	Record(ctx context.Context, order domain.ReorderOrder) error
}

// Option configura o Service.
type Option func(*Service)

// WithKeyLock compartilha o lock por productID entre várias instâncias do Service.
func WithKeyLock(locks *keylock.KeyedMutex) Option {
	return func(s *Service) {
		if locks != nil {
			s.locks = locks
		}
	}
}

// WithClock substitui o relógio usado nos pedidos de reposição.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service é o único leitor e escritor do store de estoque.
// Não guarda estado entre chamadas além do lock por chave.
type Service struct {
	repo   StockRepository
	sink   ReorderSink
	logger logger.Logger
	locks  *keylock.KeyedMutex
	now    func() time.Time
}

// NewService cria o Serviço de Estoque. sink pode ser nil (sem notificações).
func NewService(repo StockRepository, sink ReorderSink, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		sink:   sink,
		logger: log,
		locks:  keylock.New(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddNewStock insere o registro se ainda não houver um com o mesmo productID.
func (s *Service) AddNewStock(ctx context.Context, stock *domain.Stock) (Outcome, error) {
	if stock == nil {
		return InvalidInput, nil
	}
	unlock := s.locks.Lock(stock.ProductID())
	defer unlock()

	exists, err := s.repo.Exists(ctx, stock.ProductID())
	if err != nil {
		return s.storeFailure("AddNewStock", err)
	}
	if exists {
		s.logger.Info("Estoque já existe, inserção ignorada.", map[string]interface{}{"product_id": stock.ProductID()})
		return AlreadyExists, nil
	}

	if err := s.repo.Insert(ctx, stock); err != nil {
		var conflict *apperror.ConflictError
		if errors.As(err, &conflict) {
			return AlreadyExists, nil
		}
		return s.storeFailure("AddNewStock", err)
	}

	s.logger.Info("Novo estoque cadastrado.", map[string]interface{}{"product_id": stock.ProductID(), "description": stock.Description()})
	return Applied, nil
}

// AddStock soma quantity ao estoque atual. O delta pode ser negativo,
// mas o resultado final não pode ficar abaixo de zero.
func (s *Service) AddStock(ctx context.Context, productID, quantity int) (Outcome, error) {
	unlock := s.locks.Lock(productID)
	defer unlock()

	current, outcome, err := s.loadForUpdate(ctx, productID)
	if current == nil {
		return outcome, err
	}

	newQuantity := current.Quantity() + quantity
	if newQuantity < 0 {
		s.logger.Warn("Ajuste deixaria o estoque negativo.", map[string]interface{}{"product_id": productID, "delta": quantity})
		return InvalidInput, nil
	}

	return s.update(ctx, "AddStock", productID, domain.FieldSet{domain.FieldQuantity: newQuantity})
}

// RemoveStock apaga todos os registros com o productID.
func (s *Service) RemoveStock(ctx context.Context, productID int) (Outcome, error) {
	unlock := s.locks.Lock(productID)
	defer unlock()

	removed, err := s.repo.DeleteWhere(ctx, domain.ByProductID(productID))
	if err != nil {
		return s.storeFailure("RemoveStock", err)
	}
	if removed == 0 {
		return NotFound, nil
	}

	s.logger.Info("Estoque removido.", map[string]interface{}{"product_id": productID, "removed": removed})
	return Applied, nil
}

// RemoveAllStock apaga a coleção inteira.
func (s *Service) RemoveAllStock(ctx context.Context) (Outcome, error) {
	removed, err := s.repo.DeleteWhere(ctx, domain.StockFilter{})
	if err != nil {
		return s.storeFailure("RemoveAllStock", err)
	}

	s.logger.Info("Todos os estoques removidos.", map[string]interface{}{"removed": removed})
	return Applied, nil
}

// SellStock registra a venda de quantity unidades a pricePerStock cada.
// Se o estoque restante ficar abaixo do limite de reposição, um pedido de
// max(1, floor(100/price)) unidades é somado na hora e enviado ao ReorderSink.
func (s *Service) SellStock(ctx context.Context, productID int, pricePerStock decimal.Decimal, quantity int) (Outcome, error) {
	unlock := s.locks.Lock(productID)
	defer unlock()

	current, outcome, err := s.loadForUpdate(ctx, productID)
	if current == nil {
		return outcome, err
	}

	if !current.RecordSale(quantity, pricePerStock) {
		s.logger.Warn("Venda rejeitada.", map[string]interface{}{
			"product_id": productID,
			"quantity":   quantity,
			"available":  current.Quantity(),
			"price":      pricePerStock.String(),
		})
		return InvalidInput, nil
	}

	var order int
	if current.BelowSafeStock() {
		order = ReorderQuantity(current.Price())
		current.Replenish(order)
	}

	outcome, err = s.update(ctx, "SellStock", productID, domain.FieldSet{
		domain.FieldQuantity:       current.Quantity(),
		domain.FieldNumberSold:     current.NumberSold(),
		domain.FieldTotalFromSales: current.TotalFromSales(),
	})
	if err != nil || outcome != Applied {
		return outcome, err
	}

	if order > 0 {
		s.notifyReorder(ctx, current, order)
	}
	return Applied, nil
}

// EditStockPrice define um novo preço, arredondado para 2 casas.
func (s *Service) EditStockPrice(ctx context.Context, productID int, price decimal.Decimal) (Outcome, error) {
	unlock := s.locks.Lock(productID)
	defer unlock()

	current, outcome, err := s.loadForUpdate(ctx, productID)
	if current == nil {
		return outcome, err
	}
	if price.IsNegative() {
		return InvalidInput, nil
	}

	return s.update(ctx, "EditStockPrice", productID, domain.FieldSet{domain.FieldPrice: price.Round(2)})
}

// EditStockQuantity substitui a quantidade em estoque.
func (s *Service) EditStockQuantity(ctx context.Context, productID, quantity int) (Outcome, error) {
	unlock := s.locks.Lock(productID)
	defer unlock()

	current, outcome, err := s.loadForUpdate(ctx, productID)
	if current == nil {
		return outcome, err
	}
	if quantity < 0 {
		return InvalidInput, nil
	}

	return s.update(ctx, "EditStockQuantity", productID, domain.FieldSet{domain.FieldQuantity: quantity})
}

// EditSafeStockAmount substitui o limite de reposição.
func (s *Service) EditSafeStockAmount(ctx context.Context, productID, amount int) (Outcome, error) {
	unlock := s.locks.Lock(productID)
	defer unlock()

	current, outcome, err := s.loadForUpdate(ctx, productID)
	if current == nil {
		return outcome, err
	}
	if amount < 0 {
		return InvalidInput, nil
	}

	return s.update(ctx, "EditSafeStockAmount", productID, domain.FieldSet{domain.FieldSafeStockAmount: amount})
}

// GetAllStocks devolve um retrato de todos os registros.
func (s *Service) GetAllStocks(ctx context.Context) ([]*domain.Stock, error) {
	return s.repo.FindAll(ctx, domain.StockFilter{})
}

// SearchByDescription busca por substring da descrição, sem diferenciar maiúsculas.
func (s *Service) SearchByDescription(ctx context.Context, substring string) ([]*domain.Stock, error) {
	return s.repo.FindAll(ctx, domain.StockFilter{DescriptionContains: substring})
}

// SearchByProductID casa o texto decimal do productID por substring: 123 encontra 12345 e 312355.
func (s *Service) SearchByProductID(ctx context.Context, partial int) ([]*domain.Stock, error) {
	return s.repo.FindAll(ctx, domain.StockFilter{ProductIDContains: strconv.Itoa(partial)})
}

// GetProductIDFromDescription devolve o productID do primeiro resultado da busca por descrição, ou -1.
func (s *Service) GetProductIDFromDescription(ctx context.Context, description string) (int, error) {
	stocks, err := s.SearchByDescription(ctx, description)
	if err != nil {
		return NotFoundSentinel, err
	}
	if len(stocks) == 0 {
		return NotFoundSentinel, nil
	}
	return stocks[0].ProductID(), nil
}

// GetStockByDescription devolve o primeiro registro com a descrição exata, ou nil.
func (s *Service) GetStockByDescription(ctx context.Context, description string) (*domain.Stock, error) {
	stocks, err := s.repo.FindAll(ctx, domain.ByDescription(description))
	if err != nil || len(stocks) == 0 {
		return nil, err
	}
	return stocks[0], nil
}

// GetStockByProductID devolve o registro do productID, ou nil.
func (s *Service) GetStockByProductID(ctx context.Context, productID int) (*domain.Stock, error) {
	stock, _, err := s.load(ctx, productID)
	return stock, err
}

// GetNumberSold devolve as unidades vendidas, ou -1 se o productID não existir.
func (s *Service) GetNumberSold(ctx context.Context, productID int) (int, error) {
	stock, _, err := s.load(ctx, productID)
	if stock == nil {
		return NotFoundSentinel, err
	}
	return stock.NumberSold(), nil
}

// GetTotalRevenue devolve a receita acumulada, ou -1 se o productID não existir.
func (s *Service) GetTotalRevenue(ctx context.Context, productID int) (decimal.Decimal, error) {
	stock, _, err := s.load(ctx, productID)
	if stock == nil {
		return decimal.NewFromInt(NotFoundSentinel), err
	}
	return stock.TotalFromSales(), nil
}

// GetStockReport concatena o Render de cada registro seguido de "---".
func (s *Service) GetStockReport(ctx context.Context) (string, error) {
	stocks, err := s.GetAllStocks(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, stock := range stocks {
		b.WriteString(stock.Render())
		b.WriteString("---\n")
	}
	return b.String(), nil
}

// ReorderQuantity calcula max(1, floor(100/price)). Preço zero pede uma unidade.
func ReorderQuantity(price decimal.Decimal) int {
	if !price.IsPositive() {
		return 1
	}
	order := reorderValue.Div(price).Floor().IntPart()
	if order < 1 {
		return 1
	}
	return int(order)
}

// load busca o registro para consulta (o store pode responder do cache).
func (s *Service) load(ctx context.Context, productID int) (*domain.Stock, Outcome, error) {
	return s.fetch(ctx, productID, s.repo.FindByKey)
}

// loadForUpdate busca o registro que servirá de base para uma escrita.
func (s *Service) loadForUpdate(ctx context.Context, productID int) (*domain.Stock, Outcome, error) {
	return s.fetch(ctx, productID, s.repo.FindForUpdate)
}

// fetch traduz a busca: ausência vira (nil, NotFound, nil); falha do store vira error.
func (s *Service) fetch(ctx context.Context, productID int, find func(context.Context, int) (*domain.Stock, error)) (*domain.Stock, Outcome, error) {
	stock, err := find(ctx, productID)
	if err == nil {
		return stock, Applied, nil
	}
	var notFound *apperror.NotFoundError
	if errors.As(err, &notFound) {
		s.logger.Debug("Estoque não encontrado.", map[string]interface{}{"product_id": productID})
		return nil, NotFound, nil
	}
	outcome, err := s.storeFailure("FindByKey", err)
	return nil, outcome, err
}

func (s *Service) update(ctx context.Context, op string, productID int, fields domain.FieldSet) (Outcome, error) {
	if err := s.repo.UpdateFields(ctx, productID, fields); err != nil {
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			return NotFound, nil
		}
		var validation *apperror.ValidationError
		if errors.As(err, &validation) {
			return InvalidInput, nil
		}
		return s.storeFailure(op, err)
	}

	s.logger.Info("Estoque atualizado.", map[string]interface{}{"op": op, "product_id": productID})
	return Applied, nil
}

func (s *Service) notifyReorder(ctx context.Context, stock *domain.Stock, quantity int) {
	order := domain.ReorderOrder{
		ID:          uuid.New().String(),
		ProductID:   stock.ProductID(),
		Description: stock.Description(),
		Quantity:    quantity,
		CreatedAt:   s.now().UTC(),
	}

	s.logger.Info("Reposição disparada.", map[string]interface{}{"product_id": order.ProductID, "quantity": order.Quantity, "order_id": order.ID})
	if s.sink == nil {
		return
	}
	if err := s.sink.Record(ctx, order); err != nil {
		s.logger.Warn("Falha ao registrar pedido de reposição.", map[string]interface{}{"order_id": order.ID, "error": err.Error()})
	}
}

// storeFailure garante que falhas inesperadas saiam como StoreFailure.
func (s *Service) storeFailure(op string, err error) (Outcome, error) {
	s.logger.Error("Falha no store durante "+op+".", err)
	var failure *apperror.StoreFailure
	if errors.As(err, &failure) {
		return Failed, err
	}
	return Failed, apperror.NewStoreFailure("Falha no store durante "+op, err)
}
