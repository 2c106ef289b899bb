package stockrepo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"stockmanager/internal/domain"
	"stockmanager/internal/errors"
)

// MemoryStore guarda os registros num map do processo.
// Usado nos testes e com STORE_DRIVER=memory. Entradas e saídas são clonadas.
type MemoryStore struct {
	mu     sync.RWMutex
	stocks map[int]*domain.Stock
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stocks: make(map[int]*domain.Stock)}
}

func (m *MemoryStore) Exists(ctx context.Context, productID int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, errors.NewStoreFailure("Contexto encerrado", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.stocks[productID]
	return ok, nil
}

func (m *MemoryStore) FindByKey(ctx context.Context, productID int) (*domain.Stock, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewStoreFailure("Contexto encerrado", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stocks[productID]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("Estoque com productID %d não existe.", productID))
	}
	return s.Clone(), nil
}

// FindForUpdate é igual a FindByKey: o store em memória não tem cache.
func (m *MemoryStore) FindForUpdate(ctx context.Context, productID int) (*domain.Stock, error) {
	return m.FindByKey(ctx, productID)
}

func (m *MemoryStore) FindAll(ctx context.Context, filter domain.StockFilter) ([]*domain.Stock, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewStoreFailure("Contexto encerrado", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Stock, 0, len(m.stocks))
	for _, s := range m.stocks {
		if filter.Matches(s) {
			out = append(out, s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID() < out[j].ProductID() })
	return out, nil
}

func (m *MemoryStore) Insert(ctx context.Context, stock *domain.Stock) error {
	if err := ctx.Err(); err != nil {
		return errors.NewStoreFailure("Contexto encerrado", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stocks[stock.ProductID()]; ok {
		return errors.NewConflictError(fmt.Sprintf("Estoque com productID %d já existe.", stock.ProductID()))
	}
	m.stocks[stock.ProductID()] = stock.Clone()
	return nil
}

// UpdateFields valida o FieldSet e aplica numa cópia antes de publicar.
func (m *MemoryStore) UpdateFields(ctx context.Context, productID int, fields domain.FieldSet) error {
	if err := ctx.Err(); err != nil {
		return errors.NewStoreFailure("Contexto encerrado", err)
	}
	if _, err := checkFields(fields); err != nil {
		return errors.NewValidationError(err.Error())
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stocks[productID]
	if !ok {
		return errors.NewNotFoundError(fmt.Sprintf("Estoque com productID %d não existe.", productID))
	}
	updated := s.Clone()
	if err := updated.Apply(fields); err != nil {
		return errors.NewValidationError(err.Error())
	}
	m.stocks[productID] = updated
	return nil
}

func (m *MemoryStore) DeleteWhere(ctx context.Context, filter domain.StockFilter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.NewStoreFailure("Contexto encerrado", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, s := range m.stocks {
		if filter.Matches(s) {
			delete(m.stocks, id)
			removed++
		}
	}
	return removed, nil
}
