package stockservice_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stockmanager/internal/domain"
	apperror "stockmanager/internal/errors"
	"stockmanager/internal/pkg/keylock"
	"stockmanager/internal/pkg/logger"
	"stockmanager/internal/repository/stockrepo"
	"stockmanager/internal/service/stockservice"
)

// MockStockRepository é uma implementação mock da interface StockRepository.
type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) Exists(ctx context.Context, productID int) (bool, error) {
	args := m.Called(ctx, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStockRepository) FindByKey(ctx context.Context, productID int) (*domain.Stock, error) {
	args := m.Called(ctx, productID)
	s, _ := args.Get(0).(*domain.Stock)
	return s, args.Error(1)
}

func (m *MockStockRepository) FindForUpdate(ctx context.Context, productID int) (*domain.Stock, error) {
	args := m.Called(ctx, productID)
	s, _ := args.Get(0).(*domain.Stock)
	return s, args.Error(1)
}

func (m *MockStockRepository) FindAll(ctx context.Context, filter domain.StockFilter) ([]*domain.Stock, error) {
	args := m.Called(ctx, filter)
	s, _ := args.Get(0).([]*domain.Stock)
	return s, args.Error(1)
}

func (m *MockStockRepository) Insert(ctx context.Context, stock *domain.Stock) error {
	return m.Called(ctx, stock).Error(0)
}

func (m *MockStockRepository) UpdateFields(ctx context.Context, productID int, fields domain.FieldSet) error {
	return m.Called(ctx, productID, fields).Error(0)
}

func (m *MockStockRepository) DeleteWhere(ctx context.Context, filter domain.StockFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// recordingSink guarda os pedidos recebidos.
type recordingSink struct {
	mu     sync.Mutex
	orders []domain.ReorderOrder
	err    error
}

func (r *recordingSink) Record(ctx context.Context, order domain.ReorderOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, order)
	return r.err
}

func (r *recordingSink) Orders() []domain.ReorderOrder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ReorderOrder(nil), r.orders...)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newMemoryService(t *testing.T) (*stockservice.Service, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	return stockservice.NewService(stockrepo.NewMemoryStore(), sink, logger.NewNop()), sink
}

func TestAddNewStock_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t)

	outcome, err := svc.AddNewStock(ctx, domain.NewStock(1, "Widget", dec("10"), 5, 6))
	require.NoError(t, err)
	assert.Equal(t, stockservice.Applied, outcome)

	outcome, err = svc.AddNewStock(ctx, domain.NewStock(1, "Outro", dec("99"), 0, 0))
	require.NoError(t, err)
	assert.Equal(t, stockservice.AlreadyExists, outcome)

	all, err := svc.GetAllStocks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Widget", all[0].Description())

	outcome, err = svc.AddNewStock(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, stockservice.InvalidInput, outcome)
}

func TestAddStock(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t)
	_, _ = svc.AddNewStock(ctx, domain.NewStock(1, "Widget", dec("10"), 5, 6))

	outcome, err := svc.AddStock(ctx, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, stockservice.Applied, outcome)

	outcome, err = svc.AddStock(ctx, 1, -3)
	require.NoError(t, err)
	assert.Equal(t, stockservice.Applied, outcome)

	outcome, err = svc.AddStock(ctx, 1, -100)
	require.NoError(t, err)
	assert.Equal(t, stockservice.InvalidInput, outcome)

	s, err := svc.GetStockByProductID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 7, s.Quantity())

	outcome, err = svc.AddStock(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, stockservice.NotFound, outcome)
}

func TestSellStock_WidgetScenario(t *testing.T) {
	ctx := context.Background()
	svc, sink := newMemoryService(t)
	_, _ = svc.AddNewStock(ctx, domain.NewStock(5, "Widget", dec("10.00"), 5, 6))

	outcome, err := svc.SellStock(ctx, 5, dec("10.00"), 2)
	require.NoError(t, err)
	assert.Equal(t, stockservice.Applied, outcome)

	s, err := svc.GetStockByProductID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 14, s.Quantity())
	assert.Equal(t, 2, s.NumberSold())
	assert.Equal(t, "20.00", s.TotalFromSales().StringFixed(2))

	orders := sink.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, 5, orders[0].ProductID)
	assert.Equal(t, "Widget", orders[0].Description)
	assert.Equal(t, 10, orders[0].Quantity)
	assert.NotEmpty(t, orders[0].ID)
}

func TestSellStock_Rejections(t *testing.T) {
	ctx := context.Background()
	svc, sink := newMemoryService(t)
	_, _ = svc.AddNewStock(ctx, domain.NewStock(5, "Widget", dec("10.00"), 1, 6))

	tests := []struct {
		name     string
		id       int
		price    decimal.Decimal
		quantity int
		want     stockservice.Outcome
	}{
		{"produto ausente", 99, dec("10"), 1, stockservice.NotFound},
		{"quantidade zero", 5, dec("10"), 0, stockservice.InvalidInput},
		{"quantidade negativa", 5, dec("10"), -1, stockservice.InvalidInput},
		{"venda acima do estoque", 5, dec("10"), 7, stockservice.InvalidInput},
		{"preço negativo", 5, dec("-1"), 1, stockservice.InvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := svc.SellStock(ctx, tt.id, tt.price, tt.quantity)
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome)
		})
	}

	s, _ := svc.GetStockByProductID(ctx, 5)
	assert.Equal(t, 6, s.Quantity())
	assert.Zero(t, s.NumberSold())
	assert.True(t, s.TotalFromSales().IsZero())
	assert.Empty(t, sink.Orders())
}

func TestSellStock_NoReorderAboveSafeAmount(t *testing.T) {
	ctx := context.Background()
	svc, sink := newMemoryService(t)
	_, _ = svc.AddNewStock(ctx, domain.NewStock(1, "Caneta", dec("2.50"), 5, 20))

	outcome, err := svc.SellStock(ctx, 1, dec("2.50"), 15)
	require.NoError(t, err)
	assert.Equal(t, stockservice.Applied, outcome)

	s, _ := svc.GetStockByProductID(ctx, 1)
	assert.Equal(t, 5, s.Quantity())
	assert.Equal(t, "37.50", s.TotalFromSales().StringFixed(2))
	assert.Empty(t, sink.Orders())
}

func TestSellStock_SinkFailureIsNotReturned(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{err: errors.New("fornecedor fora do ar")}
	svc := stockservice.NewService(stockrepo.NewMemoryStore(), sink, logger.NewNop())
	_, _ = svc.AddNewStock(ctx, domain.NewStock(1, "Caro", dec("500"), 10, 10))

	outcome, err := svc.SellStock(ctx, 1, dec("500"), 1)
	require.NoError(t, err)
	assert.Equal(t, stockservice.Applied, outcome)

	s, _ := svc.GetStockByProductID(ctx, 1)
	assert.Equal(t, 10, s.Quantity()) // 9 + max(1, floor(100/500))
	assert.Len(t, sink.Orders(), 1)
}

func TestReorderQuantity(t *testing.T) {
	tests := []struct {
		price string
		want  int
	}{
		{"10.00", 10},
		{"3.00", 33},
		{"0.99", 101},
		{"100.00", 1},
		{"250.00", 1},
		{"0", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stockservice.ReorderQuantity(dec(tt.price)), tt.price)
	}
}

func TestEditOperations(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t)
	_, _ = svc.AddNewStock(ctx, domain.NewStock(1, "Widget", dec("10"), 5, 6))

	outcome, err := svc.EditSafeStockAmount(ctx, 1, -1)
	require.NoError(t, err)
	assert.Equal(t, stockservice.InvalidInput, outcome)

	outcome, err = svc.EditStockQuantity(ctx, 1, -5)
	require.NoError(t, err)
	assert.Equal(t, stockservice.InvalidInput, outcome)

	outcome, err = svc.EditStockPrice(ctx, 1, dec("-0.01"))
	require.NoError(t, err)
	assert.Equal(t, stockservice.InvalidInput, outcome)

	s, _ := svc.GetStockByProductID(ctx, 1)
	assert.Equal(t, 5, s.SafeStockAmount())
	assert.Equal(t, 6, s.Quantity())
	assert.Equal(t, "10.00", s.Price().StringFixed(2))

	outcome, err = svc.EditStockPrice(ctx, 1, dec("12.345"))
	require.NoError(t, err)
	assert.Equal(t, stockservice.Applied, outcome)
	_, _ = svc.EditStockQuantity(ctx, 1, 0)
	_, _ = svc.EditSafeStockAmount(ctx, 1, 2)

	s, _ = svc.GetStockByProductID(ctx, 1)
	assert.Equal(t, "12.35", s.Price().StringFixed(2))
	assert.Equal(t, 0, s.Quantity())
	assert.Equal(t, 2, s.SafeStockAmount())

	outcome, err = svc.EditStockQuantity(ctx, 42, 1)
	require.NoError(t, err)
	assert.Equal(t, stockservice.NotFound, outcome)
}

func TestRemoveStock(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t)
	_, _ = svc.AddNewStock(ctx, domain.NewStock(1, "Widget", dec("10"), 5, 6))
	_, _ = svc.AddNewStock(ctx, domain.NewStock(2, "Gadget", dec("10"), 5, 6))

	outcome, err := svc.RemoveStock(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, stockservice.Applied, outcome)

	outcome, err = svc.RemoveStock(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, stockservice.NotFound, outcome)

	outcome, err = svc.RemoveAllStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, stockservice.Applied, outcome)

	all, err := svc.GetAllStocks(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t)
	_, _ = svc.AddNewStock(ctx, domain.NewStock(12345, "Parafuso Sextavado", dec("0.50"), 10, 100))
	_, _ = svc.AddNewStock(ctx, domain.NewStock(312355, "Porca", dec("0.25"), 10, 100))
	_, _ = svc.AddNewStock(ctx, domain.NewStock(999, "Parafuso", dec("1"), 5, 50))

	found, err := svc.SearchByProductID(ctx, 123)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, 12345, found[0].ProductID())
	assert.Equal(t, 312355, found[1].ProductID())

	found, err = svc.SearchByDescription(ctx, "parafuso")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	id, err := svc.GetProductIDFromDescription(ctx, "parafuso")
	require.NoError(t, err)
	assert.Equal(t, 999, id)

	id, err = svc.GetProductIDFromDescription(ctx, "martelo")
	require.NoError(t, err)
	assert.Equal(t, stockservice.NotFoundSentinel, id)

	s, err := svc.GetStockByDescription(ctx, "Parafuso")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 999, s.ProductID())

	s, err = svc.GetStockByDescription(ctx, "parafuso")
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = svc.GetStockByProductID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, s)

	sold, err := svc.GetNumberSold(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, -1, sold)

	revenue, err := svc.GetTotalRevenue(ctx, 1)
	require.NoError(t, err)
	assert.True(t, revenue.Equal(decimal.NewFromInt(-1)))

	sold, err = svc.GetNumberSold(ctx, 999)
	require.NoError(t, err)
	assert.Zero(t, sold)
}

func TestGetStockByDescription_EmptyDescription(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t)
	_, _ = svc.AddNewStock(ctx, domain.NewStock(5, "Widget", dec("10"), 5, 1))

	s, err := svc.GetStockByDescription(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, s)

	_, _ = svc.AddNewStock(ctx, domain.NewStock(6, "", dec("1"), 0, 1))

	s, err = svc.GetStockByDescription(ctx, "")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 6, s.ProductID())
}

func TestMutators_ReadBaseWithoutCache(t *testing.T) {
	ctx := context.Background()
	repo := new(MockStockRepository)
	repo.On("FindForUpdate", mock.Anything, 5).Return(domain.RestoreStock(5, "Widget", dec("10"), 5, 4, dec("20"), 2), nil)
	repo.On("UpdateFields", mock.Anything, 5, mock.AnythingOfType("domain.FieldSet")).Return(nil)
	svc := stockservice.NewService(repo, nil, logger.NewNop())

	ops := map[string]func() (stockservice.Outcome, error){
		"SellStock":           func() (stockservice.Outcome, error) { return svc.SellStock(ctx, 5, dec("10"), 1) },
		"AddStock":            func() (stockservice.Outcome, error) { return svc.AddStock(ctx, 5, 1) },
		"EditStockPrice":      func() (stockservice.Outcome, error) { return svc.EditStockPrice(ctx, 5, dec("11")) },
		"EditStockQuantity":   func() (stockservice.Outcome, error) { return svc.EditStockQuantity(ctx, 5, 9) },
		"EditSafeStockAmount": func() (stockservice.Outcome, error) { return svc.EditSafeStockAmount(ctx, 5, 1) },
		"SellWithDiscount":    func() (stockservice.Outcome, error) { return svc.SellWithDiscount(ctx, 5, dec("0.9"), 1) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			outcome, err := op()
			require.NoError(t, err)
			assert.Equal(t, stockservice.Applied, outcome)
		})
	}

	repo.AssertNotCalled(t, "FindByKey", mock.Anything, mock.Anything)
}

func TestGetStockReport(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t)
	_, _ = svc.AddNewStock(ctx, domain.NewStock(2, "Gadget", dec("4"), 0, 3))
	_, _ = svc.AddNewStock(ctx, domain.NewStock(1, "Widget", dec("10"), 0, 6))
	_, _ = svc.SellStock(ctx, 1, dec("10"), 2)

	report, err := svc.GetStockReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1\nWidget\n4\n2\n20.00\n---\n2\nGadget\n3\n0\n0.00\n---\n", report)
}

func TestConcurrentSells_NoLostUpdates(t *testing.T) {
	ctx := context.Background()
	store := stockrepo.NewMemoryStore()
	locks := keylock.New()
	// duas instâncias do serviço sobre o mesmo store e o mesmo lock
	a := stockservice.NewService(store, nil, logger.NewNop(), stockservice.WithKeyLock(locks))
	b := stockservice.NewService(store, nil, logger.NewNop(), stockservice.WithKeyLock(locks))
	_, _ = a.AddNewStock(ctx, domain.NewStock(1, "Widget", dec("1"), 0, 100))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		svc := a
		if i%2 == 1 {
			svc = b
		}
		go func() {
			defer wg.Done()
			_, _ = svc.SellStock(ctx, 1, dec("1"), 1)
		}()
	}
	wg.Wait()

	s, err := a.GetStockByProductID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 50, s.Quantity())
	assert.Equal(t, 50, s.NumberSold())
	assert.Equal(t, "50.00", s.TotalFromSales().StringFixed(2))
}

func TestStoreFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("conexão recusada")

	t.Run("exists falha", func(t *testing.T) {
		repo := new(MockStockRepository)
		repo.On("Exists", mock.Anything, 1).Return(false, boom)
		svc := stockservice.NewService(repo, nil, logger.NewNop())

		outcome, err := svc.AddNewStock(ctx, domain.NewStock(1, "Widget", dec("1"), 0, 1))
		assert.Equal(t, stockservice.Failed, outcome)
		var failure *apperror.StoreFailure
		assert.ErrorAs(t, err, &failure)
		assert.ErrorIs(t, err, boom)
		repo.AssertExpectations(t)
	})

	t.Run("insert concorrente vira AlreadyExists", func(t *testing.T) {
		repo := new(MockStockRepository)
		repo.On("Exists", mock.Anything, 1).Return(false, nil)
		repo.On("Insert", mock.Anything, mock.AnythingOfType("*domain.Stock")).Return(apperror.NewConflictError("duplicado"))
		svc := stockservice.NewService(repo, nil, logger.NewNop())

		outcome, err := svc.AddNewStock(ctx, domain.NewStock(1, "Widget", dec("1"), 0, 1))
		require.NoError(t, err)
		assert.Equal(t, stockservice.AlreadyExists, outcome)
	})

	t.Run("update falha depois da venda", func(t *testing.T) {
		repo := new(MockStockRepository)
		sink := &recordingSink{}
		repo.On("FindForUpdate", mock.Anything, 5).Return(domain.NewStock(5, "Widget", dec("10"), 5, 6), nil)
		repo.On("UpdateFields", mock.Anything, 5, mock.AnythingOfType("domain.FieldSet")).Return(apperror.NewStoreFailure("timeout", boom))
		svc := stockservice.NewService(repo, sink, logger.NewNop())

		outcome, err := svc.SellStock(ctx, 5, dec("10"), 2)
		assert.Equal(t, stockservice.Failed, outcome)
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, sink.Orders())
	})

	t.Run("consulta propaga falha", func(t *testing.T) {
		repo := new(MockStockRepository)
		repo.On("FindByKey", mock.Anything, 5).Return(nil, boom)
		svc := stockservice.NewService(repo, nil, logger.NewNop())

		sold, err := svc.GetNumberSold(ctx, 5)
		assert.Equal(t, -1, sold)
		var failure *apperror.StoreFailure
		assert.ErrorAs(t, err, &failure)
	})

	t.Run("venda persiste os três contadores juntos", func(t *testing.T) {
		repo := new(MockStockRepository)
		repo.On("FindForUpdate", mock.Anything, 5).Return(domain.NewStock(5, "Widget", dec("10"), 5, 6), nil)
		repo.On("UpdateFields", mock.Anything, 5, mock.MatchedBy(func(fields domain.FieldSet) bool {
			total, ok := fields[domain.FieldTotalFromSales].(decimal.Decimal)
			return len(fields) == 3 &&
				fields[domain.FieldQuantity] == 14 &&
				fields[domain.FieldNumberSold] == 2 &&
				ok && total.Equal(dec("20"))
		})).Return(nil)
		svc := stockservice.NewService(repo, nil, logger.NewNop())

		outcome, err := svc.SellStock(ctx, 5, dec("10"), 2)
		require.NoError(t, err)
		assert.Equal(t, stockservice.Applied, outcome)
		repo.AssertExpectations(t)
	})
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "applied", stockservice.Applied.String())
	assert.Equal(t, "not_found", stockservice.NotFound.String())
	assert.Equal(t, "invalid_input", stockservice.InvalidInput.String())
	assert.Equal(t, "already_exists", stockservice.AlreadyExists.String())
}
