package stockrepo

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockmanager/internal/domain"
	"stockmanager/internal/pkg/cache"
	"stockmanager/internal/pkg/logger"
	"stockmanager/internal/service/stockservice"
)

// fakeDB é um driver database/sql mínimo: todo SELECT devolve row e todo Exec é gravado.
type fakeDB struct {
	mu    sync.Mutex
	row   []driver.Value
	execs []fakeExec
}

type fakeExec struct {
	query string
	args  []driver.Value
}

func (f *fakeDB) Connect(context.Context) (driver.Conn, error) { return &fakeConn{db: f}, nil }
func (f *fakeDB) Driver() driver.Driver                        { return fakeDriver{} }

func (f *fakeDB) Execs() []fakeExec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeExec(nil), f.execs...)
}

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) { return nil, errors.New("use sql.OpenDB") }

type fakeConn struct{ db *fakeDB }

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return &fakeStmt{db: c.db, query: query}, nil
}
func (c *fakeConn) Close() error              { return nil }
func (c *fakeConn) Begin() (driver.Tx, error) { return nil, errors.New("sem transações") }

type fakeStmt struct {
	db    *fakeDB
	query string
}

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return -1 }

func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.execs = append(s.db.execs, fakeExec{query: s.query, args: args})
	return driver.RowsAffected(1), nil
}

func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	if !strings.HasPrefix(s.query, "SELECT") {
		return nil, errors.New("consulta inesperada: " + s.query)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return &fakeRows{row: append([]driver.Value(nil), s.db.row...)}, nil
}

type fakeRows struct {
	row  []driver.Value
	done bool
}

func (r *fakeRows) Columns() []string {
	return strings.Split(strings.ReplaceAll(stockColumns, " ", ""), ",")
}
func (r *fakeRows) Close() error { return nil }
func (r *fakeRows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	copy(dest, r.row)
	r.done = true
	return nil
}

// staleCache guarda entradas fixas e conta as gravações.
type staleCache struct {
	mu      sync.Mutex
	entries map[string]string
	sets    int
}

func (c *staleCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}
func (c *staleCache) GetInt(ctx context.Context, key string) (int, error) { return 0, cache.ErrCacheMiss }
func (c *staleCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	switch v := value.(type) {
	case []byte:
		c.entries[key] = string(v)
	case string:
		c.entries[key] = v
	}
	return nil
}
func (c *staleCache) Incr(ctx context.Context, key string) (int64, error) { return 0, nil }
func (c *staleCache) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}
func (c *staleCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

// newStaleStore monta o cenário: o DB tem qty=4 sold=2 e o cache ainda guarda qty=6 sold=0.
func newStaleStore(t *testing.T) (*PostgresStore, *fakeDB, *staleCache) {
	t.Helper()
	fake := &fakeDB{row: []driver.Value{int64(5), "Widget", "10.00", int64(4), int64(5), "20.00", int64(2)}}
	db := sql.OpenDB(fake)
	t.Cleanup(func() { db.Close() })

	old, err := json.Marshal(domain.RestoreStock(5, "Widget", decimal.NewFromInt(10), 5, 6, decimal.Zero, 0))
	require.NoError(t, err)
	stale := &staleCache{entries: map[string]string{"stock:5": string(old)}}

	return NewPostgresStore(db, stale, time.Second, time.Minute, logger.NewNop()), fake, stale
}

func TestPostgresStore_FindForUpdateIgnoresCache(t *testing.T) {
	ctx := context.Background()
	store, _, stale := newStaleStore(t)

	cached, err := store.FindByKey(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 6, cached.Quantity())

	fresh, err := store.FindForUpdate(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 4, fresh.Quantity())
	assert.Equal(t, 2, fresh.NumberSold())
	assert.True(t, fresh.TotalFromSales().Equal(decimal.NewFromInt(20)))
	assert.Zero(t, stale.sets)
}

func TestPostgresStore_SellOverStaleCacheKeepsCounters(t *testing.T) {
	ctx := context.Background()
	store, fake, stale := newStaleStore(t)
	svc := stockservice.NewService(store, nil, logger.NewNop())

	outcome, err := svc.SellStock(ctx, 5, decimal.NewFromInt(10), 1)
	require.NoError(t, err)
	assert.Equal(t, stockservice.Applied, outcome)

	execs := fake.Execs()
	require.Len(t, execs, 1)
	assert.Equal(t, "UPDATE stocks SET number_sold = $1, quantity = $2, total_from_sales = $3 WHERE product_id = $4", execs[0].query)

	args := execs[0].args
	require.Len(t, args, 4)
	assert.Equal(t, int64(3), args[0])
	// 4 - 1 = 3 fica abaixo do limite 5: repõe floor(100/10) = 10
	assert.Equal(t, int64(13), args[1])
	total, ok := args[2].(string)
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString(total).Equal(decimal.NewFromInt(30)))
	assert.Equal(t, int64(5), args[3])

	_, cachedAfter := stale.entries["stock:5"]
	assert.False(t, cachedAfter)
}
