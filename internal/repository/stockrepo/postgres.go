package stockrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"stockmanager/internal/domain"
	"stockmanager/internal/errors"
	"stockmanager/internal/pkg/cache"
	"stockmanager/internal/pkg/logger"
)

const (
	stockCacheKey       = "stock:%d"
	uniqueViolationCode = "23505"
	stockColumns        = "product_id, description, price, quantity, safe_stock_amount, total_from_sales, number_sold"
)

// PostgresStore implementa o contrato de Store sobre a tabela stocks.
// Cache é opcional; quando presente, FindByKey usa a estratégia Cache-Aside.
type PostgresStore struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewPostgresStore cria o store relacional. cacheClient pode ser nil.
func NewPostgresStore(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    log,
	}
}

// Exists verifica se há um registro com o productID.
func (r *PostgresStore) Exists(ctx context.Context, productID int) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	err := r.DB.QueryRowContext(ctxTimeout, `SELECT EXISTS(SELECT 1 FROM stocks WHERE product_id = $1)`, productID).Scan(&exists)
	if err != nil {
		r.logger.Error("Falha ao verificar existência do estoque no DB.", err)
		return false, errors.NewStoreFailure("Falha ao verificar existência do estoque", err)
	}
	return exists, nil
}

// FindByKey busca um registro pelo productID, passando primeiro pelo cache.
func (r *PostgresStore) FindByKey(ctx context.Context, productID int) (*domain.Stock, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(stockCacheKey, productID)
	if r.Cache != nil {
		cached, err := r.Cache.Get(ctxTimeout, key)
		if err == nil {
			var s domain.Stock
			if json.Unmarshal([]byte(cached), &s) == nil {
				r.logger.Debug("Estoque encontrado no cache.", map[string]interface{}{"product_id": productID})
				return &s, nil
			}
		} else if err != cache.ErrCacheMiss {
			r.logger.Warn("Falha ao ler do cache Redis.", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}

	s, err := r.selectByKey(ctxTimeout, productID)
	if err != nil {
		return nil, err
	}

	if r.Cache != nil {
		if data, err := json.Marshal(s); err == nil {
			if err := r.Cache.Set(ctxTimeout, key, data, r.CacheTTL); err != nil {
				r.logger.Warn("Falha ao gravar no cache Redis.", map[string]interface{}{"key": key, "error": err.Error()})
			}
		}
	}
	return s, nil
}

// FindForUpdate lê direto do DB, sem consultar nem preencher o cache.
// Uma entrada antiga no cache nunca vira base de uma escrita.
func (r *PostgresStore) FindForUpdate(ctx context.Context, productID int) (*domain.Stock, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	return r.selectByKey(ctxTimeout, productID)
}

func (r *PostgresStore) selectByKey(ctx context.Context, productID int) (*domain.Stock, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+stockColumns+` FROM stocks WHERE product_id = $1`, productID)
	s, err := scanStock(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("Estoque com productID %d não existe.", productID))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar estoque no DB.", err)
		return nil, errors.NewStoreFailure("Falha ao buscar estoque", err)
	}
	return s, nil
}

// FindAll devolve os registros que casam com o filtro, ordenados por productID.
func (r *PostgresStore) FindAll(ctx context.Context, filter domain.StockFilter) ([]*domain.Stock, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	where, args := buildWhere(filter, 1)
	query := `SELECT ` + stockColumns + ` FROM stocks` + where + ` ORDER BY product_id`

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar estoques no DB.", err)
		return nil, errors.NewStoreFailure("Falha ao listar estoques", err)
	}
	defer rows.Close()

	stocks := make([]*domain.Stock, 0)
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, errors.NewStoreFailure("Falha ao ler linha de estoque", err)
		}
		stocks = append(stocks, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreFailure("Falha ao iterar estoques", err)
	}

	r.logger.Debug("Estoques listados.", map[string]interface{}{"count": len(stocks)})
	return stocks, nil
}

// Insert grava um novo registro. productID duplicado vira ConflictError.
func (r *PostgresStore) Insert(ctx context.Context, stock *domain.Stock) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	_, err := r.DB.ExecContext(ctxTimeout,
		`INSERT INTO stocks (`+stockColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		stock.ProductID(),
		stock.Description(),
		stock.Price(),
		stock.Quantity(),
		stock.SafeStockAmount(),
		stock.TotalFromSales(),
		stock.NumberSold(),
	)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
			return errors.NewConflictError(fmt.Sprintf("Estoque com productID %d já existe.", stock.ProductID()))
		}
		r.logger.Error("Falha ao inserir estoque no DB.", err)
		return errors.NewStoreFailure("Falha ao inserir estoque", err)
	}

	r.logger.Info("Estoque inserido.", map[string]interface{}{"product_id": stock.ProductID()})
	return nil
}

// UpdateFields aplica uma atualização parcial e invalida a entrada do cache.
func (r *PostgresStore) UpdateFields(ctx context.Context, productID int, fields domain.FieldSet) error {
	set, args, err := buildSet(fields)
	if err != nil {
		return errors.NewValidationError(err.Error())
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	args = append(args, productID)
	query := fmt.Sprintf(`UPDATE stocks SET %s WHERE product_id = $%d`, set, len(args))

	res, err := r.DB.ExecContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao atualizar estoque no DB.", err)
		return errors.NewStoreFailure("Falha ao atualizar estoque", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.NewStoreFailure("Falha ao ler linhas afetadas", err)
	}

	r.invalidate(ctxTimeout, productID)

	if affected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Estoque com productID %d não existe.", productID))
	}
	return nil
}

// DeleteWhere remove os registros que casam com o filtro. O filtro zero apaga tudo.
func (r *PostgresStore) DeleteWhere(ctx context.Context, filter domain.StockFilter) (int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	where, args := buildWhere(filter, 1)
	rows, err := r.DB.QueryContext(ctxTimeout, `DELETE FROM stocks`+where+` RETURNING product_id`, args...)
	if err != nil {
		r.logger.Error("Falha ao remover estoques no DB.", err)
		return 0, errors.NewStoreFailure("Falha ao remover estoques", err)
	}
	defer rows.Close()

	var removed []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return 0, errors.NewStoreFailure("Falha ao ler productID removido", err)
		}
		removed = append(removed, id)
	}
	if err := rows.Err(); err != nil {
		return 0, errors.NewStoreFailure("Falha ao iterar remoções", err)
	}

	r.invalidate(ctxTimeout, removed...)

	r.logger.Info("Estoques removidos.", map[string]interface{}{"count": len(removed)})
	return int64(len(removed)), nil
}

func (r *PostgresStore) invalidate(ctx context.Context, productIDs ...int) {
	if r.Cache == nil || len(productIDs) == 0 {
		return
	}
	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = fmt.Sprintf(stockCacheKey, id)
	}
	if err := r.Cache.Delete(ctx, keys...); err != nil {
		r.logger.Warn("Falha ao invalidar cache de estoque.", map[string]interface{}{"keys": keys, "error": err.Error()})
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStock(row rowScanner) (*domain.Stock, error) {
	var (
		productID, quantity, safe, sold int
		description                     string
		price, total                    decimal.Decimal
	)
	if err := row.Scan(&productID, &description, &price, &quantity, &safe, &total, &sold); err != nil {
		return nil, err
	}
	return domain.RestoreStock(productID, description, price, safe, quantity, total, sold), nil
}

// buildWhere traduz o filtro para uma cláusula WHERE com placeholders a partir de $start.
func buildWhere(filter domain.StockFilter, start int) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	next := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, start+len(args)-1))
	}

	if filter.ProductID != nil {
		next("product_id = $%d", *filter.ProductID)
	}
	if filter.ProductIDContains != "" {
		next(`CAST(product_id AS TEXT) LIKE $%d ESCAPE '\'`, "%"+escapeLike(filter.ProductIDContains)+"%")
	}
	if filter.Description != nil {
		next("description = $%d", *filter.Description)
	}
	if filter.DescriptionContains != "" {
		next(`description ILIKE $%d ESCAPE '\'`, "%"+escapeLike(filter.DescriptionContains)+"%")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// buildSet monta a lista SET em ordem estável de colunas.
func buildSet(fields domain.FieldSet) (string, []interface{}, error) {
	names, err := checkFields(fields)
	if err != nil {
		return "", nil, err
	}

	parts := make([]string, len(names))
	args := make([]interface{}, len(names))
	for i, field := range names {
		parts[i] = fmt.Sprintf("%s = $%d", field, i+1)
		args[i] = normalizeValue(field, fields[field])
	}
	return strings.Join(parts, ", "), args, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
