package reorderrepo

import (
	"context"
	"database/sql"
	"time"

	"stockmanager/internal/domain"
	"stockmanager/internal/errors"
	"stockmanager/internal/pkg/logger"
)

// PostgresSink grava os pedidos de reposição na tabela reorder_orders.
type PostgresSink struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

func NewPostgresSink(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *PostgresSink {
	return &PostgresSink{DB: db, DBTimeout: dbTimeout, logger: log}
}

func (s *PostgresSink) Record(ctx context.Context, order domain.ReorderOrder) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, s.DBTimeout)
	defer cancel()

	const query = `INSERT INTO reorder_orders (id, product_id, description, quantity, created_at)
                   VALUES ($1, $2, $3, $4, $5)`

	_, err := s.DB.ExecContext(ctxTimeout, query,
		order.ID,
		order.ProductID,
		order.Description,
		order.Quantity,
		order.CreatedAt,
	)
	if err != nil {
		s.logger.Error("Falha ao inserir pedido de reposição.", err)
		return errors.NewStoreFailure("Falha ao inserir pedido de reposição", err)
	}

	s.logger.Debug("Pedido de reposição gravado.", map[string]interface{}{"order_id": order.ID, "product_id": order.ProductID})
	return nil
}
