package domain

import "time"

// ReorderOrder é a notificação emitida quando uma venda derruba o estoque
// abaixo do limite de reposição.
type ReorderOrder struct {
	ID          string    `json:"id"`
	ProductID   int       `json:"product_id"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
}
