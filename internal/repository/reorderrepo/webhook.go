package reorderrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"stockmanager/internal/domain"
)

// WebhookSink envia o pedido em JSON para o endpoint do fornecedor.
type WebhookSink struct {
	httpClient *resty.Client
	url        string
}

type webhookError struct {
	Message string `json:"message"`
}

func NewWebhookSink(url string, timeout time.Duration) *WebhookSink {
	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	return &WebhookSink{httpClient: client, url: url}
}

func (s *WebhookSink) Record(ctx context.Context, order domain.ReorderOrder) error {
	apiErr := new(webhookError)

	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetBody(order).
		SetError(apiErr).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("falha ao enviar pedido ao fornecedor: %w", err)
	}
	if resp.IsError() {
		if apiErr.Message != "" {
			return fmt.Errorf("fornecedor recusou o pedido (%d): %s", resp.StatusCode(), apiErr.Message)
		}
		return fmt.Errorf("fornecedor recusou o pedido: status %d", resp.StatusCode())
	}
	return nil
}
