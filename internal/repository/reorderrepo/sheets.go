package reorderrepo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"stockmanager/internal/domain"
	"stockmanager/internal/pkg/logger"
)

// DefaultSheetRange é a aba onde os pedidos são acrescentados.
const DefaultSheetRange = "Reposicao!A:E"

// SheetsSink acrescenta cada pedido como uma linha de uma planilha Google.
type SheetsSink struct {
	service       *sheetsapi.Service
	spreadsheetID string
	sheetRange    string
	logger        logger.Logger
}

// NewSheetsSink cria o cliente da API Sheets. opts substituem as credenciais (usado nos testes).
func NewSheetsSink(ctx context.Context, credentialsPath, spreadsheetID string, log logger.Logger, opts ...option.ClientOption) (*SheetsSink, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("GOOGLE_SHEET_ID não definido")
	}
	if len(opts) == 0 {
		opts = []option.ClientOption{
			option.WithCredentialsFile(credentialsPath),
			option.WithScopes(sheetsapi.SpreadsheetsScope),
		}
	}

	service, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("falha ao iniciar cliente do Google Sheets: %w", err)
	}

	return &SheetsSink{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetRange:    DefaultSheetRange,
		logger:        log,
	}, nil
}

func (s *SheetsSink) Record(ctx context.Context, order domain.ReorderOrder) error {
	row := []interface{}{
		order.CreatedAt.Format(time.RFC3339),
		order.ID,
		strconv.Itoa(order.ProductID),
		order.Description,
		order.Quantity,
	}
	payload := &sheetsapi.ValueRange{Values: [][]interface{}{row}}

	_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, s.sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("falha ao acrescentar pedido na planilha: %w", err)
	}

	s.logger.Debug("Pedido de reposição acrescentado na planilha.", map[string]interface{}{"order_id": order.ID, "range": s.sheetRange})
	return nil
}
