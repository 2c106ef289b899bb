package reorderrepo

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"stockmanager/internal/domain"
	"stockmanager/internal/errors"
)

// CSVSink acrescenta uma linha productID,description,quantity por pedido.
// O arquivo não tem cabeçalho e nunca é truncado.
type CSVSink struct {
	mu   sync.Mutex
	path string
}

func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

func (s *CSVSink) Record(ctx context.Context, order domain.ReorderOrder) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.NewStoreFailure("Falha ao criar diretório do log de reposição", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.NewStoreFailure(fmt.Sprintf("Falha ao abrir %s", s.path), err)
	}

	w := csv.NewWriter(f)
	werr := w.Write([]string{
		strconv.Itoa(order.ProductID),
		order.Description,
		strconv.Itoa(order.Quantity),
	})
	if werr == nil {
		w.Flush()
		werr = w.Error()
	}
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return errors.NewStoreFailure("Falha ao gravar pedido de reposição no CSV", werr)
	}
	return nil
}
