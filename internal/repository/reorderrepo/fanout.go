package reorderrepo

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"stockmanager/internal/domain"
)

// Sink é qualquer destino de pedidos de reposição.
type Sink interface {
	Record(ctx context.Context, order domain.ReorderOrder) error
}

type namedSink struct {
	name string
	sink Sink
}

// Fanout entrega cada pedido a todos os destinos e agrega as falhas.
// Sem destinos, Record não faz nada.
type Fanout struct {
	sinks []namedSink
}

func NewFanout() *Fanout {
	return &Fanout{}
}

// Add registra um destino com o nome usado nas mensagens de erro.
func (f *Fanout) Add(name string, sink Sink) *Fanout {
	f.sinks = append(f.sinks, namedSink{name: name, sink: sink})
	return f
}

// Len informa quantos destinos estão configurados.
func (f *Fanout) Len() int {
	return len(f.sinks)
}

func (f *Fanout) Record(ctx context.Context, order domain.ReorderOrder) error {
	var err error
	for _, s := range f.sinks {
		if rerr := s.sink.Record(ctx, order); rerr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", s.name, rerr))
		}
	}
	return err
}
