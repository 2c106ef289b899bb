package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"stockmanager/internal/pkg/logger"
)

const reportTimeout = 2 * time.Minute

// ReportSource é a parte do serviço de estoque usada pelo agendador.
type ReportSource interface {
	GetStockReport(ctx context.Context) (string, error)
}

// Scheduler gera o relatório de estoque periodicamente em REPORT_DIR.
type Scheduler struct {
	cron     *cron.Cron
	source   ReportSource
	schedule string
	dir      string
	now      func() time.Time
	logger   logger.Logger
}

// NewScheduler cria o agendador. schedule usa o formato padrão de 5 campos do cron.
func NewScheduler(source ReportSource, schedule, dir string, log logger.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		source:   source,
		schedule: schedule,
		dir:      dir,
		now:      time.Now,
		logger:   log.Named("scheduler"),
	}
}

// Start registra o job e inicia o cron. Agenda vazia desativa o relatório.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("Relatório agendado desativado (REPORT_CRON_SCHEDULE vazio).", nil)
		return nil
	}

	_, err := s.cron.AddFunc(s.schedule, s.runJob)
	if err != nil {
		return fmt.Errorf("agenda de relatório inválida %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("Agendador iniciado.", map[string]interface{}{"schedule": s.schedule, "dir": s.dir})
	return nil
}

// Stop para o cron e espera o job em execução terminar.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Agendador parado.", nil)
}

func (s *Scheduler) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	path, err := s.RunReport(ctx)
	if err != nil {
		s.logger.Error("Falha ao gerar relatório de estoque", err)
		return
	}
	s.logger.Info("Relatório de estoque gerado.", map[string]interface{}{"path": path})
}

// RunReport grava o relatório atual num arquivo com carimbo de data e devolve o caminho.
func (s *Scheduler) RunReport(ctx context.Context) (string, error) {
	report, err := s.source.GetStockReport(ctx)
	if err != nil {
		return "", fmt.Errorf("falha ao obter relatório: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("falha ao criar diretório de relatórios: %w", err)
	}

	name := fmt.Sprintf("stock-report-%s.txt", s.now().UTC().Format("20060102-150405"))
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return "", fmt.Errorf("falha ao gravar relatório: %w", err)
	}
	return path, nil
}
