package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockmanager/internal/pkg/logger"
)

type fakeSource struct {
	report string
	err    error
}

func (f fakeSource) GetStockReport(ctx context.Context) (string, error) {
	return f.report, f.err
}

func TestRunReport_WritesTimestampedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	s := NewScheduler(fakeSource{report: "1\nWidget\n3\n2\n20.00\n---\n"}, "", dir, logger.NewNop())
	s.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }

	path, err := s.RunReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "stock-report-20240301-123000.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\nWidget\n3\n2\n20.00\n---\n", string(data))
}

func TestRunReport_SourceError(t *testing.T) {
	dir := t.TempDir()
	s := NewScheduler(fakeSource{err: errors.New("store fora do ar")}, "", dir, logger.NewNop())

	_, err := s.RunReport(context.Background())
	require.Error(t, err)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestStart(t *testing.T) {
	disabled := NewScheduler(fakeSource{}, "", t.TempDir(), logger.NewNop())
	assert.NoError(t, disabled.Start())
	disabled.Stop()

	invalid := NewScheduler(fakeSource{}, "not a cron", t.TempDir(), logger.NewNop())
	assert.Error(t, invalid.Start())

	valid := NewScheduler(fakeSource{}, "0 20 * * 5", t.TempDir(), logger.NewNop())
	require.NoError(t, valid.Start())
	valid.Stop()
}
