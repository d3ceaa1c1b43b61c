package ingestion

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quitanda/lossprev/internal/domain"
)

// EventStore persists classified events. Satisfied by repository.LossEventRepo.
type EventStore interface {
	InsertBatch(events []domain.LossEvent) (int, error)
}

// Service runs the full import pipeline: decode, classify, persist.
type Service struct {
	store EventStore
	log   *logrus.Logger
	now   func() time.Time
}

// NewService creates a new ingestion service.
func NewService(store EventStore, log *logrus.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// ImportFile ingests one raw vendor export. The import either fully succeeds,
// returning the loss/entry summary, or fully fails before anything is
// persisted. Rows without product data are dropped silently and only counted
// in the rows-seen tally.
func (s *Service) ImportFile(data []byte, batch Batch) (*domain.ImportSummary, error) {
	now := s.now()
	if batch.Lote == "" {
		batch.Lote = fmt.Sprintf("lote-%s", now.Format("20060102-150405"))
	}
	if batch.Tenant == "" {
		batch.Tenant = "default"
	}

	rows, seen, err := DecodeRows(data)
	if err != nil {
		return nil, fmt.Errorf("decodificar arquivo: %w", err)
	}

	events, summary := ClassifyRows(rows, batch, now)

	if _, err := s.store.InsertBatch(events); err != nil {
		return nil, fmt.Errorf("gravar eventos: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"tenant":      batch.Tenant,
		"lote":        batch.Lote,
		"lidas":       seen,
		"descartadas": seen - summary.Total,
		"perdas":      summary.Perdas,
		"entradas":    summary.Entradas,
	}).Info("importação concluída")

	return &summary, nil
}
