package ingestion

import (
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/quitanda/lossprev/internal/domain"
)

type fakeStore struct {
	batches [][]domain.LossEvent
	err     error
}

func (f *fakeStore) InsertBatch(events []domain.LossEvent) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.batches = append(f.batches, events)
	return len(events), nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestImportFile_Summary(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, testLogger())

	summary, err := svc.ImportFile([]byte(sampleExport), Batch{Tenant: "default", Lote: "ago-2026"})
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}

	if summary.Total != 3 || summary.Perdas != 3 || summary.Entradas != 0 {
		t.Errorf("summary = %+v, want 3 perdas", summary)
	}
	if summary.Total != summary.Perdas+summary.Entradas {
		t.Errorf("total %d != perdas+entradas", summary.Total)
	}

	if len(store.batches) != 1 || len(store.batches[0]) != 3 {
		t.Fatalf("persisted batches = %+v", store.batches)
	}
	if store.batches[0][0].Lote != "ago-2026" {
		t.Errorf("lote = %q", store.batches[0][0].Lote)
	}
}

func TestImportFile_StructuralErrorPersistsNothing(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, testLogger())

	if _, err := svc.ImportFile(nil, Batch{}); err == nil {
		t.Fatal("expected structural error for empty file")
	}
	if len(store.batches) != 0 {
		t.Error("nothing may be persisted when decoding fails")
	}
}

func TestImportFile_StoreFailurePropagates(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	svc := NewService(store, testLogger())

	if _, err := svc.ImportFile([]byte(sampleExport), Batch{}); err == nil {
		t.Fatal("expected persistence error to propagate")
	}
}

func TestImportFile_DefaultsLotAndTenant(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, testLogger())

	summary, err := svc.ImportFile([]byte(sampleExport), Batch{})
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if summary.Lote == "" {
		t.Error("lot name must be generated when absent")
	}
	if store.batches[0][0].Tenant != "default" {
		t.Errorf("tenant = %q, want default", store.batches[0][0].Tenant)
	}
}
