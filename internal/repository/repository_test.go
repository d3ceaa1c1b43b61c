package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quitanda/lossprev/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(":memory:")
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func event(tenant, lote, motivo, barcode string, qtd, custo string, inicio time.Time) domain.LossEvent {
	return domain.LossEvent{
		Tenant:        tenant,
		Barcode:       barcode,
		Descricao:     "PRODUTO " + barcode,
		Quantidade:    decimal.RequireFromString(qtd),
		CustoUnitario: decimal.RequireFromString(custo),
		Motivo:        motivo,
		SecaoCodigo:   "1",
		SecaoNome:     "Mercearia",
		ImportadoEm:   inicio,
		PeriodoInicio: inicio,
		PeriodoFim:    inicio,
		Lote:          lote,
	}
}

func TestLossEventRepo_InsertAndList(t *testing.T) {
	db := newTestDB(t)
	repo := NewLossEventRepo(db)

	base := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	events := []domain.LossEvent{
		event("default", "l1", "Avaria", "111", "-2", "10", base),
		event("default", "l1", "Furto", "222", "-1", "5", base.AddDate(0, 0, 1)),
		event("default", "l2", "Acerto", "333", "3", "2", base.AddDate(0, 0, 20)),
		event("outra", "l9", "Avaria", "111", "-4", "10", base),
	}

	n, err := repo.InsertBatch(events)
	if err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	if n != 4 {
		t.Fatalf("inserted = %d, want 4", n)
	}

	got, err := repo.ListInRange(EventFilter{
		Tenant: "default",
		From:   base,
		To:     base.AddDate(0, 0, 5),
	})
	if err != nil {
		t.Fatalf("ListInRange: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (tenant + range filter)", len(got))
	}
	if !got[0].Quantidade.Equal(decimal.RequireFromString("-2")) {
		t.Errorf("quantidade round trip = %s", got[0].Quantidade)
	}

	got, err = repo.ListInRange(EventFilter{
		Tenant: "default",
		From:   base,
		To:     base.AddDate(0, 1, 0),
		Motivo: "urt",
	})
	if err != nil {
		t.Fatalf("ListInRange motivo: %v", err)
	}
	if len(got) != 1 || got[0].Motivo != "Furto" {
		t.Fatalf("motivo substring filter failed: %+v", got)
	}

	got, err = repo.ListInRange(EventFilter{
		Tenant:  "default",
		From:    base,
		To:      base.AddDate(0, 1, 0),
		Produto: "333",
	})
	if err != nil {
		t.Fatalf("ListInRange produto: %v", err)
	}
	if len(got) != 1 || got[0].Barcode != "333" {
		t.Fatalf("produto substring filter failed: %+v", got)
	}
}

func TestLossEventRepo_LotsLifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewLossEventRepo(db)

	base := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	_, err := repo.InsertBatch([]domain.LossEvent{
		event("default", "l1", "Avaria", "111", "-2", "10", base),
		event("default", "l1", "Furto", "222", "-1", "5", base),
		event("default", "l2", "Acerto", "333", "3", "2", base.AddDate(0, 0, 5)),
	})
	if err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}

	lots, err := repo.ListLots("default")
	if err != nil {
		t.Fatalf("ListLots: %v", err)
	}
	if len(lots) != 2 {
		t.Fatalf("lots = %d, want 2", len(lots))
	}

	deleted, err := repo.DeleteLot("default", "l1")
	if err != nil {
		t.Fatalf("DeleteLot: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("remaining = %d, want 1", count)
	}

	if deleted, _ := repo.DeleteLot("default", "inexistente"); deleted != 0 {
		t.Errorf("deleting unknown lot removed %d rows", deleted)
	}
}

func TestIgnoredReasonRepo_ToggleParity(t *testing.T) {
	db := newTestDB(t)
	repo := NewIgnoredReasonRepo(db)

	// Odd number of toggles => ignored; even => not.
	for i := 1; i <= 5; i++ {
		ignorado, err := repo.Toggle("default", "Avaria")
		if err != nil {
			t.Fatalf("Toggle %d: %v", i, err)
		}
		want := i%2 == 1
		if ignorado != want {
			t.Errorf("after %d toggles ignorado = %v, want %v", i, ignorado, want)
		}
	}

	// Exactly one row exists regardless of toggle count.
	var rows int
	if err := db.QueryRow(
		"SELECT COUNT(*) FROM ignored_reasons WHERE tenant = ? AND motivo = ?",
		"default", "Avaria",
	).Scan(&rows); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 1 {
		t.Errorf("rows = %d, want 1", rows)
	}

	set, err := repo.IgnoredSet("default")
	if err != nil {
		t.Fatalf("IgnoredSet: %v", err)
	}
	if !set["Avaria"] {
		t.Error("Avaria must be ignored after odd toggle count")
	}

	// Tenants are isolated.
	other, err := repo.IgnoredSet("outra")
	if err != nil {
		t.Fatalf("IgnoredSet outra: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("other tenant set = %v, want empty", other)
	}
}

func TestIgnoredReasonRepo_ListIgnoredExcludesFlippedOff(t *testing.T) {
	db := newTestDB(t)
	repo := NewIgnoredReasonRepo(db)

	repo.Toggle("default", "Avaria")
	repo.Toggle("default", "Furto")
	repo.Toggle("default", "Furto") // flipped back off

	reasons, err := repo.ListIgnored("default")
	if err != nil {
		t.Fatalf("ListIgnored: %v", err)
	}
	if len(reasons) != 1 || reasons[0].Motivo != "Avaria" {
		t.Fatalf("ListIgnored = %+v, want only Avaria", reasons)
	}
}
