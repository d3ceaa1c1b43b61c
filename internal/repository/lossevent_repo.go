package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quitanda/lossprev/internal/domain"
)

type LossEventRepo struct {
	db *sql.DB
}

func NewLossEventRepo(db *sql.DB) *LossEventRepo {
	return &LossEventRepo{db: db}
}

// InsertBatch persists all events of one import in a single transaction, so
// an import is either fully stored or not at all.
func (r *LossEventRepo) InsertBatch(events []domain.LossEvent) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO loss_events
		(tenant, barcode, descricao, quantidade, custo_unitario, motivo,
		 secao_codigo, secao_nome, importado_em, periodo_inicio, periodo_fim, lote)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := range events {
		ev := &events[i]
		_, err := stmt.Exec(
			ev.Tenant, ev.Barcode, ev.Descricao,
			ev.Quantidade.String(), ev.CustoUnitario.String(), ev.Motivo,
			ev.SecaoCodigo, ev.SecaoNome,
			ev.ImportadoEm.Format(time.RFC3339),
			ev.PeriodoInicio.Format(time.RFC3339),
			ev.PeriodoFim.Format(time.RFC3339),
			ev.Lote,
		)
		if err != nil {
			return 0, fmt.Errorf("insert event %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(events), nil
}

// EventFilter selects events for reporting. From/To bound the period start
// each row represents; Motivo and Produto are case-insensitive substring
// filters on the reason and on the product description/barcode.
type EventFilter struct {
	Tenant  string
	From    time.Time
	To      time.Time
	Motivo  string
	Produto string
}

// ListInRange returns all events matching the filter, oldest first with the
// insertion order as tie-breaker so repeated reads are deterministic.
func (r *LossEventRepo) ListInRange(f EventFilter) ([]domain.LossEvent, error) {
	var clauses []string
	var args []any

	clauses = append(clauses, "tenant = ?")
	args = append(args, f.Tenant)
	clauses = append(clauses, "periodo_inicio >= ?", "periodo_inicio <= ?")
	args = append(args, f.From.Format(time.RFC3339), f.To.Format(time.RFC3339))

	if f.Motivo != "" {
		clauses = append(clauses, "motivo LIKE ?")
		args = append(args, "%"+f.Motivo+"%")
	}
	if f.Produto != "" {
		clauses = append(clauses, "(descricao LIKE ? OR barcode LIKE ?)")
		args = append(args, "%"+f.Produto+"%", "%"+f.Produto+"%")
	}

	q := `SELECT id, tenant, barcode, descricao, quantidade, custo_unitario,
		motivo, secao_codigo, secao_nome, importado_em, periodo_inicio, periodo_fim, lote
		FROM loss_events WHERE ` + strings.Join(clauses, " AND ") +
		" ORDER BY periodo_inicio, id"

	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.LossEvent
	for rows.Next() {
		ev, err := scanLossEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// ListLots groups a tenant's events into their import lots, newest first.
func (r *LossEventRepo) ListLots(tenant string) ([]domain.Lot, error) {
	rows, err := r.db.Query(
		`SELECT lote, MAX(importado_em), MIN(periodo_inicio), MAX(periodo_fim), COUNT(*)
		FROM loss_events WHERE tenant = ?
		GROUP BY lote ORDER BY MAX(importado_em) DESC`,
		tenant,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []domain.Lot
	for rows.Next() {
		var lot domain.Lot
		var importado, inicio, fim string
		if err := rows.Scan(&lot.Nome, &importado, &inicio, &fim, &lot.Registros); err != nil {
			return nil, err
		}
		lot.Tenant = tenant
		lot.ImportadoEm, _ = time.Parse(time.RFC3339, importado)
		lot.PeriodoInicio, _ = time.Parse(time.RFC3339, inicio)
		lot.PeriodoFim, _ = time.Parse(time.RFC3339, fim)
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

// DeleteLot removes every event of a named lot and returns how many rows
// were deleted. A lot has no identity of its own; deleting its members is
// deleting the lot.
func (r *LossEventRepo) DeleteLot(tenant, lote string) (int, error) {
	res, err := r.db.Exec(
		"DELETE FROM loss_events WHERE tenant = ? AND lote = ?", tenant, lote,
	)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *LossEventRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM loss_events").Scan(&count)
	return count, err
}

func scanLossEvent(rows *sql.Rows) (*domain.LossEvent, error) {
	var ev domain.LossEvent
	var qtd, custo, importado, inicio, fim string

	err := rows.Scan(
		&ev.ID, &ev.Tenant, &ev.Barcode, &ev.Descricao, &qtd, &custo,
		&ev.Motivo, &ev.SecaoCodigo, &ev.SecaoNome, &importado, &inicio, &fim, &ev.Lote,
	)
	if err != nil {
		return nil, err
	}

	if ev.Quantidade, err = decimal.NewFromString(qtd); err != nil {
		return nil, fmt.Errorf("event %d quantidade %q: %w", ev.ID, qtd, err)
	}
	if ev.CustoUnitario, err = decimal.NewFromString(custo); err != nil {
		return nil, fmt.Errorf("event %d custo %q: %w", ev.ID, custo, err)
	}
	ev.ImportadoEm, _ = time.Parse(time.RFC3339, importado)
	ev.PeriodoInicio, _ = time.Parse(time.RFC3339, inicio)
	ev.PeriodoFim, _ = time.Parse(time.RFC3339, fim)

	return &ev, nil
}
