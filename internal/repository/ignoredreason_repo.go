package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/quitanda/lossprev/internal/domain"
)

type IgnoredReasonRepo struct {
	db *sql.DB
}

func NewIgnoredReasonRepo(db *sql.DB) *IgnoredReasonRepo {
	return &IgnoredReasonRepo{db: db}
}

// Toggle flips the ignored flag for (tenant, motivo), creating the row as
// ignored on first use. Concurrent toggles rely on SQLite's row-level
// serialization; last write wins. Returns the resulting state.
func (r *IgnoredReasonRepo) Toggle(tenant, motivo string) (bool, error) {
	now := time.Now().Format(time.RFC3339)
	_, err := r.db.Exec(
		`INSERT INTO ignored_reasons (tenant, motivo, ignorado, atualizado_em)
		VALUES (?,?,1,?)
		ON CONFLICT(tenant, motivo)
		DO UPDATE SET ignorado = 1 - ignorado, atualizado_em = excluded.atualizado_em`,
		tenant, motivo, now,
	)
	if err != nil {
		return false, fmt.Errorf("toggle: %w", err)
	}

	var ignorado bool
	err = r.db.QueryRow(
		"SELECT ignorado FROM ignored_reasons WHERE tenant = ? AND motivo = ?",
		tenant, motivo,
	).Scan(&ignorado)
	if err != nil {
		return false, fmt.Errorf("read back: %w", err)
	}
	return ignorado, nil
}

// ListIgnored returns the reasons currently flagged ignored for a tenant.
func (r *IgnoredReasonRepo) ListIgnored(tenant string) ([]domain.IgnoredReason, error) {
	rows, err := r.db.Query(
		`SELECT id, tenant, motivo, ignorado, atualizado_em
		FROM ignored_reasons WHERE tenant = ? AND ignorado = 1 ORDER BY motivo`,
		tenant,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reasons []domain.IgnoredReason
	for rows.Next() {
		var ir domain.IgnoredReason
		var atualizado string
		if err := rows.Scan(&ir.ID, &ir.Tenant, &ir.Motivo, &ir.Ignorado, &atualizado); err != nil {
			return nil, err
		}
		ir.AtualizadoEm, _ = time.Parse(time.RFC3339, atualizado)
		reasons = append(reasons, ir)
	}
	return reasons, rows.Err()
}

// IgnoredSet returns the ignored reasons as a lookup set for the aggregator.
func (r *IgnoredReasonRepo) IgnoredSet(tenant string) (map[string]bool, error) {
	reasons, err := r.ListIgnored(tenant)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(reasons))
	for _, ir := range reasons {
		set[ir.Motivo] = true
	}
	return set, nil
}
