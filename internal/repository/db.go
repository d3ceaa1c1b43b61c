package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS loss_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant TEXT NOT NULL,
			barcode TEXT NOT NULL,
			descricao TEXT NOT NULL,
			quantidade TEXT NOT NULL,
			custo_unitario TEXT NOT NULL,
			motivo TEXT NOT NULL,
			secao_codigo TEXT NOT NULL,
			secao_nome TEXT NOT NULL,
			importado_em DATETIME NOT NULL,
			periodo_inicio DATETIME NOT NULL,
			periodo_fim DATETIME NOT NULL,
			lote TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_loss_events_tenant ON loss_events(tenant)`,
		`CREATE INDEX IF NOT EXISTS idx_loss_events_periodo ON loss_events(periodo_inicio)`,
		`CREATE INDEX IF NOT EXISTS idx_loss_events_motivo ON loss_events(motivo)`,
		`CREATE INDEX IF NOT EXISTS idx_loss_events_lote ON loss_events(tenant, lote)`,

		`CREATE TABLE IF NOT EXISTS ignored_reasons (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant TEXT NOT NULL,
			motivo TEXT NOT NULL,
			ignorado INTEGER NOT NULL DEFAULT 1,
			atualizado_em DATETIME NOT NULL,
			UNIQUE(tenant, motivo)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}
