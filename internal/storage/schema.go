package storage

import (
	"database/sql"
	"fmt"
)

const currentSchemaVersion = 1

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		stmts := []string{
			`CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS score_runs (
				id TEXT PRIMARY KEY,
				score_name TEXT NOT NULL,
				obstruction_attr TEXT NOT NULL,
				mode TEXT NOT NULL DEFAULT '',
				use_percentage INTEGER NOT NULL DEFAULT 0,
				min_thresh REAL NOT NULL,
				max_thresh REAL NOT NULL,
				graphs_dir TEXT NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS patient_scores (
				run_id TEXT NOT NULL REFERENCES score_runs(id) ON DELETE CASCADE,
				patient_id TEXT NOT NULL,
				obstruction_attr TEXT NOT NULL,
				score REAL NOT NULL,
				PRIMARY KEY (run_id, patient_id, obstruction_attr)
			)`,
			`CREATE TABLE IF NOT EXISTS patient_failures (
				run_id TEXT NOT NULL REFERENCES score_runs(id) ON DELETE CASCADE,
				patient_id TEXT NOT NULL,
				error TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_patient_scores_run
				ON patient_scores(run_id)`,
		}
		for _, stmt := range stmts {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("creating schema: %w", err)
			}
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Info("Score database schema initialized", map[string]interface{}{
			"version": currentSchemaVersion,
		})
		return nil
	})
}
