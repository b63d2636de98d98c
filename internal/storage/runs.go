package storage

import (
	"database/sql"
	"time"
)

// ScoreRun is one persisted batch scoring invocation.
type ScoreRun struct {
	ID              string    `json:"id"`
	ScoreName       string    `json:"scoreName"`
	ObstructionAttr string    `json:"obstructionAttr"`
	Mode            string    `json:"mode,omitempty"`
	UsePercentage   bool      `json:"usePercentage,omitempty"`
	MinThresh       float64   `json:"minThresh"`
	MaxThresh       float64   `json:"maxThresh"`
	GraphsDir       string    `json:"graphsDir"`
	CreatedAt       time.Time `json:"createdAt"`

	Scores   []PatientScore   `json:"scores"`
	Failures []PatientFailure `json:"failures,omitempty"`
}

// PatientScore is one patient's score within a run.
type PatientScore struct {
	PatientID       string  `json:"patientId"`
	ObstructionAttr string  `json:"obstructionAttr"`
	Score           float64 `json:"score"`
}

// PatientFailure records an isolated per-patient processing failure.
type PatientFailure struct {
	PatientID string `json:"patientId"`
	Error     string `json:"error"`
}

// SaveRun persists a run with its per-patient scores and failures.
func (db *DB) SaveRun(run *ScoreRun) error {
	return db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO score_runs (
				id, score_name, obstruction_attr, mode, use_percentage,
				min_thresh, max_thresh, graphs_dir, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.ScoreName, run.ObstructionAttr, run.Mode,
			boolToInt(run.UsePercentage), run.MinThresh, run.MaxThresh,
			run.GraphsDir, run.CreatedAt.UTC().Format(time.RFC3339))
		if err != nil {
			return err
		}

		for _, s := range run.Scores {
			if _, err := tx.Exec(`
				INSERT INTO patient_scores (run_id, patient_id, obstruction_attr, score)
				VALUES (?, ?, ?, ?)`,
				run.ID, s.PatientID, s.ObstructionAttr, s.Score); err != nil {
				return err
			}
		}
		for _, f := range run.Failures {
			if _, err := tx.Exec(`
				INSERT INTO patient_failures (run_id, patient_id, error)
				VALUES (?, ?, ?)`,
				run.ID, f.PatientID, f.Error); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetRun loads a run and its scores/failures by ID.
func (db *DB) GetRun(id string) (*ScoreRun, error) {
	run := &ScoreRun{ID: id}
	var createdAt string
	var usePct int
	err := db.conn.QueryRow(`
		SELECT score_name, obstruction_attr, mode, use_percentage,
		       min_thresh, max_thresh, graphs_dir, created_at
		FROM score_runs WHERE id = ?`, id).Scan(
		&run.ScoreName, &run.ObstructionAttr, &run.Mode, &usePct,
		&run.MinThresh, &run.MaxThresh, &run.GraphsDir, &createdAt)
	if err != nil {
		return nil, err
	}
	run.UsePercentage = usePct != 0
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		run.CreatedAt = t
	}

	rows, err := db.conn.Query(`
		SELECT patient_id, obstruction_attr, score
		FROM patient_scores WHERE run_id = ? ORDER BY patient_id, obstruction_attr`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s PatientScore
		if err := rows.Scan(&s.PatientID, &s.ObstructionAttr, &s.Score); err != nil {
			return nil, err
		}
		run.Scores = append(run.Scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	frows, err := db.conn.Query(`
		SELECT patient_id, error FROM patient_failures WHERE run_id = ? ORDER BY patient_id`, id)
	if err != nil {
		return nil, err
	}
	defer frows.Close()
	for frows.Next() {
		var f PatientFailure
		if err := frows.Scan(&f.PatientID, &f.Error); err != nil {
			return nil, err
		}
		run.Failures = append(run.Failures, f)
	}
	return run, frows.Err()
}

// ListRuns returns run headers (no per-patient rows), newest first.
func (db *DB) ListRuns(limit int) ([]ScoreRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, score_name, obstruction_attr, mode, use_percentage,
		       min_thresh, max_thresh, graphs_dir, created_at
		FROM score_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []ScoreRun
	for rows.Next() {
		var run ScoreRun
		var createdAt string
		var usePct int
		if err := rows.Scan(&run.ID, &run.ScoreName, &run.ObstructionAttr,
			&run.Mode, &usePct, &run.MinThresh, &run.MaxThresh,
			&run.GraphsDir, &createdAt); err != nil {
			return nil, err
		}
		run.UsePercentage = usePct != 0
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			run.CreatedAt = t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
