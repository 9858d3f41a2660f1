package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lcroisez/undini/internal/models"
	_ "modernc.org/sqlite"
)

// Storage persists run history and per-step results. One database per data
// dir; the orchestrator writes, the CLI and TUI read.
type Storage struct {
	db *sql.DB
}

func New(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		completed_at TIMESTAMP,
		iteration INTEGER NOT NULL,
		variant TEXT NOT NULL,
		script_path TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		current_step TEXT,
		error TEXT
	);

	CREATE TABLE IF NOT EXISTS step_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		sequence_num INTEGER NOT NULL,
		step_name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		artifacts TEXT,
		diagnostic TEXT,
		started_at TIMESTAMP,
		elapsed_ms INTEGER,
		UNIQUE(run_id, sequence_num)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
	CREATE INDEX IF NOT EXISTS idx_runs_iteration ON runs(iteration);
	CREATE INDEX IF NOT EXISTS idx_step_results_run ON step_results(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Storage) CreateRun(run *models.Run) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO runs (iteration, variant, script_path, status, current_step, error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.Iteration, run.Variant, run.ScriptPath, run.Status, run.CurrentStep, run.Error,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *Storage) GetRun(id int64) (*models.Run, error) {
	row := s.db.QueryRow(
		`SELECT id, created_at, completed_at, iteration, variant, script_path, status, current_step, error
		 FROM runs WHERE id = ?`, id,
	)
	return scanRun(row.Scan)
}

func (s *Storage) UpdateRun(run *models.Run) error {
	_, err := s.db.Exec(
		`UPDATE runs SET completed_at = ?, status = ?, current_step = ?, error = ? WHERE id = ?`,
		run.CompletedAt, run.Status, run.CurrentStep, run.Error, run.ID,
	)
	return err
}

func (s *Storage) ListRuns(limit int) ([]*models.Run, error) {
	rows, err := s.db.Query(
		`SELECT id, created_at, completed_at, iteration, variant, script_path, status, current_step, error
		 FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func scanRun(scan func(...any) error) (*models.Run, error) {
	var run models.Run
	var completedAt sql.NullTime
	var scriptPath, currentStep, errText sql.NullString

	err := scan(
		&run.ID, &run.CreatedAt, &completedAt, &run.Iteration,
		&run.Variant, &scriptPath, &run.Status, &currentStep, &errText,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if scriptPath.Valid {
		run.ScriptPath = scriptPath.String
	}
	if currentStep.Valid {
		run.CurrentStep = currentStep.String
	}
	if errText.Valid {
		run.Error = errText.String
	}

	return &run, nil
}

func (s *Storage) CreateStepResult(res *models.StepResult) (int64, error) {
	artifactsJSON, err := marshalArtifacts(res.Artifacts)
	if err != nil {
		return 0, err
	}

	result, err := s.db.Exec(
		`INSERT INTO step_results (run_id, sequence_num, step_name, status, artifacts, diagnostic, started_at, elapsed_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, sequence_num) DO UPDATE SET
		   step_name = excluded.step_name, status = excluded.status,
		   artifacts = excluded.artifacts, diagnostic = excluded.diagnostic,
		   started_at = excluded.started_at, elapsed_ms = excluded.elapsed_ms`,
		res.RunID, res.SequenceNum, res.StepName, res.Status,
		artifactsJSON, res.Diagnostic, res.StartedAt, res.Elapsed.Milliseconds(),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *Storage) GetStepResultsForRun(runID int64) ([]*models.StepResult, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, sequence_num, step_name, status, artifacts, diagnostic, started_at, elapsed_ms
		 FROM step_results WHERE run_id = ? ORDER BY sequence_num`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*models.StepResult
	for rows.Next() {
		var res models.StepResult
		var artifactsJSON, diagnostic sql.NullString
		var startedAt sql.NullTime
		var elapsedMS sql.NullInt64

		err := rows.Scan(
			&res.ID, &res.RunID, &res.SequenceNum, &res.StepName, &res.Status,
			&artifactsJSON, &diagnostic, &startedAt, &elapsedMS,
		)
		if err != nil {
			return nil, err
		}

		if artifactsJSON.Valid && artifactsJSON.String != "" {
			if err := json.Unmarshal([]byte(artifactsJSON.String), &res.Artifacts); err != nil {
				return nil, err
			}
		}
		if diagnostic.Valid {
			res.Diagnostic = diagnostic.String
		}
		if startedAt.Valid {
			res.StartedAt = &startedAt.Time
		}
		if elapsedMS.Valid {
			res.Elapsed = time.Duration(elapsedMS.Int64) * time.Millisecond
		}

		results = append(results, &res)
	}

	return results, rows.Err()
}

func (s *Storage) DeleteRun(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM step_results WHERE run_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM runs WHERE id = ?`, id); err != nil {
		return err
	}

	return tx.Commit()
}

func marshalArtifacts(artifacts []string) (string, error) {
	if len(artifacts) == 0 {
		return "", nil
	}
	data, err := json.Marshal(artifacts)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FormatTimeAgo renders a timestamp for list views.
func FormatTimeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("Jan 2")
	}
}
