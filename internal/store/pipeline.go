package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PipelineState is the step-level tracker for a processing session: which
// stage the material is at, which stages are behind it, and any errors
// hit along the way
type PipelineState struct {
	ID             string
	SessionID      string
	Status         Status
	CurrentStep    Step
	StepsCompleted StepList
	Stats          Stats
	ErrorLog       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreatePipeline creates the step tracker for a session, starting at
// waiting_upload. Registering a session again resets its tracker so a
// re-staged session starts with a clean step history.
func (s *Store) CreatePipeline(sessionID string) (*PipelineState, error) {
	id := uuid.New().String()

	_, err := s.db.Exec(`
		INSERT INTO processing_sessions (id, session_id, status, current_step)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			status = excluded.status,
			current_step = excluded.current_step,
			steps_completed = '[]',
			stats = '{}',
			error_log = '',
			updated_at = CURRENT_TIMESTAMP
	`, id, sessionID, string(StatusCreated), string(StepWaitingUpload))
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline state: %w", classify(err))
	}

	return s.GetPipeline(sessionID)
}

// GetPipeline retrieves a session's step tracker
func (s *Store) GetPipeline(sessionID string) (*PipelineState, error) {
	row := s.db.QueryRow(`
		SELECT id, session_id, COALESCE(status, ''), COALESCE(current_step, ''),
		       COALESCE(steps_completed, '[]'), COALESCE(stats, '{}'),
		       COALESCE(error_log, ''), created_at, updated_at
		FROM processing_sessions
		WHERE session_id = ?
	`, sessionID)
	return scanPipeline(row)
}

// ListPipelines returns all step trackers, newest first
func (s *Store) ListPipelines() ([]*PipelineState, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, COALESCE(status, ''), COALESCE(current_step, ''),
		       COALESCE(steps_completed, '[]'), COALESCE(stats, '{}'),
		       COALESCE(error_log, ''), created_at, updated_at
		FROM processing_sessions
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pipeline states: %w", err)
	}
	defer rows.Close()

	var states []*PipelineState
	for rows.Next() {
		p, err := scanPipeline(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, p)
	}

	return states, rows.Err()
}

// AdvancePipeline moves a session to the next step. The step it was on is
// appended to the completed list.
func (s *Store) AdvancePipeline(sessionID string, next Step) error {
	return s.Transaction(func(tx *sql.Tx) error {
		var current string
		var completedRaw string
		err := tx.QueryRow(`
			SELECT COALESCE(current_step, ''), COALESCE(steps_completed, '[]')
			FROM processing_sessions
			WHERE session_id = ?
		`, sessionID).Scan(&current, &completedRaw)
		if err != nil {
			return classify(err)
		}

		completed, err := parseSteps(completedRaw)
		if err != nil {
			return err
		}
		if current != "" {
			completed = append(completed, Step(current))
		}

		raw, err := completed.marshal()
		if err != nil {
			return err
		}

		_, err = touchExec(tx, "processing_sessions",
			"current_step = ?, steps_completed = ?, status = ?",
			"session_id = ?",
			string(next), raw, string(StatusProcessing), sessionID)
		if err != nil {
			return fmt.Errorf("failed to advance pipeline: %w", err)
		}

		return nil
	})
}

// SetPipelineStatus updates a session tracker's status
func (s *Store) SetPipelineStatus(sessionID string, status Status) error {
	result, err := touchExec(s.db, "processing_sessions",
		"status = ?", "session_id = ?",
		string(status), sessionID)
	if err != nil {
		return fmt.Errorf("failed to set pipeline status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// RecordPipelineError appends a timestamped message to a session's error
// log and parks the tracker on the failed step
func (s *Store) RecordPipelineError(sessionID, message string) error {
	entry := fmt.Sprintf("%s: %s\n", time.Now().UTC().Format(time.RFC3339), message)

	result, err := touchExec(s.db, "processing_sessions",
		"error_log = COALESCE(error_log, '') || ?, status = ?, current_step = ?",
		"session_id = ?",
		entry, string(StatusError), string(StepProcessingFailed), sessionID)
	if err != nil {
		return fmt.Errorf("failed to record pipeline error: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// MergePipelineStats adds the given counter deltas into a session's stats
func (s *Store) MergePipelineStats(sessionID string, delta Stats) error {
	if len(delta) == 0 {
		return nil
	}

	return s.Transaction(func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRow(`
			SELECT COALESCE(stats, '{}')
			FROM processing_sessions
			WHERE session_id = ?
		`, sessionID).Scan(&raw)
		if err != nil {
			return classify(err)
		}

		stats, err := parseStats(raw)
		if err != nil {
			return err
		}
		for k, v := range delta {
			stats[k] += v
		}

		merged, err := stats.marshal()
		if err != nil {
			return err
		}

		_, err = touchExec(tx, "processing_sessions",
			"stats = ?", "session_id = ?", merged, sessionID)
		if err != nil {
			return fmt.Errorf("failed to merge pipeline stats: %w", err)
		}

		return nil
	})
}

func scanPipeline(row rowScanner) (*PipelineState, error) {
	var p PipelineState
	var status, step, stepsRaw, statsRaw string
	err := row.Scan(&p.ID, &p.SessionID, &status, &step, &stepsRaw, &statsRaw,
		&p.ErrorLog, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}

	p.Status = Status(status)
	p.CurrentStep = Step(step)
	p.StepsCompleted, err = parseSteps(stepsRaw)
	if err != nil {
		return nil, err
	}
	p.Stats, err = parseStats(statsRaw)
	if err != nil {
		return nil, err
	}

	return &p, nil
}
