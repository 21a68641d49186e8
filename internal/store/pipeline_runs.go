package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/maous26/smartacus/internal/pipeline"
)

// stageRecord is the JSON-serializable shape of one StageResult, keeping
// error values (which do not round-trip through encoding/json on their
// own) as plain strings.
type stageRecord struct {
	Name        pipeline.StageName   `json:"name"`
	Status      pipeline.StageStatus `json:"status"`
	StartedAt   time.Time            `json:"started_at"`
	CompletedAt time.Time            `json:"completed_at"`
	Metrics     map[string]int       `json:"metrics"`
	Errors      []string             `json:"errors,omitempty"`
}

// SaveRunStart records a cycle's start under runID, before its stages are
// known (spec §6 "pipeline-runs ... carries per-stage summary").
func (s *Store) SaveRunStart(ctx context.Context, runID, categoryID string, startedAt time.Time) error {
	_, err := s.db.q(ctx).ExecContext(ctx, `
		INSERT INTO pipeline_runs (run_id, category_id, started_at, status, stages_json, opportunities_found)
		VALUES (?, ?, ?, 'running', '[]', 0)
		ON CONFLICT(run_id) DO NOTHING
	`, runID, categoryID, startedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// SaveRunResult records a completed cycle's final status, per-stage
// summary, and opportunity count.
func (s *Store) SaveRunResult(ctx context.Context, runID string, result pipeline.CycleResult, completedAt time.Time) error {
	records := make([]stageRecord, 0, len(result.Stages))
	for _, st := range result.Stages {
		rec := stageRecord{
			Name:        st.Name,
			Status:      st.Status,
			StartedAt:   st.StartedAt,
			CompletedAt: st.CompletedAt,
			Metrics:     st.Metrics,
		}
		for _, e := range st.Errors {
			rec.Errors = append(rec.Errors, e.Error())
		}
		records = append(records, rec)
	}
	stagesJSON, err := json.Marshal(records)
	if err != nil {
		return err
	}

	_, err = s.db.q(ctx).ExecContext(ctx, `
		UPDATE pipeline_runs SET completed_at = ?, status = ?, stages_json = ?, opportunities_found = ?
		WHERE run_id = ?
	`, completedAt.UTC().Format(time.RFC3339Nano), string(result.Status), string(stagesJSON), len(result.Opportunities), runID)
	return err
}
