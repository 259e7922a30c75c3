package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/shaderidx/internal/capture"
	"github.com/roach88/shaderidx/internal/index"
)

// Run describes one extract run.
type Run struct {
	ID             string
	Source         string
	API            capture.API
	Range          capture.Range
	SelectedEvents int
	ShaderCount    int
}

// NewRunID returns a time-ordered UUIDv7 run id.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// WriteRun stores a run and its records in a single transaction.
// run.ID is generated when empty; the id used is returned.
// Records are stored in the order given, which becomes the report order.
func (s *Store) WriteRun(ctx context.Context, run Run, records []index.Record) (string, error) {
	if run.ID == "" {
		run.ID = NewRunID()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, source, api, range_enabled, range_start, range_end, selected_events, shader_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Source,
		string(run.API),
		run.Range.Enabled,
		int64(run.Range.Start),
		int64(run.Range.End),
		run.SelectedEvents,
		len(records),
	)
	if err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}

	shaderStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO shaders (run_id, shader_id, stage, report_pos, file)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("write run: prepare shaders: %w", err)
	}
	defer shaderStmt.Close()

	eventStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO shader_events (run_id, shader_id, stage, event_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return "", fmt.Errorf("write run: prepare events: %w", err)
	}
	defer eventStmt.Close()

	for pos, rec := range records {
		if _, err := shaderStmt.ExecContext(ctx, run.ID, string(rec.ID), rec.Stage.String(), pos, rec.File); err != nil {
			return "", fmt.Errorf("write shader %s (%s): %w", rec.ID, rec.Stage, err)
		}
		for _, ev := range rec.Events {
			if _, err := eventStmt.ExecContext(ctx, run.ID, string(rec.ID), rec.Stage.String(), int64(ev)); err != nil {
				return "", fmt.Errorf("write shader %s event %d: %w", rec.ID, ev, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write run: commit: %w", err)
	}
	return run.ID, nil
}
