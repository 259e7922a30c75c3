package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/shaderidx/internal/capture"
	"github.com/roach88/shaderidx/internal/index"
)

// ErrNoRun is returned when the database holds no run.
var ErrNoRun = errors.New("store: no extract run recorded")

// LatestRun returns the run stored in the database.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	var (
		run     Run
		api     string
		enabled bool
		start   int64
		end     int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source, api, range_enabled, range_start, range_end, selected_events, shader_count
		FROM runs
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&run.ID, &run.Source, &api, &enabled, &start, &end, &run.SelectedEvents, &run.ShaderCount)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRun
	}
	if err != nil {
		return Run{}, fmt.Errorf("query run: %w", err)
	}
	run.API = capture.API(api)
	run.Range = capture.Range{Enabled: enabled, Start: capture.EventID(start), End: capture.EventID(end)}
	return run, nil
}

// ListShaders returns every record in report order.
// Returns an empty slice (not nil) if no records exist.
func (s *Store) ListShaders(ctx context.Context) ([]index.Record, error) {
	return s.queryRecords(ctx, `
		SELECT s.shader_id, s.stage, s.file, e.event_id
		FROM shaders s
		JOIN shader_events e
		  ON e.run_id = s.run_id AND e.shader_id = s.shader_id AND e.stage = s.stage
		ORDER BY s.report_pos ASC, e.event_id ASC
	`)
}

// EventsForShader returns the records of one identity, one per stage it
// was bound at, with their events ascending.
func (s *Store) EventsForShader(ctx context.Context, id capture.ShaderID) ([]index.Record, error) {
	return s.queryRecords(ctx, `
		SELECT s.shader_id, s.stage, s.file, e.event_id
		FROM shaders s
		JOIN shader_events e
		  ON e.run_id = s.run_id AND e.shader_id = s.shader_id AND e.stage = s.stage
		WHERE s.shader_id = ?
		ORDER BY s.report_pos ASC, e.event_id ASC
	`, string(id))
}

// ShadersForEvent returns the records bound by one event, in report order.
// Each record's Events holds only that event.
func (s *Store) ShadersForEvent(ctx context.Context, ev capture.EventID) ([]index.Record, error) {
	return s.queryRecords(ctx, `
		SELECT s.shader_id, s.stage, s.file, e.event_id
		FROM shader_events e
		JOIN shaders s
		  ON e.run_id = s.run_id AND e.shader_id = s.shader_id AND e.stage = s.stage
		WHERE e.event_id = ?
		ORDER BY s.report_pos ASC
	`, int64(ev))
}

// queryRecords groups (shader, stage, file, event) rows into records.
// Rows must arrive grouped by record.
func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]index.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query shaders: %w", err)
	}
	defer rows.Close()

	records := []index.Record{}
	for rows.Next() {
		var (
			id, stageName, file string
			ev                  int64
		)
		if err := rows.Scan(&id, &stageName, &file, &ev); err != nil {
			return nil, fmt.Errorf("scan shader: %w", err)
		}
		stage, err := capture.ParseStage(stageName)
		if err != nil {
			return nil, fmt.Errorf("scan shader %s: %w", id, err)
		}

		n := len(records)
		if n == 0 || records[n-1].ID != capture.ShaderID(id) || records[n-1].Stage != stage {
			records = append(records, index.Record{ID: capture.ShaderID(id), Stage: stage, File: file})
			n++
		}
		records[n-1].Events = append(records[n-1].Events, capture.EventID(ev))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shaders: %w", err)
	}
	return records, nil
}
