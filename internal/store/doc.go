// Package store provides the SQLite index database written next to the
// exported shaders.
//
// The database mirrors the call table in queryable form:
//   - runs: the extract run that produced the rows (one per database)
//   - shaders: one row per (shader, stage) record, with its report position
//   - shader_events: the events that used each record
//
// Every extract run calls Reset before writing, so the database never
// carries state from an earlier run.
//
// # Deterministic Query Results
//
// Queries order by report_pos ASC, event_id ASC, which reproduces the call
// table order exactly.
//
// # Database Configuration
//
//   - WAL mode
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON (required for cascading Reset)
package store
