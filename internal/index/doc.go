// Package index implements the shader dedup index and its reports.
//
// The index maps shader identity to a usage record and is the single owner of
// the "export each shader's bytecode once" decision.
//
// # Lifecycle
//
// An Index starts Accumulating. Observe is called for every (event, stage)
// binding in flattened event order; the first observation of a key creates
// its record and triggers the export, later ones only add the event.
// Finalize moves the index to Finalized and returns the records in report
// order. There is no transition back; mutations after Finalize fail with
// ErrFinalized.
//
// # Determinism
//
//   - Records sort by capture.ShaderID.Compare, then by stage order
//   - Events within a record sort ascending and are unique
//   - File names depend only on identity, stage and extension
//
// Map iteration order never reaches the output.
package index
