// Package capture provides the data model for recorded frame captures.
//
// A capture is a forest of events. Each event carries an action class
// (draw, dispatch, marker, ...) and, for manifest-backed captures, the shader
// bound at each pipeline stage when the event executed.
//
// This package imports nothing internal. It owns three pure transforms:
//   - Flatten / Walk: depth-first pre-order over the event forest
//   - Selected: the per-event selection predicate (action class + range)
//   - Load: manifest decoding from YAML or CUE
//
// ShaderID ordering (Compare) and Stage ordering (AllStages) are the only
// orderings used for report output. Map iteration order is never relied on.
package capture
