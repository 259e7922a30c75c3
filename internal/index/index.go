package index

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/shaderidx/internal/capture"
)

// Phase is the lifecycle state of an Index.
type Phase int

const (
	Accumulating Phase = iota
	Finalized
)

func (p Phase) String() string {
	if p == Finalized {
		return "finalized"
	}
	return "accumulating"
}

// StageConflict selects what happens when one identity is observed bound
// at a second, different stage.
type StageConflict int

const (
	// StageConflictSplit keys records by (identity, stage): each pair gets
	// its own record and its own exported file.
	StageConflictSplit StageConflict = iota

	// StageConflictFail aborts with a *StageConflictError.
	StageConflictFail
)

func (c StageConflict) String() string {
	if c == StageConflictFail {
		return "fail"
	}
	return "split"
}

// ParseStageConflict parses "split" or "fail".
func ParseStageConflict(name string) (StageConflict, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "split":
		return StageConflictSplit, nil
	case "fail":
		return StageConflictFail, nil
	}
	return StageConflictSplit, fmt.Errorf("unknown stage conflict policy %q (want split or fail)", name)
}

// Exporter persists one shader payload under a file name.
type Exporter interface {
	Export(name string, data []byte) error
}

// Options configures an Index.
type Options struct {
	// Ext is the file extension of exported payloads, without the dot.
	Ext string

	StageConflict StageConflict
}

// Record is the usage of one shader identity at one stage.
type Record struct {
	ID     capture.ShaderID
	Stage  capture.Stage
	File   string
	Events []capture.EventID
}

type key struct {
	id    capture.ShaderID
	stage capture.Stage
}

type entry struct {
	id     capture.ShaderID
	stage  capture.Stage
	file   string
	events map[capture.EventID]struct{}
}

// Index accumulates shader usage over a capture.
// It is not safe for concurrent use; the traversal loop is its only writer.
type Index struct {
	exporter Exporter
	opts     Options

	phase   Phase
	entries map[key]*entry
	// firstStage remembers the stage each identity was first seen at.
	firstStage map[capture.ShaderID]capture.Stage
	final      []Record
}

// New creates an empty, accumulating index.
func New(exp Exporter, opts Options) *Index {
	if opts.Ext == "" {
		opts.Ext = capture.D3D11.Ext()
	}
	return &Index{
		exporter:   exp,
		opts:       opts,
		entries:    make(map[key]*entry),
		firstStage: make(map[capture.ShaderID]capture.Stage),
	}
}

// Phase returns the current lifecycle state.
func (x *Index) Phase() Phase {
	return x.phase
}

// Len returns the number of records.
func (x *Index) Len() int {
	return len(x.entries)
}

// Observe records that event ev had shader id bound at stage.
//
// A null id is ignored. The first observation of an (id, stage) pair calls
// payload exactly once and exports the result; if either fails, no record is
// created and an *ExportError is returned. Repeated observations of the same
// event are idempotent. Returns true if a new record was created.
func (x *Index) Observe(ev capture.EventID, stage capture.Stage, id capture.ShaderID, payload func() ([]byte, error)) (bool, error) {
	if x.phase == Finalized {
		return false, ErrFinalized
	}
	if id.IsNull() {
		return false, nil
	}

	k := key{id: id, stage: stage}
	e, ok := x.entries[k]
	created := false
	if !ok {
		if first, seen := x.firstStage[id]; seen && first != stage && x.opts.StageConflict == StageConflictFail {
			return false, &StageConflictError{ID: id, Event: ev, First: first, Second: stage}
		}

		name := FileName(id, stage, x.opts.Ext)
		data, err := payload()
		if err != nil {
			return false, &ExportError{ID: id, Stage: stage, Event: ev, File: name, Op: "read bytecode", Err: err}
		}
		if err := x.exporter.Export(name, data); err != nil {
			return false, &ExportError{ID: id, Stage: stage, Event: ev, File: name, Op: "write", Err: err}
		}

		e = &entry{id: id, stage: stage, file: name, events: make(map[capture.EventID]struct{})}
		x.entries[k] = e
		if _, seen := x.firstStage[id]; !seen {
			x.firstStage[id] = stage
		}
		created = true
	}

	e.events[ev] = struct{}{}
	return created, nil
}

// Finalize freezes the index and returns its records in report order.
// Calling it again returns the same records.
func (x *Index) Finalize() []Record {
	if x.phase == Finalized {
		return cloneRecords(x.final)
	}

	records := make([]Record, 0, len(x.entries))
	for _, e := range x.entries {
		events := make([]capture.EventID, 0, len(e.events))
		for ev := range e.events {
			events = append(events, ev)
		}
		sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })
		records = append(records, Record{ID: e.id, Stage: e.stage, File: e.file, Events: events})
	}
	SortRecords(records)

	x.final = records
	x.phase = Finalized
	return cloneRecords(records)
}

// SortRecords sorts records by identity, then stage.
func SortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if c := records[i].ID.Compare(records[j].ID); c != 0 {
			return c < 0
		}
		return records[i].Stage < records[j].Stage
	})
}

func cloneRecords(in []Record) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		r.Events = append([]capture.EventID(nil), r.Events...)
		out[i] = r
	}
	return out
}
