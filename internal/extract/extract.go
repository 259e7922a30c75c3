// Package extract runs one shader extraction over a capture.
//
// A run flattens the event forest, keeps the draw/dispatch events in range,
// and walks them strictly in order: open a resolver session for the event,
// query every supported stage, close the session, move on. The dedup index
// exports each new shader as it is first seen. Once every event has been
// processed the index is finalized and the call table is written.
//
// Any failure aborts the run with an *Error. Missing input is detected
// before anything is written.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cheggaaa/pb"

	"github.com/roach88/shaderidx/internal/capture"
	"github.com/roach88/shaderidx/internal/export"
	"github.com/roach88/shaderidx/internal/index"
	"github.com/roach88/shaderidx/internal/resolver"
	"github.com/roach88/shaderidx/internal/store"
)

// IndexDBName is the default file name of the SQLite index database.
const IndexDBName = "index.db"

// Config controls one run.
type Config struct {
	// CapturePath is the capture manifest to read.
	CapturePath string

	// OutDir overrides the derived output directory.
	OutDir string

	Range capture.Range

	// Ext overrides the payload file extension. Defaults to the API's.
	Ext string

	StageConflict index.StageConflict

	// JSONReport also writes call_table.json.
	JSONReport bool

	// IndexDB, when set, is rebuilt with the run's records. A relative
	// path is resolved inside the output directory.
	IndexDB string

	// Progress, when set, receives a progress bar over selected events.
	Progress io.Writer
}

// Source is what a run reads from: the event forest and the resolver that
// answers binding queries for it.
type Source struct {
	Name     string
	Roots    []*capture.Event
	Resolver resolver.Resolver
}

// Result summarizes a completed run.
type Result struct {
	Source   string
	API      capture.API
	OutDir   string
	Stages   []capture.Stage
	Events   int
	Selected int
	Records  []index.Record
	Files    []string
	Bytes    int64

	ReportPath     string
	JSONReportPath string
	IndexDBPath    string
	RunID          string
}

// OutputDir derives the output directory for a capture:
// "<capture dir>/<name with '.' replaced by '_'>[_<start>-<end>]_binary".
func OutputDir(capturePath, name string, r capture.Range) string {
	base := strings.ReplaceAll(filepath.Base(name), ".", "_")
	if r.Enabled {
		base += fmt.Sprintf("_%d-%d", r.Start, r.End)
	}
	return filepath.Join(filepath.Dir(capturePath), base+"_binary")
}

// LoadInput loads the capture at path. Every failure is a KindMissingInput
// or KindInvalidInput error and happens before any output is written.
func LoadInput(path string) (*capture.Capture, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &Error{Kind: KindMissingInput, Err: errors.New("no capture file specified")}
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, &Error{Kind: KindMissingInput, Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &Error{Kind: KindMissingInput, Path: path, Err: errors.New("capture path is a directory")}
	}

	c, err := capture.Load(path)
	if err != nil {
		return nil, &Error{Kind: KindInvalidInput, Path: path, Err: err}
	}
	return c, nil
}

// Run loads the capture named by cfg and extracts it through the manifest
// replay.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	c, err := LoadInput(cfg.CapturePath)
	if err != nil {
		return nil, err
	}
	if cfg.OutDir == "" {
		cfg.OutDir = OutputDir(cfg.CapturePath, c.Name, cfg.Range)
	}
	return Extract(ctx, Source{Name: c.Name, Roots: c.Roots, Resolver: resolver.NewReplay(c)}, cfg)
}

// Extract performs the run against an arbitrary resolver.
// cfg.OutDir must be set.
func Extract(ctx context.Context, src Source, cfg Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.OutDir == "" {
		return nil, &Error{Kind: KindInvalidInput, Err: errors.New("no output directory")}
	}

	api := src.Resolver.API()
	stages := src.Resolver.SupportedStages()
	ext := cfg.Ext
	if ext == "" {
		ext = api.Ext()
	}

	selected := capture.Select(src.Roots, cfg.Range)
	res := &Result{
		Source:   src.Name,
		API:      api,
		OutDir:   cfg.OutDir,
		Stages:   stages,
		Events:   capture.Count(src.Roots),
		Selected: len(selected),
	}

	exp, err := export.NewDir(cfg.OutDir)
	if err != nil {
		return nil, &Error{Kind: KindExportFailure, Path: cfg.OutDir, Err: err}
	}
	// Reports from an earlier run must not outlive a failed one.
	for _, name := range []string{index.ReportName, index.JSONReportName} {
		if err := exp.Remove(name); err != nil {
			return nil, &Error{Kind: KindReportWrite, Path: filepath.Join(cfg.OutDir, name), Err: err}
		}
	}
	idx := index.New(exp, index.Options{Ext: ext, StageConflict: cfg.StageConflict})

	slog.Info("mapping unique shaders",
		"source", src.Name,
		"api", api,
		"range", cfg.Range.String(),
		"events", res.Events,
		"selected", res.Selected,
		"stages", len(stages),
	)

	var bar *pb.ProgressBar
	if cfg.Progress != nil && len(selected) > 0 {
		bar = pb.New(len(selected))
		bar.Output = cfg.Progress
		bar.ManualUpdate = true
		bar.ShowTimeLeft = false
		bar.Start()
	}

	err = func() error {
		if bar != nil {
			defer bar.Finish()
		}
		for _, ev := range selected {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := processEvent(ctx, src.Resolver, stages, idx, ev.ID); err != nil {
				return err
			}
			if bar != nil {
				bar.Increment()
				bar.Update()
			}
		}
		return nil
	}()
	if err != nil {
		return nil, err
	}

	res.Records = idx.Finalize()
	res.Files = exp.Written()
	res.Bytes = exp.Bytes()

	slog.Info("writing call table", "shaders", len(res.Records), "files", len(res.Files))

	var buf bytes.Buffer
	if err := index.WriteReport(&buf, src.Name, res.Records); err != nil {
		return nil, &Error{Kind: KindReportWrite, Path: index.ReportName, Err: err}
	}
	if err := exp.WriteFile(index.ReportName, buf.Bytes()); err != nil {
		return nil, &Error{Kind: KindReportWrite, Path: filepath.Join(cfg.OutDir, index.ReportName), Err: err}
	}
	res.ReportPath = filepath.Join(cfg.OutDir, index.ReportName)

	if cfg.JSONReport {
		data, err := index.MarshalReportJSON(src.Name, res.Records)
		if err != nil {
			return nil, &Error{Kind: KindReportWrite, Path: index.JSONReportName, Err: err}
		}
		if err := exp.WriteFile(index.JSONReportName, data); err != nil {
			return nil, &Error{Kind: KindReportWrite, Path: filepath.Join(cfg.OutDir, index.JSONReportName), Err: err}
		}
		res.JSONReportPath = filepath.Join(cfg.OutDir, index.JSONReportName)
	}

	if cfg.IndexDB != "" {
		dbPath := cfg.IndexDB
		if !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(cfg.OutDir, dbPath)
		}
		runID, err := writeIndexDB(ctx, dbPath, store.Run{
			Source:         src.Name,
			API:            api,
			Range:          cfg.Range,
			SelectedEvents: res.Selected,
		}, res.Records)
		if err != nil {
			return nil, &Error{Kind: KindIndexDB, Path: dbPath, Err: err}
		}
		res.IndexDBPath = dbPath
		res.RunID = runID
	}

	slog.Info("shaders saved", "dir", cfg.OutDir)
	return res, nil
}

// processEvent resolves every supported stage of one event inside a single
// resolver session. The session is always closed before returning.
func processEvent(ctx context.Context, r resolver.Resolver, stages []capture.Stage, idx *index.Index, ev capture.EventID) (err error) {
	s, err := r.Begin(ctx, ev)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &Error{Kind: KindResolverUnavailable, Event: ev, HasEvent: true, Err: err}
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = &Error{Kind: KindResolverUnavailable, Event: ev, HasEvent: true, Err: cerr}
		}
	}()

	for _, stage := range stages {
		id, err := s.Shader(stage)
		if err != nil {
			return &Error{Kind: KindResolverUnavailable, Event: ev, HasEvent: true, Err: fmt.Errorf("query %s: %w", stage, err)}
		}
		if id.IsNull() {
			continue
		}

		created, err := idx.Observe(ev, stage, id, func() ([]byte, error) {
			return s.Bytecode(stage)
		})
		if err != nil {
			kind := KindExportFailure
			if index.IsStageConflict(err) {
				kind = KindStageConflict
			}
			return &Error{Kind: kind, Event: ev, HasEvent: true, Shader: id, Err: err}
		}
		if created {
			slog.Debug("saved shader bytecode", "shader", id, "stage", stage, "event", ev)
		}
		slog.Debug("added event", "event", ev, "shader", id, "stage", stage)
	}
	return nil
}

func writeIndexDB(ctx context.Context, path string, run store.Run, records []index.Record) (string, error) {
	st, err := store.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing index database", "error", closeErr)
		}
	}()

	if err := st.Reset(ctx); err != nil {
		return "", err
	}
	return st.WriteRun(ctx, run, records)
}
