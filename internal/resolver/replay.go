package resolver

import (
	"context"
	"fmt"

	"github.com/roach88/shaderidx/internal/capture"
)

// Replay resolves bindings from a loaded capture manifest.
//
// Replay is not safe for concurrent use. The open-session check exists to
// catch sequencing bugs, not to arbitrate between goroutines.
type Replay struct {
	capture *capture.Capture
	stages  []capture.Stage
	support map[capture.Stage]bool
	events  map[capture.EventID]*capture.Event
	active  *replaySession
}

// NewReplay indexes the capture's events for cursor lookups.
func NewReplay(c *capture.Capture) *Replay {
	stages := c.SupportedStages()
	r := &Replay{
		capture: c,
		stages:  stages,
		support: make(map[capture.Stage]bool, len(stages)),
		events:  make(map[capture.EventID]*capture.Event),
	}
	for _, st := range stages {
		r.support[st] = true
	}
	capture.Walk(c.Roots, func(ev *capture.Event) bool {
		r.events[ev.ID] = ev
		return true
	})
	return r
}

func (r *Replay) API() capture.API {
	return r.capture.API
}

func (r *Replay) SupportedStages() []capture.Stage {
	return append([]capture.Stage(nil), r.stages...)
}

func (r *Replay) Begin(ctx context.Context, id capture.EventID) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.active != nil {
		return nil, fmt.Errorf("begin event %d (open: %d): %w", id, r.active.event.ID, ErrSessionBusy)
	}
	ev, ok := r.events[id]
	if !ok {
		return nil, &UnavailableError{Event: id, Reason: "event not present in capture"}
	}
	s := &replaySession{replay: r, event: ev}
	r.active = s
	return s, nil
}

type replaySession struct {
	replay *Replay
	event  *capture.Event
	closed bool
}

func (s *replaySession) Event() capture.EventID {
	return s.event.ID
}

func (s *replaySession) check(stage capture.Stage) error {
	if s.closed {
		return ErrSessionClosed
	}
	if !s.replay.support[stage] {
		return fmt.Errorf("event %d stage %s: %w", s.event.ID, stage, ErrUnsupportedStage)
	}
	return nil
}

func (s *replaySession) Shader(stage capture.Stage) (capture.ShaderID, error) {
	if err := s.check(stage); err != nil {
		return capture.NullShader, err
	}
	return s.event.Bindings[stage], nil
}

func (s *replaySession) Bytecode(stage capture.Stage) ([]byte, error) {
	if err := s.check(stage); err != nil {
		return nil, err
	}
	id := s.event.Bindings[stage]
	if id.IsNull() {
		return nil, fmt.Errorf("event %d stage %s: no shader bound", s.event.ID, stage)
	}
	return s.replay.capture.Payload(id)
}

func (s *replaySession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.replay.active == s {
		s.replay.active = nil
	}
	return nil
}
