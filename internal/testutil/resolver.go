// Package testutil provides test doubles shared across packages.
package testutil

import (
	"context"
	"fmt"

	"github.com/roach88/shaderidx/internal/capture"
	"github.com/roach88/shaderidx/internal/resolver"
)

// ScriptedResolver answers binding queries from fixed tables and records
// every call, so tests can assert on the exact session sequence.
//
// It enforces the same single-cursor contract as the real replay: Begin
// while a session is open fails with resolver.ErrSessionBusy and counts as
// an overlap.
type ScriptedResolver struct {
	Backend  capture.API
	Stages   []capture.Stage
	Bindings map[capture.EventID]map[capture.Stage]capture.ShaderID
	Payloads map[capture.ShaderID][]byte

	// FailBegin makes Begin fail for the listed events.
	FailBegin map[capture.EventID]error
	// FailBytecode makes Bytecode fail for the listed shaders.
	FailBytecode map[capture.ShaderID]error

	// Calls is the ordered call log, e.g. "begin 5", "shader 5 Pixel",
	// "bytecode 5 Pixel", "close 5".
	Calls []string
	// BytecodeCalls counts payload fetches per shader.
	BytecodeCalls map[capture.ShaderID]int
	// Overlaps counts Begin calls made while a session was open.
	Overlaps int

	open *scriptedSession
}

// NewScriptedResolver creates an empty D3D11 resolver.
func NewScriptedResolver() *ScriptedResolver {
	return &ScriptedResolver{
		Backend:       capture.D3D11,
		Stages:        capture.D3D11.Stages(),
		Bindings:      make(map[capture.EventID]map[capture.Stage]capture.ShaderID),
		Payloads:      make(map[capture.ShaderID][]byte),
		BytecodeCalls: make(map[capture.ShaderID]int),
	}
}

// Bind records that ev has id bound at stage. Returns the resolver for chaining.
func (r *ScriptedResolver) Bind(ev capture.EventID, stage capture.Stage, id capture.ShaderID) *ScriptedResolver {
	if r.Bindings[ev] == nil {
		r.Bindings[ev] = make(map[capture.Stage]capture.ShaderID)
	}
	r.Bindings[ev][stage] = id
	if _, ok := r.Payloads[id]; !ok {
		r.Payloads[id] = []byte("bytecode:" + string(id))
	}
	return r
}

func (r *ScriptedResolver) API() capture.API {
	return r.Backend
}

func (r *ScriptedResolver) SupportedStages() []capture.Stage {
	r.Calls = append(r.Calls, "stages")
	return append([]capture.Stage(nil), r.Stages...)
}

func (r *ScriptedResolver) Begin(ctx context.Context, ev capture.EventID) (resolver.Session, error) {
	r.Calls = append(r.Calls, fmt.Sprintf("begin %d", ev))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.open != nil {
		r.Overlaps++
		return nil, resolver.ErrSessionBusy
	}
	if err := r.FailBegin[ev]; err != nil {
		return nil, &resolver.UnavailableError{Event: ev, Reason: "scripted failure", Err: err}
	}
	s := &scriptedSession{r: r, ev: ev}
	r.open = s
	return s, nil
}

// Open reports whether a session is currently open.
func (r *ScriptedResolver) Open() bool {
	return r.open != nil
}

type scriptedSession struct {
	r      *ScriptedResolver
	ev     capture.EventID
	closed bool
}

func (s *scriptedSession) Event() capture.EventID {
	return s.ev
}

func (s *scriptedSession) Shader(stage capture.Stage) (capture.ShaderID, error) {
	if s.closed {
		return capture.NullShader, resolver.ErrSessionClosed
	}
	s.r.Calls = append(s.r.Calls, fmt.Sprintf("shader %d %s", s.ev, stage))
	return s.r.Bindings[s.ev][stage], nil
}

func (s *scriptedSession) Bytecode(stage capture.Stage) ([]byte, error) {
	if s.closed {
		return nil, resolver.ErrSessionClosed
	}
	s.r.Calls = append(s.r.Calls, fmt.Sprintf("bytecode %d %s", s.ev, stage))
	id := s.r.Bindings[s.ev][stage]
	s.r.BytecodeCalls[id]++
	if err := s.r.FailBytecode[id]; err != nil {
		return nil, err
	}
	data, ok := s.r.Payloads[id]
	if !ok {
		return nil, fmt.Errorf("no payload scripted for shader %s", id)
	}
	return data, nil
}

func (s *scriptedSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.r.Calls = append(s.r.Calls, fmt.Sprintf("close %d", s.ev))
	if s.r.open == s {
		s.r.open = nil
	}
	return nil
}
