package capture

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// manifest is the on-disk capture description shared by the YAML and CUE
// decoders. CUE decodes through the json tags.
type manifest struct {
	Name    string                    `yaml:"name,omitempty" json:"name,omitempty"`
	API     string                    `yaml:"api,omitempty" json:"api,omitempty"`
	Stages  []string                  `yaml:"stages,omitempty" json:"stages,omitempty"`
	Shaders map[string]manifestShader `yaml:"shaders,omitempty" json:"shaders,omitempty"`
	Events  []manifestEvent           `yaml:"events" json:"events"`
}

type manifestShader struct {
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
	Base64 string `yaml:"base64,omitempty" json:"base64,omitempty"`
	Hex    string `yaml:"hex,omitempty" json:"hex,omitempty"`
}

type manifestEvent struct {
	ID       uint32            `yaml:"id" json:"id"`
	Name     string            `yaml:"name,omitempty" json:"name,omitempty"`
	Flags    []string          `yaml:"flags,omitempty" json:"flags,omitempty"`
	Bindings map[string]string `yaml:"bindings,omitempty" json:"bindings,omitempty"`
	Children []manifestEvent   `yaml:"children,omitempty" json:"children,omitempty"`
}

// Load reads a capture manifest from path.
// The decoder is chosen by extension: .yaml/.yml or .cue.
func Load(path string) (*Capture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture: %w", err)
	}

	var m manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, &m)
	case ".cue":
		err = decodeCUE(path, data, &m)
	default:
		return nil, fmt.Errorf("unsupported capture format %q (want .yaml, .yml or .cue)", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	c, err := m.build()
	if err != nil {
		return nil, fmt.Errorf("invalid capture %s: %w", path, err)
	}
	c.Path = path
	if c.Name == "" {
		c.Name = filepath.Base(path)
	}
	return c, nil
}

// Parse decodes a YAML manifest held in memory. The capture has no path, so
// file-backed shader payloads resolve relative to the working directory.
func Parse(data []byte) (*Capture, error) {
	var m manifest
	if err := decodeYAML(data, &m); err != nil {
		return nil, err
	}
	c, err := m.build()
	if err != nil {
		return nil, fmt.Errorf("invalid capture: %w", err)
	}
	return c, nil
}

func decodeYAML(data []byte, m *manifest) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(m); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func decodeCUE(path string, data []byte, m *manifest) error {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return fmt.Errorf("building CUE value: %w", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validating CUE value: %w", err)
	}
	if err := value.Decode(m); err != nil {
		return fmt.Errorf("decoding CUE value: %w", err)
	}
	return nil
}

// build converts the decoded manifest into a Capture and validates it.
// The event tree is converted with an explicit work list.
func (m *manifest) build() (*Capture, error) {
	c := &Capture{
		Name:    m.Name,
		API:     D3D11,
		Shaders: make(map[ShaderID]ShaderSource, len(m.Shaders)),
	}

	if m.API != "" {
		api, err := ParseAPI(m.API)
		if err != nil {
			return nil, err
		}
		c.API = api
	}

	for _, name := range m.Stages {
		st, err := ParseStage(name)
		if err != nil {
			return nil, fmt.Errorf("stages: %w", err)
		}
		c.Stages = append(c.Stages, st)
	}

	for _, key := range slices.Sorted(maps.Keys(m.Shaders)) {
		src := m.Shaders[key]
		id := ParseShaderID(key)
		if id.IsNull() {
			return nil, fmt.Errorf("shaders: empty shader id %q", key)
		}
		if hasControl(string(id)) {
			return nil, fmt.Errorf("shaders: shader id %q contains control characters", key)
		}
		if _, dup := c.Shaders[id]; dup {
			return nil, fmt.Errorf("shaders: duplicate shader id %q", id)
		}
		set := 0
		for _, v := range []string{src.File, src.Base64, src.Hex} {
			if v != "" {
				set++
			}
		}
		if set != 1 {
			return nil, fmt.Errorf("shaders[%s]: exactly one of file, base64, hex is required", id)
		}
		c.Shaders[id] = ShaderSource{File: src.File, Base64: src.Base64, Hex: src.Hex}
	}

	if len(m.Events) == 0 {
		return nil, fmt.Errorf("events list is required and must be non-empty")
	}

	type item struct {
		src  *manifestEvent
		dst  *Event
		path string
	}
	seen := make(map[EventID]bool)
	var work []item

	c.Roots = make([]*Event, len(m.Events))
	for i := range m.Events {
		c.Roots[i] = &Event{}
		work = append(work, item{&m.Events[i], c.Roots[i], fmt.Sprintf("events[%d]", i)})
	}

	for len(work) > 0 {
		it := work[len(work)-1]
		work = work[:len(work)-1]

		id := EventID(it.src.ID)
		if seen[id] {
			return nil, fmt.Errorf("%s: duplicate event id %d", it.path, id)
		}
		seen[id] = true

		flags, err := ParseFlags(it.src.Flags)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", it.path, err)
		}
		it.dst.ID = id
		it.dst.Name = it.src.Name
		it.dst.Flags = flags

		if len(it.src.Bindings) > 0 {
			it.dst.Bindings = make(map[Stage]ShaderID, len(it.src.Bindings))
			for _, stageName := range slices.Sorted(maps.Keys(it.src.Bindings)) {
				raw := it.src.Bindings[stageName]
				st, err := ParseStage(stageName)
				if err != nil {
					return nil, fmt.Errorf("%s.bindings: %w", it.path, err)
				}
				sid := ParseShaderID(raw)
				if sid.IsNull() {
					continue
				}
				if _, ok := c.Shaders[sid]; !ok {
					return nil, fmt.Errorf("%s.bindings.%s: undeclared shader %q", it.path, st, sid)
				}
				it.dst.Bindings[st] = sid
			}
		}

		it.dst.Children = make([]*Event, len(it.src.Children))
		for i := range it.src.Children {
			it.dst.Children[i] = &Event{}
			work = append(work, item{&it.src.Children[i], it.dst.Children[i], fmt.Sprintf("%s.children[%d]", it.path, i)})
		}
	}

	return c, nil
}

// hasControl reports whether s contains a byte below 0x20 or DEL.
func hasControl(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] == 0x7f {
			return true
		}
	}
	return false
}

// Payload returns the raw bytecode of a declared shader.
// File paths are resolved relative to the manifest's directory.
func (c *Capture) Payload(id ShaderID) ([]byte, error) {
	src, ok := c.Shaders[id]
	if !ok {
		return nil, fmt.Errorf("shader %s not declared in capture", id)
	}

	switch {
	case src.File != "":
		p := src.File
		if !filepath.IsAbs(p) && c.Path != "" {
			p = filepath.Join(filepath.Dir(c.Path), p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("shader %s: %w", id, err)
		}
		return data, nil
	case src.Base64 != "":
		data, err := base64.StdEncoding.DecodeString(src.Base64)
		if err != nil {
			return nil, fmt.Errorf("shader %s: invalid base64 payload: %w", id, err)
		}
		return data, nil
	default:
		data, err := hex.DecodeString(strings.Join(strings.Fields(src.Hex), ""))
		if err != nil {
			return nil, fmt.Errorf("shader %s: invalid hex payload: %w", id, err)
		}
		return data, nil
	}
}
