package capture

import (
	"fmt"
	"sort"
	"strings"
)

// EventID identifies an event within one capture.
// IDs increase monotonically in submission order.
type EventID uint32

// ActionFlags classifies what an event does.
type ActionFlags uint32

const (
	Clear ActionFlags = 1 << iota
	Drawcall
	Dispatch
	MeshDispatch
	DispatchRay
	CmdList
	SetMarker
	PushMarker
	PopMarker
	Present
	Copy
	Resolve
	Indexed
	Instanced
	Indirect
	PassBoundary
)

// SelectMask is the set of action classes whose shaders get indexed.
const SelectMask = Drawcall | Dispatch

var flagNames = []struct {
	flag  ActionFlags
	names []string
}{
	{Clear, []string{"clear"}},
	{Drawcall, []string{"draw", "drawcall"}},
	{Dispatch, []string{"dispatch"}},
	{MeshDispatch, []string{"meshdispatch", "mesh_dispatch"}},
	{DispatchRay, []string{"dispatchray", "dispatch_ray"}},
	{CmdList, []string{"cmdlist", "cmd_list"}},
	{SetMarker, []string{"setmarker", "set_marker", "marker"}},
	{PushMarker, []string{"pushmarker", "push_marker"}},
	{PopMarker, []string{"popmarker", "pop_marker"}},
	{Present, []string{"present"}},
	{Copy, []string{"copy"}},
	{Resolve, []string{"resolve"}},
	{Indexed, []string{"indexed"}},
	{Instanced, []string{"instanced"}},
	{Indirect, []string{"indirect"}},
	{PassBoundary, []string{"passboundary", "pass_boundary"}},
}

// Has reports whether any flag in mask is set.
func (f ActionFlags) Has(mask ActionFlags) bool {
	return f&mask != 0
}

// String returns the flags as a "|"-joined list of canonical names.
func (f ActionFlags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.names[0])
		}
	}
	return strings.Join(parts, "|")
}

// ParseFlags converts a list of flag names into a bitmask.
// Names are case-insensitive. Unknown names are an error.
func ParseFlags(names []string) (ActionFlags, error) {
	var out ActionFlags
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		found := false
		for _, fn := range flagNames {
			for _, n := range fn.names {
				if n == name {
					out |= fn.flag
					found = true
				}
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown action flag %q", raw)
		}
	}
	return out, nil
}

// Stage is a pipeline position at which a shader can be bound.
type Stage uint8

const (
	Vertex Stage = iota
	Hull
	Domain
	Geometry
	Pixel
	Compute
	Task
	Mesh
	RayGen
	AnyHit
	ClosestHit
	Miss
	Intersection
	Callable

	numStages
)

var stageNames = [numStages]string{
	"Vertex", "Hull", "Domain", "Geometry", "Pixel", "Compute",
	"Task", "Mesh", "RayGen", "AnyHit", "ClosestHit",
	"Miss", "Intersection", "Callable",
}

// AllStages returns every stage in canonical query order.
func AllStages() []Stage {
	out := make([]Stage, numStages)
	for i := range out {
		out[i] = Stage(i)
	}
	return out
}

func (s Stage) String() string {
	if s < numStages {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", uint8(s))
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	return s < numStages
}

// ParseStage parses a stage name case-insensitively.
func ParseStage(name string) (Stage, error) {
	for i, n := range stageNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Stage(i), nil
		}
	}
	return 0, fmt.Errorf("unknown shader stage %q", name)
}

// SortStages sorts stages into canonical order and drops duplicates.
func SortStages(stages []Stage) []Stage {
	seen := make(map[Stage]bool, len(stages))
	out := make([]Stage, 0, len(stages))
	for _, s := range stages {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Event is one recorded action in a capture.
type Event struct {
	ID       EventID
	Name     string
	Flags    ActionFlags
	Children []*Event

	// Bindings maps each stage to the shader bound when the event executed.
	// Only manifest-backed captures populate it; stages absent from the map
	// have no shader bound.
	Bindings map[Stage]ShaderID
}

// API identifies the graphics API a capture was recorded against.
type API string

const (
	D3D11  API = "D3D11"
	D3D12  API = "D3D12"
	Vulkan API = "Vulkan"
	OpenGL API = "OpenGL"
)

type apiInfo struct {
	ext    string
	stages []Stage
}

var apis = map[API]apiInfo{
	D3D11:  {ext: "dxbc", stages: []Stage{Vertex, Hull, Domain, Geometry, Pixel, Compute}},
	D3D12:  {ext: "dxil", stages: AllStages()},
	Vulkan: {ext: "spv", stages: AllStages()},
	OpenGL: {ext: "glsl", stages: []Stage{Vertex, Hull, Domain, Geometry, Pixel, Compute}},
}

// APIs returns the known APIs in name order.
func APIs() []API {
	return []API{D3D11, D3D12, OpenGL, Vulkan}
}

// ParseAPI parses an API name case-insensitively.
func ParseAPI(name string) (API, error) {
	for a := range apis {
		if strings.EqualFold(string(a), strings.TrimSpace(name)) {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown graphics API %q", name)
}

// Stages returns the stages the API exposes, in canonical order.
func (a API) Stages() []Stage {
	info, ok := apis[a]
	if !ok {
		return nil
	}
	return append([]Stage(nil), info.stages...)
}

// Ext returns the file extension used for the API's shader bytecode.
func (a API) Ext() string {
	if info, ok := apis[a]; ok {
		return info.ext
	}
	return "bin"
}

// ShaderSource locates the raw bytecode of one shader in a manifest.
// Exactly one field is set.
type ShaderSource struct {
	File   string
	Base64 string
	Hex    string
}

// Capture is a loaded capture manifest.
type Capture struct {
	// Path is the manifest location on disk. Empty for in-memory captures.
	Path string

	// Name is the source name written into the report header.
	Name string

	API API

	// Stages overrides the API's default stage set when non-empty.
	Stages []Stage

	Roots   []*Event
	Shaders map[ShaderID]ShaderSource
}

// SupportedStages returns the stage set advertised for this capture.
func (c *Capture) SupportedStages() []Stage {
	if len(c.Stages) > 0 {
		return SortStages(c.Stages)
	}
	return c.API.Stages()
}
