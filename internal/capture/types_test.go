package capture

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage_StringRoundTrip(t *testing.T) {
	for _, st := range AllStages() {
		parsed, err := ParseStage(st.String())
		require.NoError(t, err)
		assert.Equal(t, st, parsed)
	}

	st, err := ParseStage("pixel")
	require.NoError(t, err)
	assert.Equal(t, Pixel, st)

	_, err = ParseStage("Fragment")
	assert.Error(t, err)
}

func TestAllStages_CanonicalOrder(t *testing.T) {
	names := make([]string, 0)
	for _, st := range AllStages() {
		names = append(names, st.String())
	}
	assert.Equal(t, []string{
		"Vertex", "Hull", "Domain", "Geometry", "Pixel", "Compute",
		"Task", "Mesh", "RayGen", "AnyHit", "ClosestHit",
		"Miss", "Intersection", "Callable",
	}, names)
}

func TestSortStages(t *testing.T) {
	got := SortStages([]Stage{Compute, Vertex, Pixel, Vertex})
	assert.Equal(t, []Stage{Vertex, Pixel, Compute}, got)
}

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags([]string{"draw", "Indexed"})
	require.NoError(t, err)
	assert.Equal(t, Drawcall|Indexed, f)
	assert.True(t, f.Has(SelectMask))
	assert.Equal(t, "drawcall|indexed", f.String())

	f, err = ParseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, "none", f.String())

	_, err = ParseFlags([]string{"teleport"})
	assert.ErrorContains(t, err, "teleport")
}

func TestAPI(t *testing.T) {
	assert.Equal(t, "dxbc", D3D11.Ext())
	assert.Equal(t, "spv", Vulkan.Ext())
	assert.Equal(t, "bin", API("Metal").Ext())

	assert.NotContains(t, D3D11.Stages(), Mesh)
	assert.Contains(t, D3D12.Stages(), RayGen)
	assert.Nil(t, API("Metal").Stages())

	api, err := ParseAPI("vulkan")
	require.NoError(t, err)
	assert.Equal(t, Vulkan, api)
}

func TestCapture_SupportedStagesOverride(t *testing.T) {
	c := &Capture{API: Vulkan, Stages: []Stage{Pixel, Vertex}}
	assert.Equal(t, []Stage{Vertex, Pixel}, c.SupportedStages())

	c.Stages = nil
	assert.Len(t, c.SupportedStages(), len(AllStages()))
}

func TestParseShaderID(t *testing.T) {
	assert.Equal(t, ShaderID("123"), ParseShaderID("ResourceId::123"))
	assert.Equal(t, ShaderID("123"), ParseShaderID("<123>"))
	assert.Equal(t, ShaderID("abc"), ParseShaderID(" abc "))
	assert.True(t, ParseShaderID("").IsNull())
}

func TestShaderID_Compare(t *testing.T) {
	// Numeric ids sort by value, others bytewise; the order is total.
	in := []ShaderID{"100", "B", "99", "A", "007", "7", "a10"}
	sort.Slice(in, func(i, j int) bool { return in[i].Compare(in[j]) < 0 })

	assert.Equal(t, []ShaderID{"007", "7", "99", "100", "A", "B", "a10"}, in)
	assert.Equal(t, 0, ShaderID("5").Compare("5"))
	assert.Equal(t, -1, ShaderID("A").Compare("B"))
}
