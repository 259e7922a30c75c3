package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shaderidx/internal/capture"
	"github.com/roach88/shaderidx/internal/resolver"
)

func TestScriptedResolver_RecordsCalls(t *testing.T) {
	r := NewScriptedResolver().Bind(5, capture.Pixel, "A")
	ctx := context.Background()

	s, err := r.Begin(ctx, 5)
	require.NoError(t, err)
	assert.True(t, r.Open())

	id, err := s.Shader(capture.Pixel)
	require.NoError(t, err)
	assert.Equal(t, capture.ShaderID("A"), id)

	data, err := s.Bytecode(capture.Pixel)
	require.NoError(t, err)
	assert.Equal(t, []byte("bytecode:A"), data)

	require.NoError(t, s.Close())
	assert.False(t, r.Open())

	assert.Equal(t, []string{"begin 5", "shader 5 Pixel", "bytecode 5 Pixel", "close 5"}, r.Calls)
	assert.Equal(t, 1, r.BytecodeCalls["A"])
}

func TestScriptedResolver_CountsOverlaps(t *testing.T) {
	r := NewScriptedResolver()
	ctx := context.Background()

	s, err := r.Begin(ctx, 1)
	require.NoError(t, err)
	_, err = r.Begin(ctx, 2)
	assert.ErrorIs(t, err, resolver.ErrSessionBusy)
	assert.Equal(t, 1, r.Overlaps)
	require.NoError(t, s.Close())
}
