package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errspkg "github.com/nilswloka/overtone/internal/errors"
)

func TestParseTreeReplySingleGroup(t *testing.T) {
	tree, err := parseTreeReply([]any{int32(0), int32(0), int32(0)})
	require.NoError(t, err)
	assert.Equal(t, int32(0), tree.ID)
	assert.Equal(t, NodeKindGroup, tree.Kind)
	assert.Empty(t, tree.Children)
}

func TestParseTreeReplyNestedGroups(t *testing.T) {
	tree, err := parseTreeReply([]any{
		int32(0),
		int32(0), int32(2),
		int32(1), int32(1),
		int32(10), int32(-1), "reverb",
		int32(2), int32(0),
	})
	require.NoError(t, err)

	require.Len(t, tree.Children, 2)
	inner := tree.Children[0]
	assert.Equal(t, int32(1), inner.ID)
	require.Len(t, inner.Children, 1)
	assert.Equal(t, NodeKindSynth, inner.Children[0].Kind)
	assert.Equal(t, "reverb", inner.Children[0].SynthDef)
	assert.Equal(t, NodeKindGroup, tree.Children[1].Kind)
}

func TestParseTreeReplyWithControls(t *testing.T) {
	tree, err := parseTreeReply([]any{
		int32(1),
		int32(0), int32(1),
		int32(10), int32(-1), "default", int32(3),
		"freq", float32(440),
		int32(1), float32(0.3),
		"out", "c7",
	})
	require.NoError(t, err)

	require.Len(t, tree.Children, 1)
	synth := tree.Children[0]
	require.Len(t, synth.Controls, 3)

	assert.Equal(t, Control{Name: "freq", Value: 440}, synth.Controls[0])
	// Unnamed controls are reported by index.
	assert.Equal(t, Control{Name: "1", Value: 0.3}, synth.Controls[1])
	// Bus-mapped controls carry the bus reference instead of a value.
	assert.Equal(t, Control{Name: "out", Bus: "c7"}, synth.Controls[2])
}

func TestParseTreeReplyErrors(t *testing.T) {
	cases := map[string][]any{
		"empty":              {},
		"missing node":       {int32(0)},
		"truncated group":    {int32(0), int32(0), int32(2), int32(1), int32(0)},
		"truncated synth":    {int32(0), int32(10), int32(-1)},
		"truncated controls": {int32(1), int32(10), int32(-1), "default", int32(2), "freq", float32(440)},
		"bad id type":        {int32(0), "zero", int32(0)},
		"bad control label":  {int32(1), int32(10), int32(-1), "default", int32(1), float32(4), float32(440)},
		"trailing junk":      {int32(0), int32(0), int32(0), int32(99)},
	}

	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseTreeReply(args)
			assert.ErrorIs(t, err, errspkg.ErrInvalidArgument)
		})
	}
}
