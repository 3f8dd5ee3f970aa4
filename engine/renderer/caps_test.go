package renderer

import (
	"testing"

	"github.com/spaghettifunk/vega/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capValue(t *testing.T, caps []metadata.Cap, id metadata.CapID) int32 {
	t.Helper()
	for _, c := range caps {
		if c.ID == id {
			return c.Value
		}
	}
	t.Fatalf("capability %q not reported", id.StringID())
	return 0
}

func TestLoadCapsDeterministic(t *testing.T) {
	features := metadata.FeatureCompute | metadata.FeatureTexture3D
	limits := &metadata.Limits{MaxColorAttachments: 4, MaxSamples: 8}

	first := LoadCaps(features, limits)
	second := LoadCaps(features, limits)

	require.Len(t, first, 23)
	assert.Equal(t, first, second)
	for i := range first {
		assert.Equal(t, first[i].StringID, first[i].ID.StringID())
	}
}

func TestLoadCapsAllFeatureBitsRequired(t *testing.T) {
	limits := &metadata.Limits{}

	// Instanced draw maps to a multi-bit mask in the GL backend; at the
	// abstract level a single missing bit must clear the capability.
	caps := LoadCaps(metadata.FeatureInstancedDraw, limits)
	assert.Equal(t, int32(1), capValue(t, caps, metadata.CapInstancedDraw))

	caps = LoadCaps(0, limits)
	assert.Equal(t, int32(0), capValue(t, caps, metadata.CapInstancedDraw))
	assert.Equal(t, int32(0), capValue(t, caps, metadata.CapCompute))
}

func TestLoadCapsBlockEitherBufferKind(t *testing.T) {
	limits := &metadata.Limits{}

	for _, features := range []metadata.Features{
		metadata.FeatureUniformBuffer,
		metadata.FeatureStorageBuffer,
		metadata.FeatureUniformBuffer | metadata.FeatureStorageBuffer,
	} {
		caps := LoadCaps(features, limits)
		assert.Equal(t, int32(1), capValue(t, caps, metadata.CapBlock))
	}

	caps := LoadCaps(0, limits)
	assert.Equal(t, int32(0), capValue(t, caps, metadata.CapBlock))
}

func TestLoadCapsLimitsPassThrough(t *testing.T) {
	limits := &metadata.Limits{
		MaxColorAttachments:      8,
		MaxComputeWorkGroupCount: [3]int32{65535, 17, 3},
		MaxSamples:               4,
		MaxTextureDimension2D:    16384,
	}
	caps := LoadCaps(0, limits)

	assert.Equal(t, int32(8), capValue(t, caps, metadata.CapMaxColorAttachments))
	assert.Equal(t, int32(65535), capValue(t, caps, metadata.CapMaxComputeGroupCountX))
	assert.Equal(t, int32(17), capValue(t, caps, metadata.CapMaxComputeGroupCountY))
	assert.Equal(t, int32(3), capValue(t, caps, metadata.CapMaxComputeGroupCountZ))
	assert.Equal(t, int32(4), capValue(t, caps, metadata.CapMaxSamples))
	assert.Equal(t, int32(16384), capValue(t, caps, metadata.CapMaxTextureDimension2D))
}
