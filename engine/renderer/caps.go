package renderer

import (
	"github.com/spaghettifunk/vega/engine/renderer/metadata"
)

func boolCap(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// featureCapMap resolves boolean capabilities from the abstract feature
// bits. A capability is present only if ALL bits of its mask are present.
// The block capability is the single exception: it is resolved with ANY
// semantics over uniform/storage buffer support, see LoadCaps.
var featureCapMap = []struct {
	cap  metadata.CapID
	mask metadata.Features
}{
	{metadata.CapCompute, metadata.FeatureCompute},
	{metadata.CapDepthStencilResolve, metadata.FeatureDepthStencilResolve},
	{metadata.CapInstancedDraw, metadata.FeatureInstancedDraw},
	{metadata.CapNPOTTexture, metadata.FeatureTextureNPOT},
	{metadata.CapShaderTextureLOD, metadata.FeatureShaderTextureLOD},
	{metadata.CapTexture3D, metadata.FeatureTexture3D},
	{metadata.CapTextureCube, metadata.FeatureTextureCubeMap},
	{metadata.CapUintUniforms, metadata.FeatureUintUniforms},
}

// LoadCaps maps a context's feature bits and limits to the externally
// reported capability list. The result is deterministic for identical
// inputs, in stable order.
func LoadCaps(features metadata.Features, limits *metadata.Limits) []metadata.Cap {
	lookup := make(map[metadata.CapID]int32, len(featureCapMap))
	for _, m := range featureCapMap {
		lookup[m.cap] = boolCap(features.All(m.mask))
	}
	hasBlock := features.Any(metadata.FeatureUniformBuffer | metadata.FeatureStorageBuffer)

	cap := func(id metadata.CapID, value int32) metadata.Cap {
		return metadata.Cap{ID: id, StringID: id.StringID(), Value: value}
	}
	return []metadata.Cap{
		cap(metadata.CapBlock, boolCap(hasBlock)),
		cap(metadata.CapCompute, lookup[metadata.CapCompute]),
		cap(metadata.CapDepthStencilResolve, lookup[metadata.CapDepthStencilResolve]),
		cap(metadata.CapInstancedDraw, lookup[metadata.CapInstancedDraw]),
		cap(metadata.CapMaxColorAttachments, limits.MaxColorAttachments),
		cap(metadata.CapMaxComputeGroupCountX, limits.MaxComputeWorkGroupCount[0]),
		cap(metadata.CapMaxComputeGroupCountY, limits.MaxComputeWorkGroupCount[1]),
		cap(metadata.CapMaxComputeGroupCountZ, limits.MaxComputeWorkGroupCount[2]),
		cap(metadata.CapMaxComputeGroupInvocations, limits.MaxComputeWorkGroupInvocations),
		cap(metadata.CapMaxComputeGroupSizeX, limits.MaxComputeWorkGroupSize[0]),
		cap(metadata.CapMaxComputeGroupSizeY, limits.MaxComputeWorkGroupSize[1]),
		cap(metadata.CapMaxComputeGroupSizeZ, limits.MaxComputeWorkGroupSize[2]),
		cap(metadata.CapMaxComputeSharedMemorySize, limits.MaxComputeSharedMemorySize),
		cap(metadata.CapMaxSamples, limits.MaxSamples),
		cap(metadata.CapMaxTextureDimension1D, limits.MaxTextureDimension1D),
		cap(metadata.CapMaxTextureDimension2D, limits.MaxTextureDimension2D),
		cap(metadata.CapMaxTextureDimension3D, limits.MaxTextureDimension3D),
		cap(metadata.CapMaxTextureDimensionCube, limits.MaxTextureDimensionCube),
		cap(metadata.CapNPOTTexture, lookup[metadata.CapNPOTTexture]),
		cap(metadata.CapShaderTextureLOD, lookup[metadata.CapShaderTextureLOD]),
		cap(metadata.CapTexture3D, lookup[metadata.CapTexture3D]),
		cap(metadata.CapTextureCube, lookup[metadata.CapTextureCube]),
		cap(metadata.CapUintUniforms, lookup[metadata.CapUintUniforms]),
	}
}
