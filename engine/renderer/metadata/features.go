package metadata

/** @brief Abstract feature bits reported by a GPU context after init. */
type Features uint64

const (
	FeatureCompute Features = 1 << iota
	FeatureInstancedDraw
	FeatureColorResolve
	FeatureShaderTextureLOD
	FeatureSoftware
	FeatureTexture3D
	FeatureTextureCubeMap
	FeatureTextureNPOT
	FeatureUintUniforms
	FeatureUniformBuffer
	FeatureStorageBuffer
	FeatureDepthStencilResolve
	FeatureTextureFloatRenderable
	FeatureTextureHalfFloatRenderable
)

// All reports whether every bit of mask is present.
func (f Features) All(mask Features) bool {
	return f&mask == mask
}

// Any reports whether at least one bit of mask is present.
func (f Features) Any(mask Features) bool {
	return f&mask != 0
}

/** @brief Numeric device limits reported by a GPU context after init. */
type Limits struct {
	MaxColorAttachments            int32
	MaxComputeWorkGroupCount       [3]int32
	MaxComputeWorkGroupInvocations int32
	MaxComputeWorkGroupSize        [3]int32
	MaxComputeSharedMemorySize     int32
	MaxDrawBuffers                 int32
	MaxSamples                     int32
	MaxTextureDimension1D          int32
	MaxTextureDimension2D          int32
	MaxTextureDimension3D          int32
	MaxTextureDimensionCube        int32
}
