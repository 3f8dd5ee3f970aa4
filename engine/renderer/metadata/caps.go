package metadata

/** @brief Identifier of one externally reported capability. */
type CapID int

const (
	CapBlock CapID = iota
	CapCompute
	CapDepthStencilResolve
	CapInstancedDraw
	CapMaxColorAttachments
	CapMaxComputeGroupCountX
	CapMaxComputeGroupCountY
	CapMaxComputeGroupCountZ
	CapMaxComputeGroupInvocations
	CapMaxComputeGroupSizeX
	CapMaxComputeGroupSizeY
	CapMaxComputeGroupSizeZ
	CapMaxComputeSharedMemorySize
	CapMaxSamples
	CapMaxTextureDimension1D
	CapMaxTextureDimension2D
	CapMaxTextureDimension3D
	CapMaxTextureDimensionCube
	CapNPOTTexture
	CapShaderTextureLOD
	CapTexture3D
	CapTextureCube
	CapUintUniforms
)

// StringID returns the unique stable identifier used for external
// reporting. Unknown values are a programming error.
func (c CapID) StringID() string {
	switch c {
	case CapBlock:
		return "block"
	case CapCompute:
		return "compute"
	case CapDepthStencilResolve:
		return "depth_stencil_resolve"
	case CapInstancedDraw:
		return "instanced_draw"
	case CapMaxColorAttachments:
		return "max_color_attachments"
	case CapMaxComputeGroupCountX:
		return "max_compute_group_count_x"
	case CapMaxComputeGroupCountY:
		return "max_compute_group_count_y"
	case CapMaxComputeGroupCountZ:
		return "max_compute_group_count_z"
	case CapMaxComputeGroupInvocations:
		return "max_compute_group_invocations"
	case CapMaxComputeGroupSizeX:
		return "max_compute_group_size_x"
	case CapMaxComputeGroupSizeY:
		return "max_compute_group_size_y"
	case CapMaxComputeGroupSizeZ:
		return "max_compute_group_size_z"
	case CapMaxComputeSharedMemorySize:
		return "max_compute_shared_memory_size"
	case CapMaxSamples:
		return "max_samples"
	case CapMaxTextureDimension1D:
		return "max_texture_dimensions_1d"
	case CapMaxTextureDimension2D:
		return "max_texture_dimensions_2d"
	case CapMaxTextureDimension3D:
		return "max_texture_dimensions_3d"
	case CapMaxTextureDimensionCube:
		return "max_texture_dimensions_cube"
	case CapNPOTTexture:
		return "npot_texture"
	case CapShaderTextureLOD:
		return "shader_texture_lod"
	case CapTexture3D:
		return "texture_3d"
	case CapTextureCube:
		return "texture_cube"
	case CapUintUniforms:
		return "uint_uniforms"
	}
	panic("unknown capability")
}

/** @brief One reported capability with its resolved value. */
type Cap struct {
	ID       CapID
	StringID string
	Value    int32
}
