package metadata

/** @brief Maximum number of color attachments a rendertarget can carry. */
const MaxColorAttachments = 8

/** @brief What happens to an attachment's contents when a pass begins. */
type LoadOp uint8

const (
	LoadOpDontCare LoadOp = iota
	LoadOpClear
	LoadOpLoad
)

/** @brief What happens to an attachment's contents when a pass ends. */
type StoreOp uint8

const (
	StoreOpDontCare StoreOp = iota
	StoreOpStore
)

/**
 * @brief One texture bound into a rendertarget with its load/store policy.
 * The attachment references the texture without owning it; the optional
 * resolve target receives the multisample resolve at end of pass.
 */
type Attachment struct {
	Attachment         *Texture
	AttachmentLayer    int
	ResolveTarget      *Texture
	ResolveTargetLayer int
	LoadOp             LoadOp
	StoreOp            StoreOp
	ClearValue         [4]float32
}

/** @brief Creation parameters of a rendertarget. */
type RendertargetParams struct {
	Width        uint32
	Height       uint32
	Colors       []Attachment
	DepthStencil Attachment
}

/** @brief Format description of one rendertarget attachment slot. */
type AttachmentDesc struct {
	Format  Format
	Resolve bool
}

/** @brief Compact description of a rendertarget's attachment layout. */
type RendertargetDesc struct {
	Samples      int32
	Colors       []AttachmentDesc
	DepthStencil AttachmentDesc
}
