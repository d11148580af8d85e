package gpu

import (
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

/**
 * @brief A compiled shader program bound to one ShaderInterface. The
 * per-draw sequence is Use, SetVariableData, BindTextureResources, the
 * draws, then UnbindTextureResources.
 */
type Program interface {
	Name() string
	// Use makes the program current with the given fixed function state.
	Use(state RenderState)
	// SetVertexFormat binds the vertex input layout derived from the
	// interface's vertex parameters.
	SetVertexFormat()
	// SetVariableData uploads every stage buffer that has a size. A stage
	// whose buffer cannot be mapped is logged and skipped for this call.
	SetVariableData()
	BindTextureResources()
	// UnbindTextureResources releases only the slots that had a texture bound
	// explicitly, fallbacks stay in place.
	UnbindTextureResources()
	Destroy()
}

/**
 * @brief A rendering backend. Implementations are selected by the platform
 * from its capability descriptor.
 */
type Device interface {
	Backend() BackendType
	ShaderLanguage() ShaderLanguage

	// CreateProgram compiles the interface's sources and creates one constant
	// buffer per non empty stage. Compile failures wrap core.ErrShaderCompile.
	CreateProgram(desc ProgramDescriptor) (Program, error)

	// CreateTexture uploads img and stores the backend handle in texture.
	CreateTexture(img *metadata.Image, texture *metadata.Texture) error
	DestroyTexture(texture *metadata.Texture)

	// CreateMeshBuffers uploads the vertex data and one index buffer per
	// primitive. It is a no-op for meshes that already have buffers.
	CreateMeshBuffers(mesh *metadata.Mesh) error
	DestroyMeshBuffers(mesh *metadata.Mesh)

	BeginFrame(clear ClearOptions) error
	// DrawPrimitive issues an indexed draw of one primitive with the program
	// currently in use.
	DrawPrimitive(mesh *metadata.Mesh, primitive *metadata.Primitive)
	// DrawVertices issues a non indexed draw from an already uploaded mesh.
	DrawVertices(mesh *metadata.Mesh, first, count uint32)
	EndFrame() error

	Shutdown() error
}

// FrameReader is implemented by devices that can copy the last finished
// frame back to host memory as RGBA rows, top row first.
type FrameReader interface {
	ReadFrame() (*metadata.Image, error)
}
