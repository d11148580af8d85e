package renderer

import (
	"fmt"

	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/math"
	"github.com/spaghettifunk/gef/engine/platform"
	"github.com/spaghettifunk/gef/engine/renderer/components"
	"github.com/spaghettifunk/gef/engine/renderer/gpu"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
	"github.com/spaghettifunk/gef/engine/renderer/shaders"
)

/** @brief Options used to create the renderers. */
type Options struct {
	// Sources defaults to the embedded programs.
	Sources shaders.Sources
	State   gpu.RenderState
}

// OptionsFromConfig reads the fill mode and depth test of cfg.
func OptionsFromConfig(cfg *core.Config, sources shaders.Sources) (Options, error) {
	fill, err := gpu.ParseFillMode(cfg.Renderer.FillMode)
	if err != nil {
		return Options{}, err
	}
	depth, err := gpu.ParseDepthTest(cfg.Renderer.DepthTest)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Sources: sources,
		State:   gpu.RenderState{FillMode: fill, DepthTest: depth},
	}, nil
}

/**
 * @brief Draws meshes with the default lit shader, the default skinning
 * shader or a shader set by the caller.
 *
 * A custom shader only receives mesh and material data, its scene data is
 * the caller's job.
 */
type Renderer3D struct {
	platform *platform.Platform
	device   gpu.Device

	shader           shaders.Shader
	defaultShader    *shaders.Default3DShader
	skinnedShader    *shaders.Default3DSkinningShader
	overrideMaterial *metadata.Material

	lightData  *metadata.LightData
	fullBright *metadata.LightData
	// sceneLit is the light set last written to the default shader, nil
	// when the scene must be written again.
	sceneLit *metadata.LightData

	projection        math.Mat4
	view              math.Mat4
	world             math.Mat4
	invWorldTranspose math.Mat4
	fov               float32

	state       gpu.RenderState
	clearColour metadata.Colour

	clearRenderTarget bool
	clearDepth        bool
	clearStencil      bool

	drawCount uint32
}

func NewRenderer3D(p *platform.Platform, opts Options) (*Renderer3D, error) {
	shaderOpts := shaders.Options{Device: p.Device(), Textures: p, Sources: opts.Sources}
	def, err := shaders.NewDefault3DShader(shaderOpts)
	if err != nil {
		return nil, fmt.Errorf("renderer 3d: %w", err)
	}
	skinned, err := shaders.NewDefault3DSkinningShader(shaderOpts)
	if err != nil {
		def.Destroy()
		return nil, fmt.Errorf("renderer 3d: %w", err)
	}

	fullBright := metadata.NewLightData()
	fullBright.SetAmbientColour(math.NewVec3(1, 1, 1))

	r := &Renderer3D{
		platform:          p,
		device:            p.Device(),
		defaultShader:     def,
		skinnedShader:     skinned,
		lightData:         metadata.NewLightData(),
		fullBright:        fullBright,
		projection:        math.NewMat4Identity(),
		view:              math.NewMat4Identity(),
		world:             math.NewMat4Identity(),
		invWorldTranspose: math.NewMat4Identity(),
		state:             opts.State,
		clearColour:       metadata.NewColour(0, 0, 0, 1),
		clearRenderTarget: true,
		clearDepth:        true,
		clearStencil:      true,
	}
	r.shader = def
	return r, nil
}

// Destroy releases the default shaders.
func (r *Renderer3D) Destroy() {
	r.defaultShader.Destroy()
	r.skinnedShader.Destroy()
	r.shader = nil
}

// Begin opens a frame, clearing the buffers enabled on the renderer when
// clear is set.
func (r *Renderer3D) Begin(clear bool) error {
	opts := gpu.ClearOptions{Colour: r.clearColour, Depth: 1}
	if clear {
		if r.clearRenderTarget {
			opts.Flags |= gpu.ClearColour
		}
		if r.clearDepth {
			opts.Flags |= gpu.ClearDepth
		}
		if r.clearStencil {
			opts.Flags |= gpu.ClearStencil
		}
	}
	r.sceneLit = nil
	return r.platform.BeginFrame(opts)
}

func (r *Renderer3D) End() error {
	return r.platform.EndFrame()
}

// SetShader makes shader current. Nil selects the default shader.
func (r *Renderer3D) SetShader(shader shaders.Shader) {
	if shader == nil {
		shader = r.defaultShader
	}
	r.shader = shader
}

func (r *Renderer3D) Shader() shaders.Shader { return r.shader }

func (r *Renderer3D) DefaultShader() *shaders.Default3DShader { return r.defaultShader }

func (r *Renderer3D) DefaultSkinnedShader() *shaders.Default3DSkinningShader {
	return r.skinnedShader
}

/**
 * @brief Draws every primitive of mesh with the current shader. The default
 * shader uses the renderer's lights when lit is set and a full bright
 * ambient otherwise.
 */
func (r *Renderer3D) DrawMesh(mesh *metadata.Mesh, transform math.Mat4, lit bool) {
	if mesh == nil || r.shader == nil {
		return
	}
	if r.shader == shaders.Shader(r.defaultShader) {
		if mesh.Skinned {
			core.LogWarn("skinned mesh drawn with the static shader, use DrawSkinnedMesh")
			return
		}
		lights := r.fullBright
		if lit {
			lights = r.lightData
		}
		if r.sceneLit != lights {
			r.defaultShader.SetSceneData(lights, r.view, r.projection)
			r.sceneLit = lights
		}
	}

	if err := r.device.CreateMeshBuffers(mesh); err != nil {
		core.LogError("unable to upload mesh: %s", err)
		return
	}

	r.SetWorldMatrix(transform)

	program := r.shader.Program()
	if program == nil {
		return
	}
	program.Use(r.state)
	program.SetVertexFormat()
	r.shader.SetMeshData(transform)

	for _, primitive := range mesh.Primitives {
		material := primitive.Material
		if r.overrideMaterial != nil {
			material = r.overrideMaterial
		}
		r.shader.SetMaterialData(material)
		program.SetVariableData()
		program.BindTextureResources()
		r.device.DrawPrimitive(mesh, primitive)
		program.UnbindTextureResources()
		r.drawCount++
	}
}

// DrawModel draws the mesh of model.
func (r *Renderer3D) DrawModel(model *metadata.Model, transform math.Mat4, lit bool) {
	if model == nil {
		return
	}
	r.DrawMesh(model.Mesh, transform, lit)
}

/**
 * @brief Draws a skinned mesh. With useDefaultShader the default skinning
 * shader is made current for the draw, fed the bones and the renderer's
 * lights, and the previous shader is restored afterwards.
 */
func (r *Renderer3D) DrawSkinnedMesh(mesh *metadata.Mesh, transform math.Mat4, bones []math.Mat4, useDefaultShader bool) {
	previous := r.shader
	if useDefaultShader {
		r.SetShader(r.skinnedShader)
		r.skinnedShader.SetSceneData(bones, r.lightData, r.view, r.projection)
	}

	r.DrawMesh(mesh, transform, true)

	if useDefaultShader {
		r.SetShader(previous)
	}
}

// SetWorldMatrix stores matrix and its inverse transpose.
func (r *Renderer3D) SetWorldMatrix(matrix math.Mat4) {
	r.world = matrix
	r.invWorldTranspose = matrix.Inverse().Transposed()
}

func (r *Renderer3D) WorldMatrix() math.Mat4 { return r.world }

func (r *Renderer3D) InverseWorldTransposeMatrix() math.Mat4 { return r.invWorldTranspose }

func (r *Renderer3D) SetViewMatrix(view math.Mat4) {
	r.view = view
	r.sceneLit = nil
}

func (r *Renderer3D) ViewMatrix() math.Mat4 { return r.view }

func (r *Renderer3D) SetProjectionMatrix(projection math.Mat4) {
	r.projection = projection
	r.sceneLit = nil
}

func (r *Renderer3D) ProjectionMatrix() math.Mat4 { return r.projection }

// SetPerspective builds the projection from a vertical field of view in radians.
func (r *Renderer3D) SetPerspective(fov, aspect, near, far float32) {
	r.fov = fov
	r.SetProjectionMatrix(math.NewMat4Perspective(fov, aspect, near, far))
}

func (r *Renderer3D) FOV() float32 { return r.fov }

// SetCamera takes the view and projection of camera.
func (r *Renderer3D) SetCamera(camera *components.Camera) {
	r.fov = camera.FOV
	r.SetViewMatrix(camera.GetView())
	r.SetProjectionMatrix(camera.Projection())
}

// LightData returns the lights used by lit draws. Changes made to it after
// the first lit draw of a frame need InvalidateScene.
func (r *Renderer3D) LightData() *metadata.LightData { return r.lightData }

func (r *Renderer3D) SetLightData(lightData *metadata.LightData) {
	if lightData == nil {
		lightData = metadata.NewLightData()
	}
	r.lightData = lightData
	r.sceneLit = nil
}

// InvalidateScene makes the next draw rewrite the scene data.
func (r *Renderer3D) InvalidateScene() {
	r.sceneLit = nil
}

// SetOverrideMaterial replaces every primitive material until reset with nil.
func (r *Renderer3D) SetOverrideMaterial(material *metadata.Material) {
	r.overrideMaterial = material
}

func (r *Renderer3D) OverrideMaterial() *metadata.Material { return r.overrideMaterial }

func (r *Renderer3D) SetFillMode(mode gpu.FillMode) { r.state.FillMode = mode }

func (r *Renderer3D) FillMode() gpu.FillMode { return r.state.FillMode }

func (r *Renderer3D) SetDepthTest(test gpu.DepthTest) { r.state.DepthTest = test }

func (r *Renderer3D) DepthTest() gpu.DepthTest { return r.state.DepthTest }

func (r *Renderer3D) SetClearColour(colour metadata.Colour) { r.clearColour = colour }

func (r *Renderer3D) SetClearRenderTargetEnabled(enabled bool) { r.clearRenderTarget = enabled }

func (r *Renderer3D) ClearRenderTargetEnabled() bool { return r.clearRenderTarget }

func (r *Renderer3D) SetClearDepthBufferEnabled(enabled bool) { r.clearDepth = enabled }

func (r *Renderer3D) ClearDepthBufferEnabled() bool { return r.clearDepth }

func (r *Renderer3D) SetClearStencilBufferEnabled(enabled bool) { r.clearStencil = enabled }

func (r *Renderer3D) ClearStencilBufferEnabled() bool { return r.clearStencil }

// GetAndResetDrawCount returns the draws issued since the last call.
func (r *Renderer3D) GetAndResetDrawCount() uint32 {
	n := r.drawCount
	r.drawCount = 0
	return n
}
