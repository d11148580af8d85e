package renderer

import (
	"fmt"

	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/math"
	"github.com/spaghettifunk/gef/engine/platform"
	"github.com/spaghettifunk/gef/engine/renderer/gpu"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
	"github.com/spaghettifunk/gef/engine/renderer/shaders"
)

/**
 * @brief Draws textured quads in screen space. The projection maps
 * (0, 0) to the top left corner and (width, height) to the bottom right.
 */
type SpriteRenderer struct {
	platform *platform.Platform
	device   gpu.Device
	shader   *shaders.DefaultSpriteShader
	quad     *metadata.Mesh

	projection  math.Mat4
	clearColour metadata.Colour
	drawCount   uint32
}

func NewSpriteRenderer(p *platform.Platform, opts Options) (*SpriteRenderer, error) {
	shader, err := shaders.NewDefaultSpriteShader(shaders.Options{
		Device:   p.Device(),
		Textures: p,
		Sources:  opts.Sources,
	})
	if err != nil {
		return nil, fmt.Errorf("sprite renderer: %w", err)
	}
	quad := shaders.SpriteQuad()
	if err := p.Device().CreateMeshBuffers(quad); err != nil {
		shader.Destroy()
		return nil, fmt.Errorf("sprite renderer quad: %w", err)
	}
	return &SpriteRenderer{
		platform:    p,
		device:      p.Device(),
		shader:      shader,
		quad:        quad,
		projection:  ScreenProjection(p.Width(), p.Height()),
		clearColour: metadata.NewColour(0, 0, 0, 1),
	}, nil
}

// ScreenProjection maps pixels to clip space with y pointing down.
func ScreenProjection(width, height uint32) math.Mat4 {
	return math.NewMat4Orthographic(0, float32(width), float32(height), 0, -1, 1)
}

func (sr *SpriteRenderer) Destroy() {
	sr.device.DestroyMeshBuffers(sr.quad)
	sr.shader.Destroy()
}

// Begin opens a frame and writes the projection. clear only clears colour.
func (sr *SpriteRenderer) Begin(clear bool) error {
	opts := gpu.ClearOptions{Colour: sr.clearColour, Depth: 1}
	if clear {
		opts.Flags = gpu.ClearColour
	}
	if err := sr.platform.BeginFrame(opts); err != nil {
		return err
	}
	sr.shader.SetSceneData(sr.projection)
	return nil
}

func (sr *SpriteRenderer) End() error {
	return sr.platform.EndFrame()
}

// DrawSprite draws one sprite with its own texture, or the default texture.
func (sr *SpriteRenderer) DrawSprite(sprite *metadata.Sprite) {
	if sprite == nil {
		return
	}
	if !sr.platform.InFrame() {
		core.LogWarn("sprite drawn outside Begin/End")
		return
	}
	program := sr.shader.Program()
	if program == nil {
		return
	}
	program.Use(gpu.RenderState{FillMode: gpu.FillModeSolid, DepthTest: gpu.DepthTestAlways})
	program.SetVertexFormat()
	sr.shader.SetSpriteData(sprite, sprite.Texture)
	program.SetVariableData()
	program.BindTextureResources()
	sr.device.DrawVertices(sr.quad, 0, sr.quad.VertexCount)
	program.UnbindTextureResources()
	sr.drawCount++
}

func (sr *SpriteRenderer) SetProjectionMatrix(projection math.Mat4) {
	sr.projection = projection
	sr.shader.SetSceneData(projection)
}

func (sr *SpriteRenderer) ProjectionMatrix() math.Mat4 { return sr.projection }

func (sr *SpriteRenderer) SetClearColour(colour metadata.Colour) { sr.clearColour = colour }

func (sr *SpriteRenderer) Shader() *shaders.DefaultSpriteShader { return sr.shader }

func (sr *SpriteRenderer) GetAndResetDrawCount() uint32 {
	n := sr.drawCount
	sr.drawCount = 0
	return n
}
