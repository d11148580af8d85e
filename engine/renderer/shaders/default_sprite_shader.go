package shaders

import (
	"github.com/chewxy/math32"
	"github.com/spaghettifunk/gef/engine/math"
	"github.com/spaghettifunk/gef/engine/renderer/layout"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

const (
	DefaultSpriteShaderName = "default_sprite_shader"
	// SpriteVertexSize is a bare position per vertex.
	SpriteVertexSize = 12
)

/** @brief Draws one textured, tinted quad per SetSpriteData call. */
type DefaultSpriteShader struct {
	shader

	projection     layout.VertexVariableIndex
	spriteData     layout.VertexVariableIndex
	textureSampler layout.TextureSamplerIndex
}

func NewDefaultSpriteShader(options Options) (*DefaultSpriteShader, error) {
	s := &DefaultSpriteShader{}
	b := layout.NewBuilder()

	s.projection = b.AddVertexVariable("proj_matrix", layout.VariableTypeMatrix44, 1)
	s.spriteData = b.AddVertexVariable("sprite_data", layout.VariableTypeMatrix44, 1)
	s.textureSampler = b.AddTextureSampler("texture_sampler", metadata.TextureUseUnknown)

	b.AddVertexParameter("position", layout.VariableTypeVector3, 0, "POSITION", 0)
	b.SetVertexSize(SpriteVertexSize)

	base, err := options.build(DefaultSpriteShaderName, "default_sprite_shader_vs", "default_sprite_shader_ps", b)
	if err != nil {
		return nil, err
	}
	s.shader = base
	return s, nil
}

func (s *DefaultSpriteShader) SetSceneData(projection math.Mat4) {
	s.si.SetVertexMatrix(s.projection, projection.Transposed())
}

// SetSpriteData writes the packed sprite and binds texture, nil falls back
// to the default texture.
func (s *DefaultSpriteShader) SetSpriteData(sprite *metadata.Sprite, texture *metadata.Texture) {
	s.si.SetVertexMatrix(s.spriteData, BuildSpriteShaderData(sprite))
	s.si.SetTextureSampler(s.textureSampler, texture)
}

/**
 * @brief Packs a sprite into the matrix read by the sprite program.
 *
 * Row 0 and 1 hold the rotated size in the first two columns and the uv
 * position and size in the last two. Row 2 holds the centre position and
 * row 3 the colour. The matrix is uploaded without transposing.
 */
func BuildSpriteShaderData(sprite *metadata.Sprite) math.Mat4 {
	var m math.Mat4

	m.SetM(2, 0, sprite.Position.X)
	m.SetM(2, 1, sprite.Position.Y)
	m.SetM(2, 2, sprite.Position.Z)

	if sprite.Rotation == 0 {
		m.SetM(0, 0, sprite.Size.X)
		m.SetM(1, 1, sprite.Size.Y)
	} else {
		sin, cos := math32.Sin(sprite.Rotation), math32.Cos(sprite.Rotation)
		m.SetM(0, 0, cos*sprite.Size.X)
		m.SetM(0, 1, sin*sprite.Size.X)
		m.SetM(1, 0, -sin*sprite.Size.Y)
		m.SetM(1, 1, cos*sprite.Size.Y)
	}

	m.SetM(0, 2, sprite.UVPosition.X)
	m.SetM(0, 3, sprite.UVPosition.Y)
	m.SetM(1, 2, sprite.UVSize.X)
	m.SetM(1, 3, sprite.UVSize.Y)

	m.SetRow(3, metadata.NewColourFromABGR(sprite.Colour).RGBA())
	return m
}

// SpriteQuad returns the two triangles of the unit quad centred on the
// origin that every sprite is drawn from.
func SpriteQuad() *metadata.Mesh {
	corners := [6][2]float32{
		{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5},
		{-0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5},
	}
	data := make([]float32, 0, len(corners)*3)
	for _, c := range corners {
		data = append(data, c[0], c[1], 0)
	}
	return &metadata.Mesh{
		Vertices:    layout.EncodeFloats(data...),
		VertexSize:  SpriteVertexSize,
		VertexCount: uint32(len(corners)),
		Aabb:        math.NewAabbFromMinMax(math.NewVec3(-0.5, -0.5, 0), math.NewVec3(0.5, 0.5, 0)),
	}
}
