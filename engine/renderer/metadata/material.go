package metadata

import "github.com/spaghettifunk/gef/engine/math"

/**
 * @brief Surface properties fed to the lit shaders. Texture pointers do not
 * own their textures, the Model does.
 */
type Material struct {
	/** @brief The material name, as declared by newmtl. */
	Name            string
	Ambient         math.Vec4
	Diffuse         math.Vec4
	Specular        math.Vec4
	Shininess       float32
	DiffuseTexture  *Texture
	SpecularTexture *Texture
	NormalTexture   *Texture
}

// NewMaterial returns a material with the engine defaults: black ambient and
// specular, opaque white diffuse and a shininess of 1.
func NewMaterial() *Material {
	return &Material{
		Ambient:   math.NewVec4(0, 0, 0, 1),
		Diffuse:   math.NewVec4(1, 1, 1, 1),
		Specular:  math.NewVec4(0, 0, 0, 1),
		Shininess: 1,
	}
}

// SetDiffuseABGR sets the diffuse colour from a packed 0xAABBGGRR value.
func (m *Material) SetDiffuseABGR(abgr uint32) {
	m.Diffuse = NewColourFromABGR(abgr).RGBA()
}

// Texture returns the texture bound for the given role.
func (m *Material) Texture(use TextureUse) *Texture {
	switch use {
	case TextureUseMapDiffuse:
		return m.DiffuseTexture
	case TextureUseMapSpecular:
		return m.SpecularTexture
	case TextureUseMapNormal:
		return m.NormalTexture
	default:
		return nil
	}
}
