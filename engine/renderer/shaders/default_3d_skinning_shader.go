package shaders

import (
	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/math"
	"github.com/spaghettifunk/gef/engine/renderer/layout"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

const (
	Default3DSkinningShaderName = "default_3d_skinning_shader"
	// MaxBones is the size of the bone matrix palette.
	MaxBones = 128
)

/** @brief The lit shader for skinned meshes with up to four bones per vertex. */
type Default3DSkinningShader struct {
	shader

	wvp          layout.VertexVariableIndex
	world        layout.VertexVariableIndex
	boneMatrices layout.VertexVariableIndex

	materialColour layout.PixelVariableIndex

	ambientLightColour layout.LightVariableIndex
	lights             layout.LightVariableIndex

	textureSampler layout.TextureSamplerIndex

	viewProjection math.Mat4
}

func NewDefault3DSkinningShader(options Options) (*Default3DSkinningShader, error) {
	s := &Default3DSkinningShader{viewProjection: math.NewMat4Identity()}
	b := layout.NewBuilder()

	s.wvp = b.AddVertexVariable("wvp", layout.VariableTypeMatrix44, 1)
	s.world = b.AddVertexVariable("world", layout.VariableTypeMatrix44, 1)
	s.boneMatrices = b.AddVertexVariable("bone_matrices", layout.VariableTypeMatrix44, MaxBones)

	s.materialColour = b.AddPixelVariable("material_colour", layout.VariableTypeVector4, 1)

	s.ambientLightColour = b.AddLightVariable("ambient_light_colour", layout.VariableTypeVector4, 1)
	s.lights = b.AddLightVariable("lights", layout.VariableTypeLight, metadata.MaxLights)

	s.textureSampler = b.AddTextureSampler("texture_sampler", metadata.TextureUseMapDiffuse)

	// offsets follow metadata.SkinnedVertex
	b.AddVertexParameter("position", layout.VariableTypeVector3, 0, "POSITION", 0)
	b.AddVertexParameter("normal", layout.VariableTypeVector3, 12, "NORMAL", 0)
	b.AddVertexParameter("bone_indices", layout.VariableTypeUByte4, 24, "BLENDINDICES", 0)
	b.AddVertexParameter("bone_weights", layout.VariableTypeVector4, 28, "BLENDWEIGHT", 0)
	b.AddVertexParameter("uv", layout.VariableTypeVector2, 44, "TEXCOORD", 0)
	b.SetVertexSize(metadata.SkinnedVertexSize)

	base, err := options.build(Default3DSkinningShaderName, "default_3d_skinning_shader_vs", "default_3d_skinning_shader_ps", b)
	if err != nil {
		return nil, err
	}
	s.shader = base
	return s, nil
}

/**
 * @brief Writes the lights and the bone palette. Each bone is transposed
 * and only len(bones) slots are written, palettes longer than MaxBones are
 * cut with a warning.
 */
func (s *Default3DSkinningShader) SetSceneData(bones []math.Mat4, lightData *metadata.LightData, view, projection math.Mat4) {
	s.viewProjection = view.Mul(projection)

	ambient, lights := packLights(lightData)
	s.si.SetLightVector4(s.ambientLightColour, ambient)
	s.si.SetLightLights(s.lights, lights)

	if len(bones) > MaxBones {
		core.LogWarn("shader '%s': %d bones exceed the palette of %d", s.name, len(bones), MaxBones)
		bones = bones[:MaxBones]
	}
	if len(bones) == 0 {
		return
	}
	transposed := make([]math.Mat4, len(bones))
	for i, bone := range bones {
		transposed[i] = bone.Transposed()
	}
	s.si.SetVertexMatrices(s.boneMatrices, transposed)
}

func (s *Default3DSkinningShader) SetMeshData(transform math.Mat4) {
	s.si.SetVertexMatrix(s.wvp, transform.Mul(s.viewProjection).Transposed())
	s.si.SetVertexMatrix(s.world, transform.Transposed())
}

// SetMaterialData uses the diffuse colour and texture only.
func (s *Default3DSkinningShader) SetMaterialData(material *metadata.Material) {
	colour := math.NewVec4One()
	var texture *metadata.Texture
	if material != nil {
		colour = material.Diffuse
		texture = material.DiffuseTexture
	}
	s.si.SetPixelVector4(s.materialColour, colour)
	s.si.SetTextureSampler(s.textureSampler, texture)
}
