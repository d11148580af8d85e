package shaders

import (
	"github.com/spaghettifunk/gef/engine/math"
	"github.com/spaghettifunk/gef/engine/renderer/layout"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

const Default3DShaderName = "default_3d_shader"

/**
 * @brief The lit shader for static meshes: per pixel lighting from up to
 * metadata.MaxLights point/spot lights with diffuse, specular and normal
 * maps.
 */
type Default3DShader struct {
	shader

	wvp   layout.VertexVariableIndex
	world layout.VertexVariableIndex

	ambient   layout.PixelVariableIndex
	diffuse   layout.PixelVariableIndex
	specular  layout.PixelVariableIndex
	shininess layout.PixelVariableIndex

	viewerPosition     layout.LightVariableIndex
	ambientLightColour layout.LightVariableIndex
	lights             layout.LightVariableIndex

	diffuseSampler  layout.TextureSamplerIndex
	specularSampler layout.TextureSamplerIndex
	normalSampler   layout.TextureSamplerIndex

	viewProjection math.Mat4
}

func NewDefault3DShader(options Options) (*Default3DShader, error) {
	s := &Default3DShader{viewProjection: math.NewMat4Identity()}
	b := layout.NewBuilder()

	s.wvp = b.AddVertexVariable("wvp", layout.VariableTypeMatrix44, 1)
	s.world = b.AddVertexVariable("world", layout.VariableTypeMatrix44, 1)

	s.ambient = b.AddPixelVariable("ambient", layout.VariableTypeVector4, 1)
	s.diffuse = b.AddPixelVariable("diffuse", layout.VariableTypeVector4, 1)
	s.specular = b.AddPixelVariable("specular", layout.VariableTypeVector4, 1)
	s.shininess = b.AddPixelVariable("shininess", layout.VariableTypeFloat, 1)

	s.viewerPosition = b.AddLightVariable("viewer_position", layout.VariableTypeVector4, 1)
	s.ambientLightColour = b.AddLightVariable("ambient_light_colour", layout.VariableTypeVector4, 1)
	s.lights = b.AddLightVariable("lights", layout.VariableTypeLight, metadata.MaxLights)

	s.diffuseSampler = b.AddTextureSampler("diffuse_sampler", metadata.TextureUseMapDiffuse)
	s.specularSampler = b.AddTextureSampler("specular_sampler", metadata.TextureUseMapSpecular)
	s.normalSampler = b.AddTextureSampler("normal_sampler", metadata.TextureUseMapNormal)

	// offsets follow metadata.Vertex
	b.AddVertexParameter("position", layout.VariableTypeVector3, 0, "POSITION", 0)
	b.AddVertexParameter("normal", layout.VariableTypeVector3, 12, "NORMAL", 0)
	b.AddVertexParameter("uv", layout.VariableTypeVector2, 24, "TEXCOORD", 0)
	b.SetVertexSize(metadata.VertexSize)

	base, err := options.build(Default3DShaderName, "default_3d_shader_vs", "default_3d_shader_ps", b)
	if err != nil {
		return nil, err
	}
	s.shader = base
	return s, nil
}

/**
 * @brief Stores the view projection used by SetMeshData and writes the
 * viewer position, the ambient colour and the packed lights.
 */
func (s *Default3DShader) SetSceneData(lightData *metadata.LightData, view, projection math.Mat4) {
	s.viewProjection = view.Mul(projection)

	viewer := s.viewProjection.Inverse().Row(3)
	if viewer.W != 0 {
		viewer = viewer.MulScalar(1 / viewer.W)
	}
	viewer.W = 1

	ambient, lights := packLights(lightData)
	s.si.SetLightVector4(s.viewerPosition, viewer)
	s.si.SetLightVector4(s.ambientLightColour, ambient)
	s.si.SetLightLights(s.lights, lights)
}

func (s *Default3DShader) SetMeshData(transform math.Mat4) {
	s.si.SetVertexMatrix(s.wvp, transform.Mul(s.viewProjection).Transposed())
	s.si.SetVertexMatrix(s.world, transform.Transposed())
}

func (s *Default3DShader) SetMaterialData(material *metadata.Material) {
	if material == nil {
		material = metadata.NewMaterial()
	}
	s.si.SetPixelVector4(s.ambient, material.Ambient)
	s.si.SetPixelVector4(s.diffuse, material.Diffuse)
	s.si.SetPixelVector4(s.specular, material.Specular)
	s.si.SetPixelFloat(s.shininess, material.Shininess)
	s.si.SetTextureSampler(s.diffuseSampler, material.DiffuseTexture)
	s.si.SetTextureSampler(s.specularSampler, material.SpecularTexture)
	s.si.SetTextureSampler(s.normalSampler, material.NormalTexture)
}

func (s *Default3DShader) ViewProjection() math.Mat4 {
	return s.viewProjection
}
