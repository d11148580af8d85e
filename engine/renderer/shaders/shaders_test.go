package shaders

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/math"
	"github.com/spaghettifunk/gef/engine/renderer/gpu"
	"github.com/spaghettifunk/gef/engine/renderer/headless"
	"github.com/spaghettifunk/gef/engine/renderer/layout"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lightRadiusOffset = 48

type provider struct {
	texture, normal *metadata.Texture
}

func (p provider) DefaultTexture() *metadata.Texture       { return p.texture }
func (p provider) DefaultNormalTexture() *metadata.Texture { return p.normal }

func testOptions() (Options, *headless.Device) {
	d := headless.NewDevice(headless.Options{})
	return Options{
		Device: d,
		Textures: provider{
			texture: &metadata.Texture{Name: metadata.DEFAULT_TEXTURE_NAME},
			normal:  &metadata.Texture{Name: metadata.DEFAULT_NORMAL_TEXTURE_NAME},
		},
	}, d
}

type failingSources struct{}

func (failingSources) Program(name string, language gpu.ShaderLanguage) ([]byte, error) {
	return nil, errors.New("not found")
}

type staticSources map[string][]byte

func (s staticSources) Program(name string, language gpu.ShaderLanguage) ([]byte, error) {
	if code, ok := s[name]; ok {
		return code, nil
	}
	return nil, errors.New("missing " + name)
}

func offsets(vars []layout.ShaderVariable) map[string]int {
	out := make(map[string]int, len(vars))
	for _, v := range vars {
		out[v.Name] = v.Offset
	}
	return out
}

func TestDefault3DShaderSchema(t *testing.T) {
	options, _ := testOptions()
	s, err := NewDefault3DShader(options)
	require.NoError(t, err)
	si := s.Interface()

	assert.Equal(t, map[string]int{"wvp": 0, "world": 64}, offsets(si.Variables(layout.StageVertex)))
	assert.Equal(t, 128, si.DataSize(layout.StageVertex))

	assert.Equal(t, map[string]int{"ambient": 0, "diffuse": 16, "specular": 32, "shininess": 48}, offsets(si.Variables(layout.StagePixel)))
	assert.Equal(t, 64, si.DataSize(layout.StagePixel))

	assert.Equal(t, map[string]int{"viewer_position": 0, "ambient_light_colour": 16, "lights": 32}, offsets(si.Variables(layout.StageLight)))
	assert.Equal(t, 32+metadata.MaxLights*metadata.LightSize, si.DataSize(layout.StageLight))

	samplers := si.TextureSamplers()
	require.Len(t, samplers, 3)
	assert.Equal(t, metadata.TextureUseMapDiffuse, samplers[0].Role)
	assert.Equal(t, metadata.TextureUseMapSpecular, samplers[1].Role)
	assert.Equal(t, metadata.TextureUseMapNormal, samplers[2].Role)
}

// The declared parameters must read back what metadata.Vertex wrote.
func TestDefault3DShaderParametersMatchVertexRecord(t *testing.T) {
	options, _ := testOptions()
	s, err := NewDefault3DShader(options)
	require.NoError(t, err)
	si := s.Interface()
	require.Equal(t, metadata.VertexSize, si.VertexSize())

	v := metadata.Vertex{
		Position: math.NewVec3(1, 2, 3),
		Normal:   math.NewVec3(4, 5, 6),
		UV:       math.NewVec2(7, 8),
	}
	data := make([]byte, metadata.VertexSize)
	v.Encode(data)

	params := si.Parameters()
	require.Len(t, params, 3)
	assert.Equal(t, "position", params[0].Name)
	assert.Equal(t, float32(1), layout.DecodeFloat(data, params[0].Offset))
	assert.Equal(t, "normal", params[1].Name)
	assert.Equal(t, float32(4), layout.DecodeFloat(data, params[1].Offset))
	assert.Equal(t, "uv", params[2].Name)
	assert.Equal(t, float32(7), layout.DecodeFloat(data, params[2].Offset))
	assert.Equal(t, float32(8), layout.DecodeFloat(data, params[2].Offset+4))
}

func TestDefault3DShaderSceneData(t *testing.T) {
	options, _ := testOptions()
	s, err := NewDefault3DShader(options)
	require.NoError(t, err)

	lights := metadata.NewLightData()
	lights.SetAmbientColour(math.NewVec3(0.1, 0.2, 0.3))
	first := metadata.NewLight()
	first.Radius = 10
	second := metadata.NewLight()
	second.Radius = 20
	lights.AddLight(first)
	lights.AddLight(second)

	view := math.NewMat4Translation(math.NewVec3(-1, -2, -3))
	s.SetSceneData(lights, view, math.NewMat4Identity())

	data := s.Interface().Data(layout.StageLight)
	assert.True(t, layout.DecodeVec4(data, 0).Compare(math.NewVec4(1, 2, 3, 1), 1e-5))
	assert.Equal(t, math.NewVec4(0.1, 0.2, 0.3, 1), layout.DecodeVec4(data, 16))

	radius := func(i int) float32 {
		return layout.DecodeFloat(data, 32+i*metadata.LightSize+lightRadiusOffset)
	}
	assert.Equal(t, float32(10), radius(0))
	assert.Equal(t, float32(20), radius(1))
	assert.Equal(t, float32(-1), radius(2))
}

func TestDefault3DShaderFullLightArrayHasNoSentinel(t *testing.T) {
	options, _ := testOptions()
	s, err := NewDefault3DShader(options)
	require.NoError(t, err)

	lights := metadata.NewLightData()
	for i := 0; i < metadata.MaxLights; i++ {
		lights.AddLight(metadata.NewLight())
	}
	s.SetSceneData(lights, math.NewMat4Identity(), math.NewMat4Identity())

	data := s.Interface().Data(layout.StageLight)
	last := 32 + (metadata.MaxLights-1)*metadata.LightSize + lightRadiusOffset
	assert.Equal(t, metadata.NewLight().Radius, layout.DecodeFloat(data, last))
}

func TestDefault3DShaderMeshDataIsTransposed(t *testing.T) {
	options, _ := testOptions()
	s, err := NewDefault3DShader(options)
	require.NoError(t, err)

	view := math.NewMat4Translation(math.NewVec3(0, 0, -5))
	projection := math.NewMat4Perspective(math.DegToRad(45), 16.0/9.0, 0.1, 100)
	s.SetSceneData(nil, view, projection)

	transform := math.NewMat4Translation(math.NewVec3(1, 2, 3))
	s.SetMeshData(transform)

	data := s.Interface().Data(layout.StageVertex)
	assert.Equal(t, transform.Mul(view.Mul(projection)).Transposed(), layout.DecodeMat4(data, 0))
	assert.Equal(t, transform.Transposed(), layout.DecodeMat4(data, 64))
}

func TestDefault3DShaderMaterialData(t *testing.T) {
	options, _ := testOptions()
	s, err := NewDefault3DShader(options)
	require.NoError(t, err)

	diffuse := &metadata.Texture{Name: "brick.png"}
	m := metadata.NewMaterial()
	m.Diffuse = math.NewVec4(0.5, 0.25, 1, 1)
	m.Shininess = 32
	m.DiffuseTexture = diffuse
	s.SetMaterialData(m)

	si := s.Interface()
	data := si.Data(layout.StagePixel)
	assert.Equal(t, m.Diffuse, layout.DecodeVec4(data, 16))
	assert.Equal(t, float32(32), layout.DecodeFloat(data, 48))
	assert.Same(t, diffuse, si.TextureSamplers()[0].Texture)

	// a nil material must not leave the previous values behind
	s.SetMaterialData(nil)
	assert.Equal(t, math.NewVec4(1, 1, 1, 1), layout.DecodeVec4(data, 16))
	assert.Equal(t, float32(1), layout.DecodeFloat(data, 48))
	for _, sampler := range si.TextureSamplers() {
		assert.Nil(t, sampler.Texture)
	}
}

func TestDefault3DShaderUploadsThroughProgram(t *testing.T) {
	options, d := testOptions()
	s, err := NewDefault3DShader(options)
	require.NoError(t, err)

	s.SetMaterialData(nil)
	s.Program().Use(gpu.RenderState{})
	s.Program().SetVariableData()
	s.Program().BindTextureResources()

	p := s.Program().(*headless.Program)
	assert.Equal(t, s.Interface().Data(layout.StagePixel), p.Buffer(layout.StagePixel))
	assert.Equal(t, metadata.DEFAULT_TEXTURE_NAME, d.BoundTexture(0).Name)
	assert.Equal(t, metadata.DEFAULT_NORMAL_TEXTURE_NAME, d.BoundTexture(2).Name)
}

func TestSkinningShaderSchema(t *testing.T) {
	options, _ := testOptions()
	s, err := NewDefault3DSkinningShader(options)
	require.NoError(t, err)
	si := s.Interface()

	assert.Equal(t, map[string]int{"wvp": 0, "world": 64, "bone_matrices": 128}, offsets(si.Variables(layout.StageVertex)))
	assert.Equal(t, 128+MaxBones*64, si.DataSize(layout.StageVertex))
	assert.Equal(t, 16, si.DataSize(layout.StagePixel))
	assert.Equal(t, metadata.SkinnedVertexSize, si.VertexSize())

	v := metadata.SkinnedVertex{
		BoneIndices: [4]uint8{1, 2, 3, 4},
		BoneWeights: math.NewVec4(0.25, 0.25, 0.5, 0),
		UV:          math.NewVec2(0.75, 0.5),
	}
	data := make([]byte, metadata.SkinnedVertexSize)
	v.Encode(data)

	params := si.Parameters()
	require.Len(t, params, 5)
	assert.Equal(t, []byte{1, 2, 3, 4}, data[params[2].Offset:params[2].Offset+4])
	assert.Equal(t, float32(0.5), layout.DecodeFloat(data, params[3].Offset+8))
	assert.Equal(t, float32(0.75), layout.DecodeFloat(data, params[4].Offset))
}

func TestSkinningShaderBones(t *testing.T) {
	options, _ := testOptions()
	s, err := NewDefault3DSkinningShader(options)
	require.NoError(t, err)

	bones := []math.Mat4{
		math.NewMat4Translation(math.NewVec3(1, 0, 0)),
		math.NewMat4Translation(math.NewVec3(0, 2, 0)),
	}
	s.SetSceneData(bones, nil, math.NewMat4Identity(), math.NewMat4Identity())

	data := s.Interface().Data(layout.StageVertex)
	assert.Equal(t, bones[0].Transposed(), layout.DecodeMat4(data, 128))
	assert.Equal(t, bones[1].Transposed(), layout.DecodeMat4(data, 192))
	assert.Equal(t, math.Mat4{}, layout.DecodeMat4(data, 256))

	light := s.Interface().Data(layout.StageLight)
	assert.Equal(t, float32(-1), layout.DecodeFloat(light, 16+lightRadiusOffset))
}

func TestSkinningShaderClampsBones(t *testing.T) {
	options, _ := testOptions()
	s, err := NewDefault3DSkinningShader(options)
	require.NoError(t, err)

	bones := make([]math.Mat4, MaxBones+8)
	for i := range bones {
		bones[i] = math.NewMat4Scale(math.NewVec3(float32(i), 1, 1))
	}
	assert.NotPanics(t, func() {
		s.SetSceneData(bones, nil, math.NewMat4Identity(), math.NewMat4Identity())
	})
	data := s.Interface().Data(layout.StageVertex)
	assert.Equal(t, bones[MaxBones-1].Transposed(), layout.DecodeMat4(data, 128+(MaxBones-1)*64))
}

func TestSkinningShaderMaterial(t *testing.T) {
	options, _ := testOptions()
	s, err := NewDefault3DSkinningShader(options)
	require.NoError(t, err)

	tex := &metadata.Texture{Name: "skin.png"}
	m := metadata.NewMaterial()
	m.Diffuse = math.NewVec4(0.5, 0.5, 0.5, 1)
	m.DiffuseTexture = tex
	s.SetMaterialData(m)
	assert.Equal(t, m.Diffuse, layout.DecodeVec4(s.Interface().Data(layout.StagePixel), 0))
	assert.Same(t, tex, s.Interface().TextureSamplers()[0].Texture)

	s.SetMaterialData(nil)
	assert.Equal(t, math.NewVec4One(), layout.DecodeVec4(s.Interface().Data(layout.StagePixel), 0))
	assert.Nil(t, s.Interface().TextureSamplers()[0].Texture)
}

func TestBuildSpriteShaderData(t *testing.T) {
	sprite := metadata.NewSprite(nil, math.NewVec3(100, 50, 0.5), math.NewVec2(32, 16))
	sprite.UVPosition = math.NewVec2(0.25, 0.5)
	sprite.UVSize = math.NewVec2(0.125, 0.25)
	sprite.Colour = 0xff0000ff

	m := BuildSpriteShaderData(sprite)
	assert.Equal(t, math.NewVec4(32, 0, 0.25, 0.5), m.Row(0))
	assert.Equal(t, math.NewVec4(0, 16, 0.125, 0.25), m.Row(1))
	assert.Equal(t, math.NewVec4(100, 50, 0.5, 0), m.Row(2))
	assert.Equal(t, math.NewVec4(1, 0, 0, 1), m.Row(3))

	sprite.Rotation = math.K_PI / 2
	m = BuildSpriteShaderData(sprite)
	assert.InDelta(t, 0, m.M(0, 0), 1e-5)
	assert.InDelta(t, 32, m.M(0, 1), 1e-5)
	assert.InDelta(t, -16, m.M(1, 0), 1e-5)
	assert.InDelta(t, 0, m.M(1, 1), 1e-5)
}

func TestSpriteShader(t *testing.T) {
	options, _ := testOptions()
	s, err := NewDefaultSpriteShader(options)
	require.NoError(t, err)

	projection := math.NewMat4Orthographic(0, 960, 544, 0, -1, 1)
	s.SetSceneData(projection)
	tex := &metadata.Texture{Name: "font_0.png"}
	sprite := metadata.NewSprite(tex, math.NewVec3(10, 10, 0), math.NewVec2(4, 4))
	s.SetSpriteData(sprite, tex)

	si := s.Interface()
	assert.Equal(t, SpriteVertexSize, si.VertexSize())
	assert.Equal(t, projection.Transposed(), layout.DecodeMat4(si.Data(layout.StageVertex), 0))
	assert.Equal(t, BuildSpriteShaderData(sprite), layout.DecodeMat4(si.Data(layout.StageVertex), 64))
	assert.Same(t, tex, si.TextureSamplers()[0].Texture)
	assert.Zero(t, si.DataSize(layout.StagePixel))
	assert.Zero(t, si.DataSize(layout.StageLight))

	// the sprite shader has no mesh or material data
	s.SetMeshData(math.NewMat4Identity())
	s.SetMaterialData(nil)
	assert.Same(t, tex, si.TextureSamplers()[0].Texture)
}

func TestSpriteQuad(t *testing.T) {
	quad := SpriteQuad()
	assert.Equal(t, uint32(6), quad.VertexCount)
	assert.Len(t, quad.Vertices, 6*SpriteVertexSize)
	assert.Equal(t, float32(-0.5), layout.DecodeFloat(quad.Vertices, 0))
}

func TestShaderSourceFailures(t *testing.T) {
	options, _ := testOptions()
	options.Sources = failingSources{}
	_, err := NewDefault3DShader(options)
	assert.ErrorIs(t, err, core.ErrShaderCompile)

	_, err = NewDefaultSpriteShader(Options{})
	assert.ErrorIs(t, err, core.ErrShaderCompile)

	// a pixel program without an entry point fails in the device
	options.Sources = staticSources{
		"default_sprite_shader_vs": []byte("@vertex fn vs_main() {}"),
		"default_sprite_shader_ps": []byte("fn helper() {}"),
	}
	_, err = NewDefaultSpriteShader(options)
	assert.ErrorIs(t, err, core.ErrShaderCompile)
}

func TestEmbeddedSources(t *testing.T) {
	for _, name := range []string{
		"default_3d_shader_vs", "default_3d_shader_ps",
		"default_3d_skinning_shader_vs", "default_3d_skinning_shader_ps",
		"default_sprite_shader_vs", "default_sprite_shader_ps",
	} {
		code, err := EmbeddedSources().Program(name, gpu.ShaderLanguageWGSL)
		require.NoError(t, err, name)
		assert.NotEmpty(t, code, name)
	}

	_, err := EmbeddedSources().Program("default_3d_shader_vs", gpu.ShaderLanguageSPIRV)
	assert.Error(t, err)
}

func TestSourceChain(t *testing.T) {
	chain := SourceChain{failingSources{}, staticSources{"a": []byte("x")}, EmbeddedSources()}
	code, err := chain.Program("a", gpu.ShaderLanguageWGSL)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), code)

	code, err = chain.Program("default_sprite_shader_ps", gpu.ShaderLanguageWGSL)
	require.NoError(t, err)
	assert.Contains(t, string(code), "fs_main")

	_, err = chain.Program("missing", gpu.ShaderLanguageWGSL)
	assert.Error(t, err)
	_, err = SourceChain{}.Program("missing", gpu.ShaderLanguageWGSL)
	assert.Error(t, err)
}

func TestDestroyReleasesProgram(t *testing.T) {
	options, _ := testOptions()
	s, err := NewDefaultSpriteShader(options)
	require.NoError(t, err)
	s.Destroy()
	assert.Nil(t, s.Program())
	assert.NotPanics(t, s.Destroy)
}
