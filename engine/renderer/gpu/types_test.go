package gpu

import (
	"testing"

	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/renderer/layout"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	texture, normal *metadata.Texture
}

func (f fakeProvider) DefaultTexture() *metadata.Texture       { return f.texture }
func (f fakeProvider) DefaultNormalTexture() *metadata.Texture { return f.normal }

func TestResolveTextureFallbacks(t *testing.T) {
	bound := &metadata.Texture{Name: "bound"}
	def := &metadata.Texture{Name: metadata.DEFAULT_TEXTURE_NAME}
	norm := &metadata.Texture{Name: metadata.DEFAULT_NORMAL_TEXTURE_NAME}
	provider := fakeProvider{texture: def, normal: norm}

	tests := []struct {
		name     string
		sampler  layout.TextureSampler
		provider TextureProvider
		want     *metadata.Texture
	}{
		{"bound wins", layout.TextureSampler{Role: metadata.TextureUseMapNormal, Texture: bound}, provider, bound},
		{"normal slot", layout.TextureSampler{Role: metadata.TextureUseMapNormal}, provider, norm},
		{"diffuse slot", layout.TextureSampler{Role: metadata.TextureUseMapDiffuse}, provider, def},
		{"normal without default normal", layout.TextureSampler{Role: metadata.TextureUseMapNormal}, fakeProvider{texture: def}, def},
		{"no provider", layout.TextureSampler{}, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Same(t, tt.want, ResolveTexture(tt.sampler, tt.provider))
		})
	}
}

func TestParseBackendType(t *testing.T) {
	b, err := ParseBackendType(" WebGPU ")
	require.NoError(t, err)
	assert.Equal(t, BackendWebGPU, b)

	_, err = ParseBackendType("d3d11")
	assert.ErrorIs(t, err, core.ErrUnknownBackend)
}

func TestParseRenderState(t *testing.T) {
	fm, err := ParseFillMode("wireframe")
	require.NoError(t, err)
	assert.Equal(t, FillModeWireframe, fm)
	_, err = ParseFillMode("points")
	assert.ErrorIs(t, err, core.ErrConfig)

	dt, err := ParseDepthTest("always")
	require.NoError(t, err)
	assert.Equal(t, DepthTestAlways, dt)
}
