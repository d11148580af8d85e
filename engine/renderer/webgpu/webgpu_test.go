package webgpu

import (
	"encoding/binary"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/spaghettifunk/gef/engine/renderer/gpu"
	"github.com/spaghettifunk/gef/engine/renderer/layout"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spriteInterface() *layout.ShaderInterface {
	b := layout.NewBuilder()
	b.AddVertexVariable("view_projection", layout.VariableTypeMatrix44, 1)
	b.AddPixelVariable("tint", layout.VariableTypeVector4, 1)
	b.AddLightVariable("ambient", layout.VariableTypeVector4, 1)
	b.AddVertexParameter("position", layout.VariableTypeVector3, 0, "POSITION", 0)
	b.AddVertexParameter("texcoord", layout.VariableTypeVector2, 12, "TEXCOORD", 0)
	b.SetVertexSize(20)
	b.AddTextureSampler("diffuse_map", metadata.TextureUseMapDiffuse)
	b.AddTextureSampler("normal_map", metadata.TextureUseMapNormal)
	return b.AllocateVariableData()
}

func TestVertexBufferLayout(t *testing.T) {
	vbl, err := vertexBufferLayout(spriteInterface())
	require.NoError(t, err)

	assert.Equal(t, uint64(20), vbl.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeVertex, vbl.StepMode)
	require.Len(t, vbl.Attributes, 2)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, vbl.Attributes[0].Format)
	assert.Equal(t, uint32(1), vbl.Attributes[1].ShaderLocation)
	assert.Equal(t, uint64(12), vbl.Attributes[1].Offset)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, vbl.Attributes[1].Format)
}

func TestVertexBufferLayoutRejectsBadParameters(t *testing.T) {
	b := layout.NewBuilder()
	b.AddVertexParameter("weights", layout.VariableTypeMatrix44, 0, "BLENDWEIGHT", 0)
	b.SetVertexSize(64)
	_, err := vertexBufferLayout(b.AllocateVariableData())
	assert.Error(t, err)
}

func TestBindGroupLayoutEntries(t *testing.T) {
	entries := bindGroupLayoutEntries(spriteInterface())
	require.Len(t, entries, 7)

	for i, stage := range layout.Stages {
		assert.Equal(t, uint32(stage), entries[i].Binding)
		assert.Equal(t, wgpu.BufferBindingTypeUniform, entries[i].Buffer.Type)
		assert.True(t, entries[i].Buffer.HasDynamicOffset)
	}
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, entries[2].Visibility)
	assert.Equal(t, uint64(16), entries[1].Buffer.MinBindingSize)

	assert.Equal(t, TextureBindingStart, entries[3].Binding)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, entries[3].Texture.SampleType)
	assert.Equal(t, TextureBindingStart+1, entries[4].Binding)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, entries[4].Sampler.Type)
	assert.Equal(t, TextureBindingStart+3, entries[6].Binding)
}

func TestBindGroupLayoutSkipsEmptyStages(t *testing.T) {
	b := layout.NewBuilder()
	b.AddPixelVariable("colour", layout.VariableTypeVector4, 1)
	entries := bindGroupLayoutEntries(b.AllocateVariableData())
	require.Len(t, entries, 1)
	assert.Equal(t, uint32(layout.StagePixel), entries[0].Binding)
	assert.Equal(t, wgpu.ShaderStageFragment, entries[0].Visibility)
}

func TestLoadOps(t *testing.T) {
	colour, depth, stencil := loadOps(gpu.ClearOptions{Flags: gpu.ClearColour | gpu.ClearDepth})
	assert.Equal(t, wgpu.LoadOpClear, colour)
	assert.Equal(t, wgpu.LoadOpClear, depth)
	assert.Equal(t, wgpu.LoadOpLoad, stencil)

	colour, depth, stencil = loadOps(gpu.ClearOptions{})
	assert.Equal(t, wgpu.LoadOpLoad, colour)
	assert.Equal(t, wgpu.LoadOpLoad, depth)
	assert.Equal(t, wgpu.LoadOpLoad, stencil)
}

func TestPipelineStateMapping(t *testing.T) {
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, primitiveTopology(gpu.FillModeSolid))
	assert.Equal(t, wgpu.PrimitiveTopologyLineList, primitiveTopology(gpu.FillModeLines))
	assert.Equal(t, wgpu.CompareFunctionLessEqual, depthCompare(gpu.DepthTestLessEqual))
	assert.Equal(t, wgpu.CompareFunctionAlways, depthCompare(gpu.DepthTestAlways))
}

func TestRowPadding(t *testing.T) {
	assert.Equal(t, uint32(256), paddedRowSize(1))
	assert.Equal(t, uint32(256), paddedRowSize(64))
	assert.Equal(t, uint32(512), paddedRowSize(65))

	width, height := uint32(2), uint32(3)
	padded := paddedRowSize(width)
	data := make([]byte, padded*height)
	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width*4; x++ {
			data[y*padded+x] = byte(y*10 + x)
		}
	}
	out := unpadRows(data, width, height, padded)
	require.Len(t, out, 24)
	assert.Equal(t, byte(0), out[0])
	assert.Equal(t, byte(17), out[15])
	assert.Equal(t, byte(27), out[23])
}

func TestEncodeIndices(t *testing.T) {
	data := encodeIndices([]uint32{3, 1 << 20})
	require.Len(t, data, 8)
	assert.Equal(t, uint32(1<<20), binary.LittleEndian.Uint32(data[4:]))
}
