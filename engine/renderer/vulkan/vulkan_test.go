package vulkan

import (
	"encoding/binary"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/gef/engine/renderer/gpu"
	"github.com/spaghettifunk/gef/engine/renderer/layout"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spirv(words ...uint32) []byte {
	out := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

func TestSpirvWords(t *testing.T) {
	words, err := spirvWords(spirv(spirvMagic, 0x00010300, 7))
	require.NoError(t, err)
	assert.Equal(t, []uint32{spirvMagic, 0x00010300, 7}, words)

	_, err = spirvWords(nil)
	assert.Error(t, err)
	_, err = spirvWords([]byte{0x03, 0x02, 0x23})
	assert.Error(t, err)
	_, err = spirvWords(spirv(0xdeadbeef))
	assert.Error(t, err)
}

func litInterface() *layout.ShaderInterface {
	b := layout.NewBuilder()
	b.AddVertexVariable("world", layout.VariableTypeMatrix44, 1)
	b.AddPixelVariable("diffuse", layout.VariableTypeVector4, 1)
	b.AddVertexParameter("position", layout.VariableTypeVector3, 0, "POSITION", 0)
	b.AddVertexParameter("normal", layout.VariableTypeVector3, 12, "NORMAL", 0)
	b.AddVertexParameter("texcoord", layout.VariableTypeVector2, 24, "TEXCOORD", 0)
	b.AddVertexParameter("bones", layout.VariableTypeUByte4, 32, "BLENDINDICES", 0)
	b.SetVertexSize(36)
	b.AddTextureSampler("diffuse_map", metadata.TextureUseMapDiffuse)
	b.AddTextureSampler("normal_map", metadata.TextureUseMapNormal)
	return b.AllocateVariableData()
}

func TestVertexAttributes(t *testing.T) {
	attrs, err := vertexAttributes(litInterface())
	require.NoError(t, err)
	require.Len(t, attrs, 4)

	assert.Equal(t, vk.FormatR32g32b32Sfloat, attrs[0].Format)
	assert.Equal(t, uint32(0), attrs[0].Offset)
	assert.Equal(t, uint32(1), attrs[1].Location)
	assert.Equal(t, uint32(12), attrs[1].Offset)
	assert.Equal(t, vk.FormatR32g32Sfloat, attrs[2].Format)
	assert.Equal(t, vk.FormatR32Uint, attrs[3].Format)
	assert.Equal(t, uint32(32), attrs[3].Offset)
	for _, a := range attrs {
		assert.Equal(t, uint32(0), a.Binding)
	}
}

func TestVertexAttributesRejectOverflow(t *testing.T) {
	b := layout.NewBuilder()
	b.AddVertexParameter("position", layout.VariableTypeVector3, 8, "POSITION", 0)
	b.SetVertexSize(12)
	_, err := vertexAttributes(b.AllocateVariableData())
	assert.Error(t, err)
}

func TestDescriptorConfigSkipsEmptyStages(t *testing.T) {
	config, err := NewDescriptorSetConfig(litInterface())
	require.NoError(t, err)

	assert.Equal(t, int32(0), config.UniformBindings[layout.StageVertex])
	assert.Equal(t, int32(1), config.UniformBindings[layout.StagePixel])
	assert.Equal(t, int32(-1), config.UniformBindings[layout.StageLight])
	assert.Equal(t, uint32(2), config.UniformCount())
	assert.Equal(t, uint32(2), config.SamplerCount)

	require.Len(t, config.Bindings, 4)
	assert.Equal(t, vk.DescriptorTypeUniformBufferDynamic, config.Bindings[0].DescriptorType)
	assert.Equal(t, VULKAN_SAMPLER_BINDING_START, config.Bindings[2].Binding)
	assert.Equal(t, VULKAN_SAMPLER_BINDING_START+1, config.Bindings[3].Binding)
	assert.Equal(t, vk.DescriptorTypeCombinedImageSampler, config.Bindings[3].DescriptorType)

	sizes := config.poolSizes(8)
	require.Len(t, sizes, 2)
	assert.Equal(t, uint32(16), sizes[0].DescriptorCount)
	assert.Equal(t, uint32(16), sizes[1].DescriptorCount)
}

func TestDescriptorConfigLightStageVisibleToBothStages(t *testing.T) {
	b := layout.NewBuilder()
	b.AddLightVariable("lights", layout.VariableTypeLight, metadata.MaxLights)
	config, err := NewDescriptorSetConfig(b.AllocateVariableData())
	require.NoError(t, err)

	require.Len(t, config.Bindings, 1)
	assert.Equal(t, uint32(layout.StageLight), config.Bindings[0].Binding)
	assert.Equal(t, vk.ShaderStageFlags(vk.ShaderStageVertexBit|vk.ShaderStageFragmentBit), config.Bindings[0].StageFlags)
}

func TestDescriptorConfigSamplerLimit(t *testing.T) {
	b := layout.NewBuilder()
	for i := 0; i <= VULKAN_MAX_SAMPLERS; i++ {
		b.AddTextureSampler("map", metadata.TextureUseMapDiffuse)
	}
	_, err := NewDescriptorSetConfig(b.AllocateVariableData())
	assert.Error(t, err)
}

func TestClearAttachments(t *testing.T) {
	assert.Empty(t, clearAttachments(gpu.ClearOptions{}, true))

	all := gpu.ClearOptions{Flags: gpu.ClearColour | gpu.ClearDepth | gpu.ClearStencil, Depth: 1}
	attachments := clearAttachments(all, true)
	require.Len(t, attachments, 2)
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectColorBit), attachments[0].AspectMask)
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectDepthBit|vk.ImageAspectStencilBit), attachments[1].AspectMask)

	attachments = clearAttachments(all, false)
	require.Len(t, attachments, 2)
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectDepthBit), attachments[1].AspectMask)

	attachments = clearAttachments(gpu.ClearOptions{Flags: gpu.ClearStencil}, false)
	assert.Empty(t, attachments)
}

func TestPipelineStateMapping(t *testing.T) {
	assert.Equal(t, vk.PolygonModeFill, polygonMode(gpu.FillModeSolid))
	assert.Equal(t, vk.PolygonModeLine, polygonMode(gpu.FillModeWireframe))
	assert.Equal(t, vk.PolygonModeFill, polygonMode(gpu.FillModeLines))

	assert.Equal(t, vk.PrimitiveTopologyTriangleList, primitiveTopology(gpu.FillModeSolid))
	assert.Equal(t, vk.PrimitiveTopologyTriangleList, primitiveTopology(gpu.FillModeWireframe))
	assert.Equal(t, vk.PrimitiveTopologyLineList, primitiveTopology(gpu.FillModeLines))

	assert.Equal(t, vk.CompareOpLessOrEqual, depthCompareOp(gpu.DepthTestLessEqual))
	assert.Equal(t, vk.CompareOpAlways, depthCompareOp(gpu.DepthTestAlways))
}

func TestSelectQueueFamily(t *testing.T) {
	req := &VulkanPhysicalDeviceRequirements{Graphics: true, Transfer: true}
	families := []vk.QueueFlags{
		vk.QueueFlags(vk.QueueTransferBit),
		vk.QueueFlags(vk.QueueComputeBit),
		vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit),
	}
	assert.Equal(t, int32(2), selectQueueFamily(families, req))
	assert.Equal(t, int32(-1), selectQueueFamily(families[:2], req))
	assert.Equal(t, int32(0), selectQueueFamily(families, &VulkanPhysicalDeviceRequirements{Transfer: true}))
}

func TestResultStrings(t *testing.T) {
	assert.Equal(t, "VK_SUCCESS", VulkanResultString(vk.Success, false))
	assert.Contains(t, VulkanResultString(vk.ErrorDeviceLost, true), "device has been lost")
	assert.Equal(t, "VkResult(-424242)", VulkanResultString(vk.Result(-424242), false))
	assert.True(t, VulkanResultIsSuccess(vk.Timeout))
	assert.False(t, VulkanResultIsSuccess(vk.ErrorOutOfHostMemory))
}

func TestEncodeIndices(t *testing.T) {
	data := encodeIndices([]uint32{0, 1, 65536})
	require.Len(t, data, 12)
	assert.Equal(t, uint32(65536), binary.LittleEndian.Uint32(data[8:]))
}

func TestFindFirstZero(t *testing.T) {
	assert.Equal(t, 3, FindFirstZeroInByteArray([]byte{'a', 'b', 'c', 0, 'd'}))
	assert.Equal(t, 2, FindFirstZeroInByteArray([]byte{'a', 'b'}))
}
