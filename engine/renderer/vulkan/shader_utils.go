package vulkan

import (
	"encoding/binary"
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/gef/engine/core"
)

/**
 * @brief Represents a single shader stage.
 */
type VulkanShaderStage struct {
	/** @brief The internal shader module Handle. */
	Handle vk.ShaderModule
	/** @brief The pipeline shader stage creation info. */
	ShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
}

// spirvWords reinterprets a SPIR-V binary as the words the driver expects.
func spirvWords(code []byte) ([]uint32, error) {
	if len(code) == 0 {
		return nil, fmt.Errorf("empty SPIR-V binary")
	}
	if len(code)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V binary size %d is not a multiple of 4", len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	if words[0] != spirvMagic {
		return nil, fmt.Errorf("bad SPIR-V magic 0x%08x", words[0])
	}
	return words, nil
}

// NewShaderModule builds the module for one stage of program name. Failures
// wrap core.ErrShaderCompile.
func NewShaderModule(context *VulkanContext, name string, typeStr string, code []byte, shaderStageFlag vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	words, err := spirvWords(code)
	if err != nil {
		core.LogError("shader '%s' %s stage: %s", name, typeStr, err)
		return nil, fmt.Errorf("shader '%s' %s stage: %s: %w", name, typeStr, err, core.ErrShaderCompile)
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code)),
		PCode:    words,
	}

	stage := &VulkanShaderStage{}
	if err := lockPool.SafeCall(ShaderManagement, func() error {
		var module vk.ShaderModule
		if res := vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &module); res != vk.Success {
			return vulkanError("vkCreateShaderModule", res)
		}
		stage.Handle = module
		return nil
	}); err != nil {
		core.LogError("shader '%s' %s stage: %s", name, typeStr, err)
		return nil, fmt.Errorf("shader '%s' %s stage: %s: %w", name, typeStr, err, core.ErrShaderCompile)
	}

	entryPoint := VertexEntryPoint
	if shaderStageFlag == vk.ShaderStageFragmentBit {
		entryPoint = FragmentEntryPoint
	}
	stage.ShaderStageCreateInfo = vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  shaderStageFlag,
		Module: stage.Handle,
		PName:  VulkanSafeString(entryPoint),
	}
	return stage, nil
}

func (s *VulkanShaderStage) Destroy(context *VulkanContext) {
	if s.Handle != nil {
		vk.DestroyShaderModule(context.Device.LogicalDevice, s.Handle, context.Allocator)
		s.Handle = nil
	}
}
