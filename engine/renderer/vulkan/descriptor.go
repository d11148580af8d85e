package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/gef/engine/renderer/layout"
)

/**
 * @brief The configuration for a program's descriptor set: one dynamic
 * uniform buffer per stage with data, then one combined image sampler per
 * texture slot.
 */
type VulkanDescriptorSetConfig struct {
	/** @brief An array of binding layouts for this set. */
	Bindings []vk.DescriptorSetLayoutBinding
	/** @brief The binding of each stage's uniform block, -1 when the stage is empty. */
	UniformBindings [len(layout.Stages)]int32
	/** @brief The binding of the first sampler. */
	SamplerBindingStart uint32
	SamplerCount        uint32
}

func stageFlags(stage layout.Stage) vk.ShaderStageFlagBits {
	switch stage {
	case layout.StageVertex:
		return vk.ShaderStageVertexBit
	case layout.StagePixel:
		return vk.ShaderStageFragmentBit
	}
	// Lights are visible to both stages.
	return vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit
}

func NewDescriptorSetConfig(si *layout.ShaderInterface) (VulkanDescriptorSetConfig, error) {
	config := VulkanDescriptorSetConfig{SamplerBindingStart: VULKAN_SAMPLER_BINDING_START}
	for _, stage := range layout.Stages {
		config.UniformBindings[stage] = -1
		if si.DataSize(stage) == 0 {
			continue
		}
		config.UniformBindings[stage] = int32(stage)
		config.Bindings = append(config.Bindings, vk.DescriptorSetLayoutBinding{
			Binding:         uint32(stage),
			DescriptorType:  vk.DescriptorTypeUniformBufferDynamic,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(stageFlags(stage)),
		})
	}

	samplers := si.TextureSamplers()
	if len(samplers) > VULKAN_MAX_SAMPLERS {
		return config, fmt.Errorf("%d samplers declared, at most %d are supported", len(samplers), VULKAN_MAX_SAMPLERS)
	}
	for i := range samplers {
		config.Bindings = append(config.Bindings, vk.DescriptorSetLayoutBinding{
			Binding:         VULKAN_SAMPLER_BINDING_START + uint32(i),
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		})
	}
	config.SamplerCount = uint32(len(samplers))
	return config, nil
}

// UniformCount is the number of dynamic offsets a bind of this set takes.
func (c VulkanDescriptorSetConfig) UniformCount() uint32 {
	var n uint32
	for _, b := range c.UniformBindings {
		if b >= 0 {
			n++
		}
	}
	return n
}

// poolSizes sizes a pool that can hold maxSets sets of this configuration.
func (c VulkanDescriptorSetConfig) poolSizes(maxSets uint32) []vk.DescriptorPoolSize {
	var sizes []vk.DescriptorPoolSize
	if n := c.UniformCount(); n > 0 {
		sizes = append(sizes, vk.DescriptorPoolSize{Type: vk.DescriptorTypeUniformBufferDynamic, DescriptorCount: n * maxSets})
	}
	if c.SamplerCount > 0 {
		sizes = append(sizes, vk.DescriptorPoolSize{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: c.SamplerCount * maxSets})
	}
	return sizes
}

/**
 * @brief Per program descriptor state. One set is allocated per draw and the
 * whole pool is recycled at the start of every frame.
 */
type VulkanDescriptorState struct {
	Config VulkanDescriptorSetConfig
	Layout vk.DescriptorSetLayout
	Pool   vk.DescriptorPool
	// MaxSets is the number of draws a frame can record.
	MaxSets uint32
	used    uint32
}

func NewDescriptorState(context *VulkanContext, config VulkanDescriptorSetConfig, maxSets uint32) (*VulkanDescriptorState, error) {
	state := &VulkanDescriptorState{Config: config, MaxSets: maxSets}

	err := lockPool.SafeCall(DescriptorManagement, func() error {
		var setLayout vk.DescriptorSetLayout
		if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &vk.DescriptorSetLayoutCreateInfo{
			SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
			BindingCount: uint32(len(config.Bindings)),
			PBindings:    config.Bindings,
		}, context.Allocator, &setLayout); res != vk.Success {
			return vulkanError("vkCreateDescriptorSetLayout", res)
		}
		state.Layout = setLayout

		sizes := config.poolSizes(maxSets)
		if len(sizes) == 0 {
			return nil
		}
		var pool vk.DescriptorPool
		if res := vk.CreateDescriptorPool(context.Device.LogicalDevice, &vk.DescriptorPoolCreateInfo{
			SType:         vk.StructureTypeDescriptorPoolCreateInfo,
			MaxSets:       maxSets,
			PoolSizeCount: uint32(len(sizes)),
			PPoolSizes:    sizes,
		}, context.Allocator, &pool); res != vk.Success {
			return vulkanError("vkCreateDescriptorPool", res)
		}
		state.Pool = pool
		return nil
	})
	if err != nil {
		state.Destroy(context)
		return nil, err
	}
	return state, nil
}

// Allocate returns a fresh set for the next draw.
func (s *VulkanDescriptorState) Allocate(context *VulkanContext) (vk.DescriptorSet, error) {
	if s.Pool == nil {
		return nil, nil
	}
	if s.used >= s.MaxSets {
		return nil, fmt.Errorf("more than %d draws recorded this frame", s.MaxSets)
	}
	var set vk.DescriptorSet
	if res := vk.AllocateDescriptorSets(context.Device.LogicalDevice, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     s.Pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{s.Layout},
	}, &set); res != vk.Success {
		return nil, vulkanError("vkAllocateDescriptorSets", res)
	}
	s.used++
	return set, nil
}

// Reset returns every set allocated this frame to the pool.
func (s *VulkanDescriptorState) Reset(context *VulkanContext) {
	if s.Pool != nil && s.used > 0 {
		vk.ResetDescriptorPool(context.Device.LogicalDevice, s.Pool, 0)
	}
	s.used = 0
}

func (s *VulkanDescriptorState) Destroy(context *VulkanContext) {
	_ = lockPool.SafeCall(DescriptorManagement, func() error {
		if s.Pool != nil {
			vk.DestroyDescriptorPool(context.Device.LogicalDevice, s.Pool, context.Allocator)
			s.Pool = nil
		}
		if s.Layout != nil {
			vk.DestroyDescriptorSetLayout(context.Device.LogicalDevice, s.Layout, context.Allocator)
			s.Layout = nil
		}
		return nil
	})
}
