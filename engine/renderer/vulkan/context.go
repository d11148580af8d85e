package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/gef/engine/core"
)

type VulkanContext struct {
	// The offscreen target's width.
	FramebufferWidth uint32
	// The offscreen target's height.
	FramebufferHeight uint32

	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks

	Device *VulkanDevice

	ColourTarget   *VulkanImage
	DepthTarget    *VulkanImage
	MainRenderpass *VulkanRenderpass
	Framebuffer    *VulkanFramebuffer

	GraphicsCommandBuffer *VulkanCommandBuffer
	InFlightFence         *VulkanFence
}

func (vc *VulkanContext) FindMemoryIndex(typeFilter, propertyFlags uint32) int32 {
	memoryProperties := vc.Device.Memory
	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		// Check each memory type to see if its bit is set to 1.
		memoryType := memoryProperties.MemoryTypes[i]
		memoryType.Deref()
		if (typeFilter&(1<<i)) != 0 && (uint32(memoryType.PropertyFlags)&propertyFlags) == propertyFlags {
			return int32(i)
		}
	}
	core.LogWarn("Unable to find suitable memory type!")
	return -1
}
