package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

/**
 * @brief A buffer and its dedicated memory allocation.
 */
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	/** @brief The size of the buffer in bytes. */
	TotalSize uint64
	Usage     vk.BufferUsageFlagBits
	/** @brief The memory property flags the allocation was made with. */
	MemoryPropertyFlags uint32
}

const hostVisibleCoherent = uint32(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)

func NewVulkanBuffer(context *VulkanContext, size uint64, usage vk.BufferUsageFlagBits, memoryPropertyFlags uint32) (*VulkanBuffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("cannot create an empty buffer")
	}
	outBuffer := &VulkanBuffer{
		TotalSize:           size,
		Usage:               usage,
		MemoryPropertyFlags: memoryPropertyFlags,
	}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}

	err := lockPool.SafeCall(BufferManagement, func() error {
		var handle vk.Buffer
		if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferInfo, context.Allocator, &handle); res != vk.Success {
			return vulkanError("vkCreateBuffer", res)
		}
		outBuffer.Handle = handle

		var requirements vk.MemoryRequirements
		vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, handle, &requirements)
		requirements.Deref()

		memoryIndex := context.FindMemoryIndex(requirements.MemoryTypeBits, memoryPropertyFlags)
		if memoryIndex == -1 {
			return fmt.Errorf("unable to create vulkan buffer because the required memory type index was not found")
		}

		allocateInfo := vk.MemoryAllocateInfo{
			SType:           vk.StructureTypeMemoryAllocateInfo,
			AllocationSize:  requirements.Size,
			MemoryTypeIndex: uint32(memoryIndex),
		}
		var memory vk.DeviceMemory
		if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory); res != vk.Success {
			return vulkanError("vkAllocateMemory", res)
		}
		outBuffer.Memory = memory

		if res := vk.BindBufferMemory(context.Device.LogicalDevice, handle, memory, 0); res != vk.Success {
			return vulkanError("vkBindBufferMemory", res)
		}
		return nil
	})
	if err != nil {
		outBuffer.Destroy(context)
		return nil, err
	}
	return outBuffer, nil
}

// LoadData copies data into the buffer at offset. The buffer must be host
// visible.
func (b *VulkanBuffer) LoadData(context *VulkanContext, offset uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if offset+uint64(len(data)) > b.TotalSize {
		return fmt.Errorf("write of %d bytes at %d overflows a %d byte buffer", len(data), offset, b.TotalSize)
	}
	var mapped unsafe.Pointer
	if res := vk.MapMemory(context.Device.LogicalDevice, b.Memory, vk.DeviceSize(offset), vk.DeviceSize(len(data)), 0, &mapped); res != vk.Success {
		return vulkanError("vkMapMemory", res)
	}
	vk.Memcopy(mapped, data)
	vk.UnmapMemory(context.Device.LogicalDevice, b.Memory)
	return nil
}

// ReadData copies size bytes from the start of a host visible buffer.
func (b *VulkanBuffer) ReadData(context *VulkanContext, size uint64) ([]byte, error) {
	var mapped unsafe.Pointer
	if res := vk.MapMemory(context.Device.LogicalDevice, b.Memory, 0, vk.DeviceSize(size), 0, &mapped); res != vk.Success {
		return nil, vulkanError("vkMapMemory", res)
	}
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(mapped), size))
	vk.UnmapMemory(context.Device.LogicalDevice, b.Memory)
	return out, nil
}

func (b *VulkanBuffer) Destroy(context *VulkanContext) {
	_ = lockPool.SafeCall(BufferManagement, func() error {
		if b.Memory != nil {
			vk.FreeMemory(context.Device.LogicalDevice, b.Memory, context.Allocator)
			b.Memory = nil
		}
		if b.Handle != nil {
			vk.DestroyBuffer(context.Device.LogicalDevice, b.Handle, context.Allocator)
			b.Handle = nil
		}
		return nil
	})
	b.TotalSize = 0
}
