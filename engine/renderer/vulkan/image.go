package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

type VulkanImage struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Width  uint32
	Height uint32
	Format vk.Format
	Aspect vk.ImageAspectFlagBits
}

func NewVulkanImage(context *VulkanContext, width, height uint32, format vk.Format, usage vk.ImageUsageFlagBits, memoryFlags uint32, aspect vk.ImageAspectFlagBits) (*VulkanImage, error) {
	outImage := &VulkanImage{
		Width:  width,
		Height: height,
		Format: format,
		Aspect: aspect,
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    format,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	err := lockPool.SafeCall(ImageManagement, func() error {
		var handle vk.Image
		if res := vk.CreateImage(context.Device.LogicalDevice, &imageCreateInfo, context.Allocator, &handle); res != vk.Success {
			return vulkanError("vkCreateImage", res)
		}
		outImage.Handle = handle

		var requirements vk.MemoryRequirements
		vk.GetImageMemoryRequirements(context.Device.LogicalDevice, handle, &requirements)
		requirements.Deref()

		memoryIndex := context.FindMemoryIndex(requirements.MemoryTypeBits, memoryFlags)
		if memoryIndex == -1 {
			return fmt.Errorf("required memory type not found, image not valid")
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
		outImage.Memory = memory

		if res := vk.BindImageMemory(context.Device.LogicalDevice, handle, memory, 0); res != vk.Success {
			return vulkanError("vkBindImageMemory", res)
		}

		viewCreateInfo := vk.ImageViewCreateInfo{
			SType:            vk.StructureTypeImageViewCreateInfo,
			Image:            handle,
			ViewType:         vk.ImageViewType2d,
			Format:           format,
			SubresourceRange: outImage.subresourceRange(),
		}
		var view vk.ImageView
		if res := vk.CreateImageView(context.Device.LogicalDevice, &viewCreateInfo, context.Allocator, &view); res != vk.Success {
			return vulkanError("vkCreateImageView", res)
		}
		outImage.View = view
		return nil
	})
	if err != nil {
		outImage.Destroy(context)
		return nil, err
	}
	return outImage, nil
}

func (image *VulkanImage) subresourceRange() vk.ImageSubresourceRange {
	return vk.ImageSubresourceRange{
		AspectMask:     vk.ImageAspectFlags(image.Aspect),
		BaseMipLevel:   0,
		LevelCount:     1,
		BaseArrayLayer: 0,
		LayerCount:     1,
	}
}

// TransitionLayout records a barrier moving the image between layouts. Only
// the transitions this backend performs are supported.
func (image *VulkanImage) TransitionLayout(commandBuffer *VulkanCommandBuffer, oldLayout, newLayout vk.ImageLayout) error {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image.Handle,
		SubresourceRange:    image.subresourceRange(),
	}

	var sourceStage, destStage vk.PipelineStageFlagBits
	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		sourceStage = vk.PipelineStageTopOfPipeBit
		destStage = vk.PipelineStageTransferBit
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		sourceStage = vk.PipelineStageTransferBit
		destStage = vk.PipelineStageFragmentShaderBit
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferSrcOptimal:
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferReadBit)
		sourceStage = vk.PipelineStageTopOfPipeBit
		destStage = vk.PipelineStageTransferBit
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutDepthStencilAttachmentOptimal:
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit)
		sourceStage = vk.PipelineStageTopOfPipeBit
		destStage = vk.PipelineStageEarlyFragmentTestsBit
	default:
		return fmt.Errorf("unsupported layout transition %d -> %d", oldLayout, newLayout)
	}

	vk.CmdPipelineBarrier(commandBuffer.Handle,
		vk.PipelineStageFlags(sourceStage),
		vk.PipelineStageFlags(destStage),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	return nil
}

func (image *VulkanImage) copyRegion() vk.BufferImageCopy {
	return vk.BufferImageCopy{
		BufferOffset:      0,
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(image.Aspect),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
		ImageExtent: vk.Extent3D{Width: image.Width, Height: image.Height, Depth: 1},
	}
}

// CopyFromBuffer records a copy of the whole buffer into the image, which must
// be in the transfer destination layout.
func (image *VulkanImage) CopyFromBuffer(buffer *VulkanBuffer, commandBuffer *VulkanCommandBuffer) {
	vk.CmdCopyBufferToImage(commandBuffer.Handle, buffer.Handle, image.Handle, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{image.copyRegion()})
}

// CopyToBuffer records a copy of the image, in the transfer source layout,
// into buffer.
func (image *VulkanImage) CopyToBuffer(buffer *VulkanBuffer, commandBuffer *VulkanCommandBuffer) {
	vk.CmdCopyImageToBuffer(commandBuffer.Handle, image.Handle, vk.ImageLayoutTransferSrcOptimal, buffer.Handle, 1, []vk.BufferImageCopy{image.copyRegion()})
}

func (image *VulkanImage) Destroy(context *VulkanContext) {
	_ = lockPool.SafeCall(ImageManagement, func() error {
		if image.View != nil {
			vk.DestroyImageView(context.Device.LogicalDevice, image.View, context.Allocator)
			image.View = nil
		}
		if image.Memory != nil {
			vk.FreeMemory(context.Device.LogicalDevice, image.Memory, context.Allocator)
			image.Memory = nil
		}
		if image.Handle != nil {
			vk.DestroyImage(context.Device.LogicalDevice, image.Handle, context.Allocator)
			image.Handle = nil
		}
		return nil
	})
}
