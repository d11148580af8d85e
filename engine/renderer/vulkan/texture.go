package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

/**
 * @brief Backend data stored in metadata.Texture.InternalData.
 */
type VulkanTextureData struct {
	Image   *VulkanImage
	Sampler vk.Sampler
}

const textureFormat = vk.FormatR8g8b8a8Unorm

func (vr *VulkanRenderer) CreateTexture(img *metadata.Image, texture *metadata.Texture) error {
	if img == nil || texture == nil {
		return fmt.Errorf("nil image or texture: %w", core.ErrInvalidTexture)
	}
	if img.Width == 0 || img.Height == 0 || uint32(len(img.Pixels)) != img.Width*img.Height*4 {
		return fmt.Errorf("image '%s' is %dx%d with %d bytes: %w", img.Name, img.Width, img.Height, len(img.Pixels), core.ErrInvalidTexture)
	}
	context := vr.context

	staging, err := NewVulkanBuffer(context, uint64(len(img.Pixels)), vk.BufferUsageTransferSrcBit, hostVisibleCoherent)
	if err != nil {
		return err
	}
	defer staging.Destroy(context)
	if err := staging.LoadData(context, 0, img.Pixels); err != nil {
		return err
	}

	image, err := NewVulkanImage(context, img.Width, img.Height, textureFormat,
		vk.ImageUsageTransferSrcBit|vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit,
		uint32(vk.MemoryPropertyDeviceLocalBit), vk.ImageAspectColorBit)
	if err != nil {
		return err
	}

	if err := vr.singleUse(func(cb *VulkanCommandBuffer) error {
		if err := image.TransitionLayout(cb, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
			return err
		}
		image.CopyFromBuffer(staging, cb)
		return image.TransitionLayout(cb, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	}); err != nil {
		image.Destroy(context)
		return err
	}

	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
	}
	var sampler vk.Sampler
	if res := vk.CreateSampler(context.Device.LogicalDevice, &samplerInfo, context.Allocator, &sampler); res != vk.Success {
		image.Destroy(context)
		return vulkanError("vkCreateSampler", res)
	}

	// Replace any previous upload.
	vr.DestroyTexture(texture)
	texture.Width = img.Width
	texture.Height = img.Height
	texture.ChannelCount = 4
	texture.Generation++
	texture.InternalData = &VulkanTextureData{Image: image, Sampler: sampler}
	return nil
}

func (vr *VulkanRenderer) DestroyTexture(texture *metadata.Texture) {
	if texture == nil {
		return
	}
	data, ok := texture.InternalData.(*VulkanTextureData)
	if !ok {
		return
	}
	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)
	if data.Sampler != nil {
		vk.DestroySampler(vr.context.Device.LogicalDevice, data.Sampler, vr.context.Allocator)
	}
	data.Image.Destroy(vr.context)
	texture.InternalData = nil
}

// singleUse records fn into a one-off command buffer and waits for it.
func (vr *VulkanRenderer) singleUse(fn func(cb *VulkanCommandBuffer) error) error {
	pool := vr.context.Device.GraphicsCommandPool
	cb, err := AllocateAndBeginSingleUse(vr.context, pool)
	if err != nil {
		return err
	}
	if err := fn(cb); err != nil {
		_ = cb.End()
		cb.Free(vr.context, pool)
		return err
	}
	return cb.EndSingleUse(vr.context, pool, vr.context.Device.GraphicsQueue)
}
