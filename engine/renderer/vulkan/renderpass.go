package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/gef/engine/renderer/gpu"
)

/**
 * @brief The single render pass of the offscreen target. Both attachments are
 * loaded rather than cleared so a frame that skips a clear keeps the
 * previous contents; clears are recorded explicitly inside the pass.
 */
type VulkanRenderpass struct {
	Handle     vk.RenderPass
	X, Y, W, H float32
}

func RenderpassCreate(context *VulkanContext, x, y, w, h float32) (*VulkanRenderpass, error) {
	outRenderpass := &VulkanRenderpass{X: x, Y: y, W: w, H: h}

	colorAttachment := vk.AttachmentDescription{
		Format:         context.ColourTarget.Format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpLoad,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		// The target sits in the transfer source layout between frames so it
		// can be read back.
		InitialLayout: vk.ImageLayoutTransferSrcOptimal,
		FinalLayout:   vk.ImageLayoutTransferSrcOptimal,
	}

	stencilLoad := vk.AttachmentLoadOpDontCare
	stencilStore := vk.AttachmentStoreOpDontCare
	if context.Device.DepthHasStencil {
		stencilLoad = vk.AttachmentLoadOpLoad
		stencilStore = vk.AttachmentStoreOpStore
	}
	depthAttachment := vk.AttachmentDescription{
		Format:         context.Device.DepthFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpLoad,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  stencilLoad,
		StencilStoreOp: stencilStore,
		InitialLayout:  vk.ImageLayoutDepthStencilAttachmentOptimal,
		FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	colorAttachmentReference := vk.AttachmentReference{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}
	depthAttachmentReference := vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PColorAttachments:       []vk.AttachmentReference{colorAttachmentReference},
		PDepthStencilAttachment: &depthAttachmentReference,
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageTransferBit | vk.PipelineStageLateFragmentTestsBit),
		SrcAccessMask: vk.AccessFlags(vk.AccessTransferReadBit | vk.AccessDepthStencilAttachmentWriteBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit |
			vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit),
	}

	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 2,
		PAttachments:    []vk.AttachmentDescription{colorAttachment, depthAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var pRenderPass vk.RenderPass
	if res := vk.CreateRenderPass(context.Device.LogicalDevice, &renderpassCreateInfo, context.Allocator, &pRenderPass); res != vk.Success {
		return nil, vulkanError("vkCreateRenderPass", res)
	}
	outRenderpass.Handle = pRenderPass
	return outRenderpass, nil
}

func (vr *VulkanRenderpass) RenderpassDestroy(context *VulkanContext) {
	if vr.Handle != nil {
		vk.DestroyRenderPass(context.Device.LogicalDevice, vr.Handle, context.Allocator)
		vr.Handle = nil
	}
}

func (vr *VulkanRenderpass) renderArea() vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{X: int32(vr.X), Y: int32(vr.Y)},
		Extent: vk.Extent2D{Width: uint32(vr.W), Height: uint32(vr.H)},
	}
}

func (vr *VulkanRenderpass) RenderpassBegin(commandBuffer *VulkanCommandBuffer, frameBuffer vk.Framebuffer) {
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  vr.Handle,
		Framebuffer: frameBuffer,
		RenderArea:  vr.renderArea(),
	}
	vk.CmdBeginRenderPass(commandBuffer.Handle, &beginInfo, vk.SubpassContentsInline)
	commandBuffer.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
}

// RenderpassClear records clears of the attachments selected by clear.
func (vr *VulkanRenderpass) RenderpassClear(commandBuffer *VulkanCommandBuffer, clear gpu.ClearOptions, hasStencil bool) {
	attachments := clearAttachments(clear, hasStencil)
	if len(attachments) == 0 {
		return
	}
	rects := []vk.ClearRect{{Rect: vr.renderArea(), BaseArrayLayer: 0, LayerCount: 1}}
	vk.CmdClearAttachments(commandBuffer.Handle, uint32(len(attachments)), attachments, uint32(len(rects)), rects)
}

func clearAttachments(clear gpu.ClearOptions, hasStencil bool) []vk.ClearAttachment {
	var attachments []vk.ClearAttachment
	if clear.Flags&gpu.ClearColour != 0 {
		c := clear.Colour
		attachments = append(attachments, vk.ClearAttachment{
			AspectMask:      vk.ImageAspectFlags(vk.ImageAspectColorBit),
			ColorAttachment: 0,
			ClearValue:      vk.NewClearValue([]float32{c.R, c.G, c.B, c.A}),
		})
	}
	var aspect vk.ImageAspectFlagBits
	if clear.Flags&gpu.ClearDepth != 0 {
		aspect |= vk.ImageAspectDepthBit
	}
	if clear.Flags&gpu.ClearStencil != 0 && hasStencil {
		aspect |= vk.ImageAspectStencilBit
	}
	if aspect != 0 {
		attachments = append(attachments, vk.ClearAttachment{
			AspectMask: vk.ImageAspectFlags(aspect),
			ClearValue: vk.NewClearDepthStencil(clear.Depth, clear.Stencil),
		})
	}
	return attachments
}

func (vr *VulkanRenderpass) RenderpassEnd(commandBuffer *VulkanCommandBuffer) {
	vk.CmdEndRenderPass(commandBuffer.Handle)
	commandBuffer.State = COMMAND_BUFFER_STATE_RECORDING
}
