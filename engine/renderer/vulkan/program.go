package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/renderer/gpu"
	"github.com/spaghettifunk/gef/engine/renderer/layout"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

var vertexFormats = map[layout.VariableType]vk.Format{
	layout.VariableTypeFloat:   vk.FormatR32Sfloat,
	layout.VariableTypeVector2: vk.FormatR32g32Sfloat,
	layout.VariableTypeVector3: vk.FormatR32g32b32Sfloat,
	layout.VariableTypeVector4: vk.FormatR32g32b32a32Sfloat,
	layout.VariableTypeUByte4:  vk.FormatR32Uint,
}

// vertexAttributes maps the interface's vertex parameters, in declaration
// order, to attribute locations of binding 0.
func vertexAttributes(si *layout.ShaderInterface) ([]vk.VertexInputAttributeDescription, error) {
	params := si.Parameters()
	attributes := make([]vk.VertexInputAttributeDescription, 0, len(params))
	for i, param := range params {
		format, ok := vertexFormats[param.Type]
		if !ok {
			return nil, fmt.Errorf("parameter '%s' has no vertex format for %s", param.Name, param.Type)
		}
		if param.Offset+param.Type.Size() > si.VertexSize() {
			return nil, fmt.Errorf("parameter '%s' ends past the %d byte vertex", param.Name, si.VertexSize())
		}
		attributes = append(attributes, vk.VertexInputAttributeDescription{
			Location: uint32(i),
			Binding:  0,
			Format:   format,
			Offset:   uint32(param.Offset),
		})
	}
	return attributes, nil
}

/**
 * @brief Per frame storage for one stage's constant data. Every
 * SetVariableData takes the next slot so draws recorded earlier in the frame
 * keep their values.
 */
type uniformRing struct {
	buffer *VulkanBuffer
	size   uint64
	stride uint64
	slots  uint32
	next   uint32
	// Dynamic offset of the most recent upload.
	offset uint32
}

func newUniformRing(context *VulkanContext, size int, slots uint32) (*uniformRing, error) {
	stride := metadata.GetAligned(uint64(size), context.Device.MinUniformAlignment)
	buffer, err := NewVulkanBuffer(context, stride*uint64(slots), vk.BufferUsageUniformBufferBit, hostVisibleCoherent)
	if err != nil {
		return nil, err
	}
	return &uniformRing{buffer: buffer, size: uint64(size), stride: stride, slots: slots}, nil
}

func (r *uniformRing) write(context *VulkanContext, data []byte) error {
	slot := r.next
	if slot >= r.slots {
		return fmt.Errorf("all %d uniform slots used this frame", r.slots)
	}
	offset := uint64(slot) * r.stride
	if err := r.buffer.LoadData(context, offset, data); err != nil {
		return err
	}
	r.next++
	r.offset = uint32(offset)
	return nil
}

type VulkanProgram struct {
	renderer *VulkanRenderer
	name     string
	si       *layout.ShaderInterface
	textures gpu.TextureProvider

	vertexStage *VulkanShaderStage
	pixelStage  *VulkanShaderStage
	attributes  []vk.VertexInputAttributeDescription

	descriptors *VulkanDescriptorState
	rings       [len(layout.Stages)]*uniformRing

	pipelines map[gpu.RenderState]*VulkanPipeline
	pipeline  *VulkanPipeline
	state     gpu.RenderState

	// Resolved texture per sampler slot and whether it was bound explicitly.
	bound    []*metadata.Texture
	explicit []bool
	dirty    bool
}

func (vr *VulkanRenderer) CreateProgram(desc gpu.ProgramDescriptor) (gpu.Program, error) {
	si := desc.Interface
	if si == nil {
		return nil, fmt.Errorf("program '%s' has no interface: %w", desc.Name, core.ErrShaderCompile)
	}
	context := vr.context

	p := &VulkanProgram{
		renderer:  vr,
		name:      desc.Name,
		si:        si,
		textures:  desc.Textures,
		pipelines: make(map[gpu.RenderState]*VulkanPipeline),
		bound:     make([]*metadata.Texture, len(si.TextureSamplers())),
		explicit:  make([]bool, len(si.TextureSamplers())),
		dirty:     true,
	}

	attributes, err := vertexAttributes(si)
	if err != nil {
		core.LogError("program '%s': %s", desc.Name, err)
		return nil, fmt.Errorf("program '%s': %s: %w", desc.Name, err, core.ErrShaderCompile)
	}
	p.attributes = attributes

	if p.vertexStage, err = NewShaderModule(context, desc.Name, "vertex", si.VertexSource(), vk.ShaderStageVertexBit); err != nil {
		return nil, err
	}
	if p.pixelStage, err = NewShaderModule(context, desc.Name, "pixel", si.PixelSource(), vk.ShaderStageFragmentBit); err != nil {
		p.Destroy()
		return nil, err
	}

	config, err := NewDescriptorSetConfig(si)
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("program '%s': %s: %w", desc.Name, err, core.ErrShaderCompile)
	}
	if p.descriptors, err = NewDescriptorState(context, config, vr.maxDraws()); err != nil {
		p.Destroy()
		return nil, err
	}

	// Constant buffers exist only for stages that declare variables.
	for _, stage := range layout.Stages {
		size := si.DataSize(stage)
		if size == 0 {
			continue
		}
		ring, err := newUniformRing(context, size, vr.maxDraws())
		if err != nil {
			p.Destroy()
			return nil, err
		}
		p.rings[stage] = ring
	}

	vr.programs[p] = struct{}{}
	core.LogDebug("program '%s' created with %d attributes and %d samplers", p.name, len(p.attributes), len(p.bound))
	return p, nil
}

func (p *VulkanProgram) Name() string { return p.name }

func (p *VulkanProgram) Use(state gpu.RenderState) {
	vr := p.renderer
	if state.FillMode == gpu.FillModeWireframe && vr.context.Device.Features.FillModeNonSolid == vk.False {
		core.LogWarn("program '%s': wireframe is not supported by this device, drawing solid", p.name)
		state.FillMode = gpu.FillModeSolid
	}

	pipeline, ok := p.pipelines[state]
	if !ok {
		var err error
		pipeline, err = NewGraphicsPipeline(vr.context, &VulkanPipelineConfig{
			Renderpass:           vr.context.MainRenderpass,
			Stride:               uint32(p.si.VertexSize()),
			Attributes:           p.attributes,
			DescriptorSetLayouts: []vk.DescriptorSetLayout{p.descriptors.Layout},
			Stages:               []vk.PipelineShaderStageCreateInfo{p.vertexStage.ShaderStageCreateInfo, p.pixelStage.ShaderStageCreateInfo},
			Viewport:             vr.viewport(),
			Scissor:              vr.scissor(),
			State:                state,
		})
		if err != nil {
			core.LogError("program '%s': %s", p.name, err)
			vr.current = nil
			return
		}
		p.pipelines[state] = pipeline
	}

	p.pipeline = pipeline
	p.state = state
	p.dirty = true
	vr.current = p
	if vr.inFrame {
		pipeline.Bind(vr.context.GraphicsCommandBuffer, vk.PipelineBindPointGraphics)
	}
}

// SetVertexFormat has nothing to record: the attribute layout is part of
// every pipeline Use creates.
func (p *VulkanProgram) SetVertexFormat() {}

func (p *VulkanProgram) SetVariableData() {
	for _, stage := range layout.Stages {
		ring := p.rings[stage]
		if ring == nil {
			continue
		}
		if err := ring.write(p.renderer.context, p.si.Data(stage)); err != nil {
			core.LogError("program '%s': unable to map %s buffer: %s", p.name, stage, err)
			continue
		}
		p.dirty = true
	}
}

func (p *VulkanProgram) BindTextureResources() {
	for slot, sampler := range p.si.TextureSamplers() {
		p.bound[slot] = gpu.ResolveTexture(sampler, p.textures)
		p.explicit[slot] = sampler.Texture != nil
	}
	p.dirty = true
}

func (p *VulkanProgram) UnbindTextureResources() {
	for slot := range p.explicit {
		if p.explicit[slot] {
			p.bound[slot] = nil
			p.explicit[slot] = false
		}
	}
}

// prepareDraw binds a descriptor set holding the latest uniform slots and
// textures. It reports whether a draw can be recorded.
func (p *VulkanProgram) prepareDraw() bool {
	if p.pipeline == nil {
		return false
	}
	if !p.dirty {
		return true
	}
	context := p.renderer.context

	set, err := p.descriptors.Allocate(context)
	if err != nil {
		core.LogError("program '%s': %s", p.name, err)
		return false
	}

	var writes []vk.WriteDescriptorSet
	var offsets []uint32
	for _, stage := range layout.Stages {
		ring := p.rings[stage]
		if ring == nil {
			continue
		}
		writes = append(writes, vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      uint32(p.descriptors.Config.UniformBindings[stage]),
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBufferDynamic,
			PBufferInfo: []vk.DescriptorBufferInfo{{
				Buffer: ring.buffer.Handle,
				Offset: 0,
				Range:  vk.DeviceSize(ring.size),
			}},
		})
		offsets = append(offsets, ring.offset)
	}
	for slot, tex := range p.bound {
		data, ok := textureData(tex)
		if !ok {
			core.LogWarn("program '%s': sampler %d has no uploaded texture, draw skipped", p.name, slot)
			return false
		}
		writes = append(writes, vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      p.descriptors.Config.SamplerBindingStart + uint32(slot),
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			PImageInfo: []vk.DescriptorImageInfo{{
				Sampler:     data.Sampler,
				ImageView:   data.Image.View,
				ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
			}},
		})
	}

	if set != nil {
		if len(writes) > 0 {
			vk.UpdateDescriptorSets(context.Device.LogicalDevice, uint32(len(writes)), writes, 0, nil)
		}
		vk.CmdBindDescriptorSets(context.GraphicsCommandBuffer.Handle, vk.PipelineBindPointGraphics, p.pipeline.PipelineLayout,
			0, 1, []vk.DescriptorSet{set}, uint32(len(offsets)), offsets)
	}
	p.dirty = false
	return true
}

func textureData(tex *metadata.Texture) (*VulkanTextureData, bool) {
	if tex == nil {
		return nil, false
	}
	data, ok := tex.InternalData.(*VulkanTextureData)
	return data, ok && data.Image != nil
}

// resetFrame recycles the uniform slots and descriptor sets of the last
// frame. The frame has completed on the GPU by the time this runs.
func (p *VulkanProgram) resetFrame() {
	for _, ring := range p.rings {
		if ring != nil {
			ring.next = 0
		}
	}
	p.descriptors.Reset(p.renderer.context)
	p.pipeline = nil
	p.dirty = true
}

func (p *VulkanProgram) Destroy() {
	vr := p.renderer
	context := vr.context
	vk.DeviceWaitIdle(context.Device.LogicalDevice)

	for state, pipeline := range p.pipelines {
		_ = pipeline.Destroy(context)
		delete(p.pipelines, state)
	}
	p.pipeline = nil
	if p.descriptors != nil {
		p.descriptors.Destroy(context)
		p.descriptors = nil
	}
	for i, ring := range p.rings {
		if ring != nil {
			ring.buffer.Destroy(context)
			p.rings[i] = nil
		}
	}
	if p.vertexStage != nil {
		p.vertexStage.Destroy(context)
		p.vertexStage = nil
	}
	if p.pixelStage != nil {
		p.pixelStage.Destroy(context)
		p.pixelStage = nil
	}
	delete(vr.programs, p)
	if vr.current == p {
		vr.current = nil
	}
}
