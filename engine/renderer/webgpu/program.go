package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/renderer/gpu"
	"github.com/spaghettifunk/gef/engine/renderer/layout"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"

	// TextureBindingStart is the binding of the first texture. Each texture
	// slot i takes bindings TextureBindingStart+2i for the view and
	// TextureBindingStart+2i+1 for its sampler.
	TextureBindingStart uint32 = 3
)

var vertexFormats = map[layout.VariableType]wgpu.VertexFormat{
	layout.VariableTypeFloat:   wgpu.VertexFormatFloat32,
	layout.VariableTypeVector2: wgpu.VertexFormatFloat32x2,
	layout.VariableTypeVector3: wgpu.VertexFormatFloat32x3,
	layout.VariableTypeVector4: wgpu.VertexFormatFloat32x4,
	layout.VariableTypeUByte4:  wgpu.VertexFormatUint32,
}

// vertexBufferLayout maps the vertex parameters of si, in declaration order,
// to shader locations of buffer slot 0.
//
// Parameters:
//   - si: the allocated shader interface
//
// Returns:
//   - wgpu.VertexBufferLayout: the layout of one interleaved vertex buffer
//   - error: an error if a parameter has no vertex format or ends past the vertex
func vertexBufferLayout(si *layout.ShaderInterface) (wgpu.VertexBufferLayout, error) {
	params := si.Parameters()
	attributes := make([]wgpu.VertexAttribute, 0, len(params))
	for i, param := range params {
		format, ok := vertexFormats[param.Type]
		if !ok {
			return wgpu.VertexBufferLayout{}, fmt.Errorf("parameter '%s' has no vertex format for %s", param.Name, param.Type)
		}
		if param.Offset+param.Type.Size() > si.VertexSize() {
			return wgpu.VertexBufferLayout{}, fmt.Errorf("parameter '%s' ends past the %d byte vertex", param.Name, si.VertexSize())
		}
		attributes = append(attributes, wgpu.VertexAttribute{
			Format:         format,
			Offset:         uint64(param.Offset),
			ShaderLocation: uint32(i),
		})
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(si.VertexSize()),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attributes,
	}, nil
}

func stageVisibility(stage layout.Stage) wgpu.ShaderStage {
	switch stage {
	case layout.StageVertex:
		return wgpu.ShaderStageVertex
	case layout.StagePixel:
		return wgpu.ShaderStageFragment
	}
	return wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
}

// bindGroupLayoutEntries lists the entries of group 0: one dynamic uniform
// buffer per stage with data at binding Stage, then a texture view and a
// sampler per texture slot.
func bindGroupLayoutEntries(si *layout.ShaderInterface) []wgpu.BindGroupLayoutEntry {
	var entries []wgpu.BindGroupLayoutEntry
	for _, stage := range layout.Stages {
		size := si.DataSize(stage)
		if size == 0 {
			continue
		}
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    uint32(stage),
			Visibility: stageVisibility(stage),
		}
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		entry.Buffer.HasDynamicOffset = true
		entry.Buffer.MinBindingSize = uint64(size)
		entries = append(entries, entry)
	}
	for i := range si.TextureSamplers() {
		texture := wgpu.BindGroupLayoutEntry{
			Binding:    TextureBindingStart + uint32(2*i),
			Visibility: wgpu.ShaderStageFragment,
		}
		texture.Texture.SampleType = wgpu.TextureSampleTypeFloat
		texture.Texture.ViewDimension = wgpu.TextureViewDimension2D
		sampler := wgpu.BindGroupLayoutEntry{
			Binding:    TextureBindingStart + uint32(2*i) + 1,
			Visibility: wgpu.ShaderStageFragment,
		}
		sampler.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		entries = append(entries, texture, sampler)
	}
	return entries
}

func primitiveTopology(mode gpu.FillMode) wgpu.PrimitiveTopology {
	if mode == gpu.FillModeLines {
		return wgpu.PrimitiveTopologyLineList
	}
	return wgpu.PrimitiveTopologyTriangleList
}

func depthCompare(test gpu.DepthTest) wgpu.CompareFunction {
	if test == gpu.DepthTestAlways {
		return wgpu.CompareFunctionAlways
	}
	return wgpu.CompareFunctionLessEqual
}

// uniformRing holds one slot per draw of a frame for a stage's data.
type uniformRing struct {
	buffer *wgpu.Buffer
	size   uint64
	stride uint64
	slots  uint32
	next   uint32
	offset uint32
}

func (r *uniformRing) write(queue *wgpu.Queue, data []byte) error {
	if r.next >= r.slots {
		return fmt.Errorf("all %d uniform slots used this frame", r.slots)
	}
	offset := uint64(r.next) * r.stride
	if err := queue.WriteBuffer(r.buffer, offset, data); err != nil {
		return err
	}
	r.next++
	r.offset = uint32(offset)
	return nil
}

// Program is a WGSL render program with its pipelines cached per render state.
type Program struct {
	device   *Device
	name     string
	si       *layout.ShaderInterface
	textures gpu.TextureProvider

	vertexModule *wgpu.ShaderModule
	pixelModule  *wgpu.ShaderModule
	vertexLayout wgpu.VertexBufferLayout

	bindGroupLayout *wgpu.BindGroupLayout
	pipelineLayout  *wgpu.PipelineLayout
	rings           [len(layout.Stages)]*uniformRing

	pipelines map[gpu.RenderState]*wgpu.RenderPipeline
	pipeline  *wgpu.RenderPipeline
	state     gpu.RenderState

	bound      []*metadata.Texture
	explicit   []bool
	bindGroups []*wgpu.BindGroup
	dirty      bool
}

func (d *Device) CreateProgram(desc gpu.ProgramDescriptor) (gpu.Program, error) {
	si := desc.Interface
	if si == nil {
		return nil, fmt.Errorf("program '%s' has no interface: %w", desc.Name, core.ErrShaderCompile)
	}
	vertexLayout, err := vertexBufferLayout(si)
	if err != nil {
		return nil, fmt.Errorf("program '%s': %s: %w", desc.Name, err, core.ErrShaderCompile)
	}

	p := &Program{
		device:       d,
		name:         desc.Name,
		si:           si,
		textures:     desc.Textures,
		vertexLayout: vertexLayout,
		pipelines:    make(map[gpu.RenderState]*wgpu.RenderPipeline),
		bound:        make([]*metadata.Texture, len(si.TextureSamplers())),
		explicit:     make([]bool, len(si.TextureSamplers())),
	}
	if err := p.create(); err != nil {
		p.Destroy()
		return nil, err
	}
	d.programs[p] = struct{}{}
	core.LogDebug("program '%s' created with %d attributes and %d samplers", p.name, len(vertexLayout.Attributes), len(p.bound))
	return p, nil
}

func (p *Program) create() error {
	d := p.device
	var err error
	if p.vertexModule, err = p.shaderModule("vertex", p.si.VertexSource()); err != nil {
		return err
	}
	if p.pixelModule, err = p.shaderModule("pixel", p.si.PixelSource()); err != nil {
		return err
	}

	p.bindGroupLayout, err = d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   p.name + " Bind Group Layout",
		Entries: bindGroupLayoutEntries(p.si),
	})
	if err != nil {
		return err
	}
	p.pipelineLayout, err = d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.name,
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.bindGroupLayout},
	})
	if err != nil {
		return err
	}

	for _, stage := range layout.Stages {
		size := p.si.DataSize(stage)
		if size == 0 {
			continue
		}
		stride := metadata.GetAligned(uint64(size), d.uniformAlignment)
		buffer, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: fmt.Sprintf("%s %s Uniforms", p.name, stage),
			Size:  stride * uint64(d.maxDraws()),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
		p.rings[stage] = &uniformRing{buffer: buffer, size: uint64(size), stride: stride, slots: d.maxDraws()}
	}
	return nil
}

func (p *Program) shaderModule(stage string, source []byte) (*wgpu.ShaderModule, error) {
	if len(source) == 0 {
		core.LogError("program '%s' %s stage: empty source", p.name, stage)
		return nil, fmt.Errorf("program '%s' %s stage: empty source: %w", p.name, stage, core.ErrShaderCompile)
	}
	module, err := p.device.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          p.name + " " + stage,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: string(source)},
	})
	if err != nil {
		core.LogError("program '%s' %s stage: %s", p.name, stage, err)
		return nil, fmt.Errorf("program '%s' %s stage: %s: %w", p.name, stage, err, core.ErrShaderCompile)
	}
	return module, nil
}

func (p *Program) Name() string { return p.name }

func (p *Program) pipelineFor(state gpu.RenderState) (*wgpu.RenderPipeline, error) {
	if pipeline, ok := p.pipelines[state]; ok {
		return pipeline, nil
	}
	pipeline, err := p.device.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.name + " Render Pipeline",
		Layout: p.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     p.vertexModule,
			EntryPoint: VertexEntryPoint,
			Buffers:    []wgpu.VertexBufferLayout{p.vertexLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     p.pixelModule,
			EntryPoint: FragmentEntryPoint,
			Targets: []wgpu.ColorTargetState{{
				Format:    colourFormat,
				Blend:     &wgpu.BlendStateAlphaBlending,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  primitiveTopology(state.FillMode),
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      depthCompare(state.DepthTest),
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilReadMask:   0xFFFFFFFF,
			StencilWriteMask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}
	p.pipelines[state] = pipeline
	return pipeline, nil
}

func (p *Program) Use(state gpu.RenderState) {
	d := p.device
	if state.FillMode == gpu.FillModeWireframe {
		core.LogWarn("program '%s': wireframe is not available through WebGPU, drawing solid", p.name)
		state.FillMode = gpu.FillModeSolid
	}
	pipeline, err := p.pipelineFor(state)
	if err != nil {
		core.LogError("program '%s': %s", p.name, err)
		d.current = nil
		return
	}
	p.pipeline = pipeline
	p.state = state
	p.dirty = true
	d.current = p
	if d.framePass != nil {
		d.framePass.SetPipeline(pipeline)
	}
}

// SetVertexFormat has nothing to record: the vertex layout is part of every
// pipeline.
func (p *Program) SetVertexFormat() {}

func (p *Program) SetVariableData() {
	for _, stage := range layout.Stages {
		ring := p.rings[stage]
		if ring == nil {
			continue
		}
		if err := ring.write(p.device.queue, p.si.Data(stage)); err != nil {
			core.LogError("program '%s': unable to map %s buffer: %s", p.name, stage, err)
			continue
		}
		p.dirty = true
	}
}

func (p *Program) BindTextureResources() {
	for slot, sampler := range p.si.TextureSamplers() {
		p.bound[slot] = gpu.ResolveTexture(sampler, p.textures)
		p.explicit[slot] = sampler.Texture != nil
	}
	p.dirty = true
}

func (p *Program) UnbindTextureResources() {
	for slot := range p.explicit {
		if p.explicit[slot] {
			p.bound[slot] = nil
			p.explicit[slot] = false
		}
	}
}

// prepareDraw sets a bind group holding the latest uniform slots and
// textures. It reports whether a draw can be recorded.
func (p *Program) prepareDraw() bool {
	if p.pipeline == nil {
		return false
	}
	if !p.dirty {
		return true
	}
	d := p.device

	var entries []wgpu.BindGroupEntry
	var offsets []uint32
	for _, stage := range layout.Stages {
		ring := p.rings[stage]
		if ring == nil {
			continue
		}
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: uint32(stage),
			Buffer:  ring.buffer,
			Offset:  0,
			Size:    ring.size,
		})
		offsets = append(offsets, ring.offset)
	}
	for slot, tex := range p.bound {
		data, ok := textureData(tex)
		if !ok {
			core.LogWarn("program '%s': sampler %d has no uploaded texture, draw skipped", p.name, slot)
			return false
		}
		binding := TextureBindingStart + uint32(2*slot)
		entries = append(entries,
			wgpu.BindGroupEntry{Binding: binding, TextureView: data.view},
			wgpu.BindGroupEntry{Binding: binding + 1, Sampler: data.sampler},
		)
	}

	bindGroup, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.name + " Bind Group",
		Layout:  p.bindGroupLayout,
		Entries: entries,
	})
	if err != nil {
		core.LogError("program '%s': %s", p.name, err)
		return false
	}
	p.bindGroups = append(p.bindGroups, bindGroup)
	d.framePass.SetBindGroup(0, bindGroup, offsets)
	p.dirty = false
	return true
}

func (p *Program) resetFrame() {
	for _, ring := range p.rings {
		if ring != nil {
			ring.next = 0
		}
	}
	p.pipeline = nil
	p.dirty = true
}

func (p *Program) releaseBindGroups() {
	for _, bg := range p.bindGroups {
		bg.Release()
	}
	p.bindGroups = p.bindGroups[:0]
}

func (p *Program) Destroy() {
	d := p.device
	p.releaseBindGroups()
	for state, pipeline := range p.pipelines {
		pipeline.Release()
		delete(p.pipelines, state)
	}
	p.pipeline = nil
	for i, ring := range p.rings {
		if ring != nil {
			ring.buffer.Release()
			p.rings[i] = nil
		}
	}
	if p.pipelineLayout != nil {
		p.pipelineLayout.Release()
		p.pipelineLayout = nil
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
	if p.vertexModule != nil {
		p.vertexModule.Release()
		p.vertexModule = nil
	}
	if p.pixelModule != nil {
		p.pixelModule.Release()
		p.pixelModule = nil
	}
	delete(d.programs, p)
	if d.current == p {
		d.current = nil
	}
}
