package headless

import (
	"bytes"
	"fmt"

	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/renderer/gpu"
	"github.com/spaghettifunk/gef/engine/renderer/layout"
)

/** @brief A vertex input attribute as the headless device understands it. */
type VertexAttribute struct {
	Location int
	Format   string
	Offset   int
}

var vertexFormats = map[layout.VariableType]string{
	layout.VariableTypeFloat:   "float32",
	layout.VariableTypeVector2: "float32x2",
	layout.VariableTypeVector3: "float32x3",
	layout.VariableTypeVector4: "float32x4",
	layout.VariableTypeUByte4:  "uint32",
}

type Program struct {
	device       *Device
	name         string
	si           *layout.ShaderInterface
	textures     gpu.TextureProvider
	buffers      [len(layout.Stages)]*hostBuffer
	vertexFormat []VertexAttribute
	state        gpu.RenderState
}

func (d *Device) CreateProgram(desc gpu.ProgramDescriptor) (gpu.Program, error) {
	si := desc.Interface
	if si == nil {
		return nil, fmt.Errorf("program '%s' has no interface: %w", desc.Name, core.ErrShaderCompile)
	}
	if err := checkEntryPoint(si.VertexSource(), "@vertex"); err != nil {
		core.LogError("program '%s' vertex stage: %s", desc.Name, err)
		return nil, fmt.Errorf("program '%s' vertex stage: %s: %w", desc.Name, err, core.ErrShaderCompile)
	}
	if err := checkEntryPoint(si.PixelSource(), "@fragment"); err != nil {
		core.LogError("program '%s' pixel stage: %s", desc.Name, err)
		return nil, fmt.Errorf("program '%s' pixel stage: %s: %w", desc.Name, err, core.ErrShaderCompile)
	}

	p := &Program{device: d, name: desc.Name, si: si, textures: desc.Textures}
	for _, stage := range layout.Stages {
		if size := si.DataSize(stage); size > 0 {
			p.buffers[stage] = &hostBuffer{data: make([]byte, size)}
		}
	}
	for i, param := range si.Parameters() {
		format, ok := vertexFormats[param.Type]
		if !ok {
			return nil, fmt.Errorf("program '%s': parameter '%s' has no vertex format for %s: %w", desc.Name, param.Name, param.Type, core.ErrShaderCompile)
		}
		if param.Offset+param.Type.Size() > si.VertexSize() {
			return nil, fmt.Errorf("program '%s': parameter '%s' ends past the %d byte vertex: %w", desc.Name, param.Name, si.VertexSize(), core.ErrShaderCompile)
		}
		p.vertexFormat = append(p.vertexFormat, VertexAttribute{Location: i, Format: format, Offset: param.Offset})
	}
	return p, nil
}

func checkEntryPoint(source []byte, attribute string) error {
	if len(bytes.TrimSpace(source)) == 0 {
		return fmt.Errorf("empty source")
	}
	if !bytes.Contains(source, []byte(attribute)) {
		return fmt.Errorf("no %s entry point", attribute)
	}
	return nil
}

func (p *Program) Name() string { return p.name }

func (p *Program) Use(state gpu.RenderState) {
	p.state = state
	p.device.current = p
	p.device.record(Command{Kind: CommandUseProgram, Program: p.name, State: state})
}

func (p *Program) SetVertexFormat() {
	p.device.record(Command{Kind: CommandSetVertexFormat, Program: p.name, Count: uint32(len(p.vertexFormat))})
}

func (p *Program) SetVariableData() {
	for _, stage := range layout.Stages {
		buf := p.buffers[stage]
		if buf == nil {
			continue
		}
		if p.device.options.FailMap[stage] {
			core.LogError("program '%s': unable to map %s buffer, keeping previous contents", p.name, stage)
			continue
		}
		copy(buf.data, p.si.Data(stage))
		p.device.record(Command{Kind: CommandUpload, Program: p.name, Stage: stage, Count: uint32(len(buf.data))})
	}
}

func (p *Program) BindTextureResources() {
	for slot, sampler := range p.si.TextureSamplers() {
		tex := gpu.ResolveTexture(sampler, p.textures)
		if tex == nil {
			continue
		}
		p.device.bound[slot] = tex
		p.device.record(Command{Kind: CommandBindTexture, Program: p.name, Slot: slot, Texture: tex.Name})
	}
}

func (p *Program) UnbindTextureResources() {
	for slot, sampler := range p.si.TextureSamplers() {
		if sampler.Texture == nil {
			continue
		}
		delete(p.device.bound, slot)
		p.device.record(Command{Kind: CommandUnbindTexture, Program: p.name, Slot: slot, Texture: sampler.Texture.Name})
	}
}

func (p *Program) Destroy() {
	if p.device.current == p {
		p.device.current = nil
	}
	for i := range p.buffers {
		p.buffers[i] = nil
	}
}

// Buffer returns the uploaded contents of a stage, nil when the stage has
// no buffer.
func (p *Program) Buffer(stage layout.Stage) []byte {
	if b := p.buffers[stage]; b != nil {
		return b.data
	}
	return nil
}

func (p *Program) VertexFormat() []VertexAttribute {
	return append([]VertexAttribute(nil), p.vertexFormat...)
}

func (p *Program) State() gpu.RenderState {
	return p.state
}
