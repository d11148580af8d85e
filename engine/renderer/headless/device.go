package headless

import (
	"fmt"

	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/renderer/gpu"
	"github.com/spaghettifunk/gef/engine/renderer/layout"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

type CommandKind int

const (
	CommandClear CommandKind = iota
	CommandUseProgram
	CommandSetVertexFormat
	CommandUpload
	CommandBindTexture
	CommandUnbindTexture
	CommandDraw
)

/** @brief One recorded backend call. Unused fields are zero. */
type Command struct {
	Kind    CommandKind
	Program string
	Stage   layout.Stage
	Slot    int
	Texture string
	Count   uint32
	State   gpu.RenderState
	Clear   gpu.ClearOptions
}

type Options struct {
	// FailMap makes mapping the listed stages fail on every upload.
	FailMap map[layout.Stage]bool
}

type hostTexture struct {
	pixels []uint8
}

type hostBuffer struct {
	data []byte
}

/**
 * @brief A device that keeps every GPU resource in host memory and records
 * the calls made against it. Programs are written in WGSL.
 */
type Device struct {
	options  Options
	commands []Command
	current  *Program
	bound    map[int]*metadata.Texture
	frames   uint64
	inFrame  bool
}

func NewDevice(options Options) *Device {
	return &Device{
		options: options,
		bound:   make(map[int]*metadata.Texture),
	}
}

func (d *Device) Backend() gpu.BackendType { return gpu.BackendHeadless }

func (d *Device) ShaderLanguage() gpu.ShaderLanguage { return gpu.ShaderLanguageWGSL }

func (d *Device) record(c Command) {
	d.commands = append(d.commands, c)
}

// Commands returns the calls recorded since the last ResetCommands.
func (d *Device) Commands() []Command {
	return append([]Command(nil), d.commands...)
}

func (d *Device) ResetCommands() {
	d.commands = nil
}

// BoundTexture returns the texture currently bound to slot, if any.
func (d *Device) BoundTexture(slot int) *metadata.Texture {
	return d.bound[slot]
}

func (d *Device) Frames() uint64 {
	return d.frames
}

func (d *Device) CreateTexture(img *metadata.Image, texture *metadata.Texture) error {
	if img == nil || texture == nil {
		return fmt.Errorf("nil image or texture: %w", core.ErrInvalidTexture)
	}
	if img.Width == 0 || img.Height == 0 || uint32(len(img.Pixels)) != img.Width*img.Height*4 {
		return fmt.Errorf("image '%s' is %dx%d with %d bytes: %w", img.Name, img.Width, img.Height, len(img.Pixels), core.ErrInvalidTexture)
	}
	texture.Width = img.Width
	texture.Height = img.Height
	texture.ChannelCount = 4
	texture.Generation++
	texture.InternalData = &hostTexture{pixels: append([]uint8(nil), img.Pixels...)}
	return nil
}

func (d *Device) DestroyTexture(texture *metadata.Texture) {
	if texture == nil {
		return
	}
	for slot, t := range d.bound {
		if t == texture {
			delete(d.bound, slot)
		}
	}
	texture.InternalData = nil
}

// TexturePixels returns the host copy of an uploaded texture.
func TexturePixels(texture *metadata.Texture) []uint8 {
	if ht, ok := texture.InternalData.(*hostTexture); ok {
		return ht.pixels
	}
	return nil
}

func (d *Device) CreateMeshBuffers(mesh *metadata.Mesh) error {
	if mesh.InternalData != nil {
		return nil
	}
	if uint32(len(mesh.Vertices)) != mesh.VertexCount*mesh.VertexSize {
		return fmt.Errorf("mesh holds %d bytes for %d vertices of %d bytes", len(mesh.Vertices), mesh.VertexCount, mesh.VertexSize)
	}
	mesh.InternalData = &hostBuffer{data: append([]byte(nil), mesh.Vertices...)}
	for _, p := range mesh.Primitives {
		for _, idx := range p.Indices {
			if idx >= mesh.VertexCount {
				return fmt.Errorf("index %d out of range for %d vertices", idx, mesh.VertexCount)
			}
		}
		p.InternalData = append([]uint32(nil), p.Indices...)
	}
	return nil
}

func (d *Device) DestroyMeshBuffers(mesh *metadata.Mesh) {
	mesh.InternalData = nil
	for _, p := range mesh.Primitives {
		p.InternalData = nil
	}
}

func (d *Device) BeginFrame(clear gpu.ClearOptions) error {
	if d.inFrame {
		return fmt.Errorf("frame %d already started", d.frames)
	}
	d.inFrame = true
	d.record(Command{Kind: CommandClear, Clear: clear})
	return nil
}

func (d *Device) DrawPrimitive(mesh *metadata.Mesh, primitive *metadata.Primitive) {
	if d.current == nil || mesh.InternalData == nil || primitive.InternalData == nil {
		core.LogWarn("headless: draw skipped, program or buffers missing")
		return
	}
	d.record(Command{Kind: CommandDraw, Program: d.current.name, Count: uint32(len(primitive.Indices))})
}

func (d *Device) DrawVertices(mesh *metadata.Mesh, first, count uint32) {
	if d.current == nil || mesh.InternalData == nil {
		core.LogWarn("headless: draw skipped, program or buffers missing")
		return
	}
	if first+count > mesh.VertexCount {
		core.LogWarn("headless: draw of %d vertices from %d exceeds %d", count, first, mesh.VertexCount)
		return
	}
	d.record(Command{Kind: CommandDraw, Program: d.current.name, Count: count})
}

func (d *Device) EndFrame() error {
	if !d.inFrame {
		return fmt.Errorf("no frame in progress")
	}
	d.inFrame = false
	d.frames++
	return nil
}

func (d *Device) Shutdown() error {
	d.current = nil
	d.bound = make(map[int]*metadata.Texture)
	return nil
}
