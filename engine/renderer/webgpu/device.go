package webgpu

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/renderer/gpu"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

const (
	colourFormat = wgpu.TextureFormatRGBA8Unorm
	depthFormat  = wgpu.TextureFormatDepth24PlusStencil8

	// DefaultMaxDraws is the number of draws a program can record per frame
	// when Options.MaxDrawsPerFrame is zero.
	DefaultMaxDraws uint32 = 256
)

// Options configures the offscreen WebGPU device.
type Options struct {
	Width  uint32
	Height uint32
	// MaxDrawsPerFrame bounds the draws each program can record per frame.
	MaxDrawsPerFrame uint32
	// ForceFallbackAdapter selects the software adapter when one is available.
	ForceFallbackAdapter bool
}

// Device renders into an offscreen colour and depth texture through WebGPU.
// Programs are written in WGSL with a "vs_main" vertex and an "fs_main"
// fragment entry point.
type Device struct {
	mu      *sync.Mutex
	options Options

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	uniformAlignment uint64

	colourTexture *wgpu.Texture
	colourView    *wgpu.TextureView
	depthTexture  *wgpu.Texture
	depthView     *wgpu.TextureView

	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frames       uint64

	programs map[*Program]struct{}
	current  *Program
}

// New creates the instance, adapter, device and render targets.
//
// Parameters:
//   - options: the target size and per frame limits
//
// Returns:
//   - *Device: the ready device
//   - error: core.ErrBackendUnavailable when no adapter or device could be created
func New(options Options) (*Device, error) {
	if options.Width == 0 || options.Height == 0 {
		return nil, fmt.Errorf("webgpu target must be non-zero, got %dx%d: %w", options.Width, options.Height, core.ErrConfig)
	}
	d := &Device{
		mu:       &sync.Mutex{},
		options:  options,
		instance: wgpu.CreateInstance(nil),
		programs: make(map[*Program]struct{}),
	}

	adapter, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference:      wgpu.PowerPreferenceHighPerformance,
		ForceFallbackAdapter: options.ForceFallbackAdapter,
	})
	if err != nil {
		d.Shutdown()
		return nil, fmt.Errorf("request adapter: %s: %w", err, core.ErrBackendUnavailable)
	}
	d.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "gef device"})
	if err != nil {
		d.Shutdown()
		return nil, fmt.Errorf("request device: %s: %w", err, core.ErrBackendUnavailable)
	}
	d.device = device
	d.queue = device.GetQueue()

	d.uniformAlignment = uint64(adapter.GetLimits().Limits.MinUniformBufferOffsetAlignment)
	if d.uniformAlignment == 0 {
		d.uniformAlignment = 256
	}

	if err := d.createTargets(); err != nil {
		d.Shutdown()
		return nil, err
	}
	core.LogInfo("WebGPU device initialized (%dx%d).", options.Width, options.Height)
	return d, nil
}

func (d *Device) createTargets() error {
	size := wgpu.Extent3D{Width: d.options.Width, Height: d.options.Height, DepthOrArrayLayers: 1}

	colour, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Colour Target",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        colourFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return err
	}
	d.colourTexture = colour
	if d.colourView, err = colour.CreateView(nil); err != nil {
		return err
	}

	depth, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Target",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return err
	}
	d.depthTexture = depth
	d.depthView, err = depth.CreateView(nil)
	return err
}

func (d *Device) maxDraws() uint32 {
	if d.options.MaxDrawsPerFrame == 0 {
		return DefaultMaxDraws
	}
	return d.options.MaxDrawsPerFrame
}

func (d *Device) Backend() gpu.BackendType { return gpu.BackendWebGPU }

func (d *Device) ShaderLanguage() gpu.ShaderLanguage { return gpu.ShaderLanguageWGSL }

// renderPassDescriptor builds the main pass. Attachments not selected by
// clear keep the previous frame's contents.
func (d *Device) renderPassDescriptor(clear gpu.ClearOptions) *wgpu.RenderPassDescriptor {
	colourLoad, depthLoad, stencilLoad := loadOps(clear)
	c := clear.Colour
	return &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    d.colourView,
			LoadOp:  colourLoad,
			StoreOp: wgpu.StoreOpStore,
			ClearValue: wgpu.Color{
				R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A),
			},
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:              d.depthView,
			DepthLoadOp:       depthLoad,
			DepthStoreOp:      wgpu.StoreOpStore,
			DepthClearValue:   clear.Depth,
			StencilLoadOp:     stencilLoad,
			StencilStoreOp:    wgpu.StoreOpStore,
			StencilClearValue: clear.Stencil,
		},
	}
}

func loadOps(clear gpu.ClearOptions) (colour, depth, stencil wgpu.LoadOp) {
	pick := func(flag gpu.ClearFlags) wgpu.LoadOp {
		if clear.Flags&flag != 0 {
			return wgpu.LoadOpClear
		}
		return wgpu.LoadOpLoad
	}
	return pick(gpu.ClearColour), pick(gpu.ClearDepth), pick(gpu.ClearStencil)
}

func (d *Device) BeginFrame(clear gpu.ClearOptions) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.framePass != nil {
		return fmt.Errorf("frame %d already started", d.frames)
	}
	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	d.frameEncoder = encoder
	d.framePass = encoder.BeginRenderPass(d.renderPassDescriptor(clear))

	for p := range d.programs {
		p.resetFrame()
	}
	d.current = nil
	return nil
}

func (d *Device) EndFrame() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.framePass == nil {
		return fmt.Errorf("no frame in progress")
	}
	d.framePass.End()
	d.framePass.Release()
	d.framePass = nil

	commandBuffer, err := d.frameEncoder.Finish(nil)
	d.frameEncoder.Release()
	d.frameEncoder = nil
	if err != nil {
		return err
	}
	d.queue.Submit(commandBuffer)
	commandBuffer.Release()

	// Bind groups of this frame are released once the GPU is done with them.
	d.device.Poll(true, nil)
	for p := range d.programs {
		p.releaseBindGroups()
	}
	d.frames++
	return nil
}

// ReadFrame copies the colour target back to the host.
//
// Returns:
//   - *metadata.Image: tightly packed RGBA rows, top row first
//   - error: an error if the copy or the buffer mapping failed
func (d *Device) ReadFrame() (*metadata.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.framePass != nil {
		return nil, fmt.Errorf("cannot read back while frame %d is recording", d.frames)
	}
	width, height := d.options.Width, d.options.Height
	padded := paddedRowSize(width)
	size := uint64(padded) * uint64(height)

	buffer, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Readback Buffer",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	defer buffer.Release()

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{Texture: d.colourTexture, Aspect: wgpu.TextureAspectAll},
		&wgpu.ImageCopyBuffer{
			Buffer: buffer,
			Layout: wgpu.TextureDataLayout{BytesPerRow: padded, RowsPerImage: height},
		},
		&wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)
	commandBuffer, err := encoder.Finish(nil)
	encoder.Release()
	if err != nil {
		return nil, err
	}
	d.queue.Submit(commandBuffer)
	commandBuffer.Release()

	var status wgpu.BufferMapAsyncStatus
	if err := buffer.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	}); err != nil {
		return nil, err
	}
	d.device.Poll(true, nil)
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("readback map failed: %s", status.String())
	}
	mapped := buffer.GetMappedRange(0, uint(size))
	pixels := unpadRows(mapped, width, height, padded)
	buffer.Unmap()

	return &metadata.Image{
		Name:   fmt.Sprintf("frame_%d", d.frames),
		Width:  width,
		Height: height,
		Pixels: pixels,
	}, nil
}

// Frames returns the number of completed frames.
func (d *Device) Frames() uint64 {
	return d.frames
}

func (d *Device) Shutdown() error {
	for p := range d.programs {
		p.Destroy()
	}
	if d.depthView != nil {
		d.depthView.Release()
		d.depthView = nil
	}
	if d.depthTexture != nil {
		d.depthTexture.Release()
		d.depthTexture = nil
	}
	if d.colourView != nil {
		d.colourView.Release()
		d.colourView = nil
	}
	if d.colourTexture != nil {
		d.colourTexture.Release()
		d.colourTexture = nil
	}
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
	return nil
}
