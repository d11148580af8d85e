package platform

import (
	"fmt"

	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/renderer/gpu"
	"github.com/spaghettifunk/gef/engine/renderer/headless"
	"github.com/spaghettifunk/gef/engine/renderer/vulkan"
	"github.com/spaghettifunk/gef/engine/renderer/webgpu"
)

/** @brief Describes the device the platform should create. */
type Capabilities struct {
	Backend gpu.BackendType
	AppName string
	Width   uint32
	Height  uint32
	// MaxDrawsPerFrame of 0 keeps the backend default.
	MaxDrawsPerFrame uint32
	Validation       bool
	// ForceFallbackAdapter asks WebGPU for its software adapter.
	ForceFallbackAdapter bool
}

// CapabilitiesFromConfig reads the renderer section of cfg.
func CapabilitiesFromConfig(cfg *core.Config) (Capabilities, error) {
	backend, err := gpu.ParseBackendType(cfg.Renderer.Backend)
	if err != nil {
		return Capabilities{}, err
	}
	if cfg.Renderer.Width == 0 || cfg.Renderer.Height == 0 {
		return Capabilities{}, fmt.Errorf("renderer size %dx%d: %w", cfg.Renderer.Width, cfg.Renderer.Height, core.ErrConfig)
	}
	return Capabilities{
		Backend:          backend,
		AppName:          cfg.Engine.Name,
		Width:            cfg.Renderer.Width,
		Height:           cfg.Renderer.Height,
		MaxDrawsPerFrame: cfg.Renderer.MaxDrawsPerFrame,
		Validation:       cfg.Renderer.Validation,
	}, nil
}

// DeviceFactory creates one kind of device.
type DeviceFactory func(caps Capabilities) (gpu.Device, error)

var factories = map[gpu.BackendType]DeviceFactory{
	gpu.BackendHeadless: newHeadlessDevice,
	gpu.BackendVulkan:   newVulkanDevice,
	gpu.BackendWebGPU:   newWebGPUDevice,
}

// RegisterDevice replaces the factory used for backend.
func RegisterDevice(backend gpu.BackendType, factory DeviceFactory) {
	factories[backend] = factory
}

// NewDevice creates the device selected by caps.Backend.
func NewDevice(caps Capabilities) (gpu.Device, error) {
	factory, ok := factories[caps.Backend]
	if !ok {
		return nil, fmt.Errorf("backend %s: %w", caps.Backend, core.ErrUnknownBackend)
	}
	device, err := factory(caps)
	if err != nil {
		core.LogError("unable to create the %s device: %s", caps.Backend, err)
		return nil, err
	}
	return device, nil
}

func newHeadlessDevice(caps Capabilities) (gpu.Device, error) {
	return headless.NewDevice(headless.Options{}), nil
}

func newVulkanDevice(caps Capabilities) (gpu.Device, error) {
	vr, err := vulkan.New(vulkan.Options{
		AppName:          caps.AppName,
		Width:            caps.Width,
		Height:           caps.Height,
		MaxDrawsPerFrame: caps.MaxDrawsPerFrame,
		Validation:       caps.Validation,
	})
	if err != nil {
		return nil, err
	}
	return vr, nil
}

func newWebGPUDevice(caps Capabilities) (gpu.Device, error) {
	d, err := webgpu.New(webgpu.Options{
		Width:                caps.Width,
		Height:               caps.Height,
		MaxDrawsPerFrame:     caps.MaxDrawsPerFrame,
		ForceFallbackAdapter: caps.ForceFallbackAdapter,
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}
