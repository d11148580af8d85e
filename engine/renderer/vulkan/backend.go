package vulkan

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/renderer/gpu"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

/** @brief Creation options of the offscreen Vulkan device. */
type Options struct {
	AppName string
	Width   uint32
	Height  uint32
	// MaxDrawsPerFrame bounds the draws each program can record per frame.
	MaxDrawsPerFrame uint32
	// Validation enables the Khronos validation layer when it is installed.
	Validation bool
}

/**
 * @brief A Vulkan device rendering into an offscreen colour and depth target.
 * Every frame is submitted and waited on in EndFrame, so host visible
 * resources can be rewritten as soon as a frame returns.
 */
type VulkanRenderer struct {
	options     Options
	FrameNumber uint64
	context     *VulkanContext

	programs map[*VulkanProgram]struct{}
	current  *VulkanProgram
	inFrame  bool

	debugMessenger vk.DebugReportCallback
}

var (
	loaderOnce sync.Once
	loaderErr  error
)

func initLoader() error {
	loaderOnce.Do(func() {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			loaderErr = err
			return
		}
		loaderErr = vk.Init()
	})
	return loaderErr
}

func New(options Options) (*VulkanRenderer, error) {
	if options.Width == 0 || options.Height == 0 {
		return nil, fmt.Errorf("vulkan target must be non-zero, got %dx%d: %w", options.Width, options.Height, core.ErrConfig)
	}
	vr := &VulkanRenderer{
		options: options,
		context: &VulkanContext{
			FramebufferWidth:  options.Width,
			FramebufferHeight: options.Height,
			Allocator:         nil,
			Device:            &VulkanDevice{GraphicsQueueIndex: -1},
		},
		programs: make(map[*VulkanProgram]struct{}),
	}
	if err := vr.Initialize(); err != nil {
		_ = vr.Shutdown()
		return nil, err
	}
	return vr, nil
}

func (vr *VulkanRenderer) maxDraws() uint32 {
	if vr.options.MaxDrawsPerFrame == 0 {
		return VULKAN_DEFAULT_MAX_DRAWS
	}
	return vr.options.MaxDrawsPerFrame
}

func (vr *VulkanRenderer) Initialize() error {
	if err := initLoader(); err != nil {
		return fmt.Errorf("failed to load the Vulkan library: %s: %w", err, core.ErrBackendUnavailable)
	}

	// Setup Vulkan instance. 1.1 allows the flipped viewport.
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(vr.options.AppName),
		PEngineName:        VulkanSafeString("gef"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := []string{}
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		createInfo.Flags |= 1
	}

	requiredLayers := []string{}
	if vr.options.Validation {
		if instanceHasLayer("VK_LAYER_KHRONOS_validation") {
			core.LogInfo("Validation layers enabled.")
			requiredLayers = append(requiredLayers, "VK_LAYER_KHRONOS_validation")
			requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
		} else {
			core.LogWarn("Validation requested but VK_LAYER_KHRONOS_validation is not installed.")
		}
	}

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)
	createInfo.EnabledLayerCount = uint32(len(requiredLayers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(requiredLayers)

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, vr.context.Allocator, &instance); res != vk.Success {
		return fmt.Errorf("failed in creating the Vulkan Instance with error `%s`: %w", VulkanResultString(res, true), core.ErrBackendUnavailable)
	}
	vr.context.Instance = instance
	if err := vk.InitInstance(instance); err != nil {
		return fmt.Errorf("%s: %w", err, core.ErrBackendUnavailable)
	}
	core.LogInfo("Vulkan Instance created.")

	if len(requiredLayers) > 0 {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(instance, &debugCreateInfo, nil, &dbg)); err != nil {
			core.LogWarn("vk.CreateDebugReportCallback failed with %s", err)
		} else {
			vr.debugMessenger = dbg
		}
	}

	if err := DeviceCreate(vr.context); err != nil {
		return err
	}

	if err := vr.createTargets(); err != nil {
		return err
	}

	rp, err := RenderpassCreate(vr.context, 0, 0, float32(vr.context.FramebufferWidth), float32(vr.context.FramebufferHeight))
	if err != nil {
		return err
	}
	vr.context.MainRenderpass = rp

	fb, err := FramebufferCreate(vr.context, rp, vr.context.FramebufferWidth, vr.context.FramebufferHeight,
		[]vk.ImageView{vr.context.ColourTarget.View, vr.context.DepthTarget.View})
	if err != nil {
		return err
	}
	vr.context.Framebuffer = fb

	cb, err := NewVulkanCommandBuffer(vr.context, vr.context.Device.GraphicsCommandPool, true)
	if err != nil {
		return err
	}
	vr.context.GraphicsCommandBuffer = cb

	// Signaled so the first BeginFrame does not wait.
	fence, err := NewFence(vr.context, true)
	if err != nil {
		return err
	}
	vr.context.InFlightFence = fence

	core.LogInfo("Vulkan renderer initialized successfully (%dx%d).", vr.context.FramebufferWidth, vr.context.FramebufferHeight)
	return nil
}

func (vr *VulkanRenderer) createTargets() error {
	context := vr.context
	colour, err := NewVulkanImage(context, context.FramebufferWidth, context.FramebufferHeight, textureFormat,
		vk.ImageUsageColorAttachmentBit|vk.ImageUsageTransferSrcBit,
		uint32(vk.MemoryPropertyDeviceLocalBit), vk.ImageAspectColorBit)
	if err != nil {
		return err
	}
	context.ColourTarget = colour

	aspect := vk.ImageAspectDepthBit
	if context.Device.DepthHasStencil {
		aspect |= vk.ImageAspectStencilBit
	}
	depth, err := NewVulkanImage(context, context.FramebufferWidth, context.FramebufferHeight, context.Device.DepthFormat,
		vk.ImageUsageDepthStencilAttachmentBit,
		uint32(vk.MemoryPropertyDeviceLocalBit), aspect)
	if err != nil {
		return err
	}
	context.DepthTarget = depth

	// Put both targets in the layouts the render pass expects on entry.
	return vr.singleUse(func(cb *VulkanCommandBuffer) error {
		if err := colour.TransitionLayout(cb, vk.ImageLayoutUndefined, vk.ImageLayoutTransferSrcOptimal); err != nil {
			return err
		}
		return depth.TransitionLayout(cb, vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal)
	})
}

func instanceHasLayer(name string) bool {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success || count == 0 {
		return false
	}
	layers := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, layers); res != vk.Success {
		return false
	}
	for i := range layers {
		layers[i].Deref()
		end := FindFirstZeroInByteArray(layers[i].LayerName[:])
		if string(layers[i].LayerName[:end]) == name {
			return true
		}
	}
	return false
}

func (vr *VulkanRenderer) Backend() gpu.BackendType { return gpu.BackendVulkan }

func (vr *VulkanRenderer) ShaderLanguage() gpu.ShaderLanguage { return gpu.ShaderLanguageSPIRV }

// viewport flips Y so clip space points up as in the engine's projections.
func (vr *VulkanRenderer) viewport() vk.Viewport {
	w := float32(vr.context.FramebufferWidth)
	h := float32(vr.context.FramebufferHeight)
	return vk.Viewport{X: 0, Y: h, Width: w, Height: -h, MinDepth: 0, MaxDepth: 1}
}

func (vr *VulkanRenderer) scissor() vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: vk.Extent2D{Width: vr.context.FramebufferWidth, Height: vr.context.FramebufferHeight},
	}
}

func (vr *VulkanRenderer) BeginFrame(clear gpu.ClearOptions) error {
	if vr.inFrame {
		return fmt.Errorf("frame %d already started", vr.FrameNumber)
	}
	context := vr.context
	if !context.InFlightFence.FenceWait(context, ^uint64(0)) {
		return fmt.Errorf("in-flight fence wait failure")
	}
	if err := context.InFlightFence.FenceReset(context); err != nil {
		return err
	}

	cb := context.GraphicsCommandBuffer
	if err := cb.Reset(); err != nil {
		return err
	}
	if err := cb.Begin(true, false, false); err != nil {
		return err
	}

	context.MainRenderpass.RenderpassBegin(cb, context.Framebuffer.Handle)
	vk.CmdSetViewport(cb.Handle, 0, 1, []vk.Viewport{vr.viewport()})
	vk.CmdSetScissor(cb.Handle, 0, 1, []vk.Rect2D{vr.scissor()})
	context.MainRenderpass.RenderpassClear(cb, clear, context.Device.DepthHasStencil)

	for p := range vr.programs {
		p.resetFrame()
	}
	vr.current = nil
	vr.inFrame = true
	return nil
}

func (vr *VulkanRenderer) EndFrame() error {
	if !vr.inFrame {
		return fmt.Errorf("no frame in progress")
	}
	vr.inFrame = false
	context := vr.context
	cb := context.GraphicsCommandBuffer

	context.MainRenderpass.RenderpassEnd(cb)
	if err := cb.End(); err != nil {
		return err
	}
	if err := cb.Submit(context, context.Device.GraphicsQueue, context.InFlightFence); err != nil {
		return err
	}
	if !context.InFlightFence.FenceWait(context, ^uint64(0)) {
		return fmt.Errorf("frame %d did not complete", vr.FrameNumber)
	}
	vr.FrameNumber++
	return nil
}

// ReadFrame copies the colour target of the last completed frame to the
// host as tightly packed RGBA rows, top row first.
func (vr *VulkanRenderer) ReadFrame() (*metadata.Image, error) {
	if vr.inFrame {
		return nil, fmt.Errorf("cannot read back while frame %d is recording", vr.FrameNumber)
	}
	context := vr.context
	target := context.ColourTarget
	size := uint64(target.Width) * uint64(target.Height) * 4

	staging, err := NewVulkanBuffer(context, size, vk.BufferUsageTransferDstBit, hostVisibleCoherent)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(context)

	if err := vr.singleUse(func(cb *VulkanCommandBuffer) error {
		target.CopyToBuffer(staging, cb)
		return nil
	}); err != nil {
		return nil, err
	}
	pixels, err := staging.ReadData(context, size)
	if err != nil {
		return nil, err
	}
	return &metadata.Image{
		Name:   fmt.Sprintf("frame_%d", vr.FrameNumber),
		Width:  target.Width,
		Height: target.Height,
		Pixels: pixels,
	}, nil
}

func (vr *VulkanRenderer) Shutdown() error {
	context := vr.context
	if context.Device != nil && context.Device.LogicalDevice != nil {
		vk.DeviceWaitIdle(context.Device.LogicalDevice)

		// Destroy in the opposite order of creation.
		for p := range vr.programs {
			p.Destroy()
		}
		if context.InFlightFence != nil {
			context.InFlightFence.FenceDestroy(context)
			context.InFlightFence = nil
		}
		if context.GraphicsCommandBuffer != nil {
			context.GraphicsCommandBuffer.Free(context, context.Device.GraphicsCommandPool)
			context.GraphicsCommandBuffer = nil
		}
		if context.Framebuffer != nil {
			context.Framebuffer.Destroy(context)
			context.Framebuffer = nil
		}
		if context.MainRenderpass != nil {
			context.MainRenderpass.RenderpassDestroy(context)
			context.MainRenderpass = nil
		}
		if context.DepthTarget != nil {
			context.DepthTarget.Destroy(context)
			context.DepthTarget = nil
		}
		if context.ColourTarget != nil {
			context.ColourTarget.Destroy(context)
			context.ColourTarget = nil
		}
	}
	DeviceDestroy(context)

	if vr.debugMessenger != nil {
		vk.DestroyDebugReportCallback(context.Instance, vr.debugMessenger, context.Allocator)
		vr.debugMessenger = nil
	}
	if context.Instance != nil {
		vk.DestroyInstance(context.Instance, context.Allocator)
		context.Instance = nil
	}
	core.LogInfo("Vulkan renderer shut down.")
	return nil
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
