package gpu

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/renderer/layout"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

type BackendType int

const (
	BackendHeadless BackendType = iota
	BackendVulkan
	BackendWebGPU
)

func (b BackendType) String() string {
	switch b {
	case BackendHeadless:
		return "headless"
	case BackendVulkan:
		return "vulkan"
	case BackendWebGPU:
		return "webgpu"
	}
	return fmt.Sprintf("BackendType(%d)", int(b))
}

// ParseBackendType maps a configuration string to a backend.
func ParseBackendType(name string) (BackendType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "headless":
		return BackendHeadless, nil
	case "vulkan":
		return BackendVulkan, nil
	case "webgpu", "wgpu":
		return BackendWebGPU, nil
	}
	return 0, fmt.Errorf("backend '%s': %w", name, core.ErrUnknownBackend)
}

/** @brief The program format a backend consumes. */
type ShaderLanguage int

const (
	ShaderLanguageWGSL ShaderLanguage = iota
	ShaderLanguageSPIRV
)

func (l ShaderLanguage) String() string {
	switch l {
	case ShaderLanguageWGSL:
		return "wgsl"
	case ShaderLanguageSPIRV:
		return "spirv"
	}
	return fmt.Sprintf("ShaderLanguage(%d)", int(l))
}

/** @brief How triangles are rasterised. */
type FillMode int

const (
	FillModeSolid FillMode = iota
	FillModeWireframe
	FillModeLines
)

func ParseFillMode(s string) (FillMode, error) {
	switch s {
	case "solid", "":
		return FillModeSolid, nil
	case "wireframe":
		return FillModeWireframe, nil
	case "lines":
		return FillModeLines, nil
	}
	return FillModeSolid, fmt.Errorf("fill mode '%s': %w", s, core.ErrConfig)
}

type DepthTest int

const (
	DepthTestLessEqual DepthTest = iota
	DepthTestAlways
)

func ParseDepthTest(s string) (DepthTest, error) {
	switch s {
	case "less_equal", "":
		return DepthTestLessEqual, nil
	case "always":
		return DepthTestAlways, nil
	}
	return DepthTestLessEqual, fmt.Errorf("depth test '%s': %w", s, core.ErrConfig)
}

/** @brief Fixed function state a program is drawn with. */
type RenderState struct {
	FillMode  FillMode
	DepthTest DepthTest
}

type ClearFlags uint8

const (
	ClearColour ClearFlags = 1 << iota
	ClearDepth
	ClearStencil
)

/** @brief What to clear at the start of a frame. */
type ClearOptions struct {
	Flags   ClearFlags
	Colour  metadata.Colour
	Depth   float32
	Stencil uint32
}

/**
 * @brief Supplies the textures bound to a sampler slot that has nothing
 * bound. Implemented by the platform.
 */
type TextureProvider interface {
	DefaultTexture() *metadata.Texture
	DefaultNormalTexture() *metadata.Texture
}

/**
 * @brief Everything a backend needs to realise a program. Interface must be
 * allocated already.
 */
type ProgramDescriptor struct {
	Name      string
	Interface *layout.ShaderInterface
	Textures  TextureProvider
}

// ResolveTexture picks the texture for a sampler slot: the bound texture,
// then the default normal map for normal slots, then the default texture.
// It returns nil when nothing is available.
func ResolveTexture(sampler layout.TextureSampler, provider TextureProvider) *metadata.Texture {
	if sampler.Texture != nil {
		return sampler.Texture
	}
	if provider == nil {
		return nil
	}
	if sampler.Role == metadata.TextureUseMapNormal {
		if t := provider.DefaultNormalTexture(); t != nil {
			return t
		}
	}
	return provider.DefaultTexture()
}
