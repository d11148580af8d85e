package shaders

import (
	"embed"
	"errors"
	"fmt"
	"path"

	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/math"
	"github.com/spaghettifunk/gef/engine/renderer/gpu"
	"github.com/spaghettifunk/gef/engine/renderer/layout"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

/**
 * @brief The part every shader variant shares. Scene data differs per
 * variant so each one exposes its own SetSceneData.
 */
type Shader interface {
	Name() string
	Interface() *layout.ShaderInterface
	Program() gpu.Program
	// SetMeshData writes the per object matrices derived from transform.
	SetMeshData(transform math.Mat4)
	// SetMaterialData writes the surface values and binds the material
	// textures. A nil material writes the defaults.
	SetMaterialData(material *metadata.Material)
	Destroy()
}

/** @brief Looks up a compiled or source program by name for a shader language. */
type Sources interface {
	Program(name string, language gpu.ShaderLanguage) ([]byte, error)
}

//go:embed assets/*.wgsl
var embedded embed.FS

type embeddedSources struct{}

// EmbeddedSources serves the WGSL programs built into the binary. It has
// nothing for other languages.
func EmbeddedSources() Sources {
	return embeddedSources{}
}

func (embeddedSources) Program(name string, language gpu.ShaderLanguage) ([]byte, error) {
	if language != gpu.ShaderLanguageWGSL {
		return nil, fmt.Errorf("no embedded %s program '%s'", language, name)
	}
	return embedded.ReadFile(path.Join("assets", name+".wgsl"))
}

// SourceChain asks each source in turn and returns the first program found.
type SourceChain []Sources

func (c SourceChain) Program(name string, language gpu.ShaderLanguage) ([]byte, error) {
	var errs []error
	for _, s := range c {
		if s == nil {
			continue
		}
		code, err := s.Program(name, language)
		if err == nil {
			return code, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("no source for program '%s'", name)
	}
	return nil, errors.Join(errs...)
}

/** @brief What a shader needs to realise its program on a device. */
type Options struct {
	Device gpu.Device
	// Textures supplies the fallback for empty sampler slots, usually the platform.
	Textures gpu.TextureProvider
	// Sources defaults to EmbeddedSources.
	Sources Sources
}

// shader holds the interface and program of a variant. Its mesh and
// material setters do nothing, variants override what they use.
type shader struct {
	name    string
	si      *layout.ShaderInterface
	program gpu.Program
}

func (o Options) build(name, vertexProgram, pixelProgram string, b *layout.Builder) (shader, error) {
	if o.Device == nil {
		return shader{}, fmt.Errorf("shader '%s' has no device: %w", name, core.ErrShaderCompile)
	}
	sources := o.Sources
	if sources == nil {
		sources = EmbeddedSources()
	}
	language := o.Device.ShaderLanguage()

	vs, err := sources.Program(vertexProgram, language)
	if err != nil {
		core.LogError("shader '%s': unable to load vertex program '%s': %s", name, vertexProgram, err)
		return shader{}, fmt.Errorf("shader '%s' vertex program '%s': %v: %w", name, vertexProgram, err, core.ErrShaderCompile)
	}
	ps, err := sources.Program(pixelProgram, language)
	if err != nil {
		core.LogError("shader '%s': unable to load pixel program '%s': %s", name, pixelProgram, err)
		return shader{}, fmt.Errorf("shader '%s' pixel program '%s': %v: %w", name, pixelProgram, err, core.ErrShaderCompile)
	}
	b.SetVertexSource(vs)
	b.SetPixelSource(ps)

	si := b.AllocateVariableData()
	program, err := o.Device.CreateProgram(gpu.ProgramDescriptor{
		Name:      name,
		Interface: si,
		Textures:  o.Textures,
	})
	if err != nil {
		return shader{}, err
	}
	core.LogDebug("shader '%s' created on %s", name, o.Device.Backend())
	return shader{name: name, si: si, program: program}, nil
}

func (s *shader) Name() string { return s.name }

func (s *shader) Interface() *layout.ShaderInterface { return s.si }

func (s *shader) Program() gpu.Program { return s.program }

func (s *shader) SetMeshData(transform math.Mat4) {}

func (s *shader) SetMaterialData(material *metadata.Material) {}

func (s *shader) Destroy() {
	if s.program != nil {
		s.program.Destroy()
		s.program = nil
	}
}

// packLights resolves a nil light set to an empty one lit by white ambient.
func packLights(lightData *metadata.LightData) (math.Vec4, [metadata.MaxLights]metadata.Light) {
	if lightData == nil {
		lightData = metadata.NewLightData()
	}
	return lightData.AmbientColour().ToVec4(1), lightData.PackLights()
}
