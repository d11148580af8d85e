package loaders

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/gef/engine/renderer/gpu"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

/**
 * @brief Reads shader programs from disk. WGSL programs live in
 * <Dir>/<name>.wgsl and compiled SPIR-V in <Dir>/<name>.spv.
 */
type ShaderLoader struct {
	Dir string
}

func (sl *ShaderLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Type:     metadata.ResourceTypeShader,
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(len(data)),
		Data:     data,
	}, nil
}

func (sl *ShaderLoader) Unload(resource *metadata.Resource) error {
	if resource != nil {
		resource.Data = nil
		resource.DataSize = 0
	}
	return nil
}

// Program returns the source of the named program in the given language.
func (sl *ShaderLoader) Program(name string, language gpu.ShaderLanguage) ([]byte, error) {
	switch language {
	case gpu.ShaderLanguageWGSL:
		return os.ReadFile(filepath.Join(sl.Dir, name+".wgsl"))
	case gpu.ShaderLanguageSPIRV:
		path := filepath.Join(sl.Dir, name+".spv")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if _, err := bytesToBytecode(data); err != nil {
			return nil, fmt.Errorf("'%s': %w", path, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported shader language %s", language)
	}
}
