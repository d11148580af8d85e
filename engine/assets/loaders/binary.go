package loaders

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

// spirvMagic opens every SPIR-V module.
const spirvMagic uint32 = 0x07230203

/** @brief Reads compiled SPIR-V modules as little endian words. */
type BinaryLoader struct{}

func (bl *BinaryLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	res, err := bytesToBytecode(buf)
	if err != nil {
		return nil, fmt.Errorf("'%s': %w", path, err)
	}

	name := filepath.Base(path)
	if p, ok := params.(map[string]string); ok && p["name"] != "" {
		name = p["name"]
	}

	return &metadata.Resource{
		Type:     metadata.ResourceTypeBinary,
		Name:     name,
		FullPath: path,
		DataSize: uint64(len(buf)),
		Data:     res,
	}, nil
}

func (bl *BinaryLoader) Unload(resource *metadata.Resource) error {
	if resource != nil {
		resource.Data = nil
		resource.DataSize = 0
	}
	return nil
}

func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("spir-v size %d is not a multiple of 4", len(b))
	}
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}
	if byteCode[0] != spirvMagic {
		return nil, fmt.Errorf("bad spir-v magic 0x%08x", byteCode[0])
	}
	return byteCode, nil
}
