package loaders

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/math"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

// mtlMaterial is a newmtl block before its textures are resolved.
type mtlMaterial struct {
	name      string
	ambient   math.Vec4
	diffuse   math.Vec4
	specular  math.Vec4
	shininess float32
	// texture paths as written in the library
	diffuseMap  string
	specularMap string
	normalMap   string
}

func newMtlMaterial(name string) *mtlMaterial {
	def := metadata.NewMaterial()
	return &mtlMaterial{
		name:      name,
		ambient:   def.Ambient,
		diffuse:   def.Diffuse,
		specular:  def.Specular,
		shininess: def.Shininess,
	}
}

/**
 * @brief Parses a material library. Colours are read as r g b with an
 * alpha of 1. Keywords outside newmtl, Ka, Kd, Ks, Ns, map_Ka, map_Kd,
 * map_Ks and norm are ignored.
 */
func parseMaterialLibrary(path string) (map[string]*mtlMaterial, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, core.ErrMaterialLibrary, err)
	}

	materials := make(map[string]*mtlMaterial)
	var current *mtlMaterial

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		keyword := fields[0]
		rest := strings.TrimSpace(line[len(keyword):])

		if keyword == "newmtl" {
			current = newMtlMaterial(rest)
			materials[rest] = current
			continue
		}
		if current == nil {
			continue
		}

		switch keyword {
		case "Ka", "Kd", "Ks":
			c, err := parseColour(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w: %w", path, lineNumber, core.ErrMaterialLibrary, err)
			}
			switch keyword {
			case "Ka":
				current.ambient = c
			case "Kd":
				current.diffuse = c
			default:
				current.specular = c
			}
		case "Ns":
			if len(fields) < 2 {
				return nil, fmt.Errorf("%s:%d: Ns without a value: %w", path, lineNumber, core.ErrMaterialLibrary)
			}
			ns, err := strconv.ParseFloat(fields[1], 32)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w: %w", path, lineNumber, core.ErrMaterialLibrary, err)
			}
			current.shininess = float32(ns)
		case "map_Ka":
			// no ambient texture slot
		case "map_Kd":
			current.diffuseMap = rest
		case "map_Ks":
			current.specularMap = rest
		case "norm":
			current.normalMap = rest
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, core.ErrMaterialLibrary, err)
	}
	return materials, nil
}

func parseColour(fields []string) (math.Vec4, error) {
	if len(fields) < 3 {
		return math.Vec4{}, fmt.Errorf("colour needs 3 components, got %d", len(fields))
	}
	var rgb [3]float32
	for i := range rgb {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return math.Vec4{}, err
		}
		rgb[i] = float32(f)
	}
	return math.NewVec4(rgb[0], rgb[1], rgb[2], 1), nil
}

/**
 * @brief Loads a standalone material library. The resource data is a
 * map of materials keyed by name with their textures uploaded.
 */
type MaterialLoader struct {
	Textures TextureCreator
	Images   ImageSource
}

func (ml *MaterialLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	ld := &objLoad{
		loader:    &OBJLoader{Textures: ml.Textures, Images: ml.Images},
		path:      path,
		library:   make(map[string]*mtlMaterial),
		materials: make(map[string]*metadata.Material),
		textures:  make(map[string]*metadata.Texture),
	}
	library, err := parseMaterialLibrary(path)
	if err != nil {
		return nil, err
	}
	ld.addLibrary(path, library)
	for name := range ld.library {
		ld.material(name)
	}
	return &metadata.Resource{
		Type:     metadata.ResourceTypeMaterial,
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(len(ld.materials)),
		Data:     ld.materials,
	}, nil
}

func (ml *MaterialLoader) Unload(resource *metadata.Resource) error {
	if resource != nil {
		resource.Data = nil
		resource.DataSize = 0
	}
	return nil
}
