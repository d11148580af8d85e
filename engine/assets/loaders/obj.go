package loaders

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/math"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

// TextureCreator uploads decoded images. The platform implements it.
type TextureCreator interface {
	CreateTexture(img *metadata.Image) (*metadata.Texture, error)
}

// ImageSource decodes image files.
type ImageSource interface {
	LoadImage(path string) (*metadata.Image, error)
}

/**
 * @brief Loads Wavefront OBJ meshes and their MTL material libraries.
 * Faces are expanded into a flat vertex buffer, three unique vertices per
 * triangle, with the winding reversed to clockwise.
 */
type OBJLoader struct {
	/** @brief Uploads material textures. Nil skips texture loading. */
	Textures TextureCreator
	/** @brief Decodes texture files. Defaults to a TextureLoader. */
	Images ImageSource
}

type objIndex struct {
	position int
	uv       int
	normal   int
}

type objPrimitive struct {
	start    int
	material string
}

// objLoad holds the state of a single LoadModel call.
type objLoad struct {
	loader *OBJLoader
	path   string
	dir    string

	positions []math.Vec3
	normals   []math.Vec3
	uvs       []math.Vec2
	faces     []objIndex
	runs      []objPrimitive

	library   map[string]*mtlMaterial
	materials map[string]*metadata.Material
	textures  map[string]*metadata.Texture
}

func (l *OBJLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	model, err := l.LoadModel(path)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Type:     metadata.ResourceTypeModel,
		Name:     model.Name,
		FullPath: path,
		DataSize: uint64(len(model.Mesh.Vertices)),
		Data:     model,
	}, nil
}

func (l *OBJLoader) Unload(resource *metadata.Resource) error {
	if resource == nil {
		return nil
	}
	if model, ok := resource.Data.(*metadata.Model); ok {
		model.Release(nil)
	}
	resource.Data = nil
	resource.DataSize = 0
	return nil
}

// LoadModel parses the OBJ file at path. Any failure to read the file
// returns an error wrapping core.ErrModelLoad and no model.
func (l *OBJLoader) LoadModel(path string) (*metadata.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, core.ErrModelLoad, err)
	}

	ld := &objLoad{
		loader:    l,
		path:      path,
		dir:       filepath.Dir(path),
		runs:      []objPrimitive{{start: 0}},
		library:   make(map[string]*mtlMaterial),
		materials: make(map[string]*metadata.Material),
		textures:  make(map[string]*metadata.Texture),
	}
	if err := ld.parse(data); err != nil {
		return nil, err
	}
	model := ld.build()
	core.LogDebug("loaded model '%s': %d vertices, %d primitives, %d textures",
		model.Name, model.Mesh.VertexCount, len(model.Mesh.Primitives), len(model.Textures))
	return model, nil
}

func (ld *objLoad) parse(data []byte) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		var err error
		switch fields[0] {
		case "mtllib":
			for _, library := range fields[1:] {
				ld.loadMaterialLibrary(library)
			}
		case "v":
			var v [3]float32
			if v, err = parseFloats3(fields[1:], 3); err == nil {
				ld.positions = append(ld.positions, math.NewVec3(v[0], v[1], v[2]))
			}
		case "vn":
			var v [3]float32
			if v, err = parseFloats3(fields[1:], 3); err == nil {
				ld.normals = append(ld.normals, math.NewVec3(v[0], v[1], v[2]))
			}
		case "vt":
			var v [3]float32
			if v, err = parseFloats3(fields[1:], 1); err == nil {
				ld.uvs = append(ld.uvs, math.NewVec2(v[0], -v[1]))
			}
		case "usemtl":
			ld.runs = append(ld.runs, objPrimitive{
				start:    len(ld.faces),
				material: strings.TrimSpace(line[len("usemtl"):]),
			})
		case "f":
			err = ld.parseFace(fields[1:])
		}
		if err != nil {
			return fmt.Errorf("%s:%d: %w: %w", ld.path, lineNumber, core.ErrModelLoad, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%s: %w: %w", ld.path, core.ErrModelLoad, err)
	}
	return nil
}

// parseFace appends the face as triangles, each one stored third vertex
// first. Polygons are split into a fan around their first corner.
func (ld *objLoad) parseFace(corners []string) error {
	if len(corners) < 3 {
		return fmt.Errorf("face with %d corners", len(corners))
	}
	indices := make([]objIndex, len(corners))
	for i, c := range corners {
		idx, err := ld.parseCorner(c)
		if err != nil {
			return err
		}
		indices[i] = idx
	}
	for k := 1; k+1 < len(indices); k++ {
		ld.faces = append(ld.faces, indices[k+1], indices[k], indices[0])
	}
	return nil
}

func (ld *objLoad) parseCorner(corner string) (objIndex, error) {
	parts := strings.Split(corner, "/")
	idx := objIndex{position: -1, uv: -1, normal: -1}
	targets := []*int{&idx.position, &idx.uv, &idx.normal}
	counts := []int{len(ld.positions), len(ld.uvs), len(ld.normals)}
	for i, part := range parts {
		if i >= len(targets) {
			break
		}
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return idx, fmt.Errorf("bad face index '%s': %w", corner, err)
		}
		resolved, err := resolveIndex(n, counts[i])
		if err != nil {
			return idx, fmt.Errorf("face corner '%s': %w", corner, err)
		}
		*targets[i] = resolved
	}
	if idx.position < 0 {
		return idx, fmt.Errorf("face corner '%s' has no position", corner)
	}
	return idx, nil
}

// resolveIndex converts a 1-based, or negative relative, OBJ index into a
// 0-based one.
func resolveIndex(n, count int) (int, error) {
	switch {
	case n > 0 && n <= count:
		return n - 1, nil
	case n < 0 && -n <= count:
		return count + n, nil
	default:
		return 0, fmt.Errorf("index %d out of range [1, %d]", n, count)
	}
}

func parseFloats3(fields []string, required int) ([3]float32, error) {
	var out [3]float32
	if len(fields) < required {
		return out, fmt.Errorf("expected %d values, got %d", required, len(fields))
	}
	for i := 0; i < len(out) && i < len(fields); i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return out, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// loadMaterialLibrary merges the library into the load. A library that
// cannot be read only produces a warning.
func (ld *objLoad) loadMaterialLibrary(file string) {
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(ld.dir, file)
	}
	library, err := parseMaterialLibrary(path)
	if err != nil {
		core.LogWarn("unable to load material library '%s' for model '%s': %s", file, ld.path, err)
		return
	}
	ld.addLibrary(path, library)
}

// addLibrary resolves the texture paths of library against its own
// directory and merges it into the load.
func (ld *objLoad) addLibrary(path string, library map[string]*mtlMaterial) {
	dir := filepath.Dir(path)
	for name, m := range library {
		m.diffuseMap = resolvePath(dir, m.diffuseMap)
		m.specularMap = resolvePath(dir, m.specularMap)
		m.normalMap = resolvePath(dir, m.normalMap)
		ld.library[name] = m
	}
}

func resolvePath(dir, file string) string {
	if file == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(dir, file)
}

func (ld *objLoad) build() *metadata.Model {
	vertices := make([]metadata.Vertex, len(ld.faces))
	aabb := math.NewAabb()
	for i, f := range ld.faces {
		v := metadata.Vertex{Position: ld.positions[f.position]}
		if f.uv >= 0 {
			v.UV = ld.uvs[f.uv]
		}
		if f.normal >= 0 {
			v.Normal = ld.normals[f.normal]
		}
		vertices[i] = v
		aabb.Update(v.Position)
	}

	mesh := metadata.NewMesh(vertices)
	if len(vertices) > 0 {
		mesh.Aabb = aabb
		mesh.Sphere = math.NewSphereFromAabb(aabb)
	}

	for i, run := range ld.runs {
		end := len(ld.faces)
		if i+1 < len(ld.runs) {
			end = ld.runs[i+1].start
		}
		if end == run.start {
			continue
		}
		prim := &metadata.Primitive{Indices: make([]uint32, 0, end-run.start)}
		for idx := run.start; idx < end; idx++ {
			prim.Indices = append(prim.Indices, uint32(idx))
		}
		if run.material != "" {
			prim.Material = ld.material(run.material)
		}
		mesh.Primitives = append(mesh.Primitives, prim)
	}

	return &metadata.Model{
		ID:        uuid.NewString(),
		Name:      filepath.Base(ld.path),
		Mesh:      mesh,
		Materials: ld.materials,
		Textures:  ld.textures,
	}
}

// material returns the named material, creating it once per load.
func (ld *objLoad) material(name string) *metadata.Material {
	if m, ok := ld.materials[name]; ok {
		return m
	}
	def, ok := ld.library[name]
	if !ok {
		core.LogWarn("no material '%s' found while loading model '%s'", name, ld.path)
		return nil
	}
	m := &metadata.Material{
		Name:            def.name,
		Ambient:         def.ambient,
		Diffuse:         def.diffuse,
		Specular:        def.specular,
		Shininess:       def.shininess,
		DiffuseTexture:  ld.texture(def.diffuseMap),
		SpecularTexture: ld.texture(def.specularMap),
		NormalTexture:   ld.texture(def.normalMap),
	}
	ld.materials[name] = m
	return m
}

// texture loads a texture file at most once per load.
func (ld *objLoad) texture(path string) *metadata.Texture {
	if path == "" || ld.loader.Textures == nil {
		return nil
	}
	if t, ok := ld.textures[path]; ok {
		return t
	}
	images := ld.loader.Images
	if images == nil {
		images = &TextureLoader{}
	}
	img, err := images.LoadImage(path)
	if err == nil {
		var t *metadata.Texture
		if t, err = ld.loader.Textures.CreateTexture(img); err == nil {
			ld.textures[path] = t
			return t
		}
	}
	if errors.Is(err, os.ErrNotExist) {
		core.LogWarn("texture '%s' of model '%s' does not exist", path, ld.path)
	} else {
		core.LogWarn("unable to load texture '%s' of model '%s': %s", path, ld.path, err)
	}
	return nil
}
