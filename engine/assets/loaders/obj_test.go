package loaders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/math"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTextures struct {
	created []*metadata.Image
}

func (f *fakeTextures) CreateTexture(img *metadata.Image) (*metadata.Texture, error) {
	f.created = append(f.created, img)
	return &metadata.Texture{Name: img.Name}, nil
}

type fakeImages struct {
	loaded []string
}

func (f *fakeImages) LoadImage(path string) (*metadata.Image, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	f.loaded = append(f.loaded, path)
	return metadata.NewSolidImage(1, metadata.NewColour(1, 1, 1, 1)), nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const quadOBJ = `# unit quad
mtllib quad.mtl
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
usemtl red
f 1/1/1 2/2/1 3/3/1
usemtl blue
f 1/1/1 3/3/1 4/4/1
`

const quadMTL = `newmtl red
Ka 0.1 0.2 0.3
Kd 1 0 0
Ks 0.5 0.5 0.5
Ns 32
map_Kd shared.png

newmtl blue
Kd 0 0 1
map_Kd shared.png
map_Ks spec.png
`

func TestLoadModelQuad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "quad.obj", quadOBJ)
	writeFile(t, dir, "quad.mtl", quadMTL)

	model, err := (&OBJLoader{}).LoadModel(path)
	require.NoError(t, err)
	assert.NotEmpty(t, model.ID)
	assert.Equal(t, "quad.obj", model.Name)

	mesh := model.Mesh
	assert.Equal(t, uint32(6), mesh.VertexCount)
	assert.Equal(t, uint32(metadata.VertexSize), mesh.VertexSize)
	require.Len(t, mesh.Primitives, 2)
	assert.Equal(t, int(mesh.VertexCount), mesh.IndexCount())
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Primitives[0].Indices)
	assert.Equal(t, []uint32{3, 4, 5}, mesh.Primitives[1].Indices)

	// the first triangle is stored third vertex first
	assert.Equal(t, math.NewVec3(1, 1, 0), mesh.Vertex(0).Position)
	assert.Equal(t, math.NewVec3(1, 0, 0), mesh.Vertex(1).Position)
	assert.Equal(t, math.NewVec3(0, 0, 0), mesh.Vertex(2).Position)
	assert.Equal(t, math.NewVec2(1, -1), mesh.Vertex(0).UV)
	assert.Equal(t, math.NewVec3(0, 0, 1), mesh.Vertex(0).Normal)

	assert.Equal(t, math.NewVec3(0, 0, 0), mesh.Aabb.Min)
	assert.Equal(t, math.NewVec3(1, 1, 0), mesh.Aabb.Max)
	assert.Equal(t, math.NewSphereFromAabb(mesh.Aabb), mesh.Sphere)

	red := mesh.Primitives[0].Material
	require.NotNil(t, red)
	assert.Equal(t, "red", red.Name)
	assert.Equal(t, math.NewVec4(0.1, 0.2, 0.3, 1), red.Ambient)
	assert.Equal(t, math.NewVec4(1, 0, 0, 1), red.Diffuse)
	assert.Equal(t, math.NewVec4(0.5, 0.5, 0.5, 1), red.Specular)
	assert.Equal(t, float32(32), red.Shininess)
	// no texture creator, no textures
	assert.Nil(t, red.DiffuseTexture)
	assert.Len(t, model.Materials, 2)
	assert.Empty(t, model.Textures)
}

func TestLoadModelMemoizesTextures(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "quad.obj", quadOBJ)
	writeFile(t, dir, "quad.mtl", quadMTL)
	writeFile(t, dir, "shared.png", "")
	writeFile(t, dir, "spec.png", "")

	textures := &fakeTextures{}
	images := &fakeImages{}
	model, err := (&OBJLoader{Textures: textures, Images: images}).LoadModel(path)
	require.NoError(t, err)

	assert.Len(t, textures.created, 2)
	assert.Len(t, model.Textures, 2)
	red := model.Materials["red"]
	blue := model.Materials["blue"]
	require.NotNil(t, red.DiffuseTexture)
	assert.Same(t, red.DiffuseTexture, blue.DiffuseTexture)
	assert.NotNil(t, blue.SpecularTexture)
	assert.Nil(t, red.SpecularTexture)
	assert.Contains(t, images.loaded, filepath.Join(dir, "shared.png"))
}

func TestLoadModelMissingTexture(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "quad.obj", quadOBJ)
	writeFile(t, dir, "quad.mtl", quadMTL)

	textures := &fakeTextures{}
	model, err := (&OBJLoader{Textures: textures, Images: &fakeImages{}}).LoadModel(path)
	require.NoError(t, err)
	assert.Empty(t, textures.created)
	assert.Nil(t, model.Materials["red"].DiffuseTexture)
}

func TestLoadModelMissingMaterial(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tri.obj", `mtllib tri.mtl
v 0 0 0
v 1 0 0
v 0 1 0
usemtl nowhere
f 1 2 3
`)
	writeFile(t, dir, "tri.mtl", "newmtl somewhere\nKd 1 1 1\n")

	model, err := (&OBJLoader{}).LoadModel(path)
	require.NoError(t, err)
	require.Len(t, model.Mesh.Primitives, 1)
	assert.Nil(t, model.Mesh.Primitives[0].Material)
	assert.Empty(t, model.Materials)
}

func TestLoadModelMissingMaterialLibrary(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tri.obj", `mtllib gone.mtl
v 0 0 0
v 1 0 0
v 0 1 0
usemtl red
f 1 2 3
`)
	model, err := (&OBJLoader{}).LoadModel(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), model.Mesh.VertexCount)
	assert.Nil(t, model.Mesh.Primitives[0].Material)
}

func TestLoadModelSeveralMaterialLibraries(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "two.obj", `mtllib red.mtl blue.mtl
v 0 0 0
v 1 0 0
v 0 1 0
usemtl red
f 1 2 3
usemtl blue
f 3 2 1
`)
	writeFile(t, dir, "red.mtl", "newmtl red\nKd 1 0 0\n")
	writeFile(t, dir, "blue.mtl", "newmtl blue\nKd 0 0 1\n")

	model, err := (&OBJLoader{}).LoadModel(path)
	require.NoError(t, err)
	prims := model.Mesh.Primitives
	require.Len(t, prims, 2)
	require.NotNil(t, prims[0].Material)
	require.NotNil(t, prims[1].Material)
	assert.Equal(t, math.NewVec4(1, 0, 0, 1), prims[0].Material.Diffuse)
	assert.Equal(t, math.NewVec4(0, 0, 1, 1), prims[1].Material.Diffuse)
}

func TestLoadModelImplicitPrimitive(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "mixed.obj", `mtllib mixed.mtl
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
f 3 2 1
usemtl red
f 1 2 3
`)
	writeFile(t, dir, "mixed.mtl", "newmtl red\n")

	model, err := (&OBJLoader{}).LoadModel(path)
	require.NoError(t, err)
	prims := model.Mesh.Primitives
	require.Len(t, prims, 2)
	assert.Len(t, prims[0].Indices, 6)
	assert.Nil(t, prims[0].Material)
	assert.Equal(t, []uint32{6, 7, 8}, prims[1].Indices)
	require.NotNil(t, prims[1].Material)
	assert.Equal(t, metadata.NewMaterial().Diffuse, prims[1].Material.Diffuse)
}

func TestLoadModelEmptyRunsAreDropped(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "runs.obj", `v 0 0 0
v 1 0 0
v 0 1 0
usemtl a
usemtl b
f 1 2 3
`)
	model, err := (&OBJLoader{}).LoadModel(path)
	require.NoError(t, err)
	require.Len(t, model.Mesh.Primitives, 1)
	assert.Equal(t, 3, model.Mesh.IndexCount())
}

func TestLoadModelPolygonsAndRelativeIndices(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "poly.obj", `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
f -4//1 -3//1 -2//1 -1//1
`)
	model, err := (&OBJLoader{}).LoadModel(path)
	require.NoError(t, err)
	mesh := model.Mesh
	assert.Equal(t, uint32(6), mesh.VertexCount)
	assert.Equal(t, math.NewVec3(1, 1, 0), mesh.Vertex(0).Position)
	assert.Equal(t, math.NewVec3(0, 1, 0), mesh.Vertex(3).Position)
	assert.Equal(t, math.NewVec3(0, 0, 0), mesh.Vertex(5).Position)
	assert.Equal(t, math.NewVec2(0, 0), mesh.Vertex(0).UV)
	assert.Equal(t, math.NewVec3(0, 0, 1), mesh.Vertex(4).Normal)
}

func TestLoadModelErrors(t *testing.T) {
	_, err := (&OBJLoader{}).LoadModel(filepath.Join(t.TempDir(), "missing.obj"))
	assert.ErrorIs(t, err, core.ErrModelLoad)
	assert.ErrorIs(t, err, os.ErrNotExist)

	dir := t.TempDir()
	cases := map[string]string{
		"range.obj":   "v 0 0 0\nf 1 2 3\n",
		"number.obj":  "v 0 0 0\nf 1 a 1\n",
		"short.obj":   "v 0 0 0\nf 1 1\n",
		"vertex.obj":  "v 0 zero 0\n",
		"texture.obj": "v 0 0 0\nf 1/2 1/2 1/2\n",
	}
	for name, content := range cases {
		_, err := (&OBJLoader{}).LoadModel(writeFile(t, dir, name, content))
		assert.ErrorIs(t, err, core.ErrModelLoad, name)
	}
}

func TestLoadModelWithoutFaces(t *testing.T) {
	path := writeFile(t, t.TempDir(), "points.obj", "v 0 0 0\nv 1 1 1\n")
	model, err := (&OBJLoader{}).LoadModel(path)
	require.NoError(t, err)
	assert.Zero(t, model.Mesh.VertexCount)
	assert.Empty(t, model.Mesh.Primitives)
	assert.True(t, model.Mesh.Aabb.IsEmpty())
}

func TestOBJLoaderResource(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "quad.obj", quadOBJ)
	writeFile(t, dir, "quad.mtl", quadMTL)

	l := &OBJLoader{}
	res, err := l.Load(path, metadata.ResourceTypeModel, nil)
	require.NoError(t, err)
	assert.Equal(t, metadata.ResourceTypeModel, res.Type)
	model, ok := res.Data.(*metadata.Model)
	require.True(t, ok)
	assert.Equal(t, uint64(6*metadata.VertexSize), res.DataSize)

	require.NoError(t, l.Unload(res))
	assert.Nil(t, res.Data)
	assert.Nil(t, model.Mesh)
}

func TestParseMaterialLibrary(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "lib.mtl", `# materials
Kd 9 9 9
newmtl plain

newmtl shiny
Ks 1 1 1
Ns 64
map_Ka ambient.png
map_Kd textures/diffuse map.png
norm normal.png
`)
	lib, err := parseMaterialLibrary(path)
	require.NoError(t, err)
	require.Len(t, lib, 2)

	def := metadata.NewMaterial()
	plain := lib["plain"]
	assert.Equal(t, def.Ambient, plain.ambient)
	assert.Equal(t, def.Diffuse, plain.diffuse)
	assert.Equal(t, def.Specular, plain.specular)
	assert.Equal(t, def.Shininess, plain.shininess)

	shiny := lib["shiny"]
	assert.Equal(t, math.NewVec4(1, 1, 1, 1), shiny.specular)
	assert.Equal(t, float32(64), shiny.shininess)
	assert.Equal(t, "textures/diffuse map.png", shiny.diffuseMap)
	assert.Equal(t, "normal.png", shiny.normalMap)
	assert.Empty(t, shiny.specularMap)

	_, err = parseMaterialLibrary(writeFile(t, dir, "bad.mtl", "newmtl x\nKd 1 1\n"))
	assert.ErrorIs(t, err, core.ErrMaterialLibrary)
	_, err = parseMaterialLibrary(filepath.Join(dir, "none.mtl"))
	assert.ErrorIs(t, err, core.ErrMaterialLibrary)
}

func TestMaterialLoader(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "quad.mtl", quadMTL)
	writeFile(t, dir, "shared.png", "")

	textures := &fakeTextures{}
	res, err := (&MaterialLoader{Textures: textures, Images: &fakeImages{}}).Load(path, metadata.ResourceTypeMaterial, nil)
	require.NoError(t, err)
	materials, ok := res.Data.(map[string]*metadata.Material)
	require.True(t, ok)
	assert.Len(t, materials, 2)
	assert.Len(t, textures.created, 1)
	assert.Same(t, materials["red"].DiffuseTexture, materials["blue"].DiffuseTexture)
}
