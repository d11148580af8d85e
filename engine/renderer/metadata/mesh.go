package metadata

import (
	"encoding/binary"
	stdmath "math"

	"github.com/spaghettifunk/gef/engine/math"
)

const (
	/** @brief Bytes per vertex for the static lit layout. */
	VertexSize = 32
	/** @brief Bytes per vertex for the skinned layout. */
	SkinnedVertexSize = 52
)

/** @brief A static vertex: position, normal and texture coordinate. */
type Vertex struct {
	Position math.Vec3
	Normal   math.Vec3
	UV       math.Vec2
}

// Encode writes the vertex as 8 little endian floats.
func (v Vertex) Encode(dst []byte) {
	putFloats(dst, v.Position.X, v.Position.Y, v.Position.Z, v.Normal.X, v.Normal.Y, v.Normal.Z, v.UV.X, v.UV.Y)
}

/** @brief A vertex with up to four bone influences. */
type SkinnedVertex struct {
	Position    math.Vec3
	Normal      math.Vec3
	BoneIndices [4]uint8
	BoneWeights math.Vec4
	UV          math.Vec2
}

func (v SkinnedVertex) Encode(dst []byte) {
	putFloats(dst, v.Position.X, v.Position.Y, v.Position.Z, v.Normal.X, v.Normal.Y, v.Normal.Z)
	copy(dst[24:28], v.BoneIndices[:])
	putFloats(dst[28:], v.BoneWeights.X, v.BoneWeights.Y, v.BoneWeights.Z, v.BoneWeights.W, v.UV.X, v.UV.Y)
}

func putFloats(dst []byte, values ...float32) {
	for i, f := range values {
		binary.LittleEndian.PutUint32(dst[i*4:], stdmath.Float32bits(f))
	}
}

// EncodeVertices packs vertices into a contiguous buffer of VertexSize strides.
func EncodeVertices(vertices []Vertex) []byte {
	out := make([]byte, len(vertices)*VertexSize)
	for i, v := range vertices {
		v.Encode(out[i*VertexSize:])
	}
	return out
}

func EncodeSkinnedVertices(vertices []SkinnedVertex) []byte {
	out := make([]byte, len(vertices)*SkinnedVertexSize)
	for i, v := range vertices {
		v.Encode(out[i*SkinnedVertexSize:])
	}
	return out
}

// DecodeVertex reads back a vertex written by Vertex.Encode.
func DecodeVertex(src []byte) Vertex {
	f := func(i int) float32 { return stdmath.Float32frombits(binary.LittleEndian.Uint32(src[i*4:])) }
	return Vertex{
		Position: math.NewVec3(f(0), f(1), f(2)),
		Normal:   math.NewVec3(f(3), f(4), f(5)),
		UV:       math.NewVec2(f(6), f(7)),
	}
}

/**
 * @brief A run of triangles sharing one material. Indices are already
 * expanded, so they address the owning mesh's vertex buffer directly.
 */
type Primitive struct {
	Indices  []uint32
	Material *Material
	/** @brief Backend index buffer, created lazily by the renderer. */
	InternalData interface{}
}

/**
 * @brief Interleaved vertex data plus its primitives and bounds.
 */
type Mesh struct {
	/** @brief Raw vertex bytes, VertexCount*VertexSize long. */
	Vertices    []byte
	VertexSize  uint32
	VertexCount uint32
	Skinned     bool
	Primitives  []*Primitive
	Aabb        math.Aabb
	Sphere      math.Sphere
	/** @brief Backend vertex buffer, created lazily by the renderer. */
	InternalData interface{}
}

// NewMesh builds a static mesh from decoded vertices.
func NewMesh(vertices []Vertex) *Mesh {
	return &Mesh{
		Vertices:    EncodeVertices(vertices),
		VertexSize:  VertexSize,
		VertexCount: uint32(len(vertices)),
		Aabb:        math.NewAabb(),
	}
}

func NewSkinnedMesh(vertices []SkinnedVertex) *Mesh {
	return &Mesh{
		Vertices:    EncodeSkinnedVertices(vertices),
		VertexSize:  SkinnedVertexSize,
		VertexCount: uint32(len(vertices)),
		Skinned:     true,
		Aabb:        math.NewAabb(),
	}
}

// Vertex decodes vertex i of a static mesh.
func (m *Mesh) Vertex(i uint32) Vertex {
	return DecodeVertex(m.Vertices[i*m.VertexSize:])
}

// IndexCount returns the total number of indices across all primitives.
func (m *Mesh) IndexCount() int {
	n := 0
	for _, p := range m.Primitives {
		n += len(p.Indices)
	}
	return n
}
