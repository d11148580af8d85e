package webgpu

import (
	"encoding/binary"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

type meshBuffers struct {
	vertex      *wgpu.Buffer
	vertexCount uint32
}

type indexBuffer struct {
	buffer *wgpu.Buffer
	count  uint32
}

func encodeIndices(indices []uint32) []byte {
	out := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(out[i*4:], idx)
	}
	return out
}

func (d *Device) CreateMeshBuffers(mesh *metadata.Mesh) error {
	if mesh.InternalData != nil {
		return nil
	}
	if mesh.VertexCount == 0 || uint32(len(mesh.Vertices)) != mesh.VertexCount*mesh.VertexSize {
		return fmt.Errorf("mesh holds %d bytes for %d vertices of %d bytes", len(mesh.Vertices), mesh.VertexCount, mesh.VertexSize)
	}
	for _, p := range mesh.Primitives {
		for _, idx := range p.Indices {
			if idx >= mesh.VertexCount {
				return fmt.Errorf("index %d out of range for %d vertices", idx, mesh.VertexCount)
			}
		}
	}

	vertex, err := d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Vertex Buffer",
		Contents: mesh.Vertices,
		Usage:    wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	mesh.InternalData = &meshBuffers{vertex: vertex, vertexCount: mesh.VertexCount}

	for _, p := range mesh.Primitives {
		if len(p.Indices) == 0 {
			continue
		}
		buf, err := d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    "Index Buffer",
			Contents: encodeIndices(p.Indices),
			Usage:    wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			d.DestroyMeshBuffers(mesh)
			return err
		}
		p.InternalData = &indexBuffer{buffer: buf, count: uint32(len(p.Indices))}
	}
	return nil
}

func (d *Device) DestroyMeshBuffers(mesh *metadata.Mesh) {
	if data, ok := mesh.InternalData.(*meshBuffers); ok {
		data.vertex.Release()
	}
	mesh.InternalData = nil
	for _, p := range mesh.Primitives {
		if data, ok := p.InternalData.(*indexBuffer); ok {
			data.buffer.Release()
		}
		p.InternalData = nil
	}
}

func (d *Device) bindVertexBuffer(mesh *metadata.Mesh) (*meshBuffers, bool) {
	data, ok := mesh.InternalData.(*meshBuffers)
	if !ok || d.current == nil || d.framePass == nil {
		core.LogWarn("webgpu: draw skipped, program, frame or buffers missing")
		return nil, false
	}
	if !d.current.prepareDraw() {
		return nil, false
	}
	d.framePass.SetVertexBuffer(0, data.vertex, 0, wgpu.WholeSize)
	return data, true
}

func (d *Device) DrawPrimitive(mesh *metadata.Mesh, primitive *metadata.Primitive) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.bindVertexBuffer(mesh); !ok {
		return
	}
	indices, ok := primitive.InternalData.(*indexBuffer)
	if !ok {
		core.LogWarn("webgpu: primitive has no index buffer")
		return
	}
	d.framePass.SetIndexBuffer(indices.buffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	d.framePass.DrawIndexed(indices.count, 1, 0, 0, 0)
}

func (d *Device) DrawVertices(mesh *metadata.Mesh, first, count uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, ok := d.bindVertexBuffer(mesh)
	if !ok {
		return
	}
	if first+count > data.vertexCount {
		core.LogWarn("webgpu: draw of %d vertices from %d exceeds %d", count, first, data.vertexCount)
		return
	}
	d.framePass.Draw(count, 1, first, 0)
}
