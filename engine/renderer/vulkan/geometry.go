package vulkan

import (
	"encoding/binary"
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

/**
 * @brief Internal buffer data for a mesh, stored in Mesh.InternalData.
 */
type vulkanGeometryData struct {
	VertexBuffer *VulkanBuffer
	/** @brief The vertex count. */
	VertexCount uint32
	/** @brief The size of each vertex. */
	VertexElementSize uint32
}

/** @brief Index buffer of one primitive, stored in Primitive.InternalData. */
type vulkanIndexData struct {
	IndexBuffer *VulkanBuffer
	IndexCount  uint32
}

func encodeIndices(indices []uint32) []byte {
	out := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(out[i*4:], idx)
	}
	return out
}

func (vr *VulkanRenderer) CreateMeshBuffers(mesh *metadata.Mesh) error {
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

	vertexBuffer, err := NewVulkanBuffer(vr.context, uint64(len(mesh.Vertices)), vk.BufferUsageVertexBufferBit, hostVisibleCoherent)
	if err != nil {
		return err
	}
	if err := vertexBuffer.LoadData(vr.context, 0, mesh.Vertices); err != nil {
		vertexBuffer.Destroy(vr.context)
		return err
	}
	mesh.InternalData = &vulkanGeometryData{
		VertexBuffer:      vertexBuffer,
		VertexCount:       mesh.VertexCount,
		VertexElementSize: mesh.VertexSize,
	}

	for _, p := range mesh.Primitives {
		if len(p.Indices) == 0 {
			continue
		}
		indexBuffer, err := NewVulkanBuffer(vr.context, uint64(len(p.Indices)*4), vk.BufferUsageIndexBufferBit, hostVisibleCoherent)
		if err != nil {
			vr.DestroyMeshBuffers(mesh)
			return err
		}
		p.InternalData = &vulkanIndexData{IndexBuffer: indexBuffer, IndexCount: uint32(len(p.Indices))}
		if err := indexBuffer.LoadData(vr.context, 0, encodeIndices(p.Indices)); err != nil {
			vr.DestroyMeshBuffers(mesh)
			return err
		}
	}
	return nil
}

func (vr *VulkanRenderer) DestroyMeshBuffers(mesh *metadata.Mesh) {
	if mesh.InternalData == nil {
		return
	}
	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)
	if data, ok := mesh.InternalData.(*vulkanGeometryData); ok {
		data.VertexBuffer.Destroy(vr.context)
	}
	mesh.InternalData = nil
	for _, p := range mesh.Primitives {
		if data, ok := p.InternalData.(*vulkanIndexData); ok {
			data.IndexBuffer.Destroy(vr.context)
		}
		p.InternalData = nil
	}
}

func (vr *VulkanRenderer) bindVertexBuffer(mesh *metadata.Mesh) (*vulkanGeometryData, bool) {
	data, ok := mesh.InternalData.(*vulkanGeometryData)
	if !ok || vr.current == nil || !vr.inFrame {
		core.LogWarn("vulkan: draw skipped, program, frame or buffers missing")
		return nil, false
	}
	if !vr.current.prepareDraw() {
		return nil, false
	}
	cb := vr.context.GraphicsCommandBuffer
	vk.CmdBindVertexBuffers(cb.Handle, 0, 1, []vk.Buffer{data.VertexBuffer.Handle}, []vk.DeviceSize{0})
	return data, true
}

func (vr *VulkanRenderer) DrawPrimitive(mesh *metadata.Mesh, primitive *metadata.Primitive) {
	if _, ok := vr.bindVertexBuffer(mesh); !ok {
		return
	}
	indices, ok := primitive.InternalData.(*vulkanIndexData)
	if !ok {
		core.LogWarn("vulkan: primitive has no index buffer")
		return
	}
	cb := vr.context.GraphicsCommandBuffer
	vk.CmdBindIndexBuffer(cb.Handle, indices.IndexBuffer.Handle, 0, vk.IndexTypeUint32)
	vk.CmdDrawIndexed(cb.Handle, indices.IndexCount, 1, 0, 0, 0)
}

func (vr *VulkanRenderer) DrawVertices(mesh *metadata.Mesh, first, count uint32) {
	data, ok := vr.bindVertexBuffer(mesh)
	if !ok {
		return
	}
	if first+count > data.VertexCount {
		core.LogWarn("vulkan: draw of %d vertices from %d exceeds %d", count, first, data.VertexCount)
		return
	}
	vk.CmdDraw(vr.context.GraphicsCommandBuffer.Handle, count, 1, first, 0)
}
