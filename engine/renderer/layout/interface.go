package layout

import (
	"fmt"

	"github.com/spaghettifunk/gef/engine/math"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

type stageData struct {
	variables []ShaderVariable
	data      []byte
}

/**
 * @brief The allocated, immutable schema of a shader together with the raw
 * constant buffer contents of each stage. Only the buffer bytes and the
 * bound textures change after allocation.
 */
type ShaderInterface struct {
	stages       [stageCount]stageData
	parameters   []ShaderParameter
	samplers     []TextureSampler
	vertexSize   int
	vertexSource []byte
	pixelSource  []byte
}

func (si *ShaderInterface) SetVertexVariable(index VertexVariableIndex, value []byte, count int) {
	si.setVariable(StageVertex, index.index, value, count)
}

func (si *ShaderInterface) SetPixelVariable(index PixelVariableIndex, value []byte, count int) {
	si.setVariable(StagePixel, index.index, value, count)
}

func (si *ShaderInterface) SetLightVariable(index LightVariableIndex, value []byte, count int) {
	si.setVariable(StageLight, index.index, value, count)
}

/**
 * @brief Copies count elements from value into the stage buffer. A count of
 * -1 writes the declared count. Elements smaller than a block are written
 * at a block stride when more than one is written, matching how constant
 * buffers pack arrays.
 */
func (si *ShaderInterface) setVariable(stage Stage, index int, value []byte, count int) {
	sd := &si.stages[stage]
	if index < 0 || index >= len(sd.variables) {
		panic(fmt.Sprintf("layout: %s variable index %d out of range [0,%d)", stage, index, len(sd.variables)))
	}
	v := sd.variables[index]
	if count == -1 {
		count = v.Count
	}
	if count < 0 || count > v.Count {
		panic(fmt.Sprintf("layout: writing %d elements to '%s' which holds %d", count, v.Name, v.Count))
	}
	dataSize := v.Type.Size()
	if len(value) < dataSize*count {
		panic(fmt.Sprintf("layout: '%s' needs %d bytes, got %d", v.Name, dataSize*count, len(value)))
	}
	blockDataSize := roundUp(dataSize, BlockSize)
	dst := sd.data[v.Offset:]
	if count == 1 || dataSize == blockDataSize {
		copy(dst, value[:dataSize*count])
		return
	}
	for i := 0; i < count; i++ {
		copy(dst[blockDataSize*i:], value[dataSize*i:dataSize*(i+1)])
	}
}

func (si *ShaderInterface) SetVertexMatrix(index VertexVariableIndex, m math.Mat4) {
	si.SetVertexVariable(index, EncodeMat4(m), 1)
}

// SetVertexMatrices writes len(ms) matrices starting at the first element.
func (si *ShaderInterface) SetVertexMatrices(index VertexVariableIndex, ms []math.Mat4) {
	si.SetVertexVariable(index, EncodeMat4s(ms), len(ms))
}

func (si *ShaderInterface) SetPixelVector4(index PixelVariableIndex, v math.Vec4) {
	si.SetPixelVariable(index, EncodeFloats(v.X, v.Y, v.Z, v.W), 1)
}

func (si *ShaderInterface) SetPixelFloat(index PixelVariableIndex, f float32) {
	si.SetPixelVariable(index, EncodeFloats(f), 1)
}

func (si *ShaderInterface) SetLightVector4(index LightVariableIndex, v math.Vec4) {
	si.SetLightVariable(index, EncodeFloats(v.X, v.Y, v.Z, v.W), 1)
}

// SetLightLights writes a packed light array, every slot of the variable.
func (si *ShaderInterface) SetLightLights(index LightVariableIndex, lights [metadata.MaxLights]metadata.Light) {
	si.SetLightVariable(index, metadata.EncodeLights(lights), -1)
}

func (si *ShaderInterface) SetTextureSampler(index TextureSamplerIndex, texture *metadata.Texture) {
	if index.index < 0 || index.index >= len(si.samplers) {
		panic(fmt.Sprintf("layout: texture sampler index %d out of range [0,%d)", index.index, len(si.samplers)))
	}
	si.samplers[index.index].Texture = texture
}

func (si *ShaderInterface) TextureSampler(index TextureSamplerIndex) TextureSampler {
	return si.samplers[index.index]
}

// TextureSamplers returns a copy of the sampler slots in declaration order.
func (si *ShaderInterface) TextureSamplers() []TextureSampler {
	return append([]TextureSampler(nil), si.samplers...)
}

// Variables returns a copy of a stage's variables with their offsets.
func (si *ShaderInterface) Variables(stage Stage) []ShaderVariable {
	return append([]ShaderVariable(nil), si.stages[stage].variables...)
}

func (si *ShaderInterface) VertexVariable(index VertexVariableIndex) ShaderVariable {
	return si.stages[StageVertex].variables[index.index]
}

func (si *ShaderInterface) PixelVariable(index PixelVariableIndex) ShaderVariable {
	return si.stages[StagePixel].variables[index.index]
}

func (si *ShaderInterface) LightVariable(index LightVariableIndex) ShaderVariable {
	return si.stages[StageLight].variables[index.index]
}

// Data returns the live buffer of a stage. Backends upload it as is.
func (si *ShaderInterface) Data(stage Stage) []byte {
	return si.stages[stage].data
}

func (si *ShaderInterface) DataSize(stage Stage) int {
	return len(si.stages[stage].data)
}

func (si *ShaderInterface) Parameters() []ShaderParameter {
	return append([]ShaderParameter(nil), si.parameters...)
}

func (si *ShaderInterface) VertexSize() int {
	return si.vertexSize
}

func (si *ShaderInterface) VertexSource() []byte {
	return si.vertexSource
}

func (si *ShaderInterface) PixelSource() []byte {
	return si.pixelSource
}
