package layout

import (
	"fmt"

	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

/**
 * @brief Collects the schema of a shader: constant buffer variables per
 * stage, vertex parameters, texture samplers and program sources.
 * AllocateVariableData turns it into an immutable ShaderInterface.
 */
type Builder struct {
	variables    [stageCount][]ShaderVariable
	parameters   []ShaderParameter
	samplers     []TextureSampler
	vertexSize   int
	vertexSource []byte
	pixelSource  []byte
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) AddVertexVariable(name string, variableType VariableType, count int) VertexVariableIndex {
	return VertexVariableIndex{b.addVariable(StageVertex, name, variableType, count)}
}

func (b *Builder) AddPixelVariable(name string, variableType VariableType, count int) PixelVariableIndex {
	return PixelVariableIndex{b.addVariable(StagePixel, name, variableType, count)}
}

func (b *Builder) AddLightVariable(name string, variableType VariableType, count int) LightVariableIndex {
	return LightVariableIndex{b.addVariable(StageLight, name, variableType, count)}
}

func (b *Builder) addVariable(stage Stage, name string, variableType VariableType, count int) int {
	if count < 1 {
		panic(fmt.Sprintf("layout: variable '%s' declared with count %d", name, count))
	}
	// resolve the size now so a bad type fails at declaration
	_ = variableType.Size()
	b.variables[stage] = append(b.variables[stage], ShaderVariable{
		Name:  name,
		Type:  variableType,
		Count: count,
	})
	return len(b.variables[stage]) - 1
}

// AddVertexParameter declares a vertex input attribute at a fixed byte
// offset inside the vertex record.
func (b *Builder) AddVertexParameter(name string, parameterType VariableType, offset int, semantic string, semanticIndex int) {
	b.parameters = append(b.parameters, ShaderParameter{
		Name:          name,
		Type:          parameterType,
		Offset:        offset,
		Semantic:      semantic,
		SemanticIndex: semanticIndex,
	})
}

// AddTextureSampler declares a texture slot. The role picks the fallback
// texture used when nothing is bound to it.
func (b *Builder) AddTextureSampler(name string, role metadata.TextureUse) TextureSamplerIndex {
	b.samplers = append(b.samplers, TextureSampler{Name: name, Role: role})
	return TextureSamplerIndex{len(b.samplers) - 1}
}

func (b *Builder) SetVertexSize(size int) {
	b.vertexSize = size
}

func (b *Builder) SetVertexSource(source []byte) {
	b.vertexSource = append([]byte(nil), source...)
}

func (b *Builder) SetPixelSource(source []byte) {
	b.pixelSource = append([]byte(nil), source...)
}

/**
 * @brief Assigns byte offsets to every variable of every stage, allocates a
 * zeroed buffer per stage and returns the frozen interface.
 */
func (b *Builder) AllocateVariableData() *ShaderInterface {
	si := &ShaderInterface{
		parameters:   append([]ShaderParameter(nil), b.parameters...),
		samplers:     append([]TextureSampler(nil), b.samplers...),
		vertexSize:   b.vertexSize,
		vertexSource: b.vertexSource,
		pixelSource:  b.pixelSource,
	}
	for _, stage := range Stages {
		variables := append([]ShaderVariable(nil), b.variables[stage]...)
		size := assignOffsets(variables)
		si.stages[stage] = stageData{
			variables: variables,
			data:      make([]byte, size),
		}
	}
	return si
}

// assignOffsets lays the variables out in declaration order and returns the
// total buffer size, always a multiple of BlockSize.
func assignOffsets(variables []ShaderVariable) int {
	cursor := 0
	for i := range variables {
		v := &variables[i]
		typeSize := v.Type.Size()
		if v.Count == 1 {
			if cursor%BlockSize+typeSize > BlockSize {
				cursor = roundUp(cursor, BlockSize)
			}
			v.Offset = cursor
			cursor += typeSize
			continue
		}
		// arrays start on a block and every element but the last is padded to one
		cursor = roundUp(cursor, BlockSize)
		v.Offset = cursor
		cursor += roundUp(typeSize, BlockSize)*(v.Count-1) + typeSize
	}
	return roundUp(cursor, BlockSize)
}
