package layout

import (
	"fmt"

	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

/** @brief The data type of a shader variable or vertex parameter. */
type VariableType int

const (
	VariableTypeFloat VariableType = iota
	VariableTypeVector2
	VariableTypeVector3
	VariableTypeVector4
	VariableTypeMatrix44
	/** @brief Four unsigned bytes packed into one 32-bit slot, used for bone indices. */
	VariableTypeUByte4
	/** @brief A metadata.Light record. */
	VariableTypeLight
)

// BlockSize is the alignment unit of constant buffers.
const BlockSize = 16

// Size returns the byte size of one element of the type. Unknown types panic.
func (t VariableType) Size() int {
	switch t {
	case VariableTypeFloat, VariableTypeUByte4:
		return 4
	case VariableTypeVector2:
		return 8
	case VariableTypeVector3:
		return 12
	case VariableTypeVector4:
		return 16
	case VariableTypeMatrix44:
		return 64
	case VariableTypeLight:
		return metadata.LightSize
	}
	panic(fmt.Sprintf("layout: unknown variable type %d", int(t)))
}

func (t VariableType) String() string {
	switch t {
	case VariableTypeFloat:
		return "float"
	case VariableTypeVector2:
		return "vec2"
	case VariableTypeVector3:
		return "vec3"
	case VariableTypeVector4:
		return "vec4"
	case VariableTypeMatrix44:
		return "mat44"
	case VariableTypeUByte4:
		return "ubyte4"
	case VariableTypeLight:
		return "light"
	}
	return fmt.Sprintf("VariableType(%d)", int(t))
}

/** @brief The constant buffer a variable lives in. */
type Stage int

const (
	StageVertex Stage = iota
	StagePixel
	StageLight
	stageCount
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StagePixel:
		return "pixel"
	case StageLight:
		return "light"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Stages lists every stage in binding order.
var Stages = [...]Stage{StageVertex, StagePixel, StageLight}

/**
 * @brief A named, typed entry in a stage's constant buffer. Offset is only
 * meaningful once the owning builder has allocated its data.
 */
type ShaderVariable struct {
	Name   string
	Type   VariableType
	Count  int
	Offset int
}

/**
 * @brief A vertex input attribute. Offset is the byte offset inside one
 * vertex record, Semantic and SemanticIndex identify the attribute to the
 * backend (POSITION 0, TEXCOORD 0, ...).
 */
type ShaderParameter struct {
	Name          string
	Type          VariableType
	Offset        int
	Semantic      string
	SemanticIndex int
}

/** @brief A texture slot. Texture is not owned and is re-set every draw. */
type TextureSampler struct {
	Name    string
	Role    metadata.TextureUse
	Texture *metadata.Texture
}

// Handles into a ShaderInterface. Each stage has its own type so a handle
// from one stage cannot be passed to another.
type (
	VertexVariableIndex struct{ index int }
	PixelVariableIndex  struct{ index int }
	LightVariableIndex  struct{ index int }
	TextureSamplerIndex struct{ index int }
)

func (i VertexVariableIndex) Index() int { return i.index }
func (i PixelVariableIndex) Index() int  { return i.index }
func (i LightVariableIndex) Index() int  { return i.index }
func (i TextureSamplerIndex) Index() int { return i.index }

func roundUp(value, factor int) int {
	if factor <= 1 {
		return value
	}
	if rem := value % factor; rem != 0 {
		return value + factor - rem
	}
	return value
}
