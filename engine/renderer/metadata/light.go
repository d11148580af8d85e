package metadata

import (
	"encoding/binary"
	stdmath "math"
	"sort"
	"unsafe"

	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/math"
)

const (
	/** @brief The size in bytes of a light as the shaders see it. */
	LightSize = 64
	/** @brief The maximum number of lights uploaded to a lit shader. */
	MaxLights = 512
)

/**
 * @brief A point/spot light. The field order and widths are mirrored by the
 * shader side struct and must stay 64 bytes.
 */
type Light struct {
	Position  math.Vec4
	Direction math.Vec4
	Colour    math.Vec4
	Radius    float32
	FallOff   float32
	Angle     float32
	Scatter   float32
}

// fails to compile unless Light is exactly LightSize bytes.
var _ = [1]struct{}{}[unsafe.Sizeof(Light{})-LightSize]

func NewLight() Light {
	return Light{
		Position:  math.NewVec4(0, 0, 0, 1),
		Direction: math.NewVec4(1, 0, 0, 0),
		Colour:    math.NewVec4(1, 1, 1, 1),
		Radius:    5,
		FallOff:   1,
		Angle:     180,
		Scatter:   0.2,
	}
}

// Encode writes the light into dst, which must hold at least LightSize bytes.
func (l Light) Encode(dst []byte) {
	fields := [16]float32{
		l.Position.X, l.Position.Y, l.Position.Z, l.Position.W,
		l.Direction.X, l.Direction.Y, l.Direction.Z, l.Direction.W,
		l.Colour.X, l.Colour.Y, l.Colour.Z, l.Colour.W,
		l.Radius, l.FallOff, l.Angle, l.Scatter,
	}
	for i, f := range fields {
		binary.LittleEndian.PutUint32(dst[i*4:], stdmath.Float32bits(f))
	}
}

/**
 * @brief The set of lights in a scene plus the ambient colour. Light ids are
 * handed out from 1 and never reused.
 */
type LightData struct {
	ambient     math.Vec3
	lights      map[uint64]Light
	nextLightID uint64
}

func NewLightData() *LightData {
	return &LightData{
		ambient:     math.NewVec3One(),
		lights:      make(map[uint64]Light),
		nextLightID: 1,
	}
}

// AddLight stores a copy of light and returns its new id.
func (ld *LightData) AddLight(light Light) uint64 {
	if light.Radius == -1 {
		core.LogWarn("light radius of -1 is reserved as the end of list marker, the light will cut the list short")
	}
	id := ld.nextLightID
	ld.nextLightID++
	ld.lights[id] = light
	return id
}

// RemoveLight deletes the light with the given id. Unknown ids are ignored.
func (ld *LightData) RemoveLight(id uint64) {
	delete(ld.lights, id)
}

// GetLight returns a pointer to a copy of the light, or nil when the id is unknown.
func (ld *LightData) GetLight(id uint64) *Light {
	l, ok := ld.lights[id]
	if !ok {
		return nil
	}
	return &l
}

// UpdateLight replaces the light stored under id. It returns false when the id is unknown.
func (ld *LightData) UpdateLight(id uint64, light Light) bool {
	if _, ok := ld.lights[id]; !ok {
		return false
	}
	ld.lights[id] = light
	return true
}

// ClearLights removes every light. Ids keep counting from where they were.
func (ld *LightData) ClearLights() {
	ld.lights = make(map[uint64]Light)
}

func (ld *LightData) Count() int {
	return len(ld.lights)
}

// Lights returns the lights ordered by ascending id.
func (ld *LightData) Lights() []Light {
	ids := make([]uint64, 0, len(ld.lights))
	for id := range ld.lights {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Light, len(ids))
	for i, id := range ids {
		out[i] = ld.lights[id]
	}
	return out
}

func (ld *LightData) AmbientColour() math.Vec3 {
	return ld.ambient
}

func (ld *LightData) SetAmbientColour(colour math.Vec3) {
	ld.ambient = colour
}

/**
 * @brief Packs the lights into a fixed MaxLights array ready for upload.
 * Slots past the last light are zero and, when the array is not full, the
 * first unused slot carries a radius of -1 to end the shader loop.
 * Lights past MaxLights are dropped with a warning.
 */
func (ld *LightData) PackLights() [MaxLights]Light {
	var packed [MaxLights]Light
	lights := ld.Lights()
	if len(lights) > MaxLights {
		core.LogWarn("%d lights exceed the limit of %d, extra lights are ignored", len(lights), MaxLights)
		lights = lights[:MaxLights]
	}
	copy(packed[:], lights)
	if len(lights) < MaxLights {
		packed[len(lights)].Radius = -1
	}
	return packed
}

// EncodeLights serialises a packed light array into a byte slice of MaxLights*LightSize bytes.
func EncodeLights(lights [MaxLights]Light) []byte {
	out := make([]byte, MaxLights*LightSize)
	for i := range lights {
		lights[i].Encode(out[i*LightSize:])
	}
	return out
}
