package metadata

import (
	"github.com/spaghettifunk/gef/engine/math"
)

/** @brief A linear RGBA colour with components in [0, 1]. */
type Colour struct {
	R, G, B, A float32
}

func NewColour(r, g, b, a float32) Colour {
	return Colour{R: r, G: g, B: b, A: a}
}

/**
 * @brief Unpacks a colour stored as 0xAABBGGRR, the layout used by sprite
 * and material colours.
 */
func NewColourFromABGR(abgr uint32) Colour {
	return Colour{
		R: float32(abgr&0xff) / 255.0,
		G: float32((abgr>>8)&0xff) / 255.0,
		B: float32((abgr>>16)&0xff) / 255.0,
		A: float32((abgr>>24)&0xff) / 255.0,
	}
}

// ABGR packs the colour as 0xAABBGGRR, clamping each channel.
func (c Colour) ABGR() uint32 {
	return uint32(toByte(c.A))<<24 | uint32(toByte(c.B))<<16 | uint32(toByte(c.G))<<8 | uint32(toByte(c.R))
}

// RGBA returns the colour as a vector in r, g, b, a order.
func (c Colour) RGBA() math.Vec4 {
	return math.Vec4{X: c.R, Y: c.G, Z: c.B, W: c.A}
}

// Bytes returns the colour as four 8-bit channels in r, g, b, a order.
func (c Colour) Bytes() [4]uint8 {
	return [4]uint8{toByte(c.R), toByte(c.G), toByte(c.B), toByte(c.A)}
}

func toByte(v float32) uint8 {
	return uint8(math.Clamp(v, 0, 1)*255.0 + 0.5)
}
