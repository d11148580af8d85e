package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckerImage(t *testing.T) {
	img := NewCheckerImage(8, 2)
	require.Len(t, img.Pixels, 8*8*4)

	white := [4]uint8{255, 255, 255, 255}
	black := [4]uint8{0, 0, 0, 255}
	assert.Equal(t, white, img.Pixel(0, 0))
	assert.Equal(t, white, img.Pixel(3, 3))
	assert.Equal(t, black, img.Pixel(4, 0))
	assert.Equal(t, black, img.Pixel(0, 4))
	assert.Equal(t, white, img.Pixel(7, 7))
}

func TestSolidImage(t *testing.T) {
	img := NewSolidImage(4, NewColourFromABGR(0xffff8080))
	for y := uint32(0); y < 4; y++ {
		for x := uint32(0); x < 4; x++ {
			assert.Equal(t, [4]uint8{128, 128, 255, 255}, img.Pixel(x, y))
		}
	}
}

func TestColourABGR(t *testing.T) {
	c := NewColourFromABGR(0x80ff0000)
	assert.Equal(t, float32(0), c.R)
	assert.Equal(t, float32(0), c.G)
	assert.Equal(t, float32(1), c.B)
	assert.InDelta(t, 0.5, c.A, 0.01)
	assert.Equal(t, uint32(0x80ff0000), c.ABGR())
}
