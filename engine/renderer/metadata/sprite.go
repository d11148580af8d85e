package metadata

import "github.com/spaghettifunk/gef/engine/math"

/**
 * @brief A textured quad drawn by the sprite renderer. UVs are normalised,
 * Colour is packed 0xAABBGGRR and Rotation is in radians.
 */
type Sprite struct {
	Position   math.Vec3
	Size       math.Vec2
	UVPosition math.Vec2
	UVSize     math.Vec2
	Rotation   float32
	Colour     uint32
	Texture    *Texture
}

// NewSprite returns a white sprite covering the whole texture.
func NewSprite(texture *Texture, position math.Vec3, size math.Vec2) *Sprite {
	return &Sprite{
		Position: position,
		Size:     size,
		UVSize:   math.NewVec2(1, 1),
		Colour:   0xffffffff,
		Texture:  texture,
	}
}
