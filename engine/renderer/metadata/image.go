package metadata

/**
 * @brief Decoded pixels waiting to become a texture. Pixels are tightly
 * packed RGBA, four bytes per pixel, rows top to bottom.
 */
type Image struct {
	/** @brief The name of the image, usually its file name. */
	Name string
	/** @brief The width of the image. */
	Width uint32
	/** @brief The height of the image. */
	Height uint32
	/** @brief The pixel data of the image. */
	Pixels []uint8
}

/** @brief Parameters used when loading an image. */
type ImageResourceParams struct {
	/** @brief Indicates if the image should be flipped on the y-axis when loaded. */
	FlipY bool
}

/**
 * @brief Builds a size x size image of alternating white and black squares,
 * numCheckers squares along each side, starting white in the top left.
 */
func NewCheckerImage(size, numCheckers uint32) *Image {
	img := &Image{Width: size, Height: size, Pixels: make([]uint8, size*size*4)}
	checkSize := size / numCheckers
	if checkSize == 0 {
		checkSize = 1
	}
	white := NewColour(1, 1, 1, 1).Bytes()
	black := NewColour(0, 0, 0, 1).Bytes()
	for y := uint32(0); y < size; y++ {
		for x := uint32(0); x < size; x++ {
			px := black
			if ((y/checkSize)%2 == 0) == ((x/checkSize)%2 == 0) {
				px = white
			}
			copy(img.Pixels[(y*size+x)*4:], px[:])
		}
	}
	return img
}

// NewSolidImage builds a size x size image filled with colour.
func NewSolidImage(size uint32, colour Colour) *Image {
	img := &Image{Width: size, Height: size, Pixels: make([]uint8, size*size*4)}
	px := colour.Bytes()
	for i := uint32(0); i < size*size; i++ {
		copy(img.Pixels[i*4:], px[:])
	}
	return img
}

// Pixel returns the RGBA bytes at x, y.
func (img *Image) Pixel(x, y uint32) [4]uint8 {
	i := (y*img.Width + x) * 4
	return [4]uint8{img.Pixels[i], img.Pixels[i+1], img.Pixels[i+2], img.Pixels[i+3]}
}
