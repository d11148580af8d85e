package webgpu

import "github.com/cogentcore/webgpu/wgpu"

// paddedRowSize is the bytes per row of an RGBA copy of the given width,
// rounded up to the copy alignment.
func paddedRowSize(width uint32) uint32 {
	unpadded := width * 4
	align := uint32(wgpu.CopyBytesPerRowAlignment)
	return unpadded + (align-unpadded%align)%align
}

// unpadRows drops the row padding of a texture copy.
func unpadRows(data []byte, width, height, padded uint32) []byte {
	unpadded := width * 4
	out := make([]byte, int(unpadded)*int(height))
	for y := uint32(0); y < height; y++ {
		copy(out[y*unpadded:(y+1)*unpadded], data[y*padded:y*padded+unpadded])
	}
	return out
}
