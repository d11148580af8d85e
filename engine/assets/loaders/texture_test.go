package loaders

import (
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/renderer/gpu"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

// twoRowImage is red on the top row and blue on the bottom row.
func twoRowImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 255, A: 255}
			if y == h-1 {
				c = color.NRGBA{B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, twoRowImage(w, h)))
}

func TestTextureLoaderPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.png")
	writePNG(t, path, 3, 2)

	img, err := (&TextureLoader{}).LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, "rows.png", img.Name)
	assert.Equal(t, uint32(3), img.Width)
	assert.Equal(t, uint32(2), img.Height)
	assert.Len(t, img.Pixels, 3*2*4)
	assert.Equal(t, [4]uint8{255, 0, 0, 255}, img.Pixel(0, 0))
	assert.Equal(t, [4]uint8{0, 0, 255, 255}, img.Pixel(2, 1))

	flipped, err := (&TextureLoader{FlipY: true}).LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, [4]uint8{0, 0, 255, 255}, flipped.Pixel(0, 0))
	assert.Equal(t, [4]uint8{255, 0, 0, 255}, flipped.Pixel(0, 1))
}

func TestTextureLoaderBMP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.bmp")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, bmp.Encode(f, twoRowImage(2, 2)))
	require.NoError(t, f.Close())

	img, err := (&TextureLoader{}).LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, [4]uint8{255, 0, 0, 255}, img.Pixel(1, 0))
	assert.Equal(t, [4]uint8{0, 0, 255, 255}, img.Pixel(1, 1))
}

func TestTextureLoaderResource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.png")
	writePNG(t, path, 2, 2)

	tl := &TextureLoader{}
	res, err := tl.Load(path, metadata.ResourceTypeImage, &metadata.ImageResourceParams{FlipY: true})
	require.NoError(t, err)
	assert.Equal(t, metadata.ResourceTypeImage, res.Type)
	assert.Equal(t, uint64(16), res.DataSize)
	img := res.Data.(*metadata.Image)
	assert.Equal(t, [4]uint8{0, 0, 255, 255}, img.Pixel(0, 0))

	require.NoError(t, tl.Unload(res))
	assert.Nil(t, res.Data)

	bad := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	_, err = tl.Load(bad, metadata.ResourceTypeImage, nil)
	assert.Error(t, err)
	_, err = tl.Load(filepath.Join(t.TempDir(), "none.png"), metadata.ResourceTypeImage, nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestToImageSubImage(t *testing.T) {
	src := twoRowImage(4, 4).SubImage(image.Rect(1, 2, 3, 4))
	img := ToImage(src)
	assert.Equal(t, uint32(2), img.Width)
	assert.Equal(t, uint32(2), img.Height)
	assert.Equal(t, [4]uint8{255, 0, 0, 255}, img.Pixel(0, 0))
	assert.Equal(t, [4]uint8{0, 0, 255, 255}, img.Pixel(1, 1))
}

func spirvBytes(words ...uint32) []byte {
	out := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

func TestBinaryLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.spv")
	require.NoError(t, os.WriteFile(path, spirvBytes(spirvMagic, 0x00010000, 7), 0o644))

	bl := &BinaryLoader{}
	res, err := bl.Load(path, metadata.ResourceTypeBinary, map[string]string{"name": "prog"})
	require.NoError(t, err)
	assert.Equal(t, "prog", res.Name)
	assert.Equal(t, uint64(12), res.DataSize)
	assert.Equal(t, []uint32{spirvMagic, 0x00010000, 7}, res.Data)

	res, err = bl.Load(path, metadata.ResourceTypeBinary, nil)
	require.NoError(t, err)
	assert.Equal(t, "prog.spv", res.Name)

	_, err = bytesToBytecode([]byte{1, 2, 3})
	assert.Error(t, err)
	_, err = bytesToBytecode(spirvBytes(0xdeadbeef))
	assert.Error(t, err)
	_, err = bytesToBytecode(nil)
	assert.Error(t, err)
}

func TestShaderLoaderProgram(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lit_vs.wgsl"), []byte("@vertex fn vs_main() {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lit_vs.spv"), spirvBytes(spirvMagic, 1), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.spv"), []byte("text"), 0o644))

	sl := &ShaderLoader{Dir: dir}
	src, err := sl.Program("lit_vs", gpu.ShaderLanguageWGSL)
	require.NoError(t, err)
	assert.Contains(t, string(src), "@vertex")

	bin, err := sl.Program("lit_vs", gpu.ShaderLanguageSPIRV)
	require.NoError(t, err)
	assert.Len(t, bin, 8)

	_, err = sl.Program("broken", gpu.ShaderLanguageSPIRV)
	assert.Error(t, err)
	_, err = sl.Program("missing", gpu.ShaderLanguageWGSL)
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = sl.Program("lit_vs", gpu.ShaderLanguage(9))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrShaderCompile)

	res, err := sl.Load(filepath.Join(dir, "lit_vs.wgsl"), metadata.ResourceTypeShader, nil)
	require.NoError(t, err)
	assert.Equal(t, "lit_vs.wgsl", res.Name)
	assert.Equal(t, src, res.Data)
}
