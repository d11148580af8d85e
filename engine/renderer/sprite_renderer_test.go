package renderer

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/gef/engine/math"
	"github.com/spaghettifunk/gef/engine/renderer/headless"
	"github.com/spaghettifunk/gef/engine/renderer/layout"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spriteDataOffset = 64

func newSpriteRenderer(t *testing.T) (*SpriteRenderer, *headless.Device) {
	t.Helper()
	p, device := newPlatform(t)
	sr, err := NewSpriteRenderer(p, Options{})
	require.NoError(t, err)
	t.Cleanup(sr.Destroy)
	return sr, device
}

func TestScreenProjection(t *testing.T) {
	proj := ScreenProjection(320, 240)
	topLeft := math.NewVec3(0, 0, 0).Transform(proj)
	bottomRight := math.NewVec3(320, 240, 0).Transform(proj)
	assert.True(t, topLeft.Compare(math.NewVec3(-1, 1, 0), 1e-6))
	assert.True(t, bottomRight.Compare(math.NewVec3(1, -1, 0), 1e-6))
}

func TestSpriteRendererDrawSprite(t *testing.T) {
	sr, device := newSpriteRenderer(t)
	program := sr.Shader().Program().(*headless.Program)

	sprite := metadata.NewSprite(nil, math.NewVec3(10, 20, 0), math.NewVec2(4, 8))
	require.NoError(t, sr.Begin(true))
	sr.DrawSprite(sprite)
	require.NoError(t, sr.End())

	draws := commandsOf(device, headless.CommandDraw)
	require.Len(t, draws, 1)
	assert.Equal(t, uint32(6), draws[0].Count)
	assert.Equal(t, uint32(1), sr.GetAndResetDrawCount())

	binds := commandsOf(device, headless.CommandBindTexture)
	require.Len(t, binds, 1)
	assert.Equal(t, metadata.DEFAULT_TEXTURE_NAME, binds[0].Texture)

	vs := program.Buffer(layout.StageVertex)
	assert.Equal(t, layout.EncodeMat4(ScreenProjection(320, 240).Transposed()), vs[:64])
	assert.Equal(t, float32(10), floatAt(vs, spriteDataOffset+8*4))
	assert.Equal(t, float32(20), floatAt(vs, spriteDataOffset+9*4))
	assert.Equal(t, float32(4), floatAt(vs, spriteDataOffset+0*4))
	assert.Equal(t, float32(8), floatAt(vs, spriteDataOffset+5*4))
}

func TestSpriteRendererOutsideFrame(t *testing.T) {
	sr, device := newSpriteRenderer(t)
	sr.DrawSprite(metadata.NewSprite(nil, math.NewVec3Zero(), math.NewVec2(1, 1)))
	sr.DrawSprite(nil)
	assert.Empty(t, commandsOf(device, headless.CommandDraw))
	assert.Zero(t, sr.GetAndResetDrawCount())
}

func TestSpriteRendererSharesFrameWith3D(t *testing.T) {
	p, device := newPlatform(t)
	r, err := NewRenderer3D(p, Options{})
	require.NoError(t, err)
	defer r.Destroy()
	sr, err := NewSpriteRenderer(p, Options{})
	require.NoError(t, err)
	defer sr.Destroy()

	require.NoError(t, r.Begin(true))
	r.DrawMesh(twoPrimitiveMesh(), math.NewMat4Identity(), true)
	require.NoError(t, sr.Begin(true))
	sr.DrawSprite(metadata.NewSprite(nil, math.NewVec3Zero(), math.NewVec2(1, 1)))
	require.NoError(t, sr.End())
	require.NoError(t, r.End())

	assert.Len(t, commandsOf(device, headless.CommandClear), 1)
	assert.Len(t, commandsOf(device, headless.CommandDraw), 3)
	assert.Equal(t, uint64(1), device.Frames())
}

const testFNT = `info face="Test" size=16 bold=0 italic=0 charset="" unicode=1 stretchH=100 smooth=1 aa=1 padding=0,0,0,0 spacing=1,1 outline=0
common lineHeight=18 base=14 scaleW=64 scaleH=32 pages=1 packed=0 alphaChnl=0 redChnl=4 greenChnl=4 blueChnl=4
page id=0 file="test_0.png"
chars count=2
char id=65   x=0     y=0     width=8     height=10    xoffset=1     yoffset=2     xadvance=9     page=0  chnl=15
char id=66   x=8     y=0     width=7     height=10    xoffset=0     yoffset=2     xadvance=8     page=0  chnl=15
`

func writeTestFont(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 32))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetNRGBA(0, 0, color.NRGBA{A: 255})
	f, err := os.Create(filepath.Join(dir, "test_0.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	path := filepath.Join(dir, "test.fnt")
	require.NoError(t, os.WriteFile(path, []byte(testFNT), 0o644))
	return path
}

func TestFontMetrics(t *testing.T) {
	p, _ := newPlatform(t)
	font, err := LoadFont(p, writeTestFont(t))
	require.NoError(t, err)

	assert.Equal(t, float32(17), font.StringLength("AB"))
	assert.Equal(t, float32(9), font.StringLength("A?"))
	assert.Equal(t, float32(18), font.LineHeight())
	require.NotNil(t, font.Page(0))
	assert.Equal(t, "test_0.png", font.Page(0).Name)
	assert.Equal(t, 3, p.LiveTextureCount())

	font.Destroy()
	assert.Equal(t, 2, p.LiveTextureCount())
}

func TestFontRenderText(t *testing.T) {
	p, device := newPlatform(t)
	sr, err := NewSpriteRenderer(p, Options{})
	require.NoError(t, err)
	defer sr.Destroy()
	font, err := LoadFont(p, writeTestFont(t))
	require.NoError(t, err)
	defer font.Destroy()
	vs := sr.Shader().Program().(*headless.Program)

	cases := []struct {
		justification TextJustification
		x             float32
	}{
		// cursor 100, offset 1*2, half width 8*2/2
		{TextJustificationLeft, 100 + 2 + 8},
		{TextJustificationCentre, 100 - 9 + 2 + 8},
		{TextJustificationRight, 100 - 18 + 2 + 8},
	}
	for _, tc := range cases {
		require.NoError(t, sr.Begin(true))
		font.RenderText(sr, math.NewVec3(100, 50, 0.5), 2, 0xffffffff, tc.justification, "A")
		require.NoError(t, sr.End())

		data := vs.Buffer(layout.StageVertex)
		assert.Equal(t, tc.x, floatAt(data, spriteDataOffset+8*4))
		assert.Equal(t, float32(50+2*(5+2)), floatAt(data, spriteDataOffset+9*4))
		assert.Equal(t, float32(0.5), floatAt(data, spriteDataOffset+10*4))
		// uv position then uv size
		assert.Equal(t, float32(0), floatAt(data, spriteDataOffset+2*4))
		assert.Equal(t, float32(0.125), floatAt(data, spriteDataOffset+6*4))
		assert.Equal(t, float32(10.0/32.0), floatAt(data, spriteDataOffset+7*4))
	}

	device.ResetCommands()
	require.NoError(t, sr.Begin(false))
	font.RenderText(sr, math.NewVec3Zero(), 1, 0xffffffff, TextJustificationLeft, "AB?")
	font.RenderText(sr, math.NewVec3Zero(), 1, 0xffffffff, TextJustificationLeft, "")
	require.NoError(t, sr.End())

	assert.Len(t, commandsOf(device, headless.CommandDraw), 2)
	for _, b := range commandsOf(device, headless.CommandBindTexture) {
		assert.Equal(t, "test_0.png", b.Texture)
	}

	// B follows A by A's advance
	data := vs.Buffer(layout.StageVertex)
	assert.Equal(t, float32(9+0+3.5), floatAt(data, spriteDataOffset+8*4))
}
