package loaders

import (
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/gef/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFNT = `info face="Test" size=16 bold=0 italic=0 charset="" unicode=1 stretchH=100 smooth=1 aa=1 padding=0,0,0,0 spacing=1,1 outline=0
common lineHeight=18 base=14 scaleW=64 scaleH=32 pages=1 packed=0 alphaChnl=0 redChnl=4 greenChnl=4 blueChnl=4
page id=0 file="test_0.png"
chars count=2
char id=65   x=0     y=0     width=8     height=10    xoffset=1     yoffset=2     xadvance=9     page=0  chnl=15
char id=66   x=8     y=0     width=7     height=10    xoffset=0     yoffset=2     xadvance=8     page=0  chnl=15
kernings count=1
kerning first=65  second=66  amount=-1
`

// writeTestFont writes a two glyph font and its page into dir.
func writeTestFont(t *testing.T, dir string) string {
	t.Helper()
	writePNG(t, filepath.Join(dir, "test_0.png"), 64, 32)
	return writeFile(t, dir, "test.fnt", testFNT)
}

func TestBitmapFontLoader(t *testing.T) {
	path := writeTestFont(t, t.TempDir())

	fl := &BitmapFontLoader{}
	res, err := fl.Load(path, metadata.ResourceTypeBitmapFont, nil)
	require.NoError(t, err)
	assert.Equal(t, "test", res.Name)
	assert.Equal(t, metadata.ResourceTypeBitmapFont, res.Type)

	data := res.Data.(*metadata.BitmapFontResourceData)
	font := data.Data
	assert.Equal(t, "Test", font.Face)
	assert.Equal(t, uint32(16), font.Size)
	assert.Equal(t, int32(18), font.LineHeight)
	assert.Equal(t, int32(14), font.Baseline)
	assert.Equal(t, int32(64), font.AtlasSizeX)
	assert.Equal(t, int32(32), font.AtlasSizeY)

	require.Len(t, font.Glyphs, 2)
	a := font.Glyphs['A']
	assert.Equal(t, metadata.FontGlyph{
		Codepoint: 'A', X: 0, Y: 0, Width: 8, Height: 10,
		XOffset: 1, YOffset: 2, XAdvance: 9,
	}, a)
	assert.Equal(t, uint16(8), font.Glyphs['B'].X)

	require.Len(t, font.Kernings, 1)
	assert.Equal(t, metadata.FontKerning{Codepoint0: 'A', Codepoint1: 'B', Amount: -1}, font.Kernings[0])

	require.Len(t, data.Pages, 1)
	assert.Equal(t, "test_0.png", data.Pages[0].File)
	require.NotNil(t, data.Pages[0].Image)
	assert.Equal(t, uint32(64), data.Pages[0].Image.Width)

	require.NoError(t, fl.Unload(res))
	assert.Nil(t, res.Data)
	assert.Nil(t, font.Glyphs)
}

func TestBitmapFontLoaderErrors(t *testing.T) {
	dir := t.TempDir()
	fl := &BitmapFontLoader{}

	_, err := fl.Load(filepath.Join(dir, "font.kbf"), metadata.ResourceTypeBitmapFont, nil)
	assert.Error(t, err)
	_, err = fl.LoadFont(filepath.Join(dir, "none.fnt"))
	assert.Error(t, err)
}
