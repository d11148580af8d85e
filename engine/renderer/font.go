package renderer

import (
	"fmt"

	"github.com/spaghettifunk/gef/engine/assets/loaders"
	"github.com/spaghettifunk/gef/engine/core"
	"github.com/spaghettifunk/gef/engine/math"
	"github.com/spaghettifunk/gef/engine/platform"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

type TextJustification int

const (
	TextJustificationLeft TextJustification = iota
	TextJustificationCentre
	TextJustificationRight
)

/**
 * @brief A bitmap font drawn through a SpriteRenderer, one sprite per
 * character. Characters missing from the font are skipped.
 */
type Font struct {
	platform *platform.Platform
	data     *metadata.FontData
	pages    map[uint8]*metadata.Texture
}

// LoadFont reads a .fnt descriptor and uploads its page images.
func LoadFont(p *platform.Platform, path string) (*Font, error) {
	rd, err := (&loaders.BitmapFontLoader{}).LoadFont(path)
	if err != nil {
		return nil, fmt.Errorf("font '%s': %w", path, err)
	}
	return NewFont(p, rd)
}

// NewFont uploads the pages of an already loaded font.
func NewFont(p *platform.Platform, rd *metadata.BitmapFontResourceData) (*Font, error) {
	if rd == nil || rd.Data == nil {
		return nil, fmt.Errorf("font has no data")
	}
	if rd.Data.AtlasSizeX <= 0 || rd.Data.AtlasSizeY <= 0 {
		return nil, fmt.Errorf("font '%s' has an empty atlas", rd.Data.Face)
	}
	f := &Font{
		platform: p,
		data:     rd.Data,
		pages:    make(map[uint8]*metadata.Texture, len(rd.Pages)),
	}
	for _, page := range rd.Pages {
		if page.Image == nil {
			continue
		}
		page.Image.Name = page.File
		tex, err := p.CreateTexture(page.Image)
		if err != nil {
			f.Destroy()
			return nil, fmt.Errorf("font '%s' page %d: %w", rd.Data.Face, page.ID, err)
		}
		f.pages[uint8(page.ID)] = tex
	}
	core.LogDebug("font '%s' loaded: %d glyphs, %d pages", rd.Data.Face, len(rd.Data.Glyphs), len(f.pages))
	return f, nil
}

// Destroy releases the page textures.
func (f *Font) Destroy() {
	for id, tex := range f.pages {
		f.platform.RemoveTexture(tex)
		delete(f.pages, id)
	}
}

func (f *Font) Data() *metadata.FontData { return f.data }

// Page returns the texture of page id.
func (f *Font) Page(id uint8) *metadata.Texture { return f.pages[id] }

/**
 * @brief Draws text starting at pos. The cursor moves right by each
 * character's advance times scale; pos.Y is the top of the line and pos.Z
 * the depth of every sprite.
 */
func (f *Font) RenderText(sr *SpriteRenderer, pos math.Vec3, scale float32, colour uint32, justification TextJustification, text string) {
	if text == "" {
		return
	}
	cursor := math.NewVec2(pos.X, pos.Y)
	switch justification {
	case TextJustificationCentre:
		cursor.X -= f.StringLength(text) * 0.5 * scale
	case TextJustificationRight:
		cursor.X -= f.StringLength(text) * scale
	}

	atlasW := float32(f.data.AtlasSizeX)
	atlasH := float32(f.data.AtlasSizeY)
	sprite := &metadata.Sprite{Colour: colour}
	for _, c := range text {
		glyph, ok := f.data.Glyphs[c]
		if !ok {
			core.LogDebug("font '%s' has no glyph for %q", f.data.Face, c)
			continue
		}
		w := float32(glyph.Width)
		h := float32(glyph.Height)

		sprite.Size = math.NewVec2(w*scale, h*scale)
		sprite.Position = math.NewVec3(
			cursor.X+float32(glyph.XOffset)*scale+sprite.Size.X*0.5,
			cursor.Y+scale*(h*0.5+float32(glyph.YOffset)),
			pos.Z,
		)
		sprite.UVPosition = math.NewVec2(float32(glyph.X)/atlasW, float32(glyph.Y)/atlasH)
		sprite.UVSize = math.NewVec2(w/atlasW, h/atlasH)
		sprite.Texture = f.pages[glyph.PageID]
		sr.DrawSprite(sprite)

		cursor.X += float32(glyph.XAdvance) * scale
	}
}

// StringLength returns the unscaled sum of the character advances.
func (f *Font) StringLength(text string) float32 {
	var length float32
	for _, c := range text {
		if glyph, ok := f.data.Glyphs[c]; ok {
			length += float32(glyph.XAdvance)
		}
	}
	return length
}

func (f *Font) LineHeight() float32 {
	return float32(f.data.LineHeight)
}
