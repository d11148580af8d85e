package loaders

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fzipp/bmfont"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

/**
 * @brief Loads AngelCode text fonts (.fnt) together with their page images.
 * Pages are decoded unflipped, glyph rectangles are top-down.
 */
type BitmapFontLoader struct{}

func (fl *BitmapFontLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	if !strings.EqualFold(filepath.Ext(path), ".fnt") {
		return nil, fmt.Errorf("unable to load bitmap font '%s': only .fnt files are supported", path)
	}
	resourceData, err := fl.importFNTFile(path)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &metadata.Resource{
		Type:     metadata.ResourceTypeBitmapFont,
		Name:     name,
		FullPath: path,
		Data:     resourceData,
	}, nil
}

func (fl *BitmapFontLoader) Unload(resource *metadata.Resource) error {
	if resource == nil || resource.Data == nil {
		return nil
	}
	if data, ok := resource.Data.(*metadata.BitmapFontResourceData); ok && data.Data != nil {
		data.Data.Glyphs = nil
		data.Data.Kernings = nil
		data.Pages = nil
	}
	resource.Data = nil
	resource.DataSize = 0
	resource.FullPath = ""
	return nil
}

// LoadFont reads the descriptor at path and decodes its pages.
func (fl *BitmapFontLoader) LoadFont(path string) (*metadata.BitmapFontResourceData, error) {
	return fl.importFNTFile(path)
}

func (fl *BitmapFontLoader) importFNTFile(fntFileName string) (*metadata.BitmapFontResourceData, error) {
	font, err := bmfont.Load(fntFileName)
	if err != nil {
		return nil, err
	}
	desc := font.Descriptor

	outData := &metadata.BitmapFontResourceData{
		Data: &metadata.FontData{
			Face:       desc.Info.Face,
			Size:       uint32(desc.Info.Size),
			LineHeight: int32(desc.Common.LineHeight),
			Baseline:   int32(desc.Common.Base),
			AtlasSizeX: int32(desc.Common.ScaleW),
			AtlasSizeY: int32(desc.Common.ScaleH),
			Glyphs:     make(map[rune]metadata.FontGlyph, len(desc.Chars)),
			Kernings:   make([]metadata.FontKerning, 0, len(desc.Kerning)),
		},
		Pages: make([]metadata.BitmapFontPage, 0, len(desc.Pages)),
	}

	images := &TextureLoader{}
	dir := filepath.Dir(fntFileName)
	for _, p := range desc.Pages {
		img, err := images.LoadImage(filepath.Join(dir, p.File))
		if err != nil {
			return nil, fmt.Errorf("font page %d of '%s': %w", p.ID, fntFileName, err)
		}
		outData.Pages = append(outData.Pages, metadata.BitmapFontPage{
			ID:    int8(p.ID),
			File:  p.File,
			Image: img,
		})
	}

	sort.Slice(outData.Pages, func(i, j int) bool { return outData.Pages[i].ID < outData.Pages[j].ID })

	for _, g := range desc.Chars {
		outData.Data.Glyphs[rune(g.ID)] = metadata.FontGlyph{
			Codepoint: rune(g.ID),
			X:         uint16(g.X),
			Y:         uint16(g.Y),
			Width:     uint16(g.Width),
			Height:    uint16(g.Height),
			XOffset:   int16(g.XOffset),
			YOffset:   int16(g.YOffset),
			XAdvance:  int16(g.XAdvance),
			PageID:    uint8(g.Page),
		}
	}

	for p, k := range desc.Kerning {
		outData.Data.Kernings = append(outData.Data.Kernings, metadata.FontKerning{
			Codepoint0: rune(p.First),
			Codepoint1: rune(p.Second),
			Amount:     int16(k.Amount),
		})
	}

	return outData, nil
}
