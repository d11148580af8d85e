package metadata

/** @brief One character of a bitmap font atlas, in atlas pixels. */
type FontGlyph struct {
	Codepoint rune
	X         uint16
	Y         uint16
	Width     uint16
	Height    uint16
	XOffset   int16
	YOffset   int16
	XAdvance  int16
	PageID    uint8
}

/** @brief Extra advance applied between two codepoints. */
type FontKerning struct {
	Codepoint0 rune
	Codepoint1 rune
	Amount     int16
}

/** @brief The metrics of a bitmap font. */
type FontData struct {
	/** @brief The face name. */
	Face string
	/** @brief The font size. */
	Size uint32
	/** @brief The height of a line of text. */
	LineHeight int32
	/** @brief The distance from the top of a line to the baseline. */
	Baseline int32
	/** @brief The size of the atlas in pixels. */
	AtlasSizeX int32
	AtlasSizeY int32
	Glyphs     map[rune]FontGlyph
	Kernings   []FontKerning
}

/** @brief A page image of a bitmap font. */
type BitmapFontPage struct {
	ID   int8
	File string
	// Image holds the decoded page, ready to become a texture.
	Image *Image
}

/** @brief What the bitmap font loader produces. */
type BitmapFontResourceData struct {
	Data  *FontData
	Pages []BitmapFontPage
}
