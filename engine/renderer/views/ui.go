package views

import (
	"github.com/spaghettifunk/gef/engine/math"
	"github.com/spaghettifunk/gef/engine/renderer"
	"github.com/spaghettifunk/gef/engine/renderer/metadata"
)

/** @brief A line of text drawn by the UI view. */
type Text struct {
	Font          *renderer.Font
	Position      math.Vec3
	Scale         float32
	Colour        uint32
	Justification renderer.TextJustification
	Value         string
}

// RenderViewUI draws sprites, then text, in screen space.
type RenderViewUI struct {
	sprites []*metadata.Sprite
	texts   []Text
}

func (vu *RenderViewUI) AddSprite(sprite *metadata.Sprite) {
	vu.sprites = append(vu.sprites, sprite)
}

func (vu *RenderViewUI) AddText(text Text) {
	if text.Scale == 0 {
		text.Scale = 1
	}
	vu.texts = append(vu.texts, text)
}

func (vu *RenderViewUI) Reset() {
	vu.sprites = nil
	vu.texts = nil
}

func (vu *RenderViewUI) OnResize(sr *renderer.SpriteRenderer, width, height uint32) {
	sr.SetProjectionMatrix(renderer.ScreenProjection(width, height))
}

// OnRender draws the view in one frame and returns the draw count.
func (vu *RenderViewUI) OnRender(sr *renderer.SpriteRenderer, clear bool) (uint32, error) {
	if err := sr.Begin(clear); err != nil {
		return 0, err
	}
	for _, s := range vu.sprites {
		sr.DrawSprite(s)
	}
	for _, t := range vu.texts {
		if t.Font != nil {
			t.Font.RenderText(sr, t.Position, t.Scale, t.Colour, t.Justification, t.Value)
		}
	}
	if err := sr.End(); err != nil {
		return 0, err
	}
	return sr.GetAndResetDrawCount(), nil
}
