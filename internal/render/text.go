package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/opd-ai/ncontrol/internal/canvas"
	"github.com/opd-ai/ncontrol/internal/geom"
)

// lineSpacing is the line height as a multiple of the font size.
const lineSpacing = 1.2

// TextRendererInterface defines the interface for text rendering.
// This allows for mocking in tests.
type TextRendererInterface interface {
	// DrawText draws s with its top-left corner at the origin of geoM.
	DrawText(dst *ebiten.Image, s string, font canvas.Font, geoM ebiten.GeoM, clr color.Color)
	MeasureText(s string, font canvas.Font) geom.Size
}

// TextRenderer handles text rendering using Ebiten's text package.
type TextRenderer struct {
	fonts *FontManager
}

// NewTextRenderer creates a TextRenderer over fonts. A nil manager gets
// the embedded Go fonts.
func NewTextRenderer(fonts *FontManager) *TextRenderer {
	if fonts == nil {
		fonts = NewFontManager()
	}
	return &TextRenderer{fonts: fonts}
}

// Fonts returns the font manager.
func (tr *TextRenderer) Fonts() *FontManager {
	return tr.fonts
}

// DrawText implements TextRendererInterface.
func (tr *TextRenderer) DrawText(dst *ebiten.Image, s string, font canvas.Font, geoM ebiten.GeoM, clr color.Color) {
	face := tr.fonts.Face(font)
	op := &text.DrawOptions{}
	op.GeoM = geoM
	op.ColorScale.ScaleWithColor(clr)
	op.LineSpacing = face.Size * lineSpacing
	text.Draw(dst, s, face, op)
}

// MeasureText implements TextRendererInterface.
func (tr *TextRenderer) MeasureText(s string, font canvas.Font) geom.Size {
	if s == "" {
		return geom.Size{}
	}
	face := tr.fonts.Face(font)
	w, h := text.Measure(s, face, face.Size*lineSpacing)
	return geom.Sz(w, h)
}
