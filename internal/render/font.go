package render

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"sync"

	etext "github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/opd-ai/ncontrol/internal/assets"
	"github.com/opd-ai/ncontrol/internal/canvas"
)

// FontFamily represents a font family with multiple style variations.
type FontFamily struct {
	name  string
	fonts map[canvas.FontStyle]*etext.GoTextFaceSource
}

// NewFontFamily creates a new FontFamily with the given name.
func NewFontFamily(name string) *FontFamily {
	return &FontFamily{
		name:  name,
		fonts: make(map[canvas.FontStyle]*etext.GoTextFaceSource),
	}
}

// Name returns the family name.
func (ff *FontFamily) Name() string {
	return ff.name
}

// Source returns the face source for style. A missing bold-italic falls
// back to bold, then italic; anything else falls back to regular, then to
// whatever the family has.
func (ff *FontFamily) Source(style canvas.FontStyle) *etext.GoTextFaceSource {
	if src, ok := ff.fonts[style]; ok {
		return src
	}
	if style == canvas.FontStyleBoldItalic {
		for _, s := range []canvas.FontStyle{canvas.FontStyleBold, canvas.FontStyleItalic} {
			if src, ok := ff.fonts[s]; ok {
				return src
			}
		}
	}
	for _, s := range []canvas.FontStyle{canvas.FontStyleRegular, canvas.FontStyleBold, canvas.FontStyleItalic, canvas.FontStyleBoldItalic} {
		if src, ok := ff.fonts[s]; ok {
			return src
		}
	}
	return nil
}

// Styles returns the styles the family provides, in declaration order.
func (ff *FontFamily) Styles() []canvas.FontStyle {
	var styles []canvas.FontStyle
	for _, s := range []canvas.FontStyle{canvas.FontStyleRegular, canvas.FontStyleBold, canvas.FontStyleItalic, canvas.FontStyleBoldItalic} {
		if _, ok := ff.fonts[s]; ok {
			styles = append(styles, s)
		}
	}
	return styles
}

// FontManager resolves canvas fonts to ebiten text faces. The Go font
// families are always available; more can be loaded from TTF/OTF data.
type FontManager struct {
	mu       sync.RWMutex
	families map[string]*FontFamily
}

// NewFontManager creates a FontManager holding the embedded Go fonts.
func NewFontManager() *FontManager {
	fm := &FontManager{families: make(map[string]*FontFamily)}
	for _, f := range assets.BuiltinFonts() {
		if err := fm.LoadFontFromData(f.Family, f.Style, f.TTF); err != nil {
			// The embedded fonts are known-good.
			panic("failed to load embedded font: " + err.Error())
		}
	}
	return fm
}

// LoadFontFromFile loads a font file and registers it under family and style.
func (fm *FontManager) LoadFontFromFile(family string, style canvas.FontStyle, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read font file %s: %w", filePath, err)
	}
	return fm.LoadFontFromData(family, style, data)
}

// LoadFontFromData parses font data and registers it under family and style.
func (fm *FontManager) LoadFontFromData(family string, style canvas.FontStyle, data []byte) error {
	source, err := etext.NewGoTextFaceSource(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to parse font data for %s: %w", family, err)
	}
	name := assets.CanonicalFamily(family)

	fm.mu.Lock()
	defer fm.mu.Unlock()
	ff, ok := fm.families[name]
	if !ok {
		ff = NewFontFamily(name)
		fm.families[name] = ff
	}
	ff.fonts[style] = source
	return nil
}

// Family returns a family by name or alias, or nil.
func (fm *FontManager) Family(name string) *FontFamily {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.families[assets.CanonicalFamily(name)]
}

// Face returns a text face for f. Unknown families fall back to the
// default family.
func (fm *FontManager) Face(f canvas.Font) *etext.GoTextFace {
	f = f.Normalized()
	ff := fm.Family(f.Family)
	if ff == nil {
		ff = fm.Family(assets.DefaultFamily)
	}
	return &etext.GoTextFace{Source: ff.Source(f.Style), Size: f.Size}
}

// ListFamilies returns the registered family names, sorted.
func (fm *FontManager) ListFamilies() []string {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	names := make([]string, 0, len(fm.families))
	for name := range fm.families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
