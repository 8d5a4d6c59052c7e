package raster

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/gg/text"

	"github.com/opd-ai/ncontrol/internal/assets"
	"github.com/opd-ai/ncontrol/internal/canvas"
)

// FontSet holds parsed font sources by family and style. It implements
// assets.FontRegistrar and is safe for concurrent use.
type FontSet struct {
	mu       sync.RWMutex
	families map[string]map[canvas.FontStyle]*text.FontSource
}

var _ assets.FontRegistrar = (*FontSet)(nil)

// NewFontSet returns a set holding the embedded Go fonts.
func NewFontSet() *FontSet {
	fs := &FontSet{families: make(map[string]map[canvas.FontStyle]*text.FontSource)}
	for _, f := range assets.BuiltinFonts() {
		if err := fs.LoadFontFromData(f.Family, f.Style, f.TTF); err != nil {
			panic("failed to load embedded font: " + err.Error())
		}
	}
	return fs
}

// LoadFontFromData parses TTF/OTF data and registers it.
func (fs *FontSet) LoadFontFromData(family string, style canvas.FontStyle, data []byte) error {
	src, err := text.NewFontSource(data)
	if err != nil {
		return fmt.Errorf("failed to parse font data for %s: %w", family, err)
	}
	name := assets.CanonicalFamily(family)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	styles, ok := fs.families[name]
	if !ok {
		styles = make(map[canvas.FontStyle]*text.FontSource)
		fs.families[name] = styles
	}
	styles[style] = src
	return nil
}

// Source returns the source for f, falling back to the default family and
// to the regular style.
func (fs *FontSet) Source(f canvas.Font) *text.FontSource {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	styles, ok := fs.families[assets.CanonicalFamily(f.Family)]
	if !ok {
		styles = fs.families[assets.DefaultFamily]
	}
	if src, ok := styles[f.Style]; ok {
		return src
	}
	if f.Style == canvas.FontStyleBoldItalic {
		if src, ok := styles[canvas.FontStyleBold]; ok {
			return src
		}
	}
	return styles[canvas.FontStyleRegular]
}

// Face returns a face for f at size pixels.
func (fs *FontSet) Face(f canvas.Font, size float64) text.Face {
	src := fs.Source(f)
	if src == nil {
		return nil
	}
	return src.Face(size)
}

// Measure returns the advance width and line height of s in f.
func (fs *FontSet) Measure(s string, f canvas.Font) (w, h float64) {
	if s == "" {
		return 0, 0
	}
	f = f.Normalized()
	face := fs.Face(f, f.Size)
	if face == nil {
		return 0, 0
	}
	return text.Measure(s, face)
}

// Families returns the registered family names, sorted.
func (fs *FontSet) Families() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	names := make([]string, 0, len(fs.families))
	for name := range fs.families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
