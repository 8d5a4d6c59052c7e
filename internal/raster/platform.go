package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"

	"github.com/gogpu/gg"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/opd-ai/ncontrol/internal/canvas"
	"github.com/opd-ai/ncontrol/internal/geom"
	"github.com/opd-ai/ncontrol/internal/paint"
)

// ErrInvalidSize is returned for non-positive canvas or image sizes.
var ErrInvalidSize = errors.New("raster: invalid size")

// Platform implements canvas.Platform on gg. It decodes PNG, JPEG, GIF,
// BMP and WebP.
type Platform struct {
	fonts  *FontSet
	logger *slog.Logger
}

var _ canvas.Platform = (*Platform)(nil)

// NewPlatform returns a platform sharing fonts across its canvases. A nil
// font set gets the embedded Go fonts. The logger is also handed to gg; a
// nil logger silences both.
func NewPlatform(fonts *FontSet, logger *slog.Logger) *Platform {
	if fonts == nil {
		fonts = NewFontSet()
	}
	gg.SetLogger(logger)
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Platform{fonts: fonts, logger: logger}
}

// Fonts returns the shared font set.
func (p *Platform) Fonts() *FontSet {
	return p.fonts
}

// CreateImageCanvas implements canvas.Platform.
func (p *Platform) CreateImageCanvas(size geom.Size, scale float64, transparent bool) (canvas.ImageCanvas, error) {
	return p.NewCanvas(size, scale, transparent)
}

// NewCanvas is CreateImageCanvas returning the concrete type.
func (p *Platform) NewCanvas(size geom.Size, scale float64, transparent bool) (*Canvas, error) {
	if size.IsEmpty() || scale <= 0 {
		return nil, fmt.Errorf("%w: %v at scale %v", ErrInvalidSize, size, scale)
	}
	p.logger.Debug("image canvas created", "size", size, "scale", scale, "transparent", transparent)
	return NewCanvas(size, scale, transparent, p.fonts), nil
}

// CreateImage implements canvas.Platform.
func (p *Platform) CreateImage(width, height int, fill paint.Color) (*canvas.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.NRGBA(fill.NRGBA())}, image.Point{}, draw.Src)
	return canvas.NewImage(img), nil
}

// LoadImage implements canvas.Platform.
func (p *Platform) LoadImage(r io.Reader) (*canvas.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	p.logger.Debug("image decoded", "format", format, "bounds", img.Bounds())
	return canvas.NewImage(img), nil
}

// MeasureText implements canvas.Platform.
func (p *Platform) MeasureText(s string, font canvas.Font) geom.Size {
	w, h := p.fonts.Measure(s, font)
	return geom.Sz(w, h)
}
