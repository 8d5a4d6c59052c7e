package render

import (
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/opd-ai/ncontrol/internal/paint"
)

// gradientWidth is the texel count of a gradient ramp texture.
const gradientWidth = 256

// maxGradients bounds the ramp cache; it is flushed when full.
const maxGradients = 64

// gradientCache holds 1-pixel-high ramp textures keyed by their stops.
type gradientCache struct {
	ramps map[string]*ebiten.Image
}

func newGradientCache() *gradientCache {
	return &gradientCache{ramps: make(map[string]*ebiten.Image)}
}

func stopsKey(stops []paint.GradientStop) string {
	var b strings.Builder
	for _, s := range stops {
		fmt.Fprintf(&b, "%g:%s;", s.Offset, s.Color.Hex())
	}
	return b.String()
}

// texture returns the ramp for sorted stops.
func (gc *gradientCache) texture(stops []paint.GradientStop) *ebiten.Image {
	key := stopsKey(stops)
	if img, ok := gc.ramps[key]; ok {
		return img
	}
	if len(gc.ramps) >= maxGradients {
		for k, img := range gc.ramps {
			img.Deallocate()
			delete(gc.ramps, k)
		}
	}
	img := ebiten.NewImage(gradientWidth, 1)
	img.WritePixels(rampPixels(stops))
	gc.ramps[key] = img
	return img
}

// rampPixels samples stops into premultiplied RGBA texels.
func rampPixels(stops []paint.GradientStop) []byte {
	pix := make([]byte, gradientWidth*4)
	for i := 0; i < gradientWidth; i++ {
		c := paint.ColorAt(stops, float64(i)/(gradientWidth-1))
		a := uint32(c.A)
		pix[i*4+0] = byte(uint32(c.R) * a / 255)
		pix[i*4+1] = byte(uint32(c.G) * a / 255)
		pix[i*4+2] = byte(uint32(c.B) * a / 255)
		pix[i*4+3] = c.A
	}
	return pix
}
