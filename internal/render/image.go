package render

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/opd-ai/ncontrol/internal/canvas"
)

// ImageCache keeps one GPU texture per canvas.Image. Images are immutable,
// so an entry never goes stale; Evict drops textures for images that are
// no longer referenced.
type ImageCache struct {
	textures map[uint64]*ebiten.Image
}

// NewImageCache creates an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{textures: make(map[uint64]*ebiten.Image)}
}

// Texture returns the texture for img, uploading it on first use.
func (ic *ImageCache) Texture(img *canvas.Image) *ebiten.Image {
	if tex, ok := ic.textures[img.ID()]; ok {
		return tex
	}
	tex := ebiten.NewImageFromImage(img.Source())
	ic.textures[img.ID()] = tex
	return tex
}

// Evict disposes the texture for img.
func (ic *ImageCache) Evict(img *canvas.Image) {
	if tex, ok := ic.textures[img.ID()]; ok {
		tex.Deallocate()
		delete(ic.textures, img.ID())
	}
}

// Clear disposes every texture.
func (ic *ImageCache) Clear() {
	for id, tex := range ic.textures {
		tex.Deallocate()
		delete(ic.textures, id)
	}
}

// Size returns the number of cached textures.
func (ic *ImageCache) Size() int {
	return len(ic.textures)
}
