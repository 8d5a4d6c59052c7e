package canvas

import (
	"image"
	"sync/atomic"

	"github.com/opd-ai/ncontrol/internal/geom"
)

var nextImageID atomic.Uint64

// Image is a decoded bitmap shared between backends. Backends cache their
// native texture by ID. An Image is immutable once created.
type Image struct {
	id  uint64
	src image.Image
}

// NewImage wraps src. It returns nil when src is nil.
func NewImage(src image.Image) *Image {
	if src == nil {
		return nil
	}
	return &Image{id: nextImageID.Add(1), src: src}
}

// ID returns a process-unique identifier.
func (img *Image) ID() uint64 {
	return img.id
}

// Source returns the underlying bitmap.
func (img *Image) Source() image.Image {
	return img.src
}

// Size returns the pixel dimensions.
func (img *Image) Size() geom.Size {
	b := img.src.Bounds()
	return geom.Sz(float64(b.Dx()), float64(b.Dy()))
}

// Empty reports whether img is nil or has no pixels.
func (img *Image) Empty() bool {
	return img == nil || img.src == nil || img.src.Bounds().Empty()
}
