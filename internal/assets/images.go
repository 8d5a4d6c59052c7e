// Package assets loads the images and fonts a scene refers to. Loading
// happens off the UI goroutine; results are handed back as values and
// never touch a canvas directly.
package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/opd-ai/ncontrol/internal/canvas"
)

const defaultConcurrency = 4

// Decoder turns encoded bytes into an image. canvas.Platform satisfies it.
type Decoder interface {
	LoadImage(r io.Reader) (*canvas.Image, error)
}

// ImageSet maps asset names to decoded images.
type ImageSet map[string]*canvas.Image

// Get returns the image registered under name.
func (s ImageSet) Get(name string) (*canvas.Image, bool) {
	img, ok := s[name]
	return img, ok
}

// Names returns the asset names, sorted.
func (s ImageSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Loader decodes image files through a Decoder.
type Loader struct {
	Decoder Decoder
	// BaseDir resolves relative paths. Empty means the working directory.
	BaseDir string
	// Concurrency bounds parallel decodes; zero means a small default.
	Concurrency int
	Logger      *slog.Logger
}

// NewLoader returns a Loader using dec.
func NewLoader(dec Decoder, baseDir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{Decoder: dec, BaseDir: baseDir, Logger: logger}
}

func (l *Loader) resolve(p string) string {
	if l.BaseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(l.BaseDir, p)
}

// LoadImage decodes a single file.
func (l *Loader) LoadImage(p string) (*canvas.Image, error) {
	f, err := os.Open(l.resolve(p))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := l.Decoder.LoadImage(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", p, err)
	}
	if img.Empty() {
		return nil, fmt.Errorf("decode %s: %w", p, canvas.ErrNoImage)
	}
	return img, nil
}

// LoadImages decodes every named file concurrently. Any failure cancels
// the rest and is returned naming the asset; a partial set is never
// returned.
func (l *Loader) LoadImages(ctx context.Context, paths map[string]string) (ImageSet, error) {
	names := make([]string, 0, len(paths))
	for n := range paths {
		names = append(names, n)
	}
	sort.Strings(names)

	results := make([]*canvas.Image, len(names))
	g, ctx := errgroup.WithContext(ctx)
	limit := l.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	g.SetLimit(limit)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := l.LoadImage(paths[name])
			if err != nil {
				return fmt.Errorf("image %q: %w", name, err)
			}
			results[i] = img
			l.Logger.Debug("image loaded", "name", name, "size", img.Size())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	set := make(ImageSet, len(names))
	for i, name := range names {
		set[name] = results[i]
	}
	return set, nil
}

// Result is the outcome of an asynchronous load.
type Result struct {
	Image *canvas.Image
	Err   error
}

// LoadImageAsync decodes p in the background. The channel receives exactly
// one Result and is then closed.
func (l *Loader) LoadImageAsync(ctx context.Context, p string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		if err := ctx.Err(); err != nil {
			ch <- Result{Err: err}
			return
		}
		img, err := l.LoadImage(p)
		ch <- Result{Image: img, Err: err}
	}()
	return ch
}
