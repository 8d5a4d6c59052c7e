package assets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/sync/errgroup"

	"github.com/opd-ai/ncontrol/internal/canvas"
)

// DefaultFamily is used for fonts with an empty or unknown family.
const DefaultFamily = "GoSans"

// FontData is one font file registered under a family and style.
type FontData struct {
	Family string
	Style  canvas.FontStyle
	TTF    []byte
}

// BuiltinFonts returns the embedded Go font families.
func BuiltinFonts() []FontData {
	return []FontData{
		{"GoSans", canvas.FontStyleRegular, goregular.TTF},
		{"GoSans", canvas.FontStyleBold, gobold.TTF},
		{"GoSans", canvas.FontStyleItalic, goitalic.TTF},
		{"GoSans", canvas.FontStyleBoldItalic, gobolditalic.TTF},
		{"GoMono", canvas.FontStyleRegular, gomono.TTF},
		{"GoMono", canvas.FontStyleBold, gomonobold.TTF},
		{"GoMono", canvas.FontStyleItalic, gomonoitalic.TTF},
		{"GoMono", canvas.FontStyleBoldItalic, gomonobolditalic.TTF},
	}
}

var familyAliases = map[string]string{
	"":           DefaultFamily,
	"sans":       "GoSans",
	"sans-serif": "GoSans",
	"go":         "GoSans",
	"gosans":     "GoSans",
	"mono":       "GoMono",
	"monospace":  "GoMono",
	"gomono":     "GoMono",
}

// CanonicalFamily maps aliases ("sans", "monospace", "") to the
// registered family name. Other names are returned unchanged.
func CanonicalFamily(name string) string {
	if canonical, ok := familyAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return canonical
	}
	return name
}

// FontRegistrar accepts font data. The ebiten FontManager and the raster
// font set both implement it.
type FontRegistrar interface {
	LoadFontFromData(family string, style canvas.FontStyle, data []byte) error
}

// FontFile names a font file on disk.
type FontFile struct {
	Family string
	Style  canvas.FontStyle
	Path   string
}

// RegisterFonts reads files concurrently and hands every one to each
// registrar. The first read or parse failure is returned, naming the file.
func RegisterFonts(ctx context.Context, files []FontFile, registrars ...FontRegistrar) error {
	data := make([][]byte, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultConcurrency)
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := os.ReadFile(f.Path)
			if err != nil {
				return fmt.Errorf("font %s (%s): %w", f.Family, f.Path, err)
			}
			data[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, f := range files {
		for _, r := range registrars {
			if err := r.LoadFontFromData(f.Family, f.Style, data[i]); err != nil {
				return fmt.Errorf("font %s (%s): %w", f.Family, f.Path, err)
			}
		}
	}
	return nil
}
