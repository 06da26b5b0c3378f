package render

import (
	"fmt"
	"os"
	"strings"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// fontSet holds parsed fonts. Faces are created per drawing since truetype
// faces keep a glyph cache that is not safe for concurrent use.
type fontSet struct {
	regular *truetype.Font
	bold    *truetype.Font
}

func loadFonts(path string) (fontSet, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return fontSet{}, fmt.Errorf("parse go regular: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return fontSet{}, fmt.Errorf("parse go bold: %w", err)
	}
	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fontSet{}, fmt.Errorf("failed to read font file: %w", err)
		}
		custom, err := truetype.Parse(raw)
		if err != nil {
			return fontSet{}, fmt.Errorf("failed to parse TTF: %w", err)
		}
		regular = custom
	}
	return fontSet{regular: regular, bold: bold}, nil
}

func (fs fontSet) face(bold bool, size float64) font.Face {
	f := fs.regular
	if bold {
		f = fs.bold
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}
