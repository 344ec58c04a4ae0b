package document

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontSet holds the parsed regular and bold fonts used by the renderer.
// Parsed fonts are shared; faces are created per render because a face is not
// safe for concurrent use.
type FontSet struct {
	regular *opentype.Font
	bold    *opentype.Font
}

// LoadFonts parses the TrueType/OpenType files at the given paths.
// An empty path falls back to the Go fonts, which have no Thai glyphs.
func LoadFonts(regularPath, boldPath string) (*FontSet, error) {
	regular, err := parseFont(regularPath, goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to load regular font: %w", err)
	}

	bold, err := parseFont(boldPath, gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to load bold font: %w", err)
	}

	return &FontSet{regular: regular, bold: bold}, nil
}

// DefaultFonts returns the Go font fallback set
func DefaultFonts() *FontSet {
	fs, err := LoadFonts("", "")
	if err != nil {
		// The embedded Go fonts always parse.
		panic(err)
	}
	return fs
}

func parseFont(path string, fallback []byte) (*opentype.Font, error) {
	data := fallback
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return opentype.Parse(data)
}

type faceKey struct {
	size float64
	bold bool
}

// faceCache creates faces on demand for one render
type faceCache struct {
	fonts *FontSet
	faces map[faceKey]font.Face
}

func newFaceCache(fonts *FontSet) *faceCache {
	return &faceCache{fonts: fonts, faces: make(map[faceKey]font.Face)}
}

func (fc *faceCache) face(size float64, bold bool) font.Face {
	key := faceKey{size: size, bold: bold}
	if f, ok := fc.faces[key]; ok {
		return f
	}

	src := fc.fonts.regular
	if bold {
		src = fc.fonts.bold
	}

	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		// NewFace only fails on invalid options.
		panic(err)
	}
	fc.faces[key] = f
	return f
}

func (fc *faceCache) close() {
	for _, f := range fc.faces {
		_ = f.Close()
	}
}
