package ui

import (
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontStyle picks one of the bundled Go faces.
type FontStyle struct {
	Mono   bool
	Bold   bool
	Italic bool
}

// Name is the face name shown to the user, e.g. "Go Mono Bold Italic".
func (s FontStyle) Name() string {
	parts := []string{"Go"}
	if s.Mono {
		parts = append(parts, "Mono")
	}
	if s.Bold {
		parts = append(parts, "Bold")
	}
	if s.Italic {
		parts = append(parts, "Italic")
	}
	if len(parts) == 1 {
		parts = append(parts, "Regular")
	}
	return strings.Join(parts, " ")
}

var fontTTFs = map[FontStyle][]byte{
	{}:                                     goregular.TTF,
	{Bold: true}:                           gobold.TTF,
	{Italic: true}:                         goitalic.TTF,
	{Bold: true, Italic: true}:             gobolditalic.TTF,
	{Mono: true}:                           gomono.TTF,
	{Mono: true, Bold: true}:               gomonobold.TTF,
	{Mono: true, Italic: true}:             gomonoitalic.TTF,
	{Mono: true, Bold: true, Italic: true}: gomonobolditalic.TTF,
}

type fontKey struct {
	size  int
	style FontStyle
}

// FontBank parses the Go fonts once and caches a face per size and style.
type FontBank struct {
	fonts map[FontStyle]*opentype.Font
	cache map[fontKey]font.Face
}

func NewFontBank() *FontBank {
	b := &FontBank{
		fonts: make(map[FontStyle]*opentype.Font, len(fontTTFs)),
		cache: map[fontKey]font.Face{},
	}
	for style, ttf := range fontTTFs {
		f, err := opentype.Parse(ttf)
		if err != nil {
			continue
		}
		b.fonts[style] = f
	}
	return b
}

// Face returns a cached face. Sizes are in points at 72 DPI. A style whose
// font failed to parse falls back to regular, then to a fixed bitmap face.
func (b *FontBank) Face(size float64, style FontStyle) font.Face {
	key := fontKey{size: int(math.Round(size * 100)), style: style}
	if f, ok := b.cache[key]; ok {
		return f
	}
	base, ok := b.fonts[style]
	if !ok {
		base = b.fonts[FontStyle{}]
	}
	if base == nil {
		return basicfont.Face7x13
	}
	f, err := opentype.NewFace(base, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return basicfont.Face7x13
	}
	b.cache[key] = f
	return f
}

// MeasureString returns the advance of s in whole pixels.
func MeasureString(face font.Face, s string) int {
	if face == nil || s == "" {
		return 0
	}
	px := (int(font.MeasureString(face, s)) + 32) >> 6
	if px < 0 {
		px = 0
	}
	return px
}

func LineHeight(face font.Face) (ascent, height int) {
	m := face.Metrics()
	ascent = m.Ascent.Ceil()
	height = ascent + m.Descent.Ceil()
	if h := m.Height.Ceil(); h > height {
		height = h
	}
	return ascent, height
}
