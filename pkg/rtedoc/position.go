package rtedoc

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Position is a "line.column" text position. Line is 1-based, Col counts
// runes from the start of the line and is 0-based.
type Position struct {
	Line int
	Col  int
}

var StartPosition = Position{Line: 1, Col: 0}

func (p Position) String() string {
	return strconv.Itoa(p.Line) + "." + strconv.Itoa(p.Col)
}

func (p Position) Less(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Col < o.Col
}

func ParsePosition(s string) (Position, error) {
	lineStr, colStr, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	line, err := strconv.Atoi(lineStr)
	if err != nil || line < 1 {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	col, err := strconv.Atoi(colStr)
	if err != nil || col < 0 {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	return Position{Line: line, Col: col}, nil
}

// EndOf returns the position just past the last rune of text.
func EndOf(text string) Position {
	line := strings.Count(text, "\n") + 1
	last := text
	if i := strings.LastIndexByte(text, '\n'); i >= 0 {
		last = text[i+1:]
	}
	return Position{Line: line, Col: utf8.RuneCountInString(last)}
}

// Within reports whether p addresses an existing location in text.
func Within(text string, p Position) bool {
	if p.Line < 1 || p.Col < 0 {
		return false
	}
	lines := strings.Split(text, "\n")
	if p.Line > len(lines) {
		return false
	}
	return p.Col <= utf8.RuneCountInString(lines[p.Line-1])
}

// ParseColor accepts "#rrggbb" and "#rgb".
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}

func FormatColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
