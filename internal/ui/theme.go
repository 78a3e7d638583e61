package ui

import "image/color"

type Theme struct {
	Background    color.RGBA
	Foreground    color.RGBA
	TitleBar      color.RGBA
	TitleText     color.RGBA
	TabStrip      color.RGBA
	TabActive     color.RGBA
	TabInactive   color.RGBA
	Toolbar       color.RGBA
	Button        color.RGBA
	ButtonActive  color.RGBA
	ButtonText    color.RGBA
	Gutter        color.RGBA
	GutterText    color.RGBA
	StatusBar     color.RGBA
	StatusText    color.RGBA
	Border        color.RGBA
	Accent        color.RGBA
	Selection     color.RGBA
	FindHighlight color.RGBA
	Caret         color.RGBA

	TitleHeightDp   int
	TabHeightDp     int
	TabWidthDp      int
	ToolbarHeightDp int
	StatusHeightDp  int
	GutterWidthDp   int
	PaddingDp       int
}

func DefaultTheme() Theme {
	t := Theme{
		TitleBar:      color.RGBA{0x2B, 0x2F, 0x36, 0xFF},
		TitleText:     color.RGBA{0xF0, 0xF0, 0xF0, 0xFF},
		TabStrip:      color.RGBA{0x3A, 0x3F, 0x47, 0xFF},
		TabActive:     color.RGBA{0xD6, 0xD9, 0xDE, 0xFF},
		TabInactive:   color.RGBA{0x8A, 0x90, 0x99, 0xFF},
		Toolbar:       color.RGBA{0xE4, 0xE7, 0xEC, 0xFF},
		Button:        color.RGBA{0xF4, 0xF6, 0xF9, 0xFF},
		ButtonActive:  color.RGBA{0xC9, 0xDB, 0xF3, 0xFF},
		ButtonText:    color.RGBA{0x2C, 0x3A, 0x52, 0xFF},
		StatusBar:     color.RGBA{0x2B, 0x2F, 0x36, 0xFF},
		StatusText:    color.RGBA{0xD0, 0xD0, 0xD0, 0xFF},
		Border:        color.RGBA{0x55, 0x5B, 0x66, 0xFF},
		Accent:        color.RGBA{0x2B, 0x57, 0x9A, 0xFF},
		Selection:     color.RGBA{0x5A, 0x8D, 0xD6, 0xFF},
		FindHighlight: color.RGBA{0xF2, 0xD0, 0x3C, 0xFF},

		TitleHeightDp:   26,
		TabHeightDp:     26,
		TabWidthDp:      140,
		ToolbarHeightDp: 30,
		StatusHeightDp:  22,
		GutterWidthDp:   44,
		PaddingDp:       6,
	}
	return t.WithBackground(color.RGBA{0xA0, 0xA0, 0xA0, 0xFF})
}

// WithBackground recolours the text area. The text colour follows the
// background unless WithForeground overrides it afterwards.
func (t Theme) WithBackground(bg color.RGBA) Theme {
	bg.A = 0xFF
	t.Background = bg
	t.Foreground = ContrastColor(bg)
	t.Caret = t.Foreground
	t.Gutter = shade(bg, -24)
	t.GutterText = ContrastColor(t.Gutter)
	return t
}

func (t Theme) WithForeground(fg color.RGBA) Theme {
	fg.A = 0xFF
	t.Foreground = fg
	t.Caret = fg
	return t
}

func shade(c color.RGBA, d int) color.RGBA {
	if Brightness(c) <= 128 {
		d = -d
	}
	adj := func(v uint8) uint8 {
		n := int(v) + d
		if n < 0 {
			return 0
		}
		if n > 0xFF {
			return 0xFF
		}
		return uint8(n)
	}
	return color.RGBA{R: adj(c.R), G: adj(c.G), B: adj(c.B), A: c.A}
}
