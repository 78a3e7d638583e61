package ui

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/opentype"

	"topnote/internal/render"
)

func TestContrastColorLaws(t *testing.T) {
	for r := 0; r <= 255; r += 15 {
		for g := 0; g <= 255; g += 15 {
			for b := 0; b <= 255; b += 15 {
				bg := color.RGBA{uint8(r), uint8(g), uint8(b), 0xFF}
				out := ContrastColor(bg)
				require.Equal(t, out.R, out.G, "achromatic for %v", bg)
				require.Equal(t, out.G, out.B, "achromatic for %v", bg)
				require.Equal(t, uint8(0xFF), out.A)

				in := Brightness(bg)
				if in > 128 {
					require.Less(t, Brightness(out), in, "bright bg %v", bg)
				} else {
					require.Greater(t, Brightness(out), in, "dark bg %v", bg)
				}
			}
		}
	}
}

func TestContrastColorKnownValues(t *testing.T) {
	assert.Equal(t, color.RGBA{0x1B, 0x1B, 0x1B, 0xFF}, ContrastColor(color.RGBA{0xC9, 0xC9, 0xC9, 0xFF}))
	assert.Equal(t, color.RGBA{0xDF, 0xDF, 0xDF, 0xFF}, ContrastColor(color.RGBA{0x40, 0x40, 0x40, 0xFF}))
	assert.Equal(t, color.RGBA{0, 0, 0, 0xFF}, ContrastColor(color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}))
	assert.Equal(t, color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}, ContrastColor(color.RGBA{0, 0, 0, 0xFF}))
}

func TestThemeBackgroundDrivesForeground(t *testing.T) {
	theme := DefaultTheme().WithBackground(color.RGBA{0x10, 0x10, 0x40, 0x00})
	assert.Equal(t, uint8(0xFF), theme.Background.A)
	assert.Equal(t, ContrastColor(theme.Background), theme.Foreground)
	assert.Greater(t, Brightness(theme.Gutter), Brightness(theme.Background), "gutter lightens dark backgrounds")

	fg := color.RGBA{0xFF, 0, 0, 0xFF}
	theme = theme.WithForeground(fg)
	assert.Equal(t, fg, theme.Foreground)
	assert.Equal(t, fg, theme.Caret)
}

func TestComputeLayout(t *testing.T) {
	theme := DefaultTheme()
	l := ComputeLayout(800, 600, theme, LayoutOptions{Scale: 1, LineNumbers: true, Tabs: 3})
	assert.Zero(t, l.TitleH)
	assert.Equal(t, theme.TabWidthDp, l.TabW)
	assert.Equal(t, theme.GutterWidthDp+theme.PaddingDp, l.TextX)
	assert.Equal(t, 600-theme.StatusHeightDp, l.StatusY)
	assert.Equal(t, l.StatusY-l.TextY, l.TextH)
	assert.Equal(t, l.TabsY+l.TabsH, l.ToolY, "toolbar sits under the tabs")
	assert.Equal(t, l.ToolY+l.ToolH+l.Padding, l.TextY)
	assert.True(t, l.Grip.Empty(), "decorated windows resize natively")

	borderless := ComputeLayout(800, 600, theme, LayoutOptions{Scale: 2, Borderless: true, Tabs: 20})
	assert.Equal(t, theme.TitleHeightDp*2, borderless.TitleH)
	assert.Equal(t, borderless.TitleH, borderless.TabsY)
	assert.Equal(t, 40, borderless.TabW, "tabs shrink to fit")
	assert.Equal(t, theme.PaddingDp*2, borderless.TextX, "no gutter without line numbers")
	assert.True(t, borderless.InTitleBar(10, 5))
	assert.False(t, borderless.InTitleBar(799, 5), "close box is not a drag handle")
	assert.True(t, image.Pt(795, 595).In(borderless.Grip))
}

func TestTabAt(t *testing.T) {
	l := ComputeLayout(800, 600, DefaultTheme(), LayoutOptions{Scale: 1, Tabs: 2})
	y := l.TabsY + 1
	assert.Equal(t, 0, l.TabAt(5, y, 2))
	assert.Equal(t, 1, l.TabAt(l.TabW+5, y, 2))
	assert.Equal(t, -1, l.TabAt(l.TabW*2+5, y, 2))
	assert.Equal(t, -1, l.TabAt(5, l.TextY+10, 2))
	assert.Equal(t, image.Rect(l.TabW, l.TabsY, l.TabW*2, l.TabsY+l.TabsH), l.TabRect(1))
}

func TestDrawShellPaintsChrome(t *testing.T) {
	theme := DefaultTheme()
	fb := render.NewFrameBuffer(400, 300)
	l := ComputeLayout(fb.W, fb.H, theme, LayoutOptions{Scale: 1, LineNumbers: true, Tabs: 2})
	accent := color.RGBA{0xFF, 0x00, 0x00, 0xFF}
	DrawShell(fb, theme, l, []TabView{{Title: "a", Active: true}, {Title: "b", Accent: &accent}})

	img := fb.RGBA()
	assert.Equal(t, theme.Background, img.RGBAAt(l.TextX+10, l.TextY+10))
	assert.Equal(t, theme.Gutter, img.RGBAAt(l.GutterX+2, l.TextY+10))
	assert.Equal(t, theme.TabActive, img.RGBAAt(5, l.TabsY+5))
	assert.Equal(t, accent, img.RGBAAt(l.TabW+5, l.TabsY+l.TabsH-1))
	assert.Equal(t, theme.StatusBar, img.RGBAAt(50, l.StatusY+5))
}

func TestFontBankLoadsEveryStyle(t *testing.T) {
	bank := NewFontBank()
	seen := map[FontStyle]bool{}
	for _, mono := range []bool{false, true} {
		for _, bold := range []bool{false, true} {
			for _, italic := range []bool{false, true} {
				style := FontStyle{Mono: mono, Bold: bold, Italic: italic}
				face := bank.Face(14, style)
				require.IsType(t, &opentype.Face{}, face, style.Name())
				assert.Same(t, face, bank.Face(14, style), "faces are cached")
				assert.NotSame(t, face, bank.Face(15, style), "sizes are cached apart")
				seen[style] = true
			}
		}
	}
	assert.Len(t, seen, 8)
	assert.NotSame(t, bank.Face(14, FontStyle{}), bank.Face(14, FontStyle{Italic: true}))
}

func TestMonoFaceHasFixedAdvance(t *testing.T) {
	bank := NewFontBank()
	mono := bank.Face(14, FontStyle{Mono: true})
	assert.Equal(t, MeasureString(mono, "iiii"), MeasureString(mono, "WWWW"))

	regular := bank.Face(14, FontStyle{})
	assert.Less(t, MeasureString(regular, "iiii"), MeasureString(regular, "WWWW"))
	assert.Zero(t, MeasureString(regular, ""))

	ascent, height := LineHeight(regular)
	assert.Positive(t, ascent)
	assert.GreaterOrEqual(t, height, ascent)
}

func TestFontStyleName(t *testing.T) {
	assert.Equal(t, "Go Regular", FontStyle{}.Name())
	assert.Equal(t, "Go Italic", FontStyle{Italic: true}.Name())
	assert.Equal(t, "Go Mono Bold Italic", FontStyle{Mono: true, Bold: true, Italic: true}.Name())
}
