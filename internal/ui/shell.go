package ui

import (
	"image"
	"image/color"

	"topnote/internal/render"
)

type Layout struct {
	TitleH   int
	TabsY    int
	TabsH    int
	TabW     int
	ToolY    int
	ToolH    int
	GutterX  int
	GutterW  int
	TextX    int
	TextY    int
	TextW    int
	TextH    int
	StatusY  int
	StatusH  int
	Padding  int
	CloseBox image.Rectangle
	Grip     image.Rectangle
}

type LayoutOptions struct {
	Scale float32
	// Borderless windows get a drawn title bar to drag by.
	Borderless  bool
	LineNumbers bool
	Tabs        int
}

func ComputeLayout(w, h int, theme Theme, opts LayoutOptions) Layout {
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	dp := func(v int) int { return int(float32(v) * scale) }

	var l Layout
	if opts.Borderless {
		l.TitleH = dp(theme.TitleHeightDp)
		box := l.TitleH
		l.CloseBox = image.Rect(w-box, 0, w, box)
	}
	l.TabsY = l.TitleH
	l.TabsH = dp(theme.TabHeightDp)
	l.ToolY = l.TabsY + l.TabsH
	l.ToolH = dp(theme.ToolbarHeightDp)
	l.StatusH = dp(theme.StatusHeightDp)
	l.StatusY = h - l.StatusH
	l.Padding = dp(theme.PaddingDp)
	if opts.Borderless {
		l.Grip = image.Rect(w-l.StatusH, l.StatusY, w, h)
	}

	l.TabW = dp(theme.TabWidthDp)
	if opts.Tabs > 0 && l.TabW*opts.Tabs > w {
		l.TabW = w / opts.Tabs
	}

	if opts.LineNumbers {
		l.GutterW = dp(theme.GutterWidthDp)
	}
	l.TextX = l.GutterX + l.GutterW + l.Padding
	l.TextY = l.ToolY + l.ToolH + l.Padding
	l.TextW = w - l.TextX - l.Padding
	l.TextH = l.StatusY - l.TextY
	if l.TextW < 0 {
		l.TextW = 0
	}
	if l.TextH < 0 {
		l.TextH = 0
	}
	return l
}

func (l Layout) TabRect(i int) image.Rectangle {
	x := i * l.TabW
	return image.Rect(x, l.TabsY, x+l.TabW, l.TabsY+l.TabsH)
}

// TabAt returns the index of the tab under (x, y), or -1.
func (l Layout) TabAt(x, y, tabs int) int {
	if y < l.TabsY || y >= l.TabsY+l.TabsH || l.TabW <= 0 || x < 0 {
		return -1
	}
	i := x / l.TabW
	if i >= tabs {
		return -1
	}
	return i
}

func (l Layout) InTitleBar(x, y int) bool {
	return l.TitleH > 0 && y >= 0 && y < l.TitleH && !image.Pt(x, y).In(l.CloseBox)
}

func (l Layout) InText(x, y int) bool {
	return x >= l.TextX && x < l.TextX+l.TextW && y >= l.TextY && y < l.TextY+l.TextH
}

type TabView struct {
	Title    string
	Active   bool
	Modified bool
	Accent   *color.RGBA
}

// DrawShell paints the window chrome. Text is drawn on top by the caller.
func DrawShell(fb *render.FrameBuffer, theme Theme, l Layout, tabs []TabView) {
	fb.Clear(theme.Background)

	if l.TitleH > 0 {
		fb.FillRect(0, 0, fb.W, l.TitleH, theme.TitleBar)
		fb.FillRect(l.CloseBox.Min.X, l.CloseBox.Min.Y, l.CloseBox.Dx(), l.CloseBox.Dy(), theme.Border)
	}

	fb.FillRect(0, l.TabsY, fb.W, l.TabsH, theme.TabStrip)
	for i, tab := range tabs {
		r := l.TabRect(i)
		bg := theme.TabInactive
		if tab.Active {
			bg = theme.TabActive
		}
		fb.FillRect(r.Min.X+1, r.Min.Y+2, r.Dx()-2, r.Dy()-2, bg)
		if tab.Accent != nil {
			fb.FillRect(r.Min.X+1, r.Max.Y-3, r.Dx()-2, 3, *tab.Accent)
		} else if tab.Active {
			fb.FillRect(r.Min.X+1, r.Max.Y-2, r.Dx()-2, 2, theme.Accent)
		}
	}

	fb.FillRect(0, l.ToolY, fb.W, l.ToolH, theme.Toolbar)
	fb.FillRect(0, l.ToolY+l.ToolH-1, fb.W, 1, theme.Border)

	if l.GutterW > 0 {
		fb.FillRect(l.GutterX, l.TextY-l.Padding, l.GutterW, l.StatusY-l.TextY+l.Padding, theme.Gutter)
	}

	fb.FillRect(0, l.StatusY, fb.W, l.StatusH, theme.StatusBar)
	fb.StrokeRect(0, l.StatusY, fb.W, l.StatusH, 1, theme.Border)
	if !l.Grip.Empty() {
		for i := 4; i < l.Grip.Dx(); i += 4 {
			fb.FillRect(l.Grip.Max.X-i, l.Grip.Max.Y-3, 2, 2, theme.StatusText)
			fb.FillRect(l.Grip.Max.X-3, l.Grip.Max.Y-i, 2, 2, theme.StatusText)
		}
	}
}
