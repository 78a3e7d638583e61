package app

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font"

	"topnote/internal/editor"
	"topnote/internal/session"
	"topnote/internal/ui"
)

type lineLayout struct {
	line     int
	text     []rune
	docY     int
	height   int
	imageH   int
	width    int
	x        int
	y        int
	baseline int
}

// textTop is the screen y where the glyph row starts, below any embedded
// images reserved on the line.
func (ll lineLayout) textTop() int {
	return ll.y + ll.imageH
}

type placedImage struct {
	id        string
	r         image.Rectangle
	floating  bool
	draggable bool
	handle    image.Image
}

func (a *App) textFace() font.Face {
	return a.fonts.Face(a.fontSize, a.fontStyle)
}

func (a *App) textRect() image.Rectangle {
	l := a.layout
	return image.Rect(l.TextX, l.TextY, l.TextX+l.TextW, l.TextY+l.TextH)
}

func (a *App) layoutDocumentLines() {
	a.lines = a.lines[:0]
	a.placed = a.placed[:0]
	face := a.textFace()
	ascent, height := ui.LineHeight(face)
	l := a.layout

	reserve := map[int]int{}
	for _, p := range a.state.Images() {
		if p.Placement != session.PlacementEmbedded || p.Handle == nil {
			continue
		}
		h := p.Handle.Bounds().Dy() + p.YOffset
		if h > reserve[p.At.Line] {
			reserve[p.At.Line] = h
		}
	}

	docY := 0
	docW := 0
	for i, s := range a.state.Lines() {
		ll := lineLayout{line: i, text: []rune(s), docY: docY, imageH: reserve[i]}
		ll.height = height + ll.imageH
		ll.width = ui.MeasureString(face, s)
		ll.x = l.TextX - int(a.scrollX)
		ll.y = l.TextY + docY - int(a.scrollY)
		ll.baseline = ll.textTop() + ascent
		docW = max(docW, ll.width)
		a.lines = append(a.lines, ll)
		docY += ll.height
	}

	for _, p := range a.state.Images() {
		if p.Handle == nil {
			continue
		}
		b := p.Handle.Bounds()
		var x, y int
		if p.Placement == session.PlacementFloating {
			x = l.TextX + p.X - int(a.scrollX)
			y = l.TextY + p.Y - int(a.scrollY)
		} else {
			if p.At.Line < 0 || p.At.Line >= len(a.lines) {
				continue
			}
			ll := a.lines[p.At.Line]
			x = ll.x + a.lineAdvance(ll, p.At.Col) + p.XOffset
			y = ll.y + max(0, p.YOffset)
		}
		r := image.Rect(x, y, x+b.Dx(), y+b.Dy())
		a.placed = append(a.placed, placedImage{
			id:        p.ID,
			r:         r,
			floating:  p.Placement == session.PlacementFloating,
			draggable: p.Draggable,
			handle:    p.Handle,
		})
		docW = max(docW, r.Max.X-l.TextX+int(a.scrollX))
		docY = max(docY, r.Max.Y-l.TextY+int(a.scrollY))
	}

	a.maxX = math.Max(0, float64(docW+16-l.TextW))
	a.maxY = math.Max(0, float64(docY+height-l.TextH))
}

func (a *App) lineAdvance(ll lineLayout, col int) int {
	if col <= 0 {
		return 0
	}
	if col >= len(ll.text) {
		return ll.width
	}
	return ui.MeasureString(a.textFace(), string(ll.text[:col]))
}

func (a *App) colAtX(ll lineLayout, relX int) int {
	if relX <= 0 {
		return 0
	}
	face := a.textFace()
	x := 0
	for i, r := range ll.text {
		rw := ui.MeasureString(face, string(r))
		if relX < x+rw/2 {
			return i
		}
		x += rw
	}
	return len(ll.text)
}

func (a *App) hitTestPosition(x, y int) editor.Loc {
	if len(a.lines) == 0 {
		return a.state.Caret()
	}
	first := a.lines[0]
	if y <= first.y {
		return editor.Loc{Line: first.line, Col: a.colAtX(first, x-first.x)}
	}
	for _, ll := range a.lines {
		if y >= ll.y && y < ll.y+ll.height {
			return editor.Loc{Line: ll.line, Col: a.colAtX(ll, x-ll.x)}
		}
	}
	last := a.lines[len(a.lines)-1]
	return editor.Loc{Line: last.line, Col: a.colAtX(last, x-last.x)}
}

// imageAt returns the topmost image under (x, y). Floating images sit above
// embedded ones.
func (a *App) imageAt(x, y int) (placedImage, bool) {
	pt := image.Pt(x, y)
	if !pt.In(a.textRect()) {
		return placedImage{}, false
	}
	for i := len(a.placed) - 1; i >= 0; i-- {
		if a.placed[i].floating && pt.In(a.placed[i].r) {
			return a.placed[i], true
		}
	}
	for i := len(a.placed) - 1; i >= 0; i-- {
		if !a.placed[i].floating && pt.In(a.placed[i].r) {
			return a.placed[i], true
		}
	}
	return placedImage{}, false
}

func (a *App) drawDocumentImages() {
	clip := a.textRect()
	for _, p := range a.placed {
		if p.floating {
			continue
		}
		a.frameBuffer.Blit(p.handle, p.r.Min.X, p.r.Min.Y, clip)
	}
	for _, p := range a.placed {
		if p.floating {
			a.frameBuffer.Blit(p.handle, p.r.Min.X, p.r.Min.Y, clip)
		}
	}
	for _, p := range a.placed {
		if p.id != a.selectedImage {
			continue
		}
		r := p.r.Inset(-2)
		a.fillRectWithinContent(r.Min.X, r.Min.Y, r.Dx(), 2, a.theme.Accent)
		a.fillRectWithinContent(r.Min.X, r.Max.Y-2, r.Dx(), 2, a.theme.Accent)
		a.fillRectWithinContent(r.Min.X, r.Min.Y, 2, r.Dy(), a.theme.Accent)
		a.fillRectWithinContent(r.Max.X-2, r.Min.Y, 2, r.Dy(), a.theme.Accent)
	}
}

func (a *App) drawDocumentSelectionAndCaret() {
	_, height := ui.LineHeight(a.textFace())
	space := ui.MeasureString(a.textFace(), " ")

	for i, m := range a.findMatches {
		c := a.theme.FindHighlight
		if i == a.findIndex {
			c = a.theme.Accent
		}
		a.fillSpan(m.Start, m.End, height, space, c)
	}
	if start, end, ok := a.state.SelectionRange(); ok {
		a.fillSpan(start, end, height, space, a.theme.Selection)
	}

	if a.edit.kind != editNone || (a.frameTick/30)%2 != 0 {
		return
	}
	caret := a.state.Caret()
	if caret.Line < 0 || caret.Line >= len(a.lines) {
		return
	}
	ll := a.lines[caret.Line]
	x := ll.x + a.lineAdvance(ll, caret.Col)
	a.fillRectWithinContent(x, ll.textTop(), 2, height, a.theme.Caret)
}

// fillSpan paints [start, end) line by line. Line breaks inside the span
// get one space of width.
func (a *App) fillSpan(start, end editor.Loc, height, space int, c color.RGBA) {
	for line := start.Line; line <= end.Line && line < len(a.lines); line++ {
		ll := a.lines[line]
		from, to := 0, len(ll.text)
		if line == start.Line {
			from = start.Col
		}
		if line == end.Line {
			to = end.Col
		}
		x0 := ll.x + a.lineAdvance(ll, from)
		x1 := ll.x + a.lineAdvance(ll, to)
		if line != end.Line {
			x1 += space
		}
		a.fillRectWithinContent(x0, ll.textTop(), x1-x0, height, c)
	}
}

func (a *App) drawDocumentText(screen *ebiten.Image) {
	l := a.layout
	if l.TextW <= 0 || l.TextH <= 0 {
		return
	}
	if a.textLayer == nil || a.textLayer.Bounds().Dx() != l.TextW || a.textLayer.Bounds().Dy() != l.TextH {
		a.textLayer = ebiten.NewImage(max(1, l.TextW), max(1, l.TextH))
	}
	a.textLayer.Clear()

	face := a.textFace()
	for _, ll := range a.lines {
		relY := ll.y - l.TextY
		if relY+ll.height < 0 || relY > l.TextH {
			continue
		}
		if len(ll.text) == 0 {
			continue
		}
		runs := a.state.LineRuns(ll.line)
		if len(runs) == 1 && !runs[0].Colored {
			text.Draw(a.textLayer, string(ll.text), face, ll.x-l.TextX, ll.baseline-l.TextY, a.theme.Foreground)
			continue
		}
		for _, run := range runs {
			c := a.theme.Foreground
			if run.Colored {
				c = run.Color
			}
			x := ll.x - l.TextX + a.lineAdvance(ll, run.From)
			text.Draw(a.textLayer, string(ll.text[run.From:run.To]), face, x, ll.baseline-l.TextY, c)
		}
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(l.TextX), float64(l.TextY))
	screen.DrawImage(a.textLayer, op)
}

func (a *App) drawGutterNumbers(screen *ebiten.Image) {
	l := a.layout
	if l.GutterW <= 0 {
		return
	}
	face := a.textFace()
	for _, ll := range a.lines {
		if ll.textTop() < l.TextY || ll.baseline > l.StatusY {
			continue
		}
		n := strconv.Itoa(ll.line + 1)
		x := l.GutterX + l.GutterW - 6 - ui.MeasureString(face, n)
		text.Draw(screen, n, face, x, ll.baseline, a.theme.GutterText)
	}
}

func (a *App) drawScrollbars() {
	l := a.layout
	if l.TextW <= 0 || l.TextH <= 0 {
		return
	}
	track := a.theme.Gutter
	thumb := a.theme.Border
	if a.maxY > 0 {
		trackX := l.TextX + l.TextW - 6
		trackY := l.TextY + 2
		trackH := l.TextH - 8
		a.frameBuffer.FillRect(trackX, trackY, 4, trackH, track)
		thumbH := max(24, int(float64(trackH)*float64(l.TextH)/(float64(l.TextH)+a.maxY)))
		thumbY := trackY + int((a.scrollY/a.maxY)*float64(trackH-thumbH))
		a.frameBuffer.FillRect(trackX, thumbY, 4, thumbH, thumb)
	}
	if a.maxX > 0 {
		trackX := l.TextX + 2
		trackY := l.TextY + l.TextH - 6
		trackW := l.TextW - 8
		a.frameBuffer.FillRect(trackX, trackY, trackW, 4, track)
		thumbW := max(24, int(float64(trackW)*float64(l.TextW)/(float64(l.TextW)+a.maxX)))
		thumbX := trackX + int((a.scrollX/a.maxX)*float64(trackW-thumbW))
		a.frameBuffer.FillRect(thumbX, trackY, thumbW, 4, thumb)
	}
}

func (a *App) clampScroll() {
	a.scrollX = math.Min(math.Max(a.scrollX, 0), a.maxX)
	a.scrollY = math.Min(math.Max(a.scrollY, 0), a.maxY)
}

func (a *App) ensureCaretVisible() {
	l := a.layout
	caret := a.state.Caret()
	if caret.Line < 0 || caret.Line >= len(a.lines) || l.TextH <= 0 {
		return
	}
	ll := a.lines[caret.Line]
	top := float64(ll.docY + ll.imageH)
	bottom := float64(ll.docY + ll.height)
	if top < a.scrollY {
		a.scrollY = top
	}
	if bottom > a.scrollY+float64(l.TextH) {
		a.scrollY = bottom - float64(l.TextH)
	}

	caretX := float64(a.lineAdvance(ll, caret.Col))
	padding := 16.0
	if caretX < a.scrollX+padding {
		a.scrollX = math.Max(0, caretX-padding)
	}
	if caretX > a.scrollX+float64(l.TextW-12)-padding {
		a.scrollX = caretX - float64(l.TextW-12) + padding
	}
	if a.scrollX < 0 {
		a.scrollX = 0
	}
	if a.scrollY < 0 {
		a.scrollY = 0
	}
}

func (a *App) fillRectWithinContent(x, y, w, h int, c color.RGBA) {
	r := image.Rect(x, y, x+w, y+h).Intersect(a.textRect())
	if r.Empty() {
		return
	}
	a.frameBuffer.FillRect(r.Min.X, r.Min.Y, r.Dx(), r.Dy(), c)
}
