package app

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font"

	"topnote/internal/render"
	"topnote/internal/ui"
)

func (a *App) Draw(screen *ebiten.Image) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	if a.frameBuffer == nil {
		a.frameBuffer = render.NewFrameBuffer(w, h)
	} else if a.frameBuffer.W != w || a.frameBuffer.H != h {
		a.frameBuffer.Resize(w, h)
	}
	if a.canvas == nil || a.canvas.Bounds().Dx() != w || a.canvas.Bounds().Dy() != h {
		a.canvas = ebiten.NewImage(w, h)
	}

	a.relayout(w, h)
	uiFace := a.fonts.Face(11, ui.FontStyle{})
	statusFace := a.fonts.Face(10, ui.FontStyle{})

	ui.DrawShell(a.frameBuffer, a.theme, a.layout, a.tabViews())
	a.layoutToolbar(uiFace)
	a.drawToolbarButtons()
	a.layoutDocumentLines()
	a.drawDocumentImages()
	a.drawDocumentSelectionAndCaret()
	a.drawScrollbars()

	a.canvas.WritePixels(a.frameBuffer.Pixels)
	screen.DrawImage(a.canvas, nil)

	a.drawTitleLabel(screen, uiFace)
	a.drawTabLabels(screen, uiFace)
	a.drawToolbarLabels(screen, uiFace)
	a.drawLineEdit(screen, uiFace)
	a.drawDocumentText(screen)
	a.drawGutterNumbers(screen)
	a.drawStatus(screen, statusFace)
	a.drawSwatches(screen, statusFace)

	a.drawEncryptionPanel(screen, w, h)
	a.drawFontPanel(screen, w, h)
	a.drawPasswordPrompt(screen, w, h)
	if a.showHelp {
		a.drawHelpOverlay(screen)
	}
}

func (a *App) tabViews() []ui.TabView {
	docs := a.sess.Documents()
	views := make([]ui.TabView, 0, len(docs))
	for i, d := range docs {
		modified := d.Modified
		if i == a.sess.ActiveIndex() {
			modified = a.state.Modified()
		}
		views = append(views, ui.TabView{
			Title:    d.Title,
			Active:   i == a.sess.ActiveIndex(),
			Modified: modified,
			Accent:   d.CustomColor,
		})
	}
	return views
}

func (a *App) drawToolbarButtons() {
	for _, btn := range a.toolbar {
		bg := a.theme.Button
		if btn.active {
			bg = a.theme.ButtonActive
		}
		a.frameBuffer.FillRect(btn.r.x, btn.r.y, btn.r.w, btn.r.h, bg)
		a.frameBuffer.StrokeRect(btn.r.x, btn.r.y, btn.r.w, btn.r.h, 1, a.theme.Border)
	}
	if a.edit.kind != editNone {
		r := a.editRect()
		a.frameBuffer.FillRect(r.x, r.y, r.w, r.h, inputBg)
		a.frameBuffer.StrokeRect(r.x, r.y, r.w, r.h, 1, inputFocus)
	}
}

func (a *App) drawToolbarLabels(screen *ebiten.Image, face font.Face) {
	_, lh := ui.LineHeight(face)
	for _, btn := range a.toolbar {
		x := btn.r.x + (btn.r.w-ui.MeasureString(face, btn.label))/2
		y := btn.r.y + (btn.r.h+lh)/2 - 3
		text.Draw(screen, btn.label, face, x, y, a.theme.ButtonText)
	}
}

func (a *App) drawLineEdit(screen *ebiten.Image, face font.Face) {
	if a.edit.kind == editNone {
		return
	}
	r := a.editRect()
	label := a.editLabel() + ": "
	value := a.edit.buffer
	if a.edit.kind == editFind && a.findQuery != "" {
		value = fmt.Sprintf("%s  [%d]", value, len(a.findMatches))
	}
	_, lh := ui.LineHeight(face)
	baseline := r.y + (r.h+lh)/2 - 3
	text.Draw(screen, label, face, r.x+6, baseline, a.theme.ButtonText)
	x := r.x + 6 + ui.MeasureString(face, label)
	text.Draw(screen, value, face, x, baseline, panelText)
	if (a.frameTick/30)%2 == 0 {
		cx := x + ui.MeasureString(face, a.edit.buffer)
		drawFilledRectOnScreen(screen, cx, r.y+4, 1, r.h-8, inputCaret)
	}
}

func (a *App) drawTitleLabel(screen *ebiten.Image, face font.Face) {
	l := a.layout
	if l.TitleH <= 0 {
		return
	}
	_, lh := ui.LineHeight(face)
	baseline := (l.TitleH+lh)/2 - 3
	text.Draw(screen, a.sess.WindowTitle(), face, 10, baseline, a.theme.TitleText)
	box := l.CloseBox
	text.Draw(screen, "x", face, box.Min.X+(box.Dx()-ui.MeasureString(face, "x"))/2, baseline, a.theme.TitleText)
}

func (a *App) drawTabLabels(screen *ebiten.Image, face font.Face) {
	l := a.layout
	_, lh := ui.LineHeight(face)
	closable := a.sess.Len() > 1
	for i, tab := range a.tabViews() {
		r := l.TabRect(i)
		title := tab.Title
		if tab.Modified {
			title = "*" + title
		}
		room := r.Dx() - 12
		if closable {
			room -= tabCloseWidth
		}
		title = fitText(face, title, room)
		c := a.theme.ButtonText
		if !tab.Active {
			c = ui.ContrastColor(a.theme.TabInactive)
		}
		baseline := r.Min.Y + (r.Dy()+lh)/2 - 2
		text.Draw(screen, title, face, r.Min.X+6, baseline, c)
		if closable {
			text.Draw(screen, "x", face, r.Max.X-tabCloseWidth+4, baseline, c)
		}
	}
}

func (a *App) drawStatus(screen *ebiten.Image, face font.Face) {
	l := a.layout
	caret := a.state.Caret()
	_, lh := ui.LineHeight(face)
	baseline := l.StatusY + (l.StatusH+lh)/2 - 3
	left := fmt.Sprintf("Ln %d, Col %d", caret.Line+1, caret.Col+1)
	if a.sess.IsProject() {
		left += "  |  " + a.sess.ProjectName()
	}
	text.Draw(screen, left, face, 10, baseline, a.theme.StatusText)
	right := fmt.Sprintf("%.0fpt  |  %s", a.fontSize, a.status)
	x := l.TextX + l.TextW - ui.MeasureString(face, right)
	if !l.Grip.Empty() {
		x -= l.Grip.Dx()
	}
	text.Draw(screen, right, face, max(x, 160), baseline, a.theme.StatusText)
}

// drawSwatches paints the colour popup above the document text.
func (a *App) drawSwatches(screen *ebiten.Image, face font.Face) {
	if !a.showSwatches {
		return
	}
	b := a.swatchBox
	drawFilledRectOnScreen(screen, b.x, b.y, b.w, b.h, panelBg)
	strokeRectOnScreen(screen, b, panelBorder)
	caption := "Tab colour"
	switch {
	case a.swatchFor == swatchBackground:
		caption = "Background"
	case a.swatchFor == swatchText && a.state.HasSelection():
		caption = "Selection colour"
	case a.swatchFor == swatchText:
		caption = "Text colour"
	}
	text.Draw(screen, caption, face, b.x+6, b.y+14, panelText)
	for _, sw := range a.swatches {
		if sw.reset {
			drawFilledRectOnScreen(screen, sw.r.x, sw.r.y, sw.r.w, sw.r.h, inputBg)
			drawFilledRectOnScreen(screen, sw.r.x+2, sw.r.y+sw.r.h/2-1, sw.r.w-4, 2, panelError)
		} else {
			drawFilledRectOnScreen(screen, sw.r.x, sw.r.y, sw.r.w, sw.r.h, sw.value)
		}
		strokeRectOnScreen(screen, sw.r, a.theme.Border)
	}
}

// fitText trims s with an ellipsis until it fits width.
func fitText(face font.Face, s string, width int) string {
	if ui.MeasureString(face, s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && ui.MeasureString(face, string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
