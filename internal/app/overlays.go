package app

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font"

	"topnote/internal/session"
	"topnote/internal/ui"
	"topnote/pkg/rtedoc"
)

const maxInputLen = 128

var (
	panelBg       = color.RGBA{R: 248, G: 250, B: 253, A: 255}
	panelBorder   = color.RGBA{R: 160, G: 176, B: 198, A: 255}
	panelTitle    = color.RGBA{R: 24, G: 38, B: 56, A: 255}
	panelText     = color.RGBA{R: 52, G: 66, B: 92, A: 255}
	panelError    = color.RGBA{R: 165, G: 35, B: 35, A: 255}
	inputBg       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	inputFocusBg  = color.RGBA{R: 244, G: 249, B: 255, A: 255}
	inputBorder   = color.RGBA{R: 170, G: 184, B: 202, A: 255}
	inputFocus    = color.RGBA{R: 77, G: 134, B: 205, A: 255}
	inputCaret    = color.RGBA{R: 21, G: 84, B: 164, A: 255}
	buttonPrimary = color.RGBA{R: 217, G: 233, B: 250, A: 255}
	buttonPlain   = color.RGBA{R: 236, G: 241, B: 248, A: 255}
	dimOverlay    = color.RGBA{R: 0, G: 0, B: 0, A: 90}
)

// editInput applies this frame's keystrokes to buf. It reports whether any
// key was consumed and whether Enter was pressed.
func editInput(buf *string, ctrl, allowPaste bool) (consumed, enter bool) {
	if keyRepeat(ebiten.KeyBackspace) {
		if len(*buf) > 0 {
			_, size := utf8.DecodeLastRuneInString(*buf)
			if size <= 0 {
				size = 1
			}
			*buf = (*buf)[:len(*buf)-size]
		}
		consumed = true
	}
	if allowPaste && ctrl && inpututil.IsKeyJustPressed(ebiten.KeyV) {
		if clip, err := clipboard.ReadAll(); err == nil && clip != "" {
			clip = strings.ReplaceAll(strings.ReplaceAll(clip, "\r", ""), "\n", " ")
			*buf = truncateRunes(*buf+clip, maxInputLen)
		}
		consumed = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyKPEnter) {
		consumed, enter = true, true
	}
	if ctrl {
		return consumed, enter
	}
	for _, r := range ebiten.AppendInputChars(nil) {
		if r < 0x20 || r == 0x7F || !utf8.ValidRune(r) {
			continue
		}
		*buf = truncateRunes(*buf+string(r), maxInputLen)
		consumed = true
	}
	return consumed, enter
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func (a *App) handleOverlayTextInput(ctrl bool) bool {
	if a.showPasswordPrompt {
		consumed, enter := editInput(&a.passwordPromptInput, ctrl, true)
		if enter {
			a.submitPasswordPrompt()
		}
		return consumed
	}

	if a.encryptionInputActive {
		consumed, enter := editInput(&a.encryptionPassword, ctrl, true)
		if enter {
			a.encryptionInputActive = false
		}
		if consumed {
			a.applyStorage()
		}
		return consumed
	}

	switch a.edit.kind {
	case editNone:
		return false
	case editFind:
		if inpututil.IsKeyJustPressed(ebiten.KeyC) && ebiten.IsKeyPressed(ebiten.KeyAlt) {
			a.findCase = !a.findCase
			a.refreshFind()
			return true
		}
		before := a.edit.buffer
		consumed, enter := editInput(&a.edit.buffer, ctrl, true)
		if a.edit.buffer != before {
			a.findQuery = a.edit.buffer
			a.findIndex = 0
			a.refreshFind()
		}
		if enter {
			a.stepFind(!ebiten.IsKeyPressed(ebiten.KeyShift))
		}
		return consumed
	default:
		consumed, enter := editInput(&a.edit.buffer, ctrl, true)
		if enter {
			a.commitLineEdit()
		}
		return consumed
	}
}

// editRect is the input box drawn after the last toolbar button.
func (a *App) editRect() rect {
	l := a.layout
	x := 6
	if n := len(a.toolbar); n > 0 {
		last := a.toolbar[n-1].r
		x = last.x + last.w + 10
	}
	w, _ := a.currentViewportSize()
	return rect{x: x, y: l.ToolY + 3, w: max(0, w-x-8), h: l.ToolH - 7}
}

func (a *App) editLabel() string {
	switch a.edit.kind {
	case editTabTitle:
		return "Tab name"
	case editProjectName:
		return "Project"
	case editFind:
		if a.findCase {
			return "Find (Aa)"
		}
		return "Find"
	}
	return ""
}

func (a *App) openPasswordPrompt(path string) {
	a.showPasswordPrompt = true
	a.passwordPromptPath = path
	a.passwordPromptInput = ""
	a.passwordPromptError = ""
}

func (a *App) handlePasswordPromptClick(x, y int) {
	if !a.passwordPromptRect.contains(x, y) || a.passwordCancelRect.contains(x, y) {
		a.closePasswordPrompt()
		return
	}
	if a.passwordSubmitRect.contains(x, y) {
		a.submitPasswordPrompt()
	}
}

func (a *App) submitPasswordPrompt() {
	path := filepath.Clean(a.passwordPromptPath)
	save, load := a.sess.StorageOptions()
	a.sess.SetStorageOptions(save, rtedoc.LoadOptions{Password: a.passwordPromptInput})

	var (
		report session.LoadReport
		err    error
	)
	a.stashColors()
	// A project open already asked about unsaved work on the first try.
	if rtedoc.KindForPath(path) == rtedoc.KindProject {
		report, err = a.sess.LoadProject(path)
	} else {
		report, err = a.sess.Open(path, a.prompt)
	}
	if err == nil {
		a.encryptionPassword = a.passwordPromptInput
		a.closePasswordPrompt()
		a.afterOpen(path, report)
		return
	}

	a.sess.SetStorageOptions(save, load)
	if errors.Is(err, rtedoc.ErrPasswordRequired) || errors.Is(err, rtedoc.ErrInvalidPassword) {
		a.passwordPromptError = "Incorrect password. Try again."
		return
	}
	a.closePasswordPrompt()
	a.reportError("Open", err)
}

func (a *App) closePasswordPrompt() {
	a.showPasswordPrompt = false
	a.passwordPromptPath = ""
	a.passwordPromptInput = ""
	a.passwordPromptError = ""
}

func (a *App) layoutPasswordPromptBounds(w, h int) {
	pw := min(420, w-40)
	ph := min(200, h-40)
	px := (w - pw) / 2
	py := (h - ph) / 2
	a.passwordPromptRect = rect{x: px, y: py, w: pw, h: ph}
	a.passwordInputRect = rect{x: px + 20, y: py + 80, w: pw - 40, h: 30}
	a.passwordSubmitRect = rect{x: px + pw - 186, y: py + ph - 46, w: 80, h: 30}
	a.passwordCancelRect = rect{x: px + pw - 96, y: py + ph - 46, w: 80, h: 30}
}

func (a *App) drawPasswordPrompt(screen *ebiten.Image, w, h int) {
	if !a.showPasswordPrompt {
		return
	}
	a.layoutPasswordPromptBounds(w, h)
	drawFilledRectOnScreen(screen, 0, 0, w, h, dimOverlay)

	r := a.passwordPromptRect
	drawFilledRectOnScreen(screen, r.x, r.y, r.w, r.h, panelBg)
	strokeRectOnScreen(screen, r, panelBorder)

	titleFace := a.fonts.Face(12, ui.FontStyle{Bold: true})
	labelFace := a.fonts.Face(10, ui.FontStyle{})
	text.Draw(screen, "Password Required", titleFace, r.x+20, r.y+30, panelTitle)
	text.Draw(screen, "File: "+filepath.Base(a.passwordPromptPath), labelFace, r.x+20, r.y+52, panelText)
	text.Draw(screen, "Enter the password for this encrypted file:", labelFace, r.x+20, r.y+70, panelText)

	masked := strings.Repeat("*", utf8.RuneCountInString(a.passwordPromptInput))
	a.drawInputBox(screen, a.passwordInputRect, masked, labelFace, true)

	if a.passwordPromptError != "" {
		text.Draw(screen, a.passwordPromptError, labelFace, r.x+20, a.passwordInputRect.y+a.passwordInputRect.h+20, panelError)
	}

	drawFilledRectOnScreen(screen, a.passwordSubmitRect.x, a.passwordSubmitRect.y, a.passwordSubmitRect.w, a.passwordSubmitRect.h, buttonPrimary)
	drawFilledRectOnScreen(screen, a.passwordCancelRect.x, a.passwordCancelRect.y, a.passwordCancelRect.w, a.passwordCancelRect.h, buttonPlain)
	text.Draw(screen, "Open", labelFace, a.passwordSubmitRect.x+24, a.passwordSubmitRect.y+20, panelText)
	text.Draw(screen, "Cancel", labelFace, a.passwordCancelRect.x+20, a.passwordCancelRect.y+20, panelText)
}

func (a *App) handleEncryptionClick(x, y int) bool {
	if !a.showEncryption {
		return false
	}
	// Modal: every click is consumed while the panel is open.
	switch {
	case !a.encryptionPanel.contains(x, y), a.encryptionCloseRect.contains(x, y):
		a.showEncryption = false
		a.encryptionInputActive = false
	case a.encryptionCompRect.contains(x, y):
		a.compressionEnabled = !a.compressionEnabled
		if a.compressionEnabled {
			a.status = "Compression enabled"
		} else {
			a.status = "Compression disabled"
		}
	case a.encryptionEncRect.contains(x, y):
		a.encryptionEnabled = !a.encryptionEnabled
		a.encryptionInputActive = a.encryptionEnabled
		if a.encryptionEnabled {
			a.status = "AES-256 encryption enabled"
		} else {
			a.status = "AES-256 encryption disabled"
		}
	case a.encryptionPassRect.contains(x, y):
		if a.encryptionEnabled {
			a.encryptionInputActive = true
		} else {
			a.status = "Enable AES-256 first"
		}
	default:
		a.encryptionInputActive = false
	}
	a.applyStorage()
	return true
}

func (a *App) layoutEncryptionPanelBounds(w, h int) {
	panelW := min(460, w-40)
	panelH := min(230, h-40)
	px := (w - panelW) / 2
	py := (h - panelH) / 2
	a.encryptionPanel = rect{x: px, y: py, w: panelW, h: panelH}
	a.encryptionCloseRect = rect{x: px + panelW - 88, y: py + 10, w: 72, h: 26}
	a.encryptionCompRect = rect{x: px + 20, y: py + 54, w: 18, h: 18}
	a.encryptionEncRect = rect{x: px + 20, y: py + 86, w: 18, h: 18}
	a.encryptionPassRect = rect{x: px + 20, y: py + 130, w: panelW - 40, h: 30}
}

func (a *App) drawEncryptionPanel(screen *ebiten.Image, w, h int) {
	if !a.showEncryption {
		return
	}
	a.layoutEncryptionPanelBounds(w, h)
	p := a.encryptionPanel
	drawFilledRectOnScreen(screen, p.x, p.y, p.w, p.h, panelBg)
	strokeRectOnScreen(screen, p, panelBorder)
	drawFilledRectOnScreen(screen, a.encryptionCloseRect.x, a.encryptionCloseRect.y, a.encryptionCloseRect.w, a.encryptionCloseRect.h, buttonPlain)
	strokeRectOnScreen(screen, a.encryptionCloseRect, inputBorder)

	drawCheckbox(screen, a.encryptionCompRect, a.compressionEnabled)
	drawCheckbox(screen, a.encryptionEncRect, a.encryptionEnabled)

	titleFace := a.fonts.Face(12, ui.FontStyle{Bold: true})
	labelFace := a.fonts.Face(10, ui.FontStyle{})
	text.Draw(screen, "File Security", titleFace, p.x+16, p.y+24, panelTitle)
	text.Draw(screen, "Close", labelFace, a.encryptionCloseRect.x+18, a.encryptionCloseRect.y+a.encryptionCloseRect.h-8, panelText)
	text.Draw(screen, "Compression (zlib)", labelFace, a.encryptionCompRect.x+28, a.encryptionCompRect.y+14, panelText)
	text.Draw(screen, "AES-256 password protection", labelFace, a.encryptionEncRect.x+28, a.encryptionEncRect.y+14, panelText)
	text.Draw(screen, "Password", labelFace, a.encryptionPassRect.x, a.encryptionPassRect.y-6, panelText)

	masked := strings.Repeat("*", utf8.RuneCountInString(a.encryptionPassword))
	a.drawInputBox(screen, a.encryptionPassRect, masked, labelFace, a.encryptionInputActive)

	hint := "Applies to .rted and .rtep saves and to the next open."
	text.Draw(screen, hint, labelFace, p.x+16, p.y+p.h-12, panelText)
}

func (a *App) handleFontClick(x, y int) bool {
	if !a.showFont {
		return false
	}
	style := a.fontStyle
	switch {
	case !a.fontPanel.contains(x, y), a.fontCloseRect.contains(x, y):
		a.showFont = false
		return true
	case a.fontMonoRect.contains(x, y):
		style.Mono = !style.Mono
	case a.fontBoldRect.contains(x, y):
		style.Bold = !style.Bold
	case a.fontItalicRect.contains(x, y):
		style.Italic = !style.Italic
	case a.fontDownRect.contains(x, y):
		a.setFontSize(a.fontSize - 1)
	case a.fontUpRect.contains(x, y):
		a.setFontSize(a.fontSize + 1)
	}
	if style != a.fontStyle {
		a.fontStyle = style
		a.status = "Font " + style.Name()
	}
	return true
}

func (a *App) layoutFontPanelBounds(w, h int) {
	panelW := min(420, w-40)
	panelH := min(250, h-40)
	px := (w - panelW) / 2
	py := (h - panelH) / 2
	a.fontPanel = rect{x: px, y: py, w: panelW, h: panelH}
	a.fontCloseRect = rect{x: px + panelW - 88, y: py + 10, w: 72, h: 26}
	a.fontMonoRect = rect{x: px + 20, y: py + 54, w: 18, h: 18}
	a.fontBoldRect = rect{x: px + 150, y: py + 54, w: 18, h: 18}
	a.fontItalicRect = rect{x: px + 260, y: py + 54, w: 18, h: 18}
	a.fontDownRect = rect{x: px + 110, y: py + 86, w: 26, h: 22}
	a.fontUpRect = rect{x: px + 140, y: py + 86, w: 26, h: 22}
}

func (a *App) drawFontPanel(screen *ebiten.Image, w, h int) {
	if !a.showFont {
		return
	}
	a.layoutFontPanelBounds(w, h)
	p := a.fontPanel
	drawFilledRectOnScreen(screen, p.x, p.y, p.w, p.h, panelBg)
	strokeRectOnScreen(screen, p, panelBorder)
	for _, b := range []rect{a.fontCloseRect, a.fontDownRect, a.fontUpRect} {
		drawFilledRectOnScreen(screen, b.x, b.y, b.w, b.h, buttonPlain)
		strokeRectOnScreen(screen, b, inputBorder)
	}
	drawCheckbox(screen, a.fontMonoRect, a.fontStyle.Mono)
	drawCheckbox(screen, a.fontBoldRect, a.fontStyle.Bold)
	drawCheckbox(screen, a.fontItalicRect, a.fontStyle.Italic)

	titleFace := a.fonts.Face(12, ui.FontStyle{Bold: true})
	labelFace := a.fonts.Face(10, ui.FontStyle{})
	text.Draw(screen, "Font", titleFace, p.x+16, p.y+24, panelTitle)
	text.Draw(screen, "Close", labelFace, a.fontCloseRect.x+18, a.fontCloseRect.y+a.fontCloseRect.h-8, panelText)
	text.Draw(screen, "Monospace", labelFace, a.fontMonoRect.x+28, a.fontMonoRect.y+14, panelText)
	text.Draw(screen, "Bold", labelFace, a.fontBoldRect.x+28, a.fontBoldRect.y+14, panelText)
	text.Draw(screen, "Italic", labelFace, a.fontItalicRect.x+28, a.fontItalicRect.y+14, panelText)
	text.Draw(screen, fmt.Sprintf("Size %.0fpt", a.fontSize), labelFace, p.x+20, a.fontDownRect.y+15, panelText)
	text.Draw(screen, "-", labelFace, a.fontDownRect.x+10, a.fontDownRect.y+15, panelText)
	text.Draw(screen, "+", labelFace, a.fontUpRect.x+9, a.fontUpRect.y+15, panelText)

	preview := rect{x: p.x + 20, y: p.y + 122, w: p.w - 40, h: p.h - 162}
	drawFilledRectOnScreen(screen, preview.x, preview.y, preview.w, preview.h, a.theme.Background)
	strokeRectOnScreen(screen, preview, inputBorder)
	face := a.textFace()
	ascent, lh := ui.LineHeight(face)
	y := preview.y + 6 + ascent
	for _, line := range []string{"AaBbCcDdEe", "123456789"} {
		if y > preview.y+preview.h {
			break
		}
		text.Draw(screen, fitText(face, line, preview.w-12), face, preview.x+6, y, a.theme.Foreground)
		y += lh
	}
	text.Draw(screen, a.fontStyle.Name(), labelFace, p.x+16, p.y+p.h-12, panelText)
}

func (a *App) layoutHelpDialogBounds(w, h int) {
	panelW := int(float64(w) * 0.8)
	panelH := int(float64(h) * 0.8)
	px := (w - panelW) / 2
	py := (h - panelH) / 2
	a.helpRect = rect{x: px, y: py, w: panelW, h: panelH}
	a.helpClose = rect{x: px + panelW - 94, y: py + 12, w: 78, h: 30}
}

var helpLines = []string{
	"Ctrl+N / Ctrl+T: New tab | Ctrl+W: Close tab | Ctrl+Tab: Next tab",
	"Ctrl+O: Open | Ctrl+S: Save | Ctrl+Shift+S: Save As",
	"Ctrl+Shift+P: Save project | Ctrl+Shift+R: Project name",
	"Ctrl+R or F2 or double-click: Rename tab | Right-click tab: Colour",
	"Ctrl+I: Insert image | Ctrl+Shift+I: Floating image | Del: Remove",
	"Ctrl+Shift+V: Paste image | Drag images to move them",
	"Ctrl+F: Find | Enter/F3: Next | Shift+F3: Previous | Alt+C: Case",
	"Ctrl+Z / Ctrl+Y: Undo / Redo | Ctrl+L: Line numbers",
	"Ctrl+K: Text colour (selection only when text is selected)",
	"Ctrl+Shift+F: Font family, style and size | Ctrl+= / Ctrl+-: Size",
	"Ctrl+Shift+T: Always on top | Ctrl+B: Borderless | Ctrl+E: Security",
	"Ctrl+Q: Exit | F1 or Esc closes this dialog",
}

func (a *App) drawHelpOverlay(screen *ebiten.Image) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	a.layoutHelpDialogBounds(w, h)
	r := a.helpRect
	drawFilledRectOnScreen(screen, 0, 0, w, h, dimOverlay)
	drawFilledRectOnScreen(screen, r.x, r.y, r.w, r.h, panelBg)
	strokeRectOnScreen(screen, r, panelBorder)

	labelFace := a.fonts.Face(10, ui.FontStyle{})
	drawFilledRectOnScreen(screen, a.helpClose.x, a.helpClose.y, a.helpClose.w, a.helpClose.h, buttonPlain)
	text.Draw(screen, "Close", labelFace, a.helpClose.x+22, a.helpClose.y+20, panelText)
	text.Draw(screen, "Help", a.fonts.Face(12, ui.FontStyle{Bold: true}), r.x+22, r.y+30, panelTitle)

	y := r.y + 62
	for _, l := range helpLines {
		text.Draw(screen, l, labelFace, r.x+20, y, panelText)
		y += 22
	}
}

func (a *App) drawInputBox(screen *ebiten.Image, r rect, value string, face font.Face, focused bool) {
	bg, border := inputBg, inputBorder
	if focused {
		bg, border = inputFocusBg, inputFocus
	}
	drawFilledRectOnScreen(screen, r.x, r.y, r.w, r.h, bg)
	strokeRectOnScreen(screen, r, border)
	_, lh := ui.LineHeight(face)
	baseline := r.y + (r.h+lh)/2 - 3
	text.Draw(screen, value, face, r.x+8, baseline, panelText)
	if focused && (a.frameTick/30)%2 == 0 {
		caretX := r.x + 8 + ui.MeasureString(face, value)
		ebitenutil.DrawLine(screen, float64(caretX), float64(r.y+6), float64(caretX), float64(r.y+r.h-6), inputCaret)
	}
}

func drawCheckbox(screen *ebiten.Image, r rect, checked bool) {
	drawFilledRectOnScreen(screen, r.x, r.y, r.w, r.h, inputBg)
	strokeRectOnScreen(screen, r, color.RGBA{R: 130, G: 148, B: 176, A: 255})
	if checked {
		drawFilledRectOnScreen(screen, r.x+4, r.y+4, r.w-8, r.h-8, color.RGBA{R: 46, G: 102, B: 182, A: 255})
	}
}

func drawFilledRectOnScreen(screen *ebiten.Image, x, y, w, h int, c color.RGBA) {
	for yy := y; yy < y+h; yy++ {
		ebitenutil.DrawLine(screen, float64(x), float64(yy), float64(x+w), float64(yy), c)
	}
}

func strokeRectOnScreen(screen *ebiten.Image, r rect, c color.RGBA) {
	x0, y0, x1, y1 := float64(r.x), float64(r.y), float64(r.x+r.w), float64(r.y+r.h)
	ebitenutil.DrawLine(screen, x0, y0, x1, y0, c)
	ebitenutil.DrawLine(screen, x0, y1, x1, y1, c)
	ebitenutil.DrawLine(screen, x0, y0, x0, y1, c)
	ebitenutil.DrawLine(screen, x1, y0, x1, y1, c)
}
