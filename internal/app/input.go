package app

import (
	"image"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	imgclip "golang.design/x/clipboard"

	"topnote/internal/editor"
	"topnote/internal/session"
)

const (
	tabCloseWidth   = 18
	doubleClickTick = 20
)

// keyRepeat fires on press and then repeatedly while the key is held.
func keyRepeat(key ebiten.Key) bool {
	d := inpututil.KeyPressDuration(key)
	return d == 1 || (d >= 30 && (d-30)%3 == 0)
}

// handleWindowChrome drives the drawn title bar and resize grip of a
// borderless window. It reports whether the mouse was consumed and whether
// the close box asked to exit.
func (a *App) handleWindowChrome() (consumed, exit bool) {
	l := a.layout
	x, y := ebiten.CursorPosition()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		switch {
		case image.Pt(x, y).In(l.CloseBox):
			return true, true
		case l.InTitleBar(x, y):
			a.windowDrag = true
			a.windowDragX, a.windowDragY = x, y
			return true, false
		case image.Pt(x, y).In(l.Grip):
			a.resizing = true
			a.resizeX, a.resizeY = x, y
			a.resizeW, a.resizeH = ebiten.WindowSize()
			return true, false
		}
	}

	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		a.windowDrag = false
		a.resizing = false
		return false, false
	}
	if a.windowDrag {
		wx, wy := ebiten.WindowPosition()
		ebiten.SetWindowPosition(wx+x-a.windowDragX, wy+y-a.windowDragY)
		return true, false
	}
	if a.resizing {
		ebiten.SetWindowSize(max(320, a.resizeW+x-a.resizeX), max(200, a.resizeH+y-a.resizeY))
		return true, false
	}
	return false, false
}

func (a *App) handleScroll(shift bool) {
	wheelX, wheelY := ebiten.Wheel()
	if shift && wheelY != 0 {
		a.scrollX -= wheelY * 48
	} else if wheelY != 0 {
		a.scrollY -= wheelY * 42
	}
	if wheelX != 0 {
		a.scrollX -= wheelX * 48
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPageDown) {
		a.scrollY += float64(a.layout.TextH) * 0.8
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPageUp) {
		a.scrollY -= float64(a.layout.TextH) * 0.8
	}
}

func (a *App) handleMouse(shift bool) {
	l := a.layout
	x, y := ebiten.CursorPosition()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if a.showSwatches {
			if a.handleSwatchClick(x, y) {
				return
			}
		}
		if a.handleToolbarClick(x, y) {
			return
		}
		if i := l.TabAt(x, y, a.sess.Len()); i >= 0 {
			a.handleTabClick(i, x)
			return
		}
		if !l.InText(x, y) {
			return
		}
		if a.edit.kind == editTabTitle || a.edit.kind == editProjectName {
			a.commitLineEdit()
		}
		if p, ok := a.imageAt(x, y); ok {
			a.selectedImage = p.id
			a.state.ClearSelection()
			if p.draggable {
				a.dragImage = p.id
				a.dragOffX, a.dragOffY = x-p.r.Min.X, y-p.r.Min.Y
				a.dragMoved = false
			}
			return
		}
		a.selectedImage = ""
		loc := a.hitTestPosition(x, y)
		if shift {
			a.state.EnsureSelectionAnchor()
		} else {
			a.state.ClearSelection()
			a.state.EnsureSelectionAnchor()
		}
		a.state.SetCaret(loc.Line, loc.Col)
		a.state.UpdateSelectionFromCaret()
		a.selecting = true
		return
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		if i := l.TabAt(x, y, a.sess.Len()); i >= 0 {
			a.openSwatches(i, x, y)
		}
		return
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonMiddle) {
		if i := l.TabAt(x, y, a.sess.Len()); i >= 0 {
			a.closeTab(i)
		}
		return
	}

	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		switch {
		case a.dragImage != "":
			a.dragSelectedImage(x, y)
		case a.selecting:
			loc := a.hitTestPosition(x, y)
			a.state.SetCaret(loc.Line, loc.Col)
			a.state.UpdateSelectionFromCaret()
			a.ensureCaretVisible()
		}
		return
	}

	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		if a.dragImage != "" && a.dragMoved {
			a.edited()
			a.status = "Image moved"
		}
		if !a.state.HasSelection() {
			a.state.ClearSelection()
		}
		a.dragImage = ""
		a.selecting = false
	}
}

func (a *App) dragSelectedImage(x, y int) {
	l := a.layout
	var p *editor.Placed
	for _, cand := range a.state.Images() {
		if cand.ID == a.dragImage {
			p = cand
			break
		}
	}
	if p == nil {
		a.dragImage = ""
		return
	}

	if p.Placement == session.PlacementFloating {
		docX := max(0, x-a.dragOffX-l.TextX+int(a.scrollX))
		docY := max(0, y-a.dragOffY-l.TextY+int(a.scrollY))
		if docX == p.X && docY == p.Y {
			return
		}
		a.markImageDrag()
		a.state.DragImage(p.ID, docX, docY, editor.Loc{})
		return
	}

	loc := a.hitTestPosition(x, y)
	if loc == p.At {
		return
	}
	a.markImageDrag()
	a.state.DragImage(p.ID, 0, 0, loc)
}

func (a *App) markImageDrag() {
	if !a.dragMoved {
		a.beginEdit()
		a.dragMoved = true
	}
}

func (a *App) handleTabClick(i, x int) {
	r := a.layout.TabRect(i)
	if a.sess.Len() > 1 && x >= r.Max.X-tabCloseWidth {
		a.closeTab(i)
		return
	}
	if i == a.lastTabClick && a.frameTick-a.lastTabTick < doubleClickTick {
		a.lastTabClick = -1
		a.activateTab(i)
		a.beginLineEdit(editTabTitle, i, a.sess.Active().Title)
		return
	}
	a.lastTabClick, a.lastTabTick = i, a.frameTick
	a.activateTab(i)
}

func (a *App) handleShortcuts(ctrl, shift bool) {
	if !ctrl {
		if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
			a.stepFind(!shift)
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
			a.invokeAction("rename")
		}
		return
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyZ) && shift, inpututil.IsKeyJustPressed(ebiten.KeyY):
		a.invokeAction("redo")
	case inpututil.IsKeyJustPressed(ebiten.KeyZ):
		a.invokeAction("undo")
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		a.invokeAction("new")
	case inpututil.IsKeyJustPressed(ebiten.KeyT):
		if shift {
			a.invokeAction("pin")
		} else {
			a.invokeAction("new")
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyO):
		a.invokeAction("open")
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		if shift {
			a.invokeAction("save_as")
		} else {
			a.invokeAction("save")
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyP) && shift:
		a.invokeAction("save_project")
	case inpututil.IsKeyJustPressed(ebiten.KeyW):
		a.invokeAction("close")
	case inpututil.IsKeyJustPressed(ebiten.KeyF):
		if shift {
			a.invokeAction("font")
		} else {
			a.invokeAction("find")
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyK):
		a.invokeAction("text_color")
	case inpututil.IsKeyJustPressed(ebiten.KeyG):
		a.stepFind(!shift)
	case inpututil.IsKeyJustPressed(ebiten.KeyL):
		a.invokeAction("lines")
	case inpututil.IsKeyJustPressed(ebiten.KeyE):
		a.invokeAction("security")
	case inpututil.IsKeyJustPressed(ebiten.KeyB):
		a.invokeAction("frame")
	case inpututil.IsKeyJustPressed(ebiten.KeyI):
		if shift {
			a.invokeAction("float")
		} else {
			a.invokeAction("image")
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		if shift {
			a.invokeAction("project_name")
		} else {
			a.invokeAction("rename")
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyKPAdd):
		a.invokeAction("font_up")
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract):
		a.invokeAction("font_down")
	case inpututil.IsKeyJustPressed(ebiten.KeyTab):
		n := a.sess.Len()
		step := 1
		if shift {
			step = n - 1
		}
		a.activateTab((a.sess.ActiveIndex() + step) % n)
	}
}

func (a *App) handleEditing(ctrl, shift bool) {
	if a.edit.kind != editNone {
		return
	}

	if ctrl {
		switch {
		case inpututil.IsKeyJustPressed(ebiten.KeyA):
			a.state.SelectAll()
		case inpututil.IsKeyJustPressed(ebiten.KeyC):
			a.copySelection()
		case inpututil.IsKeyJustPressed(ebiten.KeyX):
			a.cutSelection()
		case inpututil.IsKeyJustPressed(ebiten.KeyV):
			if shift {
				a.pasteImage()
			} else {
				a.pasteText()
			}
		case keyRepeat(ebiten.KeyBackspace):
			a.mutate(a.state.DeleteWordBackward)
		case keyRepeat(ebiten.KeyDelete):
			a.mutate(a.state.DeleteWordForward)
		}
	}

	moveWithSelection := func(move func()) {
		if shift {
			a.state.EnsureSelectionAnchor()
		} else {
			a.state.ClearSelection()
		}
		move()
		if shift {
			a.state.UpdateSelectionFromCaret()
		}
		a.ensureCaretVisible()
	}

	if keyRepeat(ebiten.KeyArrowUp) {
		moveWithSelection(a.state.MoveCaretUp)
	}
	if keyRepeat(ebiten.KeyArrowDown) {
		moveWithSelection(a.state.MoveCaretDown)
	}
	if keyRepeat(ebiten.KeyArrowLeft) {
		if ctrl {
			moveWithSelection(a.state.MoveCaretWordLeft)
		} else {
			moveWithSelection(a.state.MoveCaretLeft)
		}
	}
	if keyRepeat(ebiten.KeyArrowRight) {
		if ctrl {
			moveWithSelection(a.state.MoveCaretWordRight)
		} else {
			moveWithSelection(a.state.MoveCaretRight)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyHome) {
		if ctrl {
			moveWithSelection(func() { a.state.SetCaret(0, 0) })
		} else {
			moveWithSelection(a.state.MoveCaretToLineStart)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnd) {
		if ctrl {
			moveWithSelection(func() {
				last := a.state.LineCount() - 1
				a.state.SetCaret(last, utf8.RuneCountInString(a.state.Line(last)))
			})
		} else {
			moveWithSelection(a.state.MoveCaretToLineEnd)
		}
	}

	if ctrl {
		return
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyKPEnter) {
		a.mutate(a.state.SplitLineAtCaret)
	}
	if keyRepeat(ebiten.KeyBackspace) {
		a.mutate(a.state.Backspace)
	}
	if keyRepeat(ebiten.KeyDelete) {
		if a.selectedImage != "" {
			a.removeSelectedImage()
		} else {
			a.mutate(a.state.DeleteForward)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		a.insertText("    ")
	}

	for _, r := range ebiten.AppendInputChars(nil) {
		if r < 0x20 || r == 0x7F || !utf8.ValidRune(r) {
			continue
		}
		a.insertText(string(r))
	}
}

// mutate runs one text edit with an undo point.
func (a *App) mutate(edit func()) {
	a.beginEdit()
	edit()
	a.edited()
}

func (a *App) insertText(s string) {
	a.beginEdit()
	if err := a.state.InsertTextAtCaret(s); err != nil {
		a.status = "Insert failed: " + err.Error()
		return
	}
	a.edited()
}

func (a *App) copySelection() {
	if !a.state.HasSelection() {
		return
	}
	if err := clipboard.WriteAll(a.state.SelectedText()); err != nil {
		a.status = "Copy failed: " + err.Error()
	}
}

func (a *App) cutSelection() {
	if !a.state.HasSelection() {
		return
	}
	if err := clipboard.WriteAll(a.state.SelectedText()); err != nil {
		a.status = "Cut failed: " + err.Error()
		return
	}
	a.mutate(func() { a.state.DeleteSelection() })
}

func (a *App) pasteText() {
	paste, err := clipboard.ReadAll()
	if err != nil {
		a.status = "Paste failed: " + err.Error()
		return
	}
	if paste != "" {
		a.insertText(paste)
	}
}

// pasteImage embeds a clipboard image at the caret.
func (a *App) pasteImage() {
	if !a.imageClipboard {
		a.status = "Image clipboard is not available"
		return
	}
	data := imgclip.Read(imgclip.FmtImage)
	if len(data) == 0 {
		a.status = "Clipboard holds no image"
		return
	}
	a.beginEdit()
	rec, err := a.sess.InsertImageData(data, "clipboard.png", session.PlacementEmbedded, true)
	if err != nil {
		a.reportError("Paste image", err)
		return
	}
	a.selectedImage = rec.ID
	a.status = "Pasted image"
	a.edited()
}
