package app

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
	"golang.org/x/image/font"

	"topnote/internal/editor"
	"topnote/internal/session"
	"topnote/internal/ui"
	"topnote/pkg/rtedoc"
)

const (
	minFontSize = 6
	maxFontSize = 72
)

var toolbarActions = []struct{ id, label string }{
	{"new", "New"},
	{"open", "Open"},
	{"save", "Save"},
	{"save_as", "Save As"},
	{"save_project", "Project"},
	{"close", "Close"},
	{"image", "Image"},
	{"float", "Float"},
	{"find", "Find"},
	{"lines", "Lines"},
	{"color", "Bg"},
	{"text_color", "Text"},
	{"font", "Font"},
	{"font_down", "A-"},
	{"font_up", "A+"},
	{"pin", "Pin"},
	{"frame", "Frame"},
	{"security", "Lock"},
	{"help", "?"},
}

func (a *App) layoutToolbar(face font.Face) {
	a.toolbar = a.toolbar[:0]
	l := a.layout
	x := 6
	y := l.ToolY + 3
	h := l.ToolH - 7
	for _, act := range toolbarActions {
		w := ui.MeasureString(face, act.label) + 12
		a.toolbar = append(a.toolbar, actionButton{
			id:     act.id,
			label:  act.label,
			r:      rect{x: x, y: y, w: w, h: h},
			active: a.actionActive(act.id),
		})
		x += w + 3
	}
}

func (a *App) actionActive(id string) bool {
	switch id {
	case "find":
		return a.edit.kind == editFind
	case "lines":
		return a.lineNumbers
	case "pin":
		return a.onTop
	case "frame":
		return !a.decorated
	case "security":
		return a.encryptionEnabled || a.compressionEnabled
	case "color":
		return a.showSwatches && a.swatchFor == swatchBackground
	case "text_color":
		return a.showSwatches && a.swatchFor == swatchText
	case "font":
		return a.showFont
	}
	return false
}

func (a *App) handleToolbarClick(x, y int) bool {
	for _, btn := range a.toolbar {
		if btn.r.contains(x, y) {
			a.invokeAction(btn.id)
			return true
		}
	}
	if a.edit.kind != editNone && a.editRect().contains(x, y) {
		return true
	}
	return false
}

func (a *App) invokeAction(id string) {
	switch id {
	case "new":
		a.newDocument()
	case "open":
		if path := a.prompt.openPath(); path != "" {
			a.openPath(path)
		}
	case "save":
		a.save()
	case "save_as":
		a.saveAs()
	case "save_project":
		a.saveProject()
	case "close":
		a.closeTab(a.sess.ActiveIndex())
	case "image":
		a.insertImage(session.PlacementEmbedded)
	case "float":
		a.insertImage(session.PlacementFloating)
	case "find":
		if a.edit.kind == editFind {
			a.closeLineEdit()
		} else {
			a.beginLineEdit(editFind, 0, a.findQuery)
		}
	case "lines":
		a.lineNumbers = !a.lineNumbers
		a.relayout(a.currentViewportSize())
	case "color":
		a.toggleSwatches(id, swatchBackground)
	case "text_color":
		a.toggleSwatches(id, swatchText)
	case "font":
		a.showFont = !a.showFont
	case "font_up":
		a.setFontSize(a.fontSize + 1)
	case "font_down":
		a.setFontSize(a.fontSize - 1)
	case "pin":
		a.onTop = !a.onTop
		ebiten.SetWindowFloating(a.onTop)
		if a.onTop {
			a.status = "Always on top"
		} else {
			a.status = "Normal window"
		}
	case "frame":
		a.decorated = !a.decorated
		ebiten.SetWindowDecorated(a.decorated)
		a.relayout(a.currentViewportSize())
	case "security":
		a.showEncryption = !a.showEncryption
		a.encryptionInputActive = a.showEncryption && a.encryptionEnabled
	case "help":
		a.showHelp = !a.showHelp
	case "undo":
		if a.history().Undo(a.state) {
			a.edited()
			a.status = "Undo"
		}
	case "redo":
		if a.history().Redo(a.state) {
			a.edited()
			a.status = "Redo"
		}
	case "rename":
		a.beginLineEdit(editTabTitle, a.sess.ActiveIndex(), a.sess.Active().Title)
	case "project_name":
		a.beginLineEdit(editProjectName, 0, a.sess.ProjectName())
	}
}

func (a *App) newDocument() {
	a.commitLineEdit()
	a.stashColors()
	d := a.sess.CreateDocument("")
	a.documentSwitched()
	a.status = "New tab " + d.Title
}

func (a *App) activateTab(i int) {
	if i == a.sess.ActiveIndex() {
		return
	}
	a.commitLineEdit()
	a.stashColors()
	if err := a.sess.Activate(i); err != nil {
		a.reportError("Switch tab", err)
		return
	}
	a.documentSwitched()
}

func (a *App) closeTab(i int) {
	a.commitLineEdit()
	a.stashColors()
	err := a.sess.CloseDocument(i, a.prompt)
	switch {
	case err == nil:
		a.documentSwitched()
		a.status = "Tab closed"
	case errors.Is(err, session.ErrCannotCloseLastDocument):
		a.status = "The last tab cannot be closed"
	case errors.Is(err, session.ErrUserCancelled):
		a.status = "Close cancelled"
		a.log.Info("close cancelled", zap.Int("tab", i), zap.Error(err))
	default:
		a.reportError("Close", err)
	}
}

func (a *App) openPath(path string) {
	a.stashColors()
	report, err := a.sess.Open(path, a.prompt)
	if err != nil {
		switch {
		case errors.Is(err, rtedoc.ErrPasswordRequired), errors.Is(err, rtedoc.ErrInvalidPassword):
			a.openPasswordPrompt(path)
		case errors.Is(err, session.ErrUserCancelled):
			a.status = "Open cancelled"
		default:
			a.reportError("Open", err)
		}
		return
	}
	a.afterOpen(path, report)
}

func (a *App) afterOpen(path string, report session.LoadReport) {
	if rtedoc.KindForPath(path) == rtedoc.KindProject {
		// Document ids restart with every project.
		a.histories = map[int]*editor.History{}
		a.colorSpans = map[int][]editor.ColorSpan{}
	}
	a.documentSwitched()
	a.history().Reset()
	if info, err := rtedoc.InspectEnvelope(path); err == nil && rtedoc.KindForPath(path) != rtedoc.KindPlain {
		a.applyEnvelopeSettings(info)
	}
	a.status = "Opened " + filepath.Base(path)
	if !report.OK() {
		for _, w := range report.Warnings {
			a.log.Warn("load warning", zap.String("path", path), zap.Error(w))
		}
		a.status += fmt.Sprintf(" (%d image(s) skipped)", len(report.Warnings))
	}
}

func (a *App) applyEnvelopeSettings(info rtedoc.EnvelopeInfo) {
	if info.Wrapped {
		a.compressionEnabled = info.Compressed
		a.encryptionEnabled = info.Encrypted
	} else {
		a.compressionEnabled = false
		a.encryptionEnabled = false
	}
	a.applyStorage()
}

// applyStorage hands the security panel settings to the session.
func (a *App) applyStorage() {
	save, load := a.sess.StorageOptions()
	save.Compression = a.compressionEnabled
	save.Encryption = rtedoc.EncryptionOptions{Enabled: a.encryptionEnabled, Password: a.encryptionPassword}
	if a.encryptionPassword != "" {
		load.Password = a.encryptionPassword
	}
	a.sess.SetStorageOptions(save, load)
}

func (a *App) save() {
	a.commitLineEdit()
	a.afterSave(a.sess.Save(a.prompt))
}

func (a *App) saveAs() {
	a.commitLineEdit()
	d := a.sess.Active()
	suggested := d.BackingPath
	if suggested == "" {
		suggested = d.Title + rtedoc.ExtRich
	}
	path, ok := a.prompt.SavePath(suggested)
	if !ok {
		a.status = "Save cancelled"
		return
	}
	a.afterSave(a.sess.SaveAs(path, a.prompt))
}

func (a *App) saveProject() {
	a.commitLineEdit()
	path := a.sess.ProjectPath()
	if path == "" {
		name := a.sess.ProjectName()
		if name == "" {
			name = "project"
		}
		path = a.prompt.projectPath(name + rtedoc.ExtProject)
		if path == "" {
			a.status = "Save cancelled"
			return
		}
		if !strings.EqualFold(filepath.Ext(path), rtedoc.ExtProject) {
			path += rtedoc.ExtProject
		}
	}
	a.afterSave(a.sess.SaveProject(path))
}

func (a *App) afterSave(err error) {
	switch {
	case err == nil:
		a.status = "Saved"
		if p := a.sess.ProjectPath(); p != "" && a.sess.IsProject() {
			a.status = "Saved " + filepath.Base(p)
		} else if p := a.sess.Active().BackingPath; p != "" {
			a.status = "Saved " + filepath.Base(p)
		}
	case errors.Is(err, session.ErrUserCancelled):
		a.status = "Save cancelled"
	default:
		a.reportError("Save", err)
	}
}

func (a *App) insertImage(placement session.Placement) {
	path := a.prompt.imagePath()
	if path == "" {
		return
	}
	a.beginEdit()
	rec, err := a.sess.InsertImageFile(path, placement, true)
	if err != nil {
		a.reportError("Insert image", err)
		return
	}
	a.selectedImage = rec.ID
	a.status = "Inserted " + rec.Name
	a.edited()
}

func (a *App) removeSelectedImage() {
	id := a.selectedImage
	a.selectedImage = ""
	if err := a.sess.RemoveImage(id); err != nil {
		a.reportError("Remove image", err)
		return
	}
	a.status = "Image removed"
	a.edited()
}

func (a *App) setFontSize(size float64) {
	size = min(max(size, minFontSize), maxFontSize)
	if size == a.fontSize {
		return
	}
	a.fontSize = size
	a.status = fmt.Sprintf("Font size %.0fpt", size)
}

// toggleSwatches opens the colour popup for target under the toolbar button
// id, or closes it when it is already open for target.
func (a *App) toggleSwatches(id string, target int) {
	if a.showSwatches && a.swatchFor == target {
		a.showSwatches = false
		return
	}
	for _, btn := range a.toolbar {
		if btn.id == id {
			a.openSwatches(target, btn.r.x, btn.r.y+btn.r.h)
		}
	}
}

func (a *App) openSwatches(target, x, y int) {
	a.swatchFor = target
	a.showSwatches = true
	const size, gap, cols = 22, 4, 6
	n := len(a.palette) + 1
	rows := (n + cols - 1) / cols
	w := cols*(size+gap) + gap
	h := rows*(size+gap) + gap + 18
	sw, sh := a.currentViewportSize()
	x = max(0, min(x, sw-w))
	y = max(0, min(y, sh-h))
	a.swatchBox = rect{x: x, y: y, w: w, h: h}

	a.swatches = a.swatches[:0]
	for i := 0; i < n; i++ {
		r := rect{
			x: x + gap + (i%cols)*(size+gap),
			y: y + 18 + gap + (i/cols)*(size+gap),
			w: size,
			h: size,
		}
		if i == len(a.palette) {
			a.swatches = append(a.swatches, colorSwatch{reset: true, r: r})
			continue
		}
		a.swatches = append(a.swatches, colorSwatch{value: a.palette[i], r: r})
	}
}

// handleSwatchClick applies a swatch. A click outside the popup closes it
// and is not consumed.
func (a *App) handleSwatchClick(x, y int) bool {
	if !a.swatchBox.contains(x, y) {
		a.showSwatches = false
		return false
	}
	for _, sw := range a.swatches {
		if sw.r.contains(x, y) {
			a.applySwatch(sw)
			a.showSwatches = false
			break
		}
	}
	return true
}

func (a *App) applySwatch(sw colorSwatch) {
	switch a.swatchFor {
	case swatchBackground:
		if sw.reset {
			a.background = nil
		} else {
			c := sw.value
			a.background = &c
		}
		// A new background brings back the contrasting text colour.
		a.foreground = nil
		a.applyTheme()
		a.status = "Background " + rtedoc.FormatColor(a.theme.Background)
		return
	case swatchText:
		a.applyTextColor(sw)
		return
	}
	var c *color.RGBA
	if !sw.reset {
		v := sw.value
		c = &v
	}
	if err := a.sess.SetCustomColor(a.swatchFor, c); err != nil {
		a.reportError("Tab colour", err)
		return
	}
	a.status = "Tab colour changed"
}

// applyTextColor colours the selection when there is one, otherwise all
// text of the window.
func (a *App) applyTextColor(sw colorSwatch) {
	if a.state.HasSelection() {
		a.beginEdit()
		if sw.reset {
			a.state.UncolorSelection()
			a.status = "Selection colour cleared"
		} else {
			a.state.ColorSelection(sw.value)
			a.status = "Selection coloured " + rtedoc.FormatColor(sw.value)
		}
		return
	}
	if sw.reset {
		a.foreground = nil
	} else {
		c := sw.value
		a.foreground = &c
	}
	a.applyTheme()
	a.status = "Text colour " + rtedoc.FormatColor(a.theme.Foreground)
}

func (a *App) beginLineEdit(kind editKind, tab int, initial string) {
	a.commitLineEdit()
	a.edit = lineEdit{kind: kind, tab: tab, buffer: initial}
}

func (a *App) closeLineEdit() {
	if a.edit.kind == editFind {
		a.findQuery = ""
		a.findMatches = nil
		a.findIndex = 0
	}
	a.edit = lineEdit{}
}

// commitLineEdit applies a pending rename. Find keeps its query live and
// needs no commit.
func (a *App) commitLineEdit() {
	switch a.edit.kind {
	case editTabTitle:
		if err := a.sess.Rename(a.edit.tab, a.edit.buffer); err != nil {
			a.reportError("Rename", err)
		}
	case editProjectName:
		a.sess.SetProjectName(a.edit.buffer)
	case editFind:
		return
	}
	a.edit = lineEdit{}
}

func (a *App) refreshFind() {
	if a.findQuery == "" {
		a.findMatches = nil
		a.findIndex = 0
		return
	}
	a.findMatches = a.state.FindAll(a.findQuery, a.findCase)
	if a.findIndex >= len(a.findMatches) {
		a.findIndex = 0
	}
}

func (a *App) stepFind(forward bool) {
	if len(a.findMatches) == 0 {
		if a.findQuery != "" {
			a.status = "No matches"
		}
		return
	}
	n := len(a.findMatches)
	if forward {
		a.findIndex = (a.findIndex + 1) % n
	} else {
		a.findIndex = (a.findIndex + n - 1) % n
	}
	m := a.findMatches[a.findIndex]
	a.state.Select(m.Start, m.End)
	a.ensureCaretVisible()
	a.status = fmt.Sprintf("Match %d of %d", a.findIndex+1, n)
}

func (a *App) reportError(op string, err error) {
	a.status = op + " failed: " + err.Error()
	a.log.Error(strings.ToLower(op)+" failed", zap.Error(err))
	a.prompt.showError(a.status)
}
