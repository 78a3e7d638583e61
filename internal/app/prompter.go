package app

import (
	"errors"
	"path/filepath"

	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"topnote/internal/imagecodec"
	"topnote/internal/session"
)

// dialogPrompter answers session prompts with native message boxes.
type dialogPrompter struct {
	title string
	log   *zap.Logger
}

func (p dialogPrompter) ConfirmUnsaved(name string) session.Choice {
	if dialog.Message("Save changes to %q before closing it?", name).Title(p.title).YesNo() {
		return session.ChoiceSave
	}
	if dialog.Message("Discard the unsaved changes to %q?", name).Title(p.title).YesNo() {
		return session.ChoiceDiscard
	}
	return session.ChoiceCancel
}

func (p dialogPrompter) ConfirmDiscardImages(name string, n int) bool {
	return dialog.Message("%q has %d image(s). A plain text file cannot hold them.\n\nSave the text without images?", name, n).
		Title(p.title).
		YesNo()
}

func (p dialogPrompter) SavePath(suggested string) (string, bool) {
	b := dialog.File().Title("Save " + suggested)
	if dir := filepath.Dir(suggested); dir != "." {
		b = b.SetStartDir(dir)
	}
	path, err := b.SetStartFile(filepath.Base(suggested)).
		Filter("Rich text", "rted").
		Filter("Project", "rtep").
		Filter("Plain text", "txt", "md", "log").
		Save()
	if err != nil {
		if !errors.Is(err, dialog.ErrCancelled) {
			p.log.Warn("save dialog failed", zap.Error(err))
		}
		return "", false
	}
	return path, path != ""
}

// openPath asks for a file to open. Cancelling yields "".
func (p dialogPrompter) openPath() string {
	path, err := dialog.File().
		Title("Open").
		Filter("TopNote files", "rted", "rtep", "txt", "md").
		Filter("Rich text", "rted").
		Filter("Project", "rtep").
		Filter("All files", "*").
		Load()
	if err != nil {
		if !errors.Is(err, dialog.ErrCancelled) {
			p.log.Warn("open dialog failed", zap.Error(err))
		}
		return ""
	}
	return path
}

func (p dialogPrompter) imagePath() string {
	path, err := dialog.File().
		Title("Insert image").
		Filter("Images", imagecodec.Extensions()...).
		Load()
	if err != nil {
		if !errors.Is(err, dialog.ErrCancelled) {
			p.log.Warn("image dialog failed", zap.Error(err))
		}
		return ""
	}
	return path
}

func (p dialogPrompter) projectPath(suggested string) string {
	path, err := dialog.File().
		Title("Save project").
		SetStartFile(suggested).
		Filter("Project", "rtep").
		Save()
	if err != nil {
		if !errors.Is(err, dialog.ErrCancelled) {
			p.log.Warn("project dialog failed", zap.Error(err))
		}
		return ""
	}
	return path
}

func (p dialogPrompter) showError(msg string) {
	dialog.Message("%s", msg).Title(p.title).Error()
}
