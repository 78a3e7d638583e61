package session

import "topnote/pkg/rtedoc"

// Surface is the live view of the active Document. The Session pushes a
// Document into it on activation and flushes it back before switching away
// or saving.
type Surface interface {
	Content() string
	SetContent(text string)
	Cursor() rtedoc.Position
	// SetCursor reports false when pos does not exist in the content.
	SetCursor(pos rtedoc.Position) bool
	PlaceImage(rec *ImageRecord)
	RemoveImage(id string)
	// ImagePlacement returns the live anchor, which for embedded images may
	// have drifted with text edits.
	ImagePlacement(id string) (Anchor, bool)
	Modified() bool
	SetModified(bool)
	Clear()
}

type Choice int

const (
	ChoiceCancel Choice = iota
	ChoiceSave
	ChoiceDiscard
)

func (c Choice) String() string {
	switch c {
	case ChoiceSave:
		return "save"
	case ChoiceDiscard:
		return "discard"
	default:
		return "cancel"
	}
}

// Prompter asks the user to resolve destructive or ambiguous operations.
type Prompter interface {
	ConfirmUnsaved(name string) Choice
	ConfirmDiscardImages(name string, n int) bool
	SavePath(suggested string) (string, bool)
}
