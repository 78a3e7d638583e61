package editor

import (
	"image"
	"image/color"
	"testing"

	"topnote/internal/session"
	"topnote/pkg/rtedoc"
)

func stateWith(text string) *State {
	s := NewState()
	s.SetContent(text)
	return s
}

func TestSplitLineAtCaret(t *testing.T) {
	s := stateWith("hello world")
	s.SetCaret(0, 5)
	s.SplitLineAtCaret()

	if s.LineCount() != 2 {
		t.Fatalf("expected 2 lines, got %d", s.LineCount())
	}
	if got := s.Line(0); got != "hello" {
		t.Fatalf("unexpected first line: %q", got)
	}
	if got := s.Line(1); got != " world" {
		t.Fatalf("unexpected second line: %q", got)
	}
	if s.Caret() != (Loc{Line: 1, Col: 0}) {
		t.Fatalf("unexpected caret %+v", s.Caret())
	}
	if !s.Modified() {
		t.Fatalf("expected edit to set modified")
	}
}

func TestBackspaceMergesWithPreviousLine(t *testing.T) {
	s := stateWith("a\nb")
	s.SetCaret(1, 0)
	s.Backspace()

	if s.LineCount() != 1 {
		t.Fatalf("expected 1 line, got %d", s.LineCount())
	}
	if got := s.Content(); got != "ab" {
		t.Fatalf("unexpected merged text: %q", got)
	}
	if s.Caret() != (Loc{Line: 0, Col: 1}) {
		t.Fatalf("unexpected caret %+v", s.Caret())
	}
}

func TestInsertAndDelete(t *testing.T) {
	s := stateWith("abcd")
	s.SetCaret(0, 2)
	if err := s.InsertTextAtCaret("X"); err != nil {
		t.Fatal(err)
	}
	if got := s.Content(); got != "abXcd" {
		t.Fatalf("unexpected insert result: %q", got)
	}
	s.DeleteForward()
	if got := s.Content(); got != "abXd" {
		t.Fatalf("unexpected delete result: %q", got)
	}
}

func TestInsertCountsRunesNotBytes(t *testing.T) {
	s := stateWith("héllo")
	s.SetCaret(0, 2)
	if err := s.InsertTextAtCaret("ü"); err != nil {
		t.Fatal(err)
	}
	if got := s.Content(); got != "héüllo" {
		t.Fatalf("unexpected text: %q", got)
	}
	if got := s.Cursor(); got != (rtedoc.Position{Line: 1, Col: 3}) {
		t.Fatalf("unexpected cursor %v", got)
	}
}

func TestSelectionDeleteAcrossLines(t *testing.T) {
	s := stateWith("alpha\nbeta")
	s.SetCaret(0, 2)
	s.EnsureSelectionAnchor()
	s.SetCaret(1, 2)
	s.UpdateSelectionFromCaret()

	if got := s.SelectedText(); got != "pha\nbe" {
		t.Fatalf("unexpected selection: %q", got)
	}
	if !s.DeleteSelection() {
		t.Fatalf("expected selection delete")
	}
	if s.LineCount() != 1 {
		t.Fatalf("expected 1 line, got %d", s.LineCount())
	}
	if got := s.Content(); got != "alta" {
		t.Fatalf("unexpected merged text: %q", got)
	}
}

func TestInsertMultilineCreatesLines(t *testing.T) {
	s := stateWith("abc")
	s.SetCaret(0, 1)
	if err := s.InsertTextAtCaret("X\r\nY"); err != nil {
		t.Fatal(err)
	}
	if s.LineCount() != 2 {
		t.Fatalf("expected 2 lines, got %d", s.LineCount())
	}
	if s.Line(0) != "aX" || s.Line(1) != "Ybc" {
		t.Fatalf("unexpected lines: %q", s.Lines())
	}
	if s.Caret() != (Loc{Line: 1, Col: 1}) {
		t.Fatalf("unexpected caret %+v", s.Caret())
	}
}

func TestInsertReplacesSelection(t *testing.T) {
	s := stateWith("hello world")
	s.Select(Loc{Line: 0, Col: 6}, Loc{Line: 0, Col: 11})
	if err := s.InsertTextAtCaret("there"); err != nil {
		t.Fatal(err)
	}
	if got := s.Content(); got != "hello there" {
		t.Fatalf("unexpected text: %q", got)
	}
	if s.HasSelection() {
		t.Fatalf("selection should be cleared")
	}
}

func TestInsertRejectsInvalidUTF8(t *testing.T) {
	s := stateWith("x")
	if err := s.InsertTextAtCaret(string([]byte{0xff})); err == nil {
		t.Fatalf("expected error")
	}
}

func TestWordMovement(t *testing.T) {
	s := stateWith("hello brave world")
	s.MoveCaretToLineEnd()
	s.MoveCaretWordLeft()
	if s.Caret().Col != len("hello brave ") {
		t.Fatalf("unexpected first word-left caret: %d", s.Caret().Col)
	}
	s.MoveCaretWordLeft()
	if s.Caret().Col != len("hello ") {
		t.Fatalf("unexpected second word-left caret: %d", s.Caret().Col)
	}
	s.MoveCaretWordRight()
	if s.Caret().Col != len("hello brave") {
		t.Fatalf("unexpected word-right caret: %d", s.Caret().Col)
	}
}

func TestDeleteWords(t *testing.T) {
	s := stateWith("one two three")
	s.SetCaret(0, 7)
	s.DeleteWordBackward()
	if got := s.Content(); got != "one  three" {
		t.Fatalf("unexpected after word-backward: %q", got)
	}
	s.DeleteWordForward()
	if got := s.Content(); got != "one " {
		t.Fatalf("unexpected after word-forward: %q", got)
	}
}

func TestVerticalMovementClampsColumn(t *testing.T) {
	s := stateWith("long line\nab\nlonger line")
	s.SetCaret(0, 8)
	s.MoveCaretDown()
	if s.Caret() != (Loc{Line: 1, Col: 2}) {
		t.Fatalf("unexpected caret after down: %+v", s.Caret())
	}
	s.MoveCaretDown()
	s.MoveCaretDown()
	if s.Caret() != (Loc{Line: 2, Col: 11}) {
		t.Fatalf("down on last line should go to its end: %+v", s.Caret())
	}
	s.SetCaret(0, 3)
	s.MoveCaretUp()
	if s.Caret() != (Loc{}) {
		t.Fatalf("up on first line should go to its start: %+v", s.Caret())
	}
}

func TestSelectAll(t *testing.T) {
	s := stateWith("a\nbc")
	s.SelectAll()
	if got := s.SelectedText(); got != "a\nbc" {
		t.Fatalf("unexpected selection: %q", got)
	}
}

func TestSurfaceCursorValidation(t *testing.T) {
	s := stateWith("ab\ncd")
	if !s.SetCursor(rtedoc.Position{Line: 2, Col: 2}) {
		t.Fatalf("2.2 should be valid")
	}
	if s.Caret() != (Loc{Line: 1, Col: 2}) {
		t.Fatalf("unexpected caret %+v", s.Caret())
	}
	if s.SetCursor(rtedoc.Position{Line: 3, Col: 0}) {
		t.Fatalf("3.0 should be rejected")
	}
	if s.SetCursor(rtedoc.Position{Line: 1, Col: 3}) {
		t.Fatalf("1.3 should be rejected")
	}
	if s.Cursor() != (rtedoc.Position{Line: 2, Col: 2}) {
		t.Fatalf("rejected SetCursor must not move the caret")
	}
}

func TestClearResetsEverything(t *testing.T) {
	s := stateWith("text")
	s.PlaceImage(&session.ImageRecord{ID: "a", Placement: session.PlacementFloating})
	s.SetModified(true)
	s.Clear()
	if s.Content() != "" || len(s.Images()) != 0 || s.Modified() || s.Caret() != (Loc{}) {
		t.Fatalf("clear left state behind")
	}
}

func TestEmbeddedAnchorsFollowEdits(t *testing.T) {
	s := stateWith("first\nsecond")
	handle := image.NewRGBA(image.Rect(0, 0, 1, 1))
	s.PlaceImage(&session.ImageRecord{
		ID:        "img",
		Placement: session.PlacementEmbedded,
		Pos:       rtedoc.Position{Line: 2, Col: 3},
		Handle:    handle,
	})
	at := func() rtedoc.Position {
		a, ok := s.ImagePlacement("img")
		if !ok {
			t.Fatalf("image missing")
		}
		return a.Pos
	}

	s.SetCaret(0, 0)
	_ = s.InsertTextAtCaret("zero\n")
	if got := at(); got != (rtedoc.Position{Line: 3, Col: 3}) {
		t.Fatalf("anchor should move down a line, got %v", got)
	}

	s.SetCaret(2, 0)
	_ = s.InsertTextAtCaret(">>")
	if got := at(); got != (rtedoc.Position{Line: 3, Col: 5}) {
		t.Fatalf("anchor should move right, got %v", got)
	}

	s.SetCaret(2, 0)
	s.Backspace()
	if got := at(); got != (rtedoc.Position{Line: 2, Col: 10}) {
		t.Fatalf("anchor should follow the line merge, got %v", got)
	}
	if s.Line(1) != "first>>second" {
		t.Fatalf("unexpected merged line %q", s.Line(1))
	}

	s.Select(Loc{Line: 1, Col: 2}, Loc{Line: 1, Col: 12})
	s.DeleteSelection()
	if got := at(); got != (rtedoc.Position{Line: 2, Col: 2}) {
		t.Fatalf("anchor inside a deleted range should collapse to its start, got %v", got)
	}

	s.SetCaret(1, 0)
	_ = s.InsertTextAtCaret("x")
	if got := at(); got != (rtedoc.Position{Line: 2, Col: 3}) {
		t.Fatalf("anchor after inserted text on same line should shift, got %v", got)
	}
	s.SetCaret(1, 4)
	_ = s.InsertTextAtCaret("tail")
	if got := at(); got != (rtedoc.Position{Line: 2, Col: 3}) {
		t.Fatalf("insert after the anchor must not move it, got %v", got)
	}
}

func TestFloatingImagesIgnoreTextAndDrag(t *testing.T) {
	s := stateWith("abc")
	s.PlaceImage(&session.ImageRecord{ID: "f", Placement: session.PlacementFloating, X: 5, Y: 6})
	s.PlaceImage(&session.ImageRecord{ID: "d", Placement: session.PlacementFloating, X: 1, Y: 1, Draggable: true})
	_ = s.InsertTextAtCaret("\n\n")

	a, _ := s.ImagePlacement("f")
	if a.X != 5 || a.Y != 6 {
		t.Fatalf("floating image moved with text: %+v", a)
	}
	if s.DragImage("f", 9, 9, Loc{}) {
		t.Fatalf("non-draggable image should not move")
	}
	if !s.DragImage("d", 40, 30, Loc{}) {
		t.Fatalf("draggable image should move")
	}
	a, _ = s.ImagePlacement("d")
	if a.X != 40 || a.Y != 30 {
		t.Fatalf("unexpected drag result %+v", a)
	}

	s.RemoveImage("f")
	if _, ok := s.ImagePlacement("f"); ok {
		t.Fatalf("removed image still placed")
	}
	if len(s.Images()) != 1 {
		t.Fatalf("expected 1 image left, got %d", len(s.Images()))
	}
}

func TestFindAll(t *testing.T) {
	s := stateWith("Foo bar foo\nfoofoo\nBAR")
	got := s.FindAll("foo", false)
	if len(got) != 4 {
		t.Fatalf("expected 4 case-insensitive matches, got %d", len(got))
	}
	if got[0].Start != (Loc{0, 0}) || got[0].End != (Loc{0, 3}) {
		t.Fatalf("unexpected first match %+v", got[0])
	}
	if got[3].Start != (Loc{1, 3}) || got[3].End != (Loc{1, 6}) {
		t.Fatalf("unexpected last match %+v", got[3])
	}

	if n := len(s.FindAll("foo", true)); n != 3 {
		t.Fatalf("expected 3 case-sensitive matches, got %d", n)
	}
	if n := len(s.FindAll("aaa", false)); n != 0 {
		t.Fatalf("expected no matches, got %d", n)
	}
	if s.FindAll("", false) != nil {
		t.Fatalf("empty query should find nothing")
	}

	span := s.FindAll("foo\nbar", false)
	if len(span) != 1 || span[0].Start != (Loc{1, 3}) || span[0].End != (Loc{2, 3}) {
		t.Fatalf("unexpected multi-line match %+v", span)
	}
}

func TestHistoryUndoRedo(t *testing.T) {
	s := stateWith("abc")
	h := NewHistory(2)
	s.MoveCaretToLineEnd()

	h.Push(s)
	_ = s.InsertTextAtCaret("d")
	h.Push(s)
	_ = s.InsertTextAtCaret("e")
	h.Push(s)
	_ = s.InsertTextAtCaret("f")

	if !h.Undo(s) || s.Content() != "abcde" {
		t.Fatalf("unexpected after first undo: %q", s.Content())
	}
	if !h.Undo(s) || s.Content() != "abcd" {
		t.Fatalf("unexpected after second undo: %q", s.Content())
	}
	if h.Undo(s) {
		t.Fatalf("history should be bounded to 2 entries")
	}
	if !h.Redo(s) || s.Content() != "abcde" {
		t.Fatalf("unexpected after redo: %q", s.Content())
	}

	h.Push(s)
	_ = s.InsertTextAtCaret("!")
	if h.CanRedo() {
		t.Fatalf("a new edit should drop the redo stack")
	}
}

func TestColorSpansFollowEdits(t *testing.T) {
	red := color.RGBA{R: 200, A: 255}
	s := stateWith("hello world")
	if s.ColorSelection(red) {
		t.Fatalf("colouring without a selection should do nothing")
	}
	s.Select(Loc{Line: 0, Col: 6}, Loc{Line: 0, Col: 11})
	if !s.ColorSelection(red) {
		t.Fatalf("expected selection to be coloured")
	}

	s.ClearSelection()
	s.SetCaret(0, 0)
	_ = s.InsertTextAtCaret(">> ")
	if _, ok := s.ColorAt(Loc{Line: 0, Col: 8}); ok {
		t.Fatalf("text before the span should stay plain")
	}
	if c, ok := s.ColorAt(Loc{Line: 0, Col: 9}); !ok || c != red {
		t.Fatalf("span should move with the text, got %v %v", c, ok)
	}
	runs := s.LineRuns(0)
	if len(runs) != 2 || runs[0].Colored || runs[0].To != 9 || !runs[1].Colored || runs[1].To != 14 {
		t.Fatalf("unexpected runs %+v", runs)
	}

	s.SetCaret(0, 0)
	s.SplitLineAtCaret()
	if c, ok := s.ColorAt(Loc{Line: 1, Col: 9}); !ok || c != red {
		t.Fatalf("span should follow a line split")
	}

	s.Select(Loc{Line: 1, Col: 9}, Loc{Line: 1, Col: 14})
	s.DeleteSelection()
	if len(s.ColorSpans()) != 0 {
		t.Fatalf("deleting the coloured text should drop its span, got %+v", s.ColorSpans())
	}
}

func TestRecolorSplitsExistingSpan(t *testing.T) {
	red := color.RGBA{R: 200, A: 255}
	blue := color.RGBA{B: 200, A: 255}
	s := stateWith("abcdefgh")
	s.SelectAll()
	s.ColorSelection(red)
	s.Select(Loc{Line: 0, Col: 2}, Loc{Line: 0, Col: 5})
	s.ColorSelection(blue)

	if n := len(s.ColorSpans()); n != 3 {
		t.Fatalf("expected 3 spans, got %d", n)
	}
	want := []color.RGBA{red, red, blue, blue, blue, red, red, red}
	for col, w := range want {
		if c, _ := s.ColorAt(Loc{Line: 0, Col: col}); c != w {
			t.Fatalf("col %d: expected %v, got %v", col, w, c)
		}
	}

	s.Select(Loc{Line: 0, Col: 0}, Loc{Line: 0, Col: 3})
	s.UncolorSelection()
	if _, ok := s.ColorAt(Loc{Line: 0, Col: 2}); ok {
		t.Fatalf("uncoloured text should have no colour")
	}
	if c, _ := s.ColorAt(Loc{Line: 0, Col: 3}); c != blue {
		t.Fatalf("text after the cleared range should keep its colour")
	}
}

func TestColorSpansAcrossLinesUndoAndClear(t *testing.T) {
	green := color.RGBA{G: 200, A: 255}
	s := stateWith("ab\ncd")
	h := NewHistory(10)
	h.Push(s)
	s.Select(Loc{Line: 0, Col: 1}, Loc{Line: 1, Col: 1})
	s.ColorSelection(green)

	runs := s.LineRuns(1)
	if len(runs) != 2 || !runs[0].Colored || runs[0].To != 1 || runs[1].Colored {
		t.Fatalf("unexpected runs on second line %+v", runs)
	}
	if !h.Undo(s) || len(s.ColorSpans()) != 0 {
		t.Fatalf("undo should remove the colour, got %+v", s.ColorSpans())
	}
	if !h.Redo(s) || len(s.ColorSpans()) != 1 {
		t.Fatalf("redo should restore the colour")
	}

	s.SetColorSpans([]ColorSpan{{Start: Loc{Line: 1, Col: 1}, End: Loc{Line: 9, Col: 9}, Color: green}})
	if spans := s.ColorSpans(); len(spans) != 1 || spans[0].End != (Loc{Line: 1, Col: 2}) {
		t.Fatalf("spans should be clamped to the text, got %+v", spans)
	}
	s.Clear()
	if len(s.ColorSpans()) != 0 {
		t.Fatalf("clear should drop colours")
	}
}
