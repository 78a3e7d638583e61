// Package editor is the text surface the window draws: a buffer of lines
// with a caret, a selection and the images anchored in it.
package editor

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Loc is a caret location. Line and Col are both 0-based, Col in runes.
type Loc struct {
	Line int
	Col  int
}

type State struct {
	lines [][]rune
	caret Loc

	selectionAnchor    Loc
	selectionAnchored  bool
	selectionIsVisible bool

	images   map[string]*Placed
	order    []string
	spans    []ColorSpan
	modified bool
}

func NewState() *State {
	s := &State{}
	s.Clear()
	return s
}

func (s *State) LineCount() int {
	return len(s.lines)
}

func (s *State) Line(i int) string {
	if i < 0 || i >= len(s.lines) {
		return ""
	}
	return string(s.lines[i])
}

func (s *State) Lines() []string {
	out := make([]string, len(s.lines))
	for i, l := range s.lines {
		out[i] = string(l)
	}
	return out
}

func (s *State) Caret() Loc {
	return s.caret
}

func (s *State) SetCaret(line, col int) {
	s.caret = s.clamp(Loc{Line: line, Col: col})
	if s.selectionAnchored {
		s.selectionIsVisible = comparePos(s.selectionAnchor, s.caret) != 0
	}
}

func (s *State) MoveCaretLeft() {
	if s.caret.Col > 0 {
		s.caret.Col--
		return
	}
	if s.caret.Line > 0 {
		s.caret.Line--
		s.caret.Col = len(s.lines[s.caret.Line])
	}
}

func (s *State) MoveCaretRight() {
	if s.caret.Col < len(s.lines[s.caret.Line]) {
		s.caret.Col++
		return
	}
	if s.caret.Line < len(s.lines)-1 {
		s.caret.Line++
		s.caret.Col = 0
	}
}

func (s *State) MoveCaretUp() {
	if s.caret.Line == 0 {
		s.caret.Col = 0
		return
	}
	s.caret = s.clamp(Loc{Line: s.caret.Line - 1, Col: s.caret.Col})
}

func (s *State) MoveCaretDown() {
	if s.caret.Line >= len(s.lines)-1 {
		s.caret.Col = len(s.lines[s.caret.Line])
		return
	}
	s.caret = s.clamp(Loc{Line: s.caret.Line + 1, Col: s.caret.Col})
}

func (s *State) MoveCaretWordLeft() {
	if s.caret.Col == 0 {
		s.MoveCaretLeft()
		return
	}
	line := s.lines[s.caret.Line]
	col := s.caret.Col
	for col > 0 && !isWordRune(line[col-1]) {
		col--
	}
	for col > 0 && isWordRune(line[col-1]) {
		col--
	}
	s.caret.Col = col
}

func (s *State) MoveCaretWordRight() {
	line := s.lines[s.caret.Line]
	if s.caret.Col >= len(line) {
		s.MoveCaretRight()
		return
	}
	col := s.caret.Col
	for col < len(line) && !isWordRune(line[col]) {
		col++
	}
	for col < len(line) && isWordRune(line[col]) {
		col++
	}
	s.caret.Col = col
}

func (s *State) MoveCaretToLineStart() {
	s.caret.Col = 0
}

func (s *State) MoveCaretToLineEnd() {
	s.caret.Col = len(s.lines[s.caret.Line])
}

func (s *State) InsertTextAtCaret(input string) error {
	if input == "" {
		return nil
	}
	if !utf8.ValidString(input) {
		return fmt.Errorf("input must be valid UTF-8")
	}
	input = strings.ReplaceAll(input, "\r\n", "\n")
	s.DeleteSelection()
	s.caret = s.insertAt(s.caret, input)
	s.ClearSelection()
	s.modified = true
	return nil
}

func (s *State) SplitLineAtCaret() {
	_ = s.InsertTextAtCaret("\n")
}

func (s *State) Backspace() {
	if s.DeleteSelection() {
		return
	}
	end := s.caret
	s.MoveCaretLeft()
	if s.caret != end {
		s.deleteRange(s.caret, end)
	}
}

func (s *State) DeleteForward() {
	if s.DeleteSelection() {
		return
	}
	start := s.caret
	s.MoveCaretRight()
	end := s.caret
	s.caret = start
	if end != start {
		s.deleteRange(start, end)
	}
}

func (s *State) DeleteWordBackward() {
	if s.DeleteSelection() {
		return
	}
	if s.caret.Col == 0 {
		s.Backspace()
		return
	}
	line := s.lines[s.caret.Line]
	start := Loc{Line: s.caret.Line, Col: previousWordBoundary(line, s.caret.Col)}
	s.deleteRange(start, s.caret)
	s.caret = start
}

func (s *State) DeleteWordForward() {
	if s.DeleteSelection() {
		return
	}
	line := s.lines[s.caret.Line]
	if s.caret.Col >= len(line) {
		s.DeleteForward()
		return
	}
	end := Loc{Line: s.caret.Line, Col: nextWordBoundary(line, s.caret.Col)}
	s.deleteRange(s.caret, end)
}

func (s *State) HasSelection() bool {
	return s.selectionIsVisible
}

func (s *State) EnsureSelectionAnchor() {
	if s.selectionAnchored {
		return
	}
	s.selectionAnchor = s.caret
	s.selectionAnchored = true
	s.selectionIsVisible = false
}

func (s *State) UpdateSelectionFromCaret() {
	if !s.selectionAnchored {
		s.selectionAnchor = s.caret
		s.selectionAnchored = true
	}
	s.selectionIsVisible = comparePos(s.selectionAnchor, s.caret) != 0
}

func (s *State) ClearSelection() {
	s.selectionAnchored = false
	s.selectionIsVisible = false
}

func (s *State) SelectionRange() (Loc, Loc, bool) {
	if !s.selectionIsVisible {
		return Loc{}, Loc{}, false
	}
	a, b := s.selectionAnchor, s.caret
	if comparePos(a, b) <= 0 {
		return a, b, true
	}
	return b, a, true
}

// Select selects [start, end) and leaves the caret at end.
func (s *State) Select(start, end Loc) {
	s.selectionAnchor = s.clamp(start)
	s.selectionAnchored = true
	s.caret = s.clamp(end)
	s.selectionIsVisible = comparePos(s.selectionAnchor, s.caret) != 0
}

func (s *State) SelectAll() {
	last := len(s.lines) - 1
	s.Select(Loc{}, Loc{Line: last, Col: len(s.lines[last])})
}

func (s *State) SelectedText() string {
	start, end, ok := s.SelectionRange()
	if !ok {
		return ""
	}
	return s.textRange(start, end)
}

func (s *State) DeleteSelection() bool {
	start, end, ok := s.SelectionRange()
	if !ok {
		return false
	}
	s.deleteRange(start, end)
	s.caret = start
	s.ClearSelection()
	return true
}

func (s *State) textRange(start, end Loc) string {
	if start.Line == end.Line {
		return string(s.lines[start.Line][start.Col:end.Col])
	}
	var out strings.Builder
	out.WriteString(string(s.lines[start.Line][start.Col:]))
	for i := start.Line + 1; i < end.Line; i++ {
		out.WriteByte('\n')
		out.WriteString(string(s.lines[i]))
	}
	out.WriteByte('\n')
	out.WriteString(string(s.lines[end.Line][:end.Col]))
	return out.String()
}

// insertAt inserts text at p and returns the location just after it.
// Embedded anchors at or after p move with the text.
func (s *State) insertAt(p Loc, text string) Loc {
	parts := strings.Split(text, "\n")
	line := s.lines[p.Line]
	head := append([]rune(nil), line[:p.Col]...)
	tail := append([]rune(nil), line[p.Col:]...)

	var end Loc
	if len(parts) == 1 {
		ins := []rune(parts[0])
		s.lines[p.Line] = append(append(head, ins...), tail...)
		end = Loc{Line: p.Line, Col: p.Col + len(ins)}
	} else {
		added := make([][]rune, 0, len(parts))
		added = append(added, append(head, []rune(parts[0])...))
		for _, part := range parts[1 : len(parts)-1] {
			added = append(added, []rune(part))
		}
		last := []rune(parts[len(parts)-1])
		end = Loc{Line: p.Line + len(parts) - 1, Col: len(last)}
		added = append(added, append(last, tail...))

		rest := append([][]rune(nil), s.lines[p.Line+1:]...)
		s.lines = append(append(s.lines[:p.Line], added...), rest...)
	}

	s.shiftAnchors(func(a Loc) Loc {
		if comparePos(a, p) < 0 {
			return a
		}
		if a.Line == p.Line {
			return Loc{Line: end.Line, Col: end.Col + a.Col - p.Col}
		}
		return Loc{Line: a.Line + end.Line - p.Line, Col: a.Col}
	})
	return end
}

// deleteRange removes [start, end). Anchors inside the range collapse to
// start, anchors after it move back.
func (s *State) deleteRange(start, end Loc) {
	if comparePos(start, end) >= 0 {
		return
	}
	head := append([]rune(nil), s.lines[start.Line][:start.Col]...)
	merged := append(head, s.lines[end.Line][end.Col:]...)
	s.lines[start.Line] = merged
	s.lines = append(s.lines[:start.Line+1], s.lines[end.Line+1:]...)

	s.shiftAnchors(func(a Loc) Loc {
		switch {
		case comparePos(a, start) <= 0:
			return a
		case comparePos(a, end) < 0:
			return start
		case a.Line == end.Line:
			return Loc{Line: start.Line, Col: start.Col + a.Col - end.Col}
		default:
			return Loc{Line: a.Line - (end.Line - start.Line), Col: a.Col}
		}
	})
	s.modified = true
}

func (s *State) clamp(p Loc) Loc {
	if p.Line < 0 {
		return Loc{}
	}
	if p.Line >= len(s.lines) {
		last := len(s.lines) - 1
		return Loc{Line: last, Col: len(s.lines[last])}
	}
	if p.Col < 0 {
		p.Col = 0
	}
	if n := len(s.lines[p.Line]); p.Col > n {
		p.Col = n
	}
	return p
}

func splitLines(text string) [][]rune {
	parts := strings.Split(text, "\n")
	out := make([][]rune, len(parts))
	for i, p := range parts {
		out[i] = []rune(p)
	}
	return out
}

func previousWordBoundary(line []rune, col int) int {
	for col > 0 && unicode.IsSpace(line[col-1]) {
		col--
	}
	for col > 0 && !unicode.IsSpace(line[col-1]) {
		col--
	}
	return col
}

func nextWordBoundary(line []rune, col int) int {
	for col < len(line) && unicode.IsSpace(line[col]) {
		col++
	}
	for col < len(line) && !unicode.IsSpace(line[col]) {
		col++
	}
	return col
}

func comparePos(a, b Loc) int {
	switch {
	case a.Line < b.Line:
		return -1
	case a.Line > b.Line:
		return 1
	case a.Col < b.Col:
		return -1
	case a.Col > b.Col:
		return 1
	}
	return 0
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
