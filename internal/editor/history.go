package editor

// Snapshot captures the text, caret, colours and embedded anchors of a
// State.
type Snapshot struct {
	lines   [][]rune
	caret   Loc
	anchors map[string]Loc
	spans   []ColorSpan
}

func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		lines:   make([][]rune, len(s.lines)),
		caret:   s.caret,
		anchors: make(map[string]Loc, len(s.images)),
		spans:   s.ColorSpans(),
	}
	for i, l := range s.lines {
		snap.lines[i] = append([]rune(nil), l...)
	}
	for id, p := range s.images {
		snap.anchors[id] = p.At
	}
	return snap
}

// Restore puts back a snapshot's text and caret. Images placed since the
// snapshot keep their current anchor, clamped to the restored text.
func (s *State) Restore(snap Snapshot) {
	s.lines = make([][]rune, len(snap.lines))
	for i, l := range snap.lines {
		s.lines[i] = append([]rune(nil), l...)
	}
	if len(s.lines) == 0 {
		s.lines = [][]rune{{}}
	}
	s.caret = s.clamp(snap.caret)
	s.ClearSelection()
	s.SetColorSpans(snap.spans)
	for id, p := range s.images {
		if at, ok := snap.anchors[id]; ok {
			p.At = at
		}
		p.At = s.clamp(p.At)
	}
	s.modified = true
}

// History is a bounded undo/redo stack of snapshots.
type History struct {
	max  int
	undo []Snapshot
	redo []Snapshot
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = 200
	}
	return &History{max: limit, undo: make([]Snapshot, 0, 64), redo: make([]Snapshot, 0, 64)}
}

// Push records the state before an edit and drops the redo stack.
func (h *History) Push(s *State) {
	h.undo = append(h.undo, s.Snapshot())
	if len(h.undo) > h.max {
		h.undo = h.undo[1:]
	}
	h.redo = h.redo[:0]
}

func (h *History) Undo(s *State) bool {
	if len(h.undo) == 0 {
		return false
	}
	last := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, s.Snapshot())
	s.Restore(last)
	return true
}

func (h *History) Redo(s *State) bool {
	if len(h.redo) == 0 {
		return false
	}
	last := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, s.Snapshot())
	s.Restore(last)
	return true
}

func (h *History) Reset() {
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }
