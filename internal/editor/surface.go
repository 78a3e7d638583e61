package editor

import (
	"image"
	"strings"

	"topnote/internal/session"
	"topnote/pkg/rtedoc"
)

var _ session.Surface = (*State)(nil)

// Placed is an image as the surface shows it. Embedded images follow their
// text anchor as lines are edited.
type Placed struct {
	ID        string
	Name      string
	Placement session.Placement
	At        Loc
	X, Y      int
	XOffset   int
	YOffset   int
	Draggable bool
	Handle    image.Image
}

func (p *Placed) anchor() session.Anchor {
	return session.Anchor{
		Placement: p.Placement,
		Pos:       toPosition(p.At),
		X:         p.X,
		Y:         p.Y,
		XOffset:   p.XOffset,
		YOffset:   p.YOffset,
	}
}

func (s *State) Content() string {
	return strings.Join(s.Lines(), "\n")
}

// SetContent replaces the buffer. Images and the modified flag are kept.
func (s *State) SetContent(text string) {
	s.lines = splitLines(strings.ReplaceAll(text, "\r\n", "\n"))
	s.caret = s.clamp(s.caret)
	s.ClearSelection()
	s.shiftAnchors(s.clamp)
}

func (s *State) Cursor() rtedoc.Position {
	return toPosition(s.caret)
}

func (s *State) SetCursor(pos rtedoc.Position) bool {
	if !rtedoc.Within(s.Content(), pos) {
		return false
	}
	s.ClearSelection()
	s.caret = fromPosition(pos)
	return true
}

func (s *State) PlaceImage(rec *session.ImageRecord) {
	p, ok := s.images[rec.ID]
	if !ok {
		p = &Placed{ID: rec.ID}
		s.images[rec.ID] = p
		s.order = append(s.order, rec.ID)
	}
	p.Name = rec.Name
	p.Placement = rec.Placement
	p.At = s.clamp(fromPosition(rec.Pos))
	p.X, p.Y = rec.X, rec.Y
	p.XOffset, p.YOffset = rec.XOffset, rec.YOffset
	p.Draggable = rec.Draggable
	p.Handle = rec.Handle
}

func (s *State) RemoveImage(id string) {
	if _, ok := s.images[id]; !ok {
		return
	}
	delete(s.images, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *State) ImagePlacement(id string) (session.Anchor, bool) {
	p, ok := s.images[id]
	if !ok {
		return session.Anchor{}, false
	}
	return p.anchor(), true
}

// Images returns the placed images in placement order.
func (s *State) Images() []*Placed {
	out := make([]*Placed, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.images[id])
	}
	return out
}

// DragImage moves a floating image to x, y, or re-anchors an embedded one
// at loc. It reports false for unknown or non-draggable images.
func (s *State) DragImage(id string, x, y int, loc Loc) bool {
	p, ok := s.images[id]
	if !ok || !p.Draggable {
		return false
	}
	if p.Placement == session.PlacementFloating {
		p.X, p.Y = x, y
	} else {
		p.At = s.clamp(loc)
	}
	s.modified = true
	return true
}

func (s *State) Modified() bool     { return s.modified }
func (s *State) SetModified(m bool) { s.modified = m }

func (s *State) Clear() {
	s.lines = [][]rune{{}}
	s.caret = Loc{}
	s.ClearSelection()
	s.images = map[string]*Placed{}
	s.order = nil
	s.spans = nil
	s.modified = false
}

func (s *State) shiftAnchors(move func(Loc) Loc) {
	for _, p := range s.images {
		if p.Placement == session.PlacementEmbedded {
			p.At = move(p.At)
		}
	}
	s.shiftSpans(move)
}

func toPosition(l Loc) rtedoc.Position {
	return rtedoc.Position{Line: l.Line + 1, Col: l.Col}
}

func fromPosition(p rtedoc.Position) Loc {
	return Loc{Line: p.Line - 1, Col: p.Col}
}
