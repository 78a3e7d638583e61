package editor

import "image/color"

// ColorSpan paints the text in [Start, End) with Color.
type ColorSpan struct {
	Start Loc
	End   Loc
	Color color.RGBA
}

func (c ColorSpan) covers(l Loc) bool {
	return comparePos(c.Start, l) <= 0 && comparePos(l, c.End) < 0
}

// ColorSelection colours the selected text. It reports false when nothing
// is selected.
func (s *State) ColorSelection(c color.RGBA) bool {
	start, end, ok := s.SelectionRange()
	if !ok {
		return false
	}
	s.uncolor(start, end)
	s.spans = append(s.spans, ColorSpan{Start: start, End: end, Color: c})
	return true
}

// UncolorSelection removes colours from the selected text.
func (s *State) UncolorSelection() bool {
	start, end, ok := s.SelectionRange()
	if !ok {
		return false
	}
	s.uncolor(start, end)
	return true
}

// ColorAt returns the colour of the rune at l, if it has one.
func (s *State) ColorAt(l Loc) (color.RGBA, bool) {
	for _, sp := range s.spans {
		if sp.covers(l) {
			return sp.Color, true
		}
	}
	return color.RGBA{}, false
}

// ColorSpans returns a copy of the colour spans, which never overlap.
func (s *State) ColorSpans() []ColorSpan {
	return append([]ColorSpan(nil), s.spans...)
}

// SetColorSpans replaces the colour spans. Spans are clamped to the text
// and empty ones are dropped.
func (s *State) SetColorSpans(spans []ColorSpan) {
	in := append([]ColorSpan(nil), spans...)
	s.spans = nil
	for _, sp := range in {
		sp.Start, sp.End = s.clamp(sp.Start), s.clamp(sp.End)
		if comparePos(sp.Start, sp.End) >= 0 {
			continue
		}
		s.uncolor(sp.Start, sp.End)
		s.spans = append(s.spans, sp)
	}
}

// LineRuns splits line i into runs of equal colour. Runs outside any
// span have Colored set to false.
func (s *State) LineRuns(i int) []ColorRun {
	if i < 0 || i >= len(s.lines) {
		return nil
	}
	line := s.lines[i]
	if len(line) == 0 {
		return nil
	}
	var runs []ColorRun
	for col := 0; col < len(line); {
		c, ok := s.ColorAt(Loc{Line: i, Col: col})
		end := col + 1
		for end < len(line) {
			c2, ok2 := s.ColorAt(Loc{Line: i, Col: end})
			if ok2 != ok || c2 != c {
				break
			}
			end++
		}
		runs = append(runs, ColorRun{From: col, To: end, Color: c, Colored: ok})
		col = end
	}
	return runs
}

// ColorRun is a stretch [From, To) of one line drawn in one colour.
type ColorRun struct {
	From, To int
	Color    color.RGBA
	Colored  bool
}

// uncolor cuts [start, end) out of every span.
func (s *State) uncolor(start, end Loc) {
	kept := make([]ColorSpan, 0, len(s.spans)+1)
	for _, sp := range s.spans {
		if comparePos(sp.End, start) <= 0 || comparePos(end, sp.Start) <= 0 {
			kept = append(kept, sp)
			continue
		}
		if comparePos(sp.Start, start) < 0 {
			kept = append(kept, ColorSpan{Start: sp.Start, End: start, Color: sp.Color})
		}
		if comparePos(end, sp.End) < 0 {
			kept = append(kept, ColorSpan{Start: end, End: sp.End, Color: sp.Color})
		}
	}
	s.spans = kept
}

func (s *State) shiftSpans(move func(Loc) Loc) {
	kept := s.spans[:0]
	for _, sp := range s.spans {
		sp.Start, sp.End = move(sp.Start), move(sp.End)
		if comparePos(sp.Start, sp.End) < 0 {
			kept = append(kept, sp)
		}
	}
	s.spans = kept
}
