package editor

import (
	"unicode"
)

type Match struct {
	Start Loc
	End   Loc
}

// FindAll returns every non-overlapping occurrence of query, in order.
// Queries may span lines.
func (s *State) FindAll(query string, caseSensitive bool) []Match {
	needle := []rune(query)
	if len(needle) == 0 {
		return nil
	}
	fold := func(r rune) rune {
		if caseSensitive {
			return r
		}
		return unicode.ToLower(r)
	}

	// flatten with '\n' between lines and remember where each rune came from
	var hay []rune
	var locs []Loc
	for i, line := range s.lines {
		if i > 0 {
			hay = append(hay, '\n')
			locs = append(locs, Loc{Line: i - 1, Col: len(s.lines[i-1])})
		}
		for c, r := range line {
			hay = append(hay, fold(r))
			locs = append(locs, Loc{Line: i, Col: c})
		}
	}
	for i := range needle {
		needle[i] = fold(needle[i])
	}

	var out []Match
	for i := 0; i+len(needle) <= len(hay); {
		if runesEqual(hay[i:i+len(needle)], needle) {
			out = append(out, Match{Start: locs[i], End: s.after(locs[i+len(needle)-1])})
			i += len(needle)
			continue
		}
		i++
	}
	return out
}

// after returns the location just past the rune at l.
func (s *State) after(l Loc) Loc {
	if l.Col >= len(s.lines[l.Line]) {
		return Loc{Line: l.Line + 1, Col: 0}
	}
	return Loc{Line: l.Line, Col: l.Col + 1}
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
