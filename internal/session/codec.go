package session

import (
	"path/filepath"

	"go.uber.org/zap"

	"topnote/pkg/rtedoc"
)

func (s *Session) richSnapshot(d *Document) *rtedoc.RichDocument {
	wire := rtedoc.NewRichDocument(d.Content)
	wire.Images = s.entriesFromDocument(d, -1, false)
	return wire
}

func (s *Session) projectSnapshot(name string) *rtedoc.Project {
	wire := rtedoc.NewProject(name, s.created)
	idx := s.active
	wire.CurrentTabIndex = &idx
	for i, d := range s.docs {
		tab := rtedoc.Tab{
			ID:        d.ID,
			Title:     d.Title,
			Content:   d.Content,
			Images:    s.entriesFromDocument(d, i, true),
			Modified:  d.Modified,
			CursorPos: d.Cursor.String(),
		}
		if d.BackingPath != "" {
			path := d.BackingPath
			tab.Filename = &path
		}
		if d.CustomColor != nil {
			c := rtedoc.FormatColor(*d.CustomColor)
			tab.CustomColor = &c
		}
		wire.Tabs = append(wire.Tabs, tab)
	}
	return wire
}

// entriesFromDocument encodes every image of d. Images whose bitmap cannot be
// encoded are left out and logged.
func (s *Session) entriesFromDocument(d *Document, tab int, withName bool) []rtedoc.ImageEntry {
	entries := make([]rtedoc.ImageEntry, 0, len(d.Images))
	for i, rec := range d.ImageList() {
		data, err := s.codec.EncodeBase64(rec.Bitmap)
		if err != nil {
			s.log.Warn("image not saved", zap.Error(&DecodeError{Tab: tab, Index: i, Name: rec.Name, Err: err}))
			continue
		}
		var e rtedoc.ImageEntry
		if rec.Placement == PlacementFloating {
			e = rtedoc.NewFloatingEntry(rec.X, rec.Y)
		} else {
			e = rtedoc.NewEmbeddedEntry(rec.Pos, rec.XOffset, rec.YOffset)
		}
		e.ImageData = data
		e.FilePath = rec.SourcePath
		e.Draggable = rec.Draggable
		if withName {
			e.Name = rec.Name
		}
		entries = append(entries, e)
	}
	return entries
}

// imagesFromEntries rebuilds image records for a document whose text is
// content. Entries that cannot be decoded are reported and skipped. Embedded
// positions that do not exist in content move to its end.
func (s *Session) imagesFromEntries(content string, entries []rtedoc.ImageEntry, tab int, report *LoadReport) []*ImageRecord {
	out := make([]*ImageRecord, 0, len(entries))
	for i, e := range entries {
		fail := func(err error) {
			derr := &DecodeError{Tab: tab, Index: i, Name: e.Name, Err: err}
			report.add(derr)
			s.log.Warn("image skipped", zap.Error(derr))
		}

		var a Anchor
		switch e.Type {
		case rtedoc.TypeFloating:
			if err := e.Validate(); err != nil {
				fail(err)
				continue
			}
			a.Placement = PlacementFloating
			a.X, a.Y = e.Coordinates()
		case rtedoc.TypeEmbedded:
			a.Placement = PlacementEmbedded
			a.XOffset, a.YOffset = e.Offsets()
			pos, err := rtedoc.ParsePosition(e.Position)
			if err != nil || !rtedoc.Within(content, pos) {
				pos = rtedoc.EndOf(content)
				s.log.Warn("image position out of text, moved to end",
					zap.Int("tab", tab),
					zap.Int("image", i),
					zap.String("position", e.Position),
					zap.Stringer("moved_to", pos),
				)
			}
			a.Pos = pos
		default:
			fail(e.Validate())
			continue
		}

		bmp, err := s.codec.DecodeBase64(e.ImageData)
		if err != nil {
			fail(err)
			continue
		}
		name := e.Name
		if name == "" && e.FilePath != "" {
			name = filepath.Base(e.FilePath)
		}
		rec := newImageRecord(bmp, name, a, e.Draggable)
		rec.SourcePath = e.FilePath
		out = append(out, rec)
	}
	return out
}
