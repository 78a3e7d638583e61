package session

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"topnote/pkg/rtedoc"
)

// Save writes the active Document to its backing file, asking for a path
// when it has none.
func (s *Session) Save(p Prompter) error {
	s.flush()
	return s.saveDocumentAt(s.active, p)
}

// SaveAs writes the active Document to path. A .rtep path saves the whole
// session as a project.
func (s *Session) SaveAs(path string, p Prompter) error {
	if path == "" {
		return ErrNoPath
	}
	s.flush()
	return s.saveTo(s.docs[s.active], path, p)
}

// Open loads path by extension. Plain and rich files open in a new tab,
// or replace the active one when it is still untouched.
func (s *Session) Open(path string, p Prompter) (LoadReport, error) {
	if rtedoc.KindForPath(path) == rtedoc.KindProject {
		if err := s.ConfirmExit(p); err != nil {
			return LoadReport{}, err
		}
		return s.LoadProject(path)
	}

	d, report, err := s.loadDocument(path)
	if err != nil {
		return report, err
	}
	s.install(d)
	s.log.Info("document opened",
		zap.String("path", path),
		zap.String("format", d.Format.String()),
		zap.Int("images", len(d.Images)),
		zap.Int("warnings", len(report.Warnings)),
	)
	return report, nil
}

// SaveProject writes every Document to a project file at path.
func (s *Session) SaveProject(path string) error {
	if path == "" {
		return ErrNoPath
	}
	s.flush()
	if s.created.IsZero() {
		s.created = time.Now()
	}
	name := s.projectName
	if name == "" {
		name = stem(path)
	}
	wire := s.projectSnapshot(name)
	if err := rtedoc.SaveProject(path, wire, s.saveOpts); err != nil {
		return fmt.Errorf("%w: save project %s: %w", ErrIO, path, err)
	}

	for _, d := range s.docs {
		d.Modified = false
	}
	s.surface.SetModified(false)
	s.projectPath = path
	s.projectName = name
	s.isProject = true
	s.projectModified = false
	s.refreshTitle()
	s.log.Info("project saved", zap.String("path", path), zap.Int("tabs", len(s.docs)))
	return nil
}

// LoadProject replaces the whole session with the project at path. The new
// documents are built aside and swapped in only once the file has loaded.
func (s *Session) LoadProject(path string) (LoadReport, error) {
	var report LoadReport
	wire, err := rtedoc.LoadProject(path, s.loadOpts)
	if err != nil {
		return report, fmt.Errorf("%w: load project %s: %w", ErrIO, path, err)
	}

	nextID, seq := 0, 0
	for _, tab := range wire.Tabs {
		if n, ok := untitledNumber(tab.Title); ok && n > seq {
			seq = n
		}
	}
	staged := make([]*Document, 0, len(wire.Tabs))
	for i, tab := range wire.Tabs {
		nextID++
		title := tab.Title
		if title == "" {
			seq++
			title = defaultTitle(seq)
		}
		d := newDocument(nextID, title)
		d.Content = tab.Content
		if tab.Filename != nil && *tab.Filename != "" {
			d.BackingPath = *tab.Filename
			d.Format = rtedoc.KindForPath(d.BackingPath)
		}
		if pos, err := rtedoc.ParsePosition(tab.CursorPos); err == nil && rtedoc.Within(d.Content, pos) {
			d.Cursor = pos
		}
		if tab.CustomColor != nil {
			if c, err := rtedoc.ParseColor(*tab.CustomColor); err == nil {
				d.CustomColor = &c
			} else {
				s.log.Warn("ignoring tab colour", zap.Int("tab", i), zap.Error(err))
			}
		}
		for _, rec := range s.imagesFromEntries(d.Content, tab.Images, i, &report) {
			d.addImage(rec)
		}
		staged = append(staged, d)
	}
	if len(staged) == 0 {
		nextID++
		seq++
		staged = append(staged, newDocument(nextID, defaultTitle(seq)))
	}

	for _, d := range s.docs {
		d.releaseHandles()
	}
	s.docs = staged
	s.active = wire.TabIndex()
	s.nextDocID = nextID
	s.untitledSeq = seq
	s.projectPath = path
	s.projectName = wire.ProjectName
	if s.projectName == "" {
		s.projectName = stem(path)
	}
	s.isProject = true
	s.projectModified = false
	s.created = time.Now()
	if t, ok := rtedoc.ParseTime(wire.CreatedTime); ok {
		s.created = t
	}

	s.surface.Clear()
	s.push()
	s.refreshTitle()
	s.log.Info("project loaded",
		zap.String("path", path),
		zap.Int("tabs", len(s.docs)),
		zap.Int("active", s.active),
		zap.Int("warnings", len(report.Warnings)),
	)
	return report, nil
}

// ConfirmExit offers to save unsaved work. A saved project gets one
// project-wide prompt, otherwise each modified Document is offered in tab
// order. ErrUserCancelled means the caller must not proceed.
func (s *Session) ConfirmExit(p Prompter) error {
	s.flush()
	if s.isProject && s.projectPath != "" {
		if !s.Dirty() {
			return nil
		}
		switch ask(p, s.ProjectName()) {
		case ChoiceSave:
			if err := s.SaveProject(s.projectPath); err != nil {
				return cancelled(err)
			}
		case ChoiceDiscard:
		default:
			return ErrUserCancelled
		}
		return nil
	}

	for i, d := range s.docs {
		if !d.Modified {
			continue
		}
		switch ask(p, d.Title) {
		case ChoiceSave:
			if err := s.saveDocumentAt(i, p); err != nil {
				return cancelled(err)
			}
		case ChoiceDiscard:
		default:
			return ErrUserCancelled
		}
	}
	return nil
}

func (s *Session) saveDocumentAt(index int, p Prompter) error {
	d := s.docs[index]
	path := d.BackingPath
	if path == "" {
		if p == nil {
			return ErrNoPath
		}
		var ok bool
		if path, ok = p.SavePath(suggestedName(d)); !ok || path == "" {
			return ErrUserCancelled
		}
	}
	return s.saveTo(d, path, p)
}

func (s *Session) saveTo(d *Document, path string, p Prompter) error {
	kind := rtedoc.KindForPath(path)
	switch kind {
	case rtedoc.KindProject:
		return s.SaveProject(path)
	case rtedoc.KindRich:
		if err := rtedoc.SaveRich(path, s.richSnapshot(d), s.saveOpts); err != nil {
			return fmt.Errorf("%w: save %s: %w", ErrIO, path, err)
		}
	default:
		if n := len(d.Images); n > 0 {
			if p == nil || !p.ConfirmDiscardImages(d.Title, n) {
				return ErrUserCancelled
			}
		}
		if err := rtedoc.SavePlain(path, d.Content); err != nil {
			return fmt.Errorf("%w: save %s: %w", ErrIO, path, err)
		}
	}

	d.Modified = false
	d.BackingPath = path
	d.Format = kind
	if isDefaultTitle(d.Title) {
		d.Title = filepath.Base(path)
		s.touchProject()
	}
	if d == s.docs[s.active] {
		s.surface.SetModified(false)
	}
	s.refreshTitle()
	s.log.Info("document saved",
		zap.String("path", path),
		zap.String("format", kind.String()),
		zap.Int("images", len(d.Images)),
	)
	return nil
}

func (s *Session) loadDocument(path string) (*Document, LoadReport, error) {
	var report LoadReport
	kind := rtedoc.KindForPath(path)
	d := &Document{Images: map[string]*ImageRecord{}, Cursor: rtedoc.StartPosition}
	switch kind {
	case rtedoc.KindRich:
		wire, err := rtedoc.LoadRich(path, s.loadOpts)
		if err != nil {
			return nil, report, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
		}
		d.Content = wire.Text
		for _, rec := range s.imagesFromEntries(d.Content, wire.Images, -1, &report) {
			d.addImage(rec)
		}
	default:
		text, err := rtedoc.LoadPlain(path)
		if err != nil {
			return nil, report, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
		}
		d.Content = text
	}
	d.Title = filepath.Base(path)
	d.BackingPath = path
	d.Format = kind
	return d, report, nil
}

// install places a freshly loaded Document, reusing the active tab when
// it holds nothing.
func (s *Session) install(d *Document) {
	s.flush()
	cur := s.docs[s.active]
	cur.releaseHandles()
	if cur.pristine() {
		d.ID = cur.ID
		s.docs[s.active] = d
	} else {
		s.nextDocID++
		d.ID = s.nextDocID
		s.docs = append(s.docs, d)
		s.active = len(s.docs) - 1
	}
	s.surface.Clear()
	s.push()
	s.touchProject()
	s.refreshTitle()
}

func suggestedName(d *Document) string {
	if filepath.Ext(d.Title) != "" {
		return d.Title
	}
	if len(d.Images) > 0 {
		return d.Title + rtedoc.ExtRich
	}
	return d.Title + ".txt"
}
