// Package session holds the open documents of one window and moves them
// between the display surface and the on-disk formats.
package session

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"topnote/internal/imagecodec"
	"topnote/pkg/rtedoc"
)

type Options struct {
	Logger *zap.Logger
	Codec  *imagecodec.Codec
	Save   rtedoc.SaveOptions
	Load   rtedoc.LoadOptions
	// OnTitle receives the window title every time it is recomputed.
	OnTitle func(title string)
}

// Session owns every open Document. It is not safe for concurrent use.
type Session struct {
	docs        []*Document
	active      int
	nextDocID   int
	untitledSeq int

	projectPath     string
	projectName     string
	projectModified bool
	isProject       bool
	created         time.Time

	surface  Surface
	codec    *imagecodec.Codec
	saveOpts rtedoc.SaveOptions
	loadOpts rtedoc.LoadOptions
	log      *zap.Logger
	onTitle  func(string)
}

func New(surface Surface, opts Options) *Session {
	s := &Session{
		surface:  surface,
		codec:    opts.Codec,
		saveOpts: opts.Save,
		loadOpts: opts.Load,
		log:      opts.Logger,
		onTitle:  opts.OnTitle,
	}
	if s.codec == nil {
		s.codec = imagecodec.Default()
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.docs = []*Document{s.allocDocument("")}
	s.surface.Clear()
	s.push()
	s.refreshTitle()
	return s
}

func (s *Session) Documents() []*Document {
	return append([]*Document(nil), s.docs...)
}

func (s *Session) Len() int            { return len(s.docs) }
func (s *Session) ActiveIndex() int    { return s.active }
func (s *Session) Active() *Document   { return s.docs[s.active] }
func (s *Session) ProjectPath() string { return s.projectPath }
func (s *Session) IsProject() bool     { return s.isProject }
func (s *Session) Created() time.Time  { return s.created }

func (s *Session) ProjectName() string {
	if s.projectName == "" && s.projectPath != "" {
		return stem(s.projectPath)
	}
	return s.projectName
}

func (s *Session) ProjectModified() bool { return s.projectModified }

func (s *Session) Document(index int) (*Document, error) {
	if err := s.checkIndex(index); err != nil {
		return nil, err
	}
	return s.docs[index], nil
}

// Dirty reports whether anything would be lost by discarding the session.
func (s *Session) Dirty() bool {
	if s.projectModified {
		return true
	}
	for i, d := range s.docs {
		if d.Modified || (i == s.active && s.surface.Modified()) {
			return true
		}
	}
	return false
}

// WindowTitle is derived from current state on every call.
func (s *Session) WindowTitle() string {
	name := s.docs[s.active].Title
	if s.isProject {
		name = s.ProjectName()
	}
	if s.Dirty() {
		return "*" + name
	}
	return name
}

func (s *Session) SetProjectName(name string) {
	name = strings.TrimSpace(name)
	if name == "" || name == s.projectName {
		return
	}
	s.projectName = name
	s.isProject = true
	s.projectModified = true
	s.refreshTitle()
}

// SetStorageOptions changes how later saves wrap files and which password
// later loads try.
func (s *Session) SetStorageOptions(save rtedoc.SaveOptions, load rtedoc.LoadOptions) {
	s.saveOpts = save
	s.loadOpts = load
}

func (s *Session) StorageOptions() (rtedoc.SaveOptions, rtedoc.LoadOptions) {
	return s.saveOpts, s.loadOpts
}

func (s *Session) CreateDocument(title string) *Document {
	s.flush()
	s.docs[s.active].releaseHandles()

	d := s.allocDocument(title)
	s.docs = append(s.docs, d)
	s.active = len(s.docs) - 1
	s.surface.Clear()
	s.push()
	s.touchProject()
	s.refreshTitle()
	s.log.Debug("document created", zap.Int("id", d.ID), zap.String("title", d.Title))
	return d
}

func (s *Session) Activate(index int) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	s.flush()
	s.docs[s.active].releaseHandles()
	s.active = index
	s.surface.Clear()
	s.push()
	s.refreshTitle()
	return nil
}

// CloseDocument removes the document at index, offering to save it first
// when it has unsaved changes.
func (s *Session) CloseDocument(index int, p Prompter) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	if len(s.docs) == 1 {
		return ErrCannotCloseLastDocument
	}
	s.flush()

	d := s.docs[index]
	if d.Modified {
		switch ask(p, d.Title) {
		case ChoiceSave:
			if err := s.saveDocumentAt(index, p); err != nil {
				return cancelled(err)
			}
		case ChoiceDiscard:
		default:
			return ErrUserCancelled
		}
	}

	d.releaseHandles()
	s.docs = append(s.docs[:index], s.docs[index+1:]...)
	switch {
	case index < s.active:
		s.active--
	case s.active >= len(s.docs):
		s.active = len(s.docs) - 1
	}
	s.surface.Clear()
	s.push()
	s.touchProject()
	s.refreshTitle()
	s.log.Debug("document closed", zap.Int("id", d.ID), zap.String("title", d.Title))
	return nil
}

func (s *Session) Rename(index int, title string) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	title = strings.TrimSpace(title)
	d := s.docs[index]
	if title == "" || title == d.Title {
		return nil
	}
	d.Title = title
	s.touchProject()
	s.refreshTitle()
	return nil
}

// SetCustomColor sets or, with nil, clears the tab accent colour.
func (s *Session) SetCustomColor(index int, c *color.RGBA) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	d := s.docs[index]
	if c == nil {
		d.CustomColor = nil
	} else {
		cc := *c
		d.CustomColor = &cc
	}
	s.touchProject()
	s.refreshTitle()
	return nil
}

// MarkEdited is called by the surface owner after the user changed text.
func (s *Session) MarkEdited() {
	s.flush()
	s.refreshTitle()
}

// Flush copies the live surface state into the active Document.
func (s *Session) Flush() {
	s.flush()
}

func (s *Session) InsertImageFile(path string, placement Placement, draggable bool) (*ImageRecord, error) {
	bmp, _, err := s.codec.DecodeFile(path)
	if err != nil {
		if errors.Is(err, imagecodec.ErrDecode) || errors.Is(err, imagecodec.ErrEmpty) {
			return nil, fmt.Errorf("%w: %s: %w", ErrDecodeFailure, path, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return s.insertImage(bmp, filepath.Base(path), path, placement, draggable), nil
}

// InsertImageData inserts an encoded image, typically pasted from the
// clipboard.
func (s *Session) InsertImageData(data []byte, name string, placement Placement, draggable bool) (*ImageRecord, error) {
	bmp, _, err := s.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailure, err)
	}
	return s.insertImage(bmp, name, "", placement, draggable), nil
}

func (s *Session) MoveImage(id string, to Anchor) error {
	d := s.docs[s.active]
	rec, ok := d.Images[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrImageNotFound, id)
	}
	if to.Placement == PlacementEmbedded && !rtedoc.Within(s.surface.Content(), to.Pos) {
		return fmt.Errorf("%w: %s", ErrInvalidPosition, to.Pos)
	}
	rec.setAnchor(to)
	s.surface.PlaceImage(rec)
	s.markModified(d)
	return nil
}

func (s *Session) RemoveImage(id string) error {
	d := s.docs[s.active]
	if _, ok := d.Images[id]; !ok {
		return fmt.Errorf("%w: %s", ErrImageNotFound, id)
	}
	s.surface.RemoveImage(id)
	d.deleteImage(id)
	s.markModified(d)
	return nil
}

func (s *Session) insertImage(bmp image.Image, name, source string, placement Placement, draggable bool) *ImageRecord {
	s.flush()
	d := s.docs[s.active]
	a := Anchor{Placement: placement}
	if placement == PlacementEmbedded {
		a.Pos = s.surface.Cursor()
	} else {
		a.X, a.Y = DefaultFloatingX, DefaultFloatingY
	}
	rec := newImageRecord(bmp, name, a, draggable)
	rec.SourcePath = source
	rec.Handle = s.codec.Thumbnail(bmp)
	d.addImage(rec)
	s.surface.PlaceImage(rec)
	s.markModified(d)
	s.log.Debug("image inserted",
		zap.String("id", rec.ID),
		zap.String("placement", placement.String()),
		zap.String("source", source),
	)
	return rec
}

func (s *Session) allocDocument(title string) *Document {
	s.nextDocID++
	if title == "" {
		for title == "" || s.titleTaken(title) {
			s.untitledSeq++
			title = defaultTitle(s.untitledSeq)
		}
	}
	return newDocument(s.nextDocID, title)
}

func (s *Session) titleTaken(title string) bool {
	for _, d := range s.docs {
		if d.Title == title {
			return true
		}
	}
	return false
}

func (s *Session) checkIndex(index int) error {
	if index < 0 || index >= len(s.docs) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, index, len(s.docs))
	}
	return nil
}

func (s *Session) flush() {
	d := s.docs[s.active]
	d.Content = s.surface.Content()
	d.Cursor = s.surface.Cursor()
	if m := s.surface.Modified(); m != d.Modified {
		if m {
			s.touchProject()
		}
		d.Modified = m
	}
	for _, rec := range d.Images {
		if a, ok := s.surface.ImagePlacement(rec.ID); ok {
			rec.setAnchor(a)
		}
	}
}

// push shows the active Document. Display handles are always rebuilt from
// the bitmap.
func (s *Session) push() {
	d := s.docs[s.active]
	s.surface.SetContent(d.Content)
	if !s.surface.SetCursor(d.Cursor) {
		d.Cursor = rtedoc.StartPosition
		s.surface.SetCursor(d.Cursor)
	}
	for _, rec := range d.ImageList() {
		rec.Handle = s.codec.Thumbnail(rec.Bitmap)
		s.surface.PlaceImage(rec)
	}
	s.surface.SetModified(d.Modified)
}

func (s *Session) markModified(d *Document) {
	d.Modified = true
	if d == s.docs[s.active] {
		s.surface.SetModified(true)
	}
	s.touchProject()
	s.refreshTitle()
}

func (s *Session) touchProject() {
	if s.isProject || s.projectPath != "" {
		s.projectModified = true
	}
}

func (s *Session) refreshTitle() {
	if s.onTitle != nil {
		s.onTitle(s.WindowTitle())
	}
}

func ask(p Prompter, name string) Choice {
	if p == nil {
		return ChoiceCancel
	}
	return p.ConfirmUnsaved(name)
}

func cancelled(err error) error {
	if errors.Is(err, ErrUserCancelled) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUserCancelled, err)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
