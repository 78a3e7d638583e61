package rtedoc

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	FormatVersion = "1.0"

	ExtRich    = ".rted"
	ExtProject = ".rtep"

	TypeEmbedded = "embedded"
	TypeFloating = "floating"
)

type Kind int

const (
	KindPlain Kind = iota
	KindRich
	KindProject
)

func (k Kind) String() string {
	switch k {
	case KindRich:
		return "rich"
	case KindProject:
		return "project"
	default:
		return "plain"
	}
}

// KindForPath routes a file to its format by extension.
func KindForPath(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtProject:
		return KindProject
	case ExtRich:
		return KindRich
	default:
		return KindPlain
	}
}

type SaveOptions struct {
	Compression bool
	Encryption  EncryptionOptions
}

type EncryptionOptions struct {
	Enabled  bool
	Password string
}

type LoadOptions struct {
	Password string
}

// ImageEntry is one image in a rich document or project tab. Placement
// specific fields are pointers so that only the fields of the entry's type
// are written.
type ImageEntry struct {
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
	FilePath  string `json:"file_path"`
	ImageData string `json:"image_data"`
	Draggable bool   `json:"draggable"`

	Position string `json:"position,omitempty"`
	XOffset  *int   `json:"x_offset,omitempty"`
	YOffset  *int   `json:"y_offset,omitempty"`

	X *int `json:"x,omitempty"`
	Y *int `json:"y,omitempty"`
}

func NewEmbeddedEntry(pos Position, xOffset, yOffset int) ImageEntry {
	return ImageEntry{
		Type:     TypeEmbedded,
		Position: pos.String(),
		XOffset:  intPtr(xOffset),
		YOffset:  intPtr(yOffset),
	}
}

func NewFloatingEntry(x, y int) ImageEntry {
	return ImageEntry{
		Type: TypeFloating,
		X:    intPtr(x),
		Y:    intPtr(y),
	}
}

// Validate reports problems local to a single entry. Callers treat these as
// per-image failures, not as a malformed file.
func (e ImageEntry) Validate() error {
	switch e.Type {
	case TypeEmbedded:
		if _, err := ParsePosition(e.Position); err != nil {
			return err
		}
	case TypeFloating:
		if e.X == nil || e.Y == nil {
			return fmt.Errorf("%w: floating image without coordinates", ErrMalformed)
		}
	default:
		return fmt.Errorf("%w: unknown image type %q", ErrMalformed, e.Type)
	}
	if strings.TrimSpace(e.ImageData) == "" {
		return fmt.Errorf("%w: image has no data", ErrMalformed)
	}
	return nil
}

func (e ImageEntry) Offsets() (int, int) {
	return derefInt(e.XOffset), derefInt(e.YOffset)
}

func (e ImageEntry) Coordinates() (int, int) {
	return derefInt(e.X), derefInt(e.Y)
}

type RichDocument struct {
	Version string       `json:"version"`
	Text    string       `json:"text"`
	Images  []ImageEntry `json:"images"`
}

type Project struct {
	Version         string `json:"version"`
	ProjectName     string `json:"project_name"`
	CreatedTime     string `json:"created_time"`
	ModifiedTime    string `json:"modified_time"`
	CurrentTabIndex *int   `json:"current_tab_index,omitempty"`
	Tabs            []Tab  `json:"tabs"`
}

type Tab struct {
	ID          int          `json:"id"`
	Title       string       `json:"title"`
	Filename    *string      `json:"filename"`
	Content     string       `json:"content"`
	Images      []ImageEntry `json:"images"`
	Modified    bool         `json:"modified"`
	CursorPos   string       `json:"cursor_pos"`
	CustomColor *string      `json:"custom_color"`
}

// TabIndex returns current_tab_index clamped into the tab range, 0 when it
// is absent or out of range.
func (p *Project) TabIndex() int {
	if p == nil || p.CurrentTabIndex == nil {
		return 0
	}
	idx := *p.CurrentTabIndex
	if idx < 0 || idx >= len(p.Tabs) {
		return 0
	}
	return idx
}

var (
	ErrUnsupportedVersion = errors.New("rtedoc: unsupported version")
	ErrMalformed          = errors.New("rtedoc: malformed document")
	ErrInvalidPosition    = errors.New("rtedoc: invalid text position")
	ErrInvalidColor       = errors.New("rtedoc: invalid color")
	ErrPasswordRequired   = errors.New("rtedoc: password required")
	ErrInvalidPassword    = errors.New("rtedoc: invalid password")
	ErrInvalidSecureFile  = errors.New("rtedoc: invalid secure file")
)

func NewRichDocument(text string) *RichDocument {
	return &RichDocument{Version: FormatVersion, Text: text, Images: []ImageEntry{}}
}

func NewProject(name string, created time.Time) *Project {
	now := time.Now()
	if created.IsZero() {
		created = now
	}
	return &Project{
		Version:      FormatVersion,
		ProjectName:  name,
		CreatedTime:  FormatTime(created),
		ModifiedTime: FormatTime(now),
		Tabs:         []Tab{},
	}
}

func SaveRich(path string, doc *RichDocument, opts SaveOptions) error {
	blob, err := EncodeRich(doc)
	if err != nil {
		return err
	}
	return writeBlob(path, blob, opts)
}

func LoadRich(path string, opts LoadOptions) (*RichDocument, error) {
	b, err := readBlob(path, opts)
	if err != nil {
		return nil, err
	}
	return DecodeRich(b)
}

func EncodeRich(doc *RichDocument) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("rtedoc: document is nil")
	}
	if doc.Version == "" {
		doc.Version = FormatVersion
	}
	if doc.Images == nil {
		doc.Images = []ImageEntry{}
	}
	if !utf8.ValidString(doc.Text) {
		return nil, fmt.Errorf("%w: text is not valid UTF-8", ErrMalformed)
	}
	return json.MarshalIndent(doc, "", "  ")
}

func DecodeRich(b []byte) (*RichDocument, error) {
	var doc RichDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := checkVersion(doc.Version); err != nil {
		return nil, err
	}
	if doc.Images == nil {
		doc.Images = []ImageEntry{}
	}
	return &doc, nil
}

func SaveProject(path string, p *Project, opts SaveOptions) error {
	blob, err := EncodeProject(p)
	if err != nil {
		return err
	}
	return writeBlob(path, blob, opts)
}

func LoadProject(path string, opts LoadOptions) (*Project, error) {
	b, err := readBlob(path, opts)
	if err != nil {
		return nil, err
	}
	return DecodeProject(b)
}

func EncodeProject(p *Project) ([]byte, error) {
	if err := ValidateProject(p); err != nil {
		return nil, err
	}
	if p.Version == "" {
		p.Version = FormatVersion
	}
	for i := range p.Tabs {
		if p.Tabs[i].Images == nil {
			p.Tabs[i].Images = []ImageEntry{}
		}
	}
	return json.MarshalIndent(p, "", "  ")
}

func DecodeProject(b []byte) (*Project, error) {
	var p Project
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := checkVersion(p.Version); err != nil {
		return nil, err
	}
	if err := validateProjectText(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ValidateProject checks a project before it is written. Tab ids read back
// from disk are metadata only, so decoding does not require them unique.
func ValidateProject(p *Project) error {
	if err := validateProjectText(p); err != nil {
		return err
	}
	seen := map[int]struct{}{}
	for _, tab := range p.Tabs {
		if _, dup := seen[tab.ID]; dup && tab.ID != 0 {
			return fmt.Errorf("%w: duplicate tab id %d", ErrMalformed, tab.ID)
		}
		seen[tab.ID] = struct{}{}
	}
	return nil
}

func validateProjectText(p *Project) error {
	if p == nil {
		return errors.New("rtedoc: project is nil")
	}
	if !utf8.ValidString(p.ProjectName) {
		return fmt.Errorf("%w: project name must be valid UTF-8", ErrMalformed)
	}
	for i, tab := range p.Tabs {
		if !utf8.ValidString(tab.Title) || !utf8.ValidString(tab.Content) {
			return fmt.Errorf("%w: tab[%d] must be valid UTF-8", ErrMalformed, i)
		}
	}
	return nil
}

func SavePlain(path, text string) error {
	return writeFileAtomic(path, []byte(text))
}

func LoadPlain(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrMalformed, filepath.Base(path))
	}
	return string(b), nil
}

func FormatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTime accepts RFC3339 and the zone-less ISO8601 forms older project
// files were written with.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func checkVersion(v string) error {
	if v == "" {
		return nil
	}
	major, _, _ := strings.Cut(v, ".")
	if major != "1" {
		return fmt.Errorf("%w: %s", ErrUnsupportedVersion, v)
	}
	return nil
}

func writeBlob(path string, blob []byte, opts SaveOptions) error {
	var err error
	if opts.Encryption.Enabled && strings.TrimSpace(opts.Encryption.Password) == "" {
		return ErrPasswordRequired
	}
	if opts.Compression || opts.Encryption.Enabled {
		blob, err = encodeSecureEnvelope(blob, opts)
		if err != nil {
			return err
		}
	}
	return writeFileAtomic(path, blob)
}

func readBlob(path string, opts LoadOptions) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if isSecureEnvelope(b) {
		return decodeSecureEnvelope(b, opts)
	}
	return b, nil
}

func writeFileAtomic(path string, blob []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func intPtr(v int) *int { return &v }

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
