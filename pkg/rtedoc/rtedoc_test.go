package rtedoc

import (
	"encoding/json"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRichRoundTripSaveLoad(t *testing.T) {
	doc := NewRichDocument("Hello\nworld")
	embedded := NewEmbeddedEntry(Position{Line: 2, Col: 3}, 0, 0)
	embedded.ImageData = "aGVsbG8="
	embedded.FilePath = "/tmp/a.png"
	embedded.Draggable = true
	floating := NewFloatingEntry(40, 12)
	floating.ImageData = "d29ybGQ="
	doc.Images = append(doc.Images, embedded, floating)

	path := filepath.Join(t.TempDir(), "note.rted")
	if err := SaveRich(path, doc, SaveOptions{}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := LoadRich(path, LoadOptions{})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Text != doc.Text {
		t.Fatalf("text mismatch: got %q want %q", loaded.Text, doc.Text)
	}
	if len(loaded.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(loaded.Images))
	}
	if loaded.Images[0].Position != "2.3" || !loaded.Images[0].Draggable {
		t.Fatalf("embedded entry mismatch: %#v", loaded.Images[0])
	}
	if x, y := loaded.Images[1].Coordinates(); x != 40 || y != 12 {
		t.Fatalf("floating coordinates mismatch: %d,%d", x, y)
	}
	for i, img := range loaded.Images {
		if err := img.Validate(); err != nil {
			t.Fatalf("image %d invalid: %v", i, err)
		}
	}
}

func TestRichWireShapeOmitsForeignPlacementFields(t *testing.T) {
	doc := NewRichDocument("x")
	e := NewEmbeddedEntry(StartPosition, 0, 0)
	e.ImageData = "AA=="
	f := NewFloatingEntry(0, 0)
	f.ImageData = "AA=="
	doc.Images = []ImageEntry{e, f}

	blob, err := EncodeRich(doc)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	var raw struct {
		Images []map[string]any `json:"images"`
	}
	if err := json.Unmarshal(blob, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw.Images[0]["x_offset"]; !ok {
		t.Fatalf("embedded entry should carry x_offset even when zero: %v", raw.Images[0])
	}
	if _, ok := raw.Images[0]["x"]; ok {
		t.Fatalf("embedded entry should not carry x: %v", raw.Images[0])
	}
	if _, ok := raw.Images[1]["x"]; !ok {
		t.Fatalf("floating entry should carry x even when zero: %v", raw.Images[1])
	}
	if _, ok := raw.Images[1]["position"]; ok {
		t.Fatalf("floating entry should not carry position: %v", raw.Images[1])
	}
}

func TestEmptyRichDocumentWritesEmptyImageList(t *testing.T) {
	blob, err := EncodeRich(&RichDocument{Text: ""})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(blob), `"images": []`) {
		t.Fatalf("expected empty image array, got %s", blob)
	}
	if !strings.Contains(string(blob), `"version": "1.0"`) {
		t.Fatalf("expected default version, got %s", blob)
	}
}

func TestDecodeRejectsUnsupportedVersion(t *testing.T) {
	_, err := DecodeRich([]byte(`{"version":"2.0","text":"","images":[]}`))
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	if _, err := DecodeRich([]byte(`{"text":`)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if _, err := DecodeProject([]byte(`[1,2]`)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for project, got %v", err)
	}
}

func TestImageEntryValidate(t *testing.T) {
	bad := []ImageEntry{
		{Type: "sticker", ImageData: "AA=="},
		{Type: TypeEmbedded, Position: "0.1", ImageData: "AA=="},
		{Type: TypeFloating, ImageData: "AA=="},
		{Type: TypeEmbedded, Position: "1.0"},
	}
	for i, e := range bad {
		if err := e.Validate(); err == nil {
			t.Fatalf("entry %d: expected validation error", i)
		}
	}
}

func TestProjectRoundTrip(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	p := NewProject("Notes", created)
	file := "/home/u/a.txt"
	accent := "#ff8800"
	img := NewEmbeddedEntry(Position{Line: 1, Col: 2}, 0, 0)
	img.Name = "pasted.png"
	img.ImageData = "AA=="
	p.Tabs = append(p.Tabs,
		Tab{ID: 1, Title: "a", Filename: &file, Content: "abc", CursorPos: "1.2", Images: []ImageEntry{img}, CustomColor: &accent},
		Tab{ID: 2, Title: "b", Content: "", CursorPos: "1.0"},
	)
	idx := 1
	p.CurrentTabIndex = &idx

	path := filepath.Join(t.TempDir(), "notes.rtep")
	if err := SaveProject(path, p, SaveOptions{}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := LoadProject(path, LoadOptions{})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.ProjectName != "Notes" || len(loaded.Tabs) != 2 {
		t.Fatalf("project mismatch: %#v", loaded)
	}
	if loaded.TabIndex() != 1 {
		t.Fatalf("expected tab index 1, got %d", loaded.TabIndex())
	}
	if loaded.Tabs[0].Filename == nil || *loaded.Tabs[0].Filename != file {
		t.Fatalf("filename mismatch: %v", loaded.Tabs[0].Filename)
	}
	if loaded.Tabs[1].Filename != nil || loaded.Tabs[1].CustomColor != nil {
		t.Fatalf("expected null filename and colour on second tab")
	}
	if loaded.Tabs[0].Images[0].Name != "pasted.png" {
		t.Fatalf("image name lost: %#v", loaded.Tabs[0].Images[0])
	}
	if got, ok := ParseTime(loaded.CreatedTime); !ok || !got.Equal(created) {
		t.Fatalf("created time mismatch: %q", loaded.CreatedTime)
	}
}

func TestProjectTabIndexClamps(t *testing.T) {
	p := &Project{Tabs: []Tab{{ID: 1}, {ID: 2}}}
	if p.TabIndex() != 0 {
		t.Fatalf("absent index should be 0")
	}
	idx := 7
	p.CurrentTabIndex = &idx
	if p.TabIndex() != 0 {
		t.Fatalf("out of range index should be 0")
	}
	idx = -1
	if p.TabIndex() != 0 {
		t.Fatalf("negative index should be 0")
	}
}

func TestDecodeProjectAcceptsDuplicateTabIDs(t *testing.T) {
	p, err := DecodeProject([]byte(`{"version":"1.0","tabs":[{"id":3,"title":"a"},{"id":3,"title":"b"}]}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(p.Tabs) != 2 {
		t.Fatalf("expected 2 tabs, got %d", len(p.Tabs))
	}
}

func TestEncodeProjectRejectsDuplicateTabIDs(t *testing.T) {
	p := NewProject("dup", time.Now())
	p.Tabs = []Tab{{ID: 3}, {ID: 3}}
	_, err := EncodeProject(p)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestParseTimeAcceptsZonelessISO(t *testing.T) {
	got, ok := ParseTime("2023-11-05T14:03:22.123456")
	if !ok {
		t.Fatalf("expected zone-less timestamp to parse")
	}
	if got.Year() != 2023 || got.Minute() != 3 {
		t.Fatalf("unexpected parse result %v", got)
	}
	if _, ok := ParseTime("yesterday"); ok {
		t.Fatalf("expected garbage to fail")
	}
}

func TestPlainRoundTripAndKindRouting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.py")
	if err := SavePlain(path, "print(1)\n"); err != nil {
		t.Fatal(err)
	}
	text, err := LoadPlain(path)
	if err != nil {
		t.Fatal(err)
	}
	if text != "print(1)\n" {
		t.Fatalf("plain text mismatch: %q", text)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file should be gone after atomic write")
	}

	cases := map[string]Kind{
		"a.txt":  KindPlain,
		"a.py":   KindPlain,
		"a":      KindPlain,
		"a.rted": KindRich,
		"A.RTED": KindRich,
		"b.rtep": KindProject,
	}
	for name, want := range cases {
		if got := KindForPath(name); got != want {
			t.Fatalf("KindForPath(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestLoadPlainRejectsInvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bin.txt")
	if err := os.WriteFile(path, []byte{0xff, 0xfe, 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPlain(path); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestEncryptedSaveRequiresPasswordOnLoad(t *testing.T) {
	doc := NewRichDocument("secret")
	path := filepath.Join(t.TempDir(), "encrypted.rted")
	err := SaveRich(path, doc, SaveOptions{
		Compression: true,
		Encryption:  EncryptionOptions{Enabled: true, Password: "hunter2"},
	})
	if err != nil {
		t.Fatalf("save encrypted failed: %v", err)
	}

	if _, err := LoadRich(path, LoadOptions{}); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}
	if _, err := LoadRich(path, LoadOptions{Password: "wrong"}); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	loaded, err := LoadRich(path, LoadOptions{Password: "hunter2"})
	if err != nil {
		t.Fatalf("expected successful decrypt load, got %v", err)
	}
	if loaded.Text != "secret" {
		t.Fatalf("decrypted text mismatch: %q", loaded.Text)
	}
}

func TestEncryptedSaveWithoutPasswordFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.rted")
	err := SaveRich(path, NewRichDocument("x"), SaveOptions{Encryption: EncryptionOptions{Enabled: true}})
	if !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("nothing should be written")
	}
}

func TestInspectEnvelopeFlags(t *testing.T) {
	p := NewProject("flags", time.Time{})
	p.Tabs = append(p.Tabs, Tab{ID: 1, Title: "t", Content: "abc", CursorPos: "1.0"})

	plain := filepath.Join(t.TempDir(), "plain.rtep")
	if err := SaveProject(plain, p, SaveOptions{}); err != nil {
		t.Fatalf("save plain failed: %v", err)
	}
	info, err := InspectEnvelope(plain)
	if err != nil {
		t.Fatalf("inspect plain failed: %v", err)
	}
	if info.Wrapped {
		t.Fatalf("expected plain file to be unwrapped")
	}

	compressed := filepath.Join(t.TempDir(), "compressed.rtep")
	if err := SaveProject(compressed, p, SaveOptions{Compression: true}); err != nil {
		t.Fatalf("save compressed failed: %v", err)
	}
	info, err = InspectEnvelope(compressed)
	if err != nil {
		t.Fatalf("inspect compressed failed: %v", err)
	}
	if !info.Wrapped || !info.Compressed || info.Encrypted {
		t.Fatalf("unexpected envelope flags: %#v", info)
	}
	loaded, err := LoadProject(compressed, LoadOptions{})
	if err != nil {
		t.Fatalf("load compressed failed: %v", err)
	}
	if loaded.Tabs[0].Content != "abc" {
		t.Fatalf("content mismatch after decompress: %q", loaded.Tabs[0].Content)
	}
}

func TestTruncatedEnvelopeIsRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.rted")
	if err := os.WriteFile(path, []byte(secureMagic+"\x01\x00"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRich(path, LoadOptions{}); !errors.Is(err, ErrInvalidSecureFile) {
		t.Fatalf("expected ErrInvalidSecureFile, got %v", err)
	}
}

func TestPositionParseFormat(t *testing.T) {
	p, err := ParsePosition("12.4")
	if err != nil {
		t.Fatal(err)
	}
	if p != (Position{Line: 12, Col: 4}) || p.String() != "12.4" {
		t.Fatalf("unexpected position %v", p)
	}
	for _, s := range []string{"", "3", "a.b", "0.0", "1.-1", "1.2.3"} {
		if _, err := ParsePosition(s); !errors.Is(err, ErrInvalidPosition) {
			t.Fatalf("ParsePosition(%q): expected ErrInvalidPosition, got %v", s, err)
		}
	}
}

func TestEndOfAndWithin(t *testing.T) {
	text := "héllo\nwo"
	if end := EndOf(text); end != (Position{Line: 2, Col: 2}) {
		t.Fatalf("unexpected end %v", end)
	}
	if EndOf("") != StartPosition {
		t.Fatalf("empty text should end at start")
	}
	if !Within(text, Position{Line: 1, Col: 5}) {
		t.Fatalf("1.5 should be within text (rune columns)")
	}
	if Within(text, Position{Line: 1, Col: 6}) || Within(text, Position{Line: 3, Col: 0}) {
		t.Fatalf("positions past the text should not be within")
	}
}

func TestColorParseFormat(t *testing.T) {
	c, err := ParseColor("#FF8000")
	if err != nil {
		t.Fatal(err)
	}
	if c != (color.RGBA{R: 0xff, G: 0x80, B: 0x00, A: 0xff}) {
		t.Fatalf("unexpected colour %#v", c)
	}
	if FormatColor(c) != "#ff8000" {
		t.Fatalf("unexpected format %q", FormatColor(c))
	}
	if c, err := ParseColor("#abc"); err != nil || FormatColor(c) != "#aabbcc" {
		t.Fatalf("short form failed: %v %v", c, err)
	}
	for _, s := range []string{"ff8000", "#ff80", "#gggggg"} {
		if _, err := ParseColor(s); !errors.Is(err, ErrInvalidColor) {
			t.Fatalf("ParseColor(%q): expected ErrInvalidColor, got %v", s, err)
		}
	}
}
