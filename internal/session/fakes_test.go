package session

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"topnote/pkg/rtedoc"
)

type fakeSurface struct {
	content  string
	cursor   rtedoc.Position
	images   map[string]Anchor
	handles  map[string]image.Image
	modified bool
	clears   int
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		cursor:  rtedoc.StartPosition,
		images:  map[string]Anchor{},
		handles: map[string]image.Image{},
	}
}

func (f *fakeSurface) Content() string         { return f.content }
func (f *fakeSurface) SetContent(text string)  { f.content = text }
func (f *fakeSurface) Cursor() rtedoc.Position { return f.cursor }
func (f *fakeSurface) Modified() bool          { return f.modified }
func (f *fakeSurface) SetModified(m bool)      { f.modified = m }

func (f *fakeSurface) SetCursor(pos rtedoc.Position) bool {
	if !rtedoc.Within(f.content, pos) {
		return false
	}
	f.cursor = pos
	return true
}

func (f *fakeSurface) PlaceImage(rec *ImageRecord) {
	f.images[rec.ID] = rec.Anchor()
	f.handles[rec.ID] = rec.Handle
}

func (f *fakeSurface) RemoveImage(id string) {
	delete(f.images, id)
	delete(f.handles, id)
}

func (f *fakeSurface) ImagePlacement(id string) (Anchor, bool) {
	a, ok := f.images[id]
	return a, ok
}

func (f *fakeSurface) Clear() {
	f.content = ""
	f.cursor = rtedoc.StartPosition
	f.images = map[string]Anchor{}
	f.handles = map[string]image.Image{}
	f.modified = false
	f.clears++
}

// typeText appends text the way a user would, leaving the cursor at the end.
func (f *fakeSurface) typeText(text string) {
	f.content += text
	f.cursor = rtedoc.EndOf(f.content)
	f.modified = true
}

type fakePrompter struct {
	choice        Choice
	discardImages bool
	savePath      string

	unsavedAsked []string
	discardAsked int
	pathAsked    []string
}

func (p *fakePrompter) ConfirmUnsaved(name string) Choice {
	p.unsavedAsked = append(p.unsavedAsked, name)
	return p.choice
}

func (p *fakePrompter) ConfirmDiscardImages(name string, n int) bool {
	p.discardAsked++
	return p.discardImages
}

func (p *fakePrompter) SavePath(suggested string) (string, bool) {
	p.pathAsked = append(p.pathAsked, suggested)
	return p.savePath, p.savePath != ""
}

func pngBytes(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
