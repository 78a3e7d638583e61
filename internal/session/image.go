package session

import (
	"image"

	"github.com/google/uuid"

	"topnote/pkg/rtedoc"
)

type Placement int

const (
	PlacementEmbedded Placement = iota
	PlacementFloating
)

func (p Placement) String() string {
	if p == PlacementFloating {
		return rtedoc.TypeFloating
	}
	return rtedoc.TypeEmbedded
}

// Default spot for new floating images.
const (
	DefaultFloatingX = 50
	DefaultFloatingY = 50
)

// Anchor is where an image sits. Pos is used by embedded images, X and Y by
// floating ones.
type Anchor struct {
	Placement Placement
	Pos       rtedoc.Position
	X, Y      int
	XOffset   int
	YOffset   int
}

// ImageRecord is one image owned by a Document. ID is assigned when the
// record is created and is not preserved across save and load.
type ImageRecord struct {
	ID         string
	Name       string
	Placement  Placement
	Pos        rtedoc.Position
	X, Y       int
	XOffset    int
	YOffset    int
	Draggable  bool
	SourcePath string

	Bitmap image.Image
	Handle image.Image
}

func newImageRecord(bitmap image.Image, name string, a Anchor, draggable bool) *ImageRecord {
	rec := &ImageRecord{
		ID:        uuid.NewString(),
		Name:      name,
		Draggable: draggable,
		Bitmap:    bitmap,
	}
	rec.setAnchor(a)
	return rec
}

func (r *ImageRecord) Anchor() Anchor {
	return Anchor{
		Placement: r.Placement,
		Pos:       r.Pos,
		X:         r.X,
		Y:         r.Y,
		XOffset:   r.XOffset,
		YOffset:   r.YOffset,
	}
}

func (r *ImageRecord) setAnchor(a Anchor) {
	r.Placement = a.Placement
	r.Pos = a.Pos
	r.X, r.Y = a.X, a.Y
	r.XOffset, r.YOffset = a.XOffset, a.YOffset
}
