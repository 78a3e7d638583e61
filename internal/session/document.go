package session

import (
	"fmt"
	"image/color"
	"regexp"
	"strconv"

	"topnote/pkg/rtedoc"
)

var defaultTitleRE = regexp.MustCompile(`^untitled-(\d+)$`)

func defaultTitle(n int) string {
	return fmt.Sprintf("untitled-%d", n)
}

func isDefaultTitle(title string) bool {
	return defaultTitleRE.MatchString(title)
}

// untitledNumber returns N for a title of the form untitled-N.
func untitledNumber(title string) (int, bool) {
	m := defaultTitleRE.FindStringSubmatch(title)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

type Document struct {
	ID          int
	Title       string
	BackingPath string
	Content     string
	Images      map[string]*ImageRecord
	Cursor      rtedoc.Position
	Modified    bool
	CustomColor *color.RGBA
	Format      rtedoc.Kind

	order []string
}

func newDocument(id int, title string) *Document {
	return &Document{
		ID:     id,
		Title:  title,
		Images: map[string]*ImageRecord{},
		Cursor: rtedoc.StartPosition,
	}
}

// ImageList returns the images in insertion order.
func (d *Document) ImageList() []*ImageRecord {
	out := make([]*ImageRecord, 0, len(d.order))
	for _, id := range d.order {
		if rec, ok := d.Images[id]; ok {
			out = append(out, rec)
		}
	}
	return out
}

func (d *Document) Image(id string) (*ImageRecord, bool) {
	rec, ok := d.Images[id]
	return rec, ok
}

func (d *Document) addImage(rec *ImageRecord) {
	d.Images[rec.ID] = rec
	d.order = append(d.order, rec.ID)
}

func (d *Document) deleteImage(id string) bool {
	if _, ok := d.Images[id]; !ok {
		return false
	}
	delete(d.Images, id)
	for i, v := range d.order {
		if v == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return true
}

func (d *Document) releaseHandles() {
	for _, rec := range d.Images {
		rec.Handle = nil
	}
}

// pristine reports whether d can be replaced by an opened file without
// losing anything.
func (d *Document) pristine() bool {
	return isDefaultTitle(d.Title) &&
		d.Content == "" &&
		!d.Modified &&
		len(d.Images) == 0 &&
		d.BackingPath == ""
}
