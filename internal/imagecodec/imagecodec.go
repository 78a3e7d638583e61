// Package imagecodec turns image files and embedded payloads into bitmaps,
// bitmaps into PNG payloads, and bitmaps into display sized copies.
package imagecodec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxWidth  = 400
	DefaultMaxHeight = 300
	// DefaultMaxPixels bounds the decoded size of a single bitmap.
	DefaultMaxPixels = 8192 * 8192
)

var (
	ErrDecode   = errors.New("imagecodec: cannot decode image")
	ErrEmpty    = errors.New("imagecodec: empty image")
	ErrTooLarge = errors.New("imagecodec: image too large")
)

// extensions lists the file extensions of every registered decoder.
var extensions = []string{"png", "jpg", "jpeg", "gif", "bmp", "tif", "tiff", "webp"}

// Extensions returns the image file extensions Decode understands, without
// the leading dot.
func Extensions() []string {
	return append([]string(nil), extensions...)
}

// Codec fits display copies into MaxWidth x MaxHeight and refuses to decode
// bitmaps of more than MaxPixels pixels.
type Codec struct {
	MaxWidth  int
	MaxHeight int
	MaxPixels int
}

func New(maxWidth, maxHeight int) *Codec {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	if maxHeight <= 0 {
		maxHeight = DefaultMaxHeight
	}
	return &Codec{MaxWidth: maxWidth, MaxHeight: maxHeight, MaxPixels: DefaultMaxPixels}
}

func Default() *Codec {
	return New(DefaultMaxWidth, DefaultMaxHeight)
}

func (c *Codec) DecodeFile(path string) (image.Image, string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return c.Decode(b)
}

// Decode sniffs the format from the payload header. The declared dimensions
// are checked against MaxPixels before any pixel data is read.
func (c *Codec) Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmpty
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", ErrEmpty
	}
	if limit := c.MaxPixels; limit > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(limit) {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, "", ErrEmpty
	}
	return img, format, nil
}

func (c *Codec) EncodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, ErrEmpty
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeBase64 returns the standard base64 form of the PNG encoding of img.
func (c *Codec) EncodeBase64(img image.Image) (string, error) {
	b, err := c.EncodePNG(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (c *Codec) DecodeBase64(payload string) (image.Image, error) {
	payload = strings.TrimSpace(payload)
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base64: %v", ErrDecode, err)
	}
	img, _, err := c.Decode(b)
	return img, err
}

// Thumbnail returns a fresh copy of img fitted into the codec's bounds. The
// aspect ratio is kept and images are never enlarged.
func (c *Codec) Thumbnail(img image.Image) *image.RGBA {
	src := img.Bounds()
	w, h := Fit(src.Dx(), src.Dy(), c.MaxWidth, c.MaxHeight)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == src.Dx() && h == src.Dy() {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Src)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, src, xdraw.Src, nil)
	return dst
}

// Fit scales w×h down to fit maxW×maxH.
func Fit(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	if w <= maxW && h <= maxH {
		return w, h
	}
	rw := float64(maxW) / float64(w)
	rh := float64(maxH) / float64(h)
	r := rw
	if rh < r {
		r = rh
	}
	nw := int(float64(w)*r + 0.5)
	nh := int(float64(h)*r + 0.5)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}
