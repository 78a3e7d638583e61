package imagecodec

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestFit(t *testing.T) {
	cases := []struct {
		w, h, mw, mh int
		ww, wh       int
	}{
		{100, 50, 400, 300, 100, 50},
		{800, 600, 400, 300, 400, 300},
		{800, 200, 400, 300, 400, 100},
		{300, 900, 400, 300, 100, 300},
		{4000, 1, 400, 300, 400, 1},
		{0, 10, 400, 300, 0, 0},
	}
	for _, tc := range cases {
		w, h := Fit(tc.w, tc.h, tc.mw, tc.mh)
		assert.Equal(t, tc.ww, w, "width for %dx%d", tc.w, tc.h)
		assert.Equal(t, tc.wh, h, "height for %dx%d", tc.w, tc.h)
	}
}

func TestThumbnailNeverUpscalesAndCopies(t *testing.T) {
	c := Default()
	src := solid(20, 10, color.RGBA{R: 200, A: 255})
	thumb := c.Thumbnail(src)
	require.Equal(t, image.Rect(0, 0, 20, 10), thumb.Bounds())
	assert.Equal(t, src.Pix, thumb.Pix)
	thumb.Pix[0] = 0
	assert.Equal(t, uint8(200), src.Pix[0], "thumbnail must not alias the source")

	big := solid(1000, 500, color.RGBA{G: 255, A: 255})
	thumb = c.Thumbnail(big)
	assert.Equal(t, 400, thumb.Bounds().Dx())
	assert.Equal(t, 200, thumb.Bounds().Dy())
}

func TestPNGBase64RoundTripIsLossless(t *testing.T) {
	c := Default()
	src := solid(3, 2, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	src.SetRGBA(2, 1, color.RGBA{R: 250, G: 128, B: 7, A: 255})

	payload, err := c.EncodeBase64(src)
	require.NoError(t, err)
	got, err := c.DecodeBase64(payload)
	require.NoError(t, err)
	require.Equal(t, src.Bounds(), got.Bounds())
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			r1, g1, b1, a1 := src.At(x, y).RGBA()
			r2, g2, b2, a2 := got.At(x, y).RGBA()
			assert.Equal(t, [4]uint32{r1, g1, b1, a1}, [4]uint32{r2, g2, b2, a2}, "pixel %d,%d", x, y)
		}
	}
}

func TestDecodeSniffsRegisteredFormats(t *testing.T) {
	c := Default()
	src := solid(4, 4, color.RGBA{B: 255, A: 255})

	var jb bytes.Buffer
	require.NoError(t, jpeg.Encode(&jb, src, nil))
	_, format, err := c.Decode(jb.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	var bb bytes.Buffer
	require.NoError(t, bmp.Encode(&bb, src))
	path := filepath.Join(t.TempDir(), "pic.bmp")
	require.NoError(t, os.WriteFile(path, bb.Bytes(), 0o644))
	img, format, err := c.DecodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, "bmp", format)
	assert.Equal(t, 4, img.Bounds().Dx())
}

func TestDecodeFailures(t *testing.T) {
	c := Default()
	_, _, err := c.Decode(nil)
	assert.ErrorIs(t, err, ErrEmpty)
	_, _, err = c.Decode([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrDecode)
	_, err = c.DecodeBase64("@@@")
	assert.ErrorIs(t, err, ErrDecode)
	_, _, err = c.DecodeFile(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestExtensionsCoverRegisteredDecoders(t *testing.T) {
	exts := Extensions()
	for _, want := range []string{"png", "jpg", "gif", "bmp", "tiff", "webp"} {
		assert.Contains(t, exts, want)
	}
	exts[0] = "changed"
	assert.Equal(t, "png", Extensions()[0])

	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, solid(3, 2, color.RGBA{G: 200, A: 255}), nil))
	img, format, err := Default().Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "tiff", format)
	assert.Equal(t, 3, img.Bounds().Dx())
}

// hugePNG returns a small PNG whose header claims w x h pixels.
func hugePNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(1, 1, color.RGBA{A: 255})))
	b := buf.Bytes()
	require.Equal(t, "IHDR", string(b[12:16]))
	binary.BigEndian.PutUint32(b[16:20], w)
	binary.BigEndian.PutUint32(b[20:24], h)
	binary.BigEndian.PutUint32(b[29:33], crc32.ChecksumIEEE(b[12:29]))
	return b
}

func TestDecodeRejectsOversizedHeaderBeforeDecoding(t *testing.T) {
	c := Default()
	_, _, err := c.Decode(hugePNG(t, 100000, 100000))
	assert.ErrorIs(t, err, ErrTooLarge)

	small := New(10, 10)
	small.MaxPixels = 15
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(4, 4, color.RGBA{A: 255})))
	_, _, err = small.Decode(buf.Bytes())
	assert.ErrorIs(t, err, ErrTooLarge)

	small.MaxPixels = 16
	img, _, err := small.Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
}

func TestNewAppliesDefaults(t *testing.T) {
	c := New(0, -1)
	assert.Equal(t, DefaultMaxWidth, c.MaxWidth)
	assert.Equal(t, DefaultMaxHeight, c.MaxHeight)
	assert.Equal(t, DefaultMaxPixels, c.MaxPixels)
}
