package imagedata

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEncodeSniffsImageType(t *testing.T) {
	data := pngBytes(t, 4, 3)

	p, err := Encode(data, "application/octet-stream")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(p), "data:image/png;base64,"))
	assert.Equal(t, "image/png", p.MIME())

	mimeType, decoded, err := Decode(p)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, data, decoded)
}

func TestEncodeFallsBackToDeclaredType(t *testing.T) {
	p, err := Encode([]byte("opaque bytes"), "image/JPG")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", p.MIME())
}

func TestEncodeRejectsNonImages(t *testing.T) {
	_, err := Encode([]byte("plain text"), "")
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = Encode(nil, "image/png")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestDecodeRejectsMalformedPayloads(t *testing.T) {
	cases := []Payload{
		"https://example.com/a.png",
		"data:image/png;base64",
		"data:image/png,raw",
		"data:image/png;base64,!!!",
	}
	for _, p := range cases {
		_, _, err := Decode(p)
		assert.ErrorIs(t, err, ErrInvalidPayload, "payload %q", p)
	}
}

func TestInspect(t *testing.T) {
	info, err := Inspect(pngBytes(t, 7, 5))
	require.NoError(t, err)
	assert.Equal(t, Info{Format: "png", Width: 7, Height: 5}, info)

	_, err = Inspect([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestInspectBitmapAndTIFF(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))

	var bmpBuf bytes.Buffer
	require.NoError(t, bmp.Encode(&bmpBuf, img))
	info, err := Inspect(bmpBuf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, Info{Format: "bmp", Width: 2, Height: 1}, info)

	var tiffBuf bytes.Buffer
	require.NoError(t, tiff.Encode(&tiffBuf, img, nil))
	info, err = Inspect(tiffBuf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, Info{Format: "tiff", Width: 2, Height: 1}, info)
}
