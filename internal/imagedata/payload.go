// Package imagedata converts image bytes to and from the base64 data URI form
// used for every image a session holds, whether uploaded or generated.
package imagedata

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrEmpty          = errors.New("imagedata: empty data")
	ErrNotImage       = errors.New("imagedata: not an image")
	ErrInvalidPayload = errors.New("imagedata: invalid data uri")
)

// Payload is a self-contained "data:<mime>;base64,<data>" string usable both
// as a display source and as an API image reference.
type Payload string

// Info describes a decodable image.
type Info struct {
	Format string
	Width  int
	Height int
}

// Encode wraps data in a data URI. The MIME type is sniffed from the bytes;
// declaredMIME is only consulted when sniffing does not recognise an image.
func Encode(data []byte, declaredMIME string) (Payload, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	mimeType := normalizeMIME(http.DetectContentType(data))
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = normalizeMIME(declaredMIME)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "", ErrNotImage
	}
	return Payload("data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)), nil
}

// Decode splits a payload back into its MIME type and raw bytes.
func Decode(p Payload) (string, []byte, error) {
	raw := strings.TrimSpace(string(p))
	if !strings.HasPrefix(raw, "data:") {
		return "", nil, ErrInvalidPayload
	}
	header, body, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok {
		return "", nil, ErrInvalidPayload
	}
	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidPayload)
	}
	data, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return normalizeMIME(mimeType), data, nil
}

// MIME returns the media type recorded in the payload header.
func (p Payload) MIME() string {
	header, _, ok := strings.Cut(strings.TrimPrefix(string(p), "data:"), ",")
	if !ok {
		return ""
	}
	return normalizeMIME(strings.TrimSuffix(header, ";base64"))
}

// Inspect decodes the image header of data. It fails for anything the
// registered decoders (bmp, gif, jpeg, png, tiff, webp) cannot read.
func Inspect(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, ErrEmpty
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

func normalizeMIME(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return strings.ToLower(value)
	}
	if mediaType == "image/jpg" {
		return "image/jpeg"
	}
	return mediaType
}
