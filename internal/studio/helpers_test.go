package studio

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"renderstudio/internal/imagedata"
)

func pngBytes(t *testing.T, shade uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: shade, G: shade, B: shade, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func bmpBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))))
	return buf.Bytes()
}

func tiffBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1)), nil))
	return buf.Bytes()
}

// gatedContext parks the first Err call until release is closed, holding an
// upload inside its decode step.
type gatedContext struct {
	context.Context
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedContext() *gatedContext {
	return &gatedContext{
		Context: context.Background(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (c *gatedContext) Err() error {
	c.once.Do(func() {
		close(c.entered)
		<-c.release
	})
	return c.Context.Err()
}

type generateCall struct {
	prompt string
	images []imagedata.Payload
}

type fakeGenerator struct {
	mu      sync.Mutex
	noKey   bool
	result  imagedata.Payload
	err     error
	release chan struct{}
	started chan struct{}
	calls   []generateCall
}

func (f *fakeGenerator) HasCredentials() bool {
	return !f.noKey
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, images []imagedata.Payload) (imagedata.Payload, error) {
	f.mu.Lock()
	f.calls = append(f.calls, generateCall{prompt: prompt, images: images})
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.result, f.err
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type memoryExporter struct {
	files map[string][]byte
	err   error
}

func (m *memoryExporter) Write(_ context.Context, key string, data []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[key] = data
	return "/exports/" + key, nil
}
