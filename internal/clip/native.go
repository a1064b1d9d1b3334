package clip

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log/slog"
	"sync"

	"golang.design/x/clipboard"
)

// ErrUnavailable means the OS clipboard could not be acquired at startup
// (headless host, no display server). Fatal for clipboard sync; callers
// that only need chat can proceed without an adapter.
var ErrUnavailable = errors.New("clip: clipboard unavailable")

// native is the golang.design/x/clipboard backend. The OS clipboard speaks
// PNG for images; the envelope layer speaks raw RGBA + dimensions, so reads
// decode and writes re-encode at this boundary.
type native struct {
	mu sync.Mutex
}

// New initialises the system clipboard. clipboard.Init is called here rather
// than in init() so that chat-only invocations never touch the display.
func New() (Adapter, error) {
	if err := clipboard.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &native{}, nil
}

func (n *native) Name() string { return "system clipboard" }

func (n *native) ReadText() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	b := clipboard.Read(clipboard.FmtText)
	if b == nil {
		return "", false
	}
	return string(b), true
}

func (n *native) ReadImage() ([]byte, int, int, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	b := clipboard.Read(clipboard.FmtImage)
	if b == nil {
		return nil, 0, 0, false
	}
	pixels, w, h, err := pngToRGBA(b)
	if err != nil {
		// Treat an undecodable image as "no image this tick".
		slog.Debug("clipboard image not decodable", "err", err)
		return nil, 0, 0, false
	}
	return pixels, w, h, true
}

func (n *native) WriteText(text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

func (n *native) WriteImage(pixels []byte, width, height int) error {
	data, err := rgbaToPNG(pixels, width, height)
	if err != nil {
		return fmt.Errorf("clip: encode image: %w", err)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	clipboard.Write(clipboard.FmtImage, data)
	return nil
}

// pngToRGBA decodes clipboard PNG bytes into raw RGBA pixels.
func pngToRGBA(data []byte) ([]byte, int, int, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, err
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba.Pix, b.Dx(), b.Dy(), nil
}

// rgbaToPNG encodes raw RGBA pixels back into PNG for the clipboard.
func rgbaToPNG(pixels []byte, width, height int) ([]byte, error) {
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel buffer is %d bytes, want %d for %dx%d RGBA",
			len(pixels), width*height*4, width, height)
	}
	img := &image.RGBA{
		Pix:    pixels,
		Stride: 4 * width,
		Rect:   image.Rect(0, 0, width, height),
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
