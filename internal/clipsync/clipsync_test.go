package clipsync

import (
	"context"
	"sync"

	"github.com/clipwave/clipwave/internal/envelope"
)

// fakeAdapter is an in-memory clipboard. Writes update what subsequent reads
// see, which is exactly how echoes arise on a real clipboard.
type fakeAdapter struct {
	mu sync.Mutex

	text    string
	hasText bool

	pixels   []byte
	imgW     int
	imgH     int
	hasImage bool

	writeErr error

	textWrites  []string
	imageWrites [][]byte
}

func (f *fakeAdapter) Name() string { return "fake" }

func (f *fakeAdapter) setText(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = s
	f.hasText = true
}

func (f *fakeAdapter) clearText() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = ""
	f.hasText = false
}

func (f *fakeAdapter) setImage(pixels []byte, w, h int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pixels = pixels
	f.imgW = w
	f.imgH = h
	f.hasImage = true
}

func (f *fakeAdapter) ReadText() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text, f.hasText
}

func (f *fakeAdapter) ReadImage() ([]byte, int, int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.hasImage {
		return nil, 0, 0, false
	}
	return f.pixels, f.imgW, f.imgH, true
}

func (f *fakeAdapter) WriteText(s string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.textWrites = append(f.textWrites, s)
	f.text = s
	f.hasText = true
	return nil
}

func (f *fakeAdapter) WriteImage(pixels []byte, w, h int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.imageWrites = append(f.imageWrites, pixels)
	f.pixels = pixels
	f.imgW = w
	f.imgH = h
	f.hasImage = true
	return nil
}

// fakeTransport records publishes and reports a configurable peer count.
type fakeTransport struct {
	mu        sync.Mutex
	peers     int
	publishes []publishCall
	err       error
}

type publishCall struct {
	topic string
	data  []byte
}

func (f *fakeTransport) Publish(_ context.Context, topic string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.publishes = append(f.publishes, publishCall{topic: topic, data: data})
	return nil
}

func (f *fakeTransport) PeerCount(string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peers
}

// collector gathers detector emissions.
type collector struct {
	mu   sync.Mutex
	envs []envelope.Envelope
}

func (c *collector) emit(env envelope.Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.envs = append(c.envs, env)
}

func (c *collector) all() []envelope.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]envelope.Envelope(nil), c.envs...)
}
