package clipsync

import (
	"testing"

	"github.com/clipwave/clipwave/internal/envelope"
)

func newTestDetector(adapter *fakeAdapter) (*Detector, *State, *collector) {
	state := NewState()
	c := &collector{}
	d := NewDetector(adapter, state, DefaultInterval, c.emit)
	return d, state, c
}

func textOf(t *testing.T, env envelope.Envelope) string {
	t.Helper()
	s, ok := env.AsText()
	if !ok {
		t.Fatalf("envelope kind %q is not text", env.Kind)
	}
	return s
}

func TestDetectorEmitsOnChange(t *testing.T) {
	adapter := &fakeAdapter{}
	d, _, c := newTestDetector(adapter)

	adapter.setText("hello")
	d.Tick()

	envs := c.all()
	if len(envs) != 1 {
		t.Fatalf("emissions = %d, want 1", len(envs))
	}
	if got := textOf(t, envs[0]); got != "hello" {
		t.Errorf("emitted text = %q, want %q", got, "hello")
	}
}

func TestDetectorIdempotentRedetection(t *testing.T) {
	adapter := &fakeAdapter{}
	d, _, c := newTestDetector(adapter)

	adapter.setText("stable")
	d.Tick()
	d.Tick()
	d.Tick()

	if got := len(c.all()); got != 1 {
		t.Errorf("emissions over 3 identical ticks = %d, want 1", got)
	}
}

func TestDetectorEchoSuppression(t *testing.T) {
	adapter := &fakeAdapter{}
	d, state, c := newTestDetector(adapter)

	// An inbound envelope was applied: state updated, clipboard written.
	applier := NewApplier(adapter, state)
	if err := applier.Apply(envelope.NewText("from network")); err != nil {
		t.Fatal(err)
	}

	// The next tick samples exactly what was just applied.
	d.Tick()

	if got := len(c.all()); got != 0 {
		t.Errorf("emissions after applying inbound content = %d, want 0", got)
	}
}

func TestDetectorTextPrecedence(t *testing.T) {
	adapter := &fakeAdapter{}
	d, _, c := newTestDetector(adapter)

	// Both a new text and a new image appear in the same tick.
	adapter.setText("caption")
	adapter.setImage([]byte{1, 2, 3, 4}, 1, 1)
	d.Tick()

	envs := c.all()
	if len(envs) != 1 {
		t.Fatalf("emissions = %d, want 1", len(envs))
	}
	if envs[0].Kind != envelope.KindText {
		t.Errorf("emitted kind = %q, want %q", envs[0].Kind, envelope.KindText)
	}
}

func TestDetectorImageAfterTextSettles(t *testing.T) {
	adapter := &fakeAdapter{}
	d, _, c := newTestDetector(adapter)

	adapter.setText("caption")
	adapter.setImage([]byte{1, 2, 3, 4}, 1, 1)
	d.Tick() // text wins, image tracking reset
	d.Tick() // no text change; image is evaluated now

	envs := c.all()
	if len(envs) != 2 {
		t.Fatalf("emissions = %d, want 2", len(envs))
	}
	if envs[1].Kind != envelope.KindImage {
		t.Errorf("second emission kind = %q, want %q", envs[1].Kind, envelope.KindImage)
	}
}

func TestDetectorImageFingerprint(t *testing.T) {
	adapter := &fakeAdapter{}
	d, _, c := newTestDetector(adapter)

	adapter.setImage([]byte{1, 1, 1, 1}, 1, 1)
	d.Tick()
	d.Tick() // unchanged pixels, no emission

	adapter.setImage([]byte{2, 2, 2, 2}, 1, 1)
	d.Tick() // changed pixels

	envs := c.all()
	if len(envs) != 2 {
		t.Fatalf("emissions = %d, want 2", len(envs))
	}
	for i, env := range envs {
		if env.Kind != envelope.KindImage {
			t.Errorf("emission %d kind = %q, want image", i, env.Kind)
		}
	}
}

func TestDetectorDiscardsNonUTF8Text(t *testing.T) {
	adapter := &fakeAdapter{}
	d, _, c := newTestDetector(adapter)

	adapter.setText(string([]byte{0xff, 0xfe, 0xfd}))
	d.Tick()
	d.Tick()

	if got := len(c.all()); got != 0 {
		t.Errorf("emissions for non-UTF-8 sample = %d, want 0", got)
	}
}

func TestDetectorSurvivesEmptyClipboard(t *testing.T) {
	adapter := &fakeAdapter{}
	d, _, c := newTestDetector(adapter)

	// Nothing readable this tick: treated as no content, not an error.
	d.Tick()
	d.Tick()

	if got := len(c.all()); got != 0 {
		t.Errorf("emissions on empty clipboard = %d, want 0", got)
	}

	adapter.setText("recovered")
	d.Tick()
	if got := len(c.all()); got != 1 {
		t.Errorf("emissions after recovery = %d, want 1", got)
	}
}

// TestDetectorScenario walks the reference sequence: emit on change, stay
// quiet on stable content, treat the empty string as a real value, and
// suppress the echo of an applied inbound envelope.
func TestDetectorScenario(t *testing.T) {
	adapter := &fakeAdapter{}
	d, state, c := newTestDetector(adapter)
	applier := NewApplier(adapter, state)

	// Tick 1: clipboard = "hello" → emit.
	adapter.setText("hello")
	d.Tick()

	// Tick 2: unchanged → nothing.
	d.Tick()

	// Tick 3: clipboard = "" → emit (empty string is a valid state).
	adapter.setText("")
	d.Tick()

	// Inbound: Text("world") applied to the clipboard.
	if err := applier.Apply(envelope.NewText("world")); err != nil {
		t.Fatal(err)
	}
	if got, _ := adapter.ReadText(); got != "world" {
		t.Fatalf("clipboard after apply = %q, want %q", got, "world")
	}

	// Tick 5: samples "world" → suppressed echo.
	d.Tick()

	envs := c.all()
	if len(envs) != 2 {
		t.Fatalf("total emissions = %d, want 2", len(envs))
	}
	if got := textOf(t, envs[0]); got != "hello" {
		t.Errorf("first emission = %q, want %q", got, "hello")
	}
	if got := textOf(t, envs[1]); got != "" {
		t.Errorf("second emission = %q, want empty string", got)
	}
}

func TestDetectorTextReappearanceSuppressed(t *testing.T) {
	adapter := &fakeAdapter{}
	d, _, c := newTestDetector(adapter)

	adapter.setText("sticky")
	d.Tick()
	adapter.clearText()
	d.Tick()
	adapter.setText("sticky")
	d.Tick()

	// The raw-sample tracker saw a change (absent → present), but the
	// last-synchronized record still holds "sticky": echo, no re-emit.
	if got := len(c.all()); got != 1 {
		t.Errorf("emissions = %d, want 1", got)
	}
}
