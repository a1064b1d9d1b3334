package clipsync

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"github.com/clipwave/clipwave/internal/clip"
	"github.com/clipwave/clipwave/internal/envelope"
)

// DefaultInterval is the reference sampling cadence.
const DefaultInterval = 500 * time.Millisecond

// Detector samples the local clipboard on a fixed cadence and emits an
// envelope whenever it observes content that is new — changed since the
// previous tick and not an echo of the last-synchronized content.
type Detector struct {
	adapter  clip.Adapter
	state    *State
	emit     func(envelope.Envelope)
	interval time.Duration

	// Raw-sample trackers from the previous tick. Independent of State:
	// they only avoid re-evaluating an unchanged clipboard every tick.
	prevText    *string
	prevImageFP *uint64
}

// NewDetector creates a Detector that emits new clipboard content to emit.
// An interval of zero selects DefaultInterval.
func NewDetector(adapter clip.Adapter, state *State, interval time.Duration, emit func(envelope.Envelope)) *Detector {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Detector{
		adapter:  adapter,
		state:    state,
		emit:     emit,
		interval: interval,
	}
}

// Run samples the clipboard until ctx is cancelled. Ticks are strictly
// serialized: the next tick is not started until the previous one returns,
// and no single tick's failure stops the loop.
func (d *Detector) Run(ctx context.Context) {
	slog.Info("clipboard monitoring started",
		"backend", d.adapter.Name(),
		"interval", d.interval,
	)
	t := time.NewTicker(d.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Debug("clipboard monitoring stopped")
			return
		case <-t.C:
			d.Tick()
		}
	}
}

// Tick performs one sampling pass. Exported for tests; Run is the only
// production caller.
func (d *Detector) Tick() {
	// Text takes precedence: most clipboard managers expose a text mirror
	// even for non-text copies, so evaluating text first avoids spurious
	// image re-detection noise. A text change skips image evaluation for
	// the whole tick and resets image tracking. The trade-off: an image
	// change that lands together with an unrelated text change is missed.
	text, textOK := d.adapter.ReadText()
	if textOK {
		if d.prevText == nil || *d.prevText != text {
			d.prevText = &text
			d.prevImageFP = nil
			d.handleText(text)
			return
		}
	} else {
		d.prevText = nil
	}

	pixels, w, h, imgOK := d.adapter.ReadImage()
	if !imgOK {
		return
	}
	fp := xxhash.Sum64(pixels)
	if d.prevImageFP != nil && *d.prevImageFP == fp {
		return
	}
	d.prevImageFP = &fp
	d.handleImage(pixels, w, h)
}

func (d *Detector) handleText(text string) {
	// The tracker above is already updated, so a sticky invalid sample is
	// discarded once instead of re-inspected every tick.
	if !utf8.ValidString(text) {
		slog.Debug("discarding non-UTF-8 clipboard text sample")
		return
	}
	env := envelope.NewText(text)
	if !d.state.StoreIfNew(env) {
		slog.Debug("suppressing echo", "kind", env.Kind)
		return
	}
	slog.Debug("clipboard text changed", "bytes", len(env.Payload))
	d.emit(env)
}

func (d *Detector) handleImage(pixels []byte, w, h int) {
	env, err := envelope.NewImage(pixels, w, h)
	if err != nil {
		slog.Debug("discarding invalid clipboard image sample", "err", err)
		return
	}
	if !d.state.StoreIfNew(env) {
		slog.Debug("suppressing echo", "kind", env.Kind)
		return
	}
	slog.Debug("clipboard image changed", "width", w, "height", h, "bytes", len(pixels))
	d.emit(env)
}
