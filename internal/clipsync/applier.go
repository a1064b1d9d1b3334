package clipsync

import (
	"fmt"
	"log/slog"

	"github.com/clipwave/clipwave/internal/clip"
	"github.com/clipwave/clipwave/internal/envelope"
)

// Applier writes inbound envelopes to the local clipboard. Invocations may
// run concurrently with each other and with Detector ticks; ordering between
// concurrent applies is last-write-wins at the adapter.
type Applier struct {
	adapter clip.Adapter
	state   *State
}

// NewApplier returns an Applier writing through adapter and gated by state.
func NewApplier(adapter clip.Adapter, state *State) *Applier {
	return &Applier{adapter: adapter, state: state}
}

// Apply validates env, records it as last-synchronized content, and writes
// it to the clipboard.
//
// The store into State happens before the clipboard write: a Detector tick
// racing immediately after the write must observe the new record and
// suppress the echo. The write itself runs outside the State lock.
// Write failures are wrapped in ErrClipboardWrite and not retried.
func (a *Applier) Apply(env envelope.Envelope) error {
	if err := env.Validate(); err != nil {
		return err
	}

	a.state.Store(env)

	switch env.Kind {
	case envelope.KindText:
		text, ok := env.AsText()
		if !ok {
			return fmt.Errorf("%w: undecodable text payload", envelope.ErrInvalidEnvelope)
		}
		if err := a.adapter.WriteText(text); err != nil {
			return fmt.Errorf("%w: %v", ErrClipboardWrite, err)
		}
		slog.Debug("applied text to clipboard", "bytes", len(env.Payload))
		return nil

	case envelope.KindImage:
		pixels, w, h, ok := env.AsImage()
		if !ok {
			return fmt.Errorf("%w: undecodable image payload", envelope.ErrInvalidEnvelope)
		}
		if err := a.adapter.WriteImage(pixels, w, h); err != nil {
			return fmt.Errorf("%w: %v", ErrClipboardWrite, err)
		}
		slog.Debug("applied image to clipboard", "width", w, "height", h)
		return nil

	default:
		return fmt.Errorf("%w: unknown kind %q", envelope.ErrInvalidEnvelope, env.Kind)
	}
}
