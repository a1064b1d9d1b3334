// Package envelope defines the clipwave wire unit: one clipboard snapshot
// plus kind/dimensions/timestamp metadata.
//
// Envelopes travel as JSON. The payload is base64-encoded by encoding/json
// so that binary content (raw image pixels) is safe to embed.
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// Kind identifies the variant of clipboard content an Envelope carries.
// The set is closed: Text and Image are the only kinds, and every consumer
// switches over them with an explicit rejecting default.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Origin records where an envelope came from. Diagnostics only — echo
// suppression keys on content equality, never on this tag.
type Origin string

const (
	OriginLocal  Origin = "local"  // produced by sampling this node's clipboard
	OriginRemote Origin = "remote" // reconstructed from a network message
)

var (
	// ErrInvalidDimensions is returned when an image envelope would be
	// constructed with a zero-area size.
	ErrInvalidDimensions = errors.New("envelope: image dimensions must be positive")

	// ErrInvalidEnvelope is returned when inbound bytes do not describe a
	// well-formed envelope: unknown kind, bad UTF-8 text, missing dimensions.
	ErrInvalidEnvelope = errors.New("envelope: invalid")
)

// Envelope is a single clipboard snapshot.
//
// Text payloads are UTF-8 bytes. Image payloads are raw RGBA pixels; Width
// and Height are required to reconstruct a displayable image and are zero
// for text. CreatedAt is informational and plays no part in ordering or
// echo suppression.
type Envelope struct {
	Kind      Kind   `json:"kind"`
	Payload   []byte `json:"payload"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	CreatedAt int64  `json:"created_at"`
	Origin    Origin `json:"-"`
}

// NewText creates a text envelope. The empty string is a valid, if unusual,
// clipboard state. Callers are responsible for sampling only valid UTF-8;
// AsText defends against violations by returning false.
func NewText(text string) Envelope {
	return Envelope{
		Kind:      KindText,
		Payload:   []byte(text),
		CreatedAt: time.Now().Unix(),
		Origin:    OriginLocal,
	}
}

// NewImage creates an image envelope from raw pixels and their dimensions.
func NewImage(pixels []byte, width, height int) (Envelope, error) {
	if width <= 0 || height <= 0 {
		return Envelope{}, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return Envelope{
		Kind:      KindImage,
		Payload:   pixels,
		Width:     width,
		Height:    height,
		CreatedAt: time.Now().Unix(),
		Origin:    OriginLocal,
	}, nil
}

// AsText returns the payload as a string for text envelopes. It returns
// false for image envelopes and for malformed (non-UTF-8) payloads rather
// than panicking or yielding garbage.
func (e Envelope) AsText() (string, bool) {
	if e.Kind != KindText || !utf8.Valid(e.Payload) {
		return "", false
	}
	return string(e.Payload), true
}

// AsImage returns the raw pixels and dimensions for image envelopes.
func (e Envelope) AsImage() ([]byte, int, int, bool) {
	if e.Kind != KindImage {
		return nil, 0, 0, false
	}
	return e.Payload, e.Width, e.Height, true
}

// ContentEquals reports whether two envelopes carry the same content.
// Equality is kind + payload bytes: timestamps and origin are ignored, so
// an envelope received from the network compares equal to the re-detected
// local copy of itself. This is the echo-suppression key.
func (e Envelope) ContentEquals(other Envelope) bool {
	return e.Kind == other.Kind && bytes.Equal(e.Payload, other.Payload)
}

// Validate checks the structural invariants: known kind, valid UTF-8 for
// text, positive dimensions for images.
func (e Envelope) Validate() error {
	switch e.Kind {
	case KindText:
		if !utf8.Valid(e.Payload) {
			return fmt.Errorf("%w: text payload is not UTF-8", ErrInvalidEnvelope)
		}
	case KindImage:
		if e.Width <= 0 || e.Height <= 0 {
			return fmt.Errorf("%w: image dimensions %dx%d", ErrInvalidEnvelope, e.Width, e.Height)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEnvelope, e.Kind)
	}
	return nil
}

// Encode serialises the envelope for transport.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode deserialises and validates an envelope received from the network.
// The result is always stamped OriginRemote regardless of what the sender
// recorded. Malformed input yields an error wrapping ErrInvalidEnvelope.
func Decode(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if err := e.Validate(); err != nil {
		return Envelope{}, err
	}
	e.Origin = OriginRemote
	return e, nil
}
