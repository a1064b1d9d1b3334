// Package clipsync implements the clipboard change-detection and
// echo-suppressed synchronization engine: a periodic Detector that samples
// the local clipboard and emits new content, and an Applier that writes
// inbound envelopes back without triggering a re-broadcast loop. Both ends
// are gated by a shared last-synchronized record (State).
package clipsync

import (
	"errors"
	"sync"

	"github.com/clipwave/clipwave/internal/envelope"
)

var (
	// ErrAdapterUnavailable means the clipboard could not be acquired at
	// startup. Clipboard sync cannot run without it.
	ErrAdapterUnavailable = errors.New("clipsync: clipboard adapter unavailable")

	// ErrClipboardWrite means the Applier could not write to the OS
	// clipboard. Not retried — the next tick and the next inbound message
	// are independent recovery opportunities.
	ErrClipboardWrite = errors.New("clipsync: clipboard write failed")
)

// State holds the last-synchronized content: the most recently sent or
// applied envelope. It is the echo suppressor — content that was just
// written to the OS clipboard from the network would otherwise be
// re-detected as a "new" local change on the very next tick.
//
// Suppression keys on content equality (kind + payload), not on timestamps
// or identifiers. A coincidental identical copy made independently on
// another node is therefore treated as an echo and not re-broadcast; no
// per-message identity scheme exists at this layer.
//
// Only compare-and-store style operations are exposed, so the
// store-before-clipboard-write ordering the Applier relies on cannot be
// subverted by a raw read/modify/write from another goroutine.
type State struct {
	mu   sync.Mutex
	last *envelope.Envelope
}

// NewState returns an empty State: no content has been synchronized yet.
func NewState() *State {
	return &State{}
}

// Store unconditionally records env as the last-synchronized content.
// The Applier calls this before writing to the clipboard.
func (s *State) Store(env envelope.Envelope) {
	s.mu.Lock()
	s.last = &env
	s.mu.Unlock()
}

// StoreIfNew atomically compares env against the last-synchronized content
// and records it only when the content differs. It returns false when env
// is an echo of what was already sent or applied; nothing is stored in that
// case. The Detector calls this for every candidate change.
func (s *State) StoreIfNew(env envelope.Envelope) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last != nil && s.last.ContentEquals(env) {
		return false
	}
	s.last = &env
	return true
}
