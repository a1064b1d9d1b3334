// Package clip provides access to the OS clipboard behind a small Adapter
// contract. Reads report absence instead of failing; writes return errors.
// The native backend serialises every call — clipboard backends are not
// safe for concurrent access, and an interleaved write can invalidate the
// format of an in-progress read.
package clip

// Adapter is the capability the sync engine consumes.
//
// ReadText and ReadImage return ok=false when the clipboard holds no
// content of that kind or the read transiently failed; they never panic.
// Image payloads are raw RGBA pixels with their dimensions.
type Adapter interface {
	// Name returns a human-readable name for the backend.
	Name() string

	ReadText() (text string, ok bool)
	ReadImage() (pixels []byte, width, height int, ok bool)

	WriteText(text string) error
	WriteImage(pixels []byte, width, height int) error
}
