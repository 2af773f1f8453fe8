package course

import "errors"

// Load failures. Every failed load also returns an empty Course, so callers
// that only check Course.Empty keep working.
var (
	ErrNotFound   = errors.New("course not found")
	ErrUnreadable = errors.New("course unreadable")
	ErrCorrupt    = errors.New("course artifact corrupt")
	ErrDecrypt    = errors.New("course decryption failed")
	ErrDecode     = errors.New("course decode failed")
	ErrEmpty      = errors.New("course has no chapters")
)

// Edit failures.
var (
	ErrChapterIndex = errors.New("chapter index out of range")
	ErrEmptyTitle   = errors.New("chapter title is empty")
	ErrInvalidText  = errors.New("text is not valid UTF-8")
)
