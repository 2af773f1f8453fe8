// Package progress tracks where a student is in the course: the resume rule
// for a new session, the quiz state machine for a chapter, and the stores
// that persist per-chapter outcomes.
package progress

import (
	"fmt"
	"time"
)

// Status is the persisted outcome of a chapter for a user.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFail       Status = "fail"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusFail:
		return true
	}
	return false
}

// NoChapter is the LastProgress.ChapterID of a user without records.
const NoChapter = -1

// Scores written on chapter outcomes.
const (
	ScoreCompleted = 100
	ScoreFailed    = 0
)

// LastProgress is the most recent progress record of a user.
type LastProgress struct {
	ChapterID int
	Status    Status
}

// None reports whether the user has no progress yet.
func (p LastProgress) None() bool {
	return p.ChapterID == NoChapter
}

// Record is one progress write for a (user, chapter) pair.
type Record struct {
	UserID    int64
	ChapterID int
	Score     int
	Status    Status
	UpdatedAt time.Time
}

func (r Record) validate() error {
	if r.UserID <= 0 {
		return fmt.Errorf("user_id is required")
	}
	if r.ChapterID < 0 {
		return fmt.Errorf("chapter_id must be non-negative, got %d", r.ChapterID)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("unknown status %q", r.Status)
	}
	if r.Score < 0 || r.Score > 100 {
		return fmt.Errorf("score must be between 0 and 100, got %d", r.Score)
	}
	return nil
}

// Role is the role of an application user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}
