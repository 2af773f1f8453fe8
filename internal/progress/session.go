package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/pai-courseware/internal/course"
)

// MaxErrors is the number of wrong answers that fails a chapter attempt.
const MaxErrors = 3

// NoSelection is submitted when the student did not pick an option.
const NoSelection = -1

var (
	ErrEmptyCourse   = errors.New("course has no chapters")
	ErrNoQuestions   = errors.New("chapter has no questions")
	ErrNotTesting    = errors.New("no test in progress")
	ErrNoSelection   = errors.New("no option selected")
	ErrInvalidOption = errors.New("option out of range")
)

// Phase is the state of the current chapter.
type Phase int

const (
	// PhaseTheory shows the chapter content.
	PhaseTheory Phase = iota
	// PhaseTesting runs the chapter quiz.
	PhaseTesting
)

func (p Phase) String() string {
	switch p {
	case PhaseTheory:
		return "theory"
	case PhaseTesting:
		return "testing"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Outcome is the result of submitting an answer.
type Outcome int

const (
	// OutcomeCorrect moved on to the next question of the chapter.
	OutcomeCorrect Outcome = iota + 1
	// OutcomeIncorrect counted an error; the same question stays active.
	OutcomeIncorrect
	// OutcomeChapterComplete answered the last question; the session is back
	// in theory, on the next chapter unless the course is completed.
	OutcomeChapterComplete
	// OutcomeChapterFailed reached MaxErrors; the session is back in theory
	// on the same chapter.
	OutcomeChapterFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCorrect:
		return "correct"
	case OutcomeIncorrect:
		return "incorrect"
	case OutcomeChapterComplete:
		return "chapter_complete"
	case OutcomeChapterFailed:
		return "chapter_failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result describes what a submitted answer did.
type Result struct {
	Outcome Outcome
	// Chapter is the chapter the answer belonged to.
	Chapter int
	// ErrorCount is the number of errors in the attempt when the answer was
	// evaluated, before any reset.
	ErrorCount int
	// CourseCompleted is set when completing Chapter finished the course.
	CourseCompleted bool
}

// Option configures a Session.
type Option func(*Session)

// WithEventLogger sets the logger that receives session events.
func WithEventLogger(l EventLogger) Option {
	return func(s *Session) {
		if l != nil {
			s.events = l
		}
	}
}

// Session is one student's pass through the course. It is not safe for
// concurrent use; the owning front end drives it from a single goroutine.
type Session struct {
	course course.Course
	userID int64
	store  Store
	events EventLogger

	chapter  int
	question int
	errors   int
	phase    Phase

	courseCompleted bool
}

// Resume starts a session for userID at the chapter chosen by ResumeIndex
// from the user's last progress. The session begins in PhaseTheory.
func Resume(ctx context.Context, c course.Course, userID int64, store Store, opts ...Option) (*Session, error) {
	if c.Empty() {
		return nil, ErrEmptyCourse
	}
	if store == nil {
		return nil, fmt.Errorf("progress store is nil")
	}

	last, err := store.GetLastProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get last progress: %w", err)
	}

	index, completed := ResumeIndex(last.ChapterID, last.Status, len(c.Chapters))
	s := &Session{
		course:          c,
		userID:          userID,
		store:           store,
		events:          NopEventLogger{},
		chapter:         index,
		phase:           PhaseTheory,
		courseCompleted: completed,
	}
	for _, opt := range opts {
		opt(s)
	}

	slog.Info("progress session started",
		"user_id", userID,
		"last_chapter", last.ChapterID,
		"last_status", last.Status,
		"chapter", index,
	)
	if completed {
		s.logEvent(EventCourseCompleted, index, nil)
	}
	return s, nil
}

// StartTest enters the quiz of the current chapter. Chapters without
// questions cannot be tested. Calling it while a test is running keeps the
// running attempt.
func (s *Session) StartTest() error {
	if s.phase == PhaseTesting {
		return nil
	}
	if !s.CanStartTest() {
		return fmt.Errorf("%w: chapter %d", ErrNoQuestions, s.chapter)
	}
	s.question = 0
	s.errors = 0
	s.phase = PhaseTesting
	return nil
}

// Submit evaluates the selected option of the current question. Rejected
// submissions (no selection, unknown option, no running test) return an
// error and leave the session unchanged.
func (s *Session) Submit(ctx context.Context, selected int) (Result, error) {
	if s.phase != PhaseTesting {
		return Result{}, ErrNotTesting
	}
	if selected == NoSelection {
		return Result{}, ErrNoSelection
	}

	ch := s.course.Chapters[s.chapter]
	q := ch.Questions[s.question]
	if selected < 0 || selected >= len(q.Options) {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidOption, selected)
	}

	if q.IsCorrect(selected) {
		s.question++
		if s.question < len(ch.Questions) {
			return Result{Outcome: OutcomeCorrect, Chapter: s.chapter, ErrorCount: s.errors}, nil
		}
		return s.completeChapter(ctx), nil
	}

	s.errors++
	s.logEvent(EventAnswerIncorrect, s.chapter, map[string]any{
		"question": s.question,
		"errors":   s.errors,
	})
	if s.errors >= MaxErrors {
		return s.failChapter(ctx), nil
	}
	return Result{Outcome: OutcomeIncorrect, Chapter: s.chapter, ErrorCount: s.errors}, nil
}

// ReturnToTheory abandons the running attempt without recording anything.
func (s *Session) ReturnToTheory() {
	s.resetAttempt()
}

func (s *Session) completeChapter(ctx context.Context) Result {
	res := Result{Outcome: OutcomeChapterComplete, Chapter: s.chapter, ErrorCount: s.errors}

	s.saveProgress(ctx, Record{
		UserID:    s.userID,
		ChapterID: s.chapter,
		Score:     ScoreCompleted,
		Status:    StatusCompleted,
	})
	s.logEvent(EventChapterCompleted, s.chapter, map[string]any{"errors": s.errors})

	res.CourseCompleted = s.moveToNextChapter()
	return res
}

func (s *Session) failChapter(ctx context.Context) Result {
	res := Result{Outcome: OutcomeChapterFailed, Chapter: s.chapter, ErrorCount: s.errors}

	s.saveProgress(ctx, Record{
		UserID:    s.userID,
		ChapterID: s.chapter,
		Score:     ScoreFailed,
		Status:    StatusFail,
	})
	s.logEvent(EventChapterFailed, s.chapter, nil)

	s.resetAttempt()
	return res
}

// moveToNextChapter advances past the current chapter. Past the last chapter
// the index stays on it and the course is reported completed.
func (s *Session) moveToNextChapter() bool {
	s.resetAttempt()
	if s.chapter+1 >= len(s.course.Chapters) {
		s.courseCompleted = true
		s.logEvent(EventCourseCompleted, s.chapter, nil)
		return true
	}
	s.chapter++
	return false
}

func (s *Session) resetAttempt() {
	s.question = 0
	s.errors = 0
	s.phase = PhaseTheory
}

// saveProgress does not retry; the store owns failure handling.
func (s *Session) saveProgress(ctx context.Context, rec Record) {
	if err := s.store.SaveProgress(ctx, rec); err != nil {
		slog.Error("failed to save progress",
			"user_id", rec.UserID,
			"chapter", rec.ChapterID,
			"status", rec.Status,
			"error", err,
		)
	}
}

func (s *Session) logEvent(eventType string, chapter int, data map[string]any) {
	if err := s.events.LogEvent(Event{
		UserID:  s.userID,
		Chapter: chapter,
		Type:    eventType,
		Data:    data,
	}); err != nil {
		slog.Warn("failed to log progress event", "type", eventType, "error", err)
	}
}

// Phase returns the state of the current chapter.
func (s *Session) Phase() Phase { return s.phase }

// UserID returns the student the session belongs to.
func (s *Session) UserID() int64 { return s.userID }

// ChapterIndex returns the zero-based index of the current chapter.
func (s *Session) ChapterIndex() int { return s.chapter }

// ChapterCount returns the number of chapters in the course.
func (s *Session) ChapterCount() int { return len(s.course.Chapters) }

// QuestionIndex returns the zero-based index of the active question.
func (s *Session) QuestionIndex() int { return s.question }

// ErrorCount returns the errors made in the running attempt.
func (s *Session) ErrorCount() int { return s.errors }

// CourseCompleted reports whether the student has finished the last chapter.
func (s *Session) CourseCompleted() bool { return s.courseCompleted }

// Chapter returns the current chapter.
func (s *Session) Chapter() course.Chapter {
	return s.course.Chapters[s.chapter]
}

// CanStartTest reports whether the current chapter has a quiz.
func (s *Session) CanStartTest() bool {
	return len(s.Chapter().Questions) > 0
}

// Question returns the active question while testing.
func (s *Session) Question() (course.Question, bool) {
	if s.phase != PhaseTesting {
		return course.Question{}, false
	}
	return s.Chapter().Questions[s.question], true
}

// ChapterHeading formats the current chapter label, e.g. "Chapter 2: Caching".
func (s *Session) ChapterHeading() string {
	return course.ChapterLabel(s.chapter, s.Chapter().Title)
}

// TheoryHTML renders the heading and content of the current chapter.
func (s *Session) TheoryHTML() string {
	return fmt.Sprintf("<h2>%s</h2><br>%s", s.ChapterHeading(), s.Chapter().Content)
}

// QuestionCounter formats the position of the active question, e.g.
// "Question 1 of 3".
func (s *Session) QuestionCounter() string {
	return fmt.Sprintf("Question %d of %d", s.question+1, len(s.Chapter().Questions))
}

// ErrorCounter formats the error budget, e.g. "Errors: 1 of 3".
func (s *Session) ErrorCounter() string {
	return fmt.Sprintf("Errors: %d of %d", s.errors, MaxErrors)
}
