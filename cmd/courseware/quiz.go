package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/p-n-ai/pai-courseware/internal/progress"
)

// quiz drives a progress session from line-based terminal input.
type quiz struct {
	session *progress.Session
	in      *bufio.Scanner
	out     io.Writer

	showTheory bool
}

func newQuiz(s *progress.Session, in io.Reader, out io.Writer) *quiz {
	return &quiz{session: s, in: bufio.NewScanner(in), out: out, showTheory: true}
}

// run returns when the student quits, input ends or ctx is cancelled.
func (q *quiz) run(ctx context.Context) error {
	if q.session.CourseCompleted() {
		fmt.Fprintln(q.out, "You have completed the course. You can review the last chapter.")
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var done bool
		if q.session.Phase() == progress.PhaseTesting {
			done = q.testStep(ctx)
		} else {
			done = q.theoryStep()
		}
		if done {
			return q.in.Err()
		}
	}
}

func (q *quiz) readLine() (string, bool) {
	if !q.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(q.in.Text()), true
}

func (q *quiz) theoryStep() bool {
	s := q.session
	if q.showTheory {
		fmt.Fprintf(q.out, "\n== %s ==\n\n%s\n\n", s.ChapterHeading(), s.Chapter().Content)
		q.showTheory = false
	}
	if s.CanStartTest() {
		fmt.Fprint(q.out, "[t] take the test  [q] quit > ")
	} else {
		fmt.Fprint(q.out, "This chapter has no test.  [q] quit > ")
	}

	line, ok := q.readLine()
	if !ok {
		return true
	}
	switch strings.ToLower(line) {
	case "q":
		return true
	case "t":
		if err := s.StartTest(); err != nil {
			fmt.Fprintln(q.out, "This chapter has no test.")
		}
	case "":
	default:
		fmt.Fprintf(q.out, "Unknown choice %q.\n", line)
	}
	return false
}

func (q *quiz) testStep(ctx context.Context) bool {
	s := q.session
	question, _ := s.Question()

	fmt.Fprintf(q.out, "\n%s    %s\n%s\n", s.QuestionCounter(), s.ErrorCounter(), question.Text)
	for i, opt := range question.Options {
		fmt.Fprintf(q.out, "  %d) %s\n", i+1, opt)
	}
	fmt.Fprintf(q.out, "answer [1-%d], [b] back to theory > ", len(question.Options))

	line, ok := q.readLine()
	if !ok {
		return true
	}
	if strings.EqualFold(line, "b") {
		s.ReturnToTheory()
		q.showTheory = true
		return false
	}

	res, err := s.Submit(ctx, parseChoice(line))
	switch {
	case errors.Is(err, progress.ErrNoSelection):
		fmt.Fprintln(q.out, "Pick an answer first.")
		return false
	case errors.Is(err, progress.ErrInvalidOption):
		fmt.Fprintln(q.out, "No such answer.")
		return false
	case err != nil:
		fmt.Fprintf(q.out, "Answer rejected: %v\n", err)
		return false
	}

	switch res.Outcome {
	case progress.OutcomeCorrect:
		fmt.Fprintln(q.out, "Correct!")
	case progress.OutcomeIncorrect:
		fmt.Fprintln(q.out, "Wrong answer, try again.")
	case progress.OutcomeChapterFailed:
		fmt.Fprintf(q.out, "Test failed: %d errors. Review the chapter and try again.\n", res.ErrorCount)
		q.showTheory = true
	case progress.OutcomeChapterComplete:
		if res.CourseCompleted {
			fmt.Fprintln(q.out, "Chapter passed. Congratulations, you have completed the course!")
		} else {
			fmt.Fprintln(q.out, "Chapter passed!")
			q.showTheory = true
		}
	}
	return false
}

// invalidChoice is never a valid option index.
const invalidChoice = -2

// parseChoice maps a one-based answer to an option index. Empty input is no
// selection; anything else that is not a number is an invalid option.
func parseChoice(line string) int {
	if line == "" {
		return progress.NoSelection
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 {
		return invalidChoice
	}
	return n - 1
}
