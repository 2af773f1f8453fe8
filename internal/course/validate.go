package course

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(validateChapter, Chapter{})
	v.RegisterStructValidation(validateQuestion, Question{})
	return v
}

// The CBOR decoder rejects invalid UTF-8, so every text field is checked
// before an artifact is written.
func validateChapter(sl validator.StructLevel) {
	ch, ok := sl.Current().Interface().(Chapter)
	if !ok {
		return
	}
	if !utf8.ValidString(ch.Title) {
		sl.ReportError(ch.Title, "Title", "title", "utf8", "")
	}
	if !utf8.ValidString(ch.Content) {
		sl.ReportError(ch.Content, "Content", "content", "utf8", "")
	}
}

// validateQuestion enforces 0 <= CorrectIndex < len(Options) and UTF-8 text.
func validateQuestion(sl validator.StructLevel) {
	q, ok := sl.Current().Interface().(Question)
	if !ok {
		return
	}
	if q.CorrectIndex >= len(q.Options) {
		sl.ReportError(q.CorrectIndex, "CorrectIndex", "correct_index", "ltoptions", fmt.Sprint(len(q.Options)))
	}
	if !utf8.ValidString(q.Text) {
		sl.ReportError(q.Text, "Text", "text", "utf8", "")
	}
	for i, opt := range q.Options {
		if !utf8.ValidString(opt) {
			sl.ReportError(opt, fmt.Sprintf("Options[%d]", i), fmt.Sprintf("options[%d]", i), "utf8", "")
		}
	}
}

// Validate checks the structural invariants of a course.
func (c Course) Validate() error {
	if c.Empty() {
		return ErrEmpty
	}
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Tag() == "utf8" {
					return fmt.Errorf("invalid course: %w: %w", ErrInvalidText, err)
				}
			}
		}
		return fmt.Errorf("invalid course: %w", err)
	}
	return nil
}
