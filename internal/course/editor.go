package course

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ChapterSummary is one row of the editor's chapter list.
type ChapterSummary struct {
	Index     int
	Label     string
	Questions int
}

// Editor is an admin editing session. It owns its copy of the course and
// rewrites the whole artifact on Save; concurrent editors are not detected
// and the last save wins.
type Editor struct {
	store  *Store
	path   string
	course Course
}

// OpenEditor loads the artifact at path for editing.
func OpenEditor(store *Store, path string) (*Editor, error) {
	c, err := store.LoadBinary(path)
	if err != nil {
		return nil, err
	}
	return NewEditor(store, path, c), nil
}

// NewEditor starts an editing session over a copy of c.
func NewEditor(store *Store, path string, c Course) *Editor {
	return &Editor{store: store, path: path, course: cloneCourse(c)}
}

// Course returns a copy of the course being edited.
func (e *Editor) Course() Course {
	return cloneCourse(e.course)
}

// Chapters lists chapters with their display labels.
func (e *Editor) Chapters() []ChapterSummary {
	out := make([]ChapterSummary, 0, len(e.course.Chapters))
	for i, ch := range e.course.Chapters {
		out = append(out, ChapterSummary{
			Index:     i,
			Label:     ChapterLabel(i, ch.Title),
			Questions: len(ch.Questions),
		})
	}
	return out
}

// Chapter returns the chapter at index.
func (e *Editor) Chapter(index int) (Chapter, error) {
	if index < 0 || index >= len(e.course.Chapters) {
		return Chapter{}, fmt.Errorf("%w: %d", ErrChapterIndex, index)
	}
	return e.course.Chapters[index], nil
}

// UpdateChapter replaces the title and content of a chapter. The title is
// trimmed and NFC-normalized and must not be empty. Both must be valid UTF-8.
// Nothing is changed when validation fails.
func (e *Editor) UpdateChapter(index int, title, content string) error {
	if index < 0 || index >= len(e.course.Chapters) {
		return fmt.Errorf("%w: %d", ErrChapterIndex, index)
	}
	if !utf8.ValidString(title) {
		return fmt.Errorf("%w: title", ErrInvalidText)
	}
	if !utf8.ValidString(content) {
		return fmt.Errorf("%w: content", ErrInvalidText)
	}
	title = norm.NFC.String(strings.TrimSpace(title))
	if title == "" {
		return ErrEmptyTitle
	}

	ch := &e.course.Chapters[index]
	ch.Title = title
	ch.Content = content
	return nil
}

// Save writes the edited course back to the artifact.
func (e *Editor) Save() error {
	if err := e.store.SaveBinary(e.course, e.path); err != nil {
		slog.Error("failed to save course", "path", e.path, "error", err)
		return err
	}
	slog.Info("course saved", "path", e.path, "chapters", len(e.course.Chapters))
	return nil
}

// ChapterLabel formats the one-based display label of a chapter.
func ChapterLabel(index int, title string) string {
	return fmt.Sprintf("Chapter %d: %s", index+1, title)
}

func cloneCourse(c Course) Course {
	if c.Chapters == nil {
		return Course{}
	}
	chapters := make([]Chapter, len(c.Chapters))
	for i, ch := range c.Chapters {
		chapters[i] = ch
		if ch.Questions != nil {
			qs := make([]Question, len(ch.Questions))
			for j, q := range ch.Questions {
				qs[j] = q
				qs[j].Options = append([]string(nil), q.Options...)
			}
			chapters[i].Questions = qs
		}
	}
	return Course{Chapters: chapters}
}
