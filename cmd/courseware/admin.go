package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/p-n-ai/pai-courseware/internal/course"
	"github.com/p-n-ai/pai-courseware/internal/progress"
)

const lastActivityLayout = "2006-01-02 15:04"

func (a *app) runAdmin(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}
	switch args[0] {
	case "chapters":
		return a.adminChapters(stdout)
	case "edit":
		return a.adminEdit(args[1:], stdout, stderr)
	case "report":
		return a.adminReport(ctx, args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown admin command %q\n\n%s", args[0], usage)
		return errUsage
	}
}

func (a *app) openEditor() (*course.Editor, error) {
	c, err := a.loadCourse()
	if err != nil {
		return nil, err
	}
	return course.NewEditor(a.courses, a.coursePath, c), nil
}

func (a *app) adminChapters(stdout io.Writer) error {
	ed, err := a.openEditor()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCHAPTER\tQUESTIONS")
	for _, ch := range ed.Chapters() {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", ch.Index+1, ch.Label, ch.Questions)
	}
	return tw.Flush()
}

func (a *app) adminEdit(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("admin edit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	number := fs.Int("chapter", 0, "chapter number, starting at 1")
	title := fs.String("title", "", "new chapter title")
	contentFile := fs.String("content-file", "", "file with the new chapter content (HTML)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	ed, err := a.openEditor()
	if err != nil {
		return err
	}
	index := *number - 1
	ch, err := ed.Chapter(index)
	if err != nil {
		return err
	}

	content := ch.Content
	if *contentFile != "" {
		data, err := os.ReadFile(*contentFile)
		if err != nil {
			return fmt.Errorf("read content: %w", err)
		}
		content = string(data)
	}
	newTitle := *title
	if newTitle == "" {
		newTitle = ch.Title
	}

	if err := ed.UpdateChapter(index, newTitle, content); err != nil {
		return err
	}
	if err := ed.Save(); err != nil {
		return err
	}

	updated, err := ed.Chapter(index)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "saved %s\n", course.ChapterLabel(index, updated.Title))
	return nil
}

func (a *app) adminReport(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("admin report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	query := fs.String("q", "", "show only logins containing this text")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	tag, err := a.cfg.Language()
	if err != nil {
		return err
	}

	backend, err := openProgress(ctx, a.cfg, a.dataDir)
	if err != nil {
		return err
	}
	defer backend.Close()

	rows, err := backend.StudentSummaries(ctx)
	if err != nil {
		return err
	}
	rows = progress.FilterSummaries(rows, *query)
	progress.SortSummaries(rows, tag)

	return writeReport(stdout, rows)
}

func writeReport(w io.Writer, rows []progress.StudentSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LOGIN\tCOMPLETED\tLAST ACTIVITY")
	for _, r := range rows {
		last := "never"
		if r.LastActivity != nil {
			last = r.LastActivity.Local().Format(lastActivityLayout)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", r.Login, r.CompletedChapters, last)
	}
	return tw.Flush()
}
