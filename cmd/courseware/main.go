// Command courseware runs the learning course in a terminal: students take
// chapter quizzes, admins edit chapters and review progress.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/p-n-ai/pai-courseware/internal/course"
	"github.com/p-n-ai/pai-courseware/internal/platform/config"
	"github.com/p-n-ai/pai-courseware/internal/platform/paths"
	"github.com/p-n-ai/pai-courseware/internal/progress"
)

const usage = `usage: courseware <command> [flags]

commands:
  init [-reseed]                         create course.bin from the seed
                                         (-reseed replaces an existing one)
  student -user LOGIN                    study the course
  admin chapters                         list chapters
  admin edit -chapter N -title T [-content-file F]
                                         edit a chapter
  admin report [-q SEARCH]               show student progress
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			slog.Error("courseware failed", "error", err)
		}
		os.Exit(1)
	}
}

// run executes one command. Logs go to stderr; stdout carries the UI.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	slog.SetDefault(newLogger(cfg.Log, stderr))

	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	switch args[0] {
	case "init":
		return a.runInit(args[1:], stdout, stderr)
	case "student":
		return a.runStudent(ctx, args[1:], stdin, stdout, stderr)
	case "admin":
		return a.runAdmin(ctx, args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return errUsage
	}
}

// newLogger builds the process logger from config.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// app holds what every command needs: the resolved data directory and the
// course store.
type app struct {
	cfg        *config.Config
	dataDir    string
	coursePath string
	courses    *course.Store
}

func newApp(cfg *config.Config) (*app, error) {
	dataDir, err := paths.DataDir(cfg.DataDir, paths.AppName)
	if err != nil {
		return nil, err
	}
	store, err := course.NewStore(cfg.CourseKey)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:        cfg,
		dataDir:    dataDir,
		coursePath: paths.CourseBinaryPath(dataDir),
		courses:    store,
	}, nil
}

// loadCourse returns the course artifact, creating it from the seed when it
// does not exist yet.
func (a *app) loadCourse() (course.Course, error) {
	seedFS, seedName, err := seedSource(a.cfg.SeedDir)
	if err != nil {
		return course.Course{}, err
	}
	return course.Bootstrap(a.courses, seedFS, seedName, a.coursePath)
}

// reseedCourse overwrites the artifact with the seed.
func (a *app) reseedCourse() (course.Course, error) {
	seedFS, seedName, err := seedSource(a.cfg.SeedDir)
	if err != nil {
		return course.Course{}, err
	}
	return course.Reseed(a.courses, seedFS, seedName, a.coursePath)
}

func (a *app) runInit(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	reseed := fs.Bool("reseed", false, "replace course.bin with the seed even if it exists")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	var (
		c   course.Course
		err error
	)
	if *reseed {
		c, err = a.reseedCourse()
	} else {
		c, err = a.loadCourse()
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "course ready: %s (%d chapters, %d questions)\n",
		a.coursePath, len(c.Chapters), c.QuestionCount())
	return nil
}

func (a *app) runStudent(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("student", flag.ContinueOnError)
	fs.SetOutput(stderr)
	login := fs.String("user", "", "student login")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if strings.TrimSpace(*login) == "" {
		fmt.Fprintln(stderr, "student: -user is required")
		return errUsage
	}

	c, err := a.loadCourse()
	if err != nil {
		return err
	}

	backend, err := openProgress(ctx, a.cfg, a.dataDir)
	if err != nil {
		return err
	}
	defer backend.Close()

	userID, err := backend.EnsureUser(ctx, *login, progress.RoleStudent)
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}

	session, err := progress.Resume(ctx, c, userID, backend,
		progress.WithEventLogger(backend.Events))
	if err != nil {
		return err
	}
	return newQuiz(session, stdin, stdout).run(ctx)
}
