package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/p-n-ai/pai-courseware/internal/platform/database"
	"github.com/p-n-ai/pai-courseware/internal/progress/migrations"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists progress in a local SQLite database. It is the
// default backend of a single-machine installation.
type SQLiteStore struct {
	db *sql.DB
}

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(v int64) time.Time {
	return time.Unix(0, v).UTC()
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// embedded schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}

	dsn := cleanPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(db, migrations.SQLite()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func applyMigrations(db *sql.DB, fsys fs.FS) error {
	names, err := database.MigrationFiles(fsys)
	if err != nil {
		return err
	}
	for _, name := range names {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) GetLastProgress(ctx context.Context, userID int64) (LastProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var (
		chapterID int
		status    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT chapter_id, status
		 FROM study_progress
		 WHERE user_id = ?
		 ORDER BY updated_at DESC, id DESC
		 LIMIT 1`,
		userID,
	).Scan(&chapterID, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LastProgress{ChapterID: NoChapter}, nil
		}
		return LastProgress{}, fmt.Errorf("get last progress: %w", err)
	}
	return LastProgress{ChapterID: chapterID, Status: Status(status)}, nil
}

func (s *SQLiteStore) SaveProgress(ctx context.Context, rec Record) error {
	if err := rec.validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO study_progress (user_id, chapter_id, status, score, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, chapter_id) DO UPDATE
		 SET status = excluded.status,
		     score = excluded.score,
		     updated_at = excluded.updated_at`,
		rec.UserID,
		rec.ChapterID,
		string(rec.Status),
		rec.Score,
		toNanos(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (s *SQLiteStore) EnsureUser(ctx context.Context, login string, role Role) (int64, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return 0, fmt.Errorf("login is required")
	}
	if !role.Valid() {
		return 0, fmt.Errorf("unknown role %q", role)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (login, role) VALUES (?, ?)
		 ON CONFLICT (login) DO NOTHING`,
		login,
		string(role),
	); err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE login = ?`,
		login,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup user: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) StudentSummaries(ctx context.Context) ([]StudentSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT u.id,
		        u.login,
		        COALESCE(SUM(CASE WHEN sp.status = 'completed' THEN 1 ELSE 0 END), 0) AS completed_chapters,
		        MAX(sp.updated_at) AS last_activity
		 FROM users u
		 LEFT JOIN study_progress sp ON u.id = sp.user_id
		 WHERE u.role = 'student'
		 GROUP BY u.id, u.login
		 ORDER BY completed_chapters DESC, u.login`,
	)
	if err != nil {
		return nil, fmt.Errorf("query student summaries: %w", err)
	}
	defer rows.Close()

	var out []StudentSummary
	for rows.Next() {
		var (
			sum  StudentSummary
			last sql.NullInt64
		)
		if err := rows.Scan(&sum.UserID, &sum.Login, &sum.CompletedChapters, &last); err != nil {
			return nil, fmt.Errorf("scan student summary: %w", err)
		}
		if last.Valid {
			t := fromNanos(last.Int64)
			sum.LastActivity = &t
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate student summaries: %w", err)
	}
	return out, nil
}
