package progress

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store, Directory and Reporter over
// the users and study_progress tables.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store over an open pool.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) GetLastProgress(ctx context.Context, userID int64) (LastProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var (
		chapterID int
		status    string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT chapter_id, status
		 FROM study_progress
		 WHERE user_id = $1
		 ORDER BY updated_at DESC, id DESC
		 LIMIT 1`,
		userID,
	).Scan(&chapterID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LastProgress{ChapterID: NoChapter}, nil
		}
		return LastProgress{}, fmt.Errorf("get last progress: %w", err)
	}

	return LastProgress{ChapterID: chapterID, Status: Status(status)}, nil
}

func (s *PostgresStore) SaveProgress(ctx context.Context, rec Record) error {
	if err := rec.validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO study_progress (user_id, chapter_id, status, score, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, chapter_id) DO UPDATE
		 SET status = EXCLUDED.status,
		     score = EXCLUDED.score,
		     updated_at = EXCLUDED.updated_at`,
		rec.UserID,
		rec.ChapterID,
		string(rec.Status),
		rec.Score,
		updatedAt,
	)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (s *PostgresStore) EnsureUser(ctx context.Context, login string, role Role) (int64, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return 0, fmt.Errorf("login is required")
	}
	if !role.Valid() {
		return 0, fmt.Errorf("unknown role %q", role)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var id int64
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM users WHERE login = $1 LIMIT 1`,
		login,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("lookup user: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO users (login, role)
		 VALUES ($1, $2)
		 ON CONFLICT (login) DO UPDATE SET login = EXCLUDED.login
		 RETURNING id`,
		login,
		string(role),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) StudentSummaries(ctx context.Context) ([]StudentSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT u.id,
		        u.login,
		        COUNT(sp.chapter_id) FILTER (WHERE sp.status = 'completed') AS completed_chapters,
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
		var sum StudentSummary
		if err := rows.Scan(&sum.UserID, &sum.Login, &sum.CompletedChapters, &sum.LastActivity); err != nil {
			return nil, fmt.Errorf("scan student summary: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate student summaries: %w", err)
	}
	return out, nil
}
