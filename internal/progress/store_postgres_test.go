package progress_test

import (
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/p-n-ai/pai-courseware/internal/platform/database"
	"github.com/p-n-ai/pai-courseware/internal/progress"
	"github.com/p-n-ai/pai-courseware/internal/progress/migrations"
)

func TestNewPostgresStore_NilPool(t *testing.T) {
	if _, err := progress.NewPostgresStore(nil); err == nil {
		t.Fatal("expected error for nil pool")
	}
}

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := t.Context()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("courseware"),
		postgres.WithUsername("pai"),
		postgres.WithPassword("pai"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("postgres.Run() error = %v", err)
	}

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("ConnectionString() error = %v", err)
	}
	db, err := database.New(ctx, url, 4, 1)
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(db.Close)
	if err := db.Migrate(ctx, migrations.Postgres()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	store, err := progress.NewPostgresStore(db.Pool)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}
	runStoreContract(t, store)

	t.Run("session events", func(t *testing.T) {
		userID, err := store.EnsureUser(ctx, "erin", progress.RoleStudent)
		if err != nil {
			t.Fatalf("EnsureUser() error = %v", err)
		}

		s, err := progress.Resume(ctx, testCourse(), userID, store,
			progress.WithEventLogger(progress.NewPostgresEventLogger(db.Pool)))
		if err != nil {
			t.Fatalf("Resume() error = %v", err)
		}
		if err := s.StartTest(); err != nil {
			t.Fatalf("StartTest() error = %v", err)
		}
		for _, opt := range []int{0, 0, 0} {
			if _, err := s.Submit(ctx, opt); err != nil {
				t.Fatalf("Submit(%d) error = %v", opt, err)
			}
		}

		counts := map[string]int{}
		rows, err := db.Pool.Query(ctx,
			`SELECT event_type, COUNT(*) FROM events WHERE user_id = $1 GROUP BY event_type`, userID)
		if err != nil {
			t.Fatalf("query events: %v", err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				typ string
				n   int
			)
			if err := rows.Scan(&typ, &n); err != nil {
				t.Fatalf("scan event: %v", err)
			}
			counts[typ] = n
		}
		if err := rows.Err(); err != nil {
			t.Fatalf("iterate events: %v", err)
		}

		if counts[progress.EventAnswerIncorrect] != 3 || counts[progress.EventChapterFailed] != 1 {
			t.Errorf("event counts = %v, want 3 answer_incorrect and 1 chapter_failed", counts)
		}

		var chapter int
		var errorsSeen float64
		if err := db.Pool.QueryRow(ctx,
			`SELECT chapter_id, (data->>'errors')::float8
			 FROM events
			 WHERE user_id = $1 AND event_type = $2
			 ORDER BY id DESC LIMIT 1`,
			userID, progress.EventAnswerIncorrect,
		).Scan(&chapter, &errorsSeen); err != nil {
			t.Fatalf("query last event: %v", err)
		}
		if chapter != 0 || errorsSeen != 3 {
			t.Errorf("last answer_incorrect = chapter %d errors %v, want chapter 0 errors 3", chapter, errorsSeen)
		}
	})
}
