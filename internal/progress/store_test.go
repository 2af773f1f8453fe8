package progress_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/p-n-ai/pai-courseware/internal/progress"
)

// fullStore is what every persistent backend implements.
type fullStore interface {
	progress.Store
	progress.Directory
	progress.Reporter
}

func openSQLite(t *testing.T) *progress.SQLiteStore {
	t.Helper()
	s, err := progress.OpenSQLite(filepath.Join(t.TempDir(), "db", "progress.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStores(t *testing.T) {
	backends := map[string]func(t *testing.T) fullStore{
		"memory": func(*testing.T) fullStore { return progress.NewMemoryStore() },
		"sqlite": func(t *testing.T) fullStore { return openSQLite(t) },
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			runStoreContract(t, open(t))
		})
	}
}

func runStoreContract(t *testing.T, store fullStore) {
	ctx := context.Background()

	alice, err := store.EnsureUser(ctx, "alice", progress.RoleStudent)
	if err != nil {
		t.Fatalf("EnsureUser(alice) error = %v", err)
	}
	again, err := store.EnsureUser(ctx, " alice ", progress.RoleStudent)
	if err != nil {
		t.Fatalf("EnsureUser(alice) again error = %v", err)
	}
	if again != alice {
		t.Errorf("EnsureUser() returned %d then %d for the same login", alice, again)
	}
	bob, _ := store.EnsureUser(ctx, "bob", progress.RoleStudent)
	carol, _ := store.EnsureUser(ctx, "carol", progress.RoleStudent)
	if _, err := store.EnsureUser(ctx, "root", progress.RoleAdmin); err != nil {
		t.Fatalf("EnsureUser(root) error = %v", err)
	}

	t.Run("no record", func(t *testing.T) {
		last, err := store.GetLastProgress(ctx, carol)
		if err != nil {
			t.Fatalf("GetLastProgress() error = %v", err)
		}
		if !last.None() {
			t.Errorf("GetLastProgress() = %+v, want ChapterID -1", last)
		}
	})

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	saves := []progress.Record{
		{UserID: alice, ChapterID: 0, Score: 100, Status: progress.StatusCompleted, UpdatedAt: base},
		{UserID: alice, ChapterID: 1, Score: 0, Status: progress.StatusFail, UpdatedAt: base.Add(time.Minute)},
		{UserID: bob, ChapterID: 0, Score: 0, Status: progress.StatusFail, UpdatedAt: base.Add(2 * time.Minute)},
		{UserID: alice, ChapterID: 1, Score: 100, Status: progress.StatusCompleted, UpdatedAt: base.Add(3 * time.Minute)},
	}
	for _, rec := range saves {
		if err := store.SaveProgress(ctx, rec); err != nil {
			t.Fatalf("SaveProgress(%+v) error = %v", rec, err)
		}
	}

	t.Run("last progress", func(t *testing.T) {
		tests := []struct {
			user int64
			want progress.LastProgress
		}{
			{alice, progress.LastProgress{ChapterID: 1, Status: progress.StatusCompleted}},
			{bob, progress.LastProgress{ChapterID: 0, Status: progress.StatusFail}},
		}
		for _, tt := range tests {
			got, err := store.GetLastProgress(ctx, tt.user)
			if err != nil {
				t.Fatalf("GetLastProgress(%d) error = %v", tt.user, err)
			}
			if got != tt.want {
				t.Errorf("GetLastProgress(%d) = %+v, want %+v", tt.user, got, tt.want)
			}
		}
	})

	t.Run("invalid records", func(t *testing.T) {
		bad := []progress.Record{
			{UserID: 0, ChapterID: 0, Status: progress.StatusCompleted},
			{UserID: alice, ChapterID: -1, Status: progress.StatusCompleted},
			{UserID: alice, ChapterID: 0, Status: "done"},
			{UserID: alice, ChapterID: 0, Score: 101, Status: progress.StatusCompleted},
		}
		for _, rec := range bad {
			if err := store.SaveProgress(ctx, rec); err == nil {
				t.Errorf("SaveProgress(%+v) should fail", rec)
			}
		}
	})

	t.Run("student summaries", func(t *testing.T) {
		got, err := store.StudentSummaries(ctx)
		if err != nil {
			t.Fatalf("StudentSummaries() error = %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("StudentSummaries() = %d rows, want 3 students", len(got))
		}

		wantLogins := []string{"alice", "bob", "carol"}
		wantCompleted := []int{2, 0, 0}
		for i, row := range got {
			if row.Login != wantLogins[i] || row.CompletedChapters != wantCompleted[i] {
				t.Errorf("row %d = %s/%d, want %s/%d", i, row.Login, row.CompletedChapters, wantLogins[i], wantCompleted[i])
			}
		}
		if got[0].LastActivity == nil || !got[0].LastActivity.Equal(base.Add(3*time.Minute)) {
			t.Errorf("alice LastActivity = %v, want %v", got[0].LastActivity, base.Add(3*time.Minute))
		}
		if got[2].LastActivity != nil {
			t.Errorf("carol LastActivity = %v, want nil", got[2].LastActivity)
		}
	})

	t.Run("bad users", func(t *testing.T) {
		if _, err := store.EnsureUser(ctx, "  ", progress.RoleStudent); err == nil {
			t.Error("EnsureUser() should reject an empty login")
		}
		if _, err := store.EnsureUser(ctx, "dave", "guest"); err == nil {
			t.Error("EnsureUser() should reject an unknown role")
		}
	})
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.db")
	ctx := context.Background()

	s, err := progress.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	id, _ := s.EnsureUser(ctx, "alice", progress.RoleStudent)
	if err := s.SaveProgress(ctx, progress.Record{UserID: id, ChapterID: 2, Score: 0, Status: progress.StatusFail}); err != nil {
		t.Fatalf("SaveProgress() error = %v", err)
	}
	s.Close()

	s, err = progress.OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen OpenSQLite() error = %v", err)
	}
	defer s.Close()

	last, err := s.GetLastProgress(ctx, id)
	if err != nil {
		t.Fatalf("GetLastProgress() error = %v", err)
	}
	if last.ChapterID != 2 || last.Status != progress.StatusFail {
		t.Errorf("GetLastProgress() = %+v, want chapter 2 fail", last)
	}
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	if _, err := progress.OpenSQLite(" "); err == nil {
		t.Fatal("OpenSQLite() should reject an empty path")
	}
}

func TestMemoryStore_Records(t *testing.T) {
	s := progress.NewMemoryStore()
	ctx := context.Background()

	_ = s.SaveProgress(ctx, progress.Record{UserID: 1, ChapterID: 1, Score: 0, Status: progress.StatusFail})
	_ = s.SaveProgress(ctx, progress.Record{UserID: 1, ChapterID: 0, Score: 100, Status: progress.StatusCompleted})
	_ = s.SaveProgress(ctx, progress.Record{UserID: 1, ChapterID: 1, Score: 100, Status: progress.StatusCompleted})

	got := s.Records(1)
	if len(got) != 2 {
		t.Fatalf("Records() = %d, want 2 (one per chapter)", len(got))
	}
	if got[1].Status != progress.StatusCompleted || got[1].UpdatedAt.IsZero() {
		t.Errorf("chapter 1 record = %+v, want latest completed with timestamp", got[1])
	}
}

// A full session driven against the SQLite store resumes where it stopped.
func TestSession_ResumesFromSQLite(t *testing.T) {
	store := openSQLite(t)
	ctx := context.Background()
	id, _ := store.EnsureUser(ctx, "alice", progress.RoleStudent)

	s, err := progress.Resume(ctx, testCourse(), id, store)
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	_ = s.StartTest()
	for _, opt := range []int{1, 1} {
		if _, err := s.Submit(ctx, opt); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}

	s2, err := progress.Resume(ctx, testCourse(), id, store)
	if err != nil {
		t.Fatalf("second Resume() error = %v", err)
	}
	if s2.ChapterIndex() != 1 {
		t.Errorf("resumed ChapterIndex() = %d, want 1", s2.ChapterIndex())
	}
}
