package progress

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Store persists progress records. Sessions only need these two operations.
type Store interface {
	// GetLastProgress returns the user's most recent record, or a
	// LastProgress with ChapterID NoChapter when there is none.
	GetLastProgress(ctx context.Context, userID int64) (LastProgress, error)
	// SaveProgress records the outcome of a chapter for a user.
	SaveProgress(ctx context.Context, rec Record) error
}

// Directory resolves application users by login.
type Directory interface {
	// EnsureUser returns the ID of login, creating the user with role when
	// it does not exist yet.
	EnsureUser(ctx context.Context, login string, role Role) (int64, error)
}

type memoryUser struct {
	id    int64
	login string
	role  Role
}

type memoryKey struct {
	userID    int64
	chapterID int
}

type memoryRecord struct {
	Record
	seq int64
}

// MemoryStore is an in-memory Store, Directory and Reporter.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[int64]memoryUser
	records map[memoryKey]memoryRecord
	nextID  int64
	seq     int64
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[int64]memoryUser),
		records: make(map[memoryKey]memoryRecord),
		now:     time.Now,
	}
}

func (s *MemoryStore) EnsureUser(_ context.Context, login string, role Role) (int64, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return 0, fmt.Errorf("login is required")
	}
	if !role.Valid() {
		return 0, fmt.Errorf("unknown role %q", role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.login == login {
			return u.id, nil
		}
	}
	s.nextID++
	s.users[s.nextID] = memoryUser{id: s.nextID, login: login, role: role}
	return s.nextID, nil
}

func (s *MemoryStore) GetLastProgress(_ context.Context, userID int64) (LastProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		last  memoryRecord
		found bool
	)
	for k, r := range s.records {
		if k.userID != userID {
			continue
		}
		if !found || r.seq > last.seq {
			last, found = r, true
		}
	}
	if !found {
		return LastProgress{ChapterID: NoChapter}, nil
	}
	return LastProgress{ChapterID: last.ChapterID, Status: last.Status}, nil
}

func (s *MemoryStore) SaveProgress(_ context.Context, rec Record) error {
	if err := rec.validate(); err != nil {
		return err
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.records[memoryKey{userID: rec.UserID, chapterID: rec.ChapterID}] = memoryRecord{Record: rec, seq: s.seq}
	return nil
}

// Records returns a snapshot of the stored records of a user ordered by
// chapter.
func (s *MemoryStore) Records(userID int64) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for k, r := range s.records {
		if k.userID == userID {
			out = append(out, r.Record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChapterID < out[j].ChapterID })
	return out
}

func (s *MemoryStore) StudentSummaries(_ context.Context) ([]StudentSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byUser := make(map[int64]*StudentSummary)
	for id, u := range s.users {
		if u.role != RoleStudent {
			continue
		}
		byUser[id] = &StudentSummary{UserID: id, Login: u.login}
	}
	for k, r := range s.records {
		sum, ok := byUser[k.userID]
		if !ok {
			continue
		}
		if r.Status == StatusCompleted {
			sum.CompletedChapters++
		}
		if sum.LastActivity == nil || r.UpdatedAt.After(*sum.LastActivity) {
			t := r.UpdatedAt
			sum.LastActivity = &t
		}
	}

	out := make([]StudentSummary, 0, len(byUser))
	for _, sum := range byUser {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompletedChapters != out[j].CompletedChapters {
			return out[i].CompletedChapters > out[j].CompletedChapters
		}
		return out[i].Login < out[j].Login
	})
	return out, nil
}
