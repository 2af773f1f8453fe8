package progress

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// StudentSummary is one row of the admin progress report.
type StudentSummary struct {
	UserID            int64
	Login             string
	CompletedChapters int
	LastActivity      *time.Time // nil when the student has no records
}

// Reporter produces the admin progress report.
type Reporter interface {
	// StudentSummaries returns one row per student ordered by completed
	// chapters, most first, then by login.
	StudentSummaries(ctx context.Context) ([]StudentSummary, error)
}

// SortSummaries orders rows by completed chapters (descending) and then by
// login using the collation rules of tag.
func SortSummaries(rows []StudentSummary, tag language.Tag) {
	col := collate.New(tag, collate.IgnoreCase)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CompletedChapters != rows[j].CompletedChapters {
			return rows[i].CompletedChapters > rows[j].CompletedChapters
		}
		return col.CompareString(rows[i].Login, rows[j].Login) < 0
	})
}

// FilterSummaries returns the rows whose login contains query, ignoring
// case. An empty query matches every row.
func FilterSummaries(rows []StudentSummary, query string) []StudentSummary {
	query = strings.TrimSpace(query)
	if query == "" {
		return rows
	}

	fold := cases.Fold()
	needle := fold.String(query)
	out := make([]StudentSummary, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(fold.String(r.Login), needle) {
			out = append(out, r)
		}
	}
	return out
}
