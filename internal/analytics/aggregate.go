// Package analytics derives chart and headline data from the current book set
// and the progress ledger. Everything here is a pure full recompute: no
// caching, no incremental state. Callers pass snapshots and get plain rows of
// primitive values back.
package analytics

import (
	"slices"
	"time"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

// monthsInWindow is the fixed trailing window for the monthly activity matrix.
const monthsInWindow = 12

// monthLabelFormat renders bucket labels, e.g. "Jan 2026".
const monthLabelFormat = "Jan 2006"

// MonthBucket is one calendar-month row of the activity matrix. Pages carries
// a key for EVERY genre in the aggregation universe, zero-filled where the
// genre had no activity that month - consumers always get a dense matrix.
type MonthBucket struct {
	Month string         `json:"month"`
	Total int            `json:"total"`
	Pages map[string]int `json:"pages"`
}

// MonthlyActivity builds the trailing 12-month reading matrix, oldest month
// first, from progress_update events resolved against the current book set.
//
// Genres are resolved at aggregation time: an event does not carry its own
// genre, so editing a book's genre retroactively recategorizes all of its
// historical events. Events whose book is gone or ungenred fall into the
// Unknown bucket. Negative page deltas clamp to zero.
//
// Empty books or empty events produce an empty slice, never 12 zero rows -
// callers distinguish "no data" from a quiet year.
func MonthlyActivity(books []*domain.Book, events []*domain.Event, now time.Time) []MonthBucket {
	if len(books) == 0 || len(events) == 0 {
		return []MonthBucket{}
	}

	genreByBook := make(map[string]string, len(books))
	for _, b := range books {
		genreByBook[b.ID] = b.EffectiveGenre()
	}

	// The genre universe spans the ENTIRE filtered event set, not just the
	// 12-month window, so every row zero-fills the same columns.
	universe := make(map[string]struct{})
	var progress []*domain.Event
	for _, e := range events {
		if e.Type != domain.EventProgressUpdate {
			continue
		}
		progress = append(progress, e)
		universe[resolveGenre(genreByBook, e.BookID)] = struct{}{}
	}

	genres := make([]string, 0, len(universe))
	for g := range universe {
		genres = append(genres, g)
	}
	slices.Sort(genres)

	// Trailing 12 calendar months including the current one, first-of-month
	// anchored, oldest first.
	loc := now.Location()
	windowStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -(monthsInWindow - 1), 0)

	buckets := make([]MonthBucket, monthsInWindow)
	bucketIndex := make(map[string]int, monthsInWindow)
	for i := range monthsInWindow {
		monthStart := windowStart.AddDate(0, i, 0)
		label := monthStart.Format(monthLabelFormat)
		pages := make(map[string]int, len(genres))
		for _, g := range genres {
			pages[g] = 0
		}
		buckets[i] = MonthBucket{Month: label, Pages: pages}
		bucketIndex[monthKey(monthStart)] = i
	}

	for _, e := range progress {
		i, ok := bucketIndex[monthKey(e.OccurredAt.In(loc))]
		if !ok {
			continue // outside the trailing window
		}
		delta := e.PageDelta()
		if delta == 0 {
			continue
		}
		genre := resolveGenre(genreByBook, e.BookID)
		buckets[i].Pages[genre] += delta
		buckets[i].Total += delta
	}

	return buckets
}

// GenreShare is one genre's slice of the all-time reading distribution.
type GenreShare struct {
	Genre      string  `json:"genre"`
	Pages      int     `json:"pages"`
	Percentage float64 `json:"percentage"`
}

// GenreDistribution totals clamped page deltas per genre over the whole
// ledger, resolved against the current book set, sorted by pages descending
// (ties break alphabetically for stable output).
func GenreDistribution(books []*domain.Book, events []*domain.Event) []GenreShare {
	if len(books) == 0 || len(events) == 0 {
		return []GenreShare{}
	}

	genreByBook := make(map[string]string, len(books))
	for _, b := range books {
		genreByBook[b.ID] = b.EffectiveGenre()
	}

	totals := make(map[string]int)
	grandTotal := 0
	for _, e := range events {
		if e.Type != domain.EventProgressUpdate {
			continue
		}
		delta := e.PageDelta()
		genre := resolveGenre(genreByBook, e.BookID)
		totals[genre] += delta
		grandTotal += delta
	}

	shares := make([]GenreShare, 0, len(totals))
	for genre, pages := range totals {
		pct := 0.0
		if grandTotal > 0 {
			pct = float64(pages) / float64(grandTotal) * 100
		}
		shares = append(shares, GenreShare{Genre: genre, Pages: pages, Percentage: pct})
	}

	slices.SortFunc(shares, func(a, b GenreShare) int {
		if a.Pages != b.Pages {
			if b.Pages > a.Pages {
				return 1
			}
			return -1
		}
		return compareStrings(a.Genre, b.Genre)
	})

	return shares
}

// resolveGenre looks up an event's genre in the current book set. Orphaned
// events (book deleted) resolve to Unknown rather than being dropped.
func resolveGenre(genreByBook map[string]string, bookID string) string {
	if genre, ok := genreByBook[bookID]; ok {
		return genre
	}
	return domain.GenreUnknown
}

// monthKey identifies a calendar month within a location.
func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
