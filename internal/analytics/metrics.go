package analytics

import (
	"math"
	"slices"
	"time"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

// Velocity returns pages read per elapsed day, rounded to the nearest
// integer, derived from progress_update events. A single data point cannot
// define a rate, so fewer than two progress events yields 0.
func Velocity(events []*domain.Event) int {
	var (
		oldest, newest time.Time
		totalPages     int
		count          int
	)

	for _, e := range events {
		if e.Type != domain.EventProgressUpdate {
			continue
		}
		count++
		totalPages += e.PageDelta()
		if oldest.IsZero() || e.OccurredAt.Before(oldest) {
			oldest = e.OccurredAt
		}
		if newest.IsZero() || e.OccurredAt.After(newest) {
			newest = e.OccurredAt
		}
	}

	if count < 2 {
		return 0
	}

	days := int(newest.Sub(oldest).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return int(math.Round(float64(totalPages) / float64(days)))
}

// LifetimeTotals are headline figures derived from the current book set only.
type LifetimeTotals struct {
	BooksFinished int     `json:"books_finished"`
	PagesRead     int     `json:"pages_read"`
	AverageRating float64 `json:"average_rating"`
}

// Lifetime scans the current book set for finished books. Pages read sums
// their total page counts; the average rating excludes unrated finished books
// from both numerator and denominator.
func Lifetime(books []*domain.Book) LifetimeTotals {
	var totals LifetimeTotals
	ratingSum := 0
	rated := 0

	for _, b := range books {
		if b.State != domain.StateFinished {
			continue
		}
		totals.BooksFinished++
		totals.PagesRead += b.Progress.TotalPages
		if b.Rating != nil {
			ratingSum += *b.Rating
			rated++
		}
	}

	if rated > 0 {
		totals.AverageRating = float64(ratingSum) / float64(rated)
	}
	return totals
}

// Streaks holds consecutive-day reading runs.
type Streaks struct {
	CurrentDays int `json:"current_days"`
	LongestDays int `json:"longest_days"`
}

// ReadingStreaks computes current and longest day streaks from the ledger.
// A day qualifies when it has at least one progress_update with a positive
// clamped delta. The current streak must reach today or yesterday; days are
// keyed in now's location.
func ReadingStreaks(events []*domain.Event, now time.Time) Streaks {
	loc := now.Location()

	qualifyingSet := make(map[string]bool)
	for _, e := range events {
		if e.Type != domain.EventProgressUpdate || e.PageDelta() == 0 {
			continue
		}
		qualifyingSet[dayKey(e.OccurredAt.In(loc))] = true
	}

	if len(qualifyingSet) == 0 {
		return Streaks{}
	}

	qualifyingDays := make([]string, 0, len(qualifyingSet))
	for d := range qualifyingSet {
		qualifyingDays = append(qualifyingDays, d)
	}
	slices.Sort(qualifyingDays)

	// Longest run of consecutive days.
	longest := 1
	run := 1
	for i := 1; i < len(qualifyingDays); i++ {
		curr, _ := time.ParseInLocation("2006-01-02", qualifyingDays[i], loc)
		prev, _ := time.ParseInLocation("2006-01-02", qualifyingDays[i-1], loc)
		if prev.AddDate(0, 0, 1).Equal(curr) {
			run++
		} else {
			if run > longest {
				longest = run
			}
			run = 1
		}
	}
	if run > longest {
		longest = run
	}

	// Current streak counts backwards from the most recent qualifying day,
	// which must be today or yesterday.
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	todayKey := dayKey(today)
	yesterdayKey := dayKey(today.AddDate(0, 0, -1))

	current := 0
	last := qualifyingDays[len(qualifyingDays)-1]
	if last == todayKey || last == yesterdayKey {
		current = 1
		check, _ := time.ParseInLocation("2006-01-02", last, loc)
		check = check.AddDate(0, 0, -1)
		for qualifyingSet[dayKey(check)] {
			current++
			check = check.AddDate(0, 0, -1)
		}
	}

	return Streaks{CurrentDays: current, LongestDays: longest}
}

// GoalProgress reports finished-this-year against a yearly goal.
type GoalProgress struct {
	Goal     int `json:"goal"`
	Finished int `json:"finished"`
}

// YearlyGoalProgress counts books finished in now's calendar year.
// A zero goal means no goal is set; the finished count is still reported.
func YearlyGoalProgress(books []*domain.Book, goal int, now time.Time) GoalProgress {
	progress := GoalProgress{Goal: goal}
	for _, b := range books {
		if b.State != domain.StateFinished || b.FinishedAt == nil {
			continue
		}
		if b.FinishedAt.In(now.Location()).Year() == now.Year() {
			progress.Finished++
		}
	}
	return progress
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
