package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

func TestVelocity(t *testing.T) {
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no events", func(t *testing.T) {
		assert.Equal(t, 0, Velocity(nil))
	})

	t.Run("single event cannot define a rate", func(t *testing.T) {
		events := []*domain.Event{progressEvent("e1", "b1", 0, 500, base)}
		assert.Equal(t, 0, Velocity(events))
	})

	t.Run("100 pages over 10 days", func(t *testing.T) {
		events := []*domain.Event{
			progressEvent("e1", "b1", 0, 40, base),
			progressEvent("e2", "b1", 40, 100, base.AddDate(0, 0, 10)),
		}
		assert.Equal(t, 10, Velocity(events))
	})

	t.Run("same-day events use a one-day floor", func(t *testing.T) {
		events := []*domain.Event{
			progressEvent("e1", "b1", 0, 30, base),
			progressEvent("e2", "b1", 30, 80, base.Add(2*time.Hour)),
		}
		assert.Equal(t, 80, Velocity(events))
	})

	t.Run("regressions do not subtract", func(t *testing.T) {
		events := []*domain.Event{
			progressEvent("e1", "b1", 0, 100, base),
			progressEvent("e2", "b1", 100, 50, base.AddDate(0, 0, 5)),
		}
		// 100 + 0 over 5 days.
		assert.Equal(t, 20, Velocity(events))
	})

	t.Run("non-progress events ignored", func(t *testing.T) {
		events := []*domain.Event{
			progressEvent("e1", "b1", 0, 100, base),
			domain.NewStateChangeEvent("e2", "u", "b1", domain.StateInProgress, domain.StateFinished, base.AddDate(0, 0, 20)),
		}
		assert.Equal(t, 0, Velocity(events))
	})
}

func TestLifetime(t *testing.T) {
	rating5 := 5
	rating3 := 3

	finished := fictionBook("b1")
	finished.Rating = &rating5

	finishedUnrated := fictionBook("b2")

	finishedRated3 := fictionBook("b3")
	finishedRated3.Rating = &rating3

	reading := fictionBook("b4")
	reading.State = domain.StateInProgress
	reading.Rating = &rating5 // ignored: not finished

	totals := Lifetime([]*domain.Book{finished, finishedUnrated, finishedRated3, reading})

	assert.Equal(t, 3, totals.BooksFinished)
	assert.Equal(t, 900, totals.PagesRead)
	// Unrated finished book excluded from both sides of the average.
	assert.InDelta(t, 4.0, totals.AverageRating, 0.001)
}

func TestLifetime_Empty(t *testing.T) {
	totals := Lifetime(nil)
	assert.Equal(t, 0, totals.BooksFinished)
	assert.Equal(t, 0, totals.PagesRead)
	assert.Equal(t, 0.0, totals.AverageRating)
}

func TestReadingStreaks(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("no events", func(t *testing.T) {
		s := ReadingStreaks(nil, now)
		assert.Equal(t, 0, s.CurrentDays)
		assert.Equal(t, 0, s.LongestDays)
	})

	t.Run("five day run ending today", func(t *testing.T) {
		var events []*domain.Event
		for i := range 5 {
			at := now.AddDate(0, 0, -i)
			events = append(events, progressEvent("e", "b1", i*10, i*10+10, at))
		}
		s := ReadingStreaks(events, now)
		assert.Equal(t, 5, s.CurrentDays)
		assert.Equal(t, 5, s.LongestDays)
	})

	t.Run("broken streak keeps longest", func(t *testing.T) {
		var events []*domain.Event
		// Seven-day run ending three days ago.
		for i := 3; i < 10; i++ {
			at := now.AddDate(0, 0, -i)
			events = append(events, progressEvent("e", "b1", 0, 10, at))
		}
		// Fresh start today.
		events = append(events, progressEvent("e", "b1", 10, 20, now))

		s := ReadingStreaks(events, now)
		assert.Equal(t, 1, s.CurrentDays)
		assert.Equal(t, 7, s.LongestDays)
	})

	t.Run("zero-delta events do not qualify", func(t *testing.T) {
		events := []*domain.Event{
			progressEvent("e1", "b1", 10, 20, now),
			progressEvent("e2", "b1", 20, 20, now.AddDate(0, 0, -1)), // no movement
		}
		s := ReadingStreaks(events, now)
		assert.Equal(t, 1, s.CurrentDays)
	})

	t.Run("streak ending yesterday still current", func(t *testing.T) {
		events := []*domain.Event{
			progressEvent("e1", "b1", 0, 10, now.AddDate(0, 0, -1)),
			progressEvent("e2", "b1", 10, 20, now.AddDate(0, 0, -2)),
		}
		s := ReadingStreaks(events, now)
		assert.Equal(t, 2, s.CurrentDays)
	})

	t.Run("stale streak is not current", func(t *testing.T) {
		events := []*domain.Event{
			progressEvent("e1", "b1", 0, 10, now.AddDate(0, 0, -5)),
		}
		s := ReadingStreaks(events, now)
		assert.Equal(t, 0, s.CurrentDays)
		assert.Equal(t, 1, s.LongestDays)
	})
}

func TestYearlyGoalProgress(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	thisYear := now.AddDate(0, -2, 0)
	lastYear := now.AddDate(-1, 0, 0)

	b1 := fictionBook("b1")
	b1.FinishedAt = &thisYear

	b2 := fictionBook("b2")
	b2.FinishedAt = &lastYear

	b3 := fictionBook("b3")
	b3.State = domain.StateInProgress

	progress := YearlyGoalProgress([]*domain.Book{b1, b2, b3}, 24, now)
	assert.Equal(t, 24, progress.Goal)
	assert.Equal(t, 1, progress.Finished)
}
