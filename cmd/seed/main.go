// Package main provides a tool to seed the database with test reading data.
//
// This creates a handful of books across genres and backfills a year of
// progress events to exercise the analytics endpoints.
//
// Usage:
//
//	DB_PATH=~/Shelfmark/data/db go run ./cmd/seed
//	DB_PATH=~/Shelfmark/data/db go run ./cmd/seed --months=6
package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/id"
	"github.com/shelfmark/shelfmark-server/internal/logger"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

var months = flag.Int("months", 12, "How many months of history to generate")

const seedUserID = "user-default"

type seedBook struct {
	title      string
	author     string
	genre      string
	totalPages int
}

var shelf = []seedBook{
	{"The Name of the Wind", "Patrick Rothfuss", "Fantasy", 662},
	{"Project Hail Mary", "Andy Weir", "Science Fiction", 476},
	{"The Thursday Murder Club", "Richard Osman", "Mystery", 382},
	{"Thinking, Fast and Slow", "Daniel Kahneman", "Nonfiction", 499},
	{"Piranesi", "Susanna Clarke", "Fantasy", 245},
	{"Notes from a Small Island", "Bill Bryson", "", 324},
}

func main() {
	flag.Parse()

	log := logger.New(logger.Config{Level: slog.LevelInfo, Environment: "development"})

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/Shelfmark/data/db")
	}

	log.Info("opening database", "path", dbPath)

	s, err := store.New(dbPath, nil)
	if err != nil {
		log.Fatal("failed to open store", "error", err)
	}
	defer s.Close()

	ctx := context.Background()
	now := time.Now()
	rng := rand.New(rand.NewSource(now.UnixNano()))

	for _, sb := range shelf {
		book := &domain.Book{
			ID:       id.MustGenerate("bk"),
			Title:    sb.title,
			Author:   sb.author,
			Genre:    sb.genre,
			State:    domain.StateNotStarted,
			Progress: domain.Progress{TotalPages: sb.totalPages},
			IsOwned:  true,
		}
		book.InitTimestamps()

		if err := s.CreateBook(ctx, book); err != nil {
			log.Fatal("failed to create book", "title", sb.title, "error", err)
		}

		if err := seedHistory(ctx, s, book, rng, now, *months); err != nil {
			log.Fatal("failed to seed history", "title", sb.title, "error", err)
		}

		log.Info("seeded book", "title", book.Title, "genre", book.EffectiveGenre(), "pages", sb.totalPages)
	}

	log.Info("done")
}

// seedHistory walks a book from not_started through a series of progress
// updates spread over the window, finishing roughly half the books.
func seedHistory(ctx context.Context, s *store.Store, book *domain.Book, rng *rand.Rand, now time.Time, months int) error {
	start := now.AddDate(0, -rng.Intn(months), -rng.Intn(28))

	if err := book.Apply(domain.StateInProgress, start); err != nil {
		return err
	}
	event := domain.NewStateChangeEvent(id.MustGenerate("evt"), seedUserID, book.ID,
		domain.StateNotStarted, domain.StateInProgress, start)
	if err := s.CommitMutation(ctx, book, event); err != nil {
		return err
	}

	// A handful of reading sessions, each advancing 20-80 pages.
	sessions := 3 + rng.Intn(5)
	at := start
	for i := 0; i < sessions && book.Progress.CurrentPage < book.Progress.TotalPages; i++ {
		at = at.Add(time.Duration(6+rng.Intn(96)) * time.Hour)
		if at.After(now) {
			break
		}

		prev := book.Progress.CurrentPage
		next := prev + 20 + rng.Intn(60)
		if next > book.Progress.TotalPages {
			next = book.Progress.TotalPages
		}

		if err := book.ApplyProgress(next, at); err != nil {
			return err
		}
		event := domain.NewProgressUpdateEvent(id.MustGenerate("evt"), seedUserID, book.ID, prev, next, at)
		if err := s.CommitMutation(ctx, book, event); err != nil {
			return err
		}
	}

	// Finish the book when the last session reached the end.
	if book.Progress.CurrentPage == book.Progress.TotalPages {
		if err := book.Apply(domain.StateFinished, at); err != nil {
			return err
		}
		event := domain.NewStateChangeEvent(id.MustGenerate("evt"), seedUserID, book.ID,
			domain.StateInProgress, domain.StateFinished, at)
		if err := s.CommitMutation(ctx, book, event); err != nil {
			return err
		}

		rating := 3 + rng.Intn(3)
		book.Rating = &rating
		book.Touch(at)
		ratingEvent := domain.NewRatingAddedEvent(id.MustGenerate("evt"), seedUserID, book.ID, rating, at)
		if err := s.CommitMutation(ctx, book, ratingEvent); err != nil {
			return err
		}
	}

	return nil
}
