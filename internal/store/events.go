package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

// Event index key prefixes.
// Uses inverted timestamps for descending order (newest first) during forward iteration.
const (
	eventIdxUserPrefix = "event:idx:user:"
	eventIdxBookPrefix = "event:idx:book:"
)

// invertedTimestamp returns a string that sorts in descending order.
// Uses MaxInt64 - UnixNano to ensure newest timestamps come first during forward iteration.
func invertedTimestamp(t time.Time) string {
	inverted := math.MaxInt64 - t.UnixNano()
	return fmt.Sprintf("%019d", inverted)
}

// CommitMutation writes a book mutation and its ledger event as ONE badger
// transaction: either both land or neither does. This is the only write path
// that touches the ledger - events get no standalone create, update, or
// delete. The event's indexes are written in the same transaction.
func (s *Store) CommitMutation(ctx context.Context, book *domain.Book, event *domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bookData, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("marshaling book: %w", err)
	}
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	invertedTS := invertedTimestamp(event.OccurredAt)

	err = s.db.Update(func(txn *badger.Txn) error {
		bookKey := []byte(bookPrefix + book.ID)
		if _, err := txn.Get(bookKey); errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("book %s: %w", book.ID, ErrBookNotFound)
		} else if err != nil {
			return fmt.Errorf("checking book: %w", err)
		}

		if err := txn.Set(bookKey, bookData); err != nil {
			return fmt.Errorf("setting book: %w", err)
		}

		// Primary key: event:{id} -> Event JSON
		if err := txn.Set([]byte(eventPrefix+event.ID), eventData); err != nil {
			return fmt.Errorf("setting event: %w", err)
		}

		// User index: event:idx:user:{userId}:{inverted_timestamp}:{id} -> ""
		userKey := []byte(eventIdxUserPrefix + event.UserID + ":" + invertedTS + ":" + event.ID)
		if err := txn.Set(userKey, []byte{}); err != nil {
			return fmt.Errorf("setting user index: %w", err)
		}

		// Book index: event:idx:book:{bookId}:{inverted_timestamp}:{id} -> ""
		bookIdxKey := []byte(eventIdxBookPrefix + event.BookID + ":" + invertedTS + ":" + event.ID)
		if err := txn.Set(bookIdxKey, []byte{}); err != nil {
			return fmt.Errorf("setting book index: %w", err)
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("committing mutation for book %s: %w", book.ID, err)
	}

	if s.logger != nil {
		s.logger.Debug("ledger commit",
			"book_id", book.ID,
			"event_id", event.ID,
			"event_type", event.Type,
		)
	}

	return nil
}

// GetEvent retrieves a single event by ID.
func (s *Store) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var event domain.Event
	err := s.get([]byte(eventPrefix+id), &event)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("event %s: %w", id, ErrEventNotFound)
		}
		return nil, fmt.Errorf("getting event %s: %w", id, err)
	}

	return &event, nil
}

// EventsForBook retrieves all events for a book, newest first. Works for
// deleted books too: the index outlives the book record.
func (s *Store) EventsForBook(ctx context.Context, bookID string) ([]*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	indexPrefix := []byte(eventIdxBookPrefix + bookID + ":")
	events, err := s.eventsByIndex(indexPrefix, 0)
	if err != nil {
		return nil, fmt.Errorf("fetching events for book %s: %w", bookID, err)
	}
	return events, nil
}

// EventsForUser retrieves a user's events, newest first. A positive limit
// truncates the result (no pagination); limit <= 0 returns everything.
func (s *Store) EventsForUser(ctx context.Context, userID string, limit int) ([]*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	indexPrefix := []byte(eventIdxUserPrefix + userID + ":")
	events, err := s.eventsByIndex(indexPrefix, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching events for user %s: %w", userID, err)
	}
	return events, nil
}

// eventsByIndex walks a key-only index and resolves each entry's event.
// Index keys end in ":{inverted_ts}:{id}"; forward iteration is newest-first.
func (s *Store) eventsByIndex(indexPrefix []byte, limit int) ([]*domain.Event, error) {
	var events []*domain.Event

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // Key-only index, no values to fetch
		opts.Prefix = indexPrefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(indexPrefix); it.ValidForPrefix(indexPrefix); it.Next() {
			if limit > 0 && len(events) >= limit {
				break
			}

			eventID := extractEventID(string(it.Item().Key()), len(indexPrefix))
			if eventID == "" {
				continue
			}

			event, err := s.getEventInTxn(txn, eventID)
			if err != nil {
				continue
			}
			events = append(events, event)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return events, nil
}

// getEventInTxn retrieves an event within an existing transaction.
func (s *Store) getEventInTxn(txn *badger.Txn, id string) (*domain.Event, error) {
	item, err := txn.Get([]byte(eventPrefix + id))
	if err != nil {
		return nil, err
	}

	var event domain.Event
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &event)
	})
	if err != nil {
		return nil, err
	}

	return &event, nil
}

// extractEventID extracts the event ID from an index key.
// Key format: {prefix}{inverted_ts}:{id} where the timestamp is 19 digits.
func extractEventID(key string, prefixLen int) string {
	if len(key) <= prefixLen+20 { // 19 digits + colon
		return ""
	}
	return key[prefixLen+20:]
}
