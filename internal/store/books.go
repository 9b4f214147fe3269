package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

// CreateBook stores a new book record.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("marshaling book: %w", err)
	}

	key := []byte(bookPrefix + book.ID)

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return fmt.Errorf("book %s: %w", book.ID, ErrBookExists)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("checking existing book: %w", err)
		}
		return txn.Set(key, data)
	})
}

// GetBook retrieves a single book by ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var book domain.Book
	err := s.get([]byte(bookPrefix+id), &book)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("book %s: %w", id, ErrBookNotFound)
		}
		return nil, fmt.Errorf("getting book %s: %w", id, err)
	}

	return &book, nil
}

// UpdateBook overwrites an existing book record. The book must exist.
// Concurrent writers follow last-write-wins; the ledger, not the book
// record, is the source of truth for history.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("marshaling book: %w", err)
	}

	key := []byte(bookPrefix + book.ID)

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("book %s: %w", book.ID, ErrBookNotFound)
		}
		if err != nil {
			return fmt.Errorf("checking existing book: %w", err)
		}
		return txn.Set(key, data)
	})
}

// ListBooks returns all books. The ledger may reference books no longer in
// this set; analytics resolve those to the Unknown genre.
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var books []*domain.Book

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(bookPrefix)
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(bookPrefix)); it.ValidForPrefix([]byte(bookPrefix)); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var book domain.Book
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &book)
			})
			if err != nil {
				return fmt.Errorf("unmarshaling book: %w", err)
			}
			books = append(books, &book)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}

	return books, nil
}

// DeleteBook removes a book record. Its ledger events are retained and
// become orphans, resolved to the Unknown genre at aggregation time.
// Idempotent: deleting a missing book is not an error.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(bookPrefix + id))
	})
}
