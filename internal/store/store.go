package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// Store groups the per-table stores. A Store returned by New runs each call
// on the pool; the Store passed to an InTx callback runs everything on one
// transaction.
type Store struct {
	db *sqlx.DB

	Users     *UserStore
	Locations *LocationStore
	Events    *EventStore
}

func New(db *sqlx.DB) *Store {
	return &Store{
		db:        db,
		Users:     NewUserStore(db),
		Locations: NewLocationStore(db),
		Events:    NewEventStore(db),
	}
}

// InTx runs fn inside a single transaction. The transaction is committed
// when fn returns nil and rolled back otherwise, including on panic. Calling
// InTx on a transaction-bound Store reuses the open transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) (err error) {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				slog.Error("failed to roll back transaction", "error", rerr)
			}
		}
	}()

	err = fn(&Store{
		Users:     NewUserStore(tx),
		Locations: NewLocationStore(tx),
		Events:    NewEventStore(tx),
	})
	if err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
