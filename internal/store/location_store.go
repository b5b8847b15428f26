package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vbonduro/spaceaccess/internal/domain"
)

type locationRow struct {
	ID       uuid.UUID     `db:"id"`
	Name     string        `db:"name"`
	Capacity sql.NullInt64 `db:"capacity"`
}

func (r *locationRow) toDomain() *domain.Location {
	loc := &domain.Location{ID: r.ID, Name: r.Name}
	if r.Capacity.Valid {
		c := int(r.Capacity.Int64)
		loc.Capacity = &c
	}
	return loc
}

func nullCapacity(capacity *int) sql.NullInt64 {
	if capacity == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*capacity), Valid: true}
}

type LocationStore struct {
	db sqlx.ExtContext
}

func NewLocationStore(db sqlx.ExtContext) *LocationStore {
	return &LocationStore{db: db}
}

// EnsureSeed inserts the seed location unless a row with its id already
// exists. An existing seed row is left as is, including any rename.
func (s *LocationStore) EnsureSeed(ctx context.Context) (created bool, err error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO locations (id, name, capacity) VALUES (?, ?, ?)
	`, domain.SeedLocationID, domain.SeedLocationName, domain.SeedLocationCapacity)
	if err != nil {
		return false, fmt.Errorf("failed to seed location: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *LocationStore) Create(ctx context.Context, name string, capacity *int) (*domain.Location, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO locations (id, name, capacity) VALUES (?, ?, ?)
	`, id, name, nullCapacity(capacity))
	if err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *LocationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Location, error) {
	var row locationRow
	err := sqlx.GetContext(ctx, s.db, &row, `
		SELECT id, name, capacity FROM locations WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	return row.toDomain(), nil
}

func (s *LocationStore) List(ctx context.Context) ([]*domain.Location, error) {
	var rows []locationRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, `
		SELECT id, name, capacity FROM locations ORDER BY name ASC, id ASC
	`); err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}

	locations := make([]*domain.Location, 0, len(rows))
	for i := range rows {
		locations = append(locations, rows[i].toDomain())
	}
	return locations, nil
}

func (s *LocationStore) Update(ctx context.Context, id uuid.UUID, name string, capacity *int) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE locations SET name = ?, capacity = ? WHERE id = ?
	`, name, nullCapacity(capacity), id)
	if err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	return expectOne(result, "location", id.String())
}

// Delete removes the location and, through the foreign key, its events.
func (s *LocationStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM locations WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	return expectOne(result, "location", id.String())
}
