package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/vbonduro/spaceaccess/internal/domain"
	"github.com/vbonduro/spaceaccess/internal/store"
)

// Locations is the registry of named, optionally capacity-bounded zones.
type Locations struct {
	store  *store.Store
	logger *slog.Logger
}

func NewLocations(st *store.Store, logger *slog.Logger) *Locations {
	return &Locations{store: st, logger: logger}
}

// LocationInput carries the editable fields of a location. A nil Capacity
// means unbounded.
type LocationInput struct {
	Name     string `json:"name" validate:"required,max=200"`
	Capacity *int   `json:"capacity" validate:"omitempty,gte=0"`
}

// EnsureSeed creates the seed location if it is missing. It is safe to
// call on every start.
func (l *Locations) EnsureSeed(ctx context.Context) error {
	created, err := l.store.Locations.EnsureSeed(ctx)
	if err != nil {
		return err
	}
	if created {
		l.logger.Info("seed location created", "location_id", domain.SeedLocationID, "name", domain.SeedLocationName)
	}
	return nil
}

func (l *Locations) List(ctx context.Context) ([]*domain.Location, error) {
	return l.store.Locations.List(ctx)
}

// Get returns the location or a NotFoundError.
func (l *Locations) Get(ctx context.Context, id uuid.UUID) (*domain.Location, error) {
	loc, err := l.store.Locations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, &domain.NotFoundError{Entity: "location", ID: id.String()}
	}
	return loc, nil
}

func (l *Locations) Add(ctx context.Context, in LocationInput) (*domain.Location, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}

	loc, err := l.store.Locations.Create(ctx, in.Name, in.Capacity)
	if err != nil {
		return nil, err
	}
	l.logger.Info("location added", "location_id", loc.ID, "name", loc.Name)
	return loc, nil
}

// Update renames and recapacities the location in one step.
func (l *Locations) Update(ctx context.Context, id uuid.UUID, in LocationInput) (*domain.Location, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}

	var loc *domain.Location
	err := l.store.InTx(ctx, func(tx *store.Store) error {
		if err := tx.Locations.Update(ctx, id, in.Name, in.Capacity); err != nil {
			return err
		}
		var err error
		loc, err = tx.Locations.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.logger.Info("location updated", "location_id", id, "name", loc.Name)
	return loc, nil
}

// Delete removes a location and its events. The seed location is
// protected.
func (l *Locations) Delete(ctx context.Context, id uuid.UUID) error {
	if id == domain.SeedLocationID {
		return &domain.ProtectedEntityError{Entity: "location", ID: id.String()}
	}
	if err := l.store.Locations.Delete(ctx, id); err != nil {
		return err
	}
	l.logger.Info("location deleted", "location_id", id)
	return nil
}
