package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/vbonduro/spaceaccess/internal/domain"
	"github.com/vbonduro/spaceaccess/internal/store"
)

// Directory owns User records. Users are normally created implicitly by
// the first scan of a student id.
type Directory struct {
	store  *store.Store
	logger *slog.Logger
	opts   options
}

func NewDirectory(st *store.Store, logger *slog.Logger, opts ...Option) *Directory {
	return &Directory{store: st, logger: logger, opts: buildOptions(opts)}
}

// GetOrCreate returns the user with studentID, creating it when missing.
// For an existing user, non-blank names overwrite the stored ones and blank
// names leave them alone.
func (d *Directory) GetOrCreate(ctx context.Context, studentID, firstName, lastName string) (*domain.User, bool, error) {
	var (
		user    *domain.User
		created bool
	)
	err := d.store.InTx(ctx, func(tx *store.Store) error {
		var err error
		user, created, err = getOrCreateUser(ctx, tx, studentID, firstName, lastName, d.opts.now())
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		d.logger.Info("user created", "student_id", user.StudentID)
	}
	return user, created, nil
}

func getOrCreateUser(ctx context.Context, tx *store.Store, studentID, firstName, lastName string, now time.Time) (*domain.User, bool, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, false, &domain.ValidationError{Field: "student_id", Message: "is required"}
	}
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)

	user, err := tx.Users.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, false, err
	}
	if user == nil {
		user, err = tx.Users.Create(ctx, studentID, firstName, lastName, now)
		if err != nil {
			return nil, false, err
		}
		return user, true, nil
	}

	if firstName == "" && lastName == "" {
		return user, false, nil
	}
	if firstName != "" {
		user.FirstName = firstName
	}
	if lastName != "" {
		user.LastName = lastName
	}
	if err := tx.Users.UpdateNames(ctx, user.ID, user.FirstName, user.LastName); err != nil {
		return nil, false, err
	}
	return user, false, nil
}

// Get returns the user with studentID or a NotFoundError.
func (d *Directory) Get(ctx context.Context, studentID string) (*domain.User, error) {
	user, err := d.store.Users.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.NotFoundError{Entity: "user", ID: studentID}
	}
	return user, nil
}

func (d *Directory) List(ctx context.Context) ([]*domain.User, error) {
	return d.store.Users.List(ctx)
}

// UserUpdate is an explicit directory edit. Every field replaces the stored
// value; Status defaults to active when blank.
type UserUpdate struct {
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Email     string `json:"email" validate:"omitempty,email,max=254"`
	Status    string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// Update edits the user with studentID, creating it first when the
// directory has never seen the id.
func (d *Directory) Update(ctx context.Context, studentID string, in UserUpdate) (*domain.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.Status = strings.TrimSpace(in.Status)
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = domain.UserStatusActive
	}

	var user *domain.User
	err := d.store.InTx(ctx, func(tx *store.Store) error {
		u, _, err := getOrCreateUser(ctx, tx, studentID, "", "", d.opts.now())
		if err != nil {
			return err
		}
		u.FirstName = in.FirstName
		u.LastName = in.LastName
		u.Email = in.Email
		u.Status = in.Status
		if err := tx.Users.Update(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
