package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vbonduro/spaceaccess/internal/domain"
)

const userColumns = `id, student_id, first_name, last_name, email, status, created_at`

type userRow struct {
	ID        uuid.UUID `db:"id"`
	StudentID string    `db:"student_id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Email     string    `db:"email"`
	Status    string    `db:"status"`
	CreatedAt string    `db:"created_at"`
}

func (r *userRow) toDomain() (*domain.User, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.User{
		ID:        r.ID,
		StudentID: r.StudentID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Status:    r.Status,
		CreatedAt: created,
	}, nil
}

type UserStore struct {
	db sqlx.ExtContext
}

func NewUserStore(db sqlx.ExtContext) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, studentID, firstName, lastName string, createdAt time.Time) (*domain.User, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, student_id, first_name, last_name, email, status, created_at)
		VALUES (?, ?, ?, ?, '', ?, ?)
	`, id, studentID, firstName, lastName, domain.UserStatusActive, formatTime(createdAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (s *UserStore) GetByStudentID(ctx context.Context, studentID string) (*domain.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE student_id = ?`, studentID)
}

func (s *UserStore) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, s.db, &row, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return row.toDomain()
}

func (s *UserStore) List(ctx context.Context) ([]*domain.User, error) {
	var rows []userRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, `
		SELECT `+userColumns+` FROM users ORDER BY last_name ASC, first_name ASC, student_id ASC
	`); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*domain.User, 0, len(rows))
	for i := range rows {
		u, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *UserStore) UpdateNames(ctx context.Context, id uuid.UUID, firstName, lastName string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET first_name = ?, last_name = ? WHERE id = ?
	`, firstName, lastName, id)
	if err != nil {
		return fmt.Errorf("failed to update user names: %w", err)
	}
	return expectOne(result, "user", id.String())
}

func (s *UserStore) Update(ctx context.Context, u *domain.User) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET first_name = ?, last_name = ?, email = ?, status = ? WHERE id = ?
	`, u.FirstName, u.LastName, u.Email, u.Status, u.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return expectOne(result, "user", u.ID.String())
}

// expectOne turns "no rows affected" into a NotFoundError.
func expectOne(result sql.Result, entity, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &domain.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}
