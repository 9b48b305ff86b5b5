package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/festival-reservation/internal/model"
)

// ErrEmailExists indicates the unique email is already registered.
var ErrEmailExists = errors.New("email already exists")

// UserRepo provides persistence for user accounts. Registration always
// produces a level-4 user; higher levels only appear through promotion
// or the bootstrap seed.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo constructs a UserRepo with the given DB handle.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, password_hash, name, surname, perms, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }, u *model.User) error {
	return row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Surname,
		&u.Perms, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
}

// Create inserts a new user at the given level and returns its ID. The
// email is normalized to lower case; a duplicate is reported as
// ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, email, passwordHash, name, surname string, perms model.Level) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, name, surname, perms) VALUES (?, ?, ?, ?, ?)`,
		email, passwordHash, name, surname, perms)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = ? LIMIT 1`
	var u model.User
	if err := scanUser(r.db.QueryRowContext(ctx, q, email), &u); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = ? LIMIT 1`
	var u model.User
	if err := scanUser(r.db.QueryRowContext(ctx, q, id), &u); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// List returns every account ordered by privilege then id, for the
// admin console.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users ORDER BY perms ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdatePerms sets a user's privilege level. Authorization (the
// strictly-downward grant rule) is enforced by the service layer.
func (r *UserRepo) UpdatePerms(ctx context.Context, id uint64, perms model.Level) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET perms = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		perms, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetActive flips the account's active flag. Deactivation makes the
// account inert without deleting any history.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		active, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}
