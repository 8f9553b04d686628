package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-agua/internal/common"
)

// Roles assignable to operators of the system.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// User is an operator account. PasswordHash is never serialised.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store abstracts user persistence.
type Store interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int64) error
}

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	Pool *pgxpool.Pool
}

var _ Store = (*PGStore)(nil)

const userColumns = "id, username, password_hash, full_name, role, created_at, updated_at"

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *PGStore) List(ctx context.Context) ([]User, error) {
	rows, err := s.Pool.Query(ctx, fmt.Sprintf("SELECT %s FROM users ORDER BY username ASC", userColumns))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *PGStore) Get(ctx context.Context, id int64) (User, error) {
	return scanUser(s.Pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns), id))
}

func (s *PGStore) GetByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(s.Pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM users WHERE username = $1", userColumns), username))
}

func (s *PGStore) Create(ctx context.Context, u *User) error {
	return s.Pool.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, full_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		u.Username, u.PasswordHash, u.FullName, u.Role,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (s *PGStore) Update(ctx context.Context, u *User) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE users SET username = $2, password_hash = $3, full_name = $4, role = $5, updated_at = now()
		WHERE id = $1`,
		u.ID, u.Username, u.PasswordHash, u.FullName, u.Role)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.Pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Input carries create payloads after decoding.
type Input struct {
	Username string `json:"username" validate:"required,min=3,max=60"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	FullName string `json:"full_name" validate:"max=200"`
	Role     string `json:"role" validate:"required,oneof=admin operator"`
}

// UpdateInput carries update payloads; empty password keeps the current one.
type UpdateInput struct {
	Username string `json:"username" validate:"required,min=3,max=60"`
	Password string `json:"password" validate:"omitempty,min=8,max=128"`
	FullName string `json:"full_name" validate:"max=200"`
	Role     string `json:"role" validate:"required,oneof=admin operator"`
}

// Service manages operator accounts.
type Service struct {
	Store Store
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.Store.List(ctx)
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	u, err := s.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, common.NotFoundError("user")
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByUsername returns the account for a login name.
func (s *Service) GetByUsername(ctx context.Context, username string) (User, error) {
	u, err := s.Store.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, common.NotFoundError("user")
		}
		return User{}, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// Create hashes the password and persists the account.
func (s *Service) Create(ctx context.Context, in Input) (User, error) {
	hash, err := argon2id.CreateHash(in.Password, argon2id.DefaultParams)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	u := User{
		Username:     strings.ToLower(strings.TrimSpace(in.Username)),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		Role:         in.Role,
	}
	if err := s.Store.Create(ctx, &u); err != nil {
		if isUniqueViolation(err) {
			return User{}, common.ValidationError("username", "already taken")
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Update rewrites the account; the password only changes when provided.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (User, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	current.Username = strings.ToLower(strings.TrimSpace(in.Username))
	current.FullName = strings.TrimSpace(in.FullName)
	current.Role = in.Role
	if in.Password != "" {
		hash, err := argon2id.CreateHash(in.Password, argon2id.DefaultParams)
		if err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
		current.PasswordHash = hash
	}
	if err := s.Store.Update(ctx, &current); err != nil {
		if isUniqueViolation(err) {
			return User{}, common.ValidationError("username", "already taken")
		}
		return User{}, fmt.Errorf("update user: %w", err)
	}
	return current, nil
}

// Delete removes the account. The last admin cannot be deleted.
func (s *Service) Delete(ctx context.Context, id int64) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if u.Role == RoleAdmin {
		all, err := s.Store.List(ctx)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		admins := 0
		for _, other := range all {
			if other.Role == RoleAdmin {
				admins++
			}
		}
		if admins <= 1 {
			return common.BusinessError("LAST_ADMIN", "cannot delete the last admin account", nil)
		}
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NotFoundError("user")
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// VerifyPassword checks a plaintext password against the stored hash.
func VerifyPassword(password, hash string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	return err == nil && match
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
