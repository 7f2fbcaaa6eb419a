package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/monthly-attendance/internal/persistence"
)

const userColumns = `id, email, display_name, password_hash, federated_subject, created_at, updated_at`

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateUser inserts a new user. A user needs a password hash, a federated
// subject or both.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if err := validateUser(user); err != nil {
		return err
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		user.ID,
		normalizeEmail(user.Email),
		user.DisplayName,
		user.PasswordHash,
		nullString(user.FederatedSubject),
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// UpdateUser replaces the mutable fields of an existing user.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if err := validateUser(user); err != nil {
		return err
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = time.Now().UTC()
	}

	query := `
		UPDATE users
		SET email = ?, display_name = ?, password_hash = ?, federated_subject = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.helper.Exec(ctx, query,
		normalizeEmail(user.Email),
		user.DisplayName,
		user.PasswordHash,
		nullString(user.FederatedSubject),
		formatTime(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return r.getUserBy(ctx, "id", id)
}

// GetUserByEmail retrieves a user by email, ignoring case and surrounding spaces.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return r.getUserBy(ctx, "email", normalized)
}

// GetUserByFederatedSubject retrieves the user linked to a federated identity.
func (r *UserRepository) GetUserByFederatedSubject(ctx context.Context, subject string) (persistence.User, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return r.getUserBy(ctx, "federated_subject", subject)
}

// getUserBy looks a user up by one of the unique columns. column is never user input.
func (r *UserRepository) getUserBy(ctx context.Context, column, value string) (persistence.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`

	var (
		user                 persistence.User
		subject              sql.NullString
		createdAt, updatedAt string
	)
	err := r.helper.QueryRow(ctx, query, value).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&subject,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}

	if subject.Valid {
		s := subject.String
		user.FederatedSubject = &s
	}
	if user.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

func validateUser(user persistence.User) error {
	if user.ID == "" || normalizeEmail(user.Email) == "" {
		return persistence.ErrConstraintViolation
	}
	if user.PasswordHash == "" && (user.FederatedSubject == nil || *user.FederatedSubject == "") {
		return persistence.ErrConstraintViolation
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nullString(value *string) sql.NullString {
	if value == nil || *value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
