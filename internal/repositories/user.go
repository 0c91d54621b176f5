package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/soundchat/internal/models"
	"github.com/desertthunder/soundchat/internal/shared"
)

const userColumns = `id, sequence, provider_id, name, email, access_token, refresh_token, created_at, updated_at, deleted_at`

// UserRepository implements [models.Repository] for [models.User] persistence.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		id, providerID, name, email string
		accessToken, refreshToken   string
		sequence                    int
		createdAt, updatedAt        time.Time
		deletedAt                   sql.NullTime
	)

	if err := row.Scan(&id, &sequence, &providerID, &name, &email, &accessToken, &refreshToken, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	user := models.NewUser(sequence, providerID, name, email)
	user.SetID(id)
	user.SetTokens(accessToken, refreshToken)
	user.SetCreatedAt(createdAt)
	user.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		user.SetDeletedAt(&deletedAt.Time)
	}
	return user, nil
}

// Create inserts a new user with a generated ID and sequence
func (r *UserRepository) Create(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.insert(tx, user); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user: %w", err)
	}
	return nil
}

func (r *UserRepository) insert(tx *sql.Tx, user *models.User) error {
	sequence, err := NextSequence(tx, "users")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	user.SetID(shared.GenerateID())
	user.SetSequence(sequence)

	query := `
		INSERT INTO users (id, sequence, provider_id, name, email, access_token, refresh_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.Exec(query,
		user.ID(), sequence, user.ProviderID(), user.Name(), user.Email(),
		user.AccessToken(), user.RefreshToken(), user.CreatedAt(), user.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Get retrieves a user by ID, excluding soft-deleted users
func (r *UserRepository) Get(id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ? AND deleted_at IS NULL`

	user, err := scanUser(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// GetByProviderID retrieves a user by the catalog provider's user id, excluding soft-deleted users
func (r *UserRepository) GetByProviderID(providerID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE provider_id = ? AND deleted_at IS NULL`

	user, err := scanUser(r.db.QueryRow(query, providerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: provider id %s", shared.ErrUserNotFound, providerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// Update modifies an existing user's profile and tokens
func (r *UserRepository) Update(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	user.SetUpdatedAt(now)

	query := `
		UPDATE users
		SET name = ?, email = ?, access_token = ?, refresh_token = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, user.Name(), user.Email(), user.AccessToken(), user.RefreshToken(), now, user.ID())
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrUserNotFound, user.ID())
	}

	return nil
}

// Upsert stores the user keyed by provider id.
//
// A new provider id is inserted. An existing one, soft-deleted or not, keeps its id and sequence and has its profile
// and tokens replaced; a soft-deleted row is restored. On return user carries the stored id and sequence.
//
// The transaction opens with a write so concurrent upserts serialize on the database lock, and the insert resolves
// a conflicting provider id in place.
func (r *UserRepository) Upsert(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.Exec(`
		UPDATE users
		SET name = ?, email = ?, access_token = ?, refresh_token = ?, updated_at = ?, deleted_at = NULL
		WHERE provider_id = ?
	`, user.Name(), user.Email(), user.AccessToken(), user.RefreshToken(), now, user.ProviderID())
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		sequence, err := NextSequence(tx, "users")
		if err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}

		query := `
			INSERT INTO users (id, sequence, provider_id, name, email, access_token, refresh_token, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(provider_id) DO UPDATE SET
				name = excluded.name,
				email = excluded.email,
				access_token = excluded.access_token,
				refresh_token = excluded.refresh_token,
				updated_at = excluded.updated_at,
				deleted_at = NULL
		`
		_, err = tx.Exec(query,
			shared.GenerateID(), sequence, user.ProviderID(), user.Name(), user.Email(),
			user.AccessToken(), user.RefreshToken(), now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
	}

	var (
		id        string
		sequence  int
		createdAt time.Time
	)
	err = tx.QueryRow(`SELECT id, sequence, created_at FROM users WHERE provider_id = ?`, user.ProviderID()).
		Scan(&id, &sequence, &createdAt)
	if err != nil {
		return fmt.Errorf("failed to query user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user: %w", err)
	}

	user.SetID(id)
	user.SetSequence(sequence)
	user.SetCreatedAt(createdAt)
	user.SetUpdatedAt(now)
	user.SetDeletedAt(nil)
	return nil
}

// Delete soft-deletes a user by ID
func (r *UserRepository) Delete(id string) error {
	query := `
		UPDATE users
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
	}

	return nil
}

// List retrieves all users matching the given criteria, excluding soft-deleted users
//
// Supported criteria keys are "email" and "provider_id".
func (r *UserRepository) List(criteria map[string]any) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL`
	args := []any{}

	if email, ok := criteria["email"].(string); ok && email != "" {
		query += " AND email = ?"
		args = append(args, email)
	}
	if providerID, ok := criteria["provider_id"].(string); ok && providerID != "" {
		query += " AND provider_id = ?"
		args = append(args, providerID)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return users, nil
}

var _ models.Repository[*models.User] = (*UserRepository)(nil)
