package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/desertthunder/soundchat/internal/models"
	"github.com/desertthunder/soundchat/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: shared.MemoryDatabase})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		tx, err := db.Begin()
		if err != nil {
			t.Fatalf("failed to begin transaction: %v", err)
		}

		got, err := NextSequence(tx, "users")
		if err != nil {
			tx.Rollback()
			t.Fatalf("failed to get sequence: %v", err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("failed to commit: %v", err)
		}

		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	t.Run("Rolled Back Sequence Is Reused", func(t *testing.T) {
		db := setupTestDB(t)

		tx, _ := db.Begin()
		if _, err := NextSequence(tx, "users"); err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		tx.Rollback()

		tx, _ = db.Begin()
		defer tx.Rollback()
		got, err := NextSequence(tx, "users")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if got != 1 {
			t.Errorf("expected sequence 1 after rollback, got %d", got)
		}
	})

	t.Run("Unknown Table", func(t *testing.T) {
		db := setupTestDB(t)
		tx, _ := db.Begin()
		defer tx.Rollback()

		if _, err := NextSequence(tx, "nope"); err == nil {
			t.Error("expected error for missing sequence table")
		}
	})
}

func TestUserRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := models.NewUser(0, "spotify-user-1", "Test User", "test@example.com")

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if user.ID() == "" {
			t.Error("user ID should be set after creation")
		}
		if user.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", user.Sequence())
		}
	})

	t.Run("Create Requires Provider Id", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := models.NewUser(0, "", "Test User", "test@example.com")

		err := repo.Create(user)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Create Duplicate Provider Id", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		if err := repo.Create(models.NewUser(0, "dup", "One", "")); err != nil {
			t.Fatalf("failed to create first user: %v", err)
		}
		if err := repo.Create(models.NewUser(0, "dup", "Two", "")); err == nil {
			t.Fatal("expected error when creating user with duplicate provider id")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := models.NewUser(0, "spotify-user-1", "Test User", "test@example.com")
		user.SetTokens("access", "refresh")

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		retrieved, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		if retrieved.ID() != user.ID() {
			t.Errorf("expected ID %s, got %s", user.ID(), retrieved.ID())
		}
		if retrieved.ProviderID() != "spotify-user-1" || retrieved.Email() != "test@example.com" {
			t.Errorf("unexpected user %+v", retrieved.Profile())
		}
		if retrieved.AccessToken() != "access" || retrieved.RefreshToken() != "refresh" {
			t.Errorf("expected tokens to round trip, got %q/%q", retrieved.AccessToken(), retrieved.RefreshToken())
		}
	})

	t.Run("Get Not Found", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		if _, err := repo.Get("nonexistent-id"); !errors.Is(err, shared.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("GetByProviderID", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := models.NewUser(0, "spotify-user-1", "Test User", "")
		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		got, err := repo.GetByProviderID("spotify-user-1")
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if got.ID() != user.ID() {
			t.Errorf("expected ID %s, got %s", user.ID(), got.ID())
		}

		if _, err := repo.GetByProviderID("other"); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := models.NewUser(0, "spotify-user-1", "Original Name", "")
		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		user.SetName("Updated Name")
		user.SetEmail("updated@example.com")
		user.SetTokens("new-access", "")
		if err := repo.Update(user); err != nil {
			t.Fatalf("failed to update user: %v", err)
		}

		retrieved, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if retrieved.Name() != "Updated Name" || retrieved.Email() != "updated@example.com" || retrieved.AccessToken() != "new-access" {
			t.Errorf("update not persisted: %q %q %q", retrieved.Name(), retrieved.Email(), retrieved.AccessToken())
		}
	})

	t.Run("Update Not Found", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := models.NewUser(0, "ghost", "Ghost", "")
		user.SetID("nonexistent-id")

		if err := repo.Update(user); !errors.Is(err, shared.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := models.NewUser(0, "spotify-user-1", "Test User", "")
		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if err := repo.Delete(user.ID()); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}
		if _, err := repo.Get(user.ID()); err == nil {
			t.Error("expected error when getting deleted user")
		}
		if err := repo.Delete(user.ID()); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected second delete to report ErrUserNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		for _, u := range []*models.User{
			models.NewUser(0, "a", "A", "a@example.com"),
			models.NewUser(0, "b", "B", "b@example.com"),
			models.NewUser(0, "c", "C", "a@example.com"),
		} {
			if err := repo.Create(u); err != nil {
				t.Fatalf("failed to create user: %v", err)
			}
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(all) != 3 || all[0].ProviderID() != "a" || all[2].ProviderID() != "c" {
			t.Errorf("expected users in sequence order, got %d", len(all))
		}

		byEmail, err := repo.List(map[string]any{"email": "a@example.com"})
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(byEmail) != 2 {
			t.Errorf("expected 2 users by email, got %d", len(byEmail))
		}

		byProvider, err := repo.List(map[string]any{"provider_id": "b"})
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(byProvider) != 1 || byProvider[0].Name() != "B" {
			t.Errorf("unexpected provider filter result %d", len(byProvider))
		}
	})

	t.Run("List Empty", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		users, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if users == nil || len(users) != 0 {
			t.Errorf("expected empty non-nil list, got %#v", users)
		}
	})
}

func TestUserRepositoryUpsert(t *testing.T) {
	t.Run("Inserts New Provider Id", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := models.NewUser(0, "spotify-user-1", "Alice", "alice@example.com")

		if err := repo.Upsert(user); err != nil {
			t.Fatalf("failed to upsert user: %v", err)
		}
		if user.ID() == "" || user.Sequence() != 1 {
			t.Errorf("expected stored id and sequence, got %q/%d", user.ID(), user.Sequence())
		}
	})

	t.Run("Updates Existing Provider Id In Place", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		first := models.NewUser(0, "spotify-user-1", "Alice", "alice@example.com")
		first.SetTokens("t1", "r1")
		if err := repo.Upsert(first); err != nil {
			t.Fatalf("failed to upsert user: %v", err)
		}

		second := models.NewUser(0, "spotify-user-1", "Alice B", "alice@example.com")
		second.SetTokens("t2", "r2")
		if err := repo.Upsert(second); err != nil {
			t.Fatalf("failed to upsert user: %v", err)
		}

		if second.ID() != first.ID() || second.Sequence() != first.Sequence() {
			t.Errorf("expected identity to be kept, got %s/%d vs %s/%d", second.ID(), second.Sequence(), first.ID(), first.Sequence())
		}

		users, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(users) != 1 {
			t.Fatalf("expected a single row, got %d", len(users))
		}
		if users[0].Name() != "Alice B" || users[0].AccessToken() != "t2" {
			t.Errorf("expected profile and tokens to be replaced, got %q %q", users[0].Name(), users[0].AccessToken())
		}
	})

	t.Run("Restores Soft Deleted User", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := models.NewUser(0, "spotify-user-1", "Alice", "")
		if err := repo.Upsert(user); err != nil {
			t.Fatalf("failed to upsert user: %v", err)
		}
		if err := repo.Delete(user.ID()); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		again := models.NewUser(0, "spotify-user-1", "Alice", "")
		if err := repo.Upsert(again); err != nil {
			t.Fatalf("failed to upsert user: %v", err)
		}

		got, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("expected restored user, got %v", err)
		}
		if got.DeletedAt() != nil {
			t.Error("expected deleted_at to be cleared")
		}
	})

	t.Run("Concurrent First Logins Share One Row", func(t *testing.T) {
		db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: filepath.Join(t.TempDir(), "users.db")})
		if err != nil {
			t.Fatalf("failed to open file database: %v", err)
		}
		t.Cleanup(func() { db.Close() })
		repo := NewUserRepository(db)

		const logins = 8
		users := make([]*models.User, logins)
		errs := make([]error, logins)

		var wg sync.WaitGroup
		for i := range logins {
			users[i] = models.NewUser(0, "spotify-user-1", fmt.Sprintf("Alice %d", i), "alice@example.com")
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = repo.Upsert(users[i])
			}()
		}
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				t.Fatalf("upsert %d failed: %v", i, err)
			}
		}

		stored, err := repo.List(map[string]any{"provider_id": "spotify-user-1"})
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(stored) != 1 {
			t.Fatalf("expected a single row, got %d", len(stored))
		}
		for i, u := range users {
			if u.ID() != stored[0].ID() || u.Sequence() != stored[0].Sequence() {
				t.Errorf("upsert %d returned %s/%d, stored row is %s/%d", i, u.ID(), u.Sequence(), stored[0].ID(), stored[0].Sequence())
			}
		}
	})

	t.Run("Rejects Blank Provider Id", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		if err := repo.Upsert(models.NewUser(0, " ", "Nobody", "")); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}
