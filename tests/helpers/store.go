package helpers

import (
	"context"
	"testing"

	"github.com/xiaot623/catalogbot/internal/repository"
)

// NewTestStore returns a migrated in-memory catalog store that is closed when the test ends.
func NewTestStore(t *testing.T) *repository.SQLStore {
	t.Helper()

	db, err := repository.Open(":memory:", repository.PoolOptions{})
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate sqlite store: %v", err)
	}

	s := repository.NewSQLStore(db)
	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// SeedAdmin adds an admin operator and the given attribute names.
func SeedAdmin(t *testing.T, s *repository.SQLStore, username, password string, attributes ...string) {
	t.Helper()

	err := s.DB().Seed(context.Background(), repository.SeedOptions{
		AdminUsername: username,
		AdminPassword: password,
		AdminRole:     "admin",
		Attributes:    attributes,
	})
	if err != nil {
		t.Fatalf("failed to seed sqlite store: %v", err)
	}
}
