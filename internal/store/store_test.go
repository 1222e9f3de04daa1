package store

import (
	"context"
	"testing"

	"github.com/dukerupert/jotter/internal/database"
	"github.com/dukerupert/jotter/internal/model"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(context.Background(), database.Config{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, us *UserStore, username string) *model.User {
	t.Helper()
	u, err := us.Create(context.Background(), username, username+"-pw")
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func countRows(t *testing.T, db *database.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
