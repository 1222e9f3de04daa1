package store

import (
	"context"
	"fmt"

	"github.com/dukerupert/jotter/internal/database"
)

// AccountStore performs operations that span several tables.
type AccountStore struct {
	db *database.DB
}

func NewAccountStore(db *database.DB) *AccountStore {
	return &AccountStore{db: db}
}

// Delete removes a user and all of their notes atomically. Sessions held in
// an external backend are the caller's responsibility.
func (s *AccountStore) Delete(ctx context.Context, userID int64) error {
	return s.db.WithTx(ctx, func(tx database.DBTX) error {
		if _, err := tx.ExecContext(ctx, s.db.Rebind(`DELETE FROM notes WHERE user_id = ?`), userID); err != nil {
			return fmt.Errorf("delete notes: %w", err)
		}
		result, err := tx.ExecContext(ctx, s.db.Rebind(`DELETE FROM users WHERE id = ?`), userID)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return requireRow(result)
	})
}
