package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/jotter/internal/database"
	"github.com/dukerupert/jotter/internal/model"
	"github.com/dukerupert/jotter/internal/session"
)

// SessionStore is the SQL implementation of session.Store.
type SessionStore struct {
	db  *database.DB
	ttl time.Duration
}

var _ session.Store = (*SessionStore)(nil)

func NewSessionStore(db *database.DB, ttl time.Duration) *SessionStore {
	return &SessionStore{db: db, ttl: ttl}
}

func (s *SessionStore) Create(ctx context.Context, userID int64) (*model.Session, error) {
	token, hash, err := session.NewToken()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().UTC().Add(s.ttl)

	_, err = s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO sessions (token_hash, user_id, expires_at) VALUES (?, ?, ?)`),
		hash, userID, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return &model.Session{
		Token:     token,
		TokenHash: hash,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, session.ErrNotFound
	}
	sess := model.Session{TokenHash: session.Hash(token)}
	err := s.db.QueryRowContext(ctx,
		s.db.Rebind(`SELECT user_id, expires_at FROM sessions WHERE token_hash = ? AND expires_at > ?`),
		sess.TokenHash, time.Now().UTC(),
	).Scan(&sess.UserID, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM sessions WHERE token_hash = ?`), session.Hash(token))
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteByUserID(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM sessions WHERE user_id = ?`), userID)
	if err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

// DeleteExpired removes expired sessions and returns the number deleted.
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM sessions WHERE expires_at <= ?`),
		time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
