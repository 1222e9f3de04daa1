package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dukerupert/jotter/internal/database"
	"github.com/dukerupert/jotter/internal/model"
)

type UserStore struct {
	db *database.DB
}

func NewUserStore(db *database.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(row scanner) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.Password); err != nil {
		return nil, err
	}
	return &u, nil
}

const userCols = `id, username, password`

func (s *UserStore) Create(ctx context.Context, username, password string) (*model.User, error) {
	id, err := s.db.InsertID(ctx,
		`INSERT INTO users (username, password) VALUES (?, ?)`,
		username, password,
	)
	if database.IsUniqueViolation(err) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &model.User{ID: id, Username: username, Password: password}, nil
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT `+userCols+` FROM users WHERE id = ?`), id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByCredentials looks up the user whose username and password both match
// exactly. Credentials are compared as stored.
func (s *UserStore) GetByCredentials(ctx context.Context, username, password string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		s.db.Rebind(`SELECT `+userCols+` FROM users WHERE username = ? AND password = ?`),
		username, password,
	)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by credentials: %w", err)
	}
	return u, nil
}

func (s *UserStore) UpdateUsername(ctx context.Context, id int64, username string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE users SET username = ? WHERE id = ?`), username, id)
	if database.IsUniqueViolation(err) {
		return ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("update username: %w", err)
	}
	return requireRow(result)
}

func (s *UserStore) UpdatePassword(ctx context.Context, id int64, password string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE users SET password = ? WHERE id = ?`), password, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireRow(result)
}

// requireRow maps a statement that touched nothing to ErrNotFound.
func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
