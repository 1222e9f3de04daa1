package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dukerupert/jotter/internal/database"
	"github.com/dukerupert/jotter/internal/model"
)

type NoteStore struct {
	db *database.DB
}

func NewNoteStore(db *database.DB) *NoteStore {
	return &NoteStore{db: db}
}

func scanNote(row scanner) (*model.Note, error) {
	var n model.Note
	if err := row.Scan(&n.ID, &n.UserID, &n.Body); err != nil {
		return nil, err
	}
	return &n, nil
}

const noteCols = `id, user_id, note`

// ListByUser returns the notes owned by userID in insertion order.
func (s *NoteStore) ListByUser(ctx context.Context, userID int64) ([]model.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		s.db.Rebind(`SELECT `+noteCols+` FROM notes WHERE user_id = ? ORDER BY id`),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

func (s *NoteStore) Create(ctx context.Context, userID int64, body string) (*model.Note, error) {
	id, err := s.db.InsertID(ctx,
		`INSERT INTO notes (user_id, note) VALUES (?, ?)`,
		userID, body,
	)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return &model.Note{ID: id, UserID: userID, Body: body}, nil
}

// GetForUser returns note id only if userID owns it.
func (s *NoteStore) GetForUser(ctx context.Context, id, userID int64) (*model.Note, error) {
	row := s.db.QueryRowContext(ctx,
		s.db.Rebind(`SELECT `+noteCols+` FROM notes WHERE id = ? AND user_id = ?`),
		id, userID,
	)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// UpdateForUser rewrites the text of a note owned by userID. ErrNotFound means
// nothing matched and nothing changed.
func (s *NoteStore) UpdateForUser(ctx context.Context, id, userID int64, body string) error {
	result, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE notes SET note = ? WHERE id = ? AND user_id = ?`),
		body, id, userID,
	)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	return requireRow(result)
}

func (s *NoteStore) DeleteForUser(ctx context.Context, id, userID int64) error {
	result, err := s.db.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM notes WHERE id = ? AND user_id = ?`),
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return requireRow(result)
}
