package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TWRT/board-sync/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is the signed-in user record plus the page to restore on reload.
type Session struct {
	ID        string
	User      models.CurrentUser
	LastPage  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create stores a new session for user and returns it with a fresh id.
func (r *SessionRepository) Create(ctx context.Context, user models.CurrentUser) (*Session, error) {
	now := time.Now().UTC()
	session := &Session{
		ID:        uuid.NewString(),
		User:      user,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
	INSERT INTO sessions (id, email, name, initials, tel, last_page, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		user.Email,
		user.Name,
		user.Initials,
		user.Tel,
		session.LastPage,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return session, nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*Session, error) {
	query := `
	SELECT id, email, name, initials, tel, last_page, created_at, updated_at
	FROM sessions WHERE id = ?
	`

	var s Session
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.User.Email,
		&s.User.Name,
		&s.User.Initials,
		&s.User.Tel,
		&s.LastPage,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) SetLastPage(ctx context.Context, id, page string) error {
	query := `UPDATE sessions SET last_page = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, page, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set last page: %w", err)
	}
	return requireRow(result)
}

// Delete drops the session and with it the stored user and last page.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM sessions WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}
