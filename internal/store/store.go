package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// CreateIdentity inserts a credential row and its profile in one
// transaction and returns the new identity id.
func (s *Store) CreateIdentity(ctx context.Context, email, passwordHash string) (string, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var id string
	err = tx.GetContext(ctx, &id,
		"INSERT INTO identities (email, password_hash) VALUES ($1, $2) RETURNING id",
		email, passwordHash)
	if err != nil {
		return "", fmt.Errorf("failed to create identity: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO profiles (id, email) VALUES ($1, $2)", id, email)
	if err != nil {
		return "", fmt.Errorf("failed to create profile: %w", err)
	}

	return id, tx.Commit()
}

// GetCredentials retrieves the identity id and password hash for an email
func (s *Store) GetCredentials(ctx context.Context, email string) (id, passwordHash string, err error) {
	var row struct {
		ID           string `db:"id"`
		PasswordHash string `db:"password_hash"`
	}
	err = s.db.GetContext(ctx, &row,
		"SELECT id, password_hash FROM identities WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return "", "", fmt.Errorf("identity not found: %s", email)
	}
	if err != nil {
		return "", "", err
	}
	return row.ID, row.PasswordHash, nil
}

// UpdatePasswordHash replaces an identity's password hash
func (s *Store) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE identities SET password_hash = $1 WHERE id = $2",
		passwordHash, userID)
	return err
}

// GetProfileByID retrieves a profile by identity id
func (s *Store) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.GetContext(ctx, &profile, "SELECT * FROM profiles WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile applies a partial patch; nil fields keep their value
func (s *Store) UpdateProfile(ctx context.Context, id string, patch *models.ProfilePatch) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE profiles
		SET full_name  = COALESCE($1, full_name),
		    avatar_url = COALESCE($2, avatar_url),
		    phone      = COALESCE($3, phone)
		WHERE id = $4`,
		patch.FullName, patch.AvatarURL, patch.Phone, id)
	return err
}

// DeleteProfile removes a profile; the identity row cascades with it
func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM profiles WHERE id = $1", id)
	return err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
