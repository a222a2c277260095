// Package auth manages admin users, their bearer tokens and the middleware
// that guards mutating routes.
package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pevans/newsmap/storage"
	"golang.org/x/crypto/bcrypt"
)

// Custom errors for user operations
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUsername  = errors.New("user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidUser        = errors.New("invalid user")
)

// User is an account allowed to manage newspapers.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type userRow struct {
	ID           string `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    string `db:"created_at"`
}

// UserStore manages user records using SQLite.
type UserStore struct {
	db *sqlx.DB
}

// NewUserStore creates a new user store with the given database path.
func NewUserStore(dbPath string) (*UserStore, error) {
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, err
	}

	store := &UserStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *UserStore) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`)
	return err
}

// Close closes the database connection.
func (s *UserStore) Close() error {
	return s.db.Close()
}

// Create adds a user with a bcrypt hash of password.
func (s *UserStore) Create(username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidUser)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC().Truncate(0),
	}

	_, err = s.db.NamedExec(`
		INSERT INTO users ( id,  username,  password_hash,  created_at)
		VALUES            (:id, :username, :password_hash, :created_at)
	`, map[string]any{
		"id":            user.ID.String(),
		"username":      user.Username,
		"password_hash": user.PasswordHash,
		"created_at":    storage.FormatTime(&user.CreatedAt),
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

// GetByUsername retrieves a user by username.
func (s *UserStore) GetByUsername(username string) (*User, error) {
	var row userRow
	err := s.db.Get(&row, `SELECT * FROM users WHERE username = ?`, strings.TrimSpace(username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user ID: %w", err)
	}

	return &User{
		ID:           id,
		Username:     row.Username,
		PasswordHash: row.PasswordHash,
		CreatedAt:    storage.ParseTime(row.CreatedAt),
	}, nil
}

// Authenticate returns the user when password matches. Unknown users yield
// ErrUserNotFound, wrong passwords ErrInvalidCredentials.
func (s *UserStore) Authenticate(username, password string) (*User, error) {
	user, err := s.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if err := VerifyPassword(password, user.PasswordHash); err != nil {
		return nil, err
	}
	return user, nil
}

// HashPassword creates a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is required", ErrInvalidUser)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password is too long", ErrInvalidUser)
		}
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword checks a plaintext password against a bcrypt hash.
func VerifyPassword(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("could not verify password: %w", err)
	}
	return nil
}
