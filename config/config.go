package config

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/pevans/newsmap/storage"
)

// Headline limit bounds
const (
	DefaultHeadlineLimit = 5
	MinHeadlineLimit     = 1
	MaxHeadlineLimit     = 50
)

// ErrInvalidSettings is returned for out-of-range settings.
var ErrInvalidSettings = errors.New("invalid settings")

// SettingsStore manages runtime settings using SQLite.
type SettingsStore struct {
	db *sqlx.DB
}

// Settings represents the runtime settings.
type Settings struct {
	HeadlineLimit int `json:"headline_limit"`
}

// NewSettingsStore creates a new settings store with the given database path.
func NewSettingsStore(dbPath string) (*SettingsStore, error) {
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, err
	}

	store := &SettingsStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the settings table if it doesn't exist.
func (s *SettingsStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SettingsStore) Close() error {
	return s.db.Close()
}

// GetSettings retrieves the runtime settings.
func (s *SettingsStore) GetSettings() (*Settings, error) {
	var value string
	err := s.db.Get(&value, "SELECT value FROM settings WHERE key = ?", "headline_limit")
	if errors.Is(err, sql.ErrNoRows) {
		// Return default settings if not set
		return &Settings{HeadlineLimit: DefaultHeadlineLimit}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}

	limit, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("failed to parse headline_limit: %w", err)
	}
	return &Settings{HeadlineLimit: limit}, nil
}

// UpdateSettings validates and stores settings.
func (s *SettingsStore) UpdateSettings(settings *Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	_, err := s.db.Exec("INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)",
		"headline_limit", strconv.Itoa(settings.HeadlineLimit))
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	return nil
}

// HeadlineLimit returns the stored headline limit, or the default when it
// can't be read.
func (s *SettingsStore) HeadlineLimit() int {
	settings, err := s.GetSettings()
	if err != nil {
		return DefaultHeadlineLimit
	}
	return settings.HeadlineLimit
}

// Validate checks settings are in range.
func (s *Settings) Validate() error {
	if s.HeadlineLimit < MinHeadlineLimit || s.HeadlineLimit > MaxHeadlineLimit {
		return fmt.Errorf("%w: headline_limit must be between %d and %d",
			ErrInvalidSettings, MinHeadlineLimit, MaxHeadlineLimit)
	}
	return nil
}
