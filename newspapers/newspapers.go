package newspapers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pevans/newsmap/storage"
)

// Custom errors for newspaper operations
var (
	ErrNewspaperNotFound = errors.New("newspaper not found")
	ErrDuplicateURL      = errors.New("newspaper with this URL already exists")
	ErrInvalidNewspaper  = errors.New("invalid newspaper")
)

// NewspaperStore manages newspaper records using SQLite.
type NewspaperStore struct {
	db *sqlx.DB
}

// Newspaper is a digital newspaper registered for a country.
type Newspaper struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	CountryCode string    `json:"country_code"`
	FeedURL     *string   `json:"feed_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewspaperUpdate represents fields that can be updated on a newspaper. Nil
// fields are left untouched.
type NewspaperUpdate struct {
	Title       *string
	URL         *string
	CountryCode *string
	FeedURL     *string
}

// NewspaperFilter represents filtering options for listing newspapers.
type NewspaperFilter struct {
	CountryCode *string // Exact match, case-insensitive
	Limit       int
	Offset      int
}

// CountryCount is the number of newspapers registered under one code.
type CountryCount struct {
	CountryCode    string `json:"country_code" db:"country_code"`
	NewspaperCount int    `json:"newspaper_count" db:"newspaper_count"`
}

// newspaperRow is the stored shape of a Newspaper.
type newspaperRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	URL         string         `db:"url"`
	CountryCode string         `db:"country_code"`
	FeedURL     sql.NullString `db:"feed_url"`
	CreatedAt   string         `db:"created_at"`
	UpdatedAt   string         `db:"updated_at"`
}

// NewNewspaperStore creates a new newspaper store with the given database
// path.
func NewNewspaperStore(dbPath string) (*NewspaperStore, error) {
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, err
	}

	store := &NewspaperStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the newspapers table if it doesn't exist.
func (s *NewspaperStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS newspapers (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		url TEXT NOT NULL UNIQUE,
		country_code TEXT NOT NULL,
		feed_url TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS newspapers_country_code ON newspapers (country_code);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *NewspaperStore) Close() error {
	return s.db.Close()
}

// Create registers a new newspaper. The country code is stored trimmed and
// uppercased but otherwise accepted as given.
func (s *NewspaperStore) Create(title, pageURL, countryCode string) (*Newspaper, error) {
	title = strings.TrimSpace(title)
	pageURL = strings.TrimSpace(pageURL)
	countryCode = NormalizeCode(countryCode)

	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := ValidateURL(pageURL); err != nil {
		return nil, err
	}
	if err := validateCountryCode(countryCode); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(0)
	newspaper := &Newspaper{
		ID:          uuid.New(),
		Title:       title,
		URL:         pageURL,
		CountryCode: countryCode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.NamedExec(`
		INSERT INTO newspapers ( id,  title,  url,  country_code,  created_at,  updated_at)
		VALUES                 (:id, :title, :url, :country_code, :created_at, :updated_at)
	`, map[string]any{
		"id":           newspaper.ID.String(),
		"title":        newspaper.Title,
		"url":          newspaper.URL,
		"country_code": newspaper.CountryCode,
		"created_at":   storage.FormatTime(&newspaper.CreatedAt),
		"updated_at":   storage.FormatTime(&newspaper.UpdatedAt),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateURL
		}
		return nil, fmt.Errorf("failed to insert newspaper: %w", err)
	}

	return newspaper, nil
}

// Get retrieves a newspaper by ID.
func (s *NewspaperStore) Get(id uuid.UUID) (*Newspaper, error) {
	var row newspaperRow
	err := s.db.Get(&row, `SELECT * FROM newspapers WHERE id = ?`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNewspaperNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query newspaper: %w", err)
	}

	return row.toNewspaper()
}

// List lists newspapers, newest first, with optional filtering.
func (s *NewspaperStore) List(filter NewspaperFilter) ([]Newspaper, error) {
	query := `SELECT * FROM newspapers`

	var args []any
	if filter.CountryCode != nil {
		query += " WHERE country_code = ?"
		args = append(args, NormalizeCode(*filter.CountryCode))
	}

	query += " ORDER BY created_at DESC, id"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	} else if filter.Offset > 0 {
		query += fmt.Sprintf(" LIMIT -1 OFFSET %d", filter.Offset)
	}

	var rows []newspaperRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query newspapers: %w", err)
	}

	newspapers := make([]Newspaper, 0, len(rows))
	for _, row := range rows {
		newspaper, err := row.toNewspaper()
		if err != nil {
			return nil, err
		}
		newspapers = append(newspapers, *newspaper)
	}

	return newspapers, nil
}

// Update updates a newspaper with the provided fields.
func (s *NewspaperStore) Update(id uuid.UUID, update NewspaperUpdate) error {
	// Build dynamic UPDATE query based on provided fields
	now := time.Now()
	setClauses := []string{"updated_at = ?"}
	args := []any{storage.FormatTime(&now)}

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if err := validateTitle(title); err != nil {
			return err
		}
		setClauses = append(setClauses, "title = ?")
		args = append(args, title)
	}
	if update.URL != nil {
		pageURL := strings.TrimSpace(*update.URL)
		if err := ValidateURL(pageURL); err != nil {
			return err
		}
		setClauses = append(setClauses, "url = ?")
		args = append(args, pageURL)
	}
	if update.CountryCode != nil {
		code := NormalizeCode(*update.CountryCode)
		if err := validateCountryCode(code); err != nil {
			return err
		}
		setClauses = append(setClauses, "country_code = ?")
		args = append(args, code)
	}
	if update.FeedURL != nil {
		feedURL := strings.TrimSpace(*update.FeedURL)
		if feedURL == "" {
			// Empty clears the feed so it is discovered again
			setClauses = append(setClauses, "feed_url = NULL")
		} else {
			if err := ValidateURL(feedURL); err != nil {
				return err
			}
			setClauses = append(setClauses, "feed_url = ?")
			args = append(args, feedURL)
		}
	}

	args = append(args, id.String())

	query := fmt.Sprintf("UPDATE newspapers SET %s WHERE id = ?",
		strings.Join(setClauses, ", "))

	result, err := s.db.Exec(query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateURL
		}
		return fmt.Errorf("failed to update newspaper: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNewspaperNotFound
	}

	return nil
}

// Delete deletes a newspaper.
func (s *NewspaperStore) Delete(id uuid.UUID) error {
	result, err := s.db.Exec("DELETE FROM newspapers WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("failed to delete newspaper: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNewspaperNotFound
	}

	return nil
}

// CountByCountry returns how many newspapers each country code has, ordered
// by code. Codes without newspapers are not listed.
func (s *NewspaperStore) CountByCountry() ([]CountryCount, error) {
	counts := []CountryCount{}
	err := s.db.Select(&counts, `
		SELECT country_code, COUNT(*) AS newspaper_count
		FROM newspapers
		GROUP BY country_code
		ORDER BY country_code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count newspapers: %w", err)
	}
	return counts, nil
}

// NormalizeCode trims and uppercases a country code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateURL checks that s is an absolute http(s) URL.
func ValidateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: url must be an absolute http or https URL", ErrInvalidNewspaper)
	}
	return nil
}

func validateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidNewspaper)
	}
	return nil
}

func validateCountryCode(code string) error {
	if code == "" {
		return fmt.Errorf("%w: country_code is required", ErrInvalidNewspaper)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint") ||
		strings.Contains(err.Error(), "unique constraint")
}

func (row newspaperRow) toNewspaper() (*Newspaper, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse newspaper ID: %w", err)
	}

	newspaper := &Newspaper{
		ID:          id,
		Title:       row.Title,
		URL:         row.URL,
		CountryCode: row.CountryCode,
		CreatedAt:   storage.ParseTime(row.CreatedAt),
		UpdatedAt:   storage.ParseTime(row.UpdatedAt),
	}
	if row.FeedURL.Valid {
		newspaper.FeedURL = &row.FeedURL.String
	}

	return newspaper, nil
}
