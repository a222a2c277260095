// Package notifications records country subscriptions and the notifications
// sent when newspapers are added for those countries.
package notifications

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pevans/newsmap/storage"
)

// Custom errors for notification operations
var (
	ErrNotificationNotFound = errors.New("notification not found")
)

// MaxListLimit caps how many notifications one List call returns.
const MaxListLimit = 1000

// NotificationTypeNewNewspaper marks notifications about added newspapers.
const NotificationTypeNewNewspaper = "new_newspaper"

// Subscription is the set of countries a user follows.
type Subscription struct {
	ID                  uuid.UUID `json:"id"`
	UserID              uuid.UUID `json:"user_id"`
	CountryCodes        []string  `json:"country_codes"`
	NotifyNewNewspapers bool      `json:"notify_new_newspapers"`
	CreatedAt           time.Time `json:"created_at"`
}

// NotificationData links a notification to what triggered it.
type NotificationData struct {
	Type        string `json:"type"`
	CountryCode string `json:"country_code,omitempty"`
	NewspaperID string `json:"newspaper_id,omitempty"`
}

// Notification is a message recorded for one user.
type Notification struct {
	ID     uuid.UUID        `json:"id"`
	UserID uuid.UUID        `json:"user_id"`
	Title  string           `json:"title"`
	Body   string           `json:"body"`
	Data   NotificationData `json:"data"`
	SentAt time.Time        `json:"sent_at"`
	Read   bool             `json:"read"`
}

type subscriptionRow struct {
	ID                  string `db:"id"`
	UserID              string `db:"user_id"`
	CountryCodes        string `db:"country_codes"`
	NotifyNewNewspapers bool   `db:"notify_new_newspapers"`
	CreatedAt           string `db:"created_at"`
}

type notificationRow struct {
	ID     string `db:"id"`
	UserID string `db:"user_id"`
	Title  string `db:"title"`
	Body   string `db:"body"`
	Data   string `db:"data"`
	SentAt string `db:"sent_at"`
	Read   bool   `db:"read"`
}

// NotificationStore manages subscriptions and notifications using SQLite.
type NotificationStore struct {
	db *sqlx.DB
}

// NewNotificationStore creates a new notification store with the given
// database path.
func NewNotificationStore(dbPath string) (*NotificationStore, error) {
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, err
	}

	store := &NotificationStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *NotificationStore) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS subscriptions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		country_codes TEXT NOT NULL,
		notify_new_newspapers INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		data TEXT NOT NULL,
		sent_at TEXT NOT NULL,
		read INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS notifications_user_sent ON notifications (user_id, sent_at);
	`)
	return err
}

// Close closes the database connection.
func (s *NotificationStore) Close() error {
	return s.db.Close()
}

// Subscribe replaces userID's subscription with codes. Codes are trimmed,
// uppercased and deduplicated; blank codes are dropped.
func (s *NotificationStore) Subscribe(userID uuid.UUID, codes []string, notify bool) (*Subscription, error) {
	sub := &Subscription{
		ID:                  uuid.New(),
		UserID:              userID,
		CountryCodes:        normalizeCodes(codes),
		NotifyNewNewspapers: notify,
		CreatedAt:           time.Now().UTC().Truncate(0),
	}

	encoded, err := json.Marshal(sub.CountryCodes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal country codes: %w", err)
	}

	// One subscription per user: keep the original id and creation time
	_, err = s.db.NamedExec(`
		INSERT INTO subscriptions ( id,  user_id,  country_codes,  notify_new_newspapers,  created_at)
		VALUES                    (:id, :user_id, :country_codes, :notify_new_newspapers, :created_at)
		ON CONFLICT (user_id) DO UPDATE SET
			country_codes = excluded.country_codes,
			notify_new_newspapers = excluded.notify_new_newspapers
	`, map[string]any{
		"id":                    sub.ID.String(),
		"user_id":               userID.String(),
		"country_codes":         string(encoded),
		"notify_new_newspapers": notify,
		"created_at":            storage.FormatTime(&sub.CreatedAt),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}

	return s.GetSubscription(userID)
}

// GetSubscription returns userID's subscription, or nil when there is none.
func (s *NotificationStore) GetSubscription(userID uuid.UUID) (*Subscription, error) {
	var row subscriptionRow
	err := s.db.Get(&row, `SELECT * FROM subscriptions WHERE user_id = ?`, userID.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query subscription: %w", err)
	}
	return row.toSubscription()
}

// SubscribersOf returns the subscriptions following code with notifications
// turned on. The code is compared exactly after normalization.
func (s *NotificationStore) SubscribersOf(code string) ([]Subscription, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	var rows []subscriptionRow
	if err := s.db.Select(&rows, `SELECT * FROM subscriptions WHERE notify_new_newspapers = 1`); err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}

	subs := []Subscription{}
	for _, row := range rows {
		sub, err := row.toSubscription()
		if err != nil {
			return nil, err
		}
		if slices.Contains(sub.CountryCodes, code) {
			subs = append(subs, *sub)
		}
	}
	return subs, nil
}

// Add records a notification. Zero ID and SentAt are filled in.
func (s *NotificationStore) Add(n *Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.SentAt.IsZero() {
		n.SentAt = time.Now().UTC().Truncate(0)
	}

	data, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal notification data: %w", err)
	}

	_, err = s.db.NamedExec(`
		INSERT INTO notifications ( id,  user_id,  title,  body,  data,  sent_at,  read)
		VALUES                    (:id, :user_id, :title, :body, :data, :sent_at, :read)
	`, map[string]any{
		"id":      n.ID.String(),
		"user_id": n.UserID.String(),
		"title":   n.Title,
		"body":    n.Body,
		"data":    string(data),
		"sent_at": storage.FormatTime(&n.SentAt),
		"read":    n.Read,
	})
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// List returns userID's notifications, newest first. limit is clamped to
// 1..MaxListLimit.
func (s *NotificationStore) List(userID uuid.UUID, limit int) ([]Notification, error) {
	limit = max(1, min(limit, MaxListLimit))

	var rows []notificationRow
	err := s.db.Select(&rows, `
		SELECT * FROM notifications
		WHERE user_id = ?
		ORDER BY sent_at DESC, id
		LIMIT ?
	`, userID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}

	notifications := make([]Notification, 0, len(rows))
	for _, row := range rows {
		n, err := row.toNotification()
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	return notifications, nil
}

// MarkRead marks one of userID's notifications as read.
func (s *NotificationStore) MarkRead(userID, id uuid.UUID) error {
	result, err := s.db.Exec(`UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?`,
		id.String(), userID.String())
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// UnreadCount returns how many of userID's notifications are unread.
func (s *NotificationStore) UnreadCount(userID uuid.UUID) (int, error) {
	var count int
	err := s.db.Get(&count, `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = 0`, userID.String())
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

func normalizeCodes(codes []string) []string {
	normalized := []string{}
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code != "" && !slices.Contains(normalized, code) {
			normalized = append(normalized, code)
		}
	}
	return normalized
}

func (row subscriptionRow) toSubscription() (*Subscription, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse subscription ID: %w", err)
	}
	userID, err := uuid.Parse(row.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user ID: %w", err)
	}

	sub := &Subscription{
		ID:                  id,
		UserID:              userID,
		NotifyNewNewspapers: row.NotifyNewNewspapers,
		CreatedAt:           storage.ParseTime(row.CreatedAt),
	}
	if err := json.Unmarshal([]byte(row.CountryCodes), &sub.CountryCodes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal country codes: %w", err)
	}
	return sub, nil
}

func (row notificationRow) toNotification() (*Notification, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse notification ID: %w", err)
	}
	userID, err := uuid.Parse(row.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user ID: %w", err)
	}

	n := &Notification{
		ID:     id,
		UserID: userID,
		Title:  row.Title,
		Body:   row.Body,
		SentAt: storage.ParseTime(row.SentAt),
		Read:   row.Read,
	}
	if err := json.Unmarshal([]byte(row.Data), &n.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification data: %w", err)
	}
	return n, nil
}
