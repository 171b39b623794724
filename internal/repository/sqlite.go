package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/PEASEC/Warning-Messenger-Bot/internal/models"
)

// SQLiteDB backs all three repository contracts with a single embedded
// database file.
type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	// One writer at a time keeps per-recipient read-modify-write
	// sequences atomic without explicit transactions on the hot path.
	db.SetMaxOpenConns(1)

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS recipients (
			id TEXT PRIMARY KEY,
			receive_warnings INTEGER NOT NULL DEFAULT 1,
			default_severity TEXT NOT NULL DEFAULT 'minor',
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS subscriptions (
			recipient_id TEXT NOT NULL,
			location_id TEXT NOT NULL,
			category TEXT NOT NULL,
			min_severity TEXT NOT NULL,
			PRIMARY KEY (recipient_id, location_id, category),
			FOREIGN KEY (recipient_id) REFERENCES recipients(id)
		);

		CREATE TABLE IF NOT EXISTS deliveries (
			recipient_id TEXT NOT NULL,
			warning_id TEXT NOT NULL,
			delivered_at DATETIME NOT NULL,
			PRIMARY KEY (recipient_id, warning_id)
		);

		CREATE TABLE IF NOT EXISTS locations (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS suggestions (
			recipient_id TEXT NOT NULL,
			location TEXT NOT NULL,
			used_at DATETIME NOT NULL,
			PRIMARY KEY (recipient_id, location)
		);

		CREATE INDEX IF NOT EXISTS idx_subscriptions_recipient ON subscriptions(recipient_id);
		CREATE INDEX IF NOT EXISTS idx_deliveries_recipient ON deliveries(recipient_id);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// ---- DeliveryRepository ----

func (s *SQLiteDB) HasReceived(ctx context.Context, recipientID, warningID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM deliveries WHERE recipient_id = ? AND warning_id = ?`,
		recipientID, warningID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error querying deliveries: %w", err)
	}
	return true, nil
}

func (s *SQLiteDB) RecordReceived(ctx context.Context, recipientID, warningID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO deliveries (recipient_id, warning_id, delivered_at) VALUES (?, ?, ?)`,
		recipientID, warningID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("error recording delivery: %w", err)
	}
	return nil
}

// ---- PreferenceRepository ----

func (s *SQLiteDB) ListOptedInRecipients(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM recipients WHERE receive_warnings = 1`,
	)
	if err != nil {
		return nil, fmt.Errorf("error listing recipients: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning recipient id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteDB) GetRecipient(ctx context.Context, recipientID string) (*models.Recipient, error) {
	var (
		r        models.Recipient
		receive  int
		severity string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, receive_warnings, default_severity FROM recipients WHERE id = ?`,
		recipientID,
	).Scan(&r.ID, &receive, &severity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying recipient: %w", err)
	}
	r.ReceiveWarnings = receive != 0
	r.DefaultSeverity = models.ParseSeverity(severity)
	return &r, nil
}

// ensureRecipient creates the recipient row with defaults if it does
// not exist yet, mirroring the lazily created user records of the
// preference surface.
func (s *SQLiteDB) ensureRecipient(ctx context.Context, recipientID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO recipients (id, receive_warnings, default_severity, created_at) VALUES (?, 1, 'minor', ?)`,
		recipientID, time.Now().UTC(),
	)
	return err
}

func (s *SQLiteDB) SetReceiveWarnings(ctx context.Context, recipientID string, enabled bool) error {
	if err := s.ensureRecipient(ctx, recipientID); err != nil {
		return fmt.Errorf("error creating recipient: %w", err)
	}
	val := 0
	if enabled {
		val = 1
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE recipients SET receive_warnings = ? WHERE id = ?`, val, recipientID,
	)
	if err != nil {
		return fmt.Errorf("error updating recipient: %w", err)
	}
	return nil
}

func (s *SQLiteDB) SetDefaultSeverity(ctx context.Context, recipientID string, level models.Severity) error {
	if err := s.ensureRecipient(ctx, recipientID); err != nil {
		return fmt.Errorf("error creating recipient: %w", err)
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE recipients SET default_severity = ? WHERE id = ?`, level.String(), recipientID,
	)
	if err != nil {
		return fmt.Errorf("error updating recipient: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetSubscriptions(ctx context.Context, recipientID string) ([]models.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT location_id, category, min_severity FROM subscriptions WHERE recipient_id = ? ORDER BY location_id`,
		recipientID,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying subscriptions: %w", err)
	}
	defer rows.Close()

	byLocation := make(map[string]*models.Subscription)
	var order []string
	for rows.Next() {
		var locationID, category, severity string
		if err := rows.Scan(&locationID, &category, &severity); err != nil {
			return nil, fmt.Errorf("error scanning subscription: %w", err)
		}
		sub, ok := byLocation[locationID]
		if !ok {
			sub = &models.Subscription{
				LocationID: locationID,
				Thresholds: make(map[models.Category]models.Severity),
			}
			byLocation[locationID] = sub
			order = append(order, locationID)
		}
		sub.Thresholds[models.Category(category)] = models.ParseSeverity(severity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	subs := make([]models.Subscription, 0, len(order))
	for _, loc := range order {
		subs = append(subs, *byLocation[loc])
	}
	return subs, nil
}

func (s *SQLiteDB) AddSubscription(ctx context.Context, recipientID, locationID string, category models.Category, level models.Severity) error {
	if err := s.ensureRecipient(ctx, recipientID); err != nil {
		return fmt.Errorf("error creating recipient: %w", err)
	}

	if level == models.SeverityUnknown {
		r, err := s.GetRecipient(ctx, recipientID)
		if err != nil {
			return err
		}
		level = r.DefaultSeverity
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (recipient_id, location_id, category, min_severity) VALUES (?, ?, ?, ?)
		 ON CONFLICT (recipient_id, location_id, category) DO UPDATE SET min_severity = excluded.min_severity`,
		recipientID, locationID, string(category), level.String(),
	)
	if err != nil {
		return fmt.Errorf("error adding subscription: %w", err)
	}
	return nil
}

func (s *SQLiteDB) DeleteSubscription(ctx context.Context, recipientID, locationID string, category models.Category) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE recipient_id = ? AND location_id = ? AND category = ?`,
		recipientID, locationID, string(category),
	)
	if err != nil {
		return fmt.Errorf("error deleting subscription: %w", err)
	}
	return nil
}

func (s *SQLiteDB) Suggestions(ctx context.Context, recipientID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT location FROM suggestions WHERE recipient_id = ? ORDER BY used_at DESC`,
		recipientID,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying suggestions: %w", err)
	}
	defer rows.Close()

	var locations []string
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return nil, fmt.Errorf("error scanning suggestion: %w", err)
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

func (s *SQLiteDB) AddSuggestion(ctx context.Context, recipientID, location string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO suggestions (recipient_id, location, used_at) VALUES (?, ?, ?)
		 ON CONFLICT (recipient_id, location) DO UPDATE SET used_at = excluded.used_at`,
		recipientID, location, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("error adding suggestion: %w", err)
	}
	return nil
}

// ---- LocationDirectory ----

func (s *SQLiteDB) ResolveName(ctx context.Context, locationID string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM locations WHERE id = ?`, locationID,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrLocationUnknown
	}
	if err != nil {
		return "", fmt.Errorf("error resolving location: %w", err)
	}
	return name, nil
}

func (s *SQLiteDB) UpsertLocation(ctx context.Context, locationID, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO locations (id, name) VALUES (?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name`,
		locationID, name,
	)
	if err != nil {
		return fmt.Errorf("error upserting location: %w", err)
	}
	return nil
}
