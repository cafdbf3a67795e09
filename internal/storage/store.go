// Package storage provides the SQLite-backed implementation of core.Storage.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/recallguard/recallguard/internal/core"
)

// Store persists tracked items, recalls, and alerts in SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// ":memory:" yields an ephemeral store for tests.
func New(dbPath string) (*Store, error) {
	if strings.HasPrefix(dbPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS tracked_items (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			brand TEXT,
			name TEXT,
			size TEXT,
			model_number TEXT,
			make TEXT,
			model TEXT,
			year INTEGER,
			vin TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS recalls (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			product_description TEXT,
			reason TEXT,
			classification TEXT,
			company TEXT,
			make TEXT,
			model TEXT,
			year INTEGER,
			component TEXT,
			summary TEXT,
			consequence TEXT,
			remedy TEXT,
			severity TEXT,
			product_name TEXT,
			description TEXT,
			hazard TEXT,
			manufacturer TEXT,
			recall_date TEXT,
			fetched_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			item_id TEXT NOT NULL,
			recall_id TEXT NOT NULL,
			category TEXT NOT NULL,
			score REAL NOT NULL,
			urgency TEXT NOT NULL,
			message TEXT,
			dismissed INTEGER NOT NULL DEFAULT 0,
			resolved INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (item_id) REFERENCES tracked_items(id)
		);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_items_category ON tracked_items(category);
		CREATE INDEX IF NOT EXISTS idx_recalls_kind ON recalls(kind);
		CREATE INDEX IF NOT EXISTS idx_alerts_item ON alerts(item_id);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_item_recall ON alerts(item_id, recall_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// --- tracked items ---

const itemColumns = "id, category, active, brand, name, size, model_number, make, model, year, vin, created_at"

// ListActiveItems returns active tracked items in a category, newest first.
func (s *Store) ListActiveItems(ctx context.Context, category core.Category) ([]core.TrackedItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+` FROM tracked_items
		WHERE category = ? AND active = 1
		ORDER BY created_at DESC
	`, string(category))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []core.TrackedItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// GetItem retrieves a tracked item by ID.
func (s *Store) GetItem(ctx context.Context, id string) (*core.TrackedItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM tracked_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %s: %w", id, core.ErrNotFound)
	}
	return item, err
}

// SaveItem inserts or replaces a tracked item.
func (s *Store) SaveItem(ctx context.Context, item *core.TrackedItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO tracked_items
			(`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, string(item.Category), item.Active, item.Brand, item.Name, item.Size,
		item.ModelNumber, item.Make, item.Model, item.Year, item.VIN, item.CreatedAt)
	return err
}

// SetItemActive toggles the soft-deactivation flag.
func (s *Store) SetItemActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tracked_items SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// DeleteItem removes an item and cascade-deletes its alerts.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM alerts WHERE item_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tracked_items WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// --- recalls ---

const recallColumns = "id, kind, product_description, reason, classification, company, " +
	"make, model, year, component, summary, consequence, remedy, severity, " +
	"product_name, description, hazard, manufacturer, recall_date, fetched_at"

// ListRecalls returns every recall of a kind.
func (s *Store) ListRecalls(ctx context.Context, kind core.Category) ([]core.RecallRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recallColumns+` FROM recalls WHERE kind = ?`, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recalls []core.RecallRecord
	for rows.Next() {
		r, err := scanRecall(rows)
		if err != nil {
			return nil, err
		}
		recalls = append(recalls, *r)
	}
	return recalls, rows.Err()
}

// GetRecall retrieves a recall by its natural key.
func (s *Store) GetRecall(ctx context.Context, id string) (*core.RecallRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recallColumns+` FROM recalls WHERE id = ?`, id)
	r, err := scanRecall(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("recall %s: %w", id, core.ErrNotFound)
	}
	return r, err
}

// SaveRecalls idempotently ingests recalls keyed on their natural key.
// Existing rows are left untouched; returns the number newly inserted.
func (s *Store) SaveRecalls(ctx context.Context, recalls []core.RecallRecord) (int, error) {
	if len(recalls) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	inserted := 0
	for i := range recalls {
		r := &recalls[i]
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO recalls (`+recallColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, r.ID, string(r.Kind), r.ProductDescription, r.Reason, r.Classification, r.Company,
			r.Make, r.Model, r.Year, r.Component, r.Summary, r.Consequence, r.Remedy, r.Severity,
			r.ProductName, r.Description, r.Hazard, r.Manufacturer, r.RecallDate, r.FetchedAt)
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// --- alerts ---

// AlertExists reports whether any alert links the item and recall, dismissed
// or not.
func (s *Store) AlertExists(ctx context.Context, itemID, recallID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM alerts WHERE item_id = ? AND recall_id = ?
	`, itemID, recallID).Scan(&count)
	return count > 0, err
}

// CreateAlert persists an alert. The unique (item_id, recall_id) index
// enforces at most one alert per pair; a duplicate insert is a no-op and
// returns nil without error so concurrent passes converge.
func (s *Store) CreateAlert(ctx context.Context, alert *core.Alert) (*core.Alert, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO alerts
			(id, item_id, recall_id, category, score, urgency, message, dismissed, resolved, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, alert.ID, alert.ItemID, alert.RecallID, string(alert.Category), alert.Score,
		string(alert.Urgency), alert.Message, alert.Dismissed, alert.Resolved, alert.CreatedAt)
	if err != nil {
		return nil, err
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return alert, nil
}

// ListAlerts returns alerts joined with item and recall details, newest
// first. An empty category returns all alerts.
func (s *Store) ListAlerts(ctx context.Context, category core.Category) ([]core.AlertWithDetails, error) {
	query := `
		SELECT a.id, a.item_id, a.recall_id, a.category, a.score, a.urgency,
		       a.message, a.dismissed, a.resolved, a.created_at,
		       COALESCE(i.brand, ''), COALESCE(i.name, ''), COALESCE(i.make, ''), COALESCE(i.model, ''),
		       COALESCE(r.product_description, ''), COALESCE(r.product_name, ''),
		       COALESCE(r.make, ''), COALESCE(r.model, ''), COALESCE(r.component, '')
		FROM alerts a
		LEFT JOIN tracked_items i ON i.id = a.item_id
		LEFT JOIN recalls r ON r.id = a.recall_id
	`
	args := []any{}
	if category != "" {
		query += ` WHERE a.category = ?`
		args = append(args, string(category))
	}
	query += ` ORDER BY a.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []core.AlertWithDetails
	for rows.Next() {
		var (
			a                            core.AlertWithDetails
			category, urgency            string
			iBrand, iName, iMake, iModel string
			rDesc, rName, rMake, rModel  string
			rComponent                   string
		)
		if err := rows.Scan(&a.ID, &a.ItemID, &a.RecallID, &category, &a.Score, &urgency,
			&a.Message, &a.Dismissed, &a.Resolved, &a.CreatedAt,
			&iBrand, &iName, &iMake, &iModel,
			&rDesc, &rName, &rMake, &rModel, &rComponent); err != nil {
			return nil, err
		}
		a.Category = core.Category(category)
		a.Urgency = core.Urgency(urgency)

		if a.Category == core.CategoryVehicle {
			a.ItemName = strings.TrimSpace(iMake + " " + iModel)
			a.RecallTitle = strings.TrimSpace(rMake + " " + rModel + " " + rComponent)
		} else {
			a.ItemName = strings.TrimSpace(iBrand + " " + iName)
			a.RecallTitle = firstNonEmpty(rName, rDesc)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// DismissAlert marks an alert dismissed. Dismissal is orthogonal to
// existence: a dismissed alert still blocks re-creation.
func (s *Store) DismissAlert(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE alerts SET dismissed = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// ResolveAlert sets the category-specific resolution flag (fixed for
// vehicles, discarded for products).
func (s *Store) ResolveAlert(ctx context.Context, id string, resolved bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE alerts SET resolved = ? WHERE id = ?`, resolved, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// --- settings ---

// GetSetting returns the stored value or empty string when unset.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetSetting upserts a settings value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

// --- helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*core.TrackedItem, error) {
	var (
		item     core.TrackedItem
		category string
	)
	err := row.Scan(&item.ID, &category, &item.Active, &item.Brand, &item.Name, &item.Size,
		&item.ModelNumber, &item.Make, &item.Model, &item.Year, &item.VIN, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	item.Category = core.Category(category)
	return &item, nil
}

func scanRecall(row rowScanner) (*core.RecallRecord, error) {
	var (
		r    core.RecallRecord
		kind string
	)
	err := row.Scan(&r.ID, &kind, &r.ProductDescription, &r.Reason, &r.Classification, &r.Company,
		&r.Make, &r.Model, &r.Year, &r.Component, &r.Summary, &r.Consequence, &r.Remedy, &r.Severity,
		&r.ProductName, &r.Description, &r.Hazard, &r.Manufacturer, &r.RecallDate, &r.FetchedAt)
	if err != nil {
		return nil, err
	}
	r.Kind = core.Category(kind)
	return &r, nil
}

func requireRow(res sql.Result, id string) error {
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("record %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
