package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/reviewsku/internal/model"
)

// FileName is the name of the database file inside the cache directory.
const FileName = "orders.db"

// ErrNotFound is returned by Open when the database does not exist and
// CreateIfNotExists is false.
var ErrNotFound = errors.New("order cache not found")

// Store is a SQLite-backed table of order line items keyed by shop and
// order number.
type Store struct {
	db     *sql.DB
	dbPath string
	maxAge time.Duration
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool

	// MaxAge is how long an entry stays valid. Zero keeps entries forever.
	MaxAge time.Duration
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
		MaxAge:            24 * time.Hour,
	}
}

// Open opens or creates the order cache in dir.
func Open(dir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check cache path: %w", err)
		}
	} else if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
		maxAge: opts.MaxAge,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS order_line_items (
		shop TEXT NOT NULL,
		order_number TEXT NOT NULL,
		line_items TEXT NOT NULL,
		fetched_at INTEGER NOT NULL,
		PRIMARY KEY (shop, order_number)
	);

	CREATE INDEX IF NOT EXISTS idx_order_line_items_fetched ON order_line_items(fetched_at);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Get returns the cached line items of an order. The boolean is false when
// there is no entry or the entry is older than the maximum age.
func (s *Store) Get(ctx context.Context, shop, orderNumber string) ([]model.OrderLineItem, bool, error) {
	query := `SELECT line_items, fetched_at FROM order_line_items WHERE shop = ? AND order_number = ?`

	var itemsJSON string
	var fetchedAt int64
	err := s.db.QueryRowContext(ctx, query, shop, orderNumber).Scan(&itemsJSON, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached order: %w", err)
	}

	if s.maxAge > 0 && time.Since(time.Unix(fetchedAt, 0)) > s.maxAge {
		return nil, false, nil
	}

	items := make([]model.OrderLineItem, 0)
	if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
		return nil, false, fmt.Errorf("failed to parse cached line items: %w", err)
	}
	return items, true, nil
}

// Put stores the line items of an order, replacing an existing entry.
func (s *Store) Put(ctx context.Context, shop, orderNumber string, items []model.OrderLineItem) error {
	if items == nil {
		items = []model.OrderLineItem{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to serialize line items: %w", err)
	}

	query := `
	INSERT INTO order_line_items (shop, order_number, line_items, fetched_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(shop, order_number) DO UPDATE SET
		line_items = excluded.line_items,
		fetched_at = excluded.fetched_at
	`
	if _, err := s.db.ExecContext(ctx, query, shop, orderNumber, string(itemsJSON), time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to store line items: %w", err)
	}
	return nil
}

// Prune deletes entries older than the maximum age and returns how many were
// removed. It does nothing when entries never expire.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	if s.maxAge <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-s.maxAge).Unix()
	result, err := s.db.ExecContext(ctx, `DELETE FROM order_line_items WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return result.RowsAffected()
}

// Stats holds cache statistics.
type Stats struct {
	Orders    int
	LineItems int
}

// Stats returns the number of cached orders and line items.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT line_items FROM order_line_items`)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}
	defer rows.Close()

	stats := &Stats{}
	for rows.Next() {
		var itemsJSON string
		if err := rows.Scan(&itemsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan cache row: %w", err)
		}
		var items []json.RawMessage
		if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
			return nil, fmt.Errorf("failed to parse cached line items: %w", err)
		}
		stats.Orders++
		stats.LineItems += len(items)
	}
	return stats, rows.Err()
}

// ShopKey normalizes a shop name for use as a cache key.
func ShopKey(shop, suffix string) string {
	return strings.ToLower(strings.TrimSpace(shop)) + "|" + suffix
}
