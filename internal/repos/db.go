package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// tsLayout is fixed-width so stored timestamps sort lexically in SQL.
const tsLayout = "2006-01-02 15:04:05.000000"

// OpenDB opens the SQLite database and applies the schema. The pool is pinned to a
// single connection: in-memory databases are per connection and SQLite serialises
// writers anyway.
func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, classify("open", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, classify("ping", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Products (catalog maintenance is external)
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  image_url TEXT,
  category TEXT,
  brand TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_name ON products(LOWER(name));

-- Price observations, append-only
CREATE TABLE IF NOT EXISTS prices(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE ON UPDATE CASCADE,
  source TEXT NOT NULL,
  price TEXT,
  currency TEXT NOT NULL DEFAULT 'INR',
  product_url TEXT,
  seller_name TEXT,
  rating TEXT,
  rating_count INTEGER,
  is_available INTEGER,
  fetched_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_prices_product    ON prices(product_id);
CREATE INDEX IF NOT EXISTS idx_prices_source     ON prices(source);
CREATE INDEX IF NOT EXISTS idx_prices_fetched_at ON prices(fetched_at);

-- Users
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

-- Watchlist
CREATE TABLE IF NOT EXISTS watchlist_items(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE ON UPDATE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE ON UPDATE CASCADE,
  source TEXT NOT NULL,
  added_at TEXT NOT NULL,
  UNIQUE(user_id, product_id, source)
);
CREATE INDEX IF NOT EXISTS idx_watchlist_user    ON watchlist_items(user_id);
CREATE INDEX IF NOT EXISTS idx_watchlist_product ON watchlist_items(product_id);
`
	_, err := db.ExecContext(ctx, schema)
	return classify("schema", err)
}

func formatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

// parseTS accepts our own layout plus what CURRENT_TIMESTAMP and RFC 3339 writers produce.
func parseTS(s string) time.Time {
	for _, layout := range []string{tsLayout, "2006-01-02 15:04:05", time.RFC3339Nano} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
