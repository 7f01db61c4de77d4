package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"pricewatch/internal/apperr"
	"pricewatch/internal/domain"
)

type WatchlistRepo struct{ db *sqlx.DB }

func NewWatchlistRepo(db *sqlx.DB) *WatchlistRepo { return &WatchlistRepo{db: db} }

type watchRow struct {
	ID        string `db:"id"`
	UserID    string `db:"user_id"`
	ProductID string `db:"product_id"`
	Source    string `db:"source"`
	AddedAt   string `db:"added_at"`
}

// InsertIfAbsent adds the (user, product, source) entry unless it already exists and
// returns the id of the stored row either way. created is false when another request
// got there first.
func (r *WatchlistRepo) InsertIfAbsent(ctx context.Context, userID, productID, source string, now time.Time) (id string, created bool, err error) {
	res, err := r.db.ExecContext(ctx, `
	  INSERT INTO watchlist_items(id, user_id, product_id, source, added_at)
	  VALUES(?, ?, ?, ?, ?)
	  ON CONFLICT(user_id, product_id, source) DO NOTHING
	`, uuid.NewString(), userID, productID, source, formatTS(now))
	if isForeignKeyViolation(err) {
		return "", false, r.missingReference(ctx, userID)
	}
	if err != nil {
		return "", false, classify("watchlist.insert", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", false, classify("watchlist.insert", err)
	}

	err = r.db.GetContext(ctx, &id, `
	  SELECT id FROM watchlist_items
	  WHERE user_id = ? AND product_id = ? AND source = ?
	`, userID, productID, source)
	if err != nil {
		// the row vanished between insert and read back; callers may retry
		return "", false, classify("watchlist.read_back", err)
	}
	return id, n > 0, nil
}

// missingReference names the side of a failed foreign key. The product is blamed
// only once the user is known to exist.
func (r *WatchlistRepo) missingReference(ctx context.Context, userID string) error {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE id = ?`, userID)
	if err != nil {
		return classify("watchlist.reference", err)
	}
	if n == 0 {
		return apperr.Validation("userId", "unknown user")
	}
	return apperr.Validation("productId", "unknown product")
}

// Delete removes the entry for the triple. Deleting nothing is not an error.
func (r *WatchlistRepo) Delete(ctx context.Context, userID, productID, source string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	  DELETE FROM watchlist_items
	  WHERE user_id = ? AND product_id = ? AND source = ?
	`, userID, productID, source)
	if err != nil {
		return false, classify("watchlist.delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify("watchlist.delete", err)
	}
	return n > 0, nil
}

// ListByUser returns the user's entries, newest first.
func (r *WatchlistRepo) ListByUser(ctx context.Context, userID string) ([]domain.WatchlistEntry, error) {
	var rows []watchRow
	err := r.db.SelectContext(ctx, &rows, `
	  SELECT id, user_id, product_id, source, added_at
	  FROM watchlist_items
	  WHERE user_id = ?
	  ORDER BY added_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, classify("watchlist.list", err)
	}
	out := make([]domain.WatchlistEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.WatchlistEntry{
			ID:        row.ID,
			UserID:    row.UserID,
			ProductID: row.ProductID,
			Source:    row.Source,
			AddedAt:   parseTS(row.AddedAt),
		})
	}
	return out, nil
}
