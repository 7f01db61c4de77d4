package repos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"pricewatch/internal/domain"
	"pricewatch/internal/pricing"
)

type PriceRepo struct{ db *sqlx.DB }

func NewPriceRepo(db *sqlx.DB) *PriceRepo { return &PriceRepo{db: db} }

// priceRow keeps price and rating as text: the columns hold decimal strings so no
// digits are lost to REAL, and malformed values surface as absent instead of failing
// the scan.
type priceRow struct {
	ID          int64          `db:"id"`
	ProductID   string         `db:"product_id"`
	Source      string         `db:"source"`
	Price       sql.NullString `db:"price"`
	Currency    sql.NullString `db:"currency"`
	URL         sql.NullString `db:"product_url"`
	Seller      sql.NullString `db:"seller_name"`
	Rating      sql.NullString `db:"rating"`
	RatingCount sql.NullInt64  `db:"rating_count"`
	Available   sql.NullBool   `db:"is_available"`
	FetchedAt   string         `db:"fetched_at"`
}

func (r priceRow) toDomain() domain.PriceObservation {
	o := domain.PriceObservation{
		ID:         r.ID,
		ProductID:  r.ProductID,
		Source:     r.Source,
		Price:      pricing.ParsePrice(r.Price.String),
		Currency:   r.Currency.String,
		URL:        r.URL.String,
		Seller:     r.Seller.String,
		Rating:     pricing.ParsePrice(r.Rating.String),
		ObservedAt: parseTS(r.FetchedAt),
	}
	if o.Currency == "" {
		o.Currency = "INR"
	}
	if r.RatingCount.Valid {
		n := r.RatingCount.Int64
		o.RatingCount = &n
	}
	if r.Available.Valid {
		b := r.Available.Bool
		o.Available = &b
	}
	return o
}

const priceCols = `id, product_id, source, price, currency, product_url, seller_name,
	  rating, rating_count, is_available, fetched_at`

// ListByProduct returns every observation for a product, optionally narrowed to one source.
func (r *PriceRepo) ListByProduct(ctx context.Context, productID, source string) ([]domain.PriceObservation, error) {
	query := `SELECT ` + priceCols + ` FROM prices WHERE product_id = ?`
	args := []any{productID}
	if source != "" {
		query += ` AND source = ?`
		args = append(args, source)
	}
	var rows []priceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify("prices.list", err)
	}
	return toObservations(rows), nil
}

// ListByProducts returns every observation for any of the given products.
func (r *PriceRepo) ListByProducts(ctx context.Context, productIDs []string) ([]domain.PriceObservation, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+priceCols+` FROM prices WHERE product_id IN (?)`, productIDs)
	if err != nil {
		return nil, classify("prices.list_many", err)
	}
	var rows []priceRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, classify("prices.list_many", err)
	}
	return toObservations(rows), nil
}

// Insert appends one observation and returns its id. Ingestion runs elsewhere; this
// exists for seeding and tests.
func (r *PriceRepo) Insert(ctx context.Context, o domain.PriceObservation) (int64, error) {
	var price, rating any
	if o.Price.Valid {
		price = o.Price.Decimal.String()
	}
	if o.Rating.Valid {
		rating = o.Rating.Decimal.String()
	}
	currency := o.Currency
	if currency == "" {
		currency = "INR"
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO prices(product_id, source, price, currency, product_url, seller_name,
		                   rating, rating_count, is_available, fetched_at)
		VALUES(?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?, ?)
	`, o.ProductID, o.Source, price, currency, o.URL, o.Seller,
		rating, o.RatingCount, o.Available, formatTS(o.ObservedAt))
	if err != nil {
		return 0, classify("prices.insert", err)
	}
	id, err := res.LastInsertId()
	return id, classify("prices.insert", err)
}

func toObservations(rows []priceRow) []domain.PriceObservation {
	out := make([]domain.PriceObservation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}
