package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	applog "pricewatch/internal/log"
)

// SeedDemo inserts a small catalog with price history and two demo users. It only
// writes products and prices into an empty database, so it is safe on every startup.
func SeedDemo(ctx context.Context, db *sqlx.DB, now time.Time) error {
	if err := seedCatalogIfEmpty(ctx, db, now); err != nil {
		return err
	}
	return seedUsers(ctx, db)
}

func seedCatalogIfEmpty(ctx context.Context, db *sqlx.DB, now time.Time) error {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`); err != nil {
		return classify("seed.count", err)
	}
	if n > 0 {
		return nil
	}

	applog.Info(nil, "seed.catalog", map[string]any{"products": 3})

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return classify("seed.begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO products(id,name,description,image_url,category,brand) VALUES
	  ('lap-001','Lenovo IdeaPad Slim 3','15.6" FHD, Ryzen 5, 16GB RAM, 512GB SSD','images/products/lap-001.jpg','Laptops','Lenovo'),
	  ('mon-001','Dell 24" Monitor P2422H','IPS panel, 1080p, height adjustable',NULL,'Monitors','Dell'),
	  ('prn-001','HP LaserJet M126nw','Multifunction mono laser printer','images/products/prn-001.jpg','Printers','HP')`); err != nil {
		return classify("seed.products", err)
	}

	type p struct {
		product, source, price, url, seller string
		rating                              any
		count                               any
		ago                                 time.Duration
	}
	rows := []p{
		{"lap-001", "GeM", "52499.00", "https://gem.gov.in/product/lap-001", "Seller One", nil, nil, 72 * time.Hour},
		{"lap-001", "GeM", "51999.00", "https://gem.gov.in/product/lap-001", "Seller One", nil, nil, 2 * time.Hour},
		{"lap-001", "Amazon", "54990.00", "https://www.amazon.in/dp/lap001", "Appario Retail", "4.3", 1832, 3 * time.Hour},
		{"lap-001", "Flipkart", "53490.00", "https://www.flipkart.com/p/lap001", "RetailNet", "4.2", 954, time.Hour},
		{"mon-001", "GeM", "11850.00", "https://gem.gov.in/product/mon-001", "Dell Direct", nil, nil, 5 * time.Hour},
		{"mon-001", "Flipkart", "12499.00", "https://www.flipkart.com/p/mon001", "OmniTech", "4.5", 2210, 4 * time.Hour},
		{"prn-001", "GeM", "", "https://gem.gov.in/product/prn-001", "", nil, nil, 6 * time.Hour},
		{"prn-001", "Amazon", "14999.00", "javascript:void(0)", "Cloudtail", "4.1", 611, 6 * time.Hour},
	}
	for _, r := range rows {
		var price any
		if r.price != "" {
			price = r.price
		}
		if _, err := tx.ExecContext(ctx, `
		  INSERT INTO prices(product_id, source, price, currency, product_url, seller_name,
		                     rating, rating_count, is_available, fetched_at)
		  VALUES(?, ?, ?, 'INR', ?, NULLIF(?, ''), ?, ?, 1, ?)
		`, r.product, r.source, price, r.url, r.seller, r.rating, r.count, formatTS(now.Add(-r.ago))); err != nil {
			return classify("seed.prices", err)
		}
	}
	return classify("seed.commit", tx.Commit())
}

// seedUsers ensures the demo accounts exist (idempotent).
func seedUsers(ctx context.Context, db *sqlx.DB) error {
	users := NewUserRepo(db)
	for _, u := range []struct{ id, name, email, password string }{
		{"u-alice", "alice", "alice@example.com", "Alice#2024pw"},
		{"u-bob", "bob", "bob@example.com", "Bob#2024pw!"},
	} {
		if err := users.Create(ctx, u.id, u.name, u.email, u.password); err != nil {
			return err
		}
	}
	return nil
}
