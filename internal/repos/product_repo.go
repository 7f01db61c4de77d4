package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"pricewatch/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

type productRow struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	ImageURL    sql.NullString `db:"image_url"`
	Category    sql.NullString `db:"category"`
	Brand       sql.NullString `db:"brand"`
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description.String,
		ImageURL:    r.ImageURL.String,
		Category:    r.Category.String,
		Brand:       r.Brand.String,
	}
}

// Get returns nil, nil when the product does not exist.
func (r *ProductRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	var row productRow
	err := r.db.GetContext(ctx, &row, `
	  SELECT id, name, description, image_url, category, brand
	  FROM products
	  WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("products.get", err)
	}
	p := row.toDomain()
	return &p, nil
}

// GetMany returns the products that exist among ids, keyed by id.
func (r *ProductRepo) GetMany(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`
	  SELECT id, name, description, image_url, category, brand
	  FROM products
	  WHERE id IN (?)
	`, ids)
	if err != nil {
		return nil, classify("products.get_many", err)
	}
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, classify("products.get_many", err)
	}
	for _, row := range rows {
		out[row.ID] = row.toDomain()
	}
	return out, nil
}

// Upsert writes catalog data. Used by seeding and tests; catalog maintenance
// proper happens outside this service.
func (r *ProductRepo) Upsert(ctx context.Context, p domain.Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products(id, name, description, image_url, category, brand, created_at)
		VALUES(?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
		  name = excluded.name,
		  description = excluded.description,
		  image_url = excluded.image_url,
		  category = excluded.category,
		  brand = excluded.brand,
		  updated_at = CURRENT_TIMESTAMP
	`, p.ID, p.Name, p.Description, p.ImageURL, p.Category, p.Brand)
	return classify("products.upsert", err)
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	return classify("products.delete", err)
}
