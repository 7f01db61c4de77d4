package repos_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch/internal/apperr"
	"pricewatch/internal/domain"
	"pricewatch/internal/repos"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustProduct(t *testing.T, db *sqlx.DB, id, name string) {
	t.Helper()
	require.NoError(t, repos.NewProductRepo(db).Upsert(context.Background(), domain.Product{ID: id, Name: name}))
}

func mustUser(t *testing.T, db *sqlx.DB, id string) {
	t.Helper()
	require.NoError(t, repos.NewUserRepo(db).Create(context.Background(), id, id, id+"@example.com", "Passw0rd!x"))
}

func TestProductRepoGetAndGetMany(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := repos.NewProductRepo(db)
	require.NoError(t, r.Upsert(ctx, domain.Product{ID: "p1", Name: "Laptop", Description: "thin", ImageURL: "img/p1.jpg"}))
	mustProduct(t, db, "p2", "Monitor")

	p, err := r.Get(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Laptop", p.Name)
	assert.Equal(t, "img/p1.jpg", p.ImageURL)

	missing, err := r.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	many, err := r.GetMany(ctx, []string{"p1", "p2", "nope"})
	require.NoError(t, err)
	assert.Len(t, many, 2)
	assert.Empty(t, many["p2"].Description)

	empty, err := r.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPriceRepoRoundTripAndMalformed(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	mustProduct(t, db, "p1", "Laptop")
	r := repos.NewPriceRepo(db)

	count := int64(12)
	inStock := true
	id, err := r.Insert(ctx, domain.PriceObservation{
		ProductID:   "p1",
		Source:      "Amazon",
		Price:       decimal.NewNullDecimal(decimal.RequireFromString("129.99")),
		URL:         "https://a.example/p1",
		Rating:      decimal.NewNullDecimal(decimal.RequireFromString("4.5")),
		RatingCount: &count,
		Available:   &inStock,
		ObservedAt:  t0,
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = r.Insert(ctx, domain.PriceObservation{ProductID: "p1", Source: "GeM", ObservedAt: t0.Add(time.Minute)})
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO prices(product_id, source, price, fetched_at) VALUES('p1','Flipkart','abc','2024-05-01 09:00:00')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO prices(product_id, source, price, fetched_at) VALUES('p1','Croma',-5,'2024-05-01 09:00:00')`)
	require.NoError(t, err)

	all, err := r.ListByProduct(ctx, "p1", "")
	require.NoError(t, err)
	require.Len(t, all, 4)

	bySource := map[string]domain.PriceObservation{}
	for _, o := range all {
		bySource[o.Source] = o
	}
	amz := bySource["Amazon"]
	assert.True(t, amz.Price.Valid)
	assert.Equal(t, "129.99", amz.Price.Decimal.StringFixed(2))
	assert.Equal(t, "INR", amz.Currency)
	assert.Equal(t, t0, amz.ObservedAt)
	require.NotNil(t, amz.RatingCount)
	assert.Equal(t, int64(12), *amz.RatingCount)
	require.NotNil(t, amz.Available)
	assert.True(t, *amz.Available)

	assert.False(t, bySource["GeM"].Price.Valid)
	assert.Nil(t, bySource["GeM"].Available)
	assert.False(t, bySource["Flipkart"].Price.Valid)
	assert.False(t, bySource["Croma"].Price.Valid)
	assert.Equal(t, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), bySource["Flipkart"].ObservedAt)

	onlyAmazon, err := r.ListByProduct(ctx, "p1", "Amazon")
	require.NoError(t, err)
	assert.Len(t, onlyAmazon, 1)
}

func TestPriceRepoListByProducts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	mustProduct(t, db, "p1", "A")
	mustProduct(t, db, "p2", "B")
	mustProduct(t, db, "p3", "C")
	r := repos.NewPriceRepo(db)
	for _, pid := range []string{"p1", "p2", "p3"} {
		_, err := r.Insert(ctx, domain.PriceObservation{ProductID: pid, Source: "GeM", ObservedAt: t0})
		require.NoError(t, err)
	}

	got, err := r.ListByProducts(ctx, []string{"p1", "p3"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	none, err := r.ListByProducts(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestWatchlistInsertIfAbsentIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	mustProduct(t, db, "p1", "Laptop")
	mustUser(t, db, "u1")
	r := repos.NewWatchlistRepo(db)

	id1, created, err := r.InsertIfAbsent(ctx, "u1", "p1", "GeM", t0)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, id1)

	id2, created, err := r.InsertIfAbsent(ctx, "u1", "p1", "GeM", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id1, id2)

	entries, err := r.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, t0, entries[0].AddedAt)
}

func TestWatchlistInsertUnknownProduct(t *testing.T) {
	db := openTestDB(t)
	mustUser(t, db, "u1")

	_, _, err := repos.NewWatchlistRepo(db).InsertIfAbsent(context.Background(), "u1", "ghost", "GeM", t0)
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, "productId", ve.Field)
}

func TestWatchlistDeleteAndScoping(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	mustProduct(t, db, "p1", "Laptop")
	mustUser(t, db, "u1")
	mustUser(t, db, "u2")
	r := repos.NewWatchlistRepo(db)

	_, _, err := r.InsertIfAbsent(ctx, "u1", "p1", "GeM", t0)
	require.NoError(t, err)
	_, _, err = r.InsertIfAbsent(ctx, "u2", "p1", "GeM", t0)
	require.NoError(t, err)

	removed, err := r.Delete(ctx, "u1", "p1", "GeM")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = r.Delete(ctx, "u1", "p1", "GeM")
	require.NoError(t, err)
	assert.False(t, removed)

	left, err := r.ListByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestWatchlistListOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	mustProduct(t, db, "p1", "A")
	mustProduct(t, db, "p2", "B")
	mustProduct(t, db, "p3", "C")
	mustUser(t, db, "u1")
	r := repos.NewWatchlistRepo(db)

	for i, pid := range []string{"p1", "p2", "p3"} {
		_, _, err := r.InsertIfAbsent(ctx, "u1", pid, "GeM", t0.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}
	got, err := r.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"p3", "p2", "p1"}, []string{got[0].ProductID, got[1].ProductID, got[2].ProductID})
}

func TestUserRepoByID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	mustUser(t, db, "u1")
	r := repos.NewUserRepo(db)

	u, err := r.ByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "u1@example.com", u.Email)
	assert.NotEqual(t, "Passw0rd!x", u.Hash)

	none, err := r.ByID(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestClosedDBIsConnectionError(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = repos.NewProductRepo(db).Get(context.Background(), "p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConnection)
}

func TestCanceledContextIsConnectionError(t *testing.T) {
	db := openTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repos.NewWatchlistRepo(db).ListByUser(ctx, "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConnection)
}

func TestSeedDemoIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, repos.SeedDemo(ctx, db, t0))
	require.NoError(t, repos.SeedDemo(ctx, db, t0))

	var products, prices, users int
	require.NoError(t, db.Get(&products, `SELECT COUNT(*) FROM products`))
	require.NoError(t, db.Get(&prices, `SELECT COUNT(*) FROM prices`))
	require.NoError(t, db.Get(&users, `SELECT COUNT(*) FROM users`))
	assert.Equal(t, 3, products)
	assert.Equal(t, 8, prices)
	assert.Equal(t, 2, users)
}

func TestPriceRepoKeepsFullPrecision(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	mustProduct(t, db, "p1", "Laptop")
	r := repos.NewPriceRepo(db)

	want := decimal.RequireFromString("12345678901234567.89")
	_, err := r.Insert(ctx, domain.PriceObservation{
		ProductID:  "p1",
		Source:     "GeM",
		Price:      decimal.NewNullDecimal(want),
		Rating:     decimal.NewNullDecimal(decimal.RequireFromString("4.123456789012345678")),
		ObservedAt: t0,
	})
	require.NoError(t, err)

	got, err := r.ListByProduct(ctx, "p1", "GeM")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.True(t, got[0].Price.Valid)
	assert.True(t, want.Equal(got[0].Price.Decimal), "got %s", got[0].Price.Decimal)
	assert.Equal(t, "4.123456789012345678", got[0].Rating.Decimal.String())
}

func TestWatchlistInsertUnknownUser(t *testing.T) {
	db := openTestDB(t)
	mustProduct(t, db, "p1", "Laptop")

	_, _, err := repos.NewWatchlistRepo(db).InsertIfAbsent(context.Background(), "ghost", "p1", "GeM", t0)
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, "userId", ve.Field)
}

func TestCascades(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	mustProduct(t, db, "p1", "Laptop")
	mustProduct(t, db, "p2", "Monitor")
	mustUser(t, db, "u1")
	mustUser(t, db, "u2")
	products := repos.NewProductRepo(db)
	prices := repos.NewPriceRepo(db)
	watch := repos.NewWatchlistRepo(db)

	count := func(query string, args ...any) int {
		t.Helper()
		var n int
		require.NoError(t, db.Get(&n, query, args...))
		return n
	}

	for _, pid := range []string{"p1", "p2"} {
		_, err := prices.Insert(ctx, domain.PriceObservation{ProductID: pid, Source: "GeM", ObservedAt: t0})
		require.NoError(t, err)
	}
	_, _, err := watch.InsertIfAbsent(ctx, "u1", "p1", "GeM", t0)
	require.NoError(t, err)
	_, _, err = watch.InsertIfAbsent(ctx, "u1", "p2", "GeM", t0)
	require.NoError(t, err)
	_, _, err = watch.InsertIfAbsent(ctx, "u2", "p2", "Amazon", t0)
	require.NoError(t, err)

	// deleting a product takes its price history and watch entries with it
	require.NoError(t, products.Delete(ctx, "p1"))
	assert.Zero(t, count(`SELECT COUNT(*) FROM prices WHERE product_id = ?`, "p1"))
	assert.Zero(t, count(`SELECT COUNT(*) FROM watchlist_items WHERE product_id = ?`, "p1"))
	assert.Equal(t, 1, count(`SELECT COUNT(*) FROM prices WHERE product_id = ?`, "p2"))
	assert.Equal(t, 2, count(`SELECT COUNT(*) FROM watchlist_items WHERE product_id = ?`, "p2"))

	// deleting a user takes only that user's entries
	_, err = db.Exec(`DELETE FROM users WHERE id = ?`, "u1")
	require.NoError(t, err)
	assert.Zero(t, count(`SELECT COUNT(*) FROM watchlist_items WHERE user_id = ?`, "u1"))

	left, err := watch.ListByUser(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "p2", left[0].ProductID)
}
