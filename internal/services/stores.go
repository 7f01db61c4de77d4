package services

import (
	"context"
	"time"

	"pricewatch/internal/domain"
)

// WatchStore is the persistence the watchlist needs. repos.WatchlistRepo implements it.
type WatchStore interface {
	InsertIfAbsent(ctx context.Context, userID, productID, source string, now time.Time) (string, bool, error)
	Delete(ctx context.Context, userID, productID, source string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]domain.WatchlistEntry, error)
}

type ProductLookup interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	GetMany(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

type PriceLookup interface {
	ListByProduct(ctx context.Context, productID, source string) ([]domain.PriceObservation, error)
	ListByProducts(ctx context.Context, productIDs []string) ([]domain.PriceObservation, error)
}

const defaultTimeout = 3 * time.Second

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultTimeout
	}
	return context.WithTimeout(ctx, d)
}
