package services

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"pricewatch/internal/apperr"
	"pricewatch/internal/domain"
	applog "pricewatch/internal/log"
	"pricewatch/internal/metrics"
	"pricewatch/internal/pricing"
	"pricewatch/internal/validate"
)

type ComparisonService struct {
	Entries  WatchStore
	Products ProductLookup
	Prices   PriceLookup
	Selector pricing.Selector
	Timeout  time.Duration
}

func NewComparisonService(entries WatchStore, products ProductLookup, prices PriceLookup, sel pricing.Selector, timeout time.Duration) *ComparisonService {
	return &ComparisonService{Entries: entries, Products: products, Prices: prices, Selector: sel, Timeout: timeout}
}

// Comparisons returns the user's watchlist as comparison records, newest first.
// An empty watchlist yields an empty, non-nil slice.
func (s *ComparisonService) Comparisons(ctx context.Context, userID string) ([]domain.ComparisonRecord, error) {
	userID, ok := validate.ID(userID)
	if !ok {
		return nil, apperr.Validation("userId", "must be a non-empty identifier")
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	entries, err := s.Entries.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "comparisons: list entries")
	}
	if len(entries) == 0 {
		return []domain.ComparisonRecord{}, nil
	}

	ids := productIDs(entries)
	var (
		products map[string]domain.Product
		obs      []domain.PriceObservation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.Products.GetMany(gctx, ids)
		return errors.Wrap(err, "comparisons: load products")
	})
	g.Go(func() error {
		var err error
		obs, err = s.Prices.ListByProducts(gctx, ids)
		return errors.Wrap(err, "comparisons: load prices")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records, orphans := pricing.Compare(entries, products, obs, s.Selector)
	for _, o := range orphans {
		applog.Warn(nil, "watchlist.orphaned", map[string]any{
			"user_id":    userID,
			"entry_id":   o.EntryID,
			"product_id": o.ProductID,
			"source":     o.Source,
		})
	}
	metrics.RecordComparisons(len(records), len(orphans))
	return records, nil
}

// ProductPrices is the latest observation per source for one product.
type ProductPrices struct {
	Product domain.Product
	Prices  []domain.PriceSide
}

// ProductPrices lists the current price on every source that has observed the
// product, ordered by source name. source narrows the listing to one marketplace.
func (s *ComparisonService) ProductPrices(ctx context.Context, productID, source string) (ProductPrices, error) {
	productID, ok := validate.ID(productID)
	if !ok {
		return ProductPrices{}, apperr.Validation("productId", "must be a non-empty identifier")
	}
	if source != "" {
		if source, ok = validate.Source(source); !ok {
			return ProductPrices{}, apperr.Validation("source", "must be a marketplace name")
		}
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	p, err := s.Products.Get(ctx, productID)
	if err != nil {
		return ProductPrices{}, errors.Wrap(err, "product prices: lookup product")
	}
	if p == nil {
		return ProductPrices{}, errors.Wrapf(apperr.ErrNotFound, "product %s", productID)
	}
	obs, err := s.Prices.ListByProduct(ctx, productID, source)
	if err != nil {
		return ProductPrices{}, errors.Wrap(err, "product prices: load prices")
	}

	latest := pricing.Latest(obs)
	sources := make([]string, 0, len(latest))
	for src := range latest {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	out := ProductPrices{Product: *p, Prices: make([]domain.PriceSide, 0, len(sources))}
	if out.Product.Name == "" {
		out.Product.Name = pricing.FallbackName
	}
	if out.Product.ImageURL == "" {
		out.Product.ImageURL = pricing.FallbackImage
	}
	for _, src := range sources {
		out.Prices = append(out.Prices, pricing.Side(src, latest))
	}
	return out, nil
}

func productIDs(entries []domain.WatchlistEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.ProductID]; ok {
			continue
		}
		seen[e.ProductID] = struct{}{}
		ids = append(ids, e.ProductID)
	}
	return ids
}
