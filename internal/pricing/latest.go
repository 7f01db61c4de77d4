// Package pricing reduces raw price observations into current prices and builds
// the watchlist comparison view from them. Everything here is pure and safe to call
// concurrently.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"pricewatch/internal/domain"
)

// Latest returns the most recent observation per source. Observations are assumed to
// belong to one product; use LatestByProduct for mixed input. When two observations of
// a source share a timestamp the one with the larger ID wins.
func Latest(obs []domain.PriceObservation) map[string]domain.PriceObservation {
	out := make(map[string]domain.PriceObservation)
	for _, o := range obs {
		best, ok := out[o.Source]
		if !ok || newer(o, best) {
			out[o.Source] = o
		}
	}
	return out
}

// LatestByProduct partitions by product before resolving.
func LatestByProduct(obs []domain.PriceObservation) map[string]map[string]domain.PriceObservation {
	out := make(map[string]map[string]domain.PriceObservation)
	for _, o := range obs {
		bySource, ok := out[o.ProductID]
		if !ok {
			bySource = make(map[string]domain.PriceObservation)
			out[o.ProductID] = bySource
		}
		best, ok := bySource[o.Source]
		if !ok || newer(o, best) {
			bySource[o.Source] = o
		}
	}
	return out
}

func newer(a, b domain.PriceObservation) bool {
	if a.ObservedAt.Equal(b.ObservedAt) {
		return a.ID > b.ID
	}
	return a.ObservedAt.After(b.ObservedAt)
}

// ParsePrice reads a stored price. Empty, non-numeric and negative values are
// reported as absent rather than zero.
func ParsePrice(raw string) decimal.NullDecimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
