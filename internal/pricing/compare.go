package pricing

import (
	"net/url"
	"sort"
	"strings"

	"pricewatch/internal/domain"
)

const (
	FallbackName  = "Unnamed Product"
	FallbackImage = "images/placeholder.png"
)

// Orphan is a watchlist entry whose product no longer exists.
type Orphan struct {
	EntryID   string
	ProductID string
	Source    string
}

// Compare assembles one record per entry whose product is known, newest entry first.
// obs may hold observations for any number of products; it is partitioned here.
// Entries pointing at unknown products are returned as orphans and left out of the
// records.
func Compare(
	entries []domain.WatchlistEntry,
	products map[string]domain.Product,
	obs []domain.PriceObservation,
	sel Selector,
) ([]domain.ComparisonRecord, []Orphan) {
	ordered := append([]domain.WatchlistEntry(nil), entries...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].AddedAt.Equal(ordered[j].AddedAt) {
			return ordered[i].ID > ordered[j].ID
		}
		return ordered[i].AddedAt.After(ordered[j].AddedAt)
	})

	latest := LatestByProduct(obs)
	records := make([]domain.ComparisonRecord, 0, len(ordered))
	var orphans []Orphan

	for _, e := range ordered {
		p, ok := products[e.ProductID]
		if !ok {
			orphans = append(orphans, Orphan{EntryID: e.ID, ProductID: e.ProductID, Source: e.Source})
			continue
		}
		bySource := latest[e.ProductID]

		rec := domain.ComparisonRecord{
			EntryID:     e.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			Description: p.Description,
			ImageURL:    p.ImageURL,
			Watched:     Side(e.Source, bySource),
			AddedAt:     e.AddedAt,
		}
		if strings.TrimSpace(rec.ProductName) == "" {
			rec.ProductName = FallbackName
		}
		if strings.TrimSpace(rec.ImageURL) == "" {
			rec.ImageURL = FallbackImage
		}
		if alt, ok := sel.Pick(bySource, e.Source); ok {
			s := Side(alt, bySource)
			rec.Alternate = &s
		}
		records = append(records, rec)
	}
	return records, orphans
}

// Side renders the latest observation of source from bySource. A source with no
// observation comes back with only its name set.
func Side(source string, bySource map[string]domain.PriceObservation) domain.PriceSide {
	s := domain.PriceSide{Source: source}
	o, ok := bySource[source]
	if !ok {
		return s
	}
	at := o.ObservedAt
	s.Available = o.Price.Valid
	s.Price = o.Price
	s.Currency = o.Currency
	s.URL = CleanURL(o.URL)
	s.Seller = o.Seller
	s.Rating = o.Rating
	s.RatingCount = o.RatingCount
	s.InStock = o.Available
	s.ObservedAt = &at
	return s
}

// CleanURL returns raw when it is an absolute http(s) URL with a host, else "".
// Other well-formed schemes (mailto:, ftp:, javascript:) are dropped on purpose:
// the value is rendered as a clickable link.
func CleanURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return raw
}
