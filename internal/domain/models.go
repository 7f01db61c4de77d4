package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string
	Name        string
	Description string
	ImageURL    string
	Category    string
	Brand       string
}

// PriceObservation is one append-only price snapshot for a product on a source.
// Price and Rating are invalid when the stored value was NULL or malformed.
type PriceObservation struct {
	ID          int64
	ProductID   string
	Source      string
	Price       decimal.NullDecimal
	Currency    string
	URL         string
	Seller      string
	Rating      decimal.NullDecimal
	RatingCount *int64
	Available   *bool
	ObservedAt  time.Time
}

type WatchlistEntry struct {
	ID        string
	UserID    string
	ProductID string
	Source    string
	AddedAt   time.Time
}

// PriceSide is one half of a comparison. Available is false when the source has no
// observation or its latest observation carries no price.
type PriceSide struct {
	Source      string              `json:"source"`
	Available   bool                `json:"available"`
	Price       decimal.NullDecimal `json:"price"`
	Currency    string              `json:"currency,omitempty"`
	URL         string              `json:"url,omitempty"`
	Seller      string              `json:"seller,omitempty"`
	Rating      decimal.NullDecimal `json:"rating"`
	RatingCount *int64              `json:"ratingCount,omitempty"`
	InStock     *bool               `json:"inStock,omitempty"`
	ObservedAt  *time.Time          `json:"observedAt,omitempty"`
}

type ComparisonRecord struct {
	EntryID     string     `json:"entryId"`
	ProductID   string     `json:"productId"`
	ProductName string     `json:"productName"`
	Description string     `json:"description,omitempty"`
	ImageURL    string     `json:"imageUrl"`
	Watched     PriceSide  `json:"watched"`
	Alternate   *PriceSide `json:"alternate"`
	AddedAt     time.Time  `json:"addedAt"`
}
