package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"pricewatch/internal/apperr"
	"pricewatch/internal/metrics"
	"pricewatch/internal/validate"
)

// addAttempts bounds the insert/read-back loop when a concurrent remove deletes the
// row between the two statements.
const addAttempts = 2

type AddResult struct {
	EntryID string
	Created bool
}

// WatchlistService adds and removes (product, source) pairs on a user's watchlist.
type WatchlistService struct {
	Entries  WatchStore
	Products ProductLookup
	Timeout  time.Duration
	Now      func() time.Time
}

func NewWatchlistService(entries WatchStore, products ProductLookup, timeout time.Duration) *WatchlistService {
	return &WatchlistService{Entries: entries, Products: products, Timeout: timeout, Now: time.Now}
}

// Add is idempotent: watching an already watched pair returns the existing entry id
// with Created false.
func (s *WatchlistService) Add(ctx context.Context, userID, productID, source string) (AddResult, error) {
	userID, productID, source, err := triple(userID, productID, source)
	if err != nil {
		metrics.RecordMutation("add", "invalid")
		return AddResult{}, err
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	p, err := s.Products.Get(ctx, productID)
	if err != nil {
		metrics.RecordMutation("add", "error")
		return AddResult{}, errors.Wrap(err, "watchlist add: lookup product")
	}
	if p == nil {
		metrics.RecordMutation("add", "invalid")
		return AddResult{}, apperr.Validation("productId", "unknown product")
	}

	for attempt := 1; ; attempt++ {
		id, created, err := s.Entries.InsertIfAbsent(ctx, userID, productID, source, s.now())
		if errors.Is(err, sql.ErrNoRows) && attempt < addAttempts {
			continue
		}
		if _, ok := apperr.AsValidation(err); ok {
			metrics.RecordMutation("add", "invalid")
			return AddResult{}, err
		}
		if err != nil {
			metrics.RecordMutation("add", "error")
			if errors.Is(err, sql.ErrNoRows) {
				err = &apperr.StorageError{Kind: apperr.ErrConnection, Op: "watchlist.read_back", Err: err}
			}
			return AddResult{}, errors.Wrap(err, "watchlist add")
		}
		if created {
			metrics.RecordMutation("add", "created")
		} else {
			metrics.RecordMutation("add", "existing")
		}
		return AddResult{EntryID: id, Created: created}, nil
	}
}

// Remove deletes the entry if present. Removing something not watched is a success
// with removed false.
func (s *WatchlistService) Remove(ctx context.Context, userID, productID, source string) (bool, error) {
	userID, productID, source, err := triple(userID, productID, source)
	if err != nil {
		metrics.RecordMutation("remove", "invalid")
		return false, err
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	removed, err := s.Entries.Delete(ctx, userID, productID, source)
	if err != nil {
		metrics.RecordMutation("remove", "error")
		return false, errors.Wrap(err, "watchlist remove")
	}
	if removed {
		metrics.RecordMutation("remove", "removed")
	} else {
		metrics.RecordMutation("remove", "absent")
	}
	return removed, nil
}

func (s *WatchlistService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func triple(userID, productID, source string) (string, string, string, error) {
	u, ok := validate.ID(userID)
	if !ok {
		return "", "", "", apperr.Validation("userId", "must be a non-empty identifier")
	}
	p, ok := validate.ID(productID)
	if !ok {
		return "", "", "", apperr.Validation("productId", "must be a non-empty identifier")
	}
	src, ok := validate.Source(source)
	if !ok {
		return "", "", "", apperr.Validation("source", "must be a marketplace name")
	}
	return u, p, src, nil
}
