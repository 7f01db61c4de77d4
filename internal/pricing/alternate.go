package pricing

import "pricewatch/internal/domain"

// DefaultPriority is the alternate-source order used when none is configured.
var DefaultPriority = []string{"Amazon", "Flipkart"}

// Selector picks the source a watched listing is compared against.
type Selector struct {
	Priority []string
}

func NewSelector(priority []string) Selector {
	if len(priority) == 0 {
		priority = DefaultPriority
	}
	return Selector{Priority: append([]string(nil), priority...)}
}

// Pick returns the first priority source with a resolved observation, or failing
// that the most recently observed remaining source (ties by name). The watched source
// is never returned.
func (s Selector) Pick(latest map[string]domain.PriceObservation, watched string) (string, bool) {
	for _, src := range s.Priority {
		if src == watched {
			continue
		}
		if _, ok := latest[src]; ok {
			return src, true
		}
	}

	var (
		pick  string
		found bool
	)
	for src, o := range latest {
		if src == watched {
			continue
		}
		if !found {
			pick, found = src, true
			continue
		}
		cur := latest[pick]
		switch {
		case o.ObservedAt.After(cur.ObservedAt):
			pick = src
		case o.ObservedAt.Equal(cur.ObservedAt) && src < pick:
			pick = src
		}
	}
	return pick, found
}
