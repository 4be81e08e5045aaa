package quotations

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/joulek/Backend-mtr/internal/platform/cache"
	"github.com/joulek/Backend-mtr/internal/specrequests"
)

// Listing bounds for unconverted requests.
const (
	DefaultUnconvertedLimit = 500
	MaxUnconvertedLimit     = 5000
)

// RefSource searches request numbers across every kind.
type RefSource interface {
	SearchAllRefs(ctx context.Context, filter string) ([]specrequests.Ref, error)
}

// LinkageFinder returns the quotations referencing any of the given ids or numbers.
type LinkageFinder interface {
	FindLinkage(ctx context.Context, ids []uuid.UUID, numbers []string) ([]Linkage, error)
}

// Aggregator lists requests that no quotation references yet.
type Aggregator struct {
	refs   RefSource
	links  LinkageFinder
	cache  *cache.Versioned
	logger *slog.Logger
}

// NewAggregator wires the aggregator. cache may be nil.
func NewAggregator(refs RefSource, links LinkageFinder, c *cache.Versioned, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{refs: refs, links: links, cache: c, logger: logger}
}

// ClampLimit applies the upper bound. Zero or below selects the default, which is how Go callers
// leave the limit unset; the HTTP layer raises explicit non-positive values to one.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultUnconvertedLimit
	case limit > MaxUnconvertedLimit:
		return MaxUnconvertedLimit
	}
	return limit
}

// ListUnconverted returns requests whose id and number appear on no quotation, sorted by
// number and truncated to limit. The result is a snapshot.
func (a *Aggregator) ListUnconverted(ctx context.Context, filter string, limit int) ([]RequestRef, error) {
	filter = strings.TrimSpace(filter)
	limit = ClampLimit(limit)

	refs, err := a.cached(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(refs) > limit {
		refs = refs[:limit]
	}
	return refs, nil
}

func (a *Aggregator) cached(ctx context.Context, filter string) ([]RequestRef, error) {
	if a.cache == nil {
		return a.compute(ctx, filter)
	}
	key, err := a.cache.BuildKey(ctx, "unconverted", strings.ToUpper(filter))
	if err == nil {
		var refs []RequestRef
		err = a.cache.FetchJSON(ctx, key, &refs, func(ctx context.Context) (any, error) {
			return a.compute(ctx, filter)
		})
		if err == nil {
			return refs, nil
		}
	}
	a.logger.Warn("unconverted cache unavailable", slog.Any("error", err))
	return a.compute(ctx, filter)
}

func (a *Aggregator) compute(ctx context.Context, filter string) ([]RequestRef, error) {
	candidates, err := a.refs.SearchAllRefs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search requests: %w", err)
	}
	if len(candidates) == 0 {
		return []RequestRef{}, nil
	}

	ids := make([]uuid.UUID, 0, len(candidates))
	numbers := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
		if n := strings.TrimSpace(c.Number); n != "" {
			numbers = append(numbers, strings.ToUpper(n))
		}
	}
	linkage, err := a.links.FindLinkage(ctx, ids, numbers)
	if err != nil {
		return nil, fmt.Errorf("find quotation links: %w", err)
	}

	quotedIDs := make(map[uuid.UUID]struct{})
	quotedNumbers := make(map[string]struct{})
	for _, l := range linkage {
		if l.SourceRequestID != uuid.Nil {
			quotedIDs[l.SourceRequestID] = struct{}{}
		}
		for _, id := range l.LinkRequestIDs {
			quotedIDs[id] = struct{}{}
		}
		if n := strings.TrimSpace(l.SourceRequestNumber); n != "" {
			quotedNumbers[strings.ToUpper(n)] = struct{}{}
		}
		for _, n := range l.LinkNumbers {
			if n = strings.TrimSpace(n); n != "" {
				quotedNumbers[strings.ToUpper(n)] = struct{}{}
			}
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]RequestRef, 0, len(candidates))
	for _, c := range candidates {
		number := strings.TrimSpace(c.Number)
		if number == "" {
			continue
		}
		if _, ok := quotedIDs[c.ID]; ok {
			continue
		}
		key := strings.ToUpper(number)
		if _, ok := quotedNumbers[key]; ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, RequestRef{ID: c.ID, Number: number, Kind: c.Kind})
	}

	col := collate.New(language.French)
	sort.SliceStable(out, func(i, j int) bool {
		return col.CompareString(out[i].Number, out[j].Number) < 0
	})
	return out, nil
}

// Invalidate drops cached listings after requests or quotations change.
func (a *Aggregator) Invalidate(ctx context.Context) {
	if err := a.cache.Bump(ctx); err != nil {
		a.logger.Warn("invalidate unconverted cache", slog.Any("error", err))
	}
}
