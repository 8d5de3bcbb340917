// Package match finds direct two-party swaps between users.
package match

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joestump/bookswap/internal/catalog"
	"github.com/joestump/bookswap/internal/metrics"
)

// Source is the read side of the ledger the Finder needs.
type Source interface {
	ListByKind(ctx context.Context, user string, kind catalog.ClaimKind) ([]*catalog.Book, error)
}

// Finder computes swap matches from a Source.
type Finder struct {
	src    Source
	log    *slog.Logger
	tracer trace.Tracer
}

// NewFinder returns a Finder reading from src. A nil logger uses slog.Default().
func NewFinder(src Source, logger *slog.Logger) *Finder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Finder{
		src:    src,
		log:    logger.With("component", "match"),
		tracer: otel.Tracer("bookswap/match"),
	}
}

// FindMatches returns every swap available to user: for each book user wants,
// each of its owners, and each book that owner wants which user owns.
//
// Matches come back in traversal order and are not deduplicated. Any read
// failure aborts the search and no partial result is returned.
func (f *Finder) FindMatches(ctx context.Context, user string) (matches []catalog.Match, err error) {
	ctx, span := f.tracer.Start(ctx, "match.FindMatches")
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("match.count", len(matches)))
			metrics.MatchesFoundTotal.Add(float64(len(matches)))
		}
		metrics.MatchDuration.Observe(time.Since(start).Seconds())
		span.End()
	}()

	wants, err := f.src.ListByKind(ctx, user, catalog.Wanted)
	if err != nil {
		return nil, err
	}

	// Owner want lists, read at most once per call.
	ownerWants := make(map[string][]*catalog.Book)
	matches = []catalog.Match{}
	for _, w := range wants {
		for _, owner := range w.OwnedBy {
			theirs, ok := ownerWants[owner]
			if !ok {
				theirs, err = f.src.ListByKind(ctx, owner, catalog.Wanted)
				if err != nil {
					return nil, err
				}
				ownerWants[owner] = theirs
			}
			for _, o := range theirs {
				if slices.Contains(o.OwnedBy, user) {
					matches = append(matches, catalog.Match{ToGet: w, ToGive: o, OtherUser: owner})
				}
			}
		}
	}

	f.log.DebugContext(ctx, "matches computed", "user", user, "wanted", len(wants), "matches", len(matches))
	return matches, nil
}
