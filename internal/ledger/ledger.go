// Package ledger keeps track of which users own and want which books.
//
// Every mutation reads one book, derives the next state with the catalog set
// operations and issues exactly one versioned write (create, save or delete).
// Two requests racing on the same book cannot both win: the loser gets
// catalog.ErrStale and nothing is retried.
package ledger

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/joestump/bookswap/internal/catalog"
	"github.com/joestump/bookswap/internal/metrics"
	"github.com/joestump/bookswap/internal/store"
)

// Shelf is everything one user has claimed.
type Shelf struct {
	Owned  []*catalog.Book
	Wanted []*catalog.Book
}

// Ledger applies claim changes to the book store.
type Ledger struct {
	books  store.BookStore
	log    *slog.Logger
	tracer trace.Tracer
}

// New creates a Ledger backed by books. A nil logger uses slog.Default().
func New(books store.BookStore, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		books:  books,
		log:    logger.With("component", "ledger"),
		tracer: otel.Tracer("bookswap/ledger"),
	}
}

// AddClaim records that user owns or wants the book identified by externalID,
// creating the book from meta if it is not stored yet. It returns the book id.
//
// A user may hold only one relation per book: a second claim of either kind
// fails with catalog.ErrConflict.
func (l *Ledger) AddClaim(ctx context.Context, externalID string, meta catalog.Metadata, user string, kind catalog.ClaimKind) (id string, err error) {
	ctx, span := l.tracer.Start(ctx, "ledger.AddClaim", trace.WithAttributes(
		attribute.String("book.external_id", externalID),
		attribute.String("claim.kind", string(kind)),
	))
	defer func() { endSpan(span, err) }()

	if err := catalog.ValidateExternalID(externalID); err != nil {
		return "", err
	}
	if err := kind.Validate(); err != nil {
		return "", err
	}

	existing, err := l.books.GetByExternalID(ctx, externalID)
	if errors.Is(err, catalog.ErrNotFound) {
		return l.create(ctx, externalID, meta, user, kind)
	}
	if err != nil {
		return "", err
	}

	next, err := existing.WithClaim(user, kind)
	if err != nil {
		return "", err
	}
	saved, err := l.books.Save(ctx, next)
	if err != nil {
		l.countStale(err)
		return "", err
	}
	metrics.ClaimsAddedTotal.WithLabelValues(string(kind)).Inc()
	return saved.ID, nil
}

func (l *Ledger) create(ctx context.Context, externalID string, meta catalog.Metadata, user string, kind catalog.ClaimKind) (string, error) {
	if err := catalog.ValidateMetadata(meta); err != nil {
		return "", err
	}
	b, err := catalog.NewBook(externalID, meta).WithClaim(user, kind)
	if err != nil {
		return "", err
	}
	created, err := l.books.Create(ctx, b)
	if err != nil {
		return "", err
	}
	metrics.BooksCreatedTotal.Inc()
	metrics.ClaimsAddedTotal.WithLabelValues(string(kind)).Inc()
	l.log.DebugContext(ctx, "book created", "book_id", created.ID, "external_id", externalID)
	return created.ID, nil
}

// RemoveClaim removes user's claim on the book with id itemID, deleting the
// book when no claims remain. Removing a claim the user does not hold is a
// successful no-op and writes nothing.
func (l *Ledger) RemoveClaim(ctx context.Context, itemID, user string) (err error) {
	ctx, span := l.tracer.Start(ctx, "ledger.RemoveClaim", trace.WithAttributes(
		attribute.String("book.id", itemID),
	))
	defer func() { endSpan(span, err) }()

	b, err := l.books.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	return l.remove(ctx, *b, user)
}

// remove applies the removal to an already loaded book.
func (l *Ledger) remove(ctx context.Context, b catalog.Book, user string) error {
	next, removed := b.WithoutClaim(user)
	if !removed {
		return nil
	}

	if next.Empty() {
		if err := l.books.Delete(ctx, next); err != nil {
			l.countStale(err)
			return err
		}
		metrics.BooksDeletedTotal.Inc()
		l.log.DebugContext(ctx, "book deleted, no claims left", "book_id", b.ID)
	} else {
		if _, err := l.books.Save(ctx, next); err != nil {
			l.countStale(err)
			return err
		}
	}
	metrics.ClaimsRemovedTotal.Inc()
	return nil
}

// RemoveAll removes every claim user holds. Removals run concurrently, one
// per book; all of them finish before RemoveAll returns. If any fails, the
// first error is returned and the others stay applied.
func (l *Ledger) RemoveAll(ctx context.Context, user string) (err error) {
	ctx, span := l.tracer.Start(ctx, "ledger.RemoveAll")
	defer func() { endSpan(span, err) }()

	shelf, err := l.ListFor(ctx, user)
	if err != nil {
		return err
	}

	books := make([]*catalog.Book, 0, len(shelf.Owned)+len(shelf.Wanted))
	books = append(books, shelf.Owned...)
	books = append(books, shelf.Wanted...)
	span.SetAttributes(attribute.Int("book.count", len(books)))

	// A plain Group: one failure must not cancel the other removals.
	var g errgroup.Group
	for _, b := range books {
		g.Go(func() error {
			return l.remove(ctx, *b, user)
		})
	}
	return g.Wait()
}

// ListFor returns the books user owns and the books user wants.
func (l *Ledger) ListFor(ctx context.Context, user string) (shelf *Shelf, err error) {
	ctx, span := l.tracer.Start(ctx, "ledger.ListFor")
	defer func() { endSpan(span, err) }()

	shelf = &Shelf{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		owned, err := l.ListByKind(gctx, user, catalog.Owned)
		shelf.Owned = owned
		return err
	})
	g.Go(func() error {
		wanted, err := l.ListByKind(gctx, user, catalog.Wanted)
		shelf.Wanted = wanted
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return shelf, nil
}

// ListByKind returns the books user holds a claim of kind on.
func (l *Ledger) ListByKind(ctx context.Context, user string, kind catalog.ClaimKind) ([]*catalog.Book, error) {
	return l.books.ListByRelation(ctx, kind, user)
}

// Get returns the book with id itemID and user's relation to it.
func (l *Ledger) Get(ctx context.Context, itemID, user string) (*catalog.Book, catalog.Relation, error) {
	b, err := l.books.GetByID(ctx, itemID)
	if err != nil {
		return nil, catalog.RelationNone, err
	}
	return b, b.RelationOf(user), nil
}

func (l *Ledger) countStale(err error) {
	if errors.Is(err, catalog.ErrStale) {
		metrics.StaleWritesTotal.Inc()
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
