package store

import (
	"context"

	"github.com/joestump/bookswap/internal/catalog"
)

// BookStore persists books together with their claim sets.
// No handler MAY query the DB directly; all access goes through this interface.
//
// Save and Delete are versioned: they apply only if the stored version still
// equals b.Version and fail with catalog.ErrStale otherwise. Each call is a
// single transaction, so a book and its claims never diverge.
type BookStore interface {
	GetByID(ctx context.Context, id string) (*catalog.Book, error)
	GetByExternalID(ctx context.Context, externalID string) (*catalog.Book, error)
	ListByRelation(ctx context.Context, kind catalog.ClaimKind, userID string) ([]*catalog.Book, error)
	Create(ctx context.Context, b catalog.Book) (*catalog.Book, error)
	Save(ctx context.Context, b catalog.Book) (*catalog.Book, error)
	Delete(ctx context.Context, b catalog.Book) error
	Ping(ctx context.Context) error
}
