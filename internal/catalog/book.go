// Package catalog holds the book-swap domain types: books, the claims users
// hold on them, and the error kinds shared by every layer above the store.
package catalog

import (
	"slices"
	"time"
)

// ClaimKind is the relation a user declares on a book.
type ClaimKind string

const (
	Owned  ClaimKind = "owned"
	Wanted ClaimKind = "wanted"
)

// Valid reports whether k is one of the two recognized kinds.
func (k ClaimKind) Valid() bool {
	return k == Owned || k == Wanted
}

// Validate returns a ValidationError on the "type" field unless k is "owned"
// or "wanted".
func (k ClaimKind) Validate() error {
	if !k.Valid() {
		return &ValidationError{Fields: []FieldError{{Field: "type", Rule: "oneof"}}}
	}
	return nil
}

// Relation is a user's relation to a single book as seen by that user.
// It is ClaimKind plus "none".
type Relation string

const (
	RelationOwned  Relation = "owned"
	RelationWanted Relation = "wanted"
	RelationNone   Relation = "none"
)

// ImageLinks are the cover thumbnails supplied by the book-data source.
type ImageLinks struct {
	SmallThumbnail string `json:"smallThumbnail" validate:"required"`
	Thumbnail      string `json:"thumbnail" validate:"required"`
}

// Metadata is the descriptive part of a book. The ledger carries it through
// unchanged; it is only validated when a book is first created.
type Metadata struct {
	Title         string     `json:"title" validate:"required"`
	Subtitle      string     `json:"subtitle,omitempty"`
	Authors       []string   `json:"authors" validate:"required,min=1,dive,required"`
	Publisher     string     `json:"publisher" validate:"required"`
	PublishedDate string     `json:"publishedDate" validate:"required"`
	Description   string     `json:"description" validate:"required"`
	PageCount     int        `json:"pageCount" validate:"required,gt=0"`
	Categories    []string   `json:"categories" validate:"required,min=1,dive,required"`
	ImageLinks    ImageLinks `json:"imageLinks"`
	Language      string     `json:"language" validate:"required"`
}

// Book is a catalog item together with the users who own or want it.
//
// A user id appears in at most one of OwnedBy and WantedBy, and a stored book
// always has at least one of them non-empty. Methods that change the relation
// sets return a new Book and leave the receiver untouched.
type Book struct {
	ID         string
	ExternalID string
	Metadata   Metadata
	OwnedBy    []string
	WantedBy   []string
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewBook returns an unsaved book for externalID with empty relation sets.
func NewBook(externalID string, meta Metadata) Book {
	return Book{ExternalID: externalID, Metadata: meta}
}

// RelationOf reports how user relates to b. Wanted wins over owned, which can
// only matter for data written outside the ledger.
func (b Book) RelationOf(user string) Relation {
	switch {
	case slices.Contains(b.WantedBy, user):
		return RelationWanted
	case slices.Contains(b.OwnedBy, user):
		return RelationOwned
	default:
		return RelationNone
	}
}

// HasClaim reports whether user appears in either relation set.
func (b Book) HasClaim(user string) bool {
	return b.RelationOf(user) != RelationNone
}

// Empty reports whether no user references b.
func (b Book) Empty() bool {
	return len(b.OwnedBy) == 0 && len(b.WantedBy) == 0
}

// WithClaim returns a copy of b with user appended to the set for kind.
// It fails with ErrConflict if user already holds either relation.
func (b Book) WithClaim(user string, kind ClaimKind) (Book, error) {
	if err := kind.Validate(); err != nil {
		return b, err
	}
	if user == "" {
		return b, invalidf("user is required")
	}
	if b.HasClaim(user) {
		return b, ErrClaimExists
	}
	out := b
	switch kind {
	case Owned:
		out.OwnedBy = append(slices.Clip(b.OwnedBy), user)
	case Wanted:
		out.WantedBy = append(slices.Clip(b.WantedBy), user)
	}
	return out, nil
}

// WithoutClaim returns a copy of b with user removed from whichever set holds
// it, owners checked first. removed is false when user held no claim.
func (b Book) WithoutClaim(user string) (out Book, removed bool) {
	out = b
	if i := slices.Index(b.OwnedBy, user); i >= 0 {
		out.OwnedBy = slices.Delete(slices.Clone(b.OwnedBy), i, i+1)
		return out, true
	}
	if i := slices.Index(b.WantedBy, user); i >= 0 {
		out.WantedBy = slices.Delete(slices.Clone(b.WantedBy), i, i+1)
		return out, true
	}
	return out, false
}

// Claims flattens the relation sets into (user, kind) pairs in stored order,
// owners first.
func (b Book) Claims() []Claim {
	claims := make([]Claim, 0, len(b.OwnedBy)+len(b.WantedBy))
	for _, u := range b.OwnedBy {
		claims = append(claims, Claim{UserID: u, Kind: Owned})
	}
	for _, u := range b.WantedBy {
		claims = append(claims, Claim{UserID: u, Kind: Wanted})
	}
	return claims
}

// Claim is one user's relation to one book.
type Claim struct {
	UserID string
	Kind   ClaimKind
}

// Match is a direct two-party swap: the requesting user wants ToGet, which
// OtherUser owns, and OtherUser wants ToGive, which the requesting user owns.
type Match struct {
	ToGet     *Book
	ToGive    *Book
	OtherUser string
}
