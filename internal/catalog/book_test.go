package catalog_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/joestump/bookswap/internal/catalog"
)

func TestClaimKind_Validate(t *testing.T) {
	assert.NoError(t, catalog.Owned.Validate())
	assert.NoError(t, catalog.Wanted.Validate())

	for _, bad := range []catalog.ClaimKind{"", "OWNED", "borrowed"} {
		err := bad.Validate()
		assert.ErrorIs(t, err, catalog.ErrInvalidInput, "kind %q", bad)

		var verr *catalog.ValidationError
		require.ErrorAs(t, err, &verr, "kind %q", bad)
		assert.Equal(t, []catalog.FieldError{{Field: "type", Rule: "oneof"}}, verr.Fields)

		_, err = catalog.NewBook("g1", catalog.Metadata{}).WithClaim("alice", bad)
		assert.ErrorAs(t, err, &verr, "WithClaim with kind %q", bad)
	}
}

func TestBook_WithClaim(t *testing.T) {
	b := catalog.NewBook("g1", catalog.Metadata{Title: "Dune"})

	owned, err := b.WithClaim("alice", catalog.Owned)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, owned.OwnedBy)
	assert.Empty(t, owned.WantedBy)
	assert.Empty(t, b.OwnedBy, "receiver must not change")

	_, err = owned.WithClaim("alice", catalog.Wanted)
	assert.ErrorIs(t, err, catalog.ErrConflict)
	_, err = owned.WithClaim("alice", catalog.Owned)
	assert.ErrorIs(t, err, catalog.ErrClaimExists)

	both, err := owned.WithClaim("bob", catalog.Wanted)
	require.NoError(t, err)
	assert.Equal(t, catalog.RelationOwned, both.RelationOf("alice"))
	assert.Equal(t, catalog.RelationWanted, both.RelationOf("bob"))
	assert.Equal(t, catalog.RelationNone, both.RelationOf("carol"))
}

func TestBook_WithClaim_DoesNotAliasBackingArray(t *testing.T) {
	base := catalog.Book{OwnedBy: make([]string, 1, 8)}
	base.OwnedBy[0] = "alice"

	a, err := base.WithClaim("bob", catalog.Owned)
	require.NoError(t, err)
	b, err := base.WithClaim("carol", catalog.Owned)
	require.NoError(t, err)

	assert.Equal(t, []string{"alice", "bob"}, a.OwnedBy)
	assert.Equal(t, []string{"alice", "carol"}, b.OwnedBy)
}

func TestBook_WithClaim_InvalidInput(t *testing.T) {
	b := catalog.NewBook("g1", catalog.Metadata{})
	_, err := b.WithClaim("alice", catalog.ClaimKind("lent"))
	assert.ErrorIs(t, err, catalog.ErrInvalidInput)
	_, err = b.WithClaim("", catalog.Owned)
	assert.ErrorIs(t, err, catalog.ErrInvalidInput)
}

func TestBook_WithoutClaim(t *testing.T) {
	b := catalog.Book{OwnedBy: []string{"alice", "bob"}, WantedBy: []string{"carol"}}

	out, removed := b.WithoutClaim("bob")
	assert.True(t, removed)
	assert.Equal(t, []string{"alice"}, out.OwnedBy)
	assert.Equal(t, []string{"alice", "bob"}, b.OwnedBy, "receiver must not change")

	out, removed = out.WithoutClaim("carol")
	assert.True(t, removed)
	assert.Empty(t, out.WantedBy)

	out, removed = out.WithoutClaim("dave")
	assert.False(t, removed)
	assert.Equal(t, []string{"alice"}, out.OwnedBy)

	out, _ = out.WithoutClaim("alice")
	assert.True(t, out.Empty())
}

func TestBook_WithoutClaim_OwnersCheckedFirst(t *testing.T) {
	// Only reachable with data written outside the ledger.
	b := catalog.Book{OwnedBy: []string{"alice"}, WantedBy: []string{"alice"}}
	out, removed := b.WithoutClaim("alice")
	assert.True(t, removed)
	assert.Empty(t, out.OwnedBy)
	assert.Equal(t, []string{"alice"}, out.WantedBy)
}

func TestBook_Claims(t *testing.T) {
	b := catalog.Book{OwnedBy: []string{"a", "b"}, WantedBy: []string{"c"}}
	assert.Equal(t, []catalog.Claim{
		{UserID: "a", Kind: catalog.Owned},
		{UserID: "b", Kind: catalog.Owned},
		{UserID: "c", Kind: catalog.Wanted},
	}, b.Claims())
}

// TestBook_ClaimInvariants drives random add/remove sequences and checks that
// no user ever holds both relations and that the sets never hold duplicates.
func TestBook_ClaimInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		users := []string{"alice", "bob", "carol", "dave"}
		b := catalog.NewBook("g1", catalog.Metadata{})

		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			user := rapid.SampledFrom(users).Draw(t, "user")
			if rapid.Bool().Draw(t, "add") {
				kind := rapid.SampledFrom([]catalog.ClaimKind{catalog.Owned, catalog.Wanted}).Draw(t, "kind")
				had := b.HasClaim(user)
				next, err := b.WithClaim(user, kind)
				if had {
					if !errors.Is(err, catalog.ErrConflict) {
						t.Fatalf("re-adding %s: got %v, want conflict", user, err)
					}
					continue
				}
				if err != nil {
					t.Fatalf("add %s: %v", user, err)
				}
				b = next
			} else {
				had := b.HasClaim(user)
				next, removed := b.WithoutClaim(user)
				if removed != had {
					t.Fatalf("remove %s: removed=%v, had=%v", user, removed, had)
				}
				if next.HasClaim(user) {
					t.Fatalf("%s still holds a claim after removal", user)
				}
				b = next
			}

			for _, u := range b.OwnedBy {
				if slices.Contains(b.WantedBy, u) {
					t.Fatalf("%s both owns and wants the book", u)
				}
			}
			assertUnique(t, b.OwnedBy)
			assertUnique(t, b.WantedBy)
			if b.Empty() != (len(b.Claims()) == 0) {
				t.Fatalf("Empty disagrees with Claims")
			}
		}
	})
}

func assertUnique(t *rapid.T, users []string) {
	seen := make(map[string]bool, len(users))
	for _, u := range users {
		if seen[u] {
			t.Fatalf("duplicate user %s in %v", u, users)
		}
		seen[u] = true
	}
}
