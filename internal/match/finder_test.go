package match_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/joestump/bookswap/internal/catalog"
	"github.com/joestump/bookswap/internal/ledger"
	"github.com/joestump/bookswap/internal/match"
	"github.com/joestump/bookswap/internal/store"
	"github.com/joestump/bookswap/internal/testutil"
)

// memSource serves books from a slice and counts reads per user.
type memSource struct {
	books []*catalog.Book
	reads map[string]int
	fail  map[string]error
}

func newMemSource(books ...*catalog.Book) *memSource {
	return &memSource{books: books, reads: map[string]int{}, fail: map[string]error{}}
}

func (s *memSource) ListByKind(_ context.Context, user string, kind catalog.ClaimKind) ([]*catalog.Book, error) {
	s.reads[user]++
	if err := s.fail[user]; err != nil {
		return nil, err
	}
	var out []*catalog.Book
	for _, b := range s.books {
		set := b.OwnedBy
		if kind == catalog.Wanted {
			set = b.WantedBy
		}
		if slices.Contains(set, user) {
			out = append(out, b)
		}
	}
	return out, nil
}

func book(id string, owners, wanters []string) *catalog.Book {
	return &catalog.Book{ID: id, ExternalID: "g-" + id, OwnedBy: owners, WantedBy: wanters}
}

func TestFindMatches_Reciprocal(t *testing.T) {
	b2 := book("B2", []string{"bob"}, []string{"alice"})
	b3 := book("B3", []string{"alice"}, []string{"bob"})
	f := match.NewFinder(newMemSource(b2, b3), nil)

	got, err := f.FindMatches(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []catalog.Match{{ToGet: b2, ToGive: b3, OtherUser: "bob"}}, got)

	got, err = f.FindMatches(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, []catalog.Match{{ToGet: b3, ToGive: b2, OtherUser: "alice"}}, got)
}

func TestFindMatches_NoneIsEmptyNotNil(t *testing.T) {
	src := newMemSource(
		book("B1", []string{"bob"}, []string{"alice"}),
		book("B2", []string{"carol"}, nil),
	)
	got, err := match.NewFinder(src, nil).FindMatches(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFindMatches_OneSidedWantIsNotAMatch(t *testing.T) {
	// bob wants B3 but alice does not own it.
	src := newMemSource(
		book("B2", []string{"bob"}, []string{"alice"}),
		book("B3", []string{"carol"}, []string{"bob"}),
	)
	got, err := match.NewFinder(src, nil).FindMatches(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindMatches_DuplicatesKept(t *testing.T) {
	// Two books alice wants from bob, one book bob wants from alice.
	b1 := book("B1", []string{"bob"}, []string{"alice"})
	b2 := book("B2", []string{"bob"}, []string{"alice"})
	b3 := book("B3", []string{"alice"}, []string{"bob"})
	src := newMemSource(b1, b2, b3)

	got, err := match.NewFinder(src, nil).FindMatches(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []catalog.Match{
		{ToGet: b1, ToGive: b3, OtherUser: "bob"},
		{ToGet: b2, ToGive: b3, OtherUser: "bob"},
	}, got)
	assert.Equal(t, 1, src.reads["bob"], "owner wants read once per call")
}

func TestFindMatches_ManyOwners(t *testing.T) {
	b1 := book("B1", []string{"bob", "carol"}, []string{"alice"})
	b2 := book("B2", []string{"alice"}, []string{"bob", "carol"})
	got, err := match.NewFinder(newMemSource(b1, b2), nil).FindMatches(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []catalog.Match{
		{ToGet: b1, ToGive: b2, OtherUser: "bob"},
		{ToGet: b1, ToGive: b2, OtherUser: "carol"},
	}, got)
}

func TestFindMatches_ReadFailureAborts(t *testing.T) {
	boom := catalog.StorageError("list books", errors.New("connection reset"))

	src := newMemSource(book("B2", []string{"bob"}, []string{"alice"}))
	src.fail["bob"] = boom
	got, err := match.NewFinder(src, nil).FindMatches(context.Background(), "alice")
	assert.ErrorIs(t, err, catalog.ErrStorage)
	assert.Nil(t, got)

	src = newMemSource()
	src.fail["alice"] = boom
	_, err = match.NewFinder(src, nil).FindMatches(context.Background(), "alice")
	assert.ErrorIs(t, err, boom)
}

func TestFindMatches_WithLedger(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(store.NewSQLBookStore(testutil.NewTestDB(t)), nil)
	meta := catalog.Metadata{
		Title:         "The Dispossessed",
		Authors:       []string{"Ursula K. Le Guin"},
		Publisher:     "Harper & Row",
		PublishedDate: "1974",
		Description:   "An ambiguous utopia.",
		PageCount:     341,
		Categories:    []string{"Fiction"},
		ImageLinks:    catalog.ImageLinks{SmallThumbnail: "s.jpg", Thumbnail: "t.jpg"},
		Language:      "en",
	}

	b2, err := l.AddClaim(ctx, "B2", meta, "bob", catalog.Owned)
	require.NoError(t, err)
	_, err = l.AddClaim(ctx, "B2", meta, "alice", catalog.Wanted)
	require.NoError(t, err)
	b3, err := l.AddClaim(ctx, "B3", meta, "alice", catalog.Owned)
	require.NoError(t, err)
	_, err = l.AddClaim(ctx, "B3", meta, "bob", catalog.Wanted)
	require.NoError(t, err)

	got, err := match.NewFinder(l, nil).FindMatches(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b2, got[0].ToGet.ID)
	assert.Equal(t, b3, got[0].ToGive.ID)
	assert.Equal(t, "bob", got[0].OtherUser)
}

// bruteForce checks every (wanted, owned) pair and every other user directly.
func bruteForce(books []*catalog.Book, user string) []string {
	var out []string
	for _, w := range books {
		if !slices.Contains(w.WantedBy, user) {
			continue
		}
		for _, owner := range w.OwnedBy {
			for _, o := range books {
				if slices.Contains(o.WantedBy, owner) && slices.Contains(o.OwnedBy, user) {
					out = append(out, fmt.Sprintf("%s/%s/%s", w.ID, o.ID, owner))
				}
			}
		}
	}
	return out
}

func TestFindMatches_AgreesWithBruteForce(t *testing.T) {
	users := []string{"alice", "bob", "carol", "dave"}
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(t, "books")
		books := make([]*catalog.Book, 0, n)
		for i := range n {
			b := &catalog.Book{ID: fmt.Sprintf("B%d", i)}
			for _, u := range users {
				// Each user holds at most one relation per book.
				switch rapid.IntRange(0, 2).Draw(t, fmt.Sprintf("rel-%d-%s", i, u)) {
				case 1:
					b.OwnedBy = append(b.OwnedBy, u)
				case 2:
					b.WantedBy = append(b.WantedBy, u)
				}
			}
			books = append(books, b)
		}
		user := rapid.SampledFrom(users).Draw(t, "user")

		got, err := match.NewFinder(newMemSource(books...), nil).FindMatches(context.Background(), user)
		if err != nil {
			t.Fatalf("FindMatches: %v", err)
		}
		keys := make([]string, len(got))
		for i, m := range got {
			if !slices.Contains(m.ToGet.OwnedBy, m.OtherUser) || !slices.Contains(m.ToGive.WantedBy, m.OtherUser) {
				t.Fatalf("match %v is not reciprocal", m)
			}
			if m.OtherUser == user {
				t.Fatalf("user matched with themselves: %v", m)
			}
			keys[i] = fmt.Sprintf("%s/%s/%s", m.ToGet.ID, m.ToGive.ID, m.OtherUser)
		}
		want := bruteForce(books, user)
		if !slices.Equal(keys, want) {
			t.Fatalf("matches = %v, want %v", keys, want)
		}
	})
}
