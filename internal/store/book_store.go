package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/joestump/bookswap/internal/catalog"
)

// bookRow is a row in the books table.
type bookRow struct {
	ID             string     `db:"id"`
	ExternalID     string     `db:"external_id"`
	Title          string     `db:"title"`
	Subtitle       string     `db:"subtitle"`
	Authors        stringList `db:"authors"`
	Publisher      string     `db:"publisher"`
	PublishedDate  string     `db:"published_date"`
	Description    string     `db:"description"`
	PageCount      int        `db:"page_count"`
	Categories     stringList `db:"categories"`
	SmallThumbnail string     `db:"small_thumbnail"`
	Thumbnail      string     `db:"thumbnail"`
	Language       string     `db:"language"`
	Version        int        `db:"version"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// claimRow is a row in the book_claims table.
type claimRow struct {
	BookID   string `db:"book_id"`
	UserID   string `db:"user_id"`
	Kind     string `db:"kind"`
	Position int    `db:"position"`
}

// stringList stores a []string as a JSON array in a TEXT column.
type stringList []string

func (l stringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *stringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("stringList: cannot scan %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("stringList: %w", err)
	}
	*l = out
	return nil
}

const bookColumns = `b.id, b.external_id, b.title, b.subtitle, b.authors, b.publisher, b.published_date,
	b.description, b.page_count, b.categories, b.small_thumbnail, b.thumbnail, b.language,
	b.version, b.created_at, b.updated_at`

// SQLBookStore is the sqlx-backed implementation of BookStore.
type SQLBookStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLBookStore creates a new SQLBookStore.
func NewSQLBookStore(db *sqlx.DB) *SQLBookStore {
	return &SQLBookStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// q rebinds ? placeholders to the driver's native format ($1,$2,... for PostgreSQL).
func (s *SQLBookStore) q(query string) string { return s.db.Rebind(query) }

// GetByID returns the book with its claims, or catalog.ErrBookNotFound.
func (s *SQLBookStore) GetByID(ctx context.Context, id string) (*catalog.Book, error) {
	return s.getOne(ctx, "get book", `SELECT `+bookColumns+` FROM books b WHERE b.id = ?`, id)
}

// GetByExternalID returns the book for an external id, or catalog.ErrBookNotFound.
func (s *SQLBookStore) GetByExternalID(ctx context.Context, externalID string) (*catalog.Book, error) {
	return s.getOne(ctx, "get book by external id", `SELECT `+bookColumns+` FROM books b WHERE b.external_id = ?`, externalID)
}

func (s *SQLBookStore) getOne(ctx context.Context, op, query string, arg any) (*catalog.Book, error) {
	var row bookRow
	err := s.db.GetContext(ctx, &row, s.q(query), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrBookNotFound
	}
	if err != nil {
		return nil, catalog.StorageError(op, err)
	}
	books, err := s.attachClaims(ctx, []bookRow{row})
	if err != nil {
		return nil, catalog.StorageError(op, err)
	}
	return books[0], nil
}

// ListByRelation returns every book where userID holds a claim of kind,
// oldest first.
func (s *SQLBookStore) ListByRelation(ctx context.Context, kind catalog.ClaimKind, userID string) ([]*catalog.Book, error) {
	var rows []bookRow
	err := s.db.SelectContext(ctx, &rows, s.q(`
		SELECT `+bookColumns+` FROM books b
		INNER JOIN book_claims c ON c.book_id = b.id
		WHERE c.user_id = ? AND c.kind = ?
		ORDER BY b.created_at ASC, b.id ASC
	`), userID, string(kind))
	if err != nil {
		return nil, catalog.StorageError("list books by "+string(kind), err)
	}
	books, err := s.attachClaims(ctx, rows)
	if err != nil {
		return nil, catalog.StorageError("list books by "+string(kind), err)
	}
	return books, nil
}

// attachClaims loads the claim sets for rows in one query and builds books.
func (s *SQLBookStore) attachClaims(ctx context.Context, rows []bookRow) ([]*catalog.Book, error) {
	books := make([]*catalog.Book, 0, len(rows))
	if len(rows) == 0 {
		return books, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	query, args, err := sqlx.In(`
		SELECT book_id, user_id, kind, position FROM book_claims
		WHERE book_id IN (?)
		ORDER BY book_id, position
	`, ids)
	if err != nil {
		return nil, err
	}
	var claims []claimRow
	if err := s.db.SelectContext(ctx, &claims, s.q(query), args...); err != nil {
		return nil, err
	}

	byBook := make(map[string][]claimRow, len(rows))
	for _, c := range claims {
		byBook[c.BookID] = append(byBook[c.BookID], c)
	}
	for _, r := range rows {
		books = append(books, toBook(r, byBook[r.ID]))
	}
	return books, nil
}

// Create inserts b and its claims with a fresh id at version 1.
// Returns catalog.ErrDuplicateExternalID if the external id is taken.
func (s *SQLBookStore) Create(ctx context.Context, b catalog.Book) (*catalog.Book, error) {
	b.ID = uuid.New().String()
	b.Version = 1
	now := s.now()
	b.CreatedAt, b.UpdatedAt = now, now
	row := fromBook(b)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, catalog.StorageError("create book", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO books (id, external_id, title, subtitle, authors, publisher, published_date,
			description, page_count, categories, small_thumbnail, thumbnail, language,
			version, created_at, updated_at)
		VALUES (:id, :external_id, :title, :subtitle, :authors, :publisher, :published_date,
			:description, :page_count, :categories, :small_thumbnail, :thumbnail, :language,
			:version, :created_at, :updated_at)
	`, row)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, catalog.ErrDuplicateExternalID
		}
		return nil, catalog.StorageError("create book", err)
	}

	if err := s.insertClaims(ctx, tx, b, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, catalog.StorageError("create book", err)
	}
	return &b, nil
}

// Save overwrites the stored book and its claims with b if the stored version
// still equals b.Version, and bumps the version.
func (s *SQLBookStore) Save(ctx context.Context, b catalog.Book) (*catalog.Book, error) {
	now := s.now()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, catalog.StorageError("save book", err)
	}
	defer tx.Rollback()

	m := b.Metadata
	res, err := tx.ExecContext(ctx, s.q(`
		UPDATE books SET title = ?, subtitle = ?, authors = ?, publisher = ?, published_date = ?,
			description = ?, page_count = ?, categories = ?, small_thumbnail = ?, thumbnail = ?,
			language = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`), m.Title, m.Subtitle, stringList(m.Authors), m.Publisher, m.PublishedDate,
		m.Description, m.PageCount, stringList(m.Categories), m.ImageLinks.SmallThumbnail, m.ImageLinks.Thumbnail,
		m.Language, now, b.ID, b.Version)
	if err != nil {
		return nil, catalog.StorageError("save book", err)
	}
	if err := s.checkApplied(ctx, tx, res, b.ID); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM book_claims WHERE book_id = ?`), b.ID); err != nil {
		return nil, catalog.StorageError("save book claims", err)
	}
	if err := s.insertClaims(ctx, tx, b, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, catalog.StorageError("save book", err)
	}

	b.Version++
	b.UpdatedAt = now
	return &b, nil
}

// Delete removes b and its claims if the stored version still equals b.Version.
func (s *SQLBookStore) Delete(ctx context.Context, b catalog.Book) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return catalog.StorageError("delete book", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM book_claims WHERE book_id = ?`), b.ID); err != nil {
		return catalog.StorageError("delete book claims", err)
	}
	res, err := tx.ExecContext(ctx, s.q(`DELETE FROM books WHERE id = ? AND version = ?`), b.ID, b.Version)
	if err != nil {
		return catalog.StorageError("delete book", err)
	}
	if err := s.checkApplied(ctx, tx, res, b.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return catalog.StorageError("delete book", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *SQLBookStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// checkApplied turns a zero-row versioned write into ErrBookNotFound or ErrStale.
func (s *SQLBookStore) checkApplied(ctx context.Context, tx *sqlx.Tx, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return catalog.StorageError("rows affected", err)
	}
	if n > 0 {
		return nil
	}
	var count int
	if err := tx.GetContext(ctx, &count, s.q(`SELECT COUNT(*) FROM books WHERE id = ?`), id); err != nil {
		return catalog.StorageError("check book exists", err)
	}
	if count == 0 {
		return catalog.ErrBookNotFound
	}
	return catalog.ErrStale
}

func (s *SQLBookStore) insertClaims(ctx context.Context, tx *sqlx.Tx, b catalog.Book, now time.Time) error {
	for i, c := range b.Claims() {
		_, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO book_claims (book_id, user_id, kind, position, created_at) VALUES (?, ?, ?, ?, ?)
		`), b.ID, c.UserID, string(c.Kind), i, now)
		if err != nil {
			if isUniqueConstraintError(err) {
				return catalog.ErrClaimExists
			}
			return catalog.StorageError("insert book claim", err)
		}
	}
	return nil
}

func toBook(r bookRow, claims []claimRow) *catalog.Book {
	b := &catalog.Book{
		ID:         r.ID,
		ExternalID: r.ExternalID,
		Metadata: catalog.Metadata{
			Title:         r.Title,
			Subtitle:      r.Subtitle,
			Authors:       []string(r.Authors),
			Publisher:     r.Publisher,
			PublishedDate: r.PublishedDate,
			Description:   r.Description,
			PageCount:     r.PageCount,
			Categories:    []string(r.Categories),
			ImageLinks: catalog.ImageLinks{
				SmallThumbnail: r.SmallThumbnail,
				Thumbnail:      r.Thumbnail,
			},
			Language: r.Language,
		},
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	for _, c := range claims {
		switch catalog.ClaimKind(c.Kind) {
		case catalog.Owned:
			b.OwnedBy = append(b.OwnedBy, c.UserID)
		case catalog.Wanted:
			b.WantedBy = append(b.WantedBy, c.UserID)
		}
	}
	return b
}

func fromBook(b catalog.Book) bookRow {
	m := b.Metadata
	return bookRow{
		ID:             b.ID,
		ExternalID:     b.ExternalID,
		Title:          m.Title,
		Subtitle:       m.Subtitle,
		Authors:        stringList(m.Authors),
		Publisher:      m.Publisher,
		PublishedDate:  m.PublishedDate,
		Description:    m.Description,
		PageCount:      m.PageCount,
		Categories:     stringList(m.Categories),
		SmallThumbnail: m.ImageLinks.SmallThumbnail,
		Thumbnail:      m.ImageLinks.Thumbnail,
		Language:       m.Language,
		Version:        b.Version,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}
