package pagecraft

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/eringen/pagecraft/assets"
	"github.com/eringen/pagecraft/builder"
)

const timeLayout = time.RFC3339Nano

// Store wraps a SQLite database holding documents, uploaded images and
// short links. It implements builder.Persistence.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ builder.Persistence = (*Store)(nil)

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the public site read while the editor writes; writers wait
	// on busy_timeout instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA foreign_keys=ON;
	`); err != nil {
		db.Close()
		return nil, err
	}
	if path == ":memory:" {
		// Every connection to :memory: is its own database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	}
	s := &Store{db: db, now: time.Now}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    title TEXT NOT NULL,
    slug TEXT NOT NULL,
    active INTEGER NOT NULL DEFAULT 0,
    body TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    UNIQUE (owner_id, slug)
);
CREATE INDEX IF NOT EXISTS idx_documents_public ON documents(slug, active);

CREATE TABLE IF NOT EXISTS images (
    filename TEXT PRIMARY KEY,
    original_name TEXT NOT NULL,
    url TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    uploaded_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS short_links (
    code TEXT PRIMARY KEY,
    url TEXT NOT NULL UNIQUE,
    created_at TEXT NOT NULL
);
`)
	return err
}

const documentColumns = `id, owner_id, kind, title, slug, active, body, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

// scanDocument decodes the body and then lets the columns win for every
// field they carry, so a stale body never disagrees with the index.
func scanDocument(row scanner) (*builder.Document, error) {
	var id, owner, kind, title, slug, body, created, updated string
	var active int
	if err := row.Scan(&id, &owner, &kind, &title, &slug, &active, &body, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, builder.ErrNotFound
		}
		return nil, err
	}
	doc := builder.NewDocument(builder.DocumentKind(kind), title, slug)
	if err := json.Unmarshal([]byte(body), doc); err != nil {
		return nil, fmt.Errorf("document %s: decode body: %w", id, err)
	}
	if doc.Elements == nil {
		doc.Elements = []*builder.Element{}
	}
	doc.ID = id
	doc.OwnerID = owner
	doc.Kind = builder.DocumentKind(kind)
	doc.Title = title
	doc.Slug = slug
	doc.Active = active == 1
	doc.CreatedAt, _ = time.Parse(timeLayout, created)
	doc.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return doc, nil
}

// LoadDocument returns the document with id, active or not.
func (s *Store) LoadDocument(ctx context.Context, id string) (*builder.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", id, err)
	}
	return doc, nil
}

// SaveDocument upserts doc, overwriting every stored field. A missing ID
// or owner is assigned here; CreatedAt is kept from the stored row and
// UpdatedAt is stamped on every save. The returned copy carries the
// stored values.
func (s *Store) SaveDocument(ctx context.Context, doc *builder.Document) (*builder.Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", builder.ErrValidation)
	}
	saved := doc.Clone()
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	if saved.OwnerID == "" {
		saved.OwnerID = DefaultOwner
	}
	now := s.now().UTC()
	saved.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var created string
	err = tx.QueryRowContext(ctx, `SELECT created_at FROM documents WHERE id = ?`, saved.ID).Scan(&created)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		saved.CreatedAt = now
	case err != nil:
		return nil, err
	default:
		saved.CreatedAt, _ = time.Parse(timeLayout, created)
	}

	var other string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM documents WHERE owner_id = ? AND slug = ? AND id <> ?`,
		saved.OwnerID, saved.Slug, saved.ID).Scan(&other)
	if err == nil {
		return nil, fmt.Errorf("%w: slug %q is used by another document", ErrConflict, saved.Slug)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if saved.Active {
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM documents WHERE slug = ? AND active = 1 AND id <> ?`,
			saved.Slug, saved.ID).Scan(&other)
		if err == nil {
			return nil, fmt.Errorf("%w: slug %q is already public", ErrConflict, saved.Slug)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	body, err := json.Marshal(saved)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	active := 0
	if saved.Active {
		active = 1
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    owner_id = excluded.owner_id,
    kind = excluded.kind,
    title = excluded.title,
    slug = excluded.slug,
    active = excluded.active,
    body = excluded.body,
    updated_at = excluded.updated_at`,
		saved.ID, saved.OwnerID, string(saved.Kind), saved.Title, saved.Slug, active, string(body),
		saved.CreatedAt.Format(timeLayout), saved.UpdatedAt.Format(timeLayout))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: slug %q", ErrConflict, saved.Slug)
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return saved, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// DeleteDocument removes a document. Deleting a missing id is ErrNotFound.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete document %s: %w", id, builder.ErrNotFound)
	}
	return nil
}

// ResolvePublic returns the active document published under slug.
func (s *Store) ResolvePublic(ctx context.Context, slug string) (*builder.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE slug = ? AND active = 1 ORDER BY updated_at DESC LIMIT 1`, slug)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", slug, err)
	}
	return doc, nil
}

// ListDocuments returns every document of owner, most recently updated
// first.
func (s *Store) ListDocuments(ctx context.Context, owner string) ([]*builder.Document, error) {
	return s.listDocuments(ctx, `SELECT `+documentColumns+` FROM documents WHERE owner_id = ? ORDER BY updated_at DESC`, owner)
}

// ListActive returns every public document ordered by slug.
func (s *Store) ListActive(ctx context.Context) ([]*builder.Document, error) {
	return s.listDocuments(ctx, `SELECT `+documentColumns+` FROM documents WHERE active = 1 ORDER BY slug`)
}

func (s *Store) listDocuments(ctx context.Context, query string, args ...any) ([]*builder.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*builder.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// SaveImage records an uploaded image.
func (s *Store) SaveImage(ctx context.Context, img assets.Image) error {
	_, err := s.db.ExecContext(ctx, `
INSERT OR REPLACE INTO images (filename, original_name, url, width, height, size, uploaded_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		img.Filename, img.OriginalName, img.URL, img.Width, img.Height, img.Size, img.UploadedAt)
	return err
}

// ListImages returns uploaded images, newest first.
func (s *Store) ListImages(ctx context.Context) ([]assets.Image, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT filename, original_name, url, width, height, size, uploaded_at FROM images ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []assets.Image
	for rows.Next() {
		var img assets.Image
		if err := rows.Scan(&img.Filename, &img.OriginalName, &img.URL, &img.Width, &img.Height, &img.Size, &img.UploadedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// DeleteImage removes the image record and returns it so the caller can
// remove the stored file.
func (s *Store) DeleteImage(ctx context.Context, filename string) (assets.Image, error) {
	img := assets.Image{Filename: filename}
	err := s.db.QueryRowContext(ctx,
		`SELECT original_name, url, width, height, size, uploaded_at FROM images WHERE filename = ?`, filename).
		Scan(&img.OriginalName, &img.URL, &img.Width, &img.Height, &img.Size, &img.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return assets.Image{}, fmt.Errorf("image %s: %w", filename, builder.ErrNotFound)
	}
	if err != nil {
		return assets.Image{}, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE filename = ?`, filename); err != nil {
		return assets.Image{}, err
	}
	return img, nil
}

// ShortCode returns the code already assigned to url.
func (s *Store) ShortCode(ctx context.Context, url string) (string, error) {
	var code string
	err := s.db.QueryRowContext(ctx, `SELECT code FROM short_links WHERE url = ?`, url).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", builder.ErrNotFound
	}
	return code, err
}

// SaveShortLink assigns code to url. A taken code or url is ErrConflict.
func (s *Store) SaveShortLink(ctx context.Context, code, url string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO short_links (code, url, created_at) VALUES (?, ?, ?)`,
		code, url, s.now().UTC().Format(timeLayout))
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: short link %s", ErrConflict, code)
	}
	return err
}

// ResolveShortLink returns the url behind code.
func (s *Store) ResolveShortLink(ctx context.Context, code string) (string, error) {
	var url string
	err := s.db.QueryRowContext(ctx, `SELECT url FROM short_links WHERE code = ?`, code).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("short link %s: %w", code, builder.ErrNotFound)
	}
	return url, err
}
