package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
	"github.com/wadjakorntonsri/golinks-console/pkg/ports"
	_ "modernc.org/sqlite" // Local SQLite driver
)

// timestamps are stored as UTC text so that strftime works on both drivers
const timeLayout = "2006-01-02 15:04:05"

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}

	// a shared in-memory database locks tables across connections
	if strings.Contains(dbURL, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		is_active INTEGER NOT NULL DEFAULT 1,
		last_login_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		alias TEXT NOT NULL UNIQUE,
		destination_url TEXT NOT NULL,
		created_by INTEGER NOT NULL DEFAULT 0,
		expires_at TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		clicks INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_links_alias ON links(alias);
	CREATE INDEX IF NOT EXISTS idx_links_created_by ON links(created_by);

	CREATE TABLE IF NOT EXISTS redirects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		link_id INTEGER NOT NULL,
		status INTEGER NOT NULL,
		visitor TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		FOREIGN KEY(link_id) REFERENCES links(id)
	);
	CREATE INDEX IF NOT EXISTS idx_redirects_created_at ON redirects(created_at);
	`
	_, err := db.Exec(query)
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) time.Time {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToUpper(err.Error()), "UNIQUE")
}

const linkColumns = `id, alias, destination_url, created_by, expires_at, is_active, clicks, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLink(row rowScanner) (*domain.Link, error) {
	var (
		l                    domain.Link
		expiresAt            sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&l.ID, &l.Alias, &l.DestinationURL, &l.CreatedBy, &expiresAt, &l.IsActive, &l.Clicks, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	l.ExpiresAt = parseNullTime(expiresAt)
	l.CreatedAt = parseTime(createdAt)
	updated := parseTime(updatedAt)
	l.UpdatedAt = &updated
	return &l, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, link *domain.Link) error {
	now := r.now()
	link.CreatedAt = now.UTC().Truncate(time.Second)
	updated := link.CreatedAt
	link.UpdatedAt = &updated

	query := `INSERT INTO links (alias, destination_url, created_by, expires_at, is_active, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, link.Alias, link.DestinationURL, link.CreatedBy,
		formatNullTime(link.ExpiresAt), link.IsActive, formatTime(now), formatTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	link.ID = id
	return nil
}

func (r *SQLiteRepository) GetByAlias(ctx context.Context, alias string) (*domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE alias = ? AND deleted_at IS NULL`
	link, err := scanLink(r.db.QueryRowContext(ctx, query, alias))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return link, err
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE id = ? AND deleted_at IS NULL`
	link, err := scanLink(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return link, err
}

func (r *SQLiteRepository) Update(ctx context.Context, link *domain.Link) error {
	now := r.now()
	query := `UPDATE links SET alias = ?, destination_url = ?, expires_at = ?, is_active = ?, updated_at = ?
			  WHERE id = ? AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, link.Alias, link.DestinationURL, formatNullTime(link.ExpiresAt),
		link.IsActive, formatTime(now), link.ID)
	if isUniqueViolation(err) {
		return domain.ErrDuplicate
	}
	if err != nil {
		return err
	}
	updated := now.UTC().Truncate(time.Second)
	link.UpdatedAt = &updated
	return nil
}

// Delete is a soft delete; the alias is released so it can be reused
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	query := `UPDATE links SET deleted_at = ?, alias = alias || '~' || id WHERE id = ? AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, formatTime(r.now()), id)
	return err
}

// linkWhere builds the WHERE clause shared by List and Count. Known filters:
// search, status (active, inactive, expired) and createdBy.
func (r *SQLiteRepository) linkWhere(filters map[string]interface{}) (string, []interface{}) {
	where := ` WHERE deleted_at IS NULL`
	args := []interface{}{}

	if search, ok := filters["search"].(string); ok && search != "" {
		where += " AND (alias LIKE ? OR destination_url LIKE ?)"
		args = append(args, "%"+search+"%", "%"+search+"%")
	}

	now := formatTime(r.now())
	switch filters["status"] {
	case "active":
		where += " AND is_active = 1 AND (expires_at IS NULL OR expires_at > ?)"
		args = append(args, now)
	case "inactive":
		where += " AND is_active = 0"
	case "expired":
		where += " AND expires_at IS NOT NULL AND expires_at <= ?"
		args = append(args, now)
	}

	if createdBy, ok := filters["createdBy"].(int64); ok && createdBy > 0 {
		where += " AND created_by = ?"
		args = append(args, createdBy)
	}
	return where, args
}

func (r *SQLiteRepository) List(ctx context.Context, limit, offset int, filters map[string]interface{}) ([]domain.Link, error) {
	where, args := r.linkWhere(filters)
	query := `SELECT ` + linkColumns + ` FROM links` + where

	switch filters["sortBy"] {
	case "created_asc":
		query += " ORDER BY created_at ASC, id ASC"
	case "clicks_desc":
		query += " ORDER BY clicks DESC, id DESC"
	case "alias_asc":
		query += " ORDER BY alias ASC"
	default:
		query += " ORDER BY created_at DESC, id DESC"
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []domain.Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *l)
	}
	return links, rows.Err()
}

func (r *SQLiteRepository) Count(ctx context.Context, filters map[string]interface{}) (int64, error) {
	where, args := r.linkWhere(filters)
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM links`+where, args...).Scan(&count)
	return count, err
}

// Ensure interface compliance
var _ ports.LinkRepository = (*SQLiteRepository)(nil)
var _ ports.UserRepository = (*SQLiteRepository)(nil)
