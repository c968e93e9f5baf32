package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
)

const userColumns = `id, email, role, is_active, last_login_at, created_at, updated_at`

func scanUser(row rowScanner, extra ...interface{}) (*domain.User, error) {
	var (
		u                    domain.User
		lastLogin            sql.NullString
		createdAt, updatedAt string
	)
	dest := append([]interface{}{&u.ID, &u.Email, &u.Role, &u.IsActive, &lastLogin, &createdAt, &updatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	u.LastLoginAt = parseNullTime(lastLogin)
	created := parseTime(createdAt)
	u.CreatedAt = &created
	u.UpdatedAt = parseTime(updatedAt)
	u.Normalize()
	return &u, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, user *domain.User, passwordHash string) error {
	user.Normalize()
	now := r.now()
	query := `INSERT INTO users (email, password_hash, role, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, user.Email, passwordHash, string(user.Role), user.IsActive, formatTime(now), formatTime(now))
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
	user.ID = id
	created := now.UTC().Truncate(time.Second)
	user.CreatedAt = &created
	user.UpdatedAt = created
	return nil
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// GetUserByEmail also returns the password hash for login
func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, string, error) {
	var hash string
	query := `SELECT ` + userColumns + `, password_hash FROM users WHERE email = ?`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, email), &hash)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return u, hash, nil
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, user *domain.User) error {
	user.Normalize()
	now := r.now()
	query := `UPDATE users SET email = ?, role = ?, is_active = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, user.Email, string(user.Role), user.IsActive, formatTime(now), user.ID)
	if isUniqueViolation(err) {
		return domain.ErrDuplicate
	}
	if err != nil {
		return err
	}
	user.UpdatedAt = now.UTC().Truncate(time.Second)
	return nil
}

// DeleteUser removes the account and soft-deletes the links it owns
func (r *SQLiteRepository) DeleteUser(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := formatTime(r.now())
	if _, err := tx.ExecContext(ctx, `UPDATE links SET deleted_at = ?, alias = alias || '~' || id WHERE created_by = ? AND deleted_at IS NULL`, now, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SQLiteRepository) TouchLogin(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, formatTime(r.now()), id)
	return err
}

// userWhere supports search, role and status (active, inactive)
func userWhere(filters map[string]interface{}) (string, []interface{}) {
	where := ` WHERE 1 = 1`
	args := []interface{}{}

	if search, ok := filters["search"].(string); ok && search != "" {
		where += " AND email LIKE ?"
		args = append(args, "%"+search+"%")
	}
	if role, ok := filters["role"].(string); ok && role != "" {
		where += " AND role = ?"
		args = append(args, role)
	}
	switch filters["status"] {
	case "active":
		where += " AND is_active = 1"
	case "inactive":
		where += " AND is_active = 0"
	}
	return where, args
}

func (r *SQLiteRepository) ListUsers(ctx context.Context, limit, offset int, filters map[string]interface{}) ([]domain.User, error) {
	where, args := userWhere(filters)
	query := `SELECT ` + userColumns + ` FROM users` + where

	switch filters["sortBy"] {
	case "created_asc":
		query += " ORDER BY created_at ASC, id ASC"
	case "last_login_desc":
		query += " ORDER BY last_login_at IS NULL, last_login_at DESC, id DESC"
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

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *SQLiteRepository) CountUsers(ctx context.Context, filters map[string]interface{}) (int64, error) {
	where, args := userWhere(filters)
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&count)
	return count, err
}

// UserStats summarizes the links owned by a user
func (r *SQLiteRepository) UserStats(ctx context.Context, id int64) (*domain.UserStats, error) {
	now := r.now()
	query := `SELECT
		COUNT(*),
		COALESCE(SUM(clicks), 0),
		COALESCE(SUM(CASE WHEN is_active = 1 AND (expires_at IS NULL OR expires_at > ?) THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN expires_at IS NOT NULL AND expires_at <= ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0)
		FROM links WHERE created_by = ? AND deleted_at IS NULL`
	var s domain.UserStats
	err := r.db.QueryRowContext(ctx, query, formatTime(now), formatTime(now), formatTime(now.AddDate(0, 0, -30)), id).
		Scan(&s.LinkCount, &s.TotalClicks, &s.ActiveLinks, &s.ExpiredLinks, &s.LinksCreated30d)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
