package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrFileNotFound = errors.New("file not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// PageSize is the fixed number of file records returned per listing page.
const PageSize = 20

// Repository provides CRUD operations for users and files.
type Repository struct {
	db *DB
}

// NewRepository creates a new Repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts a new user record and fills in the generated id.
func (r *Repository) CreateUser(ctx context.Context, u *User) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, u.Email, u.PasswordHash).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UserByEmail retrieves a user by email address.
func (r *Repository) UserByEmail(ctx context.Context, email string) (*User, error) {
	u := &User{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// UserByID retrieves a user by id.
func (r *Repository) UserByID(ctx context.Context, id int64) (*User, error) {
	u := &User{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// CreateFile inserts a new file record and fills in the generated id.
func (r *Repository) CreateFile(ctx context.Context, f *File) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO files (user_id, name, type, is_public, parent_id, local_path)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, f.UserID, f.Name, f.Type, f.IsPublic, f.ParentID, f.LocalPath).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}

// FileByID retrieves a file record by id.
func (r *Repository) FileByID(ctx context.Context, id int64) (*File, error) {
	f := &File{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, user_id, name, type, is_public, parent_id, local_path, created_at
		FROM files WHERE id = $1
	`, id).Scan(&f.ID, &f.UserID, &f.Name, &f.Type, &f.IsPublic, &f.ParentID, &f.LocalPath, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return f, nil
}

// ListFiles returns one page of a user's files under the given parent,
// in insertion order.
func (r *Repository) ListFiles(ctx context.Context, userID, parentID int64, page int) ([]*File, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, user_id, name, type, is_public, parent_id, local_path, created_at
		FROM files
		WHERE user_id = $1 AND parent_id = $2
		ORDER BY id
		LIMIT $3 OFFSET $4
	`, userID, parentID, PageSize, page*PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &f.Type, &f.IsPublic, &f.ParentID, &f.LocalPath, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// SetFilePublic sets the public-visibility flag on a file record.
func (r *Repository) SetFilePublic(ctx context.Context, id int64, public bool) error {
	tag, err := r.db.Pool.Exec(ctx,
		"UPDATE files SET is_public = $1 WHERE id = $2", public, id)
	if err != nil {
		return fmt.Errorf("failed to update file visibility: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}

// GetStats returns aggregate record counts.
func (r *Repository) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM files)
	`).Scan(&stats.Users, &stats.Files)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return stats, nil
}
