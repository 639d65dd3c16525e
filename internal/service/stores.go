package service

import (
	"context"
	"io"
	"time"

	"stash/internal/database"
)

// The services depend on narrow store interfaces rather than the concrete
// handles so the API tier, the worker tier, and the tests can share
// wiring. database.Repository, session.Store, storage.FileSystemStore
// and queue.Client satisfy them.

// Users is the user slice of the metadata store.
type Users interface {
	CreateUser(ctx context.Context, u *database.User) error
	UserByEmail(ctx context.Context, email string) (*database.User, error)
	UserByID(ctx context.Context, id int64) (*database.User, error)
}

// Files is the file-record slice of the metadata store.
type Files interface {
	CreateFile(ctx context.Context, f *database.File) error
	FileByID(ctx context.Context, id int64) (*database.File, error)
	ListFiles(ctx context.Context, userID, parentID int64, page int) ([]*database.File, error)
	SetFilePublic(ctx context.Context, id int64, public bool) error
}

// Sessions is the ephemeral token store consulted on every authenticated
// operation.
type Sessions interface {
	Create(ctx context.Context, userID int64, ttl time.Duration) (string, error)
	Resolve(ctx context.Context, token string) (int64, bool, error)
	Revoke(ctx context.Context, token string) error
}

// Blobs is the byte-content store referenced by file records.
type Blobs interface {
	Save(data io.Reader) (string, error)
	Exists(path string) bool
	Remove(path string) error
	VariantPath(path string, width int) string
}

// Tasks enqueues asynchronous work for the worker tier.
type Tasks interface {
	EnqueueThumbnail(ctx context.Context, fileID, userID int64) error
	EnqueueWelcome(ctx context.Context, userID int64) error
}
