package database

import "time"

// File types accepted by upload. Only file and image carry blob content.
const (
	TypeFolder = "folder"
	TypeFile   = "file"
	TypeImage  = "image"
)

// ValidType reports whether t is one of the accepted file types.
func ValidType(t string) bool {
	return t == TypeFolder || t == TypeFile || t == TypeImage
}

// RootParent is the sentinel parent id for top-level files.
const RootParent int64 = 0

// User represents a registered account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// File is one node in a user's file tree. LocalPath points at the blob on
// disk and is nil for folders.
type File struct {
	ID        int64
	UserID    int64
	Name      string
	Type      string
	IsPublic  bool
	ParentID  int64 // RootParent when at the top level
	LocalPath *string
	CreatedAt time.Time
}

// Stats holds aggregate record counts.
type Stats struct {
	Users int64
	Files int64
}
