package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strconv"

	"stash/internal/auth"
	"stash/internal/database"
)

// FileService orchestrates the session store, access control, metadata
// store, blob store, and job queue for the file operations.
type FileService struct {
	files    Files
	sessions Sessions
	blobs    Blobs
	tasks    Tasks
}

// NewFileService creates a new file service.
func NewFileService(files Files, sessions Sessions, blobs Blobs, tasks Tasks) *FileService {
	return &FileService{files: files, sessions: sessions, blobs: blobs, tasks: tasks}
}

// UploadInput carries the decoded upload request body.
type UploadInput struct {
	Name     string
	Type     string
	ParentID int64
	IsPublic bool
	Data     string // base64, empty for folders
}

// FileView is the JSON response shape for a file record. Ids are rendered
// as strings except the root parent, which is the literal number 0.
type FileView struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsPublic bool   `json:"isPublic"`
	ParentID any    `json:"parentId"`
}

// NewFileView converts a file record to its response shape.
func NewFileView(f *database.File) *FileView {
	var parent any = database.RootParent
	if f.ParentID != database.RootParent {
		parent = strconv.FormatInt(f.ParentID, 10)
	}
	return &FileView{
		ID:       strconv.FormatInt(f.ID, 10),
		UserID:   strconv.FormatInt(f.UserID, 10),
		Name:     f.Name,
		Type:     f.Type,
		IsPublic: f.IsPublic,
		ParentID: parent,
	}
}

// Upload validates the request, persists the metadata record and blob,
// and for images enqueues the thumbnail job once both are durable.
func (s *FileService) Upload(ctx context.Context, token string, in UploadInput) (*FileView, error) {
	userID, err := resolveToken(ctx, s.sessions, token)
	if err != nil {
		return nil, err
	}

	if in.Name == "" {
		return nil, ErrMissingName
	}
	if !database.ValidType(in.Type) {
		return nil, ErrMissingType
	}
	if in.Data == "" && in.Type != database.TypeFolder {
		return nil, ErrMissingData
	}
	if in.ParentID != database.RootParent {
		parent, err := s.files.FileByID(ctx, in.ParentID)
		if errors.Is(err, database.ErrFileNotFound) {
			return nil, ErrParentNotFound
		}
		if err != nil {
			return nil, err
		}
		if parent.Type != database.TypeFolder {
			return nil, ErrParentNotFolder
		}
	}

	f := &database.File{
		UserID:   userID,
		Name:     in.Name,
		Type:     in.Type,
		IsPublic: in.IsPublic,
		ParentID: in.ParentID,
	}

	if in.Type == database.TypeFolder {
		if err := s.files.CreateFile(ctx, f); err != nil {
			return nil, err
		}
		slog.Info("folder created", "file_id", f.ID, "user_id", userID)
		return NewFileView(f), nil
	}

	content, err := base64.StdEncoding.DecodeString(in.Data)
	if err != nil {
		return nil, ErrInvalidData
	}

	path, err := s.blobs.Save(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to store blob: %w", err)
	}
	f.LocalPath = &path

	if err := s.files.CreateFile(ctx, f); err != nil {
		// Don't leave an orphaned blob behind.
		if rerr := s.blobs.Remove(path); rerr != nil {
			slog.Error("failed to remove orphaned blob", "path", path, "error", rerr)
		}
		return nil, err
	}

	if in.Type == database.TypeImage {
		// The record and blob are durable at this point, so the job can
		// never reference a file that doesn't exist. A failed enqueue
		// must not fail the completed upload.
		if err := s.tasks.EnqueueThumbnail(ctx, f.ID, userID); err != nil {
			slog.Error("failed to enqueue thumbnail job", "file_id", f.ID, "error", err)
		}
	}

	slog.Info("file uploaded",
		"file_id", f.ID,
		"user_id", userID,
		"type", f.Type,
		"size", len(content),
	)
	return NewFileView(f), nil
}

// Show returns a file record to its owner. A record owned by someone else
// is reported exactly like a missing one so existence never leaks.
func (s *FileService) Show(ctx context.Context, token string, fileID int64) (*FileView, error) {
	userID, err := resolveToken(ctx, s.sessions, token)
	if err != nil {
		return nil, err
	}

	f, err := s.ownedFile(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	return NewFileView(f), nil
}

// Index returns one page of the owner's files under the given parent.
// The owner sees all of their files regardless of the public flag.
func (s *FileService) Index(ctx context.Context, token string, parentID int64, page int) ([]*FileView, error) {
	userID, err := resolveToken(ctx, s.sessions, token)
	if err != nil {
		return nil, err
	}

	if page < 0 {
		page = 0
	}
	files, err := s.files.ListFiles(ctx, userID, parentID, page)
	if err != nil {
		return nil, err
	}

	views := make([]*FileView, 0, len(files))
	for _, f := range files {
		views = append(views, NewFileView(f))
	}
	return views, nil
}

// Publish marks a file as publicly readable.
func (s *FileService) Publish(ctx context.Context, token string, fileID int64) (*FileView, error) {
	return s.setVisibility(ctx, token, fileID, true)
}

// Unpublish makes a file private again.
func (s *FileService) Unpublish(ctx context.Context, token string, fileID int64) (*FileView, error) {
	return s.setVisibility(ctx, token, fileID, false)
}

func (s *FileService) setVisibility(ctx context.Context, token string, fileID int64, public bool) (*FileView, error) {
	userID, err := resolveToken(ctx, s.sessions, token)
	if err != nil {
		return nil, err
	}

	f, err := s.ownedFile(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}

	if err := s.files.SetFilePublic(ctx, f.ID, public); err != nil {
		if errors.Is(err, database.ErrFileNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	f.IsPublic = public

	slog.Info("file visibility changed", "file_id", f.ID, "is_public", public)
	return NewFileView(f), nil
}

// Download resolves the blob path and content type for a file. token may
// be empty: anonymous access is allowed for public files only. size, when
// non-zero, selects the derived variant of that width; an unprocessed
// variant is reported as missing rather than falling back to the
// original.
func (s *FileService) Download(ctx context.Context, token string, fileID int64, size int) (path, contentType string, err error) {
	f, err := s.files.FileByID(ctx, fileID)
	if errors.Is(err, database.ErrFileNotFound) {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", err
	}

	viewer := auth.Anonymous
	if token != "" {
		id, ok, err := s.sessions.Resolve(ctx, token)
		if err != nil {
			return "", "", err
		}
		if ok {
			viewer = id
		}
	}
	if !auth.CanRead(viewer, f) {
		return "", "", ErrNotFound
	}

	if f.Type == database.TypeFolder {
		return "", "", ErrFolderNoContent
	}
	if f.LocalPath == nil {
		return "", "", ErrNotFound
	}

	path = *f.LocalPath
	if size != 0 {
		path = s.blobs.VariantPath(path, size)
	}
	if !s.blobs.Exists(path) {
		return "", "", ErrNotFound
	}

	contentType = mime.TypeByExtension(filepath.Ext(f.Name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return path, contentType, nil
}

// ownedFile fetches a record and enforces ownership, merging an ownership
// mismatch into NotFound.
func (s *FileService) ownedFile(ctx context.Context, userID, fileID int64) (*database.File, error) {
	f, err := s.files.FileByID(ctx, fileID)
	if errors.Is(err, database.ErrFileNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !auth.CanWrite(userID, f) {
		return nil, ErrNotFound
	}
	return f, nil
}
