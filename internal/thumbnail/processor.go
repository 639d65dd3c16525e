// Package thumbnail implements the worker-side job processing: for each
// uploaded image it derives three resized variants next to the original
// blob. Jobs are redelivered at-least-once, so everything here is safe to
// reprocess: each width always overwrites the same variant path.
package thumbnail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"

	// imaging registers bmp and tiff; the stdlib formats are registered here.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"stash/internal/database"
	"stash/internal/queue"
)

// Widths of the derived variants, in processing order.
var Widths = []int{500, 250, 100}

// MetadataStore is the slice of the metadata store the worker reads for
// its defensive re-validation.
type MetadataStore interface {
	UserByID(ctx context.Context, id int64) (*database.User, error)
	FileByID(ctx context.Context, id int64) (*database.File, error)
}

// BlobStore is the blob surface the worker writes variants through.
type BlobStore interface {
	Exists(path string) bool
	Remove(path string) error
	VariantPath(path string, width int) string
	WriteVariant(path string, width int, data io.Reader) error
}

// Processor handles queued jobs. Safe for concurrent use; asynq invokes
// it from multiple goroutines.
type Processor struct {
	meta  MetadataStore
	blobs BlobStore
}

// NewProcessor creates a new processor.
func NewProcessor(meta MetadataStore, blobs BlobStore) *Processor {
	return &Processor{meta: meta, blobs: blobs}
}

// ProcessThumbnail handles a thumbnail:generate task. Validation failures
// that cannot succeed on redelivery are marked SkipRetry; transient I/O
// failures are left retryable.
func (p *Processor) ProcessThumbnail(ctx context.Context, t *asynq.Task) error {
	var payload queue.ThumbnailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("malformed payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.FileID == 0 {
		return fmt.Errorf("missing fileId: %w", asynq.SkipRetry)
	}
	if payload.UserID == 0 {
		return fmt.Errorf("missing userId: %w", asynq.SkipRetry)
	}

	f, err := p.meta.FileByID(ctx, payload.FileID)
	if errors.Is(err, database.ErrFileNotFound) {
		return fmt.Errorf("file %d not found: %w", payload.FileID, asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("failed to load file record: %w", err)
	}
	if f.UserID != payload.UserID {
		return fmt.Errorf("file %d does not belong to user %d: %w", f.ID, payload.UserID, asynq.SkipRetry)
	}
	if f.Type != database.TypeImage {
		return fmt.Errorf("file %d is not an image: %w", f.ID, asynq.SkipRetry)
	}
	if f.LocalPath == nil || !p.blobs.Exists(*f.LocalPath) {
		return fmt.Errorf("original blob missing for file %d: %w", f.ID, asynq.SkipRetry)
	}

	if err := p.generate(*f.LocalPath); err != nil {
		// Remove whatever this attempt wrote so Download never sees a
		// partial variant set from a dead job.
		p.cleanup(*f.LocalPath)
		return err
	}

	slog.Info("thumbnails generated", "file_id", f.ID, "user_id", f.UserID, "widths", Widths)
	return nil
}

// generate decodes the original once and derives all widths concurrently;
// each variant is written to its own path, so no synchronization is
// needed between them.
func (p *Processor) generate(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open blob %s: %w", path, err)
	}
	defer src.Close()

	img, name, err := image.Decode(src)
	if err != nil {
		return fmt.Errorf("failed to decode image: %v: %w", err, asynq.SkipRetry)
	}
	format, ok := formats[name]
	if !ok {
		return fmt.Errorf("unsupported image format %q: %w", name, asynq.SkipRetry)
	}

	var g errgroup.Group
	for _, width := range Widths {
		g.Go(func() error {
			return p.writeVariant(img, format, path, width)
		})
	}
	return g.Wait()
}

func (p *Processor) writeVariant(img image.Image, format imaging.Format, path string, width int) error {
	resized := imaging.Resize(img, width, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format); err != nil {
		return fmt.Errorf("failed to encode %d-wide variant: %v: %w", width, err, asynq.SkipRetry)
	}
	if err := p.blobs.WriteVariant(path, width, &buf); err != nil {
		return fmt.Errorf("failed to write %d-wide variant: %w", width, err)
	}
	return nil
}

func (p *Processor) cleanup(path string) {
	for _, width := range Widths {
		variant := p.blobs.VariantPath(path, width)
		if err := p.blobs.Remove(variant); err != nil {
			slog.Error("failed to remove partial variant", "path", variant, "error", err)
		}
	}
}

// ProcessWelcome handles a user:welcome task.
func (p *Processor) ProcessWelcome(ctx context.Context, t *asynq.Task) error {
	var payload queue.WelcomePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("malformed payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.UserID == 0 {
		return fmt.Errorf("missing userId: %w", asynq.SkipRetry)
	}

	u, err := p.meta.UserByID(ctx, payload.UserID)
	if errors.Is(err, database.ErrUserNotFound) {
		return fmt.Errorf("user %d not found: %w", payload.UserID, asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	slog.Info("welcome", "user_id", u.ID, "email", u.Email)
	return nil
}

var formats = map[string]imaging.Format{
	"jpeg": imaging.JPEG,
	"png":  imaging.PNG,
	"gif":  imaging.GIF,
	"bmp":  imaging.BMP,
	"tiff": imaging.TIFF,
}
