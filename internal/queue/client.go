package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// thumbnailMaxRetry bounds redelivery of a thumbnail job. Processing is
// idempotent, so bounded retry only risks wasted work, never corruption.
const thumbnailMaxRetry = 3

// Client enqueues background jobs onto the durable Redis-backed queue.
type Client struct {
	c *asynq.Client
}

// NewClient creates a queue client talking to the given Redis instance.
func NewClient(addr, password string, db int) *Client {
	return &Client{
		c: asynq.NewClient(asynq.RedisClientOpt{Addr: addr, Password: password, DB: db}),
	}
}

// EnqueueThumbnail schedules thumbnail generation for an uploaded image.
// Callers must only invoke this after the file record and blob are
// durably written.
func (c *Client) EnqueueThumbnail(ctx context.Context, fileID, userID int64) error {
	payload, err := json.Marshal(ThumbnailPayload{FileID: fileID, UserID: userID})
	if err != nil {
		return fmt.Errorf("failed to marshal thumbnail payload: %w", err)
	}

	info, err := c.c.EnqueueContext(ctx, asynq.NewTask(TypeThumbnail, payload),
		asynq.Queue(QueueThumbnails), asynq.MaxRetry(thumbnailMaxRetry))
	if err != nil {
		return fmt.Errorf("failed to enqueue thumbnail job: %w", err)
	}

	slog.Info("enqueued thumbnail job", "file_id", fileID, "user_id", userID, "task_id", info.ID)
	return nil
}

// EnqueueWelcome schedules the post-registration welcome job.
func (c *Client) EnqueueWelcome(ctx context.Context, userID int64) error {
	payload, err := json.Marshal(WelcomePayload{UserID: userID})
	if err != nil {
		return fmt.Errorf("failed to marshal welcome payload: %w", err)
	}

	info, err := c.c.EnqueueContext(ctx, asynq.NewTask(TypeUserWelcome, payload),
		asynq.Queue(QueueUsers), asynq.MaxRetry(1))
	if err != nil {
		return fmt.Errorf("failed to enqueue welcome job: %w", err)
	}

	slog.Info("enqueued welcome job", "user_id", userID, "task_id", info.ID)
	return nil
}

// Close shuts down the underlying connection.
func (c *Client) Close() error {
	return c.c.Close()
}
