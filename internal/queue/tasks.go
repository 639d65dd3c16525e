// Package queue defines the asynq task types shared by the API tier,
// which enqueues jobs, and the worker tier, which consumes them.
package queue

// Task type names routed by the worker's serve mux.
const (
	TypeThumbnail   = "thumbnail:generate"
	TypeUserWelcome = "user:welcome"
)

// Queue names. Thumbnails get the bulk of worker capacity.
const (
	QueueThumbnails = "thumbnails"
	QueueUsers      = "users"
)

// ThumbnailPayload references the image to derive variants for and the
// user who owns it. The worker re-validates both before processing.
type ThumbnailPayload struct {
	FileID int64 `json:"fileId"`
	UserID int64 `json:"userId"`
}

// WelcomePayload identifies a freshly registered user.
type WelcomePayload struct {
	UserID int64 `json:"userId"`
}
