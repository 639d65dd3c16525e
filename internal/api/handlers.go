package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"

	"stash/internal/database"
	"stash/internal/service"
	"stash/internal/session"
)

// tokenHeader carries the opaque session token on authenticated requests.
const tokenHeader = "X-Token"

// statsSource provides the aggregate counts served by /stats.
// database.Repository satisfies it.
type statsSource interface {
	GetStats(ctx context.Context) (*database.Stats, error)
}

// Handler contains the HTTP handlers for the API.
type Handler struct {
	users *service.UserService
	auth  *service.AuthService
	files *service.FileService
	repo  statsSource
	db    *database.DB
	cache *session.Store
}

// NewHandler creates a new handler with its service and store dependencies.
func NewHandler(users *service.UserService, auth *service.AuthService, files *service.FileService,
	repo statsSource, db *database.DB, cache *session.Store) *Handler {
	return &Handler{users: users, auth: auth, files: files, repo: repo, db: db, cache: cache}
}

// HandleStatus handles GET /status.
// Reports whether the cache and document store connections are alive.
func (h *Handler) HandleStatus(c echo.Context) error {
	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, echo.Map{
		"redis": h.cache.HealthCheck(ctx) == nil,
		"db":    h.db.HealthCheck(ctx) == nil,
	})
}

// HandleStats handles GET /stats.
func (h *Handler) HandleStats(c echo.Context) error {
	stats, err := h.repo.GetStats(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"users": stats.Users, "files": stats.Files})
}

// HandleRegister handles POST /users.
func (h *Handler) HandleRegister(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid JSON body"})
	}

	u, err := h.users.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":    strconv.FormatInt(u.ID, 10),
		"email": u.Email,
	})
}

// HandleMe handles GET /users/me.
func (h *Handler) HandleMe(c echo.Context) error {
	u, err := h.users.Me(c.Request().Context(), c.Request().Header.Get(tokenHeader))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":    strconv.FormatInt(u.ID, 10),
		"email": u.Email,
	})
}

// HandleConnect handles GET /connect.
// Exchanges Basic credentials for a session token.
func (h *Handler) HandleConnect(c echo.Context) error {
	email, password, ok := c.Request().BasicAuth()
	if !ok {
		return mapServiceError(c, service.ErrUnauthorized)
	}

	token, err := h.auth.Login(c.Request().Context(), email, password)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// HandleDisconnect handles GET /disconnect.
func (h *Handler) HandleDisconnect(c echo.Context) error {
	if err := h.auth.Logout(c.Request().Context(), c.Request().Header.Get(tokenHeader)); err != nil {
		return mapServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// uploadRequest is the POST /files body. parentId may arrive as the
// number 0 or as a string record id, mirroring the response rendering.
type uploadRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID any    `json:"parentId"`
	IsPublic bool   `json:"isPublic"`
	Data     string `json:"data"`
}

// HandleUpload handles POST /files.
func (h *Handler) HandleUpload(c echo.Context) error {
	var req uploadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid JSON body"})
	}

	parentID, ok := parseID(req.ParentID)
	if !ok {
		// An unparsable parent can't exist. The service reports that in
		// validation order, after the token and field checks.
		parentID = -1
	}

	view, err := h.files.Upload(c.Request().Context(), c.Request().Header.Get(tokenHeader), service.UploadInput{
		Name:     req.Name,
		Type:     req.Type,
		ParentID: parentID,
		IsPublic: req.IsPublic,
		Data:     req.Data,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, view)
}

// HandleShow handles GET /files/:id.
func (h *Handler) HandleShow(c echo.Context) error {
	id, ok := parsePathID(c.Param("id"))
	if !ok {
		return mapServiceError(c, service.ErrNotFound)
	}

	view, err := h.files.Show(c.Request().Context(), c.Request().Header.Get(tokenHeader), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// HandleIndex handles GET /files?parentId=0&page=0.
func (h *Handler) HandleIndex(c echo.Context) error {
	parentID := database.RootParent
	if raw := c.QueryParam("parentId"); raw != "" {
		id, ok := parsePathID(raw)
		if !ok {
			// An unparsable parent can't hold any files, but the token
			// check still applies.
			id = -1
		}
		parentID = id
	}

	page := 0
	if raw := c.QueryParam("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			page = n
		}
	}

	views, err := h.files.Index(c.Request().Context(), c.Request().Header.Get(tokenHeader), parentID, page)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, views)
}

// HandlePublish handles PUT /files/:id/publish.
func (h *Handler) HandlePublish(c echo.Context) error {
	return h.setVisibility(c, true)
}

// HandleUnpublish handles PUT /files/:id/unpublish.
func (h *Handler) HandleUnpublish(c echo.Context) error {
	return h.setVisibility(c, false)
}

func (h *Handler) setVisibility(c echo.Context, public bool) error {
	id, ok := parsePathID(c.Param("id"))
	if !ok {
		return mapServiceError(c, service.ErrNotFound)
	}

	token := c.Request().Header.Get(tokenHeader)
	var (
		view *service.FileView
		err  error
	)
	if public {
		view, err = h.files.Publish(c.Request().Context(), token, id)
	} else {
		view, err = h.files.Unpublish(c.Request().Context(), token, id)
	}
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// HandleDownload handles GET /files/:id/data?size=100.
// Streams the blob (or the derived variant selected by size) with a
// content type inferred from the display name.
func (h *Handler) HandleDownload(c echo.Context) error {
	id, ok := parsePathID(c.Param("id"))
	if !ok {
		return mapServiceError(c, service.ErrNotFound)
	}

	size := 0
	if raw := c.QueryParam("size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			size = n
		}
	}

	path, contentType, err := h.files.Download(c.Request().Context(),
		c.Request().Header.Get(tokenHeader), id, size)
	if err != nil {
		return mapServiceError(c, err)
	}

	blob, err := os.Open(path)
	if err != nil {
		slog.Error("blob missing on disk", "path", path, "error", err)
		return mapServiceError(c, service.ErrNotFound)
	}
	defer blob.Close()

	return c.Stream(http.StatusOK, contentType, blob)
}

// parseID coerces a JSON parentId value (absent, number, or string) into
// a record id.
func parseID(v any) (int64, bool) {
	switch t := v.(type) {
	case nil:
		return database.RootParent, true
	case float64:
		return int64(t), true
	case string:
		return parsePathID(t)
	}
	return 0, false
}

func parsePathID(raw string) (int64, bool) {
	if raw == "" || raw == "0" {
		return database.RootParent, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil
}

// mapServiceError translates service-layer errors into HTTP responses.
// The sentinel messages are the client-visible bodies.
func mapServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case service.IsValidation(err):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		slog.Error("internal error", "path", c.Request().URL.Path, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
}
