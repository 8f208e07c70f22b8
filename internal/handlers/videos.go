package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shortreel/backend/internal/logging"
	"github.com/shortreel/backend/internal/models"
	"github.com/shortreel/backend/internal/repositories"
)

// VideoHandler provides the video record endpoints.
type VideoHandler struct {
	Videos VideoStore
}

// List handles GET /api/video. The optional q parameter filters by title or description.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Videos == nil {
		logger.Error("video store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "video service unavailable")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	videos, err := h.Videos.List(ctx, query)
	if err != nil {
		logger.Error("list videos failed", "error", err, "query", query)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to fetch videos")
		return
	}

	respondJSON(ctx, w, http.StatusOK, videos)
}

// Create handles POST /api/video.
func (h VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if h.Videos == nil {
		logger.Error("video store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "video service unavailable")
		return
	}

	var req models.NewVideo
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid video payload", "error", err)
		respondDecodeError(ctx, w, err)
		return
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.Videos.Create(ctx, req.Video(identity.UserID))
	if err != nil {
		logger.Error("create video failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to create video")
		return
	}

	logger.Info("video created", "videoId", created.ID)
	respondJSON(ctx, w, http.StatusCreated, created)
}

// Get handles GET /api/video/{id}.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	id, ok := videoID(r)
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "Invalid video ID")
		return
	}

	if h.Videos == nil {
		logger.Error("video store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "video service unavailable")
		return
	}

	video, err := h.Videos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Video not found")
			return
		}
		logger.Error("fetch video failed", "error", err, "videoId", id)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to fetch video")
		return
	}

	respondJSON(ctx, w, http.StatusOK, video)
}

// Delete handles DELETE /api/video/{id}. Records with an owner may only be
// deleted by that owner.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, ok := videoID(r)
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "Invalid video ID")
		return
	}

	if h.Videos == nil {
		logger.Error("video store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "video service unavailable")
		return
	}

	video, err := h.Videos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Video not found")
			return
		}
		logger.Error("fetch video for delete failed", "error", err, "videoId", id)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to delete video")
		return
	}

	if video.OwnerID != "" && video.OwnerID != identity.UserID {
		logger.Warn("delete denied for non-owner", "videoId", id, "ownerId", video.OwnerID)
		respondError(ctx, w, http.StatusForbidden, "Forbidden")
		return
	}

	if err := h.Videos.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Video not found")
			return
		}
		logger.Error("delete video failed", "error", err, "videoId", id)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to delete video")
		return
	}

	logger.Info("video deleted", "videoId", id)
	respondJSON(ctx, w, http.StatusOK, messageResponse{Message: "Video deleted successfully"})
}

type messageResponse struct {
	Message string `json:"message"`
}

// videoID returns the canonical form of the {id} path parameter when it is a
// well-formed store key.
func videoID(r *http.Request) (string, bool) {
	parsed, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}
