// File: internal/handlers/moderation_handler.go
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/mudly/realtime/internal/services/moderation"
)

// ContentReviewer exposes the moderation gate to HTTP callers.
type ContentReviewer interface {
	Classify(ctx context.Context, text string) (moderation.Result, error)
	ReviewComment(ctx context.Context, text string) (moderation.Verdict, error)
}

type ModerationHandler struct {
	reviewer   ContentReviewer
	dispatcher NotificationDispatcher
	logger     Logger
}

func NewModerationHandler(reviewer ContentReviewer, dispatcher NotificationDispatcher, logger Logger) *ModerationHandler {
	return &ModerationHandler{reviewer: reviewer, dispatcher: dispatcher, logger: logger}
}

type toxicDetectRequest struct {
	Text string `json:"text"`
}

type commentReviewRequest struct {
	AuthorID string `json:"authorId"`
	PostID   string `json:"postId,omitempty"`
	Text     string `json:"text"`
}

// ToxicDetect returns the raw classifier result for a text.
func (h *ModerationHandler) ToxicDetect(w http.ResponseWriter, r *http.Request) {
	var req toxicDetectRequest
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION", "text is required")
		return
	}

	res, err := h.reviewer.Classify(r.Context(), req.Text)
	if err != nil {
		h.logger.Error("Classifier failed", "error", err)
		writeError(w, http.StatusBadGateway, "MODERATION", "Classifier unavailable")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ReviewComment applies the comment threshold. A blocked comment sends an
// AI_WARNING notification to its author.
func (h *ModerationHandler) ReviewComment(w http.ResponseWriter, r *http.Request) {
	var req commentReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body")
		return
	}
	if strings.TrimSpace(req.AuthorID) == "" || strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION", "authorId and text are required")
		return
	}

	verdict, err := h.reviewer.ReviewComment(r.Context(), req.Text)
	if err != nil {
		h.logger.Error("Comment review failed", "author_id", req.AuthorID, "error", err)
		writeError(w, http.StatusBadGateway, "MODERATION", "Classifier unavailable")
		return
	}

	if !verdict.Allowed {
		metadata := map[string]interface{}{
			"score":    verdict.Result.Score,
			"category": verdict.Result.Category,
		}
		if req.PostID != "" {
			metadata["postId"] = req.PostID
		}
		if _, err := h.dispatcher.Warn(r.Context(), req.AuthorID, "Your comment was blocked for violating community guidelines.", metadata); err != nil {
			h.logger.Warn("Failed to send moderation warning", "author_id", req.AuthorID, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, verdict)
}
