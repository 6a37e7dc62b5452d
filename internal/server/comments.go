package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sofianehd/linkup/internal/storage"
	"github.com/sofianehd/linkup/pkg/apperr"
)

type createCommentRequest struct {
	Text string `json:"text"`
}

func (a *App) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	// Commenting is gated by the same visibility rule as viewing.
	post, err := a.viewablePost(r.Context(), r.PathValue("id"), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, apperr.InvalidArg("comment text is required"))
		return
	}

	comment := &storage.Comment{
		ID:        uuid.NewString(),
		PostID:    post.ID,
		UserID:    claims.UserID,
		Body:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.CreateComment(r.Context(), comment); err != nil {
		writeError(w, err)
		return
	}
	comment.AuthorUsername = claims.Username
	writeJSON(w, http.StatusCreated, toCommentResponse(*comment))
}

func (a *App) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	post, err := a.store.GetPost(r.Context(), r.PathValue("id"), claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, apperr.NotFound("post not found"))
			return
		}
		writeError(w, err)
		return
	}

	comment, err := a.store.GetComment(r.Context(), r.PathValue("commentId"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, apperr.NotFound("comment not found"))
			return
		}
		writeError(w, err)
		return
	}
	if comment.PostID != post.ID {
		writeError(w, apperr.NotFound("comment not found"))
		return
	}

	// Authorship comes before the visibility gate: an author keeps the right
	// to delete their own comment even after losing sight of the post.
	if comment.UserID != claims.UserID && post.UserID != claims.UserID {
		ok, err := a.canViewPost(r.Context(), claims.UserID, post)
		if err != nil {
			writeError(w, err)
			return
		}
		if !ok {
			writeError(w, apperr.Forbidden("you cannot view this post"))
			return
		}
		writeError(w, apperr.Forbidden("only the comment author or the post owner may delete a comment"))
		return
	}

	if err := a.store.DeleteComment(r.Context(), comment.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
