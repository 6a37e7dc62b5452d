package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sofianehd/linkup/internal/storage"
	"github.com/sofianehd/linkup/pkg/apperr"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

type editMessageRequest struct {
	Message string `json:"message"`
}

func (a *App) handleListMessages(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	conversationID := r.PathValue("id")

	if err := a.requireParticipant(r.Context(), conversationID, claims.UserID); err != nil {
		writeError(w, err)
		return
	}

	before := strings.TrimSpace(r.URL.Query().Get("before"))
	limit := defaultPageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, apperr.InvalidArg("limit must be a positive integer"))
			return
		}
		limit = min(parsed, maxPageLimit)
	}

	messages, hasMore, err := a.store.ListMessages(r.Context(), conversationID, before, limit)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, apperr.InvalidArg("before cursor does not belong to this conversation"))
			return
		}
		writeError(w, err)
		return
	}

	responses := make([]messageResponse, 0, len(messages))
	for _, msg := range messages {
		responses = append(responses, toMessageResponse(msg))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages": responses,
		"hasMore":  hasMore,
	})
}

func (a *App) handleMarkMessageRead(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	msg, err := a.addressableMessage(r, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	// Marking your own message is a harmless no-op, not an error.
	if msg.SenderID == claims.UserID {
		writeJSON(w, http.StatusOK, map[string]bool{"read": false})
		return
	}

	changed, err := a.store.MarkMessageRead(r.Context(), msg.ID, time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"read": changed})
}

func (a *App) handleEditMessage(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	msg, err := a.addressableMessage(r, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if msg.SenderID != claims.UserID {
		writeError(w, apperr.Forbidden("only the sender may edit a message"))
		return
	}
	if msg.Type != storage.MessageText {
		writeError(w, apperr.FailedPrecondition("image messages cannot be edited"))
		return
	}

	var req editMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	content := strings.TrimSpace(req.Message)
	if content == "" {
		writeError(w, apperr.InvalidArg("message is required"))
		return
	}

	editedAt := time.Now().UTC()
	if err := a.store.UpdateMessageContent(r.Context(), msg.ID, content, editedAt); err != nil {
		writeError(w, err)
		return
	}
	msg.Content = content
	msg.EditedAt = &editedAt
	writeJSON(w, http.StatusOK, toMessageResponse(*msg))
}

func (a *App) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	msg, err := a.addressableMessage(r, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if msg.SenderID != claims.UserID {
		writeError(w, apperr.Forbidden("only the sender may delete a message"))
		return
	}

	if err := a.store.DeleteMessage(r.Context(), msg.ID); err != nil {
		writeError(w, err)
		return
	}
	if msg.Type == storage.MessageImage {
		a.removeUploadFiles(r.Context(), []string{msg.Content})
	}
	log.Printf("message deleted id=%s conversation=%s by=%s", msg.ID, msg.ConversationID, claims.Username)
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// addressableMessage loads the {id} message and confirms the requester
// participates in its conversation; anything else is not addressable.
func (a *App) addressableMessage(r *http.Request, userID string) (*storage.Message, error) {
	id := r.PathValue("id")
	msg, err := a.store.GetMessage(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("message not found")
		}
		return nil, err
	}
	ok, err := a.store.IsParticipant(r.Context(), msg.ConversationID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("message not found")
	}
	return msg, nil
}
