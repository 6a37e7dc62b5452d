package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sofianehd/linkup/internal/auth"
	"github.com/sofianehd/linkup/internal/storage"
	"github.com/sofianehd/linkup/pkg/apperr"
)

type startConversationRequest struct {
	Username string `json:"username"`
}

type createGroupRequest struct {
	Name      string   `json:"name"`
	Usernames []string `json:"usernames"`
}

type sendMessageRequest struct {
	RecipientUsername string `json:"recipientUsername"`
	ConversationID    string `json:"conversationId"`
	Message           string `json:"message"`
	MessageType       string `json:"messageType"`
}

func (a *App) handleListConversations(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	summaries, err := a.store.ListConversations(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	responses := make([]conversationResponse, 0, len(summaries))
	for _, summary := range summaries {
		responses = append(responses, toConversationResponse(summary))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"conversations": responses})
}

func (a *App) handleStartConversation(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	var req startConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	conv, err := a.resolveDirectByUsername(r.Context(), claims, strings.TrimSpace(req.Username))
	if err != nil {
		writeError(w, err)
		return
	}
	summary := storage.ConversationSummary{Conversation: *conv, OtherUsername: strings.TrimSpace(req.Username)}
	writeJSON(w, http.StatusOK, toConversationResponse(summary))
}

func (a *App) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, apperr.InvalidArg("group name is required"))
		return
	}

	memberIDs := make([]string, 0, len(req.Usernames))
	for _, username := range req.Usernames {
		username = strings.TrimSpace(username)
		if username == "" || username == claims.Username {
			continue
		}
		user, err := a.store.GetUserByUsername(r.Context(), username)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, apperr.NotFound("user not found: "+username))
				return
			}
			writeError(w, err)
			return
		}
		memberIDs = append(memberIDs, user.ID)
	}
	if len(memberIDs) == 0 {
		writeError(w, apperr.InvalidArg("a group needs at least one other member"))
		return
	}

	conv, err := a.store.CreateGroupConversation(r.Context(), claims.UserID, name, memberIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("group created id=%s name=%q creator=%s members=%d", conv.ID, name, claims.Username, len(conv.Participants))
	writeJSON(w, http.StatusOK, toConversationResponse(storage.ConversationSummary{Conversation: *conv}))
}

func (a *App) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	messageType := strings.TrimSpace(req.MessageType)
	if messageType == "" {
		messageType = storage.MessageText
	}
	content := req.Message
	switch messageType {
	case storage.MessageText:
		content = strings.TrimSpace(content)
		if content == "" {
			writeError(w, apperr.InvalidArg("message is required"))
			return
		}
	case storage.MessageImage:
		// Image sends reference a path produced by the upload endpoint.
		if !strings.HasPrefix(content, "/uploads/") {
			writeError(w, apperr.InvalidArg("image messages must reference an uploaded file"))
			return
		}
	default:
		writeError(w, apperr.InvalidArg("messageType must be text or image"))
		return
	}

	msg, err := a.deliverMessage(r.Context(), claims, req.ConversationID, strings.TrimSpace(req.RecipientUsername), content, messageType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMessageResponse(*msg))
}

func (a *App) handleSendImage(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, a.cfg.Uploads.MaxBytes+(1<<20))
	if err := r.ParseMultipartForm(a.cfg.Uploads.MaxBytes); err != nil {
		writeError(w, apperr.InvalidArg("malformed multipart form"))
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, apperr.InvalidArg("image file is required"))
		return
	}
	defer file.Close()

	path, _, size, err := a.saveUpload(file)
	if err != nil {
		writeError(w, err)
		return
	}

	recipient := strings.TrimSpace(r.FormValue("recipientUsername"))
	conversationID := strings.TrimSpace(r.FormValue("conversationId"))
	msg, err := a.deliverMessage(r.Context(), claims, conversationID, recipient, path, storage.MessageImage)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("image message id=%s conversation=%s sender=%s size=%dB", msg.ID, msg.ConversationID, claims.Username, size)
	writeJSON(w, http.StatusCreated, toMessageResponse(*msg))
}

func (a *App) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	conversationID := r.PathValue("id")

	if err := a.requireParticipant(r.Context(), conversationID, claims.UserID); err != nil {
		writeError(w, err)
		return
	}

	paths, err := a.store.DeleteConversation(r.Context(), conversationID)
	if err != nil {
		writeError(w, err)
		return
	}
	a.removeUploadFiles(r.Context(), paths)
	log.Printf("conversation deleted id=%s by=%s files=%d", conversationID, claims.Username, len(paths))
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (a *App) handleMarkConversationRead(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	conversationID := r.PathValue("id")

	if err := a.requireParticipant(r.Context(), conversationID, claims.UserID); err != nil {
		writeError(w, err)
		return
	}

	marked, err := a.store.MarkConversationRead(r.Context(), conversationID, claims.UserID, time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"marked": marked})
}

// deliverMessage resolves the target conversation, re-verifies sender
// membership, and persists the message with a server-assigned timestamp.
func (a *App) deliverMessage(ctx context.Context, claims *auth.Claims, conversationID, recipientUsername, content, messageType string) (*storage.Message, error) {
	var conv *storage.Conversation
	var err error
	switch {
	case conversationID != "":
		conv, err = a.store.GetConversation(ctx, conversationID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, apperr.NotFound("conversation not found")
			}
			return nil, err
		}
	case recipientUsername != "":
		conv, err = a.resolveDirectByUsername(ctx, claims, recipientUsername)
		if err != nil {
			return nil, err
		}
	default:
		return nil, apperr.InvalidArg("recipientUsername or conversationId is required")
	}

	// Membership is checked on every send path, including the resolver one.
	if err := a.requireParticipant(ctx, conv.ID, claims.UserID); err != nil {
		return nil, err
	}

	msg := &storage.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderID:       claims.UserID,
		SenderUsername: claims.Username,
		Content:        content,
		Type:           messageType,
		CreatedAt:      time.Now().UTC(),
	}
	if err := a.store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (a *App) resolveDirectByUsername(ctx context.Context, claims *auth.Claims, username string) (*storage.Conversation, error) {
	if username == "" {
		return nil, apperr.InvalidArg("username is required")
	}
	if username == claims.Username {
		return nil, apperr.InvalidArg("cannot message yourself")
	}
	other, err := a.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	if other.ID == claims.UserID {
		return nil, apperr.InvalidArg("cannot message yourself")
	}
	return a.store.ResolveDirectConversation(ctx, claims.UserID, other.ID)
}

// requireParticipant returns a permission error unless the user belongs to
// the conversation.
func (a *App) requireParticipant(ctx context.Context, conversationID, userID string) error {
	if conversationID == "" {
		return apperr.InvalidArg("conversation id is required")
	}
	ok, err := a.store.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		if _, err := a.store.GetConversation(ctx, conversationID); errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound("conversation not found")
		}
		return apperr.Forbidden("not a participant of this conversation")
	}
	return nil
}
