package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sofianehd/linkup/internal/storage"
	"github.com/sofianehd/linkup/pkg/apperr"
)

const feedPageLimit = 10

type createPostRequest struct {
	Text       string `json:"text"`
	Visibility string `json:"visibility"`
}

func (a *App) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var text, visibility string
	var attachments []storage.Attachment

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, 4*a.cfg.Uploads.MaxBytes+(1<<20))
		if err := r.ParseMultipartForm(a.cfg.Uploads.MaxBytes); err != nil {
			writeError(w, apperr.InvalidArg("malformed multipart form"))
			return
		}
		text = r.FormValue("text")
		visibility = r.FormValue("visibility")
		if r.MultipartForm != nil {
			for _, header := range r.MultipartForm.File["attachments"] {
				file, err := header.Open()
				if err != nil {
					log.Printf("open attachment %s: %v", header.Filename, err)
					continue
				}
				path, mimeType, size, err := a.saveUpload(file)
				file.Close()
				if err != nil {
					// One bad attachment never sinks the post.
					log.Printf("skip attachment %s: %v", header.Filename, err)
					continue
				}
				attachments = append(attachments, storage.Attachment{
					ID:        uuid.NewString(),
					Path:      path,
					MimeType:  mimeType,
					Size:      size,
					CreatedAt: time.Now().UTC(),
				})
			}
		}
	} else {
		var req createPostRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		text = req.Text
		visibility = req.Visibility
	}

	text = strings.TrimSpace(text)
	if text == "" && len(attachments) == 0 {
		writeError(w, apperr.InvalidArg("post text or attachments are required"))
		return
	}

	normalized, err := normalizeVisibility(visibility)
	if err != nil {
		writeError(w, err)
		return
	}

	now := time.Now().UTC()
	post := &storage.Post{
		ID:         uuid.NewString(),
		UserID:     claims.UserID,
		Body:       text,
		Visibility: normalized,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := a.store.CreatePost(r.Context(), post, attachments); err != nil {
		writeError(w, err)
		return
	}

	created, err := a.store.GetPost(r.Context(), post.ID, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("post created id=%s user=%s visibility=%s attachments=%d", post.ID, claims.Username, normalized, len(attachments))
	writeJSON(w, http.StatusCreated, toPostResponse(created))
}

func (a *App) handleFeed(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, apperr.InvalidArg("page must be a positive integer"))
			return
		}
		page = parsed
	}

	posts, total, err := a.store.ListFeed(r.Context(), claims.UserID, (page-1)*feedPageLimit, feedPageLimit)
	if err != nil {
		writeError(w, err)
		return
	}

	totalPages := int((total + feedPageLimit - 1) / feedPageLimit)
	responses := make([]postResponse, 0, len(posts))
	for i := range posts {
		responses = append(responses, toPostResponse(&posts[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"posts": responses,
		"pagination": paginationResponse{
			Page:       page,
			Limit:      feedPageLimit,
			Total:      total,
			TotalPages: totalPages,
			HasMore:    page < totalPages,
		},
	})
}

func (a *App) handleGetPost(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	post, err := a.viewablePost(r.Context(), r.PathValue("id"), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	comments, err := a.store.ListComments(r.Context(), post.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := toPostResponse(post)
	resp.Comments = make([]commentResponse, 0, len(comments))
	for _, comment := range comments {
		resp.Comments = append(resp.Comments, toCommentResponse(comment))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *App) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	post, err := a.viewablePost(r.Context(), r.PathValue("id"), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if post.UserID != claims.UserID {
		writeError(w, apperr.Forbidden("only the owner may delete a post"))
		return
	}

	paths, err := a.store.DeletePost(r.Context(), post.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	a.removeUploadFiles(r.Context(), paths)
	log.Printf("post deleted id=%s by=%s files=%d", post.ID, claims.Username, len(paths))
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (a *App) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	post, err := a.viewablePost(r.Context(), r.PathValue("id"), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	liked, count, err := a.store.TogglePostLike(r.Context(), post.ID, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"liked": liked,
		"likes": count,
	})
}

// viewablePost loads the {id} post and applies the visibility rule: public
// is open to any authenticated viewer, friends requires an accepted edge in
// either direction, private is owner-only.
func (a *App) viewablePost(ctx context.Context, id, viewerID string) (*storage.Post, error) {
	post, err := a.store.GetPost(ctx, id, viewerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("post not found")
		}
		return nil, err
	}
	ok, err := a.canViewPost(ctx, viewerID, post)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Forbidden("you cannot view this post")
	}
	return post, nil
}

func (a *App) canViewPost(ctx context.Context, viewerID string, post *storage.Post) (bool, error) {
	if post.UserID == viewerID {
		return true, nil
	}
	switch post.Visibility {
	case storage.VisibilityPublic:
		return true, nil
	case storage.VisibilityFriends:
		return a.store.AreFriends(ctx, viewerID, post.UserID)
	default:
		return false, nil
	}
}

func normalizeVisibility(visibility string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(visibility)) {
	case "", storage.VisibilityPublic, "everyone":
		return storage.VisibilityPublic, nil
	case storage.VisibilityFriends:
		return storage.VisibilityFriends, nil
	case storage.VisibilityPrivate:
		return storage.VisibilityPrivate, nil
	default:
		return "", apperr.InvalidArg("visibility must be public, friends, or private")
	}
}
