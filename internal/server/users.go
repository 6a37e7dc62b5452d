package server

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/sofianehd/linkup/internal/storage"
	"github.com/sofianehd/linkup/pkg/apperr"
)

type updateProfileRequest struct {
	Bio    string `json:"bio"`
	Avatar string `json:"avatar"`
}

func (a *App) handleGetMe(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	user, err := a.currentUser(r, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (a *App) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	avatar := strings.TrimSpace(req.Avatar)
	if avatar != "" && !strings.HasPrefix(avatar, "/uploads/") {
		writeError(w, apperr.InvalidArg("avatar must reference an uploaded file"))
		return
	}
	if err := a.store.UpdateUserProfile(r.Context(), claims.UserID, strings.TrimSpace(req.Bio), avatar); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, apperr.NotFound("account no longer exists"))
			return
		}
		writeError(w, err)
		return
	}
	user, err := a.currentUser(r, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (a *App) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	paths, err := a.store.DeleteUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, apperr.NotFound("account no longer exists"))
			return
		}
		writeError(w, err)
		return
	}
	a.removeUploadFiles(r.Context(), paths)
	log.Printf("account deleted id=%s user=%s files=%d", claims.UserID, claims.Username, len(paths))
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// currentUser loads the token's account. A valid token can outlive its
// account, so a missing row maps to not found rather than an internal error.
func (a *App) currentUser(r *http.Request, userID string) (*storage.User, error) {
	user, err := a.store.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("account no longer exists")
		}
		return nil, err
	}
	return user, nil
}
