package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sofianehd/linkup/internal/auth"
	"github.com/sofianehd/linkup/internal/storage"
	"github.com/sofianehd/linkup/pkg/apperr"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expiresAt"`
	User      userResponse `json:"user"`
}

func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := a.createUser(r.Context(), req)
	if err != nil {
		log.Printf("register failed user=%s remote=%s err=%v", req.Username, r.RemoteAddr, err)
		writeError(w, err)
		return
	}
	log.Printf("register success user=%s id=%s remote=%s", user.Username, user.ID, r.RemoteAddr)
	a.issueToken(w, user)
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := a.authenticateUser(r.Context(), req)
	if err != nil {
		log.Printf("login failed user=%s remote=%s err=%v", req.Username, r.RemoteAddr, err)
		writeError(w, err)
		return
	}
	log.Printf("login success user=%s id=%s remote=%s", user.Username, user.ID, r.RemoteAddr)
	a.issueToken(w, user)
}

func (a *App) issueToken(w http.ResponseWriter, user *storage.User) {
	expiresAt := time.Now().Add(a.cfg.JWT.Expiration)
	token, err := auth.NewToken(a.cfg.JWT, user.ID, user.Username)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.CodeInternal, "token generation failed", err))
		return
	}
	writeJSON(w, http.StatusOK, authResponse{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
		User:      toUserResponse(user),
	})
}

func (a *App) createUser(ctx context.Context, req registerRequest) (*storage.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return nil, apperr.InvalidArg("username, email, and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.InvalidArg("invalid email address")
	}

	if _, err := a.store.GetUserByUsername(ctx, username); err == nil {
		return nil, apperr.AlreadyExists("username already exists")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if _, err := a.store.GetUserByEmail(ctx, email); err == nil {
		return nil, apperr.AlreadyExists("email already exists")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &storage.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		Password:  hashed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (a *App) authenticateUser(ctx context.Context, req loginRequest) (*storage.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, apperr.Unauthorized("invalid credentials")
	}

	user, err := a.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.Unauthorized("invalid credentials")
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.Password, req.Password); err != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	return user, nil
}
