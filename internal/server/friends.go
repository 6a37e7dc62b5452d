package server

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/sofianehd/linkup/internal/storage"
	"github.com/sofianehd/linkup/pkg/apperr"
)

type friendRequestRequest struct {
	Username string `json:"username"`
}

func (a *App) handleFriendRequest(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	var req friendRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		writeError(w, apperr.InvalidArg("username is required"))
		return
	}
	if username == claims.Username {
		writeError(w, apperr.InvalidArg("cannot friend yourself"))
		return
	}

	addressee, err := a.store.GetUserByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, apperr.NotFound("user not found"))
			return
		}
		writeError(w, err)
		return
	}

	friendship, err := a.store.CreateFriendRequest(r.Context(), claims.UserID, addressee.ID)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, apperr.AlreadyExists("a friendship or pending request already exists"))
			return
		}
		writeError(w, err)
		return
	}
	log.Printf("friend request id=%s from=%s to=%s", friendship.ID, claims.Username, username)
	writeJSON(w, http.StatusCreated, toFriendshipResponse(*friendship))
}

func (a *App) handleAcceptFriend(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	friendship, err := a.addressableFriendship(r, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	// Only the recipient of a pending request can accept it.
	if friendship.AddresseeID != claims.UserID {
		writeError(w, apperr.Forbidden("only the addressee may accept a friend request"))
		return
	}
	if friendship.Status != storage.FriendshipPending {
		writeError(w, apperr.FailedPrecondition("friend request is not pending"))
		return
	}

	if err := a.store.AcceptFriendship(r.Context(), friendship.ID); err != nil {
		writeError(w, err)
		return
	}
	friendship.Status = storage.FriendshipAccepted
	log.Printf("friend request accepted id=%s by=%s", friendship.ID, claims.Username)
	writeJSON(w, http.StatusOK, toFriendshipResponse(*friendship))
}

// handleRemoveFriend covers decline, cancel, and unfriend: any party to the
// edge may delete it in any state.
func (a *App) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	friendship, err := a.addressableFriendship(r, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := a.store.DeleteFriendship(r.Context(), friendship.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (a *App) handleListFriends(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	friends, err := a.store.ListFriends(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	responses := make([]userResponse, 0, len(friends))
	for i := range friends {
		resp := toUserResponse(&friends[i])
		resp.Email = ""
		responses = append(responses, resp)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"friends": responses})
}

func (a *App) handleListFriendRequests(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	requests, err := a.store.ListIncomingRequests(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	responses := make([]friendshipResponse, 0, len(requests))
	for _, request := range requests {
		responses = append(responses, toFriendshipResponse(request))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"requests": responses})
}

// addressableFriendship loads the {id} edge and confirms the requester is a
// party to it; anything else is not addressable.
func (a *App) addressableFriendship(r *http.Request, userID string) (*storage.Friendship, error) {
	friendship, err := a.store.GetFriendship(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("friend request not found")
		}
		return nil, err
	}
	if friendship.RequesterID != userID && friendship.AddresseeID != userID {
		return nil, apperr.NotFound("friend request not found")
	}
	return friendship, nil
}
