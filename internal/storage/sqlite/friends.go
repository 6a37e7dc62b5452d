package sqlite

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sofianehd/linkup/internal/storage"
)

// CreateFriendRequest inserts a pending edge unless one already exists in
// either direction.
func (s *Store) CreateFriendRequest(ctx context.Context, requesterID, addresseeID string) (*storage.Friendship, error) {
	var model friendshipModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&friendshipModel{}).
			Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)",
				requesterID, addresseeID, addresseeID, requesterID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return storage.ErrDuplicate
		}
		now := time.Now().UTC()
		model = friendshipModel{
			ID:          uuid.NewString(),
			RequesterID: requesterID,
			AddresseeID: addresseeID,
			Status:      storage.FriendshipPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return tx.Create(&model).Error
	})
	if err != nil {
		return nil, err
	}
	friendship := toFriendship(model)
	s.fillFriendshipNames(ctx, &friendship)
	return &friendship, nil
}

// GetFriendship retrieves an edge by primary key.
func (s *Store) GetFriendship(ctx context.Context, id string) (*storage.Friendship, error) {
	var model friendshipModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translate(err)
	}
	friendship := toFriendship(model)
	s.fillFriendshipNames(ctx, &friendship)
	return &friendship, nil
}

// AcceptFriendship flips a pending edge to accepted.
func (s *Store) AcceptFriendship(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Model(&friendshipModel{}).
		Where("id = ? AND status = ?", id, storage.FriendshipPending).
		Updates(map[string]interface{}{"status": storage.FriendshipAccepted, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteFriendship removes the edge, covering decline, cancel, and unfriend.
func (s *Store) DeleteFriendship(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&friendshipModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AreFriends reports whether an accepted edge exists in either direction.
func (s *Store) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&friendshipModel{}).
		Where("status = ? AND ((requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?))",
			storage.FriendshipAccepted, userA, userB, userB, userA).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListFriends returns the users on the far side of accepted edges.
func (s *Store) ListFriends(ctx context.Context, userID string) ([]storage.User, error) {
	var models []friendshipModel
	err := s.db.WithContext(ctx).
		Where("status = ? AND (requester_id = ? OR addressee_id = ?)", storage.FriendshipAccepted, userID, userID).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	friends := make([]storage.User, 0, len(models))
	for _, model := range models {
		otherID := model.RequesterID
		if otherID == userID {
			otherID = model.AddresseeID
		}
		user, err := s.GetUserByID(ctx, otherID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, err
		}
		friends = append(friends, *user)
	}
	return friends, nil
}

// ListIncomingRequests returns pending edges addressed to the user.
func (s *Store) ListIncomingRequests(ctx context.Context, userID string) ([]storage.Friendship, error) {
	var models []friendshipModel
	err := s.db.WithContext(ctx).
		Where("status = ? AND addressee_id = ?", storage.FriendshipPending, userID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	requests := make([]storage.Friendship, 0, len(models))
	for _, model := range models {
		friendship := toFriendship(model)
		s.fillFriendshipNames(ctx, &friendship)
		requests = append(requests, friendship)
	}
	return requests, nil
}

func (s *Store) fillFriendshipNames(ctx context.Context, friendship *storage.Friendship) {
	if name, err := s.usernameOf(ctx, friendship.RequesterID); err == nil {
		friendship.RequesterUsername = name
	}
	if name, err := s.usernameOf(ctx, friendship.AddresseeID); err == nil {
		friendship.AddresseeUsername = name
	}
}

func toFriendship(model friendshipModel) storage.Friendship {
	return storage.Friendship{
		ID:          model.ID,
		RequesterID: model.RequesterID,
		AddresseeID: model.AddresseeID,
		Status:      model.Status,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}
