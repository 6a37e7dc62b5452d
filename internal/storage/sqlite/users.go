package sqlite

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sofianehd/linkup/internal/storage"
)

// CreateUser stores a new user record.
func (s *Store) CreateUser(ctx context.Context, user *storage.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	model := userModel{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Password:  user.Password,
		Bio:       user.Bio,
		Avatar:    user.Avatar,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

// GetUserByID retrieves a user by primary key.
func (s *Store) GetUserByID(ctx context.Context, id string) (*storage.User, error) {
	var model userModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return toUser(model), nil
}

// GetUserByUsername retrieves a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*storage.User, error) {
	var model userModel
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return toUser(model), nil
}

// GetUserByEmail retrieves a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	var model userModel
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return toUser(model), nil
}

// UpdateUserProfile replaces the mutable profile fields.
func (s *Store) UpdateUserProfile(ctx context.Context, id, bio, avatar string) error {
	result := s.db.WithContext(ctx).Model(&userModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"bio": bio, "avatar": avatar})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteUser removes the account and everything it owns: posts with their
// attachments, comments and likes, comments and likes the user left on other
// posts, friendships, direct conversations the user participates in, and the
// user's messages in group conversations. The returned paths cover the
// account's avatar alongside message images and post attachments.
func (s *Store) DeleteUser(ctx context.Context, id string) ([]string, error) {
	var paths []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user userModel
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			return translate(err)
		}
		if user.Avatar != "" {
			paths = append(paths, user.Avatar)
		}

		// Owned posts cascade.
		var postIDs []string
		if err := tx.Model(&postModel{}).Where("user_id = ?", id).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			var attPaths []string
			if err := tx.Model(&attachmentModel{}).Where("post_id IN ?", postIDs).Pluck("path", &attPaths).Error; err != nil {
				return err
			}
			paths = append(paths, attPaths...)
			for _, m := range []interface{}{&attachmentModel{}, &commentModel{}, &postLikeModel{}} {
				if err := tx.Where("post_id IN ?", postIDs).Delete(m).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("id IN ?", postIDs).Delete(&postModel{}).Error; err != nil {
				return err
			}
		}

		// Activity on other users' posts.
		if err := tx.Where("user_id = ?", id).Delete(&commentModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&postLikeModel{}).Error; err != nil {
			return err
		}

		if err := tx.Where("requester_id = ? OR addressee_id = ?", id, id).Delete(&friendshipModel{}).Error; err != nil {
			return err
		}

		// Direct conversations go away entirely; group membership is dropped
		// but the group and other members' history survive.
		var directIDs []string
		if err := tx.Model(&conversationModel{}).
			Where("type = ? AND (pair_low = ? OR pair_high = ?)", storage.ConversationDirect, id, id).
			Pluck("id", &directIDs).Error; err != nil {
			return err
		}
		if len(directIDs) > 0 {
			var imgPaths []string
			if err := tx.Model(&messageModel{}).
				Where("conversation_id IN ? AND type = ?", directIDs, storage.MessageImage).
				Pluck("content", &imgPaths).Error; err != nil {
				return err
			}
			paths = append(paths, imgPaths...)
			if err := tx.Where("conversation_id IN ?", directIDs).Delete(&messageModel{}).Error; err != nil {
				return err
			}
			if err := tx.Where("conversation_id IN ?", directIDs).Delete(&conversationParticipantModel{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", directIDs).Delete(&conversationModel{}).Error; err != nil {
				return err
			}
		}

		var groupImgPaths []string
		if err := tx.Model(&messageModel{}).
			Where("sender_id = ? AND type = ?", id, storage.MessageImage).
			Pluck("content", &groupImgPaths).Error; err != nil {
			return err
		}
		paths = append(paths, groupImgPaths...)
		if err := tx.Where("sender_id = ?", id).Delete(&messageModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&conversationParticipantModel{}).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", id).Delete(&userModel{}).Error
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func toUser(model userModel) *storage.User {
	return &storage.User{
		ID:        model.ID,
		Username:  model.Username,
		Email:     model.Email,
		Password:  model.Password,
		Bio:       model.Bio,
		Avatar:    model.Avatar,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	return err
}
