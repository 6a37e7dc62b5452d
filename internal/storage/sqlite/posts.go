package sqlite

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sofianehd/linkup/internal/storage"
)

// visibleTo filters posts down to what the viewer may see in the feed: own
// posts, friends' posts shared with friends or wider, and public posts from
// anyone.
const visibleTo = `
user_id = ?
OR visibility = 'public'
OR (visibility = 'friends' AND EXISTS (
	SELECT 1 FROM friendships f
	WHERE f.status = 'accepted'
	AND ((f.requester_id = ? AND f.addressee_id = posts.user_id)
	  OR (f.addressee_id = ? AND f.requester_id = posts.user_id))
))`

// CreatePost stores the post and its attachment metadata in one transaction
// so a failed attachment insert never leaves a half-created post.
func (s *Store) CreatePost(ctx context.Context, post *storage.Post, attachments []storage.Attachment) error {
	model := postModel{
		ID:         post.ID,
		UserID:     post.UserID,
		Body:       post.Body,
		Visibility: post.Visibility,
		CreatedAt:  post.CreatedAt,
		UpdatedAt:  post.UpdatedAt,
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		if len(attachments) == 0 {
			return nil
		}
		rows := make([]attachmentModel, 0, len(attachments))
		for _, att := range attachments {
			rows = append(rows, attachmentModel{
				ID:        att.ID,
				PostID:    post.ID,
				Path:      att.Path,
				MimeType:  att.MimeType,
				Size:      att.Size,
				CreatedAt: att.CreatedAt,
			})
		}
		return tx.Create(&rows).Error
	})
}

// GetPost retrieves a post with author, attachments, like count, and whether
// the viewer has liked it. Visibility is the caller's concern.
func (s *Store) GetPost(ctx context.Context, id, viewerID string) (*storage.Post, error) {
	var model postModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translate(err)
	}
	post := toPost(model)
	if err := s.hydratePost(ctx, &post, viewerID); err != nil {
		return nil, err
	}
	return &post, nil
}

// ListFeed pages through posts visible to the viewer, newest first, and
// reports the total matching count for offset pagination.
func (s *Store) ListFeed(ctx context.Context, viewerID string, offset, limit int) ([]storage.Post, int64, error) {
	base := s.db.WithContext(ctx).Model(&postModel{}).
		Where(visibleTo, viewerID, viewerID, viewerID).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []postModel
	err := base.Order("created_at DESC, rowid DESC").
		Limit(limit).Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	posts := make([]storage.Post, 0, len(models))
	for _, model := range models {
		post := toPost(model)
		if err := s.hydratePost(ctx, &post, viewerID); err != nil {
			return nil, 0, err
		}
		posts = append(posts, post)
	}
	return posts, total, nil
}

// DeletePost removes the post and everything attached to it, returning
// attachment paths for best-effort file cleanup.
func (s *Store) DeletePost(ctx context.Context, id string) ([]string, error) {
	var paths []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&postModel{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return storage.ErrNotFound
		}
		if err := tx.Model(&attachmentModel{}).Where("post_id = ?", id).Pluck("path", &paths).Error; err != nil {
			return err
		}
		for _, m := range []interface{}{&attachmentModel{}, &commentModel{}, &postLikeModel{}} {
			if err := tx.Where("post_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).Delete(&postModel{}).Error
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// TogglePostLike flips the (post, user) like edge and returns the new state
// with the aggregate count of distinct likers.
func (s *Store) TogglePostLike(ctx context.Context, postID, userID string) (bool, int64, error) {
	var liked bool
	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&postModel{}).Where("id = ?", postID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return storage.ErrNotFound
		}

		var like postLikeModel
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&like).Error
		switch {
		case err == nil:
			if err := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&postLikeModel{}).Error; err != nil {
				return err
			}
			liked = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := postLikeModel{PostID: postID, UserID: userID, CreatedAt: time.Now().UTC()}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			liked = true
		default:
			return err
		}

		return tx.Model(&postLikeModel{}).Where("post_id = ?", postID).Count(&count).Error
	})
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

func (s *Store) hydratePost(ctx context.Context, post *storage.Post, viewerID string) error {
	name, err := s.usernameOf(ctx, post.UserID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	post.AuthorUsername = name

	if err := s.db.WithContext(ctx).Model(&postLikeModel{}).
		Where("post_id = ?", post.ID).
		Count(&post.LikeCount).Error; err != nil {
		return err
	}

	var viewerLike int64
	if err := s.db.WithContext(ctx).Model(&postLikeModel{}).
		Where("post_id = ? AND user_id = ?", post.ID, viewerID).
		Count(&viewerLike).Error; err != nil {
		return err
	}
	post.Liked = viewerLike > 0

	var rows []attachmentModel
	if err := s.db.WithContext(ctx).Where("post_id = ?", post.ID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return err
	}
	post.Attachments = make([]storage.Attachment, 0, len(rows))
	for _, row := range rows {
		post.Attachments = append(post.Attachments, storage.Attachment{
			ID:        row.ID,
			PostID:    row.PostID,
			Path:      row.Path,
			MimeType:  row.MimeType,
			Size:      row.Size,
			CreatedAt: row.CreatedAt,
		})
	}
	return nil
}

func toPost(model postModel) storage.Post {
	return storage.Post{
		ID:         model.ID,
		UserID:     model.UserID,
		Body:       model.Body,
		Visibility: model.Visibility,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}
