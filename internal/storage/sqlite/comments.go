package sqlite

import (
	"context"

	"github.com/sofianehd/linkup/internal/storage"
)

// CreateComment stores a new comment record.
func (s *Store) CreateComment(ctx context.Context, comment *storage.Comment) error {
	model := commentModel{
		ID:        comment.ID,
		PostID:    comment.PostID,
		UserID:    comment.UserID,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

// GetComment retrieves a comment by primary key.
func (s *Store) GetComment(ctx context.Context, id string) (*storage.Comment, error) {
	var model commentModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translate(err)
	}
	comment := toComment(model)
	if name, err := s.usernameOf(ctx, model.UserID); err == nil {
		comment.AuthorUsername = name
	}
	return &comment, nil
}

// ListComments returns a post's comments oldest first.
func (s *Store) ListComments(ctx context.Context, postID string) ([]storage.Comment, error) {
	var models []commentModel
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC, rowid ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	comments := make([]storage.Comment, 0, len(models))
	for _, model := range models {
		comment := toComment(model)
		if name, err := s.usernameOf(ctx, model.UserID); err == nil {
			comment.AuthorUsername = name
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

// DeleteComment removes a single comment row.
func (s *Store) DeleteComment(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&commentModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func toComment(model commentModel) storage.Comment {
	return storage.Comment{
		ID:        model.ID,
		PostID:    model.PostID,
		UserID:    model.UserID,
		Body:      model.Body,
		CreatedAt: model.CreatedAt,
	}
}
