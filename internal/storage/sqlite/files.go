package sqlite

import (
	"context"

	"github.com/sofianehd/linkup/internal/storage"
)

// CountUploadReferences totals the live rows pointing at an upload path:
// image message content, post attachments, and user avatars.
func (s *Store) CountUploadReferences(ctx context.Context, path string) (int64, error) {
	var total int64

	var n int64
	err := s.db.WithContext(ctx).Model(&messageModel{}).
		Where("type = ? AND content = ?", storage.MessageImage, path).
		Count(&n).Error
	if err != nil {
		return 0, err
	}
	total += n

	err = s.db.WithContext(ctx).Model(&attachmentModel{}).
		Where("path = ?", path).
		Count(&n).Error
	if err != nil {
		return 0, err
	}
	total += n

	err = s.db.WithContext(ctx).Model(&userModel{}).
		Where("avatar = ?", path).
		Count(&n).Error
	if err != nil {
		return 0, err
	}
	return total + n, nil
}
