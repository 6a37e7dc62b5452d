package sqlite

import (
	"context"
	"time"

	"github.com/sofianehd/linkup/internal/storage"
)

// CreateMessage stores a new message record.
func (s *Store) CreateMessage(ctx context.Context, msg *storage.Message) error {
	model := messageModel{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		Type:           msg.Type,
		CreatedAt:      msg.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

// GetMessage retrieves a message with its sender's username.
func (s *Store) GetMessage(ctx context.Context, id string) (*storage.Message, error) {
	var model messageModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translate(err)
	}
	msgs := []storage.Message{toMessage(model)}
	if err := s.fillSenderNames(ctx, msgs); err != nil {
		return nil, err
	}
	return &msgs[0], nil
}

// ListMessages returns up to limit messages, ascending. With a before cursor
// it returns the page of messages strictly older than the cursor message;
// hasMore reports whether older messages remain beyond the returned page.
func (s *Store) ListMessages(ctx context.Context, conversationID, before string, limit int) ([]storage.Message, bool, error) {
	query := s.db.WithContext(ctx).Model(&messageModel{}).
		Where("conversation_id = ?", conversationID)

	if before != "" {
		var cursor struct {
			CreatedAt time.Time
			Rowid     int64
		}
		err := s.db.WithContext(ctx).Model(&messageModel{}).
			Select("created_at, rowid").
			Where("id = ? AND conversation_id = ?", before, conversationID).
			Take(&cursor).Error
		if err != nil {
			return nil, false, translate(err)
		}
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND rowid < ?))",
			cursor.CreatedAt, cursor.CreatedAt, cursor.Rowid,
		)
	}

	var models []messageModel
	if limit > 0 {
		// One extra row decides hasMore.
		if err := query.Order("created_at DESC, rowid DESC").Limit(limit + 1).Find(&models).Error; err != nil {
			return nil, false, err
		}
	} else {
		if err := query.Order("created_at DESC, rowid DESC").Find(&models).Error; err != nil {
			return nil, false, err
		}
	}

	hasMore := false
	if limit > 0 && len(models) > limit {
		hasMore = true
		models = models[:limit]
	}

	// Newest-first fetch order becomes ascending page order.
	messages := make([]storage.Message, 0, len(models))
	for i := len(models) - 1; i >= 0; i-- {
		messages = append(messages, toMessage(models[i]))
	}
	if err := s.fillSenderNames(ctx, messages); err != nil {
		return nil, false, err
	}
	return messages, hasMore, nil
}

// MarkMessageRead sets read_at if it is currently null. The boolean reports
// whether this call performed the transition, making repeat calls no-ops.
func (s *Store) MarkMessageRead(ctx context.Context, messageID string, readAt time.Time) (bool, error) {
	result := s.db.WithContext(ctx).Model(&messageModel{}).
		Where("id = ? AND read_at IS NULL", messageID).
		Update("read_at", readAt)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkConversationRead marks every unread message from other senders in one
// statement; each row still transitions read_at at most once.
func (s *Store) MarkConversationRead(ctx context.Context, conversationID, readerID string, readAt time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Model(&messageModel{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conversationID, readerID).
		Update("read_at", readAt)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpdateMessageContent replaces the content and stamps edited_at.
func (s *Store) UpdateMessageContent(ctx context.Context, id, content string, editedAt time.Time) error {
	result := s.db.WithContext(ctx).Model(&messageModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"content": content, "edited_at": editedAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteMessage removes a single message row.
func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&messageModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) fillSenderNames(ctx context.Context, messages []storage.Message) error {
	if len(messages) == 0 {
		return nil
	}
	idSet := make(map[string]struct{}, len(messages))
	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		if _, ok := idSet[msg.SenderID]; ok {
			continue
		}
		idSet[msg.SenderID] = struct{}{}
		ids = append(ids, msg.SenderID)
	}
	var rows []userModel
	if err := s.db.WithContext(ctx).Select("id, username").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return err
	}
	names := make(map[string]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.Username
	}
	for i := range messages {
		messages[i].SenderUsername = names[messages[i].SenderID]
	}
	return nil
}

func (s *Store) usernameOf(ctx context.Context, userID string) (string, error) {
	var row userModel
	err := s.db.WithContext(ctx).Select("username").Where("id = ?", userID).Take(&row).Error
	if err != nil {
		return "", translate(err)
	}
	return row.Username, nil
}

func toMessage(model messageModel) storage.Message {
	return storage.Message{
		ID:             model.ID,
		ConversationID: model.ConversationID,
		SenderID:       model.SenderID,
		Content:        model.Content,
		Type:           model.Type,
		CreatedAt:      model.CreatedAt,
		ReadAt:         model.ReadAt,
		EditedAt:       model.EditedAt,
	}
}
