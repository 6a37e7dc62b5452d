package sqlite

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sofianehd/linkup/internal/storage"
)

// ResolveDirectConversation finds the 1:1 conversation for the pair, creating
// it on first contact. Both orderings resolve to the same row because the
// pair is normalized before lookup and insert; a concurrent first contact
// from the other side loses on the unique pair index and fetches the winner.
func (s *Store) ResolveDirectConversation(ctx context.Context, userA, userB string) (*storage.Conversation, error) {
	low, high := normalizePair(userA, userB)

	if conv, err := s.findDirectByPair(ctx, low, high); err == nil {
		return conv, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	model := conversationModel{
		ID:        uuid.NewString(),
		Type:      storage.ConversationDirect,
		PairLow:   low,
		PairHigh:  high,
		CreatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		members := []conversationParticipantModel{
			{ConversationID: model.ID, UserID: low, JoinedAt: now},
			{ConversationID: model.ID, UserID: high, JoinedAt: now},
		}
		return tx.Create(&members).Error
	})
	if err != nil {
		// Lost the insert race: the other side's row is the canonical one.
		if conv, fetchErr := s.findDirectByPair(ctx, low, high); fetchErr == nil {
			return conv, nil
		}
		return nil, err
	}

	return &storage.Conversation{
		ID:           model.ID,
		Type:         model.Type,
		CreatedAt:    model.CreatedAt,
		Participants: []string{low, high},
	}, nil
}

// CreateGroupConversation creates a named group with the creator plus the
// provided members. Duplicate member IDs collapse to one participant row.
func (s *Store) CreateGroupConversation(ctx context.Context, creatorID, name string, memberIDs []string) (*storage.Conversation, error) {
	now := time.Now().UTC()
	model := conversationModel{
		ID:        uuid.NewString(),
		Type:      storage.ConversationGroup,
		Name:      name,
		CreatorID: creatorID,
		CreatedAt: now,
	}

	seen := map[string]struct{}{creatorID: {}}
	members := []string{creatorID}
	for _, id := range memberIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		rows := make([]conversationParticipantModel, 0, len(members))
		for _, id := range members {
			rows = append(rows, conversationParticipantModel{ConversationID: model.ID, UserID: id, JoinedAt: now})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	return &storage.Conversation{
		ID:           model.ID,
		Type:         model.Type,
		Name:         model.Name,
		CreatorID:    model.CreatorID,
		CreatedAt:    model.CreatedAt,
		Participants: members,
	}, nil
}

// GetConversation retrieves a conversation with its participant IDs.
func (s *Store) GetConversation(ctx context.Context, id string) (*storage.Conversation, error) {
	var model conversationModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translate(err)
	}
	participants, err := s.participantIDs(ctx, model.ID)
	if err != nil {
		return nil, err
	}
	return toConversation(model, participants), nil
}

// IsParticipant reports whether the user belongs to the conversation.
func (s *Store) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&conversationParticipantModel{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListConversations returns the user's conversations with last-message
// preview and unread count, most recently active first.
func (s *Store) ListConversations(ctx context.Context, userID string) ([]storage.ConversationSummary, error) {
	var convIDs []string
	err := s.db.WithContext(ctx).Model(&conversationParticipantModel{}).
		Where("user_id = ?", userID).
		Pluck("conversation_id", &convIDs).Error
	if err != nil {
		return nil, err
	}
	if len(convIDs) == 0 {
		return []storage.ConversationSummary{}, nil
	}

	var models []conversationModel
	if err := s.db.WithContext(ctx).Where("id IN ?", convIDs).Find(&models).Error; err != nil {
		return nil, err
	}

	summaries := make([]storage.ConversationSummary, 0, len(models))
	for _, model := range models {
		participants, err := s.participantIDs(ctx, model.ID)
		if err != nil {
			return nil, err
		}
		summary := storage.ConversationSummary{Conversation: *toConversation(model, participants)}

		if model.Type == storage.ConversationDirect {
			other := model.PairLow
			if other == userID {
				other = model.PairHigh
			}
			name, err := s.usernameOf(ctx, other)
			if err != nil {
				return nil, err
			}
			summary.OtherUsername = name
		}

		var last messageModel
		err = s.db.WithContext(ctx).
			Where("conversation_id = ?", model.ID).
			Order("created_at DESC, rowid DESC").
			First(&last).Error
		if err == nil {
			msg := toMessage(last)
			summary.LastMessage = &msg
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		if err := s.db.WithContext(ctx).Model(&messageModel{}).
			Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", model.ID, userID).
			Count(&summary.UnreadCount).Error; err != nil {
			return nil, err
		}

		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return lastActivity(summaries[i]).After(lastActivity(summaries[j]))
	})
	return summaries, nil
}

// DeleteConversation removes the conversation, its participants, and its
// messages, returning image paths for best-effort file cleanup.
func (s *Store) DeleteConversation(ctx context.Context, id string) ([]string, error) {
	var paths []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&conversationModel{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return storage.ErrNotFound
		}
		if err := tx.Model(&messageModel{}).
			Where("conversation_id = ? AND type = ?", id, storage.MessageImage).
			Pluck("content", &paths).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", id).Delete(&messageModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", id).Delete(&conversationParticipantModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&conversationModel{}).Error
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func (s *Store) findDirectByPair(ctx context.Context, low, high string) (*storage.Conversation, error) {
	var model conversationModel
	err := s.db.WithContext(ctx).
		Where("type = ? AND pair_low = ? AND pair_high = ?", storage.ConversationDirect, low, high).
		First(&model).Error
	if err != nil {
		return nil, translate(err)
	}
	participants, err := s.participantIDs(ctx, model.ID)
	if err != nil {
		return nil, err
	}
	return toConversation(model, participants), nil
}

func (s *Store) participantIDs(ctx context.Context, conversationID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&conversationParticipantModel{}).
		Where("conversation_id = ?", conversationID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func toConversation(model conversationModel, participants []string) *storage.Conversation {
	return &storage.Conversation{
		ID:           model.ID,
		Type:         model.Type,
		Name:         model.Name,
		CreatorID:    model.CreatorID,
		CreatedAt:    model.CreatedAt,
		Participants: participants,
	}
}

func lastActivity(summary storage.ConversationSummary) time.Time {
	if summary.LastMessage != nil {
		return summary.LastMessage.CreatedAt
	}
	return summary.Conversation.CreatedAt
}

func normalizePair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}
