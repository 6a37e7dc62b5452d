package server

import (
	"time"

	"github.com/sofianehd/linkup/internal/storage"
)

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type messageResponse struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversationId"`
	SenderID       string     `json:"senderId"`
	SenderUsername string     `json:"senderUsername,omitempty"`
	Content        string     `json:"content"`
	MessageType    string     `json:"messageType"`
	CreatedAt      time.Time  `json:"createdAt"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	EditedAt       *time.Time `json:"editedAt,omitempty"`
}

type conversationResponse struct {
	ID            string           `json:"id"`
	Type          string           `json:"type"`
	Name          string           `json:"name,omitempty"`
	OtherUsername string           `json:"otherUsername,omitempty"`
	Participants  []string         `json:"participants,omitempty"`
	LastMessage   *messageResponse `json:"lastMessage,omitempty"`
	UnreadCount   int64            `json:"unreadCount"`
	CreatedAt     time.Time        `json:"createdAt"`
}

type attachmentResponse struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

type commentResponse struct {
	ID             string    `json:"id"`
	PostID         string    `json:"postId"`
	UserID         string    `json:"userId"`
	AuthorUsername string    `json:"authorUsername,omitempty"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
}

type postResponse struct {
	ID             string               `json:"id"`
	UserID         string               `json:"userId"`
	AuthorUsername string               `json:"authorUsername,omitempty"`
	Text           string               `json:"text"`
	Visibility     string               `json:"visibility"`
	Likes          int64                `json:"likes"`
	UserLiked      bool                 `json:"userLiked"`
	Attachments    []attachmentResponse `json:"attachments"`
	Comments       []commentResponse    `json:"comments,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
}

type friendshipResponse struct {
	ID                string    `json:"id"`
	RequesterID       string    `json:"requesterId"`
	RequesterUsername string    `json:"requesterUsername,omitempty"`
	AddresseeID       string    `json:"addresseeId"`
	AddresseeUsername string    `json:"addresseeUsername,omitempty"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
}

type paginationResponse struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
}

func toUserResponse(user *storage.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Bio:       user.Bio,
		Avatar:    user.Avatar,
		CreatedAt: user.CreatedAt,
	}
}

func toMessageResponse(msg storage.Message) messageResponse {
	return messageResponse{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		SenderUsername: msg.SenderUsername,
		Content:        msg.Content,
		MessageType:    msg.Type,
		CreatedAt:      msg.CreatedAt,
		ReadAt:         msg.ReadAt,
		EditedAt:       msg.EditedAt,
	}
}

func toConversationResponse(summary storage.ConversationSummary) conversationResponse {
	resp := conversationResponse{
		ID:            summary.Conversation.ID,
		Type:          summary.Conversation.Type,
		Name:          summary.Conversation.Name,
		OtherUsername: summary.OtherUsername,
		Participants:  summary.Conversation.Participants,
		UnreadCount:   summary.UnreadCount,
		CreatedAt:     summary.Conversation.CreatedAt,
	}
	if summary.LastMessage != nil {
		last := toMessageResponse(*summary.LastMessage)
		resp.LastMessage = &last
	}
	return resp
}

func toPostResponse(post *storage.Post) postResponse {
	attachments := make([]attachmentResponse, 0, len(post.Attachments))
	for _, att := range post.Attachments {
		attachments = append(attachments, attachmentResponse{
			ID:       att.ID,
			Path:     att.Path,
			MimeType: att.MimeType,
			Size:     att.Size,
		})
	}
	return postResponse{
		ID:             post.ID,
		UserID:         post.UserID,
		AuthorUsername: post.AuthorUsername,
		Text:           post.Body,
		Visibility:     post.Visibility,
		Likes:          post.LikeCount,
		UserLiked:      post.Liked,
		Attachments:    attachments,
		CreatedAt:      post.CreatedAt,
	}
}

func toCommentResponse(comment storage.Comment) commentResponse {
	return commentResponse{
		ID:             comment.ID,
		PostID:         comment.PostID,
		UserID:         comment.UserID,
		AuthorUsername: comment.AuthorUsername,
		Text:           comment.Body,
		CreatedAt:      comment.CreatedAt,
	}
}

func toFriendshipResponse(friendship storage.Friendship) friendshipResponse {
	return friendshipResponse{
		ID:                friendship.ID,
		RequesterID:       friendship.RequesterID,
		RequesterUsername: friendship.RequesterUsername,
		AddresseeID:       friendship.AddresseeID,
		AddresseeUsername: friendship.AddresseeUsername,
		Status:            friendship.Status,
		CreatedAt:         friendship.CreatedAt,
	}
}
