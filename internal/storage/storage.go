package storage

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors returned by Store implementations.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Conversation types.
const (
	ConversationDirect = "direct"
	ConversationGroup  = "group"
)

// Message types.
const (
	MessageText  = "text"
	MessageImage = "image"
)

// Post visibility levels.
const (
	VisibilityPublic  = "public"
	VisibilityFriends = "friends"
	VisibilityPrivate = "private"
)

// Friendship statuses.
const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
)

// User represents a persisted account record.
type User struct {
	ID        string
	Username  string
	Email     string
	Password  string
	Bio       string
	Avatar    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Conversation is a direct (1:1) or named group messaging channel.
type Conversation struct {
	ID           string
	Type         string
	Name         string
	CreatorID    string
	CreatedAt    time.Time
	Participants []string
}

// ConversationSummary is one row of a user's conversation list.
type ConversationSummary struct {
	Conversation Conversation
	// OtherUsername is set for direct conversations only.
	OtherUsername string
	LastMessage   *Message
	UnreadCount   int64
}

// Message belongs to exactly one conversation.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	SenderUsername string
	Content        string
	Type           string
	CreatedAt      time.Time
	ReadAt         *time.Time
	EditedAt       *time.Time
}

// Post is a feed entry owned by a user.
type Post struct {
	ID             string
	UserID         string
	AuthorUsername string
	Body           string
	Visibility     string
	LikeCount      int64
	Liked          bool
	Attachments    []Attachment
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Attachment is a stored upload belonging to a post.
type Attachment struct {
	ID        string
	PostID    string
	Path      string
	MimeType  string
	Size      int64
	CreatedAt time.Time
}

// Comment belongs to a post and an authoring user.
type Comment struct {
	ID             string
	PostID         string
	UserID         string
	AuthorUsername string
	Body           string
	CreatedAt      time.Time
}

// Friendship is a directed request that becomes symmetric once accepted.
type Friendship struct {
	ID                string
	RequesterID       string
	RequesterUsername string
	AddresseeID       string
	AddresseeUsername string
	Status            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Store defines persistence operations used by the server.
type Store interface {
	Close() error
	Migrate(ctx context.Context) error

	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUserProfile(ctx context.Context, id, bio, avatar string) error
	// DeleteUser removes the account and everything it owns, returning
	// upload paths whose files should be removed best-effort.
	DeleteUser(ctx context.Context, id string) ([]string, error)

	// ResolveDirectConversation finds or creates the single 1:1 conversation
	// between two distinct users.
	ResolveDirectConversation(ctx context.Context, userA, userB string) (*Conversation, error)
	CreateGroupConversation(ctx context.Context, creatorID, name string, memberIDs []string) (*Conversation, error)
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
	ListConversations(ctx context.Context, userID string) ([]ConversationSummary, error)
	// DeleteConversation cascades to messages and returns image paths for
	// best-effort file cleanup.
	DeleteConversation(ctx context.Context, id string) ([]string, error)

	CreateMessage(ctx context.Context, msg *Message) error
	GetMessage(ctx context.Context, id string) (*Message, error)
	// ListMessages returns up to limit messages older than the before cursor
	// (all messages when before is empty), ascending, plus whether older
	// messages remain.
	ListMessages(ctx context.Context, conversationID, before string, limit int) ([]Message, bool, error)
	// MarkMessageRead sets read_at once; it reports whether this call did.
	MarkMessageRead(ctx context.Context, messageID string, readAt time.Time) (bool, error)
	MarkConversationRead(ctx context.Context, conversationID, readerID string, readAt time.Time) (int64, error)
	UpdateMessageContent(ctx context.Context, id, content string, editedAt time.Time) error
	DeleteMessage(ctx context.Context, id string) error

	CreatePost(ctx context.Context, post *Post, attachments []Attachment) error
	GetPost(ctx context.Context, id, viewerID string) (*Post, error)
	// ListFeed returns posts visible to the viewer, newest first, with the
	// total matching count for pagination.
	ListFeed(ctx context.Context, viewerID string, offset, limit int) ([]Post, int64, error)
	// DeletePost cascades to attachments and comments, returning attachment
	// paths for best-effort file cleanup.
	DeletePost(ctx context.Context, id string) ([]string, error)
	TogglePostLike(ctx context.Context, postID, userID string) (bool, int64, error)

	CreateComment(ctx context.Context, comment *Comment) error
	GetComment(ctx context.Context, id string) (*Comment, error)
	ListComments(ctx context.Context, postID string) ([]Comment, error)
	DeleteComment(ctx context.Context, id string) error

	// CountUploadReferences reports how many live rows still reference an
	// upload path. Uploads are content-addressed, so distinct rows can share
	// one file; a file may only be removed when this reaches zero.
	CountUploadReferences(ctx context.Context, path string) (int64, error)

	CreateFriendRequest(ctx context.Context, requesterID, addresseeID string) (*Friendship, error)
	GetFriendship(ctx context.Context, id string) (*Friendship, error)
	AcceptFriendship(ctx context.Context, id string) error
	DeleteFriendship(ctx context.Context, id string) error
	AreFriends(ctx context.Context, userA, userB string) (bool, error)
	ListFriends(ctx context.Context, userID string) ([]User, error)
	ListIncomingRequests(ctx context.Context, userID string) ([]Friendship, error)
}
