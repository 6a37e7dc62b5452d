package sqlite

import (
	"context"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sofianehd/linkup/internal/config"
)

// Store is a GORM-backed SQLite implementation of storage.Store.
type Store struct {
	db *gorm.DB
}

type userModel struct {
	ID        string `gorm:"primaryKey"`
	Username  string `gorm:"uniqueIndex"`
	Email     string `gorm:"uniqueIndex"`
	Password  string
	Bio       string
	Avatar    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type conversationModel struct {
	ID        string `gorm:"primaryKey"`
	Type      string `gorm:"not null"`
	Name      string
	CreatorID string
	// PairLow/PairHigh hold the lexicographically ordered participant pair
	// for direct conversations. The partial unique index closes the race
	// where both sides create the conversation at first contact.
	PairLow   string `gorm:"index:idx_direct_pair,unique,where:type = 'direct'"`
	PairHigh  string `gorm:"index:idx_direct_pair,unique,where:type = 'direct'"`
	CreatedAt time.Time
}

type conversationParticipantModel struct {
	ConversationID string `gorm:"primaryKey"`
	UserID         string `gorm:"primaryKey;index"`
	JoinedAt       time.Time
}

type messageModel struct {
	ID             string `gorm:"primaryKey"`
	ConversationID string `gorm:"index"`
	SenderID       string `gorm:"index"`
	Content        string
	Type           string `gorm:"not null;default:text"`
	CreatedAt      time.Time `gorm:"index"`
	ReadAt         *time.Time
	EditedAt       *time.Time
}

type postModel struct {
	ID         string `gorm:"primaryKey"`
	UserID     string `gorm:"index"`
	Body       string
	Visibility string `gorm:"not null;default:public"`
	CreatedAt  time.Time `gorm:"index"`
	UpdatedAt  time.Time
}

type attachmentModel struct {
	ID        string `gorm:"primaryKey"`
	PostID    string `gorm:"index"`
	Path      string
	MimeType  string
	Size      int64
	CreatedAt time.Time
}

type commentModel struct {
	ID        string `gorm:"primaryKey"`
	PostID    string `gorm:"index"`
	UserID    string `gorm:"index"`
	Body      string
	CreatedAt time.Time
}

type postLikeModel struct {
	PostID    string `gorm:"primaryKey"`
	UserID    string `gorm:"primaryKey"`
	CreatedAt time.Time
}

type friendshipModel struct {
	ID          string `gorm:"primaryKey"`
	RequesterID string `gorm:"uniqueIndex:idx_friend_pair;index"`
	AddresseeID string `gorm:"uniqueIndex:idx_friend_pair;index"`
	Status      string `gorm:"not null;default:pending"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (userModel) TableName() string                    { return "users" }
func (conversationModel) TableName() string            { return "conversations" }
func (conversationParticipantModel) TableName() string { return "conversation_participants" }
func (messageModel) TableName() string                 { return "messages" }
func (postModel) TableName() string                    { return "posts" }
func (attachmentModel) TableName() string              { return "attachments" }
func (commentModel) TableName() string                 { return "comments" }
func (postLikeModel) TableName() string                { return "post_likes" }
func (friendshipModel) TableName() string              { return "friendships" }

// NewStore opens a SQLite database at the provided path.
func NewStore(cfg config.DatabaseConfig) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate applies schema updates.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&userModel{},
		&conversationModel{},
		&conversationParticipantModel{},
		&messageModel{},
		&postModel{},
		&attachmentModel{},
		&commentModel{},
		&postLikeModel{},
		&friendshipModel{},
	)
}
