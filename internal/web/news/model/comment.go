package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommentStatus moderation status
type CommentStatus string

const (
	CommentPending  CommentStatus = "pending"
	CommentApproved CommentStatus = "approved"
	CommentFlagged  CommentStatus = "flagged"
	CommentDeleted  CommentStatus = "deleted"
)

// Valid is status known
func (s CommentStatus) Valid() bool {
	switch s {
	case CommentPending, CommentApproved, CommentFlagged, CommentDeleted:
		return true
	default:
		return false
	}
}

// Comment represents a comment on an article
type Comment struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Article primitive.ObjectID `bson:"article" json:"article"`
	User    primitive.ObjectID `bson:"user" json:"user"`
	Content string             `bson:"content" json:"content"`
	// Parent references the parent comment on the same article, nil for top-level comments
	Parent    *primitive.ObjectID  `bson:"parent,omitempty" json:"parent,omitempty"`
	Status    CommentStatus        `bson:"status" json:"status"`
	LikedBy   []primitive.ObjectID `bson:"liked_by" json:"-"`
	Likes     int64                `bson:"likes" json:"likes"`
	EditedAt  *time.Time           `bson:"edited_at,omitempty" json:"editedAt,omitempty"`
	CreatedAt time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updated_at" json:"updatedAt"`

	// Not stored in database, populated at runtime when retrieving comments
	Replies []*Comment `bson:"-" json:"replies,omitempty"`
}

// Collection returns the name of the MongoDB collection for comments
func (Comment) Collection() string {
	return "comments"
}
