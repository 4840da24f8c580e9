package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EngagementType kind of engagement
type EngagementType string

const (
	EngagementView     EngagementType = "view"
	EngagementLike     EngagementType = "like"
	EngagementDislike  EngagementType = "dislike"
	EngagementShare    EngagementType = "share"
	EngagementBookmark EngagementType = "bookmark"
)

// Exclusive is there at most one document per actor, article and type
func (t EngagementType) Exclusive() bool {
	switch t {
	case EngagementLike, EngagementDislike, EngagementBookmark:
		return true
	default:
		return false
	}
}

// CounterField article engagement counter moved by t
func (t EngagementType) CounterField() string {
	switch t {
	case EngagementView:
		return "engagement.views"
	case EngagementLike:
		return "engagement.likes"
	case EngagementDislike:
		return "engagement.dislikes"
	case EngagementShare:
		return "engagement.shares"
	case EngagementBookmark:
		return "engagement.bookmarks"
	default:
		return ""
	}
}

// Opposite reaction cleared when t is set
func (t EngagementType) Opposite() EngagementType {
	switch t {
	case EngagementLike:
		return EngagementDislike
	case EngagementDislike:
		return EngagementLike
	default:
		return ""
	}
}

// ActorKind who engaged
type ActorKind string

const (
	ActorUser    ActorKind = "user"
	ActorSession ActorKind = "session"
)

// Actor identity of the engaging client, user wins over session
type Actor struct {
	UserID    *primitive.ObjectID
	SessionID string
	IP        string
}

// Kind actor kind, empty when there is neither user nor session
func (a Actor) Kind() ActorKind {
	switch {
	case a.UserID != nil:
		return ActorUser
	case a.SessionID != "":
		return ActorSession
	default:
		return ""
	}
}

// Engagement one engagement record
type Engagement struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Article   primitive.ObjectID  `bson:"article" json:"article"`
	Type      EngagementType      `bson:"type" json:"type"`
	ActorKind ActorKind           `bson:"actor_kind" json:"actorKind"`
	User      *primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty"`
	SessionID string              `bson:"session_id,omitempty" json:"sessionId,omitempty"`
	IP        string              `bson:"ip,omitempty" json:"-"`
	// Exclusive selects the document into the partial unique indexes
	Exclusive bool      `bson:"exclusive" json:"-"`
	Platform  string    `bson:"platform,omitempty" json:"platform,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// Collection returns the name of the MongoDB collection for engagements
func (Engagement) Collection() string {
	return "engagements"
}
