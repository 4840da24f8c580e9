package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/multilingual-news/internal/library/i18n"
)

// ArticleStatus workflow status of an article
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPending   ArticleStatus = "pending"
	ArticleStatusPublished ArticleStatus = "published"
	ArticleStatusArchived  ArticleStatus = "archived"
)

// Valid is status known
func (s ArticleStatus) Valid() bool {
	switch s {
	case ArticleStatusDraft, ArticleStatusPending, ArticleStatusPublished, ArticleStatusArchived:
		return true
	default:
		return false
	}
}

// ContentFormat how Content is written
type ContentFormat string

const (
	ContentFormatHTML     ContentFormat = "html"
	ContentFormatMarkdown ContentFormat = "markdown"
)

// Media attached image, video or audio
type Media struct {
	URL     string `bson:"url" json:"url"`
	Type    string `bson:"type" json:"type"`
	Caption string `bson:"caption,omitempty" json:"caption,omitempty"`
}

// EngagementCounters counters of an article, only ever changed by $inc
type EngagementCounters struct {
	Views         int64 `bson:"views" json:"views"`
	Likes         int64 `bson:"likes" json:"likes"`
	Dislikes      int64 `bson:"dislikes" json:"dislikes"`
	Shares        int64 `bson:"shares" json:"shares"`
	CommentsCount int64 `bson:"comments_count" json:"commentsCount"`
	Bookmarks     int64 `bson:"bookmarks" json:"bookmarks"`
}

// Article news article
type Article struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title   i18n.Text          `bson:"title" json:"title"`
	Summary i18n.Text          `bson:"summary,omitempty" json:"summary,omitempty"`
	Content i18n.Text          `bson:"content" json:"content"`
	// ContentHTML rendered Content when Format is markdown
	ContentHTML i18n.Text     `bson:"content_html,omitempty" json:"contentHtml,omitempty"`
	Format      ContentFormat `bson:"format" json:"format"`
	Slug        string        `bson:"slug" json:"slug"`

	Author   primitive.ObjectID `bson:"author" json:"author"`
	Category primitive.ObjectID `bson:"category" json:"category"`
	// CategoryAncestors ancestor ids of Category, for subtree queries
	CategoryAncestors []primitive.ObjectID `bson:"category_ancestors" json:"categoryAncestors"`
	City              *primitive.ObjectID  `bson:"city,omitempty" json:"city,omitempty"`
	Area              *primitive.ObjectID  `bson:"area,omitempty" json:"area,omitempty"`
	Location          *Point               `bson:"location,omitempty" json:"location,omitempty"`

	Tags          []string          `bson:"tags" json:"tags"`
	FeaturedImage string            `bson:"featured_image,omitempty" json:"featuredImage,omitempty"`
	Media         []Media           `bson:"media,omitempty" json:"media,omitempty"`
	Audio         map[string]string `bson:"audio,omitempty" json:"audio,omitempty"`

	Engagement     EngagementCounters `bson:"engagement" json:"engagement"`
	Status         ArticleStatus      `bson:"status" json:"status"`
	IsFeatured     bool               `bson:"is_featured" json:"isFeatured"`
	IsBreaking     bool               `bson:"is_breaking" json:"isBreaking"`
	SourceLanguage string             `bson:"source_language,omitempty" json:"sourceLanguage,omitempty"`

	PublishedAt *time.Time          `bson:"published_at,omitempty" json:"publishedAt,omitempty"`
	ReviewedBy  *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewedBy,omitempty"`
	ReviewNote  string              `bson:"review_note,omitempty" json:"reviewNote,omitempty"`
	CreatedAt   time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updatedAt"`
}

// Collection returns the name of the MongoDB collection for articles
func (Article) Collection() string {
	return "articles"
}

// IsOwnedBy is uid the author
func (a *Article) IsOwnedBy(uid primitive.ObjectID) bool {
	return a.Author == uid
}

// WorkflowAction an authoring workflow action
type WorkflowAction string

const (
	ActionSubmit  WorkflowAction = "submit"
	ActionApprove WorkflowAction = "approve"
	ActionReject  WorkflowAction = "reject"
	ActionArchive WorkflowAction = "archive"
	ActionRestore WorkflowAction = "restore"
)

type transition struct {
	from      []ArticleStatus
	to        ArticleStatus
	adminOnly bool
}

// transitions is the whole authoring workflow
var transitions = map[WorkflowAction]transition{
	ActionSubmit:  {from: []ArticleStatus{ArticleStatusDraft, ArticleStatusArchived}, to: ArticleStatusPending},
	ActionApprove: {from: []ArticleStatus{ArticleStatusPending}, to: ArticleStatusPublished, adminOnly: true},
	ActionReject:  {from: []ArticleStatus{ArticleStatusPending}, to: ArticleStatusDraft, adminOnly: true},
	ActionArchive: {from: []ArticleStatus{ArticleStatusPublished}, to: ArticleStatusArchived, adminOnly: true},
	ActionRestore: {from: []ArticleStatus{ArticleStatusArchived}, to: ArticleStatusDraft},
}

// NextStatus returns the status action leads to from status.
func NextStatus(status ArticleStatus, action WorkflowAction) (ArticleStatus, error) {
	tr, ok := transitions[action]
	if !ok {
		return "", Invalid("action", "unknown action %q", action)
	}
	for _, from := range tr.from {
		if from == status {
			return tr.to, nil
		}
	}

	return "", ErrInvalidTransition
}

// AdminOnly is action reserved to admins
func (a WorkflowAction) AdminOnly() bool {
	return transitions[a].adminOnly
}

// Editable may the author still change the article
func (s ArticleStatus) Editable() bool {
	return s == ArticleStatusDraft || s == ArticleStatusArchived
}
