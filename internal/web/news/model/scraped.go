package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScrapedStatus review status of a scraped article
type ScrapedStatus string

const (
	ScrapedNew      ScrapedStatus = "new"
	ScrapedImported ScrapedStatus = "imported"
	ScrapedRejected ScrapedStatus = "rejected"
)

// ScrapedArticle an article collected from an external source, single language
type ScrapedArticle struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	SourceURL   string              `bson:"source_url" json:"sourceUrl"`
	SourceName  string              `bson:"source_name" json:"sourceName"`
	Language    string              `bson:"language" json:"language"`
	Title       string              `bson:"title" json:"title"`
	Summary     string              `bson:"summary,omitempty" json:"summary,omitempty"`
	Content     string              `bson:"content" json:"content"`
	ImageURL    string              `bson:"image_url,omitempty" json:"imageUrl,omitempty"`
	Author      string              `bson:"author,omitempty" json:"author,omitempty"`
	PublishedAt *time.Time          `bson:"published_at,omitempty" json:"publishedAt,omitempty"`
	Status      ScrapedStatus       `bson:"status" json:"status"`
	Imported    *primitive.ObjectID `bson:"imported_article,omitempty" json:"importedArticle,omitempty"`
	ScrapedAt   time.Time           `bson:"scraped_at" json:"scrapedAt"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updatedAt"`
}

// Collection returns the name of the MongoDB collection for scraped articles
func (ScrapedArticle) Collection() string {
	return "scraped_articles"
}
