package dao

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

// ScrapedQuery scraped article listing filter
type ScrapedQuery struct {
	Status model.ScrapedStatus
	Source string
	Page   Page
}

// UpsertScraped insert or refresh a scraped article by source url, reports whether it was created.
// The review status of an existing document is kept.
func (d *News) UpsertScraped(ctx context.Context, s *model.ScrapedArticle) (bool, error) {
	res, err := d.ScrapedCol().UpdateOne(ctx,
		bson.M{"source_url": s.SourceURL},
		bson.M{
			"$set": bson.M{
				"source_name":  s.SourceName,
				"language":     s.Language,
				"title":        s.Title,
				"summary":      s.Summary,
				"content":      s.Content,
				"image_url":    s.ImageURL,
				"author":       s.Author,
				"published_at": s.PublishedAt,
				"updated_at":   s.UpdatedAt,
			},
			"$setOnInsert": bson.M{
				"status":     model.ScrapedNew,
				"scraped_at": s.ScrapedAt,
			},
		},
		options.Update().SetUpsert(true))
	if err != nil {
		return false, translateErr(err, "upsert scraped article")
	}

	if id, ok := res.UpsertedID.(primitive.ObjectID); ok {
		s.ID = id
		return true, nil
	}
	return false, nil
}

// GetScraped load scraped article by id
func (d *News) GetScraped(ctx context.Context, id primitive.ObjectID) (*model.ScrapedArticle, error) {
	return findOne[model.ScrapedArticle](ctx, d.ScrapedCol(), bson.M{"_id": id}, "get scraped article")
}

// GetScrapedByURL load scraped article by source url
func (d *News) GetScrapedByURL(ctx context.Context, url string) (*model.ScrapedArticle, error) {
	return findOne[model.ScrapedArticle](ctx, d.ScrapedCol(), bson.M{"source_url": url}, "get scraped article by url")
}

// ListScraped list scraped articles newest first
func (d *News) ListScraped(ctx context.Context, q ScrapedQuery) ([]*model.ScrapedArticle, int64, error) {
	filter := bson.M{}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.Source != "" {
		filter["source_name"] = q.Source
	}
	return findPage[model.ScrapedArticle](ctx, d.ScrapedCol(), filter,
		bson.D{{Key: "scraped_at", Value: -1}}, q.Page, "list scraped articles")
}

// SetScrapedStatus move a scraped article out of status new
func (d *News) SetScrapedStatus(ctx context.Context,
	id primitive.ObjectID, status model.ScrapedStatus, imported *primitive.ObjectID) error {
	set := bson.M{"status": status, "updated_at": time.Now().UTC()}
	if imported != nil {
		set["imported_article"] = *imported
	}

	res, err := d.ScrapedCol().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return matchedOrNotFound(res, err, "set scraped status")
}

// DeleteScraped delete scraped article by id
func (d *News) DeleteScraped(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.ScrapedCol().DeleteOne(ctx, bson.M{"_id": id})
	return deletedOrNotFound(res, err, "delete scraped article")
}
