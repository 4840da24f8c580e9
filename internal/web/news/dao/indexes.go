package dao

import (
	"context"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson"
	mongoLib "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

func uniqueIndex(name string, keys bson.D) mongoLib.IndexModel {
	return mongoLib.IndexModel{Keys: keys, Options: options.Index().SetName(name).SetUnique(true)}
}

func index(name string, keys bson.D) mongoLib.IndexModel {
	return mongoLib.IndexModel{Keys: keys, Options: options.Index().SetName(name)}
}

// indexSpecs indexes per collection
func (d *News) indexSpecs() map[*mongoLib.Collection][]mongoLib.IndexModel {
	return map[*mongoLib.Collection][]mongoLib.IndexModel{
		d.LanguagesCol(): {
			uniqueIndex("code_unique", bson.D{{Key: "code", Value: 1}}),
			index("active_order", bson.D{{Key: "is_active", Value: 1}, {Key: "order", Value: 1}}),
		},
		d.UsersCol(): {
			uniqueIndex("email_unique", bson.D{{Key: "email", Value: 1}}),
			index("role_created", bson.D{{Key: "role", Value: 1}, {Key: "created_at", Value: -1}}),
		},
		d.CategoriesCol(): {
			uniqueIndex("slug_unique", bson.D{{Key: "slug", Value: 1}}),
			index("parent_order", bson.D{{Key: "parent", Value: 1}, {Key: "order", Value: 1}}),
			index("ancestors", bson.D{{Key: "ancestors._id", Value: 1}}),
		},
		d.CitiesCol(): {
			uniqueIndex("slug_unique", bson.D{{Key: "slug", Value: 1}}),
			index("center_2dsphere", bson.D{{Key: "center", Value: "2dsphere"}}),
			index("boundary_2dsphere", bson.D{{Key: "boundary", Value: "2dsphere"}}),
		},
		d.AreasCol(): {
			uniqueIndex("city_slug_unique", bson.D{{Key: "city", Value: 1}, {Key: "slug", Value: 1}}),
			index("center_2dsphere", bson.D{{Key: "center", Value: "2dsphere"}}),
			index("boundary_2dsphere", bson.D{{Key: "boundary", Value: "2dsphere"}}),
		},
		d.ArticlesCol(): {
			uniqueIndex("slug_unique", bson.D{{Key: "slug", Value: 1}}),
			index("status_published", bson.D{{Key: "status", Value: 1}, {Key: "published_at", Value: -1}}),
			index("status_category_published", bson.D{
				{Key: "status", Value: 1}, {Key: "category", Value: 1}, {Key: "published_at", Value: -1}}),
			index("status_ancestors_published", bson.D{
				{Key: "status", Value: 1}, {Key: "category_ancestors", Value: 1}, {Key: "published_at", Value: -1}}),
			index("status_city_published", bson.D{
				{Key: "status", Value: 1}, {Key: "city", Value: 1}, {Key: "published_at", Value: -1}}),
			index("status_views", bson.D{{Key: "status", Value: 1}, {Key: "engagement.views", Value: -1}}),
			index("author_updated", bson.D{{Key: "author", Value: 1}, {Key: "updated_at", Value: -1}}),
			index("tags", bson.D{{Key: "tags", Value: 1}}),
			index("location_2dsphere", bson.D{{Key: "location", Value: "2dsphere"}}),
		},
		d.EngagementsCol(): {
			{
				Keys: bson.D{{Key: "user", Value: 1}, {Key: "article", Value: 1}, {Key: "type", Value: 1}},
				Options: options.Index().SetName("user_reaction_unique").SetUnique(true).
					SetPartialFilterExpression(bson.M{"exclusive": true, "actor_kind": model.ActorUser}),
			},
			{
				Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "article", Value: 1}, {Key: "type", Value: 1}},
				Options: options.Index().SetName("session_reaction_unique").SetUnique(true).
					SetPartialFilterExpression(bson.M{"exclusive": true, "actor_kind": model.ActorSession}),
			},
			index("article_type_created", bson.D{
				{Key: "article", Value: 1}, {Key: "type", Value: 1}, {Key: "created_at", Value: -1}}),
			index("user_type_created", bson.D{
				{Key: "user", Value: 1}, {Key: "type", Value: 1}, {Key: "created_at", Value: -1}}),
		},
		d.CommentsCol(): {
			index("article_status_created", bson.D{
				{Key: "article", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: 1}}),
			index("status_created", bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}),
		},
		d.ScrapedCol(): {
			uniqueIndex("source_url_unique", bson.D{{Key: "source_url", Value: 1}}),
			index("status_scraped", bson.D{{Key: "status", Value: 1}, {Key: "scraped_at", Value: -1}}),
		},
	}
}

// EnsureIndexes create every index the service relies on
func (d *News) EnsureIndexes(ctx context.Context) error {
	for col, models := range d.indexSpecs() {
		names, err := col.Indexes().CreateMany(ctx, models)
		if err != nil {
			return errors.Wrapf(err, "create indexes on %s", col.Name())
		}
		d.logger.Info("indexes ensured",
			zap.String("collection", col.Name()),
			zap.Strings("indexes", names))
	}

	return nil
}
