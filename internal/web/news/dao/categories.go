package dao

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

// CategoryQuery category listing filter
type CategoryQuery struct {
	// Parent lists the direct children of Parent
	Parent *primitive.ObjectID
	// RootOnly lists categories without parent
	RootOnly   bool
	ActiveOnly bool
}

var categorySort = bson.D{{Key: "order", Value: 1}, {Key: "slug", Value: 1}}

// InsertCategory insert category and set its id
func (d *News) InsertCategory(ctx context.Context, c *model.Category) error {
	res, err := d.CategoriesCol().InsertOne(ctx, c)
	if err != nil {
		return translateErr(err, "insert category")
	}
	c.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// GetCategory load category by id
func (d *News) GetCategory(ctx context.Context, id primitive.ObjectID) (*model.Category, error) {
	return findOne[model.Category](ctx, d.CategoriesCol(), bson.M{"_id": id}, "get category")
}

// GetCategoryBySlug load category by slug
func (d *News) GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error) {
	return findOne[model.Category](ctx, d.CategoriesCol(), bson.M{"slug": slug}, "get category by slug")
}

// ListCategories list categories ordered by order then slug
func (d *News) ListCategories(ctx context.Context, q CategoryQuery) ([]*model.Category, error) {
	filter := bson.M{}
	switch {
	case q.Parent != nil:
		filter["parent"] = *q.Parent
	case q.RootOnly:
		filter["parent"] = bson.M{"$exists": false}
	}
	if q.ActiveOnly {
		filter["is_active"] = true
	}

	return findAll[model.Category](ctx, d.CategoriesCol(), filter, "list categories",
		options.Find().SetSort(categorySort))
}

// ListDescendants load every category below id
func (d *News) ListDescendants(ctx context.Context, id primitive.ObjectID) ([]*model.Category, error) {
	return findAll[model.Category](ctx, d.CategoriesCol(), bson.M{"ancestors._id": id}, "list descendants")
}

// CountChildren count direct children of id
func (d *News) CountChildren(ctx context.Context, id primitive.ObjectID) (int64, error) {
	n, err := d.CategoriesCol().CountDocuments(ctx, bson.M{"parent": id})
	if err != nil {
		return 0, errors.Wrap(err, "count children")
	}
	return n, nil
}

// CategorySlugTaken is slug used by another category
func (d *News) CategorySlugTaken(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	return slugTaken(ctx, d.CategoriesCol(), slug, exclude, nil)
}

// UpdateCategory save every field of c
func (d *News) UpdateCategory(ctx context.Context, c *model.Category) error {
	res, err := d.CategoriesCol().ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	return matchedOrNotFound(res, err, "update category")
}

// SetCategoryAncestors replace the ancestors of id
func (d *News) SetCategoryAncestors(ctx context.Context, id primitive.ObjectID, ancestors []model.Ancestor) error {
	res, err := d.CategoriesCol().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"ancestors":  ancestors,
		"updated_at": time.Now().UTC(),
	}})
	return matchedOrNotFound(res, err, "set category ancestors")
}

// DeleteCategory delete category by id
func (d *News) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.CategoriesCol().DeleteOne(ctx, bson.M{"_id": id})
	return deletedOrNotFound(res, err, "delete category")
}
