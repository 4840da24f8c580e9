// Package dao contains all the data access object used by the news service.
package dao

import (
	"context"
	"regexp"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongoLib "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Laisky/multilingual-news/internal/web/news/model"
	"github.com/Laisky/multilingual-news/library/db/mongo"
)

// News dao type
type News struct {
	logger glog.Logger
	db     mongo.DB
}

// New create new dao
func New(logger glog.Logger, db mongo.DB) *News {
	return &News{
		logger: logger,
		db:     db,
	}
}

// Page one page of a listing, Page starts at 1
type Page struct {
	Page  int
	Limit int
}

// Skip number of documents before the page
func (p Page) Skip() int64 {
	if p.Page <= 1 {
		return 0
	}
	return int64((p.Page - 1) * p.Limit)
}

func (p Page) findOptions() *options.FindOptions {
	return options.Find().SetSkip(p.Skip()).SetLimit(int64(p.Limit))
}

// LanguagesCol get languages collection
func (d *News) LanguagesCol() *mongoLib.Collection {
	return d.db.GetCol(model.Language{}.Collection())
}

// UsersCol get users collection
func (d *News) UsersCol() *mongoLib.Collection {
	return d.db.GetCol(model.User{}.Collection())
}

// CategoriesCol get categories collection
func (d *News) CategoriesCol() *mongoLib.Collection {
	return d.db.GetCol(model.Category{}.Collection())
}

// CitiesCol get cities collection
func (d *News) CitiesCol() *mongoLib.Collection {
	return d.db.GetCol(model.City{}.Collection())
}

// AreasCol get areas collection
func (d *News) AreasCol() *mongoLib.Collection {
	return d.db.GetCol(model.Area{}.Collection())
}

// ArticlesCol get articles collection
func (d *News) ArticlesCol() *mongoLib.Collection {
	return d.db.GetCol(model.Article{}.Collection())
}

// EngagementsCol get engagements collection
func (d *News) EngagementsCol() *mongoLib.Collection {
	return d.db.GetCol(model.Engagement{}.Collection())
}

// CommentsCol get comments collection
func (d *News) CommentsCol() *mongoLib.Collection {
	return d.db.GetCol(model.Comment{}.Collection())
}

// ScrapedCol get scraped articles collection
func (d *News) ScrapedCol() *mongoLib.Collection {
	return d.db.GetCol(model.ScrapedArticle{}.Collection())
}

// translateErr maps driver errors onto model errors.
func translateErr(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case mongo.NotFound(err):
		return errors.Wrap(model.ErrNotFound, msg)
	case mongo.IsDuplicateKey(err):
		return errors.Wrap(model.ErrConflict, msg+": duplicate key")
	default:
		return errors.Wrap(err, msg)
	}
}

func findOne[T any](ctx context.Context, col *mongoLib.Collection, filter any, msg string) (*T, error) {
	doc := new(T)
	if err := col.FindOne(ctx, filter).Decode(doc); err != nil {
		return nil, translateErr(err, msg)
	}
	return doc, nil
}

func findAll[T any](ctx context.Context, col *mongoLib.Collection,
	filter any, msg string, opts ...*options.FindOptions) ([]*T, error) {
	cur, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, errors.Wrap(err, msg)
	}
	defer cur.Close(ctx) //nolint:errcheck

	docs := []*T{}
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, msg)
	}
	return docs, nil
}

// findPage returns one page and the total count of filter.
func findPage[T any](ctx context.Context, col *mongoLib.Collection,
	filter any, sort bson.D, page Page, msg string) ([]*T, int64, error) {
	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, errors.Wrap(err, msg)
	}

	docs, err := findAll[T](ctx, col, filter, msg, page.findOptions().SetSort(sort))
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func matchedOrNotFound(res *mongoLib.UpdateResult, err error, msg string) error {
	if err != nil {
		return translateErr(err, msg)
	}
	if res.MatchedCount == 0 {
		return errors.Wrap(model.ErrNotFound, msg)
	}
	return nil
}

func deletedOrNotFound(res *mongoLib.DeleteResult, err error, msg string) error {
	if err != nil {
		return errors.Wrap(err, msg)
	}
	if res.DeletedCount == 0 {
		return errors.Wrap(model.ErrNotFound, msg)
	}
	return nil
}

// slugTaken reports whether another document of col owns slug under scope.
func slugTaken(ctx context.Context, col *mongoLib.Collection,
	slug string, exclude primitive.ObjectID, scope bson.M) (bool, error) {
	filter := bson.M{"slug": slug}
	for k, v := range scope {
		filter[k] = v
	}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}

	n, err := col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrap(err, "count slug")
	}
	return n > 0, nil
}

// containsPattern case-insensitive literal substring regex
func containsPattern(q string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
}
