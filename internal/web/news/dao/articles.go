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

// Article listing sort orders
const (
	SortLatest  = "latest"
	SortPopular = "popular"
	SortUpdated = "updated"
)

// ArticleQuery article listing filter
type ArticleQuery struct {
	Status []model.ArticleStatus
	// Category matches the category and all of its descendants
	Category *primitive.ObjectID
	City     *primitive.ObjectID
	Area     *primitive.ObjectID
	Author   *primitive.ObjectID
	Tag      string
	// Search is matched against the title in every SearchLangs
	Search      string
	SearchLangs []string
	Featured    *bool
	Breaking    *bool
	Sort        string
	Page        Page
}

func (q ArticleQuery) filter() bson.M {
	filter := bson.M{}
	switch len(q.Status) {
	case 0:
	case 1:
		filter["status"] = q.Status[0]
	default:
		filter["status"] = bson.M{"$in": q.Status}
	}

	var and bson.A
	if q.Category != nil {
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"category": *q.Category},
			bson.M{"category_ancestors": *q.Category},
		}})
	}
	if q.City != nil {
		filter["city"] = *q.City
	}
	if q.Area != nil {
		filter["area"] = *q.Area
	}
	if q.Author != nil {
		filter["author"] = *q.Author
	}
	if q.Tag != "" {
		filter["tags"] = q.Tag
	}
	if q.Featured != nil {
		filter["is_featured"] = *q.Featured
	}
	if q.Breaking != nil {
		filter["is_breaking"] = *q.Breaking
	}
	if q.Search != "" && len(q.SearchLangs) != 0 {
		re := containsPattern(q.Search)
		or := bson.A{}
		for _, lang := range q.SearchLangs {
			or = append(or, bson.M{"title." + lang: re})
		}
		and = append(and, bson.M{"$or": or})
	}
	if len(and) != 0 {
		filter["$and"] = and
	}

	return filter
}

func (q ArticleQuery) sort() bson.D {
	switch q.Sort {
	case SortPopular:
		return bson.D{{Key: "engagement.views", Value: -1}, {Key: "published_at", Value: -1}}
	case SortUpdated:
		return bson.D{{Key: "updated_at", Value: -1}}
	default:
		return bson.D{{Key: "published_at", Value: -1}, {Key: "created_at", Value: -1}}
	}
}

// InsertArticle insert article and set its id
func (d *News) InsertArticle(ctx context.Context, a *model.Article) error {
	res, err := d.ArticlesCol().InsertOne(ctx, a)
	if err != nil {
		return translateErr(err, "insert article")
	}
	a.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// GetArticle load article by id
func (d *News) GetArticle(ctx context.Context, id primitive.ObjectID) (*model.Article, error) {
	return findOne[model.Article](ctx, d.ArticlesCol(), bson.M{"_id": id}, "get article")
}

// GetArticleBySlug load article by slug
func (d *News) GetArticleBySlug(ctx context.Context, slug string) (*model.Article, error) {
	return findOne[model.Article](ctx, d.ArticlesCol(), bson.M{"slug": slug}, "get article by slug")
}

// GetArticlesByIDs load articles keyed by id
func (d *News) GetArticlesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*model.Article, error) {
	articles := map[primitive.ObjectID]*model.Article{}
	if len(ids) == 0 {
		return articles, nil
	}

	docs, err := findAll[model.Article](ctx, d.ArticlesCol(), bson.M{"_id": bson.M{"$in": ids}}, "get articles")
	if err != nil {
		return nil, err
	}
	for _, a := range docs {
		articles[a.ID] = a
	}
	return articles, nil
}

// ListArticles list one page of articles
func (d *News) ListArticles(ctx context.Context, q ArticleQuery) ([]*model.Article, int64, error) {
	return findPage[model.Article](ctx, d.ArticlesCol(), q.filter(), q.sort(), q.Page, "list articles")
}

// NearbyArticles published articles closest to the point first
func (d *News) NearbyArticles(ctx context.Context, q NearQuery) ([]*model.Article, error) {
	near := bson.M{"$geometry": model.NewPoint(q.Lng, q.Lat)}
	if q.MaxDistance > 0 {
		near["$maxDistance"] = q.MaxDistance
	}

	return findAll[model.Article](ctx, d.ArticlesCol(), bson.M{
		"status":   model.ArticleStatusPublished,
		"location": bson.M{"$near": near},
	}, "nearby articles", q.options())
}

// RelatedArticles published articles sharing the category or a tag
func (d *News) RelatedArticles(ctx context.Context, a *model.Article, limit int) ([]*model.Article, error) {
	or := bson.A{bson.M{"category": a.Category}}
	if len(a.Tags) != 0 {
		or = append(or, bson.M{"tags": bson.M{"$in": a.Tags}})
	}

	return findAll[model.Article](ctx, d.ArticlesCol(), bson.M{
		"_id":    bson.M{"$ne": a.ID},
		"status": model.ArticleStatusPublished,
		"$or":    or,
	}, "related articles", options.Find().
		SetSort(bson.D{{Key: "published_at", Value: -1}}).
		SetLimit(int64(limit)))
}

// ArticleSlugTaken is slug used by another article
func (d *News) ArticleSlugTaken(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	return slugTaken(ctx, d.ArticlesCol(), slug, exclude, nil)
}

// UpdateArticleContent save the editable fields of a, counters and status are untouched
func (d *News) UpdateArticleContent(ctx context.Context, a *model.Article) error {
	res, err := d.ArticlesCol().UpdateOne(ctx, bson.M{"_id": a.ID}, bson.M{"$set": bson.M{
		"title":              a.Title,
		"summary":            a.Summary,
		"content":            a.Content,
		"content_html":       a.ContentHTML,
		"format":             a.Format,
		"slug":               a.Slug,
		"category":           a.Category,
		"category_ancestors": a.CategoryAncestors,
		"city":               a.City,
		"area":               a.Area,
		"location":           a.Location,
		"tags":               a.Tags,
		"featured_image":     a.FeaturedImage,
		"media":              a.Media,
		"is_featured":        a.IsFeatured,
		"is_breaking":        a.IsBreaking,
		"source_language":    a.SourceLanguage,
		"updated_at":         a.UpdatedAt,
	}})
	return matchedOrNotFound(res, err, "update article")
}

// SetArticleTranslations save the multilingual text fields of a
func (d *News) SetArticleTranslations(ctx context.Context, a *model.Article) error {
	res, err := d.ArticlesCol().UpdateOne(ctx, bson.M{"_id": a.ID}, bson.M{"$set": bson.M{
		"title":        a.Title,
		"summary":      a.Summary,
		"content":      a.Content,
		"content_html": a.ContentHTML,
		"updated_at":   a.UpdatedAt,
	}})
	return matchedOrNotFound(res, err, "set article translations")
}

// TransitionArticle move the article out of from, set holds the new status and review fields.
// It fails with ErrInvalidTransition when the status is no longer from.
func (d *News) TransitionArticle(ctx context.Context,
	id primitive.ObjectID, from model.ArticleStatus, set bson.M) error {
	res, err := d.ArticlesCol().UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": set})
	if err != nil {
		return errors.Wrap(err, "transition article")
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(model.ErrInvalidTransition, "article is no longer %s", from)
	}
	return nil
}

// IncArticleCounters atomically move engagement counters, fields are full paths like engagement.views
func (d *News) IncArticleCounters(ctx context.Context, id primitive.ObjectID, inc map[string]int64) error {
	if len(inc) == 0 {
		return nil
	}

	doc := bson.M{}
	for k, v := range inc {
		doc[k] = v
	}
	res, err := d.ArticlesCol().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": doc})
	return matchedOrNotFound(res, err, "inc article counters")
}

// SetArticleAudio store the audio url of lang
func (d *News) SetArticleAudio(ctx context.Context, id primitive.ObjectID, lang, url string) error {
	res, err := d.ArticlesCol().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"audio." + lang: url,
		"updated_at":    time.Now().UTC(),
	}})
	return matchedOrNotFound(res, err, "set article audio")
}

// RefreshCategoryAncestors rewrite category_ancestors of every article in category
func (d *News) RefreshCategoryAncestors(ctx context.Context,
	category primitive.ObjectID, ancestors []primitive.ObjectID) error {
	if _, err := d.ArticlesCol().UpdateMany(ctx, bson.M{"category": category},
		bson.M{"$set": bson.M{"category_ancestors": ancestors}}); err != nil {
		return errors.Wrap(err, "refresh category ancestors")
	}
	return nil
}

// CountArticlesInCategory count articles in the category subtree
func (d *News) CountArticlesInCategory(ctx context.Context, category primitive.ObjectID) (int64, error) {
	n, err := d.ArticlesCol().CountDocuments(ctx, bson.M{"$or": bson.A{
		bson.M{"category": category},
		bson.M{"category_ancestors": category},
	}})
	if err != nil {
		return 0, errors.Wrap(err, "count articles in category")
	}
	return n, nil
}

// DeleteArticle delete article by id
func (d *News) DeleteArticle(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.ArticlesCol().DeleteOne(ctx, bson.M{"_id": id})
	return deletedOrNotFound(res, err, "delete article")
}

// EngagementTotals summed counters of published articles
type EngagementTotals struct {
	Articles      int64 `bson:"articles" json:"articles"`
	Views         int64 `bson:"views" json:"views"`
	Likes         int64 `bson:"likes" json:"likes"`
	Dislikes      int64 `bson:"dislikes" json:"dislikes"`
	Shares        int64 `bson:"shares" json:"shares"`
	CommentsCount int64 `bson:"comments_count" json:"commentsCount"`
	Bookmarks     int64 `bson:"bookmarks" json:"bookmarks"`
}

// EngagementStats totals over published articles and the most viewed ones
func (d *News) EngagementStats(ctx context.Context, top int) (*EngagementTotals, []*model.Article, error) {
	published := bson.M{"status": model.ArticleStatusPublished}
	cur, err := d.ArticlesCol().Aggregate(ctx, bson.A{
		bson.M{"$match": published},
		bson.M{"$group": bson.M{
			"_id":            nil,
			"articles":       bson.M{"$sum": 1},
			"views":          bson.M{"$sum": "$engagement.views"},
			"likes":          bson.M{"$sum": "$engagement.likes"},
			"dislikes":       bson.M{"$sum": "$engagement.dislikes"},
			"shares":         bson.M{"$sum": "$engagement.shares"},
			"comments_count": bson.M{"$sum": "$engagement.comments_count"},
			"bookmarks":      bson.M{"$sum": "$engagement.bookmarks"},
		}},
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "aggregate engagement")
	}
	defer cur.Close(ctx) //nolint:errcheck

	totals := []*EngagementTotals{}
	if err = cur.All(ctx, &totals); err != nil {
		return nil, nil, errors.Wrap(err, "decode engagement totals")
	}
	total := &EngagementTotals{}
	if len(totals) != 0 {
		total = totals[0]
	}

	topArticles, err := findAll[model.Article](ctx, d.ArticlesCol(), published, "top articles",
		options.Find().
			SetSort(bson.D{{Key: "engagement.views", Value: -1}}).
			SetLimit(int64(top)).
			SetProjection(bson.M{"content": 0, "content_html": 0}))
	if err != nil {
		return nil, nil, err
	}

	return total, topArticles, nil
}

