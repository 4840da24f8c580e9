package service

import (
	"context"
	"strings"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/multilingual-news/internal/library/i18n"
	"github.com/Laisky/multilingual-news/internal/web/news/dao"
	"github.com/Laisky/multilingual-news/internal/web/news/dto"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

// relatedLimit max number of related articles
const relatedLimit = 6

type articleStore interface {
	InsertArticle(ctx context.Context, a *model.Article) error
	GetArticle(ctx context.Context, id primitive.ObjectID) (*model.Article, error)
	GetArticleBySlug(ctx context.Context, slug string) (*model.Article, error)
	ListArticles(ctx context.Context, q dao.ArticleQuery) ([]*model.Article, int64, error)
	NearbyArticles(ctx context.Context, q dao.NearQuery) ([]*model.Article, error)
	RelatedArticles(ctx context.Context, a *model.Article, limit int) ([]*model.Article, error)
	ArticleSlugTaken(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error)
	UpdateArticleContent(ctx context.Context, a *model.Article) error
	TransitionArticle(ctx context.Context, id primitive.ObjectID, from model.ArticleStatus, set bson.M) error
	DeleteArticle(ctx context.Context, id primitive.ObjectID) error
	DeleteArticleEngagements(ctx context.Context, article primitive.ObjectID) error
	DeleteArticleComments(ctx context.Context, article primitive.ObjectID) error

	IncUserArticles(ctx context.Context, id primitive.ObjectID, delta int64) error
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*model.User, error)
	GetCategory(ctx context.Context, id primitive.ObjectID) (*model.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error)
	ListCategories(ctx context.Context, q dao.CategoryQuery) ([]*model.Category, error)
	GetCity(ctx context.Context, id primitive.ObjectID) (*model.City, error)
	GetArea(ctx context.Context, id primitive.ObjectID) (*model.Area, error)
}

// Articles authoring, workflow and reading of articles
type Articles struct {
	logger     glog.Logger
	store      articleStore
	languages  *Languages
	categories *CategoryCache
}

// NewArticles create the article service, categories may be nil
func NewArticles(logger glog.Logger, store articleStore, languages *Languages, categories *CategoryCache) *Articles {
	return &Articles{logger: logger, store: store, languages: languages, categories: categories}
}

// ArticleFilter listing parameters as received from the client
type ArticleFilter struct {
	Status   string
	Category string
	City     string
	Area     string
	Author   string
	Tag      string
	Search   string
	Featured *bool
	Breaking *bool
	Sort     string
	Page     int
	Limit    int
}

func (s *Articles) query(ctx context.Context, f ArticleFilter) (dao.ArticleQuery, error) {
	q := dao.ArticleQuery{
		Tag:      strings.ToLower(strings.TrimSpace(f.Tag)),
		Search:   strings.TrimSpace(f.Search),
		Featured: f.Featured,
		Breaking: f.Breaking,
		Page:     Paging(f.Page, f.Limit),
	}

	switch f.Sort {
	case "", dao.SortLatest:
		q.Sort = dao.SortLatest
	case dao.SortPopular, dao.SortUpdated:
		q.Sort = f.Sort
	default:
		return q, model.Invalid("sort", "unknown sort %q", f.Sort)
	}

	if f.Status != "" {
		status := model.ArticleStatus(f.Status)
		if !status.Valid() {
			return q, model.Invalid("status", "unknown status %q", f.Status)
		}
		q.Status = []model.ArticleStatus{status}
	}

	if f.Category != "" {
		c, err := s.category(ctx, f.Category)
		if err != nil {
			return q, err
		}
		q.Category = &c.ID
	}

	var err error
	if q.City, err = parseOptionalID("city", f.City); err != nil {
		return q, err
	}
	if q.Area, err = parseOptionalID("area", f.Area); err != nil {
		return q, err
	}
	if q.Author, err = parseOptionalID("author", f.Author); err != nil {
		return q, err
	}

	if q.Search != "" {
		if q.SearchLangs, err = s.languages.ActiveCodes(ctx); err != nil {
			return q, errors.Wrap(err, "load active languages")
		}
	}

	return q, nil
}

func (s *Articles) category(ctx context.Context, idOrSlug string) (*model.Category, error) {
	if id, err := primitive.ObjectIDFromHex(idOrSlug); err == nil {
		return s.store.GetCategory(ctx, id)
	}
	return s.store.GetCategoryBySlug(ctx, strings.ToLower(strings.TrimSpace(idOrSlug)))
}

func (s *Articles) list(ctx context.Context, q dao.ArticleQuery) (*dto.Paged[*model.Article], error) {
	articles, total, err := s.store.ListArticles(ctx, q)
	if err != nil {
		return nil, err
	}
	return dto.NewPaged(articles, total, q.Page.Page, q.Page.Limit), nil
}

// Feed published articles
func (s *Articles) Feed(ctx context.Context, f ArticleFilter) (*dto.Paged[*model.Article], error) {
	f.Status = ""
	q, err := s.query(ctx, f)
	if err != nil {
		return nil, err
	}
	q.Status = []model.ArticleStatus{model.ArticleStatusPublished}
	return s.list(ctx, q)
}

// Mine articles of u in any status
func (s *Articles) Mine(ctx context.Context, u *model.User, f ArticleFilter) (*dto.Paged[*model.Article], error) {
	f.Author = ""
	if f.Sort == "" {
		f.Sort = dao.SortUpdated
	}
	q, err := s.query(ctx, f)
	if err != nil {
		return nil, err
	}
	q.Author = &u.ID
	return s.list(ctx, q)
}

// Admin articles of every author in any status
func (s *Articles) Admin(ctx context.Context, f ArticleFilter) (*dto.Paged[*model.Article], error) {
	if f.Sort == "" {
		f.Sort = dao.SortUpdated
	}
	q, err := s.query(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, q)
}

// Nearby published articles around a point
func (s *Articles) Nearby(ctx context.Context, near Near) ([]*model.Article, error) {
	q, err := near.query(false)
	if err != nil {
		return nil, err
	}
	return s.store.NearbyArticles(ctx, q)
}

// visible may viewer read a
func visible(a *model.Article, viewer *model.User) bool {
	switch {
	case a.Status == model.ArticleStatusPublished:
		return true
	case viewer == nil:
		return false
	default:
		return viewer.IsAdmin() || a.IsOwnedBy(viewer.ID)
	}
}

func (s *Articles) load(ctx context.Context, idOrSlug string) (*model.Article, error) {
	if id, err := primitive.ObjectIDFromHex(idOrSlug); err == nil {
		a, err := s.store.GetArticle(ctx, id)
		if err == nil || !errors.Is(err, model.ErrNotFound) {
			return a, err
		}
	}
	return s.store.GetArticleBySlug(ctx, strings.ToLower(strings.TrimSpace(idOrSlug)))
}

// Get an article by id or slug. Unpublished articles are only visible to
// their author and admins, others get ErrNotFound.
func (s *Articles) Get(ctx context.Context, idOrSlug string, viewer *model.User) (*model.Article, error) {
	a, err := s.load(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	if !visible(a, viewer) {
		return nil, errors.Wrap(model.ErrNotFound, "article not found")
	}
	return a, nil
}

type articleGetter interface {
	GetArticle(ctx context.Context, id primitive.ObjectID) (*model.Article, error)
}

// publishedArticle load a published article, any other status is not found
func publishedArticle(ctx context.Context, store articleGetter, id primitive.ObjectID) (*model.Article, error) {
	a, err := store.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != model.ArticleStatusPublished {
		return nil, errors.Wrap(model.ErrNotFound, "article not published")
	}
	return a, nil
}

// Related published articles sharing the category or a tag with the article
func (s *Articles) Related(ctx context.Context, id primitive.ObjectID) ([]*model.Article, error) {
	a, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.store.RelatedArticles(ctx, a, relatedLimit)
}

// Refs load the authors and categories articles point to
func (s *Articles) Refs(ctx context.Context, articles []*model.Article) (*dto.ArticleRefs, error) {
	refs := &dto.ArticleRefs{
		Authors:    map[primitive.ObjectID]*model.User{},
		Categories: map[primitive.ObjectID]*model.Category{},
	}
	if len(articles) == 0 {
		return refs, nil
	}

	var authorIDs []primitive.ObjectID
	seen := map[primitive.ObjectID]bool{}
	for _, a := range articles {
		if !seen[a.Author] {
			seen[a.Author] = true
			authorIDs = append(authorIDs, a.Author)
		}
	}

	var err error
	if refs.Authors, err = s.store.GetUsersByIDs(ctx, authorIDs); err != nil {
		return nil, errors.Wrap(err, "load authors")
	}

	if refs.Categories, err = s.categories.ByID(ctx, s.store); err != nil {
		return nil, err
	}

	return refs, nil
}

// canFileUnder may u file articles under c, an assigned category covers its subtree
func canFileUnder(u *model.User, c *model.Category) bool {
	if u.CanReportOn(c.ID) {
		return true
	}
	for _, id := range c.AncestorIDs() {
		if u.CanReportOn(id) {
			return true
		}
	}
	return false
}

// applyText sanitize and merge the multilingual text fields of in into a
func (s *Articles) applyText(a *model.Article, in *dto.ArticleInput, def string) error {
	var err error
	if in.Title != nil {
		if a.Title, err = sanitizeText(i18n.Merge(a.Title.Clone(), in.Title, true), maxTitleLength, "title"); err != nil {
			return err
		}
		dropBlank(a.Title, in.Title)
	}
	if in.Summary != nil {
		if a.Summary, err = sanitizeText(i18n.Merge(a.Summary.Clone(), in.Summary, true), maxSummaryLength, "summary"); err != nil {
			return err
		}
		dropBlank(a.Summary, in.Summary)
	}
	if in.Content != nil {
		if a.Content, err = sanitizeText(i18n.Merge(a.Content.Clone(), in.Content, true), maxContentLength, "content"); err != nil {
			return err
		}
		dropBlank(a.Content, in.Content)
	}
	if in.Format != "" {
		a.Format = model.ContentFormat(in.Format)
	}
	if a.Format == "" {
		a.Format = model.ContentFormatHTML
	}

	if err = requireDefault(a.Title, def, "title"); err != nil {
		return err
	}
	if err = requireDefault(a.Content, def, "content"); err != nil {
		return err
	}

	renderArticle(a)
	return nil
}

// dropBlank removes the languages input explicitly blanked
func dropBlank(text, input i18n.Text) {
	for code, v := range input {
		if strings.TrimSpace(v) == "" {
			delete(text, i18n.NormalizeCode(code))
		}
	}
}

// renderArticle refresh ContentHTML and fill missing summaries from the content
func renderArticle(a *model.Article) {
	a.ContentHTML = nil
	if a.Format == model.ContentFormatMarkdown {
		a.ContentHTML = i18n.Text{}
		for code, md := range a.Content {
			a.ContentHTML[code] = RenderMarkdown(md)
		}
	}

	if a.Summary == nil {
		a.Summary = i18n.Text{}
	}
	for code := range a.Content {
		if a.Summary.Has(code) {
			continue
		}
		body := a.Content[code]
		if html, ok := a.ContentHTML[code]; ok {
			body = html
		}
		if summary := DeriveSummary(body, summaryRunes); summary != "" {
			a.Summary[code] = summary
		}
	}
}

// applyRefs resolve category and location of in into a
func (s *Articles) applyRefs(ctx context.Context, u *model.User, a *model.Article, in *dto.ArticleInput) error {
	if in.Category != "" {
		id, err := ParseID("category", in.Category)
		if err != nil {
			return err
		}
		c, err := s.store.GetCategory(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.Invalid("category", "category not found")
			}
			return errors.Wrap(err, "load category")
		}
		if !canFileUnder(u, c) {
			return errors.Wrap(model.ErrForbidden, "category is not assigned to you")
		}
		a.Category = c.ID
		a.CategoryAncestors = c.AncestorIDs()
	}
	if a.Category.IsZero() {
		return model.Invalid("category", "category is required")
	}

	if in.City != nil {
		city, err := parseOptionalID("city", *in.City)
		if err != nil {
			return err
		}
		if city != nil && !sameID(city, a.City) {
			if _, err = s.store.GetCity(ctx, *city); err != nil {
				if errors.Is(err, model.ErrNotFound) {
					return model.Invalid("city", "city not found")
				}
				return errors.Wrap(err, "load city")
			}
		}
		if !sameID(city, a.City) {
			a.Area = nil
		}
		a.City = city
	}
	if in.Area != nil {
		area, err := parseOptionalID("area", *in.Area)
		if err != nil {
			return err
		}
		a.Area = area
	}
	if a.Area != nil {
		area, err := s.store.GetArea(ctx, *a.Area)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.Invalid("area", "area not found")
			}
			return errors.Wrap(err, "load area")
		}
		switch {
		case a.City == nil:
			a.City = &area.City
		case *a.City != area.City:
			return model.Invalid("area", "area does not belong to the city")
		}
	}

	if in.Location != nil {
		if err := in.Location.Validate("location"); err != nil {
			return err
		}
		a.Location = in.Location
	}

	return nil
}

func applyArticleFlags(u *model.User, a *model.Article, in *dto.ArticleInput) error {
	if in.Tags != nil {
		tags, err := sanitizeTags(in.Tags)
		if err != nil {
			return err
		}
		a.Tags = tags
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	if in.FeaturedImage != nil {
		a.FeaturedImage = strings.TrimSpace(*in.FeaturedImage)
	}
	if in.Media != nil {
		a.Media = in.Media
	}
	if in.SourceLanguage != "" {
		a.SourceLanguage = i18n.NormalizeCode(in.SourceLanguage)
	}

	if in.IsFeatured != nil || in.IsBreaking != nil {
		if !u.IsAdmin() {
			return errors.Wrap(model.ErrForbidden, "only admins may feature articles")
		}
		if in.IsFeatured != nil {
			a.IsFeatured = *in.IsFeatured
		}
		if in.IsBreaking != nil {
			a.IsBreaking = *in.IsBreaking
		}
	}
	return nil
}

// Create a draft article authored by u
func (s *Articles) Create(ctx context.Context, u *model.User, in *dto.ArticleInput) (*model.Article, error) {
	if !u.CanWrite() {
		return nil, errors.Wrap(model.ErrForbidden, "only reporters may write articles")
	}

	def := s.languages.DefaultCode(ctx)
	ts := now()
	a := &model.Article{
		Author:    u.ID,
		Status:    model.ArticleStatusDraft,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := s.applyText(a, in, def); err != nil {
		return nil, err
	}
	if err := s.applyRefs(ctx, u, a, in); err != nil {
		return nil, err
	}
	if err := applyArticleFlags(u, a, in); err != nil {
		return nil, err
	}
	if a.SourceLanguage == "" {
		a.SourceLanguage = def
	}

	var err error
	if a.Slug, err = uniqueSlug(ctx, i18n.SlugSource(a.Title, def), "article",
		func(ctx context.Context, slug string) (bool, error) {
			return s.store.ArticleSlugTaken(ctx, slug, primitive.NilObjectID)
		}); err != nil {
		return nil, err
	}
	if err = s.store.InsertArticle(ctx, a); err != nil {
		return nil, err
	}

	if err = s.store.IncUserArticles(ctx, u.ID, 1); err != nil {
		s.logger.Warn("inc articles count", zap.String("user", u.ID.Hex()), zap.Error(err))
	}
	s.logger.Info("article created",
		zap.String("article", a.ID.Hex()),
		zap.String("author", u.ID.Hex()))
	return a, nil
}

// editable load the article u may change: its author while draft or
// archived, or an admin
func (s *Articles) editable(ctx context.Context, u *model.User, id primitive.ObjectID) (*model.Article, error) {
	a, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = canEdit(u, a); err != nil {
		return nil, err
	}
	return a, nil
}

func canEdit(u *model.User, a *model.Article) error {
	switch {
	case u.IsAdmin():
		return nil
	case !a.IsOwnedBy(u.ID):
		return errors.Wrap(model.ErrForbidden, "not the author")
	case !a.Status.Editable():
		return errors.Wrapf(model.ErrForbidden, "article is %s", a.Status)
	default:
		return nil
	}
}

// Update change the content of an article
func (s *Articles) Update(ctx context.Context, u *model.User,
	id primitive.ObjectID, in *dto.ArticleInput) (*model.Article, error) {
	a, err := s.editable(ctx, u, id)
	if err != nil {
		return nil, err
	}

	def := s.languages.DefaultCode(ctx)
	slugSource := i18n.SlugSource(a.Title, def)
	if err = s.applyText(a, in, def); err != nil {
		return nil, err
	}
	if err = s.applyRefs(ctx, u, a, in); err != nil {
		return nil, err
	}
	if err = applyArticleFlags(u, a, in); err != nil {
		return nil, err
	}

	// published links keep their slug
	if a.Status != model.ArticleStatusPublished && i18n.SlugSource(a.Title, def) != slugSource {
		if a.Slug, err = uniqueSlug(ctx, i18n.SlugSource(a.Title, def), "article",
			func(ctx context.Context, slug string) (bool, error) {
				return s.store.ArticleSlugTaken(ctx, slug, a.ID)
			}); err != nil {
			return nil, err
		}
	}

	a.UpdatedAt = now()
	if err = s.store.UpdateArticleContent(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete remove an article with its engagement and comments. Authors may only
// delete their drafts.
func (s *Articles) Delete(ctx context.Context, u *model.User, id primitive.ObjectID) error {
	a, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return err
	}
	if !u.IsAdmin() {
		if !a.IsOwnedBy(u.ID) {
			return errors.Wrap(model.ErrForbidden, "not the author")
		}
		if a.Status != model.ArticleStatusDraft {
			return errors.Wrapf(model.ErrForbidden, "article is %s", a.Status)
		}
	}

	if err = s.store.DeleteArticle(ctx, id); err != nil {
		return err
	}
	if err = s.store.DeleteArticleEngagements(ctx, id); err != nil {
		return errors.Wrap(err, "delete engagements")
	}
	if err = s.store.DeleteArticleComments(ctx, id); err != nil {
		return errors.Wrap(err, "delete comments")
	}
	if err = s.store.IncUserArticles(ctx, a.Author, -1); err != nil {
		s.logger.Warn("dec articles count", zap.String("user", a.Author.Hex()), zap.Error(err))
	}

	s.logger.Info("article deleted",
		zap.String("article", id.Hex()),
		zap.String("by", u.ID.Hex()))
	return nil
}

// Transition apply a workflow action, note is kept as review note on reject
func (s *Articles) Transition(ctx context.Context, u *model.User,
	id primitive.ObjectID, action model.WorkflowAction, note string) (*model.Article, error) {
	a, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}

	to, err := model.NextStatus(a.Status, action)
	if err != nil {
		if errors.Is(err, model.ErrInvalidTransition) {
			return nil, errors.Wrapf(err, "cannot %s a %s article", action, a.Status)
		}
		return nil, err
	}
	switch {
	case u.IsAdmin():
	case action.AdminOnly():
		return nil, errors.Wrapf(model.ErrForbidden, "only admins may %s", action)
	case !a.IsOwnedBy(u.ID):
		return nil, errors.Wrap(model.ErrForbidden, "not the author")
	}

	ts := now()
	set := bson.M{"status": to, "updated_at": ts}
	switch action {
	case model.ActionApprove:
		if a.PublishedAt == nil {
			a.PublishedAt = &ts
		}
		a.ReviewedBy = &u.ID
		a.ReviewNote = ""
		set["published_at"] = a.PublishedAt
		set["reviewed_by"] = a.ReviewedBy
		set["review_note"] = ""
	case model.ActionReject:
		a.ReviewedBy = &u.ID
		a.ReviewNote = strings.TrimSpace(note)
		set["reviewed_by"] = a.ReviewedBy
		set["review_note"] = a.ReviewNote
	}

	if err = s.store.TransitionArticle(ctx, a.ID, a.Status, set); err != nil {
		return nil, err
	}

	s.logger.Info("article transition",
		zap.String("article", a.ID.Hex()),
		zap.String("action", string(action)),
		zap.String("from", string(a.Status)),
		zap.String("to", string(to)))
	a.Status = to
	a.UpdatedAt = ts
	return a, nil
}
