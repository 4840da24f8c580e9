package service

import (
	"context"
	"math"
	"slices"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/Laisky/multilingual-news/internal/library/i18n"
	"github.com/Laisky/multilingual-news/internal/web/news/dao"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

func init() {
	bcryptCost = bcrypt.MinCost
}

// clone deep copies v through bson so the fake never shares memory with callers
func clone[T any](v *T) *T {
	raw, err := bson.Marshal(v)
	if err != nil {
		panic(err)
	}
	out := new(T)
	if err = bson.Unmarshal(raw, out); err != nil {
		panic(err)
	}
	return out
}

func cloneAll[T any](vs []*T) []*T {
	out := make([]*T, 0, len(vs))
	for _, v := range vs {
		out = append(out, clone(v))
	}
	return out
}

func paginate[T any](items []*T, p dao.Page) ([]*T, int64) {
	total := int64(len(items))
	start := min(int(p.Skip()), len(items))
	end := len(items)
	if p.Limit > 0 {
		end = min(start+p.Limit, len(items))
	}
	return items[start:end], total
}

func notFound(what string) error {
	return errors.Wrapf(model.ErrNotFound, "%s not found", what)
}

// distance in meters between two lng/lat points
func distance(aLng, aLat, bLng, bLat float64) float64 {
	const earth = 6371000
	rad := math.Pi / 180
	dLat := (bLat - aLat) * rad
	dLng := (bLng - aLng) * rad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(aLat*rad)*math.Cos(bLat*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earth * math.Asin(math.Sqrt(h))
}

// fakeStore in-memory replacement of dao.News
type fakeStore struct {
	mu sync.Mutex

	languages   []*model.Language
	users       []*model.User
	categories  []*model.Category
	cities      []*model.City
	areas       []*model.Area
	articles    []*model.Article
	engagements []*model.Engagement
	comments    []*model.Comment
	scraped     []*model.ScrapedArticle

	// containing is returned by AreaContaining when set
	containing *model.Area
	// languageLoads counts ListLanguages calls
	languageLoads int
	// afterListLanguages runs once ListLanguages has read the languages
	afterListLanguages func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func find[T any](items []*T, match func(*T) bool) (int, *T) {
	for i, v := range items {
		if match(v) {
			return i, v
		}
	}
	return -1, nil
}

// ---------------------------------------------
// languages
// ---------------------------------------------

func (f *fakeStore) ListLanguages(_ context.Context, activeOnly bool) ([]*model.Language, error) {
	f.mu.Lock()
	f.languageLoads++

	var out []*model.Language
	for _, l := range f.languages {
		if activeOnly && !l.IsActive {
			continue
		}
		out = append(out, clone(l))
	}
	hook := f.afterListLanguages
	f.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	if hook != nil {
		hook()
	}
	return out, nil
}

func (f *fakeStore) CountLanguages(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.languages)), nil
}

func (f *fakeStore) GetLanguage(_ context.Context, id primitive.ObjectID) (*model.Language, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, l := find(f.languages, func(l *model.Language) bool { return l.ID == id }); l != nil {
		return clone(l), nil
	}
	return nil, notFound("language")
}

func (f *fakeStore) GetLanguageByCode(_ context.Context, code string) (*model.Language, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, l := find(f.languages, func(l *model.Language) bool { return l.Code == code }); l != nil {
		return clone(l), nil
	}
	return nil, notFound("language")
}

func (f *fakeStore) InsertLanguage(_ context.Context, lang *model.Language) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, l := find(f.languages, func(l *model.Language) bool { return l.Code == lang.Code }); l != nil {
		return errors.Wrap(model.ErrConflict, "duplicate code")
	}
	lang.ID = primitive.NewObjectID()
	f.languages = append(f.languages, clone(lang))
	return nil
}

func (f *fakeStore) UpdateLanguage(_ context.Context, lang *model.Language) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, _ := find(f.languages, func(l *model.Language) bool { return l.ID == lang.ID })
	if i < 0 {
		return notFound("language")
	}
	f.languages[i] = clone(lang)
	return nil
}

func (f *fakeStore) DeleteLanguage(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, _ := find(f.languages, func(l *model.Language) bool { return l.ID == id })
	if i < 0 {
		return notFound("language")
	}
	f.languages = slices.Delete(f.languages, i, i+1)
	return nil
}

func (f *fakeStore) ClearDefaultLanguages(_ context.Context, keep primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.languages {
		if l.ID != keep {
			l.IsDefault = false
		}
	}
	return nil
}

func (f *fakeStore) MarkDefaultLanguage(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, l := find(f.languages, func(l *model.Language) bool { return l.ID == id })
	if l == nil {
		return notFound("language")
	}
	l.IsDefault = true
	l.IsActive = true
	return nil
}

func (f *fakeStore) ReorderLanguages(_ context.Context, ids []primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for order, id := range ids {
		if _, l := find(f.languages, func(l *model.Language) bool { return l.ID == id }); l != nil {
			l.Order = order
		}
	}
	return nil
}

// ---------------------------------------------
// users
// ---------------------------------------------

func (f *fakeStore) InsertUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, old := find(f.users, func(o *model.User) bool { return o.Email == u.Email }); old != nil {
		return errors.Wrap(model.ErrConflict, "duplicate email")
	}
	u.ID = primitive.NewObjectID()
	f.users = append(f.users, clone(u))
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, id primitive.ObjectID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, u := find(f.users, func(u *model.User) bool { return u.ID == id }); u != nil {
		return clone(u), nil
	}
	return nil, notFound("user")
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, u := find(f.users, func(u *model.User) bool { return u.Email == email }); u != nil {
		return clone(u), nil
	}
	return nil, notFound("user")
}

func (f *fakeStore) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[primitive.ObjectID]*model.User{}
	for _, u := range f.users {
		if slices.Contains(ids, u.ID) {
			out[u.ID] = clone(u)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, old := find(f.users, func(o *model.User) bool { return o.ID == u.ID })
	if i < 0 {
		return notFound("user")
	}
	updated := clone(u)
	updated.ArticlesCount = old.ArticlesCount
	updated.LastLoginAt = old.LastLoginAt
	f.users[i] = updated
	return nil
}

func (f *fakeStore) TouchLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, u := find(f.users, func(u *model.User) bool { return u.ID == id })
	if u == nil {
		return notFound("user")
	}
	u.LastLoginAt = &at
	return nil
}

func (f *fakeStore) IncUserArticles(_ context.Context, id primitive.ObjectID, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, u := find(f.users, func(u *model.User) bool { return u.ID == id })
	if u == nil {
		return notFound("user")
	}
	u.ArticlesCount += delta
	return nil
}

func (f *fakeStore) DeleteUser(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, _ := find(f.users, func(u *model.User) bool { return u.ID == id })
	if i < 0 {
		return notFound("user")
	}
	f.users = slices.Delete(f.users, i, i+1)
	return nil
}

func (f *fakeStore) ListUsers(_ context.Context, q dao.UserQuery) ([]*model.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.User
	for _, u := range f.users {
		if q.Role != "" && u.Role != q.Role {
			continue
		}
		if q.Search != "" &&
			!strings.Contains(strings.ToLower(u.Name), strings.ToLower(q.Search)) &&
			!strings.Contains(u.Email, strings.ToLower(q.Search)) {
			continue
		}
		out = append(out, clone(u))
	}
	page, total := paginate(out, q.Page)
	return page, total, nil
}

// ---------------------------------------------
// categories
// ---------------------------------------------

func (f *fakeStore) InsertCategory(_ context.Context, c *model.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = primitive.NewObjectID()
	f.categories = append(f.categories, clone(c))
	return nil
}

func (f *fakeStore) GetCategory(_ context.Context, id primitive.ObjectID) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, c := find(f.categories, func(c *model.Category) bool { return c.ID == id }); c != nil {
		return clone(c), nil
	}
	return nil, notFound("category")
}

func (f *fakeStore) GetCategoryBySlug(_ context.Context, slug string) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, c := find(f.categories, func(c *model.Category) bool { return c.Slug == slug }); c != nil {
		return clone(c), nil
	}
	return nil, notFound("category")
}

func (f *fakeStore) ListCategories(_ context.Context, q dao.CategoryQuery) ([]*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Category
	for _, c := range f.categories {
		switch {
		case q.Parent != nil && (c.Parent == nil || *c.Parent != *q.Parent):
			continue
		case q.RootOnly && c.Parent != nil:
			continue
		case q.ActiveOnly && !c.IsActive:
			continue
		}
		out = append(out, clone(c))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Slug < out[j].Slug
	})
	return out, nil
}

func (f *fakeStore) ListDescendants(_ context.Context, id primitive.ObjectID) ([]*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Category
	for _, c := range f.categories {
		if c.HasAncestor(id) {
			out = append(out, clone(c))
		}
	}
	return out, nil
}

func (f *fakeStore) CountChildren(_ context.Context, id primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, c := range f.categories {
		if c.Parent != nil && *c.Parent == id {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CategorySlugTaken(_ context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, c := find(f.categories, func(c *model.Category) bool { return c.Slug == slug && c.ID != exclude })
	return c != nil, nil
}

func (f *fakeStore) UpdateCategory(_ context.Context, c *model.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, _ := find(f.categories, func(o *model.Category) bool { return o.ID == c.ID })
	if i < 0 {
		return notFound("category")
	}
	f.categories[i] = clone(c)
	return nil
}

func (f *fakeStore) SetCategoryAncestors(_ context.Context, id primitive.ObjectID, ancestors []model.Ancestor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, c := find(f.categories, func(c *model.Category) bool { return c.ID == id })
	if c == nil {
		return notFound("category")
	}
	c.Ancestors = ancestors
	return nil
}

func (f *fakeStore) DeleteCategory(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, _ := find(f.categories, func(c *model.Category) bool { return c.ID == id })
	if i < 0 {
		return notFound("category")
	}
	f.categories = slices.Delete(f.categories, i, i+1)
	return nil
}

func (f *fakeStore) CountArticlesInCategory(_ context.Context, category primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, a := range f.articles {
		if a.Category == category || slices.Contains(a.CategoryAncestors, category) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) RefreshCategoryAncestors(_ context.Context,
	category primitive.ObjectID, ancestors []primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.articles {
		if a.Category == category {
			a.CategoryAncestors = slices.Clone(ancestors)
		}
	}
	return nil
}

// ---------------------------------------------
// locations
// ---------------------------------------------

func (f *fakeStore) InsertCity(_ context.Context, c *model.City) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = primitive.NewObjectID()
	f.cities = append(f.cities, clone(c))
	return nil
}

func (f *fakeStore) GetCity(_ context.Context, id primitive.ObjectID) (*model.City, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, c := find(f.cities, func(c *model.City) bool { return c.ID == id }); c != nil {
		return clone(c), nil
	}
	return nil, notFound("city")
}

func (f *fakeStore) GetCityBySlug(_ context.Context, slug string) (*model.City, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, c := find(f.cities, func(c *model.City) bool { return c.Slug == slug }); c != nil {
		return clone(c), nil
	}
	return nil, notFound("city")
}

func (f *fakeStore) ListCities(_ context.Context, activeOnly bool) ([]*model.City, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.City
	for _, c := range f.cities {
		if !activeOnly || c.IsActive {
			out = append(out, clone(c))
		}
	}
	return out, nil
}

func nearby[T any](items []*T, center func(*T) *model.Point, keep func(*T) bool, q dao.NearQuery) []*T {
	type hit struct {
		v *T
		d float64
	}
	var hits []hit
	for _, v := range items {
		p := center(v)
		if p == nil || !keep(v) {
			continue
		}
		d := distance(q.Lng, q.Lat, p.Lng(), p.Lat())
		if q.MaxDistance > 0 && d > q.MaxDistance {
			continue
		}
		hits = append(hits, hit{v: v, d: d})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].d < hits[j].d })

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	var out []*T
	for i := 0; i < len(hits) && i < limit; i++ {
		out = append(out, clone(hits[i].v))
	}
	return out
}

func (f *fakeStore) NearbyCities(_ context.Context, q dao.NearQuery) ([]*model.City, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return nearby(f.cities,
		func(c *model.City) *model.Point { return c.Center },
		func(c *model.City) bool { return !q.ActiveOnly || c.IsActive },
		q), nil
}

func (f *fakeStore) CitySlugTaken(_ context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, c := find(f.cities, func(c *model.City) bool { return c.Slug == slug && c.ID != exclude })
	return c != nil, nil
}

func (f *fakeStore) UpdateCity(_ context.Context, c *model.City) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, _ := find(f.cities, func(o *model.City) bool { return o.ID == c.ID })
	if i < 0 {
		return notFound("city")
	}
	f.cities[i] = clone(c)
	return nil
}

func (f *fakeStore) DeleteCity(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, _ := find(f.cities, func(c *model.City) bool { return c.ID == id })
	if i < 0 {
		return notFound("city")
	}
	f.cities = slices.Delete(f.cities, i, i+1)
	return nil
}

func (f *fakeStore) CountAreas(_ context.Context, city primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, a := range f.areas {
		if a.City == city {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) InsertArea(_ context.Context, a *model.Area) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = primitive.NewObjectID()
	f.areas = append(f.areas, clone(a))
	return nil
}

func (f *fakeStore) GetArea(_ context.Context, id primitive.ObjectID) (*model.Area, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, a := find(f.areas, func(a *model.Area) bool { return a.ID == id }); a != nil {
		return clone(a), nil
	}
	return nil, notFound("area")
}

func (f *fakeStore) ListAreas(_ context.Context, city primitive.ObjectID, activeOnly bool) ([]*model.Area, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Area
	for _, a := range f.areas {
		if a.City == city && (!activeOnly || a.IsActive) {
			out = append(out, clone(a))
		}
	}
	return out, nil
}

func (f *fakeStore) NearbyAreas(_ context.Context, q dao.NearQuery) ([]*model.Area, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return nearby(f.areas,
		func(a *model.Area) *model.Point { return a.Center },
		func(a *model.Area) bool {
			return (!q.ActiveOnly || a.IsActive) && (q.City == nil || a.City == *q.City)
		},
		q), nil
}

func (f *fakeStore) AreaContaining(_ context.Context, _, _ float64) (*model.Area, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.containing == nil {
		return nil, notFound("area")
	}
	return clone(f.containing), nil
}

func (f *fakeStore) AreaSlugTaken(_ context.Context,
	city primitive.ObjectID, slug string, exclude primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, a := find(f.areas, func(a *model.Area) bool {
		return a.City == city && a.Slug == slug && a.ID != exclude
	})
	return a != nil, nil
}

func (f *fakeStore) UpdateArea(_ context.Context, a *model.Area) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, _ := find(f.areas, func(o *model.Area) bool { return o.ID == a.ID })
	if i < 0 {
		return notFound("area")
	}
	f.areas[i] = clone(a)
	return nil
}

func (f *fakeStore) DeleteArea(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, _ := find(f.areas, func(a *model.Area) bool { return a.ID == id })
	if i < 0 {
		return notFound("area")
	}
	f.areas = slices.Delete(f.areas, i, i+1)
	return nil
}

// ---------------------------------------------
// articles
// ---------------------------------------------

func (f *fakeStore) article(id primitive.ObjectID) *model.Article {
	_, a := find(f.articles, func(a *model.Article) bool { return a.ID == id })
	return a
}

func (f *fakeStore) InsertArticle(_ context.Context, a *model.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, old := find(f.articles, func(o *model.Article) bool { return o.Slug == a.Slug }); old != nil {
		return errors.Wrap(model.ErrConflict, "duplicate slug")
	}
	a.ID = primitive.NewObjectID()
	f.articles = append(f.articles, clone(a))
	return nil
}

func (f *fakeStore) GetArticle(_ context.Context, id primitive.ObjectID) (*model.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a := f.article(id); a != nil {
		return clone(a), nil
	}
	return nil, notFound("article")
}

func (f *fakeStore) GetArticleBySlug(_ context.Context, slug string) (*model.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, a := find(f.articles, func(a *model.Article) bool { return a.Slug == slug }); a != nil {
		return clone(a), nil
	}
	return nil, notFound("article")
}

func (f *fakeStore) GetArticlesByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*model.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[primitive.ObjectID]*model.Article{}
	for _, a := range f.articles {
		if slices.Contains(ids, a.ID) {
			out[a.ID] = clone(a)
		}
	}
	return out, nil
}

func matchArticle(a *model.Article, q dao.ArticleQuery) bool {
	switch {
	case len(q.Status) != 0 && !slices.Contains(q.Status, a.Status):
		return false
	case q.Category != nil && a.Category != *q.Category && !slices.Contains(a.CategoryAncestors, *q.Category):
		return false
	case q.City != nil && !sameID(q.City, a.City):
		return false
	case q.Area != nil && !sameID(q.Area, a.Area):
		return false
	case q.Author != nil && a.Author != *q.Author:
		return false
	case q.Tag != "" && !slices.Contains(a.Tags, q.Tag):
		return false
	case q.Featured != nil && a.IsFeatured != *q.Featured:
		return false
	case q.Breaking != nil && a.IsBreaking != *q.Breaking:
		return false
	}

	if q.Search != "" {
		for _, lang := range q.SearchLangs {
			if strings.Contains(strings.ToLower(a.Title[lang]), strings.ToLower(q.Search)) {
				return true
			}
		}
		return false
	}
	return true
}

func (f *fakeStore) ListArticles(_ context.Context, q dao.ArticleQuery) ([]*model.Article, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Article
	for _, a := range f.articles {
		if matchArticle(a, q) {
			out = append(out, clone(a))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		switch q.Sort {
		case dao.SortPopular:
			return out[i].Engagement.Views > out[j].Engagement.Views
		case dao.SortUpdated:
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		default:
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
	})
	page, total := paginate(out, q.Page)
	return page, total, nil
}

func (f *fakeStore) NearbyArticles(_ context.Context, q dao.NearQuery) ([]*model.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return nearby(f.articles,
		func(a *model.Article) *model.Point { return a.Location },
		func(a *model.Article) bool { return a.Status == model.ArticleStatusPublished },
		q), nil
}

func (f *fakeStore) RelatedArticles(_ context.Context, a *model.Article, limit int) ([]*model.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Article
	for _, o := range f.articles {
		if o.ID == a.ID || o.Status != model.ArticleStatusPublished {
			continue
		}
		related := o.Category == a.Category
		for _, tag := range a.Tags {
			related = related || slices.Contains(o.Tags, tag)
		}
		if related && len(out) < limit {
			out = append(out, clone(o))
		}
	}
	return out, nil
}

func (f *fakeStore) ArticleSlugTaken(_ context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, a := find(f.articles, func(a *model.Article) bool { return a.Slug == slug && a.ID != exclude })
	return a != nil, nil
}

func (f *fakeStore) UpdateArticleContent(_ context.Context, a *model.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, old := find(f.articles, func(o *model.Article) bool { return o.ID == a.ID })
	if i < 0 {
		return notFound("article")
	}
	updated := clone(a)
	updated.Engagement = old.Engagement
	updated.Status = old.Status
	updated.Audio = old.Audio
	updated.PublishedAt = old.PublishedAt
	f.articles[i] = updated
	return nil
}

func (f *fakeStore) SetArticleTranslations(_ context.Context, a *model.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old := f.article(a.ID)
	if old == nil {
		return notFound("article")
	}
	c := clone(a)
	old.Title, old.Summary, old.Content, old.ContentHTML = c.Title, c.Summary, c.Content, c.ContentHTML
	old.UpdatedAt = c.UpdatedAt
	return nil
}

func (f *fakeStore) TransitionArticle(_ context.Context,
	id primitive.ObjectID, from model.ArticleStatus, set bson.M) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.article(id)
	if a == nil || a.Status != from {
		return errors.Wrapf(model.ErrInvalidTransition, "article is no longer %s", from)
	}

	a.Status = set["status"].(model.ArticleStatus)
	if v, ok := set["published_at"].(*time.Time); ok {
		a.PublishedAt = v
	}
	if v, ok := set["reviewed_by"].(*primitive.ObjectID); ok {
		a.ReviewedBy = v
	}
	if v, ok := set["review_note"].(string); ok {
		a.ReviewNote = v
	}
	return nil
}

func (f *fakeStore) IncArticleCounters(_ context.Context, id primitive.ObjectID, inc map[string]int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.article(id)
	if a == nil {
		return notFound("article")
	}
	for field, delta := range inc {
		switch field {
		case "engagement.views":
			a.Engagement.Views += delta
		case "engagement.likes":
			a.Engagement.Likes += delta
		case "engagement.dislikes":
			a.Engagement.Dislikes += delta
		case "engagement.shares":
			a.Engagement.Shares += delta
		case "engagement.comments_count":
			a.Engagement.CommentsCount += delta
		case "engagement.bookmarks":
			a.Engagement.Bookmarks += delta
		default:
			return errors.Errorf("unknown counter %q", field)
		}
	}
	return nil
}

func (f *fakeStore) SetArticleAudio(_ context.Context, id primitive.ObjectID, lang, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.article(id)
	if a == nil {
		return notFound("article")
	}
	if a.Audio == nil {
		a.Audio = map[string]string{}
	}
	a.Audio[lang] = url
	return nil
}

func (f *fakeStore) DeleteArticle(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, _ := find(f.articles, func(a *model.Article) bool { return a.ID == id })
	if i < 0 {
		return notFound("article")
	}
	f.articles = slices.Delete(f.articles, i, i+1)
	return nil
}

func (f *fakeStore) DeleteArticleEngagements(_ context.Context, article primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.engagements = slices.DeleteFunc(f.engagements, func(e *model.Engagement) bool { return e.Article == article })
	return nil
}

func (f *fakeStore) DeleteArticleComments(_ context.Context, article primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments = slices.DeleteFunc(f.comments, func(c *model.Comment) bool { return c.Article == article })
	return nil
}

func (f *fakeStore) EngagementStats(_ context.Context, top int) (*dao.EngagementTotals, []*model.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	totals := &dao.EngagementTotals{}
	var published []*model.Article
	for _, a := range f.articles {
		if a.Status != model.ArticleStatusPublished {
			continue
		}
		totals.Articles++
		totals.Views += a.Engagement.Views
		totals.Likes += a.Engagement.Likes
		totals.Dislikes += a.Engagement.Dislikes
		totals.Shares += a.Engagement.Shares
		totals.CommentsCount += a.Engagement.CommentsCount
		totals.Bookmarks += a.Engagement.Bookmarks
		published = append(published, clone(a))
	}
	sort.SliceStable(published, func(i, j int) bool {
		return published[i].Engagement.Views > published[j].Engagement.Views
	})
	if len(published) > top {
		published = published[:top]
	}
	return totals, published, nil
}

// ---------------------------------------------
// engagement
// ---------------------------------------------

func sameReactor(e *model.Engagement, actor model.Actor) bool {
	switch actor.Kind() {
	case model.ActorUser:
		return e.ActorKind == model.ActorUser && e.User != nil && *e.User == *actor.UserID
	case model.ActorSession:
		return e.ActorKind == model.ActorSession && e.SessionID == actor.SessionID
	default:
		return false
	}
}

func (f *fakeStore) InsertEngagement(_ context.Context, e *model.Engagement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.Exclusive {
		actor := model.Actor{UserID: e.User, SessionID: e.SessionID}
		for _, o := range f.engagements {
			if o.Exclusive && o.Article == e.Article && o.Type == e.Type && sameReactor(o, actor) {
				return errors.Wrap(model.ErrConflict, "duplicate reaction")
			}
		}
	}
	e.ID = primitive.NewObjectID()
	f.engagements = append(f.engagements, clone(e))
	return nil
}

func (f *fakeStore) DeleteReaction(_ context.Context,
	article primitive.ObjectID, typ model.EngagementType, actor model.Actor) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if actor.Kind() == "" {
		return false, errors.Wrap(model.ErrUnauthorized, "no user or session")
	}
	i, _ := find(f.engagements, func(e *model.Engagement) bool {
		return e.Exclusive && e.Article == article && e.Type == typ && sameReactor(e, actor)
	})
	if i < 0 {
		return false, nil
	}
	f.engagements = slices.Delete(f.engagements, i, i+1)
	return true, nil
}

func (f *fakeStore) ActorReactions(_ context.Context,
	article primitive.ObjectID, actor model.Actor) (map[model.EngagementType]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[model.EngagementType]bool{}
	for _, e := range f.engagements {
		if e.Exclusive && e.Article == article && sameReactor(e, actor) {
			out[e.Type] = true
		}
	}
	return out, nil
}

func (f *fakeStore) CountRecentViews(_ context.Context,
	article primitive.ObjectID, actor model.Actor, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, e := range f.engagements {
		if e.Article != article || e.Type != model.EngagementView || e.CreatedAt.Before(since) {
			continue
		}
		switch {
		case actor.UserID != nil:
			if e.User != nil && *e.User == *actor.UserID {
				n++
			}
		case actor.SessionID != "":
			if e.SessionID == actor.SessionID {
				n++
			}
		case e.IP == actor.IP:
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ListBookmarks(_ context.Context,
	user primitive.ObjectID, page dao.Page) ([]primitive.ObjectID, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var marks []*model.Engagement
	for _, e := range f.engagements {
		if e.Type == model.EngagementBookmark && e.User != nil && *e.User == user {
			marks = append(marks, e)
		}
	}
	slices.Reverse(marks)
	marks, total := paginate(marks, page)

	ids := make([]primitive.ObjectID, 0, len(marks))
	for _, e := range marks {
		ids = append(ids, e.Article)
	}
	return ids, total, nil
}

// ---------------------------------------------
// comments
// ---------------------------------------------

func (f *fakeStore) InsertComment(_ context.Context, c *model.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = primitive.NewObjectID()
	f.comments = append(f.comments, clone(c))
	return nil
}

func (f *fakeStore) GetComment(_ context.Context, id primitive.ObjectID) (*model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, c := find(f.comments, func(c *model.Comment) bool { return c.ID == id }); c != nil {
		return clone(c), nil
	}
	return nil, notFound("comment")
}

func (f *fakeStore) ListArticleComments(_ context.Context,
	article primitive.ObjectID, status model.CommentStatus) ([]*model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Comment
	for _, c := range f.comments {
		if c.Article == article && c.Status == status {
			out = append(out, clone(c))
		}
	}
	return out, nil
}

func (f *fakeStore) ListComments(_ context.Context,
	status model.CommentStatus, page dao.Page) ([]*model.Comment, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Comment
	for _, c := range f.comments {
		if status == "" || c.Status == status {
			out = append(out, clone(c))
		}
	}
	slices.Reverse(out)
	items, total := paginate(out, page)
	return items, total, nil
}

func (f *fakeStore) UpdateCommentContent(_ context.Context, id primitive.ObjectID, content string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, c := find(f.comments, func(c *model.Comment) bool { return c.ID == id })
	if c == nil {
		return notFound("comment")
	}
	c.Content = content
	c.EditedAt = &at
	c.UpdatedAt = at
	return nil
}

func (f *fakeStore) SwapCommentStatus(_ context.Context,
	id primitive.ObjectID, from, to model.CommentStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, c := find(f.comments, func(c *model.Comment) bool { return c.ID == id && c.Status == from })
	if c == nil {
		return false, nil
	}
	c.Status = to
	return true, nil
}

func (f *fakeStore) ToggleCommentLike(_ context.Context, id, user primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, c := find(f.comments, func(c *model.Comment) bool { return c.ID == id })
	if c == nil {
		return false, notFound("comment")
	}
	if i := slices.Index(c.LikedBy, user); i >= 0 {
		c.LikedBy = slices.Delete(c.LikedBy, i, i+1)
		c.Likes--
		return false, nil
	}
	c.LikedBy = append(c.LikedBy, user)
	c.Likes++
	return true, nil
}

// ---------------------------------------------
// scraped
// ---------------------------------------------

func (f *fakeStore) UpsertScraped(_ context.Context, s *model.ScrapedArticle) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, old := find(f.scraped, func(o *model.ScrapedArticle) bool { return o.SourceURL == s.SourceURL }); old != nil {
		old.Title, old.Summary, old.Content = s.Title, s.Summary, s.Content
		old.UpdatedAt = s.UpdatedAt
		return false, nil
	}
	s.ID = primitive.NewObjectID()
	s.Status = model.ScrapedNew
	f.scraped = append(f.scraped, clone(s))
	return true, nil
}

func (f *fakeStore) GetScraped(_ context.Context, id primitive.ObjectID) (*model.ScrapedArticle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, s := find(f.scraped, func(s *model.ScrapedArticle) bool { return s.ID == id }); s != nil {
		return clone(s), nil
	}
	return nil, notFound("scraped article")
}

func (f *fakeStore) GetScrapedByURL(_ context.Context, url string) (*model.ScrapedArticle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, s := find(f.scraped, func(s *model.ScrapedArticle) bool { return s.SourceURL == url }); s != nil {
		return clone(s), nil
	}
	return nil, notFound("scraped article")
}

func (f *fakeStore) ListScraped(_ context.Context, q dao.ScrapedQuery) ([]*model.ScrapedArticle, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.ScrapedArticle
	for _, s := range f.scraped {
		if (q.Status == "" || s.Status == q.Status) && (q.Source == "" || s.SourceName == q.Source) {
			out = append(out, clone(s))
		}
	}
	items, total := paginate(out, q.Page)
	return items, total, nil
}

func (f *fakeStore) SetScrapedStatus(_ context.Context,
	id primitive.ObjectID, status model.ScrapedStatus, imported *primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, s := find(f.scraped, func(s *model.ScrapedArticle) bool { return s.ID == id })
	if s == nil {
		return notFound("scraped article")
	}
	s.Status = status
	if imported != nil {
		s.Imported = imported
	}
	return nil
}

func (f *fakeStore) DeleteScraped(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, _ := find(f.scraped, func(s *model.ScrapedArticle) bool { return s.ID == id })
	if i < 0 {
		return notFound("scraped article")
	}
	f.scraped = slices.Delete(f.scraped, i, i+1)
	return nil
}

// ---------------------------------------------
// fixtures
// ---------------------------------------------

var (
	_ languageStore    = (*fakeStore)(nil)
	_ userStore        = (*fakeStore)(nil)
	_ categoryStore    = (*fakeStore)(nil)
	_ locationStore    = (*fakeStore)(nil)
	_ articleStore     = (*fakeStore)(nil)
	_ engagementStore  = (*fakeStore)(nil)
	_ commentStore     = (*fakeStore)(nil)
	_ translationStore = (*fakeStore)(nil)
	_ scrapedStore     = (*fakeStore)(nil)
)

// fixture a store seeded with en (default) and hi and the services on top of it
type fixture struct {
	store     *fakeStore
	languages *Languages
	ctx       context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newFakeStore()
	ctx := context.Background()
	ts := now()
	store.languages = []*model.Language{
		{ID: primitive.NewObjectID(), Code: "en", Name: "English", NativeName: "English",
			IsActive: true, IsDefault: true, Order: 0, Direction: model.DirectionLTR, CreatedAt: ts, UpdatedAt: ts},
		{ID: primitive.NewObjectID(), Code: "hi", Name: "Hindi", NativeName: "हिन्दी",
			IsActive: true, Order: 1, Direction: model.DirectionLTR, CreatedAt: ts, UpdatedAt: ts},
	}

	return &fixture{
		store:     store,
		languages: NewLanguages(glog.Shared, store, "en", time.Minute),
		ctx:       ctx,
	}
}

func (fx *fixture) user(t *testing.T, role model.Role, assigned ...primitive.ObjectID) *model.User {
	t.Helper()
	u := &model.User{
		Name:               string(role),
		Email:              primitive.NewObjectID().Hex() + "@example.com",
		Role:               role,
		AssignedCategories: assigned,
		IsActive:           true,
		CreatedAt:          now(),
		UpdatedAt:          now(),
	}
	require.NoError(t, fx.store.InsertUser(fx.ctx, u))
	return u
}

func (fx *fixture) category(t *testing.T, name string, parent *model.Category) *model.Category {
	t.Helper()
	c := &model.Category{
		Name:      i18n.Text{"en": name},
		Slug:      i18n.Slugify(name),
		IsActive:  true,
		Ancestors: []model.Ancestor{},
	}
	if parent != nil {
		c.Parent = &parent.ID
		c.Ancestors = parent.Path()
	}
	require.NoError(t, fx.store.InsertCategory(fx.ctx, c))
	return c
}

// article insert an article in status directly
func (fx *fixture) article(t *testing.T, author *model.User, category *model.Category,
	status model.ArticleStatus) *model.Article {
	t.Helper()
	id := primitive.NewObjectID()
	a := &model.Article{
		Title:             i18n.Text{"en": "Story " + id.Hex()},
		Content:           i18n.Text{"en": "<p>Body</p>"},
		Format:            model.ContentFormatHTML,
		Slug:              "story-" + id.Hex(),
		Author:            author.ID,
		Category:          category.ID,
		CategoryAncestors: category.AncestorIDs(),
		Tags:              []string{},
		Status:            status,
		CreatedAt:         now(),
		UpdatedAt:         now(),
	}
	if status == model.ArticleStatusPublished {
		ts := now()
		a.PublishedAt = &ts
	}
	require.NoError(t, fx.store.InsertArticle(fx.ctx, a))
	return a
}
