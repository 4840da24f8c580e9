package dto

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/multilingual-news/internal/library/i18n"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

// Paged one page of a listing
type Paged[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int64 `json:"pages"`
}

// NewPaged wrap items of page
func NewPaged[T any](items []T, total int64, page, limit int) *Paged[T] {
	if items == nil {
		items = []T{}
	}

	var pages int64
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return &Paged[T]{Items: items, Total: total, Page: page, Limit: limit, Pages: pages}
}

// MapPaged convert the items of p
func MapPaged[T, R any](p *Paged[T], fn func(T) R) *Paged[R] {
	items := make([]R, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, fn(it))
	}
	return &Paged[R]{Items: items, Total: p.Total, Page: p.Page, Limit: p.Limit, Pages: p.Pages}
}

// AuthResponse token and the signed in user
type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

// Localizer resolves multilingual fields for one response
type Localizer struct {
	Lang    string
	Default string
}

// Text resolve one multilingual field
func (l Localizer) Text(t i18n.Text) string {
	return i18n.Resolve(t, l.Lang, l.Default)
}

// AuthorView public author info
type AuthorView struct {
	ID     primitive.ObjectID `json:"id"`
	Name   string             `json:"name"`
	Avatar string             `json:"avatar,omitempty"`
	Role   model.Role         `json:"role,omitempty"`
}

// Author public view of u, nil when u is nil
func Author(u *model.User) *AuthorView {
	if u == nil {
		return nil
	}
	return &AuthorView{ID: u.ID, Name: u.Name, Avatar: u.Avatar, Role: u.Role}
}

// CrumbView one breadcrumb step
type CrumbView struct {
	ID   primitive.ObjectID `json:"id"`
	Slug string             `json:"slug"`
	Name string             `json:"name"`
}

// CategoryView localized category
type CategoryView struct {
	ID          primitive.ObjectID  `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Slug        string              `json:"slug"`
	Parent      *primitive.ObjectID `json:"parent,omitempty"`
	Icon        string              `json:"icon,omitempty"`
	Color       string              `json:"color,omitempty"`
	Order       int                 `json:"order"`
	IsActive    bool                `json:"isActive"`
	Breadcrumb  []CrumbView         `json:"breadcrumb,omitempty"`
	Children    []*CategoryView     `json:"children,omitempty"`
}

// Category localize c, withCrumbs adds the breadcrumb ending with c
func (l Localizer) Category(c *model.Category, withCrumbs bool) *CategoryView {
	if c == nil {
		return nil
	}

	v := &CategoryView{
		ID:          c.ID,
		Name:        l.Text(c.Name),
		Description: l.Text(c.Description),
		Slug:        c.Slug,
		Parent:      c.Parent,
		Icon:        c.Icon,
		Color:       c.Color,
		Order:       c.Order,
		IsActive:    c.IsActive,
	}
	if withCrumbs {
		for _, a := range c.Path() {
			v.Breadcrumb = append(v.Breadcrumb, CrumbView{ID: a.ID, Slug: a.Slug, Name: l.Text(a.Name)})
		}
	}
	return v
}

// CategoryNode a category with its children, built by the service
type CategoryNode struct {
	*model.Category
	Children []*CategoryNode
}

// Tree localize a category tree
func (l Localizer) Tree(nodes []*CategoryNode) []*CategoryView {
	views := make([]*CategoryView, 0, len(nodes))
	for _, n := range nodes {
		v := l.Category(n.Category, false)
		v.Children = l.Tree(n.Children)
		views = append(views, v)
	}
	return views
}

// CityView localized city
type CityView struct {
	ID       primitive.ObjectID `json:"id"`
	Name     string             `json:"name"`
	State    string             `json:"state,omitempty"`
	Slug     string             `json:"slug"`
	Center   *model.Point       `json:"center"`
	Boundary *model.Polygon     `json:"boundary,omitempty"`
	IsActive bool               `json:"isActive"`
	Order    int                `json:"order"`
}

// City localize c
func (l Localizer) City(c *model.City) *CityView {
	if c == nil {
		return nil
	}
	return &CityView{
		ID:       c.ID,
		Name:     l.Text(c.Name),
		State:    l.Text(c.State),
		Slug:     c.Slug,
		Center:   c.Center,
		Boundary: c.Boundary,
		IsActive: c.IsActive,
		Order:    c.Order,
	}
}

// AreaView localized area
type AreaView struct {
	ID       primitive.ObjectID `json:"id"`
	Name     string             `json:"name"`
	Slug     string             `json:"slug"`
	City     primitive.ObjectID `json:"city"`
	Center   *model.Point       `json:"center"`
	Boundary *model.Polygon     `json:"boundary,omitempty"`
	Pincode  string             `json:"pincode,omitempty"`
	IsActive bool               `json:"isActive"`
}

// Area localize a
func (l Localizer) Area(a *model.Area) *AreaView {
	if a == nil {
		return nil
	}
	return &AreaView{
		ID:       a.ID,
		Name:     l.Text(a.Name),
		Slug:     a.Slug,
		City:     a.City,
		Center:   a.Center,
		Boundary: a.Boundary,
		Pincode:  a.Pincode,
		IsActive: a.IsActive,
	}
}

// ArticleRefs documents referenced by articles, loaded in batch
type ArticleRefs struct {
	Authors    map[primitive.ObjectID]*model.User
	Categories map[primitive.ObjectID]*model.Category
}

// ArticleView localized article
type ArticleView struct {
	ID                 primitive.ObjectID  `json:"id"`
	Slug               string              `json:"slug"`
	Lang               string              `json:"lang"`
	Title              string              `json:"title"`
	Summary            string              `json:"summary"`
	Content            string              `json:"content,omitempty"`
	Format             model.ContentFormat `json:"format"`
	AvailableLanguages []string            `json:"availableLanguages"`
	AudioURL           string              `json:"audioUrl,omitempty"`

	Author   *AuthorView         `json:"author,omitempty"`
	Category *CategoryView       `json:"category,omitempty"`
	City     *primitive.ObjectID `json:"city,omitempty"`
	Area     *primitive.ObjectID `json:"area,omitempty"`
	Location *model.Point        `json:"location,omitempty"`

	Tags          []string                 `json:"tags"`
	FeaturedImage string                   `json:"featuredImage,omitempty"`
	Media         []model.Media            `json:"media,omitempty"`
	Engagement    model.EngagementCounters `json:"engagement"`
	Status        model.ArticleStatus      `json:"status"`
	IsFeatured    bool                     `json:"isFeatured"`
	IsBreaking    bool                     `json:"isBreaking"`
	ReviewNote    string                   `json:"reviewNote,omitempty"`
	PublishedAt   *time.Time               `json:"publishedAt,omitempty"`
	CreatedAt     time.Time                `json:"createdAt"`
	UpdatedAt     time.Time                `json:"updatedAt"`
}

// Article localize a, withContent includes the body.
// Markdown articles serve their rendered html as content.
func (l Localizer) Article(a *model.Article, refs *ArticleRefs, withContent bool) *ArticleView {
	if a == nil {
		return nil
	}

	v := &ArticleView{
		ID:                 a.ID,
		Slug:               a.Slug,
		Lang:               l.Lang,
		Title:              l.Text(a.Title),
		Summary:            l.Text(a.Summary),
		Format:             a.Format,
		AvailableLanguages: a.Title.Codes(),
		AudioURL:           a.Audio[l.Lang],
		City:               a.City,
		Area:               a.Area,
		Location:           a.Location,
		Tags:               a.Tags,
		FeaturedImage:      a.FeaturedImage,
		Media:              a.Media,
		Engagement:         a.Engagement,
		Status:             a.Status,
		IsFeatured:         a.IsFeatured,
		IsBreaking:         a.IsBreaking,
		ReviewNote:         a.ReviewNote,
		PublishedAt:        a.PublishedAt,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	if withContent {
		if a.Format == model.ContentFormatMarkdown && len(a.ContentHTML) != 0 {
			v.Content = l.Text(a.ContentHTML)
		} else {
			v.Content = l.Text(a.Content)
		}
	}
	if refs != nil {
		v.Author = Author(refs.Authors[a.Author])
		v.Category = l.Category(refs.Categories[a.Category], false)
	}

	return v
}

// CommentView a comment with its author and replies
type CommentView struct {
	ID        primitive.ObjectID  `json:"id"`
	Article   primitive.ObjectID  `json:"article"`
	Content   string              `json:"content"`
	Author    *AuthorView         `json:"author,omitempty"`
	Parent    *primitive.ObjectID `json:"parent,omitempty"`
	Status    model.CommentStatus `json:"status"`
	Likes     int64               `json:"likes"`
	Liked     bool                `json:"liked"`
	EditedAt  *time.Time          `json:"editedAt,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	Replies   []*CommentView      `json:"replies"`
}

// Comment view of c and its replies, viewer marks liked comments
func Comment(c *model.Comment, authors map[primitive.ObjectID]*model.User,
	viewer *primitive.ObjectID) *CommentView {
	v := &CommentView{
		ID:        c.ID,
		Article:   c.Article,
		Content:   c.Content,
		Author:    Author(authors[c.User]),
		Parent:    c.Parent,
		Status:    c.Status,
		Likes:     c.Likes,
		EditedAt:  c.EditedAt,
		CreatedAt: c.CreatedAt,
		Replies:   make([]*CommentView, 0, len(c.Replies)),
	}
	if viewer != nil {
		for _, uid := range c.LikedBy {
			if uid == *viewer {
				v.Liked = true
				break
			}
		}
	}
	for _, r := range c.Replies {
		v.Replies = append(v.Replies, Comment(r, authors, viewer))
	}
	return v
}

// EngagementStatus the actor's reactions and the article counters
type EngagementStatus struct {
	Liked      bool                     `json:"liked"`
	Disliked   bool                     `json:"disliked"`
	Bookmarked bool                     `json:"bookmarked"`
	Engagement model.EngagementCounters `json:"engagement"`
}

// ViewResult whether a view was counted
type ViewResult struct {
	Counted bool  `json:"counted"`
	Views   int64 `json:"views"`
}

// ToggleResult reaction state after a toggle
type ToggleResult struct {
	Active     bool                     `json:"active"`
	Engagement model.EngagementCounters `json:"engagement"`
}
