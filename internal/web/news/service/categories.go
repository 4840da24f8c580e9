package service

import (
	"context"
	"strings"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/multilingual-news/internal/library/i18n"
	"github.com/Laisky/multilingual-news/internal/web/news/dao"
	"github.com/Laisky/multilingual-news/internal/web/news/dto"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

type categoryStore interface {
	InsertCategory(ctx context.Context, c *model.Category) error
	GetCategory(ctx context.Context, id primitive.ObjectID) (*model.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error)
	ListCategories(ctx context.Context, q dao.CategoryQuery) ([]*model.Category, error)
	ListDescendants(ctx context.Context, id primitive.ObjectID) ([]*model.Category, error)
	CountChildren(ctx context.Context, id primitive.ObjectID) (int64, error)
	CategorySlugTaken(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error)
	UpdateCategory(ctx context.Context, c *model.Category) error
	SetCategoryAncestors(ctx context.Context, id primitive.ObjectID, ancestors []model.Ancestor) error
	DeleteCategory(ctx context.Context, id primitive.ObjectID) error
	CountArticlesInCategory(ctx context.Context, category primitive.ObjectID) (int64, error)
	RefreshCategoryAncestors(ctx context.Context, category primitive.ObjectID, ancestors []primitive.ObjectID) error
}

// Categories category tree management
type Categories struct {
	logger    glog.Logger
	store     categoryStore
	languages *Languages
	cache     *CategoryCache
}

// NewCategories create the category service, every write invalidates cache, which may be nil
func NewCategories(logger glog.Logger, store categoryStore, languages *Languages, cache *CategoryCache) *Categories {
	return &Categories{logger: logger, store: store, languages: languages, cache: cache}
}

// List flat category list, parent "root" lists top level categories
func (s *Categories) List(ctx context.Context, parent string, activeOnly bool) ([]*model.Category, error) {
	q := dao.CategoryQuery{ActiveOnly: activeOnly}
	switch parent = strings.TrimSpace(parent); parent {
	case "":
	case "root":
		q.RootOnly = true
	default:
		id, err := ParseID("parent", parent)
		if err != nil {
			return nil, err
		}
		q.Parent = &id
	}

	return s.store.ListCategories(ctx, q)
}

// Tree every category nested under its parent
func (s *Categories) Tree(ctx context.Context, activeOnly bool) ([]*dto.CategoryNode, error) {
	all, err := s.store.ListCategories(ctx, dao.CategoryQuery{ActiveOnly: activeOnly})
	if err != nil {
		return nil, err
	}
	return buildCategoryTree(all), nil
}

// buildCategoryTree organizes categories into a tree structure,
// orphans whose parent is missing become roots
func buildCategoryTree(categories []*model.Category) []*dto.CategoryNode {
	nodes := make(map[primitive.ObjectID]*dto.CategoryNode, len(categories))
	for _, c := range categories {
		nodes[c.ID] = &dto.CategoryNode{Category: c}
	}

	roots := []*dto.CategoryNode{}
	for _, c := range categories {
		node := nodes[c.ID]
		if c.Parent != nil {
			if parent, ok := nodes[*c.Parent]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	return roots
}

// Get load a category by id or slug
func (s *Categories) Get(ctx context.Context, idOrSlug string) (*model.Category, error) {
	if id, err := primitive.ObjectIDFromHex(idOrSlug); err == nil {
		c, err := s.store.GetCategory(ctx, id)
		if err == nil || !errors.Is(err, model.ErrNotFound) {
			return c, err
		}
	}
	return s.store.GetCategoryBySlug(ctx, strings.ToLower(strings.TrimSpace(idOrSlug)))
}

func (s *Categories) slugTaken(exclude primitive.ObjectID) func(context.Context, string) (bool, error) {
	return func(ctx context.Context, slug string) (bool, error) {
		return s.store.CategorySlugTaken(ctx, slug, exclude)
	}
}

// Create add a category under an optional parent
func (s *Categories) Create(ctx context.Context, in *dto.CategoryInput) (*model.Category, error) {
	defer s.cache.Invalidate()
	def := s.languages.DefaultCode(ctx)
	name, err := sanitizeText(in.Name, maxNameLength, "name")
	if err != nil {
		return nil, err
	}
	if err = requireDefault(name, def, "name"); err != nil {
		return nil, err
	}
	description, err := sanitizeText(in.Description, maxDescriptionLength, "description")
	if err != nil {
		return nil, err
	}

	ts := now()
	c := &model.Category{
		Name:        name,
		Description: description,
		Ancestors:   []model.Ancestor{},
		IsActive:    true,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	applyCategoryInput(c, in)

	if in.Parent != nil && *in.Parent != "" {
		parentID, err := ParseID("parent", *in.Parent)
		if err != nil {
			return nil, err
		}
		parent, err := s.parent(ctx, parentID)
		if err != nil {
			return nil, err
		}
		c.Parent = &parent.ID
		c.Ancestors = parent.Path()
	}

	if c.Slug, err = uniqueSlug(ctx, i18n.SlugSource(name, def), "category", s.slugTaken(primitive.NilObjectID)); err != nil {
		return nil, err
	}
	if err = s.store.InsertCategory(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func applyCategoryInput(c *model.Category, in *dto.CategoryInput) {
	if in.Icon != nil {
		c.Icon = strings.TrimSpace(*in.Icon)
	}
	if in.Color != nil {
		c.Color = strings.TrimSpace(*in.Color)
	}
	if in.Order != nil {
		c.Order = *in.Order
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
}

// Update change a category; renaming or moving it refreshes the ancestors
// stored on its descendants and their articles
func (s *Categories) Update(ctx context.Context, id primitive.ObjectID, in *dto.CategoryInput) (*model.Category, error) {
	defer s.cache.Invalidate()
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	def := s.languages.DefaultCode(ctx)

	renamed := false
	if in.Name != nil {
		name, err := sanitizeText(i18n.Merge(c.Name.Clone(), in.Name, true), maxNameLength, "name")
		if err != nil {
			return nil, err
		}
		for code, v := range in.Name {
			if strings.TrimSpace(v) == "" {
				delete(name, i18n.NormalizeCode(code))
			}
		}
		if err = requireDefault(name, def, "name"); err != nil {
			return nil, err
		}

		renamed = !equalText(name, c.Name)
		if i18n.SlugSource(name, def) != i18n.SlugSource(c.Name, def) {
			if c.Slug, err = uniqueSlug(ctx, i18n.SlugSource(name, def), "category", s.slugTaken(c.ID)); err != nil {
				return nil, err
			}
		}
		c.Name = name
	}
	if in.Description != nil {
		if c.Description, err = sanitizeText(i18n.Merge(c.Description.Clone(), in.Description, true),
			maxDescriptionLength, "description"); err != nil {
			return nil, err
		}
	}
	applyCategoryInput(c, in)

	moved := false
	if in.Parent != nil {
		parentID, err := parseOptionalID("parent", *in.Parent)
		if err != nil {
			return nil, err
		}
		if !sameID(parentID, c.Parent) {
			moved = true
			c.Parent = parentID
			c.Ancestors = []model.Ancestor{}
			if parentID != nil {
				if *parentID == c.ID {
					return nil, model.Invalid("parent", "a category cannot be its own parent")
				}
				parent, err := s.parent(ctx, *parentID)
				if err != nil {
					return nil, err
				}
				if parent.HasAncestor(c.ID) {
					return nil, model.Invalid("parent", "cannot move a category under its descendant")
				}
				c.Ancestors = parent.Path()
			}
		}
	}

	c.UpdatedAt = now()
	if err = s.store.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}

	if moved || renamed {
		if err = s.refreshDescendants(ctx, c, moved); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// parent load the parent a request refers to, a missing one is a validation error
func (s *Categories) parent(ctx context.Context, id primitive.ObjectID) (*model.Category, error) {
	parent, err := s.store.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.Invalid("parent", "parent category not found")
		}
		return nil, errors.Wrap(err, "load parent")
	}
	return parent, nil
}

// refreshDescendants rewrite the ancestor chain of c's subtree
func (s *Categories) refreshDescendants(ctx context.Context, c *model.Category, moved bool) error {
	if moved {
		if err := s.store.RefreshCategoryAncestors(ctx, c.ID, c.AncestorIDs()); err != nil {
			return err
		}
	}

	descendants, err := s.store.ListDescendants(ctx, c.ID)
	if err != nil {
		return err
	}

	prefix := c.Path()
	for _, d := range descendants {
		idx := -1
		for i, a := range d.Ancestors {
			if a.ID == c.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			continue
		}

		ancestors := make([]model.Ancestor, 0, len(prefix)+len(d.Ancestors)-idx-1)
		ancestors = append(ancestors, prefix...)
		ancestors = append(ancestors, d.Ancestors[idx+1:]...)
		if err = s.store.SetCategoryAncestors(ctx, d.ID, ancestors); err != nil {
			return err
		}

		if moved {
			d.Ancestors = ancestors
			if err = s.store.RefreshCategoryAncestors(ctx, d.ID, d.AncestorIDs()); err != nil {
				return err
			}
		}
	}

	s.logger.Debug("category subtree refreshed",
		zap.String("category", c.ID.Hex()),
		zap.Int("descendants", len(descendants)))
	return nil
}

// Delete remove a category without children or articles
func (s *Categories) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.store.GetCategory(ctx, id); err != nil {
		return err
	}

	children, err := s.store.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return errors.Wrapf(model.ErrConflict, "category has %d subcategories", children)
	}

	articles, err := s.store.CountArticlesInCategory(ctx, id)
	if err != nil {
		return err
	}
	if articles > 0 {
		return errors.Wrapf(model.ErrConflict, "category has %d articles", articles)
	}

	defer s.cache.Invalidate()
	return s.store.DeleteCategory(ctx, id)
}

func equalText(a, b i18n.Text) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
