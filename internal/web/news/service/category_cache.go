package service

import (
	"context"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/singleflight"

	"github.com/Laisky/multilingual-news/internal/web/news/dao"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

const categoriesFlight = "categories"

type categoryLister interface {
	ListCategories(ctx context.Context, q dao.CategoryQuery) ([]*model.Category, error)
}

// CategoryCache every category by id, reloaded after ttl or Invalidate.
//
// A nil *CategoryCache is valid and reads the store on every call.
type CategoryCache struct {
	store categoryLister
	ttl   time.Duration
	clock func() time.Time

	sf       singleflight.Group
	mu       sync.RWMutex
	byID     map[primitive.ObjectID]*model.Category
	loadedAt time.Time
	// gen is bumped by Invalidate, loads started under an older gen are not cached
	gen uint64
}

// NewCategoryCache create the cache, ttl defaults to DefaultLanguageCacheTTL
func NewCategoryCache(store categoryLister, ttl time.Duration) *CategoryCache {
	if ttl <= 0 {
		ttl = DefaultLanguageCacheTTL
	}
	return &CategoryCache{store: store, ttl: ttl, clock: now}
}

// Invalidate drop the cached categories
func (c *CategoryCache) Invalidate() {
	if c == nil {
		return
	}

	c.mu.Lock()
	c.byID = nil
	c.gen++
	c.mu.Unlock()
	c.sf.Forget(categoriesFlight)
}

// ByID every category keyed by id, callers must not modify the result
func (c *CategoryCache) ByID(ctx context.Context, store categoryLister) (map[primitive.ObjectID]*model.Category, error) {
	if c == nil {
		return loadCategories(ctx, store)
	}

	c.mu.RLock()
	byID, loadedAt := c.byID, c.loadedAt
	c.mu.RUnlock()
	if byID != nil && c.clock().Sub(loadedAt) < c.ttl {
		return byID, nil
	}

	v, err, _ := c.sf.Do(categoriesFlight, func() (any, error) {
		c.mu.RLock()
		gen := c.gen
		c.mu.RUnlock()

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()

		fresh, err := loadCategories(loadCtx, c.store)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gen == gen {
			c.byID, c.loadedAt = fresh, c.clock()
		}
		c.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(map[primitive.ObjectID]*model.Category), nil
}

func loadCategories(ctx context.Context, store categoryLister) (map[primitive.ObjectID]*model.Category, error) {
	categories, err := store.ListCategories(ctx, dao.CategoryQuery{})
	if err != nil {
		return nil, errors.Wrap(err, "load categories")
	}

	byID := make(map[primitive.ObjectID]*model.Category, len(categories))
	for _, cat := range categories {
		byID[cat.ID] = cat
	}
	return byID, nil
}
