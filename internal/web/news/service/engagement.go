package service

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/multilingual-news/internal/library/metrics"
	"github.com/Laisky/multilingual-news/internal/web/news/dao"
	"github.com/Laisky/multilingual-news/internal/web/news/dto"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
	"github.com/Laisky/multilingual-news/library/db/redis"
)

const (
	// viewWindow a viewer is counted once per article in this window
	viewWindow = 24 * time.Hour
	// topArticles number of most viewed articles in stats
	topArticles = 10
)

// ViewMarker remembers recent viewers, MarkOnce reports whether key is new
type ViewMarker interface {
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type engagementStore interface {
	GetArticle(ctx context.Context, id primitive.ObjectID) (*model.Article, error)
	GetArticlesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*model.Article, error)
	IncArticleCounters(ctx context.Context, id primitive.ObjectID, inc map[string]int64) error
	EngagementStats(ctx context.Context, top int) (*dao.EngagementTotals, []*model.Article, error)

	InsertEngagement(ctx context.Context, e *model.Engagement) error
	DeleteReaction(ctx context.Context, article primitive.ObjectID, typ model.EngagementType, actor model.Actor) (bool, error)
	ActorReactions(ctx context.Context, article primitive.ObjectID, actor model.Actor) (map[model.EngagementType]bool, error)
	CountRecentViews(ctx context.Context, article primitive.ObjectID, actor model.Actor, since time.Time) (int64, error)
	ListBookmarks(ctx context.Context, user primitive.ObjectID, page dao.Page) ([]primitive.ObjectID, int64, error)
}

// Engagements views, reactions, shares and bookmarks
type Engagements struct {
	logger glog.Logger
	store  engagementStore
	marker ViewMarker
}

// NewEngagements create the engagement service, marker may be nil
func NewEngagements(logger glog.Logger, store engagementStore, marker ViewMarker) *Engagements {
	return &Engagements{logger: logger, store: store, marker: marker}
}

// EngagementStats platform totals and the most viewed articles
type EngagementStats struct {
	Totals *dao.EngagementTotals `json:"totals"`
	Top    []*model.Article      `json:"top"`
}

// viewKey redis key of the viewer's first available identity
func viewKey(article primitive.ObjectID, actor model.Actor) string {
	key := redis.KeyPrefixViews + article.Hex() + "/"
	switch {
	case actor.UserID != nil:
		return key + "u/" + actor.UserID.Hex()
	case actor.SessionID != "":
		return key + "s/" + actor.SessionID
	default:
		return key + "ip/" + actor.IP
	}
}

// View count a view once per viewer and article in 24 hours
func (s *Engagements) View(ctx context.Context, id primitive.ObjectID, actor model.Actor) (*dto.ViewResult, error) {
	if actor.UserID == nil && actor.SessionID == "" && actor.IP == "" {
		return nil, model.Invalid("viewer", "viewer has no identity")
	}
	a, err := publishedArticle(ctx, s.store, id)
	if err != nil {
		return nil, err
	}

	skip := func() (*dto.ViewResult, error) {
		metrics.EngagementEvents.WithLabelValues(string(model.EngagementView), "skipped").Inc()
		return &dto.ViewResult{Counted: false, Views: a.Engagement.Views}, nil
	}

	if s.marker != nil {
		fresh, err := s.marker.MarkOnce(ctx, viewKey(id, actor), viewWindow)
		switch {
		case err != nil:
			s.logger.Warn("mark view, fallback to db", zap.Error(err))
		case !fresh:
			return skip()
		}
	}

	ts := now()
	n, err := s.store.CountRecentViews(ctx, id, actor, ts.Add(-viewWindow))
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return skip()
	}

	e := &model.Engagement{
		Article:   id,
		Type:      model.EngagementView,
		ActorKind: actor.Kind(),
		User:      actor.UserID,
		SessionID: actor.SessionID,
		IP:        actor.IP,
		CreatedAt: ts,
	}
	if err = s.store.InsertEngagement(ctx, e); err != nil {
		return nil, err
	}
	if err = s.store.IncArticleCounters(ctx, id, map[string]int64{
		model.EngagementView.CounterField(): 1,
	}); err != nil {
		return nil, err
	}

	metrics.EngagementEvents.WithLabelValues(string(model.EngagementView), "counted").Inc()
	return &dto.ViewResult{Counted: true, Views: a.Engagement.Views + 1}, nil
}

// Toggle flip a like, dislike or bookmark of actor. Setting a like clears an
// existing dislike and the other way round.
func (s *Engagements) Toggle(ctx context.Context, id primitive.ObjectID,
	typ model.EngagementType, actor model.Actor) (*dto.ToggleResult, error) {
	switch {
	case !typ.Exclusive():
		return nil, model.Invalid("type", "%q can not be toggled", typ)
	case typ == model.EngagementBookmark && actor.UserID == nil:
		return nil, errors.Wrap(model.ErrUnauthorized, "login to bookmark")
	case actor.Kind() == "":
		return nil, errors.Wrap(model.ErrUnauthorized, "no user or session")
	}
	if _, err := publishedArticle(ctx, s.store, id); err != nil {
		return nil, err
	}

	active, err := s.toggle(ctx, id, typ, actor)
	if err != nil {
		return nil, err
	}

	outcome := "off"
	if active {
		outcome = "on"
	}
	metrics.EngagementEvents.WithLabelValues(string(typ), outcome).Inc()

	a, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.ToggleResult{Active: active, Engagement: a.Engagement}, nil
}

func (s *Engagements) toggle(ctx context.Context, id primitive.ObjectID,
	typ model.EngagementType, actor model.Actor) (bool, error) {
	removed, err := s.store.DeleteReaction(ctx, id, typ, actor)
	if err != nil {
		return false, err
	}
	if removed {
		return false, s.store.IncArticleCounters(ctx, id, map[string]int64{typ.CounterField(): -1})
	}

	if opposite := typ.Opposite(); opposite != "" {
		cleared, err := s.store.DeleteReaction(ctx, id, opposite, actor)
		if err != nil {
			return false, err
		}
		if cleared {
			if err = s.store.IncArticleCounters(ctx, id, map[string]int64{opposite.CounterField(): -1}); err != nil {
				return false, err
			}
		}
	}

	e := &model.Engagement{
		Article:   id,
		Type:      typ,
		ActorKind: actor.Kind(),
		User:      actor.UserID,
		SessionID: actor.SessionID,
		IP:        actor.IP,
		Exclusive: true,
		CreatedAt: now(),
	}
	if err = s.store.InsertEngagement(ctx, e); err != nil {
		if errors.Is(err, model.ErrConflict) {
			// a concurrent request of the same actor won
			return true, nil
		}
		return false, err
	}

	return true, s.store.IncArticleCounters(ctx, id, map[string]int64{typ.CounterField(): 1})
}

// Share record a share event
func (s *Engagements) Share(ctx context.Context, id primitive.ObjectID,
	actor model.Actor, platform string) (*model.Engagement, error) {
	if _, err := publishedArticle(ctx, s.store, id); err != nil {
		return nil, err
	}

	e := &model.Engagement{
		Article:   id,
		Type:      model.EngagementShare,
		ActorKind: actor.Kind(),
		User:      actor.UserID,
		SessionID: actor.SessionID,
		IP:        actor.IP,
		Platform:  Truncate(platform, 50),
		CreatedAt: now(),
	}
	if err := s.store.InsertEngagement(ctx, e); err != nil {
		return nil, err
	}
	if err := s.store.IncArticleCounters(ctx, id, map[string]int64{
		model.EngagementShare.CounterField(): 1,
	}); err != nil {
		return nil, err
	}

	metrics.EngagementEvents.WithLabelValues(string(model.EngagementShare), "counted").Inc()
	return e, nil
}

// Status reactions of actor and the counters of the article
func (s *Engagements) Status(ctx context.Context, id primitive.ObjectID, actor model.Actor) (*dto.EngagementStatus, error) {
	a, err := publishedArticle(ctx, s.store, id)
	if err != nil {
		return nil, err
	}

	reactions, err := s.store.ActorReactions(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	return &dto.EngagementStatus{
		Liked:      reactions[model.EngagementLike],
		Disliked:   reactions[model.EngagementDislike],
		Bookmarked: reactions[model.EngagementBookmark],
		Engagement: a.Engagement,
	}, nil
}

// Bookmarks articles bookmarked by user, newest bookmark first
func (s *Engagements) Bookmarks(ctx context.Context,
	user primitive.ObjectID, page, limit int) (*dto.Paged[*model.Article], error) {
	p := Paging(page, limit)
	ids, total, err := s.store.ListBookmarks(ctx, user, p)
	if err != nil {
		return nil, err
	}

	byID, err := s.store.GetArticlesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	articles := make([]*model.Article, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok && a.Status == model.ArticleStatusPublished {
			articles = append(articles, a)
		}
	}

	return dto.NewPaged(articles, total, p.Page, p.Limit), nil
}

// Stats totals over published articles and the top articles by views
func (s *Engagements) Stats(ctx context.Context) (*EngagementStats, error) {
	totals, top, err := s.store.EngagementStats(ctx, topArticles)
	if err != nil {
		return nil, err
	}
	return &EngagementStats{Totals: totals, Top: top}, nil
}
