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

// reactorFilter selects the exclusive documents of actor
func reactorFilter(actor model.Actor) (bson.M, error) {
	switch actor.Kind() {
	case model.ActorUser:
		return bson.M{"actor_kind": model.ActorUser, "user": *actor.UserID}, nil
	case model.ActorSession:
		return bson.M{"actor_kind": model.ActorSession, "session_id": actor.SessionID}, nil
	default:
		return nil, errors.Wrap(model.ErrUnauthorized, "no user or session")
	}
}

// viewerFilter selects the views of actor by its first available identity:
// user, then session, then ip
func viewerFilter(actor model.Actor) (bson.M, error) {
	switch {
	case actor.UserID != nil:
		return bson.M{"user": *actor.UserID}, nil
	case actor.SessionID != "":
		return bson.M{"session_id": actor.SessionID}, nil
	case actor.IP != "":
		return bson.M{"ip": actor.IP}, nil
	default:
		return nil, errors.Wrap(model.ErrValidation, "viewer has no identity")
	}
}

// InsertEngagement insert an engagement record, a second exclusive record fails with ErrConflict
func (d *News) InsertEngagement(ctx context.Context, e *model.Engagement) error {
	res, err := d.EngagementsCol().InsertOne(ctx, e)
	if err != nil {
		return translateErr(err, "insert engagement")
	}
	e.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// DeleteReaction remove the exclusive record of actor, reports whether one existed
func (d *News) DeleteReaction(ctx context.Context,
	article primitive.ObjectID, typ model.EngagementType, actor model.Actor) (bool, error) {
	filter, err := reactorFilter(actor)
	if err != nil {
		return false, err
	}
	filter["article"] = article
	filter["type"] = typ
	filter["exclusive"] = true

	res, err := d.EngagementsCol().DeleteOne(ctx, filter)
	if err != nil {
		return false, errors.Wrap(err, "delete reaction")
	}
	return res.DeletedCount > 0, nil
}

// ActorReactions exclusive engagement types actor holds on article
func (d *News) ActorReactions(ctx context.Context,
	article primitive.ObjectID, actor model.Actor) (map[model.EngagementType]bool, error) {
	reactions := map[model.EngagementType]bool{}
	filter, err := reactorFilter(actor)
	if err != nil {
		return reactions, nil
	}
	filter["article"] = article
	filter["exclusive"] = true

	docs, err := findAll[model.Engagement](ctx, d.EngagementsCol(), filter, "actor reactions",
		options.Find().SetProjection(bson.M{"type": 1}))
	if err != nil {
		return nil, err
	}
	for _, e := range docs {
		reactions[e.Type] = true
	}
	return reactions, nil
}

// CountRecentViews count views of article by actor since
func (d *News) CountRecentViews(ctx context.Context,
	article primitive.ObjectID, actor model.Actor, since time.Time) (int64, error) {
	filter, err := viewerFilter(actor)
	if err != nil {
		return 0, err
	}
	filter["article"] = article
	filter["type"] = model.EngagementView
	filter["created_at"] = bson.M{"$gte": since}

	n, err := d.EngagementsCol().CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return 0, errors.Wrap(err, "count recent views")
	}
	return n, nil
}

// ListBookmarks article ids bookmarked by user, newest first
func (d *News) ListBookmarks(ctx context.Context,
	user primitive.ObjectID, page Page) ([]primitive.ObjectID, int64, error) {
	docs, total, err := findPage[model.Engagement](ctx, d.EngagementsCol(), bson.M{
		"actor_kind": model.ActorUser,
		"user":       user,
		"type":       model.EngagementBookmark,
	}, bson.D{{Key: "created_at", Value: -1}}, page, "list bookmarks")
	if err != nil {
		return nil, 0, err
	}

	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, e := range docs {
		ids = append(ids, e.Article)
	}
	return ids, total, nil
}

// DeleteArticleEngagements drop every record of article
func (d *News) DeleteArticleEngagements(ctx context.Context, article primitive.ObjectID) error {
	if _, err := d.EngagementsCol().DeleteMany(ctx, bson.M{"article": article}); err != nil {
		return errors.Wrap(err, "delete article engagements")
	}
	return nil
}
