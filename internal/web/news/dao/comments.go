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

// InsertComment insert comment and set its id
func (d *News) InsertComment(ctx context.Context, c *model.Comment) error {
	res, err := d.CommentsCol().InsertOne(ctx, c)
	if err != nil {
		return translateErr(err, "insert comment")
	}
	c.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// GetComment load comment by id
func (d *News) GetComment(ctx context.Context, id primitive.ObjectID) (*model.Comment, error) {
	return findOne[model.Comment](ctx, d.CommentsCol(), bson.M{"_id": id}, "get comment")
}

// ListArticleComments every comment of article in status, oldest first
func (d *News) ListArticleComments(ctx context.Context,
	article primitive.ObjectID, status model.CommentStatus) ([]*model.Comment, error) {
	return findAll[model.Comment](ctx, d.CommentsCol(),
		bson.M{"article": article, "status": status}, "list article comments",
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

// ListComments moderation queue, newest first
func (d *News) ListComments(ctx context.Context,
	status model.CommentStatus, page Page) ([]*model.Comment, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return findPage[model.Comment](ctx, d.CommentsCol(), filter,
		bson.D{{Key: "created_at", Value: -1}}, page, "list comments")
}

// UpdateCommentContent replace the content and mark it edited
func (d *News) UpdateCommentContent(ctx context.Context, id primitive.ObjectID, content string, at time.Time) error {
	res, err := d.CommentsCol().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"content":    content,
		"edited_at":  at,
		"updated_at": at,
	}})
	return matchedOrNotFound(res, err, "update comment")
}

// SwapCommentStatus set status to to when it is still from, reports whether it changed
func (d *News) SwapCommentStatus(ctx context.Context,
	id primitive.ObjectID, from, to model.CommentStatus) (bool, error) {
	res, err := d.CommentsCol().UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now().UTC()}})
	if err != nil {
		return false, errors.Wrap(err, "swap comment status")
	}
	return res.ModifiedCount > 0, nil
}

// ToggleCommentLike like or unlike id for user, returns whether it is liked afterwards
func (d *News) ToggleCommentLike(ctx context.Context, id, user primitive.ObjectID) (bool, error) {
	res, err := d.CommentsCol().UpdateOne(ctx,
		bson.M{"_id": id, "liked_by": bson.M{"$ne": user}},
		bson.M{"$addToSet": bson.M{"liked_by": user}, "$inc": bson.M{"likes": 1}})
	if err != nil {
		return false, errors.Wrap(err, "like comment")
	}
	if res.ModifiedCount > 0 {
		return true, nil
	}

	res, err = d.CommentsCol().UpdateOne(ctx,
		bson.M{"_id": id, "liked_by": user},
		bson.M{"$pull": bson.M{"liked_by": user}, "$inc": bson.M{"likes": -1}})
	if err != nil {
		return false, errors.Wrap(err, "unlike comment")
	}
	if res.MatchedCount == 0 {
		return false, errors.Wrap(model.ErrNotFound, "toggle comment like")
	}
	return false, nil
}

// DeleteArticleComments drop every comment of article
func (d *News) DeleteArticleComments(ctx context.Context, article primitive.ObjectID) error {
	if _, err := d.CommentsCol().DeleteMany(ctx, bson.M{"article": article}); err != nil {
		return errors.Wrap(err, "delete article comments")
	}
	return nil
}
