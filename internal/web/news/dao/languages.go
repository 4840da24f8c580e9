package dao

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongoLib "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

var languageSort = bson.D{{Key: "order", Value: 1}, {Key: "code", Value: 1}}

// ListLanguages load languages ordered by order then code
func (d *News) ListLanguages(ctx context.Context, activeOnly bool) ([]*model.Language, error) {
	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}

	return findAll[model.Language](ctx, d.LanguagesCol(), filter, "list languages",
		options.Find().SetSort(languageSort))
}

// GetLanguage load language by id
func (d *News) GetLanguage(ctx context.Context, id primitive.ObjectID) (*model.Language, error) {
	return findOne[model.Language](ctx, d.LanguagesCol(), bson.M{"_id": id}, "get language")
}

// GetLanguageByCode load language by code
func (d *News) GetLanguageByCode(ctx context.Context, code string) (*model.Language, error) {
	return findOne[model.Language](ctx, d.LanguagesCol(), bson.M{"code": code}, "get language by code")
}

// CountLanguages count all languages
func (d *News) CountLanguages(ctx context.Context) (int64, error) {
	n, err := d.LanguagesCol().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, errors.Wrap(err, "count languages")
	}
	return n, nil
}

// InsertLanguage insert language and set its id
func (d *News) InsertLanguage(ctx context.Context, lang *model.Language) error {
	res, err := d.LanguagesCol().InsertOne(ctx, lang)
	if err != nil {
		return translateErr(err, "insert language")
	}
	lang.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// UpdateLanguage save every field of lang
func (d *News) UpdateLanguage(ctx context.Context, lang *model.Language) error {
	res, err := d.LanguagesCol().ReplaceOne(ctx, bson.M{"_id": lang.ID}, lang)
	if err != nil {
		return translateErr(err, "update language")
	}
	if res.MatchedCount == 0 {
		return errors.Wrap(model.ErrNotFound, "update language")
	}
	return nil
}

// DeleteLanguage delete language by id
func (d *News) DeleteLanguage(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.LanguagesCol().DeleteOne(ctx, bson.M{"_id": id})
	return deletedOrNotFound(res, err, "delete language")
}

// ClearDefaultLanguages unset the default flag of every language except keep
func (d *News) ClearDefaultLanguages(ctx context.Context, keep primitive.ObjectID) error {
	_, err := d.LanguagesCol().UpdateMany(ctx,
		bson.M{"is_default": true, "_id": bson.M{"$ne": keep}},
		bson.M{"$set": bson.M{"is_default": false, "updated_at": time.Now().UTC()}})
	if err != nil {
		return errors.Wrap(err, "clear default languages")
	}
	return nil
}

// MarkDefaultLanguage set the default flag on id, a default language is always active
func (d *News) MarkDefaultLanguage(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.LanguagesCol().UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_default": true, "is_active": true, "updated_at": time.Now().UTC()}})
	return matchedOrNotFound(res, err, "mark default language")
}

// ReorderLanguages set order to the position of each id
func (d *News) ReorderLanguages(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}

	now := time.Now().UTC()
	writes := make([]mongoLib.WriteModel, 0, len(ids))
	for i, id := range ids {
		writes = append(writes, mongoLib.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(bson.M{"$set": bson.M{"order": i, "updated_at": now}}))
	}

	if _, err := d.LanguagesCol().BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return errors.Wrap(err, "reorder languages")
	}
	return nil
}
