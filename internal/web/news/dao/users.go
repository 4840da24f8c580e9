package dao

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

// UserQuery admin user listing filter
type UserQuery struct {
	Role   model.Role
	Search string
	Page   Page
}

// InsertUser insert user and set its id
func (d *News) InsertUser(ctx context.Context, u *model.User) error {
	res, err := d.UsersCol().InsertOne(ctx, u)
	if err != nil {
		return translateErr(err, "insert user")
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// GetUser load user by id
func (d *News) GetUser(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return findOne[model.User](ctx, d.UsersCol(), bson.M{"_id": id}, "get user")
}

// GetUserByEmail load user by lowercase email
func (d *News) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, d.UsersCol(), bson.M{"email": email}, "get user by email")
}

// GetUsersByIDs load users keyed by id
func (d *News) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*model.User, error) {
	users := map[primitive.ObjectID]*model.User{}
	if len(ids) == 0 {
		return users, nil
	}

	docs, err := findAll[model.User](ctx, d.UsersCol(), bson.M{"_id": bson.M{"$in": ids}}, "get users")
	if err != nil {
		return nil, err
	}
	for _, u := range docs {
		users[u.ID] = u
	}
	return users, nil
}

// UpdateUser save every field of u except the counters
func (d *News) UpdateUser(ctx context.Context, u *model.User) error {
	res, err := d.UsersCol().UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{
		"name":                u.Name,
		"email":               u.Email,
		"password":            u.Password,
		"role":                u.Role,
		"avatar":              u.Avatar,
		"phone":               u.Phone,
		"bio":                 u.Bio,
		"preferences":         u.Preferences,
		"assigned_categories": u.AssignedCategories,
		"is_active":           u.IsActive,
		"updated_at":          u.UpdatedAt,
	}})
	return matchedOrNotFound(res, err, "update user")
}

// TouchLogin record the last login time
func (d *News) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	res, err := d.UsersCol().UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"last_login_at": at}})
	return matchedOrNotFound(res, err, "touch login")
}

// IncUserArticles move the reporter's article counter
func (d *News) IncUserArticles(ctx context.Context, id primitive.ObjectID, delta int64) error {
	res, err := d.UsersCol().UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$inc": bson.M{"articles_count": delta}})
	return matchedOrNotFound(res, err, "inc user articles")
}

// DeleteUser delete user by id
func (d *News) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.UsersCol().DeleteOne(ctx, bson.M{"_id": id})
	return deletedOrNotFound(res, err, "delete user")
}

// ListUsers list users newest first
func (d *News) ListUsers(ctx context.Context, q UserQuery) ([]*model.User, int64, error) {
	filter := bson.M{}
	if q.Role != "" {
		filter["role"] = q.Role
	}
	if q.Search != "" {
		re := containsPattern(q.Search)
		filter["$or"] = bson.A{bson.M{"name": re}, bson.M{"email": re}}
	}

	users, total, err := findPage[model.User](ctx, d.UsersCol(), filter,
		bson.D{{Key: "created_at", Value: -1}}, q.Page, "list users")
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	return users, total, nil
}
