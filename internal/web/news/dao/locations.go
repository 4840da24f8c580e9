package dao

import (
	"context"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

// NearQuery a $near lookup around a point
type NearQuery struct {
	Lng, Lat float64
	// MaxDistance in meters, zero means unbounded
	MaxDistance float64
	Limit       int
	ActiveOnly  bool
	City        *primitive.ObjectID
}

func (q NearQuery) filter() bson.M {
	near := bson.M{"$geometry": model.NewPoint(q.Lng, q.Lat)}
	if q.MaxDistance > 0 {
		near["$maxDistance"] = q.MaxDistance
	}

	filter := bson.M{"center": bson.M{"$near": near}}
	if q.ActiveOnly {
		filter["is_active"] = true
	}
	if q.City != nil {
		filter["city"] = *q.City
	}
	return filter
}

func (q NearQuery) options() *options.FindOptions {
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	return options.Find().SetLimit(int64(limit))
}

var citySort = bson.D{{Key: "order", Value: 1}, {Key: "slug", Value: 1}}

// InsertCity insert city and set its id
func (d *News) InsertCity(ctx context.Context, c *model.City) error {
	res, err := d.CitiesCol().InsertOne(ctx, c)
	if err != nil {
		return translateErr(err, "insert city")
	}
	c.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// GetCity load city by id
func (d *News) GetCity(ctx context.Context, id primitive.ObjectID) (*model.City, error) {
	return findOne[model.City](ctx, d.CitiesCol(), bson.M{"_id": id}, "get city")
}

// GetCityBySlug load city by slug
func (d *News) GetCityBySlug(ctx context.Context, slug string) (*model.City, error) {
	return findOne[model.City](ctx, d.CitiesCol(), bson.M{"slug": slug}, "get city by slug")
}

// ListCities list cities ordered by order then slug
func (d *News) ListCities(ctx context.Context, activeOnly bool) ([]*model.City, error) {
	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}
	return findAll[model.City](ctx, d.CitiesCol(), filter, "list cities", options.Find().SetSort(citySort))
}

// NearbyCities cities closest to the point first
func (d *News) NearbyCities(ctx context.Context, q NearQuery) ([]*model.City, error) {
	return findAll[model.City](ctx, d.CitiesCol(), q.filter(), "nearby cities", q.options())
}

// CitySlugTaken is slug used by another city
func (d *News) CitySlugTaken(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	return slugTaken(ctx, d.CitiesCol(), slug, exclude, nil)
}

// UpdateCity save every field of c
func (d *News) UpdateCity(ctx context.Context, c *model.City) error {
	res, err := d.CitiesCol().ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	return matchedOrNotFound(res, err, "update city")
}

// DeleteCity delete city by id
func (d *News) DeleteCity(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.CitiesCol().DeleteOne(ctx, bson.M{"_id": id})
	return deletedOrNotFound(res, err, "delete city")
}

// CountAreas count areas of city
func (d *News) CountAreas(ctx context.Context, city primitive.ObjectID) (int64, error) {
	n, err := d.AreasCol().CountDocuments(ctx, bson.M{"city": city})
	if err != nil {
		return 0, errors.Wrap(err, "count areas")
	}
	return n, nil
}

// InsertArea insert area and set its id
func (d *News) InsertArea(ctx context.Context, a *model.Area) error {
	res, err := d.AreasCol().InsertOne(ctx, a)
	if err != nil {
		return translateErr(err, "insert area")
	}
	a.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// GetArea load area by id
func (d *News) GetArea(ctx context.Context, id primitive.ObjectID) (*model.Area, error) {
	return findOne[model.Area](ctx, d.AreasCol(), bson.M{"_id": id}, "get area")
}

// ListAreas list areas of city by slug
func (d *News) ListAreas(ctx context.Context, city primitive.ObjectID, activeOnly bool) ([]*model.Area, error) {
	filter := bson.M{"city": city}
	if activeOnly {
		filter["is_active"] = true
	}
	return findAll[model.Area](ctx, d.AreasCol(), filter, "list areas",
		options.Find().SetSort(bson.D{{Key: "slug", Value: 1}}))
}

// NearbyAreas areas closest to the point first
func (d *News) NearbyAreas(ctx context.Context, q NearQuery) ([]*model.Area, error) {
	return findAll[model.Area](ctx, d.AreasCol(), q.filter(), "nearby areas", q.options())
}

// AreaContaining the active area whose boundary contains the point
func (d *News) AreaContaining(ctx context.Context, lng, lat float64) (*model.Area, error) {
	return findOne[model.Area](ctx, d.AreasCol(), bson.M{
		"is_active": true,
		"boundary": bson.M{"$geoIntersects": bson.M{
			"$geometry": model.NewPoint(lng, lat),
		}},
	}, "area containing point")
}

// AreaSlugTaken is slug used by another area of city
func (d *News) AreaSlugTaken(ctx context.Context,
	city primitive.ObjectID, slug string, exclude primitive.ObjectID) (bool, error) {
	return slugTaken(ctx, d.AreasCol(), slug, exclude, bson.M{"city": city})
}

// UpdateArea save every field of a
func (d *News) UpdateArea(ctx context.Context, a *model.Area) error {
	res, err := d.AreasCol().ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	return matchedOrNotFound(res, err, "update area")
}

// DeleteArea delete area by id
func (d *News) DeleteArea(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.AreasCol().DeleteOne(ctx, bson.M{"_id": id})
	return deletedOrNotFound(res, err, "delete area")
}
