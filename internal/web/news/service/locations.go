package service

import (
	"context"
	"strings"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/multilingual-news/internal/library/i18n"
	"github.com/Laisky/multilingual-news/internal/web/news/dao"
	"github.com/Laisky/multilingual-news/internal/web/news/dto"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

const (
	// locateFallbackMeters radius of the nearest-center fallback of Locate
	locateFallbackMeters = 5000
	// defaultNearbyMeters radius of nearby lookups without maxDistance
	defaultNearbyMeters = 50000
)

type locationStore interface {
	InsertCity(ctx context.Context, c *model.City) error
	GetCity(ctx context.Context, id primitive.ObjectID) (*model.City, error)
	GetCityBySlug(ctx context.Context, slug string) (*model.City, error)
	ListCities(ctx context.Context, activeOnly bool) ([]*model.City, error)
	NearbyCities(ctx context.Context, q dao.NearQuery) ([]*model.City, error)
	CitySlugTaken(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error)
	UpdateCity(ctx context.Context, c *model.City) error
	DeleteCity(ctx context.Context, id primitive.ObjectID) error
	CountAreas(ctx context.Context, city primitive.ObjectID) (int64, error)

	InsertArea(ctx context.Context, a *model.Area) error
	GetArea(ctx context.Context, id primitive.ObjectID) (*model.Area, error)
	ListAreas(ctx context.Context, city primitive.ObjectID, activeOnly bool) ([]*model.Area, error)
	NearbyAreas(ctx context.Context, q dao.NearQuery) ([]*model.Area, error)
	AreaContaining(ctx context.Context, lng, lat float64) (*model.Area, error)
	AreaSlugTaken(ctx context.Context, city primitive.ObjectID, slug string, exclude primitive.ObjectID) (bool, error)
	UpdateArea(ctx context.Context, a *model.Area) error
	DeleteArea(ctx context.Context, id primitive.ObjectID) error
}

// Locations cities and their areas
type Locations struct {
	logger    glog.Logger
	store     locationStore
	languages *Languages
}

// NewLocations create the location service
func NewLocations(logger glog.Logger, store locationStore, languages *Languages) *Locations {
	return &Locations{logger: logger, store: store, languages: languages}
}

// Near a point lookup request
type Near struct {
	Lng, Lat    float64
	MaxDistance float64
	Limit       int
}

func (n Near) query(activeOnly bool) (dao.NearQuery, error) {
	if err := model.ValidateLngLat("point", n.Lng, n.Lat); err != nil {
		return dao.NearQuery{}, err
	}
	if n.MaxDistance < 0 {
		return dao.NearQuery{}, model.Invalid("maxDistance", "must not be negative")
	}

	q := dao.NearQuery{
		Lng:         n.Lng,
		Lat:         n.Lat,
		MaxDistance: n.MaxDistance,
		Limit:       n.Limit,
		ActiveOnly:  activeOnly,
	}
	if q.MaxDistance == 0 {
		q.MaxDistance = defaultNearbyMeters
	}
	if q.Limit <= 0 || q.Limit > MaxPageSize {
		q.Limit = 10
	}
	return q, nil
}

// Cities list cities
func (s *Locations) Cities(ctx context.Context, activeOnly bool) ([]*model.City, error) {
	return s.store.ListCities(ctx, activeOnly)
}

// NearbyCities active cities around a point
func (s *Locations) NearbyCities(ctx context.Context, near Near) ([]*model.City, error) {
	q, err := near.query(true)
	if err != nil {
		return nil, err
	}
	return s.store.NearbyCities(ctx, q)
}

// City load a city by id or slug
func (s *Locations) City(ctx context.Context, idOrSlug string) (*model.City, error) {
	if id, err := primitive.ObjectIDFromHex(idOrSlug); err == nil {
		c, err := s.store.GetCity(ctx, id)
		if err == nil || !errors.Is(err, model.ErrNotFound) {
			return c, err
		}
	}
	return s.store.GetCityBySlug(ctx, strings.ToLower(strings.TrimSpace(idOrSlug)))
}

// CreateCity add a city
func (s *Locations) CreateCity(ctx context.Context, in *dto.CityInput) (*model.City, error) {
	def := s.languages.DefaultCode(ctx)
	name, err := sanitizeText(in.Name, maxNameLength, "name")
	if err != nil {
		return nil, err
	}
	if err = requireDefault(name, def, "name"); err != nil {
		return nil, err
	}
	state, err := sanitizeText(in.State, maxNameLength, "state")
	if err != nil {
		return nil, err
	}
	if err = in.Center.Validate("center"); err != nil {
		return nil, err
	}
	if err = in.Boundary.Validate("boundary"); err != nil {
		return nil, err
	}

	ts := now()
	c := &model.City{
		Name:      name,
		State:     state,
		Center:    in.Center,
		Boundary:  in.Boundary,
		IsActive:  true,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if in.Order != nil {
		c.Order = *in.Order
	}

	if c.Slug, err = uniqueSlug(ctx, i18n.SlugSource(name, def), "city",
		func(ctx context.Context, slug string) (bool, error) {
			return s.store.CitySlugTaken(ctx, slug, primitive.NilObjectID)
		}); err != nil {
		return nil, err
	}
	if err = s.store.InsertCity(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCity change a city
func (s *Locations) UpdateCity(ctx context.Context, id primitive.ObjectID, in *dto.CityInput) (*model.City, error) {
	c, err := s.store.GetCity(ctx, id)
	if err != nil {
		return nil, err
	}
	def := s.languages.DefaultCode(ctx)

	if in.Name != nil {
		name, err := sanitizeText(i18n.Merge(c.Name.Clone(), in.Name, true), maxNameLength, "name")
		if err != nil {
			return nil, err
		}
		if err = requireDefault(name, def, "name"); err != nil {
			return nil, err
		}
		if i18n.SlugSource(name, def) != i18n.SlugSource(c.Name, def) {
			if c.Slug, err = uniqueSlug(ctx, i18n.SlugSource(name, def), "city",
				func(ctx context.Context, slug string) (bool, error) {
					return s.store.CitySlugTaken(ctx, slug, c.ID)
				}); err != nil {
				return nil, err
			}
		}
		c.Name = name
	}
	if in.State != nil {
		if c.State, err = sanitizeText(i18n.Merge(c.State.Clone(), in.State, true), maxNameLength, "state"); err != nil {
			return nil, err
		}
	}
	if in.Center != nil {
		if err = in.Center.Validate("center"); err != nil {
			return nil, err
		}
		c.Center = in.Center
	}
	if in.Boundary != nil {
		if err = in.Boundary.Validate("boundary"); err != nil {
			return nil, err
		}
		c.Boundary = in.Boundary
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if in.Order != nil {
		c.Order = *in.Order
	}

	c.UpdatedAt = now()
	if err = s.store.UpdateCity(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCity remove a city without areas
func (s *Locations) DeleteCity(ctx context.Context, id primitive.ObjectID) error {
	n, err := s.store.CountAreas(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return errors.Wrapf(model.ErrConflict, "city has %d areas", n)
	}
	return s.store.DeleteCity(ctx, id)
}

// Areas areas of a city
func (s *Locations) Areas(ctx context.Context, city primitive.ObjectID, activeOnly bool) ([]*model.Area, error) {
	if _, err := s.store.GetCity(ctx, city); err != nil {
		return nil, err
	}
	return s.store.ListAreas(ctx, city, activeOnly)
}

// Area load an area
func (s *Locations) Area(ctx context.Context, id primitive.ObjectID) (*model.Area, error) {
	return s.store.GetArea(ctx, id)
}

// NearbyAreas active areas around a point, optionally inside one city
func (s *Locations) NearbyAreas(ctx context.Context, near Near, city *primitive.ObjectID) ([]*model.Area, error) {
	q, err := near.query(true)
	if err != nil {
		return nil, err
	}
	q.City = city
	return s.store.NearbyAreas(ctx, q)
}

// Locate the area whose boundary contains the point, else the area with the
// nearest center within 5 km
func (s *Locations) Locate(ctx context.Context, lng, lat float64) (*model.Area, error) {
	if err := model.ValidateLngLat("point", lng, lat); err != nil {
		return nil, err
	}

	area, err := s.store.AreaContaining(ctx, lng, lat)
	if err == nil {
		return area, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	nearest, err := s.store.NearbyAreas(ctx, dao.NearQuery{
		Lng:         lng,
		Lat:         lat,
		MaxDistance: locateFallbackMeters,
		Limit:       1,
		ActiveOnly:  true,
	})
	if err != nil {
		return nil, err
	}
	if len(nearest) == 0 {
		return nil, errors.Wrap(model.ErrNotFound, "no area around the point")
	}
	return nearest[0], nil
}

func (s *Locations) areaSlugTaken(city, exclude primitive.ObjectID) func(context.Context, string) (bool, error) {
	return func(ctx context.Context, slug string) (bool, error) {
		return s.store.AreaSlugTaken(ctx, city, slug, exclude)
	}
}

// CreateArea add an area to a city
func (s *Locations) CreateArea(ctx context.Context, in *dto.AreaInput) (*model.Area, error) {
	def := s.languages.DefaultCode(ctx)
	name, err := sanitizeText(in.Name, maxNameLength, "name")
	if err != nil {
		return nil, err
	}
	if err = requireDefault(name, def, "name"); err != nil {
		return nil, err
	}
	cityID, err := ParseID("city", in.City)
	if err != nil {
		return nil, err
	}
	if _, err = s.store.GetCity(ctx, cityID); err != nil {
		return nil, errors.Wrap(err, "load city")
	}
	if err = in.Center.Validate("center"); err != nil {
		return nil, err
	}
	if err = in.Boundary.Validate("boundary"); err != nil {
		return nil, err
	}

	ts := now()
	a := &model.Area{
		Name:      name,
		City:      cityID,
		Center:    in.Center,
		Boundary:  in.Boundary,
		IsActive:  true,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if in.Pincode != nil {
		a.Pincode = strings.TrimSpace(*in.Pincode)
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}

	if a.Slug, err = uniqueSlug(ctx, i18n.SlugSource(name, def), "area",
		s.areaSlugTaken(cityID, primitive.NilObjectID)); err != nil {
		return nil, err
	}
	if err = s.store.InsertArea(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateArea change an area, moving it to another city re-checks its slug
func (s *Locations) UpdateArea(ctx context.Context, id primitive.ObjectID, in *dto.AreaInput) (*model.Area, error) {
	a, err := s.store.GetArea(ctx, id)
	if err != nil {
		return nil, err
	}
	def := s.languages.DefaultCode(ctx)

	slugSource := i18n.SlugSource(a.Name, def)
	cityChanged := false
	if in.City != "" {
		cityID, err := ParseID("city", in.City)
		if err != nil {
			return nil, err
		}
		if cityID != a.City {
			if _, err = s.store.GetCity(ctx, cityID); err != nil {
				return nil, errors.Wrap(err, "load city")
			}
			a.City = cityID
			cityChanged = true
		}
	}
	if in.Name != nil {
		name, err := sanitizeText(i18n.Merge(a.Name.Clone(), in.Name, true), maxNameLength, "name")
		if err != nil {
			return nil, err
		}
		if err = requireDefault(name, def, "name"); err != nil {
			return nil, err
		}
		a.Name = name
	}
	if cityChanged || i18n.SlugSource(a.Name, def) != slugSource {
		if a.Slug, err = uniqueSlug(ctx, i18n.SlugSource(a.Name, def), "area",
			s.areaSlugTaken(a.City, a.ID)); err != nil {
			return nil, err
		}
	}
	if in.Center != nil {
		if err = in.Center.Validate("center"); err != nil {
			return nil, err
		}
		a.Center = in.Center
	}
	if in.Boundary != nil {
		if err = in.Boundary.Validate("boundary"); err != nil {
			return nil, err
		}
		a.Boundary = in.Boundary
	}
	if in.Pincode != nil {
		a.Pincode = strings.TrimSpace(*in.Pincode)
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}

	a.UpdatedAt = now()
	if err = s.store.UpdateArea(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteArea remove an area
func (s *Locations) DeleteArea(ctx context.Context, id primitive.ObjectID) error {
	return s.store.DeleteArea(ctx, id)
}
