package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/multilingual-news/internal/library/i18n"
)

// City a city with its map center and optional boundary
type City struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     i18n.Text          `bson:"name" json:"name"`
	State    i18n.Text          `bson:"state,omitempty" json:"state,omitempty"`
	Slug     string             `bson:"slug" json:"slug"`
	Center   *Point             `bson:"center" json:"center"`
	Boundary *Polygon           `bson:"boundary,omitempty" json:"boundary,omitempty"`
	IsActive bool               `bson:"is_active" json:"isActive"`
	Order    int                `bson:"order" json:"order"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Collection returns the name of the MongoDB collection for cities
func (City) Collection() string {
	return "cities"
}

// Area a locality inside a city, slug is unique per city
type Area struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     i18n.Text          `bson:"name" json:"name"`
	Slug     string             `bson:"slug" json:"slug"`
	City     primitive.ObjectID `bson:"city" json:"city"`
	Center   *Point             `bson:"center" json:"center"`
	Boundary *Polygon           `bson:"boundary,omitempty" json:"boundary,omitempty"`
	Pincode  string             `bson:"pincode,omitempty" json:"pincode,omitempty"`
	IsActive bool               `bson:"is_active" json:"isActive"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Collection returns the name of the MongoDB collection for areas
func (Area) Collection() string {
	return "areas"
}
