package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/multilingual-news/internal/library/i18n"
)

// Ancestor denormalized reference to a parent category
type Ancestor struct {
	ID   primitive.ObjectID `bson:"_id" json:"id"`
	Slug string             `bson:"slug" json:"slug"`
	Name i18n.Text          `bson:"name" json:"name"`
}

// Category news category, Ancestors is root first and excludes itself
type Category struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name        i18n.Text           `bson:"name" json:"name"`
	Description i18n.Text           `bson:"description,omitempty" json:"description,omitempty"`
	Slug        string              `bson:"slug" json:"slug"`
	Parent      *primitive.ObjectID `bson:"parent,omitempty" json:"parent,omitempty"`
	Ancestors   []Ancestor          `bson:"ancestors" json:"ancestors"`
	Icon        string              `bson:"icon,omitempty" json:"icon,omitempty"`
	Color       string              `bson:"color,omitempty" json:"color,omitempty"`
	Order       int                 `bson:"order" json:"order"`
	IsActive    bool                `bson:"is_active" json:"isActive"`
	CreatedAt   time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updatedAt"`
}

// Collection returns the name of the MongoDB collection for categories
func (Category) Collection() string {
	return "categories"
}

// AsAncestor reference to c for its children
func (c *Category) AsAncestor() Ancestor {
	return Ancestor{ID: c.ID, Slug: c.Slug, Name: c.Name.Clone()}
}

// Path ancestors followed by c itself
func (c *Category) Path() []Ancestor {
	path := make([]Ancestor, 0, len(c.Ancestors)+1)
	path = append(path, c.Ancestors...)
	return append(path, c.AsAncestor())
}

// AncestorIDs ids of the ancestors, root first
func (c *Category) AncestorIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(c.Ancestors))
	for _, a := range c.Ancestors {
		ids = append(ids, a.ID)
	}
	return ids
}

// HasAncestor is id one of c's ancestors
func (c *Category) HasAncestor(id primitive.ObjectID) bool {
	for _, a := range c.Ancestors {
		if a.ID == id {
			return true
		}
	}
	return false
}
