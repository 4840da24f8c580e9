package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Direction is the writing direction of a language.
type Direction string

const (
	DirectionLTR Direction = "ltr"
	DirectionRTL Direction = "rtl"
)

// Language is a content language, at most one is the default.
type Language struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code       string             `bson:"code" json:"code"`
	Name       string             `bson:"name" json:"name"`
	NativeName string             `bson:"native_name" json:"nativeName"`
	IsActive   bool               `bson:"is_active" json:"isActive"`
	// IsDefault marks the ultimate fallback of multilingual fields
	IsDefault bool      `bson:"is_default" json:"isDefault"`
	Order     int       `bson:"order" json:"order"`
	Direction Direction `bson:"direction" json:"direction"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Collection returns the name of the MongoDB collection for languages
func (Language) Collection() string {
	return "languages"
}
