package model

import (
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role user role
type Role string

const (
	// RoleUser reader
	RoleUser Role = "user"
	// RoleReporter writes articles
	RoleReporter Role = "reporter"
	// RoleAdmin manages everything
	RoleAdmin Role = "admin"
)

// Valid is role known
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleReporter, RoleAdmin:
		return true
	default:
		return false
	}
}

// Preferences reader preferences collected during onboarding
type Preferences struct {
	Language            string               `bson:"language,omitempty" json:"language,omitempty"`
	City                *primitive.ObjectID  `bson:"city,omitempty" json:"city,omitempty"`
	Area                *primitive.ObjectID  `bson:"area,omitempty" json:"area,omitempty"`
	Categories          []primitive.ObjectID `bson:"categories,omitempty" json:"categories"`
	OnboardingCompleted bool                 `bson:"onboarding_completed" json:"onboardingCompleted"`
}

// User account of a reader, reporter or admin
type User struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
	// Password bcrypt hash
	Password    string      `bson:"password" json:"-"`
	Role        Role        `bson:"role" json:"role"`
	Avatar      string      `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Phone       string      `bson:"phone,omitempty" json:"phone,omitempty"`
	Bio         string      `bson:"bio,omitempty" json:"bio,omitempty"`
	Preferences Preferences `bson:"preferences" json:"preferences"`
	// AssignedCategories limits where a reporter may publish, empty means anywhere
	AssignedCategories []primitive.ObjectID `bson:"assigned_categories,omitempty" json:"assignedCategories"`
	ArticlesCount      int64                `bson:"articles_count" json:"articlesCount"`
	IsActive           bool                 `bson:"is_active" json:"isActive"`
	LastLoginAt        *time.Time           `bson:"last_login_at,omitempty" json:"lastLoginAt,omitempty"`
	CreatedAt          time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt          time.Time            `bson:"updated_at" json:"updatedAt"`
}

// Collection returns the name of the MongoDB collection for users
func (User) Collection() string {
	return "users"
}

// IsAdmin is admin
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// CanWrite may create articles
func (u *User) CanWrite() bool {
	return u != nil && (u.Role == RoleReporter || u.Role == RoleAdmin)
}

// CanReportOn may file articles under category
func (u *User) CanReportOn(category primitive.ObjectID) bool {
	switch {
	case u.IsAdmin():
		return true
	case !u.CanWrite():
		return false
	case len(u.AssignedCategories) == 0:
		return true
	default:
		return slices.Contains(u.AssignedCategories, category)
	}
}
