// Package dto holds request payloads and response views of the news API.
package dto

import (
	"time"

	"github.com/Laisky/multilingual-news/internal/library/i18n"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

// LanguageInput create or update a language, nil fields are left unchanged on update
type LanguageInput struct {
	Code       string `json:"code" binding:"omitempty,langcode"`
	Name       string `json:"name" binding:"max=100"`
	NativeName string `json:"nativeName" binding:"max=100"`
	IsActive   *bool  `json:"isActive"`
	IsDefault  *bool  `json:"isDefault"`
	Order      *int   `json:"order"`
	Direction  string `json:"direction" binding:"omitempty,oneof=ltr rtl"`
}

// ReorderInput language ids in the new order
type ReorderInput struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,objectid"`
}

// RegisterInput self sign-up
type RegisterInput struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Language string `json:"language" binding:"omitempty,langcode"`
}

// LoginInput email and password login
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=128"`
}

// ChangePasswordInput change own password
type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword" binding:"required,max=128"`
	NewPassword string `json:"newPassword" binding:"required,min=8,max=128"`
}

// ProfileInput update own profile
type ProfileInput struct {
	Name   *string `json:"name" binding:"omitempty,min=1,max=100"`
	Avatar *string `json:"avatar" binding:"omitempty,max=2048"`
	Phone  *string `json:"phone" binding:"omitempty,max=32"`
	Bio    *string `json:"bio" binding:"omitempty,max=1000"`
}

// PreferencesInput update own reading preferences, empty strings clear city or area
type PreferencesInput struct {
	Language            *string  `json:"language" binding:"omitempty,langcode"`
	City                *string  `json:"city" binding:"omitempty,objectid"`
	Area                *string  `json:"area" binding:"omitempty,objectid"`
	Categories          []string `json:"categories" binding:"omitempty,dive,objectid"`
	OnboardingCompleted *bool    `json:"onboardingCompleted"`
}

// AdminUserInput admin create or update of a user
type AdminUserInput struct {
	Name               string   `json:"name" binding:"max=100"`
	Email              string   `json:"email" binding:"omitempty,email,max=254"`
	Password           string   `json:"password" binding:"omitempty,min=8,max=128"`
	Role               string   `json:"role" binding:"omitempty,oneof=user reporter admin"`
	IsActive           *bool    `json:"isActive"`
	AssignedCategories []string `json:"assignedCategories" binding:"omitempty,dive,objectid"`
}

// CategoryInput create or update a category
type CategoryInput struct {
	Name        i18n.Text `json:"name"`
	Description i18n.Text `json:"description"`
	// Parent empty string moves the category to the root
	Parent   *string `json:"parent" binding:"omitempty,objectid"`
	Icon     *string `json:"icon" binding:"omitempty,max=100"`
	Color    *string `json:"color" binding:"omitempty,max=32"`
	Order    *int    `json:"order"`
	IsActive *bool   `json:"isActive"`
}

// CityInput create or update a city
type CityInput struct {
	Name     i18n.Text      `json:"name"`
	State    i18n.Text      `json:"state"`
	Center   *model.Point   `json:"center"`
	Boundary *model.Polygon `json:"boundary"`
	IsActive *bool          `json:"isActive"`
	Order    *int           `json:"order"`
}

// AreaInput create or update an area
type AreaInput struct {
	Name     i18n.Text      `json:"name"`
	City     string         `json:"city" binding:"omitempty,objectid"`
	Center   *model.Point   `json:"center"`
	Boundary *model.Polygon `json:"boundary"`
	Pincode  *string        `json:"pincode" binding:"omitempty,max=16"`
	IsActive *bool          `json:"isActive"`
}

// ArticleInput create or update an article, nil fields are left unchanged on update
type ArticleInput struct {
	Title          i18n.Text     `json:"title"`
	Summary        i18n.Text     `json:"summary"`
	Content        i18n.Text     `json:"content"`
	Format         string        `json:"format" binding:"omitempty,oneof=html markdown"`
	Category       string        `json:"category" binding:"omitempty,objectid"`
	City           *string       `json:"city" binding:"omitempty,objectid"`
	Area           *string       `json:"area" binding:"omitempty,objectid"`
	Location       *model.Point  `json:"location"`
	Tags           []string      `json:"tags" binding:"omitempty,max=20,dive,max=50"`
	FeaturedImage  *string       `json:"featuredImage" binding:"omitempty,max=2048"`
	Media          []model.Media `json:"media" binding:"omitempty,max=30"`
	IsFeatured     *bool         `json:"isFeatured"`
	IsBreaking     *bool         `json:"isBreaking"`
	SourceLanguage string        `json:"sourceLanguage" binding:"omitempty,langcode"`
}

// ReviewInput reviewer note for reject
type ReviewInput struct {
	Note string `json:"note" binding:"max=2000"`
}

// ShareInput share platform
type ShareInput struct {
	Platform string `json:"platform" binding:"max=50"`
}

// CommentInput new comment or edit
type CommentInput struct {
	Content string  `json:"content" binding:"required,max=5000"`
	Parent  *string `json:"parent" binding:"omitempty,objectid"`
}

// CommentStatusInput moderation decision
type CommentStatusInput struct {
	Status string `json:"status" binding:"required,oneof=pending approved flagged deleted"`
}

// UploadGrantInput request a direct upload url
type UploadGrantInput struct {
	Filename    string `json:"filename" binding:"required,max=255"`
	ContentType string `json:"contentType" binding:"required,max=100"`
}

// DeleteUploadInput remove an uploaded object
type DeleteUploadInput struct {
	Key string `json:"key" binding:"required,max=1024"`
}

// TranslateInput free translation of named fields
type TranslateInput struct {
	Fields  map[string]string `json:"fields" binding:"required,min=1,max=20"`
	Source  string            `json:"source" binding:"omitempty,langcode"`
	Targets []string          `json:"targets" binding:"omitempty,dive,langcode"`
}

// TranslateArticleInput fill article languages
type TranslateArticleInput struct {
	Source    string   `json:"source" binding:"omitempty,langcode"`
	Targets   []string `json:"targets" binding:"omitempty,dive,langcode"`
	Overwrite bool     `json:"overwrite"`
}

// TTSInput synthesize free text
type TTSInput struct {
	Text string `json:"text" binding:"required,max=20000"`
	Lang string `json:"lang" binding:"required,langcode"`
}

// ArticleAudioInput synthesize article audio per language
type ArticleAudioInput struct {
	Langs []string `json:"langs" binding:"omitempty,dive,langcode"`
}

// ScrapedInput ingest one scraped article
type ScrapedInput struct {
	SourceURL   string     `json:"sourceUrl" binding:"required,url,max=2048"`
	SourceName  string     `json:"sourceName" binding:"required,max=200"`
	Language    string     `json:"language" binding:"required,langcode"`
	Title       string     `json:"title" binding:"required,max=500"`
	Summary     string     `json:"summary" binding:"max=5000"`
	Content     string     `json:"content" binding:"required"`
	ImageURL    string     `json:"imageUrl" binding:"omitempty,url,max=2048"`
	Author      string     `json:"author" binding:"max=200"`
	PublishedAt *time.Time `json:"publishedAt"`
}

// ImportScrapedInput turn a scraped article into a draft
type ImportScrapedInput struct {
	Category  string  `json:"category" binding:"required,objectid"`
	City      *string `json:"city" binding:"omitempty,objectid"`
	Area      *string `json:"area" binding:"omitempty,objectid"`
	Translate bool    `json:"translate"`
}
