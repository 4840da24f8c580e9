// Package controller exposes the news services as the REST API under /api.
package controller

import (
	"time"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"golang.org/x/time/rate"

	"github.com/Laisky/multilingual-news/internal/web/news/service"
)

// Services the services the controller dispatches to
type Services struct {
	Languages    *service.Languages
	Users        *service.Users
	Categories   *service.Categories
	Locations    *service.Locations
	Articles     *service.Articles
	Engagements  *service.Engagements
	Comments     *service.Comments
	Uploads      *service.Uploads
	Translations *service.Translations
	Scraped      *service.Scraped
}

// Config controller settings
type Config struct {
	// SecureCookie marks the token and session cookies Secure
	SecureCookie bool
	// AuthPerMinute login and register attempts per client IP, zero means 10
	AuthPerMinute float64
	// AuthBurst zero means 5
	AuthBurst int
}

// Controller REST handlers of the news service
type Controller struct {
	logger      glog.Logger
	svc         *Services
	cfg         Config
	authLimiter *ipLimiter
}

// New create the controller and register the request validators
func New(logger glog.Logger, svc *Services, cfg Config) (*Controller, error) {
	if svc == nil || svc.Languages == nil || svc.Users == nil {
		return nil, errors.New("languages and users services are required")
	}
	if err := RegisterValidators(); err != nil {
		return nil, errors.Wrap(err, "register validators")
	}

	if cfg.AuthPerMinute <= 0 {
		cfg.AuthPerMinute = 10
	}
	if cfg.AuthBurst <= 0 {
		cfg.AuthBurst = 5
	}

	return &Controller{
		logger:      logger,
		svc:         svc,
		cfg:         cfg,
		authLimiter: newIPLimiter(rate.Limit(cfg.AuthPerMinute/60), cfg.AuthBurst, 10*time.Minute),
	}, nil
}
