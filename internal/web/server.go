// Package web gin server
package web

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Laisky/multilingual-news/internal/web/news/controller"
)

const shutdownTimeout = 15 * time.Second

// Options of the http server
type Options struct {
	Addr string
	// AllowedOrigins CORS origins, empty or "*" reflects every origin
	AllowedOrigins []string
	Debug          bool
}

// Server serves the news API
type Server struct {
	logger glog.Logger
	engine *gin.Engine
	addr   string
}

// NewServer build the gin engine with middlewares, health, metrics
// and every news route under `/api`
func NewServer(logger glog.Logger, ctl *controller.Controller, opt Options) (*Server, error) {
	if ctl == nil {
		return nil, errors.New("controller is required")
	}
	if !opt.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.ContextWithFallback = true
	engine.Use(
		gin.CustomRecovery(recovery(logger)),
		gmw.NewLoggerMiddleware(gmw.WithLogger(logger.Named("gin"))),
		allowCORS(opt.AllowedOrigins),
	)

	engine.Any("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	ctl.Register(engine.Group("/api"))
	engine.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	return &Server{
		logger: logger,
		engine: engine,
		addr:   opt.Addr,
	}, nil
}

// Handler the http handler of the server
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serve until ctx is done, then drain in-flight requests
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on http", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown http server")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server")
	}
	return nil
}

// recovery turn panics into the usual error body
func recovery(logger glog.Logger) gin.RecoveryFunc {
	return func(ctx *gin.Context, recovered any) {
		logger.Error("panic in handler",
			zap.Any("panic", recovered),
			zap.String("path", ctx.Request.URL.Path))
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func allowCORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodOptions, http.MethodHead,
		},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Authorization", "Accept",
			"Accept-Language", "X-Requested-With", controller.SessionHeader,
		},
		ExposeHeaders:    []string{"Content-Language", controller.SessionHeader},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}

	if len(origins) == 0 || slices.Contains(origins, "*") {
		// credentials forbid a literal "*", so every origin is reflected
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}

	return cors.New(cfg)
}
