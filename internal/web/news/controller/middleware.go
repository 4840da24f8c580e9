package controller

import (
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"

	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

const (
	ctxKeyUser    = "news.user"
	ctxKeySession = "news.session"

	// TokenCookie mirrors the bearer token for browser clients
	TokenCookie = "token"
	// SessionCookie anonymous session id
	SessionCookie = "sid"
	// SessionHeader anonymous session id for non-browser clients
	SessionHeader = "X-Session-Id"

	sessionTTL = 365 * 24 * time.Hour
)

// bearerToken the token from the Authorization header, else the token cookie
func bearerToken(ctx *gin.Context) string {
	if h := strings.TrimSpace(ctx.GetHeader("Authorization")); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			if token = strings.TrimSpace(token); token != "" {
				return token
			}
		}
	}

	if token, err := ctx.Cookie(TokenCookie); err == nil {
		return strings.TrimSpace(token)
	}
	return ""
}

// currentUser the authenticated user, nil for anonymous requests
func currentUser(ctx *gin.Context) *model.User {
	if v, ok := ctx.Get(ctxKeyUser); ok {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}

// requireAuth reject requests without a valid token of an active user
func (c *Controller) requireAuth(ctx *gin.Context) {
	if currentUser(ctx) != nil {
		ctx.Next()
		return
	}

	token := bearerToken(ctx)
	if token == "" {
		abortErr(ctx, errors.Wrap(model.ErrUnauthorized, "missing token"))
		return
	}

	u, err := c.svc.Users.Authenticate(ctx, token)
	if err != nil {
		abortErr(ctx, err)
		return
	}

	ctx.Set(ctxKeyUser, u)
	ctx.Next()
}

// optionalAuth attach the user when the request carries a valid token
func (c *Controller) optionalAuth(ctx *gin.Context) {
	if token := bearerToken(ctx); token != "" {
		u, err := c.svc.Users.Authenticate(ctx, token)
		if err != nil {
			requestLogger(ctx).Debug("ignore invalid token", zap.Error(err))
		} else {
			ctx.Set(ctxKeyUser, u)
		}
	}

	ctx.Next()
}

// requireRole allow only the listed roles, must run after requireAuth
func requireRole(roles ...model.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		u := currentUser(ctx)
		if u == nil {
			abortErr(ctx, errors.Wrap(model.ErrUnauthorized, "missing user"))
			return
		}
		if !slices.Contains(roles, u.Role) {
			abortErr(ctx, errors.Wrapf(model.ErrForbidden, "role %q not allowed", u.Role))
			return
		}

		ctx.Next()
	}
}

// session make sure every request has an anonymous session id,
// issuing one as a cookie when the client sent none
func (c *Controller) session(ctx *gin.Context) {
	sid := strings.TrimSpace(ctx.GetHeader(SessionHeader))
	if sid == "" {
		sid, _ = ctx.Cookie(SessionCookie)
	}

	if _, err := uuid.Parse(sid); err != nil {
		sid = uuid.NewString()
		ctx.SetSameSite(http.SameSiteLaxMode)
		ctx.SetCookie(SessionCookie, sid, int(sessionTTL.Seconds()), "/", "", c.cfg.SecureCookie, true)
	}

	ctx.Header(SessionHeader, sid)
	ctx.Set(ctxKeySession, sid)
	ctx.Next()
}

// actor the engaging identity of the request
func actor(ctx *gin.Context) model.Actor {
	a := model.Actor{
		SessionID: ctx.GetString(ctxKeySession),
		IP:        ctx.ClientIP(),
	}
	if u := currentUser(ctx); u != nil {
		uid := u.ID
		a.UserID = &uid
	}
	return a
}

// viewerID the id of the authenticated user, nil for anonymous requests
func viewerID(ctx *gin.Context) *primitive.ObjectID {
	if u := currentUser(ctx); u != nil {
		uid := u.ID
		return &uid
	}
	return nil
}

type ipClient struct {
	limiter *rate.Limiter
	seen    time.Time
}

// ipLimiter token buckets per client IP
type ipLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	idle    time.Duration
	clients map[string]*ipClient
	swept   time.Time
}

func newIPLimiter(limit rate.Limit, burst int, idle time.Duration) *ipLimiter {
	return &ipLimiter{
		limit:   limit,
		burst:   burst,
		idle:    idle,
		clients: map[string]*ipClient{},
	}
}

// Allow take one token of ip
func (l *ipLimiter) Allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) > l.idle {
		for k, cli := range l.clients {
			if now.Sub(cli.seen) > l.idle {
				delete(l.clients, k)
			}
		}
		l.swept = now
	}

	cli, ok := l.clients[ip]
	if !ok {
		cli = &ipClient{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = cli
	}
	cli.seen = now

	return cli.limiter.AllowN(now, 1)
}

// rateLimit reject clients over their per-IP budget
func rateLimit(l *ipLimiter) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !l.Allow(ctx.ClientIP(), time.Now()) {
			abortErr(ctx, errors.Wrap(model.ErrRateLimited, "too many attempts, retry later"))
			return
		}
		ctx.Next()
	}
}
