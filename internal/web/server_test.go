package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/multilingual-news/internal/web/news/controller"
	"github.com/Laisky/multilingual-news/internal/web/news/dao"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
	"github.com/Laisky/multilingual-news/internal/web/news/service"
	"github.com/Laisky/multilingual-news/library/jwt"
)

var (
	ginModeOnce sync.Once
)

func setupGinTestMode() {
	ginModeOnce.Do(func() {
		gin.SetMode(gin.TestMode)
	})
}

var errMissing = errors.Wrap(model.ErrNotFound, "missing")

// stubStore serves two fixed languages and no users
type stubStore struct{}

func (stubStore) ListLanguages(context.Context, bool) ([]*model.Language, error) {
	return []*model.Language{
		{ID: primitive.NewObjectID(), Code: "en", Name: "English", IsActive: true, IsDefault: true},
		{ID: primitive.NewObjectID(), Code: "hi", Name: "Hindi", IsActive: true, Order: 1},
	}, nil
}
func (stubStore) CountLanguages(context.Context) (int64, error) { return 2, nil }
func (stubStore) GetLanguage(context.Context, primitive.ObjectID) (*model.Language, error) {
	return nil, errMissing
}
func (stubStore) GetLanguageByCode(context.Context, string) (*model.Language, error) {
	return nil, errMissing
}
func (stubStore) InsertLanguage(context.Context, *model.Language) error { return nil }
func (stubStore) UpdateLanguage(context.Context, *model.Language) error { return nil }
func (stubStore) DeleteLanguage(context.Context, primitive.ObjectID) error {
	return nil
}
func (stubStore) ClearDefaultLanguages(context.Context, primitive.ObjectID) error {
	return nil
}
func (stubStore) MarkDefaultLanguage(context.Context, primitive.ObjectID) error {
	return nil
}
func (stubStore) ReorderLanguages(context.Context, []primitive.ObjectID) error {
	return nil
}
func (stubStore) InsertUser(context.Context, *model.User) error { return nil }
func (stubStore) GetUser(context.Context, primitive.ObjectID) (*model.User, error) {
	return nil, errMissing
}
func (stubStore) GetUserByEmail(context.Context, string) (*model.User, error) {
	return nil, errMissing
}
func (stubStore) UpdateUser(context.Context, *model.User) error { return nil }
func (stubStore) TouchLogin(context.Context, primitive.ObjectID, time.Time) error {
	return nil
}
func (stubStore) DeleteUser(context.Context, primitive.ObjectID) error { return nil }
func (stubStore) ListUsers(context.Context, dao.UserQuery) ([]*model.User, int64, error) {
	return nil, 0, nil
}
func (stubStore) GetCity(context.Context, primitive.ObjectID) (*model.City, error) {
	return nil, errMissing
}
func (stubStore) GetArea(context.Context, primitive.ObjectID) (*model.Area, error) {
	return nil, errMissing
}
func (stubStore) GetCategory(context.Context, primitive.ObjectID) (*model.Category, error) {
	return nil, errMissing
}

func newTestServer(t *testing.T, origins ...string) *Server {
	t.Helper()
	setupGinTestMode()

	logger := glog.Shared.Named("web_test")
	signer, err := jwt.New([]byte("web-test-secret"), time.Hour)
	require.NoError(t, err)

	langs := service.NewLanguages(logger, stubStore{}, "en", time.Minute)
	ctl, err := controller.New(logger, &controller.Services{
		Languages: langs,
		Users:     service.NewUsers(logger, stubStore{}, signer, langs),
	}, controller.Config{})
	require.NoError(t, err)

	srv, err := NewServer(logger, ctl, Options{Addr: "127.0.0.1:0", AllowedOrigins: origins, Debug: true})
	require.NoError(t, err)
	return srv
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewServerRequiresController(t *testing.T) {
	_, err := NewServer(glog.Shared, nil, Options{})
	require.Error(t, err)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"error":"route not found"}`, rec.Body.String())
}

func TestAPIMounted(t *testing.T) {
	srv := newTestServer(t)

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/api/languages/default", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), `"code":"en"`)

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), `"error"`)
}

func TestRecovery(t *testing.T) {
	srv := newTestServer(t)

	var hasLogger bool
	srv.engine.GET("/panic", func(ctx *gin.Context) {
		hasLogger = gmw.GetLogger(ctx) != nil
		panic("boom")
	})

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	require.True(t, hasLogger)
}

func TestAllowCORS(t *testing.T) {
	tests := []struct {
		name           string
		origins        []string
		method         string
		origin         string
		expectedStatus int
		expectedOrigin string
	}{
		{
			name:           "no origin header",
			origins:        []string{"https://news.example.com"},
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "listed origin",
			origins:        []string{"https://news.example.com"},
			method:         http.MethodGet,
			origin:         "https://news.example.com",
			expectedStatus: http.StatusOK,
			expectedOrigin: "https://news.example.com",
		},
		{
			name:           "listed origin preflight",
			origins:        []string{"https://news.example.com"},
			method:         http.MethodOptions,
			origin:         "https://news.example.com",
			expectedStatus: http.StatusNoContent,
			expectedOrigin: "https://news.example.com",
		},
		{
			name:           "unlisted origin",
			origins:        []string{"https://news.example.com"},
			method:         http.MethodGet,
			origin:         "https://evil.example.org",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "wildcard reflects origin",
			origins:        []string{"*"},
			method:         http.MethodGet,
			origin:         "https://any.example.org",
			expectedStatus: http.StatusOK,
			expectedOrigin: "https://any.example.org",
		},
		{
			name:           "empty list reflects origin",
			method:         http.MethodGet,
			origin:         "https://any.example.org",
			expectedStatus: http.StatusOK,
			expectedOrigin: "https://any.example.org",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.origins...)

			req := httptest.NewRequest(tt.method, "/health", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			}

			rec := serve(srv, req)
			require.Equal(t, tt.expectedStatus, rec.Code)
			require.Equal(t, tt.expectedOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.expectedOrigin != "" {
				require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
			}
		})
	}
}

func TestRunShutsDown(t *testing.T) {
	srv := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
