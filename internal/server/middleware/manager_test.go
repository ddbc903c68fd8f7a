package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arod1104/uic-gradebook/internal/server/ratelimit"
	"github.com/arod1104/uic-gradebook/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockKeyStore struct {
	mock.Mock
}

func (m *MockKeyStore) ValidateAPIKey(ctx context.Context, key string) (*types.APIKey, error) {
	args := m.Called(ctx, key)
	if k := args.Get(0); k != nil {
		return k.(*types.APIKey), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockKeyStore) UpdateKeyUsage(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newManager(keys KeyStore) *Manager {
	return NewManager(keys, cache.New(time.Minute, time.Minute), ratelimit.NewLimiter(), "admin-secret")
}

func protectedRouter(m *Manager) *gin.Engine {
	r := gin.New()
	r.Use(m.Auth(), m.RateLimit())
	r.GET("/data", func(c *gin.Context) {
		key, _ := c.Get(ContextAPIKey)
		c.JSON(http.StatusOK, gin.H{"user": key.(*types.APIKey).UserID})
	})
	return r
}

func get(r http.Handler, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if key != "" {
		req.Header.Set(APIKeyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestManager_Auth(t *testing.T) {
	t.Run("should reject requests without a key", func(t *testing.T) {
		keys := new(MockKeyStore)

		w := get(protectedRouter(newManager(keys)), "/data", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"API key required"}`, w.Body.String())
	})

	t.Run("should reject unknown keys", func(t *testing.T) {
		keys := new(MockKeyStore)
		keys.On("ValidateAPIKey", mock.Anything, "nope").Return(nil, nil)

		w := get(protectedRouter(newManager(keys)), "/data", "nope")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("should accept keys without an expiry and cache them", func(t *testing.T) {
		keys := new(MockKeyStore)
		keys.On("ValidateAPIKey", mock.Anything, "k1").Return(&types.APIKey{Key: "k1", UserID: "u1"}, nil).Once()
		keys.On("UpdateKeyUsage", mock.Anything, "k1").Return(nil).Maybe()
		r := protectedRouter(newManager(keys))

		first := get(r, "/data", "k1")
		second := get(r, "/data", "k1")

		assert.Equal(t, http.StatusOK, first.Code)
		assert.JSONEq(t, `{"user":"u1"}`, first.Body.String())
		assert.Equal(t, http.StatusOK, second.Code)
		keys.AssertNumberOfCalls(t, "ValidateAPIKey", 1)
	})

	t.Run("should reject expired keys", func(t *testing.T) {
		keys := new(MockKeyStore)
		expired := &types.APIKey{Key: "old", ExpiresAt: time.Now().Add(-time.Hour)}
		keys.On("ValidateAPIKey", mock.Anything, "old").Return(expired, nil)

		w := get(protectedRouter(newManager(keys)), "/data", "old")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"API key expired"}`, w.Body.String())
	})

	t.Run("should report lookup failures as server errors", func(t *testing.T) {
		keys := new(MockKeyStore)
		keys.On("ValidateAPIKey", mock.Anything, "k1").Return(nil, errors.New("unavailable"))

		w := get(protectedRouter(newManager(keys)), "/data", "k1")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("should stop accepting a forgotten key until it is looked up again", func(t *testing.T) {
		keys := new(MockKeyStore)
		keys.On("ValidateAPIKey", mock.Anything, "k1").Return(&types.APIKey{Key: "k1"}, nil).Once()
		keys.On("ValidateAPIKey", mock.Anything, "k1").Return(nil, nil)
		keys.On("UpdateKeyUsage", mock.Anything, "k1").Return(nil).Maybe()
		m := newManager(keys)
		r := protectedRouter(m)

		assert.Equal(t, http.StatusOK, get(r, "/data", "k1").Code)
		m.Forget("k1")
		assert.Equal(t, http.StatusUnauthorized, get(r, "/data", "k1").Code)
	})
}

func TestManager_RateLimit(t *testing.T) {
	keys := new(MockKeyStore)
	keys.On("ValidateAPIKey", mock.Anything, "k1").Return(&types.APIKey{Key: "k1", RateLimit: 2, WindowSeconds: 60}, nil)
	keys.On("UpdateKeyUsage", mock.Anything, "k1").Return(nil).Maybe()
	r := protectedRouter(newManager(keys))

	assert.Equal(t, http.StatusOK, get(r, "/data", "k1").Code)
	assert.Equal(t, http.StatusOK, get(r, "/data", "k1").Code)

	w := get(r, "/data", "k1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, w.Body.String())
}

func TestManager_Admin(t *testing.T) {
	m := newManager(new(MockKeyStore))
	r := gin.New()
	r.Use(m.Admin())
	r.GET("/admin/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin/ping", "").Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/admin/ping", "admin-wrong").Code)
	assert.Equal(t, http.StatusOK, get(r, "/admin/ping", "admin-secret").Code)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.OPTIONS("/x", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), APIKeyHeader)

	w = get(r, "/x", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	w := get(r, "/x", "")
	generated := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "req-123", w.Body.String())
}
