// internal/middleware/middleware_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/javajoker/listing-studio/internal/config"
	"github.com/javajoker/listing-studio/internal/i18n"
	"github.com/javajoker/listing-studio/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := i18n.Initialize("en"); err != nil {
		panic(err)
	}
	utils.SetJWTSecret("middleware-secret")
}

func authRouter() *gin.Engine {
	r := gin.New()
	r.Use(I18nMiddleware())
	r.GET("/me", AuthRequired(), func(c *gin.Context) {
		userID, _ := utils.GetUserIDFromContext(c)
		companyID, _ := utils.GetCompanyIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{
			"user_id":    userID.String(),
			"company_id": companyID.String(),
			"email":      utils.GetEmailFromContext(c),
		})
	})
	return r
}

func TestAuthRequired(t *testing.T) {
	userID, companyID := uuid.New(), uuid.New()
	token, err := utils.GenerateJWT(userID, companyID, "owner@example.com", 1)
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		query   string
		upgrade bool
		want    int
	}{
		{name: "valid header", header: "Bearer " + token, want: http.StatusOK},
		{name: "missing", want: http.StatusUnauthorized},
		{name: "malformed", header: "Token " + token, want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "websocket query token", query: "?access_token=" + token, upgrade: true, want: http.StatusOK},
		{name: "query token without upgrade", query: "?access_token=" + token, want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.upgrade {
				req.Header.Set("Upgrade", "websocket")
			}
			w := httptest.NewRecorder()
			authRouter().ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Contains(t, w.Body.String(), companyID.String())
				assert.Contains(t, w.Body.String(), "owner@example.com")
			}
		})
	}
}

func TestAuthErrorIsLocalized(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Accept-Language", "nl-NL,nl;q=0.9")
	w := httptest.NewRecorder()
	authRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authenticatie vereist")
}

func TestResolveLanguage(t *testing.T) {
	assert.Equal(t, "nl", resolveLanguage("nl-BE"))
	assert.Equal(t, "en", resolveLanguage("fr-FR,en;q=0.5"))
	assert.Equal(t, "nl", resolveLanguage("fr, NL;q=0.8"))
	assert.Equal(t, "en", resolveLanguage(""))
	assert.Equal(t, "en", resolveLanguage("*"))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Hour), 2)
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	rl.evict(time.Now().Add(time.Minute))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	id := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORS(config.CORSConfig{AllowedOrigins: []string{"https://app.example.com"}}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
