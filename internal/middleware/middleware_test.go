package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/feedsphere/internal/app/models/dto"
	"github.com/yigit/feedsphere/internal/pkg/apperrors"
	"github.com/yigit/feedsphere/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWT() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{SecretKey: "secret", AccessTokenExp: time.Hour, TokenIssuer: "feedsphere.test"})
}

func identityRouter(jwt *auth.JWTService) *gin.Engine {
	router := gin.New()
	router.Use(NewAuthMiddleware(jwt).OptionalAuth())
	whoami := func(c *gin.Context) {
		c.String(http.StatusOK, Identity(c))
	}
	router.GET("/whoami", whoami)
	router.POST("/whoami", whoami)
	return router
}

func TestOptionalAuth(t *testing.T) {
	jwt := newJWT()
	token, _, err := jwt.GenerateToken("alice@example.com")
	require.NoError(t, err)

	tests := []struct {
		name  string
		setup func(r *http.Request)
		want  string
	}{
		{name: "no token", setup: func(*http.Request) {}, want: ""},
		{name: "bearer header", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, want: "alice@example.com"},
		{name: "cookie", setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: token}) }, want: "alice@example.com"},
		{name: "garbage token", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer x.y.z") }, want: ""},
		{name: "wrong scheme", setup: func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			tt.setup(req)
			w := httptest.NewRecorder()

			identityRouter(jwt).ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestOptionalAuth_CookieOnStateChangingRequests(t *testing.T) {
	jwt := newJWT()
	token, _, err := jwt.GenerateToken("alice@example.com")
	require.NoError(t, err)

	tests := []struct {
		name    string
		method  string
		headers map[string]string
		want    string
	}{
		{name: "get with cookie", method: http.MethodGet, want: "alice@example.com"},
		{name: "websocket upgrade with cookie", method: http.MethodGet, headers: map[string]string{"Connection": "Upgrade", "Upgrade": "websocket", "Sec-Fetch-Site": "cross-site"}, want: "alice@example.com"},
		{name: "post without origin hints", method: http.MethodPost, want: ""},
		{name: "post from another site", method: http.MethodPost, headers: map[string]string{"Sec-Fetch-Site": "cross-site"}, want: ""},
		{name: "post with foreign origin", method: http.MethodPost, headers: map[string]string{"Origin": "https://evil.example"}, want: ""},
		{name: "post with null origin", method: http.MethodPost, headers: map[string]string{"Origin": "null"}, want: ""},
		{name: "post marked same-origin", method: http.MethodPost, headers: map[string]string{"Sec-Fetch-Site": "same-origin"}, want: "alice@example.com"},
		{name: "post with matching origin", method: http.MethodPost, headers: map[string]string{"Origin": "http://feed.example"}, want: "alice@example.com"},
		{name: "fetch metadata wins over origin", method: http.MethodPost, headers: map[string]string{"Sec-Fetch-Site": "same-site", "Origin": "http://feed.example"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "http://feed.example/whoami", nil)
			req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()

			identityRouter(jwt).ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestOptionalAuth_BearerOnPostIgnoresOrigin(t *testing.T) {
	jwt := newJWT()
	token, _, err := jwt.GenerateToken("bob@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	w := httptest.NewRecorder()

	identityRouter(jwt).ServeHTTP(w, req)

	assert.Equal(t, "bob@example.com", w.Body.String())
}

func TestHandleAPIError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    dto.ErrorCode
		wantMessage string
	}{
		{"unauthenticated", apperrors.ErrUnauthenticated, 401, dto.ErrorCodeUnauthorized, "Please log in!"},
		{"not found", apperrors.NewCustomError(apperrors.ErrMessageNotFound, "Message not found"), 404, dto.ErrorCodeResourceNotFound, "Message not found"},
		{"bad request", apperrors.NewBadRequestError("image field is malformed"), 400, dto.ErrorCodeValidationFailed, "image field is malformed"},
		{"too large", fmt.Errorf("read form: %w", apperrors.ErrUploadTooLarge), 413, dto.ErrorCodePayloadTooLarge, apperrors.ErrUploadTooLarge.Error()},
		{"required stage", apperrors.NewRequiredStageError("sentiment", errors.New("secret upstream detail")), 502, dto.ErrorCodeExternalServiceError, "Enrichment failed, please try again later"},
		{"storage", apperrors.NewStorageError("persist message", errors.New("pq: relation missing")), 500, dto.ErrorCodeDatabaseError, "Internal server error"},
		{"unknown", errors.New("boom"), 500, dto.ErrorCodeInternalServer, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(RequestID())
			router.GET("/fail", func(c *gin.Context) { HandleAPIError(c, tt.err) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

			require.Equal(t, tt.wantStatus, w.Code)
			var body dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantMessage, body.Error.Message)
			assert.Equal(t, w.Header().Get(RequestIDHeader), body.RequestID)
			assert.NotContains(t, w.Body.String(), "secret upstream detail")
			assert.NotContains(t, w.Body.String(), "relation missing")
		})
	}
}

func TestRequestID_ReusesUpstreamID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextKeyRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "upstream-123", w.Body.String())
	assert.Equal(t, "upstream-123", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestRequestLogger_WritesOneLine(t *testing.T) {
	var buf strings.Builder
	router := gin.New()
	router.Use(RequestID(), RequestLogger(zerolog.New(&buf)), Metrics())
	router.GET("/feed", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/feed", nil))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(buf.String()), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "/feed", line["path"])
	assert.Equal(t, float64(http.StatusTeapot), line["status"])
}

func TestBindAndValidate(t *testing.T) {
	router := gin.New()
	router.POST("/comments", func(c *gin.Context) {
		var req dto.CreateCommentRequest
		if !BindAndValidate(c, &req) {
			return
		}
		c.String(http.StatusOK, req.UserText)
	})

	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/comments", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusBadRequest, post(`{`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"messageId":"x","userText":"hi"}`).Code)

	w := post(`{"messageId":"3b241101-e2bb-4255-8caf-4136c566a962","userText":"hi"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hi", w.Body.String())
}
