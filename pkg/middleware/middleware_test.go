package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"feedbackportal/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(issuer *utils.JWTIssuer, role string) *gin.Engine {
	r := gin.New()
	r.Use(TraceIDMiddleware())
	r.GET("/protected", JWTAuthMiddleware(issuer), RoleMiddleware(role), func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		c.JSON(http.StatusOK, gin.H{"role": claims.Role, "email": claims.Email})
	})
	return r
}

func TestJWTAuthMiddleware(t *testing.T) {
	issuer := utils.NewJWTIssuer("secret", time.Hour, time.Hour)
	adminToken, err := issuer.CreateAdminToken()
	require.NoError(t, err)
	attendeeToken, err := issuer.CreateSubmissionToken(uuid.NewString(), "alice@example.com")
	require.NoError(t, err)
	forged, err := utils.NewJWTIssuer("other-secret", time.Hour, time.Hour).CreateAdminToken()
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"missing token", "", "", http.StatusUnauthorized},
		{"malformed header", "Token " + adminToken, "", http.StatusUnauthorized},
		{"forged signature", "Bearer " + forged, "", http.StatusUnauthorized},
		{"garbage", "Bearer not.a.jwt", "", http.StatusUnauthorized},
		{"wrong role", "Bearer " + attendeeToken, "", http.StatusForbidden},
		{"bearer admin", "Bearer " + adminToken, "", http.StatusOK},
		{"cookie admin", "", adminToken, http.StatusOK},
	}

	r := protectedRouter(issuer, utils.RoleAdmin)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AdminCookieName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want != http.StatusOK {
				assert.Contains(t, w.Body.String(), `"status":"error"`)
			}
		})
	}
}

func TestAttendeeTokenCarriesSubmitter(t *testing.T) {
	issuer := utils.NewJWTIssuer("secret", time.Hour, time.Hour)
	token, err := issuer.CreateSubmissionToken(uuid.NewString(), "alice@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	protectedRouter(issuer, utils.RoleAttendee).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"role":"attendee","email":"alice@example.com"}`, w.Body.String())
}

func TestTraceIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(TraceIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("trace_id")) })

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, incoming)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Body.String())
	assert.Equal(t, incoming, w.Header().Get(TraceIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "<script>")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	_, err := uuid.Parse(w.Body.String())
	assert.NoError(t, err)
}

func TestCORSMiddlewareAllowsConfiguredOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://localhost:3000"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
