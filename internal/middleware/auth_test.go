package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authgate/internal/models"
	"authgate/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSessionService struct {
	session *models.Session
	calls   int
}

func (f *fakeSessionService) Issue(user *models.User, ip, ua string) (*models.Session, error) {
	return nil, nil
}

func (f *fakeSessionService) Validate(token string) (*models.Session, error) {
	f.calls++
	if f.session != nil && f.session.Token == token {
		return f.session, nil
	}
	return nil, services.ErrSessionInvalid
}

func (f *fakeSessionService) Revoke(token string) error    { return nil }
func (f *fakeSessionService) RevokeByID(id string) error   { return nil }
func (f *fakeSessionService) PurgeExpired() (int64, error) { return 0, nil }

func newProtectedRouter(sessions services.SessionService) *gin.Engine {
	r := gin.New()
	r.GET("/protected", AuthMiddleware(sessions), func(c *gin.Context) {
		userID, _ := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return r
}

func signTestToken(t *testing.T, userID, sessionID string, exp time.Time) string {
	t.Helper()
	claims := &Claims{
		UserID:    userID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(JWTKey)
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware_JWT(t *testing.T) {
	sessions := &fakeSessionService{}
	r := newProtectedRouter(sessions)

	token := signTestToken(t, "u1", "s1", time.Now().Add(15*time.Minute))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"u1"`)
	assert.Equal(t, 0, sessions.calls, "JWT path must not hit the session store")
}

func TestAuthMiddleware_OpaqueToken(t *testing.T) {
	sessions := &fakeSessionService{session: &models.Session{
		ID: "s1", Token: "opaque-token", UserID: "u1",
		ExpiresAt: time.Now().Add(time.Hour),
	}}
	r := newProtectedRouter(sessions)

	// Bearer
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer opaque-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// cookie
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "opaque-token"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"u1"`)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	sessions := &fakeSessionService{}
	r := newProtectedRouter(sessions)

	// без токена
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// мусорный токен
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// протухший JWT
	token := signTestToken(t, "u1", "s1", time.Now().Add(-time.Hour))
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
