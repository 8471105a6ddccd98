package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gdg-garage/achievement-board/internal/config"
	"github.com/gdg-garage/achievement-board/internal/database"
	"github.com/gdg-garage/achievement-board/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*AuthHandler, *models.User) {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)

	user := &models.User{DiscordID: "123456", Username: "testuser", Email: "test@example.com"}
	require.NoError(t, db.Create(user).Error)

	cfg := &config.Config{JWTSecret: "test-secret"}
	return NewAuthHandler(cfg, db, nil), user
}

func signedToken(t *testing.T, secret string, userID uint, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

// serve runs Authenticate and reports the user seen by the next handler.
func serve(h *AuthHandler, cookie *http.Cookie) (*httptest.ResponseRecorder, *models.User) {
	var seen *models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	h.Authenticate(next).ServeHTTP(rr, req)
	return rr, seen
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthenticate(t *testing.T) {
	h, user := newTestHandler(t)

	t.Run("anonymous", func(t *testing.T) {
		rr, seen := serve(h, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Nil(t, seen)
	})

	t.Run("valid session", func(t *testing.T) {
		token, err := h.GenerateToken(user.ID)
		require.NoError(t, err)

		rr, seen := serve(h, &http.Cookie{Name: CookieName, Value: token})
		require.NotNil(t, seen)
		assert.Equal(t, user.ID, seen.ID)
		assert.Equal(t, "test@example.com", seen.Email)
		assert.Nil(t, findCookie(rr, CookieName), "fresh token must not be renewed")
	})

	t.Run("token renewed past half life", func(t *testing.T) {
		token := signedToken(t, "test-secret", user.ID, 11*time.Hour)

		rr, seen := serve(h, &http.Cookie{Name: CookieName, Value: token})
		require.NotNil(t, seen)

		renewed := findCookie(rr, CookieName)
		require.NotNil(t, renewed)
		assert.NotEqual(t, token, renewed.Value)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signedToken(t, "other-secret", user.ID, time.Hour)
		_, seen := serve(h, &http.Cookie{Name: CookieName, Value: token})
		assert.Nil(t, seen)
	})

	t.Run("expired", func(t *testing.T) {
		token := signedToken(t, "test-secret", user.ID, -time.Hour)
		_, seen := serve(h, &http.Cookie{Name: CookieName, Value: token})
		assert.Nil(t, seen)
	})

	t.Run("unknown user", func(t *testing.T) {
		token := signedToken(t, "test-secret", user.ID+100, time.Hour)
		_, seen := serve(h, &http.Cookie{Name: CookieName, Value: token})
		assert.Nil(t, seen)
	})
}

func TestRequireUser(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("anonymous is sent to sign in", func(t *testing.T) {
		rr := httptest.NewRecorder()
		RequireUser(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/achievements/new", nil))
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, SignInPath, rr.Header().Get("Location"))
	})

	t.Run("signed in passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/achievements/new", nil)
		req = req.WithContext(WithUser(req.Context(), &models.User{}))
		rr := httptest.NewRecorder()
		RequireUser(next).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}
