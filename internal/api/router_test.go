package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/services/play"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/services/tetris"
)

func newTestRouter(secret string) http.Handler {
	sm := play.NewSessionManager(play.Config{Game: tetris.DefaultGameConfig(), TickInterval: 16 * time.Millisecond}, nil)
	return NewRouter(RouterDeps{
		ScoreRepo:       database.NewMemoryScoreRepository(),
		SessionManager:  sm,
		AllowedOrigins:  []string{"*"},
		ScoresJWTSecret: secret,
	})
}

func TestRouter(t *testing.T) {
	router := newTestRouter("")

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/api/scores", "", http.StatusOK},
		{http.MethodPost, "/api/scores", `{"name":"a","score":10,"level":1,"lines":0}`, http.StatusCreated},
		{http.MethodDelete, "/api/scores", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/unknown", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRouterProtectsScoreSubmission(t *testing.T) {
	router := newTestRouter("secret")

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"name":"a","score":10,"level":1,"lines":0}`)
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scores", body))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scores", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "reading the leaderboard stays public")
}

func TestRouterAcceptsSignedScoreSubmission(t *testing.T) {
	router := newTestRouter("secret")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "frontend",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/scores", strings.NewReader(`{"name":"a","score":10,"level":1,"lines":0}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
