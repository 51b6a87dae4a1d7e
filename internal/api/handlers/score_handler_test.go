package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/models"
)

// failingRepository は常にエラーを返す ScoreRepository です。
type failingRepository struct{}

func (failingRepository) CreateScore(context.Context, models.Score) (*models.Score, error) {
	return nil, errors.New("database is down")
}

func (failingRepository) GetTopScores(context.Context, int) ([]models.ScoreResponse, error) {
	return nil, errors.New("database is down")
}

func seededRepository(t *testing.T, n int) database.ScoreRepository {
	t.Helper()
	repo := database.NewMemoryScoreRepository()
	for i := 0; i < n; i++ {
		_, err := repo.CreateScore(context.Background(), models.Score{Name: fmt.Sprintf("p%d", i), Score: i * 100, Level: 1})
		require.NoError(t, err)
	}
	return repo
}

func getScores(t *testing.T, h *ScoreHandler, query string) []models.ScoreResponse {
	t.Helper()
	rec := httptest.NewRecorder()
	h.GetTopScores(rec, httptest.NewRequest(http.MethodGet, "/api/scores"+query, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var scores []models.ScoreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scores))
	return scores
}

func TestGetTopScores(t *testing.T) {
	h := NewScoreHandler(seededRepository(t, 15))

	scores := getScores(t, h, "")
	require.Len(t, scores, models.TopScoresLimit)
	assert.Equal(t, "p14", scores[0].Name)
	assert.Equal(t, 1400, scores[0].Score.Score)
	assert.Equal(t, 1, scores[0].Rank)

	assert.Len(t, getScores(t, h, "?limit=3"), 3)
	assert.Len(t, getScores(t, h, "?limit=50"), models.TopScoresLimit)
	assert.Len(t, getScores(t, h, "?limit=abc"), models.TopScoresLimit)
}

func TestGetTopScoresEmptyIsArray(t *testing.T) {
	h := NewScoreHandler(database.NewMemoryScoreRepository())

	rec := httptest.NewRecorder()
	h.GetTopScores(rec, httptest.NewRequest(http.MethodGet, "/api/scores", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetTopScoresStoreError(t *testing.T) {
	h := NewScoreHandler(failingRepository{})

	rec := httptest.NewRecorder()
	h.GetTopScores(rec, httptest.NewRequest(http.MethodGet, "/api/scores", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPostScore(t *testing.T) {
	repo := database.NewMemoryScoreRepository()
	h := NewScoreHandler(repo)

	rec := httptest.NewRecorder()
	body := `{"name":" ichigo ","score":4200,"level":3,"lines":25}`
	h.PostScore(rec, httptest.NewRequest(http.MethodPost, "/api/scores", strings.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	top, err := repo.GetTopScores(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "ichigo", top[0].Name)
	assert.Equal(t, 25, top[0].Lines)
}

// TestPostScoreAcceptsFractionalNumbers は小数で送られた数値を切り捨てて保存することをテストします。
func TestPostScoreAcceptsFractionalNumbers(t *testing.T) {
	repo := database.NewMemoryScoreRepository()
	h := NewScoreHandler(repo)

	rec := httptest.NewRecorder()
	body := `{"name":"ichigo","score":1234.0,"level":2.0,"lines":12.7}`
	h.PostScore(rec, httptest.NewRequest(http.MethodPost, "/api/scores", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	top, err := repo.GetTopScores(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 1234, top[0].Score.Score)
	assert.Equal(t, 2, top[0].Level)
	assert.Equal(t, 12, top[0].Lines)
}

func TestPostScoreRejectsInvalidData(t *testing.T) {
	h := NewScoreHandler(database.NewMemoryScoreRepository())

	bodies := map[string]string{
		"malformed json": `{"name":`,
		"missing score":  `{"name":"a","level":1,"lines":0}`,
		"empty name":     `{"name":"","score":1,"level":1,"lines":0}`,
		"long name":      `{"name":"abcdefghijklmnopqrstu","score":1,"level":1,"lines":0}`,
		"wrong type":     `{"name":"a","score":"many","level":1,"lines":0}`,
		"negative score": `{"name":"a","score":-0.5,"level":1,"lines":0}`,
		"oversized body": `{"name":"` + strings.Repeat("a", 5000) + `","score":1,"level":1,"lines":0}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.PostScore(rec, httptest.NewRequest(http.MethodPost, "/api/scores", strings.NewReader(body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"Invalid score data"}`, rec.Body.String())
		})
	}
}

func TestPostScoreStoreError(t *testing.T) {
	h := NewScoreHandler(failingRepository{})

	rec := httptest.NewRecorder()
	body := `{"name":"a","score":1,"level":1,"lines":0}`
	h.PostScore(rec, httptest.NewRequest(http.MethodPost, "/api/scores", strings.NewReader(body)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
