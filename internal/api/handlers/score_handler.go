package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/models"
)

// maxScoreBodyBytes はスコア登録リクエストのボディサイズ上限です。
const maxScoreBodyBytes = 4 << 10

// ScoreHandler はハイスコア関連のハンドラーを管理する構造体です。
type ScoreHandler struct {
	scoreRepo database.ScoreRepository
}

// NewScoreHandler は新しいScoreHandlerインスタンスを作成します。
func NewScoreHandler(scoreRepo database.ScoreRepository) *ScoreHandler {
	return &ScoreHandler{
		scoreRepo: scoreRepo,
	}
}

// GetTopScores は上位ランキングを取得するハンドラーです。
// GET /api/scores?limit=10
func (h *ScoreHandler) GetTopScores(w http.ResponseWriter, r *http.Request) {
	// limitパラメータを取得（デフォルト・上限ともに10）
	limit := models.TopScoresLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit < limit {
			limit = parsedLimit
		}
	}

	scores, err := h.scoreRepo.GetTopScores(r.Context(), limit)
	if err != nil {
		log.Printf("[ScoreHandler] スコア取得エラー: %v", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Failed to fetch scores")
		return
	}

	WriteJSONResponse(w, http.StatusOK, scores)
}

// PostScore はスコアを保存するハンドラーです。
// POST /api/scores
func (h *ScoreHandler) PostScore(w http.ResponseWriter, r *http.Request) {
	var req models.ScoreRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxScoreBodyBytes)).Decode(&req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid score data")
		return
	}

	score, err := req.Validate()
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid score data")
		return
	}

	saved, err := h.scoreRepo.CreateScore(r.Context(), score)
	if err != nil {
		log.Printf("[ScoreHandler] スコア保存エラー: %v", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Failed to save score")
		return
	}

	// トークン認証が有効な場合は送信元のsubjectも残す
	submitter, ok := middleware.GetSubjectFromContext(r.Context())
	if !ok {
		submitter = "anonymous"
	}
	log.Printf("[ScoreHandler] スコアを保存しました: name=%q score=%d level=%d lines=%d submitter=%s", saved.Name, saved.Score, saved.Level, saved.Lines, submitter)
	WriteJSONResponse(w, http.StatusCreated, map[string]bool{"success": true})
}
