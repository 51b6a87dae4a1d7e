package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/api/handlers"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/services/play"
)

// RouterDeps はルーターが必要とする依存関係です。
type RouterDeps struct {
	ScoreRepo       database.ScoreRepository
	SessionManager  *play.SessionManager
	AllowedOrigins  []string
	ScoresJWTSecret string
}

// NewRouter はAPIのルーティングを設定したハンドラーを返します。
func NewRouter(deps RouterDeps) http.Handler {
	scoreHandler := handlers.NewScoreHandler(deps.ScoreRepo)
	playHandler := handlers.NewPlayHandler(deps.SessionManager, deps.AllowedOrigins)

	r := mux.NewRouter()
	// 認証不要な公開エンドポイント
	r.HandleFunc("/health", handlers.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/scores", scoreHandler.GetTopScores).Methods(http.MethodGet)
	r.HandleFunc("/api/play", playHandler.ServeWS).Methods(http.MethodGet)

	// スコア登録は SCORES_JWT_SECRET が設定されている場合のみ認証が必要
	r.Handle("/api/scores", middleware.RequireScoreToken(deps.ScoresJWTSecret)(http.HandlerFunc(scoreHandler.PostScore))).
		Methods(http.MethodPost)

	return middleware.CORSHandler(deps.AllowedOrigins)(r)
}
