package handlers

import (
	"net/http"
)

// HealthHandler はサーバーの死活確認用のハンドラーです。
// GET /health
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
