package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"slices"

	"github.com/gorilla/websocket" // WebSocketライブラリ

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/services/play"
)

// PlayHandler はWebSocketでゲームをプレイするための接続を処理します。
type PlayHandler struct {
	sessionManager *play.SessionManager
	upgrader       websocket.Upgrader
}

// NewPlayHandler は新しい PlayHandler インスタンスを作成します。
//
// Parameters:
//
//	sm             : セッションマネージャーへのポインタ
//	allowedOrigins : WebSocket接続を許可するオリジン。"*" を含む場合はすべて許可します
//
// Returns:
//
//	*PlayHandler: 新しく作成された PlayHandler のポインタ
func NewPlayHandler(sm *play.SessionManager, allowedOrigins []string) *PlayHandler {
	allowAll := slices.Contains(allowedOrigins, "*")
	return &PlayHandler{
		sessionManager: sm,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// WriteErrorResponse はエラーレスポンスをJSON形式で書き込みます。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// WriteJSONResponse はJSONレスポンスを書き込みます。
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// ServeWS はHTTP接続をWebSocketにアップグレードし、新しいゲームセッションを開始します。
// GET /api/play?name=<player>
func (h *PlayHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerName := r.URL.Query().Get("name")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade が失敗した場合は既にエラーレスポンスが書き込まれている
		log.Printf("[PlayHandler] WebSocket upgrade failed: %v", err)
		return
	}

	if _, err := h.sessionManager.StartSession(conn, playerName); err != nil {
		log.Printf("[PlayHandler] Failed to start session: %v", err)
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "session unavailable"))
		conn.Close()
	}
}
