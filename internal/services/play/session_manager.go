package play

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket" // WebSocketライブラリのインポート

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/models"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/services/tetris"
)

const (
	readTimeout    = 300 * time.Second // クライアントからの受信タイムアウト（Pong受信でリセット）
	writeTimeout   = 10 * time.Second
	pingInterval   = 60 * time.Second
	maxMessageSize = 1024
	sendBufferSize = 64
	recordTimeout  = 5 * time.Second
)

// メッセージの種類
const (
	MessageKeyDown  = "key_down"
	MessageKeyUp    = "key_up"
	MessageBlur     = "blur"
	MessageSnapshot = "snapshot"
)

// ErrSessionManagerClosed はシャットダウン後にセッションを開始しようとしたときに返されます。
var ErrSessionManagerClosed = errors.New("セッションマネージャーは停止しています")

// ScoreRecorder はゲームオーバー時のスコアを保存する先です。
// database.ScoreRepository がこのインターフェースを満たします。
type ScoreRecorder interface {
	CreateScore(ctx context.Context, score models.Score) (*models.Score, error)
}

// ClientMessage はクライアントから送られてくる操作メッセージです。
type ClientMessage struct {
	Type   string `json:"type"`   // "key_down", "key_up", "blur"
	Action int    `json:"action"` // キーコード (0-9)
}

// ServerMessage はクライアントに送るメッセージです。
type ServerMessage struct {
	Type      string              `json:"type"`
	SessionID string              `json:"session_id"`
	Snapshot  *tetris.RenderState `json:"snapshot,omitempty"`
}

// Client はWebSocket接続を持つ単一のクライアントを表します。
type Client struct {
	SessionID string          // このクライアントに紐づくセッションのID
	Conn      *websocket.Conn // クライアントとの実際のWebSocketコネクション
	Send      chan []byte     // クライアントへメッセージを送信するためのバッファ付きチャネル
	closed    bool            // チャネルが閉じられたかどうかのフラグ
	mu        sync.Mutex      // closedフラグ保護用
}

// SafeSend は安全にチャネルにメッセージを送信します（closedチェック付き）
func (c *Client) SafeSend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false // 既に閉じられている
	}

	select {
	case c.Send <- message:
		return true // 送信成功
	default:
		return false // チャネルがフル
	}
}

// SafeClose は安全にチャネルを閉じます
func (c *Client) SafeClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

// Session は1つのWebSocket接続で遊ばれている1ゲームです。
// エンジンの Update とスナップショット取得は gameLoop のゴルーチンだけが行います。
type Session struct {
	ID         string
	PlayerName string
	client     *Client
	engine     *tetris.Engine
	done       chan struct{}
	closeOnce  sync.Once
}

// Config はセッションマネージャーの設定です。
type Config struct {
	Game         tetris.GameConfig
	TickInterval time.Duration // エンジンの Update を呼ぶ間隔
}

// SessionManager はプレイ中のセッションとWebSocket接続を管理します。
type SessionManager struct {
	sessions map[string]*Session // sessionID -> Session
	mu       sync.RWMutex
	config   Config
	recorder ScoreRecorder
	closed   bool
}

// NewSessionManager は新しい SessionManager を作成します。
//
// Parameters:
//
//	config   : ゲーム設定とティック間隔
//	recorder : ゲームオーバー時のスコアの保存先。nil の場合は保存しません
//
// Returns:
//
//	*SessionManager: 初期化されたセッションマネージャーのポインタ
func NewSessionManager(config Config, recorder ScoreRecorder) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		config:   config,
		recorder: recorder,
	}
}

// StartSession は conn に対して新しいゲームを作り、読み込み・書き込み・ゲームループの
// 3つのゴルーチンを開始します。ゲームは Idle 状態で始まり、クライアントの開始キーで動き出します。
func (sm *SessionManager) StartSession(conn *websocket.Conn, playerName string) (*Session, error) {
	engine, err := tetris.NewEngine(sm.config.Game, nil)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	session := &Session{
		ID:         id,
		PlayerName: playerName,
		engine:     engine,
		done:       make(chan struct{}),
		client: &Client{
			SessionID: id,
			Conn:      conn,
			Send:      make(chan []byte, sendBufferSize),
		},
	}

	sm.mu.Lock()
	if sm.closed {
		sm.mu.Unlock()
		return nil, ErrSessionManagerClosed
	}
	sm.sessions[id] = session
	sm.mu.Unlock()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout)) // Pong受信時にタイムアウトリセット
		return nil
	})

	go sm.readPump(session)
	go session.client.writePump()
	go sm.gameLoop(session)

	log.Printf("[SessionManager] Session %s started (player: %q)", id, playerName)
	return session, nil
}

// SessionCount はプレイ中のセッション数を返します。
func (sm *SessionManager) SessionCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// EndSession はセッションのゲームループを止め、接続を閉じます。何度呼んでも安全です。
func (sm *SessionManager) EndSession(sessionID string) {
	sm.mu.Lock()
	session, ok := sm.sessions[sessionID]
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()
	if !ok {
		return
	}

	session.closeOnce.Do(func() {
		close(session.done)
		session.client.SafeClose()
		log.Printf("[SessionManager] Session %s ended", sessionID)
	})
}

// Shutdown はすべてのセッションを終了し、新しいセッションの受け付けを止めます。
func (sm *SessionManager) Shutdown() {
	sm.mu.Lock()
	sm.closed = true
	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	sm.mu.Unlock()

	for _, id := range ids {
		sm.EndSession(id)
	}
	log.Printf("[SessionManager] Shutdown complete (%d sessions closed)", len(ids))
}

// gameLoop は TickInterval ごとにエンジンを進め、変化があればスナップショットを送信します。
func (sm *SessionManager) gameLoop(s *Session) {
	ticker := time.NewTicker(sm.config.TickInterval)
	defer ticker.Stop()

	s.sendSnapshot()
	last := time.Now()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			delta := float64(now.Sub(last)) / float64(time.Millisecond)
			last = now

			before := s.engine.State()
			changed := s.engine.Update(delta)
			if before != tetris.StatusGameOver && s.engine.State() == tetris.StatusGameOver {
				sm.recordScore(s)
			}
			if changed {
				s.sendSnapshot()
			}
		}
	}
}

func (s *Session) sendSnapshot() {
	snapshot := s.engine.Snapshot()
	message, err := json.Marshal(ServerMessage{Type: MessageSnapshot, SessionID: s.ID, Snapshot: &snapshot})
	if err != nil {
		log.Printf("[SessionManager] Failed to marshal snapshot for session %s: %v", s.ID, err)
		return
	}
	if !s.client.SafeSend(message) {
		log.Printf("[SessionManager] Dropped snapshot for session %s (send buffer full or closed)", s.ID)
	}
}

// recordScore はゲームオーバーになったセッションのスコアを保存します。
// 名前が無い、またはスコアが検証を通らない場合は保存しません。
func (sm *SessionManager) recordScore(s *Session) {
	if sm.recorder == nil {
		return
	}
	score, lines, level := float64(s.engine.Score()), float64(s.engine.Lines()), float64(s.engine.Level())
	entry, err := models.ScoreRequest{Name: s.PlayerName, Score: &score, Level: &level, Lines: &lines}.Validate()
	if err != nil {
		log.Printf("[SessionManager] Session %s finished without a valid player name; score %d not recorded", s.ID, s.engine.Score())
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if _, err := sm.recorder.CreateScore(ctx, entry); err != nil {
			log.Printf("[SessionManager] Failed to record score for session %s: %v", s.ID, err)
			return
		}
		log.Printf("[SessionManager] Recorded score %d for %q (session %s)", entry.Score, entry.Name, s.ID)
	}()
}

// handleMessage はクライアントからのメッセージをエンジンの入力バッファに積みます。
func (s *Session) handleMessage(msg ClientMessage) {
	switch msg.Type {
	case MessageKeyDown:
		s.engine.KeyDown(msg.Action)
	case MessageKeyUp:
		s.engine.KeyUp(msg.Action)
	case MessageBlur:
		s.engine.OnBlur()
	default:
		log.Printf("[SessionManager] Unknown message type %q from session %s", msg.Type, s.ID)
	}
}

// readPump はクライアントからのWebSocketメッセージを読み込み、エンジンに渡します。
// 接続が切れたらセッションを終了します。
func (sm *SessionManager) readPump(s *Session) {
	defer func() {
		sm.EndSession(s.ID)
		if err := s.client.Conn.Close(); err != nil {
			log.Printf("[SessionManager] Error closing WebSocket connection for session %s: %v", s.ID, err)
		}
	}()

	for {
		_, message, err := s.client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[SessionManager] WebSocket unexpected close error for session %s: %v", s.ID, err)
			}
			return
		}
		if len(message) == 0 {
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("[SessionManager] Failed to unmarshal input message from session %s: %v", s.ID, err)
			continue // パース失敗時はこのメッセージをスキップ
		}
		s.handleMessage(msg)
	}
}

// writePump は Client の Send チャネルからのメッセージをWebSocketコネクションに書き込みます。
// クライアントごとにこのゴルーチンが動作します。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// セッション終了時にチャネルが閉じられた
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[Client] Error writing message for session %s: %v", c.SessionID, err)
				return
			}

		case <-ticker.C:
			// ピングメッセージを定期的に送信してコネクションの生存確認
			c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[Client] Error sending ping for session %s: %v", c.SessionID, err)
				return
			}
		}
	}
}
