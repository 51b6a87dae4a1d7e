package play

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/models"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/services/tetris"
)

// recorderFunc は関数を ScoreRecorder として使うためのアダプターです。
type recorderFunc func(ctx context.Context, score models.Score) (*models.Score, error)

func (f recorderFunc) CreateScore(ctx context.Context, score models.Score) (*models.Score, error) {
	return f(ctx, score)
}

func testConfig() Config {
	return Config{Game: tetris.DefaultGameConfig(), TickInterval: 10 * time.Millisecond}
}

func newTestSession(t *testing.T, name string) *Session {
	t.Helper()
	engine, err := tetris.NewEngine(tetris.DefaultGameConfig(), nil)
	require.NoError(t, err)
	return &Session{
		ID:         "session-1",
		PlayerName: name,
		engine:     engine,
		done:       make(chan struct{}),
		client:     &Client{SessionID: "session-1", Send: make(chan []byte, sendBufferSize)},
	}
}

func TestHandleMessageFeedsEngine(t *testing.T) {
	s := newTestSession(t, "ichigo")

	s.handleMessage(ClientMessage{Type: MessageKeyDown, Action: int(tetris.ActionStart)})
	s.engine.Update(0)
	assert.Equal(t, tetris.StatusPlaying, s.engine.State())

	s.handleMessage(ClientMessage{Type: MessageBlur})
	s.engine.Update(0)
	assert.Equal(t, tetris.StatusPaused, s.engine.State())

	s.handleMessage(ClientMessage{Type: "jump", Action: 1})
	assert.False(t, s.engine.Update(0))
}

func TestRecordScoreSavesNamedPlayer(t *testing.T) {
	saved := make(chan models.Score, 1)
	sm := NewSessionManager(testConfig(), recorderFunc(func(_ context.Context, score models.Score) (*models.Score, error) {
		saved <- score
		return &score, nil
	}))

	sm.recordScore(newTestSession(t, "  ichigo "))

	select {
	case score := <-saved:
		assert.Equal(t, models.Score{Name: "ichigo", Score: 0, Level: 1, Lines: 0}, score)
	case <-time.After(time.Second):
		t.Fatal("Expected score to be recorded, but it was not.")
	}
}

func TestRecordScoreSkipsAnonymousPlayer(t *testing.T) {
	called := make(chan struct{}, 1)
	sm := NewSessionManager(testConfig(), recorderFunc(func(context.Context, models.Score) (*models.Score, error) {
		called <- struct{}{}
		return nil, errors.New("unexpected call")
	}))

	sm.recordScore(newTestSession(t, ""))

	select {
	case <-called:
		t.Fatal("Expected anonymous score not to be recorded.")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendSnapshot(t *testing.T) {
	s := newTestSession(t, "ichigo")
	s.sendSnapshot()

	select {
	case msg := <-s.client.Send:
		assert.Contains(t, string(msg), `"type":"snapshot"`)
		assert.Contains(t, string(msg), `"session_id":"session-1"`)
	default:
		t.Fatal("Expected a snapshot message in the send buffer.")
	}
}

func TestClientSafeSendAfterClose(t *testing.T) {
	c := &Client{Send: make(chan []byte, 1)}

	assert.True(t, c.SafeSend([]byte("a")))
	assert.False(t, c.SafeSend([]byte("b")), "buffer is full")

	c.SafeClose()
	c.SafeClose()
	assert.False(t, c.SafeSend([]byte("c")))
}

func TestStartSessionAfterShutdown(t *testing.T) {
	sm := NewSessionManager(testConfig(), nil)
	sm.Shutdown()

	_, err := sm.StartSession(nil, "ichigo")
	assert.True(t, errors.Is(err, ErrSessionManagerClosed))
	assert.Equal(t, 0, sm.SessionCount())
}

func TestEndSessionIsIdempotent(t *testing.T) {
	sm := NewSessionManager(testConfig(), nil)
	s := newTestSession(t, "ichigo")
	sm.sessions[s.ID] = s

	require.Equal(t, 1, sm.SessionCount())

	sm.EndSession(s.ID)
	sm.EndSession(s.ID)
	assert.Equal(t, 0, sm.SessionCount())

	select {
	case <-s.done:
	default:
		t.Fatal("Expected session done channel to be closed.")
	}
}
