package tetris

import (
	"fmt"
	"log"
	"math"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/models/tetris"
)

// GameStatus はゲーム全体の状態です。
type GameStatus int

const (
	StatusIdle     GameStatus = iota // 0: 開始前
	StatusPlaying                    // 1: プレイ中
	StatusPaused                     // 2: 一時停止中
	StatusGameOver                   // 3: ゲームオーバー
)

func (s GameStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Engine は1ゲーム分のテトリスエンジンです。
// 呼び出し側がフレームごとに Update を呼び、キー入力を KeyDown / KeyUp で渡します。
//
// Update と各種スナップショット取得は同じゴルーチンから呼び出してください。
// KeyDown / KeyUp / OnBlur は入力バッファに積むだけなので、どのゴルーチンからでも呼び出せます。
type Engine struct {
	config  GameConfig
	source  RandomSource
	status  GameStatus
	game    *PlayerGameState
	input   *InputBuffer
	shifter *AutoShifter
}

// NewEngine は新しいエンジンを Idle 状態で返します。
//
// Parameters:
//
//	config : ゲーム設定
//	src    : ピース生成用の乱数源。nil の場合は config.Seed から作ります
//
// Returns:
//
//	*Engine: エンジン
//	error  : 設定が不正な場合 ErrInvalidConfig をラップしたエラー
func NewEngine(config GameConfig, src RandomSource) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("エンジンを作成できません: %w", err)
	}
	if src == nil {
		src = NewRandomSource(config.Seed)
	}
	return &Engine{
		config:  config,
		source:  src,
		status:  StatusIdle,
		input:   NewInputBuffer(),
		shifter: NewAutoShifter(durationMs(config.DASDelay), durationMs(config.ARRInterval)),
	}, nil
}

// KeyDown はキーコード code が押されたことを伝えます。未知のコードは無視します。
func (e *Engine) KeyDown(code int) {
	if a, ok := ActionFromCode(code); ok {
		e.input.KeyDown(a)
	}
}

// KeyUp はキーコード code が離されたことを伝えます。未知のコードは無視します。
func (e *Engine) KeyUp(code int) {
	if a, ok := ActionFromCode(code); ok {
		e.input.KeyUp(a)
	}
}

// OnBlur はフォーカスを失ったことを伝えます。プレイ中であれば次の Update で一時停止します。
func (e *Engine) OnBlur() {
	e.input.Blur()
}

// Update は deltaMs ミリ秒分ゲームを進めます。
// 溜まった入力を到着順に処理し、プレイ中であればキーリピート、自動落下、ロック猶予を進めます。
//
// Returns:
//
//	bool: 表示に影響する変化があった場合はtrue
func (e *Engine) Update(deltaMs float64) bool {
	if deltaMs < 0 || math.IsNaN(deltaMs) || math.IsInf(deltaMs, 0) {
		deltaMs = 0
	}

	frame := e.input.Drain()
	changed := false
	for _, ev := range frame.Events {
		switch {
		case ev.Blur:
			if e.status == StatusPlaying {
				e.status = StatusPaused
				changed = true
			}
		case ev.Down:
			if e.handleAction(ev.Action) {
				changed = true
			}
		}
	}

	if e.status != StatusPlaying {
		e.shifter.Reset()
		return changed
	}

	for _, a := range e.shifter.Update(frame, deltaMs) {
		if e.status != StatusPlaying {
			break
		}
		if e.handleAction(a) {
			changed = true
		}
	}

	if e.status == StatusPlaying && e.game.Advance(deltaMs) {
		changed = true
	}
	e.checkGameOver()
	return changed
}

// handleAction は現在の状態に応じて1つの操作を処理します。
func (e *Engine) handleAction(a Action) bool {
	switch e.status {
	case StatusIdle:
		switch a {
		case ActionStart:
			e.start()
			return true
		case ActionRestart:
			return e.restart()
		}
	case StatusPlaying:
		switch a {
		case ActionPause:
			e.status = StatusPaused
			return true
		case ActionRestart:
			return e.restart()
		default:
			moved := ApplyPlayerInput(e.game, a)
			e.checkGameOver()
			return moved
		}
	case StatusPaused:
		switch a {
		case ActionPause:
			e.status = StatusPlaying
			return true
		case ActionRestart:
			return e.restart()
		}
	case StatusGameOver:
		if a == ActionRestart {
			return e.restart()
		}
	}
	return false
}

// ApplyPlayerInput はプレイヤーの入力（アクション）に基づいて、
// 指定されたプレイヤーのゲーム状態を更新します。
// 状態遷移に関わる操作（開始・一時停止・リスタート）はここでは扱いません。
//
// Parameters:
//
//	state  : 更新するプレイヤーのゲーム状態のポインタ
//	action : プレイヤーが実行したアクション
//
// Returns:
//
//	bool: ゲーム状態が実際に変更された場合はtrue、変更されなかった場合はfalse
func ApplyPlayerInput(state *PlayerGameState, action Action) bool {
	if state == nil {
		return false
	}
	switch action {
	case ActionMoveLeft:
		return state.Move(-1, 0)
	case ActionMoveRight:
		return state.Move(1, 0)
	case ActionSoftDrop:
		return state.SoftDropStep()
	case ActionHardDrop:
		return state.HardDrop()
	case ActionRotateCW:
		return state.Rotate(tetris.Clockwise)
	case ActionRotateCCW:
		return state.Rotate(tetris.CounterClockwise)
	case ActionHold:
		return state.Hold()
	default:
		return false
	}
}

// start はゲームを初期状態から始め、最初のピースを出現させます。
// 2回目以降は前のゲーム状態を作り直して使います。
func (e *Engine) start() {
	if e.game == nil {
		e.game = NewPlayerGameState(e.config, e.source)
	} else {
		e.game.Reset()
	}
	e.shifter.Reset()
	e.status = StatusPlaying
	e.game.SpawnNewPiece()
	e.checkGameOver()
}

// restart はゲームを中断して Idle に戻します。押されたままのキーと未処理の入力も破棄します。
// すでに Idle の場合は何もしません。
func (e *Engine) restart() bool {
	if e.status == StatusIdle {
		return false
	}
	e.input.Reset()
	e.shifter.Reset()
	e.status = StatusIdle
	return true
}

// current は表示と集計に使うゲーム状態を返します。Idle の間は前のゲームを見せないためnilです。
func (e *Engine) current() *PlayerGameState {
	if e.status == StatusIdle {
		return nil
	}
	return e.game
}

func (e *Engine) checkGameOver() {
	if e.status == StatusPlaying && e.game != nil && e.game.IsGameOver {
		e.status = StatusGameOver
		log.Printf("[Engine] Game Over! Final Score: %d, Lines Cleared: %d", e.game.Score, e.game.LinesCleared)
	}
}

// State は現在のゲーム状態を返します。
func (e *Engine) State() GameStatus { return e.status }

// Score は現在のスコアを返します。
func (e *Engine) Score() int {
	game := e.current()
	if game == nil {
		return 0
	}
	return game.Score
}

// Level は現在のレベルを返します。
func (e *Engine) Level() int {
	game := e.current()
	if game == nil {
		return e.config.StartLevel
	}
	return game.Level
}

// Lines は消去したライン数を返します。
func (e *Engine) Lines() int {
	game := e.current()
	if game == nil {
		return 0
	}
	return game.LinesCleared
}

// HoldAvailable は現在のピースでホールドが使えるかどうかを返します。
func (e *Engine) HoldAvailable() bool {
	game := e.current()
	return game == nil || game.CanHold()
}

// Snapshot は描画用のスナップショットを返します。
func (e *Engine) Snapshot() RenderState {
	return newRenderState(e.status, e.current(), e.config.StartLevel)
}

// BoardCells は固定済みブロックを (x, y, color, opacity) の並びで返します。
func (e *Engine) BoardCells() []byte {
	game := e.current()
	if game == nil {
		return []byte{}
	}
	return FlattenCells(boardCells(&game.Board))
}

// ActiveCells は操作中のピースのセルを返します。
func (e *Engine) ActiveCells() []byte {
	return FlattenCells(e.Snapshot().ActiveCells)
}

// GhostCells はゴーストピースのセルを返します。
func (e *Engine) GhostCells() []byte {
	return FlattenCells(e.Snapshot().GhostCells)
}

// NextCells はネクストのピースを縦に並べたセルを返します。
func (e *Engine) NextCells() []byte {
	return FlattenCells(e.Snapshot().NextCells)
}

// HoldCells はホールド中のピースのセルを返します。
func (e *Engine) HoldCells() []byte {
	return FlattenCells(e.Snapshot().HoldCells)
}
