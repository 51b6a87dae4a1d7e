package tetris

import (
	"log"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/models/tetris"
)

// PlayerGameState は単一プレイヤーのテトリスゲーム状態です。
// ボード、操作中のピース、ネクスト、ホールド、スコアを保持し、
// ピース操作（移動・回転・ドロップ・固定・ホールド）を提供します。
// 状態遷移（一時停止など）は Engine が管理し、ここでは扱いません。
type PlayerGameState struct {
	Board             tetris.Board      `json:"board"`              // 現在のゲームボード
	CurrentPiece      *tetris.Piece     `json:"current_piece"`      // 現在操作中のテトリミノ
	HeldPiece         *tetris.PieceType `json:"held_piece"`         // ホールド中のテトリミノの種類
	Score             int               `json:"score"`              // 現在のスコア
	LinesCleared      int               `json:"lines_cleared"`      // クリアしたライン数
	Level             int               `json:"level"`              // 現在のレベル
	IsGameOver        bool              `json:"is_game_over"`       // ゲームオーバー状態かどうか
	ConsecutiveClears int               `json:"consecutive_clears"` // 連続ラインクリア数 (コンボボーナス用)
	BackToBack        bool              `json:"back_to_back"`       // 直前のラインクリアがテトリスだったか

	config          GameConfig
	queue           *NextQueue
	hasUsedHold     bool    // 現在のピースでホールドが使用済みかどうか
	fallAccumulator float64 // 自動落下までの経過時間 (ms)
	lockTimer       float64 // 着地してからの経過時間 (ms)
	lockResets      int     // 現在のピースでロック猶予をリセットした回数
}

// NewPlayerGameState は新しいプレイヤーのゲーム状態を初期化して返します。
// 最初のピースはまだ出現させません。SpawnNewPiece を呼び出してゲームを開始してください。
//
// Parameters:
//
//	config : ゲーム設定（検証済みであること）
//	src    : ピース生成用の乱数源
//
// Returns:
//
//	*PlayerGameState: 初期化されたゲーム状態のポインタ
func NewPlayerGameState(config GameConfig, src RandomSource) *PlayerGameState {
	randomizer := NewBagRandomizer(src, config.AvoidBoundaryRepeat)
	return &PlayerGameState{
		Board:  tetris.NewBoard(),
		Level:  config.StartLevel,
		config: config,
		queue:  NewNextQueue(randomizer, config.PreviewDepth),
	}
}

// Reset はボード、スコア、ホールド、ネクストを初期状態に戻します。
// 乱数源はそのまま引き継ぎ、ネクストは新しい袋から作り直します。
func (s *PlayerGameState) Reset() {
	s.Board = tetris.NewBoard()
	s.CurrentPiece = nil
	s.HeldPiece = nil
	s.Score = 0
	s.LinesCleared = 0
	s.Level = s.config.StartLevel
	s.IsGameOver = false
	s.ConsecutiveClears = 0
	s.BackToBack = false
	s.hasUsedHold = false
	s.fallAccumulator = 0
	s.lockTimer = 0
	s.lockResets = 0
	s.queue.Reset()
}

// NextPieces はネクストキューの内容を出現順に返します。
func (s *PlayerGameState) NextPieces() []tetris.PieceType {
	return s.queue.Peek()
}

// CanHold は現在のピースでホールドが使えるかどうかを返します。
func (s *PlayerGameState) CanHold() bool {
	return !s.hasUsedHold
}

// SpawnNewPiece はネクストキューの先頭のピースを出現させます。
func (s *PlayerGameState) SpawnNewPiece() bool {
	return s.Spawn(s.queue.Pop())
}

// Spawn は指定された種類のピースを出現位置に置きます。
// 出現位置がふさがっている場合はゲームオーバーになり、falseを返します。
func (s *PlayerGameState) Spawn(t tetris.PieceType) bool {
	piece := tetris.NewPiece(t)
	s.fallAccumulator = 0
	s.lockTimer = 0
	s.lockResets = 0

	cells := piece.Cells()
	if s.Board.ToppedOut(cells[:]) {
		// 新しいピースがスポーン位置で既に衝突している場合はゲームオーバー
		s.CurrentPiece = nil
		s.IsGameOver = true
		log.Printf("[PlayerGameState] Game Over! Final Score: %d, Lines Cleared: %d, Level: %d", s.Score, s.LinesCleared, s.Level)
		return false
	}
	s.CurrentPiece = piece
	return true
}

// Move はピースを (dx, dy) だけ動かします。移動先がふさがっている場合は何もせずfalseを返します。
// 下方向への移動はロック猶予をリセットし、着地中の横移動はリセット回数の上限まで猶予をリセットします。
func (s *PlayerGameState) Move(dx, dy int) bool {
	if s.IsGameOver || s.CurrentPiece == nil {
		return false
	}
	if s.Board.HasCollision(s.CurrentPiece, dx, dy) {
		return false
	}
	s.CurrentPiece.X += dx
	s.CurrentPiece.Y += dy
	if dy > 0 {
		s.lockTimer = 0
	} else {
		s.resetLockDelay()
	}
	return true
}

// Rotate はピースを dir 方向に回転させます。
// ウォールキックのオフセットを順に試し、最初に配置できた位置に移動します。
// どのオフセットでも配置できない場合や、回転しても占有セルが変わらない場合は、回転も位置も変えずにfalseを返します。
func (s *PlayerGameState) Rotate(dir tetris.Direction) bool {
	if s.IsGameOver || s.CurrentPiece == nil {
		return false
	}
	p := s.CurrentPiece
	target := p.Rotation.Turn(dir)
	if p.CellsAt(0, 0, target) == p.Cells() {
		// O ミノは回転しても形が変わらない
		return false
	}
	for _, kick := range tetris.Kicks(p.Type, p.Rotation, dir) {
		cells := p.CellsAt(kick.X, kick.Y, target)
		if !s.Board.CanPlace(cells[:]) {
			continue
		}
		p.X += kick.X
		p.Y += kick.Y
		p.Rotation = target
		s.resetLockDelay()
		return true
	}
	return false
}

// resetLockDelay は着地中であればロック猶予をリセットします。
func (s *PlayerGameState) resetLockDelay() {
	if s.lockTimer == 0 {
		return
	}
	if limit := s.config.MaxLockResets; limit > 0 && s.lockResets >= limit {
		return
	}
	s.lockTimer = 0
	s.lockResets++
}

// SoftDropStep はピースを1行下に動かし、成功した場合はソフトドロップの得点を加算します。
func (s *PlayerGameState) SoftDropStep() bool {
	if !s.Move(0, 1) {
		return false
	}
	s.Score += s.config.SoftDropPoints
	s.fallAccumulator = 0
	return true
}

// HardDrop はピースを着地位置まで一気に落とし、即座に固定します。
// 落下した行数に応じてハードドロップの得点を加算します。
func (s *PlayerGameState) HardDrop() bool {
	if s.IsGameOver || s.CurrentPiece == nil {
		return false
	}
	rows := 0
	for s.Move(0, 1) {
		rows++
	}
	s.Score += rows * s.config.HardDropPoints
	s.Lock()
	return true
}

// GhostPosition は現在のピースをそのまま真下に落としたときの位置を返します。
// ピースがない場合はnilを返します。
func (s *PlayerGameState) GhostPosition() *tetris.Piece {
	if s.CurrentPiece == nil {
		return nil
	}
	ghost := s.CurrentPiece.Clone()
	for !s.Board.HasCollision(ghost, 0, 1) {
		ghost.Y++
	}
	return ghost
}

// Lock は現在のピースをボードに固定し、ラインクリア、スコア加算、レベルアップ、
// 次のピースの出現までを行います。
//
// Returns:
//
//	int: クリアされたライン数
func (s *PlayerGameState) Lock() int {
	if s.CurrentPiece == nil {
		return 0
	}
	if err := s.Board.MergePiece(s.CurrentPiece); err != nil {
		// 操作中のピースは常に空きマスにあるため、ここに来るのは内部状態の不整合
		log.Printf("[PlayerGameState] ピースの固定に失敗しました: %v", err)
	}

	clearedLines := s.Board.ClearFullRows()
	s.applyLineClear(clearedLines)

	// ホールドフラグをリセット（新しいピースなのでホールド可能）
	s.hasUsedHold = false
	s.CurrentPiece = nil
	s.SpawnNewPiece()
	return clearedLines
}

// Hold は現在のピースをホールドします。
// ホールドが空の場合はネクストから次のピースを出し、
// 既にホールドしている場合は入れ替えて、ホールドしていた種類を出現位置から出し直します。
// 一度ホールドすると、次にピースが固定されるまで再度ホールドできません。
func (s *PlayerGameState) Hold() bool {
	if s.IsGameOver || s.CurrentPiece == nil || s.hasUsedHold {
		return false
	}
	current := s.CurrentPiece.Type
	s.hasUsedHold = true

	if s.HeldPiece == nil {
		s.HeldPiece = &current
		s.CurrentPiece = nil
		s.SpawnNewPiece()
		return true
	}

	next := *s.HeldPiece
	*s.HeldPiece = current
	s.Spawn(next)
	return true
}
