package tetris

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidConfig は GameConfig の値が不正なときに返されます。
var ErrInvalidConfig = errors.New("ゲーム設定が不正です")

const (
	DefaultLockDelay          = 500 * time.Millisecond // ピースが着地してから固定されるまでの猶予時間
	DefaultMinGravityInterval = 33 * time.Millisecond  // 自動落下間隔の下限
	DefaultLinesPerLevel      = 10                     // レベルアップに必要なライン数
	DefaultPreviewDepth       = 3                      // ネクストに表示するピース数
	DefaultDASDelay           = 170 * time.Millisecond // 横移動・ソフトドロップのリピート開始までの時間
	DefaultARRInterval        = 50 * time.Millisecond  // リピート間隔
)

// nesGravityFrames はレベル1からの自動落下間隔（60fps換算のフレーム数）です。
// 最後の要素がそれ以降のすべてのレベルに適用されます。
var nesGravityFrames = []int{
	48, 43, 38, 33, 28, 23, 18, 13, 8, // 1-9
	6, 6, 6, // 10-12
	5, 5, 5, // 13-15
	4, 4, 4, // 16-18
	3, 3, 3, 3, 3, 3, 3, 3, 3, 3, // 19-28
	2, // 29+
}

// DefaultGravityTable はレベルごとの自動落下間隔の既定値を返します。
func DefaultGravityTable() []time.Duration {
	table := make([]time.Duration, len(nesGravityFrames))
	for i, frames := range nesGravityFrames {
		table[i] = time.Duration(frames*1000/60) * time.Millisecond
	}
	return table
}

// GameConfig はゲーム全体のルールを調整するための設定値です。
// ゼロ値は使わず、DefaultGameConfig から必要な項目だけ書き換えてください。
type GameConfig struct {
	GravityTable         []time.Duration // レベル-1 をインデックスとする自動落下間隔
	MinGravityInterval   time.Duration
	LockDelay            time.Duration
	MaxLockResets        int // 着地中の移動・回転でロック猶予をリセットできる回数。0 は無制限
	PreviewDepth         int
	StartLevel           int
	LinesPerLevel        int
	LineClearScores      [5]int // インデックスは同時に消したライン数
	SoftDropPoints       int
	HardDropPoints       int
	ComboBonus           int     // 連続ラインクリア1回あたりのボーナス（レベル倍）。0 で無効
	BackToBackMultiplier float64 // テトリス連続時の倍率。1.0 で無効
	AvoidBoundaryRepeat  bool
	DASDelay             time.Duration
	ARRInterval          time.Duration
	Seed                 int64 // 0 の場合は現在時刻
}

// DefaultGameConfig は既定のゲーム設定を返します。
func DefaultGameConfig() GameConfig {
	return GameConfig{
		GravityTable:         DefaultGravityTable(),
		MinGravityInterval:   DefaultMinGravityInterval,
		LockDelay:            DefaultLockDelay,
		PreviewDepth:         DefaultPreviewDepth,
		StartLevel:           1,
		LinesPerLevel:        DefaultLinesPerLevel,
		LineClearScores:      [5]int{0, 100, 300, 500, 800},
		SoftDropPoints:       1,
		HardDropPoints:       2,
		BackToBackMultiplier: 1.0,
		DASDelay:             DefaultDASDelay,
		ARRInterval:          DefaultARRInterval,
	}
}

// Validate は設定値の整合性を検証します。
func (c GameConfig) Validate() error {
	if len(c.GravityTable) == 0 {
		return fmt.Errorf("%w: 落下間隔テーブルが空です", ErrInvalidConfig)
	}
	for i, interval := range c.GravityTable {
		if interval <= 0 {
			return fmt.Errorf("%w: レベル%dの落下間隔 %s は正の値である必要があります", ErrInvalidConfig, i+1, interval)
		}
		if i > 0 && interval > c.GravityTable[i-1] {
			return fmt.Errorf("%w: レベル%dの落下間隔 %s が前のレベルより長くなっています", ErrInvalidConfig, i+1, interval)
		}
	}
	switch {
	case c.MinGravityInterval <= 0:
		return fmt.Errorf("%w: MinGravityInterval は正の値である必要があります", ErrInvalidConfig)
	case c.LockDelay < 0:
		return fmt.Errorf("%w: LockDelay は0以上である必要があります", ErrInvalidConfig)
	case c.MaxLockResets < 0:
		return fmt.Errorf("%w: MaxLockResets は0以上である必要があります", ErrInvalidConfig)
	case c.PreviewDepth < 1:
		return fmt.Errorf("%w: PreviewDepth は1以上である必要があります", ErrInvalidConfig)
	case c.StartLevel < 1:
		return fmt.Errorf("%w: StartLevel は1以上である必要があります", ErrInvalidConfig)
	case c.LinesPerLevel < 1:
		return fmt.Errorf("%w: LinesPerLevel は1以上である必要があります", ErrInvalidConfig)
	case c.SoftDropPoints < 0 || c.HardDropPoints < 0 || c.ComboBonus < 0:
		return fmt.Errorf("%w: ドロップ得点とコンボボーナスは0以上である必要があります", ErrInvalidConfig)
	case c.BackToBackMultiplier < 1:
		return fmt.Errorf("%w: BackToBackMultiplier は1.0以上である必要があります", ErrInvalidConfig)
	case c.DASDelay <= 0 || c.ARRInterval <= 0:
		return fmt.Errorf("%w: DASDelay と ARRInterval は正の値である必要があります", ErrInvalidConfig)
	}
	for i, points := range c.LineClearScores {
		if points < 0 {
			return fmt.Errorf("%w: %dライン消去の得点が負の値です", ErrInvalidConfig, i)
		}
	}
	return nil
}

// GravityInterval は現在のレベルに基づいた自動落下間隔を返します。
// テーブルの範囲を超えたレベルには最後の要素を使い、MinGravityInterval を下回りません。
func (c GameConfig) GravityInterval(level int) time.Duration {
	idx := level - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(c.GravityTable) {
		idx = len(c.GravityTable) - 1
	}
	interval := c.GravityTable[idx]
	if interval < c.MinGravityInterval {
		interval = c.MinGravityInterval
	}
	return interval
}

// LevelForLines は消去ライン数に対応するレベルを返します。
func (c GameConfig) LevelForLines(lines int) int {
	return c.StartLevel + lines/c.LinesPerLevel
}

// CalculateScore はラインクリア数、レベル、コンボなどに基づいて獲得スコアを計算します。
//
// Parameters:
//
//	clearedLines : クリアされたライン数 (1-4)
//	level        : 現在のレベル
//	combo        : 今回を含めた連続ラインクリア数
//	backToBack   : 前回のラインクリアに続いて今回もテトリスだったか
//
// Returns:
//
//	int: 計算されたスコア
func (c GameConfig) CalculateScore(clearedLines, level, combo int, backToBack bool) int {
	if clearedLines <= 0 || clearedLines >= len(c.LineClearScores) {
		return 0
	}

	score := c.LineClearScores[clearedLines] * level

	if combo > 1 {
		score += c.ComboBonus * (combo - 1) * level
	}

	if backToBack {
		score = int(math.Floor(float64(score) * c.BackToBackMultiplier))
	}
	return score
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Advance は deltaMs ミリ秒分の自動落下とロック猶予を進めます。
// Engine.Update から Playing 中にだけ呼び出されます。
//
// Returns:
//
//	bool: ピースが落下・固定されるなど、表示に影響する変化があった場合はtrue
func (s *PlayerGameState) Advance(deltaMs float64) bool {
	if s.IsGameOver || s.CurrentPiece == nil || deltaMs <= 0 {
		return false
	}

	changed := false
	// 着地していた時間。ティックの途中で着地した場合は着地後の分だけ数える
	var groundedFor float64
	if s.Board.HasCollision(s.CurrentPiece, 0, 1) {
		groundedFor = deltaMs
	}

	interval := durationMs(s.config.GravityInterval(s.Level))
	s.fallAccumulator += deltaMs
	for s.fallAccumulator >= interval {
		s.fallAccumulator -= interval
		if !s.Move(0, 1) {
			// 着地中はこれ以上落下しないので、端数だけ残す
			s.fallAccumulator = math.Mod(s.fallAccumulator, interval)
			break
		}
		changed = true
		if s.Board.HasCollision(s.CurrentPiece, 0, 1) {
			groundedFor = s.fallAccumulator
		}
	}

	if !s.Board.HasCollision(s.CurrentPiece, 0, 1) {
		s.lockTimer = 0
		return changed
	}

	s.lockTimer += groundedFor
	if s.lockTimer >= durationMs(s.config.LockDelay) {
		s.Lock()
		changed = true
	}
	return changed
}

// applyLineClear はピース固定後のライン消去結果をスコア・レベル・コンボに反映します。
func (s *PlayerGameState) applyLineClear(clearedLines int) {
	if clearedLines == 0 {
		// ラインクリアがない場合、連続クリアカウンターをリセット
		s.ConsecutiveClears = 0
		return
	}

	s.ConsecutiveClears++
	isTetris := clearedLines == 4
	backToBack := isTetris && s.BackToBack

	s.Score += s.config.CalculateScore(clearedLines, s.Level, s.ConsecutiveClears, backToBack)
	s.LinesCleared += clearedLines
	s.BackToBack = isTetris
	s.Level = s.config.LevelForLines(s.LinesCleared)
}
