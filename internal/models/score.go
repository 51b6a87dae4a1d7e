package models

import (
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxNameLength   = 20  // プレイヤー名の最大文字数
	MaxStoredScores = 100 // 保持するスコアの上限件数
	TopScoresLimit  = 10  // ランキングとして返す件数
)

// ErrInvalidScore はスコア登録リクエストの内容が不正なときに返されます。
var ErrInvalidScore = errors.New("スコアデータが不正です")

// Score はscoresテーブルのレコードに対応する構造体です。
type Score struct {
	ID        int64     `json:"-"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	Level     int       `json:"level"`
	Lines     int       `json:"lines"`
	CreatedAt time.Time `json:"-"`
	Timestamp int64     `json:"timestamp"` // CreatedAt のUnixミリ秒
}

// ScoreResponse はランキングAPIのレスポンス用の構造体です。
type ScoreResponse struct {
	Score
	Rank int `json:"rank"` // ランキング順位
}

// ScoreRequest はスコア登録リクエスト用の構造体です。
// 数値項目の欠落を検出するため、ポインタで受け取ります。
// クライアントによっては 1234.0 のように小数で送ってくるため、数値は float64 で受けて切り捨てます。
type ScoreRequest struct {
	Name  string   `json:"name"`
	Score *float64 `json:"score"`
	Level *float64 `json:"level"`
	Lines *float64 `json:"lines"`
}

// Validate はリクエストを検証し、登録用の Score を返します。
// 名前は前後の空白を取り除いたうえで 1〜20 文字である必要があります。
// 数値は小数点以下を切り捨ててから範囲を確認します。
func (r ScoreRequest) Validate() (Score, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return Score{}, ErrInvalidScore
	}
	score, ok := wholeNumber(r.Score, 0)
	if !ok {
		return Score{}, ErrInvalidScore
	}
	level, ok := wholeNumber(r.Level, 1)
	if !ok {
		return Score{}, ErrInvalidScore
	}
	lines, ok := wholeNumber(r.Lines, 0)
	if !ok {
		return Score{}, ErrInvalidScore
	}
	return Score{Name: name, Score: score, Level: level, Lines: lines}, nil
}

// wholeNumber は v を切り捨てて整数にします。欠落、NaN、範囲外の場合は false を返します。
func wholeNumber(v *float64, lowest int) (int, bool) {
	if v == nil || math.IsNaN(*v) {
		return 0, false
	}
	n := math.Floor(*v)
	if n < float64(lowest) || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

// Stamp は CreatedAt と Timestamp を t に設定します。
func (s *Score) Stamp(t time.Time) {
	s.CreatedAt = t
	s.Timestamp = t.UnixMilli()
}
