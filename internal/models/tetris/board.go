package tetris

import (
	"errors"
	"fmt"
)

const (
	BoardWidth        = 10 // テトリスボードの幅
	BoardHeight       = 20 // テトリスボードの高さ（表示部分）
	BoardHiddenHeight = 4  // 表示部分の上にある見えない領域。行番号は -4 から -1
	boardTotalHeight  = BoardHeight + BoardHiddenHeight
)

// BlockType はボード上のブロックの種類を表します。
// 各テトリミノの種類もブロックタイプとして扱います。
type BlockType int

const (
	BlockEmpty   BlockType = iota // 0: 空のマス
	BlockI                        // 1: I-テトリミノ由来のブロック (PieceType 0 + 1)
	BlockO                        // 2: O-テトリミノ由来のブロック (PieceType 1 + 1)
	BlockT                        // 3: T-テトリミノ由来のブロック (PieceType 2 + 1)
	BlockS                        // 4: S-テトリミノ由来のブロック (PieceType 3 + 1)
	BlockZ                        // 5: Z-テトリミノ由来のブロック (PieceType 4 + 1)
	BlockJ                        // 6: J-テトリミノ由来のブロック (PieceType 5 + 1)
	BlockL                        // 7: L-テトリミノ由来のブロック (PieceType 6 + 1)
	BlockGarbage                  // 8: お邪魔ブロック（予約済み、現在は生成されない）
)

// ErrCellOccupied は既に埋まっているマス、または範囲外のマスに書き込もうとしたときに返されます。
var ErrCellOccupied = errors.New("マスが既に埋まっているか範囲外です")

// Board はテトリスのゲームボードを表す2次元配列です。
// 見えない領域を含めて保持し、内部的には Board[y+BoardHiddenHeight][x] に格納します。
// 外部からは Cell / SetCell を通して、表示領域基準の行番号（-4 から 19）でアクセスします。
type Board [boardTotalHeight][BoardWidth]BlockType

// NewBoard は新しい空のボードを初期化して返します。
// Goの配列はデフォルトでゼロ値（BlockEmpty）で初期化されるため、特別な初期化は不要です。
func NewBoard() Board {
	var board Board
	return board
}

func inBounds(x, y int) bool {
	return x >= 0 && x < BoardWidth && y >= -BoardHiddenHeight && y < BoardHeight
}

// Cell は (x, y) のマスの内容を返します。範囲外は BlockEmpty です。
func (b *Board) Cell(x, y int) BlockType {
	if !inBounds(x, y) {
		return BlockEmpty
	}
	return b[y+BoardHiddenHeight][x]
}

// SetCell は (x, y) のマスを書き換えます。範囲外の座標は無視されます。
// テストや盤面の復元で使います。
func (b *Board) SetCell(x, y int, block BlockType) {
	if !inBounds(x, y) {
		return
	}
	b[y+BoardHiddenHeight][x] = block
}

// IsCellFree は (x, y) がボードの範囲内で、かつ空いているかどうかを返します。
func (b *Board) IsCellFree(x, y int) bool {
	return inBounds(x, y) && b[y+BoardHiddenHeight][x] == BlockEmpty
}

// CanPlace は cells のすべてのマスが空いているかどうかを返します。
func (b *Board) CanPlace(cells []Point) bool {
	for _, c := range cells {
		if !b.IsCellFree(c.X, c.Y) {
			return false
		}
	}
	return true
}

// HasCollision は指定されたピースが現在のボード上の位置 (p.X, p.Y) とオフセット (dx, dy) で
// 壁や既存のブロックと衝突するかどうかを判定します。
//
// Parameters:
//
//	p  : 衝突判定を行うテトリミノのポインタ
//	dx : X軸方向の移動量（-1:左, 1:右, 0:移動なし）
//	dy : Y軸方向の移動量（1:下, 0:移動なし）
//
// Returns:
//
//	bool: 衝突する場合はtrue、しない場合はfalse
func (b *Board) HasCollision(p *Piece, dx, dy int) bool {
	cells := p.CellsAt(dx, dy, p.Rotation)
	return !b.CanPlace(cells[:])
}

// Commit は cells を block で埋めます。
// いずれかのマスが埋まっているか範囲外の場合は何も書き込まずに ErrCellOccupied を返します。
func (b *Board) Commit(cells []Point, block BlockType) error {
	for _, c := range cells {
		if !b.IsCellFree(c.X, c.Y) {
			return fmt.Errorf("(%d, %d) に書き込めません: %w", c.X, c.Y, ErrCellOccupied)
		}
	}
	for _, c := range cells {
		b[c.Y+BoardHiddenHeight][c.X] = block
	}
	return nil
}

// MergePiece は落下したピースをボードに固定します。
// ピースのブロックのタイプでボードのマスを埋めます。
func (b *Board) MergePiece(p *Piece) error {
	cells := p.Cells()
	return b.Commit(cells[:], p.Type.Block())
}

// ClearFullRows は揃ったラインをクリアし、上のブロックを落とします。
// 見えない領域を含めて下から上に走査し、揃っていない行だけを新しいボードに詰めてコピーします。
// 最上段には空の行が補充されます。
//
// Returns:
//
//	int: クリアされたライン数 (0-4)
func (b *Board) ClearFullRows() int {
	clearedLines := 0
	newBoard := NewBoard()

	destY := boardTotalHeight - 1
	for y := boardTotalHeight - 1; y >= 0; y-- {
		isLineFull := true
		for x := 0; x < BoardWidth; x++ {
			if b[y][x] == BlockEmpty {
				isLineFull = false
				break
			}
		}

		if isLineFull {
			clearedLines++
			continue
		}
		newBoard[destY] = b[y]
		destY--
	}
	*b = newBoard
	return clearedLines
}

// ToppedOut は cells を配置できない（出現位置がふさがっている）かどうかを返します。
func (b *Board) ToppedOut(cells []Point) bool {
	return !b.CanPlace(cells)
}

// IsEmpty はボードにブロックが一つも無いかどうかを返します。
func (b *Board) IsEmpty() bool {
	for y := range b {
		for x := range b[y] {
			if b[y][x] != BlockEmpty {
				return false
			}
		}
	}
	return true
}
