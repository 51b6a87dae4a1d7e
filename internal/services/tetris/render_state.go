package tetris

import (
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/models/tetris"
)

// 描画用セルの不透明度
const (
	OpacityFull      = 255 // ボード・操作中のピース・ネクスト・ホールド
	OpacityGhost     = 77  // ゴーストピース
	OpacityHoldSpent = 102 // ホールド使用済みのときのホールド表示
)

// プレビュー（ネクスト・ホールド）の表示枠
const (
	previewBoxWidth  = 4
	previewBoxHeight = 2
	nextPieceSpacing = 3 // ネクストのピースを縦に並べる間隔（行）
)

// palette はセルの色コードに対応する色です。インデックスは BlockType と同じです。
var palette = [...]string{
	"#1a1a2e", // 0: 空
	"#00f5ff", // 1: I
	"#ffd700", // 2: O
	"#9d4edd", // 3: T
	"#00ff7f", // 4: S
	"#ff6b6b", // 5: Z
	"#4169e1", // 6: J
	"#ff8c00", // 7: L
}

// GetColor は色コードに対応する16進カラーコードを返します。
// 範囲外のコードには空マスの色を返します。
func GetColor(code int) string {
	if code < 0 || code >= len(palette) {
		return palette[0]
	}
	return palette[code]
}

// RenderCell は描画する1マスです。
type RenderCell struct {
	X       int   `json:"x"`
	Y       int   `json:"y"`
	Color   uint8 `json:"color"`
	Opacity uint8 `json:"opacity"`
}

// RenderState は描画に必要な情報をまとめた読み取り専用のスナップショットです。
// Engine の内部状態とは独立したコピーなので、別のゴルーチンに渡しても安全です。
type RenderState struct {
	State         GameStatus   `json:"state"`
	Score         int          `json:"score"`
	Level         int          `json:"level"`
	Lines         int          `json:"lines"`
	HoldAvailable bool         `json:"hold_available"`
	BoardCells    []RenderCell `json:"board_cells"`
	ActiveCells   []RenderCell `json:"active_cells"`
	GhostCells    []RenderCell `json:"ghost_cells"`
	NextCells     []RenderCell `json:"next_cells"`
	HoldCells     []RenderCell `json:"hold_cells"`
}

// FlattenCells はセルを (x, y, color, opacity) の4バイトずつ並べたバイト列に変換します。
func FlattenCells(cells []RenderCell) []byte {
	out := make([]byte, 0, len(cells)*4)
	for _, c := range cells {
		out = append(out, byte(c.X), byte(c.Y), c.Color, c.Opacity)
	}
	return out
}

// newRenderState はゲーム状態から描画用スナップショットを作ります。
// game が nil の場合（開始前）は空のボードとして扱います。
func newRenderState(status GameStatus, game *PlayerGameState, startLevel int) RenderState {
	rs := RenderState{
		State:         status,
		Level:         startLevel,
		HoldAvailable: true,
		BoardCells:    []RenderCell{},
		ActiveCells:   []RenderCell{},
		GhostCells:    []RenderCell{},
		NextCells:     []RenderCell{},
		HoldCells:     []RenderCell{},
	}
	if game == nil {
		return rs
	}

	rs.Score = game.Score
	rs.Level = game.Level
	rs.Lines = game.LinesCleared
	rs.HoldAvailable = game.CanHold()
	rs.BoardCells = boardCells(&game.Board)

	if game.CurrentPiece != nil {
		color := uint8(game.CurrentPiece.Type.Block())
		rs.ActiveCells = visibleCells(game.CurrentPiece.Cells(), color, OpacityFull)
		if ghost := game.GhostPosition(); ghost != nil {
			rs.GhostCells = visibleCells(ghost.Cells(), color, OpacityGhost)
		}
	}

	for i, t := range game.NextPieces() {
		rs.NextCells = append(rs.NextCells, previewCells(t, OpacityFull, i*nextPieceSpacing)...)
	}

	if game.HeldPiece != nil {
		opacity := uint8(OpacityFull)
		if !game.CanHold() {
			opacity = OpacityHoldSpent
		}
		rs.HoldCells = previewCells(*game.HeldPiece, opacity, 0)
	}
	return rs
}

// boardCells は表示領域にある固定済みブロックを上の行から順に返します。
func boardCells(b *tetris.Board) []RenderCell {
	cells := []RenderCell{}
	for y := 0; y < tetris.BoardHeight; y++ {
		for x := 0; x < tetris.BoardWidth; x++ {
			if block := b.Cell(x, y); block != tetris.BlockEmpty {
				cells = append(cells, RenderCell{X: x, Y: y, Color: uint8(block), Opacity: OpacityFull})
			}
		}
	}
	return cells
}

// visibleCells は表示領域内のマスだけを描画セルに変換します。
func visibleCells(points [4]tetris.Point, color, opacity uint8) []RenderCell {
	cells := make([]RenderCell, 0, len(points))
	for _, p := range points {
		if p.Y < 0 || p.Y >= tetris.BoardHeight {
			continue
		}
		cells = append(cells, RenderCell{X: p.X, Y: p.Y, Color: color, Opacity: opacity})
	}
	return cells
}

// previewCells はピースを出現時の向きで 4x2 の枠の中央に置いたときのセルを返します。
// rowOffset だけ下にずらして配置します。
func previewCells(t tetris.PieceType, opacity uint8, rowOffset int) []RenderCell {
	blocks := (&tetris.Piece{Type: t}).Blocks()
	minX, minY := blocks[0].X, blocks[0].Y
	maxX, maxY := minX, minY
	for _, b := range blocks[1:] {
		minX, maxX = min(minX, b.X), max(maxX, b.X)
		minY, maxY = min(minY, b.Y), max(maxY, b.Y)
	}
	offsetX := (previewBoxWidth-(maxX-minX+1))/2 - minX
	offsetY := (previewBoxHeight-(maxY-minY+1))/2 - minY

	color := uint8(t.Block())
	cells := make([]RenderCell, 0, len(blocks))
	for _, b := range blocks {
		cells = append(cells, RenderCell{
			X:       b.X + offsetX,
			Y:       b.Y + offsetY + rowOffset,
			Color:   color,
			Opacity: opacity,
		})
	}
	return cells
}
