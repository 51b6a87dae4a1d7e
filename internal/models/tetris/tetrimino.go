package tetris

// PieceType はテトリミノの種類を表します。
type PieceType int

const (
	TypeI PieceType = iota // 0: I-ミノ (シアン)
	TypeO                  // 1: O-ミノ (黄色)
	TypeT                  // 2: T-ミノ (紫)
	TypeS                  // 3: S-ミノ (緑)
	TypeZ                  // 4: Z-ミノ (赤)
	TypeJ                  // 5: J-ミノ (青)
	TypeL                  // 6: L-ミノ (オレンジ)
)

// PieceTypeCount はテトリミノの種類数です。
const PieceTypeCount = 7

// AllPieceTypes は7種類すべてのテトリミノを定義順で返します。
// 7-bag の元になるため、呼び出しごとに新しいスライスを返します。
func AllPieceTypes() []PieceType {
	return []PieceType{TypeI, TypeO, TypeT, TypeS, TypeZ, TypeJ, TypeL}
}

// Valid はPieceTypeが7種類のいずれかであるかを返します。
func (t PieceType) Valid() bool {
	return t >= TypeI && t <= TypeL
}

// Block はこのテトリミノが固定されたときにボードへ書き込まれるBlockTypeを返します。
func (t PieceType) Block() BlockType {
	return BlockType(t + 1) // PieceType (0-6) を BlockType (1-7) に変換
}

func (t PieceType) String() string {
	return PieceTypeToString(t)
}

// Point はボード上、またはバウンディングボックス内の座標です。
// X は列、Y は行で、Y は下方向に増加します。
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rotation は回転状態 (0, R, 2, L) を表します。
type Rotation int

const (
	Rotation0 Rotation = iota // スポーン時の向き
	RotationR                 // 時計回りに90度
	Rotation2                 // 180度
	RotationL                 // 反時計回りに90度
)

// Direction は回転方向です。
type Direction int

const (
	Clockwise        Direction = 1
	CounterClockwise Direction = -1
)

// Turn は指定方向に回転した後の回転状態を返します (mod 4)。
func (r Rotation) Turn(d Direction) Rotation {
	return Rotation(((int(r)+int(d))%4 + 4) % 4)
}

// pieceShapes は各PieceTypeの各回転状態におけるブロックの相対座標を定義します。
// [PieceType][Rotation][BlockIndex]
// 座標はバウンディングボックス左上からの相対値です。I と O は 4x4、それ以外は 3x3 のボックスに収まります。
// 回転状態は SRS (Super Rotation System) の定義に従います。
var pieceShapes = [PieceTypeCount][4][4]Point{
	TypeI: {
		{{0, 1}, {1, 1}, {2, 1}, {3, 1}},
		{{2, 0}, {2, 1}, {2, 2}, {2, 3}},
		{{0, 2}, {1, 2}, {2, 2}, {3, 2}},
		{{1, 0}, {1, 1}, {1, 2}, {1, 3}},
	},
	TypeO: { // 全ての回転で同じ形
		{{1, 0}, {2, 0}, {1, 1}, {2, 1}},
		{{1, 0}, {2, 0}, {1, 1}, {2, 1}},
		{{1, 0}, {2, 0}, {1, 1}, {2, 1}},
		{{1, 0}, {2, 0}, {1, 1}, {2, 1}},
	},
	TypeT: {
		{{1, 0}, {0, 1}, {1, 1}, {2, 1}},
		{{1, 0}, {1, 1}, {2, 1}, {1, 2}},
		{{0, 1}, {1, 1}, {2, 1}, {1, 2}},
		{{1, 0}, {0, 1}, {1, 1}, {1, 2}},
	},
	TypeS: {
		{{1, 0}, {2, 0}, {0, 1}, {1, 1}},
		{{1, 0}, {1, 1}, {2, 1}, {2, 2}},
		{{1, 1}, {2, 1}, {0, 2}, {1, 2}},
		{{0, 0}, {0, 1}, {1, 1}, {1, 2}},
	},
	TypeZ: {
		{{0, 0}, {1, 0}, {1, 1}, {2, 1}},
		{{2, 0}, {1, 1}, {2, 1}, {1, 2}},
		{{0, 1}, {1, 1}, {1, 2}, {2, 2}},
		{{1, 0}, {0, 1}, {1, 1}, {0, 2}},
	},
	TypeJ: {
		{{0, 0}, {0, 1}, {1, 1}, {2, 1}},
		{{1, 0}, {2, 0}, {1, 1}, {1, 2}},
		{{0, 1}, {1, 1}, {2, 1}, {2, 2}},
		{{1, 0}, {1, 1}, {0, 2}, {1, 2}},
	},
	TypeL: {
		{{2, 0}, {0, 1}, {1, 1}, {2, 1}},
		{{1, 0}, {1, 1}, {1, 2}, {2, 2}},
		{{0, 1}, {1, 1}, {2, 1}, {0, 2}},
		{{0, 0}, {1, 0}, {1, 1}, {1, 2}},
	},
}

// キックテーブルの並び順:
// 0->R, R->0, R->2, 2->R, 2->L, L->2, L->0, 0->L
// オフセットは Y 下向きの座標系に変換済みです。

// kicksJLSTZ は J, L, S, T, Z が共有するウォールキックのオフセットです。
var kicksJLSTZ = [8][5]Point{
	{{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}},
	{{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}},
	{{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}},
	{{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}},
	{{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},
	{{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}},
	{{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}},
	{{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},
}

// kicksI はIミノ専用のウォールキックのオフセットです。
var kicksI = [8][5]Point{
	{{0, 0}, {-2, 0}, {1, 0}, {-2, 1}, {1, -2}},
	{{0, 0}, {2, 0}, {-1, 0}, {2, -1}, {-1, 2}},
	{{0, 0}, {-1, 0}, {2, 0}, {-1, -2}, {2, 1}},
	{{0, 0}, {1, 0}, {-2, 0}, {1, 2}, {-2, -1}},
	{{0, 0}, {2, 0}, {-1, 0}, {2, -1}, {-1, 2}},
	{{0, 0}, {-2, 0}, {1, 0}, {-2, 1}, {1, -2}},
	{{0, 0}, {1, 0}, {-2, 0}, {1, 2}, {-2, -1}},
	{{0, 0}, {-1, 0}, {2, 0}, {-1, -2}, {2, 1}},
}

// kicksO はOミノ用です。Oミノはキックしません。
var kicksO = []Point{{0, 0}}

// kickIndex は回転遷移に対応するキックテーブルの行番号を返します。
func kickIndex(from Rotation, d Direction) int {
	if d == Clockwise {
		return int(from) * 2
	}
	return (int(from)*2 + 7) % 8
}

// Kicks は from から d 方向に回転するときに試すオフセットを優先順に返します。
// 最初の要素は常に (0, 0) で、回転前のアンカー位置をそのまま試すことを意味します。
func Kicks(t PieceType, from Rotation, d Direction) []Point {
	switch t {
	case TypeO:
		return kicksO
	case TypeI:
		return kicksI[kickIndex(from, d)][:]
	default:
		return kicksJLSTZ[kickIndex(from, d)][:]
	}
}

// SpawnPosition は指定されたテトリミノの出現位置（バウンディングボックス左上）を返します。
// すべてのピースが表示領域の最上段に現れるように、Iミノだけ1行上から出現させます。
func SpawnPosition(t PieceType) (x, y int) {
	x = BoardWidth/2 - 2
	if t == TypeI {
		return x, -1
	}
	return x, 0
}

// Piece はテトリミノの現在の状態（種類、ボード上の基準点座標、回転状態）を表します。
type Piece struct {
	Type     PieceType `json:"type"`     // テトリミノの種類
	X        int       `json:"x"`        // バウンディングボックス左上のX座標
	Y        int       `json:"y"`        // バウンディングボックス左上のY座標
	Rotation Rotation  `json:"rotation"` // 回転状態 (0-3)
}

// NewPiece は出現位置・出現時の向きに置かれた新しいピースを返します。
func NewPiece(t PieceType) *Piece {
	x, y := SpawnPosition(t)
	return &Piece{Type: t, X: x, Y: y, Rotation: Rotation0}
}

// Blocks は現在の回転状態におけるブロックの相対座標を返します。
func (p *Piece) Blocks() [4]Point {
	return p.GetBlocksAtRotation(p.Rotation)
}

// GetBlocksAtRotation は指定された回転状態でのブロックの相対座標を返します。
func (p *Piece) GetBlocksAtRotation(rotation Rotation) [4]Point {
	return pieceShapes[p.Type][rotation.Turn(0)]
}

// Cells は現在位置でのブロックのボード上の絶対座標を返します。
func (p *Piece) Cells() [4]Point {
	return p.CellsAt(0, 0, p.Rotation)
}

// CellsAt はピースを (dx, dy) だけ動かし、rotation の向きにしたときの絶対座標を返します。
// ピース自体は変更しません。
//
// Parameters:
//
//	dx, dy   : アンカーからの移動量
//	rotation : 判定に使う回転状態
//
// Returns:
//
//	[4]Point: ボード上の絶対座標
func (p *Piece) CellsAt(dx, dy int, rotation Rotation) [4]Point {
	var cells [4]Point
	for i, block := range p.GetBlocksAtRotation(rotation) {
		cells[i] = Point{X: p.X + dx + block.X, Y: p.Y + dy + block.Y}
	}
	return cells
}

// Clone は現在のPieceオブジェクトのコピーを返します。
// これにより、操作前のピースの状態を保持しつつ、操作後の状態を仮に試すことができます。
func (p *Piece) Clone() *Piece {
	newP := *p
	return &newP
}

// PieceTypeToString はPieceTypeを文字列表現に変換します。
func PieceTypeToString(t PieceType) string {
	switch t {
	case TypeI:
		return "I"
	case TypeO:
		return "O"
	case TypeT:
		return "T"
	case TypeS:
		return "S"
	case TypeZ:
		return "Z"
	case TypeJ:
		return "J"
	case TypeL:
		return "L"
	default:
		return "?"
	}
}
