package tetris

import (
	"log"
	"math/rand"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/models/tetris"
)

// RandomSource はバッグのシャッフルに使う乱数源です。
// *math/rand.Rand はこのインターフェースを満たします。
// テストでは決定的な実装を注入して、ピースの出現順を固定できます。
type RandomSource interface {
	Shuffle(n int, swap func(i, j int))
	Intn(n int) int
}

// NewRandomSource はシード値から乱数源を作ります。
// seed が 0 の場合は現在時刻で初期化します。
func NewRandomSource(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// BagRandomizer はテトリスで一般的な7-bagシステムに基づきピースを払い出します。
// 7種類のテトリミノを1袋としてシャッフルし、袋が空になったら新しい袋を作ります。
type BagRandomizer struct {
	src                 RandomSource
	bag                 []tetris.PieceType
	last                tetris.PieceType
	hasLast             bool
	avoidBoundaryRepeat bool
}

// NewBagRandomizer は新しい BagRandomizer を返します。
//
// Parameters:
//
//	src                 : シャッフルに使う乱数源
//	avoidBoundaryRepeat : true の場合、前の袋の最後のピースと新しい袋の最初のピースが同じにならないよう調整します
func NewBagRandomizer(src RandomSource, avoidBoundaryRepeat bool) *BagRandomizer {
	return &BagRandomizer{src: src, avoidBoundaryRepeat: avoidBoundaryRepeat}
}

// Next は次のピースの種類を返します。袋が空の場合は先に補充します。
func (b *BagRandomizer) Next() tetris.PieceType {
	if len(b.bag) == 0 {
		b.refill()
	}
	next := b.bag[0]
	b.bag = b.bag[1:]
	b.last = next
	b.hasLast = true
	return next
}

// Reset は袋を空にし、次の Next で新しい袋から払い出すようにします。
func (b *BagRandomizer) Reset() {
	b.bag = nil
	b.hasLast = false
}

func (b *BagRandomizer) refill() {
	bag := tetris.AllPieceTypes()
	b.src.Shuffle(len(bag), func(i, j int) {
		bag[i], bag[j] = bag[j], bag[i]
	})

	if b.avoidBoundaryRepeat && b.hasLast && bag[0] == b.last {
		swapIndex := b.src.Intn(len(bag)-1) + 1
		bag[0], bag[swapIndex] = bag[swapIndex], bag[0]
		log.Printf("[PieceQueue] 連続防止: 前のピース %s と重複していたため、位置 %d と交換しました", b.last, swapIndex)
	}
	b.bag = bag
}

// NextQueue は次に出現するピースの先読みキューです。
// 常に depth 個のピースを保持し、Pop で先頭を取り出すと末尾を補充します。
type NextQueue struct {
	randomizer *BagRandomizer
	pieces     []tetris.PieceType
	depth      int
}

// NewNextQueue は depth 個のピースを先読みした NextQueue を返します。
func NewNextQueue(randomizer *BagRandomizer, depth int) *NextQueue {
	if depth < 1 {
		depth = 1
	}
	q := &NextQueue{randomizer: randomizer, depth: depth}
	q.fill()
	return q
}

func (q *NextQueue) fill() {
	for len(q.pieces) < q.depth {
		q.pieces = append(q.pieces, q.randomizer.Next())
	}
}

// Pop は先頭のピースを取り出し、キューを補充します。
func (q *NextQueue) Pop() tetris.PieceType {
	next := q.pieces[0]
	q.pieces = q.pieces[1:]
	q.fill()
	return next
}

// Peek は先読み中のピースを出現順に返します。返されたスライスは呼び出し側が自由に変更できます。
func (q *NextQueue) Peek() []tetris.PieceType {
	out := make([]tetris.PieceType, len(q.pieces))
	copy(out, q.pieces)
	return out
}

// Reset は袋とキューを作り直します。
func (q *NextQueue) Reset() {
	q.randomizer.Reset()
	q.pieces = q.pieces[:0]
	q.fill()
}
