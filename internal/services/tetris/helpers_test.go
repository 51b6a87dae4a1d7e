package tetris

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/models/tetris"
)

// orderedSource はシャッフルしない乱数源です。袋は常に I, O, T, S, Z, J, L の順になります。
type orderedSource struct{}

func (orderedSource) Shuffle(int, func(i, j int)) {}
func (orderedSource) Intn(int) int                { return 0 }

// newTestState は決定的なピース順のゲーム状態を作り、最初のピース (I) を出現させます。
func newTestState(t *testing.T, config GameConfig) *PlayerGameState {
	t.Helper()
	require.NoError(t, config.Validate())
	state := NewPlayerGameState(config, orderedSource{})
	require.True(t, state.SpawnNewPiece())
	return state
}

// newTestEngine は決定的なピース順のエンジンを作ります。
func newTestEngine(t *testing.T, config GameConfig) *Engine {
	t.Helper()
	engine, err := NewEngine(config, orderedSource{})
	require.NoError(t, err)
	return engine
}

func fillRowExcept(b *tetris.Board, y int, skip ...int) {
	for x := 0; x < tetris.BoardWidth; x++ {
		empty := false
		for _, s := range skip {
			if s == x {
				empty = true
			}
		}
		if !empty {
			b.SetCell(x, y, tetris.BlockJ)
		}
	}
}
