package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/models"
)

func TestMemoryScoreRepositoryOrdersByScoreThenAge(t *testing.T) {
	repo := NewMemoryScoreRepository()
	ctx := context.Background()

	for _, s := range []models.Score{
		{Name: "first", Score: 300, Level: 1},
		{Name: "second", Score: 900, Level: 2},
		{Name: "third", Score: 300, Level: 1},
	} {
		_, err := repo.CreateScore(ctx, s)
		require.NoError(t, err)
	}

	top, err := repo.GetTopScores(ctx, models.TopScoresLimit)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "second", top[0].Name)
	assert.Equal(t, "first", top[1].Name, "ties keep the earlier entry on top")
	assert.Equal(t, "third", top[2].Name)
	for i, s := range top {
		assert.Equal(t, i+1, s.Rank)
	}
}

func TestMemoryScoreRepositoryKeepsOnlyTopEntries(t *testing.T) {
	repo := &memoryScoreRepository{now: func() time.Time { return fixedNow }}
	ctx := context.Background()

	for i := 0; i < models.MaxStoredScores+5; i++ {
		_, err := repo.CreateScore(ctx, models.Score{Name: fmt.Sprintf("p%d", i), Score: i, Level: 1})
		require.NoError(t, err)
	}

	all, err := repo.GetTopScores(ctx, 1000)
	require.NoError(t, err)
	assert.Len(t, all, models.MaxStoredScores)
	assert.Equal(t, models.MaxStoredScores+4, all[0].Score.Score)
	assert.Equal(t, 5, all[len(all)-1].Score.Score)

	top, err := repo.GetTopScores(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, top, 3)
}

func TestMemoryScoreRepositoryAssignsIDAndTimestamp(t *testing.T) {
	repo := &memoryScoreRepository{now: func() time.Time { return fixedNow }}

	saved, err := repo.CreateScore(context.Background(), models.Score{Name: "a", Score: 1, Level: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.ID)
	assert.Equal(t, fixedNow.UnixMilli(), saved.Timestamp)
}
