package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/models"
)

// memoryScoreRepository はDATABASE_URLが設定されていないときに使うインメモリのScoreRepositoryです。
// プロセスが終了するとデータは失われます。
type memoryScoreRepository struct {
	mu     sync.RWMutex
	scores []models.Score // score DESC, created_at ASC の順に保持
	nextID int64
	now    func() time.Time
}

// NewMemoryScoreRepository はインメモリのScoreRepositoryを作成します。
func NewMemoryScoreRepository() ScoreRepository {
	return &memoryScoreRepository{now: time.Now}
}

func (r *memoryScoreRepository) CreateScore(_ context.Context, score models.Score) (*models.Score, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	score.ID = r.nextID
	score.Stamp(r.now())

	// 同点の場合は先に登録されたものを上位にする
	idx := sort.Search(len(r.scores), func(i int) bool {
		return r.scores[i].Score < score.Score
	})
	r.scores = append(r.scores, models.Score{})
	copy(r.scores[idx+1:], r.scores[idx:])
	r.scores[idx] = score

	if len(r.scores) > models.MaxStoredScores {
		r.scores = r.scores[:models.MaxStoredScores]
	}
	return &score, nil
}

func (r *memoryScoreRepository) GetTopScores(_ context.Context, limit int) ([]models.ScoreResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit > len(r.scores) || limit < 0 {
		limit = len(r.scores)
	}
	out := make([]models.ScoreResponse, 0, limit)
	for i, s := range r.scores[:limit] {
		out = append(out, models.ScoreResponse{Score: s, Rank: i + 1})
	}
	return out, nil
}
