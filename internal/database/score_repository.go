package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/models"
)

// ScoreRepository はハイスコア関連のデータベース操作を定義するインターフェースです。
type ScoreRepository interface {
	// CreateScore は新しいスコアを登録し、上位 MaxStoredScores 件を超えた分を削除します
	CreateScore(ctx context.Context, score models.Score) (*models.Score, error)

	// GetTopScores は上位N件のスコアを取得します（ランキング用）
	GetTopScores(ctx context.Context, limit int) ([]models.ScoreResponse, error)
}

// scoreRepositoryImpl はScoreRepositoryインターフェースのPostgreSQL実装です。
type scoreRepositoryImpl struct {
	db  *sql.DB
	now func() time.Time
}

// NewScoreRepository はScoreRepositoryの新しいインスタンスを作成します。
func NewScoreRepository(db *sql.DB) ScoreRepository {
	return &scoreRepositoryImpl{db: db, now: time.Now}
}

// CreateScore は新しいスコアレコードを作成します。
// 挿入と上位件数を超えたレコードの削除は1つのトランザクションで行います。
func (r *scoreRepositoryImpl) CreateScore(ctx context.Context, score models.Score) (*models.Score, error) {
	score.Stamp(r.now())

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		"INSERT INTO scores (name, score, level, lines, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		score.Name, score.Score, score.Level, score.Lines, score.CreatedAt,
	).Scan(&score.ID)
	if err != nil {
		return nil, fmt.Errorf("スコアレコードの作成に失敗しました: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM scores
		WHERE id NOT IN (
			SELECT id FROM scores ORDER BY score DESC, created_at ASC LIMIT $1
		)`, models.MaxStoredScores)
	if err != nil {
		return nil, fmt.Errorf("古いスコアの削除に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("スコア登録のコミットに失敗しました: %w", err)
	}
	return &score, nil
}

// GetTopScores は上位N件のスコアを取得します（ランキング用）。
func (r *scoreRepositoryImpl) GetTopScores(ctx context.Context, limit int) ([]models.ScoreResponse, error) {
	query := `
		SELECT
			id, name, score, level, lines, created_at,
			ROW_NUMBER() OVER (ORDER BY score DESC, created_at ASC) as rank
		FROM scores
		ORDER BY score DESC, created_at ASC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("スコア取得に失敗しました: %w", err)
	}
	defer rows.Close()

	scores := []models.ScoreResponse{}
	for rows.Next() {
		var s models.ScoreResponse
		var createdAt time.Time
		if err := rows.Scan(&s.ID, &s.Name, &s.Score.Score, &s.Level, &s.Lines, &createdAt, &s.Rank); err != nil {
			return nil, fmt.Errorf("スコアデータのスキャンに失敗しました: %w", err)
		}
		s.Stamp(createdAt)
		scores = append(scores, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("スコア取得中にエラーが発生しました: %w", err)
	}

	return scores, nil
}
