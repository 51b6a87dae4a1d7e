package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"

	_ "github.com/lib/pq" // PostgreSQLドライバー
)

// schema はハイスコア保存用のテーブル定義です。
const schema = `
CREATE TABLE IF NOT EXISTS scores (
	id         BIGSERIAL PRIMARY KEY,
	name       VARCHAR(20) NOT NULL,
	score      INTEGER NOT NULL CHECK (score >= 0),
	level      INTEGER NOT NULL CHECK (level >= 1),
	lines      INTEGER NOT NULL CHECK (lines >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS scores_rank_idx ON scores (score DESC, created_at ASC);
`

// DatabaseService provides methods for interacting with the database.
type DatabaseService struct {
	DB *sql.DB
}

// NewDatabaseService creates a new instance of DatabaseService and establishes a database connection.
func NewDatabaseService(databaseURL string) (*DatabaseService, error) {
	log.Printf("データベース接続を試行中: %s", redactURL(databaseURL))
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		log.Printf("DatabaseService Error: sql.Openに失敗しました: %v", err)
		return nil, fmt.Errorf("データベースへの接続オブジェクト作成に失敗しました: %w", err)
	}

	// データベース接続の確認 (Ping)
	if err := db.Ping(); err != nil {
		log.Printf("DatabaseService Error: db.Pingに失敗しました: %v", err)
		db.Close()
		return nil, fmt.Errorf("データベースのPingに失敗しました。接続情報やネットワークを確認してください: %w", err)
	}

	log.Println("データベースに正常に接続しました。")
	return &DatabaseService{DB: db}, nil
}

// EnsureSchema creates the scores table and its index when they do not exist yet.
func (s *DatabaseService) EnsureSchema(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("scoresテーブルの作成に失敗しました: %w", err)
	}
	log.Println("DatabaseService Info: scoresテーブルを確認しました。")
	return nil
}

// ServerVersion returns the version string reported by the server.
func (s *DatabaseService) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := s.DB.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("SELECT version() クエリの実行に失敗しました: %w", err)
	}
	return version, nil
}

// Close closes the underlying connection pool.
func (s *DatabaseService) Close() error {
	return s.DB.Close()
}

// redactURL はログ出力用にパスワードを伏せた接続URLを返します。
func redactURL(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil || u.Host == "" {
		return "(URL形式ではない接続文字列)"
	}
	return u.Redacted()
}
