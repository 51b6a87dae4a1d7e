package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/database"
)

// dbcheck はDATABASE_URLへの接続を確認し、scoresテーブルを作成します。
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("エラー: 設定の読み込みに失敗しました: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("エラー: DATABASE_URL 環境変数が設定されていません。")
	}

	fmt.Println("テスト開始: データベース接続を試行中...")
	dbService, err := database.NewDatabaseService(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("エラー: %v", err)
	}
	defer dbService.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fmt.Println("成功: データベースに正常に接続し、Pingが成功しました！")

	if version, err := dbService.ServerVersion(ctx); err != nil {
		log.Printf("警告: %v", err)
	} else {
		fmt.Printf("データベースバージョン: %s\n", version)
	}

	if err := dbService.EnsureSchema(ctx); err != nil {
		log.Fatalf("エラー: %v", err)
	}
	fmt.Println("scoresテーブルの準備ができました。")
}
