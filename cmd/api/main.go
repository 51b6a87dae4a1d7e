package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/api"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/services/play"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	var scoreRepo database.ScoreRepository
	if cfg.DatabaseURL != "" {
		dbService, err := database.NewDatabaseService(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("データベースに接続できません: %v", err)
		}
		defer dbService.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = dbService.EnsureSchema(ctx)
		cancel()
		if err != nil {
			log.Fatalf("スキーマの準備に失敗しました: %v", err)
		}
		scoreRepo = database.NewScoreRepository(dbService.DB)
	} else {
		log.Println("warning: DATABASE_URL が設定されていないため、ランキングはメモリ上に保存されます")
		scoreRepo = database.NewMemoryScoreRepository()
	}

	sessionManager := play.NewSessionManager(play.Config{
		Game:         cfg.Game,
		TickInterval: cfg.TickInterval,
	}, scoreRepo)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: api.NewRouter(api.RouterDeps{
			ScoreRepo:       scoreRepo,
			SessionManager:  sessionManager,
			AllowedOrigins:  cfg.AllowedOrigins,
			ScoresJWTSecret: cfg.ScoresJWTSecret,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("サーバーの起動に失敗しました: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server...")
	sessionManager.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("サーバーの停止中にエラーが発生しました: %v", err)
	}
}
