package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/services/tetris"
)

const (
	defaultPort         = "8080"
	defaultTickInterval = 16 * time.Millisecond
)

// Config はサーバー全体の設定です。
type Config struct {
	Port            string
	DatabaseURL     string   // 空の場合はインメモリのランキングを使う
	ScoresJWTSecret string   // 空の場合はスコア登録に認証を要求しない
	AllowedOrigins  []string // CORSで許可するオリジン
	TickInterval    time.Duration
	Game            tetris.GameConfig
}

// Load は .env ファイル（本番環境以外）と環境変数から設定を読み込みます。
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("warning: Error loading .env file (this is fine in production): %v", err)
		}
	}
	return FromLookup(os.Getenv)
}

// FromLookup は getenv から設定を組み立てます。テストでは map を使った関数を渡します。
func FromLookup(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:            getenv("PORT"),
		DatabaseURL:     getenv("DATABASE_URL"),
		ScoresJWTSecret: getenv("SCORES_JWT_SECRET"),
		AllowedOrigins:  splitList(getenv("CORS_ALLOWED_ORIGINS")),
		TickInterval:    defaultTickInterval,
		Game:            tetris.DefaultGameConfig(),
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	p := parser{getenv: getenv}
	p.duration("TETRIS_TICK_INTERVAL", &cfg.TickInterval)
	p.duration("TETRIS_LOCK_DELAY", &cfg.Game.LockDelay)
	p.integer("TETRIS_MAX_LOCK_RESETS", &cfg.Game.MaxLockResets)
	p.integer("TETRIS_PREVIEW_DEPTH", &cfg.Game.PreviewDepth)
	p.integer("TETRIS_START_LEVEL", &cfg.Game.StartLevel)
	p.int64("TETRIS_SEED", &cfg.Game.Seed)
	p.duration("TETRIS_DAS", &cfg.Game.DASDelay)
	p.duration("TETRIS_ARR", &cfg.Game.ARRInterval)
	if p.err != nil {
		return nil, p.err
	}

	if cfg.TickInterval <= 0 {
		return nil, fmt.Errorf("TETRIS_TICK_INTERVAL は正の値である必要があります: %s", cfg.TickInterval)
	}
	if err := cfg.Game.Validate(); err != nil {
		return nil, fmt.Errorf("ゲーム設定の検証に失敗しました: %w", err)
	}
	return cfg, nil
}

// parser は最初のエラーを保持しながら環境変数を読み取ります。
type parser struct {
	getenv func(string) string
	err    error
}

func (p *parser) duration(key string, dst *time.Duration) {
	v := p.getenv(key)
	if p.err != nil || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.err = fmt.Errorf("%s の値 %q を解釈できません: %w", key, v, err)
		return
	}
	*dst = d
}

func (p *parser) integer(key string, dst *int) {
	v := p.getenv(key)
	if p.err != nil || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = fmt.Errorf("%s の値 %q を解釈できません: %w", key, v, err)
		return
	}
	*dst = n
}

func (p *parser) int64(key string, dst *int64) {
	v := p.getenv(key)
	if p.err != nil || v == "" {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.err = fmt.Errorf("%s の値 %q を解釈できません: %w", key, v, err)
		return
	}
	*dst = n
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
