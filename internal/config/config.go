package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr    string `toml:"listen_addr"`
	Port          string `toml:"port"`
	DatabasePath  string `toml:"database_path"`
	SessionSecret string `toml:"session_secret"`
	GinMode       string `toml:"gin_mode"`
	// SnapshotSpec 是账本快照任务的 cron 表达式，留空回退到每日零点后执行。
	SnapshotSpec string `toml:"snapshot_spec"`
	// MigrationBatchSize 回填分块大小，受存储层单事务写入上限约束。
	MigrationBatchSize int `toml:"migration_batch_size"`
}

// Load 读取应用配置：先读可选的 TOML 文件，再用环境变量覆盖，
// 缺失项回退到安全默认值。
func Load() AppConfig {
	cfg := AppConfig{}

	path := strings.TrimSpace(os.Getenv("HEARTHPOINTS_CONFIG"))
	if path == "" {
		path = "hearthpoints.toml"
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			log.Printf("config: ignoring malformed %s: %v", path, err)
			cfg = AppConfig{}
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg
}

func applyEnv(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		cfg.Port = v
	}
	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_PATH")); v != "" {
		cfg.DatabasePath = v
	}
	if v := strings.TrimSpace(os.Getenv("SESSION_SECRET")); v != "" {
		cfg.SessionSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("GIN_MODE")); v != "" {
		cfg.GinMode = v
	}
	if v := strings.TrimSpace(os.Getenv("SNAPSHOT_SPEC")); v != "" {
		cfg.SnapshotSpec = v
	}
	if v := strings.TrimSpace(os.Getenv("MIGRATION_BATCH_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MigrationBatchSize = n
		}
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fmt.Sprintf(":%s", cfg.Port)
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "hearthpoints.db"
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "hearthpoints-dev-secret"
	}
	if cfg.GinMode == "" {
		cfg.GinMode = "release"
	}
	if cfg.SnapshotSpec == "" {
		cfg.SnapshotSpec = "5 0 * * *"
	}
	if cfg.MigrationBatchSize <= 0 || cfg.MigrationBatchSize > 500 {
		cfg.MigrationBatchSize = 500
	}
}
