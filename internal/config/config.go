// Package config загружает конфигурацию движка.
// config.go — инфраструктурные настройки из переменных окружения (envconfig),
// guilds.go — экономические настройки по серверам из YAML-документа.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ инфраструктурные настройки приложения.
type Config struct {
	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"shop_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Guild config ---
	// Путь к YAML-документу с настройками экономики по серверам.
	// Перечитывается по SIGHUP без перезапуска.
	GuildConfigPath string `envconfig:"GUILD_CONFIG_PATH" default:"guilds.yaml"`

	// --- Runtime ---
	// Сколько событий обрабатываем параллельно. Иначе "go на каждое событие" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут одного вызова к платформе. Зависший вызов считается неудавшимся,
	// повтор — на следующем проходе фоновой задачи.
	PlatformCallTimeout time.Duration `envconfig:"PLATFORM_CALL_TIMEOUT" default:"10s"`

	// --- Background jobs ---
	BoostSyncInterval   time.Duration `envconfig:"BOOST_SYNC_INTERVAL" default:"5m"`
	LifecycleInterval   time.Duration `envconfig:"LIFECYCLE_INTERVAL" default:"5m"`
	LeaderboardInterval time.Duration `envconfig:"LEADERBOARD_INTERVAL" default:"1m"`
	LeaderboardTopN     int           `envconfig:"LEADERBOARD_TOP_N" default:"20"`

	// --- Multiplier cache ---
	MultiplierCacheTTL time.Duration `envconfig:"MULTIPLIER_CACHE_TTL" default:"5m"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.PlatformCallTimeout <= 0 {
		return fmt.Errorf("PLATFORM_CALL_TIMEOUT должен быть > 0")
	}
	if c.BoostSyncInterval <= 0 || c.LifecycleInterval <= 0 || c.LeaderboardInterval <= 0 {
		return fmt.Errorf("интервалы фоновых задач должны быть > 0")
	}
	if c.LeaderboardTopN <= 0 {
		return fmt.Errorf("LEADERBOARD_TOP_N должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
