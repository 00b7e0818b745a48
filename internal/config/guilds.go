// Package config — guilds.go описывает настройки экономики по серверам.
// Документ читается из YAML-файла и хранится в памяти; движок видит его
// только на чтение. Перечитывание — через Reload (по SIGHUP), фоновые
// задачи подхватывают новый снимок на следующем проходе.
package config

import (
	"fmt"
	"os"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// RatePair — сколько сообщений/реакций нужно на один коин.
// Ноль означает "в этом месте коины не начисляются".
type RatePair struct {
	MessagesPerCoin  int `yaml:"messages_per_coin"`
	ReactionsPerCoin int `yaml:"reactions_per_coin"`
}

// CurrencyRates — таблица курсов сервера.
// Разрешение: канал > категория > default (см. accrual.ResolveRate).
type CurrencyRates struct {
	Default    RatePair           `yaml:"default"`
	Categories map[int64]RatePair `yaml:"categories"`
	Channels   map[int64]RatePair `yaml:"channels"`
}

// BoosterMultiplier — параметры множителя за бусты.
type BoosterMultiplier struct {
	Enabled  bool    `yaml:"enabled"`
	Base     float64 `yaml:"base"`
	PerBoost float64 `yaml:"per_boost"`
}

// CustomRoleRules — правила создания персональных ролей бустерами.
type CustomRoleRules struct {
	MinBoostCount int   `yaml:"min_boost_count"`
	Price         int64 `yaml:"price"`
	// Минимальная позиция, ниже которой роли не опускаются при пересортировке.
	MinPosition int `yaml:"min_position"`
}

// RegularCreationRules — правила создания ролей обычными участниками.
type RegularCreationRules struct {
	Enabled bool  `yaml:"enabled"`
	Price   int64 `yaml:"price"`
}

// GuildConfig — все экономические настройки одного сервера.
type GuildConfig struct {
	CurrencyRates     CurrencyRates        `yaml:"currency_rates"`
	BoosterMultiplier BoosterMultiplier    `yaml:"booster_multiplier"`
	CustomRole        CustomRoleRules      `yaml:"custom_role"`
	RegularCreation   RegularCreationRules `yaml:"regular_creation"`
	// Доля цены, возвращаемая при продаже роли обратно (0..1).
	SellRefundPercent float64 `yaml:"sell_refund_percentage"`
	// Канал/тред лидерборда; 0 — лидерборд выключен.
	LeaderboardChannelID int64 `yaml:"leaderboard_channel_id"`
}

type guildsDocument struct {
	Guilds map[int64]*GuildConfig `yaml:"guilds"`
}

// GuildStore хранит снимок настроек всех серверов.
// Чтения дешёвые (RWMutex), запись — только целиком через Reload.
type GuildStore struct {
	path string

	mu     sync.RWMutex
	guilds map[int64]*GuildConfig
}

// NewGuildStore читает документ и возвращает готовое хранилище.
func NewGuildStore(path string) (*GuildStore, error) {
	s := &GuildStore{path: path, guilds: make(map[int64]*GuildConfig)}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload перечитывает документ с диска. При ошибке прежний снимок сохраняется,
// чтобы битый файл не остановил работающие серверы.
func (s *GuildStore) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("не удалось прочитать %s: %w", s.path, err)
	}

	var doc guildsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("не удалось разобрать %s: %w", s.path, err)
	}

	for id, g := range doc.Guilds {
		if g == nil {
			doc.Guilds[id] = &GuildConfig{}
			g = doc.Guilds[id]
		}
		applyGuildDefaults(g)
	}

	s.mu.Lock()
	s.guilds = doc.Guilds
	s.mu.Unlock()

	log.WithField("guilds", len(doc.Guilds)).Info("Конфигурация серверов загружена")
	return nil
}

// Guild возвращает настройки сервера или nil, если сервер не настроен.
// Отсутствие конфига — не ошибка: функции для такого сервера выключены.
func (s *GuildStore) Guild(guildID int64) *GuildConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guilds[guildID]
}

// GuildIDs возвращает отсортированный список настроенных серверов.
// Порядок стабилен, чтобы логи фоновых задач читались одинаково.
func (s *GuildStore) GuildIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.guilds))
	for id := range s.guilds {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func applyGuildDefaults(g *GuildConfig) {
	if g.SellRefundPercent <= 0 || g.SellRefundPercent > 1 {
		g.SellRefundPercent = 0.65
	}
	if g.CustomRole.MinPosition <= 0 {
		g.CustomRole.MinPosition = 1
	}
}
