// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы и
// собирает всё в один объект App.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/shop-bot/internal/bot"
	"serotonyl.ru/shop-bot/internal/config"
	"serotonyl.ru/shop-bot/internal/db/postgres"
	"serotonyl.ru/shop-bot/internal/features/accrual"
	"serotonyl.ru/shop-bot/internal/features/admin"
	"serotonyl.ru/shop-bot/internal/features/boosts"
	"serotonyl.ru/shop-bot/internal/features/customroles"
	"serotonyl.ru/shop-bot/internal/features/economy"
	"serotonyl.ru/shop-bot/internal/features/leaderboard"
	"serotonyl.ru/shop-bot/internal/features/shop"
	"serotonyl.ru/shop-bot/internal/jobs"
	"serotonyl.ru/shop-bot/internal/platform"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool

	Economy     *economy.Service
	Shop        *shop.Service
	CustomRoles *customroles.Service
	Admin       *admin.Service
	Leaderboard *leaderboard.Service
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config, guilds *config.GuildStore, adapter platform.Adapter) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Репозитории ===
	economyRepo := economy.NewRepository(pool)
	shopRepo := shop.NewRepository(pool)
	customRolesRepo := customroles.NewRepository(pool)

	// === 3. Сервисы ===
	economyService := economy.NewService(economyRepo)
	calculator := boosts.NewCalculator(cfg.MultiplierCacheTTL)
	accrualService := accrual.NewService(economyRepo, calculator, guilds)
	reconciler := boosts.NewReconciler(economyRepo, adapter, calculator, guilds.GuildIDs)
	shopService := shop.NewService(shopRepo, economyService, adapter, guilds)
	customRolesService := customroles.NewService(customRolesRepo, economyService, economyService, adapter, shopRepo, guilds)
	lifecycle := customroles.NewManager(customRolesRepo, economyService, adapter, shopRepo, guilds)
	boardService := leaderboard.NewService(economyRepo, adapter, guilds, cfg.LeaderboardTopN)
	adminService := admin.NewService(economyService, economyRepo, calculator, cfg.AdminPasswordHash)

	// === 4. Диспетчер событий ===
	b := bot.New(adapter, cfg, accrualService, lifecycle, reconciler)

	// === 5. Планировщик задач ===
	scheduler := jobs.NewScheduler(cfg, reconciler, lifecycle, boardService)

	return &App{
		Bot:         b,
		Scheduler:   scheduler,
		DB:          pool,
		Economy:     economyService,
		Shop:        shopService,
		CustomRoles: customRolesService,
		Admin:       adminService,
		Leaderboard: boardService,
	}, nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.InitMigrations(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Accounts},
		{2, migration002Transactions},
		{3, migration003ShopRoles},
		{4, migration004CustomRoles},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Accounts = `
CREATE TABLE IF NOT EXISTS accounts (
    guild_id BIGINT NOT NULL,
    user_id BIGINT NOT NULL,
    balance BIGINT NOT NULL DEFAULT 0,
    message_count INTEGER NOT NULL DEFAULT 0,
    reaction_count INTEGER NOT NULL DEFAULT 0,
    real_boost_count INTEGER NOT NULL DEFAULT 0,
    fake_boost_count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW(),
    PRIMARY KEY (guild_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_accounts_balance ON accounts(guild_id, balance DESC, user_id ASC);
CREATE INDEX IF NOT EXISTS idx_accounts_boosts ON accounts(guild_id) WHERE real_boost_count > 0;
`

var migration002Transactions = `
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    guild_id BIGINT NOT NULL,
    user_id BIGINT NOT NULL,
    tx_type VARCHAR(50) NOT NULL,
    item TEXT,
    amount BIGINT NOT NULL,
    balance_after BIGINT NOT NULL,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(guild_id, user_id, created_at DESC);
`

var migration003ShopRoles = `
CREATE TABLE IF NOT EXISTS shop_roles (
    guild_id BIGINT NOT NULL,
    role_id BIGINT NOT NULL,
    price BIGINT NOT NULL,
    creator_id BIGINT,
    creation_price BIGINT,
    created_at TIMESTAMP DEFAULT NOW(),
    PRIMARY KEY (guild_id, role_id)
);
`

var migration004CustomRoles = `
CREATE TABLE IF NOT EXISTS custom_roles (
    guild_id BIGINT NOT NULL,
    user_id BIGINT NOT NULL,
    role_id BIGINT NOT NULL,
    name VARCHAR(100) NOT NULL,
    style VARCHAR(20) NOT NULL DEFAULT 'solid',
    primary_color VARCHAR(9),
    secondary_color VARCHAR(9),
    boostered BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW(),
    PRIMARY KEY (guild_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_custom_roles_guild ON custom_roles(guild_id, created_at ASC);
`
