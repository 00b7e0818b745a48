// Package bot содержит диспетчер событий платформы: приём, маршрутизация
// по обработчикам и ограничение параллелизма.
package bot

import (
	"context"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/shop-bot/internal/bot/middleware"
	"serotonyl.ru/shop-bot/internal/config"
	"serotonyl.ru/shop-bot/internal/features/accrual"
	"serotonyl.ru/shop-bot/internal/features/boosts"
	"serotonyl.ru/shop-bot/internal/features/customroles"
	"serotonyl.ru/shop-bot/internal/platform"
)

// Bot — диспетчер событий платформы.
type Bot struct {
	adapter platform.Adapter
	cfg     *config.Config

	accrual    *accrual.Service
	lifecycle  *customroles.Manager
	reconciler *boosts.Reconciler

	// ограничитель параллелизма обработки событий
	inflight chan struct{}
}

// New создаёт диспетчер.
func New(adapter platform.Adapter, cfg *config.Config, accrualSvc *accrual.Service, lifecycle *customroles.Manager, reconciler *boosts.Reconciler) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		adapter:    adapter,
		cfg:        cfg,
		accrual:    accrualSvc,
		lifecycle:  lifecycle,
		reconciler: reconciler,
		inflight:   make(chan struct{}, maxInFlight),
	}
}

// Start читает события адаптера до отмены контекста или закрытия канала.
func (b *Bot) Start(ctx context.Context) {
	events := b.adapter.Events()

	log.WithField("max_inflight", b.cfg.BotMaxInflight).Info("Диспетчер запущен и ожидает события...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Диспетчер останавливается (ctx done)...")
			return

		case ev, ok := <-events:
			if !ok {
				log.Info("Канал событий закрыт, диспетчер остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(ev platform.Event) {
				defer func() { <-b.inflight }()
				b.handleEvent(ctx, ev)
			}(ev)
		}
	}
}

// handleEvent обрабатывает одно событие платформы.
func (b *Bot) handleEvent(ctx context.Context, ev platform.Event) {
	defer middleware.RecoverFromPanic()

	middleware.LogEvent(ev)

	switch e := ev.(type) {
	case platform.ActivityPosted:
		if err := b.accrual.HandleMessage(ctx, e); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"guild_id": e.GuildID,
				"user_id":  e.UserID,
			}).Error("Начисление за сообщение не удалось")
		}

	case platform.ReactionAdded:
		if err := b.accrual.HandleReaction(ctx, e); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"guild_id": e.GuildID,
				"user_id":  e.UserID,
			}).Error("Начисление за реакцию не удалось")
		}

	case platform.MembershipTierChanged:
		// Буст появился или пропал — локальные счётчики устарели.
		if err := b.reconciler.SyncGuild(ctx, e.GuildID); err != nil {
			log.WithError(err).WithField("guild_id", e.GuildID).Warn("Внеплановая синхронизация бустов не удалась")
		}
		// Потеря буста может стоить персональной роли — проверяем сразу.
		if !e.Elevated {
			if err := b.lifecycle.CheckMember(ctx, e.GuildID, e.UserID); err != nil {
				log.WithError(err).WithFields(log.Fields{
					"guild_id": e.GuildID,
					"user_id":  e.UserID,
				}).Error("Точечная проверка роли не удалась")
			}
		}
	}
}
