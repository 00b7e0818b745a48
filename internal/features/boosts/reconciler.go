// reconciler.go сверяет локальные счётчики бустов с ростером платформы.
// Платформа — источник истины; локальная таблица догоняет её на каждом проходе.
package boosts

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"serotonyl.ru/shop-bot/internal/platform"
)

// boostStore — операции с локальными счётчиками бустов.
type boostStore interface {
	RealBoostCounts(ctx context.Context, guildID int64) (map[int64]int, error)
	SetRealBoostCount(ctx context.Context, guildID, userID int64, count int) error
}

// rosterSource — нужная реконсилеру часть адаптера платформы.
type rosterSource interface {
	Ready(guildID int64) bool
	FetchBoosterRoster(ctx context.Context, guildID int64) ([]platform.RosterEntry, error)
}

// invalidator сбрасывает кэш множителя при изменении бустов.
type invalidator interface {
	Invalidate(guildID, userID int64)
}

// Reconciler синхронизирует счётчики бустов с платформой.
type Reconciler struct {
	store    boostStore
	roster   rosterSource
	calc     invalidator
	guildIDs func() []int64
}

// NewReconciler создаёт реконсилер бустов.
func NewReconciler(store boostStore, roster rosterSource, calc invalidator, guildIDs func() []int64) *Reconciler {
	return &Reconciler{store: store, roster: roster, calc: calc, guildIDs: guildIDs}
}

// SyncGuild сверяет один сервер. Если ростер получить не удалось,
// локальные данные не трогаются: лучше отстать, чем обнулить всех по ошибке.
func (r *Reconciler) SyncGuild(ctx context.Context, guildID int64) error {
	roster, err := r.roster.FetchBoosterRoster(ctx, guildID)
	if err != nil {
		return fmt.Errorf("не удалось получить ростер бустеров: %w", err)
	}

	local, err := r.store.RealBoostCounts(ctx, guildID)
	if err != nil {
		return fmt.Errorf("не удалось прочитать локальные бусты: %w", err)
	}

	updates := diffBoosts(local, roster)
	if len(updates) == 0 {
		return nil
	}

	for userID, count := range updates {
		if err := r.store.SetRealBoostCount(ctx, guildID, userID, count); err != nil {
			return fmt.Errorf("не удалось записать бусты участника %d: %w", userID, err)
		}
		r.calc.Invalidate(guildID, userID)
	}

	log.WithFields(log.Fields{
		"guild_id": guildID,
		"updated":  len(updates),
	}).Info("Бусты синхронизированы")
	return nil
}

// Sweep сверяет все настроенные серверы. Ошибка одного сервера
// не мешает остальным: она логируется, проход продолжается.
func (r *Reconciler) Sweep(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, guildID := range r.guildIDs() {
		if !r.roster.Ready(guildID) {
			continue
		}
		guildID := guildID
		g.Go(func() error {
			if err := r.SyncGuild(ctx, guildID); err != nil {
				log.WithError(err).WithField("guild_id", guildID).Error("Синхронизация бустов не удалась")
			}
			return nil
		})
	}
	_ = g.Wait()
}

// diffBoosts возвращает участников, чьё локальное значение отличается
// от ростера: новые и изменившиеся — с новым значением, ушедшие — с нулём.
func diffBoosts(local map[int64]int, roster []platform.RosterEntry) map[int64]int {
	updates := make(map[int64]int)

	seen := make(map[int64]bool, len(roster))
	for _, e := range roster {
		seen[e.UserID] = true
		if local[e.UserID] != e.Count {
			updates[e.UserID] = e.Count
		}
	}
	for userID := range local {
		if !seen[userID] {
			updates[userID] = 0
		}
	}
	return updates
}
