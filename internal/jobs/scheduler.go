// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: синхронизация бустов,
// проверка персональных ролей и обновление лидерборда.
package jobs

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/shop-bot/internal/config"
	"serotonyl.ru/shop-bot/internal/features/boosts"
	"serotonyl.ru/shop-bot/internal/features/customroles"
	"serotonyl.ru/shop-bot/internal/features/leaderboard"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron        *cron.Cron
	cfg         *config.Config
	reconciler  *boosts.Reconciler
	lifecycle   *customroles.Manager
	leaderboard *leaderboard.Service
}

// NewScheduler создаёт планировщик задач.
func NewScheduler(cfg *config.Config, reconciler *boosts.Reconciler, lifecycle *customroles.Manager, board *leaderboard.Service) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		cfg:         cfg,
		reconciler:  reconciler,
		lifecycle:   lifecycle,
		leaderboard: board,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.AddFunc(fmt.Sprintf("@every %s", s.cfg.BoostSyncInterval), func() {
		log.Debug("[CRON] Синхронизация бустов")
		s.reconciler.Sweep(ctx)
	})

	s.cron.AddFunc(fmt.Sprintf("@every %s", s.cfg.LifecycleInterval), func() {
		log.Debug("[CRON] Проверка персональных ролей")
		s.lifecycle.Sweep(ctx)
	})

	s.cron.AddFunc(fmt.Sprintf("@every %s", s.cfg.LeaderboardInterval), func() {
		log.Debug("[CRON] Обновление лидерборда")
		s.leaderboard.Sweep(ctx)
	})

	s.cron.Start()
	log.WithFields(log.Fields{
		"boost_sync":  s.cfg.BoostSyncInterval.String(),
		"lifecycle":   s.cfg.LifecycleInterval.String(),
		"leaderboard": s.cfg.LeaderboardInterval.String(),
	}).Info("Планировщик задач запущен")
}

// Stop останавливает планировщик и дожидается текущих задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
