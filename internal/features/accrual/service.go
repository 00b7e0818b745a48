// Package accrual — service.go обрабатывает события активности:
// двигает счётчики с переносом остатка и начисляет коины через множитель.
package accrual

import (
	"context"
	"fmt"
	"math"
	"sync"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/shop-bot/internal/config"
	"serotonyl.ru/shop-bot/internal/features/economy"
	"serotonyl.ru/shop-bot/internal/platform"
)

// accountStore — операции с аккаунтами, нужные обработчику начислений.
type accountStore interface {
	GetOrCreate(ctx context.Context, guildID, userID int64) (*economy.Account, error)
	ApplyAccrual(ctx context.Context, guildID, userID int64, counter economy.CounterKind, newCount int, grant int64, txType, item string) error
}

// multiplierSource — расчёт множителя за бусты.
type multiplierSource interface {
	Multiplier(guildID, userID int64, realBoosts, fakeBoosts int, cfg config.BoosterMultiplier) float64
}

// Service — обработчик начислений.
type Service struct {
	accounts accountStore
	mult     multiplierSource
	guilds   *config.GuildStore

	// Чтение-изменение-запись аккаунта сериализуется по ключу (сервер, участник):
	// без этого конкурентные события теряют обновления счётчика переноса.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService создаёт обработчик начислений.
func NewService(accounts accountStore, mult multiplierSource, guilds *config.GuildStore) *Service {
	return &Service{
		accounts: accounts,
		mult:     mult,
		guilds:   guilds,
		locks:    make(map[string]*sync.Mutex),
	}
}

// HandleMessage обрабатывает событие «участник написал сообщение».
func (s *Service) HandleMessage(ctx context.Context, ev platform.ActivityPosted) error {
	if ev.Automated {
		return nil
	}

	g := s.guilds.Guild(ev.GuildID)
	rate := ResolveRate(g, ev.ChannelID, ev.CategoryID).MessagesPerCoin
	return s.process(ctx, g, ev.GuildID, ev.UserID, economy.CounterMessages, rate,
		economy.TxTypeMessageAccrual, "Активность: сообщения")
}

// HandleReaction обрабатывает событие «участник поставил реакцию».
// Реакции на собственные сообщения и реакции ботов не считаются.
func (s *Service) HandleReaction(ctx context.Context, ev platform.ReactionAdded) error {
	if ev.Automated || ev.UserID == ev.AuthorID {
		return nil
	}

	g := s.guilds.Guild(ev.GuildID)
	rate := ResolveRate(g, ev.ChannelID, ev.CategoryID).ReactionsPerCoin
	return s.process(ctx, g, ev.GuildID, ev.UserID, economy.CounterReactions, rate,
		economy.TxTypeReactionAccrual, "Активность: реакции")
}

// process — общий путь для обоих видов активности.
func (s *Service) process(ctx context.Context, g *config.GuildConfig, guildID, userID int64, counter economy.CounterKind, rate int, txType, item string) error {
	// Нулевой курс: событие теряется без инкремента счётчика —
	// знаменателя для переноса остатка здесь просто нет.
	if rate <= 0 {
		return nil
	}

	unlock := s.lock(guildID, userID)
	defer unlock()

	account, err := s.accounts.GetOrCreate(ctx, guildID, userID)
	if err != nil {
		return err
	}

	oldCount := account.MessageCount
	if counter == economy.CounterReactions {
		oldCount = account.ReactionCount
	}

	granted, remainder := carry(oldCount+1, rate)
	if granted == 0 {
		return s.accounts.ApplyAccrual(ctx, guildID, userID, counter, remainder, 0, txType, item)
	}

	// Множитель считается по состоянию аккаунта ДО этого события:
	// бусты от активности не зависят.
	var cfg config.BoosterMultiplier
	if g != nil {
		cfg = g.BoosterMultiplier
	}
	mult := s.mult.Multiplier(guildID, userID, account.RealBoostCount, account.FakeBoostCount, cfg)
	final := scaleGrant(granted, mult)

	// final == 0 возможно только из-за округления множителя вниз;
	// остаток всё равно фиксируем, чтобы не потерять перенос.
	if err := s.accounts.ApplyAccrual(ctx, guildID, userID, counter, remainder, final, txType, item); err != nil {
		return err
	}

	if final > 0 {
		log.WithFields(log.Fields{
			"guild_id":   guildID,
			"user_id":    userID,
			"granted":    granted,
			"multiplier": mult,
			"final":      final,
		}).Debug("Коины начислены")
	}
	return nil
}

// carry — арифметика переноса остатка: сколько коинов даёт новый счётчик
// и что остаётся в счётчике.
func carry(newCount, rate int) (granted int64, remainder int) {
	return int64(newCount / rate), newCount % rate
}

// scaleGrant применяет множитель и округляет вниз.
func scaleGrant(granted int64, multiplier float64) int64 {
	return int64(math.Floor(float64(granted) * multiplier))
}

// lock берёт мьютекс ключа (сервер, участник). Карта мьютексов растёт
// с числом активных участников и не чистится — этого достаточно для
// масштаба одного-нескольких серверов.
func (s *Service) lock(guildID, userID int64) func() {
	key := fmt.Sprintf("%d:%d", guildID, userID)

	s.mu.Lock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}
