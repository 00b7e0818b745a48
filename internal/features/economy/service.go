// Package economy — service.go содержит бизнес-логику экономики:
// валидация сумм, доступ к аккаунтам и журналу транзакций.
package economy

import (
	"context"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/shop-bot/internal/common"
)

// Service управляет экономикой (коины).
type Service struct {
	repo *Repository
}

// NewService создаёт новый сервис экономики.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Account возвращает аккаунт участника, создавая его при первом обращении.
func (s *Service) Account(ctx context.Context, guildID, userID int64) (*Account, error) {
	return s.repo.GetOrCreate(ctx, guildID, userID)
}

// Credit начисляет коины. Используется магазином и админкой.
func (s *Service) Credit(ctx context.Context, guildID, userID int64, amount int64, txType, item string) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}
	return s.repo.Credit(ctx, guildID, userID, amount, txType, item)
}

// Deduct списывает коины. Проверка достаточности — под блокировкой строки
// в репозитории, поэтому конкурентные списания не уводят баланс в минус.
func (s *Service) Deduct(ctx context.Context, guildID, userID int64, amount int64, txType, item string) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}

	balance, err := s.repo.Deduct(ctx, guildID, userID, amount, txType, item)
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"guild_id": guildID,
		"user_id":  userID,
		"amount":   amount,
		"tx_type":  txType,
	}).Debug("Списание выполнено")
	return balance, nil
}

// SetBalance выставляет точный баланс (админская операция).
func (s *Service) SetBalance(ctx context.Context, guildID, userID int64, amount int64, item string) error {
	if amount < 0 {
		return common.ErrInvalidAmount
	}
	// Аккаунт должен существовать, чтобы было что блокировать
	if _, err := s.repo.GetOrCreate(ctx, guildID, userID); err != nil {
		return err
	}
	return s.repo.SetBalance(ctx, guildID, userID, amount, item)
}

// History возвращает последние записи журнала транзакций участника,
// новые первыми.
func (s *Service) History(ctx context.Context, guildID, userID int64, limit int) ([]*Transaction, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.repo.Transactions(ctx, guildID, userID, limit)
}

// EffectiveBoosts возвращает действующее количество бустов участника
// с учётом административной подмены.
func (s *Service) EffectiveBoosts(ctx context.Context, guildID, userID int64) (int, error) {
	account, err := s.repo.GetOrCreate(ctx, guildID, userID)
	if err != nil {
		return 0, err
	}
	return account.EffectiveBoosts(), nil
}
