// Package admin — привилегированные операции: вход по паролю,
// ручные начисления и подмена бустов.
package admin

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"serotonyl.ru/shop-bot/internal/common"
	"serotonyl.ru/shop-bot/internal/features/economy"
)

// Лимит неудачных попыток входа за окно.
const (
	maxLoginAttempts = 3
	attemptWindow    = time.Hour
)

// economyOps — денежные операции, доступные админке.
type economyOps interface {
	Credit(ctx context.Context, guildID, userID int64, amount int64, txType, item string) (int64, error)
	SetBalance(ctx context.Context, guildID, userID int64, amount int64, item string) error
	History(ctx context.Context, guildID, userID int64, limit int) ([]*economy.Transaction, error)
}

// boostOverride — запись административной подмены бустов.
type boostOverride interface {
	SetFakeBoosts(ctx context.Context, guildID, userID int64, count int) error
}

// cacheInvalidator сбрасывает кэш множителя, чтобы подмена подействовала сразу.
type cacheInvalidator interface {
	Invalidate(guildID, userID int64)
}

// Service реализует админские операции.
type Service struct {
	economy      economyOps
	boosts       boostOverride
	cache        cacheInvalidator
	passwordHash string

	// Часы вынесены в поле ради тестов лимитера.
	now func() time.Time

	attemptsMu sync.Mutex
	attempts   map[int64][]time.Time
}

// NewService создаёт сервис админки. passwordHash — Argon2id-хеш пароля
// из окружения.
func NewService(eco economyOps, boosts boostOverride, cache cacheInvalidator, passwordHash string) *Service {
	return &Service{
		economy:      eco,
		boosts:       boosts,
		cache:        cache,
		passwordHash: passwordHash,
		now:          time.Now,
		attempts:     make(map[int64][]time.Time),
	}
}

// VerifyPassword проверяет пароль инициатора. После трёх неудачных
// попыток за час вход блокируется до конца окна.
func (s *Service) VerifyPassword(userID int64, password string) error {
	if s.tooManyAttempts(userID) {
		return common.ErrTooManyAttempts
	}

	if !verifyArgon2id(password, s.passwordHash) {
		s.recordAttempt(userID)
		log.WithField("user_id", userID).Warn("Неудачная попытка входа в админку")
		return common.ErrWrongPassword
	}

	s.clearAttempts(userID)
	log.WithField("user_id", userID).Info("Вход в админку")
	return nil
}

// GiveCoins начисляет коины участнику вручную.
func (s *Service) GiveCoins(ctx context.Context, guildID, userID int64, amount int64, reason string) error {
	item := reason
	if item == "" {
		item = "Ручное начисление"
	}
	_, err := s.economy.Credit(ctx, guildID, userID, amount, economy.TxTypeAdminGive, item)
	return err
}

// SetBalance выставляет участнику точный баланс.
func (s *Service) SetBalance(ctx context.Context, guildID, userID int64, amount int64) error {
	return s.economy.SetBalance(ctx, guildID, userID, amount, "Админ: установка баланса")
}

// History возвращает журнал транзакций участника — для разбора споров
// о начислениях.
func (s *Service) History(ctx context.Context, guildID, userID int64, limit int) ([]*economy.Transaction, error) {
	return s.economy.History(ctx, guildID, userID, limit)
}

// SetFakeBoosts выставляет подмену количества бустов. Кэш множителя
// сбрасывается сразу: админ ждёт эффекта немедленно, а не через TTL.
func (s *Service) SetFakeBoosts(ctx context.Context, guildID, userID int64, count int) error {
	if count < 0 {
		return common.ErrInvalidAmount
	}
	if err := s.boosts.SetFakeBoosts(ctx, guildID, userID, count); err != nil {
		return err
	}
	s.cache.Invalidate(guildID, userID)

	log.WithFields(log.Fields{
		"guild_id": guildID,
		"user_id":  userID,
		"count":    count,
	}).Info("Подмена бустов установлена")
	return nil
}

func (s *Service) tooManyAttempts(userID int64) bool {
	s.attemptsMu.Lock()
	defer s.attemptsMu.Unlock()

	cutoff := s.now().Add(-attemptWindow)
	recent := s.attempts[userID][:0]
	for _, at := range s.attempts[userID] {
		if at.After(cutoff) {
			recent = append(recent, at)
		}
	}
	s.attempts[userID] = recent
	return len(recent) >= maxLoginAttempts
}

func (s *Service) recordAttempt(userID int64) {
	s.attemptsMu.Lock()
	defer s.attemptsMu.Unlock()
	s.attempts[userID] = append(s.attempts[userID], s.now())
}

func (s *Service) clearAttempts(userID int64) {
	s.attemptsMu.Lock()
	defer s.attemptsMu.Unlock()
	delete(s.attempts, userID)
}

// verifyArgon2id проверяет пароль по хешу Argon2id.
// Формат хеша: $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Сравнение в постоянном времени (защита от timing attack)
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1
}
