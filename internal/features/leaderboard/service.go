// Package leaderboard периодически публикует топ участников по коинам
// в настроенный канал, редактируя одно и то же сообщение.
package leaderboard

import (
	"context"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/shop-bot/internal/common"
	"serotonyl.ru/shop-bot/internal/config"
	"serotonyl.ru/shop-bot/internal/features/economy"
	"serotonyl.ru/shop-bot/internal/platform"
)

// Сколько последних сообщений канала просматривается в поисках своего.
const scanLimit = 50

// topSource — источник топа балансов.
type topSource interface {
	TopBalances(ctx context.Context, guildID int64, limit int) ([]*economy.Account, error)
}

// messenger — нужная лидерборду часть адаптера платформы.
type messenger interface {
	Ready(guildID int64) bool
	EditMessage(ctx context.Context, channelID, messageID int64, content string) error
	FindOwnMessage(ctx context.Context, channelID int64, limit int) (int64, error)
	SendMessage(ctx context.Context, channelID int64, content string) (int64, error)
}

// Service материализует лидерборд.
type Service struct {
	top    topSource
	client messenger
	guilds *config.GuildStore
	limit  int

	// Запомненные ID сообщений лидерборда по каналам. Переживает только
	// процесс: после рестарта сообщение находится заново через поиск.
	mu       sync.Mutex
	messages map[int64]int64
}

// NewService создаёт сервис лидерборда. limit — размер топа.
func NewService(top topSource, client messenger, guilds *config.GuildStore, limit int) *Service {
	return &Service{
		top:      top,
		client:   client,
		guilds:   guilds,
		limit:    limit,
		messages: make(map[int64]int64),
	}
}

// Sweep обновляет лидерборды всех настроенных серверов.
func (s *Service) Sweep(ctx context.Context) {
	for _, guildID := range s.guilds.GuildIDs() {
		if !s.client.Ready(guildID) {
			continue
		}
		if err := s.UpdateGuild(ctx, guildID); err != nil {
			log.WithError(err).WithField("guild_id", guildID).Error("Обновление лидерборда не удалось")
		}
	}
}

// UpdateGuild перерисовывает лидерборд одного сервера.
func (s *Service) UpdateGuild(ctx context.Context, guildID int64) error {
	g := s.guilds.Guild(guildID)
	if g == nil || g.LeaderboardChannelID == 0 {
		return nil
	}

	accounts, err := s.top.TopBalances(ctx, guildID, s.limit)
	if err != nil {
		return fmt.Errorf("не удалось получить топ: %w", err)
	}

	content := render(accounts)
	return s.upsert(ctx, g.LeaderboardChannelID, content)
}

// upsert доставляет содержимое в канал: сначала правка запомненного
// сообщения, затем поиск своего среди последних, и только потом — новое.
// Так лидерборд остаётся одним сообщением даже после рестартов.
func (s *Service) upsert(ctx context.Context, channelID int64, content string) error {
	s.mu.Lock()
	messageID, ok := s.messages[channelID]
	s.mu.Unlock()

	if ok {
		err := s.client.EditMessage(ctx, channelID, messageID, content)
		if err == nil {
			return nil
		}
		if !platform.IsGone(err) {
			return fmt.Errorf("не удалось отредактировать лидерборд: %w", err)
		}
		// Сообщение удалили руками — забываем его и ищем заново.
		s.forget(channelID)
	}

	found, err := s.client.FindOwnMessage(ctx, channelID, scanLimit)
	if err == nil {
		if err := s.client.EditMessage(ctx, channelID, found, content); err == nil {
			s.remember(channelID, found)
			return nil
		} else if !platform.IsGone(err) {
			return fmt.Errorf("не удалось отредактировать найденное сообщение: %w", err)
		}
	} else if !platform.IsGone(err) {
		return fmt.Errorf("не удалось просмотреть канал: %w", err)
	}

	sent, err := s.client.SendMessage(ctx, channelID, content)
	if err != nil {
		return fmt.Errorf("не удалось отправить лидерборд: %w", err)
	}
	s.remember(channelID, sent)
	return nil
}

func (s *Service) remember(channelID, messageID int64) {
	s.mu.Lock()
	s.messages[channelID] = messageID
	s.mu.Unlock()
}

func (s *Service) forget(channelID int64) {
	s.mu.Lock()
	delete(s.messages, channelID)
	s.mu.Unlock()
}

var medals = []string{"🥇", "🥈", "🥉"}

// render — чистый рендер текста лидерборда.
func render(accounts []*economy.Account) string {
	var b strings.Builder
	b.WriteString("🏆 **Топ участников по коинам**\n\n")

	if len(accounts) == 0 {
		b.WriteString("Пока никто не заработал ни коина.")
		return b.String()
	}

	for i, a := range accounts {
		marker := "🔹"
		if i < len(medals) {
			marker = medals[i]
		}
		b.WriteString(fmt.Sprintf("%s <@%d> — %s\n", marker, a.UserID, common.FormatCoins(a.Balance)))
	}
	return b.String()
}
