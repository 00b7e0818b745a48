package accrual

import (
	"testing"

	"serotonyl.ru/shop-bot/internal/config"
)

func TestResolveRate(t *testing.T) {
	full := &config.GuildConfig{
		CurrencyRates: config.CurrencyRates{
			Default: config.RatePair{MessagesPerCoin: 10, ReactionsPerCoin: 20},
			Categories: map[int64]config.RatePair{
				100: {MessagesPerCoin: 5, ReactionsPerCoin: 8},
			},
			Channels: map[int64]config.RatePair{
				200: {MessagesPerCoin: 2, ReactionsPerCoin: 3},
			},
		},
	}
	noChannel := &config.GuildConfig{
		CurrencyRates: config.CurrencyRates{
			Default: full.CurrencyRates.Default,
			Categories: map[int64]config.RatePair{
				100: {MessagesPerCoin: 5, ReactionsPerCoin: 8},
			},
		},
	}
	defaultOnly := &config.GuildConfig{
		CurrencyRates: config.CurrencyRates{Default: full.CurrencyRates.Default},
	}

	tests := []struct {
		name       string
		guild      *config.GuildConfig
		channelID  int64
		categoryID int64
		want       config.RatePair
	}{
		{
			name:       "переопределение канала побеждает категорию и default",
			guild:      full,
			channelID:  200,
			categoryID: 100,
			want:       config.RatePair{MessagesPerCoin: 2, ReactionsPerCoin: 3},
		},
		{
			name:       "без переопределения канала действует категория",
			guild:      noChannel,
			channelID:  200,
			categoryID: 100,
			want:       config.RatePair{MessagesPerCoin: 5, ReactionsPerCoin: 8},
		},
		{
			name:       "без переопределений действует default",
			guild:      defaultOnly,
			channelID:  200,
			categoryID: 100,
			want:       config.RatePair{MessagesPerCoin: 10, ReactionsPerCoin: 20},
		},
		{
			name:       "канал вне категории не трогает карту категорий",
			guild:      noChannel,
			channelID:  300,
			categoryID: 0,
			want:       config.RatePair{MessagesPerCoin: 10, ReactionsPerCoin: 20},
		},
		{
			name:       "сервер без конфигурации — нулевой курс",
			guild:      nil,
			channelID:  200,
			categoryID: 100,
			want:       config.RatePair{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveRate(tt.guild, tt.channelID, tt.categoryID)
			if got != tt.want {
				t.Fatalf("ожидали %+v, получили %+v", tt.want, got)
			}
		})
	}
}
