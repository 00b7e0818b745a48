package boosts

import (
	"testing"
	"time"

	"serotonyl.ru/shop-bot/internal/config"
)

func TestMultiplierFor(t *testing.T) {
	cfg := config.BoosterMultiplier{Enabled: true, Base: 1.5, PerBoost: 0.5}

	tests := []struct {
		name   string
		boosts int
		cfg    config.BoosterMultiplier
		want   float64
	}{
		{name: "множитель выключен", boosts: 3, cfg: config.BoosterMultiplier{}, want: 1.0},
		{name: "без бустов", boosts: 0, cfg: cfg, want: 1.0},
		{name: "один буст", boosts: 1, cfg: cfg, want: 1.5},
		{name: "три буста", boosts: 3, cfg: cfg, want: 2.5},
		{
			name:   "формула ниже единицы поднимается до 1.0",
			boosts: 1,
			cfg:    config.BoosterMultiplier{Enabled: true, Base: 0.5, PerBoost: 0.1},
			want:   1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := multiplierFor(tt.boosts, tt.cfg); got != tt.want {
				t.Fatalf("ожидали %v, получили %v", tt.want, got)
			}
		})
	}
}

func TestMultiplierMonotonic(t *testing.T) {
	cfg := config.BoosterMultiplier{Enabled: true, Base: 1.2, PerBoost: 0.3}
	prev := 0.0
	for n := 0; n <= 10; n++ {
		m := multiplierFor(n, cfg)
		if m < prev {
			t.Fatalf("множитель упал при росте бустов: %d бустов дали %v после %v", n, m, prev)
		}
		prev = m
	}
}

func TestFakeBoostsBypassCache(t *testing.T) {
	cfg := config.BoosterMultiplier{Enabled: true, Base: 1.5, PerBoost: 0.5}
	c := NewCalculator(time.Minute)

	// Прогреваем кэш реальным значением.
	if got := c.Multiplier(1, 42, 1, 0, cfg); got != 1.5 {
		t.Fatalf("ожидали 1.5, получили %v", got)
	}

	// Подмена действует немедленно, кэш не мешает.
	if got := c.Multiplier(1, 42, 1, 3, cfg); got != 2.5 {
		t.Fatalf("ожидали 2.5 по подмене, получили %v", got)
	}

	// Подмена эквивалентна реальному значению той же величины.
	real := multiplierFor(3, cfg)
	fake := c.Multiplier(1, 43, 0, 3, cfg)
	if real != fake {
		t.Fatalf("подмена %v не совпала с реальным %v", fake, real)
	}
}

func TestMultiplierCacheTTL(t *testing.T) {
	cfg := config.BoosterMultiplier{Enabled: true, Base: 1.5, PerBoost: 0.5}
	c := NewCalculator(time.Minute)

	now := time.Unix(1000, 0)
	c.cache.now = func() time.Time { return now }

	if got := c.Multiplier(1, 42, 1, 0, cfg); got != 1.5 {
		t.Fatalf("ожидали 1.5, получили %v", got)
	}

	// Пока TTL не истёк, отдаётся кэшированное значение — даже если
	// реальные бусты уже другие.
	if got := c.Multiplier(1, 42, 3, 0, cfg); got != 1.5 {
		t.Fatalf("ожидали кэшированные 1.5, получили %v", got)
	}

	now = now.Add(2 * time.Minute)
	if got := c.Multiplier(1, 42, 3, 0, cfg); got != 2.5 {
		t.Fatalf("ожидали пересчитанные 2.5, получили %v", got)
	}
}

func TestInvalidateDropsCachedValue(t *testing.T) {
	cfg := config.BoosterMultiplier{Enabled: true, Base: 1.5, PerBoost: 0.5}
	c := NewCalculator(time.Minute)

	if got := c.Multiplier(1, 42, 1, 0, cfg); got != 1.5 {
		t.Fatalf("ожидали 1.5, получили %v", got)
	}

	c.Invalidate(1, 42)

	if got := c.Multiplier(1, 42, 3, 0, cfg); got != 2.5 {
		t.Fatalf("ожидали 2.5 после сброса кэша, получили %v", got)
	}
}
