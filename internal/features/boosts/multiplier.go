// Package boosts отвечает за бусты: множитель начислений и синхронизацию
// ростера бустеров с платформой.
package boosts

import (
	"math"
	"time"

	"serotonyl.ru/shop-bot/internal/config"
)

// Calculator считает множитель начислений за бусты и кэширует результат.
type Calculator struct {
	cache *ttlCache
}

// NewCalculator создаёт калькулятор множителя с TTL-кэшем.
func NewCalculator(ttl time.Duration) *Calculator {
	return &Calculator{cache: newTTLCache(ttl)}
}

// Multiplier возвращает множитель участника по его бустам.
//
// Административная подмена (fakeBoosts > 0) действует немедленно и кэш
// не трогает: админ выставил значение и ждёт эффекта сразу.
func (c *Calculator) Multiplier(guildID, userID int64, realBoosts, fakeBoosts int, cfg config.BoosterMultiplier) float64 {
	if fakeBoosts > 0 {
		return multiplierFor(fakeBoosts, cfg)
	}

	if m, ok := c.cache.get(guildID, userID); ok {
		return m
	}
	m := multiplierFor(realBoosts, cfg)
	c.cache.set(guildID, userID, m)
	return m
}

// Invalidate сбрасывает кэшированный множитель участника.
// Вызывается при изменении бустов, чтобы новое значение подействовало
// не дожидаясь истечения TTL.
func (c *Calculator) Invalidate(guildID, userID int64) {
	c.cache.invalidate(guildID, userID)
}

// multiplierFor — чистая формула множителя.
// Выключенный множитель и отсутствие бустов дают 1.0; формула
// base + (n-1)*per_boost никогда не опускается ниже 1.0.
func multiplierFor(boosts int, cfg config.BoosterMultiplier) float64 {
	if !cfg.Enabled || boosts <= 0 {
		return 1.0
	}
	return math.Max(1.0, cfg.Base+float64(boosts-1)*cfg.PerBoost)
}
