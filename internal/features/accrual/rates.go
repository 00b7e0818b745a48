// Package accrual начисляет коины за активность участников.
// rates.go — чистое разрешение курса для пары (сервер, канал).
package accrual

import "serotonyl.ru/shop-bot/internal/config"

// ResolveRate возвращает действующий курс для канала.
//
// Порядок разрешения, от частного к общему:
//  1. переопределение для канала
//  2. переопределение для категории канала
//  3. курс сервера по умолчанию
//  4. нулевой курс — «здесь не начисляем»
//
// Сервер без конфигурации получает нулевой курс: обработчик обязан
// пропустить событие, а не делить на ноль.
func ResolveRate(g *config.GuildConfig, channelID, categoryID int64) config.RatePair {
	if g == nil {
		return config.RatePair{}
	}

	if rate, ok := g.CurrencyRates.Channels[channelID]; ok {
		return rate
	}
	if categoryID != 0 {
		if rate, ok := g.CurrencyRates.Categories[categoryID]; ok {
			return rate
		}
	}
	return g.CurrencyRates.Default
}
