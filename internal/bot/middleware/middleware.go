// Package middleware содержит промежуточные обработчики для логирования
// и восстановления после паники.
package middleware

import (
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/shop-bot/internal/platform"
)

// RecoverFromPanic перехватывает панику обработчика события.
// Одно плохое событие не должно ронять весь процесс.
func RecoverFromPanic() {
	if r := recover(); r != nil {
		log.WithFields(log.Fields{
			"panic": r,
			"stack": string(debug.Stack()),
		}).Error("Паника в обработчике события")
	}
}

// LogEvent логирует входящее событие платформы.
func LogEvent(ev platform.Event) {
	switch e := ev.(type) {
	case platform.ActivityPosted:
		log.WithFields(log.Fields{
			"guild_id":   e.GuildID,
			"channel_id": e.ChannelID,
			"user_id":    e.UserID,
		}).Debug("Событие: сообщение")
	case platform.ReactionAdded:
		log.WithFields(log.Fields{
			"guild_id":   e.GuildID,
			"channel_id": e.ChannelID,
			"user_id":    e.UserID,
			"author_id":  e.AuthorID,
		}).Debug("Событие: реакция")
	case platform.MembershipTierChanged:
		log.WithFields(log.Fields{
			"guild_id": e.GuildID,
			"user_id":  e.UserID,
			"elevated": e.Elevated,
		}).Debug("Событие: изменение буст-статуса")
	default:
		log.WithField("type", ev).Debug("Событие: неизвестный тип")
	}
}
