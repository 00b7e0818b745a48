// Package customroles управляет персональными ролями: создание бустерами
// и обычными участниками, редактирование и жизненный цикл (отзыв, позиции).
package customroles

import (
	"time"

	"serotonyl.ru/shop-bot/internal/platform"
)

// CustomRole — персональная роль участника. У участника может быть
// не больше одной персональной роли на сервере.
type CustomRole struct {
	GuildID        int64
	UserID         int64
	RoleID         int64
	Name           string
	Style          platform.RoleStyle
	PrimaryColor   string
	SecondaryColor string
	// Создана бустером (true) или куплена обычным участником (false).
	Boostered bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Spec собирает параметры роли для вызова платформы.
func (c *CustomRole) Spec() platform.RoleSpec {
	return platform.RoleSpec{
		Name:           c.Name,
		Style:          c.Style,
		PrimaryColor:   c.PrimaryColor,
		SecondaryColor: c.SecondaryColor,
	}
}
