// Package shop — магазин ролей: покупка, продажа обратно, управление витриной.
package shop

import "time"

// ShopRole — роль на витрине магазина.
type ShopRole struct {
	GuildID int64
	RoleID  int64
	Price   int64
	// Создатель роли, если роль заведена участником, а не админом.
	CreatorID *int64
	// Цена создания — для ролей, заведённых участниками.
	CreationPrice *int64
	CreatedAt     time.Time
}
