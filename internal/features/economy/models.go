// Package economy управляет виртуальной валютой «коины».
// models.go описывает структуры аккаунтов и журнала транзакций.
package economy

import "time"

// Account — счёт участника на конкретном сервере.
// Ключ (guild_id, user_id); запись создаётся при первой активности
// и никогда не удаляется (история сохраняется).
type Account struct {
	GuildID int64 `db:"guild_id"`
	UserID  int64 `db:"user_id"`
	// Текущий баланс. Неотрицательность обеспечивается проверками
	// на путях списания, а не схемой.
	Balance int64 `db:"balance"`
	// Счётчики переноса остатка: всегда меньше знаменателя курса.
	MessageCount  int `db:"message_count"`
	ReactionCount int `db:"reaction_count"`
	// Зеркало внешнего списка бустеров. Пишет только цикл синхронизации бустов.
	RealBoostCount int `db:"real_boost_count"`
	// Административная подмена количества бустов. 0 — подмена выключена.
	FakeBoostCount int       `db:"fake_boost_count"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// EffectiveBoosts — количество бустов, которое видит вся остальная система.
// Административная подмена всегда побеждает реальное значение.
func (a *Account) EffectiveBoosts() int {
	if a.FakeBoostCount > 0 {
		return a.FakeBoostCount
	}
	return a.RealBoostCount
}

// Transaction — одна запись журнала операций. Журнал append-only:
// записи никогда не изменяются и не удаляются, он нужен для аудита.
type Transaction struct {
	ID      int64  `db:"id"`
	GuildID int64  `db:"guild_id"`
	UserID  int64  `db:"user_id"`
	TxType  string `db:"tx_type"`
	// Что именно купили/продали/начислили (имя роли, вид активности).
	Item string `db:"item"`
	// Подписанная дельта: начисления положительные, списания отрицательные.
	Amount       int64     `db:"amount"`
	BalanceAfter int64     `db:"balance_after"`
	CreatedAt    time.Time `db:"created_at"`
}

// Допустимые типы транзакций
const (
	TxTypeMessageAccrual  = "message_accrual"  // Начисление за сообщения
	TxTypeReactionAccrual = "reaction_accrual" // Начисление за реакции
	TxTypeRolePurchase    = "role_purchase"    // Покупка роли из магазина
	TxTypeRoleSale        = "role_sale"        // Продажа роли обратно
	TxTypeRoleCreate      = "role_create"      // Создание персональной роли
	TxTypeRefund          = "refund"           // Возврат после неудавшейся операции
	TxTypeAdminGive       = "admin_give"       // Выдача админом
	TxTypeAdminSet        = "admin_set"        // Установка баланса админом
)

// CounterKind — какой счётчик активности двигает начисление.
type CounterKind string

const (
	CounterMessages  CounterKind = "message_count"
	CounterReactions CounterKind = "reaction_count"
)
