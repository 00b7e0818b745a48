// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях движка.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять инициатору понятные сообщения.
package common

import "errors"

// Ошибки экономики (коины, покупки)
var (
	// ErrInsufficientBalance — недостаточно коинов на счёте
	ErrInsufficientBalance = errors.New("недостаточно коинов на счёте")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrAccountNotFound — аккаунт не найден в базе
	ErrAccountNotFound = errors.New("аккаунт не найден")
)

// Ошибки магазина ролей
var (
	// ErrRoleNotInShop — роль отсутствует в каталоге магазина
	ErrRoleNotInShop = errors.New("роль не продаётся в магазине")
	// ErrRoleAlreadyOwned — участник уже владеет этой ролью
	ErrRoleAlreadyOwned = errors.New("эта роль уже есть у участника")
	// ErrRoleNotOwned — участник не владеет ролью, которую пытается продать
	ErrRoleNotOwned = errors.New("участник не владеет этой ролью")
	// ErrInvalidPrice — цена не может быть отрицательной
	ErrInvalidPrice = errors.New("цена не может быть отрицательной")
)

// Ошибки персональных ролей
var (
	// ErrCustomRoleExists — у участника уже есть персональная роль (лимит — одна)
	ErrCustomRoleExists = errors.New("у участника уже есть персональная роль")
	// ErrCustomRoleNotFound — персональная роль не найдена
	ErrCustomRoleNotFound = errors.New("персональная роль не найдена")
	// ErrNotEnoughBoosts — недостаточно бустов для этой функции
	ErrNotEnoughBoosts = errors.New("недостаточно бустов для этой функции")
	// ErrCreationDisabled — создание ролей для обычных участников выключено
	ErrCreationDisabled = errors.New("создание персональных ролей выключено")
	// ErrInvalidRoleStyle — неизвестный стиль роли
	ErrInvalidRoleStyle = errors.New("неизвестный стиль роли")
)

// Ошибки админки
var (
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
)
