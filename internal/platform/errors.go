package platform

import "errors"

// Классы ошибок платформы. Всё, что не помечено как постоянная ошибка,
// считается временным сбоем: операция бросается до следующего прохода.
var (
	// ErrGone — ресурс уже удалён на платформе. Для отзыва ролей
	// это равнозначно успеху: локальная запись всё равно удаляется.
	ErrGone = errors.New("ресурс больше не существует")
	// ErrForbidden — платформа окончательно отказала в правах.
	ErrForbidden = errors.New("нет прав на операцию")
)

// IsGone сообщает, что ресурс окончательно исчез.
func IsGone(err error) bool {
	return errors.Is(err, ErrGone)
}

// IsPermanent сообщает, что повторять операцию бессмысленно.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrGone) || errors.Is(err, ErrForbidden)
}
