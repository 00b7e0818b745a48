// Package platform определяет контракт между движком экономики и адаптером
// чат-платформы. Сам адаптер (SDK, доставка событий, рендер UI) живёт в
// отдельной сборке; движок видит только этот интерфейс.
package platform

import "context"

// RosterEntry — один участник из внешнего списка бустеров сервера.
type RosterEntry struct {
	UserID int64
	// Количество бустов участника (у одного участника их может быть несколько).
	Count int
}

// RoleStyle — стиль отображения персональной роли.
type RoleStyle string

const (
	StyleSolid       RoleStyle = "solid"
	StyleGradient    RoleStyle = "gradient"
	StyleHolographic RoleStyle = "holographic"
)

// RoleSpec — параметры создаваемой или редактируемой роли на платформе.
type RoleSpec struct {
	Name           string
	Style          RoleStyle
	PrimaryColor   string
	SecondaryColor string
}

// RolePosition — позиция роли в иерархии сервера (больше = выше).
type RolePosition struct {
	RoleID   int64
	Position int
}

// Adapter — все вызовы движка к платформе.
// Каждый метод обязан уважать ctx; движок оборачивает адаптер в WithTimeout,
// поэтому зависший вызов будет отменён и засчитан как неудавшийся.
type Adapter interface {
	// Events отдаёт канал входящих событий. Канал закрывается при остановке адаптера.
	Events() <-chan Event

	// Ready сообщает, прогрет ли кеш участников сервера.
	// Фоновые задачи не трогают сервер, пока адаптер не готов.
	Ready(guildID int64) bool

	// FetchBoosterRoster возвращает актуальный список бустеров сервера.
	FetchBoosterRoster(ctx context.Context, guildID int64) ([]RosterEntry, error)

	// IsMember сообщает, состоит ли участник на сервере.
	IsMember(ctx context.Context, guildID, userID int64) (bool, error)

	// HasRole сообщает, назначена ли участнику роль.
	HasRole(ctx context.Context, guildID, userID, roleID int64) (bool, error)

	// CreateRole создаёт ресурс роли на платформе и возвращает её ID.
	CreateRole(ctx context.Context, guildID int64, spec RoleSpec) (int64, error)

	// EditRole меняет имя/стиль существующей роли.
	EditRole(ctx context.Context, guildID, roleID int64, spec RoleSpec) error

	// DeleteRole удаляет ресурс роли. Если роль уже удалена — ErrGone.
	DeleteRole(ctx context.Context, guildID, roleID int64) error

	// GrantRole назначает роль участнику.
	GrantRole(ctx context.Context, guildID, userID, roleID int64) error

	// RevokeRole снимает роль с участника.
	RevokeRole(ctx context.Context, guildID, userID, roleID int64) error

	// OwnTopPosition — позиция высшей роли самого бота; персональные роли
	// выстраиваются непосредственно под ней.
	OwnTopPosition(ctx context.Context, guildID int64) (int, error)

	// RolePositions возвращает текущие позиции перечисленных ролей.
	// Роли, которых больше нет на платформе, в ответ не попадают.
	RolePositions(ctx context.Context, guildID int64, roleIDs []int64) ([]RolePosition, error)

	// ReorderRoles применяет новые позиции одним вызовом.
	ReorderRoles(ctx context.Context, guildID int64, positions []RolePosition) error

	// SendDirectNotice отправляет участнику личное уведомление.
	SendDirectNotice(ctx context.Context, userID int64, text string) error

	// EditMessage редактирует сообщение в канале. Если сообщение удалено — ErrGone.
	EditMessage(ctx context.Context, channelID, messageID int64, content string) error

	// FindOwnMessage ищет среди последних limit сообщений канала сообщение,
	// отправленное самим ботом. Если не нашлось — ErrGone.
	FindOwnMessage(ctx context.Context, channelID int64, limit int) (int64, error)

	// SendMessage публикует новое сообщение и возвращает его ID.
	SendMessage(ctx context.Context, channelID int64, content string) (int64, error)
}

// Factory собирает адаптер конкретной платформы. Сборка адаптера
// регистрирует свою фабрику в init(); ядро без адаптера не запускается.
var Factory func() (Adapter, error)
