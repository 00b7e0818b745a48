package platform

import (
	"context"
	"time"
)

// WithTimeout оборачивает адаптер так, что каждый исходящий вызов получает
// ограниченный по времени контекст. Ни одна операция ядра не блокируется
// бесконечно: зависший вызов отменяется и считается неудавшимся,
// повтор — на следующем плановом проходе.
func WithTimeout(a Adapter, d time.Duration) Adapter {
	return &timeoutAdapter{next: a, timeout: d}
}

type timeoutAdapter struct {
	next    Adapter
	timeout time.Duration
}

func (t *timeoutAdapter) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, t.timeout)
}

func (t *timeoutAdapter) Events() <-chan Event { return t.next.Events() }

func (t *timeoutAdapter) Ready(guildID int64) bool { return t.next.Ready(guildID) }

func (t *timeoutAdapter) FetchBoosterRoster(ctx context.Context, guildID int64) ([]RosterEntry, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.FetchBoosterRoster(ctx, guildID)
}

func (t *timeoutAdapter) IsMember(ctx context.Context, guildID, userID int64) (bool, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.IsMember(ctx, guildID, userID)
}

func (t *timeoutAdapter) HasRole(ctx context.Context, guildID, userID, roleID int64) (bool, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.HasRole(ctx, guildID, userID, roleID)
}

func (t *timeoutAdapter) CreateRole(ctx context.Context, guildID int64, spec RoleSpec) (int64, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.CreateRole(ctx, guildID, spec)
}

func (t *timeoutAdapter) EditRole(ctx context.Context, guildID, roleID int64, spec RoleSpec) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.EditRole(ctx, guildID, roleID, spec)
}

func (t *timeoutAdapter) DeleteRole(ctx context.Context, guildID, roleID int64) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.DeleteRole(ctx, guildID, roleID)
}

func (t *timeoutAdapter) GrantRole(ctx context.Context, guildID, userID, roleID int64) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.GrantRole(ctx, guildID, userID, roleID)
}

func (t *timeoutAdapter) RevokeRole(ctx context.Context, guildID, userID, roleID int64) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.RevokeRole(ctx, guildID, userID, roleID)
}

func (t *timeoutAdapter) OwnTopPosition(ctx context.Context, guildID int64) (int, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.OwnTopPosition(ctx, guildID)
}

func (t *timeoutAdapter) RolePositions(ctx context.Context, guildID int64, roleIDs []int64) ([]RolePosition, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.RolePositions(ctx, guildID, roleIDs)
}

func (t *timeoutAdapter) ReorderRoles(ctx context.Context, guildID int64, positions []RolePosition) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.ReorderRoles(ctx, guildID, positions)
}

func (t *timeoutAdapter) SendDirectNotice(ctx context.Context, userID int64, text string) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.SendDirectNotice(ctx, userID, text)
}

func (t *timeoutAdapter) EditMessage(ctx context.Context, channelID, messageID int64, content string) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.EditMessage(ctx, channelID, messageID, content)
}

func (t *timeoutAdapter) FindOwnMessage(ctx context.Context, channelID int64, limit int) (int64, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.FindOwnMessage(ctx, channelID, limit)
}

func (t *timeoutAdapter) SendMessage(ctx context.Context, channelID int64, content string) (int64, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.SendMessage(ctx, channelID, content)
}
