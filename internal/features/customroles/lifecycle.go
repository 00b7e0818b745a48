// lifecycle.go — жизненный цикл персональных ролей: периодическая проверка
// права владения, отзыв с уведомлением и поддержание позиций в иерархии.
package customroles

import (
	"context"
	"errors"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"serotonyl.ru/shop-bot/internal/common"
	"serotonyl.ru/shop-bot/internal/config"
	"serotonyl.ru/shop-bot/internal/platform"
)

// lifecycleClient — нужная циклу часть адаптера платформы.
type lifecycleClient interface {
	Ready(guildID int64) bool
	IsMember(ctx context.Context, guildID, userID int64) (bool, error)
	DeleteRole(ctx context.Context, guildID, roleID int64) error
	SendDirectNotice(ctx context.Context, userID int64, text string) error
	OwnTopPosition(ctx context.Context, guildID int64) (int, error)
	RolePositions(ctx context.Context, guildID int64, roleIDs []int64) ([]platform.RolePosition, error)
	ReorderRoles(ctx context.Context, guildID int64, positions []platform.RolePosition) error
}

// Manager выполняет периодическую проверку персональных ролей.
type Manager struct {
	store   roleStore
	boosts  boostSource
	client  lifecycleClient
	catalog catalog
	guilds  *config.GuildStore
}

// NewManager создаёт менеджер жизненного цикла.
func NewManager(store roleStore, boosts boostSource, client lifecycleClient, cat catalog, guilds *config.GuildStore) *Manager {
	return &Manager{store: store, boosts: boosts, client: client, catalog: cat, guilds: guilds}
}

// Sweep проверяет все настроенные серверы. Ошибка одного сервера
// логируется и не мешает остальным.
func (m *Manager) Sweep(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, guildID := range m.guilds.GuildIDs() {
		if !m.client.Ready(guildID) {
			continue
		}
		guildID := guildID
		g.Go(func() error {
			if err := m.SweepGuild(ctx, guildID); err != nil {
				log.WithError(err).WithField("guild_id", guildID).Error("Проверка персональных ролей не удалась")
			}
			return nil
		})
	}
	_ = g.Wait()
}

// SweepGuild проверяет один сервер: отзывает роли у потерявших право
// и выравнивает позиции оставшихся.
func (m *Manager) SweepGuild(ctx context.Context, guildID int64) error {
	g := m.guilds.Guild(guildID)
	if g == nil {
		return nil
	}

	roles, err := m.store.ListByGuild(ctx, guildID)
	if err != nil {
		return fmt.Errorf("не удалось прочитать персональные роли: %w", err)
	}

	revoked := 0
	for _, role := range roles {
		ok, err := m.checkRole(ctx, g, role)
		if err != nil {
			// Не знаем статус — не трогаем; перепроверим на следующем проходе.
			log.WithError(err).WithFields(log.Fields{
				"guild_id": guildID,
				"user_id":  role.UserID,
			}).Warn("Статус владельца роли не определён")
			continue
		}
		if !ok {
			revoked++
		}
	}

	if revoked > 0 {
		log.WithFields(log.Fields{
			"guild_id": guildID,
			"revoked":  revoked,
		}).Info("Персональные роли отозваны")
		// Список изменился, позиции считаем по свежему
		roles, err = m.store.ListByGuild(ctx, guildID)
		if err != nil {
			return fmt.Errorf("не удалось перечитать персональные роли: %w", err)
		}
	}

	return m.maintainPositions(ctx, guildID, g, roles)
}

// CheckMember — точечная проверка одного участника. Вызывается по событию
// платформы о потере буста, чтобы не ждать планового прохода.
func (m *Manager) CheckMember(ctx context.Context, guildID, userID int64) error {
	g := m.guilds.Guild(guildID)
	if g == nil {
		return nil
	}

	role, err := m.store.GetByUser(ctx, guildID, userID)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}

	_, err = m.checkRole(ctx, g, role)
	return err
}

// checkRole проверяет право владения одной ролью и отзывает её при потере.
// Возвращает false, если роль была отозвана.
func (m *Manager) checkRole(ctx context.Context, g *config.GuildConfig, role *CustomRole) (bool, error) {
	member, err := m.client.IsMember(ctx, role.GuildID, role.UserID)
	if err != nil {
		return true, fmt.Errorf("не удалось проверить участие: %w", err)
	}
	if !member {
		// Ушедшему уведомление не отправляется: его тут больше нет.
		return false, m.revoke(ctx, role, "")
	}

	// Право обычных (небустерских) ролей от бустов не зависит.
	if !role.Boostered {
		return true, nil
	}

	boosts, err := m.boosts.EffectiveBoosts(ctx, role.GuildID, role.UserID)
	if err != nil {
		return true, fmt.Errorf("не удалось получить бусты: %w", err)
	}
	if boosts >= g.CustomRole.MinBoostCount {
		return true, nil
	}

	min := g.CustomRole.MinBoostCount
	notice := fmt.Sprintf("Ваша персональная роль «%s» снята: требуется минимум %d %s.", role.Name, min, common.PluralizeBoosts(min))
	return false, m.revoke(ctx, role, notice)
}

// revoke отзывает роль: уведомление (если есть текст) — лучшим усилием,
// затем удаление роли на платформе и записи в базе. Если платформа
// не ответила, запись остаётся и отзыв повторится на следующем проходе.
func (m *Manager) revoke(ctx context.Context, role *CustomRole, notice string) error {
	if notice != "" {
		if err := m.client.SendDirectNotice(ctx, role.UserID, notice); err != nil {
			// Закрытые личные сообщения не блокируют отзыв.
			log.WithError(err).WithFields(log.Fields{
				"guild_id": role.GuildID,
				"user_id":  role.UserID,
			}).Debug("Уведомление об отзыве не доставлено")
		}
	}

	if err := m.client.DeleteRole(ctx, role.GuildID, role.RoleID); err != nil {
		if !platform.IsPermanent(err) {
			return fmt.Errorf("не удалось удалить роль %d: %w", role.RoleID, err)
		}
		// Окончательный отказ платформы: повторять бессмысленно,
		// локальная запись всё равно снимается.
		if !platform.IsGone(err) {
			log.WithError(err).WithFields(log.Fields{
				"guild_id": role.GuildID,
				"role_id":  role.RoleID,
			}).Warn("Платформа отказала в удалении роли, запись снята локально")
		}
	}

	if err := m.catalog.Remove(ctx, role.GuildID, role.RoleID); err != nil && !errors.Is(err, common.ErrRoleNotInShop) {
		log.WithError(err).WithFields(log.Fields{
			"guild_id": role.GuildID,
			"role_id":  role.RoleID,
		}).Warn("Отозванная роль не снята с витрины")
	}
	return m.store.Delete(ctx, role.GuildID, role.UserID)
}

// maintainPositions выравнивает персональные роли в иерархии: вплотную
// под высшей ролью бота, не ниже настроенного пола, с сохранением
// относительного порядка. Перестановка применяется только при расхождении.
func (m *Manager) maintainPositions(ctx context.Context, guildID int64, g *config.GuildConfig, roles []*CustomRole) error {
	if len(roles) == 0 {
		return nil
	}

	roleIDs := make([]int64, len(roles))
	for i, r := range roles {
		roleIDs[i] = r.RoleID
	}

	marker, err := m.client.OwnTopPosition(ctx, guildID)
	if err != nil {
		return fmt.Errorf("не удалось получить позицию бота: %w", err)
	}

	current, err := m.client.RolePositions(ctx, guildID, roleIDs)
	if err != nil {
		return fmt.Errorf("не удалось получить позиции ролей: %w", err)
	}

	target, changed := computeTargetPositions(current, marker, g.CustomRole.MinPosition)
	if !changed {
		return nil
	}

	if err := m.client.ReorderRoles(ctx, guildID, target); err != nil {
		return fmt.Errorf("не удалось переставить роли: %w", err)
	}

	log.WithFields(log.Fields{
		"guild_id": guildID,
		"moved":    len(target),
	}).Debug("Позиции персональных ролей выровнены")
	return nil
}

// computeTargetPositions строит целевые позиции: непрерывный блок сразу
// под marker, не опускаясь ниже floor. Относительный порядок ролей
// (по текущим позициям, сверху вниз) сохраняется.
func computeTargetPositions(current []platform.RolePosition, marker, floor int) ([]platform.RolePosition, bool) {
	ordered := make([]platform.RolePosition, len(current))
	copy(ordered, current)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position > ordered[j].Position
	})

	target := make([]platform.RolePosition, len(ordered))
	changed := false
	for i, rp := range ordered {
		pos := marker - 1 - i
		if pos < floor {
			pos = floor
		}
		target[i] = platform.RolePosition{RoleID: rp.RoleID, Position: pos}
		if pos != rp.Position {
			changed = true
		}
	}
	return target, changed
}
