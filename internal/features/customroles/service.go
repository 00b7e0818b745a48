// service.go — бизнес-логика персональных ролей: создание, редактирование, удаление.
package customroles

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/shop-bot/internal/common"
	"serotonyl.ru/shop-bot/internal/config"
	"serotonyl.ru/shop-bot/internal/features/economy"
	"serotonyl.ru/shop-bot/internal/features/shop"
	"serotonyl.ru/shop-bot/internal/platform"
)

// roleStore — операции с записями персональных ролей.
type roleStore interface {
	GetByUser(ctx context.Context, guildID, userID int64) (*CustomRole, error)
	ListByGuild(ctx context.Context, guildID int64) ([]*CustomRole, error)
	Insert(ctx context.Context, role *CustomRole) error
	Update(ctx context.Context, role *CustomRole) error
	Delete(ctx context.Context, guildID, userID int64) error
}

// ledger — денежные операции экономики.
type ledger interface {
	Credit(ctx context.Context, guildID, userID int64, amount int64, txType, item string) (int64, error)
	Deduct(ctx context.Context, guildID, userID int64, amount int64, txType, item string) (int64, error)
}

// boostSource — действующее количество бустов участника.
type boostSource interface {
	EffectiveBoosts(ctx context.Context, guildID, userID int64) (int, error)
}

// catalog — витрина магазина: созданная за деньги роль регистрируется
// в ней, чтобы владелец мог продать её обратно.
type catalog interface {
	Add(ctx context.Context, role *shop.ShopRole) error
	Remove(ctx context.Context, guildID, roleID int64) error
}

// roleAdmin — нужная сервису часть адаптера платформы.
type roleAdmin interface {
	CreateRole(ctx context.Context, guildID int64, spec platform.RoleSpec) (int64, error)
	EditRole(ctx context.Context, guildID, roleID int64, spec platform.RoleSpec) error
	DeleteRole(ctx context.Context, guildID, roleID int64) error
	GrantRole(ctx context.Context, guildID, userID, roleID int64) error
}

// Service управляет персональными ролями.
type Service struct {
	store   roleStore
	ledger  ledger
	boosts  boostSource
	client  roleAdmin
	catalog catalog
	guilds  *config.GuildStore
}

// NewService создаёт новый сервис персональных ролей.
func NewService(store roleStore, ledger ledger, boosts boostSource, client roleAdmin, cat catalog, guilds *config.GuildStore) *Service {
	return &Service{store: store, ledger: ledger, boosts: boosts, client: client, catalog: cat, guilds: guilds}
}

// Get возвращает персональную роль участника.
func (s *Service) Get(ctx context.Context, guildID, userID int64) (*CustomRole, error) {
	return s.store.GetByUser(ctx, guildID, userID)
}

// Mint создаёт персональную роль участнику.
//
// Два пути: бустерский (достаточно бустов, цена из правил бустеров) и
// обычный (создание включено для всех, своя цена, только сплошной цвет).
// Деньги списываются до вызовов платформы; любая неудача после списания
// возвращает их обратно.
func (s *Service) Mint(ctx context.Context, guildID, userID int64, spec platform.RoleSpec) (*CustomRole, error) {
	if !validStyle(spec.Style) {
		return nil, common.ErrInvalidRoleStyle
	}

	g := s.guilds.Guild(guildID)
	if g == nil {
		return nil, common.ErrCreationDisabled
	}

	if _, err := s.store.GetByUser(ctx, guildID, userID); err == nil {
		return nil, common.ErrCustomRoleExists
	} else if !isNotFound(err) {
		return nil, err
	}

	boosts, err := s.boosts.EffectiveBoosts(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}

	var price int64
	boostered := boosts >= g.CustomRole.MinBoostCount && g.CustomRole.MinBoostCount > 0
	switch {
	case boostered:
		price = g.CustomRole.Price
	case g.RegularCreation.Enabled:
		// Градиенты и переливы — привилегия бустеров.
		if spec.Style != platform.StyleSolid {
			return nil, common.ErrNotEnoughBoosts
		}
		price = g.RegularCreation.Price
	default:
		return nil, common.ErrNotEnoughBoosts
	}

	item := fmt.Sprintf("Создание роли «%s»", spec.Name)
	if price > 0 {
		if _, err := s.ledger.Deduct(ctx, guildID, userID, price, economy.TxTypeRoleCreate, item); err != nil {
			return nil, err
		}
	}

	roleID, err := s.client.CreateRole(ctx, guildID, spec)
	if err != nil {
		s.refund(ctx, guildID, userID, price, item)
		return nil, fmt.Errorf("не удалось создать роль на платформе: %w", err)
	}

	if err := s.client.GrantRole(ctx, guildID, userID, roleID); err != nil {
		s.cleanupRole(ctx, guildID, roleID)
		s.refund(ctx, guildID, userID, price, item)
		return nil, fmt.Errorf("не удалось выдать роль: %w", err)
	}

	role := &CustomRole{
		GuildID:        guildID,
		UserID:         userID,
		RoleID:         roleID,
		Name:           spec.Name,
		Style:          spec.Style,
		PrimaryColor:   spec.PrimaryColor,
		SecondaryColor: spec.SecondaryColor,
		Boostered:      boostered,
	}
	if err := s.store.Insert(ctx, role); err != nil {
		s.cleanupRole(ctx, guildID, roleID)
		s.refund(ctx, guildID, userID, price, item)
		return nil, err
	}

	// Платная роль регистрируется на витрине: владелец сможет продать её
	// обратно по стандартному пути магазина.
	if price > 0 {
		creator, creationPrice := userID, price
		listing := &shop.ShopRole{
			GuildID:       guildID,
			RoleID:        roleID,
			Price:         price,
			CreatorID:     &creator,
			CreationPrice: &creationPrice,
		}
		if err := s.catalog.Add(ctx, listing); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"guild_id": guildID,
				"role_id":  roleID,
			}).Warn("Созданная роль не попала на витрину")
		}
	}

	log.WithFields(log.Fields{
		"guild_id":  guildID,
		"user_id":   userID,
		"role_id":   roleID,
		"boostered": boostered,
		"price":     price,
	}).Info("Персональная роль создана")
	return role, nil
}

// Edit меняет внешний вид персональной роли участника.
func (s *Service) Edit(ctx context.Context, guildID, userID int64, spec platform.RoleSpec) error {
	if !validStyle(spec.Style) {
		return common.ErrInvalidRoleStyle
	}

	role, err := s.store.GetByUser(ctx, guildID, userID)
	if err != nil {
		return err
	}
	if !role.Boostered && spec.Style != platform.StyleSolid {
		return common.ErrNotEnoughBoosts
	}

	if err := s.client.EditRole(ctx, guildID, role.RoleID, spec); err != nil {
		return fmt.Errorf("не удалось изменить роль на платформе: %w", err)
	}

	role.Name = spec.Name
	role.Style = spec.Style
	role.PrimaryColor = spec.PrimaryColor
	role.SecondaryColor = spec.SecondaryColor
	return s.store.Update(ctx, role)
}

// Delete удаляет персональную роль по просьбе владельца. Без возврата денег.
func (s *Service) Delete(ctx context.Context, guildID, userID int64) error {
	role, err := s.store.GetByUser(ctx, guildID, userID)
	if err != nil {
		return err
	}

	if err := s.client.DeleteRole(ctx, guildID, role.RoleID); err != nil {
		if !platform.IsPermanent(err) {
			return fmt.Errorf("не удалось удалить роль на платформе: %w", err)
		}
		if !platform.IsGone(err) {
			log.WithError(err).WithFields(log.Fields{
				"guild_id": guildID,
				"role_id":  role.RoleID,
			}).Warn("Платформа отказала в удалении роли, запись снята локально")
		}
	}

	if err := s.catalog.Remove(ctx, guildID, role.RoleID); err != nil && !errors.Is(err, common.ErrRoleNotInShop) {
		log.WithError(err).WithFields(log.Fields{
			"guild_id": guildID,
			"role_id":  role.RoleID,
		}).Warn("Роль не снята с витрины")
	}
	return s.store.Delete(ctx, guildID, userID)
}

// refund возвращает списанное при неудачном создании.
func (s *Service) refund(ctx context.Context, guildID, userID int64, price int64, item string) {
	if price <= 0 {
		return
	}
	if _, err := s.ledger.Credit(ctx, guildID, userID, price, economy.TxTypeRefund, item); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"guild_id": guildID,
			"user_id":  userID,
			"amount":   price,
		}).Error("Возврат после неудачного создания роли не прошёл")
	}
}

// cleanupRole убирает осиротевшую роль с платформы.
func (s *Service) cleanupRole(ctx context.Context, guildID, roleID int64) {
	if err := s.client.DeleteRole(ctx, guildID, roleID); err != nil && !platform.IsGone(err) {
		log.WithError(err).WithFields(log.Fields{
			"guild_id": guildID,
			"role_id":  roleID,
		}).Error("Осиротевшая роль не удалена")
	}
}

func validStyle(style platform.RoleStyle) bool {
	switch style {
	case platform.StyleSolid, platform.StyleGradient, platform.StyleHolographic:
		return true
	}
	return false
}

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrCustomRoleNotFound)
}
