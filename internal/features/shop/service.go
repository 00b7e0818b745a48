// service.go — бизнес-логика магазина ролей.
package shop

import (
	"context"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/shop-bot/internal/common"
	"serotonyl.ru/shop-bot/internal/config"
	"serotonyl.ru/shop-bot/internal/features/economy"
)

// listingStore — операции с витриной.
type listingStore interface {
	Add(ctx context.Context, role *ShopRole) error
	Remove(ctx context.Context, guildID, roleID int64) error
	Get(ctx context.Context, guildID, roleID int64) (*ShopRole, error)
	List(ctx context.Context, guildID int64) ([]*ShopRole, error)
}

// ledger — денежные операции экономики.
type ledger interface {
	Credit(ctx context.Context, guildID, userID int64, amount int64, txType, item string) (int64, error)
	Deduct(ctx context.Context, guildID, userID int64, amount int64, txType, item string) (int64, error)
}

// roleClient — нужная магазину часть адаптера платформы.
type roleClient interface {
	HasRole(ctx context.Context, guildID, userID, roleID int64) (bool, error)
	GrantRole(ctx context.Context, guildID, userID, roleID int64) error
	RevokeRole(ctx context.Context, guildID, userID, roleID int64) error
}

// Service управляет магазином ролей.
type Service struct {
	listings listingStore
	ledger   ledger
	client   roleClient
	guilds   *config.GuildStore
}

// NewService создаёт новый сервис магазина.
func NewService(listings listingStore, ledger ledger, client roleClient, guilds *config.GuildStore) *Service {
	return &Service{listings: listings, ledger: ledger, client: client, guilds: guilds}
}

// List возвращает витрину сервера.
func (s *Service) List(ctx context.Context, guildID int64) ([]*ShopRole, error) {
	return s.listings.List(ctx, guildID)
}

// AddRole выставляет роль на витрину (админская операция).
func (s *Service) AddRole(ctx context.Context, guildID, roleID int64, price int64) error {
	if price <= 0 {
		return common.ErrInvalidPrice
	}
	return s.listings.Add(ctx, &ShopRole{GuildID: guildID, RoleID: roleID, Price: price})
}

// RemoveRole снимает роль с витрины (админская операция).
func (s *Service) RemoveRole(ctx context.Context, guildID, roleID int64) error {
	return s.listings.Remove(ctx, guildID, roleID)
}

// Purchase покупает роль с витрины: списывает цену и выдаёт роль.
// Если платформа не смогла выдать роль, списанное возвращается.
func (s *Service) Purchase(ctx context.Context, guildID, userID, roleID int64) error {
	role, err := s.listings.Get(ctx, guildID, roleID)
	if err != nil {
		return err
	}

	has, err := s.client.HasRole(ctx, guildID, userID, roleID)
	if err != nil {
		return fmt.Errorf("не удалось проверить роль: %w", err)
	}
	if has {
		return common.ErrRoleAlreadyOwned
	}

	item := fmt.Sprintf("Покупка роли %d", roleID)
	if _, err := s.ledger.Deduct(ctx, guildID, userID, role.Price, economy.TxTypeRolePurchase, item); err != nil {
		return err
	}

	if err := s.client.GrantRole(ctx, guildID, userID, roleID); err != nil {
		// Роль не выдана — возвращаем деньги.
		if _, refundErr := s.ledger.Credit(ctx, guildID, userID, role.Price, economy.TxTypeRefund, item); refundErr != nil {
			log.WithError(refundErr).WithFields(log.Fields{
				"guild_id": guildID,
				"user_id":  userID,
				"role_id":  roleID,
				"amount":   role.Price,
			}).Error("Возврат после неудачной выдачи роли не прошёл")
		}
		return fmt.Errorf("не удалось выдать роль: %w", err)
	}

	log.WithFields(log.Fields{
		"guild_id": guildID,
		"user_id":  userID,
		"role_id":  roleID,
		"price":    role.Price,
	}).Info("Роль куплена")
	return nil
}

// Sell продаёт роль обратно: снимает роль и возвращает долю цены.
func (s *Service) Sell(ctx context.Context, guildID, userID, roleID int64) (int64, error) {
	role, err := s.listings.Get(ctx, guildID, roleID)
	if err != nil {
		return 0, err
	}

	has, err := s.client.HasRole(ctx, guildID, userID, roleID)
	if err != nil {
		return 0, fmt.Errorf("не удалось проверить роль: %w", err)
	}
	if !has {
		return 0, common.ErrRoleNotOwned
	}

	if err := s.client.RevokeRole(ctx, guildID, userID, roleID); err != nil {
		return 0, fmt.Errorf("не удалось снять роль: %w", err)
	}

	refund := s.refundFor(guildID, role.Price)
	if refund > 0 {
		item := fmt.Sprintf("Продажа роли %d", roleID)
		if _, err := s.ledger.Credit(ctx, guildID, userID, refund, economy.TxTypeRoleSale, item); err != nil {
			return 0, fmt.Errorf("роль снята, но возврат не прошёл: %w", err)
		}
	}

	log.WithFields(log.Fields{
		"guild_id": guildID,
		"user_id":  userID,
		"role_id":  roleID,
		"refund":   refund,
	}).Info("Роль продана")
	return refund, nil
}

// refundFor — сумма возврата: доля цены, округлённая вниз.
func (s *Service) refundFor(guildID int64, price int64) int64 {
	pct := 0.65
	if g := s.guilds.Guild(guildID); g != nil {
		pct = g.SellRefundPercent
	}
	return int64(math.Floor(float64(price) * pct))
}
