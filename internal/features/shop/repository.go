// repository.go выполняет операции с таблицей shop_roles.
package shop

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/shop-bot/internal/common"
)

// Repository предоставляет методы для работы с витриной магазина.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий магазина.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Add добавляет роль на витрину или обновляет её цену.
func (r *Repository) Add(ctx context.Context, role *ShopRole) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO shop_roles (guild_id, role_id, price, creator_id, creation_price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (guild_id, role_id) DO UPDATE SET price = EXCLUDED.price
	`, role.GuildID, role.RoleID, role.Price, role.CreatorID, role.CreationPrice)
	if err != nil {
		return fmt.Errorf("ошибка добавления роли в магазин: %w", err)
	}
	return nil
}

// Remove снимает роль с витрины.
func (r *Repository) Remove(ctx context.Context, guildID, roleID int64) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM shop_roles WHERE guild_id = $1 AND role_id = $2
	`, guildID, roleID)
	if err != nil {
		return fmt.Errorf("ошибка удаления роли из магазина: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrRoleNotInShop
	}
	return nil
}

// Get возвращает роль с витрины.
func (r *Repository) Get(ctx context.Context, guildID, roleID int64) (*ShopRole, error) {
	var role ShopRole
	err := r.db.QueryRow(ctx, `
		SELECT guild_id, role_id, price, creator_id, creation_price, created_at
		FROM shop_roles
		WHERE guild_id = $1 AND role_id = $2
	`, guildID, roleID).Scan(
		&role.GuildID, &role.RoleID, &role.Price,
		&role.CreatorID, &role.CreationPrice, &role.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrRoleNotInShop
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения роли магазина: %w", err)
	}
	return &role, nil
}

// List возвращает все роли витрины сервера, от дешёвых к дорогим.
func (r *Repository) List(ctx context.Context, guildID int64) ([]*ShopRole, error) {
	rows, err := r.db.Query(ctx, `
		SELECT guild_id, role_id, price, creator_id, creation_price, created_at
		FROM shop_roles
		WHERE guild_id = $1
		ORDER BY price ASC, role_id ASC
	`, guildID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса витрины: %w", err)
	}
	defer rows.Close()

	var roles []*ShopRole
	for rows.Next() {
		var role ShopRole
		if err := rows.Scan(
			&role.GuildID, &role.RoleID, &role.Price,
			&role.CreatorID, &role.CreationPrice, &role.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования роли: %w", err)
		}
		roles = append(roles, &role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return roles, nil
}
