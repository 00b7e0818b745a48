// repository.go выполняет операции с таблицей custom_roles.
package customroles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/shop-bot/internal/common"
)

// Repository предоставляет методы для работы с персональными ролями.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий персональных ролей.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetByUser возвращает персональную роль участника.
func (r *Repository) GetByUser(ctx context.Context, guildID, userID int64) (*CustomRole, error) {
	var role CustomRole
	err := r.db.QueryRow(ctx, `
		SELECT guild_id, user_id, role_id, name, style,
		       primary_color, secondary_color, boostered, created_at, updated_at
		FROM custom_roles
		WHERE guild_id = $1 AND user_id = $2
	`, guildID, userID).Scan(
		&role.GuildID, &role.UserID, &role.RoleID, &role.Name, &role.Style,
		&role.PrimaryColor, &role.SecondaryColor, &role.Boostered,
		&role.CreatedAt, &role.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrCustomRoleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения персональной роли: %w", err)
	}
	return &role, nil
}

// ListByGuild возвращает все персональные роли сервера, от старых к новым.
// Порядок создания важен: при пересортировке позиций он сохраняется.
func (r *Repository) ListByGuild(ctx context.Context, guildID int64) ([]*CustomRole, error) {
	rows, err := r.db.Query(ctx, `
		SELECT guild_id, user_id, role_id, name, style,
		       primary_color, secondary_color, boostered, created_at, updated_at
		FROM custom_roles
		WHERE guild_id = $1
		ORDER BY created_at ASC
	`, guildID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса персональных ролей: %w", err)
	}
	defer rows.Close()

	var roles []*CustomRole
	for rows.Next() {
		var role CustomRole
		if err := rows.Scan(
			&role.GuildID, &role.UserID, &role.RoleID, &role.Name, &role.Style,
			&role.PrimaryColor, &role.SecondaryColor, &role.Boostered,
			&role.CreatedAt, &role.UpdatedAt,
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

// Insert записывает новую персональную роль. Нарушение лимита
// "одна роль на участника" ловится по уникальному ключу.
func (r *Repository) Insert(ctx context.Context, role *CustomRole) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO custom_roles (guild_id, user_id, role_id, name, style,
		                          primary_color, secondary_color, boostered)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (guild_id, user_id) DO NOTHING
	`, role.GuildID, role.UserID, role.RoleID, role.Name, role.Style,
		role.PrimaryColor, role.SecondaryColor, role.Boostered)
	if err != nil {
		return fmt.Errorf("ошибка записи персональной роли: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrCustomRoleExists
	}
	return nil
}

// Update обновляет внешний вид персональной роли.
func (r *Repository) Update(ctx context.Context, role *CustomRole) error {
	_, err := r.db.Exec(ctx, `
		UPDATE custom_roles
		SET name = $3, style = $4, primary_color = $5, secondary_color = $6, updated_at = NOW()
		WHERE guild_id = $1 AND user_id = $2
	`, role.GuildID, role.UserID, role.Name, role.Style, role.PrimaryColor, role.SecondaryColor)
	if err != nil {
		return fmt.Errorf("ошибка обновления персональной роли: %w", err)
	}
	return nil
}

// Delete удаляет запись о персональной роли.
func (r *Repository) Delete(ctx context.Context, guildID, userID int64) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM custom_roles WHERE guild_id = $1 AND user_id = $2
	`, guildID, userID)
	if err != nil {
		return fmt.Errorf("ошибка удаления персональной роли: %w", err)
	}
	return nil
}
