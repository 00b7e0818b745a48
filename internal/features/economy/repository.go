// Package economy — repository.go выполняет все операции с таблицами accounts и transactions.
// Все денежные операции выполняются в транзакциях БД для целостности данных.
package economy

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/shop-bot/internal/common"
)

// Repository предоставляет методы для работы с аккаунтами и журналом транзакций.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий экономики.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetOrCreate возвращает аккаунт участника, создавая его при первом обращении.
func (r *Repository) GetOrCreate(ctx context.Context, guildID, userID int64) (*Account, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (guild_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (guild_id, user_id) DO NOTHING
	`, guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания аккаунта: %w", err)
	}

	var a Account
	err = r.db.QueryRow(ctx, `
		SELECT guild_id, user_id, balance, message_count, reaction_count,
		       real_boost_count, fake_boost_count, created_at, updated_at
		FROM accounts
		WHERE guild_id = $1 AND user_id = $2
	`, guildID, userID).Scan(
		&a.GuildID, &a.UserID, &a.Balance, &a.MessageCount, &a.ReactionCount,
		&a.RealBoostCount, &a.FakeBoostCount, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аккаунта: %w", err)
	}
	return &a, nil
}

// ApplyAccrual атомарно записывает результат одного события активности:
// новый остаток счётчика и, если начисление случилось, дельту баланса
// с записью в журнал. Либо применяется всё, либо ничего.
func (r *Repository) ApplyAccrual(ctx context.Context, guildID, userID int64, counter CounterKind, newCount int, grant int64, txType, item string) error {
	var counterSQL string
	switch counter {
	case CounterMessages:
		counterSQL = "message_count"
	case CounterReactions:
		counterSQL = "reaction_count"
	default:
		return fmt.Errorf("неизвестный счётчик: %s", counter)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var balanceAfter int64
	err = tx.QueryRow(ctx, fmt.Sprintf(`
		UPDATE accounts
		SET %s = $3, balance = balance + $4, updated_at = NOW()
		WHERE guild_id = $1 AND user_id = $2
		RETURNING balance
	`, counterSQL), guildID, userID, newCount, grant).Scan(&balanceAfter)
	if err != nil {
		return fmt.Errorf("ошибка записи начисления: %w", err)
	}

	if grant > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO transactions (guild_id, user_id, tx_type, item, amount, balance_after)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, guildID, userID, txType, item, grant, balanceAfter)
		if err != nil {
			return fmt.Errorf("ошибка записи транзакции: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Credit начисляет коины на счёт участника и пишет журнал.
func (r *Repository) Credit(ctx context.Context, guildID, userID int64, amount int64, txType, item string) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var balanceAfter int64
	err = tx.QueryRow(ctx, `
		UPDATE accounts
		SET balance = balance + $3, updated_at = NOW()
		WHERE guild_id = $1 AND user_id = $2
		RETURNING balance
	`, guildID, userID, amount).Scan(&balanceAfter)
	if err != nil {
		return 0, fmt.Errorf("ошибка начисления: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (guild_id, user_id, tx_type, item, amount, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, guildID, userID, txType, item, amount, balanceAfter)
	if err != nil {
		return 0, fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return balanceAfter, tx.Commit(ctx)
}

// Deduct списывает коины со счёта участника.
// Проверяет под блокировкой строки, что баланс не станет отрицательным.
func (r *Repository) Deduct(ctx context.Context, guildID, userID int64, amount int64, txType, item string) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// Блокируем строку и проверяем баланс перед списанием
	var currentBalance int64
	err = tx.QueryRow(ctx, `
		SELECT balance FROM accounts WHERE guild_id = $1 AND user_id = $2 FOR UPDATE
	`, guildID, userID).Scan(&currentBalance)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения баланса: %w", err)
	}

	if currentBalance < amount {
		return 0, fmt.Errorf("%w: нужно %d, есть %d", common.ErrInsufficientBalance, amount, currentBalance)
	}

	var balanceAfter int64
	err = tx.QueryRow(ctx, `
		UPDATE accounts
		SET balance = balance - $3, updated_at = NOW()
		WHERE guild_id = $1 AND user_id = $2
		RETURNING balance
	`, guildID, userID, amount).Scan(&balanceAfter)
	if err != nil {
		return 0, fmt.Errorf("ошибка списания: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (guild_id, user_id, tx_type, item, amount, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, guildID, userID, txType, item, -amount, balanceAfter)
	if err != nil {
		return 0, fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return balanceAfter, tx.Commit(ctx)
}

// SetBalance выставляет точный баланс (админская операция).
// В журнал пишется дельта относительно старого значения.
func (r *Repository) SetBalance(ctx context.Context, guildID, userID int64, amount int64, item string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var oldBalance int64
	err = tx.QueryRow(ctx, `
		SELECT balance FROM accounts WHERE guild_id = $1 AND user_id = $2 FOR UPDATE
	`, guildID, userID).Scan(&oldBalance)
	if err != nil {
		return fmt.Errorf("ошибка получения баланса: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE accounts
		SET balance = $3, updated_at = NOW()
		WHERE guild_id = $1 AND user_id = $2
	`, guildID, userID, amount)
	if err != nil {
		return fmt.Errorf("ошибка установки баланса: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (guild_id, user_id, tx_type, item, amount, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, guildID, userID, TxTypeAdminSet, item, amount-oldBalance, amount)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return tx.Commit(ctx)
}

// SetFakeBoosts выставляет административную подмену количества бустов.
func (r *Repository) SetFakeBoosts(ctx context.Context, guildID, userID int64, count int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE accounts
		SET fake_boost_count = $3, updated_at = NOW()
		WHERE guild_id = $1 AND user_id = $2
	`, guildID, userID, count)
	if err != nil {
		return fmt.Errorf("ошибка установки fake-бустов: %w", err)
	}
	return nil
}

// SetRealBoostCount записывает реальное количество бустов участника.
// Участника может ещё не быть локально — тогда строка создаётся.
// Единственный вызывающий — цикл синхронизации бустов.
func (r *Repository) SetRealBoostCount(ctx context.Context, guildID, userID int64, count int) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (guild_id, user_id, real_boost_count)
		VALUES ($1, $2, $3)
		ON CONFLICT (guild_id, user_id) DO UPDATE
		SET real_boost_count = EXCLUDED.real_boost_count, updated_at = NOW()
	`, guildID, userID, count)
	if err != nil {
		return fmt.Errorf("ошибка записи real-бустов: %w", err)
	}
	return nil
}

// RealBoostCounts возвращает всех участников сервера с real_boost_count > 0.
// Участники с нулём в карту не попадают: для диффа «нет в карте» == 0.
func (r *Repository) RealBoostCounts(ctx context.Context, guildID int64) (map[int64]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, real_boost_count
		FROM accounts
		WHERE guild_id = $1 AND real_boost_count > 0
	`, guildID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения бустов: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var userID int64
		var count int
		if err := rows.Scan(&userID, &count); err != nil {
			return nil, fmt.Errorf("ошибка сканирования бустов: %w", err)
		}
		counts[userID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return counts, nil
}

// TopBalances возвращает топ-N аккаунтов сервера по балансу.
// При равных балансах порядок стабилен: user_id по возрастанию.
func (r *Repository) TopBalances(ctx context.Context, guildID int64, limit int) ([]*Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT guild_id, user_id, balance, message_count, reaction_count,
		       real_boost_count, fake_boost_count, created_at, updated_at
		FROM accounts
		WHERE guild_id = $1
		ORDER BY balance DESC, user_id ASC
		LIMIT $2
	`, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса лидерборда: %w", err)
	}
	defer rows.Close()

	var accounts []*Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(
			&a.GuildID, &a.UserID, &a.Balance, &a.MessageCount, &a.ReactionCount,
			&a.RealBoostCount, &a.FakeBoostCount, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования аккаунта: %w", err)
		}
		accounts = append(accounts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return accounts, nil
}

// Transactions возвращает последние N записей журнала участника.
func (r *Repository) Transactions(ctx context.Context, guildID, userID int64, limit int) ([]*Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, guild_id, user_id, tx_type, item, amount, balance_after, created_at
		FROM transactions
		WHERE guild_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, guildID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	defer rows.Close()

	var txs []*Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(
			&t.ID, &t.GuildID, &t.UserID, &t.TxType, &t.Item,
			&t.Amount, &t.BalanceAfter, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		txs = append(txs, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return txs, nil
}
