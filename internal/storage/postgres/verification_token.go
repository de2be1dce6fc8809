package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yanxyw/loop-api/internal/models"
	"github.com/yanxyw/loop-api/internal/storage"
)

// ReplaceVerificationToken удаляет прежний токен пользователя и сохраняет
// новый одной транзакцией: конкурентный ConsumeVerificationToken увидит либо
// старую запись, либо новую, но не промежуточное состояние.
func (s *Storage) ReplaceVerificationToken(ctx context.Context, token *models.VerificationToken) error {
	const op = "storage.postgres.ReplaceVerificationToken"

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const del = `
        DELETE FROM verification_tokens
        WHERE user_id = $1
    `

	if _, err := tx.Exec(ctx, del, token.UserID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	const ins = `
        INSERT INTO verification_tokens(token, user_id, created_at, expires_at)
        VALUES ($1, $2, $3, $4)
    `

	if _, err := tx.Exec(ctx, ins,
		token.Token,
		token.UserID,
		token.CreatedAt,
		token.ExpiresAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.UniqueViolation:
				return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
			case pgerrcode.ForeignKeyViolation:
				return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
			}
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ConsumeVerificationToken удаляет живой токен и возвращает ID владельца.
// Одиночный DELETE ... RETURNING делает использование одноразовым:
// из двух конкурентных вызовов строку получит ровно один.
func (s *Storage) ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (uuid.UUID, error) {
	const op = "storage.postgres.ConsumeVerificationToken"

	query := `
        DELETE FROM verification_tokens
        WHERE token = $1 AND expires_at > $2
        RETURNING user_id
    `

	var userID uuid.UUID
	if err := s.db.QueryRow(ctx, query, token, now).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return userID, nil
}

// DeleteExpiredVerificationTokens удаляет все токены, просроченные на момент now.
func (s *Storage) DeleteExpiredVerificationTokens(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.postgres.DeleteExpiredVerificationTokens"

	query := `
        DELETE FROM verification_tokens
        WHERE expires_at < $1
    `

	cmdTag, err := s.db.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return cmdTag.RowsAffected(), nil
}
