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

// ReplaceResetCode удаляет прежний код пользователя и сохраняет новый одной
// транзакцией. PRIMARY KEY(user_id) дополнительно гарантирует не более
// одного живого кода на пользователя на уровне схемы.
func (s *Storage) ReplaceResetCode(ctx context.Context, code *models.ResetCode) error {
	const op = "storage.postgres.ReplaceResetCode"

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const del = `
        DELETE FROM password_reset_codes
        WHERE user_id = $1
    `

	if _, err := tx.Exec(ctx, del, code.UserID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	const ins = `
        INSERT INTO password_reset_codes(user_id, code, created_at, expires_at)
        VALUES ($1, $2, $3, $4)
    `

	if _, err := tx.Exec(ctx, ins,
		code.UserID,
		code.Code,
		code.CreatedAt,
		code.ExpiresAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ResetCodeByUserAndCode находит живой код по паре (пользователь, код)
// без удаления — шаг подтверждения кода не расходует его.
func (s *Storage) ResetCodeByUserAndCode(ctx context.Context, userID uuid.UUID, code string, now time.Time) (*models.ResetCode, error) {
	const op = "storage.postgres.ResetCodeByUserAndCode"

	query := `
        SELECT user_id, code, created_at, expires_at
        FROM password_reset_codes
        WHERE user_id = $1 AND code = $2 AND expires_at > $3
    `

	var rc models.ResetCode
	err := s.db.QueryRow(ctx, query, userID, code, now).Scan(
		&rc.UserID,
		&rc.Code,
		&rc.CreatedAt,
		&rc.ExpiresAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &rc, nil
}

// ConsumeResetCode удаляет живой код. Одиночный DELETE по (user_id, code)
// с проверкой живости — из двух конкурентных вызовов победит ровно один.
func (s *Storage) ConsumeResetCode(ctx context.Context, userID uuid.UUID, code string, now time.Time) error {
	const op = "storage.postgres.ConsumeResetCode"

	query := `
        DELETE FROM password_reset_codes
        WHERE user_id = $1 AND code = $2 AND expires_at > $3
    `

	cmdTag, err := s.db.Exec(ctx, query, userID, code, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// DeleteExpiredResetCodes удаляет все коды, просроченные на момент now.
func (s *Storage) DeleteExpiredResetCodes(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.postgres.DeleteExpiredResetCodes"

	query := `
        DELETE FROM password_reset_codes
        WHERE expires_at < $1
    `

	cmdTag, err := s.db.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return cmdTag.RowsAffected(), nil
}
