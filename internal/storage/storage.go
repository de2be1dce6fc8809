package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/yanxyw/loop-api/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/токен/код).
	// Для токенов и кодов "не найдено" и "просрочено" намеренно не
	// различаются: наружу уходит единый ответ, чтобы не раскрывать,
	// существовало ли значение вообще.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email/username/refresh-token).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создает нового пользователя в БД.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByUsername находит пользователя по username.
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// MarkUserVerified выставляет пользователю флаг verified.
	MarkUserVerified(ctx context.Context, id uuid.UUID) error
	// UpdateUserPassword заменяет хэш пароля пользователя.
	UpdateUserPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// RefreshTokenStorage выполняет операции над refresh-токенами.
type RefreshTokenStorage interface {
	// SaveRefreshToken сохраняет новый refresh-токен в БД.
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error
	// LiveRefreshTokenByHash находит живой (непросроченный на момент now)
	// refresh-токен по его хэшу; отсутствующий и просроченный дают ErrNotFound.
	LiveRefreshTokenByHash(ctx context.Context, hash string, now time.Time) (*models.RefreshToken, error)
	// RotateRefreshToken атомарно удаляет живой старый токен и сохраняет next
	// для того же пользователя. Возвращает ID владельца. Если старый токен
	// отсутствует или просрочен — ErrNotFound, и ничего не изменяется.
	// Конкурентные ротации одного значения: побеждает ровно одна.
	RotateRefreshToken(ctx context.Context, oldHash string, next *models.RefreshToken, now time.Time) (uuid.UUID, error)
	// DeleteRefreshToken удаляет токен по хэшу; отсутствие записи не ошибка.
	DeleteRefreshToken(ctx context.Context, hash string) error
	// DeleteExpiredRefreshTokens удаляет все токены с expires_at < now.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

// VerificationTokenStorage выполняет операции над токенами подтверждения email.
type VerificationTokenStorage interface {
	// ReplaceVerificationToken удаляет прежний токен пользователя (если был)
	// и сохраняет новый одной транзакцией.
	ReplaceVerificationToken(ctx context.Context, token *models.VerificationToken) error
	// ConsumeVerificationToken удаляет живой токен и возвращает ID владельца;
	// отсутствующий или просроченный токен дает ErrNotFound.
	ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (uuid.UUID, error)
	// DeleteExpiredVerificationTokens удаляет все токены с expires_at < now.
	DeleteExpiredVerificationTokens(ctx context.Context, now time.Time) (int64, error)
}

// ResetCodeStorage выполняет операции над кодами сброса пароля.
type ResetCodeStorage interface {
	// ReplaceResetCode удаляет прежний код пользователя (если был)
	// и сохраняет новый одной транзакцией.
	ReplaceResetCode(ctx context.Context, code *models.ResetCode) error
	// ResetCodeByUserAndCode находит живой код по паре (пользователь, код)
	// без удаления; отсутствующий или просроченный дает ErrNotFound.
	ResetCodeByUserAndCode(ctx context.Context, userID uuid.UUID, code string, now time.Time) (*models.ResetCode, error)
	// ConsumeResetCode удаляет живой код; отсутствующий или просроченный
	// дает ErrNotFound.
	ConsumeResetCode(ctx context.Context, userID uuid.UUID, code string, now time.Time) error
	// DeleteExpiredResetCodes удаляет все коды с expires_at < now.
	DeleteExpiredResetCodes(ctx context.Context, now time.Time) (int64, error)
}

// Storage задает контракт работы с БД.
type Storage interface {
	UserStorage
	RefreshTokenStorage
	VerificationTokenStorage
	ResetCodeStorage
	Close()
}
