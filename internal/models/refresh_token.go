package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken - данные refresh-токена для управления сессиями.
//
// В БД хранится только SHA-256 хэш случайного секрета; сам секрет
// существует лишь в ответе клиенту. Отдельного флага "expired" нет:
// просроченность вычисляется сравнением ExpiresAt с текущим временем,
// а единственное терминальное состояние - удаление записи
// (logout, ротация или фоновая очистка).
type RefreshToken struct {
	// RefreshTokenHash - SHA-256 хэш секрета (base64 RawURL).
	RefreshTokenHash string
	// UserID - владелец сессии.
	UserID uuid.UUID
	// CreatedAt - момент выпуска (UTC).
	CreatedAt time.Time
	// ExpiresAt - момент истечения (UTC).
	ExpiresAt time.Time
}
