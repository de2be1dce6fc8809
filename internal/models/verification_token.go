package models

import (
	"time"

	"github.com/google/uuid"
)

// VerificationToken - одноразовый токен подтверждения email.
//
// Инвариант: не более одного токена на пользователя; выпуск нового
// удаляет предыдущий. Успешное подтверждение удаляет запись -
// повторное использование того же значения невозможно.
type VerificationToken struct {
	// Token - случайное значение, отправляемое в ссылке письма.
	Token string
	// UserID - владелец токена.
	UserID uuid.UUID
	// CreatedAt - момент выпуска (UTC).
	CreatedAt time.Time
	// ExpiresAt - момент истечения (UTC).
	ExpiresAt time.Time
}
