package models

import (
	"time"

	"github.com/google/uuid"
)

// ResetCode - одноразовый код сброса пароля.
//
// Инварианты:
//   - не более одного живого кода на пользователя (выпуск нового
//     удаляет предыдущий);
//   - проверка кода (peek) не расходует его; код удаляется только
//     при фактической смене пароля или фоновой очисткой.
type ResetCode struct {
	// UserID - владелец кода.
	UserID uuid.UUID
	// Code - шестизначная строка с сохранением ведущих нулей.
	Code string
	// CreatedAt - момент выпуска (UTC).
	CreatedAt time.Time
	// ExpiresAt - момент истечения (UTC); TTL короткий (минуты).
	ExpiresAt time.Time
}
