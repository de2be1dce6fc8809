package models

import (
	"time"

	"github.com/google/uuid"
)

// User - модель пользователя в системе.
//
// Auth-сервис читает id/email/username/verified/is_admin и записывает
// verified и password_hash; остальные атрибуты профиля принадлежат
// пользовательскому сервису.
type User struct {
	ID           uuid.UUID
	Email        string
	Username     string
	PasswordHash string
	Verified     bool
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
