package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/yanxyw/loop-api/internal/models"
	"github.com/yanxyw/loop-api/internal/storage"
)

// resetCodeMax ограничивает диапазон кода сброса: шесть десятичных цифр.
var resetCodeMax = big.NewInt(1_000_000)

// ForgotPassword выпускает одноразовый код сброса пароля и отправляет его
// на email пользователя.
//
// Прежний код пользователя замещается: действует не более одного.
// Неизвестный email возвращает ErrUserNotFound; транспортному слою решать,
// раскрывать ли это наружу.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	const op = "service.reset.ForgotPassword"

	normEmail, err := validateEmail(email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	code, err := newResetCode()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	record := &models.ResetCode{
		UserID:    user.ID,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.ResetCodeTTL),
	}

	if err := s.storage.ReplaceResetCode(ctx, record); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.dispatchResetCodeEmail(ctx, user, code)

	return nil
}

// VerifyResetCode проверяет код сброса не потребляя его.
// Позволяет клиенту валидировать код до ввода нового пароля.
func (s *Service) VerifyResetCode(ctx context.Context, email, code string) error {
	const op = "service.reset.VerifyResetCode"

	if _, err := s.lookupResetCode(ctx, email, code); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ResetPassword потребляет код сброса и устанавливает новый пароль.
//
// Код одноразовый: успешный сброс удаляет его, и повторное предъявление
// даёт ErrInvalidToken. Новый пароль проходит ту же политику, что и при
// регистрации.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	const op = "service.reset.ResetPassword"

	if err := validatePassword(newPassword); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	userID, err := s.lookupResetCode(ctx, email, code)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.ConsumeResetCode(ctx, userID, code, time.Now().UTC()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Код потреблён конкурентным запросом между проверкой и consume.
			return fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	hashedPassword, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdateUserPassword(ctx, userID, hashedPassword); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// lookupResetCode находит действующий код сброса пользователя по email+code.
// Любое несовпадение (неизвестный email, чужой код, просрочка) даёт
// ErrInvalidToken.
func (s *Service) lookupResetCode(ctx context.Context, email, code string) (uuid.UUID, error) {
	const op = "service.reset.lookupResetCode"

	normEmail, err := validateEmail(email)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if code == "" {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.storage.ResetCodeByUserAndCode(ctx, user.ID, code, time.Now().UTC()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return user.ID, nil
}

// newResetCode генерирует шестизначный код из криптографического ГСЧ.
// Ведущие нули сохраняются.
func newResetCode() (string, error) {
	const op = "service.reset.newResetCode"

	n, err := rand.Int(rand.Reader, resetCodeMax)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}
