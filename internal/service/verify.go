package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/yanxyw/loop-api/internal/models"
	"github.com/yanxyw/loop-api/internal/storage"
)

// verificationTokenBytes — длина секрета verification-токена до кодирования.
const verificationTokenBytes = 32

// VerifyEmail подтверждает email по одноразовому verification-токену.
//
// Токен атомарно потребляется: повторное предъявление того же значения
// даёт ErrInvalidToken. Просроченный или неизвестный токен неотличимы
// для вызывающего.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	const op = "service.verify.VerifyEmail"

	if token == "" {
		return fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	userID, err := s.storage.ConsumeVerificationToken(ctx, token, time.Now().UTC())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.MarkUserVerified(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Пользователь удалён между consume и апдейтом.
			return fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ResendVerification повторно выпускает verification-токен и письмо.
//
// Предыдущий токен пользователя инвалидируется: в любой момент времени
// действует не более одного.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	const op = "service.verify.ResendVerification"

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

	if user.Verified {
		return fmt.Errorf("%s: %w", op, ErrAlreadyVerified)
	}

	if err := s.issueVerificationToken(ctx, user); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// issueVerificationToken выпускает новый verification-токен, замещая прежний,
// и отправляет письмо подтверждения.
func (s *Service) issueVerificationToken(ctx context.Context, user *models.User) error {
	const op = "service.verify.issueVerificationToken"

	token, err := newVerificationToken()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	record := &models.VerificationToken{
		Token:     token,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.VerificationTokenTTL),
	}

	if err := s.storage.ReplaceVerificationToken(ctx, record); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.dispatchVerificationEmail(ctx, user, token)

	return nil
}

// newVerificationToken генерирует криптослучайный URL-безопасный токен.
func newVerificationToken() (string, error) {
	const op = "service.verify.newVerificationToken"

	buf := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
