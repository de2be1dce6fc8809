package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yanxyw/loop-api/internal/models"
	"github.com/yanxyw/loop-api/internal/pkg/log"
	"github.com/yanxyw/loop-api/internal/storage"
)

// TokenClaims — проверенные утверждения access-токена.
type TokenClaims struct {
	UserID   uuid.UUID
	Email    string
	Username string
	IsAdmin  bool
}

type accessClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// generateAccessToken генерирует access-токен.
func (s *Service) generateAccessToken(ctx context.Context, user *models.User, now time.Time) (string, error) {
	const op = "service.token.generateAccessToken"

	lg := log.From(ctx)

	claims := accessClaims{
		Email:    user.Email,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.cfg.Issuer,
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings(s.cfg.Audience),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		lg.Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// validateAccessToken валидирует access-токен: сначала подпись, затем срок.
// Все причины отказа (подпись/формат/просрочка) сведены к ErrInvalidToken.
// Leeway нулевой: токен с exp, равным текущему моменту, уже просрочен.
func (s *Service) validateAccessToken(tokenStr string) (*TokenClaims, error) {
	const op = "service.token.validateAccessToken"

	token, err := jwt.ParseWithClaims(tokenStr, &accessClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			return []byte(s.cfg.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience...),
	)

	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return &TokenClaims{
		UserID:   uid,
		Email:    claims.Email,
		Username: claims.Username,
		IsAdmin:  claims.IsAdmin,
	}, nil
}

// maxAttempts ограничивает перегенерацию секрета при коллизии хэша.
const maxAttempts = 5

// newRefreshSecret возвращает случайный секрет refresh-токена и его хэш.
// 32 байта энтропии, base64 RawURL; в БД попадает только SHA-256 хэш.
func newRefreshSecret() (plain, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}

	plain = base64.RawURLEncoding.EncodeToString(b)
	return plain, hashRefreshSecret(plain), nil
}

// hashRefreshSecret возвращает SHA-256 хэш секрета (base64 RawURL).
func hashRefreshSecret(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// generateRefreshToken создает новый refresh-токен для пользователя.
// Исчезнувший пользователь (нарушение внешнего ключа) — ErrUserNotFound.
func (s *Service) generateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	const op = "service.token.generateRefreshToken"

	lg := log.From(ctx)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		plain, hash, err := newRefreshSecret()
		if err != nil {
			lg.Error("refresh_rand_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w", op, err)
		}

		now := time.Now().UTC()
		token := &models.RefreshToken{
			RefreshTokenHash: hash,
			UserID:           userID,
			CreatedAt:        now,
			ExpiresAt:        now.Add(s.cfg.RefreshTokenTTL),
		}

		if err := s.storage.SaveRefreshToken(ctx, token); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				// Редкая коллизия — пробуем сгенерировать заново.
				continue
			}

			if errors.Is(err, storage.ErrNotFound) {
				return "", fmt.Errorf("%s: %w", op, ErrUserNotFound)
			}

			lg.Error("save_refresh_token_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w", op, err)
		}

		return plain, nil
	}

	lg.Error("refresh_collision_exceeded",
		slog.String("op", op),
	)

	return "", fmt.Errorf("%s: %w", op, ErrRefreshTokenCollision)
}

// rotateRefreshToken атомарно заменяет предъявленный refresh-токен на новый
// и возвращает секрет нового токена и ID владельца.
// Отсутствующий/просроченный/уже ротированный старый токен — ErrInvalidToken:
// из конкурентных ротаций одного значения побеждает ровно одна.
func (s *Service) rotateRefreshToken(ctx context.Context, oldPlain string) (string, uuid.UUID, error) {
	const op = "service.token.rotateRefreshToken"

	lg := log.From(ctx)
	oldHash := hashRefreshSecret(oldPlain)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		plain, hash, err := newRefreshSecret()
		if err != nil {
			lg.Error("refresh_rand_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", uuid.Nil, fmt.Errorf("%s: %w", op, err)
		}

		now := time.Now().UTC()
		next := &models.RefreshToken{
			RefreshTokenHash: hash,
			CreatedAt:        now,
			ExpiresAt:        now.Add(s.cfg.RefreshTokenTTL),
		}

		userID, err := s.storage.RotateRefreshToken(ctx, oldHash, next, now)
		if err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				// Коллизия хэша нового токена: транзакция откатилась целиком,
				// старый токен цел — безопасно повторить с новым секретом.
				continue
			}

			if errors.Is(err, storage.ErrNotFound) {
				lg.Warn("refresh_rotate_rejected",
					slog.String("op", op),
				)
				return "", uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			lg.Error("refresh_rotate_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", uuid.Nil, fmt.Errorf("%s: %w", op, err)
		}

		return plain, userID, nil
	}

	lg.Error("refresh_collision_exceeded",
		slog.String("op", op),
	)

	return "", uuid.Nil, fmt.Errorf("%s: %w", op, ErrRefreshTokenCollision)
}
