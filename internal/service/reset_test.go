package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yanxyw/loop-api/internal/models"
	"github.com/yanxyw/loop-api/internal/storage"
)

var sixDigits = regexp.MustCompile(`^\d{6}$`)

func TestNewResetCode_SixDigits(t *testing.T) {
	t.Parallel()

	// Форма стабильна независимо от значения: ведущие нули сохраняются.
	for i := 0; i < 64; i++ {
		code, err := newResetCode()
		require.NoError(t, err)
		require.Regexp(t, sixDigits, code)
	}
}

func TestForgotPassword_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:       uuid.New(),
		Email:    "user@example.com",
		Username: "alice",
	}

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	st.EXPECT().ReplaceResetCode(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rec *models.ResetCode) error {
			require.Equal(t, user.ID, rec.UserID)
			require.Regexp(t, sixDigits, rec.Code)
			require.True(t, rec.ExpiresAt.After(rec.CreatedAt))
			return nil
		})

	require.NoError(t, svc.ForgotPassword(context.Background(), user.Email))
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "ghost@example.com").
		Return(nil, storage.ErrNotFound)

	err := svc.ForgotPassword(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestVerifyResetCode_OK_DoesNotConsume(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{ID: uuid.New(), Email: "user@example.com"}

	// Только peek: ConsumeResetCode не вызывается.
	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	st.EXPECT().ResetCodeByUserAndCode(gomock.Any(), user.ID, "123456", gomock.Any()).
		Return(&models.ResetCode{UserID: user.ID, Code: "123456", ExpiresAt: time.Now().Add(time.Minute)}, nil)

	require.NoError(t, svc.VerifyResetCode(context.Background(), user.Email, "123456"))
}

func TestVerifyResetCode_WrongCode(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{ID: uuid.New(), Email: "user@example.com"}

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	st.EXPECT().ResetCodeByUserAndCode(gomock.Any(), user.ID, "000000", gomock.Any()).
		Return(nil, storage.ErrNotFound)

	err := svc.VerifyResetCode(context.Background(), user.Email, "000000")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyResetCode_UnknownEmail_SameError(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "ghost@example.com").
		Return(nil, storage.ErrNotFound)

	err := svc.VerifyResetCode(context.Background(), "ghost@example.com", "123456")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestResetPassword_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{ID: uuid.New(), Email: "user@example.com"}
	newPW := "Newpass1!"

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	st.EXPECT().ResetCodeByUserAndCode(gomock.Any(), user.ID, "123456", gomock.Any()).
		Return(&models.ResetCode{UserID: user.ID, Code: "123456", ExpiresAt: time.Now().Add(time.Minute)}, nil)
	st.EXPECT().ConsumeResetCode(gomock.Any(), user.ID, "123456", gomock.Any()).Return(nil)
	st.EXPECT().UpdateUserPassword(gomock.Any(), user.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ uuid.UUID, hash string) error {
			require.True(t, checkPassword(hash, newPW))
			return nil
		})

	require.NoError(t, svc.ResetPassword(context.Background(), user.Email, "123456", newPW))
}

func TestResetPassword_WeakNewPassword_NothingConsumed(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	// Политика пароля проверяется до обращения к хранилищу.
	err := svc.ResetPassword(context.Background(), "user@example.com", "123456", "weak")
	require.ErrorIs(t, err, ErrWeakPassword)
}

func TestResetPassword_ConsumedConcurrently(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{ID: uuid.New(), Email: "user@example.com"}

	// Код исчез между peek и consume: пароль не меняется.
	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	st.EXPECT().ResetCodeByUserAndCode(gomock.Any(), user.ID, "123456", gomock.Any()).
		Return(&models.ResetCode{UserID: user.ID, Code: "123456", ExpiresAt: time.Now().Add(time.Minute)}, nil)
	st.EXPECT().ConsumeResetCode(gomock.Any(), user.ID, "123456", gomock.Any()).
		Return(storage.ErrNotFound)

	err := svc.ResetPassword(context.Background(), user.Email, "123456", "Newpass1!")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestResetPassword_InvalidCode(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{ID: uuid.New(), Email: "user@example.com"}

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	st.EXPECT().ResetCodeByUserAndCode(gomock.Any(), user.ID, "999999", gomock.Any()).
		Return(nil, storage.ErrNotFound)

	err := svc.ResetPassword(context.Background(), user.Email, "999999", "Newpass1!")
	require.ErrorIs(t, err, ErrInvalidToken)
}
