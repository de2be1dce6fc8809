package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yanxyw/loop-api/internal/config"
	"github.com/yanxyw/loop-api/internal/models"
	"github.com/yanxyw/loop-api/internal/storage"
	"github.com/yanxyw/loop-api/mocks"
)

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:            "unit-secret",
		AccessTokenTTL:       30 * time.Second,
		RefreshTokenTTL:      24 * time.Hour,
		VerificationTokenTTL: 24 * time.Hour,
		ResetCodeTTL:         15 * time.Minute,
		Issuer:               "loop-api",
		Audience:             []string{"loop-web"},
	}
}

func newSvc(t *testing.T) (*Service, *mocks.MockStorage, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	svc := New(st, testCfg())
	return svc, st, ctrl
}

func mustHashPW(t *testing.T, pw string) string {
	t.Helper()
	h, err := hashPassword(pw)
	require.NoError(t, err)
	return h
}

func TestRegisterUser_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	email := "User@Example.com"
	norm := "user@example.com"
	pw := "Abcdef1!"

	// UserByEmail/UserByUsername → ErrNotFound, затем SaveUser и выпуск verification-токена.
	st.EXPECT().UserByEmail(gomock.Any(), norm).Return(nil, storage.ErrNotFound)
	st.EXPECT().UserByUsername(gomock.Any(), "alice").Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, u *models.User) error {
			require.Equal(t, norm, u.Email)
			require.Equal(t, "alice", u.Username)
			require.False(t, u.Verified)
			require.NotEqual(t, uuid.Nil, u.ID)
			require.True(t, checkPassword(u.PasswordHash, pw))
			return nil
		})
	st.EXPECT().ReplaceVerificationToken(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, tok *models.VerificationToken) error {
			require.NotEmpty(t, tok.Token)
			require.True(t, tok.ExpiresAt.After(tok.CreatedAt))
			return nil
		})

	uid, err := svc.RegisterUser(ctx, email, "alice", pw)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, uid)
}

func TestRegisterUser_InvalidEmail(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.RegisterUser(context.Background(), "not-an-email", "alice", "Abcdef1!")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidEmail)
}

func TestRegisterUser_InvalidUsername(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.RegisterUser(context.Background(), "u@e.com", "a", "Abcdef1!")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidUsername)

	_, err = svc.RegisterUser(context.Background(), "u@e.com", "has space", "Abcdef1!")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidUsername)
}

func TestRegisterUser_WeakOrEmptyPassword(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.RegisterUser(context.Background(), "u@e.com", "alice", "")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrEmptyPassword)

	_, err = svc.RegisterUser(context.Background(), "u@e.com", "alice", "short")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrWeakPassword)

	// Длина достаточная, но нет заглавной/цифры/спецсимвола.
	_, err = svc.RegisterUser(context.Background(), "u@e.com", "alice", "abcdefgh")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrWeakPassword)
}

func TestRegisterUser_EmailTaken_OnLookup(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	// Если UserByEmail вернул пользователя (err == nil) - считается занятым email.
	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").
		Return(&models.User{ID: uuid.New(), Email: "user@example.com"}, nil)

	_, err := svc.RegisterUser(context.Background(), "user@example.com", "alice", "Abcdef1!")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterUser_UsernameTaken_OnLookup(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").
		Return(nil, storage.ErrNotFound)
	st.EXPECT().UserByUsername(gomock.Any(), "alice").
		Return(&models.User{ID: uuid.New(), Username: "alice"}, nil)

	_, err := svc.RegisterUser(context.Background(), "user@example.com", "alice", "Abcdef1!")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegisterUser_SaveUserAlreadyExists_MapsToEmailTaken(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").
		Return(nil, storage.ErrNotFound)
	st.EXPECT().UserByUsername(gomock.Any(), "alice").
		Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).
		Return(storage.ErrAlreadyExists)

	_, err := svc.RegisterUser(context.Background(), "user@example.com", "alice", "Abcdef1!")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterUser_StorageLookupError_Propagated(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").
		Return(nil, errors.New("db down"))

	_, err := svc.RegisterUser(context.Background(), "user@example.com", "alice", "Abcdef1!")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrEmailTaken)
}

func TestLoginUser_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	pw := "Abcdef1!"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		Username:     "alice",
		PasswordHash: mustHashPW(t, pw),
		Verified:     true,
	}

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	tp, uid, err := svc.LoginUser(context.Background(), user.Email, pw)
	require.NoError(t, err)
	require.Equal(t, user.ID, uid)
	require.NotEmpty(t, tp.AccessToken)
	require.NotEmpty(t, tp.RefreshToken)
	require.WithinDuration(t, time.Now().Add(svc.cfg.AccessTokenTTL), tp.AccessExpiresAt, 2*time.Second)
}

func TestLoginUser_UnknownEmail_SameErrorAsWrongPassword(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "ghost@example.com").
		Return(nil, storage.ErrNotFound)

	_, _, errUnknown := svc.LoginUser(context.Background(), "ghost@example.com", "Abcdef1!")
	require.ErrorIs(t, errUnknown, ErrInvalidCredentials)

	user := &models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: mustHashPW(t, "Abcdef1!"),
	}
	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)

	_, _, errWrong := svc.LoginUser(context.Background(), user.Email, "Wrong1!pass")
	require.ErrorIs(t, errWrong, ErrInvalidCredentials)
}

func TestLoginUser_EmptyPassword(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, _, err := svc.LoginUser(context.Background(), "user@example.com", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshToken_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:       uuid.New(),
		Email:    "user@example.com",
		Username: "alice",
	}

	plain, hash := mustNewRefreshSecret(t)

	st.EXPECT().RotateRefreshToken(gomock.Any(), hash, gomock.Any(), gomock.Any()).
		Return(user.ID, nil)
	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)

	tp, uid, err := svc.RefreshToken(context.Background(), plain)
	require.NoError(t, err)
	require.Equal(t, user.ID, uid)
	require.NotEmpty(t, tp.AccessToken)
	require.NotEmpty(t, tp.RefreshToken)
	require.NotEqual(t, plain, tp.RefreshToken)
}

func TestRefreshToken_UnknownOrExpired(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().RotateRefreshToken(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(uuid.Nil, storage.ErrNotFound)

	_, _, err := svc.RefreshToken(context.Background(), "stale-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout_Idempotent(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	// Отсутствие записи не ошибка: хранилище возвращает nil и во второй раз.
	st.EXPECT().DeleteRefreshToken(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	require.NoError(t, svc.Logout(context.Background(), "whatever"))
	require.NoError(t, svc.Logout(context.Background(), "whatever"))
}

func mustNewRefreshSecret(t *testing.T) (string, string) {
	t.Helper()
	plain, hash, err := newRefreshSecret()
	require.NoError(t, err)
	return plain, hash
}
