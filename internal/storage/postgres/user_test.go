package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yanxyw/loop-api/internal/models"
	"github.com/yanxyw/loop-api/internal/storage"
)

// TestIntegration_SaveUser_And_Lookups_OK — happy-path:
// сохранение пользователя и поиск по email (CITEXT, регистронезависимо), username и ID.
func TestIntegration_SaveUser_And_Lookups_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st)

	gotByEmail, err := st.UserByEmail(context.Background(), strings.ToUpper(u.Email))
	require.NoError(t, err)
	require.Equal(t, u.ID, gotByEmail.ID)
	require.False(t, gotByEmail.Verified)
	require.WithinDuration(t, u.CreatedAt, gotByEmail.CreatedAt, time.Second)

	gotByUsername, err := st.UserByUsername(context.Background(), u.Username)
	require.NoError(t, err)
	require.Equal(t, u.ID, gotByUsername.ID)

	gotByID, err := st.UserByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.Equal(t, u.ID, gotByID.ID)
}

// TestIntegration_SaveUser_UniqueViolations — конфликт уникальности по email и username
// при различии только в регистре, ожидаем storage.ErrAlreadyExists.
func TestIntegration_SaveUser_UniqueViolations(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	a := mustSaveUser(t, st)
	now := time.Now().UTC()

	dupEmail := &models.User{
		ID:           uuid.New(),
		Email:        strings.ToUpper(a.Email), // тот же email, другой регистр
		Username:     "other-" + uuid.NewString(),
		PasswordHash: "h2",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := st.SaveUser(context.Background(), dupEmail)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	dupUsername := &models.User{
		ID:           uuid.New(),
		Email:        "other-" + uuid.NewString() + "@example.com",
		Username:     strings.ToUpper(a.Username),
		PasswordHash: "h3",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = st.SaveUser(context.Background(), dupUsername)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

// TestIntegration_UserLookups_NotFound — отсутствие записей даёт storage.ErrNotFound.
func TestIntegration_UserLookups_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	_, err := st.UserByEmail(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.UserByUsername(context.Background(), "ghost")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.UserByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_MarkUserVerified — флаг verified выставляется и сохраняется.
func TestIntegration_MarkUserVerified(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st)

	require.NoError(t, st.MarkUserVerified(context.Background(), u.ID))

	got, err := st.UserByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.True(t, got.Verified)

	err = st.MarkUserVerified(context.Background(), uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_UpdateUserPassword — хэш заменяется, updated_at двигается.
func TestIntegration_UpdateUserPassword(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st)

	require.NoError(t, st.UpdateUserPassword(context.Background(), u.ID, "new-hash"))

	got, err := st.UserByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)

	err = st.UpdateUserPassword(context.Background(), uuid.New(), "x")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_SaveUser_ContextDeadlineExceeded — SaveUser с мгновенным дедлайном
// должен завершиться ошибкой context.DeadlineExceeded.
func TestIntegration_SaveUser_ContextDeadlineExceeded(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()

	now := time.Now().UTC()
	u := &models.User{
		ID:           uuid.New(),
		Email:        "deadline@example.com",
		Username:     "deadline",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := st.SaveUser(ctx, u)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
