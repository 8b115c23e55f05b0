package core_test

import (
	"baldsphere-backend/internal/core"
	"baldsphere-backend/internal/database"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodPassword = "Abcdef1!"

func TestSignUpAndLogin(t *testing.T) {
	service, db := createService(t, nil)
	ctx := context.Background()

	user, err := service.SignUp(ctx, "Ada", "a@b.com", goodPassword)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	var stored database.User
	require.NoError(t, db.Where("email = ?", "a@b.com").Take(&stored).Error)
	assert.NotEqual(t, goodPassword, stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)

	prefs, err := service.GetUserPreferences(ctx, user.Id)
	require.NoError(t, err)
	assert.Equal(t, "dark", prefs.PreferredTheme)

	loggedIn, err := service.Login(ctx, "a@b.com", goodPassword)
	require.NoError(t, err)
	assert.Equal(t, user.Id, loggedIn.Id)
	assert.NotNil(t, loggedIn.LastLogin)
	assert.Empty(t, loggedIn.PasswordHash)

	require.NoError(t, db.Where("id = ?", user.Id).Take(&stored).Error)
	assert.NotNil(t, stored.LastLogin)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	service, db := createService(t, nil)
	ctx := context.Background()

	first, err := service.SignUp(ctx, "Ada", "a@b.com", goodPassword)
	require.NoError(t, err)

	_, err = service.SignUp(ctx, "Imposter", "a@b.com", "Xyzxyz9?")
	assert.ErrorIs(t, err, core.ErrEmailTaken)

	assert.EqualValues(t, 1, count(t, db, &database.User{}))

	user, err := service.Login(ctx, "a@b.com", goodPassword)
	require.NoError(t, err)
	assert.Equal(t, first.Id, user.Id)
	assert.Equal(t, "Ada", user.Name)
}

func TestSignUpValidation(t *testing.T) {
	service, db := createService(t, nil)
	ctx := context.Background()

	for _, tc := range []struct {
		name, email, password, reason string
	}{
		{"", "a@b.com", goodPassword, "Name, email, and password are required"},
		{"Ada", "not-an-email", goodPassword, "Invalid email format"},
		{"Ada", "a@b.com", "abc", "Password must contain at least 8 characters"},
	} {
		_, err := service.SignUp(ctx, tc.name, tc.email, tc.password)
		require.Error(t, err)
		assert.True(t, core.IsValidationError(err))
		assert.Contains(t, err.Error(), tc.reason)
	}

	assert.EqualValues(t, 0, count(t, db, &database.User{}))
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	service, db := createService(t, nil)
	ctx := context.Background()

	user, err := service.SignUp(ctx, "Ada", "a@b.com", goodPassword)
	require.NoError(t, err)

	_, err = service.Login(ctx, "missing@b.com", goodPassword)
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	_, err = service.Login(ctx, "a@b.com", "Wrong123!")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	require.NoError(t, db.Model(&database.User{}).Where("id = ?", user.Id).Update("is_active", false).Error)
	_, err = service.Login(ctx, "a@b.com", goodPassword)
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	_, err = service.Login(ctx, "a@b.com", "")
	assert.True(t, core.IsValidationError(err))
}

func TestLoginWithoutPassword(t *testing.T) {
	service, _ := createService(t, nil)
	ctx := context.Background()

	_, err := service.GetOrCreateUser(ctx, "chat@b.com", "Chat Only")
	require.NoError(t, err)

	_, err = service.Login(ctx, "chat@b.com", goodPassword)
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
}

func TestCreateUserUpserts(t *testing.T) {
	service, db := createService(t, nil)
	ctx := context.Background()

	first, err := service.CreateUser(ctx, "a@b.com", "Ada")
	require.NoError(t, err)

	second, err := service.CreateUser(ctx, "a@b.com", "Ada Lovelace")
	require.NoError(t, err)

	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, "Ada Lovelace", second.Name)
	assert.EqualValues(t, 1, count(t, db, &database.User{}))

	_, err = service.CreateUser(ctx, "bad", "Ada")
	assert.True(t, core.IsValidationError(err))
}

func TestGetOrCreateUserKeepsExisting(t *testing.T) {
	service, db := createService(t, nil)
	ctx := context.Background()

	first, err := service.GetOrCreateUser(ctx, "a@b.com", "Ada")
	require.NoError(t, err)

	second, err := service.GetOrCreateUser(ctx, "a@b.com", "Someone Else")
	require.NoError(t, err)

	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, "Ada", second.Name)
	assert.EqualValues(t, 1, count(t, db, &database.User{}))
}

func TestListUsersHidesPasswordHash(t *testing.T) {
	service, _ := createService(t, nil)
	ctx := context.Background()

	_, err := service.SignUp(ctx, "Ada", "a@b.com", goodPassword)
	require.NoError(t, err)

	users, err := service.ListUsers(ctx, 10)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Empty(t, users[0].PasswordHash)

	prefs, err := service.ListUserPreferences(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, prefs, 1)
}
