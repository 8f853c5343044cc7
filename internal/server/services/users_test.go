package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"filevault/internal/common"
	"filevault/internal/server/models"
)

func TestUserService_Register_HashesPassword(t *testing.T) {
	repo := &fakeUsersRepo{}
	svc := NewUserService(nil, &fakeRepoManager{u: repo})

	user, err := svc.Register(context.Background(), "a@x.com", "pw")
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", user.Email)
	assert.NotEqual(t, "pw", user.PasswordHash, "password must not be stored in plaintext")
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pw")))
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	repo := &fakeUsersRepo{createErr: common.ErrorAlreadyExists}
	svc := NewUserService(nil, &fakeRepoManager{u: repo})

	_, err := svc.Register(context.Background(), "a@x.com", "pw")
	require.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestUserService_Register_EmptyFields(t *testing.T) {
	svc := NewUserService(nil, &fakeRepoManager{u: &fakeUsersRepo{}})

	_, err := svc.Register(context.Background(), "", "pw")
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = svc.Register(context.Background(), "a@x.com", "")
	require.ErrorIs(t, err, common.ErrorValidation)
}

func registeredUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{ID: 7, Email: email, PasswordHash: string(hash)}
}

func TestUserService_Authenticate_Success(t *testing.T) {
	u := registeredUser(t, "a@x.com", "pw")
	repo := &fakeUsersRepo{byEmail: map[string]*models.User{"a@x.com": u}}
	svc := NewUserService(nil, &fakeRepoManager{u: repo})

	got, err := svc.Authenticate(context.Background(), "a@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
}

func TestUserService_Authenticate_WrongPassword(t *testing.T) {
	u := registeredUser(t, "a@x.com", "pw")
	repo := &fakeUsersRepo{byEmail: map[string]*models.User{"a@x.com": u}}
	svc := NewUserService(nil, &fakeRepoManager{u: repo})

	_, err := svc.Authenticate(context.Background(), "a@x.com", "wrong")
	require.ErrorIs(t, err, ErrIncorrectPassword)
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestUserService_Authenticate_UnknownEmail(t *testing.T) {
	repo := &fakeUsersRepo{byEmail: map[string]*models.User{}}
	svc := NewUserService(nil, &fakeRepoManager{u: repo})

	_, err := svc.Authenticate(context.Background(), "ghost@x.com", "pw")
	require.ErrorIs(t, err, ErrIncorrectEmail)
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestUserService_GetByID(t *testing.T) {
	u := registeredUser(t, "a@x.com", "pw")
	repo := &fakeUsersRepo{byEmail: map[string]*models.User{"a@x.com": u}}
	svc := NewUserService(nil, &fakeRepoManager{u: repo})

	got, err := svc.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)

	_, err = svc.GetByID(context.Background(), 8)
	require.ErrorIs(t, err, common.ErrorNotFound)
}
