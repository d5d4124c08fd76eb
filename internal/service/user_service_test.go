package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"optipos/internal/model"
	"optipos/pkg/apperror"
)

func TestCreateUser(t *testing.T) {
	notFound := func(ctx context.Context, _ string) (*model.User, error) {
		return nil, gorm.ErrRecordNotFound
	}

	t.Run("hashes the password", func(t *testing.T) {
		var created *model.User
		repo := &mockUserRepo{
			FindByUsernameFn: notFound,
			FindByEmailFn:    notFound,
			CreateFn: func(ctx context.Context, user *model.User) error {
				user.ID = uuid.New()
				created = user
				return nil
			},
		}
		svc := NewUserService(repo, time.Hour)

		res, err := svc.CreateUser(context.Background(), CreateUserRequest{
			Username: "anna",
			Email:    "anna@example.com",
			Password: "s3cretpw",
			Role:     model.RoleStaff,
		})
		require.NoError(t, err)
		assert.Equal(t, "anna", res.Username)

		require.NotNil(t, created)
		assert.NotEqual(t, "s3cretpw", created.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("s3cretpw")))
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		svc := NewUserService(&mockUserRepo{}, time.Hour)

		_, err := svc.CreateUser(context.Background(), CreateUserRequest{
			Username: "anna",
			Email:    "anna@example.com",
			Password: "s3cretpw",
			Role:     "superuser",
		})
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("rejects duplicate username", func(t *testing.T) {
		repo := &mockUserRepo{
			FindByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
				return &model.User{Username: username}, nil
			},
		}
		svc := NewUserService(repo, time.Hour)

		_, err := svc.CreateUser(context.Background(), CreateUserRequest{
			Username: "anna",
			Email:    "anna@example.com",
			Password: "s3cretpw",
			Role:     model.RoleAdmin,
		})
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		svc := NewUserService(&mockUserRepo{}, time.Hour)

		_, err := svc.CreateUser(context.Background(), CreateUserRequest{
			Username: "anna",
			Email:    "not-an-email",
			Password: "s3cretpw",
			Role:     model.RoleStaff,
		})
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cretpw"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &model.User{
		ID:       uuid.New(),
		Username: "anna",
		Email:    "anna@example.com",
		Password: string(hash),
		Role:     model.RoleStaff,
	}

	t.Run("returns a token and the user", func(t *testing.T) {
		repo := &mockUserRepo{
			FindByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
				return user, nil
			},
		}
		svc := NewUserService(repo, time.Hour)

		res, err := svc.Login(context.Background(), LoginUserRequest{Username: "anna", Password: "s3cretpw"})
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)
		assert.Equal(t, user.ID, res.User.ID)
		assert.Equal(t, model.RoleStaff, res.User.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := &mockUserRepo{
			FindByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
				return user, nil
			},
		}
		svc := NewUserService(repo, time.Hour)

		_, err := svc.Login(context.Background(), LoginUserRequest{Username: "anna", Password: "wrong"})
		require.Error(t, err)
	})

	t.Run("unknown username gets the same error", func(t *testing.T) {
		repo := &mockUserRepo{
			FindByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
				return nil, gorm.ErrRecordNotFound
			},
		}
		svc := NewUserService(repo, time.Hour)

		_, err := svc.Login(context.Background(), LoginUserRequest{Username: "ghost", Password: "s3cretpw"})
		require.Error(t, err)
		assert.Equal(t, "invalid username or password", err.Error())
	})
}
