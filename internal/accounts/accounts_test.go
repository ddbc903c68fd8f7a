package accounts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/arod1104/uic-gradebook/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockDirectory) CreateUser(ctx context.Context, u types.NewUser) (string, error) {
	args := m.Called(ctx, u)
	return args.String(0), args.Error(1)
}

func (m *MockDirectory) UpdateEmail(ctx context.Context, userID, email string) error {
	args := m.Called(ctx, userID, email)
	return args.Error(0)
}

func (m *MockDirectory) DeleteUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockKeyStore struct {
	mock.Mock
}

func (m *MockKeyStore) CreateUserAPIKey(ctx context.Context, userID, tier, useCase string) (string, error) {
	args := m.Called(ctx, userID, tier, useCase)
	return args.String(0), args.Error(1)
}

func (m *MockKeyStore) DeleteUserAPIKeys(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	deleted, _ := args.Get(0).([]string)
	return deleted, args.Error(1)
}

func validRegistration() types.Registration {
	return types.Registration{
		Email:     "ada@uic.edu",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Password:  "secret1",
		UseCase:   "course planning",
	}
}

func TestValidEmail(t *testing.T) {
	for _, email := range []string{"a@b.co", "first.last@uic.edu", "x+tag@mail.example.org"} {
		assert.True(t, ValidEmail(email), email)
	}
	for _, email := range []string{"", "plain", "a@b", "@b.com", "a@.com.", "a b@c.com", "a@b c.com", "a@@b.com"} {
		assert.False(t, ValidEmail(email), email)
	}
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("should create the user and a free key", func(t *testing.T) {
		users := new(MockDirectory)
		keys := new(MockKeyStore)
		users.On("EmailExists", ctx, "ada@uic.edu").Return(false, nil)
		users.On("CreateUser", ctx, types.NewUser{
			Email:       "ada@uic.edu",
			Password:    "secret1",
			DisplayName: "Ada Lovelace",
		}).Return("uid-1", nil)
		keys.On("CreateUserAPIKey", ctx, "uid-1", types.TierFree, "course planning").Return("key-1", nil)

		key, err := NewService(users, keys).Register(ctx, validRegistration())

		require.NoError(t, err)
		assert.Equal(t, "key-1", key)
		users.AssertExpectations(t)
		keys.AssertExpectations(t)
	})

	t.Run("should reject an invalid email without contacting the backend", func(t *testing.T) {
		users := new(MockDirectory)
		keys := new(MockKeyStore)
		req := validRegistration()
		req.Email = "not-an-email"

		_, err := NewService(users, keys).Register(ctx, req)

		assert.ErrorIs(t, err, ErrInvalidEmail)
		assert.Empty(t, users.Calls)
		assert.Empty(t, keys.Calls)
	})

	t.Run("should validate the remaining fields", func(t *testing.T) {
		cases := []struct {
			name   string
			modify func(r *types.Registration)
			want   error
		}{
			{"missing first name", func(r *types.Registration) { r.FirstName = " " }, ErrMissingFields},
			{"missing password", func(r *types.Registration) { r.Password = "" }, ErrMissingFields},
			{"short last name", func(r *types.Registration) { r.LastName = "L" }, ErrNameTooShort},
			{"short password", func(r *types.Registration) { r.Password = "12345" }, ErrPasswordTooShort},
			{"long use case", func(r *types.Registration) { r.UseCase = strings.Repeat("x", 301) }, ErrUseCaseTooLong},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				users := new(MockDirectory)
				req := validRegistration()
				tc.modify(&req)

				_, err := NewService(users, new(MockKeyStore)).Register(ctx, req)

				assert.ErrorIs(t, err, tc.want)
				assert.Empty(t, users.Calls)
			})
		}
	})

	t.Run("should reject an already registered email and issue no key", func(t *testing.T) {
		users := new(MockDirectory)
		keys := new(MockKeyStore)
		users.On("EmailExists", ctx, "ada@uic.edu").Return(true, nil)

		_, err := NewService(users, keys).Register(ctx, validRegistration())

		assert.ErrorIs(t, err, ErrEmailTaken)
		users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
		assert.Empty(t, keys.Calls)
	})

	t.Run("should surface a concurrent duplicate from the provider as taken", func(t *testing.T) {
		users := new(MockDirectory)
		keys := new(MockKeyStore)
		users.On("EmailExists", ctx, "ada@uic.edu").Return(false, nil)
		users.On("CreateUser", ctx, mock.Anything).Return("", ErrEmailTaken)

		_, err := NewService(users, keys).Register(ctx, validRegistration())

		assert.ErrorIs(t, err, ErrEmailTaken)
		assert.Empty(t, keys.Calls)
	})

	t.Run("should remove the user when the key cannot be stored", func(t *testing.T) {
		users := new(MockDirectory)
		keys := new(MockKeyStore)
		users.On("EmailExists", ctx, "ada@uic.edu").Return(false, nil)
		users.On("CreateUser", ctx, mock.Anything).Return("uid-2", nil)
		users.On("DeleteUser", mock.Anything, "uid-2").Return(nil)
		keys.On("CreateUserAPIKey", ctx, "uid-2", types.TierFree, "course planning").Return("", errors.New("unavailable"))

		_, err := NewService(users, keys).Register(ctx, validRegistration())

		assert.ErrorIs(t, err, ErrKeyNotSaved)
		users.AssertCalled(t, "DeleteUser", mock.Anything, "uid-2")
	})

	t.Run("should pass lookup failures through", func(t *testing.T) {
		users := new(MockDirectory)
		backendErr := errors.New("deadline exceeded")
		users.On("EmailExists", ctx, "ada@uic.edu").Return(false, backendErr)

		_, err := NewService(users, new(MockKeyStore)).Register(ctx, validRegistration())

		assert.ErrorIs(t, err, backendErr)
	})
}

func TestService_UpdateEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("should update the email", func(t *testing.T) {
		users := new(MockDirectory)
		users.On("EmailExists", ctx, "new@uic.edu").Return(false, nil)
		users.On("UpdateEmail", ctx, "uid-1", "new@uic.edu").Return(nil)

		err := NewService(users, new(MockKeyStore)).UpdateEmail(ctx, types.EmailUpdate{UserID: "uid-1", NewEmail: "new@uic.edu"})

		require.NoError(t, err)
		users.AssertExpectations(t)
	})

	t.Run("should require both fields", func(t *testing.T) {
		svc := NewService(new(MockDirectory), new(MockKeyStore))

		assert.ErrorIs(t, svc.UpdateEmail(ctx, types.EmailUpdate{NewEmail: "new@uic.edu"}), ErrMissingUpdate)
		assert.ErrorIs(t, svc.UpdateEmail(ctx, types.EmailUpdate{UserID: "uid-1"}), ErrMissingUpdate)
	})

	t.Run("should reject an invalid email without contacting the backend", func(t *testing.T) {
		users := new(MockDirectory)

		err := NewService(users, new(MockKeyStore)).UpdateEmail(ctx, types.EmailUpdate{UserID: "uid-1", NewEmail: "bad email@x.com"})

		assert.ErrorIs(t, err, ErrInvalidEmail)
		assert.Empty(t, users.Calls)
	})

	t.Run("should reject an email that is already registered", func(t *testing.T) {
		users := new(MockDirectory)
		users.On("EmailExists", ctx, "taken@uic.edu").Return(true, nil)

		err := NewService(users, new(MockKeyStore)).UpdateEmail(ctx, types.EmailUpdate{UserID: "uid-1", NewEmail: "taken@uic.edu"})

		assert.ErrorIs(t, err, ErrEmailTaken)
		users.AssertNotCalled(t, "UpdateEmail", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should pass provider errors through", func(t *testing.T) {
		users := new(MockDirectory)
		users.On("EmailExists", ctx, "new@uic.edu").Return(false, nil)
		users.On("UpdateEmail", ctx, "uid-9", "new@uic.edu").Return(ErrUserNotFound)

		err := NewService(users, new(MockKeyStore)).UpdateEmail(ctx, types.EmailUpdate{UserID: "uid-9", NewEmail: "new@uic.edu"})

		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("should delete keys and then the user", func(t *testing.T) {
		users := new(MockDirectory)
		keys := new(MockKeyStore)
		var order []string
		keys.On("DeleteUserAPIKeys", ctx, "uid-1").Run(func(mock.Arguments) { order = append(order, "keys") }).Return([]string{"k1", "k2"}, nil)
		users.On("DeleteUser", ctx, "uid-1").Run(func(mock.Arguments) { order = append(order, "user") }).Return(nil)

		revoked, err := NewService(users, keys).Delete(ctx, types.AccountDeletion{UserID: "uid-1"})

		require.NoError(t, err)
		assert.Equal(t, []string{"keys", "user"}, order)
		assert.Equal(t, []string{"k1", "k2"}, revoked)
	})

	t.Run("should require a user id", func(t *testing.T) {
		keys := new(MockKeyStore)

		revoked, err := NewService(new(MockDirectory), keys).Delete(ctx, types.AccountDeletion{})

		assert.ErrorIs(t, err, ErrMissingUserID)
		assert.Empty(t, revoked)
		assert.Empty(t, keys.Calls)
	})

	t.Run("should keep the user when its keys cannot be removed", func(t *testing.T) {
		users := new(MockDirectory)
		keys := new(MockKeyStore)
		keys.On("DeleteUserAPIKeys", ctx, "uid-1").Return([]string{"k1"}, errors.New("unavailable"))

		revoked, err := NewService(users, keys).Delete(ctx, types.AccountDeletion{UserID: "uid-1"})

		assert.Error(t, err)
		assert.Empty(t, users.Calls)
		assert.Equal(t, []string{"k1"}, revoked, "keys removed before the failure are still reported")
	})

	t.Run("should report removed keys when the user cannot be deleted", func(t *testing.T) {
		users := new(MockDirectory)
		keys := new(MockKeyStore)
		keys.On("DeleteUserAPIKeys", ctx, "uid-1").Return([]string{"k1"}, nil)
		users.On("DeleteUser", ctx, "uid-1").Return(ErrUserNotFound)

		revoked, err := NewService(users, keys).Delete(ctx, types.AccountDeletion{UserID: "uid-1"})

		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.Equal(t, []string{"k1"}, revoked)
	})
}
