package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/arod1104/uic-gradebook/internal/accounts"
	"github.com/arod1104/uic-gradebook/internal/types"
)

// Directory keeps user accounts in Firebase Authentication. Password hashing
// and email uniqueness are enforced there.
type Directory struct {
	client *auth.Client
}

func NewDirectory(ctx context.Context, app *firebase.App) (*Directory, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Auth client: %w", err)
	}
	return &Directory{client: client}, nil
}

func (d *Directory) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := d.client.GetUserByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	if auth.IsUserNotFound(err) {
		return false, nil
	}
	return false, err
}

func (d *Directory) CreateUser(ctx context.Context, u types.NewUser) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(u.Email).
		Password(u.Password).
		DisplayName(u.DisplayName)

	record, err := d.client.CreateUser(ctx, params)
	if err != nil {
		return "", mapAuthError(err)
	}
	return record.UID, nil
}

func (d *Directory) UpdateEmail(ctx context.Context, userID, email string) error {
	params := (&auth.UserToUpdate{}).Email(email)
	if _, err := d.client.UpdateUser(ctx, userID, params); err != nil {
		return mapAuthError(err)
	}
	return nil
}

func (d *Directory) DeleteUser(ctx context.Context, userID string) error {
	return mapAuthError(d.client.DeleteUser(ctx, userID))
}

// mapAuthError turns the Firebase errors callers branch on into the account
// sentinels. Others pass through with their own message.
func mapAuthError(err error) error {
	switch {
	case err == nil:
		return nil
	case auth.IsEmailAlreadyExists(err):
		return accounts.ErrEmailTaken
	case auth.IsUserNotFound(err):
		return accounts.ErrUserNotFound
	}
	return err
}
