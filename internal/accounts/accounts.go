// Package accounts validates account requests and delegates them to the
// identity provider and the API key store.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/arod1104/uic-gradebook/internal/types"
	"github.com/rs/zerolog/log"
)

// Client errors. Their messages are returned to callers verbatim.
var (
	ErrInvalidEmail     = errors.New("Invalid email format.")
	ErrEmailTaken       = errors.New("Email is already registered.")
	ErrMissingFields    = errors.New("Missing required fields.")
	ErrMissingUpdate    = errors.New("Missing userId or newEmail.")
	ErrMissingUserID    = errors.New("Missing userId.")
	ErrNameTooShort     = errors.New("First and last name must be at least 2 characters.")
	ErrPasswordTooShort = errors.New("Password must be at least 6 characters.")
	ErrUseCaseTooLong   = errors.New("Use case must be at most 300 characters.")
	ErrKeyNotSaved      = errors.New("Failed to save API key. Please contact support.")
	ErrUserNotFound     = errors.New("User not found.")
)

const (
	minNameLength     = 2
	minPasswordLength = 6
	maxUseCaseLength  = 300
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidEmail reports whether email has a non-empty local part and a dotted
// domain, with no whitespace anywhere.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Directory is the identity provider holding user accounts.
type Directory interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, u types.NewUser) (string, error)
	UpdateEmail(ctx context.Context, userID, email string) error
	DeleteUser(ctx context.Context, userID string) error
}

// KeyStore issues and revokes API keys.
type KeyStore interface {
	CreateUserAPIKey(ctx context.Context, userID, tier, useCase string) (string, error)
	DeleteUserAPIKeys(ctx context.Context, userID string) ([]string, error)
}

type Service struct {
	users Directory
	keys  KeyStore
}

func NewService(users Directory, keys KeyStore) *Service {
	return &Service{users: users, keys: keys}
}

func validateRegistration(req types.Registration) error {
	if !ValidEmail(req.Email) {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" || req.Password == "" {
		return ErrMissingFields
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.FirstName)) < minNameLength ||
		utf8.RuneCountInString(strings.TrimSpace(req.LastName)) < minNameLength {
		return ErrNameTooShort
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if utf8.RuneCountInString(req.UseCase) > maxUseCaseLength {
		return ErrUseCaseTooLong
	}
	return nil
}

// Register creates the account and its free-tier API key and returns the
// key. The key is not retrievable afterwards.
func (s *Service) Register(ctx context.Context, req types.Registration) (string, error) {
	if err := validateRegistration(req); err != nil {
		return "", err
	}

	taken, err := s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return "", fmt.Errorf("failed to look up email: %w", err)
	}
	if taken {
		return "", ErrEmailTaken
	}

	userID, err := s.users.CreateUser(ctx, types.NewUser{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: strings.TrimSpace(req.FirstName) + " " + strings.TrimSpace(req.LastName),
	})
	if err != nil {
		return "", err
	}

	key, err := s.keys.CreateUserAPIKey(ctx, userID, types.TierFree, strings.TrimSpace(req.UseCase))
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to save API key, removing user")
		if derr := s.users.DeleteUser(context.WithoutCancel(ctx), userID); derr != nil {
			log.Error().Err(derr).Str("user_id", userID).Msg("failed to remove user after key failure")
		}
		return "", ErrKeyNotSaved
	}

	log.Info().Str("user_id", userID).Msg("registered user")
	return key, nil
}

// UpdateEmail changes the email of an existing account.
func (s *Service) UpdateEmail(ctx context.Context, req types.EmailUpdate) error {
	if req.UserID == "" || req.NewEmail == "" {
		return ErrMissingUpdate
	}
	if !ValidEmail(req.NewEmail) {
		return ErrInvalidEmail
	}

	taken, err := s.users.EmailExists(ctx, req.NewEmail)
	if err != nil {
		return fmt.Errorf("failed to look up email: %w", err)
	}
	if taken {
		return ErrEmailTaken
	}

	return s.users.UpdateEmail(ctx, req.UserID, req.NewEmail)
}

// Delete removes the account's API keys and then the account. It returns the
// keys that were deleted, also when it fails part way, so callers can stop
// honouring them.
func (s *Service) Delete(ctx context.Context, req types.AccountDeletion) ([]string, error) {
	if req.UserID == "" {
		return nil, ErrMissingUserID
	}

	revoked, err := s.keys.DeleteUserAPIKeys(ctx, req.UserID)
	if err != nil {
		return revoked, err
	}

	if err := s.users.DeleteUser(ctx, req.UserID); err != nil {
		return revoked, err
	}

	log.Info().Str("user_id", req.UserID).Int("keys_deleted", len(revoked)).Msg("deleted user")
	return revoked, nil
}
