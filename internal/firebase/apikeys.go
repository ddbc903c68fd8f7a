package firebase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/arod1104/uic-gradebook/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	apiKeysCollection = "api_keys"
	// adminKeyDocID is the reserved document holding the admin key.
	adminKeyDocID = "admin"
)

func (c *Firestore) keys() *firestore.CollectionRef {
	return c.Collection(apiKeysCollection)
}

// CreateAPIKey stores key under a freshly generated UUID and returns it.
func (c *Firestore) CreateAPIKey(ctx context.Context, key types.APIKey) (string, error) {
	key.Key = uuid.New().String()
	key.CreatedAt = time.Now()
	key.UsageCount = 0

	if _, err := c.keys().Doc(key.Key).Create(ctx, key); err != nil {
		return "", fmt.Errorf("failed to store API key: %w", err)
	}
	return key.Key, nil
}

// CreateUserAPIKey issues a key of the given tier to userID.
func (c *Firestore) CreateUserAPIKey(ctx context.Context, userID, tier, useCase string) (string, error) {
	limit, ok := types.Tiers[tier]
	if !ok {
		return "", fmt.Errorf("unknown tier %q", tier)
	}

	return c.CreateAPIKey(ctx, types.APIKey{
		UserID:        userID,
		Tier:          tier,
		UseCase:       useCase,
		RateLimit:     limit.RateLimit,
		WindowSeconds: limit.WindowSeconds,
	})
}

// ValidateAPIKey looks a key up. A key that does not exist yields nil, nil.
func (c *Firestore) ValidateAPIKey(ctx context.Context, key string) (*types.APIKey, error) {
	apiKey, err := c.GetAPIKey(ctx, key)
	if errors.Is(err, types.ErrAPIKeyNotFound) {
		return nil, nil
	}
	// Expiry is checked by the auth middleware.
	return apiKey, err
}

// UpdateKeyUsage updates last used and usage count
func (c *Firestore) UpdateKeyUsage(ctx context.Context, key string) error {
	_, err := c.keys().Doc(key).Update(ctx, []firestore.Update{
		{Path: "usage_count", Value: firestore.Increment(1)},
		{Path: "last_used_at", Value: firestore.ServerTimestamp},
	})
	return err
}

func (c *Firestore) GetAPIKey(ctx context.Context, key string) (*types.APIKey, error) {
	if !validDocID(key) || key == adminKeyDocID {
		return nil, types.ErrAPIKeyNotFound
	}

	doc, err := c.keys().Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, types.ErrAPIKeyNotFound
		}
		return nil, err
	}

	var apiKey types.APIKey
	if err := doc.DataTo(&apiKey); err != nil {
		return nil, err
	}

	return &apiKey, nil
}

// DeleteAPIKey revokes a key.
func (c *Firestore) DeleteAPIKey(ctx context.Context, key string) error {
	if !validDocID(key) || key == adminKeyDocID {
		return types.ErrAPIKeyNotFound
	}

	if _, err := c.keys().Doc(key).Delete(ctx, firestore.Exists); err != nil {
		if status.Code(err) == codes.NotFound {
			return types.ErrAPIKeyNotFound
		}
		return fmt.Errorf("failed to delete API key: %w", err)
	}
	return nil
}

// DeleteUserAPIKeys deletes every key issued to userID and returns the keys
// that were removed.
func (c *Firestore) DeleteUserAPIKeys(ctx context.Context, userID string) ([]string, error) {
	iter := c.keys().Where("user_id", "==", userID).Documents(ctx)
	defer iter.Stop()

	batch := c.BulkWriter(ctx)

	var (
		jobs []*firestore.BulkWriterJob
		ids  []string
	)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			batch.End()
			return nil, fmt.Errorf("failed to iterate API keys: %w", err)
		}

		job, err := batch.Delete(doc.Ref)
		if err != nil {
			batch.End()
			return nil, fmt.Errorf("failed to queue API key deletion: %w", err)
		}
		jobs = append(jobs, job)
		ids = append(ids, doc.Ref.ID)
	}

	batch.End()

	deleted := make([]string, 0, len(jobs))
	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return deleted, fmt.Errorf("failed to delete API key: %w", err)
		}
		deleted = append(deleted, ids[i])
	}

	return deleted, nil
}

// EnsureAdminKey returns the admin key, in order of preference: configured,
// the one stored in the reserved admin document, or a newly generated one
// that is stored for the next start.
func (c *Firestore) EnsureAdminKey(ctx context.Context, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	doc, err := c.keys().Doc(adminKeyDocID).Get(ctx)
	if err == nil && doc.Exists() {
		var stored types.APIKey
		if err := doc.DataTo(&stored); err == nil && stored.Key != "" {
			return stored.Key, nil
		}
	} else if err != nil && status.Code(err) != codes.NotFound {
		return "", fmt.Errorf("failed to read admin key: %w", err)
	}

	keyBytes := make([]byte, 16)
	if _, err := rand.Read(keyBytes); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	adminKey := "admin-" + hex.EncodeToString(keyBytes)

	_, err = c.keys().Doc(adminKeyDocID).Set(ctx, types.APIKey{
		Key:       adminKey,
		Tier:      types.TierAdmin,
		IsAdmin:   true,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to store admin key: %w", err)
	}

	log.Warn().Str("admin_key", adminKey).Msg("admin key generated")
	return adminKey, nil
}
