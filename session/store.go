// Package session persists the client's credential pair and user snapshot.
//
// Values live under the fixed keys access_token, refresh_token and user in a
// key-value Backend, the same layout a browser client keeps in local storage.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/pamojavote/pamoja-go/models"
)

const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
)

var (
	// ErrIncompleteCredentials is returned when storing a pair with a missing token.
	ErrIncompleteCredentials = errors.New("credentials must carry both access and refresh tokens")
	// ErrInvalidUser is returned when the stored user snapshot cannot be decoded.
	ErrInvalidUser = errors.New("stored user snapshot is invalid")
)

// Backend is a minimal key-value store. Get returns only the keys that exist.
type Backend interface {
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// Store is the session state shared by the gateway and the auth client.
type Store interface {
	Credentials(ctx context.Context) (models.Credentials, error)
	SetCredentials(ctx context.Context, creds models.Credentials) error
	SetAccess(ctx context.Context, access string) error
	User(ctx context.Context) (*models.User, error)
	SetUser(ctx context.Context, user models.User) error
	Clear(ctx context.Context) error
}

// KVStore implements Store on top of a Backend.
type KVStore struct {
	backend Backend
}

func New(backend Backend) *KVStore {
	return &KVStore{backend: backend}
}

func (s *KVStore) Credentials(ctx context.Context) (models.Credentials, error) {
	values, err := s.backend.Get(ctx, KeyAccessToken, KeyRefreshToken)
	if err != nil {
		return models.Credentials{}, fmt.Errorf("failed to read credentials: %w", err)
	}
	return models.Credentials{
		Access:  values[KeyAccessToken],
		Refresh: values[KeyRefreshToken],
	}, nil
}

func (s *KVStore) SetCredentials(ctx context.Context, creds models.Credentials) error {
	if !creds.Complete() {
		return ErrIncompleteCredentials
	}
	if err := s.backend.SetMany(ctx, map[string]string{
		KeyAccessToken:  creds.Access,
		KeyRefreshToken: creds.Refresh,
	}); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	return nil
}

// SetAccess replaces the access token after a renewal, leaving the refresh
// token untouched.
func (s *KVStore) SetAccess(ctx context.Context, access string) error {
	if access == "" {
		return ErrIncompleteCredentials
	}
	if err := s.backend.SetMany(ctx, map[string]string{KeyAccessToken: access}); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	return nil
}

// User returns the cached snapshot, or nil when none is stored.
func (s *KVStore) User(ctx context.Context) (*models.User, error) {
	values, err := s.backend.Get(ctx, KeyUser)
	if err != nil {
		return nil, fmt.Errorf("failed to read user snapshot: %w", err)
	}
	raw, ok := values[KeyUser]
	if !ok || raw == "" {
		return nil, nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUser, err)
	}
	return &user, nil
}

func (s *KVStore) SetUser(ctx context.Context, user models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user snapshot: %w", err)
	}
	if err := s.backend.SetMany(ctx, map[string]string{KeyUser: string(raw)}); err != nil {
		return fmt.Errorf("failed to store user snapshot: %w", err)
	}
	return nil
}

// Clear removes the credential pair and the user snapshot together.
func (s *KVStore) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, KeyAccessToken, KeyRefreshToken, KeyUser); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Close releases the backend when it holds a connection.
func (s *KVStore) Close() error {
	if closer, ok := s.backend.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
