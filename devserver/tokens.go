package devserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var errInvalidToken = errors.New("token is invalid or expired")

type tokenClaims struct {
	TokenType string `json:"token_type"`
	UserID    string `json:"user_id"`
	// Generation is bumped per token type to revoke every outstanding token
	// of that type at once.
	Generation int `json:"gen"`
	jwt.RegisteredClaims
}

type tokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time

	mu          sync.Mutex
	generations map[string]int
	blacklist   map[string]struct{}
}

func newTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *tokenIssuer {
	return &tokenIssuer{
		secret:      []byte(secret),
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		now:         time.Now,
		generations: make(map[string]int),
		blacklist:   make(map[string]struct{}),
	}
}

func (t *tokenIssuer) issuePair(userID string) (access, refresh string, err error) {
	if access, err = t.issue(userID, tokenTypeAccess, t.accessTTL); err != nil {
		return "", "", err
	}
	if refresh, err = t.issue(userID, tokenTypeRefresh, t.refreshTTL); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (t *tokenIssuer) issue(userID, tokenType string, ttl time.Duration) (string, error) {
	t.mu.Lock()
	generation := t.generations[tokenType]
	t.mu.Unlock()

	now := t.now()
	claims := tokenClaims{
		TokenType:  tokenType,
		UserID:     userID,
		Generation: generation,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (t *tokenIssuer) parse(token, tokenType string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if claims.TokenType != tokenType {
		return nil, fmt.Errorf("%w: expected %s token", errInvalidToken, tokenType)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if claims.Generation != t.generations[tokenType] {
		return nil, fmt.Errorf("%w: %s token revoked", errInvalidToken, tokenType)
	}
	if _, ok := t.blacklist[claims.ID]; ok {
		return nil, fmt.Errorf("%w: token is blacklisted", errInvalidToken)
	}
	return claims, nil
}

// verifyAccess implements middleware.TokenVerifier.
func (t *tokenIssuer) verifyAccess(_ context.Context, token string) (string, error) {
	claims, err := t.parse(token, tokenTypeAccess)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func (t *tokenIssuer) revoke(claims *tokenClaims) {
	t.mu.Lock()
	t.blacklist[claims.ID] = struct{}{}
	t.mu.Unlock()
}

func (t *tokenIssuer) expireAccessTokens() {
	t.mu.Lock()
	t.generations[tokenTypeAccess]++
	t.mu.Unlock()
}

func (t *tokenIssuer) revokeRefreshTokens() {
	t.mu.Lock()
	t.generations[tokenTypeRefresh]++
	t.mu.Unlock()
}
