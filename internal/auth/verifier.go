package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/evergreen-games/ecocity/internal/apperrors"
)

// ErrInvalidToken is returned when a token cannot be resolved to a
// participant.
var ErrInvalidToken = fmt.Errorf("invalid token: %w", apperrors.ErrUnauthorized)

// Verifier resolves a bearer token to a participant id. Every core
// operation requires a verified identity injected by this collaborator.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// StaticVerifier maps tokens to user ids from a fixed table. Meant for
// development and tests; production deployments plug in a real token
// service behind the Verifier interface.
type StaticVerifier struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewStaticVerifier creates a verifier over a token -> userID table.
func NewStaticVerifier(tokens map[string]string) *StaticVerifier {
	cp := make(map[string]string, len(tokens))
	for k, v := range tokens {
		cp[k] = v
	}
	return &StaticVerifier{tokens: cp}
}

// Verify implements Verifier.
func (v *StaticVerifier) Verify(_ context.Context, token string) (string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	userID, ok := v.tokens[token]
	if !ok {
		return "", ErrInvalidToken
	}
	return userID, nil
}

// Register adds or replaces a token mapping.
func (v *StaticVerifier) Register(token, userID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tokens[token] = userID
}

// FromRequest extracts and verifies the bearer token of an HTTP
// request.
func FromRequest(ctx context.Context, v Verifier, r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", ErrInvalidToken
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" {
		return "", ErrInvalidToken
	}
	return v.Verify(ctx, token)
}

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	return errors.Is(err, apperrors.ErrUnauthorized)
}
