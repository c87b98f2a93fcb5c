package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/evergreen-games/ecocity/internal/apperrors"
)

func TestStaticVerifier(t *testing.T) {
	t.Parallel()

	v := NewStaticVerifier(map[string]string{"tok-1": "user-1"})

	userID, err := v.Verify(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("userID = %q, want user-1", userID)
	}

	if _, err := v.Verify(context.Background(), "unknown"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	v.Register("tok-2", "user-2")
	if userID, err := v.Verify(context.Background(), "tok-2"); err != nil || userID != "user-2" {
		t.Fatalf("registered token did not resolve: %q, %v", userID, err)
	}
}

func TestFromRequest(t *testing.T) {
	t.Parallel()

	v := NewStaticVerifier(map[string]string{"tok-1": "user-1"})

	tests := []struct {
		name       string
		header     string
		wantUserID string
		wantErr    bool
	}{
		{name: "valid bearer", header: "Bearer tok-1", wantUserID: "user-1"},
		{name: "missing header", header: "", wantErr: true},
		{name: "wrong scheme", header: "Basic tok-1", wantErr: true},
		{name: "empty token", header: "Bearer ", wantErr: true},
		{name: "unknown token", header: "Bearer nope", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			userID, err := FromRequest(context.Background(), v, r)
			if tt.wantErr {
				if !errors.Is(err, apperrors.ErrUnauthorized) {
					t.Fatalf("expected unauthorized, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromRequest failed: %v", err)
			}
			if userID != tt.wantUserID {
				t.Fatalf("userID = %q, want %q", userID, tt.wantUserID)
			}
		})
	}
}

func TestIsAuthError(t *testing.T) {
	t.Parallel()

	if !IsAuthError(ErrInvalidToken) {
		t.Fatal("ErrInvalidToken should be an auth error")
	}
	if IsAuthError(errors.New("other")) {
		t.Fatal("unrelated errors are not auth errors")
	}
}
