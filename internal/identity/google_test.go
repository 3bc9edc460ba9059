package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopzen/storefront/internal/domain"
)

func newTokenInfoServer(t *testing.T, status int, body map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id_token") == "" {
			t.Error("Expected id_token query parameter")
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
}

func TestGoogleVerifier_Success(t *testing.T) {
	server := newTokenInfoServer(t, http.StatusOK, map[string]string{
		"sub":            "g-123",
		"aud":            "client-1",
		"email":          "a@gmail.com",
		"email_verified": "true",
		"name":           "Ada Lovelace",
	})
	defer server.Close()

	v := NewGoogleVerifier(GoogleConfig{ClientID: "client-1", TokenInfoURL: server.URL})

	id, err := v.Verify(context.Background(), "some-credential")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if id.ExternalID != "g-123" || id.Email != "a@gmail.com" || id.Name != "Ada Lovelace" {
		t.Errorf("Unexpected identity: %+v", id)
	}
}

func TestGoogleVerifier_AudienceMismatch(t *testing.T) {
	server := newTokenInfoServer(t, http.StatusOK, map[string]string{
		"sub": "g-123",
		"aud": "someone-else",
	})
	defer server.Close()

	v := NewGoogleVerifier(GoogleConfig{ClientID: "client-1", TokenInfoURL: server.URL})

	if _, err := v.Verify(context.Background(), "some-credential"); err != domain.ErrIdentityAssertion {
		t.Fatalf("Expected ErrIdentityAssertion, got %v", err)
	}
}

func TestGoogleVerifier_RejectedToken(t *testing.T) {
	server := newTokenInfoServer(t, http.StatusBadRequest, map[string]string{
		"error": "invalid_token",
	})
	defer server.Close()

	v := NewGoogleVerifier(GoogleConfig{ClientID: "client-1", TokenInfoURL: server.URL})

	if _, err := v.Verify(context.Background(), "bad-credential"); err != domain.ErrIdentityAssertion {
		t.Fatalf("Expected ErrIdentityAssertion, got %v", err)
	}
}

func TestGoogleVerifier_UnverifiedEmailDropped(t *testing.T) {
	server := newTokenInfoServer(t, http.StatusOK, map[string]string{
		"sub":            "g-123",
		"aud":            "client-1",
		"email":          "a@gmail.com",
		"email_verified": "false",
		"name":           "Ada Lovelace",
	})
	defer server.Close()

	v := NewGoogleVerifier(GoogleConfig{ClientID: "client-1", TokenInfoURL: server.URL})

	id, err := v.Verify(context.Background(), "some-credential")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if id.Email != "" {
		t.Errorf("Unverified email must not surface, got %q", id.Email)
	}
}

func TestGoogleVerifier_EmptyCredential(t *testing.T) {
	v := NewGoogleVerifier(GoogleConfig{ClientID: "client-1"})

	if _, err := v.Verify(context.Background(), ""); err != domain.ErrIdentityAssertion {
		t.Fatalf("Expected ErrIdentityAssertion, got %v", err)
	}
}
