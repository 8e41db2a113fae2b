package identity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pixora/credits-backend/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const providerPayload = `{
	"id": "user_abc123",
	"email_addresses": [
		{"email_address": "ada@example.com"},
		{"email_address": "secondary@example.com"}
	],
	"username": "ada",
	"image_url": "https://img.example.com/ada.png",
	"first_name": "Ada",
	"last_name": "Lovelace"
}`

func TestClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/user_abc123", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(providerPayload))
	}))
	defer server.Close()

	client := identity.NewClient(server.URL, "sk_test_secret")
	snap, err := client.Fetch(context.Background(), "user_abc123")
	require.NoError(t, err)

	assert.Equal(t, "user_abc123", snap.ExternalID)
	assert.Equal(t, "ada@example.com", snap.Email)
	assert.Equal(t, "ada", snap.Username)
	assert.Equal(t, "https://img.example.com/ada.png", snap.Photo)
	assert.Equal(t, "Ada", snap.FirstName)
	assert.Equal(t, "Lovelace", snap.LastName)
}

func TestClient_Fetch_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := identity.NewClient(server.URL, "sk_test_secret")
	_, err := client.Fetch(context.Background(), "ghost")
	assert.ErrorIs(t, err, identity.ErrNotFound)
}

func TestClient_Fetch_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := identity.NewClient(server.URL, "sk_test_secret")
	_, err := client.Fetch(context.Background(), "user_abc123")
	assert.ErrorIs(t, err, identity.ErrProvider)
}

func TestClient_Fetch_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := identity.NewClient(server.URL, "sk_test_secret")
	_, err := client.Fetch(context.Background(), "user_abc123")
	assert.ErrorIs(t, err, identity.ErrProvider)
}

func TestClient_Fetch_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := identity.NewClient(server.URL, "sk_test_secret")
	_, err := client.Fetch(context.Background(), "user_abc123")
	assert.ErrorIs(t, err, identity.ErrProvider)
}

func TestClient_Fetch_EmptyPayloadKeepsExternalID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := identity.NewClient(server.URL, "sk_test_secret")
	snap, err := client.Fetch(context.Background(), "user_abc123")
	require.NoError(t, err)
	assert.Equal(t, "user_abc123", snap.ExternalID)
	assert.Empty(t, snap.Email)
}
