package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrNotFound means the provider has no account for the external id.
	ErrNotFound = errors.New("identity not found")
	// ErrProvider covers transport failures and non-2xx provider responses.
	ErrProvider = errors.New("identity provider error")
)

// ProfileSnapshot is the subset of the provider's user payload the ledger
// keeps locally.
type ProfileSnapshot struct {
	ExternalID string
	Email      string
	Username   string
	Photo      string
	FirstName  string
	LastName   string
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type userPayload struct {
	ID             string `json:"id"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
	Username  string `json:"username"`
	ImageURL  string `json:"image_url"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Fetch performs a single lookup against the identity provider. No retries
// here; callers own the retry policy.
func (c *Client) Fetch(ctx context.Context, externalID string) (*ProfileSnapshot, error) {
	endpoint := c.baseURL + "/users/" + url.PathEscape(externalID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrProvider, resp.StatusCode)
	}

	var payload userPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrProvider, err)
	}

	snap := &ProfileSnapshot{
		ExternalID: payload.ID,
		Username:   payload.Username,
		Photo:      payload.ImageURL,
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
	}
	if snap.ExternalID == "" {
		snap.ExternalID = externalID
	}
	if len(payload.EmailAddresses) > 0 {
		snap.Email = payload.EmailAddresses[0].EmailAddress
	}
	return snap, nil
}
