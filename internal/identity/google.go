package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/shopzen/storefront/internal/domain"
)

// Verifier checks a third-party identity assertion and returns the verified
// profile claims. Implementations treat the provider as a black box.
type Verifier interface {
	Verify(ctx context.Context, credential string) (*domain.ExternalIdentity, error)
}

const defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleConfig holds Google ID-token verification settings.
type GoogleConfig struct {
	ClientID     string
	TokenInfoURL string
	HTTPClient   *http.Client
}

// GoogleVerifier validates Google ID tokens against the tokeninfo endpoint.
type GoogleVerifier struct {
	config     GoogleConfig
	httpClient *http.Client
}

func NewGoogleVerifier(cfg GoogleConfig) *GoogleVerifier {
	if cfg.TokenInfoURL == "" {
		cfg.TokenInfoURL = defaultTokenInfoURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &GoogleVerifier{
		config:     cfg,
		httpClient: client,
	}
}

type tokenInfoResponse struct {
	Sub           string `json:"sub"`
	Aud           string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
}

func (v *GoogleVerifier) Verify(ctx context.Context, credential string) (*domain.ExternalIdentity, error) {
	if credential == "" {
		return nil, domain.ErrIdentityAssertion
	}

	endpoint := v.config.TokenInfoURL + "?id_token=" + url.QueryEscape(credential)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.ErrIdentityAssertion
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, domain.ErrIdentityAssertion
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.ErrIdentityAssertion
	}

	var info tokenInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, domain.ErrIdentityAssertion
	}

	// The token must have been minted for this application.
	if v.config.ClientID != "" && info.Aud != v.config.ClientID {
		return nil, domain.ErrIdentityAssertion
	}
	if info.Sub == "" {
		return nil, domain.ErrIdentityAssertion
	}

	// An unverified email claim must never drive account linking.
	if info.EmailVerified != "true" {
		info.Email = ""
	}

	return &domain.ExternalIdentity{
		ExternalID: info.Sub,
		Email:      info.Email,
		Name:       info.Name,
	}, nil
}
