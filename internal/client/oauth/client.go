// Package oauth implements the password-grant and refresh-grant exchanges
// against the CargoTrail authorization endpoint. The client is stateless:
// it turns credentials into token records and nothing else. Persisting the
// result is the session store's job.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ndemidov/cargotrail/internal/client/models"
)

const tokenPath = "/oauth/token/"

// Client performs OAuth token exchanges.
type Client struct {
	baseURL    string
	clientID   string
	httpClient *http.Client

	// now is a test seam for time.Now.
	now func() time.Time
}

// NewClient builds a Client for the given API base URL and OAuth client id.
// A nil httpClient falls back to http.DefaultClient.
func NewClient(baseURL, clientID string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   clientID,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// tokenResponse is the authorization endpoint's success body (RFC 6749).
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// errorResponse is the authorization endpoint's rejection body.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// accessClaims are the claims the CargoTrail backend embeds in access tokens.
// The client performs an unverified parse only, to recover the user snapshot
// and, when expires_in is absent, the expiry instant. Verification is the
// server's concern.
type accessClaims struct {
	Organization string `json:"org"`
	DisplayName  string `json:"name"`
	jwt.RegisteredClaims
}

// PasswordGrant exchanges a username/password pair for a token record.
// Returns ErrInvalidCredentials on a 4xx rejection and ErrNetwork on
// transport or server failure.
func (c *Client) PasswordGrant(ctx context.Context, username string, password []byte) (*models.TokenRecord, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", username)
	form.Set("password", string(password))
	form.Set("client_id", c.clientID)

	return c.exchange(ctx, form, ErrInvalidCredentials)
}

// RefreshGrant exchanges a refresh token for a new token pair. Returns
// ErrRefreshRejected when the server rejects the refresh token (expired or
// revoked) and ErrNetwork on transport or server failure.
func (c *Client) RefreshGrant(ctx context.Context, refreshToken string) (*models.TokenRecord, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", c.clientID)

	return c.exchange(ctx, form, ErrRefreshRejected)
}

// exchange posts the form to the token endpoint and maps the response.
// rejectErr is the sentinel returned for a 4xx rejection of this grant type.
func (c *Client) exchange(ctx context.Context, form url.Values, rejectErr error) (*models.TokenRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrNetwork, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// fall through to parsing
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var er errorResponse
		if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
			return nil, fmt.Errorf("%w: %s", rejectErr, er.Error)
		}
		return nil, rejectErr
	default:
		return nil, fmt.Errorf("%w: status %d", ErrNetwork, resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("%w: malformed token response: %v", ErrNetwork, err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token in response", ErrNetwork)
	}

	return c.buildRecord(&tr), nil
}

// buildRecord converts a wire response into a TokenRecord, fixing the expiry
// to an absolute instant at the moment of issuance.
func (c *Client) buildRecord(tr *tokenResponse) *models.TokenRecord {
	rec := &models.TokenRecord{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
	}
	if rec.TokenType == "" {
		rec.TokenType = "Bearer"
	}

	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tr.AccessToken, &claims); err == nil {
		rec.User = models.UserSnapshot{
			ID:           claims.Subject,
			Organization: claims.Organization,
			DisplayName:  claims.DisplayName,
		}
		if claims.ExpiresAt != nil {
			rec.ExpiresAt = claims.ExpiresAt.Time
		}
	}

	// the declared lifetime wins over the token's own exp claim
	if tr.ExpiresIn > 0 {
		rec.ExpiresAt = c.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}

	return rec
}
