// Package models defines plain data types shared by the session, oauth,
// and service layers of the CargoTrail client.
package models

import "time"

// UserSnapshot is the authenticated-user view carried alongside a token:
// enough to render "who am I" without an extra round trip.
type UserSnapshot struct {
	ID           string `json:"id"`
	Organization string `json:"organization"`
	DisplayName  string `json:"display_name"`
}

// TokenRecord is the current token pair plus its absolute expiry instant.
// ExpiresAt is always computed at issuance/refresh time from the server's
// declared lifetime, never stored as a relative duration. At most one record
// is current at a time; it is owned by the session store.
type TokenRecord struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	TokenType    string       `json:"token_type"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         UserSnapshot `json:"user"`
}
