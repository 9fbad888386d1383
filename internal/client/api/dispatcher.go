// Package api is the single chokepoint for authenticated HTTP calls. Every
// resource request flows through the Dispatcher, which asks the session
// guard for a fresh token, attaches the bearer header, and maps non-2xx
// responses to a uniform error shape.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ndemidov/cargotrail/internal/client/models"
	"github.com/ndemidov/cargotrail/internal/logging"
)

// SessionGuard is the slice of the session guard the dispatcher needs.
type SessionGuard interface {
	EnsureFreshToken(ctx context.Context) (*models.TokenRecord, error)
}

// Dispatcher issues authenticated requests against the CargoTrail API.
// It never retries on its own; retries, if any, belong to the caller.
type Dispatcher struct {
	baseURL    string
	guard      SessionGuard
	httpClient *http.Client
	log        logging.Logger
}

// NewDispatcher builds a Dispatcher for the given API base URL. A nil
// httpClient falls back to http.DefaultClient.
func NewDispatcher(baseURL string, guard SessionGuard, httpClient *http.Client, log logging.Logger) *Dispatcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Dispatcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		guard:      guard,
		httpClient: httpClient,
		log:        log,
	}
}

// Do performs one authenticated request and returns the raw response body
// on 2xx. Non-2xx responses yield *HTTPError; session-guard failures
// (including session.ErrSessionExpired) propagate unchanged so the shell
// can force a re-login.
func (d *Dispatcher) Do(ctx context.Context, method, path string, body io.Reader, headers http.Header) ([]byte, error) {
	rec, err := d.guard.EnsureFreshToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Authorization", "Bearer "+rec.AccessToken)
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		d.log.Debug(ctx, "request rejected", "method", method, "path", path, "status", resp.StatusCode)
		return nil, &HTTPError{Status: resp.StatusCode, Payload: payload}
	}

	return payload, nil
}

// GetJSON fetches path and unmarshals the body into out. A nil out discards
// the body.
func (d *Dispatcher) GetJSON(ctx context.Context, path string, out any) error {
	payload, err := d.Do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	return decode(payload, out)
}

// PostJSON sends in as a JSON body and unmarshals the response into out.
func (d *Dispatcher) PostJSON(ctx context.Context, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	payload, err := d.Do(ctx, http.MethodPost, path, bytes.NewReader(data), headers)
	if err != nil {
		return err
	}
	return decode(payload, out)
}

// Options performs a header-only introspection request and returns the
// response headers. Same auth-attachment contract as any other call.
func (d *Dispatcher) Options(ctx context.Context, path string) (http.Header, error) {
	rec, err := d.guard.EnsureFreshToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, d.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+rec.AccessToken)
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{Status: resp.StatusCode}
	}

	return resp.Header, nil
}

// UploadMultipart sends content as a multipart form file under field and
// unmarshals the response into out (nil out discards it).
func (d *Dispatcher) UploadMultipart(ctx context.Context, path, field, filename string, content io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("failed to create multipart field: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("failed to write multipart content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", mw.FormDataContentType())

	payload, err := d.Do(ctx, http.MethodPost, path, &buf, headers)
	if err != nil {
		return err
	}
	return decode(payload, out)
}

func decode(payload []byte, out any) error {
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
