package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/ndemidov/cargotrail/internal/client/api"
	"github.com/ndemidov/cargotrail/internal/client/models"
	"github.com/ndemidov/cargotrail/internal/client/repositories/cache"
	"github.com/ndemidov/cargotrail/internal/client/session"
	"github.com/ndemidov/cargotrail/internal/common"
	"github.com/ndemidov/cargotrail/internal/logging"
)

const shipmentsPath = "/shipments/"

// Requester is the slice of the request dispatcher the service needs.
type Requester interface {
	Do(ctx context.Context, method, path string, body io.Reader, headers http.Header) ([]byte, error)
	UploadMultipart(ctx context.Context, path, field, filename string, content io.Reader, out any) error
}

// ShipmentService reads shipments through the dispatcher with a cache-aside
// local copy, so the last known state is available when the server is not.
type ShipmentService struct {
	api   Requester
	cache cache.Repository
	log   logging.Logger
}

func NewShipmentService(api Requester, cache cache.Repository, log logging.Logger) *ShipmentService {
	return &ShipmentService{api: api, cache: cache, log: log}
}

// List fetches all shipments. On a transport failure it falls back to the
// cached payload, if any; auth failures and HTTP rejections propagate.
func (s *ShipmentService) List(ctx context.Context) ([]models.Shipment, error) {
	payload, err := s.api.Do(ctx, http.MethodGet, shipmentsPath, nil, nil)
	if err != nil {
		payload, err = s.fallback(ctx, shipmentsPath, err)
		if err != nil {
			return nil, err
		}
	} else if cacheErr := s.cache.Put(ctx, shipmentsPath, payload); cacheErr != nil {
		s.log.Warn(ctx, "failed to cache shipments", "error", cacheErr)
	}

	var shipments []models.Shipment
	if err := json.Unmarshal(payload, &shipments); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shipments: %w", err)
	}
	return shipments, nil
}

// Get fetches a single shipment by id, with the same cache-aside behavior
// as List. A 404 maps to common.ErrNotFound.
func (s *ShipmentService) Get(ctx context.Context, id string) (*models.Shipment, error) {
	path := shipmentsPath + id + "/"

	payload, err := s.api.Do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		if api.IsNotFound(err) {
			return nil, fmt.Errorf("shipment %s: %w", id, common.ErrNotFound)
		}
		payload, err = s.fallback(ctx, path, err)
		if err != nil {
			return nil, err
		}
	} else if cacheErr := s.cache.Put(ctx, path, payload); cacheErr != nil {
		s.log.Warn(ctx, "failed to cache shipment", "id", id, "error", cacheErr)
	}

	var shipment models.Shipment
	if err := json.Unmarshal(payload, &shipment); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shipment: %w", err)
	}
	return &shipment, nil
}

// Create posts a new shipment and invalidates the list cache on success.
func (s *ShipmentService) Create(ctx context.Context, shipment *models.Shipment) (*models.Shipment, error) {
	data, err := json.Marshal(shipment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal shipment: %w", err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	payload, err := s.api.Do(ctx, http.MethodPost, shipmentsPath, bytes.NewReader(data), headers)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, shipmentsPath); err != nil {
		s.log.Warn(ctx, "failed to invalidate shipment list cache", "error", err)
	}

	var created models.Shipment
	if err := json.Unmarshal(payload, &created); err != nil {
		return nil, fmt.Errorf("failed to unmarshal created shipment: %w", err)
	}
	return &created, nil
}

// Sync asks the backend to re-pull tracker data for a shipment. Transient
// transport failures are retried once; a 404 maps to common.ErrNotFound so
// the caller can tell "no such shipment" from a generic failure.
func (s *ShipmentService) Sync(ctx context.Context, id string) error {
	path := shipmentsPath + id + "/sync/"

	backoff := retry.WithMaxRetries(1, retry.NewConstant(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if _, err := s.api.Do(ctx, http.MethodPost, path, nil, nil); err != nil {
			var he *api.HTTPError
			if errors.As(err, &he) || errors.Is(err, session.ErrSessionExpired) {
				return err // rejected, not transient
			}
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("shipment %s: %w", id, common.ErrNotFound)
		}
		return fmt.Errorf("sync failed: %w", err)
	}

	if err := s.cache.Invalidate(ctx, shipmentsPath+id+"/"); err != nil {
		s.log.Warn(ctx, "failed to invalidate shipment cache", "id", id, "error", err)
	}
	return nil
}

// UploadManifest sends a shipment manifest file to the reporting endpoint.
func (s *ShipmentService) UploadManifest(ctx context.Context, filename string, content io.Reader) error {
	return s.api.UploadMultipart(ctx, "/reports/upload/", "report", filename, content, nil)
}

// fallback serves a cached payload when the original request failed on
// transport. Auth failures and HTTP rejections are never masked by stale
// data, and a miss reports the original error.
func (s *ShipmentService) fallback(ctx context.Context, key string, cause error) ([]byte, error) {
	var he *api.HTTPError
	if errors.As(cause, &he) || errors.Is(cause, session.ErrSessionExpired) {
		return nil, cause
	}

	entry, err := s.cache.Get(ctx, key)
	if err != nil || entry == nil {
		return nil, cause
	}

	s.log.Warn(ctx, "server unreachable, serving cached data",
		"key", key, "fetched_at", entry.FetchedAt, "error", cause)
	return entry.Payload, nil
}
