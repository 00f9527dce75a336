package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/sgrent/internal/core/domain"
	"github.com/samirrijal/sgrent/internal/core/ports"
	"github.com/samirrijal/sgrent/internal/pkg/geospatial"
	"github.com/samirrijal/sgrent/internal/pkg/metrics"
)

// Lookup outcomes, used as metric labels.
const (
	outcomeFound    = "found"
	outcomeEmpty    = "empty"
	outcomeError    = "error"
	outcomeTimeout  = "timeout"
	outcomeCanceled = "canceled"
	outcomeCached   = "cached"
)

// AddressService turns a selected point into a displayable address.
type AddressService struct {
	geocoder ports.ReverseGeocoder
	cache    ports.CacheService
	reporter ports.ErrorReporter
	timeout  time.Duration
	ttl      time.Duration
}

// NewAddressService creates a new AddressService. cache and reporter may be
// nil; zero durations fall back to the defaults.
func NewAddressService(geocoder ports.ReverseGeocoder, cache ports.CacheService, reporter ports.ErrorReporter, timeout, ttl time.Duration) *AddressService {
	if timeout <= 0 {
		timeout = DefaultAddressTimeout
	}
	if ttl <= 0 {
		ttl = DefaultAddressTTL
	}
	return &AddressService{geocoder: geocoder, cache: cache, reporter: reporter, timeout: timeout, ttl: ttl}
}

// Resolve never fails: lookup problems come back as one of the placeholder
// texts with Found unset.
func (s *AddressService) Resolve(ctx context.Context, p domain.GeoPoint) domain.Address {
	projected := geospatial.ProjectToLocalPlane(p)
	cacheKey := fmt.Sprintf("address:%.0f:%.0f", projected.Easting, projected.Northing)

	// The timeout covers the cache read too; a stalled remote cache must not
	// stretch the lookup.
	lookupCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.cache != nil {
		if data, err := s.cache.Get(lookupCtx, cacheKey); err == nil && len(data) > 0 {
			metrics.GeocodeRequests.WithLabelValues(outcomeCached).Inc()
			return domain.Address{Text: string(data), Found: true, CacheHit: true}
		}
	}

	start := time.Now()
	candidates, err := s.geocoder.ReverseGeocode(lookupCtx, projected)
	metrics.GeocodeDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil && len(candidates) == 0:
		metrics.GeocodeRequests.WithLabelValues(outcomeEmpty).Inc()
		return domain.Address{Text: domain.AddressNotFound}

	case err == nil:
		text := FormatAddress(candidates[0])
		metrics.GeocodeRequests.WithLabelValues(outcomeFound).Inc()
		if s.cache != nil {
			if err := s.cache.Set(lookupCtx, cacheKey, []byte(text), int(s.ttl.Seconds())); err != nil {
				slog.Debug("address cache write failed", "key", cacheKey, "error", err)
			}
		}
		return domain.Address{Text: text, Found: true}

	case ctx.Err() != nil:
		// The caller moved on; nobody will see this result.
		metrics.GeocodeRequests.WithLabelValues(outcomeCanceled).Inc()
		slog.Debug("address lookup canceled", "lat", p.Lat, "lng", p.Lng)
		return domain.Address{Text: domain.AddressNotFound}

	case errors.Is(err, context.DeadlineExceeded) || lookupCtx.Err() != nil:
		metrics.GeocodeRequests.WithLabelValues(outcomeTimeout).Inc()
		slog.Warn("address lookup timed out",
			"geocoder", s.geocoder.Name(),
			"timeout", s.timeout,
			"lat", p.Lat, "lng", p.Lng,
		)
		return domain.Address{Text: domain.AddressNotFound}

	default:
		err = fmt.Errorf("%w: %s: %v", domain.ErrAddressLookupFailed, s.geocoder.Name(), err)
		metrics.GeocodeRequests.WithLabelValues(outcomeError).Inc()
		slog.Error("address lookup failed",
			"error", err,
			"lat", p.Lat, "lng", p.Lng,
			"x", projected.Easting, "y", projected.Northing,
		)
		if s.reporter != nil {
			s.reporter.Report(ctx, err, map[string]string{"geocoder": s.geocoder.Name()})
		}
		return domain.Address{Text: domain.AddressLookupError}
	}
}

// FormatAddress renders a candidate as "<BUILDINGNAME> BLOCK <BLOCK>".
func FormatAddress(c domain.GeocodeCandidate) string {
	return c.BuildingName + " BLOCK " + c.Block
}
