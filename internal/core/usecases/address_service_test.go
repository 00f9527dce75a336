package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/sgrent/internal/core/domain"
	"github.com/samirrijal/sgrent/internal/core/usecases"
	"github.com/samirrijal/sgrent/internal/pkg/geospatial"
)

var bishan = domain.GeoPoint{Lat: 1.35092, Lng: 103.848206}

func TestAddressService_Found(t *testing.T) {
	var got domain.ProjectedPoint
	geo := &mockGeocoder{
		reverseFn: func(ctx context.Context, p domain.ProjectedPoint) ([]domain.GeocodeCandidate, error) {
			got = p
			return []domain.GeocodeCandidate{
				{BuildingName: "JUNCTION 8", Block: "9"},
				{BuildingName: "BISHAN BUS INTERCHANGE", Block: "9A"},
			}, nil
		},
	}
	svc := usecases.NewAddressService(geo, nil, nil, 0, 0)

	addr := svc.Resolve(context.Background(), bishan)
	if addr.Text != "JUNCTION 8 BLOCK 9" || !addr.Found {
		t.Errorf("expected first candidate, got %+v", addr)
	}
	if want := geospatial.ProjectToLocalPlane(bishan); got != want {
		t.Errorf("expected projected query %+v, got %+v", want, got)
	}
}

func TestAddressService_Empty(t *testing.T) {
	svc := usecases.NewAddressService(&mockGeocoder{}, nil, nil, 0, 0)

	addr := svc.Resolve(context.Background(), bishan)
	if addr.Text != domain.AddressNotFound || addr.Found {
		t.Errorf("expected not-found placeholder, got %+v", addr)
	}
}

func TestAddressService_ErrorIsReported(t *testing.T) {
	geo := &mockGeocoder{
		reverseFn: func(ctx context.Context, p domain.ProjectedPoint) ([]domain.GeocodeCandidate, error) {
			return nil, errors.New("unexpected status 502")
		},
	}
	rep := &mockReporter{}
	svc := usecases.NewAddressService(geo, nil, rep, 0, 0)

	addr := svc.Resolve(context.Background(), bishan)
	if addr.Text != domain.AddressLookupError || addr.Found {
		t.Errorf("expected error placeholder, got %+v", addr)
	}

	reported := rep.Reported()
	if len(reported) != 1 {
		t.Fatalf("expected 1 reported error, got %d", len(reported))
	}
	if !errors.Is(reported[0], domain.ErrAddressLookupFailed) {
		t.Errorf("expected ErrAddressLookupFailed, got %v", reported[0])
	}
}

func TestAddressService_Timeout(t *testing.T) {
	geo := &mockGeocoder{
		reverseFn: func(ctx context.Context, p domain.ProjectedPoint) ([]domain.GeocodeCandidate, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	rep := &mockReporter{}
	svc := usecases.NewAddressService(geo, nil, rep, 20*time.Millisecond, 0)

	start := time.Now()
	addr := svc.Resolve(context.Background(), bishan)
	if addr.Text != domain.AddressNotFound {
		t.Errorf("expected not-found placeholder on timeout, got %+v", addr)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("lookup was not bounded: %v", elapsed)
	}
	if n := len(rep.Reported()); n != 0 {
		t.Errorf("timeouts should not be reported, got %d", n)
	}
}

func TestAddressService_CanceledIsQuiet(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	geo := &mockGeocoder{
		reverseFn: func(ctx context.Context, p domain.ProjectedPoint) ([]domain.GeocodeCandidate, error) {
			cancel()
			return nil, ctx.Err()
		},
	}
	rep := &mockReporter{}
	svc := usecases.NewAddressService(geo, nil, rep, 0, 0)

	addr := svc.Resolve(ctx, bishan)
	if addr.Found {
		t.Errorf("expected no address, got %+v", addr)
	}
	if n := len(rep.Reported()); n != 0 {
		t.Errorf("canceled lookups should not be reported, got %d", n)
	}
}

func TestAddressService_CachesFoundOnly(t *testing.T) {
	found := true
	geo := &mockGeocoder{
		reverseFn: func(ctx context.Context, p domain.ProjectedPoint) ([]domain.GeocodeCandidate, error) {
			if !found {
				return nil, nil
			}
			return []domain.GeocodeCandidate{{BuildingName: "JUNCTION 8", Block: "9"}}, nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewAddressService(geo, cache, nil, 0, time.Hour)

	first := svc.Resolve(context.Background(), bishan)
	second := svc.Resolve(context.Background(), bishan)
	if first.CacheHit || !second.CacheHit {
		t.Errorf("expected miss then hit, got %+v then %+v", first, second)
	}
	if second.Text != first.Text {
		t.Errorf("cached text differs: %q vs %q", second.Text, first.Text)
	}
	if geo.Calls() != 1 {
		t.Errorf("expected 1 upstream call, got %d", geo.Calls())
	}
	for _, ttl := range cache.ttls {
		if ttl != 3600 {
			t.Errorf("expected ttl 3600, got %d", ttl)
		}
	}

	found = false
	other := domain.GeoPoint{Lat: 1.3, Lng: 103.8}
	svc.Resolve(context.Background(), other)
	svc.Resolve(context.Background(), other)
	if geo.Calls() != 3 {
		t.Errorf("empty results must not be cached, got %d calls", geo.Calls())
	}
}

func TestAddressService_StalledCacheCountsAgainstTimeout(t *testing.T) {
	cache := newMockCache()
	cache.getFn = func(ctx context.Context, key string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	geo := &mockGeocoder{
		reverseFn: func(ctx context.Context, p domain.ProjectedPoint) ([]domain.GeocodeCandidate, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return []domain.GeocodeCandidate{{BuildingName: "JUNCTION 8", Block: "9"}}, nil
		},
	}
	svc := usecases.NewAddressService(geo, cache, nil, 30*time.Millisecond, 0)

	start := time.Now()
	addr := svc.Resolve(context.Background(), bishan)
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("lookup took %v, expected the timeout to bound the cache read", elapsed)
	}
	if addr.Text != domain.AddressNotFound || addr.Found {
		t.Errorf("expected not-found placeholder after the timeout, got %+v", addr)
	}
}

func TestFormatAddress(t *testing.T) {
	got := usecases.FormatAddress(domain.GeocodeCandidate{BuildingName: "RAFFLES PLACE", Block: "1"})
	if got != "RAFFLES PLACE BLOCK 1" {
		t.Errorf("unexpected address %q", got)
	}
}
