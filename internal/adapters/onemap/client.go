// Package onemap is a client for the OneMap reverse-geocoding API.
package onemap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/sgrent/internal/core/domain"
)

const (
	DefaultBaseURL = "https://www.onemap.gov.sg"
	DefaultBuffer  = 40
	DefaultTimeout = 5 * time.Second

	revGeocodePath = "/api/public/revgeocodexy"
)

var tracer = otel.Tracer("sgrent/onemap")

// Client implements ports.ReverseGeocoder against OneMap's revgeocodexy
// endpoint, which takes coordinates on the local plane.
type Client struct {
	http    *fasthttp.Client
	baseURL string
	token   string
	buffer  int
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithBuffer sets the search radius in meters.
func WithBuffer(m int) Option { return func(c *Client) { c.buffer = m } }

// WithTimeout bounds each request when the caller's context has no earlier deadline.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// New creates a client authenticating with a bearer token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		http: &fasthttp.Client{
			Name:                "sgrent",
			MaxConnsPerHost:     64,
			MaxIdleConnDuration: 30 * time.Second,
		},
		baseURL: DefaultBaseURL,
		token:   token,
		buffer:  DefaultBuffer,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return "onemap" }

type geocodeInfo struct {
	BuildingName string `json:"BUILDINGNAME"`
	Block        string `json:"BLOCK"`
	Road         string `json:"ROAD"`
	PostalCode   string `json:"POSTALCODE"`
}

type revGeocodeResponse struct {
	GeocodeInfo []geocodeInfo `json:"GeocodeInfo"`
}

type result struct {
	status int
	body   []byte
	err    error
}

// ReverseGeocode returns the buildings within the buffer around p, nearest
// first as ranked by OneMap.
func (c *Client) ReverseGeocode(ctx context.Context, p domain.ProjectedPoint) ([]domain.GeocodeCandidate, error) {
	ctx, span := tracer.Start(ctx, "onemap.revgeocodexy")
	defer span.End()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	uri := c.RequestURI(p)
	span.SetAttributes(attribute.String("http.url", uri))

	done := make(chan result, 1)
	go func() {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(uri)
		req.Header.SetMethod(fasthttp.MethodGet)
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+c.token)
		req.Header.Set(fasthttp.HeaderAccept, "application/json")

		err := c.http.DoDeadline(req, resp, deadline)
		done <- result{status: resp.StatusCode(), body: append([]byte(nil), resp.Body()...), err: err}
	}()

	var r result
	select {
	case <-ctx.Done():
		span.SetStatus(codes.Error, "context done")
		return nil, ctx.Err()
	case r = <-done:
	}

	if r.err != nil {
		span.RecordError(r.err)
		span.SetStatus(codes.Error, "request failed")
		if errors.Is(r.err, fasthttp.ErrTimeout) {
			return nil, fmt.Errorf("onemap: %w", context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("onemap request: %w", r.err)
	}
	span.SetAttributes(attribute.Int("http.status_code", r.status))
	if r.status < 200 || r.status > 299 {
		span.SetStatus(codes.Error, "unexpected status")
		return nil, fmt.Errorf("onemap: unexpected status %d", r.status)
	}

	var body revGeocodeResponse
	if err := json.Unmarshal(r.body, &body); err != nil {
		span.SetStatus(codes.Error, "decode failed")
		return nil, fmt.Errorf("onemap decode: %w", err)
	}

	out := make([]domain.GeocodeCandidate, len(body.GeocodeInfo))
	for i, g := range body.GeocodeInfo {
		out[i] = domain.GeocodeCandidate{
			BuildingName: g.BuildingName,
			Block:        g.Block,
			Road:         g.Road,
			PostalCode:   g.PostalCode,
		}
	}
	return out, nil
}

// RequestURI builds the revgeocodexy URL for p. Coordinates use the
// shortest decimal form that round-trips.
func (c *Client) RequestURI(p domain.ProjectedPoint) string {
	return fmt.Sprintf("%s%s?location=%s,%s&buffer=%d&addressType=All&otherFeatures=N",
		c.baseURL, revGeocodePath,
		strconv.FormatFloat(p.Easting, 'f', -1, 64),
		strconv.FormatFloat(p.Northing, 'f', -1, 64),
		c.buffer,
	)
}
