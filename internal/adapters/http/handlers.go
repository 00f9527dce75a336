package http

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/sgrent/internal/core/domain"
	"github.com/samirrijal/sgrent/internal/core/usecases"
	"github.com/samirrijal/sgrent/internal/pkg/geospatial"
)

// queryPoint reads the required lat and lng query parameters.
func queryPoint(c *fiber.Ctx) (domain.GeoPoint, error) {
	latStr, lngStr := c.Query("lat"), c.Query("lng")
	if latStr == "" || lngStr == "" {
		return domain.GeoPoint{}, fmt.Errorf("lat and lng are required")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("lat must be a number")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("lng must be a number")
	}
	p := domain.GeoPoint{Lat: lat, Lng: lng}
	if !p.IsFinite() {
		return domain.GeoPoint{}, fmt.Errorf("lat and lng must be finite")
	}
	return p, nil
}

// MapHandler returns the map extent and the initial view.
func MapHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"bounds":         domain.MapBounds,
			"service_region": domain.ServiceRegion,
			"default_view":   domain.DefaultView,
			"default_zoom":   domain.DefaultZoom,
		})
	}
}

// ListStationsHandler returns the catalog in order, optionally filtered by category.
func ListStationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var category domain.Category
		if raw := c.Query("category"); raw != "" {
			cat, err := domain.ParseCategory(raw)
			if err != nil {
				return errBadRequest(c, err.Error())
			}
			category = cat
		}
		stations := deps.Stations.List(category)

		pg := pageParams(c, len(stations))
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: paginate(stations, pg), Pagination: pg})
	}
}

// NearestStationHandler returns the closest catalog station to a point.
func NearestStationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := queryPoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		nearest, err := deps.Stations.Nearest(p)
		if err != nil {
			return errFromDomain(c, err)
		}

		return c.JSON(fiber.Map{
			"station":        nearest.Station,
			"distance_km":    nearest.DistanceKm,
			"low_confidence": !p.InServiceRegion(),
		})
	}
}

// NearbyStationsHandler returns stations within a radius, nearest first.
func NearbyStationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := queryPoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		radius := c.QueryFloat("radius_km", 1)
		limit := c.QueryInt("limit", 10)

		hits, err := deps.Stations.Nearby(p, radius, limit)
		if err != nil {
			return errFromDomain(c, err)
		}
		if hits == nil {
			hits = []domain.StationDistance{}
		}

		return c.JSON(hits)
	}
}

// ProjectHandler converts a point to local plane coordinates.
func ProjectHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := queryPoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(fiber.Map{
			"point":     p,
			"projected": geospatial.ProjectToLocalPlane(p),
		})
	}
}

// AddressHandler reverse-geocodes a point. Lookup failures still answer 200
// with a placeholder text.
func AddressHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Addresses == nil {
			return errServiceUnavailable(c, "address lookup not configured")
		}
		p, err := queryPoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		addr := deps.Addresses.Resolve(c.UserContext(), p)
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(fiber.Map{
			"point":     p,
			"address":   addr.Text,
			"found":     addr.Found,
			"cache_hit": addr.CacheHit,
		})
	}
}

// estimateRequest is the JSON body of the estimate and quote endpoints.
type estimateRequest struct {
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Rooms    int      `json:"rooms"`
	AreaSqft float64  `json:"area_sqft"`
	Model    string   `json:"model"`
	Month    string   `json:"month"`
}

// inputs converts the request. Range checks are left to the use case.
func (r estimateRequest) inputs() (domain.RentInputs, error) {
	verr := &domain.ValidationError{}
	if r.Lat == nil {
		verr.Add("lat", "is required")
	}
	if r.Lng == nil {
		verr.Add("lng", "is required")
	}
	model, err := domain.ParseModel(r.Model)
	if err != nil {
		verr.Add("model", err.Error())
	}
	var month domain.YearMonth
	if r.Month == "" {
		verr.Add("month", "is required")
	} else if month, err = domain.ParseYearMonth(r.Month); err != nil {
		verr.Add("month", "must be a YYYY-MM value")
	}
	if err := verr.OrNil(); err != nil {
		return domain.RentInputs{}, err
	}

	return domain.RentInputs{
		Point:      domain.GeoPoint{Lat: *r.Lat, Lng: *r.Lng},
		Rooms:      r.Rooms,
		SquareFeet: r.AreaSqft,
		Model:      model,
		Target:     month,
	}, nil
}

func parseEstimateRequest(c *fiber.Ctx) (domain.RentInputs, error) {
	var req estimateRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.RentInputs{}, fmt.Errorf("%w: malformed body", domain.ErrInvalidInput)
	}
	return req.inputs()
}

// EstimateHandler prices the inputs without looking up the address.
func EstimateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := parseEstimateRequest(c)
		if err != nil {
			return errFromDomain(c, err)
		}

		b, nearest, err := deps.Quotes.Estimate(c.UserContext(), in)
		if err != nil {
			return errFromDomain(c, err)
		}

		return c.JSON(fiber.Map{
			"estimate":        b.Estimate,
			"breakdown":       b,
			"nearest_station": nearest,
			"area_sqm":        usecases.SquareFeetToSquareMeters(in.SquareFeet),
			"low_confidence":  !in.Point.InServiceRegion(),
		})
	}
}

// QuoteHandler runs the full pipeline for one point.
func QuoteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := parseEstimateRequest(c)
		if err != nil {
			return errFromDomain(c, err)
		}

		q, err := deps.Quotes.Quote(c.UserContext(), in)
		if err != nil {
			return errFromDomain(c, err)
		}

		return c.JSON(q)
	}
}

// BatchQuoteHandler quotes up to usecases.MaxBatchQuotes points concurrently.
func BatchQuoteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Items []estimateRequest `json:"items"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "malformed body")
		}
		if len(req.Items) == 0 {
			return errBadRequest(c, "items is required")
		}
		if len(req.Items) > usecases.MaxBatchQuotes {
			return errBadRequest(c, fmt.Sprintf("at most %d items per batch", usecases.MaxBatchQuotes))
		}

		ins := make([]domain.RentInputs, len(req.Items))
		for i, item := range req.Items {
			in, err := item.inputs()
			if err != nil {
				return errBadRequest(c, fmt.Sprintf("item %d: %v", i, err))
			}
			ins[i] = in
		}

		quotes, err := deps.Quotes.QuoteBatch(c.UserContext(), ins)
		if err != nil {
			return errFromDomain(c, err)
		}

		return c.JSON(fiber.Map{
			"data":  quotes,
			"count": len(quotes),
		})
	}
}

// predictFields are the required keys of the legacy predict form, in the
// order they are reported when missing.
var predictFields = []string{"addr_lat", "addr_long", "flat_type", "area_sqft", "month", "year"}

// PredictHandler serves the legacy web form. Numbers may arrive as JSON
// numbers or strings.
func PredictHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body, err := decodeLooseJSON(c.Body())
		if err != nil {
			return errBadRequest(c, "malformed body")
		}

		var missing []string
		for _, f := range predictFields {
			if _, ok := body[f]; !ok {
				missing = append(missing, f)
			}
		}
		if len(missing) > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Missing fields: " + strings.Join(missing, ", "),
			})
		}

		req, err := predictRequest(body)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		prediction, err := deps.Quotes.Predict(c.UserContext(), req)
		if err != nil {
			return errFromDomain(c, err)
		}

		return c.JSON(fiber.Map{"prediction": prediction})
	}
}

func predictRequest(body map[string]any) (usecases.PredictRequest, error) {
	var (
		r   usecases.PredictRequest
		err error
	)
	if r.Lat, err = looseFloat(body["addr_lat"]); err != nil {
		return r, fmt.Errorf("addr_lat: %w", err)
	}
	if r.Lng, err = looseFloat(body["addr_long"]); err != nil {
		return r, fmt.Errorf("addr_long: %w", err)
	}
	if r.AreaSqft, err = looseFloat(body["area_sqft"]); err != nil {
		return r, fmt.Errorf("area_sqft: %w", err)
	}
	if r.Month, err = looseInt(body["month"]); err != nil {
		return r, fmt.Errorf("month: %w", err)
	}
	if r.Year, err = looseInt(body["year"]); err != nil {
		return r, fmt.Errorf("year: %w", err)
	}
	r.FlatType = fmt.Sprint(body["flat_type"])
	if m, ok := body["model"].(string); ok {
		r.Model = m
	}
	return r, nil
}
