package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/sgrent/internal/core/domain"
	"github.com/samirrijal/sgrent/internal/pkg/geospatial"
)

func stationMap(s domain.Station) map[string]interface{} {
	return map[string]interface{}{
		"name":     s.Name,
		"category": string(s.Category),
		"label":    s.Category.Label(),
		"location": map[string]interface{}{"lat": s.Position.Lat, "lng": s.Position.Lng},
	}
}

// stationDistanceMap returns an untyped nil for nil so GraphQL renders null.
func stationDistanceMap(sd *domain.StationDistance) interface{} {
	if sd == nil {
		return nil
	}
	return map[string]interface{}{
		"station":     stationMap(sd.Station),
		"distance_km": sd.DistanceKm,
	}
}

// argInputs converts the shared pricing arguments.
func argInputs(args map[string]interface{}) (domain.RentInputs, error) {
	model, err := domain.ParseModel(args["model"].(string))
	if err != nil {
		return domain.RentInputs{}, fmt.Errorf("%w: model: %v", domain.ErrInvalidInput, err)
	}
	month, err := domain.ParseYearMonth(args["month"].(string))
	if err != nil {
		return domain.RentInputs{}, fmt.Errorf("%w: month: %v", domain.ErrInvalidInput, err)
	}
	return domain.RentInputs{
		Point:      domain.GeoPoint{Lat: args["lat"].(float64), Lng: args["lng"].(float64)},
		Rooms:      args["rooms"].(int),
		SquareFeet: args["area_sqft"].(float64),
		Model:      model,
		Target:     month,
	}, nil
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	projectedType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ProjectedPoint",
		Fields: graphql.Fields{
			"x": &graphql.Field{Type: graphql.Float},
			"y": &graphql.Field{Type: graphql.Float},
		},
	})

	stationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Station",
		Fields: graphql.Fields{
			"name":     &graphql.Field{Type: graphql.String},
			"category": &graphql.Field{Type: graphql.String},
			"label":    &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
		},
	})

	stationDistanceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "StationDistance",
		Fields: graphql.Fields{
			"station":     &graphql.Field{Type: stationType},
			"distance_km": &graphql.Field{Type: graphql.Float},
		},
	})

	estimateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Estimate",
		Fields: graphql.Fields{
			"estimate":         &graphql.Field{Type: graphql.Int},
			"subtotal":         &graphql.Field{Type: graphql.Float},
			"model_factor":     &graphql.Field{Type: graphql.Float},
			"location_factor":  &graphql.Field{Type: graphql.Float},
			"months_ahead":     &graphql.Field{Type: graphql.Int},
			"time_factor":      &graphql.Field{Type: graphql.Float},
			"proximity_factor": &graphql.Field{Type: graphql.Float},
			"nearest_station":  &graphql.Field{Type: stationDistanceType},
		},
	})

	quoteType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Quote",
		Fields: graphql.Fields{
			"point":           &graphql.Field{Type: geoPointType},
			"projected":       &graphql.Field{Type: projectedType},
			"nearest_station": &graphql.Field{Type: stationDistanceType},
			"address":         &graphql.Field{Type: graphql.String},
			"address_found":   &graphql.Field{Type: graphql.Boolean},
			"rooms":           &graphql.Field{Type: graphql.Int},
			"area_sqft":       &graphql.Field{Type: graphql.Float},
			"area_sqm":        &graphql.Field{Type: graphql.Float},
			"model":           &graphql.Field{Type: graphql.String},
			"month":           &graphql.Field{Type: graphql.String},
			"estimate":        &graphql.Field{Type: graphql.Int},
			"low_confidence":  &graphql.Field{Type: graphql.Boolean},
			"cell":            &graphql.Field{Type: graphql.String},
		},
	})

	pointArgs := graphql.FieldConfigArgument{
		"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"lng": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
	}
	pricingArgs := graphql.FieldConfigArgument{
		"lat":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"lng":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"rooms":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
		"area_sqft": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"month":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
		"model":     &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "LINEAR"},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"stations": &graphql.Field{
				Type:        graphql.NewList(stationType),
				Description: "Catalog stations in order, optionally by category (MRT or LRT)",
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var category domain.Category
					if raw := p.Args["category"].(string); raw != "" {
						cat, err := domain.ParseCategory(raw)
						if err != nil {
							return nil, err
						}
						category = cat
					}
					stations := deps.Stations.List(category)
					out := make([]map[string]interface{}, len(stations))
					for i, s := range stations {
						out[i] = stationMap(s)
					}
					return out, nil
				},
			},
			"nearestStation": &graphql.Field{
				Type:        stationDistanceType,
				Description: "Closest station by great-circle distance",
				Args:        pointArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lng: p.Args["lng"].(float64)}
					sd, err := deps.Stations.Nearest(pt)
					if err != nil {
						return nil, err
					}
					return stationDistanceMap(&sd), nil
				},
			},
			"nearbyStations": &graphql.Field{
				Type:        graphql.NewList(stationDistanceType),
				Description: "Stations within radius_km, nearest first",
				Args: graphql.FieldConfigArgument{
					"lat":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius_km": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 1.0},
					"limit":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lng: p.Args["lng"].(float64)}
					hits, err := deps.Stations.Nearby(pt, p.Args["radius_km"].(float64), p.Args["limit"].(int))
					if err != nil {
						return nil, err
					}
					out := make([]interface{}, len(hits))
					for i := range hits {
						out[i] = stationDistanceMap(&hits[i])
					}
					return out, nil
				},
			},
			"project": &graphql.Field{
				Type:        projectedType,
				Description: "Local plane coordinates of a point",
				Args:        pointArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pp := geospatial.ProjectToLocalPlane(domain.GeoPoint{Lat: p.Args["lat"].(float64), Lng: p.Args["lng"].(float64)})
					return map[string]interface{}{"x": pp.Easting, "y": pp.Northing}, nil
				},
			},
			"estimate": &graphql.Field{
				Type:        estimateType,
				Description: "Price a flat without an address lookup",
				Args:        pricingArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					in, err := argInputs(p.Args)
					if err != nil {
						return nil, err
					}
					b, nearest, err := deps.Quotes.Estimate(p.Context, in)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"estimate":         int64(b.Estimate),
						"subtotal":         b.Subtotal,
						"model_factor":     b.ModelFactor,
						"location_factor":  b.LocationFactor,
						"months_ahead":     b.MonthsAhead,
						"time_factor":      b.TimeFactor,
						"proximity_factor": b.ProximityFactor,
						"nearest_station":  stationDistanceMap(nearest),
					}, nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"quote": &graphql.Field{
				Type:        quoteType,
				Description: "Run the full pipeline and publish the quote event",
				Args:        pricingArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					in, err := argInputs(p.Args)
					if err != nil {
						return nil, err
					}
					q, err := deps.Quotes.Quote(p.Context, in)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"point":           map[string]interface{}{"lat": q.Point.Lat, "lng": q.Point.Lng},
						"projected":       map[string]interface{}{"x": q.Projected.Easting, "y": q.Projected.Northing},
						"nearest_station": stationDistanceMap(q.Nearest),
						"address":         q.Address.Text,
						"address_found":   q.Address.Found,
						"rooms":           q.Rooms,
						"area_sqft":       q.SquareFeet,
						"area_sqm":        q.SquareMeters,
						"model":           string(q.Model),
						"month":           q.Target.String(),
						"estimate":        int64(q.Estimate),
						"low_confidence":  q.LowConfidence,
						"cell":            q.Cell,
					}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
