package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/calorsos/calorsos/internal/core/domain"
)

func locationMap(l domain.Location) map[string]interface{} {
	return map[string]interface{}{
		"id":          l.ID,
		"kind":        string(l.Kind),
		"name":        l.Name,
		"description": l.Description,
		"status":      string(l.Status),
		"type":        l.Category,
		"latitude":    l.Lat,
		"longitude":   l.Lon,
		"source":      l.Source,
	}
}

func annotatedMap(a domain.AnnotatedLocation) map[string]interface{} {
	m := locationMap(a.Location)
	m["distance_km"] = a.DistanceKm
	m["distance_label"] = a.DistanceLabel
	return m
}

func alertMap(a domain.HeatAlert) map[string]interface{} {
	return map[string]interface{}{
		"id":          a.ID,
		"temperature": a.Temperature,
		"humidity":    a.Humidity,
		"uv_index":    a.UVIndex,
		"heat_index":  a.HeatIndex,
		"risk_level":  string(a.RiskLevel),
		"source":      a.Source,
		"issued_at":   a.IssuedAt.Format(time.RFC3339),
		"message":     a.Message(),
	}
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	kindEnum := graphql.NewEnum(graphql.EnumConfig{
		Name: "LocationKind",
		Values: graphql.EnumValueConfigMap{
			"COOL_ZONE":       &graphql.EnumValueConfig{Value: string(domain.KindCoolZone)},
			"HYDRATION_POINT": &graphql.EnumValueConfig{Value: string(domain.KindHydrationPoint)},
		},
	})

	locationFields := graphql.Fields{
		"id":          &graphql.Field{Type: graphql.String},
		"kind":        &graphql.Field{Type: graphql.String},
		"name":        &graphql.Field{Type: graphql.String},
		"description": &graphql.Field{Type: graphql.String},
		"status":      &graphql.Field{Type: graphql.String},
		"type":        &graphql.Field{Type: graphql.String},
		"latitude":    &graphql.Field{Type: graphql.Float},
		"longitude":   &graphql.Field{Type: graphql.Float},
		"source":      &graphql.Field{Type: graphql.String},
	}
	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Location",
		Fields: locationFields,
	})

	rankedFields := graphql.Fields{
		"distance_km":    &graphql.Field{Type: graphql.Float},
		"distance_label": &graphql.Field{Type: graphql.String},
	}
	for k, v := range locationFields {
		rankedFields[k] = v
	}
	rankedType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "RankedLocation",
		Fields: rankedFields,
	})

	alertType := graphql.NewObject(graphql.ObjectConfig{
		Name: "HeatAlert",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"temperature": &graphql.Field{Type: graphql.Float},
			"humidity":    &graphql.Field{Type: graphql.Float},
			"uv_index":    &graphql.Field{Type: graphql.Float},
			"heat_index":  &graphql.Field{Type: graphql.Float},
			"risk_level":  &graphql.Field{Type: graphql.String},
			"source":      &graphql.Field{Type: graphql.String},
			"issued_at":   &graphql.Field{Type: graphql.String},
			"message":     &graphql.Field{Type: graphql.String},
		},
	})

	routePreviewType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RoutePreview",
		Fields: graphql.Fields{
			"target":       &graphql.Field{Type: rankedType},
			"polyline":     &graphql.Field{Type: graphql.String},
			"walking_time": &graphql.Field{Type: graphql.String},
		},
	})

	positionArgs := func(extra graphql.FieldConfigArgument) graphql.FieldConfigArgument {
		args := graphql.FieldConfigArgument{
			"kind": &graphql.ArgumentConfig{Type: kindEnum, DefaultValue: string(domain.KindCoolZone)},
			"lat":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lon":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		}
		for k, v := range extra {
			args[k] = v
		}
		return args
	}
	position := func(p graphql.ResolveParams) (domain.LocationKind, domain.GeoPoint) {
		kind, _ := p.Args["kind"].(string)
		return domain.LocationKind(kind), domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)}
	}

	listOf := func(kind domain.LocationKind) graphql.FieldResolveFn {
		return func(p graphql.ResolveParams) (interface{}, error) {
			status, _ := p.Args["status"].(string)
			locs, err := deps.Locations.List(p.Context, kind, domain.LocationStatus(status))
			if err != nil {
				return nil, err
			}
			out := make([]map[string]interface{}, len(locs))
			for i, l := range locs {
				out[i] = locationMap(l)
			}
			return out, nil
		}
	}
	rankedList := func(ranked []domain.AnnotatedLocation, err error) (interface{}, error) {
		if err != nil {
			return nil, err
		}
		out := make([]map[string]interface{}, len(ranked))
		for i, r := range ranked {
			out[i] = annotatedMap(r)
		}
		return out, nil
	}

	statusArg := graphql.FieldConfigArgument{
		"status": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: string(domain.StatusActive)},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"zones": &graphql.Field{
				Type:        graphql.NewList(locationType),
				Description: "Cool zones, active by default",
				Args:        statusArg,
				Resolve:     listOf(domain.KindCoolZone),
			},
			"hydrationPoints": &graphql.Field{
				Type:        graphql.NewList(locationType),
				Description: "Hydration points, active by default",
				Args:        statusArg,
				Resolve:     listOf(domain.KindHydrationPoint),
			},
			"location": &graphql.Field{
				Type:        locationType,
				Description: "Get a location by ID",
				Args: graphql.FieldConfigArgument{
					"kind": &graphql.ArgumentConfig{Type: graphql.NewNonNull(kindEnum)},
					"id":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					loc, err := deps.Locations.Get(p.Context, domain.LocationKind(p.Args["kind"].(string)), p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return locationMap(*loc), nil
				},
			},
			"nearest": &graphql.Field{
				Type:        rankedType,
				Description: "Closest active location to a position",
				Args:        positionArgs(nil),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					kind, origin := position(p)
					n, err := deps.Locations.Nearest(p.Context, kind, origin)
					if err != nil {
						return nil, err
					}
					return annotatedMap(*n), nil
				},
			},
			"byDistance": &graphql.Field{
				Type:        graphql.NewList(rankedType),
				Description: "Active locations sorted by distance",
				Args: positionArgs(graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				}),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					kind, origin := position(p)
					return rankedList(deps.Locations.Ranked(p.Context, kind, origin, p.Args["limit"].(int)))
				},
			},
			"nearby": &graphql.Field{
				Type:        graphql.NewList(rankedType),
				Description: "Active locations within a radius in meters",
				Args: positionArgs(graphql.FieldConfigArgument{
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 2000.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				}),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					kind, origin := position(p)
					return rankedList(deps.Locations.Nearby(p.Context, kind, origin, p.Args["radius"].(float64), p.Args["limit"].(int)))
				},
			},
			"routePreview": &graphql.Field{
				Type:        routePreviewType,
				Description: "Walking leg to the nearest active location",
				Args:        positionArgs(nil),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					kind, origin := position(p)
					rp, err := deps.Locations.RoutePreview(p.Context, kind, origin)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"target":       annotatedMap(rp.Target),
						"polyline":     rp.Polyline,
						"walking_time": rp.WalkingTime,
					}, nil
				},
			},
			"alerts": &graphql.Field{
				Type:        graphql.NewList(alertType),
				Description: "Most recent heat alerts",
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					alerts, err := deps.Alerts.List(p.Context, p.Args["limit"].(int))
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, len(alerts))
					for i, a := range alerts {
						out[i] = alertMap(a)
					}
					return out, nil
				},
			},
			"currentAlert": &graphql.Field{
				Type:        alertType,
				Description: "Latest heat alert",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					a, err := deps.Alerts.Current(p.Context)
					if err != nil {
						return nil, err
					}
					return alertMap(*a), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// programming error in the schema definition
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
		if req.Query == "" {
			return errBadRequest(c, "query is required")
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
