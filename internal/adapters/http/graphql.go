package http

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat":       &graphql.Field{Type: graphql.Float},
			"lon":       &graphql.Field{Type: graphql.Float},
			"elevation": &graphql.Field{Type: graphql.Float},
		},
	})

	planarPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PlanarPoint",
		Fields: graphql.Fields{
			"x": &graphql.Field{Type: graphql.Float},
			"y": &graphql.Field{Type: graphql.Float},
		},
	})

	sampleType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ProfileSample",
		Fields: graphql.Fields{
			"distance":  &graphql.Field{Type: graphql.Float},
			"elevation": &graphql.Field{Type: graphql.Float},
		},
	})

	statsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ProfileStats",
		Fields: graphql.Fields{
			"length":        &graphql.Field{Type: graphql.Float},
			"ascent":        &graphql.Field{Type: graphql.Float},
			"descent":       &graphql.Field{Type: graphql.Float},
			"min_elevation": &graphql.Field{Type: graphql.Float},
			"max_elevation": &graphql.Field{Type: graphql.Float},
		},
	})

	profileType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ElevationProfile",
		Fields: graphql.Fields{
			"provider":  &graphql.Field{Type: graphql.String},
			"source":    &graphql.Field{Type: graphql.String},
			"points":    &graphql.Field{Type: graphql.NewList(geoPointType)},
			"distances": &graphql.Field{Type: graphql.NewList(graphql.Float)},
			"profile":   &graphql.Field{Type: graphql.NewList(sampleType)},
			"stats":     &graphql.Field{Type: statsType},
		},
	})

	pointInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "PointInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"lat":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lon":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"elevation": &graphql.InputObjectFieldConfig{Type: graphql.Float},
		},
	})

	planarInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "PlanarPointInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"x": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"y": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"providers": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "Configured elevation providers",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					out := []string{}
					for _, k := range deps.Elevation.Providers() {
						out = append(out, string(k))
					}
					return out, nil
				},
			},
			"elevationProfile": &graphql.Field{
				Type:        profileType,
				Description: "Elevation profile of a path",
				Args: graphql.FieldConfigArgument{
					"points":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(pointInput)))},
					"provider":       &graphql.ArgumentConfig{Type: graphql.String},
					"preferExisting": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
					"distance":       &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					path, err := pathArg(p.Args["points"])
					if err != nil {
						return nil, err
					}
					kind := deps.defaultProvider()
					if s, ok := p.Args["provider"].(string); ok && s != "" {
						if kind, err = domain.ParseProviderKind(s); err != nil {
							return nil, err
						}
					}
					prefer, _ := p.Args["preferExisting"].(bool)
					distance, _ := p.Args["distance"].(float64)

					ctx, cancel := context.WithTimeout(p.Context, deps.requestTimeout())
					defer cancel()

					res, err := deps.Elevation.ResolveElevation(ctx, path, kind, prefer)
					if err != nil {
						return nil, err
					}
					samples, stats := usecases.BuildProfile(res, distance)
					return profileResult(res, samples, stats), nil
				},
			},
			"convert": &graphql.Field{
				Type:        graphql.NewList(planarPointType),
				Description: "Convert points between WGS84 and LV95",
				Args: graphql.FieldConfigArgument{
					"points": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(planarInput)))},
					"from":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"to":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					from, err := domain.ParseCRS(p.Args["from"].(string))
					if err != nil {
						return nil, err
					}
					to, err := domain.ParseCRS(p.Args["to"].(string))
					if err != nil {
						return nil, err
					}
					raw, _ := p.Args["points"].([]interface{})
					if len(raw) > maxRequestPoints {
						return nil, fmt.Errorf("too many points (max %d)", maxRequestPoints)
					}
					pts := make([]domain.PlanarPoint, 0, len(raw))
					for _, r := range raw {
						m, _ := r.(map[string]interface{})
						x, _ := m["x"].(float64)
						y, _ := m["y"].(float64)
						pts = append(pts, domain.PlanarPoint{X: x, Y: y})
					}
					out, err := deps.Converter.Convert(p.Context, pts, from, to)
					if err != nil {
						return nil, err
					}
					res := make([]map[string]interface{}, len(out))
					for i, pt := range out {
						res[i] = map[string]interface{}{"x": pt.X, "y": pt.Y}
					}
					return res, nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"clearElevationCache": &graphql.Field{
				Type:        graphql.Boolean,
				Description: "Drop every cached elevation result",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if err := deps.Elevation.ClearCache(p.Context); err != nil {
						return false, err
					}
					return true, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// pathArg decodes a [PointInput!]! argument.
func pathArg(v interface{}) (domain.Path, error) {
	raw, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("points must be a list")
	}
	if len(raw) > maxRequestPoints {
		return nil, fmt.Errorf("too many points (max %d)", maxRequestPoints)
	}
	path := make(domain.Path, 0, len(raw))
	for i, r := range raw {
		m, ok := r.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("point %d is not an object", i)
		}
		lat, _ := m["lat"].(float64)
		lon, _ := m["lon"].(float64)
		pt := domain.GeoPoint{Lat: lat, Lon: lon}
		if e, ok := m["elevation"].(float64); ok {
			pt = pt.WithElevation(e)
		}
		path = append(path, pt)
	}
	return path, nil
}

func profileResult(res *domain.ElevationResult, samples []domain.ProfileSample, stats domain.ProfileStats) map[string]interface{} {
	points := make([]map[string]interface{}, len(res.Points))
	for i, pt := range res.Points {
		m := map[string]interface{}{"lat": pt.Lat, "lon": pt.Lon, "elevation": nil}
		if pt.Elevation != nil {
			m["elevation"] = *pt.Elevation
		}
		points[i] = m
	}
	profile := make([]map[string]interface{}, len(samples))
	for i, s := range samples {
		profile[i] = map[string]interface{}{"distance": s.Distance, "elevation": s.Elevation}
	}
	return map[string]interface{}{
		"provider":  string(res.Provider),
		"source":    string(res.Source),
		"points":    points,
		"distances": res.Distances,
		"profile":   profile,
		"stats": map[string]interface{}{
			"length":        stats.Length,
			"ascent":        stats.Ascent,
			"descent":       stats.Descent,
			"min_elevation": stats.MinElevation,
			"max_elevation": stats.MaxElevation,
		},
	}
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
