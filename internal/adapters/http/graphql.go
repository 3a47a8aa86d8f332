package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/flyover/internal/core/domain"
)

// buildSchema exposes light presets, search tiers, place lookup and
// directions as read-only queries.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"label":        &graphql.Field{Type: graphql.String},
			"location":     &graphql.Field{Type: geoPointType},
			"category":     &graphql.Field{Type: graphql.String},
			"country_code": &graphql.Field{Type: graphql.String},
			"importance":   &graphql.Field{Type: graphql.Float},
		},
	})

	tierType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SearchTier",
		Fields: graphql.Fields{
			"name": &graphql.Field{Type: graphql.String},
			"bbox": &graphql.Field{Type: graphql.NewList(graphql.Float)},
		},
	})

	directionsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Directions",
		Fields: graphql.Fields{
			"distance_meters": &graphql.Field{Type: graphql.Float},
			"points":          &graphql.Field{Type: graphql.NewList(geoPointType)},
			"bbox":            &graphql.Field{Type: graphql.NewList(graphql.Float)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"lightPreset": &graphql.Field{
				Type:        graphql.String,
				Description: "Lighting preset for an hour of the day (0-23)",
				Args: graphql.FieldConfigArgument{
					"hour": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					hour := p.Args["hour"].(int)
					if hour < 0 || hour > 23 {
						return nil, fmt.Errorf("hour must be between 0 and 23")
					}
					return string(lightBoundaries(deps).PresetFor(hour)), nil
				},
			},
			"currentLightPreset": &graphql.Field{
				Type:        graphql.String,
				Description: "Lighting preset for the current hour in the map time zone",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					loc := deps.Session.Location
					if loc == nil {
						loc = time.Local
					}
					return string(lightBoundaries(deps).PresetFor(time.Now().In(loc).Hour())), nil
				},
			},
			"searchTiers": &graphql.Field{
				Type:        graphql.NewList(tierType),
				Description: "The search widening ladder, narrowest first",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					out := make([]map[string]interface{}, 0, len(deps.Session.Tiers))
					for _, t := range deps.Session.Tiers {
						m := map[string]interface{}{"name": t.Name}
						if t.Scope != nil {
							m["bbox"] = t.Scope.Slice()
						}
						out = append(out, m)
					}
					return out, nil
				},
			},
			"places": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Look up places, optionally within a named search tier",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"tier":  &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Places == nil {
						return nil, fmt.Errorf("geocoder not configured")
					}
					var scope *domain.BoundingBox
					if name, ok := p.Args["tier"].(string); ok && name != "" {
						tier, found := findTier(deps.Session.Tiers, name)
						if !found {
							return nil, fmt.Errorf("unknown search tier: %s", name)
						}
						scope = tier.Scope
					}
					return deps.Places.Lookup(p.Context, p.Args["query"].(string), scope)
				},
			},
			"directions": &graphql.Field{
				Type:        directionsType,
				Description: "Road route between two points",
				Args: graphql.FieldConfigArgument{
					"start": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String), Description: "lon,lat"},
					"end":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String), Description: "lon,lat"},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Directions == nil {
						return nil, fmt.Errorf("routing not configured")
					}
					start, err := domain.ParseGeoPoint(p.Args["start"].(string))
					if err != nil {
						return nil, err
					}
					end, err := domain.ParseGeoPoint(p.Args["end"].(string))
					if err != nil {
						return nil, err
					}
					d, err := deps.Directions.Directions(p.Context, start, end)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"distance_meters": d.Meters,
						"points":          d.Route.Points(),
						"bbox":            d.Route.Bounds().Slice(),
					}, nil
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
		panic("graphql schema: " + err.Error())
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
