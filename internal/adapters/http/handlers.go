package http

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/flyover/internal/adapters/directions"
	"github.com/samirrijal/flyover/internal/core/domain"
	"github.com/samirrijal/flyover/internal/core/usecases"
)

// DirectionsHandler computes the road route between two "lon,lat" points.
// The response body is the wire format the map session's route fetcher reads.
func DirectionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Directions == nil {
			return errUnavailable(c, "routing not configured")
		}
		startRaw, endRaw := c.Query("start"), c.Query("end")
		if startRaw == "" || endRaw == "" {
			return errBadRequest(c, "start and end are required as lon,lat")
		}
		start, err := domain.ParseGeoPoint(startRaw)
		if err != nil {
			return errBadRequest(c, "start: "+err.Error())
		}
		end, err := domain.ParseGeoPoint(endRaw)
		if err != nil {
			return errBadRequest(c, "end: "+err.Error())
		}

		d, err := deps.Directions.Directions(c.UserContext(), start, end)
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Set("Cache-Control", "public, max-age=600")
		return c.JSON(directions.Response{
			Route:          geojson.NewGeometry(d.Route.LineString()),
			DistanceMeters: d.Meters,
		})
	}
}

// PlacesResponse is the body of /v1/places.
type PlacesResponse struct {
	Query  string         `json:"query"`
	Tier   string         `json:"tier,omitempty"`
	Places []domain.Place `json:"places"`
}

// PlacesHandler looks up places, optionally restricted to a named search tier
// or an explicit bbox=minLon,minLat,maxLon,maxLat.
func PlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Places == nil {
			return errUnavailable(c, "geocoder not configured")
		}
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		var scope *domain.BoundingBox
		tierName := c.Query("tier")
		switch {
		case tierName != "" && c.Query("bbox") != "":
			return errBadRequest(c, "tier and bbox are mutually exclusive")
		case tierName != "":
			tier, ok := findTier(deps.Session.Tiers, tierName)
			if !ok {
				return errNotFound(c, "unknown search tier: "+tierName)
			}
			scope = tier.Scope
		case c.Query("bbox") != "":
			box, err := parseBBox(c.Query("bbox"))
			if err != nil {
				return errBadRequest(c, "bbox: "+err.Error())
			}
			scope = &box
		}

		places, err := deps.Places.Lookup(c.UserContext(), query, scope)
		if err != nil {
			return errFromDomain(c, err)
		}
		if places == nil {
			places = []domain.Place{}
		}
		return c.JSON(PlacesResponse{Query: query, Tier: tierName, Places: places})
	}
}

// TierResponse describes one search tier.
type TierResponse struct {
	Name string    `json:"name"`
	BBox []float64 `json:"bbox,omitempty"`
}

// SearchTiersHandler lists the widening ladder, narrowest first.
func SearchTiersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out := make([]TierResponse, 0, len(deps.Session.Tiers))
		for _, t := range deps.Session.Tiers {
			tr := TierResponse{Name: t.Name}
			if t.Scope != nil {
				tr.BBox = t.Scope.Slice()
			}
			out = append(out, tr)
		}
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(out)
	}
}

// LightResponse is the body of /v1/light.
type LightResponse struct {
	Preset   domain.LightPreset `json:"preset"`
	Hour     int                `json:"hour"`
	Timezone string             `json:"timezone"`
}

// LightHandler returns the lighting preset for ?hour= or, without it, for the
// current hour in ?tz= (default: the configured map time zone).
func LightHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		loc := deps.Session.Location
		if tz := c.Query("tz"); tz != "" {
			l, err := time.LoadLocation(tz)
			if err != nil {
				return errBadRequest(c, "unknown time zone: "+tz)
			}
			loc = l
		}
		if loc == nil {
			loc = time.Local
		}

		hour := time.Now().In(loc).Hour()
		if c.Query("hour") != "" {
			hour = c.QueryInt("hour", -1)
			if hour < 0 || hour > 23 {
				return errBadRequest(c, "hour must be between 0 and 23")
			}
		}

		c.Set("Cache-Control", "no-cache")
		return c.JSON(LightResponse{
			Preset:   lightBoundaries(deps).PresetFor(hour),
			Hour:     hour,
			Timezone: loc.String(),
		})
	}
}

func lightBoundaries(deps *Dependencies) usecases.LightBoundaries {
	if err := deps.Session.Light.Validate(); err != nil {
		return usecases.DefaultLightBoundaries()
	}
	return deps.Session.Light
}

func findTier(tiers domain.SearchTiers, name string) (domain.SearchTier, bool) {
	for _, t := range tiers {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return domain.SearchTier{}, false
}

func parseBBox(raw string) (domain.BoundingBox, error) {
	parts := strings.Split(raw, ",")
	vals := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.BoundingBox{}, fmt.Errorf("%w: %q", domain.ErrInvalidCoordinates, p)
		}
		vals = append(vals, v)
	}
	return domain.NewBoundingBox(vals)
}
