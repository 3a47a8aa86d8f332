package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/samirrijal/flyover/internal/core/domain"
	"github.com/samirrijal/flyover/internal/pkg/geospatial"
)

// RoutingRepo implements ports.RoutingRepository over an osm2pgrouting
// schema (ways, ways_vertices_pgr) using pgr_dijkstra.
type RoutingRepo struct {
	db *DB
	// snapRadius bounds the nearest-vertex search around each endpoint.
	snapRadius float64
}

func NewRoutingRepo(db *DB, snapRadiusMeters float64) *RoutingRepo {
	return &RoutingRepo{db: db, snapRadius: snapRadiusMeters}
}

// ShortestPath returns the road geometry and its length in meters.
func (r *RoutingRepo) ShortestPath(ctx context.Context, start, end domain.GeoPoint) (domain.RoutePath, float64, error) {
	from, err := r.nearestVertex(ctx, start)
	if err != nil {
		return domain.RoutePath{}, 0, fmt.Errorf("snap start: %w", err)
	}
	to, err := r.nearestVertex(ctx, end)
	if err != nil {
		return domain.RoutePath{}, 0, fmt.Errorf("snap end: %w", err)
	}
	if from == to {
		route, err := domain.NewRoutePath([]domain.GeoPoint{start, end})
		return route, geospatial.Haversine(start, end), err
	}

	geom := wkb.Scanner(nil)
	var meters *float64
	err = r.db.Pool.QueryRow(ctx, `
		SELECT ST_AsBinary(ST_MakeLine(seg ORDER BY seq)), SUM(len)
		FROM (
			SELECT d.seq,
			       CASE WHEN d.node = w.source THEN w.the_geom ELSE ST_Reverse(w.the_geom) END AS seg,
			       w.length_m AS len
			FROM pgr_dijkstra(
				'SELECT gid AS id, source, target, cost, reverse_cost FROM ways',
				$1::bigint, $2::bigint, directed => true
			) d
			JOIN ways w ON w.gid = d.edge
		) path
	`, from, to).Scan(geom, &meters)
	if err != nil {
		return domain.RoutePath{}, 0, fmt.Errorf("dijkstra: %w", err)
	}
	if !geom.Valid {
		return domain.RoutePath{}, 0, domain.ErrNoRoute
	}
	ls, ok := geom.Geometry.(orb.LineString)
	if !ok {
		return domain.RoutePath{}, 0, fmt.Errorf("dijkstra: unexpected geometry %T", geom.Geometry)
	}

	route, err := domain.RoutePathFromLineString(ls)
	if err != nil {
		return domain.RoutePath{}, 0, domain.ErrNoRoute
	}
	var total float64
	if meters != nil {
		total = *meters
	}
	return route, total, nil
}

func (r *RoutingRepo) nearestVertex(ctx context.Context, p domain.GeoPoint) (int64, error) {
	box := geospatial.Around(p, r.snapRadius)
	var id int64
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id FROM ways_vertices_pgr
		WHERE the_geom && ST_MakeEnvelope($1, $2, $3, $4, 4326)
		ORDER BY the_geom <-> ST_SetSRID(ST_MakePoint($5, $6), 4326)
		LIMIT 1
	`, box.MinLon, box.MinLat, box.MaxLon, box.MaxLat, p.Lon, p.Lat).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrNoRoute
	}
	return id, err
}
