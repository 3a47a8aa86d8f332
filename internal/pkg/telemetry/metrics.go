package telemetry

// Span and attribute names used for instrumentation.
const (
	SpanGeocoderSearch   = "geocoder.search"
	SpanDirectionsFetch  = "directions.fetch"
	SpanDirectionsRoute  = "directions.shortest_path"
	SpanSessionRoute     = "session.route"
	SpanSessionSearch    = "session.search"
	AttrSearchTier       = "flyover.search.tier"
	AttrSearchQuery      = "flyover.search.query"
	AttrSearchResults    = "flyover.search.results"
	AttrRoutePoints      = "flyover.route.points"
	AttrRouteMeters      = "flyover.route.meters"
	AttrSessionID        = "flyover.session.id"
	AttrDirectionsSource = "flyover.directions.source"
)
