package domain

import "errors"

var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrShortRoute         = errors.New("route needs at least two points")
	ErrNoRoute            = errors.New("no route between points")
	ErrRouteTooLong       = errors.New("points too far apart")
	ErrEmptyQuery         = errors.New("empty search query")
	ErrMissingEndpoint    = errors.New("missing route endpoint")
	ErrUnknownPreset      = errors.New("unknown light preset")
	ErrUnknownControl     = errors.New("unknown control")
	ErrUnknownAction      = errors.New("unknown control action")
	ErrNoActiveRoute      = errors.New("no route to show")
	ErrCacheMiss          = errors.New("cache miss")
)

// FailureKind classifies failures that are shown to the user.
type FailureKind string

const (
	FailureSearch      FailureKind = "search"
	FailureRouteFetch  FailureKind = "route_fetch"
	FailureGeolocation FailureKind = "geolocation"
	FailureValidation  FailureKind = "validation"
)

// User-facing messages.
const (
	MsgMissingEndpoints       = "Please enter both a starting location and a destination."
	MsgRouteFetchFailed       = "Error fetching directions. Please try again."
	MsgLocationUnavailable    = "Unable to retrieve your location. Please try again."
	MsgGeolocationUnsupported = "Geolocation is not supported by this browser."
	MsgSearchFailed           = "Error searching for that place. Please try again."
	MsgEmptyQuery             = "Please enter a place to search for."
)

// Failure is a user-visible failure wrapping its cause.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

// NewFailure builds a Failure.
func NewFailure(kind FailureKind, message string, err error) *Failure {
	return &Failure{Kind: kind, Message: message, Err: err}
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Kind) + ": " + f.Message
	}
	return string(f.Kind) + ": " + f.Message + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error { return f.Err }
