// Package apierr defines the observable error kinds the router surfaces
// to callers, per the error-handling design: routing failures are
// returned, never logged to a side channel, and always typed so callers
// can branch on errors.Is/errors.As.
package apierr

import "fmt"

// Kind classifies a RouteError.
type Kind int

const (
	// KindUnknownNode: an osm_id supplied to idx_for_osm_id is not in the graph.
	KindUnknownNode Kind = iota
	// KindNoPath: A* exhausted the reachable component without visiting the target.
	KindNoPath
	// KindInvalidCoord: nearest-node query on an empty graph, or NaN coordinates.
	KindInvalidCoord
	// KindMalformedGraph: header magic/version wrong, or CSR invariants failed on load.
	KindMalformedGraph
	// KindHistoryUnavailable: the history store could not be opened, or a write failed to commit.
	KindHistoryUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindUnknownNode:
		return "UnknownNode"
	case KindNoPath:
		return "NoPath"
	case KindInvalidCoord:
		return "InvalidCoord"
	case KindMalformedGraph:
		return "MalformedGraph"
	case KindHistoryUnavailable:
		return "HistoryUnavailable"
	default:
		return "Unknown"
	}
}

// RouteError is a typed, wrappable error carrying one of the Kind values.
type RouteError struct {
	Kind Kind
	Msg  string
	Err  error // optional wrapped cause
}

func (e *RouteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *RouteError) Unwrap() error { return e.Err }

// Is reports whether target is a *RouteError with the same Kind, so
// callers can do errors.Is(err, apierr.New(apierr.KindNoPath, "")).
func (e *RouteError) Is(target error) bool {
	t, ok := target.(*RouteError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New constructs a RouteError of the given kind.
func New(kind Kind, msg string) *RouteError {
	return &RouteError{Kind: kind, Msg: msg}
}

// Wrap constructs a RouteError of the given kind around a cause.
func Wrap(kind Kind, msg string, err error) *RouteError {
	return &RouteError{Kind: kind, Msg: msg, Err: err}
}
