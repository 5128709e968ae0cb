package remote

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a normalized backend error
type ErrorKind int

const (
	// KindConnectivity means no response was reachable at all
	KindConnectivity ErrorKind = iota
	// KindClient means the backend rejected the request (4xx); retrying
	// the same input will not help
	KindClient
	// KindServer means the backend itself failed (5xx)
	KindServer
)

// String returns the kind name
func (k ErrorKind) String() string {
	switch k {
	case KindConnectivity:
		return "connectivity"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// APIError is the single error shape every backend failure is normalized
// to before it reaches any other component. Components branch on Kind,
// never on transport detail.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
	}
	return e.Message
}

// Unwrap returns the underlying transport error, if any
func (e *APIError) Unwrap() error {
	return e.Err
}

// AsAPIError extracts the normalized error from an error chain
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// connectivityMessage is what the operator sees when the backend is
// unreachable, kept distinct from validation and server failures
const connectivityMessage = "Cannot reach server. Please check your connection."
