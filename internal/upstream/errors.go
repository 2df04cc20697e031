package upstream

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAuthenticationMissing means no bearer credential could be resolved.
// It is returned before any network call is made.
var ErrAuthenticationMissing = errors.New("no bearer credential available; please log in again")

// Kind classifies a failed upstream call. Classification happens in exactly
// one place (the client); callers match on Kind instead of re-deriving it
// from status codes or message text.
type Kind int

const (
	// KindNetworkOrServer covers transport failures, non-JSON responses
	// and 5xx responses.
	KindNetworkOrServer Kind = iota
	// KindValidation covers 400/422 responses with a real validation
	// complaint.
	KindValidation
	// KindConflict covers 409: the seat snapshot is stale and a re-fetch
	// is needed.
	KindConflict
	// KindAlreadyCancelled covers 400-class responses whose message says
	// the booking is already cancelled or not found. Callers treat this
	// as a successful terminal state, not a failure.
	KindAlreadyCancelled
	// KindAuth covers 401/403.
	KindAuth
)

// APIError is a classified non-2xx response from the upstream backend.
type APIError struct {
	Kind       Kind
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream returned %d", e.StatusCode)
}

// alreadyGoneFragments are the message substrings that mark a cancellation
// target as already gone. Matched case-insensitively.
var alreadyGoneFragments = []string{
	"already cancelled",
	"already canceled",
	"not found",
}

// classify maps a non-2xx status plus server message onto the error
// taxonomy.
func classify(status int, message string) Kind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 409:
		return KindConflict
	case status >= 400 && status < 500:
		lower := strings.ToLower(message)
		for _, fragment := range alreadyGoneFragments {
			if strings.Contains(lower, fragment) {
				return KindAlreadyCancelled
			}
		}
		return KindValidation
	default:
		return KindNetworkOrServer
	}
}

// IsKind reports whether err is an APIError of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

// IsAlreadyCancelled reports whether err means the cancellation target was
// already gone upstream.
func IsAlreadyCancelled(err error) bool {
	return IsKind(err, KindAlreadyCancelled)
}

// IsConflict reports whether err is a seat-availability conflict.
func IsConflict(err error) bool {
	return IsKind(err, KindConflict)
}
