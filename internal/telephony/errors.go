package telephony

import (
	"errors"
	"fmt"
	"strings"
)

// Lookup failures.
var (
	ErrNumberNotFound       = errors.New("telephony: number not found")
	ErrAuthenticationFailed = errors.New("telephony: authentication failed")
	ErrLookupUnavailable    = errors.New("telephony: lookup unavailable")
)

// Voice failures.
var (
	ErrCallPlacementFailed = errors.New("telephony: call placement failed")
	ErrStatusPollFailed    = errors.New("telephony: call status poll failed")
	ErrTerminationFailed   = errors.New("telephony: call termination failed")
)

// ProviderError carries what the provider said about a failed request.
// Kind is one of the sentinel errors above and matches with errors.Is.
type ProviderError struct {
	Kind error

	StatusCode int
	// Code is the provider's numeric error code, 0 when absent.
	Code    int
	Message string
	// Body is the raw response body, if any.
	Body []byte

	Cause error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 5)
	if e.Kind != nil {
		parts = append(parts, e.Kind.Error())
	} else {
		parts = append(parts, "telephony: provider error")
	}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if e.Code > 0 {
		parts = append(parts, fmt.Sprintf("code=%d", e.Code))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ProviderError) Unwrap() []error {
	if e == nil {
		return nil
	}
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

// codeUnverifiedDestination is returned when a trial account dials a number
// that is not on its verified caller list.
const codeUnverifiedDestination = 21219

// IsUnverifiedDestination reports whether a placement was rejected because the
// destination is not verified for this account (sandbox/trial restriction).
func IsUnverifiedDestination(err error) bool {
	if err == nil {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Code == codeUnverifiedDestination {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unverified")
}

var busyMarkers = []string{"busy", "in use"}

// IsBusySignal reports whether a placement error indicates the destination was
// reached but occupied. Matching is a case-insensitive substring test on the
// error text.
func IsBusySignal(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	for _, m := range busyMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
