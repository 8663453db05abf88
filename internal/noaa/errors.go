package noaa

import "errors"

// Refresh failure taxonomy. Providers and sensors wrap these with %w so callers
// can classify with errors.Is.
var (
	// ErrConnectivity covers unreachable hosts, timeouts and non-2xx responses.
	ErrConnectivity = errors.New("noaa: connectivity failure")
	// ErrMalformedResponse means a response parsed but did not have the expected shape.
	ErrMalformedResponse = errors.New("noaa: malformed response")
	// ErrNoData means the response was valid but held no usable rows.
	ErrNoData = errors.New("noaa: no data")

	// ErrSensorNotFound is returned by Service lookups for unknown ids.
	ErrSensorNotFound = errors.New("sensor not found")
)

// ErrorClass returns a short label for a refresh error, used in metrics.
func ErrorClass(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConnectivity):
		return "connectivity"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrNoData):
		return "no_data"
	default:
		return "other"
	}
}
