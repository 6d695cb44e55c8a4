package transport

import "fmt"

// TransportError is any non-2xx response or network-level failure. The status
// code and raw body are kept so callers can surface the server's detail.
type TransportError struct {
	Status int
	Body   string
}

func (e *TransportError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// NotFoundError marks a fetch for an absent record, distinct from a generic
// transport failure.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Path)
}
