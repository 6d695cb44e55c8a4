package submit

import (
	"fmt"
	"strings"
)

// ValidationError is detected client-side and never reaches the transport.
// Missing lists absent required fields; Reason carries other client-side
// rejections such as the photo size ceiling.
type ValidationError struct {
	Missing []string
	Reason  string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
	}
	return e.Reason
}
