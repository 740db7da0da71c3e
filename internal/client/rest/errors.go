package rest

import (
	"errors"
	"fmt"

	"github.com/apiarist/hivekeep/internal/common"
)

// Error is a non-2xx response from the backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("remote error: status %d: %s", e.Status, e.Message)
}

// IsRetryable reports whether a failed call might succeed if replayed later:
// transport failures (connection refused, DNS, timeouts) and server-side 5xx
// responses. Client errors (4xx) are permanent: replaying the same payload
// would fail the same way.
func IsRetryable(err error) bool {
	if errors.Is(err, common.ErrUnavailable) {
		return true
	}
	var re *Error
	return errors.As(err, &re) && re.Status >= 500
}
