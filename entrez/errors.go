package entrez

import (
	"errors"
	"fmt"
	"strings"
)

// StatusError is returned when E-utilities answers with a non-200 HTTP
// status.
type StatusError struct {
	Util   string
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s: server returned %s", e.Util, e.Status)
	}

	return fmt.Sprintf("%s: server returned %s: %s", e.Util, e.Status, body)
}

// ServiceError is an <ERROR> element embedded in an otherwise successful
// E-utilities response, e.g. an unknown database name.
type ServiceError struct {
	Util    string
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Util, e.Message)
}

// ExhaustedError is returned once every attempt permitted by a RetryPolicy
// has failed with a transient error.
type ExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("Entrez %s download failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a server-side (5xx) failure that is
// worth retrying.
func IsTransient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 && se.Code <= 599
	}

	return false
}
