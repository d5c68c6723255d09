package leadsapi

import (
	"errors"
	"fmt"
)

// DefaultServerMessage is used when an error response carries no readable message.
const DefaultServerMessage = "Error de servidor"

var (
	// ErrUnauthorized is returned for HTTP 401. The session has already been cleared.
	ErrUnauthorized = errors.New("leadsapi: unauthorized")
	// ErrServer matches every *ServerError through errors.Is.
	ErrServer = errors.New("leadsapi: server error")
)

// ServerError describes a non-2xx, non-401 response.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("leadsapi: remote error %d: %s", e.Status, e.Message)
}

// Is lets callers match any server error with errors.Is(err, ErrServer).
func (e *ServerError) Is(target error) bool {
	return target == ErrServer
}
