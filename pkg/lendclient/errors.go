package lendclient

import (
	"fmt"

	"github.com/lumilend/backend/internal/domain/pool"
)

// APIError is a non-2xx response. When the server reported a pool error code
// it unwraps to the matching pool sentinel, so errors.Is works across the
// wire.
type APIError struct {
	Method string
	Path   string
	Status int
	Slug   string
	Code   uint32
	Body   string
}

func (e *APIError) Error() string {
	if e.Slug != "" {
		return fmt.Sprintf("%s %s -> %d %s", e.Method, e.Path, e.Status, e.Slug)
	}
	return fmt.Sprintf("unexpected status: %s %s -> %d body=%q", e.Method, e.Path, e.Status, e.Body)
}

func (e *APIError) Unwrap() error {
	if e.Code == 0 {
		return nil
	}
	if pe, ok := pool.ErrorByCode(e.Code); ok {
		return pe
	}
	return nil
}
