// Package apierror maps domain errors onto the dashboard's JSON envelope.
package apierror

import (
	"context"
	"errors"
	"net/http"

	"github.com/vango-go/callscreen/pkg/interview"
)

// Envelope is the error shape every endpoint returns. Success responses carry
// their own shapes with success=true.
type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// FromError converts any error into the wire envelope and an HTTP status.
// Unknown errors never leak details.
func FromError(err error) (Envelope, int) {
	if err == nil {
		return Envelope{Success: true}, http.StatusOK
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Envelope{Error: "request timeout"}, http.StatusGatewayTimeout
	}
	if errors.Is(err, context.Canceled) {
		return Envelope{Error: "request cancelled"}, http.StatusRequestTimeout
	}

	var domErr *interview.Error
	if errors.As(err, &domErr) && domErr != nil {
		return Envelope{Error: domErr.Message}, statusFromType(domErr.Type)
	}

	return Envelope{Error: "internal error"}, http.StatusInternalServerError
}

func statusFromType(t interview.ErrorType) int {
	switch t {
	case interview.ErrNotFound:
		return http.StatusNotFound
	case interview.ErrInvalidTransition, interview.ErrDuplicateSession, interview.ErrNotWaiting:
		return http.StatusConflict
	case interview.ErrProviderFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
