package api

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/paykeeper/internal/common"
)

// ErrMethodInactive is returned when the service reports no active payment
// method.
var ErrMethodInactive = errors.New("payment method inactive")

// Error is an application-level refusal reported by the payment service
// (envelope success=false). The message text comes from the remote side.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return "api: " + e.Message
}

// NeedsLogin reports whether err indicates that the session is no longer
// accepted and a fresh login is required. The service has no dedicated error
// code for this, so the check is best effort: an HTTP 401 or a refusal whose
// message mentions login.
func NeedsLogin(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, common.ErrUnauthorized) {
		return true
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return strings.Contains(strings.ToLower(apiErr.Message), "login")
	}
	return false
}
