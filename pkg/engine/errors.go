// Package engine implements the webhook notification permission and
// identity-matching engine: integration sharing, event allowlists,
// user subscriptions, external identity resolution, webhook token
// management, and the router that turns an inbound webhook event into
// dispatched notifications.
package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates an unknown integration, user, or group reference.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a webhook token mismatch or a disabled
	// integration. Callers must not distinguish the cases further.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStorage indicates the persistence layer is unavailable.
	ErrStorage = errors.New("storage unavailable")

	// ErrLinkManaged indicates an attempt to modify an SSO-managed
	// identity link through a path reserved for the user.
	ErrLinkManaged = errors.New("identity link is managed by sso")
)

// InvalidEventError reports an event id outside the integration type's
// catalog. It carries the offending id for display to the administrator.
type InvalidEventError struct {
	Event string
}

func (e *InvalidEventError) Error() string {
	return fmt.Sprintf("event not in catalog: %s", e.Event)
}

// IsInvalidEvent reports whether err is an InvalidEventError.
func IsInvalidEvent(err error) bool {
	var ie *InvalidEventError
	return errors.As(err, &ie)
}
