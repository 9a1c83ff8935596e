// Package subscriptions provides the read-side subscription check backing
// premium entitlement. Subscription lifecycle belongs to the payments domain.
package subscriptions

import (
	"context"
	"time"
)

// Repository defines the single read the entitlement check needs.
type Repository interface {
	// HasActive reports whether the user holds an unexpired subscription
	// covering the subject (or a platform-wide one with no subject).
	HasActive(ctx context.Context, userID, subjectID string, now time.Time) (bool, error)
}
