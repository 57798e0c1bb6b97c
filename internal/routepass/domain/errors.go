package domain

import (
	"fmt"

	apperrors "github.com/skatamatic/blulok-cloud-sub010/internal/errors"
)

// Issuance failures. Each wraps a shared sentinel so the HTTP layer maps it
// without knowing this package.
var (
	// ErrDeviceNotBound means the requesting device hint is missing or does
	// not match any device registered to the user.
	ErrDeviceNotBound = fmt.Errorf("requesting device not bound to user: %w", apperrors.ErrForbidden)

	// ErrNoAccessibleLocks means the identity's audience is empty after
	// role scoping.
	ErrNoAccessibleLocks = fmt.Errorf("no accessible locks for identity: %w", apperrors.ErrNotFound)

	// ErrOutsideSchedule means the identity has no active schedule window at
	// issuance time.
	ErrOutsideSchedule = fmt.Errorf("outside schedule window: %w", apperrors.ErrForbidden)
)
