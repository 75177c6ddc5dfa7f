package ports

import (
	"fmt"

	"roadportal/internal/errs"
)

// Not-found sentinels wrap errs.ErrNotFound so callers can match either.
var (
	ErrReportNotFound       = fmt.Errorf("%w: damage report", errs.ErrNotFound)
	ErrPublicationNotFound  = fmt.Errorf("%w: publication", errs.ErrNotFound)
	ErrInspectionNotFound   = fmt.Errorf("%w: inspection", errs.ErrNotFound)
	ErrMarkerNotFound       = fmt.Errorf("%w: gis marker", errs.ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("%w: user", errs.ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("%w: notification", errs.ErrNotFound)
)

// ErrDuplicateKey is returned when an insert hits a unique index.
var ErrDuplicateKey = fmt.Errorf("%w: duplicate key", errs.ErrStateConflict)
