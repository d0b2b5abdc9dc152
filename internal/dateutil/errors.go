package dateutil

import (
	"fmt"

	"github.com/rsolheim/unitbooking/internal/domain"
)

var (
	ErrBadDate        = fmt.Errorf("%w: dates must be YYYY-MM-DD", domain.ErrValidation)
	ErrTooShort       = fmt.Errorf("%w: minimum stay is %d nights", domain.ErrValidation, MinNights)
	ErrNotWeekAligned = fmt.Errorf("%w: bookings run Monday to Monday in whole weeks", domain.ErrValidation)
)
