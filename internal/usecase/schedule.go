package usecase

import (
	"fmt"
	"time"

	"github.com/semmidev/sqlbackup/internal/domain"
)

// IsDue reports whether a database with the given frequency is backed up on
// today. Weekly databases run on schedule.DayOfWeek, monthly ones on
// schedule.DayOfMonth; a day of month the current month lacks never matches.
func IsDue(frequency domain.Frequency, schedule domain.RunSchedule, today time.Time) (bool, error) {
	switch frequency {
	case domain.FrequencyDaily:
		return true, nil
	case domain.FrequencyWeekly:
		return today.Weekday() == schedule.DayOfWeek, nil
	case domain.FrequencyMonthly:
		return today.Day() == schedule.DayOfMonth, nil
	}
	return false, fmt.Errorf("%w: %q", domain.ErrBadFrequency, string(frequency))
}
