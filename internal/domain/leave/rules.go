package leave

import "time"

// WorkingDays returns the Mon-Fri days in the inclusive range, normalized to
// UTC midnight. Weekends are never leave consumption.
func WorkingDays(startDate, endDate time.Time) (int, []time.Time) {
	if endDate.Before(startDate) {
		return 0, nil
	}

	current := Day(startDate)
	end := Day(endDate)
	days := make([]time.Time, 0)

	for !current.After(end) {
		weekday := current.Weekday()
		if weekday != time.Saturday && weekday != time.Sunday {
			days = append(days, current)
		}
		current = current.AddDate(0, 0, 1)
	}
	return len(days), days
}

// AvailableBalance clamps at zero so inconsistent ledger data is never
// reported as a negative balance.
func AvailableBalance(total, reserved, pending, approved int) int {
	available := total - reserved - pending - approved
	if available < 0 {
		return 0
	}
	return available
}

func UsedPercent(total, pending, approved int) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * float64(pending+approved) / float64(total)
}

func Day(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}
