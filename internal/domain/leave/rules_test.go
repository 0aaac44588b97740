package leave

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWorkingDaysSingleDay(t *testing.T) {
	// 2025-01-06 is a Monday.
	days, dates := WorkingDays(date(2025, 1, 6), date(2025, 1, 6))
	if days != 1 || len(dates) != 1 {
		t.Fatalf("expected 1 working day, got %d", days)
	}

	// 2025-01-04 is a Saturday.
	days, _ = WorkingDays(date(2025, 1, 4), date(2025, 1, 4))
	if days != 0 {
		t.Fatalf("expected 0 working days for a Saturday, got %d", days)
	}
}

func TestWorkingDaysExcludesWeekend(t *testing.T) {
	// Mon 2025-01-06 through Sun 2025-01-12: five weekdays.
	days, dates := WorkingDays(date(2025, 1, 6), date(2025, 1, 12))
	if days != 5 {
		t.Fatalf("expected 5 working days, got %d", days)
	}
	for _, d := range dates {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Fatalf("weekend day %s reported as working", d)
		}
	}
}

func TestWorkingDaysWeekendOnlyRange(t *testing.T) {
	// 2099-01-10 is a Saturday, 2099-01-11 a Sunday.
	days, _ := WorkingDays(date(2099, 1, 10), date(2099, 1, 11))
	if days != 0 {
		t.Fatalf("expected 0 working days, got %d", days)
	}
}

func TestWorkingDaysInvertedRange(t *testing.T) {
	days, dates := WorkingDays(date(2025, 3, 10), date(2025, 3, 9))
	if days != 0 || dates != nil {
		t.Fatalf("expected empty result for inverted range, got %d", days)
	}
}

func TestWorkingDaysNormalizesTimeOfDay(t *testing.T) {
	start := time.Date(2025, 1, 6, 23, 30, 0, 0, time.UTC)
	end := time.Date(2025, 1, 7, 1, 0, 0, 0, time.UTC)
	days, _ := WorkingDays(start, end)
	if days != 2 {
		t.Fatalf("expected 2 working days regardless of time-of-day, got %d", days)
	}
}

func TestAvailableBalance(t *testing.T) {
	if got := AvailableBalance(20, 2, 3, 5); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
	if got := AvailableBalance(5, 0, 4, 4); got != 0 {
		t.Fatalf("expected clamp at 0, got %d", got)
	}
}

func TestUsedPercent(t *testing.T) {
	if got := UsedPercent(20, 3, 5); got != 40 {
		t.Fatalf("expected 40%%, got %v", got)
	}
	if got := UsedPercent(0, 3, 5); got != 0 {
		t.Fatalf("expected 0%% for zero entitlement, got %v", got)
	}
}
