// utils/dates.go
package utils

import "time"

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func DaysBetween(start, end time.Time) int {
	start = BeginningOfDay(start)
	end = BeginningOfDay(end)
	return int(end.Sub(start).Hours() / 24)
}

// DaysOverdue returns ceil((now - dueDate) / 1 day), 0 when not past due.
func DaysOverdue(dueDate, now time.Time) int {
	diff := now.Sub(dueDate)
	if diff <= 0 {
		return 0
	}
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// FormatDueDate renders a date as day-month-year for outbound messages.
func FormatDueDate(t time.Time) string {
	return t.Format("02-01-2006")
}
