package service

import (
	"fmt"
	"time"
)

// ExpiredLabel показывается, когда дедлайн склада прошёл.
const ExpiredLabel = "Expired - Sent to warehouse"

// FormatTimeRemaining форматирует остаток до дедлайна склада.
func FormatTimeRemaining(deadline, now time.Time) string {
	if !now.Before(deadline) {
		return ExpiredLabel
	}

	days, hours, minutes := splitDuration(deadline.Sub(now))
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm remaining", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm remaining", hours, minutes)
	default:
		return fmt.Sprintf("%dm remaining", minutes)
	}
}

// formatSuspensionRemaining - короткая форма для ограничений: "Xd Yh" или "Yh".
func formatSuspensionRemaining(end, now time.Time) string {
	if !now.Before(end) {
		return "0h"
	}
	days, hours, _ := splitDuration(end.Sub(now))
	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	return fmt.Sprintf("%dh", hours)
}

func splitDuration(d time.Duration) (days, hours, minutes int) {
	total := int(d / time.Minute)
	days = total / (24 * 60)
	hours = (total % (24 * 60)) / 60
	minutes = total % 60
	return days, hours, minutes
}
