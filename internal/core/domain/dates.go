package domain

import (
	"fmt"
	"time"
)

// wireDateLayout is the DD-MM-YYYY format the remote service speaks.
const wireDateLayout = "02-01-2006"

// FormatDate renders t in the remote service's date format.
func FormatDate(t time.Time) string {
	return t.Format(wireDateLayout)
}

// ParseDate parses a DD-MM-YYYY wire date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(wireDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// NextVaccinationDate computes the earliest date worth searching.
// Dose 1 targets tomorrow. Dose 2 targets the prior dose date plus the
// vaccine's minimum gap, but never earlier than tomorrow.
func NextVaccinationDate(p Preference, now time.Time) string {
	tomorrow := now.AddDate(0, 0, 1)
	if p.Dose != DoseSecond || p.PriorDoseDate == "" {
		return FormatDate(tomorrow)
	}
	prior, err := ParseDate(p.PriorDoseDate)
	if err != nil {
		return FormatDate(tomorrow)
	}
	due := prior.AddDate(0, 0, p.Vaccine.MinDoseGapDays())
	if due.Before(tomorrow) {
		return FormatDate(tomorrow)
	}
	return FormatDate(due)
}
