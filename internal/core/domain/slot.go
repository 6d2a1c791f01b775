package domain

import "time"

// CandidateSlot is one currently-advertised appointment opportunity,
// produced fresh on every poll and never cached across polls.
type CandidateSlot struct {
	CenterID      int
	SessionID     string
	Name          string
	Address       string
	Vaccine       VaccineKind
	Charge        ChargeKind
	MinAge        int
	Dose1Capacity int
	Dose2Capacity int
	Date          string
	TimeSlots     []string
	Fee           int
}

// DoseCapacity returns the remaining capacity for the given dose.
func (c CandidateSlot) DoseCapacity(d Dose) int {
	switch d {
	case DoseFirst:
		return c.Dose1Capacity
	case DoseSecond:
		return c.Dose2Capacity
	}
	return 0
}

// Eligible reports whether the slot satisfies the preference: vaccine
// and charge kind match exactly, the minimum age is met, and the
// targeted dose still has capacity.
func (c CandidateSlot) Eligible(p Preference, now time.Time) bool {
	return c.Vaccine == p.Vaccine &&
		c.Charge == p.Charge &&
		c.MinAge <= p.Age(now) &&
		c.DoseCapacity(p.Dose) > 0
}

// BookingResult is the terminal success value of a claim.
type BookingResult struct {
	ConfirmationNumber string
}
