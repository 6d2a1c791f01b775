package domain

import (
	"fmt"
	"strings"
)

// VaccineKind identifies the vaccine a session offers.
type VaccineKind string

const (
	VaccineCovishield VaccineKind = "COVISHIELD"
	VaccineCovaxin    VaccineKind = "COVAXIN"
	VaccineSputnik    VaccineKind = "SPUTNIK"
)

// ParseVaccineKind validates raw input against the closed set of vaccines.
func ParseVaccineKind(s string) (VaccineKind, error) {
	switch VaccineKind(strings.ToUpper(strings.TrimSpace(s))) {
	case VaccineCovishield:
		return VaccineCovishield, nil
	case VaccineCovaxin:
		return VaccineCovaxin, nil
	case VaccineSputnik:
		return VaccineSputnik, nil
	}
	return "", fmt.Errorf("unknown vaccine kind %q", s)
}

// MinDoseGapDays is the minimum number of days between dose 1 and dose 2.
func (v VaccineKind) MinDoseGapDays() int {
	switch v {
	case VaccineCovishield:
		return 84
	case VaccineCovaxin:
		return 28
	case VaccineSputnik:
		return 21
	}
	return 0
}

// MaxDoseGapDays is the recommended upper bound between dose 1 and dose 2.
func (v VaccineKind) MaxDoseGapDays() int {
	switch v {
	case VaccineCovishield:
		return 112
	case VaccineCovaxin:
		return 42
	case VaccineSputnik:
		return 90
	}
	return 0
}

// ChargeKind identifies whether a center charges a fee.
type ChargeKind string

const (
	ChargeFree ChargeKind = "Free"
	ChargePaid ChargeKind = "Paid"
)

// ParseChargeKind validates raw input against the closed set of charge types.
func ParseChargeKind(s string) (ChargeKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "free":
		return ChargeFree, nil
	case "paid":
		return ChargePaid, nil
	}
	return "", fmt.Errorf("unknown charge kind %q", s)
}

// SearchMode selects how availability is queried.
type SearchMode string

const (
	SearchByPincode  SearchMode = "pincode"
	SearchByDistrict SearchMode = "district"
)

// ParseSearchMode validates raw input against the closed set of search modes.
func ParseSearchMode(s string) (SearchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pincode", "pin":
		return SearchByPincode, nil
	case "district":
		return SearchByDistrict, nil
	}
	return "", fmt.Errorf("unknown search mode %q", s)
}

// Dose is the sequential administration number the booking targets.
type Dose int

const (
	DoseFirst  Dose = 1
	DoseSecond Dose = 2
)

// Valid reports whether d is a known dose number.
func (d Dose) Valid() bool {
	return d == DoseFirst || d == DoseSecond
}
