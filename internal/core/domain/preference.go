package domain

import "time"

// Preference holds the operator's stored selection criteria for one
// beneficiary. It is immutable during a booking run; derived fields
// (Dose, BeneficiaryID, PriorDoseDate, IDDocumentKind) are merged in
// once from the beneficiary record before first use.
type Preference struct {
	Name      string     `json:"name"      yaml:"name"`
	BirthYear int        `json:"birth_year" yaml:"birth_year"`
	Mode      SearchMode `json:"search_mode" yaml:"search_mode"`

	// Pincode is set when Mode == SearchByPincode.
	Pincode string `json:"pincode,omitempty" yaml:"pincode"`

	// State/District are set when Mode == SearchByDistrict.
	StateID      int    `json:"state_id,omitempty" yaml:"state_id"`
	StateName    string `json:"state_name,omitempty" yaml:"state_name"`
	DistrictID   int    `json:"district_id,omitempty" yaml:"district_id"`
	DistrictName string `json:"district_name,omitempty" yaml:"district_name"`

	Vaccine VaccineKind `json:"vaccine" yaml:"vaccine"`
	Charge  ChargeKind  `json:"charge"  yaml:"charge"`

	// Derived from the beneficiary record, merged once.
	Dose           Dose   `json:"dose,omitempty"`
	BeneficiaryID  string `json:"beneficiary_id,omitempty"`
	PriorDoseDate  string `json:"prior_dose_date,omitempty"`
	IDDocumentKind string `json:"id_document_kind,omitempty"`
}

// Age is the beneficiary's age in calendar years as the remote service
// computes it: current year minus birth year.
func (p Preference) Age(now time.Time) int {
	return now.Year() - p.BirthYear
}

// Beneficiary is one person registered under the operator's account.
type Beneficiary struct {
	ReferenceID       string
	Name              string
	BirthYear         int
	Gender            string
	VaccinationStatus string
	Vaccine           string
	Dose1Date         string
	IDDocumentKind    string
}

// Vaccination statuses reported by the remote service.
const (
	StatusNotVaccinated       = "Not Vaccinated"
	StatusPartiallyVaccinated = "Partially Vaccinated"
	StatusVaccinated          = "Vaccinated"
)

// NextDose derives which dose to book from the vaccination status.
// The second return is false when the beneficiary is fully vaccinated.
func (b Beneficiary) NextDose() (Dose, bool) {
	switch b.VaccinationStatus {
	case StatusNotVaccinated:
		return DoseFirst, true
	case StatusPartiallyVaccinated:
		return DoseSecond, true
	}
	return 0, false
}

// MergeBeneficiary returns a copy of p with the fields derived from the
// beneficiary record filled in. This is the only mutation a Preference
// ever sees, and it happens before first use.
func MergeBeneficiary(p Preference, b Beneficiary) Preference {
	if dose, ok := b.NextDose(); ok {
		p.Dose = dose
	}
	p.BeneficiaryID = b.ReferenceID
	p.PriorDoseDate = b.Dose1Date
	p.IDDocumentKind = b.IDDocumentKind
	return p
}
