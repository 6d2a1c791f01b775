package cowin

// Wire types for the scheduling service's JSON responses. Only the
// fields the engine reads are mapped.

type otpResponse struct {
	TxnID string `json:"txnId"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// BeneficiaryRecord is one registered beneficiary.
type BeneficiaryRecord struct {
	ReferenceID       string `json:"beneficiary_reference_id"`
	Name              string `json:"name"`
	BirthYear         string `json:"birth_year"`
	Gender            string `json:"gender"`
	VaccinationStatus string `json:"vaccination_status"`
	Vaccine           string `json:"vaccine"`
	Dose1Date         string `json:"dose1_date"`
	PhotoIDType       string `json:"photo_id_type"`
}

type beneficiariesResponse struct {
	Beneficiaries []BeneficiaryRecord `json:"beneficiaries"`
}

// StateRecord is one administrative state.
type StateRecord struct {
	StateID   int    `json:"state_id"`
	StateName string `json:"state_name"`
}

type statesResponse struct {
	States []StateRecord `json:"states"`
}

// DistrictRecord is one district within a state.
type DistrictRecord struct {
	DistrictID   int    `json:"district_id"`
	DistrictName string `json:"district_name"`
}

type districtsResponse struct {
	Districts []DistrictRecord `json:"districts"`
}

// VaccineFee is one entry of a center's per-vaccine fee table.
type VaccineFee struct {
	Vaccine string `json:"vaccine"`
	Fee     string `json:"fee"`
}

// SessionRecord is one bookable session offered by a center.
type SessionRecord struct {
	SessionID     string   `json:"session_id"`
	Date          string   `json:"date"`
	Dose1Capacity int      `json:"available_capacity_dose1"`
	Dose2Capacity int      `json:"available_capacity_dose2"`
	MinAgeLimit   int      `json:"min_age_limit"`
	Vaccine       string   `json:"vaccine"`
	Slots         []string `json:"slots"`
}

// CenterRecord is one vaccination center with its nested sessions.
type CenterRecord struct {
	CenterID     int             `json:"center_id"`
	Name         string          `json:"name"`
	Address      string          `json:"address"`
	StateName    string          `json:"state_name"`
	DistrictName string          `json:"district_name"`
	Pincode      int             `json:"pincode"`
	FeeType      string          `json:"fee_type"`
	VaccineFees  []VaccineFee    `json:"vaccine_fees"`
	Sessions     []SessionRecord `json:"sessions"`
}

type centersResponse struct {
	Centers []CenterRecord `json:"centers"`
}

type captchaResponse struct {
	Captcha string `json:"captcha"`
}

// ScheduleRequest is the claim submitted for one candidate slot.
type ScheduleRequest struct {
	Dose          int      `json:"dose"`
	SessionID     string   `json:"session_id"`
	CenterID      int      `json:"center_id"`
	Slot          string   `json:"slot"`
	Beneficiaries []string `json:"beneficiaries"`
	Captcha       string   `json:"captcha"`
}

type scheduleResponse struct {
	ConfirmationNumber string `json:"appointment_confirmation_no"`
}

type errorResponse struct {
	ErrorCode string `json:"errorCode"`
	Error     string `json:"error"`
}
