package cowin

// API v2 paths, relative to the configured base URL.
const (
	pathGenerateOTP        = "/api/v2/auth/generateMobileOTP"
	pathValidateOTP        = "/api/v2/auth/validateMobileOtp"
	pathBeneficiaries      = "/api/v2/appointment/beneficiaries"
	pathStates             = "/api/v2/admin/location/states"
	pathDistricts          = "/api/v2/admin/location/districts/%d"
	pathCalendarByPin      = "/api/v2/appointment/sessions/calendarByPin"
	pathCalendarByDistrict = "/api/v2/appointment/sessions/calendarByDistrict"
	pathCaptcha            = "/api/v2/auth/getRecaptcha"
	pathSchedule           = "/api/v2/appointment/schedule"
)

// DefaultBaseURL is the public endpoint of the scheduling service.
const DefaultBaseURL = "https://cdn-api.co-vin.in"

// otpSecret is the fixed secret the self-registration portal sends with
// every OTP challenge request.
const otpSecret = "U2FsdGVkX1/hd9dh9pTViQt395ew1rdxdzH3hYk426eGz9c4kjREdsmffPgmrylHJ6vV2zV+CtK2BEiKdprbeQ=="
