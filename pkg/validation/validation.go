package validation

import (
	"regexp"
	"strings"
)

// Result is the outcome of validating a single field value.
type Result struct {
	Valid   bool
	Message string
}

// Validation messages shown to the user. Field-specific "required" messages
// take precedence over format messages; the first failing rule wins.
const (
	MsgEmailRequired     = "Email address is required"
	MsgEmailInvalid      = "Please enter a valid email address"
	MsgPasswordRequired  = "Password is required"
	MsgPasswordWeak      = "Password must be at least 8 characters with uppercase, lowercase, number, and special character"
	MsgPasswordMismatch  = "Passwords do not match"
	MsgNameRequired      = "Full name is required"
	MsgNameInvalid       = "Name must contain only letters and spaces (minimum 2 characters)"
	MsgPhoneRequired     = "Phone number is required"
	MsgPhoneInvalid      = "Phone format must be XXX-XXXXXXX or XXX-XXXXXXXX"
	MsgMFACodeRequired   = "MFA code is required"
	MsgMFACodeInvalid    = "MFA code must be 6 digits"
	MsgICRequired        = "IC number is required"
	MsgICInvalid         = "IC format must be XXXXXX-XX-XXXX"
	MsgGenderRequired    = "Please select a gender"
	MsgPositionRequired  = "Position is required"
	MsgPositionInvalid   = "Position cannot contain digits"
	MsgRecaptchaRequired = "Please complete the reCAPTCHA verification"
)

var (
	emailPattern    = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	phonePattern    = regexp.MustCompile(`^\d{3}-\d{7,8}$`)
	namePattern     = regexp.MustCompile(`^[a-zA-Z\s]{2,}$`)
	mfaCodePattern  = regexp.MustCompile(`^\d{6}$`)
	icNumberPattern = regexp.MustCompile(`^\d{6}-\d{2}-\d{4}$`)
	digitPattern    = regexp.MustCompile(`[0-9]`)

	passwordLower   = regexp.MustCompile(`[a-z]`)
	passwordUpper   = regexp.MustCompile(`[A-Z]`)
	passwordDigit   = regexp.MustCompile(`\d`)
	passwordSpecial = regexp.MustCompile(`[@$!%*?&]`)
)

// Genders lists the accepted gender selections.
var Genders = []string{"MALE", "FEMALE", "OTHER"}

func valid() Result {
	return Result{Valid: true}
}

func invalid(message string) Result {
	return Result{Valid: false, Message: message}
}

// Email validates an email address: required, then format.
func Email(value string) Result {
	value = strings.TrimSpace(value)
	if value == "" {
		return invalid(MsgEmailRequired)
	}
	if !emailPattern.MatchString(value) {
		return invalid(MsgEmailInvalid)
	}
	return valid()
}

// Password validates password strength: required, then minimum length 8
// with at least one lowercase letter, one uppercase letter, one digit, and
// one of @$!%*?&.
func Password(value string) Result {
	if value == "" {
		return invalid(MsgPasswordRequired)
	}
	if len(value) < 8 ||
		!passwordLower.MatchString(value) ||
		!passwordUpper.MatchString(value) ||
		!passwordDigit.MatchString(value) ||
		!passwordSpecial.MatchString(value) {
		return invalid(MsgPasswordWeak)
	}
	return valid()
}

// PasswordsMatch checks that two password entries are equal. Independent of
// the strength pipeline; a pure equality check.
func PasswordsMatch(password, confirm string) Result {
	if password != confirm {
		return invalid(MsgPasswordMismatch)
	}
	return valid()
}

// Phone validates a phone number in XXX-XXXXXXX or XXX-XXXXXXXX form.
func Phone(value string) Result {
	value = strings.TrimSpace(value)
	if value == "" {
		return invalid(MsgPhoneRequired)
	}
	if !phonePattern.MatchString(value) {
		return invalid(MsgPhoneInvalid)
	}
	return valid()
}

// Name validates a full name: letters and spaces, minimum two characters.
func Name(value string) Result {
	value = strings.TrimSpace(value)
	if value == "" {
		return invalid(MsgNameRequired)
	}
	if !namePattern.MatchString(value) {
		return invalid(MsgNameInvalid)
	}
	return valid()
}

// MFACode validates a multi-factor code: exactly six digits.
func MFACode(value string) Result {
	value = strings.TrimSpace(value)
	if value == "" {
		return invalid(MsgMFACodeRequired)
	}
	if !mfaCodePattern.MatchString(value) {
		return invalid(MsgMFACodeInvalid)
	}
	return valid()
}

// ICNumber validates an identity card number in XXXXXX-XX-XXXX form.
func ICNumber(value string) Result {
	value = strings.TrimSpace(value)
	if value == "" {
		return invalid(MsgICRequired)
	}
	if !icNumberPattern.MatchString(value) {
		return invalid(MsgICInvalid)
	}
	return valid()
}

// Gender validates a gender selection against the fixed enumeration.
func Gender(value string) Result {
	value = strings.TrimSpace(value)
	if value == "" {
		return invalid(MsgGenderRequired)
	}
	for _, g := range Genders {
		if value == g {
			return valid()
		}
	}
	return invalid(MsgGenderRequired)
}

// Position validates a job position: required, no digit characters.
func Position(value string) Result {
	value = strings.TrimSpace(value)
	if value == "" {
		return invalid(MsgPositionRequired)
	}
	if digitPattern.MatchString(value) {
		return invalid(MsgPositionInvalid)
	}
	return valid()
}
