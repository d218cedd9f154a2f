package validation

// Annotator receives field-level error annotations as a presentation side
// effect. In a browser this would add or remove inline error markup; a
// terminal client can print the message next to the prompt instead.
type Annotator interface {
	SetFieldError(fieldID, message string)
	ClearFieldError(fieldID string)
}

// Validator wraps the pure field predicates with optional presentation
// annotation. Each method validates exactly like its package-level
// counterpart; when fieldID is non-empty and an annotator is attached, a
// failing result also annotates the field and a passing result clears it.
// With an empty fieldID (or a nil annotator) the methods are side-effect
// free, so callers can use the same instance for both modes.
type Validator struct {
	annotator Annotator
}

// NewValidator creates a Validator. A nil annotator disables annotation.
func NewValidator(annotator Annotator) *Validator {
	return &Validator{annotator: annotator}
}

func (v *Validator) annotate(fieldID string, result Result) Result {
	if fieldID == "" || v.annotator == nil {
		return result
	}
	if result.Valid {
		v.annotator.ClearFieldError(fieldID)
	} else {
		v.annotator.SetFieldError(fieldID, result.Message)
	}
	return result
}

// Email validates an email address, annotating fieldID if provided.
func (v *Validator) Email(value, fieldID string) Result {
	return v.annotate(fieldID, Email(value))
}

// Password validates password strength, annotating fieldID if provided.
func (v *Validator) Password(value, fieldID string) Result {
	return v.annotate(fieldID, Password(value))
}

// PasswordsMatch checks password confirmation, annotating the confirmation
// field if provided.
func (v *Validator) PasswordsMatch(password, confirm, confirmFieldID string) Result {
	return v.annotate(confirmFieldID, PasswordsMatch(password, confirm))
}

// Phone validates a phone number, annotating fieldID if provided.
func (v *Validator) Phone(value, fieldID string) Result {
	return v.annotate(fieldID, Phone(value))
}

// Name validates a full name, annotating fieldID if provided.
func (v *Validator) Name(value, fieldID string) Result {
	return v.annotate(fieldID, Name(value))
}

// MFACode validates a multi-factor code, annotating fieldID if provided.
func (v *Validator) MFACode(value, fieldID string) Result {
	return v.annotate(fieldID, MFACode(value))
}

// ICNumber validates an identity card number, annotating fieldID if provided.
func (v *Validator) ICNumber(value, fieldID string) Result {
	return v.annotate(fieldID, ICNumber(value))
}

// Gender validates a gender selection, annotating fieldID if provided.
func (v *Validator) Gender(value, fieldID string) Result {
	return v.annotate(fieldID, Gender(value))
}

// Position validates a job position, annotating fieldID if provided.
func (v *Validator) Position(value, fieldID string) Result {
	return v.annotate(fieldID, Position(value))
}
