package flow

import "github.com/securedash/authflow/pkg/session"

// Presenter receives UI-facing callbacks from the controller. Implementations
// render however they like (terminal, TUI, test recorder); every method must
// be cheap and non-blocking since the controller calls them inline.
type Presenter interface {
	// ShowError displays a flow-level error message.
	ShowError(message string)
	// ShowSuccess displays a flow-level informational message.
	ShowSuccess(message string)
	// ShowFieldError attaches a message to a specific input field.
	ShowFieldError(fieldID, message string)
	// ClearFieldError removes the message on one input field.
	ClearFieldError(fieldID string)
	// ClearFieldErrors removes all field-level messages.
	ClearFieldErrors()
	// ClearPassword blanks the password input after a credential hand-off.
	ClearPassword()
	// ClearMFACode blanks the one-time code input after a rejected code.
	ClearMFACode()
	// EnterMFA switches the UI to the one-time code form.
	EnterMFA(email string)
	// SetSubmitting toggles the submission controls while a request is
	// in flight.
	SetSubmitting(busy bool)
	// RedirectByRole navigates to the dashboard for the signed-in role.
	RedirectByRole(role session.Role)
	// RedirectToLogin navigates back to the login form.
	RedirectToLogin()
}

// NopPresenter ignores every callback. Embed it to implement only the
// callbacks a caller cares about.
type NopPresenter struct{}

func (NopPresenter) ShowError(string) {}

func (NopPresenter) ShowSuccess(string) {}

func (NopPresenter) ShowFieldError(string, string) {}

func (NopPresenter) ClearFieldError(string) {}

func (NopPresenter) ClearFieldErrors() {}

func (NopPresenter) ClearPassword() {}

func (NopPresenter) ClearMFACode() {}

func (NopPresenter) EnterMFA(string) {}

func (NopPresenter) SetSubmitting(bool) {}

func (NopPresenter) RedirectByRole(session.Role) {}

func (NopPresenter) RedirectToLogin() {}

// presenterAnnotator adapts a Presenter to the validation.Annotator
// contract so field validators can mark inputs directly.
type presenterAnnotator struct {
	presenter Presenter
}

func (a presenterAnnotator) SetFieldError(fieldID, message string) {
	a.presenter.ShowFieldError(fieldID, message)
}

func (a presenterAnnotator) ClearFieldError(fieldID string) {
	a.presenter.ClearFieldError(fieldID)
}
