package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jinzhu/copier"

	"github.com/securedash/authflow/pkg/authapi"
	"github.com/securedash/authflow/pkg/errors"
	"github.com/securedash/authflow/pkg/session"
	"github.com/securedash/authflow/pkg/throttle"
	"github.com/securedash/authflow/pkg/validation"
)

// Phase is the login state machine position.
type Phase string

const (
	PhaseCredentials   Phase = "CREDENTIALS"
	PhaseMFAChallenge  Phase = "MFA_CHALLENGE"
	PhaseAuthenticated Phase = "AUTHENTICATED"
)

// Field identifiers passed to Presenter.ShowFieldError.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldMFACode  = "mfaCode"
)

// UI messages, matching the web client wording.
const (
	MsgSessionExpired = "Your session has expired. Please login again."
	MsgMFAPrompt      = "Credentials verified. Please enter your 2FA code."
	MsgLoginSuccess   = "Login successful! Redirecting..."

	msgLockedSubmit         = "Account is locked. Please wait before trying again."
	msgLockedStatusFmt      = "Account locked due to too many failed attempts. Please try again in %d minute(s)."
	msgAttemptsRemainingFmt = "Invalid credentials. %d attempt(s) remaining before account lockout."
	msgLockoutEnteredFmt    = "Too many failed login attempts. Account locked for %d minute(s)."
)

// API is the backend surface the controller drives. *authapi.Client
// satisfies it; tests substitute a stub.
type API interface {
	Login(ctx context.Context, req authapi.LoginRequest) (*authapi.AuthResponse, error)
	LoginWithGoogle(ctx context.Context, accessToken, recaptchaToken string) (*authapi.AuthResponse, error)
	LoginWithFacebook(ctx context.Context, accessToken, recaptchaToken string) (*authapi.AuthResponse, error)
	VerifyMFA(ctx context.Context, req authapi.VerifyMFARequest) (*authapi.AuthResponse, error)
	Logout(ctx context.Context, accessToken string) error
}

// ProviderTokenSource obtains an access token from an external identity
// provider, typically by completing an OAuth handshake out of band. The
// controller asks for the token only when a social login is submitted.
type ProviderTokenSource interface {
	Token(ctx context.Context, provider authapi.Provider) (string, error)
}

// Controller orchestrates the two-step login state machine: credential
// submission, optional MFA challenge, session persistence and logout. One
// controller instance serves one user surface; transitions run to
// completion and concurrent submissions are rejected, not queued.
type Controller struct {
	api       API
	sessions  *session.Service
	attempts  *throttle.Service
	presenter Presenter
	validator *validation.Validator
	logger    *slog.Logger

	mutex           sync.Mutex
	busy            bool
	phase           Phase
	pendingEmail    string
	mfaSessionToken string
}

// Option configures a Controller.
type Option func(*Controller)

// WithPresenter installs the UI callback sink. Defaults to NopPresenter.
func WithPresenter(p Presenter) Option {
	return func(c *Controller) {
		c.presenter = p
	}
}

// WithLogger replaces the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController wires the collaborating services together. The controller
// starts in the CREDENTIALS phase regardless of any persisted session;
// callers that want to skip login for an existing session check
// sessions.IsAuthenticated() themselves.
func NewController(api API, sessions *session.Service, attempts *throttle.Service, opts ...Option) *Controller {
	c := &Controller{
		api:       api,
		sessions:  sessions,
		attempts:  attempts,
		presenter: NopPresenter{},
		logger:    slog.Default(),
		phase:     PhaseCredentials,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.validator = validation.NewValidator(presenterAnnotator{presenter: c.presenter})
	return c
}

// Phase returns the current state machine position.
func (c *Controller) Phase() Phase {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.phase
}

// PendingEmail returns the email awaiting MFA verification, empty outside
// the MFA_CHALLENGE phase.
func (c *Controller) PendingEmail() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.pendingEmail
}

// SubmitCredentials runs the first login step. Local validation failures
// and an active lockout stop the transition before any network call and
// never count as attempts; server rejections and network errors count.
func (c *Controller) SubmitCredentials(ctx context.Context, email, password, recaptchaToken string) error {
	release, err := c.beginSubmission(PhaseCredentials)
	if err != nil {
		return err
	}
	defer release()

	c.presenter.ClearFieldErrors()

	if err := c.checkLockout(); err != nil {
		return err
	}

	emailResult := c.validator.Email(email, FieldEmail)
	passwordResult := c.validator.Password(password, FieldPassword)
	if !emailResult.Valid {
		return errors.New(errors.ErrCodeValidationFailed, emailResult.Message)
	}
	if !passwordResult.Valid {
		return errors.New(errors.ErrCodeValidationFailed, passwordResult.Message)
	}
	if recaptchaToken == "" {
		c.presenter.ShowError(validation.MsgRecaptchaRequired)
		return errors.New(errors.ErrCodeValidationFailed, validation.MsgRecaptchaRequired)
	}

	resp, err := c.api.Login(ctx, authapi.LoginRequest{
		Email:          email,
		Password:       password,
		RecaptchaToken: recaptchaToken,
	})
	return c.handleAuthOutcome(resp, err, email)
}

// SubmitMFACode runs the second login step. Valid only in MFA_CHALLENGE.
// Rejected codes count toward the same lockout as rejected credentials,
// and an active lockout blocks the code before any network call.
func (c *Controller) SubmitMFACode(ctx context.Context, code string) error {
	release, err := c.beginSubmission(PhaseMFAChallenge)
	if err != nil {
		return err
	}
	defer release()

	c.presenter.ClearFieldErrors()

	if err := c.checkLockout(); err != nil {
		return err
	}

	if result := c.validator.MFACode(code, FieldMFACode); !result.Valid {
		return errors.New(errors.ErrCodeValidationFailed, result.Message)
	}

	c.mutex.Lock()
	req := authapi.VerifyMFARequest{
		Email:        c.pendingEmail,
		Code:         code,
		SessionToken: c.mfaSessionToken,
	}
	c.mutex.Unlock()

	resp, err := c.api.VerifyMFA(ctx, req)
	if err != nil || resp == nil || !resp.Success || resp.Tokens == nil {
		// Rejected code: count the attempt, clear the input, stay in
		// MFA_CHALLENGE so the user can retry without re-entering
		// credentials.
		c.presenter.ClearMFACode()
		return c.registerFailure(err, errors.ErrCode2FAInvalid, "Invalid MFA code")
	}
	return c.completeLogin(resp.Tokens)
}

// CancelMFA abandons a pending MFA challenge and returns to the
// credential form.
func (c *Controller) CancelMFA() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.busy {
		return errors.New(errors.ErrCodeSubmissionInFlight, "A submission is already in progress")
	}
	if c.phase != PhaseMFAChallenge {
		return errors.Newf(errors.ErrCodeInvalidState, "cannot cancel MFA in phase %s", c.phase)
	}
	c.phase = PhaseCredentials
	c.pendingEmail = ""
	c.mfaSessionToken = ""
	c.presenter.ClearMFACode()
	return nil
}

// ProcessSocialLogin exchanges a provider-issued access token for a
// session. It bypasses credential validation but follows the same
// three-outcome handling as SubmitCredentials, including the MFA hand-off
// and throttle updates.
func (c *Controller) ProcessSocialLogin(ctx context.Context, provider authapi.Provider, providerToken, recaptchaToken string) error {
	release, err := c.beginSubmission(PhaseCredentials)
	if err != nil {
		return err
	}
	defer release()

	c.presenter.ClearFieldErrors()

	if err := c.checkLockout(); err != nil {
		return err
	}
	if providerToken == "" {
		message := fmt.Sprintf("%s login failed. Please try again.", provider)
		c.presenter.ShowError(message)
		return errors.New(errors.ErrCodeValidationFailed, message)
	}
	if recaptchaToken == "" {
		c.presenter.ShowError(validation.MsgRecaptchaRequired)
		return errors.New(errors.ErrCodeValidationFailed, validation.MsgRecaptchaRequired)
	}

	var resp *authapi.AuthResponse
	switch provider {
	case authapi.ProviderGoogle:
		resp, err = c.api.LoginWithGoogle(ctx, providerToken, recaptchaToken)
	case authapi.ProviderFacebook:
		resp, err = c.api.LoginWithFacebook(ctx, providerToken, recaptchaToken)
	default:
		return errors.Newf(errors.ErrCodeValidationFailed, "unsupported login provider %q", provider)
	}
	return c.handleAuthOutcome(resp, err, "")
}

// SocialLoginVia fetches the provider token from source and submits it.
func (c *Controller) SocialLoginVia(ctx context.Context, source ProviderTokenSource, provider authapi.Provider, recaptchaToken string) error {
	token, err := source.Token(ctx, provider)
	if err != nil {
		message := fmt.Sprintf("%s login failed. Please try again.", provider)
		c.presenter.ShowError(message)
		return errors.Wrap(err, errors.ErrCodeAuthFailed, message)
	}
	return c.ProcessSocialLogin(ctx, provider, token, recaptchaToken)
}

// Logout tells the backend best-effort and always clears local session
// state. A network failure is logged, never surfaced as a logout failure.
func (c *Controller) Logout(ctx context.Context) error {
	c.mutex.Lock()
	if c.busy {
		c.mutex.Unlock()
		return errors.New(errors.ErrCodeSubmissionInFlight, "A submission is already in progress")
	}
	c.busy = true
	c.mutex.Unlock()
	c.presenter.SetSubmitting(true)
	defer func() {
		c.mutex.Lock()
		c.busy = false
		c.mutex.Unlock()
		c.presenter.SetSubmitting(false)
	}()

	if token := c.sessions.AccessToken(); token != "" {
		if err := c.api.Logout(ctx, token); err != nil {
			c.logger.Warn("Server logout failed, clearing local session anyway", "err", err)
		}
	}

	err := c.sessions.Clear()
	c.mutex.Lock()
	c.phase = PhaseCredentials
	c.pendingEmail = ""
	c.mfaSessionToken = ""
	c.mutex.Unlock()
	c.presenter.RedirectToLogin()
	return err
}

// HandleSessionExpired reacts to a 401/403 from an authenticated call:
// clear the session and send the user back to login. The login throttle is
// untouched; an expired session is not a failed attempt.
func (c *Controller) HandleSessionExpired() error {
	err := c.sessions.Clear()
	c.mutex.Lock()
	c.phase = PhaseCredentials
	c.pendingEmail = ""
	c.mfaSessionToken = ""
	c.mutex.Unlock()
	c.presenter.ShowError(MsgSessionExpired)
	c.presenter.RedirectToLogin()
	return err
}

// handleAuthOutcome interprets the shared login/social-login response:
// MFA hand-off, success with tokens, or a counted failure.
func (c *Controller) handleAuthOutcome(resp *authapi.AuthResponse, err error, submittedEmail string) error {
	if err == nil && resp != nil && resp.RequiresMfa {
		email := resp.Email
		if email == "" {
			email = submittedEmail
		}
		c.mutex.Lock()
		c.phase = PhaseMFAChallenge
		c.pendingEmail = email
		c.mfaSessionToken = resp.MfaSessionToken
		c.mutex.Unlock()

		// Credentials were accepted; the throttle stays untouched.
		c.presenter.ClearPassword()
		c.presenter.ShowSuccess(MsgMFAPrompt)
		c.presenter.EnterMFA(email)
		return nil
	}

	if err == nil && resp != nil && resp.Success && resp.Tokens != nil {
		return c.completeLogin(resp.Tokens)
	}

	message := "Invalid email or password"
	if err == nil && resp != nil && resp.Message != "" {
		message = resp.Message
	}
	return c.registerFailure(err, errors.ErrCodeInvalidCredentials, message)
}

// completeLogin persists the issued tokens and finishes the state machine.
func (c *Controller) completeLogin(payload *authapi.TokenPayload) error {
	var tokens session.Tokens
	if err := copier.Copy(&tokens, payload); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to map token response")
	}

	if err := c.attempts.RecordSuccess(); err != nil {
		c.logger.Warn("Failed to reset attempt counter after login", "err", err)
	}
	if err := c.sessions.Save(tokens); err != nil {
		c.logger.Error("Failed to persist session", "err", err)
		c.presenter.ShowError("Failed to save your session. Please try again.")
		return err
	}

	c.mutex.Lock()
	c.phase = PhaseAuthenticated
	c.pendingEmail = ""
	c.mfaSessionToken = ""
	c.mutex.Unlock()

	c.presenter.ShowSuccess(MsgLoginSuccess)
	c.presenter.RedirectByRole(tokens.Role)
	return nil
}

// registerFailure counts a rejected submission and maps it to a user
// message per the remaining-attempts policy.
func (c *Controller) registerFailure(cause error, fallbackCode errors.ErrorCode, fallbackMessage string) error {
	count, justLocked, err := c.attempts.RecordFailure()
	if err != nil {
		c.logger.Warn("Failed to persist attempt counter", "err", err)
	}

	for fieldID, message := range errors.GetFieldErrors(cause) {
		c.presenter.ShowFieldError(fieldID, message)
	}

	cfg := c.attempts.Config()
	if justLocked {
		message := fmt.Sprintf(msgLockoutEnteredFmt, ceilMinutes(cfg.LockoutDuration))
		c.presenter.ShowError(message)
		out := errors.New(errors.ErrCodeRateLimitExceeded, message)
		out.Err = cause
		return out
	}

	code := fallbackCode
	message := fallbackMessage
	if cause != nil {
		code = errors.GetCode(cause)
		if code == errors.ErrCodeInternal {
			code = fallbackCode
		}
		message = errors.GetMessage(cause)
	}
	if remaining := cfg.MaxAttempts - count; remaining <= 2 {
		message = fmt.Sprintf(msgAttemptsRemainingFmt, remaining)
	}

	c.presenter.ShowError(message)
	out := errors.New(code, message)
	out.Err = cause
	return out
}

// CheckLockoutStatus surfaces an active lockout when the login surface
// loads, with the remaining wait in the message. Returns true while the
// lockout is in effect so callers can disable their forms.
func (c *Controller) CheckLockoutStatus() bool {
	if !c.attempts.IsLocked() {
		return false
	}
	minutes := ceilMinutes(c.attempts.RemainingLockout())
	c.presenter.ShowError(fmt.Sprintf(msgLockedStatusFmt, minutes))
	return true
}

// checkLockout rejects the submission while a lockout is active. The
// submit path uses the short wording; the remaining-minutes message is
// reserved for CheckLockoutStatus.
func (c *Controller) checkLockout() error {
	if !c.attempts.IsLocked() {
		return nil
	}
	c.presenter.ShowError(msgLockedSubmit)
	return errors.New(errors.ErrCodeRateLimitExceeded, msgLockedSubmit)
}

// beginSubmission acquires the submission guard and checks the phase.
// The returned release func must run in all exit paths.
func (c *Controller) beginSubmission(required Phase) (func(), error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.busy {
		return nil, errors.New(errors.ErrCodeSubmissionInFlight, "A submission is already in progress")
	}
	if c.phase != required {
		return nil, errors.Newf(errors.ErrCodeInvalidState, "operation not valid in phase %s", c.phase)
	}
	c.busy = true
	c.presenter.SetSubmitting(true)
	return func() {
		c.mutex.Lock()
		c.busy = false
		c.mutex.Unlock()
		c.presenter.SetSubmitting(false)
	}, nil
}

func ceilMinutes(d time.Duration) int {
	minutes := int((d + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
