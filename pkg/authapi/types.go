package authapi

import "github.com/securedash/authflow/pkg/session"

// Endpoint paths on the authentication backend.
const (
	EndpointLogin              = "/api/auth/login"
	EndpointLoginGoogle        = "/api/auth/login/google"
	EndpointLoginFacebook      = "/api/auth/login/facebook"
	EndpointVerifyMFA          = "/api/auth/verify-mfa"
	EndpointLogout             = "/api/auth/logout"
	EndpointForgotPassword     = "/api/auth/forgot-password"
	EndpointResetPassword      = "/api/auth/reset-password"
	EndpointRegisterUser       = "/api/register/user"
	EndpointVerifyEmail        = "/api/email/verify"
	EndpointResendVerification = "/api/email/resend-verification"
	EndpointMFASetup           = "/api/mfa/setup"
	EndpointMFAStatus          = "/api/mfa/status"
	EndpointMFAValidate        = "/api/mfa/validate"
	EndpointMFADisable         = "/api/mfa/disable"
	EndpointUserProfile        = "/api/user/profile"
	EndpointChangePassword     = "/api/dashboard/change-password"
	EndpointAdminsList         = "/api/superadmin/admins"
	EndpointRegisterAdmin      = "/api/register/admin"
)

// Provider identifies a social login provider.
type Provider string

const (
	ProviderGoogle   Provider = "GOOGLE"
	ProviderFacebook Provider = "FACEBOOK"
)

// LoginRequest is the credential submission body.
type LoginRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	RecaptchaToken string `json:"recaptchaToken"`
	MFACode        string `json:"mfaCode,omitempty"`
}

// SocialLoginRequest carries a provider-issued access token.
type SocialLoginRequest struct {
	Provider       Provider `json:"provider"`
	AccessToken    string   `json:"accessToken"`
	RecaptchaToken string   `json:"recaptchaToken"`
}

// VerifyMFARequest is the second login step: the one-time code plus the
// server-issued MFA session token from the first step.
type VerifyMFARequest struct {
	Email        string `json:"email"`
	Code         string `json:"code"`
	SessionToken string `json:"sessionToken"`
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// RegisterUserRequest creates a new user account.
type RegisterUserRequest struct {
	Name           string `json:"name"`
	ICNumber       string `json:"custIcNo"`
	Gender         string `json:"gender"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phoneNumber"`
	Password       string `json:"password"`
	RecaptchaToken string `json:"recaptchaToken"`
}

// AuthResponse is the shared response shape of the login, social login,
// and verify-mfa endpoints. Exactly one of three outcomes holds:
// RequiresMfa with an MFA session token, Success with issued tokens, or
// neither (rejection, Message set).
type AuthResponse struct {
	Success         bool          `json:"success"`
	RequiresMfa     bool          `json:"requiresMfa,omitempty"`
	MfaSessionToken string        `json:"mfaSessionToken,omitempty"`
	Email           string        `json:"email,omitempty"`
	Tokens          *TokenPayload `json:"tokens,omitempty"`
	Message         string        `json:"message,omitempty"`
}

// TokenPayload is the wire shape of the issued token set. Callers map it
// into a session.Tokens before persisting.
type TokenPayload struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	Role         session.Role `json:"role"`
	Email        string       `json:"email"`
}

// MessageResponse is the generic acknowledgement body.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// MFASetupResponse carries the enrollment secret for an authenticator app.
type MFASetupResponse struct {
	Secret    string `json:"secret"`
	QRCodeURL string `json:"qrCodeUrl,omitempty"`
	Message   string `json:"message,omitempty"`
}

// MFAStatusResponse reports whether MFA is enabled for the account.
type MFAStatusResponse struct {
	Enabled bool `json:"enabled"`
}

// Profile is the signed-in user's profile.
type Profile struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Gender      string `json:"gender,omitempty"`
	ICNumber    string `json:"custIcNo,omitempty"`
	Role        string `json:"role"`
}

// ChangePasswordRequest updates the signed-in user's password. The server
// re-checks the current password and the confirmation match.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// CreateAdminRequest registers a staff account. Superadmin only.
type CreateAdminRequest struct {
	Email       string `json:"email"`
	Password    string `json:"staffPass"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Gender      string `json:"gender"`
	Position    string `json:"position"`
	MFAEnabled  bool   `json:"mfaEnabled"`
}

// AdminProfile is one staff record in the admins list.
type AdminProfile struct {
	StaffID     string `json:"staffId"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Position    string `json:"position,omitempty"`
	Role        string `json:"role"`
	MFAEnabled  bool   `json:"mfaEnabled"`
	CreatedBy   string `json:"createdBy,omitempty"`
}

// AdminListResponse is the superadmin admins listing.
type AdminListResponse struct {
	Success     bool           `json:"success"`
	Message     string         `json:"message,omitempty"`
	TotalAdmins int            `json:"totalAdmins"`
	Admins      []AdminProfile `json:"admins"`
}

// errorResponse is what the backend returns with a non-2xx status.
type errorResponse struct {
	Message     string            `json:"message"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}
