package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/securedash/authflow/pkg/errors"
)

// The generic message shown when a request fails before a parseable
// server response arrives.
const MsgNetworkError = "Network error. Please check your connection."

// Client is a stateless JSON client for the authentication backend. One
// method per endpoint; every method sends the documented request body and
// returns the parsed response body unchanged. Non-2xx responses become
// structured errors carrying the server message and any field error map.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger replaces the default logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login submits email/password credentials (step one of the login flow).
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.call(ctx, http.MethodPost, EndpointLogin, req, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LoginWithGoogle exchanges a Google-issued access token for a session.
func (c *Client) LoginWithGoogle(ctx context.Context, accessToken, recaptchaToken string) (*AuthResponse, error) {
	return c.socialLogin(ctx, EndpointLoginGoogle, SocialLoginRequest{
		Provider:       ProviderGoogle,
		AccessToken:    accessToken,
		RecaptchaToken: recaptchaToken,
	})
}

// LoginWithFacebook exchanges a Facebook-issued access token for a session.
func (c *Client) LoginWithFacebook(ctx context.Context, accessToken, recaptchaToken string) (*AuthResponse, error) {
	return c.socialLogin(ctx, EndpointLoginFacebook, SocialLoginRequest{
		Provider:       ProviderFacebook,
		AccessToken:    accessToken,
		RecaptchaToken: recaptchaToken,
	})
}

func (c *Client) socialLogin(ctx context.Context, endpoint string, req SocialLoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.call(ctx, http.MethodPost, endpoint, req, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyMFA submits the one-time code (step two of the login flow).
func (c *Client) VerifyMFA(ctx context.Context, req VerifyMFARequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.call(ctx, http.MethodPost, EndpointVerifyMFA, req, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout invalidates the session server-side. Best-effort: callers must
// clear local state whether or not this returns an error.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	err := c.call(ctx, http.MethodPost, EndpointLogout, nil, accessToken, nil)
	if err != nil {
		c.logger.Warn("Logout request failed, local state will be cleared anyway", "err", err)
	}
	return err
}

// ForgotPassword requests a password reset email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.call(ctx, http.MethodPost, EndpointForgotPassword, ForgotPasswordRequest{Email: email}, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResetPassword completes a password reset with an emailed token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (*MessageResponse, error) {
	var resp MessageResponse
	req := ResetPasswordRequest{Token: token, NewPassword: newPassword}
	if err := c.call(ctx, http.MethodPost, EndpointResetPassword, req, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RegisterUser creates a new user account.
func (c *Client) RegisterUser(ctx context.Context, req RegisterUserRequest) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.call(ctx, http.MethodPost, EndpointRegisterUser, req, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyEmail redeems an email verification token.
func (c *Client) VerifyEmail(ctx context.Context, token string) (*MessageResponse, error) {
	var resp MessageResponse
	endpoint := EndpointVerifyEmail + "?token=" + url.QueryEscape(token)
	if err := c.call(ctx, http.MethodGet, endpoint, nil, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResendVerification requests a fresh verification email.
func (c *Client) ResendVerification(ctx context.Context, email string) (*MessageResponse, error) {
	var resp MessageResponse
	endpoint := EndpointResendVerification + "?email=" + url.QueryEscape(email)
	if err := c.call(ctx, http.MethodPost, endpoint, nil, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetupMFA begins authenticator enrollment for the signed-in user.
func (c *Client) SetupMFA(ctx context.Context, accessToken string) (*MFASetupResponse, error) {
	var resp MFASetupResponse
	if err := c.call(ctx, http.MethodPost, EndpointMFASetup, nil, accessToken, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MFAStatus reports whether MFA is enabled for the signed-in user.
func (c *Client) MFAStatus(ctx context.Context, accessToken string) (*MFAStatusResponse, error) {
	var resp MFAStatusResponse
	if err := c.call(ctx, http.MethodGet, EndpointMFAStatus, nil, accessToken, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidateMFASetup confirms enrollment with a first code; a valid code
// enables MFA on the account.
func (c *Client) ValidateMFASetup(ctx context.Context, accessToken, code string) (*MessageResponse, error) {
	var resp MessageResponse
	endpoint := EndpointMFAValidate + "?code=" + url.QueryEscape(code)
	if err := c.call(ctx, http.MethodPost, endpoint, nil, accessToken, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DisableMFA turns MFA off, confirmed with a current code.
func (c *Client) DisableMFA(ctx context.Context, accessToken, confirmationCode string) (*MessageResponse, error) {
	var resp MessageResponse
	endpoint := EndpointMFADisable + "?confirmationCode=" + url.QueryEscape(confirmationCode)
	if err := c.call(ctx, http.MethodPost, endpoint, nil, accessToken, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChangePassword updates the signed-in user's password. The confirmation
// match should be validated locally first; the server rejects a mismatch
// or a wrong current password with a 400.
func (c *Client) ChangePassword(ctx context.Context, accessToken string, req ChangePasswordRequest) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.call(ctx, http.MethodPost, EndpointChangePassword, req, accessToken, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetAdminsList fetches the staff accounts created by the signed-in
// superadmin.
func (c *Client) GetAdminsList(ctx context.Context, accessToken string) (*AdminListResponse, error) {
	var resp AdminListResponse
	if err := c.call(ctx, http.MethodGet, EndpointAdminsList, nil, accessToken, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateAdmin registers a new staff account. Superadmin only.
func (c *Client) CreateAdmin(ctx context.Context, accessToken string, req CreateAdminRequest) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.call(ctx, http.MethodPost, EndpointRegisterAdmin, req, accessToken, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetProfile fetches the signed-in user's profile.
func (c *Client) GetProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var resp Profile
	if err := c.call(ctx, http.MethodGet, EndpointUserProfile, nil, accessToken, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// call sends one JSON request and decodes a 2xx response into out. A
// non-2xx response is parsed into a structured error; an unreachable
// server or unparseable body becomes a NETWORK_ERROR with the generic
// message. When accessToken is set the request is authenticated and a
// 401/403 maps to SESSION_EXPIRED instead of INVALID_CREDENTIALS.
func (c *Client) call(ctx context.Context, method, endpoint string, body interface{}, accessToken string, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to encode request")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Request failed", "endpoint", endpoint, "err", err)
		return errors.Wrap(err, errors.ErrCodeNetwork, MsgNetworkError)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.parseError(endpoint, resp, accessToken != "")
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error("Failed to decode response", "endpoint", endpoint, "err", err)
		return errors.Wrap(err, errors.ErrCodeNetwork, MsgNetworkError)
	}
	return nil
}

// parseError turns a non-2xx response into a structured error.
func (c *Client) parseError(endpoint string, resp *http.Response, authenticated bool) error {
	code := errors.MapHTTPStatusToCode(resp.StatusCode)
	if authenticated && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		code = errors.ErrCodeSessionExpired
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeNetwork, MsgNetworkError)
	}

	var body errorResponse
	if err := json.Unmarshal(data, &body); err != nil || body.Message == "" {
		c.logger.Error("Unparseable error response", "endpoint", endpoint, "status", resp.StatusCode)
		return errors.New(errors.ErrCodeNetwork, MsgNetworkError).
			WithDetail("status", resp.StatusCode)
	}

	c.logger.Debug("Request rejected", "endpoint", endpoint, "status", resp.StatusCode, "message", body.Message)
	return errors.Newf(code, "%s", body.Message).
		WithDetail("status", resp.StatusCode).
		WithFieldErrors(body.FieldErrors)
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}
