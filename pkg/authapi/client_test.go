package authapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securedash/authflow/internal/idptest"
	"github.com/securedash/authflow/pkg/errors"
	"github.com/securedash/authflow/pkg/session"
)

const (
	testPassword = "Passw0rd!"
	testCaptcha  = idptest.DefaultRecaptchaToken
)

func setupClient(t *testing.T) (*Client, *idptest.Server) {
	t.Helper()

	idp := idptest.New()
	srv := httptest.NewServer(idp.Router())
	t.Cleanup(srv.Close)

	return NewClient(srv.URL), idp
}

func addVerifiedAccount(idp *idptest.Server, email string, role session.Role) {
	idp.AddAccount(idptest.Account{
		Email:         email,
		Password:      testPassword,
		Role:          role,
		Name:          "Test User",
		EmailVerified: true,
	})
}

func TestClient_Login(t *testing.T) {
	t.Run("issues tokens on valid credentials", func(t *testing.T) {
		client, idp := setupClient(t)
		addVerifiedAccount(idp, "user@example.com", session.RoleUser)

		resp, err := client.Login(context.Background(), LoginRequest{
			Email:          "user@example.com",
			Password:       testPassword,
			RecaptchaToken: testCaptcha,
		})
		require.NoError(t, err)
		require.NotNil(t, resp.Tokens)
		assert.True(t, resp.Success)
		assert.False(t, resp.RequiresMfa)
		assert.NotEmpty(t, resp.Tokens.AccessToken)
		assert.NotEmpty(t, resp.Tokens.RefreshToken)
		assert.Equal(t, session.RoleUser, resp.Tokens.Role)
		assert.Equal(t, "user@example.com", resp.Tokens.Email)
	})

	t.Run("rejects wrong password with server message", func(t *testing.T) {
		client, idp := setupClient(t)
		addVerifiedAccount(idp, "user@example.com", session.RoleUser)

		_, err := client.Login(context.Background(), LoginRequest{
			Email:          "user@example.com",
			Password:       "WrongPassw0rd!",
			RecaptchaToken: testCaptcha,
		})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCredentials))
		assert.Equal(t, "Invalid email or password", errors.GetMessage(err))
	})

	t.Run("carries field errors from a validation rejection", func(t *testing.T) {
		client, _ := setupClient(t)

		_, err := client.Login(context.Background(), LoginRequest{
			Password:       testPassword,
			RecaptchaToken: testCaptcha,
		})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
		assert.Equal(t, "Email is required", errors.GetFieldErrors(err)["email"])
	})

	t.Run("asks for MFA when the account is enrolled", func(t *testing.T) {
		client, idp := setupClient(t)
		idp.AddAccount(idptest.Account{
			Email:         "mfa@example.com",
			Password:      testPassword,
			Role:          session.RoleAdmin,
			MFASecret:     "JBSWY3DPEHPK3PXP",
			EmailVerified: true,
		})

		resp, err := client.Login(context.Background(), LoginRequest{
			Email:          "mfa@example.com",
			Password:       testPassword,
			RecaptchaToken: testCaptcha,
		})
		require.NoError(t, err)
		assert.True(t, resp.RequiresMfa)
		assert.NotEmpty(t, resp.MfaSessionToken)
		assert.Equal(t, "mfa@example.com", resp.Email)
		assert.Nil(t, resp.Tokens)
	})
}

func TestClient_VerifyMFA(t *testing.T) {
	const secret = "JBSWY3DPEHPK3PXP"

	client, idp := setupClient(t)
	idp.AddAccount(idptest.Account{
		Email:         "mfa@example.com",
		Password:      testPassword,
		Role:          session.RoleUser,
		MFASecret:     secret,
		EmailVerified: true,
	})

	login, err := client.Login(context.Background(), LoginRequest{
		Email:          "mfa@example.com",
		Password:       testPassword,
		RecaptchaToken: testCaptcha,
	})
	require.NoError(t, err)
	require.True(t, login.RequiresMfa)

	t.Run("rejects a wrong code", func(t *testing.T) {
		_, err := client.VerifyMFA(context.Background(), VerifyMFARequest{
			Email:        "mfa@example.com",
			Code:         "000000",
			SessionToken: login.MfaSessionToken,
		})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCredentials))
	})

	t.Run("issues tokens on a valid code", func(t *testing.T) {
		code, err := idptest.TOTPNow(secret)
		require.NoError(t, err)

		resp, err := client.VerifyMFA(context.Background(), VerifyMFARequest{
			Email:        "mfa@example.com",
			Code:         code,
			SessionToken: login.MfaSessionToken,
		})
		require.NoError(t, err)
		require.NotNil(t, resp.Tokens)
		assert.True(t, resp.Success)
	})
}

func TestClient_SocialLogin(t *testing.T) {
	client, idp := setupClient(t)
	addVerifiedAccount(idp, "social@example.com", session.RoleUser)
	idp.AddSocialToken("google-token-1", "social@example.com")

	t.Run("known provider token logs in", func(t *testing.T) {
		resp, err := client.LoginWithGoogle(context.Background(), "google-token-1", testCaptcha)
		require.NoError(t, err)
		require.NotNil(t, resp.Tokens)
		assert.Equal(t, "social@example.com", resp.Tokens.Email)
	})

	t.Run("unknown provider token is rejected", func(t *testing.T) {
		_, err := client.LoginWithFacebook(context.Background(), "bogus-token", testCaptcha)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCredentials))
	})
}

func TestClient_LogoutAndProfile(t *testing.T) {
	client, idp := setupClient(t)
	addVerifiedAccount(idp, "user@example.com", session.RoleUser)

	login, err := client.Login(context.Background(), LoginRequest{
		Email:          "user@example.com",
		Password:       testPassword,
		RecaptchaToken: testCaptcha,
	})
	require.NoError(t, err)
	token := login.Tokens.AccessToken

	profile, err := client.GetProfile(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", profile.Email)
	assert.Equal(t, "Test User", profile.Name)

	require.NoError(t, client.Logout(context.Background(), token))

	// The revoked token now reads as an expired session.
	_, err = client.GetProfile(context.Background(), token)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSessionExpired))
}

func TestClient_RegistrationFlow(t *testing.T) {
	client, idp := setupClient(t)

	_, err := client.RegisterUser(context.Background(), RegisterUserRequest{
		Name:           "New User",
		Email:          "new@example.com",
		Password:       testPassword,
		PhoneNumber:    "012-3456789",
		Gender:         "FEMALE",
		ICNumber:       "901231-14-5678",
		RecaptchaToken: testCaptcha,
	})
	require.NoError(t, err)

	// Login is blocked until the email is verified.
	_, err = client.Login(context.Background(), LoginRequest{
		Email:          "new@example.com",
		Password:       testPassword,
		RecaptchaToken: testCaptcha,
	})
	require.Error(t, err)

	verifyToken, ok := idp.VerifyTokenFor("new@example.com")
	require.True(t, ok)
	_, err = client.VerifyEmail(context.Background(), verifyToken)
	require.NoError(t, err)

	resp, err := client.Login(context.Background(), LoginRequest{
		Email:          "new@example.com",
		Password:       testPassword,
		RecaptchaToken: testCaptcha,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Tokens)

	t.Run("duplicate registration is rejected", func(t *testing.T) {
		_, err := client.RegisterUser(context.Background(), RegisterUserRequest{
			Name:           "New User",
			Email:          "new@example.com",
			Password:       testPassword,
			RecaptchaToken: testCaptcha,
		})
		require.Error(t, err)
		assert.Equal(t, "Email already registered", errors.GetMessage(err))
	})
}

func TestClient_PasswordReset(t *testing.T) {
	client, idp := setupClient(t)
	addVerifiedAccount(idp, "user@example.com", session.RoleUser)

	_, err := client.ForgotPassword(context.Background(), "user@example.com")
	require.NoError(t, err)

	resetToken, ok := idp.ResetTokenFor("user@example.com")
	require.True(t, ok)

	_, err = client.ResetPassword(context.Background(), resetToken, "NewPassw0rd!")
	require.NoError(t, err)

	resp, err := client.Login(context.Background(), LoginRequest{
		Email:          "user@example.com",
		Password:       "NewPassw0rd!",
		RecaptchaToken: testCaptcha,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Tokens)
}

func TestClient_MFAEnrollment(t *testing.T) {
	client, idp := setupClient(t)
	addVerifiedAccount(idp, "user@example.com", session.RoleUser)

	login, err := client.Login(context.Background(), LoginRequest{
		Email:          "user@example.com",
		Password:       testPassword,
		RecaptchaToken: testCaptcha,
	})
	require.NoError(t, err)
	token := login.Tokens.AccessToken

	status, err := client.MFAStatus(context.Background(), token)
	require.NoError(t, err)
	assert.False(t, status.Enabled)

	setup, err := client.SetupMFA(context.Background(), token)
	require.NoError(t, err)
	require.NotEmpty(t, setup.Secret)
	assert.Contains(t, setup.QRCodeURL, "otpauth://")

	code, err := idptest.TOTPNow(setup.Secret)
	require.NoError(t, err)
	_, err = client.ValidateMFASetup(context.Background(), token, code)
	require.NoError(t, err)

	status, err = client.MFAStatus(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, status.Enabled)

	t.Run("disable requires a valid code", func(t *testing.T) {
		_, err := client.DisableMFA(context.Background(), token, "000000")
		require.Error(t, err)

		code, err := idptest.TOTPNow(setup.Secret)
		require.NoError(t, err)
		_, err = client.DisableMFA(context.Background(), token, code)
		require.NoError(t, err)
	})
}

func TestClient_ChangePassword(t *testing.T) {
	client, idp := setupClient(t)
	addVerifiedAccount(idp, "user@example.com", session.RoleUser)

	login, err := client.Login(context.Background(), LoginRequest{
		Email:          "user@example.com",
		Password:       testPassword,
		RecaptchaToken: testCaptcha,
	})
	require.NoError(t, err)
	token := login.Tokens.AccessToken

	t.Run("rejects wrong current password", func(t *testing.T) {
		_, err := client.ChangePassword(context.Background(), token, ChangePasswordRequest{
			CurrentPassword: "wrong-password",
			NewPassword:     "NewPassw0rd!",
			ConfirmPassword: "NewPassw0rd!",
		})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
		assert.Equal(t, "Current password is incorrect", errors.GetMessage(err))
	})

	t.Run("rejects mismatched confirmation", func(t *testing.T) {
		_, err := client.ChangePassword(context.Background(), token, ChangePasswordRequest{
			CurrentPassword: testPassword,
			NewPassword:     "NewPassw0rd!",
			ConfirmPassword: "different",
		})
		require.Error(t, err)
		assert.Equal(t, "Passwords do not match", errors.GetMessage(err))
	})

	t.Run("updates the stored password", func(t *testing.T) {
		resp, err := client.ChangePassword(context.Background(), token, ChangePasswordRequest{
			CurrentPassword: testPassword,
			NewPassword:     "NewPassw0rd!",
			ConfirmPassword: "NewPassw0rd!",
		})
		require.NoError(t, err)
		assert.True(t, resp.Success)

		// The new password works for a fresh login.
		relogin, err := client.Login(context.Background(), LoginRequest{
			Email:          "user@example.com",
			Password:       "NewPassw0rd!",
			RecaptchaToken: testCaptcha,
		})
		require.NoError(t, err)
		assert.True(t, relogin.Success)
	})
}

func TestClient_AdminManagement(t *testing.T) {
	client, idp := setupClient(t)
	addVerifiedAccount(idp, "super@example.com", session.RoleSuperadmin)
	addVerifiedAccount(idp, "user@example.com", session.RoleUser)

	login, err := client.Login(context.Background(), LoginRequest{
		Email:          "super@example.com",
		Password:       testPassword,
		RecaptchaToken: testCaptcha,
	})
	require.NoError(t, err)
	superToken := login.Tokens.AccessToken

	resp, err := client.CreateAdmin(context.Background(), superToken, CreateAdminRequest{
		Email:      "staff@example.com",
		Password:   "StaffPassw0rd!",
		Name:       "Staff Member",
		Gender:     "FEMALE",
		Position:   "Operations Manager",
		MFAEnabled: false,
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	// Duplicate email is rejected.
	_, err = client.CreateAdmin(context.Background(), superToken, CreateAdminRequest{
		Email:    "staff@example.com",
		Password: "StaffPassw0rd!",
		Name:     "Staff Member",
		Gender:   "FEMALE",
		Position: "Operations Manager",
	})
	require.Error(t, err)
	assert.Equal(t, "Email already registered", errors.GetMessage(err))

	list, err := client.GetAdminsList(context.Background(), superToken)
	require.NoError(t, err)
	assert.True(t, list.Success)
	require.Equal(t, 1, list.TotalAdmins)
	require.Len(t, list.Admins, 1)
	admin := list.Admins[0]
	assert.Equal(t, "staff@example.com", admin.Email)
	assert.Equal(t, "Operations Manager", admin.Position)
	assert.Equal(t, string(session.RoleAdmin), admin.Role)
	assert.Equal(t, "super@example.com", admin.CreatedBy)
	assert.NotEmpty(t, admin.StaffID)

	// The created staff account can sign in right away.
	staffLogin, err := client.Login(context.Background(), LoginRequest{
		Email:          "staff@example.com",
		Password:       "StaffPassw0rd!",
		RecaptchaToken: testCaptcha,
	})
	require.NoError(t, err)
	assert.Equal(t, session.RoleAdmin, staffLogin.Tokens.Role)

	// A non-superadmin token reads the 403 as an expired session and
	// must prompt a re-login.
	userLogin, err := client.Login(context.Background(), LoginRequest{
		Email:          "user@example.com",
		Password:       testPassword,
		RecaptchaToken: testCaptcha,
	})
	require.NoError(t, err)
	_, err = client.GetAdminsList(context.Background(), userLogin.Tokens.AccessToken)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSessionExpired))
}

func TestClient_UnparseableErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>Bad Gateway</html>"))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL)
	_, err := client.Login(context.Background(), LoginRequest{
		Email:          "user@example.com",
		Password:       testPassword,
		RecaptchaToken: testCaptcha,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNetwork))
	assert.Equal(t, MsgNetworkError, errors.GetMessage(err))
}

func TestClient_ConnectionRefused(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	_, err := client.Login(context.Background(), LoginRequest{
		Email:          "user@example.com",
		Password:       testPassword,
		RecaptchaToken: testCaptcha,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNetwork))
}
