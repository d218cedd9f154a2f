package idptest

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"

	"github.com/securedash/authflow/pkg/session"
)

type loginPayload struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	RecaptchaToken string `json:"recaptchaToken"`
	MFACode        string `json:"mfaCode"`
}

type socialLoginPayload struct {
	AccessToken    string `json:"accessToken"`
	RecaptchaToken string `json:"recaptchaToken"`
}

type verifyMFAPayload struct {
	Email        string `json:"email"`
	Code         string `json:"code"`
	SessionToken string `json:"sessionToken"`
}

type forgotPasswordPayload struct {
	Email string `json:"email"`
}

type resetPasswordPayload struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type registerPayload struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	PhoneNumber    string `json:"phoneNumber"`
	Gender         string `json:"gender"`
	ICNumber       string `json:"custIcNo"`
	RecaptchaToken string `json:"recaptchaToken"`
}

type registerAdminPayload struct {
	Email       string `json:"email"`
	Password    string `json:"staffPass"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Gender      string `json:"gender"`
	Position    string `json:"position"`
	MFAEnabled  bool   `json:"mfaEnabled"`
}

type changePasswordPayload struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		renderError(w, r, http.StatusBadRequest, "Malformed request body", nil)
		return
	}

	fieldErrors := map[string]string{}
	if payload.Email == "" {
		fieldErrors["email"] = "Email is required"
	}
	if payload.Password == "" {
		fieldErrors["password"] = "Password is required"
	}
	if len(fieldErrors) > 0 {
		renderError(w, r, http.StatusBadRequest, "Validation failed", fieldErrors)
		return
	}
	if payload.RecaptchaToken == "" {
		renderError(w, r, http.StatusBadRequest, "reCAPTCHA verification failed", nil)
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	account, ok := s.accounts[payload.Email]
	if !ok || account.Password != payload.Password {
		renderError(w, r, http.StatusUnauthorized, "Invalid email or password", nil)
		return
	}
	if !account.EmailVerified {
		renderError(w, r, http.StatusForbidden, "Please verify your email before logging in", nil)
		return
	}

	s.finishLogin(w, r, account)
}

func (s *Server) handleSocialLogin(w http.ResponseWriter, r *http.Request) {
	provider := "GOOGLE"
	if strings.HasSuffix(r.URL.Path, "/facebook") {
		provider = "FACEBOOK"
	}

	var payload socialLoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		renderError(w, r, http.StatusBadRequest, "Malformed request body", nil)
		return
	}
	if payload.RecaptchaToken == "" {
		renderError(w, r, http.StatusBadRequest, "reCAPTCHA verification failed", nil)
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	email, ok := s.socialTokens[payload.AccessToken]
	if !ok {
		renderError(w, r, http.StatusUnauthorized, provider+" login failed", nil)
		return
	}
	account, ok := s.accounts[email]
	if !ok {
		renderError(w, r, http.StatusUnauthorized, provider+" login failed", nil)
		return
	}

	s.finishLogin(w, r, account)
}

// finishLogin branches on MFA enrollment. Callers hold the mutex.
func (s *Server) finishLogin(w http.ResponseWriter, r *http.Request, account *Account) {
	if account.MFASecret != "" {
		mfaToken := uuid.New().String()
		s.mfaSessions[mfaToken] = account.Email
		render.JSON(w, r, map[string]interface{}{
			"requiresMfa":     true,
			"mfaSessionToken": mfaToken,
			"email":           account.Email,
		})
		return
	}

	tokens := s.issueTokens(account)
	render.JSON(w, r, successPayload(tokens))
}

func (s *Server) handleVerifyMFA(w http.ResponseWriter, r *http.Request) {
	var payload verifyMFAPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		renderError(w, r, http.StatusBadRequest, "Malformed request body", nil)
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	email, ok := s.mfaSessions[payload.SessionToken]
	if !ok || email != payload.Email {
		renderError(w, r, http.StatusUnauthorized, "Invalid or expired MFA session", nil)
		return
	}
	account := s.accounts[email]

	valid := totp.Validate(payload.Code, account.MFASecret)
	if !valid {
		renderError(w, r, http.StatusUnauthorized, "Invalid MFA code", nil)
		return
	}

	delete(s.mfaSessions, payload.SessionToken)
	tokens := s.issueTokens(account)
	render.JSON(w, r, successPayload(tokens))
}

func successPayload(tokens session.Tokens) map[string]interface{} {
	return map[string]interface{}{
		"success": true,
		"tokens": map[string]string{
			"accessToken":  tokens.AccessToken,
			"refreshToken": tokens.RefreshToken,
			"role":         string(tokens.Role),
			"email":        tokens.Email,
		},
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.authenticate(r); !ok {
		renderError(w, r, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	header := r.Header.Get("Authorization")
	s.revoked[strings.TrimPrefix(header, "Bearer ")] = true
	renderMessage(w, r, "Logged out")
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var payload forgotPasswordPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		renderError(w, r, http.StatusBadRequest, "Malformed request body", nil)
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	// Same response whether or not the account exists, to avoid
	// leaking which addresses are registered.
	if _, ok := s.accounts[payload.Email]; ok {
		s.resetTokens[uuid.New().String()] = payload.Email
	}
	renderMessage(w, r, "If the email exists, a reset link has been sent")
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload resetPasswordPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		renderError(w, r, http.StatusBadRequest, "Malformed request body", nil)
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	email, ok := s.resetTokens[payload.Token]
	if !ok {
		renderError(w, r, http.StatusBadRequest, "Invalid or expired reset token", nil)
		return
	}
	if payload.NewPassword == "" {
		renderError(w, r, http.StatusBadRequest, "Validation failed",
			map[string]string{"newPassword": "Password is required"})
		return
	}

	s.accounts[email].Password = payload.NewPassword
	delete(s.resetTokens, payload.Token)
	renderMessage(w, r, "Password has been reset")
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var payload registerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		renderError(w, r, http.StatusBadRequest, "Malformed request body", nil)
		return
	}

	fieldErrors := map[string]string{}
	if payload.Name == "" {
		fieldErrors["name"] = "Name is required"
	}
	if payload.Email == "" {
		fieldErrors["email"] = "Email is required"
	}
	if payload.Password == "" {
		fieldErrors["password"] = "Password is required"
	}
	if len(fieldErrors) > 0 {
		renderError(w, r, http.StatusBadRequest, "Validation failed", fieldErrors)
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.accounts[payload.Email]; exists {
		renderError(w, r, http.StatusConflict, "Email already registered", nil)
		return
	}

	s.accounts[payload.Email] = &Account{
		Email:       payload.Email,
		Password:    payload.Password,
		Role:        session.RoleUser,
		Name:        payload.Name,
		PhoneNumber: payload.PhoneNumber,
		Gender:      payload.Gender,
		ICNumber:    payload.ICNumber,
	}
	s.verifyTokens[uuid.New().String()] = payload.Email

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"success": true,
		"message": "Registration successful. Please verify your email.",
	})
}

func (s *Server) handleRegisterAdmin(w http.ResponseWriter, r *http.Request) {
	var payload registerAdminPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		renderError(w, r, http.StatusBadRequest, "Malformed request body", nil)
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	caller, ok := s.authenticate(r)
	if !ok {
		renderError(w, r, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	if caller.Role != session.RoleSuperadmin {
		renderError(w, r, http.StatusForbidden, "Superadmin role required", nil)
		return
	}

	fieldErrors := map[string]string{}
	if payload.Email == "" {
		fieldErrors["email"] = "Email is required"
	}
	if payload.Password == "" {
		fieldErrors["staffPass"] = "Password is required"
	}
	if payload.Name == "" {
		fieldErrors["name"] = "Name is required"
	}
	if payload.Position == "" {
		fieldErrors["position"] = "Position is required"
	}
	if len(fieldErrors) > 0 {
		renderError(w, r, http.StatusBadRequest, "Validation failed", fieldErrors)
		return
	}

	if _, exists := s.accounts[payload.Email]; exists {
		renderError(w, r, http.StatusConflict, "Email already registered", nil)
		return
	}

	s.accounts[payload.Email] = &Account{
		Email:         payload.Email,
		Password:      payload.Password,
		Role:          session.RoleAdmin,
		Name:          payload.Name,
		PhoneNumber:   payload.PhoneNumber,
		Gender:        payload.Gender,
		StaffID:       uuid.New().String(),
		Position:      payload.Position,
		CreatedBy:     caller.Email,
		EmailVerified: true,
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"success": true,
		"message": "Admin account created",
	})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var payload changePasswordPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		renderError(w, r, http.StatusBadRequest, "Malformed request body", nil)
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	account, ok := s.authenticate(r)
	if !ok {
		renderError(w, r, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	if payload.CurrentPassword == "" || payload.NewPassword == "" || payload.ConfirmPassword == "" {
		renderError(w, r, http.StatusBadRequest, "All password fields are required", nil)
		return
	}
	if payload.NewPassword != payload.ConfirmPassword {
		renderError(w, r, http.StatusBadRequest, "Passwords do not match", nil)
		return
	}
	if payload.CurrentPassword != account.Password {
		renderError(w, r, http.StatusBadRequest, "Current password is incorrect", nil)
		return
	}

	account.Password = payload.NewPassword
	renderMessage(w, r, "Password changed successfully")
}

func (s *Server) handleAdminsList(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	caller, ok := s.authenticate(r)
	if !ok {
		renderError(w, r, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	if caller.Role != session.RoleSuperadmin {
		renderError(w, r, http.StatusForbidden, "Superadmin role required", nil)
		return
	}

	admins := []map[string]interface{}{}
	for _, account := range s.accounts {
		if account.Role != session.RoleAdmin || account.CreatedBy != caller.Email {
			continue
		}
		admins = append(admins, map[string]interface{}{
			"staffId":     account.StaffID,
			"email":       account.Email,
			"name":        account.Name,
			"phoneNumber": account.PhoneNumber,
			"gender":      account.Gender,
			"position":    account.Position,
			"role":        string(account.Role),
			"mfaEnabled":  account.MFASecret != "",
			"createdBy":   account.CreatedBy,
		})
	}

	render.JSON(w, r, map[string]interface{}{
		"success":     true,
		"message":     "Admins retrieved successfully",
		"totalAdmins": len(admins),
		"admins":      admins,
	})
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	s.mutex.Lock()
	defer s.mutex.Unlock()

	email, ok := s.verifyTokens[token]
	if !ok {
		renderError(w, r, http.StatusBadRequest, "Invalid or expired verification token", nil)
		return
	}
	s.accounts[email].EmailVerified = true
	delete(s.verifyTokens, token)
	renderMessage(w, r, "Email verified")
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")

	s.mutex.Lock()
	defer s.mutex.Unlock()

	account, ok := s.accounts[email]
	if !ok || account.EmailVerified {
		renderMessage(w, r, "If the email exists, a verification link has been sent")
		return
	}
	s.verifyTokens[uuid.New().String()] = email
	renderMessage(w, r, "If the email exists, a verification link has been sent")
}

func (s *Server) handleMFASetup(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	account, ok := s.authenticate(r)
	if !ok {
		renderError(w, r, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "SecureDash",
		AccountName: account.Email,
	})
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, "Failed to generate MFA secret", nil)
		return
	}
	s.pendingSecrets[account.Email] = key.Secret()

	render.JSON(w, r, map[string]interface{}{
		"secret":    key.Secret(),
		"qrCodeUrl": key.URL(),
	})
}

func (s *Server) handleMFAStatus(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	account, ok := s.authenticate(r)
	if !ok {
		renderError(w, r, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"enabled": account.MFASecret != "",
	})
}

func (s *Server) handleMFAValidate(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")

	s.mutex.Lock()
	defer s.mutex.Unlock()

	account, ok := s.authenticate(r)
	if !ok {
		renderError(w, r, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	pending, ok := s.pendingSecrets[account.Email]
	if !ok {
		renderError(w, r, http.StatusBadRequest, "No MFA setup in progress", nil)
		return
	}
	if !totp.Validate(code, pending) {
		renderError(w, r, http.StatusBadRequest, "Invalid MFA code", nil)
		return
	}

	account.MFASecret = pending
	delete(s.pendingSecrets, account.Email)
	renderMessage(w, r, "MFA enabled")
}

func (s *Server) handleMFADisable(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("confirmationCode")

	s.mutex.Lock()
	defer s.mutex.Unlock()

	account, ok := s.authenticate(r)
	if !ok {
		renderError(w, r, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	if account.MFASecret == "" {
		renderError(w, r, http.StatusBadRequest, "MFA is not enabled", nil)
		return
	}
	if !totp.Validate(code, account.MFASecret) {
		renderError(w, r, http.StatusBadRequest, "Invalid MFA code", nil)
		return
	}

	account.MFASecret = ""
	renderMessage(w, r, "MFA disabled")
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	account, ok := s.authenticate(r)
	if !ok {
		renderError(w, r, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"email":       account.Email,
		"name":        account.Name,
		"role":        string(account.Role),
		"phoneNumber": account.PhoneNumber,
		"gender":      account.Gender,
		"custIcNo":    account.ICNumber,
		"mfaEnabled":  account.MFASecret != "",
	})
}
