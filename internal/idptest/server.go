// Package idptest is an in-memory identity provider implementing the
// backend endpoints the client consumes. It backs the package tests and
// the cmd/idp demo binary; it is not a production server.
package idptest

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"

	"github.com/securedash/authflow/pkg/session"
)

// DefaultRecaptchaToken is the challenge token the server accepts. Any
// non-empty token passes; this constant just keeps tests readable.
const DefaultRecaptchaToken = "test-recaptcha-token"

const accessTokenTTL = 15 * time.Minute

// Account is a user record known to the fake provider.
type Account struct {
	Email         string
	Password      string
	Role          session.Role
	Name          string
	PhoneNumber   string
	Gender        string
	ICNumber      string
	StaffID       string // set for staff accounts
	Position      string
	CreatedBy     string // email of the superadmin who created the staff account
	MFASecret     string // base32 TOTP secret; empty means MFA disabled
	EmailVerified bool
}

// Server holds all provider state behind one mutex. Zero concurrency
// sophistication on purpose; tests drive it sequentially.
type Server struct {
	jwtSecret string

	mutex          sync.Mutex
	accounts       map[string]*Account
	mfaSessions    map[string]string // MFA session token -> email
	socialTokens   map[string]string // provider access token -> email
	resetTokens    map[string]string // password reset token -> email
	verifyTokens   map[string]string // email verification token -> email
	pendingSecrets map[string]string // email -> TOTP secret awaiting validation
	revoked        map[string]bool   // access tokens invalidated by logout
}

// New creates an empty fake identity provider.
func New() *Server {
	return &Server{
		jwtSecret:      "idptest-secret-" + uuid.New().String(),
		accounts:       make(map[string]*Account),
		mfaSessions:    make(map[string]string),
		socialTokens:   make(map[string]string),
		resetTokens:    make(map[string]string),
		verifyTokens:   make(map[string]string),
		pendingSecrets: make(map[string]string),
		revoked:        make(map[string]bool),
	}
}

// AddAccount registers an account.
func (s *Server) AddAccount(account Account) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	copied := account
	s.accounts[account.Email] = &copied
}

// AddSocialToken maps a provider-issued access token to an account email.
func (s *Server) AddSocialToken(token, email string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.socialTokens[token] = email
}

// Account returns a copy of the stored account, for assertions.
func (s *Server) Account(email string) (Account, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	account, ok := s.accounts[email]
	if !ok {
		return Account{}, false
	}
	return *account, true
}

// ResetTokenFor returns the outstanding password reset token for email.
func (s *Server) ResetTokenFor(email string) (string, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for token, e := range s.resetTokens {
		if e == email {
			return token, true
		}
	}
	return "", false
}

// VerifyTokenFor returns the outstanding email verification token for email.
func (s *Server) VerifyTokenFor(email string) (string, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for token, e := range s.verifyTokens {
		if e == email {
			return token, true
		}
	}
	return "", false
}

// TOTPNow returns a currently valid code for the account's enrolled secret.
func TOTPNow(secret string) (string, error) {
	return totp.GenerateCode(secret, time.Now())
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/login/google", s.handleSocialLogin)
		r.Post("/login/facebook", s.handleSocialLogin)
		r.Post("/verify-mfa", s.handleVerifyMFA)
		r.Post("/logout", s.handleLogout)
		r.Post("/forgot-password", s.handleForgotPassword)
		r.Post("/reset-password", s.handleResetPassword)
	})

	r.Post("/api/register/user", s.handleRegisterUser)
	r.Post("/api/register/admin", s.handleRegisterAdmin)

	r.Post("/api/dashboard/change-password", s.handleChangePassword)
	r.Get("/api/superadmin/admins", s.handleAdminsList)

	r.Get("/api/email/verify", s.handleVerifyEmail)
	r.Post("/api/email/resend-verification", s.handleResendVerification)

	r.Route("/api/mfa", func(r chi.Router) {
		r.Post("/setup", s.handleMFASetup)
		r.Get("/status", s.handleMFAStatus)
		r.Post("/validate", s.handleMFAValidate)
		r.Post("/disable", s.handleMFADisable)
	})

	r.Get("/api/user/profile", s.handleProfile)

	return r
}

// issueTokens mints a short-lived signed access token and an opaque
// refresh token for the account.
func (s *Server) issueTokens(account *Account) session.Tokens {
	claims := jwt.MapClaims{
		"sub":   account.Email,
		"email": account.Email,
		"role":  string(account.Role),
		"exp":   time.Now().Add(accessTokenTTL).Unix(),
		"iat":   time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		// Signing a well-formed HS256 token cannot fail at runtime.
		panic(fmt.Sprintf("idptest: failed to sign token: %v", err))
	}

	return session.Tokens{
		AccessToken:  signed,
		RefreshToken: uuid.New().String(),
		Role:         account.Role,
		Email:        account.Email,
	}
}

// authenticate resolves the bearer token on an authenticated endpoint.
// Callers hold the mutex.
func (s *Server) authenticate(r *http.Request) (*Account, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return nil, false
	}
	tokenStr := header[len(prefix):]

	if s.revoked[tokenStr] {
		return nil, false
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}
	email, _ := claims["email"].(string)
	account, ok := s.accounts[email]
	return account, ok
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string, fieldErrors map[string]string) {
	render.Status(r, status)
	body := map[string]interface{}{"message": message}
	if len(fieldErrors) > 0 {
		body["fieldErrors"] = fieldErrors
	}
	render.JSON(w, r, body)
}

func renderMessage(w http.ResponseWriter, r *http.Request, message string) {
	render.JSON(w, r, map[string]interface{}{
		"success": true,
		"message": message,
	})
}
