package session

import (
	"fmt"
	"log/slog"

	"github.com/securedash/authflow/pkg/storage"
)

// Service persists and reads the authenticated session. It guarantees the
// all-or-nothing invariant: either all four token fields are present
// (authenticated) or none are (anonymous). Partial state found in storage
// is treated as corruption and cleared on sight.
type Service struct {
	repo storage.Repository
}

// NewService creates a session service over the given repository.
func NewService(repo storage.Repository) *Service {
	return &Service{repo: repo}
}

// Save persists a complete token set, overwriting any previous session.
// All four fields must be non-empty.
func (s *Service) Save(tokens Tokens) error {
	if tokens.AccessToken == "" || tokens.RefreshToken == "" || tokens.Email == "" {
		return fmt.Errorf("incomplete token set")
	}
	if _, err := ParseRole(string(tokens.Role)); err != nil {
		return err
	}

	fields := map[string]string{
		KeyAccessToken:  tokens.AccessToken,
		KeyRefreshToken: tokens.RefreshToken,
		KeyUserRole:     string(tokens.Role),
		KeyUserEmail:    tokens.Email,
	}
	for key, value := range fields {
		if err := s.repo.Set(key, value); err != nil {
			// Roll back so a failed write never leaves partial state behind.
			s.Clear()
			return fmt.Errorf("failed to persist session: %w", err)
		}
	}
	return nil
}

// Clear removes all session fields. Idempotent; clearing an anonymous
// session is a no-op.
func (s *Service) Clear() error {
	var firstErr error
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyUserRole, KeyUserEmail} {
		if err := s.repo.Delete(key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// IsAuthenticated reports whether an access token is present. It does not
// validate token freshness or signature; that is the backend's job.
func (s *Service) IsAuthenticated() bool {
	token, ok, err := s.repo.Get(KeyAccessToken)
	if err != nil {
		slog.Error("Failed reading access token", "err", err)
		return false
	}
	return ok && token != ""
}

// AccessToken returns the stored access token, or "" when anonymous.
func (s *Service) AccessToken() string {
	return s.get(KeyAccessToken)
}

// RefreshToken returns the stored refresh token, or "" when anonymous.
func (s *Service) RefreshToken() string {
	return s.get(KeyRefreshToken)
}

// Role returns the stored role, or "" when anonymous.
func (s *Service) Role() Role {
	return Role(s.get(KeyUserRole))
}

// Email returns the stored email, or "" when anonymous.
func (s *Service) Email() string {
	return s.get(KeyUserEmail)
}

// Current returns the full persisted token set. If storage holds a partial
// set the session is cleared and reported as anonymous.
func (s *Service) Current() (Tokens, bool) {
	tokens := Tokens{
		AccessToken:  s.get(KeyAccessToken),
		RefreshToken: s.get(KeyRefreshToken),
		Role:         Role(s.get(KeyUserRole)),
		Email:        s.get(KeyUserEmail),
	}

	present := 0
	for _, v := range []string{tokens.AccessToken, tokens.RefreshToken, string(tokens.Role), tokens.Email} {
		if v != "" {
			present++
		}
	}
	switch present {
	case 4:
		return tokens, true
	case 0:
		return Tokens{}, false
	default:
		slog.Warn("Partial session state found, clearing", "fields_present", present)
		s.Clear()
		return Tokens{}, false
	}
}

func (s *Service) get(key string) string {
	value, _, err := s.repo.Get(key)
	if err != nil {
		slog.Error("Failed reading session field", "key", key, "err", err)
		return ""
	}
	return value
}
