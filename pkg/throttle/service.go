package throttle

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/securedash/authflow/pkg/storage"
)

// Storage keys, matching the persisted browser state of the backend's web
// client. Values are numeric strings: the attempt count and the lockout
// expiry in Unix milliseconds.
const (
	KeyLoginAttempts = "loginAttempts"
	KeyLockoutTime   = "loginLockoutTime"
)

// Config controls when the throttle locks and for how long.
type Config struct {
	MaxAttempts     int
	LockoutDuration time.Duration
}

// DefaultConfig mirrors the web client's security settings: five attempts,
// one minute lockout.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     5,
		LockoutDuration: time.Minute,
	}
}

// Service tracks consecutive failed login attempts on this device and
// enforces a temporary lockout once the configured maximum is reached.
//
// State is persisted through a storage.Repository, so a lockout survives
// process restarts: a fresh Service over the same repository recomputes the
// remaining time and rearms the auto-unlock, it does not restart the clock.
//
// This is a UX deterrent only. The count is scoped to the device, not the
// account; authoritative rate limiting lives server-side.
type Service struct {
	repo     storage.Repository
	cfg      Config
	now      func() time.Time
	onUnlock func()

	mutex sync.Mutex
	timer *time.Timer
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithOnUnlock registers a callback fired when an active lockout ends,
// whether by the scheduled timer or by lazy expiry on a lock check.
func WithOnUnlock(fn func()) Option {
	return func(s *Service) {
		s.onUnlock = fn
	}
}

// NewService creates a throttle over the given repository. If the
// repository already holds an active lockout, the auto-unlock is armed for
// the remaining duration; an already-expired lockout is cleared.
func NewService(repo storage.Repository, cfg Config, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mutex.Lock()
	expiry, ok := s.lockoutExpiry()
	if ok {
		remaining := expiry.Sub(s.now())
		if remaining > 0 {
			s.armTimer(remaining)
			s.mutex.Unlock()
			return s
		}
		s.unlockLocked()
		s.mutex.Unlock()
		s.fireOnUnlock()
		return s
	}
	s.mutex.Unlock()
	return s
}

// Config returns the throttle settings in effect.
func (s *Service) Config() Config {
	return s.cfg
}

// FailureCount reports the persisted consecutive failure count.
func (s *Service) FailureCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.failureCount()
}

// RemainingAttempts returns how many more failures are allowed before
// lockout. Never negative.
func (s *Service) RemainingAttempts() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	remaining := s.cfg.MaxAttempts - s.failureCount()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RecordFailure increments the failure count. When the count reaches the
// configured maximum it starts a lockout and schedules the auto-unlock.
// Returns the new count and whether the lockout was just entered.
func (s *Service) RecordFailure() (int, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	count := s.failureCount() + 1
	if err := s.repo.Set(KeyLoginAttempts, strconv.Itoa(count)); err != nil {
		return 0, false, err
	}

	if count < s.cfg.MaxAttempts {
		return count, false, nil
	}

	expiry := s.now().Add(s.cfg.LockoutDuration)
	if err := s.repo.Set(KeyLockoutTime, strconv.FormatInt(expiry.UnixMilli(), 10)); err != nil {
		return count, false, err
	}
	s.armTimer(s.cfg.LockoutDuration)
	slog.Info("Login lockout started", "attempts", count, "until", expiry)

	return count, true, nil
}

// RecordSuccess resets the failure count to zero. It does not touch an
// active lockout; a success cannot happen while locked because calls are
// blocked upstream.
func (s *Service) RecordSuccess() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.repo.Delete(KeyLoginAttempts)
}

// IsLocked reports whether an active lockout is in effect. A lockout whose
// expiry has passed is cleared as a side effect (lazy expiry) before
// reporting false, so callers never see a stale lock.
func (s *Service) IsLocked() bool {
	s.mutex.Lock()

	expiry, ok := s.lockoutExpiry()
	if !ok {
		s.mutex.Unlock()
		return false
	}
	if s.now().Before(expiry) {
		s.mutex.Unlock()
		return true
	}

	s.unlockLocked()
	s.mutex.Unlock()
	s.fireOnUnlock()
	return false
}

// RemainingLockout returns how long the active lockout has left, for UI
// messaging. Zero when not locked.
func (s *Service) RemainingLockout() time.Duration {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	expiry, ok := s.lockoutExpiry()
	if !ok {
		return 0
	}
	remaining := expiry.Sub(s.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Unlock explicitly clears the failure count and any active lockout.
func (s *Service) Unlock() {
	s.mutex.Lock()
	s.unlockLocked()
	s.mutex.Unlock()
	s.fireOnUnlock()
}

// Close stops the scheduled auto-unlock without touching persisted state.
func (s *Service) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.stopTimer()
}

func (s *Service) failureCount() int {
	value, ok, err := s.repo.Get(KeyLoginAttempts)
	if err != nil {
		slog.Error("Failed reading login attempts", "err", err)
		return 0
	}
	if !ok {
		return 0
	}
	count, err := strconv.Atoi(value)
	if err != nil || count < 0 {
		return 0
	}
	return count
}

func (s *Service) lockoutExpiry() (time.Time, bool) {
	value, ok, err := s.repo.Get(KeyLockoutTime)
	if err != nil {
		slog.Error("Failed reading lockout time", "err", err)
		return time.Time{}, false
	}
	if !ok {
		return time.Time{}, false
	}
	millis, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}

// unlockLocked clears both keys and the timer. Caller holds the mutex.
func (s *Service) unlockLocked() {
	if err := s.repo.Delete(KeyLoginAttempts); err != nil {
		slog.Error("Failed clearing login attempts", "err", err)
	}
	if err := s.repo.Delete(KeyLockoutTime); err != nil {
		slog.Error("Failed clearing lockout time", "err", err)
	}
	s.stopTimer()
}

func (s *Service) armTimer(remaining time.Duration) {
	s.stopTimer()
	s.timer = time.AfterFunc(remaining, func() {
		s.mutex.Lock()
		expiry, ok := s.lockoutExpiry()
		// Recheck under the lock; a lazy expiry may have beaten the timer.
		if !ok || s.now().Before(expiry) {
			s.mutex.Unlock()
			return
		}
		s.unlockLocked()
		s.mutex.Unlock()
		s.fireOnUnlock()
	})
}

func (s *Service) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Service) fireOnUnlock() {
	if s.onUnlock != nil {
		s.onUnlock()
	}
}
