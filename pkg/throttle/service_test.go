package throttle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securedash/authflow/pkg/storage"
)

func testConfig() Config {
	return Config{
		MaxAttempts:     5,
		LockoutDuration: time.Minute,
	}
}

// fakeClock is a manually advanced time source
type fakeClock struct {
	current time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Now()}
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func TestService_RecordFailureCountsUp(t *testing.T) {
	repo := storage.NewInMemRepository()
	svc := NewService(repo, testConfig())
	defer svc.Close()

	for i := 1; i <= 4; i++ {
		count, locked, err := svc.RecordFailure()
		require.NoError(t, err)
		assert.Equal(t, i, count)
		assert.False(t, locked)
	}

	assert.Equal(t, 4, svc.FailureCount())
	assert.Equal(t, 1, svc.RemainingAttempts())
	assert.False(t, svc.IsLocked())
}

func TestService_LocksAtMaxAttempts(t *testing.T) {
	repo := storage.NewInMemRepository()
	clock := newFakeClock()
	svc := NewService(repo, testConfig(), WithClock(clock.Now))
	defer svc.Close()

	for i := 0; i < 4; i++ {
		_, locked, err := svc.RecordFailure()
		require.NoError(t, err)
		require.False(t, locked)
	}

	count, locked, err := svc.RecordFailure()
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.True(t, locked)

	assert.True(t, svc.IsLocked())
	assert.Equal(t, 0, svc.RemainingAttempts())
	assert.InDelta(t, time.Minute, svc.RemainingLockout(), float64(time.Second))
}

func TestService_RecordSuccessResetsCount(t *testing.T) {
	repo := storage.NewInMemRepository()
	svc := NewService(repo, testConfig())
	defer svc.Close()

	for i := 0; i < 4; i++ {
		_, _, err := svc.RecordFailure()
		require.NoError(t, err)
	}

	require.NoError(t, svc.RecordSuccess())

	assert.Equal(t, 0, svc.FailureCount())
	assert.False(t, svc.IsLocked())

	// Counting starts over after a success.
	count, locked, err := svc.RecordFailure()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.False(t, locked)
}

func TestService_LazyExpiry(t *testing.T) {
	repo := storage.NewInMemRepository()
	clock := newFakeClock()

	unlocked := 0
	svc := NewService(repo, testConfig(),
		WithClock(clock.Now),
		WithOnUnlock(func() { unlocked++ }))
	defer svc.Close()

	for i := 0; i < 5; i++ {
		svc.RecordFailure()
	}
	require.True(t, svc.IsLocked())

	clock.Advance(time.Minute + time.Second)

	// The lock check itself performs the unlock.
	assert.False(t, svc.IsLocked())
	assert.Equal(t, 1, unlocked)
	assert.Equal(t, 0, svc.FailureCount())
	assert.Zero(t, svc.RemainingLockout())

	// Idempotent: a second check does not fire the callback again.
	assert.False(t, svc.IsLocked())
	assert.Equal(t, 1, unlocked)
}

func TestService_LockoutSurvivesReload(t *testing.T) {
	repo := storage.NewInMemRepository()
	clock := newFakeClock()

	svc := NewService(repo, testConfig(), WithClock(clock.Now))
	for i := 0; i < 5; i++ {
		svc.RecordFailure()
	}
	require.True(t, svc.IsLocked())
	svc.Close()

	// Simulated reload partway through the lockout: a fresh instance over
	// the same repository must still be locked with the remaining time,
	// not a restarted full duration.
	clock.Advance(40 * time.Second)
	reloaded := NewService(repo, testConfig(), WithClock(clock.Now))
	defer reloaded.Close()

	assert.True(t, reloaded.IsLocked())
	assert.InDelta(t, 20*time.Second, reloaded.RemainingLockout(), float64(time.Second))
}

func TestService_ExpiredLockoutClearedOnReload(t *testing.T) {
	repo := storage.NewInMemRepository()
	clock := newFakeClock()

	svc := NewService(repo, testConfig(), WithClock(clock.Now))
	for i := 0; i < 5; i++ {
		svc.RecordFailure()
	}
	svc.Close()

	clock.Advance(2 * time.Minute)

	unlocked := 0
	reloaded := NewService(repo, testConfig(),
		WithClock(clock.Now),
		WithOnUnlock(func() { unlocked++ }))
	defer reloaded.Close()

	assert.False(t, reloaded.IsLocked())
	assert.Equal(t, 0, reloaded.FailureCount())
	assert.Equal(t, 1, unlocked)
}

func TestService_TimerAutoUnlocks(t *testing.T) {
	repo := storage.NewInMemRepository()

	unlockedCh := make(chan struct{}, 1)
	svc := NewService(repo, Config{MaxAttempts: 1, LockoutDuration: 30 * time.Millisecond},
		WithOnUnlock(func() { unlockedCh <- struct{}{} }))
	defer svc.Close()

	_, locked, err := svc.RecordFailure()
	require.NoError(t, err)
	require.True(t, locked)

	select {
	case <-unlockedCh:
	case <-time.After(2 * time.Second):
		t.Fatal("auto-unlock timer did not fire")
	}

	assert.False(t, svc.IsLocked())
	assert.Equal(t, 0, svc.FailureCount())
}

func TestService_ExplicitUnlock(t *testing.T) {
	repo := storage.NewInMemRepository()
	clock := newFakeClock()
	svc := NewService(repo, testConfig(), WithClock(clock.Now))
	defer svc.Close()

	for i := 0; i < 5; i++ {
		svc.RecordFailure()
	}
	require.True(t, svc.IsLocked())

	svc.Unlock()

	assert.False(t, svc.IsLocked())
	assert.Equal(t, 0, svc.FailureCount())
}

func TestService_IgnoresCorruptState(t *testing.T) {
	repo := storage.NewInMemRepository()
	require.NoError(t, repo.Set(KeyLoginAttempts, "not-a-number"))
	require.NoError(t, repo.Set(KeyLockoutTime, "garbage"))

	svc := NewService(repo, testConfig())
	defer svc.Close()

	assert.Equal(t, 0, svc.FailureCount())
	assert.False(t, svc.IsLocked())
}
