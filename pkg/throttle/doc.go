// Package throttle tracks consecutive failed login attempts on this device
// and enforces a temporary lockout once a configured maximum is reached.
// State persists across restarts with the remaining lockout recomputed, not
// restarted. Device-scoped deterrence only; the backend owns real limits.
package throttle
