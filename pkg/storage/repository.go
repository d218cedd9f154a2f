package storage

// Repository is a flat string key-value store modeled after browser
// localStorage: plain string keys and values, no schema versioning.
// Both the session store and the attempt throttle persist through it,
// which keeps their state swappable between file-backed and in-memory
// implementations.
type Repository interface {
	// Get returns the value for key and whether the key exists.
	Get(key string) (string, bool, error)

	// Set stores value under key, overwriting any previous value.
	Set(key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}
