package storage

import "sync"

// InMemRepository implements Repository with a plain map. Intended for
// tests and short-lived sessions where persistence is not wanted.
type InMemRepository struct {
	values map[string]string
	mutex  sync.RWMutex
}

// NewInMemRepository creates an empty in-memory repository.
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{
		values: make(map[string]string),
	}
}

// Get returns the stored value for key.
func (r *InMemRepository) Get(key string) (string, bool, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	value, ok := r.values[key]
	return value, ok, nil
}

// Set stores value under key.
func (r *InMemRepository) Set(key, value string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.values[key] = value
	return nil
}

// Delete removes key.
func (r *InMemRepository) Delete(key string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.values, key)
	return nil
}
