package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Store is the key-value contract the registry is persisted through.
// Get with no keys returns every stored key.
type Store interface {
	Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)
	Set(ctx context.Context, values map[string]json.RawMessage) error
	Clear(ctx context.Context) error
}

// Locker serializes read-modify-write cycles across processes sharing the
// same store.
type Locker interface {
	Lock() error
	Unlock() error
}

// Registry reads and mutates the watched-show state. It holds no copy of the
// state: every call goes to the store.
type Registry struct {
	store Store
	lock  Locker // optional

	mu  sync.Mutex
	now func() time.Time
}

// New returns a Registry backed by store. lock may be nil when only one
// process writes to the store.
func New(store Store, lock Locker) *Registry {
	return &Registry{store: store, lock: lock, now: time.Now}
}

// Load reads the current state. Absent keys take their defaults, as do a
// blocking mode or sensitivity outside their allowed values.
func (r *Registry) Load(ctx context.Context) (State, error) {
	values, err := r.store.Get(ctx, KeyEnabled, KeyWatchedShows, KeyBlockingMode, KeySensitivity)
	if err != nil {
		return State{}, fmt.Errorf("could not read registry: %w", err)
	}
	return decodeState(values)
}

func decodeState(values map[string]json.RawMessage) (State, error) {
	st := DefaultState()

	if raw, ok := values[KeyEnabled]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &st.Enabled); err != nil {
			return State{}, fmt.Errorf("could not decode %s: %w", KeyEnabled, err)
		}
	}
	if raw, ok := values[KeyWatchedShows]; ok && !isNull(raw) {
		var shows []Show
		if err := json.Unmarshal(raw, &shows); err != nil {
			return State{}, fmt.Errorf("could not decode %s: %w", KeyWatchedShows, err)
		}
		if shows != nil {
			st.Shows = shows
		}
	}
	if raw, ok := values[KeyBlockingMode]; ok && !isNull(raw) {
		var mode BlockingMode
		if err := json.Unmarshal(raw, &mode); err == nil && mode.Valid() {
			st.BlockingMode = mode
		}
	}
	if raw, ok := values[KeySensitivity]; ok && !isNull(raw) {
		var s int
		if err := json.Unmarshal(raw, &s); err == nil && s >= MinSensitivity && s <= MaxSensitivity {
			st.Sensitivity = s
		}
	}
	return st, nil
}

// Init writes the install-time defaults for enabled and watchedShows when
// they are absent. Existing values are left alone.
func (r *Registry) Init(ctx context.Context) error {
	return r.withLock(func() error {
		values, err := r.store.Get(ctx, KeyEnabled, KeyWatchedShows)
		if err != nil {
			return err
		}
		missing := map[string]json.RawMessage{}
		if _, ok := values[KeyEnabled]; !ok {
			missing[KeyEnabled] = mustMarshal(DefaultEnabled)
		}
		if _, ok := values[KeyWatchedShows]; !ok {
			missing[KeyWatchedShows] = json.RawMessage("[]")
		}
		return r.store.Set(ctx, missing)
	})
}

func (r *Registry) withLock(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lock != nil {
		if err := r.lock.Lock(); err != nil {
			return err
		}
		defer r.lock.Unlock()
	}
	return fn()
}

func (r *Registry) set(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, map[string]json.RawMessage{key: raw})
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func mustMarshal(v interface{}) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
