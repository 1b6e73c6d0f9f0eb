// Package kvstore persists the per-client key/value slots a Perch page keeps
// between sessions.
package kvstore

import (
	"context"
	"strings"

	"github.com/starford/perchsync/internal/apperr"
)

// Store is the interface for namespaced key/value persistence.
// A missing key is reported with ok == false, not an error; removing a
// missing key is a no-op.
type Store interface {
	// Get returns the value stored under key in ns.
	Get(ctx context.Context, ns, key string) (value string, ok bool, err error)
	// Set stores value under key in ns, replacing any previous value.
	Set(ctx context.Context, ns, key, value string) error
	// Remove deletes key from ns.
	Remove(ctx context.Context, ns, key string) error
	// Clear deletes every key in ns.
	Clear(ctx context.Context, ns string) error
	// Keys lists the keys in ns in ascending order.
	Keys(ctx context.Context, ns string) ([]string, error)
	// Close releases the backend.
	Close() error
}

// LocalNamespace is the long-lived slot set of a client.
func LocalNamespace(clientID string) string { return "local/" + clientID }

// SessionNamespace is the per-session slot set of a client.
func SessionNamespace(clientID string) string { return "session/" + clientID }

// ValidateClientID rejects ids that are empty, too long, or would collide
// with the namespace separator.
func ValidateClientID(id string) error {
	if id == "" || len(id) > 128 || strings.ContainsAny(id, "/ \t\r\n") {
		return apperr.ErrInvalidClient
	}
	return nil
}

// Bucket is a Store bound to one namespace.
type Bucket struct {
	store Store
	ns    string
}

// Scope binds s to ns.
func Scope(s Store, ns string) *Bucket {
	return &Bucket{store: s, ns: ns}
}

// Namespace returns the bound namespace.
func (b *Bucket) Namespace() string { return b.ns }

// Get returns the value for key.
func (b *Bucket) Get(ctx context.Context, key string) (string, bool, error) {
	return b.store.Get(ctx, b.ns, key)
}

// Set stores value under key.
func (b *Bucket) Set(ctx context.Context, key, value string) error {
	return b.store.Set(ctx, b.ns, key, value)
}

// Remove deletes key.
func (b *Bucket) Remove(ctx context.Context, key string) error {
	return b.store.Remove(ctx, b.ns, key)
}

// Clear deletes every key in the namespace.
func (b *Bucket) Clear(ctx context.Context) error {
	return b.store.Clear(ctx, b.ns)
}

// Keys lists the keys in the namespace.
func (b *Bucket) Keys(ctx context.Context) ([]string, error) {
	return b.store.Keys(ctx, b.ns)
}
