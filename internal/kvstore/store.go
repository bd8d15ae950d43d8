// Package kvstore is the persisted blob store behind bookings, favorites,
// the profile and preferences.  Values are opaque byte blobs (JSON in
// practice) read and written wholesale; there are no partial updates.
//
// Backends implement Store.  Callers never talk to a backend directly: they
// go through an Actor, which owns the backend from a single goroutine so that
// read-modify-write sequences of one process cannot interleave.
package kvstore

import (
	"context"
	"errors"
	"strings"
)

// Store is a whole-value key/value blob store.
type Store interface {
	// Get returns the value stored under key.  ok is false when the key is
	// absent; that is not an error.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key.  Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Well-known blob names.  Each is stored per client namespace, see Key.
const (
	BookingsKey    = "userBookings"
	FavoritesKey   = "favorites"
	ProfileKey     = "currentUser"
	CredentialsKey = "userCredentials"
	FiltersKey     = "movieFilters"
	ActivityKey    = "userActivity"
)

// DefaultNamespace is used when a caller does not identify itself.
const DefaultNamespace = "default"

// ErrClosed is returned by an Actor after Close.
var ErrClosed = errors.New("kvstore: store closed")

// Key joins a client namespace and a blob name.  Empty namespaces fall back
// to DefaultNamespace.
func Key(namespace, name string) string {
	ns := strings.TrimSpace(namespace)
	if ns == "" {
		ns = DefaultNamespace
	}
	return ns + ":" + name
}
