package repository

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/cinema-booking/internal/kvstore"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// JoinDateLayout is the layout of UserProfile.JoinDate.
const JoinDateLayout = "January 2, 2006"

// ProfileRepo stores the client's profile and, under a separate key, the
// password credentials.
type ProfileRepo struct {
	store BlobStore
	now   func() time.Time
}

// NewProfileRepo returns a ProfileRepo over the given store.
func NewProfileRepo(s BlobStore) *ProfileRepo {
	return &ProfileRepo{store: s, now: time.Now}
}

// DefaultProfile is the profile of a client that never saved one.
func DefaultProfile(now time.Time) model.UserProfile {
	return model.UserProfile{
		Name:     "User",
		Email:    "user@example.com",
		JoinDate: now.Format(JoinDateLayout),
	}
}

// Get returns the stored profile.  A client without a profile gets
// DefaultProfile, which is saved so the join date stays fixed.
func (r *ProfileRepo) Get(ctx context.Context, ns string) (model.UserProfile, error) {
	key := kvstore.Key(ns, kvstore.ProfileKey)
	var p model.UserProfile
	found, err := readJSON(ctx, r.store, key, &p)
	if found && err != nil {
		log.Printf("profile: failed to parse %s, using defaults: %v", key, err)
		found = false
	} else if err != nil {
		return model.UserProfile{}, err
	}
	if found {
		if p.JoinDate == "" {
			p.JoinDate = r.now().Format(JoinDateLayout)
		}
		return p, nil
	}
	p = DefaultProfile(r.now())
	if err := writeJSON(ctx, r.store, key, p); err != nil {
		return model.UserProfile{}, err
	}
	return p, nil
}

// Put replaces the stored profile.
func (r *ProfileRepo) Put(ctx context.Context, ns string, p model.UserProfile) error {
	return writeJSON(ctx, r.store, kvstore.Key(ns, kvstore.ProfileKey), p)
}

// Credentials returns the stored credentials.  ok is false when no password
// was ever set.
func (r *ProfileRepo) Credentials(ctx context.Context, ns string) (model.Credentials, bool, error) {
	key := kvstore.Key(ns, kvstore.CredentialsKey)
	var c model.Credentials
	found, err := readJSON(ctx, r.store, key, &c)
	if found && err != nil {
		log.Printf("profile: failed to parse %s, ignoring: %v", key, err)
		return model.Credentials{}, false, nil
	}
	if err != nil {
		return model.Credentials{}, false, err
	}
	return c, found && c.PasswordHash != "", nil
}

// PutCredentials replaces the stored credentials.
func (r *ProfileRepo) PutCredentials(ctx context.Context, ns string, c model.Credentials) error {
	return writeJSON(ctx, r.store, kvstore.Key(ns, kvstore.CredentialsKey), c)
}
