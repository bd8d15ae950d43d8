package repository

import (
	"context"
	"encoding/json"

	"github.com/iliyamo/cinema-booking/internal/kvstore"
)

// BlobStore is the subset of kvstore.Actor the repositories need.  Update
// must run its function and the write without interleaving other writers.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Update(ctx context.Context, key string, fn kvstore.UpdateFunc) error
}

// readJSON decodes the blob under key into out.  found is false when the key
// is absent.  A decode failure is returned as-is so callers can choose to
// degrade.
func readJSON(ctx context.Context, s BlobStore, key string, out any) (found bool, err error) {
	b, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return true, err
	}
	return true, nil
}

func writeJSON(ctx context.Context, s BlobStore, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, b)
}
