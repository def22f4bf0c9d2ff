package intake

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/motyar/gitbutler/internal/telegram"
)

// CachedSource serves a getUpdates response that a CI pre-check step left
// on disk, avoiding a duplicate API round-trip per workflow run. When the
// cache is missing or unreadable it falls through to the live source.
type CachedSource struct {
	path     string
	fallback UpdateSource
}

// NewCachedSource wraps fallback with a one-shot response cache at path.
// fallback may be nil, in which case a bad cache reads as "no updates".
func NewCachedSource(path string, fallback UpdateSource) *CachedSource {
	return &CachedSource{path: path, fallback: fallback}
}

// GetUpdates parses the cached response. Entries at or below the already
// acknowledged offset are dropped so a stale cache can never rewind the
// intake loop.
func (s *CachedSource) GetUpdates(ctx context.Context, offset int64, limit, timeoutSec int) ([]telegram.Update, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️ failed to read update cache %s: %v", s.path, err)
		}
		return s.fallthroughFetch(ctx, offset, limit, timeoutSec)
	}

	var api telegram.APIResponse
	if err := json.Unmarshal(data, &api); err != nil {
		log.Printf("⚠️ malformed update cache %s: %v", s.path, err)
		return s.fallthroughFetch(ctx, offset, limit, timeoutSec)
	}
	if !api.OK {
		log.Printf("⚠️ cached Telegram response not ok: %s", api.Description)
		return nil, nil
	}

	log.Printf("📦 using cached Telegram response from %s", s.path)

	fresh := make([]telegram.Update, 0, len(api.Result))
	for _, u := range api.Result {
		if u.UpdateID < offset {
			continue
		}
		fresh = append(fresh, u)
		if limit > 0 && len(fresh) >= limit {
			break
		}
	}
	return fresh, nil
}

func (s *CachedSource) fallthroughFetch(ctx context.Context, offset int64, limit, timeoutSec int) ([]telegram.Update, error) {
	if s.fallback == nil {
		return nil, nil
	}
	return s.fallback.GetUpdates(ctx, offset, limit, timeoutSec)
}
