package feeds

import (
	"context"
	"log/slog"
	"sync"
)

// LocationResolver lazily resolves the target-location names of a
// warning through the detail endpoint, memoizing per warning id. Create
// a fresh resolver for each cycle; entries are never invalidated.
type LocationResolver struct {
	client *Client

	mu    sync.Mutex
	cache map[string][]string
}

func NewLocationResolver(client *Client) *LocationResolver {
	return &LocationResolver{
		client: client,
		cache:  make(map[string][]string),
	}
}

// TargetLocations returns the place names a warning applies to. A
// failed detail fetch yields an empty set, so the warning matches no
// subscription this cycle and is retried on the next observation.
func (r *LocationResolver) TargetLocations(ctx context.Context, warningID string) []string {
	r.mu.Lock()
	locations, ok := r.cache[warningID]
	r.mu.Unlock()
	if ok {
		return locations
	}

	detail, err := r.client.DetailedWarning(ctx, warningID)
	if err != nil {
		slog.Warn("detail fetch failed", "id", warningID, "error", err)
		locations = nil
	} else {
		locations = detail.TargetLocations()
	}

	r.mu.Lock()
	r.cache[warningID] = locations
	r.mu.Unlock()
	return locations
}
