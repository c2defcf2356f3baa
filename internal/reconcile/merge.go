package reconcile

import (
	"sort"

	"github.com/pkordes/fitroute/internal/domain"
)

// Merge combines the cached and remote collections into one. Routes are
// keyed by id: cached entries go in first and remote entries overwrite them,
// so the remote copy wins on collision and cache-only routes (including
// local-only ids) survive. The result is ordered newest createdAt first;
// ties keep insertion order. Neither input is modified.
func Merge(cached, remote []domain.Route) []domain.Route {
	index := make(map[string]int, len(cached)+len(remote))
	out := make([]domain.Route, 0, len(cached)+len(remote))

	put := func(r domain.Route) {
		if i, ok := index[r.ID]; ok {
			out[i] = r.Clone()
			return
		}
		index[r.ID] = len(out)
		out = append(out, r.Clone())
	}
	for _, r := range cached {
		put(r)
	}
	for _, r := range remote {
		put(r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
