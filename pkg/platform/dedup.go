package platform

import (
	"github.com/quentinj/stockpulse/internal/store"
	"github.com/quentinj/stockpulse/pkg/reddit"
)

// FilterNew returns the items whose key is absent from existing. Callers
// fetch the existing set from the store immediately before filtering so
// the difference is never computed against stale IDs.
func FilterNew[T any](items []T, key func(T) string, existing map[string]struct{}) []T {
	var fresh []T
	for _, it := range items {
		if _, ok := existing[key(it)]; !ok {
			fresh = append(fresh, it)
		}
	}
	return fresh
}

// Partition splits items into those not yet stored and those already
// known, by key. An item goes through exactly one of the two.
func Partition[T any](items []T, key func(T) string, existing map[string]struct{}) (fresh, known []T) {
	for _, it := range items {
		if _, ok := existing[key(it)]; ok {
			known = append(known, it)
		} else {
			fresh = append(fresh, it)
		}
	}
	return fresh, known
}

// MergeScores joins freshly fetched scores onto the set of stored IDs:
// rows for unknown IDs are dropped, and only the mutable score column is
// projected into the update. Immutable columns never travel through here.
func MergeScores(stored map[string]struct{}, fresh []reddit.ScoreDetail) []store.ScoreUpdate {
	var updates []store.ScoreUpdate
	for _, d := range fresh {
		if _, ok := stored[d.ID]; !ok {
			continue
		}
		updates = append(updates, store.ScoreUpdate{ID: d.ID, Score: d.Score})
	}
	return updates
}

// idSet builds a membership set from a list of IDs.
func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
