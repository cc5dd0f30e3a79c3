package platform

import (
	"testing"

	"github.com/quentinj/stockpulse/pkg/reddit"
)

func TestFilterNew(t *testing.T) {
	existing := map[string]struct{}{"a1": {}, "a2": {}}
	batch := []reddit.SearchPost{{ID: "a1"}, {ID: "a2"}, {ID: "a3"}}

	got := FilterNew(batch, func(p reddit.SearchPost) string { return p.ID }, existing)

	if len(got) != 1 || got[0].ID != "a3" {
		t.Fatalf("FilterNew = %v, want exactly [a3]", got)
	}
}

func TestFilterNewAllKnown(t *testing.T) {
	existing := map[string]struct{}{"a1": {}}
	got := FilterNew([]reddit.SearchPost{{ID: "a1"}}, func(p reddit.SearchPost) string { return p.ID }, existing)
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestPartition(t *testing.T) {
	existing := map[string]struct{}{"c1": {}}
	batch := []reddit.CommentDetail{
		{CommentID: "c1", Score: 5},
		{CommentID: "c2", Score: 9},
	}

	fresh, known := Partition(batch, func(c reddit.CommentDetail) string { return c.CommentID }, existing)

	if len(fresh) != 1 || fresh[0].CommentID != "c2" {
		t.Errorf("fresh = %v, want [c2]", fresh)
	}
	if len(known) != 1 || known[0].CommentID != "c1" {
		t.Errorf("known = %v, want [c1]", known)
	}
}

func TestMergeScoresDropsUnknownIDs(t *testing.T) {
	stored := map[string]struct{}{"s1": {}, "s2": {}}
	fresh := []reddit.ScoreDetail{
		{ID: "s1", Score: 10},
		{ID: "sX", Score: 99}, // resolved by the API but not stored here
	}

	updates := MergeScores(stored, fresh)

	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %v", updates)
	}
	if updates[0].ID != "s1" || updates[0].Score != 10 {
		t.Fatalf("update = %+v, want {s1 10}", updates[0])
	}
}
