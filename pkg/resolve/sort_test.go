package resolve

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/entity"
)

func ids(matches []entity.Match) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.PlatformID)
	}
	return out
}

func TestSortByPlatform(t *testing.T) {
	in := []entity.Match{
		{PlatformID: "aev-1", PlatformKind: entity.KindSimulation},
		{PlatformID: "cti-1", PlatformKind: entity.KindPrimary},
		{PlatformID: "aev-2", PlatformKind: entity.KindSimulation},
		{PlatformID: "cti-2", PlatformKind: entity.KindPrimary},
	}

	got := SortByPlatform(in)
	want := []string{"cti-1", "cti-2", "aev-1", "aev-2"}
	if diff := cmp.Diff(want, ids(got)); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}

	if in[0].PlatformID != "aev-1" {
		t.Fatalf("input slice was reordered")
	}

	if diff := cmp.Diff(ids(got), ids(SortByPlatform(got))); diff != "" {
		t.Fatalf("sorting twice changed the order (-once +twice):\n%s", diff)
	}
}

func TestSortByPlatform_Empty(t *testing.T) {
	if got := SortByPlatform(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}
