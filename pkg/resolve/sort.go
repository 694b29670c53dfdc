package resolve

import (
	"slices"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/entity"
)

// SortByPlatform puts matches from the primary knowledge base first. Matches of the
// same kind keep their input order. The input slice is not modified.
func SortByPlatform(matches []entity.Match) []entity.Match {
	out := slices.Clone(matches)
	slices.SortStableFunc(out, func(a, b entity.Match) int {
		return kindRank(a.PlatformKind) - kindRank(b.PlatformKind)
	})
	return out
}

func kindRank(k entity.PlatformKind) int {
	if k.IsPrimary() {
		return 0
	}
	return 1
}
