package navigation

import (
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/entity"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/resolve"
)

// Fetcher issues background detail fetches. *Guard implements it.
type Fetcher interface {
	FetchDetail(m entity.Match, platform entity.Descriptor, t Ticket)
}

// Descriptors resolves platform ids to their descriptors. *platforms.Registry
// implements it.
type Descriptors interface {
	Descriptor(id string) (entity.Descriptor, bool)
}

// Navigator moves the active match of the panel across platforms.
type Navigator struct {
	store     *Store
	fetcher   Fetcher
	platforms Descriptors
}

func NewNavigator(store *Store, fetcher Fetcher, platforms Descriptors) *Navigator {
	return &Navigator{store: store, fetcher: fetcher, platforms: platforms}
}

// Open shows a merged result, primary platforms first, starting at the first match.
// An empty result clears the panel and returns false.
func (n *Navigator) Open(res entity.Result) bool {
	if len(res.Matches) == 0 {
		n.store.Clear()
		return false
	}
	n.activate(resolve.SortByPlatform(res.Matches), 0)
	return true
}

// GoTo activates the match at index. Out-of-range indexes are ignored. Selecting
// the already active index still refetches.
func (n *Navigator) GoTo(index int) bool {
	st := n.store.Get()
	if index < 0 || index >= len(st.Results) {
		return false
	}
	n.activate(st.Results, index)
	return true
}

// Next moves one match forward. It does not wrap.
func (n *Navigator) Next() bool {
	return n.GoTo(n.store.Get().ActiveIndex + 1)
}

// Previous moves one match back. It does not wrap.
func (n *Navigator) Previous() bool {
	return n.GoTo(n.store.Get().ActiveIndex - 1)
}

// Close empties the panel. Fetches still in flight become stale.
func (n *Navigator) Close() { n.store.Clear() }

func (n *Navigator) Active() (entity.Match, bool) { return n.store.Get().Active() }

func (n *Navigator) State() State { return n.store.Get() }

func (n *Navigator) activate(results []entity.Match, index int) {
	n.store.Set(results, index)
	st := n.store.Get()
	m, ok := st.Active()
	if !ok {
		return
	}

	desc, found := n.platforms.Descriptor(m.PlatformID)
	if !found {
		desc = entity.Descriptor{ID: m.PlatformID, DisplayName: m.PlatformID, Kind: m.PlatformKind}
	}
	n.fetcher.FetchDetail(m, desc, Ticket{Index: st.ActiveIndex, Version: st.Version})
}
