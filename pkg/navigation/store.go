package navigation

import (
	"slices"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/entity"
)

// State is the navigation state of the entity currently on screen.
type State struct {
	Results     []entity.Match `json:"results"`
	ActiveIndex int            `json:"activeIndex"`
	Version     uint64         `json:"version"`
}

// Active returns the match at ActiveIndex.
func (s State) Active() (entity.Match, bool) {
	if s.ActiveIndex < 0 || s.ActiveIndex >= len(s.Results) {
		return entity.Match{}, false
	}
	return s.Results[s.ActiveIndex], true
}

func (s State) Empty() bool { return len(s.Results) == 0 }

// Store owns the navigation state. It is not safe for concurrent use: every call
// must happen on the event loop that owns it.
//
// Get is the synchronous snapshot used for staleness decisions. Subscribers get the
// same snapshot right after each mutation and are a read-only projection of it.
type Store struct {
	state  State
	subs   []subscriber
	nextID int
}

type subscriber struct {
	id int
	fn func(State)
}

func NewStore() *Store { return &Store{} }

// Set replaces the results and active index. The index is clamped into range and
// the version always advances.
func (s *Store) Set(results []entity.Match, index int) {
	results = slices.Clone(results)
	switch {
	case len(results) == 0:
		index = 0
	case index < 0:
		index = 0
	case index >= len(results):
		index = len(results) - 1
	}
	s.state = State{Results: results, ActiveIndex: index, Version: s.state.Version + 1}
	s.notify()
}

// Clear empties the store. The version advances so that fetches issued before the
// clear are stale.
func (s *Store) Clear() {
	s.state = State{Version: s.state.Version + 1}
	s.notify()
}

func (s *Store) Get() State {
	st := s.state
	st.Results = slices.Clone(st.Results)
	return st
}

func (s *Store) Version() uint64 { return s.state.Version }

// Subscribe registers fn to receive every new snapshot. The returned func removes it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		s.subs = slices.DeleteFunc(s.subs, func(sub subscriber) bool { return sub.id == id })
	}
}

// mergeAt rewrites the match at index without touching the version. Only the guard
// calls it, after its version check.
func (s *Store) mergeAt(index int, fn func(entity.Match) entity.Match) bool {
	if index < 0 || index >= len(s.state.Results) {
		return false
	}
	results := slices.Clone(s.state.Results)
	results[index] = fn(results[index].Clone())
	s.state.Results = results
	s.notify()
	return true
}

func (s *Store) notify() {
	if len(s.subs) == 0 {
		return
	}
	for _, sub := range slices.Clone(s.subs) {
		sub.fn(s.Get())
	}
}
