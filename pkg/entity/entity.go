package entity

import (
	"encoding/json"
	"strings"
)

// PlatformKind identifies the family of a configured backend platform.
type PlatformKind string

const (
	// KindPrimary is the knowledge-base-of-record (OpenCTI).
	KindPrimary PlatformKind = "primary"
	// KindSimulation is an attack-simulation platform (OpenAEV).
	KindSimulation PlatformKind = "simulation"
)

// UnknownName is used when a match carries no usable name.
const UnknownName = "Unknown"

// ParseKind maps config spellings onto a PlatformKind.
func ParseKind(s string) (PlatformKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "primary", "opencti", "cti":
		return KindPrimary, true
	case "simulation", "openaev", "openbas", "aev":
		return KindSimulation, true
	}
	return "", false
}

func (k PlatformKind) IsPrimary() bool { return k == KindPrimary }

// Descriptor identifies one configured backend instance. Immutable once loaded.
type Descriptor struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"displayName"`
	BaseURL     string       `json:"baseUrl"`
	Kind        PlatformKind `json:"kind"`
	Premium     bool         `json:"isPremiumTier"`
}

// Match is one entity as returned by a single platform.
type Match struct {
	PlatformID   string                     `json:"platformId"`
	PlatformKind PlatformKind               `json:"platformKind"`
	EntityID     string                     `json:"entityId,omitempty"`
	Type         string                     `json:"type"`
	Name         string                     `json:"name"`
	Value        string                     `json:"value,omitempty"`
	FullyLoaded  bool                       `json:"isFullyLoaded"`
	Raw          map[string]json.RawMessage `json:"rawData,omitempty"`
}

// RepresentativeName returns the first non-empty of Name, Value and UnknownName.
func (m Match) RepresentativeName() string {
	if n := strings.TrimSpace(m.Name); n != "" {
		return n
	}
	if v := strings.TrimSpace(m.Value); v != "" {
		return v
	}
	return UnknownName
}

// Clone returns a copy whose Raw map can be modified independently.
func (m Match) Clone() Match {
	if m.Raw != nil {
		raw := make(map[string]json.RawMessage, len(m.Raw))
		for k, v := range m.Raw {
			raw[k] = v
		}
		m.Raw = raw
	}
	return m
}

// Result holds the per-platform matches of one logical entity.
type Result struct {
	Type    string  `json:"type"`
	Name    string  `json:"name"`
	Matches []Match `json:"matches"`
}

// Container is an existing report/case/grouping on a platform that references a URL.
type Container struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Name       string `json:"name"`
	PlatformID string `json:"platformId"`
	Created    string `json:"created,omitempty"`
	URL        string `json:"url,omitempty"`
}
