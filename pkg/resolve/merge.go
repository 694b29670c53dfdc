package resolve

import (
	"strings"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/entity"
)

// PlatformNamer resolves a platform id to a display name.
type PlatformNamer interface {
	PlatformName(id string) string
}

// Contribution is one platform's match inside a merged record.
type Contribution struct {
	PlatformID   string       `json:"platformId"`
	PlatformName string       `json:"platformName"`
	Match        entity.Match `json:"match"`
}

// Record groups matches that are believed to be the same logical entity.
type Record struct {
	Key           string         `json:"key"`
	Type          string         `json:"type"`
	Name          string         `json:"name"`
	Contributions []Contribution `json:"contributions"`
}

// Key builds the merge key of a match: lower(type) + ":" + lower(representative name).
func Key(m entity.Match) string {
	return strings.ToLower(strings.TrimSpace(m.Type)) + ":" + strings.ToLower(m.RepresentativeName())
}

// contributionKey identifies a raw match within a record so that feeding the same
// match twice does not inflate the record.
func contributionKey(m entity.Match) string {
	id := m.EntityID
	if id == "" {
		id = "v:" + strings.ToLower(strings.TrimSpace(m.Value)) + "|n:" + strings.ToLower(strings.TrimSpace(m.Name))
	}
	return m.PlatformID + "|" + id
}

// Merge groups raw per-platform matches into one record per distinct key.
// Records come out in first-seen order. names may be nil.
func Merge(matches []entity.Match, names PlatformNamer) []Record {
	var records []Record
	index := make(map[string]int, len(matches))
	seen := make(map[string]struct{}, len(matches))

	for _, m := range matches {
		key := Key(m)
		i, ok := index[key]
		if !ok {
			i = len(records)
			index[key] = i
			records = append(records, Record{
				Key:  key,
				Type: m.Type,
				Name: m.RepresentativeName(),
			})
		}

		ck := key + "#" + contributionKey(m)
		if _, dup := seen[ck]; dup {
			continue
		}
		seen[ck] = struct{}{}

		records[i].Contributions = append(records[i].Contributions, Contribution{
			PlatformID:   m.PlatformID,
			PlatformName: platformName(names, m.PlatformID),
			Match:        m,
		})
	}
	return records
}

func platformName(names PlatformNamer, id string) string {
	if names == nil {
		return id
	}
	if n := names.PlatformName(id); n != "" {
		return n
	}
	return id
}

// PlatformIDs lists the distinct platforms contributing to the record, in order.
func (r Record) PlatformIDs() []string {
	var ids []string
	seen := map[string]bool{}
	for _, c := range r.Contributions {
		if !seen[c.PlatformID] {
			seen[c.PlatformID] = true
			ids = append(ids, c.PlatformID)
		}
	}
	return ids
}

// Result turns the record into a browsable result: one match per platform (the first
// contribution wins), primary platforms first.
func (r Record) Result() entity.Result {
	seen := map[string]bool{}
	matches := make([]entity.Match, 0, len(r.Contributions))
	for _, c := range r.Contributions {
		if seen[c.PlatformID] {
			continue
		}
		seen[c.PlatformID] = true
		matches = append(matches, c.Match)
	}
	return entity.Result{
		Type:    r.Type,
		Name:    r.Name,
		Matches: SortByPlatform(matches),
	}
}
