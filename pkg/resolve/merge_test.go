package resolve

import (
	"slices"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/entity"
)

type namer map[string]string

func (n namer) PlatformName(id string) string { return n[id] }

// grouping reduces records to key -> sorted distinct platform ids.
func grouping(records []Record) map[string][]string {
	out := make(map[string][]string, len(records))
	for _, r := range records {
		p := r.PlatformIDs()
		sort.Strings(p)
		out[r.Key] = p
	}
	return out
}

func TestMerge_CaseInsensitiveKey(t *testing.T) {
	records := Merge([]entity.Match{
		{PlatformID: "p1", Type: "Malware", Name: "Emotet", EntityID: "a"},
		{PlatformID: "p2", Type: "malware", Name: "EMOTET", EntityID: "b"},
	}, namer{"p1": "CTI Prod", "p2": "CTI Lab"})

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d: %#v", len(records), records)
	}
	r := records[0]
	if r.Key != "malware:emotet" {
		t.Fatalf("unexpected key %q", r.Key)
	}
	if len(r.Contributions) != 2 {
		t.Fatalf("expected 2 contributions, got %d", len(r.Contributions))
	}
	if r.Contributions[0].PlatformName != "CTI Prod" || r.Contributions[1].PlatformName != "CTI Lab" {
		t.Fatalf("platform names not resolved: %#v", r.Contributions)
	}
}

func TestMerge_NameFallback(t *testing.T) {
	records := Merge([]entity.Match{
		{PlatformID: "p1", Type: "IPv4-Addr", Value: "10.0.0.1"},
		{PlatformID: "p1", Type: "Report"},
	}, nil)

	got := []string{records[0].Key, records[1].Key}
	want := []string{"ipv4-addr:10.0.0.1", "report:unknown"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected keys (-want +got):\n%s", diff)
	}
	if records[1].Contributions[0].PlatformName != "p1" {
		t.Fatalf("expected platform id as name without a namer")
	}
}

func TestMerge_SamePlatformCandidatesKept(t *testing.T) {
	records := Merge([]entity.Match{
		{PlatformID: "p1", Type: "Threat-Actor", Name: "APT28", EntityID: "x"},
		{PlatformID: "p1", Type: "Threat-Actor", Name: "apt28", EntityID: "y"},
	}, nil)

	if len(records) != 1 || len(records[0].Contributions) != 2 {
		t.Fatalf("expected both candidates under one record, got %#v", records)
	}
	if res := records[0].Result(); len(res.Matches) != 1 || res.Matches[0].EntityID != "x" {
		t.Fatalf("expected first candidate per platform in result, got %#v", res.Matches)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	matches := []entity.Match{
		{PlatformID: "p1", Type: "Malware", Name: "Emotet", EntityID: "a"},
		{PlatformID: "p2", Type: "malware", Name: "emotet", EntityID: "b"},
		{PlatformID: "p1", Type: "Domain-Name", Value: "evil.com"},
		{PlatformID: "p3", Type: "Attack-Pattern", Name: "Phishing"},
	}

	once := Merge(matches, nil)
	twice := Merge(append(slices.Clone(matches), matches...), nil)

	if diff := cmp.Diff(grouping(once), grouping(twice)); diff != "" {
		t.Fatalf("duplicated input changed grouping (-once +twice):\n%s", diff)
	}
	for i := range once {
		if len(once[i].Contributions) != len(twice[i].Contributions) {
			t.Fatalf("record %s inflated: %d vs %d contributions", once[i].Key, len(once[i].Contributions), len(twice[i].Contributions))
		}
	}
}

func TestMerge_Commutative(t *testing.T) {
	matches := []entity.Match{
		{PlatformID: "p1", Type: "Malware", Name: "Emotet", EntityID: "a"},
		{PlatformID: "p2", Type: "Malware", Name: "QakBot", EntityID: "b"},
		{PlatformID: "p2", Type: "malware", Name: "EMOTET", EntityID: "c"},
		{PlatformID: "p3", Type: "Vulnerability", Name: "CVE-2021-44228"},
	}
	reversed := slices.Clone(matches)
	slices.Reverse(reversed)

	if diff := cmp.Diff(grouping(Merge(matches, nil)), grouping(Merge(reversed, nil))); diff != "" {
		t.Fatalf("grouping depends on input order (-forward +reversed):\n%s", diff)
	}
}

func TestRecordResult_PrimaryFirst(t *testing.T) {
	records := Merge([]entity.Match{
		{PlatformID: "aev", PlatformKind: entity.KindSimulation, Type: "Attack-Pattern", Name: "T1566"},
		{PlatformID: "cti", PlatformKind: entity.KindPrimary, Type: "attack-pattern", Name: "t1566"},
	}, nil)

	res := records[0].Result()
	if diff := cmp.Diff([]string{"cti", "aev"}, ids(res.Matches)); diff != "" {
		t.Fatalf("unexpected platform order (-want +got):\n%s", diff)
	}
	if res.Name != "T1566" || res.Type != "Attack-Pattern" {
		t.Fatalf("expected representative taken from first match, got %q/%q", res.Type, res.Name)
	}
}
