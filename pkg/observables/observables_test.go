package observables

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const page = `<html>
<head><title>Emotet returns | Example Blog</title><script>var tracker = "https://analytics.example.net/t.js";</script></head>
<body>
  <h1>Emotet returns</h1>
  <p>The loader calls back to 185.220.101[.]1 and hxxps://evil-cdn[.]com/payload.bin.</p>
  <p>Infrastructure overlaps with 45.9.148.0/24 and update-check.example.org.</p>
  <p>Exploits CVE-2021-44228 for initial access (T1566.001, see also T1190).</p>
  <p>Sample: 44d88612fea8a8f36de82e1278abb02f</p>
  <p>Internal testing used 10.0.0.12 and readme.exe.</p>
  <a href="https://attack.mitre.org/techniques/T1566/">reference</a>
</body>
</html>`

func TestExtract(t *testing.T) {
	got, err := Extract(page)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := []Observable{
		{Type: TypeAttackPattern, Value: "T1190"},
		{Type: TypeAttackPattern, Value: "T1566.001"},
		{Type: TypeDomain, Value: "update-check.example.org"},
		{Type: TypeIPv4, Value: "185.220.101.1"},
		{Type: TypeIPv4, Value: "45.9.148.0/24"},
		{Type: TypeFile, Value: "44d88612fea8a8f36de82e1278abb02f"},
		{Type: TypeURL, Value: "https://attack.mitre.org/techniques/T1566/"},
		{Type: TypeURL, Value: "https://evil-cdn.com/payload.bin"},
		{Type: TypeVulnerability, Value: "CVE-2021-44228"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Extract mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractTextDeduplicates(t *testing.T) {
	got := ExtractText("CVE-2024-3094 cve-2024-3094 CVE-2024-3094")
	if len(got) != 1 || got[0].Value != "CVE-2024-3094" {
		t.Fatalf("unexpected observables %#v", got)
	}
}

func TestIsDomain(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"example.com", true},
		{"sub.example.co.uk", true},
		{"readme.exe", false},
		{"co.uk", false},
		{"localhost", false},
		{"8.8.8.8", false},
	}
	for _, tc := range tests {
		if got := IsDomain(tc.in); got != tc.want {
			t.Errorf("IsDomain(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRootDomain(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"http://sub.foo.example.co.uk/path", "example.co.uk", true},
		{"update-check.example.org", "example.org", true},
		{"185.220.101.1", "", false},
	}
	for _, tc := range tests {
		got, ok := RootDomain(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("RootDomain(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestNormalizeType(t *testing.T) {
	tests := map[string]string{
		"ipv4-addr":      TypeIPv4,
		"IP_ADDRESS":     TypeIPv4,
		"hostname":       TypeDomain,
		"attack_pattern": TypeAttackPattern,
		"Endpoint":       TypeEndpoint,
		" Malware ":      "Malware",
	}
	for in, want := range tests {
		if got := NormalizeType(in); got != want {
			t.Errorf("NormalizeType(%q) = %q, want %q", in, got, want)
		}
	}
}
