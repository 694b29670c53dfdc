package observables

import "strings"

// Canonical entity types, spelled the way the knowledge base spells them.
const (
	TypeIPv4          = "IPv4-Addr"
	TypeIPv6          = "IPv6-Addr"
	TypeDomain        = "Domain-Name"
	TypeURL           = "Url"
	TypeFile          = "StixFile"
	TypeVulnerability = "Vulnerability"
	TypeAttackPattern = "Attack-Pattern"
	TypeEndpoint      = "Endpoint"
)

// unificationMap groups the type spellings used by the different platforms under
// one canonical type.
var unificationMap = map[string][]string{
	TypeIPv4:          {"ipv4-addr", "ipv4", "ip", "ip_address", "ip-address", "ipv4_address"},
	TypeIPv6:          {"ipv6-addr", "ipv6", "ipv6_address"},
	TypeDomain:        {"domain-name", "domain", "hostname", "fqdn"},
	TypeURL:           {"url", "uri", "link"},
	TypeFile:          {"stixfile", "file", "hash", "md5", "sha-1", "sha1", "sha-256", "sha256", "artifact"},
	TypeVulnerability: {"vulnerability", "cve"},
	TypeAttackPattern: {"attack-pattern", "attack_pattern", "attackpattern", "technique", "ttp"},
	TypeEndpoint:      {"endpoint", "asset", "host"},
}

// typeMap is a reverse map generated from unificationMap for efficient lookups.
var typeMap map[string]string

func init() {
	typeMap = make(map[string]string)
	for unified, raws := range unificationMap {
		for _, raw := range raws {
			typeMap[raw] = unified
		}
	}
}

// NormalizeType maps a platform-specific type name onto its canonical spelling.
// Unknown types are returned trimmed but otherwise unchanged.
func NormalizeType(t string) string {
	t = strings.TrimSpace(t)
	if unified, ok := typeMap[strings.ToLower(t)]; ok {
		return unified
	}
	return t
}
