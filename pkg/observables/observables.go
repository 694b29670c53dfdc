// Package observables extracts indicators (IPs, domains, URLs, hashes, CVE and
// ATT&CK ids) from web pages so they can be looked up on the platforms.
package observables

import (
	"net"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/weppos/publicsuffix-go/publicsuffix"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/internal/utils"
)

// Observable is one indicator found on a page.
type Observable struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

var (
	reURL    = regexp.MustCompile(`https?://[^\s"'<>()\[\]]+`)
	reCIDR   = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}/\d{1,2}\b`)
	reIPv4   = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	reDomain = regexp.MustCompile(`(?i)\b(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,63}\b`)
	reSHA256 = regexp.MustCompile(`(?i)\b[a-f0-9]{64}\b`)
	reSHA1   = regexp.MustCompile(`(?i)\b[a-f0-9]{40}\b`)
	reMD5    = regexp.MustCompile(`(?i)\b[a-f0-9]{32}\b`)
	reCVE    = regexp.MustCompile(`(?i)\bCVE-\d{4}-\d{4,7}\b`)
	reMITRE  = regexp.MustCompile(`\bT\d{4}(?:\.\d{3})?\b`)
)

// refang undoes the usual ways indicators are defanged in reports.
var refang = strings.NewReplacer(
	"hxxps://", "https://",
	"hxxp://", "http://",
	"[.]", ".",
	"(.)", ".",
	"{.}", ".",
	"[:]", ":",
	"[://]", "://",
)

// Extract parses an HTML document and returns the observables in its visible text.
func Extract(html string) ([]Observable, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript, template").Remove()

	var b strings.Builder
	b.WriteString(doc.Find("title").Text())
	b.WriteByte('\n')
	doc.Find("body").Each(func(_ int, s *goquery.Selection) {
		b.WriteString(s.Text())
		b.WriteByte('\n')
	})
	// Links often carry the indicator only in the href.
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			b.WriteString(href)
			b.WriteByte('\n')
		}
	})
	return ExtractText(b.String()), nil
}

// ExtractText returns the observables found in plain text, deduplicated and
// sorted by type then value.
func ExtractText(text string) []Observable {
	text = refang.Replace(text)
	seen := make(map[Observable]struct{})
	add := func(typ, value string) {
		if value == "" {
			return
		}
		seen[Observable{Type: typ, Value: value}] = struct{}{}
	}

	// URLs are consumed first so their hosts and paths are not reported twice.
	urlHosts := make(map[string]struct{})
	for _, raw := range reURL.FindAllString(text, -1) {
		raw = strings.TrimRight(raw, ".,;:!?")
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			continue
		}
		add(TypeURL, raw)
		urlHosts[strings.ToLower(u.Hostname())] = struct{}{}
	}
	text = reURL.ReplaceAllString(text, " ")

	for _, c := range reCIDR.FindAllString(text, -1) {
		if utils.IsCIDR(c) {
			add(TypeIPv4, c)
		}
	}
	text = reCIDR.ReplaceAllString(text, " ")

	for _, ip := range reIPv4.FindAllString(text, -1) {
		if parsed := net.ParseIP(ip); parsed != nil && parsed.To4() != nil && !parsed.IsPrivate() && !parsed.IsLoopback() && !parsed.IsUnspecified() {
			add(TypeIPv4, ip)
		}
	}
	text = reIPv4.ReplaceAllString(text, " ")

	for _, h := range reSHA256.FindAllString(text, -1) {
		add(TypeFile, strings.ToLower(h))
	}
	for _, h := range reSHA1.FindAllString(text, -1) {
		add(TypeFile, strings.ToLower(h))
	}
	for _, h := range reMD5.FindAllString(text, -1) {
		add(TypeFile, strings.ToLower(h))
	}
	for _, cve := range reCVE.FindAllString(text, -1) {
		add(TypeVulnerability, strings.ToUpper(cve))
	}
	for _, id := range reMITRE.FindAllString(text, -1) {
		add(TypeAttackPattern, id)
	}

	for _, d := range reDomain.FindAllString(text, -1) {
		d = strings.ToLower(d)
		if _, ok := urlHosts[d]; ok {
			continue
		}
		if IsDomain(d) {
			add(TypeDomain, d)
		}
	}

	out := make([]Observable, 0, len(seen))
	for o := range seen {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// IsDomain reports whether s is a registrable domain or a subdomain of one under
// a known ICANN public suffix.
func IsDomain(s string) bool {
	if !strings.Contains(s, ".") || utils.IsIP(s) {
		return false
	}
	_, err := publicsuffix.DomainFromListWithOptions(publicsuffix.DefaultList, s, &publicsuffix.FindOptions{IgnorePrivate: true})
	return err == nil
}

// RootDomain returns the registrable domain of a host or URL.
// e.g., "http://sub.foo.example.co.uk/path" -> "example.co.uk", true
func RootDomain(s string) (string, bool) {
	host := s
	if !strings.Contains(s, "://") && strings.Contains(s, ".") {
		s = "http://" + s
	}
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		host = u.Hostname()
	}
	if utils.IsIP(host) {
		return "", false
	}
	domain, err := publicsuffix.Domain(strings.ToLower(host))
	if err != nil {
		return "", false
	}
	return domain, true
}

// Values returns the values of obs, in order.
func Values(obs []Observable) []string {
	out := make([]string, len(obs))
	for i, o := range obs {
		out[i] = o.Value
	}
	return out
}
