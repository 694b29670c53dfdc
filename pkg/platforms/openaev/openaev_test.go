package openaev

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/entity"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/platforms"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/whttp"
)

func newTestClient(t *testing.T) (*Client, func()) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/attack_patterns/search", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"content":[{"attack_pattern_id":"ap-1","attack_pattern_name":"Phishing","attack_pattern_external_id":"T1566"}]}`)
	})
	mux.HandleFunc("POST /api/endpoints/search", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"content":[{"asset_id":"e-1","asset_name":"WS-042","endpoint_hostname":"ws-042.corp"}]}`)
	})
	mux.HandleFunc("POST /api/asset_groups/search", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"content":[]}`)
	})
	mux.HandleFunc("GET /api/attack_patterns/ap-1", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"attack_pattern_id":"ap-1","attack_pattern_name":"Phishing","attack_pattern_external_id":"T1566","attack_pattern_description":"Adversaries may send phishing messages"}`)
	})

	srv := httptest.NewServer(mux)
	desc := entity.Descriptor{ID: "aev", DisplayName: "AEV", BaseURL: srv.URL, Kind: entity.KindSimulation}
	return NewClient(desc, "tok", whttp.NewClient(0, 5*time.Second)), srv.Close
}

func TestSearchAcrossCollections(t *testing.T) {
	c, done := newTestClient(t)
	defer done()

	got, err := c.Search(context.Background(), "phish")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d: %#v", len(got), got)
	}
	if got[0].Type != "Attack-Pattern" || got[0].Name != "Phishing" || got[0].Value != "T1566" {
		t.Fatalf("unexpected attack pattern %#v", got[0])
	}
	if got[1].Type != "Endpoint" || got[1].PlatformKind != entity.KindSimulation {
		t.Fatalf("unexpected endpoint %#v", got[1])
	}
}

func TestDetails(t *testing.T) {
	c, done := newTestClient(t)
	defer done()

	raw, err := c.Details(context.Background(), platforms.DetailRef{ID: "ap-1", EntityType: "attack-pattern"})
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("invalid details: %v", err)
	}
	if got["name"] != "Phishing" || got["value"] != "T1566" || got["type"] != "Attack-Pattern" {
		t.Fatalf("unexpected details %v", got)
	}

	if _, err := c.Details(context.Background(), platforms.DetailRef{ID: "x", EntityType: "Malware"}); !errors.Is(err, platforms.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, err := c.Details(context.Background(), platforms.DetailRef{ID: "nope", EntityType: "Attack-Pattern"}); err == nil {
		t.Fatalf("expected not found error")
	}
}

func TestContainersUnsupported(t *testing.T) {
	c, done := newTestClient(t)
	defer done()
	if _, err := c.ContainersByURL(context.Background(), "https://x"); !errors.Is(err, platforms.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
