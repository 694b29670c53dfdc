package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/entity"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/messaging"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/platforms/dev"
)

// flakyChannel fails every search aimed at one platform.
type flakyChannel struct {
	messaging.Channel
	broken string
}

func (f flakyChannel) Send(ctx context.Context, req messaging.Request) (messaging.Response, error) {
	if req.Type == messaging.SearchEntities {
		var p messaging.SearchPayload
		if err := json.Unmarshal(req.Payload, &p); err == nil && p.PlatformID == f.broken {
			return messaging.Response{}, errors.New("connection refused")
		}
	}
	return f.Channel.Send(ctx, req)
}

func newConfig() Config {
	reg := dev.NewRegistry(0)
	return Config{
		Channel:     messaging.LocalChannel{Dispatcher: messaging.NewDispatcher(reg, nil)},
		Platforms:   reg.Descriptors(),
		Names:       reg,
		Concurrency: 2,
	}
}

func TestSearchMergesAcrossPlatforms(t *testing.T) {
	res, err := Search(context.Background(), newConfig(), "emotet")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Matches) != 2 {
		t.Fatalf("expected 2 raw matches, got %d", len(res.Matches))
	}
	if len(res.Records) != 1 {
		t.Fatalf("expected one merged record, got %#v", res.Records)
	}
	rec := res.Records[0]
	if rec.Key != "malware:emotet" || len(rec.Contributions) != 2 {
		t.Fatalf("unexpected record %#v", rec)
	}
	if rec.Contributions[0].PlatformName != "OpenCTI Main" {
		t.Fatalf("expected display names from the registry, got %q", rec.Contributions[0].PlatformName)
	}
}

func TestSearchCollectsPlatformErrors(t *testing.T) {
	cfg := newConfig()
	cfg.Channel = flakyChannel{Channel: cfg.Channel, broken: "cti-lab"}

	var mu sync.Mutex
	done := map[string]bool{}
	cfg.OnPlatformDone = func(id string, _ []entity.Match, _ error) {
		mu.Lock()
		done[id] = true
		mu.Unlock()
	}

	res, err := Search(context.Background(), cfg, "emotet")
	if err != nil {
		t.Fatalf("a single failing platform must not fail the search: %v", err)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected one platform error, got %v", res.Errors)
	}
	var perr *PlatformError
	if !errors.As(res.Errors[0], &perr) || perr.PlatformID != "cti-lab" {
		t.Fatalf("unexpected error %v", res.Errors[0])
	}
	if len(res.Matches) != 1 || res.Matches[0].PlatformID != "cti-main" {
		t.Fatalf("unexpected matches %#v", res.Matches)
	}
	if len(done) != 3 {
		t.Fatalf("expected a callback per platform, got %v", done)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	if _, err := Search(context.Background(), newConfig(), "  "); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Search(ctx, newConfig(), "emotet"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSearchManyAndRecords(t *testing.T) {
	results, err := SearchMany(context.Background(), newConfig(), []string{"phishing", "", "185.220.101.1", "apt28"})
	if err != nil {
		t.Fatalf("SearchMany: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected empty queries to be skipped, got %d results", len(results))
	}
	recs := Records(results)
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %#v", recs)
	}
	if len(recs[0].Contributions) != 2 || len(recs[2].Contributions) != 1 {
		t.Fatalf("records should be ordered by corroboration: %#v", recs)
	}
}

func TestContainers(t *testing.T) {
	cfg := newConfig()
	got, err := Containers(context.Background(), cfg.Channel, dev.DemoURL)
	if err != nil {
		t.Fatalf("Containers: %v", err)
	}
	if len(got) != 1 || got[0].PlatformID != "cti-main" {
		t.Fatalf("unexpected containers %#v", got)
	}
}
