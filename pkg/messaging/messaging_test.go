package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/entity"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/platforms/dev"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/whttp"
)

func newDispatcher() *Dispatcher {
	return NewDispatcher(dev.NewRegistry(0), nil)
}

func TestDispatcherSearch(t *testing.T) {
	d := newDispatcher()
	res := d.Handle(context.Background(), NewSearchRequest(SearchPayload{Query: "emotet", PlatformID: "cti-lab"}))

	matches, err := Decode[[]entity.Match](res)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(matches) != 1 || matches[0].Name != "EMOTET" || matches[0].PlatformID != "cti-lab" {
		t.Fatalf("unexpected matches %#v", matches)
	}
}

func TestDispatcherSearchNoHitsIsEmptyList(t *testing.T) {
	res := newDispatcher().Handle(context.Background(), NewSearchRequest(SearchPayload{Query: "nothing-here", PlatformID: "cti-main"}))
	if !res.Success || string(res.Data) != "[]" {
		t.Fatalf("expected empty list, got %+v", res)
	}
}

func TestDispatcherDetails(t *testing.T) {
	res := newDispatcher().Handle(context.Background(), NewDetailsRequest(DetailsPayload{
		ID: "malware--emotet", EntityType: "Malware", PlatformID: "cti-main", PlatformType: string(entity.KindPrimary),
	}))
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}
	if got := gjson.GetBytes(res.Data, "description").String(); !strings.Contains(got, "banking trojan") {
		t.Fatalf("unexpected description %q", got)
	}
}

func TestDispatcherFailures(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"unknown platform", NewDetailsRequest(DetailsPayload{ID: "x", PlatformID: "nope"}), "unknown platform"},
		{"missing id", NewDetailsRequest(DetailsPayload{PlatformID: "cti-main"}), "entity id is required"},
		{"unknown entity", NewDetailsRequest(DetailsPayload{ID: "x", PlatformID: "cti-main"}), "not found"},
		{"unknown type", Request{ID: "1", Type: "PING", Payload: json.RawMessage(`{}`)}, ErrUnknownRequest.Error()},
		{"bad payload", Request{ID: "2", Type: SearchEntities, Payload: json.RawMessage(`[`)}, "invalid payload"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := newDispatcher().Handle(context.Background(), tc.req)
			if res.Success || !strings.Contains(res.Error, tc.want) {
				t.Fatalf("expected failure containing %q, got %+v", tc.want, res)
			}
		})
	}
}

func TestDispatcherContainersSkipsUnsupported(t *testing.T) {
	res := newDispatcher().Handle(context.Background(), NewContainersRequest(dev.DemoURL))
	containers, err := Decode[[]entity.Container](res)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(containers) != 1 || containers[0].Type != "Report" {
		t.Fatalf("unexpected containers %#v", containers)
	}
}

func TestDecodeFailedEnvelope(t *testing.T) {
	if _, err := Decode[[]entity.Match](Fail(errors.New("boom"))); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected failure to surface, got %v", err)
	}
}

func TestRequestsCarryCorrelationID(t *testing.T) {
	a := NewContainersRequest("https://a")
	b := NewContainersRequest("https://a")
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected unique ids, got %q and %q", a.ID, b.ID)
	}
}

func TestLocalChannelHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (LocalChannel{Dispatcher: newDispatcher()}).Send(ctx, NewContainersRequest("https://a")); err == nil {
		t.Fatalf("expected transport error for cancelled context")
	}
}

func TestHTTPChannel(t *testing.T) {
	d := newDispatcher()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "analyst" || pass != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(d.Handle(r.Context(), req))
	}))
	defer srv.Close()

	ch := HTTPChannel{BaseURL: srv.URL, Username: "analyst", Password: "pw", Client: whttp.NewClient(0, 5*time.Second)}
	res, err := ch.Send(context.Background(), NewSearchRequest(SearchPayload{Query: "phishing", PlatformID: "aev-main"}))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	matches, err := Decode[[]entity.Match](res)
	if err != nil || len(matches) != 1 {
		t.Fatalf("unexpected result %v %#v", err, matches)
	}

	ch.Password = "wrong"
	if _, err := ch.Send(context.Background(), NewContainersRequest("https://a")); err == nil {
		t.Fatalf("expected transport error on 401")
	}
}
