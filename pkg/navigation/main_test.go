package navigation

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/entity"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/messaging"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/platforms/dev"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeChannel parks every request until the test replies to it.
type fakeChannel struct {
	calls chan *call
}

type call struct {
	req   messaging.Request
	reply chan reply
}

type reply struct {
	res messaging.Response
	err error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{calls: make(chan *call, 512)}
}

func (f *fakeChannel) Send(ctx context.Context, req messaging.Request) (messaging.Response, error) {
	c := &call{req: req, reply: make(chan reply, 1)}
	f.calls <- c
	select {
	case r := <-c.reply:
		return r.res, r.err
	case <-ctx.Done():
		return messaging.Response{}, ctx.Err()
	}
}

func (f *fakeChannel) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatalf("no detail fetch was issued")
		return nil
	}
}

func (c *call) succeed(data string) {
	c.reply <- reply{res: messaging.Response{Success: true, Data: json.RawMessage(data)}}
}

func (c *call) fail(err error) {
	c.reply <- reply{err: err}
}

func (c *call) payload(t *testing.T) messaging.DetailsPayload {
	t.Helper()
	var p messaging.DetailsPayload
	if err := json.Unmarshal(c.req.Payload, &p); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	return p
}

// queueScheduler holds continuations until the test runs them, so the test
// decides how responses interleave with navigation.
type queueScheduler struct {
	posted chan func()
}

func newQueueScheduler() *queueScheduler {
	return &queueScheduler{posted: make(chan func(), 512)}
}

func (q *queueScheduler) Post(fn func()) { q.posted <- fn }

func (q *queueScheduler) runNext(t *testing.T) {
	t.Helper()
	select {
	case fn := <-q.posted:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatalf("no continuation was posted")
	}
}

type harness struct {
	store   *Store
	guard   *Guard
	nav     *Navigator
	ch      *fakeChannel
	sched   *queueScheduler
	settled []Settled
}

func newHarness(t *testing.T) *harness {
	h := &harness{store: NewStore(), ch: newFakeChannel(), sched: newQueueScheduler()}
	h.guard = NewGuard(h.store, GuardConfig{Channel: h.ch, Scheduler: h.sched})
	h.guard.OnSettle(func(s Settled) { h.settled = append(h.settled, s) })
	h.nav = NewNavigator(h.store, h.guard, dev.NewRegistry(0))
	t.Cleanup(h.guard.Close)
	return h
}

func (h *harness) last(t *testing.T) Settled {
	t.Helper()
	if len(h.settled) == 0 {
		t.Fatalf("nothing settled")
	}
	return h.settled[len(h.settled)-1]
}

// phishing is the same attack pattern on the simulation platform and a knowledge base.
func phishing() entity.Result {
	return entity.Result{
		Type: "Attack-Pattern",
		Name: "Phishing",
		Matches: []entity.Match{
			{PlatformID: "aev-main", PlatformKind: entity.KindSimulation, EntityID: "ap-phishing", Type: "Attack-Pattern", Name: "Phishing"},
			{PlatformID: "cti-main", PlatformKind: entity.KindPrimary, EntityID: "attack-pattern--t1566", Type: "Attack-Pattern", Name: "Phishing"},
		},
	}
}
