package navigation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/entity"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/messaging"
)

// Logger abstracts logging so callers can use logrus or anything compatible.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}

// Ticket captures where a detail fetch was issued: the active index and the store
// version at issue time.
type Ticket struct {
	Index   int    `json:"index"`
	Version uint64 `json:"version"`
}

// Outcome is how a detail fetch settled.
type Outcome int

const (
	// OutcomeApplied means the payload was merged into the store.
	OutcomeApplied Outcome = iota
	// OutcomeStale means the store moved on while the fetch was in flight.
	OutcomeStale
	// OutcomeFailed means the transport or the platform reported an error.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeStale:
		return "stale"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Settled reports the fate of one fetch.
type Settled struct {
	Ticket
	PlatformID string
	RequestID  string
	Outcome    Outcome
	Err        error
}

// GuardConfig wires a Guard to its transport and event loop.
type GuardConfig struct {
	Channel   messaging.Channel
	Scheduler Scheduler
	Log       Logger
	// Timeout bounds a single fetch. Zero means no limit.
	Timeout time.Duration
}

// Guard issues detail fetches and only applies their results when the store is
// still at the version the fetch was issued against.
type Guard struct {
	store    *Store
	channel  messaging.Channel
	sched    Scheduler
	log      Logger
	timeout  time.Duration
	onSettle func(Settled)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewGuard(store *Store, cfg GuardConfig) *Guard {
	if cfg.Log == nil {
		cfg.Log = nopLogger{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Guard{
		store:   store,
		channel: cfg.Channel,
		sched:   cfg.Scheduler,
		log:     cfg.Log,
		timeout: cfg.Timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// OnSettle registers fn to run on the event loop after every fetch settles.
func (g *Guard) OnSettle(fn func(Settled)) { g.onSettle = fn }

// FetchDetail requests the full record of m from platform. It returns immediately;
// the response is handled on the scheduler.
func (g *Guard) FetchDetail(m entity.Match, platform entity.Descriptor, t Ticket) {
	req := messaging.NewDetailsRequest(messaging.DetailsPayload{
		ID:           m.EntityID,
		EntityType:   m.Type,
		PlatformID:   platform.ID,
		PlatformType: string(platform.Kind),
	})
	g.log.Debugf("[%s] fetching %s/%s from %s (index %d, version %d)", req.ID, m.Type, m.EntityID, platform.ID, t.Index, t.Version)

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		ctx := g.ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		res, err := g.channel.Send(ctx, req)
		g.sched.Post(func() { g.settle(t, platform.ID, req.ID, res, err) })
	}()
}

// Wait blocks until every in-flight fetch has posted its continuation.
func (g *Guard) Wait() { g.wg.Wait() }

// Close aborts in-flight fetches and waits for them.
func (g *Guard) Close() {
	g.cancel()
	g.wg.Wait()
}

func (g *Guard) settle(t Ticket, platformID, reqID string, res messaging.Response, err error) {
	s := Settled{Ticket: t, PlatformID: platformID, RequestID: reqID}

	switch current := g.store.Version(); {
	case current != t.Version:
		s.Outcome = OutcomeStale
		g.log.Debugf("[%s] discarding stale details (version %d, now %d)", reqID, t.Version, current)
	case err != nil:
		s.Outcome, s.Err = OutcomeFailed, err
		g.log.Warnf("[%s] details from %s failed: %v", reqID, platformID, err)
	case !res.Success:
		s.Outcome, s.Err = OutcomeFailed, errors.New(res.Error)
		g.log.Warnf("[%s] details from %s failed: %s", reqID, platformID, res.Error)
	default:
		if g.store.mergeAt(t.Index, func(m entity.Match) entity.Match { return mergeDetails(m, res.Data) }) {
			s.Outcome = OutcomeApplied
		} else {
			s.Outcome, s.Err = OutcomeFailed, errors.New("active index out of range")
		}
	}

	if g.onSettle != nil {
		g.onSettle(s)
	}
}

// mergeDetails shallow-merges a detail payload into m. Top-level keys overwrite
// Raw entries and the known string fields overwrite the typed ones when non-empty.
func mergeDetails(m entity.Match, data json.RawMessage) entity.Match {
	m.FullyLoaded = true

	payload := gjson.ParseBytes(data)
	if !payload.IsObject() {
		return m
	}
	if m.Raw == nil {
		m.Raw = map[string]json.RawMessage{}
	}
	payload.ForEach(func(key, value gjson.Result) bool {
		m.Raw[key.String()] = json.RawMessage(value.Raw)
		return true
	})

	overwrite := func(dst *string, key string) {
		if v := payload.Get(key); v.Type == gjson.String && v.String() != "" {
			*dst = v.String()
		}
	}
	overwrite(&m.EntityID, "id")
	overwrite(&m.Type, "type")
	overwrite(&m.Name, "name")
	overwrite(&m.Value, "value")
	return m
}
