package lookup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/entity"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/messaging"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/resolve"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// ErrEmptyQuery is returned when there is nothing to search for.
var ErrEmptyQuery = errors.New("empty query")

// Config holds everything Search needs.
type Config struct {
	Channel     messaging.Channel
	Platforms   []entity.Descriptor
	Names       resolve.PlatformNamer // optional; platform ids are used otherwise
	Concurrency int                   // defaults to 5 if <= 0
	Log         Logger                // optional; nil = no logging

	// OnPlatformDone is called once per platform from worker goroutines.
	// Nil = no callback.
	OnPlatformDone func(platformID string, matches []entity.Match, err error)
}

// PlatformError is a non-fatal failure of one platform.
type PlatformError struct {
	PlatformID string
	Query      string
	Err        error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s: searching %q: %v", e.PlatformID, e.Query, e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }

// Result holds the outcome of searching every platform.
type Result struct {
	Query   string           `json:"query"`
	Matches []entity.Match   `json:"matches"`
	Records []resolve.Record `json:"records"`
	Errors  []error          `json:"-"`
}

func (c Config) withDefaults() Config {
	if c.Log == nil {
		c.Log = nopLogger{}
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 5
	}
	return c
}

// Search asks every configured platform for query and merges the answers. A
// failing platform is reported in Result.Errors and does not fail the search.
func Search(ctx context.Context, cfg Config, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	cfg = cfg.withDefaults()

	perPlatform := make([][]entity.Match, len(cfg.Platforms))
	var mu sync.Mutex
	var errs []error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i, p := range cfg.Platforms {
		g.Go(func() error {
			matches, err := searchOne(gctx, cfg.Channel, p.ID, query)
			if cfg.OnPlatformDone != nil {
				cfg.OnPlatformDone(p.ID, matches, err)
			}
			if err != nil {
				cfg.Log.Warnf("Search on %s failed: %v", p.ID, err)
				mu.Lock()
				errs = append(errs, &PlatformError{PlatformID: p.ID, Query: query, Err: err})
				mu.Unlock()
				return nil
			}
			cfg.Log.Debugf("%s returned %d matches for %q", p.ID, len(matches), query)
			perPlatform[i] = matches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Platform order is configuration order, independent of completion order.
	res := &Result{Query: query, Errors: errs}
	for _, matches := range perPlatform {
		res.Matches = append(res.Matches, matches...)
	}
	res.Records = resolve.Merge(res.Matches, cfg.Names)
	return res, nil
}

// SearchMany runs Search for every query. Queries are processed one after the
// other; each one already fans out across platforms. Empty queries are skipped.
func SearchMany(ctx context.Context, cfg Config, queries []string) ([]*Result, error) {
	out := make([]*Result, 0, len(queries))
	for _, q := range queries {
		res, err := Search(ctx, cfg, q)
		if errors.Is(err, ErrEmptyQuery) {
			continue
		}
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

// Records flattens the records of several results, most corroborated first.
func Records(results []*Result) []resolve.Record {
	var out []resolve.Record
	for _, r := range results {
		out = append(out, r.Records...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Contributions) > len(out[j].Contributions)
	})
	return out
}

// Containers lists the reports and cases that reference url.
func Containers(ctx context.Context, ch messaging.Channel, url string) ([]entity.Container, error) {
	res, err := ch.Send(ctx, messaging.NewContainersRequest(url))
	if err != nil {
		return nil, err
	}
	return messaging.Decode[[]entity.Container](res)
}

func searchOne(ctx context.Context, ch messaging.Channel, platformID, query string) ([]entity.Match, error) {
	res, err := ch.Send(ctx, messaging.NewSearchRequest(messaging.SearchPayload{Query: query, PlatformID: platformID}))
	if err != nil {
		return nil, err
	}
	return messaging.Decode[[]entity.Match](res)
}
