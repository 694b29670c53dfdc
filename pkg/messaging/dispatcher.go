package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/entity"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/platforms"
)

// Logger abstracts logging so callers can use logrus or anything compatible.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}

// Dispatcher is the privileged side of the channel: it routes requests to the
// configured platform clients and wraps the outcome in a Response.
type Dispatcher struct {
	registry *platforms.Registry
	log      Logger
}

func NewDispatcher(registry *platforms.Registry, log Logger) *Dispatcher {
	if log == nil {
		log = nopLogger{}
	}
	return &Dispatcher{registry: registry, log: log}
}

// Handle never returns a Go error: every failure becomes Success=false.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Response {
	d.log.Debugf("[%s] %s %s", req.ID, req.Type, req.Payload)

	var res Response
	switch req.Type {
	case GetEntityDetails:
		res = d.details(ctx, req.Payload)
	case SearchEntities:
		res = d.search(ctx, req.Payload)
	case FindContainersByURL:
		res = d.containers(ctx, req.Payload)
	default:
		res = Fail(fmt.Errorf("%w: %s", ErrUnknownRequest, req.Type))
	}

	if !res.Success {
		d.log.Warnf("[%s] %s failed: %s", req.ID, req.Type, res.Error)
	}
	return res
}

func (d *Dispatcher) details(ctx context.Context, payload json.RawMessage) Response {
	var p DetailsPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Fail(fmt.Errorf("invalid payload: %w", err))
	}
	if p.ID == "" {
		return Fail(errors.New("entity id is required"))
	}
	c, err := d.registry.Get(p.PlatformID)
	if err != nil {
		return Fail(err)
	}
	data, err := c.Details(ctx, platforms.DetailRef{ID: p.ID, EntityType: p.EntityType})
	if err != nil {
		return Fail(err)
	}
	return Response{Success: true, Data: data}
}

func (d *Dispatcher) search(ctx context.Context, payload json.RawMessage) Response {
	var p SearchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Fail(fmt.Errorf("invalid payload: %w", err))
	}
	c, err := d.registry.Get(p.PlatformID)
	if err != nil {
		return Fail(err)
	}
	matches, err := c.Search(ctx, p.Query)
	if err != nil {
		return Fail(err)
	}
	if matches == nil {
		matches = []entity.Match{}
	}
	return Ok(matches)
}

// containers asks every platform and concatenates what the supporting ones return.
func (d *Dispatcher) containers(ctx context.Context, payload json.RawMessage) Response {
	var p ContainersPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Fail(fmt.Errorf("invalid payload: %w", err))
	}
	out := []entity.Container{}
	for _, c := range d.registry.Clients() {
		found, err := c.ContainersByURL(ctx, p.URL)
		if errors.Is(err, platforms.ErrUnsupported) {
			continue
		}
		if err != nil {
			d.log.Warnf("containers lookup on %s failed: %v", c.Descriptor().ID, err)
			continue
		}
		out = append(out, found...)
	}
	return Ok(out)
}
