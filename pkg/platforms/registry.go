package platforms

import (
	"fmt"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/entity"
)

// Registry is an ordered set of platform clients keyed by platform id.
type Registry struct {
	clients []Client
	byID    map[string]Client
}

func NewRegistry(clients ...Client) (*Registry, error) {
	r := &Registry{byID: map[string]Client{}}
	for _, c := range clients {
		if err := r.Add(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add registers a client. Platform ids must be unique.
func (r *Registry) Add(c Client) error {
	id := c.Descriptor().ID
	if _, ok := r.byID[id]; ok {
		return fmt.Errorf("duplicate platform id %q", id)
	}
	r.byID[id] = c
	r.clients = append(r.clients, c)
	return nil
}

func (r *Registry) Get(id string) (Client, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, id)
	}
	return c, nil
}

func (r *Registry) Clients() []Client {
	return append([]Client(nil), r.clients...)
}

func (r *Registry) Descriptor(id string) (entity.Descriptor, bool) {
	c, ok := r.byID[id]
	if !ok {
		return entity.Descriptor{}, false
	}
	return c.Descriptor(), true
}

func (r *Registry) Descriptors() []entity.Descriptor {
	out := make([]entity.Descriptor, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c.Descriptor())
	}
	return out
}

// PlatformName returns the display name of a platform, or "" when unknown.
func (r *Registry) PlatformName(id string) string {
	if d, ok := r.Descriptor(id); ok {
		return d.DisplayName
	}
	return ""
}

func (r *Registry) Len() int { return len(r.clients) }
