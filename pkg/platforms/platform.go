package platforms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/entity"
)

var (
	// ErrUnknownPlatform is returned when a platform id is not configured.
	ErrUnknownPlatform = errors.New("unknown platform")
	// ErrUnsupported is returned for operations a platform kind does not offer.
	ErrUnsupported = errors.New("operation not supported by platform")
)

// DetailRef identifies the entity whose full record is requested.
type DetailRef struct {
	ID         string
	EntityType string
}

// Config carries what a client needs to reach one platform instance.
type Config struct {
	ID      string `mapstructure:"id"`
	Name    string `mapstructure:"name"`
	URL     string `mapstructure:"url"`
	Kind    string `mapstructure:"kind"`
	Token   string `mapstructure:"token"`
	Premium bool   `mapstructure:"premium"`
}

// Descriptor validates the config and turns it into an entity.Descriptor.
func (c Config) Descriptor() (entity.Descriptor, error) {
	if c.ID == "" {
		return entity.Descriptor{}, errors.New("platform id is required")
	}
	kind, ok := entity.ParseKind(c.Kind)
	if !ok {
		return entity.Descriptor{}, fmt.Errorf("platform %s: unknown kind %q", c.ID, c.Kind)
	}
	name := c.Name
	if name == "" {
		name = c.ID
	}
	return entity.Descriptor{ID: c.ID, DisplayName: name, BaseURL: c.URL, Kind: kind, Premium: c.Premium}, nil
}

// Client abstracts one remote platform. Implementations that cannot serve an
// operation return ErrUnsupported.
type Client interface {
	Descriptor() entity.Descriptor
	// Search returns the minimally-populated matches for a free-text query.
	Search(ctx context.Context, query string) ([]entity.Match, error)
	// Details returns the full entity record as a JSON object.
	Details(ctx context.Context, ref DetailRef) (json.RawMessage, error)
	ContainersByURL(ctx context.Context, url string) ([]entity.Container, error)
}
