package openaev

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/entity"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/platforms"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/whttp"
)

const searchPageSize = 25

// collection describes one searchable OpenAEV resource and where its fields live.
type collection struct {
	entityType string
	path       string
	idField    string
	nameField  string
	valueField string
}

var collections = []collection{
	{entityType: "Attack-Pattern", path: "attack_patterns", idField: "attack_pattern_id", nameField: "attack_pattern_name", valueField: "attack_pattern_external_id"},
	{entityType: "Endpoint", path: "endpoints", idField: "asset_id", nameField: "asset_name", valueField: "endpoint_hostname"},
	{entityType: "Asset-Group", path: "asset_groups", idField: "asset_group_id", nameField: "asset_group_name"},
}

func collectionFor(entityType string) (collection, bool) {
	for _, c := range collections {
		if strings.EqualFold(c.entityType, entityType) {
			return c, true
		}
	}
	return collection{}, false
}

// Client talks to the OpenAEV REST API.
type Client struct {
	desc  entity.Descriptor
	token string
	http  *retryablehttp.Client
}

func NewClient(desc entity.Descriptor, token string, httpClient *retryablehttp.Client) *Client {
	desc.BaseURL = strings.TrimRight(desc.BaseURL, "/")
	return &Client{desc: desc, token: token, http: httpClient}
}

func (c *Client) Descriptor() entity.Descriptor { return c.desc }

func (c *Client) do(ctx context.Context, method, path, body string) (string, error) {
	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method: method,
		URL:    c.desc.BaseURL + path,
		Body:   body,
		Headers: []whttp.WHTTPHeader{
			{Name: "Authorization", Value: "Bearer " + c.token},
			{Name: "Content-Type", Value: "application/json"},
			{Name: "Accept", Value: "application/json"},
		},
	}, c.http)
	if err != nil {
		return "", err
	}

	switch {
	case res.StatusCode == 401 || res.StatusCode == 403:
		return "", fmt.Errorf("openaev %s: invalid auth token", c.desc.ID)
	case res.StatusCode == 404:
		return "", fmt.Errorf("openaev %s: %s not found", c.desc.ID, path)
	case res.StatusCode != 200:
		return "", fmt.Errorf("openaev %s: request to %s failed with status %d", c.desc.ID, path, res.StatusCode)
	}
	return res.BodyString, nil
}

func (c *Client) Search(ctx context.Context, q string) ([]entity.Match, error) {
	payload, err := json.Marshal(map[string]any{"textSearch": q, "page": 0, "size": searchPageSize})
	if err != nil {
		return nil, err
	}

	var matches []entity.Match
	for _, col := range collections {
		body, err := c.do(ctx, "POST", "/api/"+col.path+"/search", string(payload))
		if err != nil {
			return nil, err
		}
		gjson.Get(body, "content").ForEach(func(_, item gjson.Result) bool {
			m := entity.Match{
				PlatformID:   c.desc.ID,
				PlatformKind: c.desc.Kind,
				EntityID:     item.Get(col.idField).String(),
				Type:         col.entityType,
				Name:         item.Get(col.nameField).String(),
			}
			if col.valueField != "" {
				m.Value = item.Get(col.valueField).String()
			}
			matches = append(matches, m)
			return true
		})
	}
	return matches, nil
}

func (c *Client) Details(ctx context.Context, ref platforms.DetailRef) (json.RawMessage, error) {
	col, ok := collectionFor(ref.EntityType)
	if !ok {
		return nil, fmt.Errorf("%w: openaev has no %q entities", platforms.ErrUnsupported, ref.EntityType)
	}

	body, err := c.do(ctx, "GET", "/api/"+col.path+"/"+ref.ID, "")
	if err != nil {
		return nil, err
	}

	item := gjson.Parse(body)
	if !item.IsObject() {
		return nil, fmt.Errorf("openaev %s: unexpected payload for %s", c.desc.ID, ref.ID)
	}

	out := map[string]any{}
	item.ForEach(func(key, value gjson.Result) bool {
		out[key.String()] = json.RawMessage(value.Raw)
		return true
	})
	out["type"] = col.entityType
	out["name"] = item.Get(col.nameField).String()
	if col.valueField != "" {
		out["value"] = item.Get(col.valueField).String()
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ContainersByURL is not offered by attack-simulation platforms.
func (c *Client) ContainersByURL(ctx context.Context, url string) ([]entity.Container, error) {
	return nil, platforms.ErrUnsupported
}
