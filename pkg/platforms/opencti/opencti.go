package opencti

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

// Client talks to the OpenCTI GraphQL API.
type Client struct {
	desc  entity.Descriptor
	token string
	http  *retryablehttp.Client
}

// NewClient builds a client for one OpenCTI instance. A nil http client uses the
// shared whttp client.
func NewClient(desc entity.Descriptor, token string, httpClient *retryablehttp.Client) *Client {
	desc.BaseURL = strings.TrimRight(desc.BaseURL, "/")
	return &Client{desc: desc, token: token, http: httpClient}
}

func (c *Client) Descriptor() entity.Descriptor { return c.desc }

func (c *Client) query(ctx context.Context, query string, variables map[string]any) (string, error) {
	body, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return "", err
	}

	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method: "POST",
		URL:    c.desc.BaseURL + "/graphql",
		Body:   string(body),
		Headers: []whttp.WHTTPHeader{
			{Name: "Authorization", Value: "Bearer " + c.token},
			{Name: "Content-Type", Value: "application/json"},
			{Name: "Accept", Value: "application/json"},
		},
	}, c.http)
	if err != nil {
		return "", err
	}

	if res.StatusCode == 401 || res.StatusCode == 403 {
		return "", fmt.Errorf("opencti %s: invalid auth token", c.desc.ID)
	}
	if res.StatusCode != 200 {
		return "", fmt.Errorf("opencti %s: request failed with status %d", c.desc.ID, res.StatusCode)
	}
	if msg := gjson.Get(res.BodyString, "errors.0.message"); msg.Exists() {
		return "", fmt.Errorf("opencti %s: %s", c.desc.ID, msg.String())
	}
	return res.BodyString, nil
}

func (c *Client) Search(ctx context.Context, q string) ([]entity.Match, error) {
	body, err := c.query(ctx, searchQuery, map[string]any{"search": q, "first": searchPageSize})
	if err != nil {
		return nil, err
	}

	var matches []entity.Match
	gjson.Get(body, "data.stixCoreObjects.edges.#.node").ForEach(func(_, node gjson.Result) bool {
		matches = append(matches, entity.Match{
			PlatformID:   c.desc.ID,
			PlatformKind: c.desc.Kind,
			EntityID:     node.Get("id").String(),
			Type:         node.Get("entity_type").String(),
			Name:         node.Get("representative.main").String(),
			Value:        node.Get("observable_value").String(),
		})
		return true
	})
	return matches, nil
}

func (c *Client) Details(ctx context.Context, ref platforms.DetailRef) (json.RawMessage, error) {
	body, err := c.query(ctx, detailsQuery, map[string]any{"id": ref.ID})
	if err != nil {
		return nil, err
	}

	node := gjson.Get(body, "data.stixCoreObject")
	if !node.IsObject() {
		return nil, fmt.Errorf("opencti %s: entity %s not found", c.desc.ID, ref.ID)
	}
	return flattenDetails(node), nil
}

// flattenDetails lifts the GraphQL shape into the flat object the panel displays.
func flattenDetails(node gjson.Result) json.RawMessage {
	out := map[string]any{}
	node.ForEach(func(key, value gjson.Result) bool {
		out[key.String()] = json.RawMessage(value.Raw)
		return true
	})
	out["type"] = node.Get("entity_type").String()
	if name := node.Get("representative.main").String(); name != "" && !node.Get("name").Exists() {
		out["name"] = name
	}
	if v := node.Get("observable_value"); v.Exists() {
		out["value"] = v.String()
	}
	if author := node.Get("createdBy.name"); author.Exists() {
		out["author"] = author.String()
	}
	var labels []string
	for _, l := range node.Get("objectLabel.#.value").Array() {
		labels = append(labels, l.String())
	}
	if len(labels) > 0 {
		out["labels"] = labels
	}
	data, _ := json.Marshal(out)
	return data
}

func (c *Client) ContainersByURL(ctx context.Context, url string) ([]entity.Container, error) {
	body, err := c.query(ctx, containersQuery, map[string]any{"url": url, "first": searchPageSize})
	if err != nil {
		return nil, err
	}

	var out []entity.Container
	gjson.Get(body, "data.containers.edges.#.node").ForEach(func(_, node gjson.Result) bool {
		out = append(out, entity.Container{
			ID:         node.Get("id").String(),
			Type:       node.Get("entity_type").String(),
			Name:       node.Get("representative.main").String(),
			PlatformID: c.desc.ID,
			Created:    node.Get("created").String(),
			URL:        c.desc.BaseURL + "/dashboard/id/" + node.Get("id").String(),
		})
		return true
	})
	return out, nil
}
