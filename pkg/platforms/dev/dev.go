package dev

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/entity"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/platforms"
)

// This platform serves deterministic fixtures for demos (--dev) and tests.

type fixture struct {
	id, typ, name, value string
	detail               map[string]any
}

// Client is an in-memory platform.
type Client struct {
	desc       entity.Descriptor
	fixtures   []fixture
	containers []entity.Container
	latency    time.Duration
}

// WithLatency delays every call, so navigation can outrun enrichment.
func (c *Client) WithLatency(d time.Duration) *Client {
	c.latency = d
	return c
}

func (c *Client) Descriptor() entity.Descriptor { return c.desc }

func (c *Client) wait(ctx context.Context) error {
	if c.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(c.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) Search(ctx context.Context, query string) ([]entity.Match, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	var out []entity.Match
	for _, f := range c.fixtures {
		if q == "" || strings.Contains(strings.ToLower(f.name), q) || strings.Contains(strings.ToLower(f.value), q) {
			out = append(out, entity.Match{
				PlatformID:   c.desc.ID,
				PlatformKind: c.desc.Kind,
				EntityID:     f.id,
				Type:         f.typ,
				Name:         f.name,
				Value:        f.value,
			})
		}
	}
	return out, nil
}

func (c *Client) Details(ctx context.Context, ref platforms.DetailRef) (json.RawMessage, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	for _, f := range c.fixtures {
		if f.id != ref.ID {
			continue
		}
		out := map[string]any{"id": f.id, "type": f.typ, "name": f.name, "platform": c.desc.DisplayName}
		if f.value != "" {
			out["value"] = f.value
		}
		for k, v := range f.detail {
			out[k] = v
		}
		return json.Marshal(out)
	}
	return nil, fmt.Errorf("dev %s: entity %s not found", c.desc.ID, ref.ID)
}

func (c *Client) ContainersByURL(ctx context.Context, url string) ([]entity.Container, error) {
	if !c.desc.Kind.IsPrimary() {
		return nil, platforms.ErrUnsupported
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	var out []entity.Container
	for _, ct := range c.containers {
		if ct.URL == url {
			out = append(out, ct)
		}
	}
	return out, nil
}

// DemoURL is referenced by the fixture report containers.
const DemoURL = "https://blog.example.com/emotet-returns"

// NewFixtures returns two knowledge bases and one simulation platform that share
// a few entities under different spellings.
func NewFixtures() []*Client {
	cti := &Client{
		desc: entity.Descriptor{ID: "cti-main", DisplayName: "OpenCTI Main", BaseURL: "https://cti.example.com", Kind: entity.KindPrimary, Premium: true},
		fixtures: []fixture{
			{id: "malware--emotet", typ: "Malware", name: "Emotet", detail: map[string]any{"description": "Modular banking trojan turned loader.", "labels": []string{"trojan", "loader"}, "confidence": 85}},
			{id: "threat-actor--apt28", typ: "Intrusion-Set", name: "APT28", detail: map[string]any{"description": "Russian state-sponsored group.", "aliases": []string{"Fancy Bear", "Sofacy"}}},
			{id: "attack-pattern--t1566", typ: "Attack-Pattern", name: "Phishing", value: "T1566", detail: map[string]any{"x_mitre_id": "T1566", "kill_chain": "initial-access"}},
			{id: "ipv4--185-220-101-1", typ: "IPv4-Addr", value: "185.220.101.1", detail: map[string]any{"x_opencti_score": 80}},
			{id: "vuln--log4shell", typ: "Vulnerability", name: "CVE-2021-44228", detail: map[string]any{"x_opencti_cvss_base_score": 10.0}},
		},
		containers: []entity.Container{
			{ID: "report--emotet-2024", Type: "Report", Name: "Emotet returns", PlatformID: "cti-main", Created: "2024-03-12T09:00:00Z", URL: DemoURL},
		},
	}
	lab := &Client{
		desc: entity.Descriptor{ID: "cti-lab", DisplayName: "OpenCTI Lab", BaseURL: "https://cti-lab.example.com", Kind: entity.KindPrimary},
		fixtures: []fixture{
			{id: "malware--emotet-lab", typ: "malware", name: "EMOTET", detail: map[string]any{"description": "Lab sandbox detonations."}},
			{id: "ipv4--185-220-101-1-lab", typ: "IPv4-Addr", value: "185.220.101.1", detail: map[string]any{"x_opencti_score": 40}},
		},
	}
	aev := &Client{
		desc: entity.Descriptor{ID: "aev-main", DisplayName: "OpenAEV", BaseURL: "https://aev.example.com", Kind: entity.KindSimulation},
		fixtures: []fixture{
			{id: "ap-phishing", typ: "Attack-Pattern", name: "Phishing", value: "T1566", detail: map[string]any{"injects": 4}},
			{id: "endpoint-ws042", typ: "Endpoint", name: "WS-042", value: "ws-042.corp.example.com", detail: map[string]any{"platform": "Windows"}},
		},
	}
	return []*Client{aev, cti, lab}
}

// NewRegistry registers every fixture platform.
func NewRegistry(latency time.Duration) *platforms.Registry {
	reg, _ := platforms.NewRegistry()
	for _, c := range NewFixtures() {
		_ = reg.Add(c.WithLatency(latency))
	}
	return reg
}
