package messaging

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/whttp"
)

// LocalChannel delivers requests to an in-process dispatcher.
type LocalChannel struct {
	Dispatcher *Dispatcher
}

func (c LocalChannel) Send(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	return c.Dispatcher.Handle(ctx, req), nil
}

// HTTPChannel posts requests to a bridge server exposing POST /api/message.
type HTTPChannel struct {
	BaseURL  string
	Username string
	Password string
	Client   *retryablehttp.Client
}

func (c HTTPChannel) Send(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, err
	}

	headers := []whttp.WHTTPHeader{{Name: "Content-Type", Value: "application/json"}}
	if c.Username != "" || c.Password != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.Password))
		headers = append(headers, whttp.WHTTPHeader{Name: "Authorization", Value: "Basic " + auth})
	}

	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method:  "POST",
		URL:     strings.TrimRight(c.BaseURL, "/") + "/api/message",
		Body:    string(body),
		Headers: headers,
	}, c.Client)
	if err != nil {
		return Response{}, err
	}
	if res.StatusCode != 200 {
		return Response{}, fmt.Errorf("bridge returned status %d", res.StatusCode)
	}

	var out Response
	if err := json.Unmarshal([]byte(res.BodyString), &out); err != nil {
		return Response{}, fmt.Errorf("decoding bridge response: %w", err)
	}
	return out, nil
}
