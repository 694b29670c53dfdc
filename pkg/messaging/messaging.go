package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// RequestType names a message understood by the background dispatcher.
type RequestType string

const (
	GetEntityDetails    RequestType = "GET_ENTITY_DETAILS"
	SearchEntities      RequestType = "SEARCH_ENTITIES"
	FindContainersByURL RequestType = "FIND_CONTAINERS_BY_URL"
)

// ErrUnknownRequest is reported for request types the dispatcher does not handle.
var ErrUnknownRequest = errors.New("unknown request type")

// Request is the envelope sent to the background process. ID is a correlation id.
type Request struct {
	ID      string          `json:"id"`
	Type    RequestType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Response follows the {success, data, error} envelope.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type DetailsPayload struct {
	ID           string `json:"id"`
	EntityType   string `json:"entityType"`
	PlatformID   string `json:"platformId"`
	PlatformType string `json:"platformType"`
}

type SearchPayload struct {
	Query      string `json:"query"`
	PlatformID string `json:"platformId"`
}

type ContainersPayload struct {
	URL string `json:"url"`
}

// Channel carries requests to the background process. A non-nil error means the
// request never completed (the transport "last error"); it is distinct from a
// Response with Success set to false.
type Channel interface {
	Send(ctx context.Context, req Request) (Response, error)
}

func newRequest(t RequestType, payload any) Request {
	data, _ := json.Marshal(payload)
	return Request{ID: uuid.NewString(), Type: t, Payload: data}
}

func NewDetailsRequest(p DetailsPayload) Request { return newRequest(GetEntityDetails, p) }

func NewSearchRequest(p SearchPayload) Request { return newRequest(SearchEntities, p) }

func NewContainersRequest(url string) Request {
	return newRequest(FindContainersByURL, ContainersPayload{URL: url})
}

// Ok wraps data in a successful envelope.
func Ok(data any) Response {
	raw, err := json.Marshal(data)
	if err != nil {
		return Fail(fmt.Errorf("encoding response: %w", err))
	}
	return Response{Success: true, Data: raw}
}

func Fail(err error) Response {
	return Response{Success: false, Error: err.Error()}
}

// Decode unmarshals the data of a successful response. Failed envelopes are
// returned as errors.
func Decode[T any](res Response) (T, error) {
	var out T
	if !res.Success {
		return out, fmt.Errorf("request failed: %s", res.Error)
	}
	if len(res.Data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(res.Data, &out); err != nil {
		return out, fmt.Errorf("decoding response: %w", err)
	}
	return out, nil
}
