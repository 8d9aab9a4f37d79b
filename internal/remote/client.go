// Package remote provides typed fetch operations against the follower API.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/lhs-project/libre-health-sync/internal/llu"
)

const (
	connectionsPath = "/llu/connections"
	graphPathFormat = "/llu/connections/%s/graph"
)

// DataProvider fetches connections and reading history
//
//go:generate mockgen -destination=mocks/mock_provider.go -package=mocks github.com/lhs-project/libre-health-sync/internal/remote DataProvider
type DataProvider interface {
	// FetchConnections lists the patients the account follows
	FetchConnections(ctx context.Context) ([]llu.Connection, error)

	// FetchHistory returns the reading history of one connection
	FetchHistory(ctx context.Context, connectionID string) (*llu.ReadingBatch, error)
}

// Requester performs authenticated calls; *session.Manager satisfies it
type Requester interface {
	Do(ctx context.Context, method, path string, body any) ([]byte, error)
}

// envelope is the shape of every authenticated response
type envelope[T any] struct {
	Status int             `json:"status"`
	Data   *T              `json:"data"`
	Ticket *llu.AuthTicket `json:"ticket,omitempty"`
}

type client struct {
	requester Requester
}

// NewClient creates a DataProvider on top of an authenticated requester
func NewClient(requester Requester) DataProvider {
	return &client{requester: requester}
}

func (c *client) FetchConnections(ctx context.Context) ([]llu.Connection, error) {
	connections, err := fetch[[]llu.Connection](ctx, c.requester, connectionsPath)
	if err != nil {
		return nil, err
	}
	return *connections, nil
}

func (c *client) FetchHistory(ctx context.Context, connectionID string) (*llu.ReadingBatch, error) {
	if connectionID == "" {
		return nil, fmt.Errorf("%w: empty connection id", llu.ErrInvalidURL)
	}
	return fetch[llu.ReadingBatch](ctx, c.requester, fmt.Sprintf(graphPathFormat, url.PathEscape(connectionID)))
}

// fetch GETs path and decodes its envelope. A missing or null data field is ErrNoData.
func fetch[T any](ctx context.Context, requester Requester, path string) (*T, error) {
	data, err := requester.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var env envelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &llu.DecodingError{Err: err}
	}
	if env.Data == nil {
		return nil, llu.ErrNoData
	}
	return env.Data, nil
}
