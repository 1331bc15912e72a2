package vxapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vxverify/vxverify/internal/vx"
	"go.uber.org/zap"
)

var _ vx.Fetcher = (*Client)(nil)

const messagesByIndexQuery = `
query AppsMessagesByIndex($appSlug: String!, $index: Int!, $commitment: String!) {
  appBySlug(slug: $appSlug) {
    id
    name
    vx {
      messagesByIndex(commitment: $commitment, index: $index) {
        vx_signature
        message
      }
    }
  }
}`

const appsQuery = `
query Apps {
  apps {
    nodes {
      id
      name
      slug
      vxConnectionString
    }
  }
}`

type messagesByIndexData struct {
	AppBySlug *struct {
		ID   json.RawMessage `json:"id"`
		Name string          `json:"name"`
		VX   *struct {
			MessagesByIndex []struct {
				VxSignature string `json:"vx_signature"`
				Message     string `json:"message"`
			} `json:"messagesByIndex"`
		} `json:"vx"`
	} `json:"appBySlug"`
}

// FetchSignedMessage returns the oracle signature and message published for
// index under commitment. It returns an error wrapping vx.ErrNoRecord when
// the app, its VX section, or the message list is absent or empty. A
// published entry is returned as-is, even with an empty signature.
func (c *Client) FetchSignedMessage(ctx context.Context, index int64, commitment string) (*vx.SignedMessage, error) {
	data, err := c.do(ctx, request{
		Query:         messagesByIndexQuery,
		OperationName: "AppsMessagesByIndex",
		Variables: map[string]any{
			"appSlug":    c.appSlug,
			"index":      index,
			"commitment": commitment,
		},
	})
	if err != nil {
		return nil, err
	}

	var out messagesByIndexData
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding messagesByIndex: %w", err)
	}
	if out.AppBySlug == nil {
		return nil, fmt.Errorf("vxapi: app %q not found: %w", c.appSlug, vx.ErrNoRecord)
	}
	if out.AppBySlug.VX == nil || len(out.AppBySlug.VX.MessagesByIndex) == 0 {
		return nil, fmt.Errorf("vxapi: index %d: %w", index, vx.ErrNoRecord)
	}

	m := out.AppBySlug.VX.MessagesByIndex[0]
	c.logger.Debug("fetched signed message",
		zap.String("app", c.appSlug),
		zap.Int64("index", index),
		zap.Int("results", len(out.AppBySlug.VX.MessagesByIndex)),
	)
	return &vx.SignedMessage{SignatureHex: m.VxSignature, MessageHex: m.Message}, nil
}

// App is one application registered with the VX service.
type App struct {
	ID                 json.RawMessage `json:"id"`
	Name               string          `json:"name"`
	Slug               string          `json:"slug"`
	VXConnectionString string          `json:"vxConnectionString"`
}

// Apps lists the applications known to the VX service.
func (c *Client) Apps(ctx context.Context) ([]App, error) {
	data, err := c.do(ctx, request{Query: appsQuery, OperationName: "Apps"})
	if err != nil {
		return nil, err
	}
	var out struct {
		Apps struct {
			Nodes []App `json:"nodes"`
		} `json:"apps"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding apps: %w", err)
	}
	return out.Apps.Nodes, nil
}

// Query sends an arbitrary GraphQL document and returns the raw data
// member of the response.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	if query == "" {
		return nil, fmt.Errorf("vxapi: empty query")
	}
	return c.do(ctx, request{Query: query, Variables: variables})
}
