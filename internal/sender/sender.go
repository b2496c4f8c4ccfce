// Package sender pushes inventories to an osinfo collector and polls it for
// agent commands.
package sender

import (
	"context"
	"fmt"
	"net/url"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	kratoshttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/sirupsen/logrus"
	"gopkg.in/cenkalti/backoff.v1"

	"github.com/go-tangra/go-tangra-osinfo/internal/collector"
	"github.com/go-tangra/go-tangra-osinfo/internal/convert"
)

const (
	apiKeyHeader = "X-API-Key"

	// requestTimeout covers the longest poll the collector allows.
	requestTimeout = 60 * time.Second
	maxRetryTime   = 30 * time.Second
)

// Client talks to the collector's HTTP API.
type Client struct {
	cc  *kratoshttp.Client
	log logrus.FieldLogger

	newBackOff func() backoff.BackOff
}

// New connects to the collector at endpoint, e.g. http://collector:9551.
// When apiKey is non-empty it is sent as the X-API-Key header.
func New(ctx context.Context, endpoint, apiKey string, log logrus.FieldLogger) (*Client, error) {
	cc, err := kratoshttp.NewClient(ctx,
		kratoshttp.WithEndpoint(endpoint),
		kratoshttp.WithTimeout(requestTimeout),
		kratoshttp.WithMiddleware(apiKeyMiddleware(apiKey)),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to collector: %w", err)
	}

	return &Client{
		cc:  cc,
		log: log.WithField("package", "sender"),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = maxRetryTime
			return b
		},
	}, nil
}

func (c *Client) Close() error {
	return c.cc.Close()
}

func apiKeyMiddleware(key string) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req any) (any, error) {
			if key != "" {
				if tr, ok := transport.FromClientContext(ctx); ok {
					tr.RequestHeader().Set(apiKeyHeader, key)
				}
			}
			return handler(ctx, req)
		}
	}
}

// Send submits inv and returns the assigned record ID. Server errors and
// transport failures are retried with exponential backoff; 4xx replies are
// not.
func (c *Client) Send(ctx context.Context, inv *collector.Inventory) (*convert.SubmitReply, error) {
	var reply convert.SubmitReply

	attempt := 0
	operation := func() error {
		if err := ctx.Err(); err != nil {
			return &backoff.PermanentError{Err: err}
		}
		attempt++

		err := c.cc.Invoke(ctx, "POST", "/v1/inventories", inv, &reply)
		if err == nil {
			return nil
		}
		if isClientError(err) {
			return &backoff.PermanentError{Err: err}
		}
		c.log.WithError(err).WithField("attempt", attempt).Warn("Submit failed; retrying")
		return err
	}

	if err := backoff.Retry(operation, c.newBackOff()); err != nil {
		return nil, fmt.Errorf("submit inventory: %w", err)
	}
	return &reply, nil
}

// Poll waits up to wait for commands queued for clientID.
func (c *Client) Poll(ctx context.Context, clientID, version string, wait time.Duration) ([]convert.Command, error) {
	q := url.Values{}
	q.Set("version", version)
	q.Set("wait", wait.String())
	path := "/v1/agents/" + url.PathEscape(clientID) + "/commands?" + q.Encode()

	var reply convert.PollReply
	if err := c.cc.Invoke(ctx, "GET", path, nil, &reply); err != nil {
		return nil, fmt.Errorf("poll commands: %w", err)
	}
	return reply.Commands, nil
}

func isClientError(err error) bool {
	se := kerrors.FromError(err)
	return se.Code >= 400 && se.Code < 500
}
