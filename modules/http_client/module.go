package http_client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vk/taskroute/internal/ctxlog"
	"github.com/vk/taskroute/internal/di"
	"github.com/vk/taskroute/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Params defines the params of `http request`.
type Params struct {
	URL     string `param:"url"`
	Method  string `param:"method"`
	Timeout string `param:"timeout"`
}

// NewClient is the factory of the shared di.ServiceHTTPClient service.
func NewClient(*di.Container) (any, error) {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}, nil
}

// HTTPRequest is the handler for `http request`.
func HTTPRequest(ctx context.Context, call *registry.Call) error {
	params := call.Params.(*Params)
	logger := ctxlog.FromContext(ctx).With("method", params.Method, "url", params.URL)

	client, err := di.Resolve[*http.Client](call.DI, di.ServiceHTTPClient)
	if err != nil {
		return err
	}
	out, err := di.Resolve[io.Writer](call.DI, di.ServiceOutput)
	if err != nil {
		return err
	}

	timeout, err := time.ParseDuration(params.Timeout)
	if err != nil || timeout <= 0 {
		return fmt.Errorf("invalid timeout '%s': must be a positive duration", params.Timeout)
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, strings.ToUpper(params.Method), params.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	logger.Info("Making HTTP request")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	logger.Info("Received HTTP response", "status", resp.Status)

	if _, err := fmt.Fprintf(out, "%d\n", resp.StatusCode); err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

// Register registers the handler with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("HTTPRequest", &registry.RegisteredAction{
		NewParams: func() any { return new(Params) },
		Fn:        HTTPRequest,
	})
}
