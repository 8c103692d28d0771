package socketio

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/vk/taskroute/internal/ctxlog"
	"github.com/vk/taskroute/internal/di"
	"github.com/vk/taskroute/internal/registry"
	"github.com/vk/taskroute/internal/router"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// ErrTimeout is returned when the connection or the ack does not arrive in time.
var ErrTimeout = errors.New("socket.io operation timed out")

// Module implements the registry.Module interface for this package.
type Module struct{}

// Params defines the params of `socketio emit`.
type Params struct {
	URL                string `param:"url"`
	Event              string `param:"event"`
	Namespace          string `param:"namespace"`
	Timeout            string `param:"timeout"`
	Ack                bool   `param:"ack"`
	InsecureSkipVerify bool   `param:"insecure_skip_verify"`
}

// opResult is a private struct to safely pass results through the done channel.
type opResult struct {
	ack []any
	err error
}

// EmitSocketIO is the handler for `socketio emit`. It connects over the
// websocket transport, emits the event with the extra params as payload and,
// unless ack=false, writes the server's ack to the output service as JSON.
func EmitSocketIO(ctx context.Context, call *registry.Call) error {
	params := call.Params.(*Params)
	logger := ctxlog.FromContext(ctx).With("url", params.URL, "namespace", params.Namespace, "event", params.Event)
	logger.Debug("Handler started")
	defer logger.Debug("Handler finished")

	out, err := di.Resolve[io.Writer](call.DI, di.ServiceOutput)
	if err != nil {
		return err
	}

	timeout, err := time.ParseDuration(params.Timeout)
	if err != nil || timeout <= 0 {
		return fmt.Errorf("invalid timeout '%s': must be a positive duration", params.Timeout)
	}

	payload, err := Payload(call.Extra)
	if err != nil {
		return err
	}

	parsedURL, err := url.Parse(params.URL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return fmt.Errorf("failed to parse URL: '%s' has no scheme or host", params.URL)
	}

	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		opts.SetPath(parsedURL.Path)
	}
	if params.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	client := manager.Socket(params.Namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		client.Disconnect()
	}()

	var isConnected atomic.Bool
	done := make(chan opResult, 1)
	// Only the first result counts; later events are dropped.
	finish := func(res opResult) {
		select {
		case done <- res:
		default:
		}
	}

	client.Once(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Info("Successfully connected", "sid", client.Id())

		args := []any{}
		if payload != nil {
			args = append(args, payload)
		}
		if !params.Ack {
			client.Emit(params.Event, args...)
			finish(opResult{})
			return
		}
		args = append(args, func(ack []any, err error) {
			finish(opResult{ack: ack, err: err})
		})
		logger.Debug("Emitting event, waiting for ack")
		client.Emit(params.Event, args...)
	})

	client.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		finish(opResult{err: fmt.Errorf("socket.io connection failed: %w", err)})
	})

	logger.Debug("Initiating connection...")
	client.Connect()

	select {
	case <-opCtx.Done():
		if isConnected.Load() {
			return fmt.Errorf("%w after connecting while waiting for the ack of '%s'", ErrTimeout, params.Event)
		}
		return fmt.Errorf("%w while waiting for initial connection", ErrTimeout)
	case res := <-done:
		if res.err != nil {
			return res.err
		}
		if !params.Ack {
			logger.Info("Event emitted")
			return nil
		}
		logger.Info("Ack received", "args", len(res.ack))
		return writeAck(out, res.ack)
	}
}

// Payload builds the event payload from the extra params. It returns nil
// when there are none.
func Payload(extra router.Params) (map[string]any, error) {
	if len(extra) == 0 {
		return nil, nil
	}
	obj := cty.ObjectVal(extra)
	raw, err := ctyjson.Marshal(obj, obj.Type())
	if err != nil {
		return nil, fmt.Errorf("cannot encode payload: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("cannot encode payload: %w", err)
	}
	return payload, nil
}

func writeAck(out io.Writer, ack []any) error {
	var v any
	switch len(ack) {
	case 0:
	case 1:
		v = ack[0]
	default:
		v = ack
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cannot encode ack: %w", err)
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}

// Register registers the handler with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("EmitSocketIO", &registry.RegisteredAction{
		NewParams: func() any { return new(Params) },
		Fn:        EmitSocketIO,
	})
}
