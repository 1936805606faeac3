package marketo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type callOptions struct {
	repeated []string
}

// CallOption adjusts a single Execute call.
type CallOption func(*callOptions)

// WithRepeatedKeys sends the named list arguments as repeated key=value
// pairs for this call, in addition to those the catalog entry declares.
func WithRepeatedKeys(names ...string) CallOption {
	return func(o *callOptions) {
		o.repeated = append(o.repeated, names...)
	}
}

// Execute runs one operation and decodes the envelope. When the
// operation's rule deems the envelope unsuccessful the decoded Result is
// returned together with an *APIError.
func (c *Client) Execute(ctx context.Context, name string, args Args, opts ...CallOption) (*Result, error) {
	op, raw, callID, err := c.roundTrip(ctx, name, args, opts)
	if err != nil {
		return nil, err
	}

	res, err := c.decoder.Decode(op, raw)
	if err != nil {
		c.logger.Error("Failed to decode response",
			zap.String("operation", name),
			zap.String("call_id", callID),
			zap.Int("status_code", raw.StatusCode),
			zap.Error(err))
		return nil, err
	}

	if !res.IsSuccess() {
		apiErr := res.AsError()
		c.logger.Warn("Operation unsuccessful",
			zap.String("operation", name),
			zap.String("call_id", callID),
			zap.String("request_id", res.RequestID),
			zap.Error(apiErr))
		return res, apiErr
	}

	c.logger.Info("Operation succeeded",
		zap.String("operation", name),
		zap.String("call_id", callID),
		zap.String("request_id", res.RequestID))
	return res, nil
}

// ExecuteRaw runs one operation and returns the response body verbatim,
// whatever its status or content.
func (c *Client) ExecuteRaw(ctx context.Context, name string, args Args, opts ...CallOption) ([]byte, error) {
	_, raw, _, err := c.roundTrip(ctx, name, args, opts)
	if err != nil {
		return nil, err
	}
	return raw.Body, nil
}

// roundTrip builds, authorizes and sends one request. A response that
// rejects the token is retried once with a fresh token.
func (c *Client) roundTrip(ctx context.Context, name string, args Args, opts []CallOption) (Operation, *RawResponse, string, error) {
	callID := uuid.NewString()
	start := time.Now()

	op, ok := c.catalog.Lookup(name)
	if !ok {
		err := &BuildError{Operation: name, Msg: "unknown operation"}
		c.logger.Error("Unknown operation", zap.String("operation", name), zap.String("call_id", callID))
		return Operation{}, nil, callID, err
	}

	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	for _, n := range o.repeated {
		if !op.UsesRepeatedKeys(n) {
			op.Repeated = append(op.Repeated, n)
		}
	}

	c.logger.Info("Executing operation",
		zap.String("operation", name),
		zap.String("call_id", callID),
		zap.String("method", op.Method))

	req, err := c.builder.Build(op, args)
	if err != nil {
		c.logger.Error("Failed to build request",
			zap.String("operation", name),
			zap.String("call_id", callID),
			zap.Error(err))
		return op, nil, callID, err
	}

	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return op, nil, callID, err
	}

	c.logger.Debug("Sending request",
		zap.String("operation", name),
		zap.String("call_id", callID),
		zap.String("method", req.Method),
		zap.String("url", req.URL))

	raw, err := c.executor.Send(ctx, req.WithToken(tok.Value))
	if err != nil {
		c.logger.Error("Request failed",
			zap.String("operation", name),
			zap.String("call_id", callID),
			zap.String("url", req.URL),
			zap.Error(err))
		return op, nil, callID, err
	}

	if isAuthFailure(raw) {
		c.logger.Warn("Access token rejected, refreshing and retrying once",
			zap.String("operation", name),
			zap.String("call_id", callID),
			zap.Int("status_code", raw.StatusCode))
		c.tokens.Invalidate(tok.Value)

		tok, err = c.tokens.Token(ctx)
		if err != nil {
			return op, nil, callID, err
		}
		raw, err = c.executor.Send(ctx, req.WithToken(tok.Value))
		if err != nil {
			c.logger.Error("Retried request failed",
				zap.String("operation", name),
				zap.String("call_id", callID),
				zap.String("url", req.URL),
				zap.Error(err))
			return op, nil, callID, err
		}
	}

	c.logger.Debug("Received response",
		zap.String("operation", name),
		zap.String("call_id", callID),
		zap.Int("status_code", raw.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return op, raw, callID, nil
}
