package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/a2aeval/bridge/internal/obs"
	"github.com/a2aeval/bridge/internal/retry"
	"github.com/a2aeval/bridge/internal/telemetry"
	"github.com/a2aeval/bridge/metrics"
	"github.com/a2aeval/bridge/protocol"
)

// Client is the Agent Protocol client: agent discovery plus message/send,
// against one Config. A Client is safe for concurrent use by multiple
// TaskSessions, since Config is immutable and every call builds its own
// *http.Client (see newHTTPClient).
type Client struct {
	cfg     Config
	log     obs.Logger
	metrics *metrics.Recorder
	retry   retry.Config
	tracer  telemetry.Tracer
	otel    telemetry.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithLogger overrides the structured logger. Defaults to obs.NoopLogger.
func WithLogger(l obs.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetricsRecorder overrides the metrics sink. Defaults to a fresh
// *metrics.Recorder private to this Client.
func WithMetricsRecorder(r *metrics.Recorder) Option {
	return func(c *Client) { c.metrics = r }
}

// WithRetryConfig overrides the discovery retry policy. message/send is
// never retried regardless of this setting (see package retry's doc
// comment).
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithTelemetry wires process-wide tracing and metrics into every call this
// Client makes. Defaults to no-ops, so a deployment that doesn't configure
// an OTEL exporter pays no cost for instrumentation it never requested.
func WithTelemetry(tracer telemetry.Tracer, m telemetry.Metrics) Option {
	return func(c *Client) { c.tracer = tracer; c.otel = m }
}

// New constructs a Client for cfg.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:     cfg,
		log:     obs.NoopLogger{},
		metrics: metrics.NewRecorder(),
		retry:   retry.DefaultConfig(),
		tracer:  telemetry.NewNoopTracer(),
		otel:    telemetry.NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Metrics returns the Client's metrics recorder so callers (the evaluator
// adapter, the front-end) can serialize its aggregate into results.
func (c *Client) Metrics() *metrics.Recorder { return c.metrics }

// newHTTPClient builds a fresh *http.Client for a single call. A new client
// per call (rather than a pooled, shared one) means there is no connection
// state that could outlive the scheduling context it was created under; the
// adapter package's sendBridged runs each call on a goroutine of its own.
func (c *Client) newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !c.cfg.VerifySSL {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{} //nolint:gosec // explicit opt-out via Config.VerifySSL
		}
		transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec // explicit opt-out via Config.VerifySSL
	}
	return &http.Client{
		Timeout:   time.Duration(c.cfg.TimeoutSeconds) * time.Second,
		Transport: transport,
	}
}

// DiscoverAgent performs an HTTP GET of
// <endpoint>/.well-known/agent-card.json, retrying transient failures per
// the Client's retry policy (discovery is idempotent).
func (c *Client) DiscoverAgent(ctx context.Context) (protocol.AgentCard, error) {
	ctx, span := c.tracer.Start(ctx, "client.DiscoverAgent", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var card protocol.AgentCard
	cardURL := c.cfg.Endpoint + "/.well-known/agent-card.json"

	err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
		var attemptErr error
		card, attemptErr = c.discoverOnce(ctx, cardURL)
		return attemptErr
	})
	if err != nil {
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			span.RecordError(exhausted.LastError)
			span.SetStatus(codes.Error, exhausted.LastError.Error())
			return protocol.AgentCard{}, exhausted.LastError
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return protocol.AgentCard{}, err
	}
	span.SetStatus(codes.Ok, "")
	return card, nil
}

func (c *Client) discoverOnce(ctx context.Context, cardURL string) (protocol.AgentCard, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cardURL, nil)
	if err != nil {
		return protocol.AgentCard{}, &DiscoveryError{Kind: DiscoveryMalformed, Endpoint: c.cfg.Endpoint, Detail: err.Error(), Cause: err}
	}
	c.applyAuth(req)

	httpClient := c.newHTTPClient()
	resp, err := httpClient.Do(req)
	if err != nil {
		return protocol.AgentCard{}, &DiscoveryError{Kind: DiscoveryUnreachable, Endpoint: c.cfg.Endpoint, Detail: scrub(err.Error(), c.cfg.AuthToken), Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return protocol.AgentCard{}, &DiscoveryError{Kind: DiscoveryMalformed, Endpoint: c.cfg.Endpoint, Detail: err.Error(), Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return protocol.AgentCard{}, &DiscoveryError{Kind: DiscoveryHTTPStatus, Endpoint: c.cfg.Endpoint, StatusCode: resp.StatusCode}
	}

	var card protocol.AgentCard
	if err := json.Unmarshal(body, &card); err != nil {
		return protocol.AgentCard{}, &DiscoveryError{Kind: DiscoveryMalformed, Endpoint: c.cfg.Endpoint, Detail: "invalid JSON", Cause: err}
	}
	if card.Name == "" {
		return protocol.AgentCard{}, &DiscoveryError{Kind: DiscoveryMalformed, Endpoint: c.cfg.Endpoint, Detail: "agent card has empty name"}
	}
	if _, err := url.ParseRequestURI(card.URL); err != nil {
		return protocol.AgentCard{}, &DiscoveryError{Kind: DiscoveryMalformed, Endpoint: c.cfg.Endpoint, Detail: "agent card url is not a valid absolute URL", Cause: err}
	}

	c.log.Info(ctx, "agent discovered", "endpoint", c.cfg.Endpoint, "name", card.Name)
	return card, nil
}

// SendMessage performs an HTTP POST of a JSON-RPC 2.0 message/send envelope
// and returns the normalized reply, the contextId the reply carried (which
// may be unchanged from the one in msg), and the RequestMetric recorded for
// this call. message/send is never retried: the spec treats it as
// non-idempotent per task.
func (c *Client) SendMessage(ctx context.Context, msg protocol.Message) (protocol.Message, string, metrics.RequestMetric, error) {
	ctx, span := c.tracer.Start(ctx, "client.SendMessage", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	requestID := uuid.NewString()
	metric := metrics.RequestMetric{
		RequestID:    requestID,
		Endpoint:     c.cfg.Endpoint,
		Method:       "message/send",
		ContextID:    msg.ContextID,
		TimestampISO: metrics.NowISO(time.Now()),
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	start := time.Now()
	reply, newContextID, err := c.sendOnce(ctx, requestID, msg)
	latency := time.Since(start)
	metric.LatencyMs = float64(latency.Microseconds()) / 1000.0
	c.otel.RecordTimer("bridge.client.send_message.latency", latency, "endpoint", c.cfg.Endpoint)

	if err != nil {
		metric.Error = errKind(err)
		var protoErr *ProtocolError
		if errors.As(err, &protoErr) && protoErr.StatusCode != 0 {
			sc := protoErr.StatusCode
			metric.StatusCode = &sc
		}
		c.log.Info(ctx, "message/send failed", "endpoint", c.cfg.Endpoint, "error", metric.Error, "latencyMs", metric.LatencyMs, "contextId", msg.ContextID)
		c.otel.IncCounter("bridge.client.send_message.errors", 1, "endpoint", c.cfg.Endpoint, "kind", metric.Error)
		span.RecordError(err)
		span.SetStatus(codes.Error, metric.Error)
		c.metrics.Record(metric)
		return protocol.Message{}, "", metric, err
	}

	sc := http.StatusOK
	metric.StatusCode = &sc
	metric.ContextID = newContextID
	c.log.Info(ctx, "message/send succeeded", "endpoint", c.cfg.Endpoint, "status", sc, "latencyMs", metric.LatencyMs, "contextId", newContextID)
	c.otel.IncCounter("bridge.client.send_message.success", 1, "endpoint", c.cfg.Endpoint)
	span.SetStatus(codes.Ok, "")
	c.metrics.Record(metric)
	return reply, newContextID, metric, nil
}

func (c *Client) sendOnce(ctx context.Context, requestID string, msg protocol.Message) (protocol.Message, string, error) {
	envelope := protocol.RPCRequest{
		JSONRPC: "2.0",
		ID:      requestID,
		Method:  "message/send",
		Params:  protocol.SendMessageParams{Message: msg},
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return protocol.Message{}, "", &ProtocolError{Kind: ProtocolMalformed, Endpoint: c.cfg.Endpoint, Detail: err.Error(), Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return protocol.Message{}, "", &ProtocolError{Kind: ProtocolMalformed, Endpoint: c.cfg.Endpoint, Detail: err.Error(), Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyAuth(req)

	httpClient := c.newHTTPClient()
	resp, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return protocol.Message{}, "", &ProtocolError{Kind: ProtocolTimeout, Endpoint: c.cfg.Endpoint, Cause: ctx.Err()}
		}
		return protocol.Message{}, "", &ProtocolError{Kind: ProtocolUnreachable, Endpoint: c.cfg.Endpoint, Detail: scrub(err.Error(), c.cfg.AuthToken), Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return protocol.Message{}, "", &ProtocolError{Kind: ProtocolTimeout, Endpoint: c.cfg.Endpoint, Cause: ctx.Err()}
		}
		return protocol.Message{}, "", &ProtocolError{Kind: ProtocolMalformed, Endpoint: c.cfg.Endpoint, Detail: err.Error(), Cause: err}
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return protocol.Message{}, "", &ProtocolError{Kind: ProtocolUnauthorized, Endpoint: c.cfg.Endpoint, StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return protocol.Message{}, "", &ProtocolError{Kind: ProtocolBadStatus, Endpoint: c.cfg.Endpoint, StatusCode: resp.StatusCode}
	}

	var rpcResp protocol.RPCResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return protocol.Message{}, "", &ProtocolError{Kind: ProtocolMalformed, Endpoint: c.cfg.Endpoint, Detail: "invalid JSON-RPC envelope", Cause: err}
	}
	if rpcResp.Error != nil {
		return protocol.Message{}, "", &ProtocolError{Kind: ProtocolRPCError, Endpoint: c.cfg.Endpoint, RPCCode: rpcResp.Error.Code, Detail: rpcResp.Error.Message}
	}
	if len(rpcResp.Result) == 0 {
		return protocol.Message{}, "", &ProtocolError{Kind: ProtocolMalformed, Endpoint: c.cfg.Endpoint, Detail: "response has neither result nor error"}
	}

	reply, err := protocol.Normalize(rpcResp.Result)
	if err != nil {
		return protocol.Message{}, "", &ProtocolError{Kind: ProtocolMalformed, Endpoint: c.cfg.Endpoint, Detail: err.Error(), Cause: err}
	}

	newContextID := reply.ContextID
	if newContextID == "" {
		newContextID = msg.ContextID
	}
	return reply, newContextID, nil
}

func (c *Client) applyAuth(req *http.Request) {
	if c.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	}
}

// errKind returns the metric-log error label for err: the ProtocolError or
// DiscoveryError kind when available, else "error".
func errKind(err error) string {
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return string(protoErr.Kind)
	}
	var discErr *DiscoveryError
	if errors.As(err, &discErr) {
		return string(discErr.Kind)
	}
	return "error"
}

// scrub removes token from msg, if token is non-empty, so that transport
// error strings (which can embed request URLs or, in rare client
// implementations, header dumps) never leak the auth token into logs or
// error messages.
func scrub(msg, token string) string {
	if token == "" {
		return msg
	}
	return bytesReplaceString(msg, token, "[REDACTED]")
}

func bytesReplaceString(s, old, new string) string {
	return string(bytes.ReplaceAll([]byte(s), []byte(old), []byte(new)))
}
