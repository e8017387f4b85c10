package client

import "fmt"

// DiscoveryErrorKind classifies a discoverAgent failure.
type DiscoveryErrorKind string

const (
	DiscoveryUnreachable DiscoveryErrorKind = "unreachable"
	DiscoveryHTTPStatus  DiscoveryErrorKind = "http_status"
	DiscoveryMalformed   DiscoveryErrorKind = "malformed"
)

// DiscoveryError reports a failure fetching or parsing an AgentCard. It
// never embeds the auth token, even though Config carries one, because
// Detail is built exclusively from the endpoint and the observed failure.
type DiscoveryError struct {
	Kind       DiscoveryErrorKind
	Endpoint   string
	StatusCode int
	Detail     string
	Cause      error
}

// Error implements the error interface.
func (e *DiscoveryError) Error() string {
	switch e.Kind {
	case DiscoveryHTTPStatus:
		return fmt.Sprintf("client: discovery of %s failed: http status %d", e.Endpoint, e.StatusCode)
	case DiscoveryMalformed:
		return fmt.Sprintf("client: discovery of %s failed: malformed agent card: %s", e.Endpoint, e.Detail)
	default:
		return fmt.Sprintf("client: discovery of %s failed: unreachable: %s", e.Endpoint, e.Detail)
	}
}

// Unwrap returns the underlying cause, if any.
func (e *DiscoveryError) Unwrap() error { return e.Cause }

// ProtocolErrorKind classifies a sendMessage failure.
type ProtocolErrorKind string

const (
	ProtocolTimeout      ProtocolErrorKind = "timeout"
	ProtocolUnreachable  ProtocolErrorKind = "unreachable"
	ProtocolUnauthorized ProtocolErrorKind = "unauthorized"
	ProtocolBadStatus    ProtocolErrorKind = "bad_status"
	ProtocolMalformed    ProtocolErrorKind = "malformed"
	ProtocolRPCError     ProtocolErrorKind = "rpc_error"
)

// ProtocolError reports a failure sending a message to the remote agent. As
// with DiscoveryError, Detail never contains the configured auth token.
type ProtocolError struct {
	Kind       ProtocolErrorKind
	Endpoint   string
	StatusCode int
	RPCCode    int
	Detail     string
	Cause      error
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	switch e.Kind {
	case ProtocolTimeout:
		return fmt.Sprintf("client: send to %s timed out", e.Endpoint)
	case ProtocolUnauthorized:
		return fmt.Sprintf("client: send to %s failed: unauthorized", e.Endpoint)
	case ProtocolBadStatus:
		return fmt.Sprintf("client: send to %s failed: http status %d", e.Endpoint, e.StatusCode)
	case ProtocolRPCError:
		return fmt.Sprintf("client: send to %s failed: rpc error %d: %s", e.Endpoint, e.RPCCode, e.Detail)
	case ProtocolMalformed:
		return fmt.Sprintf("client: send to %s failed: malformed reply: %s", e.Endpoint, e.Detail)
	default:
		return fmt.Sprintf("client: send to %s failed: unreachable: %s", e.Endpoint, e.Detail)
	}
}

// Unwrap returns the underlying cause, if any.
func (e *ProtocolError) Unwrap() error { return e.Cause }
