// Package client implements the Agent Protocol client (C3): agent
// discovery, message send, authentication, timeouts, and per-call metrics.
package client

import (
	"fmt"
	"strings"
)

// Config is the immutable configuration of one remote agent connection.
// Shared read-only by every TaskSession that targets the same endpoint.
type Config struct {
	// Endpoint is the base URL of the remote agent, normalized to strip a
	// trailing slash. Discovery GETs <Endpoint>/.well-known/agent-card.json;
	// message/send POSTs directly to <Endpoint>.
	Endpoint string
	// AuthToken, if set, is sent as a bearer token on every request.
	AuthToken string
	// TimeoutSeconds bounds the total duration of one protocol call.
	TimeoutSeconds int
	// VerifySSL controls TLS certificate verification for https endpoints.
	VerifySSL bool
}

// NewConfig validates and normalizes endpoint, applying the
// TimeoutSeconds/VerifySSL defaults (300s, true) spec'd for zero values.
func NewConfig(endpoint, authToken string, timeoutSeconds int, verifySSL *bool) (Config, error) {
	endpoint = strings.TrimRight(endpoint, "/")
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return Config{}, fmt.Errorf("client: endpoint %q must begin with http:// or https://", endpoint)
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 300
	}
	verify := true
	if verifySSL != nil {
		verify = *verifySSL
	}
	return Config{
		Endpoint:       endpoint,
		AuthToken:      authToken,
		TimeoutSeconds: timeoutSeconds,
		VerifySSL:      verify,
	}, nil
}
