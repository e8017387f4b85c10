// Package resultstore implements the pluggable persistence backend behind
// the get_evaluation_results tool (C6). The spec's source has no
// persistence story and currently returns an "unavailable" response; this
// package keeps that behavior as the default (Memory with nothing stored
// yet returns ErrNotFound) while letting a deployment opt into a
// Redis-backed store that survives process restarts.
package resultstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no result is stored for the given evaluation
// ID, including the case where persistence isn't configured at all.
var ErrNotFound = errors.New("resultstore: evaluation result not found")

// Store persists evaluation results keyed by evaluation ID.
type Store interface {
	Put(ctx context.Context, evaluationID string, result []byte) error
	Get(ctx context.Context, evaluationID string) ([]byte, error)
}
