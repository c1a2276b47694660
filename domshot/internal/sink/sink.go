// Package sink defines where exported captures go.
package sink

import (
	"context"

	"github.com/hazyhaar/pagesnap/domshot/shot"
)

// Sink is the output interface. Implementations deliver artifacts to
// different backends (directory, stdout, webhook, in-process callback).
type Sink interface {
	Send(ctx context.Context, art *shot.Artifact) error
	Close() error
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
