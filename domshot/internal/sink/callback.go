// CLAUDE:SUMMARY In-process callback sink delivering artifacts via a Go function call.
package sink

import (
	"context"

	"github.com/hazyhaar/pagesnap/domshot/shot"
)

// ArtifactFunc is called for each exported artifact.
type ArtifactFunc func(ctx context.Context, art *shot.Artifact) error

// Callback delivers artifacts to a Go function, for embedders that keep
// the bytes in memory.
type Callback struct {
	fn ArtifactFunc
}

// NewCallback creates a Callback sink. fn may be nil.
func NewCallback(fn ArtifactFunc) *Callback {
	return &Callback{fn: fn}
}

func (c *Callback) Send(ctx context.Context, art *shot.Artifact) error {
	if c.fn != nil {
		return c.fn(ctx, art)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
