// CLAUDE:SUMMARY Writes artifacts as JSON lines to an io.Writer (defaults to stdout).
package sink

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/hazyhaar/pagesnap/domshot/shot"
)

// Stdout writes JSON lines to an io.Writer (default os.Stdout). Image
// bytes are base64 in the "data" field.
type Stdout struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewStdout creates a Stdout sink. If w is nil, os.Stdout is used.
func NewStdout(w io.Writer) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	return &Stdout{enc: json.NewEncoder(w)}
}

func (s *Stdout) Send(_ context.Context, art *shot.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(envelope{Type: "artifact", Data: art})
}

func (s *Stdout) Close() error { return nil }
