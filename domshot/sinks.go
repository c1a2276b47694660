package domshot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hazyhaar/pagesnap/domshot/internal/sink"
)

// Sink is the output interface for captured artifacts.
type Sink = sink.Sink

// NewStdoutSink creates a stdout JSON-lines sink.
func NewStdoutSink(w io.Writer) Sink {
	return sink.NewStdout(w)
}

// NewWebhookSink creates a webhook POST sink with retry.
func NewWebhookSink(url string, logger *slog.Logger) Sink {
	return sink.NewWebhook(url, sink.WithWebhookLogger(logger))
}

// NewFileSink writes images into dir; markdown adds a .md sidecar with the
// target's text next to each image.
func NewFileSink(dir string, markdown bool, logger *slog.Logger) (Sink, error) {
	opts := []sink.FileOption{sink.WithFileLogger(logger)}
	if markdown {
		opts = append(opts, sink.WithMarkdownSidecar())
	}
	return sink.NewFile(dir, opts...)
}

// NewCallbackSink creates an in-process callback sink.
func NewCallbackSink(fn func(ctx context.Context, art *Artifact) error) Sink {
	return sink.NewCallback(fn)
}

// BuildSinks creates the exporters listed in cfg.
func BuildSinks(cfg *Config, logger *slog.Logger) ([]Sink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var out []Sink
	for i, e := range cfg.Exporters {
		switch e.Type {
		case "stdout":
			out = append(out, sink.NewStdout(os.Stdout))
		case "file":
			f, err := NewFileSink(e.Dir, e.Sidecar == "markdown", logger)
			if err != nil {
				return nil, fmt.Errorf("domshot: exporters[%d]: %w", i, err)
			}
			out = append(out, f)
		case "webhook":
			out = append(out, sink.NewWebhook(e.URL,
				sink.WithWebhookRetries(e.Retries),
				sink.WithWebhookBackoff(e.Backoff),
				sink.WithWebhookLogger(logger),
			))
		default:
			return nil, fmt.Errorf("domshot: exporters[%d]: unknown type %q", i, e.Type)
		}
	}
	return out, nil
}
