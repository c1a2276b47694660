// CLAUDE:SUMMARY Writes artifacts into a directory, optionally with a Markdown sidecar of the captured content.
package sink

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hazyhaar/pagesnap/domshot/shot"
	"github.com/hazyhaar/pagesnap/horosafe"
)

// File writes each artifact to <dir>/<filename>.<ext>. Existing files are
// never overwritten; a numeric suffix is added instead.
type File struct {
	dir     string
	sidecar bool
	logger  *slog.Logger

	mu sync.Mutex
}

// FileOption configures a File sink.
type FileOption func(*File)

// WithMarkdownSidecar writes <name>.md next to each image, holding the
// captured content as Markdown.
func WithMarkdownSidecar() FileOption {
	return func(f *File) { f.sidecar = true }
}

// WithFileLogger sets a custom logger.
func WithFileLogger(l *slog.Logger) FileOption {
	return func(f *File) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFile creates the directory if needed.
func NewFile(dir string, opts ...FileOption) (*File, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("sink: file: mkdir %s: %w", dir, err)
	}
	f := &File{dir: dir, logger: slog.Default()}
	for _, o := range opts {
		o(f)
	}
	return f, nil
}

// Dir returns the output directory.
func (f *File) Dir() string { return f.dir }

func (f *File) Send(_ context.Context, art *shot.Artifact) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	base := f.freeName(art.Filename, art.Format.Ext())
	path, err := horosafe.SafePath(f.dir, base+"."+art.Format.Ext())
	if err != nil {
		return fmt.Errorf("sink: file: %q: %w", base, err)
	}
	if err := writeFile(path, art.Data); err != nil {
		return fmt.Errorf("sink: file: %w", err)
	}
	f.logger.Info("sink: file written", "path", path, "bytes", len(art.Data))

	if !f.sidecar || art.Markup == "" {
		return nil
	}
	md, err := Markdown(art.Markup, art.PageURL)
	if err != nil {
		// The image is on disk; a missing sidecar is not a failed capture.
		f.logger.Warn("sink: markdown sidecar", "path", path, "error", err)
		return nil
	}
	mdPath, err := horosafe.SafePath(f.dir, base+".md")
	if err != nil {
		return nil
	}
	if err := writeFile(mdPath, []byte(frontMatter(art, base+"."+art.Format.Ext())+md+"\n")); err != nil {
		f.logger.Warn("sink: write sidecar", "path", mdPath, "error", err)
	}
	return nil
}

func (f *File) Close() error { return nil }

// freeName returns name, or name_N, such that name.ext does not exist.
func (f *File) freeName(name, ext string) string {
	if name == "" {
		name = "capture"
	}
	candidate := name
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(f.dir, candidate+"."+ext)); os.IsNotExist(err) {
			return candidate
		}
		candidate = name + "_" + strconv.Itoa(i)
	}
}

func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func frontMatter(art *shot.Artifact, image string) string {
	var b strings.Builder
	b.WriteString("---\n")
	if art.PageURL != "" {
		fmt.Fprintf(&b, "source: %s\n", art.PageURL)
	}
	if art.Target != "" {
		fmt.Fprintf(&b, "target: %s\n", art.Target)
	}
	fmt.Fprintf(&b, "captured: %s\n", time.UnixMilli(art.Timestamp).UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "image: %s\n", image)
	fmt.Fprintf(&b, "sha256: %s\n", art.Hash)
	b.WriteString("---\n\n")
	return b.String()
}
