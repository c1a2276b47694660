// CLAUDE:SUMMARY Defines the capture formats and the Artifact handed to exporters.
// Package shot holds the value types that leave the capture pipeline:
// the output Format and the exported Artifact.
package shot

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Format is the output encoding of a capture.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat accepts "svg" or "png" (case-insensitive). Empty means svg.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("shot: unknown format %q", s)
	}
}

// Ext returns the file extension without the dot.
func (f Format) Ext() string { return string(f) }

// MIME returns the media type of the encoded image.
func (f Format) MIME() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// Artifact is one exported capture.
type Artifact struct {
	ID        string  `json:"id"` // UUIDv7
	RequestID string  `json:"request_id"`
	PageID    string  `json:"page_id"`
	PageURL   string  `json:"page_url"`
	Filename  string  `json:"filename"` // without extension
	Format    Format  `json:"format"`
	Data      []byte  `json:"data"`
	Hash      string  `json:"hash"`             // SHA-256 hex of Data
	Markup    string  `json:"markup,omitempty"` // target outer HTML, excluded nodes removed
	Target    string  `json:"target"`           // "html", "div.card", ...
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Timestamp int64   `json:"timestamp"` // epoch milliseconds
}

// FileName returns Filename with the format extension.
func (a *Artifact) FileName() string {
	return a.Filename + "." + a.Format.Ext()
}

// Hash returns the SHA-256 hex digest of data.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h)
}
