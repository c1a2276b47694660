package sink

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/pagesnap/domshot/internal/dom"
)

var (
	mdOnce      sync.Once
	mdConverter *converter.Converter
	mdPolicy    *bluemonday.Policy
)

func markdownTools() (*converter.Converter, *bluemonday.Policy) {
	mdOnce.Do(func() {
		mdConverter = converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				strikethrough.NewStrikethroughPlugin(),
				table.NewTablePlugin(),
			),
		)
		mdPolicy = bluemonday.UGCPolicy()
	})
	return mdConverter, mdPolicy
}

// dropped never reach the sidecar, with their subtree.
var dropped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Head:     true,
	atom.Title:    true,
	atom.Meta:     true,
	atom.Link:     true,
}

// Markdown converts captured markup to Markdown: tool UI and non-content
// nodes are stripped, the rest is sanitised, then converted. Relative
// links resolve against baseURL when set.
func Markdown(markup, baseURL string) (string, error) {
	cleaned, err := stripExcluded(markup)
	if err != nil {
		return "", fmt.Errorf("sink: markdown: parse: %w", err)
	}
	conv, policy := markdownTools()
	safe := policy.Sanitize(cleaned)

	var opts []converter.ConvertOptionFunc
	if baseURL != "" {
		opts = append(opts, converter.WithDomain(baseURL))
	}
	md, err := conv.ConvertString(safe, opts...)
	if err != nil {
		return "", fmt.Errorf("sink: markdown: convert: %w", err)
	}
	return strings.TrimSpace(md), nil
}

func stripExcluded(markup string) (string, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	for _, n := range nodes {
		if drop(n) {
			continue
		}
		prune(n)
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func drop(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return n.Type == html.CommentNode
	}
	if dropped[n.DataAtom] {
		return true
	}
	for _, a := range n.Attr {
		if a.Key == dom.ExcludeAttr && a.Val == dom.ExcludeValue {
			return true
		}
	}
	return false
}

func prune(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if drop(c) {
			n.RemoveChild(c)
		} else {
			prune(c)
		}
		c = next
	}
}
