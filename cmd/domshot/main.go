// CLAUDE:SUMMARY CLI entry point for domshot: one-shot page/element captures, or a daemon serving the HTTP and MCP command surfaces.
// Command domshot captures web pages, or an element picked with the mouse,
// as SVG or PNG.
//
// Usage:
//
//	domshot -url https://example.com -action capture-png -out shots   # whole page, then exit
//	domshot -url https://example.com -action select -out shots        # pick an element, then exit
//	domshot -config domshot.yaml -listen :8085                        # HTTP command API
//	domshot -config domshot.yaml -mcp                                 # MCP tools over stdio
//	domshot -hash-token s3cret                                        # print http.token_hash
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/pagesnap/domshot"
	"github.com/hazyhaar/pagesnap/shield"
)

type options struct {
	configPath string
	url        string
	pageID     string
	action     string
	format     string
	listen     string
	mcp        bool
	out        string
	markdown   bool
	headless   bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to domshot.yaml config file")
	flag.StringVar(&o.url, "url", "", "open a single URL")
	flag.StringVar(&o.pageID, "id", "page", "page id for -url")
	flag.StringVar(&o.action, "action", "serve", "capture-svg, capture-png, select or serve")
	flag.StringVar(&o.format, "format", "", "format for -action select: svg or png")
	flag.StringVar(&o.listen, "listen", "", "HTTP listen address (overrides http.listen)")
	flag.BoolVar(&o.mcp, "mcp", false, "serve MCP tools over stdio")
	flag.StringVar(&o.out, "out", "", "write captures into this directory")
	flag.BoolVar(&o.markdown, "markdown", false, "with -out: write a Markdown sidecar per capture")
	flag.BoolVar(&o.headless, "headless", false, "run Chrome headless")
	hashToken := flag.String("hash-token", "", "print the bcrypt hash of a bearer token and exit")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	if *hashToken != "" {
		hash, err := shield.HashToken(*hashToken)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, o); err != nil {
		logger.Error("domshot: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, o options) error {
	cfg := domshot.DefaultConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = domshot.LoadConfigFile(o.configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if o.url != "" {
		cfg.Pages = []domshot.PageConfig{{ID: o.pageID, URL: o.url}}
	}
	if o.listen != "" {
		cfg.HTTP.Listen = o.listen
	}
	if o.headless {
		cfg.Browser.Mode = "headless"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sinks, err := domshot.BuildSinks(cfg, logger)
	if err != nil {
		return err
	}
	if o.out != "" {
		f, err := domshot.NewFileSink(o.out, o.markdown, logger)
		if err != nil {
			return err
		}
		sinks = append(sinks, f)
	}
	if len(sinks) == 0 {
		if o.mcp {
			// stdout carries the MCP stream.
			f, err := domshot.NewFileSink(".", false, logger)
			if err != nil {
				return err
			}
			sinks = append(sinks, f)
		} else {
			sinks = append(sinks, domshot.NewStdoutSink(os.Stdout))
		}
	}

	s := domshot.New(cfg, logger, sinks...)
	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer s.Stop()

	switch o.action {
	case "capture-svg", "capture-png", "select":
		return runOnce(ctx, logger, s, cfg, o)
	case "serve", "":
		return serve(ctx, logger, s, cfg, o)
	default:
		return fmt.Errorf("unknown action %q", o.action)
	}
}

func runOnce(ctx context.Context, logger *slog.Logger, s *domshot.Shooter, cfg *domshot.Config, o options) error {
	if len(cfg.Pages) == 0 {
		return errors.New("no page: use -url or pages in the config")
	}
	page, err := s.Page(cfg.Pages[0].ID)
	if err != nil {
		return err
	}

	var art *domshot.Artifact
	switch o.action {
	case "capture-svg":
		art, err = page.CapturePage(ctx, domshot.FormatSVG)
	case "capture-png":
		art, err = page.CapturePage(ctx, domshot.FormatPNG)
	default:
		var format domshot.Format // empty: capture.default_format
		if o.format != "" {
			if format, err = domshot.ParseFormat(o.format); err != nil {
				return err
			}
		}
		logger.Info("domshot: waiting for an element click (ESC cancels)", "page", page.ID())
		art, err = page.Pick(ctx, format)
	}
	if err != nil {
		return err
	}
	logger.Info("domshot: captured", "file", art.FileName(), "bytes", len(art.Data), "target", art.Target)
	return nil
}

func serve(ctx context.Context, logger *slog.Logger, s *domshot.Shooter, cfg *domshot.Config, o options) error {
	errc := make(chan error, 2)

	var srv *http.Server
	if cfg.HTTP.Listen != "" {
		srv = &http.Server{
			Addr:              cfg.HTTP.Listen,
			Handler:           s.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
			// Waiting selections hold the request open.
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			logger.Info("domshot: http starting", "addr", cfg.HTTP.Listen, "auth", cfg.HTTP.TokenHash != "")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("http: %w", err)
			}
		}()
	}

	if o.mcp {
		mcpSrv := mcp.NewServer(&mcp.Implementation{Name: "domshot", Version: "1.0.0"}, nil)
		s.RegisterMCP(mcpSrv)
		go func() {
			logger.Info("domshot: mcp stdio starting")
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				errc <- fmt.Errorf("mcp: %w", err)
			}
		}()
	}

	if srv == nil && !o.mcp {
		logger.Info("domshot: no command surface, pages stay open until interrupted")
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-errc:
	}
	logger.Info("domshot: shutting down")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			logger.Error("domshot: http shutdown", "error", serr)
		}
	}
	return err
}
