package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"planboard/internal/domain"
	mcpserver "planboard/internal/mcp"
	"planboard/internal/service"
)

// ServeMCP runs a stdio MCP server bound to one user's canvas until stdin
// closes. Logs go to stderr since stdout carries the protocol. The layout
// is saved on exit.
func ServeMCP(ctx context.Context, identity domain.Identity, opts ...Option) error {
	a := newApplication(opts)
	if a.config == nil {
		return fmt.Errorf("config is required")
	}
	if a.logger == nil {
		a.logger = newLogger(os.Stderr, a.config.App.LogLevel)
		slog.SetDefault(a.logger)
	}

	comps, err := build(ctx, a, service.NopEmitter{})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), a.config.Save.Timeout)
		defer cancel()
		_ = comps.close(flushCtx)
	}()

	srv, err := mcpserver.New(ctx, mcpserver.Deps{
		Sessions: comps.sessions,
		Catalog:  comps.drillCatalog(),
		Identity: identity,
		Log:      a.logger,
	})
	if err != nil {
		return fmt.Errorf("init mcp server: %w", err)
	}
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}
