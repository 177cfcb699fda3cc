package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"time"

	"github.com/viant/mcp-protocol/schema"
	mcpsrv "github.com/viant/mcp/server"
	"golang.org/x/sync/errgroup"

	emcp "github.com/viant/casebot/mcp"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(args []string) error {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	c := commonFlags(flags)
	mcpAddr := flags.String("mcp-addr", "", "MCP server address (default from config or 127.0.0.1:6061)")
	flags.Parse(args)

	ctx, cancel := signalContext()
	defer cancel()
	cfg, log, err := c.load(ctx)
	if err != nil {
		return err
	}
	defer log.Sync()
	if *mcpAddr != "" {
		cfg.MCPServer.Addr = *mcpAddr
	}
	addr := cfg.MCPAddr()

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	server, err := mcpsrv.New(
		mcpsrv.WithImplementation(schema.Implementation{Name: "casebot-mcp", Version: "0.1.0"}),
		mcpsrv.WithNewHandler(emcp.NewHandler(app.tools, app.assistant, app.index, log)),
		mcpsrv.WithEndpointAddress(addr),
		mcpsrv.WithRootRedirect(true),
		mcpsrv.WithStreamableURI("/mcp"),
	)
	if err != nil {
		return err
	}
	server.UseStreamableHTTP(true)
	httpServer := server.HTTP(ctx, addr)
	httpServer.ReadHeaderTimeout = 10 * time.Second
	httpServer.ReadTimeout = 60 * time.Second
	// ask runs the agent loop, so writes may take up to the request timeout.
	httpServer.WriteTimeout = cfg.Agent.RequestTimeout + 30*time.Second
	httpServer.IdleTimeout = 120 * time.Second

	log.Info("casebot-mcp listening", "addr", httpServer.Addr)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down", "addr", httpServer.Addr)
		ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		return httpServer.Shutdown(ctxShutdown)
	})
	if err := group.Wait(); err != nil {
		return err
	}
	log.Info("casebot-mcp stopped")
	return nil
}
