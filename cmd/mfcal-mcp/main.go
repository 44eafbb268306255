// mfcal-mcp serves calendar operations over the Model Context Protocol on
// stdio. It expects a persisted session (run `mfcal login` first) or an
// MFC-prefixed environment carrying one.
package main

import (
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/s153756/My-Friend-Calendar/cache"
	"github.com/s153756/My-Friend-Calendar/client"
	"github.com/s153756/My-Friend-Calendar/internal/config"
	"github.com/s153756/My-Friend-Calendar/mcp/handlers"
	"github.com/s153756/My-Friend-Calendar/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}
	config.InitLogger(cfg.LogLevel)

	store := session.NewStore(session.Options{PersistPath: cfg.SessionPath()})
	api := client.New(cfg.APIURL, store)
	defer func() { _ = api.Close() }()

	events := cache.New()
	syncer := cache.NewSyncer(store, api, events)
	defer syncer.Stop()

	srv := server.NewMCPServer(
		"my-friend-calendar",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	if err := handlers.NewEventsHandler(api, events).RegisterTools(srv); err != nil {
		log.Error().Err(err).Msg("tool registration failed")
		os.Exit(1)
	}

	log.Info().Str("api", cfg.APIURL).Msg("serving MCP on stdio")
	if err := server.ServeStdio(srv); err != nil {
		log.Error().Err(err).Msg("mcp server exited")
		os.Exit(1)
	}
}
