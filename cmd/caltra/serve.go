// ABOUTME: CLI command for running the HTTP JSON API.
// ABOUTME: Wires sessions, CORS, and the tracker into the server and shuts down on signals.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/caltra/internal/auth"
	"github.com/harperreed/caltra/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the JSON API used by the caltra web client.

Accounts sign up and sign in with email and password. Sessions are signed
tokens carried in an HTTP-only cookie or an Authorization: Bearer header.

CONFIGURATION:

  JWT_SECRET      Session signing secret (required)
  PORT            Listen port (default 8080, or listen_addr in config)
  CORS_ORIGIN     Allowed browser origins, comma separated
                  (default http://localhost:3000)
  COOKIE_SECURE   Mark the session cookie Secure (true behind HTTPS)
  OPENROUTER_API_KEY  Enables /api/analyze-food

EXAMPLES:

  JWT_SECRET=change-me caltra serve
  caltra serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.JWTSecret == "" {
			return errors.New("serve requires a session secret (set JWT_SECRET or jwt_secret in config)")
		}
		am, err := auth.NewManager(cfg.JWTSecret, repo)
		if err != nil {
			return fmt.Errorf("failed to set up sessions: %w", err)
		}

		srv := server.New(svc, am, server.Options{
			CORSOrigins:  cfg.GetCORSOrigins(),
			CookieSecure: cfg.CookieSecure,
		})

		addr := serveAddr
		if addr == "" {
			addr = cfg.GetListenAddr()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config or PORT)")
	rootCmd.AddCommand(serveCmd)
}
