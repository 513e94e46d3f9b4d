package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/api"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/engine"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/multiplayer"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/platform/tui"
)

var (
	flagSSHAddr      string
	flagHostKey      string
	flagIdleTimeout  int
	flagServeAPI     string
	flagServeMode    string
	flagServeDirecBy string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Snow Bros SSH server",
	Long: `Start an SSH server that allows users to connect and play.

Each SSH connection gets its own run. The SSH user name is the player
name on the shared leaderboard.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.snowbros/host_key

Examples:
  snowbros serve                           # Listen on :23234 with auto-generated key
  snowbros serve --ssh :2222               # Listen on port 2222
  snowbros serve --mode coop               # Every session gets an AI partner
  snowbros serve --api :8080               # Also serve leaderboard and metrics

Users can connect with:
  ssh localhost -p 23234`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	serveCmd.Flags().StringVar(&flagServeAPI, "api", "", "Serve leaderboard and metrics on this address")
	serveCmd.Flags().StringVar(&flagServeMode, "mode", "solo", "Match mode: solo, coop")
	serveCmd.Flags().StringVar(&flagServeDirecBy, "director", directorRemote, "Wave director: remote, local, off")
}

func runServe(cmd *cobra.Command, _ []string) {
	logger := newLogger(os.Stderr, "snowbros-ssh")

	mode, ok := multiplayer.ParseMode(flagServeMode)
	if !ok {
		fail("unknown mode %q", flagServeMode)
	}

	gameCfg := loadGameConfig()
	dir, err := newDirector(flagServeDirecBy, gameCfg, logger)
	if err != nil {
		fail("%v", err)
	}

	store := openStore(logger)
	if store != nil {
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recorder engine.Recorder
	if flagServeAPI != "" {
		rc := api.RouterConfig{Logger: logger.WithPrefix("api")}
		if store != nil {
			rc.Leaderboard = store
		}
		srv := api.NewServer(api.Config{Router: rc})
		recorder = srv.Metrics()
		go func() {
			if err := srv.ListenAndServe(ctx, flagServeAPI); err != nil {
				logger.Error("api server stopped", "error", err)
			}
		}()
	}

	cfg := tui.DefaultSSHServerConfig()
	cfg.Address = flagSSHAddr
	cfg.HostKeyPath = flagHostKey
	cfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
	cfg.TickRate = flagFPS
	cfg.Mode = mode
	cfg.Game = gameCfg

	server, err := tui.NewSSHServer(cfg, store, dir, recorder, logger)
	if err != nil {
		fail("creating server: %v", err)
	}

	fmt.Printf("Starting Snow Bros SSH server on %s\n", cfg.Address)
	if _, port, splitErr := net.SplitHostPort(cfg.Address); splitErr == nil {
		fmt.Printf("Connect with: ssh localhost -p %s\n", port)
	}
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(ctx); err != nil && ctx.Err() == nil {
		fail("server: %v", err)
	}
}
