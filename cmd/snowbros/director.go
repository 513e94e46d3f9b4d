package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/api"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/director"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/engine"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/wave"
)

var (
	flagDirectorAddr string
	flagDirectorDemo bool
	flagRPS          float64
	flagBurst        int
)

var directorCmd = &cobra.Command{
	Use:   "director",
	Short: "Serve the wave director and HUD API over HTTP",
	Long: `Start an HTTP server speaking the generative director protocol, backed
by the in-process procedural generator. Point director.endpoint at it to
play against a local director.

Routes:
  POST /api/director/generate  - Generate a wave config
  GET  /api/leaderboard        - Best score per player
  GET  /api/schema             - Wave config JSON schema
  GET  /api/hud                - Current HUD state
  GET  /ws                     - HUD patch stream
  GET  /metrics                - Prometheus metrics

When the director.api_key_env variable is set, requests must carry it in
the X-Api-Key header.

With --demo an autopilot run plays continuously and streams its HUD.

Examples:
  snowbros director
  snowbros director --addr :9000 --demo`,
	Args: cobra.NoArgs,
	Run:  runDirector,
}

func init() {
	directorCmd.Flags().StringVar(&flagDirectorAddr, "addr", "127.0.0.1:8787", "HTTP listen address")
	directorCmd.Flags().BoolVar(&flagDirectorDemo, "demo", false, "Run an autopilot game streaming to /ws")
	directorCmd.Flags().Float64Var(&flagRPS, "rps", api.DefaultRateLimitConfig.RequestsPerSecond, "Per-IP requests per second")
	directorCmd.Flags().IntVar(&flagBurst, "burst", api.DefaultRateLimitConfig.Burst, "Per-IP burst")
}

func runDirector(cmd *cobra.Command, _ []string) {
	logger := newLogger(os.Stderr, "snowbros-director")
	gameCfg := loadGameConfig()
	proc := director.NewProcedural(wave.DefaultBounds(gameCfg.World.Width, gameCfg.World.Height))

	store := openStore(logger)
	if store != nil {
		defer store.Close()
	}

	rl := api.DefaultRateLimitConfig
	rl.RequestsPerSecond = flagRPS
	rl.Burst = flagBurst

	rc := api.RouterConfig{
		Director: proc,
		Logger:   logger,
		APIKey:   os.Getenv(gameCfg.Director.APIKeyEnv),
	}
	if store != nil {
		rc.Leaderboard = store
	}
	srv := api.NewServer(api.Config{Router: rc, RateLimit: rl})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagDirectorDemo {
		seed := flagSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		eng := engine.New(engine.Options{
			Runtime:  core.RuntimeConfig{TickRate: flagFPS, Seed: seed},
			Game:     gameCfg,
			Director: proc,
			Observer: srv.Hub().Publish,
			Recorder: srv.Metrics(),
			Logger:   logger.WithPrefix("demo"),
		})
		eng.Start()
		done := make(chan struct{})
		go func() {
			defer close(done)
			runRealtime(ctx, eng, newAutopilot(eng, seed), flagFPS, 5*time.Second)
		}()
		defer func() {
			stop()
			<-done
			eng.Close()
		}()
	}

	fmt.Printf("Director listening on http://%s\n", flagDirectorAddr)
	if err := srv.ListenAndServe(ctx, flagDirectorAddr); err != nil {
		fail("%v", err)
	}
}
