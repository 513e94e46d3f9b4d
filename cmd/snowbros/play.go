package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/api"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/config"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/engine"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/multiplayer"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/platform/tui"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/sound"
)

var (
	flagCoop       bool
	flagName       string
	flagGuest      bool
	flagPlayAPI    string
	flagDirectorBy string
	flagNoSound    bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in this terminal",
	Long: `Start a run in this terminal.

Controls:
  Left/Right, A/D  - Walk
  Space/Z          - Jump
  X/L              - Throw snow
  Up/Down, W/S     - Float (as a ghost in coop)
  P/Esc            - Pause
  R                - Restart (after game over or while paused)
  M                - Mute
  Tab              - Leaderboard
  Ctrl+S           - Screenshot (text and PNG)
  Q/Ctrl+C         - Quit

Runs are recorded under --name, or $USER when unset. Guests are not recorded.

Director options:
  remote - Ask the generative director from the config (default)
  local  - Generate waves in-process
  off    - Use the built-in wave table

Examples:
  snowbros play
  snowbros play --coop
  snowbros play --director local --difficulty hard
  snowbros play --api :8080   # stream the HUD to overlays`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&flagCoop, "coop", false, "Play with an AI partner")
	playCmd.Flags().StringVar(&flagName, "name", "", "Player name for the leaderboard (default $USER)")
	playCmd.Flags().BoolVar(&flagGuest, "guest", false, "Play without recording the score")
	playCmd.Flags().StringVar(&flagPlayAPI, "api", "", "Serve the HUD stream, leaderboard and metrics on this address")
	playCmd.Flags().StringVar(&flagDirectorBy, "director", directorRemote, "Wave director: remote, local, off")
	playCmd.Flags().BoolVar(&flagNoSound, "no-sound", false, "Disable audio")
}

func runPlay(cmd *cobra.Command, _ []string) {
	logFile := openLogFile()
	defer logFile.Close()
	logger := newLogger(logFile, "snowbros")

	gameCfg := loadGameConfig()

	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	dir, err := newDirector(flagDirectorBy, gameCfg, logger)
	if err != nil {
		fail("%v", err)
	}

	prefsPath := config.PreferencesPath()
	prefs, err := config.LoadPreferences(prefsPath)
	if err != nil {
		logger.Warn("could not load preferences", "error", err)
	}

	var audio engine.Audio = &sound.Nop{}
	if !flagNoSound {
		player, sndErr := sound.Open()
		if sndErr != nil {
			logger.Warn("audio unavailable", "error", sndErr)
		}
		defer player.Close()
		audio = player
	}
	audio.SetMuted(prefs.Muted)

	identity := multiplayer.NewGuest()
	if !flagGuest {
		name := flagName
		if name == "" {
			name = os.Getenv("USER")
		}
		identity = multiplayer.NewIdentity(name)
	}

	mode := multiplayer.ModeSolo
	if flagCoop {
		mode = multiplayer.ModeCoop
	}

	store := openStore(logger)
	if store != nil {
		defer store.Close()
	}

	cfg := tui.Config{
		Engine: engine.Options{
			Runtime: core.RuntimeConfig{
				ScreenW:  width,
				ScreenH:  height,
				TickRate: flagFPS,
				Seed:     flagSeed,
			},
			Game:     gameCfg,
			Mode:     mode,
			Identity: identity,
			Director: dir,
			Audio:    audio,
			Logger:   logger,
		},
		PrefsPath: prefsPath,
	}
	if store != nil {
		cfg.Engine.Leaderboard = store
		cfg.Leaderboard = store
	}

	if flagPlayAPI != "" {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		rc := api.RouterConfig{Logger: logger.WithPrefix("api")}
		if store != nil {
			rc.Leaderboard = store
		}
		srv := api.NewServer(api.Config{Router: rc})
		defer srv.Stop()

		cfg.Engine.Observer = srv.Hub().Publish
		cfg.Engine.Recorder = srv.Metrics()

		go func() {
			if err := srv.ListenAndServe(ctx, flagPlayAPI); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("api server stopped", "error", err)
			}
		}()
	}

	if err := tui.Run(cfg); err != nil {
		fail("running game: %v", err)
	}
}
