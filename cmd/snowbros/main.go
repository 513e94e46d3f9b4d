// snowbros is an arcade arena platformer for the terminal. Waves are planned
// by an AI director when one is reachable and by a built-in table otherwise.
//
// Usage:
//
//	snowbros play            - Play in this terminal
//	snowbros serve           - Start SSH server for remote play
//	snowbros director        - Serve the wave director and HUD API over HTTP
//	snowbros scores          - Show the leaderboard
//	snowbros simulate        - Run a headless autopilot game
//	snowbros schema          - Print the wave config JSON schema
//
// Global flags:
//
//	--fps <rate>        - Set tick rate (default: 60)
//	--seed <value>      - Set RNG seed for reproducible gameplay
//	--db <path>         - Set database path (default: ~/.snowbros/scores.db)
//	--config <path>     - Use a custom game config YAML
//	--log-level <lvl>   - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	flagFPS        int
	flagSeed       int64
	flagDBPath     string
	flagConfig     string
	flagLogLevel   string
	flagDifficulty string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "snowbros",
	Short: "Snow Bros - freeze, kick and survive in your terminal",
	Long: `Snow Bros is an arena platformer. Throw snow at enemies until they
freeze into snowballs, then kick the snowballs to clear the wave.
Every fifth wave a boss arrives.

Available commands:
  play      - Play in this terminal
  serve     - Start SSH server for remote play
  director  - Serve the wave director and HUD API over HTTP
  scores    - Show the leaderboard
  simulate  - Run a headless autopilot game
  schema    - Print the wave config JSON schema

Examples:
  snowbros play
  snowbros play --coop --api :8080
  snowbros serve --ssh :2222
  snowbros director --addr :8787 --demo
  snowbros scores --limit 20`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// .env is optional; variables already set win.
		_ = godotenv.Load()
	},
	SilenceUsage: true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 60, "Tick rate (frames per second)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.snowbros/scores.db", "Path to scores database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom game config YAML")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard, fixed")

	// Add subcommands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(directorCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(schemaCmd)
}

// fail prints an error the way every command reports it and exits.
func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
