package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/engine"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/entity"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/hud"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/multiplayer"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/render"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/wave"
)

var (
	flagSimSteps    int
	flagSimCoop     bool
	flagSimDirector string
	flagSimPNG      string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a headless autopilot game",
	Long: `Run the simulation without a terminal, with AI players, for a fixed
number of steps or until game over, then print a summary. Useful for soak
testing balance changes and directors.

With the default --director off and a fixed --seed, runs are reproducible.

Examples:
  snowbros simulate --seed 42
  snowbros simulate --coop --steps 72000
  snowbros simulate --director local --png last.png`,
	Args: cobra.NoArgs,
	Run:  runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&flagSimSteps, "steps", 36000, "Maximum fixed steps to run")
	simulateCmd.Flags().BoolVar(&flagSimCoop, "coop", false, "Simulate a coop run")
	simulateCmd.Flags().StringVar(&flagSimDirector, "director", directorOff, "Wave director: remote, local, off")
	simulateCmd.Flags().StringVar(&flagSimPNG, "png", "", "Save the final frame as a PNG")
}

func runSimulate(_ *cobra.Command, _ []string) {
	logger := newLogger(os.Stderr, "snowbros-sim")
	gameCfg := loadGameConfig()

	dir, err := newDirector(flagSimDirector, gameCfg, logger)
	if err != nil {
		fail("%v", err)
	}

	seed := flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	mode := multiplayer.ModeSolo
	if flagSimCoop {
		mode = multiplayer.ModeCoop
	}

	var (
		waves    int
		bosses   int
		messages []string
	)
	observer := func(p hud.Patch) {
		if p.Wave != nil {
			waves = *p.Wave
			if wave.IsBossWave(waves, gameCfg.Gameplay.BossWaveEvery) {
				bosses++
			}
		}
		if p.Message != nil {
			messages = append(messages, *p.Message)
		}
	}

	eng := engine.New(engine.Options{
		Runtime:  core.RuntimeConfig{TickRate: flagFPS, Seed: seed},
		Game:     gameCfg,
		Mode:     mode,
		Director: dir,
		Observer: observer,
		Logger:   logger,
	})
	defer eng.Close()
	pilot := newAutopilot(eng, seed)

	start := time.Now()
	eng.Start()
	steps := 0
	for steps < flagSimSteps && !eng.State().GameOver() {
		eng.Step(pilot.input())
		steps++
	}
	elapsed := time.Since(start)

	st := eng.State()
	snap := eng.Snapshot()
	fmt.Printf("Seed:       %d\n", seed)
	fmt.Printf("Mode:       %s\n", mode)
	fmt.Printf("Steps:      %d (%s simulated, %s wall)\n", steps, eng.SimTime().Round(time.Second), elapsed.Round(time.Millisecond))
	fmt.Printf("Phase:      %s\n", st.Phase)
	fmt.Printf("Score:      %d\n", st.Score)
	fmt.Printf("Wave:       %d\n", waves)
	fmt.Printf("Boss waves: %d\n", bosses)
	fmt.Printf("Entities:   %d enemies, %d snowballs, %d projectiles\n",
		snap.Count(entity.KindEnemy), snap.Count(entity.KindSnowball), snap.Count(entity.KindProjectile))
	if len(messages) > 0 {
		fmt.Printf("Last HUD:   %s\n", messages[len(messages)-1])
	}

	if flagSimPNG != "" {
		if err := render.SavePNG(flagSimPNG, snap, 1); err != nil {
			fail("saving frame: %v", err)
		}
		fmt.Printf("Frame:      %s\n", flagSimPNG)
	}
}
