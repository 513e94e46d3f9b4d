package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/platform/tui"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/storage"
)

var (
	flagScoresLimit  int
	flagScoresPlayer string
	flagScoresTUI    bool
	flagScoresClear  bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show the leaderboard",
	Long: `Display the best score of each player, or one player's recent runs.

Examples:
  snowbros scores
  snowbros scores --limit 25
  snowbros scores --player alice
  snowbros scores --tui`,
	Args: cobra.NoArgs,
	Run:  runScores,
}

func init() {
	scoresCmd.Flags().IntVar(&flagScoresLimit, "limit", 10, "Number of entries to show")
	scoresCmd.Flags().StringVar(&flagScoresPlayer, "player", "", "Show recent runs of this player")
	scoresCmd.Flags().BoolVar(&flagScoresTUI, "tui", false, "Browse the leaderboard interactively")
	scoresCmd.Flags().BoolVar(&flagScoresClear, "clear", false, "Delete all recorded runs")
}

func runScores(cmd *cobra.Command, _ []string) {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fail("opening scores database: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	switch {
	case flagScoresClear:
		if err := store.Clear(ctx); err != nil {
			fail("clearing scores: %v", err)
		}
		fmt.Println("Leaderboard cleared.")
	case flagScoresTUI:
		width, height := 80, 24
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width, height = w, h
		}
		if err := tui.RunLeaderboard(store, width, height); err != nil {
			fail("%v", err)
		}
	case flagScoresPlayer != "":
		printPlayerRuns(ctx, store, flagScoresPlayer)
	default:
		printLeaderboard(ctx, store)
	}
}

func printLeaderboard(ctx context.Context, store *storage.Store) {
	entries, err := store.Leaderboard(ctx, flagScoresLimit)
	if err != nil {
		fail("retrieving scores: %v", err)
	}

	fmt.Println("Snow Bros - Leaderboard")
	fmt.Println()

	if len(entries) == 0 {
		fmt.Println("No scores recorded yet.")
		fmt.Println()
		fmt.Println("Play 'snowbros play' to set the first high score!")
		return
	}

	fmt.Printf("  %-4s  %-16s  %-10s  %-4s  %s\n", "Rank", "Player", "Score", "Wave", "Date")
	fmt.Printf("  %-4s  %-16s  %-10s  %-4s  %s\n", "----", "------", "-----", "----", "----")
	for i, e := range entries {
		fmt.Printf("  %-4d  %-16s  %-10d  %-4d  %s\n",
			i+1, e.PlayerName, e.Score, e.Wave, e.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}

	if stats, err := store.Stats(ctx); err == nil && stats.Runs > 0 {
		fmt.Println()
		fmt.Printf("Runs: %d  Players: %d  Average: %.0f  Furthest wave: %d\n",
			stats.Runs, stats.Players, stats.AvgScore, stats.MaxWave)
	}
}

func printPlayerRuns(ctx context.Context, store *storage.Store, player string) {
	runs, err := store.PlayerRuns(ctx, player, flagScoresLimit)
	if err != nil {
		fail("retrieving runs: %v", err)
	}

	fmt.Printf("Snow Bros - Runs of %s\n", player)
	fmt.Println()

	if len(runs) == 0 {
		fmt.Println("No runs recorded for this player.")
		return
	}

	fmt.Printf("  %-10s  %-4s  %s\n", "Score", "Wave", "Date")
	fmt.Printf("  %-10s  %-4s  %s\n", "-----", "----", "----")
	for _, r := range runs {
		fmt.Printf("  %-10d  %-4d  %s\n", r.Score, r.Wave, r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}

	if best, err := store.HighScore(ctx, player); err == nil {
		fmt.Println()
		fmt.Printf("Best: %d\n", best)
	}
}
