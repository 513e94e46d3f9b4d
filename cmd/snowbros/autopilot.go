package main

import (
	"context"
	"time"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/engine"
	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/multiplayer"
)

// autopilot drives every player of a headless run with follower AIs.
type autopilot struct {
	eng     *engine.Engine
	players map[core.PlayerID]*multiplayer.FollowerAI
}

func newAutopilot(eng *engine.Engine, seed int64) *autopilot {
	a := &autopilot{eng: eng, players: make(map[core.PlayerID]*multiplayer.FollowerAI)}
	for i, id := range eng.Mode().Players() {
		a.players[id] = multiplayer.NewFollowerAI(seed + int64(i))
	}
	return a
}

// input returns one frame for all players.
func (a *autopilot) input() core.MultiInputFrame {
	in := core.NewMultiInputFrame()
	for id, ai := range a.players {
		in.SetPlayer(id, ai.Next(a.eng.View(id)))
	}
	return in
}

// runRealtime drives eng at fps until ctx is done, restarting after each
// game over once restartAfter has passed.
func runRealtime(ctx context.Context, eng *engine.Engine, pilot *autopilot, fps int, restartAfter time.Duration) {
	if fps <= 0 {
		fps = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var overAt time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if eng.State().GameOver() {
				if overAt.IsZero() {
					overAt = now
				}
				if now.Sub(overAt) >= restartAfter {
					overAt = time.Time{}
					eng.Restart()
				}
				continue
			}
			eng.Frame(now, pilot.input())
		}
	}
}
