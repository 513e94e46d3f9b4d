package sound

import (
	"testing"
	"time"
)

func drain(t *testing.T, c Cue) (frames int, peak float64) {
	t.Helper()
	s := CueStreamer(c)
	buf := make([][2]float64, 512)
	for i := 0; i < 1000; i++ {
		n, ok := s.Stream(buf)
		frames += n
		for _, v := range buf[:n] {
			if v[0] > peak {
				peak = v[0]
			}
		}
		if !ok {
			return frames, peak
		}
	}
	t.Fatalf("cue %v never finished", c)
	return 0, 0
}

func TestCueStreamersFinite(t *testing.T) {
	cues := []Cue{CueShoot, CueJump, CueEnemyHit, CueExplosion, CuePowerUp}
	for _, c := range cues {
		t.Run(c.String(), func(t *testing.T) {
			frames, peak := drain(t, c)
			if frames == 0 || frames > SampleRate.N(time.Second) {
				t.Errorf("frames = %d, expected a short cue", frames)
			}
			if peak <= 0 {
				t.Error("cue is silent")
			}
		})
	}
}

func TestTrackStreamerEndless(t *testing.T) {
	s := TrackStreamer(TrackGame)
	buf := make([][2]float64, 4096)
	for i := 0; i < 50; i++ {
		n, ok := s.Stream(buf)
		if !ok || n != len(buf) {
			t.Fatalf("Stream() = %d, %v on chunk %d", n, ok, i)
		}
	}
}

func nonZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return true
		}
	}
	return false
}

func TestPlayerMixAndMute(t *testing.T) {
	p := NewPlayer()
	buf := make([]byte, 4*1024)

	p.Read(buf)
	if nonZero(buf) {
		t.Error("empty mix should be silent")
	}

	p.Play(CueExplosion)
	p.Read(buf)
	if !nonZero(buf) {
		t.Error("cue should produce sound")
	}

	p.SetMuted(true)
	if !p.Muted() {
		t.Error("Muted() = false after SetMuted(true)")
	}
	p.Read(buf)
	if nonZero(buf) {
		t.Error("muted player should write silence")
	}
}

func TestPlayerMusic(t *testing.T) {
	p := NewPlayer()
	buf := make([]byte, 4*256)

	p.PlayTrack(TrackGame)
	p.PlayTrack(TrackGame)
	if got := p.Playing(); got != 1 {
		t.Errorf("Playing() = %d, expected 1 after repeated PlayTrack", got)
	}

	p.PlayTrack(TrackBoss)
	p.StopMusic()
	p.Read(buf)
	if got := p.Playing(); got != 0 {
		t.Errorf("Playing() = %d, expected 0 after StopMusic", got)
	}
}

type signalWriter struct {
	wrote chan struct{}
}

func (w *signalWriter) Write(b []byte) (int, error) {
	select {
	case w.wrote <- struct{}{}:
	default:
	}
	return len(b), nil
}

func TestPlayerPump(t *testing.T) {
	p := NewPlayer()
	w := &signalWriter{wrote: make(chan struct{}, 1)}
	p.Start(w)
	defer p.Close()

	select {
	case <-w.wrote:
	case <-time.After(2 * time.Second):
		t.Fatal("pump never wrote")
	}
}

func TestNop(t *testing.T) {
	var n Nop
	n.Play(CueShoot)
	n.PlayTrack(TrackMenu)
	n.StopMusic()
	n.SetMuted(true)
	if !n.Muted() {
		t.Error("Nop should remember mute")
	}
}
