package sound

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
)

// ErrNoBackend is returned when no supported audio tool is installed.
var ErrNoBackend = errors.New("sound: no audio backend found")

// bufferDuration is the length of PCM produced per pump tick.
const bufferDuration = 20 * time.Millisecond

// Backend is an external program that plays raw s16le stereo PCM from stdin.
type Backend struct {
	Name string
	Path string
	Args []string
}

// DetectBackend looks for pacat, then aplay.
func DetectBackend() (*Backend, error) {
	rate := fmt.Sprint(int(SampleRate))
	if path, err := exec.LookPath("pacat"); err == nil {
		return &Backend{
			Name: "pacat",
			Path: path,
			Args: []string{"--raw", "--format=s16le", "--rate=" + rate, "--channels=2", "--latency-msec=50", "--playback"},
		}, nil
	}
	if path, err := exec.LookPath("aplay"); err == nil {
		return &Backend{
			Name: "aplay",
			Path: path,
			Args: []string{"-t", "raw", "-f", "S16_LE", "-r", rate, "-c", "2", "-q"},
		}, nil
	}
	return nil, ErrNoBackend
}

// Player mixes cues over an optional music track. It is safe for concurrent use.
type Player struct {
	mu    sync.Mutex
	mixer *beep.Mixer
	music *beep.Ctrl
	track Track

	muted   atomic.Bool
	running atomic.Bool
	stop    chan struct{}
	wg      sync.WaitGroup

	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// NewPlayer creates a player that produces PCM only when read or pumped.
func NewPlayer() *Player {
	return &Player{mixer: &beep.Mixer{}, stop: make(chan struct{})}
}

// Open starts the detected backend and pumps PCM into it. When no backend is
// available the returned player is silent and ErrNoBackend is returned.
func Open() (*Player, error) {
	p := NewPlayer()
	b, err := DetectBackend()
	if err != nil {
		return p, err
	}
	cmd := exec.Command(b.Path, b.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return p, fmt.Errorf("sound: cannot open %s: %w", b.Name, err)
	}
	if err := cmd.Start(); err != nil {
		return p, fmt.Errorf("sound: cannot start %s: %w", b.Name, err)
	}
	p.cmd = cmd
	p.stdin = stdin
	p.Start(stdin)
	return p, nil
}

// Start pumps mixed PCM into w until Close. Write errors stop the pump.
func (p *Player) Start(w io.Writer) {
	if !p.running.CompareAndSwap(false, true) {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(bufferDuration)
		defer ticker.Stop()
		buf := make([]byte, SampleRate.N(bufferDuration)*4)
		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				p.Read(buf)
				if _, err := w.Write(buf); err != nil {
					return
				}
			}
		}
	}()
}

// Read fills buf with interleaved s16le stereo frames. It never fails.
func (p *Player) Read(buf []byte) (int, error) {
	frames := len(buf) / 4
	samples := make([][2]float64, frames)

	p.mu.Lock()
	p.mixer.Stream(samples)
	p.mu.Unlock()

	muted := p.muted.Load()
	for i, s := range samples {
		l, r := s[0], s[1]
		if muted {
			l, r = 0, 0
		}
		binary.LittleEndian.PutUint16(buf[i*4:], uint16(toInt16(l)))
		binary.LittleEndian.PutUint16(buf[i*4+2:], uint16(toInt16(r)))
	}
	return frames * 4, nil
}

func toInt16(v float64) int16 {
	v = math.Max(-1, math.Min(1, v))
	return int16(v * math.MaxInt16)
}

// Play adds a cue to the mix. Muted players drop cues.
func (p *Player) Play(c Cue) {
	if p.muted.Load() {
		return
	}
	p.mu.Lock()
	p.mixer.Add(CueStreamer(c))
	p.mu.Unlock()
}

// PlayTrack replaces the current music.
func (p *Player) PlayTrack(t Track) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.music != nil && !p.music.Paused && p.track == t {
		return
	}
	if p.music != nil {
		p.music.Paused = true
		p.music.Streamer = nil
	}
	p.music = &beep.Ctrl{Streamer: TrackStreamer(t)}
	p.track = t
	p.mixer.Add(p.music)
}

// StopMusic silences the current track.
func (p *Player) StopMusic() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.music != nil {
		p.music.Paused = true
		p.music.Streamer = nil
		p.music = nil
	}
}

// SetMuted mutes or unmutes all output.
func (p *Player) SetMuted(m bool) {
	p.muted.Store(m)
}

// Muted reports the mute flag.
func (p *Player) Muted() bool {
	return p.muted.Load()
}

// Playing returns the number of streamers in the mix.
func (p *Player) Playing() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mixer.Len()
}

// Close stops the pump and the backend process.
func (p *Player) Close() error {
	if p.running.CompareAndSwap(true, false) {
		close(p.stop)
	}
	p.wg.Wait()
	if p.stdin != nil {
		p.stdin.Close()
	}
	if p.cmd != nil && p.cmd.Process != nil {
		p.cmd.Process.Kill()
		p.cmd.Wait()
	}
	return nil
}
