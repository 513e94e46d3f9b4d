package sound

import (
	"math"
	"math/rand"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// SampleRate is the output rate of every streamer in this package.
const SampleRate = beep.SampleRate(44100)

// Wave is an oscillator shape.
type Wave int

const (
	WaveSine Wave = iota
	WaveSquare
	WaveSaw
	WaveNoise
)

type oscillator struct {
	freq     float64
	phase    float64
	position int
	duration int
	wave     Wave
	rng      *rand.Rand
}

// NewOscillator returns a finite mono tone duplicated to both channels.
func NewOscillator(freq float64, d time.Duration, wave Wave) beep.Streamer {
	return &oscillator{
		freq:     freq,
		duration: SampleRate.N(d),
		wave:     wave,
		rng:      rand.New(rand.NewSource(int64(freq*1000) + int64(d))),
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}
		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			val = 1
			if o.phase >= 0.5 {
				val = -1
			}
		case WaveSaw:
			val = 2 * (o.phase - 0.5)
		case WaveNoise:
			val = o.rng.Float64()*2 - 1
		}
		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.freq / float64(SampleRate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// sweep is an oscillator whose frequency slides linearly over its duration.
type sweep struct {
	from, to float64
	phase    float64
	position int
	duration int
	wave     Wave
}

func newSweep(from, to float64, d time.Duration, wave Wave) beep.Streamer {
	return &sweep{from: from, to: to, duration: SampleRate.N(d), wave: wave}
}

func (s *sweep) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if s.position >= s.duration {
			return i, i > 0
		}
		t := float64(s.position) / float64(s.duration)
		freq := s.from + (s.to-s.from)*t
		val := math.Sin(2 * math.Pi * s.phase)
		if s.wave == WaveSquare {
			val = 1
			if s.phase >= 0.5 {
				val = -1
			}
		}
		samples[i][0] = val
		samples[i][1] = val
		s.phase += freq / float64(SampleRate)
		s.phase -= math.Floor(s.phase)
		s.position++
	}
	return len(samples), true
}

func (s *sweep) Err() error { return nil }

type envelope struct {
	streamer beep.Streamer
	position int
	attack   int
	release  int
	total    int
}

// NewEnvelope applies a linear attack and release to s over d.
func NewEnvelope(s beep.Streamer, d, attack, release time.Duration) beep.Streamer {
	return &envelope{
		streamer: s,
		attack:   SampleRate.N(attack),
		release:  SampleRate.N(release),
		total:    SampleRate.N(d),
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		if e.position >= e.total {
			return i, i > 0
		}
		vol := 1.0
		if e.attack > 0 && e.position < e.attack {
			vol = float64(e.position) / float64(e.attack)
		}
		if start := e.total - e.release; e.release > 0 && e.position >= start {
			vol = float64(e.total-e.position) / float64(e.release)
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

func volume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// CueStreamer returns a fresh finite streamer for a cue.
func CueStreamer(c Cue) beep.Streamer {
	switch c {
	case CueShoot:
		d := 90 * time.Millisecond
		return volume(NewEnvelope(newSweep(880, 440, d, WaveSquare), d, 2*time.Millisecond, 40*time.Millisecond), 0.15)
	case CueJump:
		d := 150 * time.Millisecond
		return volume(NewEnvelope(newSweep(220, 660, d, WaveSine), d, 5*time.Millisecond, 60*time.Millisecond), 0.25)
	case CueEnemyHit:
		d := 120 * time.Millisecond
		return volume(NewEnvelope(NewOscillator(180, d, WaveSaw), d, 2*time.Millisecond, 80*time.Millisecond), 0.2)
	case CueExplosion:
		d := 400 * time.Millisecond
		return volume(NewEnvelope(NewOscillator(0, d, WaveNoise), d, 5*time.Millisecond, 350*time.Millisecond), 0.3)
	case CuePowerUp:
		note := 80 * time.Millisecond
		tone := func(f float64) beep.Streamer {
			return NewEnvelope(NewOscillator(f, note, WaveSine), note, 5*time.Millisecond, 30*time.Millisecond)
		}
		return volume(beep.Seq(tone(523.25), tone(659.25), tone(783.99), tone(1046.5)), 0.25)
	default:
		return beep.Silence(0)
	}
}

// melodies are note frequencies per beat; zero is a rest.
var melodies = map[Track]struct {
	notes []float64
	beat  time.Duration
	wave  Wave
}{
	TrackMenu: {[]float64{261.63, 329.63, 392, 329.63, 293.66, 349.23, 440, 349.23}, 250 * time.Millisecond, WaveSine},
	TrackGame: {[]float64{329.63, 0, 329.63, 392, 440, 0, 392, 329.63, 293.66, 0, 293.66, 349.23, 392, 0, 349.23, 293.66}, 150 * time.Millisecond, WaveSquare},
	TrackBoss: {[]float64{110, 110, 130.81, 110, 146.83, 110, 130.81, 98}, 120 * time.Millisecond, WaveSaw},
}

// sequencer plays a melody forever.
type sequencer struct {
	notes []float64
	beat  time.Duration
	wave  Wave
	index int
	cur   beep.Streamer
}

// TrackStreamer returns an endless streamer looping the track's melody.
func TrackStreamer(t Track) beep.Streamer {
	m, ok := melodies[t]
	if !ok {
		return beep.Silence(-1)
	}
	return volume(&sequencer{notes: m.notes, beat: m.beat, wave: m.wave}, 0.08)
}

func (s *sequencer) next() beep.Streamer {
	f := s.notes[s.index%len(s.notes)]
	s.index++
	if f == 0 {
		return beep.Silence(SampleRate.N(s.beat))
	}
	return NewEnvelope(NewOscillator(f, s.beat, s.wave), s.beat, 5*time.Millisecond, s.beat/3)
}

func (s *sequencer) Stream(samples [][2]float64) (n int, ok bool) {
	for n < len(samples) {
		if s.cur == nil {
			s.cur = s.next()
		}
		m, more := s.cur.Stream(samples[n:])
		n += m
		if !more || m == 0 {
			s.cur = nil
		}
	}
	return n, true
}

func (s *sequencer) Err() error { return nil }
