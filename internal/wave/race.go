package wave

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Source records where an applied config came from.
type Source string

const (
	SourceDirector Source = "director"
	SourceFallback Source = "fallback"
	SourceBoss     Source = "boss"
)

// ErrTimeout is reported when the director does not answer before the deadline.
var ErrTimeout = errors.New("wave: director timed out")

// Result is the outcome of one wave request.
type Result struct {
	Wave   int
	Config Config
	Source Source
	Err    error // why the fallback was used, nil when the director won
}

type answer struct {
	cfg Config
	err error
}

// Race asks d for a wave and waits at most timeout for the answer. Whichever
// settles first wins: a director answer, a director error, the timer, or ctx.
// Anything other than a successful director answer yields Fallback(waveNumber).
// A director answer arriving after the deadline is discarded.
func Race(ctx context.Context, d Director, waveNumber int, perf Performance, timeout time.Duration) Result {
	res := Result{Wave: waveNumber, Config: Fallback(waveNumber), Source: SourceFallback}
	if d == nil {
		res.Err = errors.New("wave: no director")
		return res
	}

	// Buffered so a late answer never blocks the director goroutine.
	ch := make(chan answer, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- answer{err: fmt.Errorf("wave: director panic: %v", r)}
			}
		}()
		cfg, err := d.Generate(ctx, waveNumber, perf)
		ch <- answer{cfg: cfg, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case a := <-ch:
		if a.err != nil {
			res.Err = a.err
			return res
		}
		res.Config = a.cfg.Clone()
		res.Source = SourceDirector
		return res
	case <-timer.C:
		res.Err = ErrTimeout
		return res
	case <-ctx.Done():
		res.Err = ctx.Err()
		return res
	}
}
