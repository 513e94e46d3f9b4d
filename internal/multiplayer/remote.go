package multiplayer

import (
	"sync"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/core"
)

// RemoteInput buffers frames pushed by a remote peer. When the buffer runs
// dry the last frame is repeated, so a late packet holds the keys instead of
// releasing them.
type RemoteInput struct {
	frames   chan core.InputFrame
	done     chan struct{}
	doneOnce sync.Once

	mu   sync.Mutex
	last core.InputFrame
}

// NewRemoteInput creates a buffer holding up to size frames.
func NewRemoteInput(size int) *RemoteInput {
	if size < 1 {
		size = 8 // Default buffer size
	}
	return &RemoteInput{
		frames: make(chan core.InputFrame, size),
		done:   make(chan struct{}),
		last:   core.NewInputFrame(),
	}
}

// Push queues a frame. If the buffer is full the oldest frame is dropped.
func (r *RemoteInput) Push(f core.InputFrame) {
	select {
	case <-r.done:
		return
	default:
	}

	select {
	case r.frames <- f:
		return
	default:
	}

	select {
	case <-r.frames:
	default:
	}
	select {
	case r.frames <- f:
	default:
	}
}

// Next returns the oldest queued frame or repeats the previous one.
// A closed source yields empty frames.
func (r *RemoteInput) Next(View) core.InputFrame {
	select {
	case <-r.done:
		return core.NewInputFrame()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	select {
	case f := <-r.frames:
		r.last = f.Clone()
		return f
	default:
		return r.last.Clone()
	}
}

// Pending returns the number of buffered frames.
func (r *RemoteInput) Pending() int {
	return len(r.frames)
}

// Close disconnects the peer. Safe to call multiple times.
func (r *RemoteInput) Close() {
	r.doneOnce.Do(func() {
		close(r.done)
	})
}

// Done returns a channel closed by Close.
func (r *RemoteInput) Done() <-chan struct{} {
	return r.done
}
