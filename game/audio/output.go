package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// bufferLatency is the speaker buffer length
const bufferLatency = 100 * time.Millisecond

// Output owns the speaker device and a mixer every clip is added to.
// Only one Output can exist per process.
type Output struct {
	mixer *beep.Mixer
	mu    sync.Mutex
	open  bool
}

// OpenOutput initializes the speaker and starts the mixer
func OpenOutput() (*Output, error) {
	if err := speaker.Init(SampleRate, SampleRate.N(bufferLatency)); err != nil {
		return nil, fmt.Errorf("speaker init: %w", err)
	}
	o := &Output{mixer: &beep.Mixer{}, open: true}
	speaker.Play(o.mixer)
	return o, nil
}

// Add mixes s into the output
func (o *Output) Add(s beep.Streamer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.open {
		return
	}
	speaker.Lock()
	o.mixer.Add(s)
	speaker.Unlock()
}

// Locked runs fn while holding the speaker lock
func (o *Output) Locked(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.open {
		return
	}
	speaker.Lock()
	fn()
	speaker.Unlock()
}

// Close silences the mixer and releases the device
func (o *Output) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.open {
		return
	}
	o.open = false
	speaker.Lock()
	o.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
}
