package audio

import (
	"sync"

	"github.com/gopxl/beep"
	"github.com/sirupsen/logrus"
)

// resampleQuality is the interpolation quality used for pitched loops
const resampleQuality = 4

type pendingCallback struct {
	name      string
	remaining float64
	done      func()
}

type loop struct {
	ctrl      *beep.Ctrl
	resampler *beep.Resampler
	pitch     float64
}

// Player implements engine.Audio and engine.LoopingAudio over a Bank.
// Completion callbacks are driven by simulated time through Update, so a
// stalled game never fires them. Output is optional; without it the player
// only keeps time.
type Player struct {
	bank    *Bank
	out     *Output
	log     logrus.FieldLogger
	mu      sync.Mutex
	pending []*pendingCallback
	loops   map[string]*loop
	muted   bool
	played  map[string]int
}

// NewPlayer creates a player over bank. out may be nil.
func NewPlayer(bank *Bank, out *Output, log logrus.FieldLogger) *Player {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Player{
		bank:   bank,
		out:    out,
		log:    log,
		loops:  make(map[string]*loop),
		played: make(map[string]int),
	}
}

// PlayOneShot plays clip once at volume
func (p *Player) PlayOneShot(clip string, volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.start(clip, volume)
}

// PlaySoundByName plays clip at full volume
func (p *Player) PlaySoundByName(name string) {
	p.PlayOneShot(name, 1)
}

// PlaySoundByNameWithCallback plays name and calls onComplete once the clip
// length has elapsed in simulated time. Unknown clips complete immediately.
func (p *Player) PlaySoundByNameWithCallback(name string, onComplete func()) {
	p.mu.Lock()
	p.start(name, 1)
	d, ok := p.bank.Duration(name)
	if !ok || d <= 0 {
		p.mu.Unlock()
		if onComplete != nil {
			onComplete()
		}
		return
	}
	p.pending = append(p.pending, &pendingCallback{name: name, remaining: d.Seconds(), done: onComplete})
	p.mu.Unlock()
}

// PlayLoop starts name looping at pitch, or retunes an active loop
func (p *Player) PlayLoop(name string, pitch float64) {
	if pitch <= 0 {
		pitch = 1
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if l, ok := p.loops[name]; ok {
		l.pitch = pitch
		if l.resampler != nil && p.out != nil {
			p.out.Locked(func() { l.resampler.SetRatio(pitch) })
		}
		return
	}

	l := &loop{pitch: pitch}
	p.loops[name] = l
	p.played[name]++
	if p.out == nil || p.muted {
		return
	}
	s, ok := p.bank.Streamer(name)
	if !ok {
		p.log.WithField("clip", name).Warn("Unknown loop clip")
		return
	}
	l.resampler = beep.ResampleRatio(resampleQuality, pitch, beep.Loop(-1, s))
	l.ctrl = &beep.Ctrl{Streamer: l.resampler, Paused: false}
	p.out.Add(l.ctrl)
}

// StopLoop stops a loop started with PlayLoop
func (p *Player) StopLoop(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.loops[name]
	if !ok {
		return
	}
	delete(p.loops, name)
	if l.ctrl != nil && p.out != nil {
		p.out.Locked(func() {
			l.ctrl.Streamer = nil
		})
	}
}

// LoopPitch returns the pitch of an active loop
func (p *Player) LoopPitch(name string) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.loops[name]
	if !ok {
		return 0, false
	}
	return l.pitch, true
}

// Update advances pending completion callbacks by dt seconds
func (p *Player) Update(dt float64) {
	p.mu.Lock()
	var due []func()
	kept := p.pending[:0]
	for _, cb := range p.pending {
		cb.remaining -= dt
		if cb.remaining <= 0 {
			if cb.done != nil {
				due = append(due, cb.done)
			}
			continue
		}
		kept = append(kept, cb)
	}
	p.pending = kept
	p.mu.Unlock()

	// callbacks re-enter the engine, which may play more sounds
	for _, fn := range due {
		fn()
	}
}

// Pending returns the number of outstanding completion callbacks
func (p *Player) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Played returns how many times clip was started
func (p *Player) Played(clip string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.played[clip]
}

// SetMuted silences new sounds. Active loops keep running.
func (p *Player) SetMuted(muted bool) {
	p.mu.Lock()
	p.muted = muted
	p.mu.Unlock()
}

// start must be called with p.mu held
func (p *Player) start(clip string, volume float64) {
	p.played[clip]++
	if p.out == nil || p.muted {
		return
	}
	s, ok := p.bank.Streamer(clip)
	if !ok {
		p.log.WithField("clip", clip).Debug("Unknown clip")
		return
	}
	p.out.Add(newVolume(s, volume))
}
