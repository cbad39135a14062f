package engine

import (
	"errors"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Lifecycle
	Start() error
	Close()

	// Simulation
	Tick(dt float64)
	Swipe(g Gesture) bool
	Slide(dir Direction) bool
	Skip() bool

	// Pause and panels
	SetPaused(paused bool)
	SetPanelOpen(open bool)

	// Levels and progress
	ActivateLevel(index int) error
	ActivateNext() error
	ReplacePiece() error
	ResetProgress() error

	// Introspection
	Snapshot() *Snapshot
}

// Options configures a Game. Levels and Tuning are required; every
// collaborator may be nil, in which case its cosmetic step is skipped.
type Options struct {
	Tuning   Tuning
	Levels   []*Level
	Audio    Audio
	Ads      Ads
	Camera   Camera
	HUD      HUD
	Effects  Effects
	Progress ProgressStore
	Pause    *PauseBus
	Observer Observer
	Updaters []Updater
	Logger   logrus.FieldLogger
	Rand     *rand.Rand
}

// Game is the composition root of one simulation. It is single-threaded:
// callers must serialise every method call, including Tick.
type Game struct {
	tuning    Tuning
	pause     *PauseBus
	mover     *Mover
	seq       *Sequencer
	camera    Camera
	hud       HUD
	updaters  []Updater
	observer  Observer
	log       logrus.FieldLogger
	timeScale float64
	panelOpen bool
	elapsed   float64
	closed    bool
	unsub     func()
}

// NewGame wires a game from opts. The first level is not activated until
// Start is called.
func NewGame(opts Options) (*Game, error) {
	if err := opts.Tuning.Validate(); err != nil {
		return nil, err
	}
	if len(opts.Levels) == 0 {
		return nil, ErrNoLevels
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	bus := opts.Pause
	if bus == nil {
		bus = NewPauseBus()
	}

	g := &Game{
		tuning:    opts.Tuning,
		pause:     bus,
		camera:    opts.Camera,
		hud:       opts.HUD,
		updaters:  opts.Updaters,
		observer:  opts.Observer,
		log:       log,
		timeScale: 1,
	}
	g.mover = NewMover(opts.Tuning, bus, opts.Audio, opts.Observer, log)
	g.seq = NewSequencer(opts.Tuning, opts.Levels, SequencerDeps{
		Mover:    g.mover,
		Camera:   opts.Camera,
		HUD:      opts.HUD,
		Audio:    opts.Audio,
		Effects:  opts.Effects,
		Ads:      opts.Ads,
		Progress: opts.Progress,
		Observer: opts.Observer,
		Logger:   log,
		Rand:     opts.Rand,
	})
	g.unsub = bus.Subscribe(func(paused bool) {
		emit(g.observer, Event{Type: EventPauseChanged, Level: g.seq.CurrentIndex(), Detail: pausedDetail(paused)})
	})
	return g, nil
}

// Start activates the persisted level
func (g *Game) Start() error {
	if g.closed {
		return ErrTornDown
	}
	return g.seq.Start()
}

// Close tears the game down. Pending replay callbacks become no-ops.
func (g *Game) Close() {
	if g.closed {
		return
	}
	g.closed = true
	g.seq.Close()
	g.mover.Close()
	if g.unsub != nil {
		g.unsub()
	}
}

// Tick advances the simulation by dt seconds of wall time, scaled by the
// current time scale. A zero time scale stalls everything, including replay
// and fade timers.
func (g *Game) Tick(dt float64) {
	if g.closed {
		return
	}
	dt *= g.timeScale
	if dt <= 0 {
		return
	}
	g.elapsed += dt
	g.mover.Tick(dt)
	g.seq.replay.Tick(dt)
	for _, u := range g.updaters {
		u.Update(dt)
	}
}

// Swipe feeds a completed gesture to the mover. Gestures are ignored while a
// level-complete sequence runs.
func (g *Game) Swipe(gs Gesture) bool {
	if g.closed || g.seq.replay.Active() {
		return false
	}
	return g.mover.OnGesture(gs)
}

// Slide starts a slide in dir without a gesture
func (g *Game) Slide(dir Direction) bool {
	if g.closed || g.seq.replay.Active() || g.pause.Paused() {
		return false
	}
	return g.mover.Slide(dir)
}

// Skip presses the replay skip control
func (g *Game) Skip() bool {
	if g.closed {
		return false
	}
	return g.seq.replay.RequestSkip()
}

// SetPaused publishes the global paused flag
func (g *Game) SetPaused(paused bool) {
	if g.closed {
		return
	}
	g.pause.Publish(paused)
}

// SetPanelOpen opens or closes a modal panel. An open panel pauses the game
// and stops time.
func (g *Game) SetPanelOpen(open bool) {
	if g.closed {
		return
	}
	g.panelOpen = open
	if open {
		g.timeScale = 0
	} else {
		g.timeScale = 1
	}
	g.pause.Publish(open)
}

// SetTimeScale sets the multiplier applied to every tick delta
func (g *Game) SetTimeScale(scale float64) error {
	if scale < 0 {
		return errors.New("time scale must not be negative")
	}
	g.timeScale = scale
	return nil
}

// TimeScale returns the tick delta multiplier
func (g *Game) TimeScale() float64 { return g.timeScale }

// ActivateLevel jumps to level index
func (g *Game) ActivateLevel(index int) error { return g.seq.ActivateLevel(index) }

// ActivateNext advances to the next level
func (g *Game) ActivateNext() error { return g.seq.ActivateNext() }

// ReplacePiece respawns the piece in place
func (g *Game) ReplacePiece() error { return g.seq.ReplacePiece() }

// ResetProgress clears the persisted level index
func (g *Game) ResetProgress() error { return g.seq.ResetProgress() }

// Sequencer exposes the level sequencer
func (g *Game) Sequencer() *Sequencer { return g.seq }

// Mover exposes the piece mover
func (g *Game) Mover() *Mover { return g.mover }

// PauseBus exposes the pause bus
func (g *Game) PauseBus() *PauseBus { return g.pause }

// Closed reports whether Close was called
func (g *Game) Closed() bool { return g.closed }

func pausedDetail(paused bool) string {
	if paused {
		return "paused"
	}
	return "resumed"
}
