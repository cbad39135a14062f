package engine

import "github.com/sirupsen/logrus"

// ReplayState is a phase of the level-complete sequence
type ReplayState int

const (
	ReplayIdle ReplayState = iota
	ReplayFadingOut
	ReplayZoomingIn
	ReplayRewinding
	ReplayZoomingOut
	ReplayCelebrating
	ReplayAborted
)

func (s ReplayState) String() string {
	switch s {
	case ReplayIdle:
		return "idle"
	case ReplayFadingOut:
		return "fading_out"
	case ReplayZoomingIn:
		return "zooming_in"
	case ReplayRewinding:
		return "rewinding"
	case ReplayZoomingOut:
		return "zooming_out"
	case ReplayCelebrating:
		return "celebrating"
	case ReplayAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Stage is the level context a replay runs against
type Stage interface {
	// IsCurrent reports whether instance is still the live level instance
	IsCurrent(instance string) bool
	CurrentIndex() int
	Piece() *Piece
	History() []Vec2
	Background() *Background
	OriginalViewSize() float64
	MoverIdle() bool
	SetInputEnabled(enabled bool)
	RetirePiece()
	Advance()
}

// ReplayStatus is a read-only view of the orchestrator
type ReplayStatus struct {
	State          string `json:"state"`
	SkipRequested  bool   `json:"skip_requested"`
	SkipEnabled    bool   `json:"skip_enabled"`
	StepsTotal     int    `json:"steps_total"`
	StepsCompleted int    `json:"steps_completed"`
	Epoch          uint64 `json:"epoch"`
}

// Orchestrator drives the level-complete sequence: fade the HUD, zoom the
// camera out, rewind the piece along its stop history, zoom back, celebrate,
// then advance. It is an explicit state machine advanced by Tick; every
// phase keeps its own elapsed time.
type Orchestrator struct {
	tuning   Tuning
	stage    Stage
	camera   Camera
	hud      HUD
	audio    Audio
	effects  Effects
	observer Observer
	log      logrus.FieldLogger

	state    ReplayState
	epoch    uint64
	instance string

	settle      float64
	fadeStarted bool
	fader       tween
	zoom        tween

	path           []Vec2
	step           int
	stepFrom       Vec2
	stepT          float64
	stepsCompleted int
	skipRequested  bool
	skipEnabled    bool

	originalSize   float64
	targetSize     float64
	originalFollow FollowTarget
	anchor         *Anchor
	zoomed         bool
	loopPlaying    bool
}

// ReplayDeps are the optional collaborators of an Orchestrator
type ReplayDeps struct {
	Camera   Camera
	HUD      HUD
	Audio    Audio
	Effects  Effects
	Observer Observer
	Logger   logrus.FieldLogger
}

// NewOrchestrator creates an idle orchestrator
func NewOrchestrator(tuning Tuning, stage Stage, deps ReplayDeps) *Orchestrator {
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Orchestrator{
		tuning:   tuning,
		stage:    stage,
		camera:   deps.Camera,
		hud:      deps.HUD,
		audio:    deps.Audio,
		effects:  deps.Effects,
		observer: deps.Observer,
		log:      log.WithField("component", "replay"),
	}
}

// State returns the current phase
func (o *Orchestrator) State() ReplayState { return o.state }

// Active reports whether a sequence is in flight
func (o *Orchestrator) Active() bool {
	return o.state != ReplayIdle && o.state != ReplayAborted
}

// Status returns a snapshot of the orchestrator
func (o *Orchestrator) Status() ReplayStatus {
	total := 0
	if len(o.path) > 1 {
		total = len(o.path) - 1
	}
	return ReplayStatus{
		State:          o.state.String(),
		SkipRequested:  o.skipRequested,
		SkipEnabled:    o.skipEnabled,
		StepsTotal:     total,
		StepsCompleted: o.stepsCompleted,
		Epoch:          o.epoch,
	}
}

// Begin starts the sequence for the given level instance. It is ignored
// unless the orchestrator is idle.
func (o *Orchestrator) Begin(instance string) bool {
	if o.state != ReplayIdle {
		o.log.WithField("state", o.state).Debug("replay already running")
		return false
	}
	o.epoch++
	o.instance = instance
	o.settle = 0
	o.fadeStarted = false
	o.path = nil
	o.stepsCompleted = 0
	o.skipRequested = false
	o.skipEnabled = false
	o.zoomed = false
	o.stage.SetInputEnabled(false)
	if o.hud != nil {
		o.hud.SetInteractable(false)
	}
	o.setState(ReplayFadingOut)
	return true
}

// RequestSkip speeds up the remaining rewind. Only honoured while the skip
// control is shown.
func (o *Orchestrator) RequestSkip() bool {
	if !o.skipEnabled || o.skipRequested {
		return false
	}
	o.skipRequested = true
	o.log.Debug("skip requested")
	if la, ok := o.audio.(LoopingAudio); ok && o.loopPlaying {
		la.PlayLoop(SoundRewind, o.tuning.SkipSoundPitch)
	}
	emit(o.observer, Event{Type: EventSkipRequested, Level: o.stage.CurrentIndex()})
	return true
}

// SkipRequested reports whether skip was pressed during this sequence
func (o *Orchestrator) SkipRequested() bool { return o.skipRequested }

// Tick advances the sequence by dt seconds
func (o *Orchestrator) Tick(dt float64) {
	if o.state == ReplayAborted {
		return
	}
	// the fade-in outlives the sequence it belongs to
	fading := o.tickFader(dt)
	if !o.Active() {
		return
	}
	if !o.stage.IsCurrent(o.instance) {
		o.log.Debug("level instance gone; cancelling replay")
		o.Cancel()
		return
	}

	switch o.state {
	case ReplayFadingOut:
		o.tickFadingOut(dt, fading)
	case ReplayZoomingIn:
		o.tickZoomingIn(dt)
	case ReplayRewinding:
		o.tickRewinding(dt)
	case ReplayZoomingOut:
		o.tickZoomingOut(dt)
	}
}

// Cancel abandons the sequence and restores the camera and HUD
func (o *Orchestrator) Cancel() {
	if !o.Active() {
		return
	}
	o.epoch++
	o.stopLoop()
	o.fader.stop()
	o.zoom.stop()
	if o.camera != nil && o.zoomed {
		o.camera.SetViewSize(o.originalSize)
		o.camera.SetFollow(o.originalFollow)
	}
	o.anchor = nil
	o.originalFollow = nil
	if o.hud != nil {
		o.hud.SetAlpha(1)
		o.hud.SetInteractable(true)
		o.hud.SetSkipVisible(false)
	}
	o.skipEnabled = false
	o.setState(ReplayIdle)
}

// Abort stops the sequence for teardown. No completion side effects run and
// the orchestrator stays inert.
func (o *Orchestrator) Abort() {
	o.epoch++
	o.stopLoop()
	o.fader.stop()
	o.zoom.stop()
	o.anchor = nil
	o.originalFollow = nil
	o.skipEnabled = false
	o.state = ReplayAborted
}

func (o *Orchestrator) tickFader(dt float64) bool {
	if !o.fader.active {
		return false
	}
	v, done := o.fader.step(dt)
	if o.hud != nil {
		o.hud.SetAlpha(v)
		if done && v >= 1 && !o.Active() {
			o.hud.SetInteractable(true)
		}
	}
	return !done
}

func (o *Orchestrator) startFade(to float64) {
	if o.hud == nil {
		return
	}
	o.fader = newTween(o.hud.Alpha(), to, o.tuning.FadeDuration)
}

func (o *Orchestrator) tickFadingOut(dt float64, fading bool) {
	if !o.fadeStarted {
		o.settle += dt
		if o.settle < o.tuning.SettleDelay || !o.stage.MoverIdle() {
			return
		}
		o.fadeStarted = true
		o.startFade(0)
		return
	}
	if fading {
		return
	}
	o.skipRequested = false
	o.skipEnabled = true
	if o.hud != nil {
		o.hud.SetSkipVisible(true)
	}
	o.enterZoomingIn()
}

func (o *Orchestrator) enterZoomingIn() {
	o.path = o.stage.History()
	if len(o.path) < 2 {
		o.log.WithField("points", len(o.path)).Debug("nothing to rewind")
		o.enterCelebrating()
		return
	}
	if o.camera == nil {
		o.log.Warn("no camera; skipping zoom")
		o.enterRewinding()
		return
	}

	target := o.tuning.RewindZoomSize
	focal := Average(o.path)
	if bg := o.stage.Background(); bg != nil {
		target = FitToTargetDimensions(bg.Width, bg.Height, o.tuning.ScreenAspect)
		focal = bg.Center
	}
	o.originalSize = o.stage.OriginalViewSize()
	o.targetSize = target
	o.anchor = &Anchor{At: focal}
	o.originalFollow = o.camera.Follow()
	o.camera.SetFollow(o.anchor)
	o.zoomed = true
	o.zoom = newTween(o.camera.ViewSize(), target, o.tuning.ZoomDuration)
	o.setState(ReplayZoomingIn)
}

func (o *Orchestrator) tickZoomingIn(dt float64) {
	v, done := o.zoom.step(dt)
	o.camera.SetViewSize(v)
	if done {
		o.enterRewinding()
	}
}

func (o *Orchestrator) enterRewinding() {
	piece := o.stage.Piece()
	if piece == nil {
		o.log.Warn("no piece to rewind")
		o.enterZoomingOut()
		return
	}
	piece.ActivateTrail()
	o.playLoop()
	// a slide halted by pause may leave the piece short of the newest stop
	o.stepFrom = o.path[len(o.path)-1]
	piece.SetPosition(o.stepFrom)
	o.step = len(o.path) - 2
	o.stepT = 0
	o.setState(ReplayRewinding)
}

func (o *Orchestrator) tickRewinding(dt float64) {
	piece := o.stage.Piece()
	if piece == nil {
		o.finishRewind(nil)
		return
	}

	duration := o.tuning.RewindStepDuration
	if o.skipRequested {
		duration /= o.tuning.SkipSpeedMultiplier
	}
	if duration <= 0 {
		o.stepT = 1
	} else {
		o.stepT += dt / duration
	}

	dest := o.path[o.step]
	if o.stepT < 1 {
		piece.SetPosition(Lerp(o.stepFrom, dest, o.stepT))
		return
	}

	piece.SetPosition(dest)
	o.stepsCompleted++
	emit(o.observer, Event{Type: EventRewindStep, Level: o.stage.CurrentIndex(), Position: posPtr(dest), Count: o.stepsCompleted})
	o.stepFrom = dest
	o.stepT = 0
	o.step--
	if o.step < 0 {
		o.finishRewind(piece)
	}
}

func (o *Orchestrator) finishRewind(piece *Piece) {
	if piece != nil {
		piece.SetPosition(o.path[0])
	}
	o.stopLoop()
	o.enterZoomingOut()
}

func (o *Orchestrator) enterZoomingOut() {
	o.stage.RetirePiece()
	if o.camera == nil || !o.zoomed {
		o.enterCelebrating()
		return
	}
	o.zoom = newTween(o.camera.ViewSize(), o.originalSize, o.tuning.ZoomDuration)
	o.setState(ReplayZoomingOut)
}

func (o *Orchestrator) tickZoomingOut(dt float64) {
	v, done := o.zoom.step(dt)
	o.camera.SetViewSize(v)
	if !done {
		return
	}
	o.camera.SetFollow(o.originalFollow)
	o.originalFollow = nil
	o.anchor = nil
	o.zoomed = false
	o.enterCelebrating()
}

func (o *Orchestrator) enterCelebrating() {
	o.setState(ReplayCelebrating)
	o.skipEnabled = false
	o.startFade(1)
	if o.hud != nil {
		o.hud.SetSkipVisible(false)
	}
	if o.effects != nil {
		if p := o.tuning.SuccessEffectPoint; p != nil {
			o.effects.SpawnSuccessEffect(*p)
		}
		o.effects.ShakeCamera()
	}

	epoch := o.epoch
	if o.audio == nil {
		o.advance(epoch)
		return
	}
	o.audio.PlaySoundByNameWithCallback(SoundSuccess, func() { o.advance(epoch) })
}

// advance runs once the success sound finishes. Stale callbacks from a
// cancelled or superseded sequence are dropped.
func (o *Orchestrator) advance(epoch uint64) {
	if epoch != o.epoch || o.state != ReplayCelebrating {
		o.log.WithField("epoch", epoch).Debug("dropping stale advance")
		return
	}
	o.setState(ReplayIdle)
	o.stage.Advance()
}

func (o *Orchestrator) playLoop() {
	pitch := 1.0
	if o.skipRequested {
		pitch = o.tuning.SkipSoundPitch
	}
	switch a := o.audio.(type) {
	case nil:
		return
	case LoopingAudio:
		a.PlayLoop(SoundRewind, pitch)
		o.loopPlaying = true
	default:
		o.audio.PlaySoundByName(SoundRewind)
	}
}

func (o *Orchestrator) stopLoop() {
	if !o.loopPlaying {
		return
	}
	o.loopPlaying = false
	if la, ok := o.audio.(LoopingAudio); ok {
		la.StopLoop(SoundRewind)
	}
}

func (o *Orchestrator) setState(s ReplayState) {
	if o.state == s {
		return
	}
	o.state = s
	o.log.WithField("state", s).Debug("replay state")
	emit(o.observer, Event{Type: EventReplayState, Level: o.stage.CurrentIndex(), Detail: s.String()})
}
