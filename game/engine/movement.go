package engine

import "github.com/sirupsen/logrus"

// Trail is the piece's motion trail state
type Trail struct {
	Enabled  bool `json:"enabled"`
	Emitting bool `json:"emitting"`
	Cleared  int  `json:"cleared"`
}

// Piece is the sliding player piece
type Piece struct {
	position Vec2
	target   Vec2
	velocity Vec2
	moving   bool
	moveTime float64
	lastDir  Direction
	trail    Trail
	retired  bool
}

// NewPiece spawns a piece at p with its trail reset and emitting
func NewPiece(p Vec2) *Piece {
	pc := &Piece{position: p, target: p}
	pc.ActivateTrail()
	return pc
}

// Position returns the current position; Piece is a camera FollowTarget.
func (p *Piece) Position() Vec2 { return p.position }

// SetPosition teleports the piece. Used by the rewind.
func (p *Piece) SetPosition(v Vec2) { p.position = v }

// Target returns the stop point of the current move
func (p *Piece) Target() Vec2 { return p.target }

// Moving reports whether a slide is in progress
func (p *Piece) Moving() bool { return p.moving }

// LastDirection returns the direction of the most recent accepted gesture
func (p *Piece) LastDirection() Direction { return p.lastDir }

// Trail returns the trail state
func (p *Piece) Trail() Trail { return p.trail }

// Retired reports whether the piece has been removed from play
func (p *Piece) Retired() bool { return p.retired }

// ActivateTrail clears the trail and enables emission
func (p *Piece) ActivateTrail() {
	p.trail.Cleared++
	p.trail.Enabled = true
	p.trail.Emitting = true
}

// DeactivateTrail clears and disables the trail
func (p *Piece) DeactivateTrail() {
	p.trail.Cleared++
	p.trail.Enabled = false
	p.trail.Emitting = false
}

func (p *Piece) halt() {
	p.velocity = Vec2{}
	p.moving = false
	p.moveTime = 0
	p.target = p.position
}

// Mover turns gestures into slides and advances the active piece each tick
type Mover struct {
	tuning   Tuning
	audio    Audio
	observer Observer
	log      logrus.FieldLogger

	piece   *Piece
	physics Physics
	history *PathHistory
	level   int

	paused          bool
	inputEnabled    bool
	playedMoveSound bool
	unsubscribe     func()
}

// NewMover creates a mover subscribed to bus. Call Close to unsubscribe.
func NewMover(tuning Tuning, bus *PauseBus, audio Audio, observer Observer, log logrus.FieldLogger) *Mover {
	if log == nil {
		log = logrus.StandardLogger()
	}
	m := &Mover{
		tuning:       tuning,
		audio:        audio,
		observer:     observer,
		log:          log.WithField("component", "mover"),
		inputEnabled: true,
	}
	if bus != nil {
		m.paused = bus.Paused()
		m.unsubscribe = bus.Subscribe(m.handlePause)
	}
	return m
}

// Attach makes piece the controlled piece of level
func (m *Mover) Attach(level int, piece *Piece, physics Physics, history *PathHistory) {
	m.level = level
	m.piece = piece
	m.physics = physics
	m.history = history
	m.playedMoveSound = false
}

// Detach releases the controlled piece
func (m *Mover) Detach() {
	m.piece = nil
	m.physics = nil
	m.history = nil
	m.playedMoveSound = false
}

// Close unsubscribes from the pause bus
func (m *Mover) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.Detach()
}

// SetInputEnabled gates gesture handling
func (m *Mover) SetInputEnabled(enabled bool) { m.inputEnabled = enabled }

// InputEnabled reports whether gestures are accepted
func (m *Mover) InputEnabled() bool { return m.inputEnabled }

// Paused reports the last pause flag received
func (m *Mover) Paused() bool { return m.paused }

// Idle reports whether there is no slide in progress
func (m *Mover) Idle() bool {
	return m.piece == nil || !m.piece.moving
}

// OnGesture handles a completed swipe. It reports whether a slide started.
func (m *Mover) OnGesture(g Gesture) bool {
	switch {
	case m.piece == nil || m.physics == nil:
		return m.ignore("no piece")
	case m.paused:
		return m.ignore("paused")
	case g.OverUI:
		return m.ignore("over ui")
	case !m.inputEnabled:
		return m.ignore("input disabled")
	}

	swipe := g.End.Sub(g.Start)
	if swipe.Len() < m.tuning.SwipeThreshold {
		m.log.WithField("magnitude", swipe.Len()).Debug("swipe too short")
		return m.ignore("too short")
	}

	swipe = swipe.Normalize()
	var dir Direction
	if abs64(swipe.X) > abs64(swipe.Y) {
		dir = DirLeft
		if swipe.X > 0 {
			dir = DirRight
		}
	} else {
		dir = DirDown
		if swipe.Y > 0 {
			dir = DirUp
		}
	}
	return m.Slide(dir)
}

// Slide starts a slide in dir. A resting piece is snapped to the grid even
// when the slide turns out to be blocked.
func (m *Mover) Slide(dir Direction) bool {
	p := m.piece
	if p == nil || m.physics == nil || m.paused || !m.inputEnabled {
		return false
	}
	if p.moving {
		m.log.WithField("direction", dir).Debug("slide rejected: already moving")
		return false
	}
	p.lastDir = dir

	r := m.tuning.PieceRadius
	res := m.tuning.GridResolution
	var stop Vec2
	if hit, ok := m.physics.CastCircle(p.position, r, dir); ok {
		stop = hit.Sub(dir.Vector().Scale(r))
	} else {
		stop = p.position.Add(dir.Vector().Scale(m.tuning.FarBound))
	}

	snapped := Vec2{SnapToGrid(p.position.X, res), SnapToGrid(p.position.Y, res)}
	target := snapped
	if dir.Horizontal() {
		target.X = SnapToGrid(stop.X, res)
	} else {
		target.Y = SnapToGrid(stop.Y, res)
	}
	p.position = snapped

	if target == p.position {
		m.log.WithField("direction", dir).Debug("slide rejected: blocked")
		return false
	}

	p.target = target
	p.moving = true
	p.moveTime = 0
	if !m.playedMoveSound {
		m.playedMoveSound = true
		if m.audio != nil {
			m.audio.PlayOneShot(SoundMove, m.tuning.MoveVolume)
		}
	}
	emit(m.observer, Event{Type: EventMoveStarted, Level: m.level, Position: posPtr(target), Direction: dir.String()})
	return true
}

// Tick advances an in-progress slide by dt seconds
func (m *Mover) Tick(dt float64) {
	p := m.piece
	if p == nil || m.paused || !p.moving || dt <= 0 {
		return
	}

	p.moveTime += dt
	speed := m.tuning.MoveSpeed
	if p.moveTime < m.tuning.BurstDuration {
		speed *= m.tuning.BurstMultiplier
	}

	prev := p.position
	p.position = MoveTowards(prev, p.target, speed*dt)
	p.velocity = p.position.Sub(prev).Scale(1 / dt)

	if m.physics != nil {
		for _, t := range m.physics.OverlapTiles(prev, p.position, m.tuning.OverlapRadius) {
			t.Break(p.lastDir)
		}
	}

	// a break may have completed the level and replaced the piece
	if m.piece != p {
		return
	}
	if p.position.Dist(p.target) < m.tuning.StopEpsilon {
		m.stop()
	}
}

func (m *Mover) stop() {
	p := m.piece
	p.position = p.target
	p.halt()
	m.playedMoveSound = false
	if m.history != nil {
		m.history.RecordStop(p.position)
	}
	emit(m.observer, Event{Type: EventMoveStopped, Level: m.level, Position: posPtr(p.position)})
}

func (m *Mover) handlePause(paused bool) {
	m.paused = paused
	if m.piece == nil {
		return
	}
	if paused {
		m.piece.halt()
		m.piece.trail.Emitting = false
		m.playedMoveSound = false
	} else {
		m.piece.trail.Emitting = m.piece.trail.Enabled
	}
}

func (m *Mover) ignore(reason string) bool {
	emit(m.observer, Event{Type: EventGestureIgnored, Level: m.level, Detail: reason})
	return false
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
